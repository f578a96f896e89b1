package catalog

import "time"

// DefaultCategory is assigned to every SKU created from a GPU listing
const DefaultCategory = "그래픽카드"

// Chipset identifies one of the tracked GPU model tiers
type Chipset string

const (
	ChipsetRTX4070        Chipset = "RTX 4070"
	ChipsetRTX4070Super   Chipset = "RTX 4070 Super"
	ChipsetRTX4070Ti      Chipset = "RTX 4070 Ti"
	ChipsetRTX4070TiSuper Chipset = "RTX 4070 Ti Super"
)

// Valid checks if the chipset is one of the tracked variants
func (c Chipset) Valid() bool {
	switch c {
	case ChipsetRTX4070, ChipsetRTX4070Super, ChipsetRTX4070Ti, ChipsetRTX4070TiSuper:
		return true
	}
	return false
}

// String returns string representation
func (c Chipset) String() string {
	return string(c)
}

// RawListing is a scraped product listing before normalization
type RawListing struct {
	Name        string
	Price       float64
	Source      string
	URL         string
	CollectedAt time.Time
}

// NormalizedProduct is the structured form of a raw listing name.
// Immutable once produced; the five fields together identify a SKU.
type NormalizedProduct struct {
	Brand     string  `json:"brand"`
	Chipset   Chipset `json:"chipset"`
	ModelName string  `json:"model_name"`
	VRAM      string  `json:"vram"`
	IsOC      bool    `json:"is_oc"`
}

// SKU is a persisted catalog entry
type SKU struct {
	ID        int64     `db:"id" json:"id"`
	Brand     string    `db:"brand" json:"brand"`
	Chipset   Chipset   `db:"chipset" json:"chipset"`
	ModelName string    `db:"model_name" json:"model_name"`
	VRAM      string    `db:"vram" json:"vram"`
	IsOC      bool      `db:"is_oc" json:"is_oc"`
	Category  string    `db:"category" json:"category"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Fields returns the normalized five-field identity of the SKU
func (s *SKU) Fields() NormalizedProduct {
	return NormalizedProduct{
		Brand:     s.Brand,
		Chipset:   s.Chipset,
		ModelName: s.ModelName,
		VRAM:      s.VRAM,
		IsOC:      s.IsOC,
	}
}

// SimilarSKU is a catalog entry ranked against a normalized product.
// Score: 3 same brand and chipset, 2 same chipset, 1 same brand.
type SimilarSKU struct {
	SKU
	Score int `db:"score" json:"score"`
}

// ListFilter narrows SKU listing queries
type ListFilter struct {
	Brand   string
	Chipset string
	Limit   int
	Offset  int
}
