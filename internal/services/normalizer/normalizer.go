package normalizer

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"argus/internal/domain/catalog"
	"argus/pkg/errors"
)

// Config holds the lexicons the normalizer matches against. Injected at
// construction so tests can substitute alternate catalogs.
type Config struct {
	// Brands is the recognition lexicon, tried in order; first hit wins
	Brands []string

	// BrandAliases maps lexicon tokens to their canonical English name
	BrandAliases map[string]string

	// ChipsetPatterns is a priority-ordered regex list evaluated in
	// sequence. The order is load-bearing: every "Ti Super" form must
	// precede the "Super" and "Ti" forms, which precede the plain form,
	// or a shorter pattern steals the match inside a longer phrase.
	ChipsetPatterns []string
}

// DefaultConfig returns the production lexicons
func DefaultConfig() Config {
	return Config{
		Brands: []string{
			"ASUS", "MSI", "GIGABYTE", "기가바이트", "ZOTAC", "PALIT", "팔릿",
			"GALAX", "GAINWARD", "이엠텍", "EMTEK", "PNY", "INNO3D",
			"COLORFUL", "MANLI", "KFA2", "EVGA", "LEADTEK",
		},
		BrandAliases: map[string]string{
			"기가바이트": "GIGABYTE",
			"팔릿":    "PALIT",
			"이엠텍":   "EMTEK",
		},
		ChipsetPatterns: []string{
			`RTX\s+4070\s+Ti\s+Super`,
			`4070\s+Ti\s+Super`,
			`RTX\s+4070\s+Super`,
			`4070\s+Super`,
			`RTX\s+4070\s+Ti`,
			`4070\s+Ti`,
			`RTX\s+4070`,
		},
	}
}

// Service parses raw free-text product names into normalized products.
// Stateless; safe for concurrent use once constructed.
type Service struct {
	cfg      Config
	brands   []*regexp.Regexp
	chipsets []*regexp.Regexp
	vram     *regexp.Regexp
	oc       *regexp.Regexp
	memType  *regexp.Regexp
	family   *regexp.Regexp
	junk     *regexp.Regexp
	spaces   *regexp.Regexp
}

// NewService compiles the configured lexicons into a normalizer
func NewService(cfg Config) (*Service, error) {
	s := &Service{
		cfg:     cfg,
		vram:    regexp.MustCompile(`(?i)(\d+)\s*GB`),
		oc:      mustBounded(`OC|오버클럭|Overclock`),
		memType: regexp.MustCompile(`(?i)\b(D6X?|GDDR6X?)\b`),
		family:  mustBounded(`지포스|GeForce`),
		junk:    regexp.MustCompile(`[^\w\s가-힣-]`),
		spaces:  regexp.MustCompile(`\s+`),
	}

	for _, brand := range cfg.Brands {
		re, err := compileBounded(regexp.QuoteMeta(brand))
		if err != nil {
			return nil, errors.Wrapf(err, "compile brand pattern %q", brand)
		}
		s.brands = append(s.brands, re)
	}

	for _, pattern := range cfg.ChipsetPatterns {
		re, err := regexp.Compile(`(?i)\b(?:` + pattern + `)\b`)
		if err != nil {
			return nil, errors.Wrapf(err, "compile chipset pattern %q", pattern)
		}
		s.chipsets = append(s.chipsets, re)
	}

	return s, nil
}

// compileBounded wraps a pattern with boundary guards that treat any
// letter or digit as a word character. Go's \b is ASCII-only, so Korean
// lexicon tokens would never match at hangul boundaries without this.
func compileBounded(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile(`(?i)(?:^|[^\p{L}\p{N}_])(` + pattern + `)(?:[^\p{L}\p{N}_]|$)`)
}

func mustBounded(pattern string) *regexp.Regexp {
	re, err := compileBounded(pattern)
	if err != nil {
		panic(err)
	}
	return re
}

// Normalize parses a raw product name into its structured form.
// Brand, chipset and VRAM are mandatory; their absence is a
// *errors.NormalizationError naming the field and the raw text.
func (s *Service) Normalize(raw string) (catalog.NormalizedProduct, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return catalog.NormalizedProduct{}, errors.NewNormalizationErrorf("name", raw, "empty product name")
	}

	brand, err := s.extractBrand(name)
	if err != nil {
		return catalog.NormalizedProduct{}, err
	}

	chipset, err := s.extractChipset(name)
	if err != nil {
		return catalog.NormalizedProduct{}, err
	}

	vram, err := s.extractVRAM(name)
	if err != nil {
		return catalog.NormalizedProduct{}, err
	}

	return catalog.NormalizedProduct{
		Brand:     brand,
		Chipset:   chipset,
		ModelName: s.extractModelName(name),
		VRAM:      vram,
		IsOC:      s.oc.MatchString(name),
	}, nil
}

// Result pairs one batch input with its outcome
type Result struct {
	Raw     string
	Product catalog.NormalizedProduct
	Err     error
}

// NormalizeBatch normalizes every name, recording per-item failures
// instead of aborting the batch
func (s *Service) NormalizeBatch(names []string) []Result {
	results := make([]Result, 0, len(names))
	for _, name := range names {
		product, err := s.Normalize(name)
		results = append(results, Result{Raw: name, Product: product, Err: err})
	}
	return results
}

func (s *Service) extractBrand(name string) (string, error) {
	for i, re := range s.brands {
		if !re.MatchString(name) {
			continue
		}
		token := s.cfg.Brands[i]
		if canonical, ok := s.cfg.BrandAliases[token]; ok {
			token = canonical
		}
		return strings.ToUpper(token), nil
	}
	return "", errors.NewNormalizationError("brand", name)
}

func (s *Service) extractChipset(name string) (catalog.Chipset, error) {
	for _, re := range s.chipsets {
		match := re.FindString(name)
		if match == "" {
			continue
		}
		canonical := canonicalizeChipset(match)
		chipset := catalog.Chipset(canonical)
		if !chipset.Valid() {
			return "", errors.NewNormalizationErrorf("chipset", name, "invalid chipset %q", canonical)
		}
		return chipset, nil
	}
	return "", errors.NewNormalizationError("chipset", name)
}

// canonicalizeChipset collapses whitespace, restores the RTX prefix and
// fixes capitalization ("rtx 4070 ti" -> "RTX 4070 Ti")
func canonicalizeChipset(matched string) string {
	words := strings.Fields(matched)
	if len(words) == 0 || !strings.EqualFold(words[0], "RTX") {
		words = append([]string{"RTX"}, words...)
	}
	for i, w := range words {
		if strings.EqualFold(w, "RTX") {
			words[i] = "RTX"
		} else {
			words[i] = titleWord(w)
		}
	}
	return strings.Join(words, " ")
}

func titleWord(w string) string {
	runes := []rune(strings.ToLower(w))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func (s *Service) extractVRAM(name string) (string, error) {
	m := s.vram.FindStringSubmatch(name)
	if m == nil {
		return "", errors.NewNormalizationError("vram", name)
	}
	// first occurrence is authoritative; later VRAM-like substrings
	// (comparison values in parentheses) are ignored
	return fmt.Sprintf("%sGB", m[1]), nil
}

// extractModelName strips every recognized token from the name and
// keeps the residual as the model descriptor. A residual shorter than
// 3 characters falls back to the raw name: noisy data beats an empty
// model name.
func (s *Service) extractModelName(name string) string {
	residual := name
	for _, re := range s.brands {
		residual = stripBounded(re, residual)
	}
	for _, re := range s.chipsets {
		residual = re.ReplaceAllString(residual, " ")
	}
	residual = s.memType.ReplaceAllString(residual, " ")
	residual = stripBounded(s.family, residual)
	residual = s.vram.ReplaceAllString(residual, " ")
	residual = stripBounded(s.oc, residual)

	residual = s.junk.ReplaceAllString(residual, " ")
	residual = strings.TrimSpace(s.spaces.ReplaceAllString(residual, " "))

	if utf8.RuneCountInString(residual) < 3 {
		return name
	}
	return residual
}

// stripBounded removes every occurrence of the pattern's token capture
// while keeping the surrounding boundary characters. ReplaceAllString
// would consume the boundary character and hide adjacent occurrences.
func stripBounded(re *regexp.Regexp, s string) string {
	for {
		loc := re.FindStringSubmatchIndex(s)
		if loc == nil {
			return s
		}
		s = s[:loc[2]] + " " + s[loc[3]:]
	}
}
