package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"argus/internal/domain/catalog"
	"argus/pkg/errors"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(DefaultConfig())
	require.NoError(t, err)
	return svc
}

func TestService_Normalize_FullListings(t *testing.T) {
	svc := newTestService(t)

	tests := []struct {
		name string
		raw  string
		want catalog.NormalizedProduct
	}{
		{
			name: "asus super oc",
			raw:  "ASUS DUAL GeForce RTX 4070 SUPER OC 12GB GDDR6X",
			want: catalog.NormalizedProduct{
				Brand:     "ASUS",
				Chipset:   catalog.ChipsetRTX4070Super,
				ModelName: "DUAL",
				VRAM:      "12GB",
				IsOC:      true,
			},
		},
		{
			name: "korean brand and oc token",
			raw:  "기가바이트 지포스 RTX 4070 Ti Super WINDFORCE 오버클럭 16GB",
			want: catalog.NormalizedProduct{
				Brand:     "GIGABYTE",
				Chipset:   catalog.ChipsetRTX4070TiSuper,
				ModelName: "WINDFORCE",
				VRAM:      "16GB",
				IsOC:      true,
			},
		},
		{
			name: "plain 4070",
			raw:  "MSI GeForce RTX 4070 Ventus 2X 12GB",
			want: catalog.NormalizedProduct{
				Brand:     "MSI",
				Chipset:   catalog.ChipsetRTX4070,
				ModelName: "Ventus 2X",
				VRAM:      "12GB",
				IsOC:      false,
			},
		},
		{
			name: "korean palit alias with memory token",
			raw:  "팔릿 RTX 4070 Ti GamingPro D6X 12GB",
			want: catalog.NormalizedProduct{
				Brand:     "PALIT",
				Chipset:   catalog.ChipsetRTX4070Ti,
				ModelName: "GamingPro",
				VRAM:      "12GB",
				IsOC:      false,
			},
		},
		{
			name: "emtek alias",
			raw:  "이엠텍 RTX 4070 SUPER STORM X 12GB 오버클럭",
			want: catalog.NormalizedProduct{
				Brand:     "EMTEK",
				Chipset:   catalog.ChipsetRTX4070Super,
				ModelName: "STORM X",
				VRAM:      "12GB",
				IsOC:      true,
			},
		},
		{
			name: "lowercase listing",
			raw:  "zotac rtx 4070 twin edge 12gb",
			want: catalog.NormalizedProduct{
				Brand:     "ZOTAC",
				Chipset:   catalog.ChipsetRTX4070,
				ModelName: "twin edge",
				VRAM:      "12GB",
				IsOC:      false,
			},
		},
		{
			name: "decoration stripped from descriptor",
			raw:  "ASUS TUF Gaming RTX 4070 SUPER 12GB [방열판]",
			want: catalog.NormalizedProduct{
				Brand:     "ASUS",
				Chipset:   catalog.ChipsetRTX4070Super,
				ModelName: "TUF Gaming 방열판",
				VRAM:      "12GB",
				IsOC:      false,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Normalize(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestService_Normalize_ChipsetPriority(t *testing.T) {
	svc := newTestService(t)

	tests := []struct {
		name string
		raw  string
		want catalog.Chipset
	}{
		{"ti super never shortened to ti", "GALAX RTX 4070 Ti Super EX 16GB", catalog.ChipsetRTX4070TiSuper},
		{"ti super without rtx prefix", "GAINWARD 4070 Ti Super Phantom 16GB", catalog.ChipsetRTX4070TiSuper},
		{"super without rtx prefix", "PNY 4070 Super Verto 12GB", catalog.ChipsetRTX4070Super},
		{"ti without rtx prefix", "EVGA 4070 Ti FTW3 12GB", catalog.ChipsetRTX4070Ti},
		{"super not shortened to plain", "MSI RTX 4070 SUPER Gaming 12GB", catalog.ChipsetRTX4070Super},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Normalize(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Chipset)
		})
	}
}

func TestService_Normalize_BarePlainNumeralRejected(t *testing.T) {
	svc := newTestService(t)

	// only Ti/Super variants have an RTX-less form; a bare numeral is
	// too easy to confuse with unrelated part numbers
	_, err := svc.Normalize("INNO3D 4070 Twin X2 12GB")
	require.Error(t, err)

	var normErr *errors.NormalizationError
	require.True(t, errors.As(err, &normErr))
	assert.Equal(t, "chipset", normErr.Field)
}

func TestService_Normalize_OutOfScopeChipsets(t *testing.T) {
	svc := newTestService(t)

	for _, raw := range []string{
		"GIGABYTE RTX 4060 EAGLE 8GB",
		"MSI RTX 4080 Ventus 16GB",
		"ASUS ROG STRIX RTX 4090 OC 24GB",
	} {
		t.Run(raw, func(t *testing.T) {
			_, err := svc.Normalize(raw)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "chipset")
			assert.Contains(t, err.Error(), raw)
		})
	}
}

func TestService_Normalize_MissingFields(t *testing.T) {
	svc := newTestService(t)

	tests := []struct {
		name      string
		raw       string
		wantField string
	}{
		{"empty input", "", "name"},
		{"whitespace only", "   \t ", "name"},
		{"no brand", "RTX 4070 SUPER 12GB", "brand"},
		{"no chipset", "ASUS DUAL 12GB OC", "chipset"},
		{"no vram", "ASUS RTX 4070 DUAL OC", "vram"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Normalize(tt.raw)
			require.Error(t, err)

			var normErr *errors.NormalizationError
			require.True(t, errors.As(err, &normErr))
			assert.Equal(t, tt.wantField, normErr.Field)
			assert.Equal(t, tt.raw, normErr.Raw)
		})
	}
}

func TestService_Normalize_FirstVRAMWins(t *testing.T) {
	svc := newTestService(t)

	got, err := svc.Normalize("ASUS RTX 4070 DUAL 12GB (16GB 아님)")
	require.NoError(t, err)
	assert.Equal(t, "12GB", got.VRAM)
}

func TestService_Normalize_OverclockVariants(t *testing.T) {
	svc := newTestService(t)

	tests := []struct {
		raw    string
		wantOC bool
	}{
		{"MANLI RTX 4070 Gallardo OC 12GB", true},
		{"KFA2 RTX 4070 EX Overclock 12GB", true},
		{"LEADTEK RTX 4070 HURRICANE 오버클럭 12GB", true},
		{"COLORFUL RTX 4070 iGame 12GB", false},
		// OC must be its own token, not a prefix of another word
		{"ASUS RTX 4070 OCEAN 12GB", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := svc.Normalize(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOC, got.IsOC)
		})
	}
}

func TestService_Normalize_DescriptorFallback(t *testing.T) {
	svc := newTestService(t)

	// every token is recognized, so the residual is empty and the raw
	// name is kept as the descriptor
	got, err := svc.Normalize("ASUS RTX 4070 12GB")
	require.NoError(t, err)
	assert.Equal(t, "ASUS RTX 4070 12GB", got.ModelName)
}

func TestService_Normalize_TokenOrderIndependence(t *testing.T) {
	svc := newTestService(t)

	got, err := svc.Normalize("OC 12GB RTX 4070 Ti ASUS")
	require.NoError(t, err)
	assert.Equal(t, "ASUS", got.Brand)
	assert.Equal(t, catalog.ChipsetRTX4070Ti, got.Chipset)
	assert.Equal(t, "12GB", got.VRAM)
	assert.True(t, got.IsOC)
}

func TestService_NormalizeBatch_ContinuesPastFailures(t *testing.T) {
	svc := newTestService(t)

	results := svc.NormalizeBatch([]string{
		"ASUS RTX 4070 DUAL 12GB",
		"완전히 알 수 없는 상품",
		"MSI RTX 4070 Ti Gaming 12GB",
	})

	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err)
	assert.NoError(t, results[2].Err)
	assert.Equal(t, catalog.ChipsetRTX4070Ti, results[2].Product.Chipset)
}

func TestNewService_InvalidPattern(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ChipsetPatterns = append(cfg.ChipsetPatterns, `RTX\s+(`)

	_, err := NewService(cfg)
	require.Error(t, err)
}
