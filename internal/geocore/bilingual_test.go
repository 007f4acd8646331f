package geocore_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Canadian-Geospatial-Platform/stac-to-geocore/internal/geocore"
)

func TestSplitBilingual(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want geocore.Bilingual
	}{
		{name: "both languages", in: "Forest Cover/Couverture forestière", want: geocore.Bilingual{En: "Forest Cover", Fr: "Couverture forestière"}},
		{name: "english only", in: "Only English", want: geocore.Bilingual{En: "Only English", Fr: "Only English"}},
		{name: "spaces around separator", in: "CCMEO Datacube/ CCCOT Cube de données", want: geocore.Bilingual{En: "CCMEO Datacube", Fr: "CCCOT Cube de données"}},
		{name: "split on first separator", in: "A/B/C", want: geocore.Bilingual{En: "A", Fr: "B/C"}},
		{name: "empty", in: "", want: geocore.Bilingual{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, geocore.SplitBilingual(tt.in))
		})
	}
}

func TestSplitBilingualOr(t *testing.T) {
	t.Parallel()

	assert.Equal(t, geocore.Same("landcover"), geocore.SplitBilingualOr("  ", "landcover"))
	assert.Equal(t, geocore.Bilingual{En: "Land", Fr: "Terre"}, geocore.SplitBilingualOr("Land/Terre", "landcover"))
}
