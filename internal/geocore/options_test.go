package geocore_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Canadian-Geospatial-Platform/stac-to-geocore/internal/geocore"
	"github.com/Canadian-Geospatial-Platform/stac-to-geocore/internal/stac"
)

var rootName = geocore.Bilingual{En: "CCMEO Datacube", Fr: "CCCOT Cube de données"}

func TestLinkOptions_NamingByLevel(t *testing.T) {
	t.Parallel()

	links := []stac.Link{
		{Rel: "self", Href: "https://x/self", Type: "application/json"},
		{Rel: "root", Href: "https://x/"},
		{Rel: "parent", Href: "https://x/parent"},
		{Rel: "items", Href: "https://x/items", Type: "application/geo+json"},
		{Rel: "license", Href: "https://x/licence", Title: "Licence"},
		{Rel: "alternate", Href: "https://x/alt"},
	}

	tests := []struct {
		name  string
		oc    geocore.OptionContext
		names []geocore.Bilingual
	}{
		{
			name: "root",
			oc:   geocore.OptionContext{Level: geocore.LevelRoot, EntityID: "cube", RootName: rootName},
			names: []geocore.Bilingual{
				{En: "Root - CCMEO Datacube", Fr: "Racine - CCCOT Cube de données"},
				{En: "Root - CCMEO Datacube", Fr: "Racine - CCCOT Cube de données"},
				{En: "Unknown", Fr: "Inconnue"},
				{En: "Items listings", Fr: "Èléments la liste"},
				{En: "Licence", Fr: "Licence"},
				{En: "Unknown", Fr: "Inconnue"},
			},
		},
		{
			name: "collection",
			oc:   geocore.OptionContext{Level: geocore.LevelCollection, EntityID: "landcover", RootName: rootName},
			names: []geocore.Bilingual{
				{En: "Self - landcover", Fr: "Soi - landcover"},
				{En: "Root - CCMEO Datacube", Fr: "Racine - CCCOT Cube de données"},
				{En: "Parent links ", Fr: "Parente liens"},
				{En: "Items listings", Fr: "Èléments la liste"},
				{En: "Licence", Fr: "Licence"},
				{En: "Unknown", Fr: "Inconnue"},
			},
		},
		{
			name: "item",
			oc: geocore.OptionContext{
				Level: geocore.LevelItem, EntityID: "lc-2020", RootName: rootName,
				ParentTitle: geocore.Bilingual{En: "Land Cover", Fr: "Couverture"},
			},
			names: []geocore.Bilingual{
				{En: "Self - lc-2020", Fr: "Soi - lc-2020"},
				{En: "Root - CCMEO Datacube", Fr: "Racine - CCCOT Cube de données"},
				{En: "Parent - Land Cover", Fr: "Parente - Couverture"},
				{En: "Items listings", Fr: "Èléments la liste"},
				{En: "Licence", Fr: "Licence"},
				{En: "Unknown", Fr: "Inconnue"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := geocore.LinkOptions(links, tt.oc)
			require.Len(t, opts, len(tt.names))
			for i, o := range opts {
				assert.Equal(t, tt.names[i], o.Name, "link %d", i)
				assert.Equal(t, "Unknown", o.Protocol)
				assert.Equal(t, links[i].Href, o.URL)
			}
		})
	}
}

func TestLinkOptions_Descriptions(t *testing.T) {
	t.Parallel()

	opts := geocore.LinkOptions([]stac.Link{
		{Rel: "self", Href: "a", Type: "application/json"},
		{Rel: "weird", Href: "b", Type: "application/x-unknown"},
		{Rel: "service-desc", Href: "c", Type: "application/vnd.oai.openapi+json; version=3.0"},
	}, geocore.OptionContext{Level: geocore.LevelCollection})

	require.Len(t, opts, 3)
	assert.Equal(t, geocore.Bilingual{En: "Metadata;JSON;eng", Fr: "Métadonnées;JSON;fra"}, opts[0].Description)
	assert.Equal(t, geocore.Bilingual{En: "Other;Other;eng", Fr: "Autre;Autre;fra"}, opts[1].Description)
	assert.Equal(t, geocore.Bilingual{En: "API;OpenAPI;eng", Fr: "API;OpenAPI;fra"}, opts[2].Description)
}

func TestLinkOptions_SkipsItemCollectionLinkAndMissingHref(t *testing.T) {
	t.Parallel()

	links := []stac.Link{
		{Rel: "collection", Href: "../collection.json"},
		{Rel: "self"},
	}

	assert.Empty(t, geocore.LinkOptions(links, geocore.OptionContext{Level: geocore.LevelItem}))
	assert.Len(t, geocore.LinkOptions(links, geocore.OptionContext{Level: geocore.LevelCollection}), 1)
}

func TestAssetOptions(t *testing.T) {
	t.Parallel()

	opts := geocore.AssetOptions([]stac.Asset{
		{Key: "cog", Href: "https://x/a.tif", Type: "image/tiff; application=geotiff; profile=cloud-optimized", Title: "Land cover/Couverture", Roles: []string{"data"}},
		{Key: "thumbnail", Href: "https://x/t.png", Type: "image/png", Roles: []string{"thumbnail", "data"}},
		{Key: "nohref"},
		{Key: "misc", Href: "https://x/m.bin", Type: "image/tiff; foo=bar", Roles: []string{"weird"}},
	})

	require.Len(t, opts, 3)
	assert.Equal(t, geocore.Bilingual{En: "Asset - Land cover", Fr: "Asset - Couverture"}, opts[0].Name)
	assert.Equal(t, geocore.Bilingual{En: "Dataset;COG;eng", Fr: "Données;COG;fra"}, opts[0].Description)
	assert.Equal(t, geocore.Bilingual{En: "Asset - thumbnail", Fr: "Asset - thumbnail"}, opts[1].Name)
	assert.Equal(t, geocore.Bilingual{En: "Image;PNG;eng", Fr: "Image;PNG;fra"}, opts[1].Description)
	assert.Equal(t, geocore.Bilingual{En: "Other;TIFF;eng", Fr: "Autre;TIFF;fra"}, opts[2].Description)
}

func TestMapOptions_DeduplicatesAndIsIdempotent(t *testing.T) {
	t.Parallel()

	links := []stac.Link{
		{Rel: "self", Href: "https://x/i"},
		{Rel: "self", Href: "https://x/i"},
		{Rel: "root", Href: "https://x/"},
		{Rel: "root", Href: "https://x/", Type: "application/json"},
	}
	assets := []stac.Asset{
		{Key: "a", Href: "https://x/i", Roles: []string{"data"}},
	}
	oc := geocore.OptionContext{Level: geocore.LevelItem, EntityID: "i", RootName: rootName}

	first := geocore.MapOptions(links, assets, oc)
	require.Len(t, first, 4, "only the exact duplicate self link is dropped")
	assert.Equal(t, "Soi - i", first[0].Name.Fr)
	assert.Equal(t, "Asset - a", first[3].Name.En, "links come before assets")

	for i := range first {
		for j := i + 1; j < len(first); j++ {
			assert.NotEqual(t, first[i], first[j])
		}
	}

	assert.Equal(t, first, geocore.MapOptions(links, assets, oc))
	assert.Equal(t, first, geocore.DedupeOptions(first))
}

func TestMapOptions_EmptyInput(t *testing.T) {
	t.Parallel()

	opts := geocore.MapOptions(nil, nil, geocore.OptionContext{Level: geocore.LevelItem})
	assert.NotNil(t, opts)
	assert.Empty(t, opts)
}
