package geocore

import (
	"github.com/Canadian-Geospatial-Platform/stac-to-geocore/internal/stac"
)

// Level is the catalog level an entity sits at. Link naming depends on it:
// "self" names the catalog at root level and the entity itself below it.
type Level int

const (
	LevelRoot Level = iota
	LevelCollection
	LevelItem
)

func (l Level) String() string {
	switch l {
	case LevelRoot:
		return "root"
	case LevelCollection:
		return "collection"
	case LevelItem:
		return "item"
	default:
		return "unknown"
	}
}

// OptionContext is what link naming needs to know about the entity.
type OptionContext struct {
	Level    Level
	EntityID string
	RootName Bilingual
	// ParentTitle is the collection title when mapping an item.
	ParentTitle Bilingual
}

const assetNamePrefix = "Asset - "

// MapOptions converts links then assets into options, without duplicates.
func MapOptions(links []stac.Link, assets []stac.Asset, oc OptionContext) []Option {
	opts := LinkOptions(links, oc)
	opts = append(opts, AssetOptions(assets)...)
	return DedupeOptions(opts)
}

// LinkOptions converts links into options. Links without an href are
// skipped, as are "collection" links of items.
func LinkOptions(links []stac.Link, oc OptionContext) []Option {
	opts := make([]Option, 0, len(links))
	for _, l := range links {
		if l.Href == "" {
			continue
		}
		if oc.Level == LevelItem && l.Rel == "collection" {
			continue
		}

		opts = append(opts, Option{
			URL:         l.Href,
			Protocol:    protocolUnknown,
			Name:        linkName(l, oc),
			Description: optionDescription(RelationType(l.Rel), MediaTypeFormat(l.Type)),
		})
	}
	return opts
}

func linkName(l stac.Link, oc OptionContext) Bilingual {
	rootName := oc.RootName.prefixed("Root - ", "Racine - ")

	switch {
	case l.Rel == "self" && oc.Level == LevelRoot:
		return rootName
	case l.Rel == "self":
		return Bilingual{En: "Self - " + oc.EntityID, Fr: "Soi - " + oc.EntityID}
	case l.Rel == "root":
		return rootName
	case l.Rel == "parent" && oc.Level == LevelItem && oc.ParentTitle != (Bilingual{}):
		return oc.ParentTitle.prefixed("Parent - ", "Parente - ")
	// the two labels below are matched verbatim downstream
	case l.Rel == "parent" && oc.Level == LevelCollection:
		return Bilingual{En: "Parent links ", Fr: "Parente liens"}
	case l.Rel == "items":
		return Bilingual{En: "Items listings", Fr: "Èléments la liste"}
	case l.Title != "":
		return Same(l.Title)
	default:
		return Bilingual{En: "Unknown", Fr: "Inconnue"}
	}
}

// AssetOptions converts assets into options. Assets without an href are skipped.
func AssetOptions(assets []stac.Asset) []Option {
	opts := make([]Option, 0, len(assets))
	for _, a := range assets {
		if a.Href == "" {
			continue
		}

		opts = append(opts, Option{
			URL:         a.Href,
			Protocol:    protocolUnknown,
			Name:        SplitBilingualOr(a.Title, a.Key).prefixed(assetNamePrefix, assetNamePrefix),
			Description: optionDescription(RoleType(a.Roles), MediaTypeFormat(a.Type)),
		})
	}
	return opts
}

// optionDescription renders "type;format;language" per locale.
func optionDescription(typ, format Bilingual) Bilingual {
	return Bilingual{
		En: typ.En + ";" + format.En + ";eng",
		Fr: typ.Fr + ";" + format.Fr + ";fra",
	}
}

// DedupeOptions drops options equal to an earlier one, keeping order.
func DedupeOptions(opts []Option) []Option {
	seen := make(map[Option]struct{}, len(opts))
	out := make([]Option, 0, len(opts))
	for _, o := range opts {
		if _, dup := seen[o]; dup {
			continue
		}
		seen[o] = struct{}{}
		out = append(out, o)
	}
	return out
}
