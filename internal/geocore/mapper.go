package geocore

import (
	"fmt"
	"strings"

	"github.com/Canadian-Geospatial-Platform/stac-to-geocore/internal/stac"
)

const keywordsPrefix = "SpatioTemporal Asset Catalog, stac"

// Date labels of the GeoCore date sub-records.
const (
	publishedText = "publication; publication"
	createdText   = "creation; création"
	revisionText  = "revision; révision"
)

// MissingFieldError reports a field a feature cannot be built without.
type MissingFieldError struct {
	Level Level
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s is missing required field %q", e.Level, e.Field)
}

// CollectionText is the collection text items inherit.
type CollectionText struct {
	ID          string
	Title       Bilingual
	Description string
	Keywords    []string
}

// NewCollectionText extracts the text items of c inherit. A collection
// without a title is titled by its id.
func NewCollectionText(c stac.CollectionFields) CollectionText {
	return CollectionText{
		ID:          c.ID,
		Title:       SplitBilingualOr(c.Title, c.ID),
		Description: c.Description,
		Keywords:    c.Keywords,
	}
}

// Mapper builds GeoCore features from STAC entities.
type Mapper struct {
	settings Settings
}

// NewMapper creates a Mapper. The settings are copied.
func NewMapper(settings Settings) *Mapper {
	return &Mapper{settings: settings.clone()}
}

// Source returns the configured source identifier.
func (m *Mapper) Source() string {
	return m.settings.Source
}

// MapRoot builds the root catalog feature. The catalog carries no extent of
// its own, so bbox is supplied by the caller.
func (m *Mapper) MapRoot(root stac.RootFields, bbox []float64) (*FeatureCollection, error) {
	if strings.TrimSpace(root.ID) == "" {
		return nil, &MissingFieldError{Level: LevelRoot, Field: "id"}
	}

	env, err := NewEnvelope(bbox)
	if err != nil {
		return nil, err
	}

	props := newProperties()
	props.ID = RootFeatureID(m.settings.Source, root.ID)
	props.Title = m.settings.RootName.prefixed("Root  - ", "Racine - ")
	props.Description = m.description(root.Description, ".")
	props.Keywords = Same(keywordsPrefix + ", " + m.settings.Source)
	props.TemporalExtent = TemporalExtent{Begin: UnknownBegin, End: OpenEnd}
	props.Options = MapOptions(root.Links, nil, OptionContext{
		Level:    LevelRoot,
		EntityID: root.ID,
		RootName: m.settings.RootName,
	})
	m.fillConstants(props, env)

	return newFeatureCollection(env.Geometry(), props), nil
}

// MapCollection builds a collection feature whose parent is the root feature.
func (m *Mapper) MapCollection(c stac.CollectionFields, rootFeatureID string) (*FeatureCollection, error) {
	if c.ID == "" {
		return nil, &MissingFieldError{Level: LevelCollection, Field: "id"}
	}

	env, err := NewEnvelope(c.BBox)
	if err != nil {
		return nil, err
	}

	extent, err := collectionExtent(c.Begin, c.End)
	if err != nil {
		return nil, err
	}

	text := NewCollectionText(c)

	props := newProperties()
	props.ID = CollectionFeatureID(m.settings.Source, c.ID)
	props.Title = text.Title.prefixed("Collection - ", "Collection - ")
	props.Description = m.bilingualDescription(c.Description)
	props.Keywords = keywords(c.Keywords)
	props.ParentIdentifier = strPtr(rootFeatureID)
	props.TemporalExtent = extent
	props.Options = MapOptions(c.Links, c.Assets, OptionContext{
		Level:    LevelCollection,
		EntityID: c.ID,
		RootName: m.settings.RootName,
	})
	m.fillConstants(props, env)

	return newFeatureCollection(env.Geometry(), props), nil
}

// MapItem builds an item feature whose parent is its collection feature.
// The item's own description and keywords win over the collection's.
func (m *Mapper) MapItem(i stac.ItemFields, coll CollectionText) (*FeatureCollection, error) {
	switch {
	case i.ID == "":
		return nil, &MissingFieldError{Level: LevelItem, Field: "id"}
	case i.CollectionID == "":
		return nil, &MissingFieldError{Level: LevelItem, Field: "collection"}
	case i.Datetime == "":
		return nil, &MissingFieldError{Level: LevelItem, Field: "properties.datetime"}
	}

	when, err := parseDatetime(i.Datetime)
	if err != nil {
		return nil, err
	}

	bbox := i.BBox
	if bbox == nil {
		if bbox, err = BBoxFromGeoJSON(i.Geometry); err != nil {
			return nil, err
		}
	}

	env, err := NewEnvelope(bbox)
	if err != nil {
		return nil, err
	}

	if coll.ID == "" {
		coll = CollectionText{ID: i.CollectionID, Title: Same(i.CollectionID)}
	}

	description := coll.Description
	if i.Description != "" {
		description = i.Description
	}

	kw := coll.Keywords
	if len(i.Keywords) > 0 {
		kw = i.Keywords
	}

	props := newProperties()
	props.ID = ItemFeatureID(m.settings.Source, i.CollectionID, i.ID)
	props.Title = m.settings.ItemTitle(i.CollectionID, when.Format("2006"), i.ID, coll.Title)
	props.Description = m.bilingualDescription(description)
	props.Keywords = keywords(kw)
	props.ParentIdentifier = strPtr(CollectionFeatureID(m.settings.Source, i.CollectionID))
	props.TemporalExtent = TemporalExtent{Begin: when.Format(dateLayout), End: OpenEnd}
	props.Options = MapOptions(i.Links, i.Assets, OptionContext{
		Level:       LevelItem,
		EntityID:    i.ID,
		RootName:    m.settings.RootName,
		ParentTitle: coll.Title,
	})

	if i.Created != "" {
		props.Date.Published = DateEntry{Text: strPtr(publishedText), Date: strPtr(i.Created)}
		props.Date.Created = DateEntry{Text: strPtr(createdText), Date: strPtr(i.Created)}
	}
	if i.Updated != "" {
		props.Date.Revision = DateEntry{Text: strPtr(revisionText), Date: strPtr(i.Updated)}
	}

	m.fillConstants(props, env)

	return newFeatureCollection(env.Geometry(), props), nil
}

// fillConstants sets the fields every feature shares.
func (m *Mapper) fillConstants(props *Properties, env Envelope) {
	props.Geometry = env.WKT()
	props.TopicCategory = m.settings.TopicCategory
	props.Type = m.settings.Type
	props.SpatialRepresentation = m.settings.SpatialRepresentation
	props.Status = m.settings.Status
	props.Maintenance = m.settings.Maintenance
	props.UseLimits = m.settings.UseLimits
	props.Contact = append([]Contact(nil), m.settings.Contacts...)
}

// description appends the disclaimer to a description used in both languages.
func (m *Mapper) description(desc, sep string) Bilingual {
	if strings.TrimSpace(desc) == "" {
		return m.settings.Disclaimer
	}
	return Bilingual{
		En: desc + sep + m.settings.Disclaimer.En,
		Fr: desc + sep + m.settings.Disclaimer.Fr,
	}
}

// bilingualDescription splits desc and appends the disclaimer.
func (m *Mapper) bilingualDescription(desc string) Bilingual {
	if strings.TrimSpace(desc) == "" {
		return m.settings.Disclaimer
	}
	b := SplitBilingual(desc)
	return Bilingual{
		En: b.En + " " + m.settings.Disclaimer.En,
		Fr: b.Fr + " " + m.settings.Disclaimer.Fr,
	}
}

// keywords puts the first half of kw in English and the rest in French,
// behind the fixed STAC prefix. A single keyword is used for both.
func keywords(kw []string) Bilingual {
	var en, fr []string
	switch len(kw) {
	case 0:
	case 1:
		en, fr = kw, kw
	default:
		half := len(kw) / 2
		en, fr = kw[:half], kw[half:]
	}
	return Bilingual{En: joinKeywords(en), Fr: joinKeywords(fr)}
}

func joinKeywords(kw []string) string {
	if len(kw) == 0 {
		return keywordsPrefix
	}
	return keywordsPrefix + ", " + strings.Join(kw, ", ")
}
