package stac

import "sort"

// Link is a STAC link object.
type Link struct {
	Href  string
	Rel   string
	Type  string
	Title string
}

// Asset is a STAC asset object with its key.
type Asset struct {
	Key   string
	Href  string
	Type  string
	Title string
	Roles []string
}

// RootFields are the root catalog fields used by the mapper.
type RootFields struct {
	ID          string
	Description string
	Links       []Link
}

// CollectionFields are the collection fields used by the mapper.
type CollectionFields struct {
	ID          string
	Title       string
	Description string
	Keywords    []string
	// BBox is the first spatial extent box.
	BBox []float64
	// Begin and End are the first temporal interval; "" means open.
	Begin  string
	End    string
	Links  []Link
	Assets []Asset
}

// ItemFields are the item fields used by the mapper.
type ItemFields struct {
	ID           string
	CollectionID string
	BBox         []float64
	Geometry     Entity
	Links        []Link
	Assets       []Asset
	Properties   Entity
	Datetime     string
	Created      string
	Updated      string
	Description  string
	Keywords     []string
}

// Root extracts RootFields.
func (e Entity) Root() RootFields {
	return RootFields{
		ID:          e.String("id"),
		Description: e.String("description"),
		Links:       e.Links(),
	}
}

// Collection extracts CollectionFields.
func (e Entity) Collection() CollectionFields {
	c := CollectionFields{
		ID:          e.String("id"),
		Title:       e.String("title"),
		Description: e.String("description"),
		Keywords:    e.Strings("keywords"),
		Links:       e.Links(),
		Assets:      e.Assets(),
	}

	if boxes := e.Slice("extent", "spatial", "bbox"); len(boxes) > 0 {
		first, _ := boxes[0].([]any)
		c.BBox = floats(first)
	}

	if intervals := e.Slice("extent", "temporal", "interval"); len(intervals) > 0 {
		if first, _ := intervals[0].([]any); len(first) > 0 {
			c.Begin, _ = first[0].(string)
			if len(first) > 1 {
				c.End, _ = first[1].(string)
			}
		}
	}

	return c
}

// Item extracts ItemFields. The collection id is read from the top-level
// "collection" key, then from properties.
func (e Entity) Item() ItemFields {
	props := e.Map("properties")

	i := ItemFields{
		ID:           e.String("id"),
		CollectionID: e.String("collection"),
		BBox:         e.Floats("bbox"),
		Geometry:     e.Map("geometry"),
		Links:        e.Links(),
		Assets:       e.Assets(),
		Properties:   props,
		Datetime:     props.String("datetime"),
		Created:      props.String("created"),
		Updated:      props.String("updated"),
		Description:  props.String("description"),
		Keywords:     props.Strings("keywords"),
	}

	if i.CollectionID == "" {
		i.CollectionID = props.String("collection")
	}
	if i.Datetime == "" {
		i.Datetime = props.String("start_datetime")
	}

	return i
}

// Links returns the entity's links. Entries that are not objects are dropped.
func (e Entity) Links() []Link {
	raw := e.Slice("links")
	links := make([]Link, 0, len(raw))
	for _, item := range raw {
		m, ok := asMap(item)
		if !ok {
			continue
		}
		links = append(links, Link{
			Href:  m.String("href"),
			Rel:   m.String("rel"),
			Type:  m.String("type"),
			Title: m.String("title"),
		})
	}
	return links
}

// Assets returns the entity's assets ordered by key.
func (e Entity) Assets() []Asset {
	raw := e.Map("assets")
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	assets := make([]Asset, 0, len(keys))
	for _, k := range keys {
		m := raw.Map(k)
		if m == nil {
			continue
		}
		assets = append(assets, Asset{
			Key:   k,
			Href:  m.String("href"),
			Type:  m.String("type"),
			Title: m.String("title"),
			Roles: m.Strings("roles"),
		})
	}
	return assets
}

// Next returns the href of the first "next" link, or "".
func Next(links []Link) string {
	for _, l := range links {
		if l.Rel == "next" && l.Href != "" {
			return l.Href
		}
	}
	return ""
}
