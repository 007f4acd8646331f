package geocore

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
)

// ID returns the id of the collection's feature.
func (fc *FeatureCollection) ID() string {
	if len(fc.Features) == 0 || fc.Features[0].Properties == nil {
		return ""
	}
	return fc.Features[0].Properties.ID
}

// Encode renders the document as indented UTF-8 JSON without HTML escaping.
func (fc *FeatureCollection) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")

	if err := enc.Encode(fc); err != nil {
		return nil, fmt.Errorf("encode feature collection %s: %w", fc.ID(), err)
	}
	return buf.Bytes(), nil
}
