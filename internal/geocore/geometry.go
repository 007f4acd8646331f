package geocore

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

const (
	bboxLen2D = 4
	bboxLen3D = 6
)

// MalformedBBoxError reports a bounding box that cannot describe a polygon.
type MalformedBBoxError struct {
	BBox []float64
}

func (e *MalformedBBoxError) Error() string {
	return fmt.Sprintf("malformed bbox: need 4 or 6 numeric values, got %d", len(e.BBox))
}

// Envelope is a bounding box rounded to two decimals. Both encodings of a
// feature geometry are derived from the same Envelope.
type Envelope struct {
	West, South, East, North float64
}

// NewEnvelope rounds a [w, s, e, n] or [w, s, zmin, e, n, zmax] bounding box.
func NewEnvelope(bbox []float64) (Envelope, error) {
	var w, s, e, n float64
	switch {
	case len(bbox) >= bboxLen3D:
		w, s, e, n = bbox[0], bbox[1], bbox[3], bbox[4]
	case len(bbox) >= bboxLen2D:
		w, s, e, n = bbox[0], bbox[1], bbox[2], bbox[3]
	default:
		return Envelope{}, &MalformedBBoxError{BBox: bbox}
	}

	for _, v := range []float64{w, s, e, n} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Envelope{}, &MalformedBBoxError{BBox: bbox}
		}
	}

	return Envelope{West: round2(w), South: round2(s), East: round2(e), North: round2(n)}, nil
}

func round2(v float64) float64 {
	r := math.Round(v*100) / 100
	if r == 0 {
		return 0 // drops negative zero
	}
	return r
}

// Ring returns the closed ring w,s → e,s → e,n → w,n → w,s.
func (env Envelope) Ring() orb.Ring {
	return orb.Ring{
		{env.West, env.South},
		{env.East, env.South},
		{env.East, env.North},
		{env.West, env.North},
		{env.West, env.South},
	}
}

// Geometry returns the GeoJSON polygon.
func (env Envelope) Geometry() Geometry {
	return Geometry{Type: typePolygon, Coordinates: orb.Polygon{env.Ring()}}
}

// WKT returns the polygon as WKT, listing the same points as Ring.
func (env Envelope) WKT() string {
	ring := env.Ring()
	points := make([]string, len(ring))
	for i, p := range ring {
		points[i] = formatCoord(p.X()) + " " + formatCoord(p.Y())
	}
	return "POLYGON((" + strings.Join(points, ", ") + "))"
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// UnionBBox returns the smallest [w, s, e, n] box covering every valid box.
// Malformed boxes are ignored; ok is false when none is valid.
func UnionBBox(bboxes [][]float64) (bbox []float64, ok bool) {
	var union orb.Bound
	for _, b := range bboxes {
		bound, err := rawBound(b)
		if err != nil {
			continue
		}
		if !ok {
			union, ok = bound, true
			continue
		}
		union = union.Union(bound)
	}

	if !ok {
		return nil, false
	}
	return []float64{union.Min.X(), union.Min.Y(), union.Max.X(), union.Max.Y()}, true
}

func rawBound(bbox []float64) (orb.Bound, error) {
	switch {
	case len(bbox) >= bboxLen3D:
		return orb.Bound{Min: orb.Point{bbox[0], bbox[1]}, Max: orb.Point{bbox[3], bbox[4]}}, nil
	case len(bbox) >= bboxLen2D:
		return orb.Bound{Min: orb.Point{bbox[0], bbox[1]}, Max: orb.Point{bbox[2], bbox[3]}}, nil
	default:
		return orb.Bound{}, &MalformedBBoxError{BBox: bbox}
	}
}

// BBoxFromGeoJSON derives a [w, s, e, n] box from a decoded GeoJSON geometry.
func BBoxFromGeoJSON(geometry map[string]any) ([]float64, error) {
	if len(geometry) == 0 {
		return nil, &MalformedBBoxError{}
	}

	raw, err := json.Marshal(geometry)
	if err != nil {
		return nil, fmt.Errorf("encode geometry: %w", err)
	}

	g, err := geojson.UnmarshalGeometry(raw)
	if err != nil {
		return nil, fmt.Errorf("decode geometry: %w", err)
	}
	if g.Geometry() == nil {
		return nil, &MalformedBBoxError{}
	}

	b := g.Geometry().Bound()
	return []float64{b.Min.X(), b.Min.Y(), b.Max.X(), b.Max.Y()}, nil
}
