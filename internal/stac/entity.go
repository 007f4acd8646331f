// Package stac reads root, collection and item entities from a STAC API.
package stac

import "github.com/goccy/go-json"

// Entity is a decoded STAC JSON object. Its accessors never fail: a missing
// key, a null value or a value of the wrong type yields the zero value.
type Entity map[string]any

// Lookup walks nested objects along path.
func (e Entity) Lookup(path ...string) (any, bool) {
	var cur any = map[string]any(e)
	for _, key := range path {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		if cur, ok = m[key]; !ok {
			return nil, false
		}
	}
	return cur, cur != nil
}

// String returns the string at path, or "".
func (e Entity) String(path ...string) string {
	v, _ := e.Lookup(path...)
	s, _ := v.(string)
	return s
}

// Map returns the object at path, or nil.
func (e Entity) Map(path ...string) Entity {
	v, _ := e.Lookup(path...)
	m, _ := asMap(v)
	return m
}

// Slice returns the array at path, or nil.
func (e Entity) Slice(path ...string) []any {
	v, _ := e.Lookup(path...)
	s, _ := v.([]any)
	return s
}

// Strings returns the string elements of the array at path.
func (e Entity) Strings(path ...string) []string {
	items := e.Slice(path...)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Int returns the number at path as an int, and whether one was present.
func (e Entity) Int(path ...string) (int, bool) {
	v, _ := e.Lookup(path...)
	f, ok := toFloat(v)
	return int(f), ok
}

// Floats returns the array at path as numbers. Any non-numeric element makes
// the whole array unusable and nil is returned.
func (e Entity) Floats(path ...string) []float64 {
	return floats(e.Slice(path...))
}

func floats(items []any) []float64 {
	if len(items) == 0 {
		return nil
	}
	out := make([]float64, 0, len(items))
	for _, item := range items {
		f, ok := toFloat(item)
		if !ok {
			return nil
		}
		out = append(out, f)
	}
	return out
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func asMap(v any) (Entity, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Entity:
		return m, true
	default:
		return nil, false
	}
}

// Decode parses a JSON object into an Entity.
func Decode(data []byte) (Entity, error) {
	var e Entity
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return e, nil
}
