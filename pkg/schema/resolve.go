package schema

import (
	"encoding/json"

	"github.com/sketchkit/annotator/pkg/types"
)

// The wire format has been through several revisions that renamed keys or
// changed how a value is encoded. Every optional field is resolved through
// an ordered fallback chain: try each key in turn, first successful decode
// wins, and a chain where every key fails yields an absent field.

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// asPoint decodes an object with numeric x and y members. Decoding is
// all-or-nothing: a partial object is not a point.
func asPoint(v any) (types.Point, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return types.Point{}, false
	}
	x, okX := asNumber(m["x"])
	y, okY := asNumber(m["y"])
	if !okX || !okY {
		return types.Point{}, false
	}
	return types.Point{X: x, Y: y}, true
}

func resolvePoint(raw map[string]any, keys ...string) *types.Point {
	for _, key := range keys {
		if p, ok := asPoint(raw[key]); ok {
			return &p
		}
	}
	return nil
}

func resolveNumber(raw map[string]any, keys ...string) *float64 {
	for _, key := range keys {
		if n, ok := asNumber(raw[key]); ok {
			return &n
		}
	}
	return nil
}

func resolveString(raw map[string]any, keys ...string) (string, bool) {
	for _, key := range keys {
		if s, ok := asString(raw[key]); ok {
			return s, true
		}
	}
	return "", false
}
