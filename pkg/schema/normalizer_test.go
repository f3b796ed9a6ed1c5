package schema

import (
	"encoding/json"
	"testing"

	"github.com/sketchkit/annotator/pkg/types"
)

// rawRecords marshals literal records into the wire form the batch API
// consumes.
func rawRecords(t *testing.T, records ...any) []json.RawMessage {
	t.Helper()
	out := make([]json.RawMessage, 0, len(records))
	for _, r := range records {
		data, err := json.Marshal(r)
		if err != nil {
			t.Fatalf("marshal test record: %v", err)
		}
		out = append(out, json.RawMessage(data))
	}
	return out
}

func point(x, y float64) map[string]any {
	return map[string]any{"x": x, "y": y}
}

func TestNormalizeMissingType(t *testing.T) {
	_, err := Normalize(map[string]any{"center": point(0.5, 0.5)})
	if err == nil {
		t.Error("record without type should fail to normalize")
	}
}

func TestNormalizeUnknownType(t *testing.T) {
	_, err := Normalize(map[string]any{"type": "sparkle"})
	if err == nil {
		t.Error("unrecognized type should fail to normalize")
	}
}

func TestNormalizeCenterAliases(t *testing.T) {
	tests := []struct {
		name   string
		record map[string]any
		want   types.Point
	}{
		{
			name:   "primary key",
			record: map[string]any{"type": "circle", "center": point(0.1, 0.2)},
			want:   types.Point{X: 0.1, Y: 0.2},
		},
		{
			name:   "position fallback",
			record: map[string]any{"type": "circle", "position": point(0.3, 0.4)},
			want:   types.Point{X: 0.3, Y: 0.4},
		},
		{
			name:   "primary wins over fallback",
			record: map[string]any{"type": "circle", "center": point(0.1, 0.2), "position": point(0.9, 0.9)},
			want:   types.Point{X: 0.1, Y: 0.2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ann, err := Normalize(tt.record)
			if err != nil {
				t.Fatalf("Normalize failed: %v", err)
			}
			if ann.Center == nil {
				t.Fatal("center should be resolved")
			}
			if *ann.Center != tt.want {
				t.Errorf("center = %+v, want %+v", *ann.Center, tt.want)
			}
		})
	}
}

func TestNormalizeSizeSynthesis(t *testing.T) {
	// width+height pair synthesizes the size exactly
	ann, err := Normalize(map[string]any{
		"type": "rect", "origin": point(0, 0),
		"width": 0.25, "height": 0.5,
	})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if ann.Size == nil {
		t.Fatal("size should be synthesized from width+height")
	}
	if *ann.Size != (types.Point{X: 0.25, Y: 0.5}) {
		t.Errorf("size = %+v, want {0.25 0.5}", *ann.Size)
	}

	// synthesis is tried before the size key
	ann, err = Normalize(map[string]any{
		"type": "rect",
		"width": 0.25, "height": 0.5,
		"size": point(0.9, 0.9),
	})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if *ann.Size != (types.Point{X: 0.25, Y: 0.5}) {
		t.Errorf("size = %+v, want synthesized {0.25 0.5}", *ann.Size)
	}

	// a lone width falls through to the size key, never mixes
	ann, err = Normalize(map[string]any{
		"type":  "rect",
		"width": 0.25,
		"size":  point(0.6, 0.7),
	})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if *ann.Size != (types.Point{X: 0.6, Y: 0.7}) {
		t.Errorf("size = %+v, want decoded size {0.6 0.7}", *ann.Size)
	}

	// a lone height with no size key leaves the field absent
	ann, err = Normalize(map[string]any{"type": "rect", "height": 0.5})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if ann.Size != nil {
		t.Errorf("size = %+v, want absent", *ann.Size)
	}
}

func TestNormalizeFontSizePriority(t *testing.T) {
	// fontSize wins when both are present
	ann, err := Normalize(map[string]any{
		"type": "text", "text": "hi",
		"fontSize": 18.0, "textSize": 30.0,
	})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if ann.TextSize == nil || *ann.TextSize != 18 {
		t.Errorf("textSize = %v, want 18 (fontSize wins)", ann.TextSize)
	}

	ann, err = Normalize(map[string]any{"type": "text", "text": "hi", "textSize": 30.0})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if ann.TextSize == nil || *ann.TextSize != 30 {
		t.Errorf("textSize = %v, want 30", ann.TextSize)
	}
}

func TestNormalizeStartEndAliases(t *testing.T) {
	ann, err := Normalize(map[string]any{
		"type": "arrow",
		"from": point(0.1, 0.1),
		"to":   point(0.9, 0.9),
	})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if ann.Start == nil || ann.End == nil {
		t.Fatal("from/to aliases should resolve start and end")
	}
	if *ann.Start != (types.Point{X: 0.1, Y: 0.1}) || *ann.End != (types.Point{X: 0.9, Y: 0.9}) {
		t.Errorf("start/end = %+v/%+v", *ann.Start, *ann.End)
	}
}

func TestNormalizeOriginTopLeftAlias(t *testing.T) {
	ann, err := Normalize(map[string]any{"type": "rect", "topLeft": point(0.2, 0.3)})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if ann.Origin == nil || *ann.Origin != (types.Point{X: 0.2, Y: 0.3}) {
		t.Errorf("origin = %v, want {0.2 0.3}", ann.Origin)
	}
}

func TestPointDecodingAllOrNothing(t *testing.T) {
	ann, err := Normalize(map[string]any{
		"type":   "circle",
		"center": map[string]any{"x": 0.5}, // y missing
	})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if ann.Center != nil {
		t.Errorf("partial point should be absent, got %+v", *ann.Center)
	}

	ann, err = Normalize(map[string]any{
		"type":   "circle",
		"center": map[string]any{"x": 0.5, "y": "oops"},
	})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if ann.Center != nil {
		t.Errorf("non-numeric member should make the point absent, got %+v", *ann.Center)
	}
}

func TestNormalizeIDFallback(t *testing.T) {
	ann, err := Normalize(map[string]any{"type": "circle", "id": "marker-7"})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if ann.ID != "marker-7" {
		t.Errorf("id = %q, want marker-7", ann.ID)
	}

	// absent and malformed ids both get a generated one
	for _, record := range []map[string]any{
		{"type": "circle"},
		{"type": "circle", "id": 42},
		{"type": "circle", "id": ""},
	} {
		ann, err := Normalize(record)
		if err != nil {
			t.Fatalf("Normalize failed: %v", err)
		}
		if ann.ID == "" {
			t.Error("generated id should not be empty")
		}
	}

	a, _ := Normalize(map[string]any{"type": "circle"})
	b, _ := Normalize(map[string]any{"type": "circle"})
	if a.ID == b.ID {
		t.Error("generated ids should be unique")
	}
}

func TestNormalizePermissiveStyleFields(t *testing.T) {
	ann, err := Normalize(map[string]any{
		"type":      "circle",
		"center":    point(0.5, 0.5),
		"radius":    0.1,
		"color":     12345, // not a string: dropped
		"lineWidth": "fat", // not a number: dropped
	})
	if err != nil {
		t.Fatalf("malformed style fields must not block the record: %v", err)
	}
	if ann.ColorHex != "" {
		t.Errorf("colorHex = %q, want absent", ann.ColorHex)
	}
	if ann.LineWidth != nil {
		t.Errorf("lineWidth = %v, want absent", *ann.LineWidth)
	}
	if ann.Radius == nil || *ann.Radius != 0.1 {
		t.Error("radius should still decode")
	}
}

func TestNormalizeAllIsolation(t *testing.T) {
	records := rawRecords(t,
		map[string]any{"type": "circle", "center": point(0.5, 0.5), "radius": 0.1},
		map[string]any{"center": point(0.1, 0.1)}, // no type
		map[string]any{"type": "rect", "origin": point(0, 0), "size": point(0.2, 0.2)},
	)
	// a non-object element fails on its own index too
	records = append(records, json.RawMessage(`["not","an","object"]`))

	annotations, errs := NormalizeAll(records)
	if len(annotations) != 2 {
		t.Fatalf("got %d annotations, want 2", len(annotations))
	}
	if len(errs) != 2 {
		t.Fatalf("got %d errors, want 2", len(errs))
	}
	if errs[0].Index != 1 {
		t.Errorf("first error index = %d, want 1", errs[0].Index)
	}
	if errs[1].Index != 3 {
		t.Errorf("second error index = %d, want 3", errs[1].Index)
	}
}

func TestNormalizeBatchModes(t *testing.T) {
	markup := rawRecords(t, map[string]any{"type": "circle", "center": point(0.5, 0.5), "radius": 0.1})
	result := New().NormalizeBatch(markup)
	if len(result.Annotations) != 1 || len(result.Highlights) != 0 {
		t.Errorf("markup mode: %d annotations, %d highlights", len(result.Annotations), len(result.Highlights))
	}

	highlights := rawRecords(t, map[string]any{"topLeft": point(0.1, 0.2), "width": 0.3, "height": 0.4})
	result = NewWithMode(ModeHighlight).NormalizeBatch(highlights)
	if len(result.Highlights) != 1 || len(result.Annotations) != 0 {
		t.Errorf("highlight mode: %d annotations, %d highlights", len(result.Annotations), len(result.Highlights))
	}
}

func TestNormalizeHighlight(t *testing.T) {
	h, err := NormalizeHighlight(map[string]any{
		"topLeft": point(0.1, 0.2),
		"width":   0.3,
		"height":  0.4,
		"color":   "#80FF0000",
		"opacity": 0.5,
	})
	if err != nil {
		t.Fatalf("NormalizeHighlight failed: %v", err)
	}
	if h.TopLeft != (types.Point{X: 0.1, Y: 0.2}) || h.Width != 0.3 || h.Height != 0.4 {
		t.Errorf("geometry = %+v", h)
	}
	if h.Opacity != 0.5 {
		t.Errorf("opacity = %v, want 0.5", h.Opacity)
	}

	// opacity defaults when absent
	h, err = NormalizeHighlight(map[string]any{"topLeft": point(0, 0), "width": 1.0, "height": 1.0})
	if err != nil {
		t.Fatalf("NormalizeHighlight failed: %v", err)
	}
	if h.Opacity != DefaultHighlightOpacity {
		t.Errorf("opacity = %v, want default %v", h.Opacity, DefaultHighlightOpacity)
	}

	// geometry is required
	if _, err := NormalizeHighlight(map[string]any{"width": 1.0, "height": 1.0}); err == nil {
		t.Error("missing topLeft should fail")
	}
	if _, err := NormalizeHighlight(map[string]any{"topLeft": point(0, 0), "width": 1.0}); err == nil {
		t.Error("missing height should fail")
	}
}

func TestNormalizeOutOfRangePointsKept(t *testing.T) {
	// values outside [0,1] pass through unclamped
	ann, err := Normalize(map[string]any{"type": "circle", "center": point(-0.5, 1.5), "radius": 2.0})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if *ann.Center != (types.Point{X: -0.5, Y: 1.5}) {
		t.Errorf("center = %+v, want unclamped {-0.5 1.5}", *ann.Center)
	}
}

func BenchmarkNormalizeAll(b *testing.B) {
	records := make([]json.RawMessage, 0, 20)
	for i := 0; i < 20; i++ {
		records = append(records, json.RawMessage(`{"type":"rect","origin":{"x":0.1,"y":0.1},"width":0.5,"height":0.3,"color":"#FF0000"}`))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		NormalizeAll(records)
	}
}
