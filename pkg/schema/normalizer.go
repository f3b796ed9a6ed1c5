// Package schema normalizes raw annotation records from the analysis
// backend into the canonical model, tolerating the key renames and value
// encodings introduced by older wire-format revisions. One malformed
// record never aborts a batch: failures are reported per index while the
// rest of the sequence still normalizes.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/sketchkit/annotator/pkg/types"
)

// Mode selects which annotation family the normalizer targets.
type Mode int

const (
	// ModeMarkup decodes the full geometric markup records (circle, rect,
	// arrow, text).
	ModeMarkup Mode = iota
	// ModeHighlight decodes the reduced protocol: plain highlight
	// rectangles with no type tag.
	ModeHighlight
)

// Normalizer maps raw annotation records to the canonical model.
type Normalizer struct {
	mode Mode
}

// New creates a Normalizer targeting the full markup family.
func New() *Normalizer {
	return &Normalizer{mode: ModeMarkup}
}

// NewWithMode creates a Normalizer targeting the given family.
func NewWithMode(mode Mode) *Normalizer {
	return &Normalizer{mode: mode}
}

// RecordError reports one record that failed to normalize, identified by
// its index in the incoming sequence.
type RecordError struct {
	Index  int
	Reason string
}

func (e RecordError) Error() string {
	return fmt.Sprintf("annotation %d: %s", e.Index, e.Reason)
}

// Result holds the outcome of a batch normalization. Only the slice for
// the configured family is populated.
type Result struct {
	Annotations []types.Annotation
	Highlights  []types.HighlightAnnotation
	Errors      []RecordError
}

// NormalizeBatch normalizes a raw record sequence according to the
// configured mode. The output is same-length-or-shorter than the input;
// dropped records are reported in Result.Errors.
func (n *Normalizer) NormalizeBatch(records []json.RawMessage) Result {
	if n.mode == ModeHighlight {
		highlights, errs := NormalizeHighlights(records)
		return Result{Highlights: highlights, Errors: errs}
	}
	annotations, errs := NormalizeAll(records)
	return Result{Annotations: annotations, Errors: errs}
}

// NormalizeAll normalizes each record independently, collecting successes
// and tagging failures by index.
func NormalizeAll(records []json.RawMessage) ([]types.Annotation, []RecordError) {
	annotations := make([]types.Annotation, 0, len(records))
	var errs []RecordError
	for i, record := range records {
		raw, err := decodeObject(record)
		if err != nil {
			errs = append(errs, RecordError{Index: i, Reason: err.Error()})
			continue
		}
		ann, err := Normalize(raw)
		if err != nil {
			errs = append(errs, RecordError{Index: i, Reason: err.Error()})
			continue
		}
		annotations = append(annotations, ann)
	}
	return annotations, errs
}

// Normalize maps one raw record to a canonical Annotation. Only a
// missing or unrecognized type tag is an error; every other field is
// best-effort and stored as absent when no key in its fallback chain
// decodes.
func Normalize(raw map[string]any) (types.Annotation, error) {
	kindStr, ok := resolveString(raw, "type")
	if !ok {
		return types.Annotation{}, errors.New(`missing required field "type"`)
	}
	kind := types.Kind(kindStr)
	if !kind.Valid() {
		return types.Annotation{}, fmt.Errorf("unrecognized annotation type %q", kindStr)
	}

	ann := types.Annotation{
		ID:   resolveID(raw),
		Kind: kind,
	}
	ann.Center = resolvePoint(raw, "center", "position")
	ann.Radius = resolveNumber(raw, "radius")
	ann.Origin = resolvePoint(raw, "origin", "topLeft")
	ann.Size = resolveSize(raw)
	ann.Start = resolvePoint(raw, "start", "from")
	ann.End = resolvePoint(raw, "end", "to")

	if s, ok := resolveString(raw, "color"); ok {
		ann.ColorHex = s
	}
	ann.LineWidth = resolveNumber(raw, "lineWidth")

	if s, ok := resolveString(raw, "text"); ok {
		ann.Text = s
	}
	// Reversed priority relative to the other chains: fontSize wins when
	// both keys are present.
	ann.TextSize = resolveNumber(raw, "fontSize", "textSize")

	return ann, nil
}

// resolveSize synthesizes a size from a width+height pair before falling
// back to the size key. Synthesis requires both numbers; a lone width or
// height is never mixed with a decoded size.
func resolveSize(raw map[string]any) *types.Point {
	w, okW := asNumber(raw["width"])
	h, okH := asNumber(raw["height"])
	if okW && okH {
		return &types.Point{X: w, Y: h}
	}
	return resolvePoint(raw, "size")
}

// resolveID returns the record's id, or a fresh UUID when it is absent or
// malformed. Generated ids are not stable across redraws.
func resolveID(raw map[string]any) string {
	if s, ok := resolveString(raw, "id"); ok && s != "" {
		return s
	}
	return uuid.NewString()
}

func decodeObject(record json.RawMessage) (map[string]any, error) {
	var raw map[string]any
	if err := json.Unmarshal(record, &raw); err != nil {
		return nil, errors.New("record is not a JSON object")
	}
	return raw, nil
}

// DefaultHighlightOpacity applies when a highlight record omits opacity.
const DefaultHighlightOpacity = 0.35

// NormalizeHighlights normalizes reduced-protocol records with the same
// per-index isolation as NormalizeAll.
func NormalizeHighlights(records []json.RawMessage) ([]types.HighlightAnnotation, []RecordError) {
	highlights := make([]types.HighlightAnnotation, 0, len(records))
	var errs []RecordError
	for i, record := range records {
		raw, err := decodeObject(record)
		if err != nil {
			errs = append(errs, RecordError{Index: i, Reason: err.Error()})
			continue
		}
		h, err := NormalizeHighlight(raw)
		if err != nil {
			errs = append(errs, RecordError{Index: i, Reason: err.Error()})
			continue
		}
		highlights = append(highlights, h)
	}
	return highlights, errs
}

// NormalizeHighlight maps one reduced-protocol record. The rectangle
// geometry is required; color and opacity are optional.
func NormalizeHighlight(raw map[string]any) (types.HighlightAnnotation, error) {
	topLeft := resolvePoint(raw, "topLeft")
	if topLeft == nil {
		return types.HighlightAnnotation{}, errors.New(`missing or malformed "topLeft"`)
	}
	width := resolveNumber(raw, "width")
	height := resolveNumber(raw, "height")
	if width == nil || height == nil {
		return types.HighlightAnnotation{}, errors.New(`missing "width" or "height"`)
	}

	h := types.HighlightAnnotation{
		TopLeft: *topLeft,
		Width:   *width,
		Height:  *height,
		Opacity: DefaultHighlightOpacity,
	}
	if s, ok := resolveString(raw, "color"); ok {
		h.ColorHex = s
	}
	if o := resolveNumber(raw, "opacity"); o != nil {
		h.Opacity = *o
	}
	return h, nil
}
