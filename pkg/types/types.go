package types

import "encoding/json"

// Point is a position in normalized coordinates: each component is a
// fraction of the canvas width or height, independent of pixel resolution.
// Values outside [0,1] are kept as-is; renderers may draw off-canvas.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Kind identifies the annotation variant. The tag determines which
// geometry fields are meaningful.
type Kind string

const (
	KindCircle Kind = "circle"
	KindRect   Kind = "rect"
	KindArrow  Kind = "arrow"
	KindText   Kind = "text"
)

// Valid reports whether k is one of the known annotation variants.
func (k Kind) Valid() bool {
	switch k {
	case KindCircle, KindRect, KindArrow, KindText:
		return true
	}
	return false
}

// Annotation is the canonical, alias-resolved representation of one
// feedback marker. Geometry fields are nil unless the wire record supplied
// them; an annotation whose variant-required geometry is missing is kept
// but skipped at render time.
type Annotation struct {
	ID   string `json:"id"`
	Kind Kind   `json:"type"`

	Center *Point   `json:"center,omitempty"` // circle, text
	Radius *float64 `json:"radius,omitempty"` // circle
	Origin *Point   `json:"origin,omitempty"` // rect
	Size   *Point   `json:"size,omitempty"`   // rect
	Start  *Point   `json:"start,omitempty"`  // arrow
	End    *Point   `json:"end,omitempty"`    // arrow

	ColorHex  string   `json:"color,omitempty"`      // empty means variant default
	LineWidth *float64 `json:"line_width,omitempty"` // nil means default (3)

	Text     string   `json:"text,omitempty"`      // text variant only
	TextSize *float64 `json:"text_size,omitempty"` // text variant, default 14
}

// HighlightAnnotation is the reduced-protocol variant: a single rectangle
// with a color and opacity, no type tag.
type HighlightAnnotation struct {
	TopLeft Point   `json:"topLeft"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`

	ColorHex string  `json:"color,omitempty"`
	Opacity  float64 `json:"opacity"`
}

// Feedback carries the tutoring text attached to an analysis response.
type Feedback struct {
	Problem       string   `json:"problem"`
	Analysis      string   `json:"analysis"`
	Hints         []string `json:"hints"`
	Mistakes      []string `json:"mistakes"`
	NextStep      string   `json:"next_step"`
	Encouragement string   `json:"encouragement"`
}

// AnalysisResponse is the parsed body returned by the analysis backend.
// Annotations stay raw here; the schema package normalizes them per record
// so one malformed entry never invalidates the response.
type AnalysisResponse struct {
	Status      string   `json:"status"`
	ProblemType string   `json:"problem_type,omitempty"`
	Context     string   `json:"context,omitempty"`
	Feedback    Feedback `json:"feedback"`

	Annotations        []json.RawMessage `json:"annotations"`
	AnnotationStatus   string            `json:"annotation_status,omitempty"`
	AnnotationError    string            `json:"annotation_error,omitempty"`
	AnnotationMetadata map[string]string `json:"annotation_metadata,omitempty"`

	Error string `json:"error,omitempty"`
}

// AnalyzeRequest is what a backend client sends: the rendered sketch plus
// optional context about what the drawing is supposed to show.
type AnalyzeRequest struct {
	ImageData []byte
	Filename  string

	Context     string
	ProblemType string
}
