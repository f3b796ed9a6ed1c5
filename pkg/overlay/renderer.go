// Package overlay turns canonical annotations into positioned draw
// primitives for an arbitrary viewport. The transform is pure and
// deterministic: identical annotations and viewport size always yield the
// same primitive list, so it is safe to re-run on every resize.
package overlay

import (
	"image/color"
	"math"

	"github.com/sketchkit/annotator/pkg/types"
)

// Style defaults. Variant-specific colors apply whenever an annotation's
// color is absent or fails to parse.
const (
	DefaultStrokeWidth = 3.0
	DefaultTextSize    = 14.0
)

var (
	DefaultShapeColor     = color.NRGBA{R: 255, A: 255}
	DefaultTextColor      = color.NRGBA{B: 255, A: 255}
	DefaultHighlightColor = color.NRGBA{R: 255, G: 204, A: 255}

	// labelBackground is painted behind text labels for legibility.
	labelBackground = color.NRGBA{R: 255, G: 255, B: 255, A: 180}
)

// Arrowhead geometry is fixed in pixel space: the arms do not scale with
// the viewport or the stroke width.
const (
	arrowheadLength    = 12.0
	arrowheadHalfAngle = math.Pi / 7
)

// PrimitiveKind tags a draw primitive.
type PrimitiveKind int

const (
	PrimLine PrimitiveKind = iota
	PrimRect
	PrimEllipse
	PrimFill
	PrimLabel
)

// XY is a position in absolute pixel coordinates.
type XY struct {
	X float64
	Y float64
}

// Primitive is one draw call in absolute pixel space, consumable by any
// 2D surface. Which geometry fields are meaningful depends on Kind:
// lines use From/To, rects and fills use Origin/W/H, ellipses use
// Center/Rx/Ry, labels use Center/Text/TextSize/Background.
type Primitive struct {
	Kind PrimitiveKind

	From, To XY
	Origin   XY
	W, H     float64
	Center   XY
	Rx, Ry   float64

	Text       string
	TextSize   float64
	Background color.NRGBA

	Color       color.NRGBA
	StrokeWidth float64
}

// Renderer converts canonical annotations into draw primitives. It holds
// no state; a single value may be shared across goroutines.
type Renderer struct{}

// New creates a Renderer.
func New() *Renderer {
	return &Renderer{}
}

// Render produces the draw primitives for a viewport of width x height
// pixels. Annotations missing their variant-required geometry are
// silently skipped; by this point the normalizer has already had its
// chance to report problems.
func (r *Renderer) Render(annotations []types.Annotation, width, height float64) []Primitive {
	primitives := make([]Primitive, 0, len(annotations))
	for _, ann := range annotations {
		primitives = append(primitives, r.renderOne(ann, width, height)...)
	}
	return primitives
}

func (r *Renderer) renderOne(ann types.Annotation, width, height float64) []Primitive {
	stroke := DefaultStrokeWidth
	if ann.LineWidth != nil {
		stroke = *ann.LineWidth
	}

	switch ann.Kind {
	case types.KindCircle:
		if ann.Center == nil || ann.Radius == nil {
			return nil
		}
		// The radius scales per axis, so a non-square viewport yields an
		// ellipse. Observed backend behavior; keep as-is.
		return []Primitive{{
			Kind:        PrimEllipse,
			Center:      XY{X: ann.Center.X * width, Y: ann.Center.Y * height},
			Rx:          *ann.Radius * width,
			Ry:          *ann.Radius * height,
			Color:       shapeColor(ann.ColorHex),
			StrokeWidth: stroke,
		}}

	case types.KindRect:
		if ann.Origin == nil || ann.Size == nil {
			return nil
		}
		return []Primitive{{
			Kind:        PrimRect,
			Origin:      XY{X: ann.Origin.X * width, Y: ann.Origin.Y * height},
			W:           ann.Size.X * width,
			H:           ann.Size.Y * height,
			Color:       shapeColor(ann.ColorHex),
			StrokeWidth: stroke,
		}}

	case types.KindArrow:
		if ann.Start == nil || ann.End == nil {
			return nil
		}
		return r.arrow(ann, width, height, stroke)

	case types.KindText:
		if ann.Center == nil || ann.Text == "" {
			return nil
		}
		size := DefaultTextSize
		if ann.TextSize != nil {
			size = *ann.TextSize
		}
		col, ok := ParseHexColor(ann.ColorHex)
		if !ok {
			col = DefaultTextColor
		}
		return []Primitive{{
			Kind:       PrimLabel,
			Center:     XY{X: ann.Center.X * width, Y: ann.Center.Y * height},
			Text:       ann.Text,
			TextSize:   size,
			Background: labelBackground,
			Color:      col,
		}}
	}
	return nil
}

// arrow emits the shaft plus two open arrowhead strokes. Each arm is the
// reverse direction vector rotated by the half-angle, drawn from the end
// point at the fixed arm length.
func (r *Renderer) arrow(ann types.Annotation, width, height, stroke float64) []Primitive {
	col := shapeColor(ann.ColorHex)
	from := XY{X: ann.Start.X * width, Y: ann.Start.Y * height}
	to := XY{X: ann.End.X * width, Y: ann.End.Y * height}

	primitives := []Primitive{{
		Kind:        PrimLine,
		From:        from,
		To:          to,
		Color:       col,
		StrokeWidth: stroke,
	}}

	angle := math.Atan2(to.Y-from.Y, to.X-from.X)
	for _, delta := range [2]float64{arrowheadHalfAngle, -arrowheadHalfAngle} {
		armAngle := angle + math.Pi + delta
		arm := XY{
			X: to.X + arrowheadLength*math.Cos(armAngle),
			Y: to.Y + arrowheadLength*math.Sin(armAngle),
		}
		primitives = append(primitives, Primitive{
			Kind:        PrimLine,
			From:        to,
			To:          arm,
			Color:       col,
			StrokeWidth: stroke,
		})
	}
	return primitives
}

// RenderHighlights produces filled translucent rectangles for the
// reduced-protocol annotation family.
func (r *Renderer) RenderHighlights(highlights []types.HighlightAnnotation, width, height float64) []Primitive {
	primitives := make([]Primitive, 0, len(highlights))
	for _, h := range highlights {
		col, ok := ParseHexColor(h.ColorHex)
		if !ok {
			col = DefaultHighlightColor
		}
		col.A = opacityByte(h.Opacity)
		primitives = append(primitives, Primitive{
			Kind:   PrimFill,
			Origin: XY{X: h.TopLeft.X * width, Y: h.TopLeft.Y * height},
			W:      h.Width * width,
			H:      h.Height * height,
			Color:  col,
		})
	}
	return primitives
}

func shapeColor(hex string) color.NRGBA {
	if col, ok := ParseHexColor(hex); ok {
		return col
	}
	return DefaultShapeColor
}

func opacityByte(opacity float64) uint8 {
	if opacity < 0 {
		opacity = 0
	}
	if opacity > 1 {
		opacity = 1
	}
	return uint8(opacity*255 + 0.5)
}
