package raster

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/sketchkit/annotator/pkg/overlay"
)

// Paint draws the primitive list onto a copy of img. The input image is
// never mutated.
func (r *Rasterizer) Paint(img image.Image, primitives []overlay.Primitive) *image.NRGBA {
	canvas := imaging.Clone(img)
	for _, p := range primitives {
		switch p.Kind {
		case overlay.PrimLine:
			strokeLine(canvas, p.From, p.To, p.Color, p.StrokeWidth)
		case overlay.PrimRect:
			strokeRect(canvas, p.Origin, p.W, p.H, p.Color, p.StrokeWidth)
		case overlay.PrimEllipse:
			strokeEllipse(canvas, p.Center, p.Rx, p.Ry, p.Color, p.StrokeWidth)
		case overlay.PrimFill:
			fillRect(canvas, p.Origin, p.W, p.H, p.Color)
		case overlay.PrimLabel:
			drawLabel(canvas, p)
		}
	}
	return canvas
}

// strokeLine steps along the segment plotting square dots of the stroke
// width.
func strokeLine(img *image.NRGBA, from, to overlay.XY, c color.NRGBA, width float64) {
	dx, dy := to.X-from.X, to.Y-from.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		plotDot(img, from.X, from.Y, c, width)
		return
	}
	steps := int(length) + 1
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		plotDot(img, from.X+t*dx, from.Y+t*dy, c, width)
	}
}

func strokeRect(img *image.NRGBA, origin overlay.XY, w, h float64, c color.NRGBA, width float64) {
	x0 := int(origin.X + 0.5)
	y0 := int(origin.Y + 0.5)
	x1 := int(origin.X + w + 0.5)
	y1 := int(origin.Y + h + 0.5)
	stroke := int(width + 0.5)
	if stroke < 1 {
		stroke = 1
	}
	for s := 0; s < stroke; s++ {
		drawHLine(img, y0+s, x0, x1, c)
		drawHLine(img, y1-1-s, x0, x1, c)
		drawVLine(img, x0+s, y0, y1, c)
		drawVLine(img, x1-1-s, y0, y1, c)
	}
}

func strokeEllipse(img *image.NRGBA, center overlay.XY, rx, ry float64, c color.NRGBA, width float64) {
	steps := int(2*math.Pi*math.Max(math.Abs(rx), math.Abs(ry))) + 16
	for i := 0; i < steps; i++ {
		a := 2 * math.Pi * float64(i) / float64(steps)
		plotDot(img, center.X+rx*math.Cos(a), center.Y+ry*math.Sin(a), c, width)
	}
}

func fillRect(img *image.NRGBA, origin overlay.XY, w, h float64, c color.NRGBA) {
	x0 := int(origin.X + 0.5)
	y0 := int(origin.Y + 0.5)
	x1 := int(origin.X + w + 0.5)
	y1 := int(origin.Y + h + 0.5)
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			blendPixel(img, x, y, c)
		}
	}
}

// drawLabel paints a translucent backdrop behind the glyph run, then the
// text itself. The face is a fixed-size bitmap font; the primitive's
// TextSize is a hint this backend cannot honor.
func drawLabel(img *image.NRGBA, p overlay.Primitive) {
	face := basicfont.Face7x13
	textWidth := font.MeasureString(face, p.Text).Ceil()

	x0 := int(p.Center.X+0.5) - textWidth/2
	top := int(p.Center.Y+0.5) - face.Height/2
	baseline := top + face.Ascent

	const pad = 2
	fillRect(img,
		overlay.XY{X: float64(x0 - pad), Y: float64(top - pad)},
		float64(textWidth+2*pad), float64(face.Height+2*pad),
		p.Background)

	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(p.Color),
		Face: face,
		Dot:  fixed.P(x0, baseline),
	}
	d.DrawString(p.Text)
}

// plotDot fills a square of side width centered on (x, y).
func plotDot(img *image.NRGBA, x, y float64, c color.NRGBA, width float64) {
	r := int(width / 2)
	if r < 0 {
		r = 0
	}
	cx := int(x + 0.5)
	cy := int(y + 0.5)
	for py := cy - r; py <= cy+r; py++ {
		for px := cx - r; px <= cx+r; px++ {
			setPixel(img, px, py, c)
		}
	}
}

func setPixel(img *image.NRGBA, x, y int, c color.NRGBA) {
	if x < 0 || y < 0 || x >= img.Bounds().Dx() || y >= img.Bounds().Dy() {
		return
	}
	i := y*img.Stride + x*4
	img.Pix[i+0] = c.R
	img.Pix[i+1] = c.G
	img.Pix[i+2] = c.B
	img.Pix[i+3] = c.A
}

// blendPixel composes c over the existing pixel (source-over on
// non-premultiplied values).
func blendPixel(img *image.NRGBA, x, y int, c color.NRGBA) {
	if x < 0 || y < 0 || x >= img.Bounds().Dx() || y >= img.Bounds().Dy() {
		return
	}
	if c.A == 0xff {
		setPixel(img, x, y, c)
		return
	}
	if c.A == 0 {
		return
	}
	i := y*img.Stride + x*4
	srcA := float64(c.A) / 255
	dstA := float64(img.Pix[i+3]) / 255
	outA := srcA + dstA*(1-srcA)
	if outA == 0 {
		return
	}
	blend := func(src, dst uint8) uint8 {
		v := (float64(src)*srcA + float64(dst)*dstA*(1-srcA)) / outA
		return uint8(v + 0.5)
	}
	img.Pix[i+0] = blend(c.R, img.Pix[i+0])
	img.Pix[i+1] = blend(c.G, img.Pix[i+1])
	img.Pix[i+2] = blend(c.B, img.Pix[i+2])
	img.Pix[i+3] = uint8(outA*255 + 0.5)
}

func drawHLine(img *image.NRGBA, y, x0, x1 int, c color.NRGBA) {
	if y < 0 || y >= img.Bounds().Dy() {
		return
	}
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if x1 <= 0 || x0 >= img.Bounds().Dx() {
		return
	}
	if x0 < 0 {
		x0 = 0
	}
	if x1 > img.Bounds().Dx() {
		x1 = img.Bounds().Dx()
	}
	i := y*img.Stride + x0*4
	for x := x0; x < x1; x++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += 4
	}
}

func drawVLine(img *image.NRGBA, x, y0, y1 int, c color.NRGBA) {
	if x < 0 || x >= img.Bounds().Dx() {
		return
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	if y1 <= 0 || y0 >= img.Bounds().Dy() {
		return
	}
	if y0 < 0 {
		y0 = 0
	}
	if y1 > img.Bounds().Dy() {
		y1 = img.Bounds().Dy()
	}
	i := y0*img.Stride + x*4
	for y := y0; y < y1; y++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += img.Stride
	}
}
