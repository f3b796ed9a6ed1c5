// Package annotator reviews a drawing-canvas sketch with a remote
// analysis backend and overlays the returned feedback as annotated shapes
// on top of the original drawing.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"log"
//		"time"
//
//		annotator "github.com/sketchkit/annotator"
//		"github.com/sketchkit/annotator/pkg/raster"
//		"github.com/sketchkit/annotator/pkg/remote"
//	)
//
//	func main() {
//		backend := remote.NewClient("http://localhost:8000", 2*time.Minute, nil)
//		ann := annotator.New(backend)
//
//		img, err := raster.New().Load("sketch.png")
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		review, err := ann.Review(context.Background(), img, "a house with a chimney", "")
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		annotated := ann.Overlay(img, review)
//		if err := raster.New().Save(annotated, "sketch_annotated.png", "png", 92, false); err != nil {
//			log.Fatal(err)
//		}
//	}
//
// The package consists of three main components:
//
// 1. Schema (pkg/schema): Normalizes raw annotation records across wire-format revisions
// 2. Overlay (pkg/overlay): Converts canonical annotations into pixel-space draw primitives
// 3. Raster (pkg/raster): Paints primitives onto the sketch and handles image I/O
//
// Backends live in pkg/remote (hosted service), pkg/ollama, and
// pkg/llamacpp (local vision models); all satisfy pkg/client.FeedbackClient.
//
// The normalizer tolerates the key renames and value encodings of older
// backend revisions and isolates failures per record, so one malformed
// annotation never costs the whole response. The renderer is a pure
// transform from normalized [0,1] geometry to absolute pixel primitives
// and is safe to re-run on every viewport resize.
package annotator

import (
	"context"
	"fmt"
	"image"

	"github.com/sketchkit/annotator/pkg/client"
	"github.com/sketchkit/annotator/pkg/overlay"
	"github.com/sketchkit/annotator/pkg/raster"
	"github.com/sketchkit/annotator/pkg/schema"
	"github.com/sketchkit/annotator/pkg/types"
)

// Version of the annotator library
const Version = "1.0.0"

// Options tunes the analysis round trip.
type Options struct {
	// Protocol selects the annotation family the backend emits.
	Protocol schema.Mode
	// Upload encoding for the sketch image.
	SendFormat  string // jpg | png
	SendMaxDim  int    // long side in pixels, 0 = original
	SendQuality int
}

// DefaultOptions returns the options New uses.
func DefaultOptions() Options {
	return Options{
		Protocol:    schema.ModeMarkup,
		SendFormat:  "jpg",
		SendMaxDim:  1536,
		SendQuality: 85,
	}
}

// Annotator ties an analysis backend, the schema normalizer, and the
// overlay renderer together.
type Annotator struct {
	backend    client.FeedbackClient
	normalizer *schema.Normalizer
	renderer   *overlay.Renderer
	rasterizer *raster.Rasterizer
	opts       Options
}

// New creates an Annotator with default options.
func New(backend client.FeedbackClient) *Annotator {
	return NewWithOptions(backend, DefaultOptions())
}

// NewWithOptions creates an Annotator with custom options.
func NewWithOptions(backend client.FeedbackClient, opts Options) *Annotator {
	return &Annotator{
		backend:    backend,
		normalizer: schema.NewWithMode(opts.Protocol),
		renderer:   overlay.New(),
		rasterizer: raster.New(),
		opts:       opts,
	}
}

// Review is the outcome of one analysis round trip: the response body,
// the normalized annotations, and the records that failed to normalize.
// The annotation set is replaced wholesale on every request; it is never
// mutated in place.
type Review struct {
	Response    *types.AnalysisResponse
	Annotations []types.Annotation
	Highlights  []types.HighlightAnnotation
	Errors      []schema.RecordError
}

// Review uploads the sketch, waits for the analysis response, and
// normalizes its annotations. Individual malformed annotations end up in
// Review.Errors; only transport and encoding failures return an error.
func (a *Annotator) Review(ctx context.Context, img image.Image, contextText, problemType string) (*Review, error) {
	data, err := a.rasterizer.Encode(img, a.opts.SendFormat, a.opts.SendMaxDim, a.opts.SendQuality)
	if err != nil {
		return nil, fmt.Errorf("failed to encode sketch: %w", err)
	}

	resp, err := a.backend.AnalyzeSketch(ctx, types.AnalyzeRequest{
		ImageData:   data,
		Filename:    "sketch." + a.opts.SendFormat,
		Context:     contextText,
		ProblemType: problemType,
	})
	if err != nil {
		return nil, fmt.Errorf("analysis request failed: %w", err)
	}

	result := a.normalizer.NormalizeBatch(resp.Annotations)
	return &Review{
		Response:    resp,
		Annotations: result.Annotations,
		Highlights:  result.Highlights,
		Errors:      result.Errors,
	}, nil
}

// Primitives returns the draw calls for a review at the given viewport
// size, for callers painting onto their own 2D surface.
func (a *Annotator) Primitives(review *Review, width, height float64) []overlay.Primitive {
	primitives := a.renderer.Render(review.Annotations, width, height)
	primitives = append(primitives, a.renderer.RenderHighlights(review.Highlights, width, height)...)
	return primitives
}

// Overlay paints the review's annotations onto a copy of the sketch.
func (a *Annotator) Overlay(img image.Image, review *Review) *image.NRGBA {
	b := img.Bounds()
	primitives := a.Primitives(review, float64(b.Dx()), float64(b.Dy()))
	return a.rasterizer.Paint(img, primitives)
}
