package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	annotator "github.com/sketchkit/annotator"
	"github.com/sketchkit/annotator/internal/config"
	"github.com/sketchkit/annotator/internal/utils"
	"github.com/sketchkit/annotator/pkg/client"
	"github.com/sketchkit/annotator/pkg/llamacpp"
	"github.com/sketchkit/annotator/pkg/ollama"
	"github.com/sketchkit/annotator/pkg/raster"
	"github.com/sketchkit/annotator/pkg/remote"
	"github.com/sketchkit/annotator/pkg/schema"
)

func main() {
	var in, outDir, backend, url, model, cfgPath string
	var contextText, problemType string
	var ext string
	var quality int
	var lossless bool
	var sendFmt string
	var sendSize int
	var sendQ int
	var highlight bool
	var verbose bool

	cfg := loadConfig(&cfgPath)

	// Re-register so the main parse accepts the flag the peek consumed.
	flag.StringVar(&cfgPath, "config", cfgPath, "config file path (JSON)")
	flag.StringVar(&in, "in", "", "input sketch path or URL (jpg/png/webp)")
	flag.StringVar(&outDir, "out", cfg.Output.Dir, "output directory")
	flag.StringVar(&backend, "backend", cfg.Backend.Kind, "backend to use: remote, ollama, or llamacpp")
	flag.StringVar(&url, "url", cfg.Backend.URL, "backend server URL")
	flag.StringVar(&model, "model", cfg.Backend.Model, "vision model name (ollama/llamacpp backends)")
	flag.StringVar(&contextText, "context", "", "what the drawing is supposed to show")
	flag.StringVar(&problemType, "problemtype", "", "problem type hint passed to the backend")

	flag.StringVar(&ext, "ext", cfg.Output.Format, "annotated output format: jpg|png|webp")
	flag.IntVar(&quality, "quality", cfg.Output.Quality, "JPEG/WebP output quality (1-100)")
	flag.BoolVar(&lossless, "lossless", cfg.Output.Lossless, "WebP output lossless mode")

	flag.StringVar(&sendFmt, "sendfmt", cfg.Send.Format, "format sent to the backend: jpg|png")
	flag.IntVar(&sendSize, "sendsize", cfg.Send.MaxDim, "max long side sent to the backend (px), 0=original")
	flag.IntVar(&sendQ, "sendq", cfg.Send.Quality, "JPEG quality for image sent to the backend (1-100)")

	flag.BoolVar(&highlight, "highlight", cfg.Annotations.Protocol == "highlight", "expect the reduced highlight-rectangle protocol")
	flag.BoolVar(&verbose, "v", false, "verbose transport logging")

	flag.Parse()
	if in == "" {
		log.Fatalf("usage: %s -in sketch.png|URL [-backend remote|ollama|llamacpp] [-url server_url] [-context \"a house\"] [-out outdir]", filepath.Base(os.Args[0]))
	}
	if err := utils.EnsureDir(outDir); err != nil {
		log.Fatal(err)
	}

	logger := logrus.New()
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	feedbackClient := buildClient(backend, url, model, cfg, logger)

	protocol := schema.ModeMarkup
	if highlight {
		protocol = schema.ModeHighlight
	}
	opts := annotator.Options{
		Protocol:    protocol,
		SendFormat:  sendFmt,
		SendMaxDim:  sendSize,
		SendQuality: sendQ,
	}
	ann := annotator.NewWithOptions(feedbackClient, opts)

	rasterizer := raster.New()
	img, err := rasterizer.LoadSmart(in)
	if err != nil {
		log.Fatal(err)
	}

	review, err := ann.Review(context.Background(), img, contextText, problemType)
	if err != nil {
		log.Fatal(err)
	}

	printFeedback(review)

	annotated := ann.Overlay(img, review)
	outPath := utils.AnnotatedFilename(in, outDir, ext)
	if err := rasterizer.Save(annotated, outPath, ext, quality, lossless); err != nil {
		log.Fatalf("save %s failed: %v", outPath, err)
	}
	log.Printf("wrote %s", outPath)

	// Keep the raw response next to the image for inspection
	js, _ := json.MarshalIndent(review.Response, "", "  ")
	_ = os.WriteFile(filepath.Join(outDir, "response.json"), js, 0o644)
}

func loadConfig(cfgPath *string) *config.Config {
	// The -config flag has to be known before the main flag set parses,
	// so peek at the arguments directly.
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {}
	fs.StringVar(cfgPath, "config", "", "config file path")
	_ = fs.Parse(configArgs(os.Args[1:]))

	path := *cfgPath
	if path == "" {
		path = config.GetConfigPath()
		if !utils.FileExists(path) {
			return config.Default()
		}
	}
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

// configArgs keeps only the -config flag and its value so the peek parse
// never trips over flags it does not know.
func configArgs(args []string) []string {
	for i, a := range args {
		if a == "-config" || a == "--config" {
			if i+1 < len(args) {
				return args[i : i+2]
			}
			return args[i : i+1]
		}
	}
	return nil
}

func buildClient(backend, url, model string, cfg *config.Config, logger *logrus.Logger) client.FeedbackClient {
	switch backend {
	case "remote":
		if url == "" {
			url = "http://localhost:8000"
		}
		timeout := time.Duration(cfg.Backend.TimeoutSeconds) * time.Second
		return remote.NewClient(url, timeout, logger)
	case "ollama":
		if url == "" {
			url = "http://localhost:11434"
		}
		c, err := ollama.NewClient(url, model)
		if err != nil {
			log.Fatalf("failed to create Ollama client: %v", err)
		}
		return c
	case "llamacpp":
		if url == "" {
			url = "http://localhost:8080"
		}
		c, err := llamacpp.NewClient(url, model)
		if err != nil {
			log.Fatalf("failed to create llama.cpp client: %v", err)
		}
		return c
	default:
		log.Fatalf("unknown backend: %s (use 'remote', 'ollama' or 'llamacpp')", backend)
		return nil
	}
}

func printFeedback(review *annotator.Review) {
	fb := review.Response.Feedback
	if fb.Problem != "" {
		log.Printf("problem: %s", fb.Problem)
	}
	if fb.Analysis != "" {
		log.Printf("analysis: %s", fb.Analysis)
	}
	for _, hint := range fb.Hints {
		log.Printf("hint: %s", hint)
	}
	for _, mistake := range fb.Mistakes {
		log.Printf("mistake: %s", mistake)
	}
	if fb.NextStep != "" {
		log.Printf("next step: %s", fb.NextStep)
	}
	if fb.Encouragement != "" {
		log.Printf("%s", fb.Encouragement)
	}

	log.Printf("annotations: %d ok, %d failed", len(review.Annotations)+len(review.Highlights), len(review.Errors))
	for _, recErr := range review.Errors {
		log.Printf("annotation error: %v", recErr)
	}
	if review.Response.AnnotationError != "" {
		log.Printf("annotation error: %s", review.Response.AnnotationError)
	}
}
