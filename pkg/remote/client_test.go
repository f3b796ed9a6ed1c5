package remote

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sketchkit/annotator/pkg/types"
)

const analysisBody = `{
	"status": "ok",
	"problem_type": "proportion",
	"feedback": {
		"problem": "a house",
		"analysis": "the roof is too small",
		"hints": ["extend the roof line"],
		"mistakes": ["roof"],
		"next_step": "redraw the roof",
		"encouragement": "nice lines!"
	},
	"annotations": [
		{"type": "circle", "center": {"x": 0.5, "y": 0.2}, "radius": 0.1},
		{"type": "arrow", "from": {"x": 0.2, "y": 0.8}, "to": {"x": 0.5, "y": 0.3}}
	],
	"annotation_status": "ok"
}`

func TestAnalyzeSketch(t *testing.T) {
	var gotContext, gotProblemType string
	var gotImageBytes int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/analyze" {
			t.Errorf("path = %s, want /analyze", r.URL.Path)
		}
		if err := r.ParseMultipartForm(16 << 20); err != nil {
			t.Fatalf("request is not multipart: %v", err)
		}
		gotContext = r.FormValue("context")
		gotProblemType = r.FormValue("problem_type")

		file, _, err := r.FormFile("image")
		if err != nil {
			t.Fatalf("missing image form file: %v", err)
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		gotImageBytes = len(data)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(analysisBody))
	}))
	defer server.Close()

	c := NewClient(server.URL, 10*time.Second, nil)
	resp, err := c.AnalyzeSketch(context.Background(), types.AnalyzeRequest{
		ImageData:   []byte{1, 2, 3, 4},
		Filename:    "sketch.png",
		Context:     "a house",
		ProblemType: "proportion",
	})
	if err != nil {
		t.Fatalf("AnalyzeSketch failed: %v", err)
	}

	if gotContext != "a house" {
		t.Errorf("context field = %q", gotContext)
	}
	if gotProblemType != "proportion" {
		t.Errorf("problem_type field = %q", gotProblemType)
	}
	if gotImageBytes != 4 {
		t.Errorf("uploaded %d image bytes, want 4", gotImageBytes)
	}

	if resp.Status != "ok" {
		t.Errorf("status = %q", resp.Status)
	}
	if len(resp.Annotations) != 2 {
		t.Errorf("got %d raw annotations, want 2", len(resp.Annotations))
	}
	if resp.Feedback.Analysis != "the roof is too small" {
		t.Errorf("feedback.analysis = %q", resp.Feedback.Analysis)
	}
}

func TestAnalyzeSketchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	c := NewClient(server.URL, 10*time.Second, nil)
	if _, err := c.AnalyzeSketch(context.Background(), types.AnalyzeRequest{ImageData: []byte{1}}); err == nil {
		t.Error("non-200 status should surface as an error")
	}
}

func TestAnalyzeSketchDefaultFilename(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(16 << 20); err != nil {
			t.Fatalf("request is not multipart: %v", err)
		}
		_, header, err := r.FormFile("image")
		if err != nil {
			t.Fatalf("missing image form file: %v", err)
		}
		if header.Filename == "" {
			t.Error("image part should carry a default filename")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","annotations":[]}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, 10*time.Second, nil)
	if _, err := c.AnalyzeSketch(context.Background(), types.AnalyzeRequest{ImageData: []byte{1}}); err != nil {
		t.Fatalf("AnalyzeSketch failed: %v", err)
	}
}

func TestCheckHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("path = %s, want /health", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy","version":"2.1"}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, 10*time.Second, nil)
	health, err := c.CheckHealth(context.Background())
	if err != nil {
		t.Fatalf("CheckHealth failed: %v", err)
	}
	if health.Status != "healthy" || health.Version != "2.1" {
		t.Errorf("health = %+v", health)
	}
}
