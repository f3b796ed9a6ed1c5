// Package ollama runs the sketch analysis against a local Ollama vision
// model instead of the hosted service. The model is prompted to emit the
// same response JSON the service would; malformed model output degrades
// to an empty-annotation response rather than an error.
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/sketchkit/annotator/pkg/modelout"
	"github.com/sketchkit/annotator/pkg/types"
)

// Client adapts an Ollama vision model to the FeedbackClient interface.
type Client struct {
	client *api.Client
	model  string
}

// NewClient creates a client for the Ollama server at ollamaURL.
func NewClient(ollamaURL, model string) (*Client, error) {
	parsedURL, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	// Base URL only; drop any path like /api/chat.
	baseURL := &url.URL{
		Scheme: parsedURL.Scheme,
		Host:   parsedURL.Host,
	}

	return &Client{
		client: api.NewClient(baseURL, http.DefaultClient),
		model:  model,
	}, nil
}

// AnalyzeSketch sends the sketch image to the vision model and parses the
// response into the standard analysis body.
func (c *Client) AnalyzeSketch(ctx context.Context, req types.AnalyzeRequest) (*types.AnalysisResponse, error) {
	// Vision models on CPU can be very slow; give a generous ceiling when
	// the caller set no deadline.
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 300*time.Second)
		defer cancel()
	}

	streamFalse := false
	chatReq := &api.ChatRequest{
		Model: c.model,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: modelout.PromptWithContext(req.Context),
				Images:  []api.ImageData{api.ImageData(req.ImageData)},
			},
		},
		Stream: &streamFalse,
	}

	var responseContent string
	err := c.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		responseContent = resp.Message.Content
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama chat error: %w", err)
	}
	if responseContent == "" {
		return nil, fmt.Errorf("empty response from ollama")
	}

	return modelout.Parse(responseContent), nil
}
