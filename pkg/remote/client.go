// Package remote talks to the hosted sketch-analysis service: a multipart
// upload of the rendered sketch, a JSON body back. The client owns request
// framing and HTTP-status validation; annotation records in the body stay
// raw for the schema package to normalize.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sketchkit/annotator/pkg/types"
)

// Client is an HTTP client for the analysis service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a client for the service at baseURL. A nil logger
// falls back to the logrus standard logger.
func NewClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// AnalyzeSketch uploads the sketch and context fields as multipart
// form-data and returns the parsed response body.
func (c *Client) AnalyzeSketch(ctx context.Context, req types.AnalyzeRequest) (*types.AnalysisResponse, error) {
	c.logger.WithField("bytes", len(req.ImageData)).Info("sending sketch for analysis")

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	filename := req.Filename
	if filename == "" {
		filename = "sketch.png"
	}
	imageWriter, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create image form field: %w", err)
	}
	if _, err := imageWriter.Write(req.ImageData); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}

	if req.Context != "" {
		if err := writer.WriteField("context", req.Context); err != nil {
			return nil, fmt.Errorf("failed to write context field: %w", err)
		}
	}
	if req.ProblemType != "" {
		if err := writer.WriteField("problem_type", req.ProblemType); err != nil {
			return nil, fmt.Errorf("failed to write problem_type field: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	url := fmt.Sprintf("%s/analyze", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	c.logger.Debugf("POST %s", url)
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("analysis service returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var analysis types.AnalysisResponse
	if err := json.Unmarshal(respBody, &analysis); err != nil {
		return nil, fmt.Errorf("failed to parse response JSON: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"status":      analysis.Status,
		"annotations": len(analysis.Annotations),
	}).Info("analysis response received")
	return &analysis, nil
}

// HealthResponse is the body of the service's health endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// CheckHealth probes the service's health endpoint.
func (c *Client) CheckHealth(ctx context.Context) (*HealthResponse, error) {
	url := fmt.Sprintf("%s/health", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("analysis service returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var health HealthResponse
	if err := json.Unmarshal(respBody, &health); err != nil {
		return nil, fmt.Errorf("failed to parse response JSON: %w", err)
	}
	return &health, nil
}
