// Package modelout parses vision-model replies into the standard analysis
// response. Models wrap JSON in code fences, add comments, or leave
// trailing commas; this package cleans that up and degrades gracefully
// when no usable JSON remains.
package modelout

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/sketchkit/annotator/pkg/types"
)

// FeedbackPrompt instructs a vision model to behave like the analysis
// service, emitting the standard response JSON.
const FeedbackPrompt = `You are a drawing tutor reviewing a student sketch.

Return JSON only, in exactly this shape:
{
  "status": "ok",
  "problem_type": "string",
  "feedback": {
    "problem": "string",
    "analysis": "string",
    "hints": ["string"],
    "mistakes": ["string"],
    "next_step": "string",
    "encouragement": "string"
  },
  "annotations": [
    {"type": "circle", "center": {"x": 0.0, "y": 0.0}, "radius": 0.0, "color": "#FF0000"},
    {"type": "rect", "origin": {"x": 0.0, "y": 0.0}, "size": {"x": 0.0, "y": 0.0}},
    {"type": "arrow", "start": {"x": 0.0, "y": 0.0}, "end": {"x": 0.0, "y": 0.0}},
    {"type": "text", "center": {"x": 0.0, "y": 0.0}, "text": "string", "fontSize": 14}
  ]
}

HARD RULES
- All coordinates are normalized to [0,1] (NOT pixels).
- Place annotations over the parts of the drawing they refer to.
- Use at most 6 annotations; omit the array if there is nothing to mark.
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

// PromptWithContext appends the student's description of the drawing to
// the base prompt.
func PromptWithContext(context string) string {
	if context == "" {
		return FeedbackPrompt
	}
	return FeedbackPrompt + "\n\nThe student says the drawing shows: " + context
}

var (
	reBlockComment  = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reLineComment   = regexp.MustCompile(`(?m)^\s*//.*$`)
	reInlineComment = regexp.MustCompile(`(?m)//.*$`)
	reTrailingComma = regexp.MustCompile(`,(\s*[}\]])`)
)

// Sanitize removes code fences, comments, and trailing commas from a
// model's JSON response.
func Sanitize(raw string) string {
	raw = strings.TrimSpace(raw)

	// Strip triple-backtick fences if present
	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.TrimSpace(raw)
	raw = strings.Trim(raw, "`")

	raw = reBlockComment.ReplaceAllString(raw, "")
	raw = reLineComment.ReplaceAllString(raw, "")
	raw = reInlineComment.ReplaceAllString(raw, "")
	raw = reTrailingComma.ReplaceAllString(raw, "$1")

	// Keep only the outermost {...}
	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}
	return strings.TrimSpace(raw)
}

// Parse decodes a vision model's reply into an analysis response. Output
// that is not valid JSON yields a degraded response carrying the failure
// in annotation_error, never a hard error: a bad reply should cost the
// annotations, not the page.
func Parse(raw string) *types.AnalysisResponse {
	raw = Sanitize(raw)

	if !strings.HasPrefix(raw, "{") {
		return degraded("model returned non-JSON response")
	}

	var resp types.AnalysisResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		// Retry on the outermost brace-delimited slice.
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start < 0 || end <= start {
			return degraded("no JSON object in model response")
		}
		if err2 := json.Unmarshal([]byte(raw[start:end+1]), &resp); err2 != nil {
			return degraded("failed to parse model response")
		}
	}

	if resp.Status == "" {
		resp.Status = "ok"
	}
	return &resp
}

func degraded(reason string) *types.AnalysisResponse {
	return &types.AnalysisResponse{
		Status:           "ok",
		AnnotationStatus: "failed",
		AnnotationError:  reason,
	}
}
