package client

import (
	"context"

	"github.com/sketchkit/annotator/pkg/types"
)

// FeedbackClient is implemented by every analysis backend: the hosted
// sketch-analysis service and the local vision-model servers.
type FeedbackClient interface {
	AnalyzeSketch(ctx context.Context, req types.AnalyzeRequest) (*types.AnalysisResponse, error)
}
