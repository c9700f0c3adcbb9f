package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/couchcryptid/property-distress-service/internal/domain"
	"github.com/google/uuid"
)

// DistressTransformer turns an address request message into an analysis
// message.
type DistressTransformer struct {
	analyzer *Analyzer
}

// NewTransformer creates a DistressTransformer.
func NewTransformer(analyzer *Analyzer) *DistressTransformer {
	return &DistressTransformer{analyzer: analyzer}
}

// Transform decodes an AddressRequest from raw.Value. The request ID falls
// back to the message key, then to a fresh UUID.
func (t *DistressTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	var req AddressRequest
	if err := json.Unmarshal(raw.Value, &req); err != nil {
		return domain.OutputEvent{}, fmt.Errorf("unmarshal address request: %w", err)
	}
	if req.ID == "" {
		req.ID = string(raw.Key)
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	analysis, err := t.analyzer.Analyze(ctx, req)
	if err != nil {
		return domain.OutputEvent{}, fmt.Errorf("analyze %s: %w", req.ID, err)
	}

	value, err := json.Marshal(analysis)
	if err != nil {
		return domain.OutputEvent{}, fmt.Errorf("marshal analysis: %w", err)
	}

	return domain.OutputEvent{
		Key:     []byte(req.ID),
		Value:   value,
		Headers: domain.AnalysisHeaders(analysis.Result.RiskLevel, analysis.Status, analysis.AnalyzedAt),
	}, nil
}
