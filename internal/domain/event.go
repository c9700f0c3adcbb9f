package domain

import (
	"context"
	"time"
)

// Header names set on every analysis message.
const (
	HeaderRiskLevel  = "risk_level"
	HeaderStatus     = "status"
	HeaderAnalyzedAt = "analyzed_at"
)

// RawEvent is an address request message as read from the request topic.
// Commit acknowledges it; the pipeline calls it only after the analysis has
// been written, or when the message can never be analyzed.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// OutputEvent is an analysis message keyed by request ID.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// AnalysisHeaders builds the headers of an analysis message.
func AnalysisHeaders(level RiskLevel, status string, analyzedAt time.Time) map[string]string {
	return map[string]string{
		HeaderRiskLevel:  string(level),
		HeaderStatus:     status,
		HeaderAnalyzedAt: analyzedAt.UTC().Format(time.RFC3339),
	}
}
