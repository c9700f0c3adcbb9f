package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/couchcryptid/property-distress-service/internal/domain"
	"github.com/couchcryptid/property-distress-service/internal/observability"
)

// NotFoundConfidence caps the confidence reported for unresolved addresses.
const NotFoundConfidence = 30

// Analysis statuses.
const (
	StatusMatched       = "matched"
	StatusPublicRecords = "public_records"
	StatusNotFound      = "not_found"
)

// AddressRequest asks for one address to be analyzed. Either Address or
// Line1 (with optional Line2) must be set; Line1 wins when both are.
type AddressRequest struct {
	ID      string            `json:"id,omitempty"`
	Address string            `json:"address,omitempty"`
	Line1   string            `json:"line1,omitempty"`
	Line2   string            `json:"line2,omitempty"`
	Case    *domain.CaseFacts `json:"case,omitempty"`
}

// Raw returns the caller's address in two-line form.
func (r AddressRequest) Raw() (domain.RawAddress, error) {
	raw := domain.RawAddress{Line1: strings.TrimSpace(r.Line1), Line2: strings.TrimSpace(r.Line2)}
	if raw.Line1 == "" {
		raw = domain.ParseRawAddress(r.Address)
	}
	if err := raw.Validate(); err != nil {
		return domain.RawAddress{}, err
	}
	return raw, nil
}

// Analysis is the result of analyzing one address.
type Analysis struct {
	RequestID  string                   `json:"request_id"`
	Query      domain.NormalizedAddress `json:"query"`
	Status     string                   `json:"status"`
	Source     string                   `json:"source"`
	Record     domain.PropertyRecord    `json:"record"`
	Signals    domain.SignalSet         `json:"signals"`
	Result     domain.ScoreResult       `json:"result"`
	AnalyzedAt time.Time                `json:"analyzed_at"`
}

// Analyzer runs normalization, resolution, signal extraction, and scoring for
// one address.
type Analyzer struct {
	resolver domain.PropertyResolver
	market   domain.MarketLookup
	scorer   domain.Scorer
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewAnalyzer creates an Analyzer. market may be nil.
func NewAnalyzer(resolver domain.PropertyResolver, market domain.MarketLookup, scorer domain.Scorer, logger *slog.Logger, metrics *observability.Metrics) *Analyzer {
	return &Analyzer{
		resolver: resolver,
		market:   market,
		scorer:   scorer,
		logger:   logger,
		metrics:  metrics,
	}
}

// Analyze returns an Analysis for req. Resolution failures produce a
// not_found analysis, not an error; errors are returned only for an empty
// address or a cancelled context.
func (a *Analyzer) Analyze(ctx context.Context, req AddressRequest) (Analysis, error) {
	raw, err := req.Raw()
	if err != nil {
		return Analysis{}, err
	}

	addr := domain.Normalize(raw)
	rec, err := a.resolver.Resolve(ctx, addr, domain.GenerateVariants(addr))
	if err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return Analysis{}, err
		}
		var failure *domain.ResolutionFailure
		if !errors.As(err, &failure) {
			a.logger.Warn("unexpected resolver error", "address", addr.String(), "error", err)
		}
	}

	out := Analysis{
		RequestID:  req.ID,
		Query:      addr,
		Record:     rec,
		Source:     rec.Source,
		AnalyzedAt: domain.Now(),
	}

	if rec.Found {
		var facts domain.CaseFacts
		if req.Case != nil {
			facts = *req.Case
		}
		var stats domain.MarketStats
		if a.market != nil {
			stats, _ = a.market.MarketStats(addr.ZIP())
		}
		out.Signals = domain.ExtractSignals(rec, facts, stats)
		out.Result = a.scorer.Score(out.Signals)
		out.Status = StatusMatched
		if rec.Source == domain.SourcePublicRecords {
			out.Status = StatusPublicRecords
		}
	} else {
		out.Signals = domain.NewSignalSet()
		out.Result = a.scorer.Score(out.Signals)
		out.Result.Confidence = min(out.Result.Confidence, NotFoundConfidence)
		out.Status = StatusNotFound
	}

	a.metrics.Scores.Observe(float64(out.Result.Score))
	a.metrics.RiskLevels.WithLabelValues(string(out.Result.RiskLevel)).Inc()
	a.logger.Info("address analyzed",
		"request_id", req.ID,
		"address", addr.String(),
		"status", out.Status,
		"score", out.Result.Score,
		"risk_level", out.Result.RiskLevel,
	)
	return out, nil
}
