package pipeline

import (
	"context"
	"fmt"
	"time"
)

// BatchOptions bounds a RunBatch call.
type BatchOptions struct {
	// Limit caps the number of requests processed; the rest are skipped.
	// Zero means DefaultMaxBatchSize.
	Limit int

	// Throttle is the minimum delay between consecutive analyses.
	Throttle time.Duration
}

// BatchReport summarizes a RunBatch call.
type BatchReport struct {
	Processed     int `json:"processed"`
	Matched       int `json:"matched"`
	PublicRecords int `json:"public_records"`
	NotFound      int `json:"not_found"`
	Invalid       int `json:"invalid"`
	Skipped       int `json:"skipped"`
}

// InvalidRequest is passed to the sink for requests that could not be
// analyzed, so output stays aligned with input.
type InvalidRequest struct {
	Request AddressRequest
	Err     error
}

// BatchSink receives results in input order. Exactly one of a and invalid is
// non-nil.
type BatchSink func(a *Analysis, invalid *InvalidRequest) error

// RunBatch analyzes requests one at a time in input order. A sink error stops
// the batch; so does context cancellation, which is returned as the error.
func RunBatch(ctx context.Context, analyzer *Analyzer, requests []AddressRequest, sink BatchSink, opts BatchOptions) (BatchReport, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultMaxBatchSize
	}

	var report BatchReport
	if len(requests) > limit {
		report.Skipped = len(requests) - limit
		analyzer.logger.Warn("batch exceeds limit, skipping remainder",
			"requests", len(requests),
			"limit", limit,
			"skipped", report.Skipped,
		)
		requests = requests[:limit]
	}

	throttle := newThrottle(opts.Throttle)
	for i, req := range requests {
		if throttle != nil {
			if err := throttle.Wait(ctx); err != nil {
				return report, fmt.Errorf("batch interrupted at %d: %w", i, err)
			}
		}

		a, err := analyzer.Analyze(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return report, fmt.Errorf("batch interrupted at %d: %w", i, ctx.Err())
			}
			report.Invalid++
			if serr := sink(nil, &InvalidRequest{Request: req, Err: err}); serr != nil {
				return report, fmt.Errorf("write result %d: %w", i, serr)
			}
			continue
		}

		report.Processed++
		switch a.Status {
		case StatusMatched:
			report.Matched++
		case StatusPublicRecords:
			report.PublicRecords++
		case StatusNotFound:
			report.NotFound++
		}
		if err := sink(&a, nil); err != nil {
			return report, fmt.Errorf("write result %d: %w", i, err)
		}
	}
	return report, nil
}
