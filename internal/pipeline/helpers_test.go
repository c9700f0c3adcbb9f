package pipeline_test

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/couchcryptid/property-distress-service/internal/domain"
	"github.com/couchcryptid/property-distress-service/internal/observability"
	"github.com/couchcryptid/property-distress-service/internal/pipeline"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func freezeClock(t *testing.T) {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(fixedNow))
	t.Cleanup(func() { domain.SetClock(nil) })
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

// stubResolver answers from a table keyed by normalized line1.
type stubResolver struct {
	mu      sync.Mutex
	records map[string]domain.PropertyRecord
	calls   []string
	err     error
}

func (s *stubResolver) Resolve(ctx context.Context, addr domain.NormalizedAddress, variants []domain.AddressVariant) (domain.PropertyRecord, error) {
	s.mu.Lock()
	s.calls = append(s.calls, addr.Line1)
	s.mu.Unlock()

	if s.err != nil {
		return domain.NotFoundRecord(addr, fixedNow), s.err
	}
	if err := ctx.Err(); err != nil {
		return domain.NotFoundRecord(addr, fixedNow), &domain.ResolutionFailure{Address: addr, Err: err}
	}
	if len(variants) == 0 || variants[0].Street != addr.Line1 {
		return domain.NotFoundRecord(addr, fixedNow), &domain.ResolutionFailure{Address: addr, Err: domain.ErrNoMatch}
	}
	rec, ok := s.records[addr.Line1]
	if !ok {
		return domain.NotFoundRecord(addr, fixedNow), &domain.ResolutionFailure{Address: addr, Attempts: len(variants), Err: domain.ErrNoMatch}
	}
	rec.Query = addr
	return rec, nil
}

func distressedPGA() domain.PropertyRecord {
	return domain.PropertyRecord{
		Found:           true,
		Source:          "attom",
		Valuation:       &domain.Valuation{Value: 300000},
		Characteristics: &domain.Characteristics{YearBuilt: 1980, PropertyType: "SFR"},
		Owner:           &domain.Owner{Name: "DOE JANE", MailingAddress: "PO BOX 100, JUPITER, FL 33458"},
		Tax:             &domain.TaxAssessment{AnnualTax: 12000},
		Sales:           []domain.Sale{{Date: time.Date(2005, 1, 15, 0, 0, 0, 0, time.UTC), Price: 150000}},
		Distress:        &domain.DistressFlags{PreForeclosure: true},
	}
}

func newStubResolver() *stubResolver {
	return &stubResolver{records: map[string]domain.PropertyRecord{
		"4520 PGA BOULEVARD": distressedPGA(),
		"100 OCEAN DRIVE APT 5": {
			Found:        true,
			Source:       domain.SourcePublicRecords,
			PublicRecord: &domain.PublicRecord{ParcelID: "P-100", MailingAddress: "100 OCEAN DR, JUPITER, FL 33458"},
		},
		"9 ELM STREET": {Found: true, Source: "attom", Valuation: &domain.Valuation{Value: 650000}},
	}}
}

type stubMarket map[string]domain.MarketStats

func (m stubMarket) MarketStats(zip string) (domain.MarketStats, bool) {
	s, ok := m[zip]
	return s, ok
}

func newTestAnalyzer(r domain.PropertyResolver) *pipeline.Analyzer {
	market := stubMarket{"33418": {CrimeIndex: 75, MedianIncome: 45000, VacancyRate: 12, UnemploymentRate: 9, HazardArea: true, MedianRent: 1500}}
	return pipeline.NewAnalyzer(r, market, domain.NewScorer(domain.DefaultWeights()), discardLogger(), newTestMetrics())
}

func readRequests(t *testing.T) []pipeline.AddressRequest {
	t.Helper()
	f, err := os.Open("testdata/requests.jsonl")
	require.NoError(t, err)
	defer f.Close()

	var reqs []pipeline.AddressRequest
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var r pipeline.AddressRequest
		require.NoError(t, json.Unmarshal(sc.Bytes(), &r))
		reqs = append(reqs, r)
	}
	require.NoError(t, sc.Err())
	return reqs
}
