package resolver

import (
	"context"
	"errors"
	"log/slog"

	"github.com/couchcryptid/property-distress-service/internal/domain"
	"github.com/couchcryptid/property-distress-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Facet names used in logs and metrics.
const (
	facetDetail     = "detail"
	facetAssessment = "assessment"
	facetSales      = "sale_history"
	facetDistress   = "distress"
)

// Resolver implements domain.PropertyResolver against the network. It tries
// each (provider, variant) attempt in order, stops at the first valuation
// match, then collects the remaining facets from the same provider.
type Resolver struct {
	providers []domain.PropertyProvider
	fallback  domain.PublicRecordsProvider
	retry     RetryPolicy
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a Resolver. fallback may be nil when no jurisdiction has a
// public-records source configured.
func New(providers []domain.PropertyProvider, fallback domain.PublicRecordsProvider, retry RetryPolicy, logger *slog.Logger, metrics *observability.Metrics) *Resolver {
	if retry.Clock == nil {
		retry.Clock = clockwork.NewRealClock()
	}
	if retry.OnRetry == nil {
		retry.OnRetry = func(reason string) { metrics.Retries.WithLabelValues(reason).Inc() }
	}
	return &Resolver{
		providers: providers,
		fallback:  fallback,
		retry:     retry,
		clock:     retry.Clock,
		logger:    logger,
		metrics:   metrics,
	}
}

// Resolve returns a record for addr. It never returns an error other than
// *domain.ResolutionFailure, and the record is a NotFoundRecord in that case.
func (r *Resolver) Resolve(ctx context.Context, addr domain.NormalizedAddress, variants []domain.AddressVariant) (domain.PropertyRecord, error) {
	if len(variants) == 0 {
		variants = domain.GenerateVariants(addr)
	}

	attempts := 0
	var lastErr error
	for a := range Attempts(r.providers, variants) {
		if ctx.Err() != nil {
			break
		}
		attempts++
		q := domain.AddressQuery{Street: a.Variant.Street, CityStateZip: addr.Line2}

		val, err := Do(ctx, r.retry, func(ctx context.Context) (domain.ValuationResult, error) {
			return a.Provider.Valuation(ctx, q)
		})
		if err != nil {
			lastErr = err
			r.logger.Debug("variant did not match",
				"provider", a.Provider.Name(),
				"variant", a.Variant.Street,
				"transform", a.Variant.Transform,
				"error", err,
			)
			continue
		}

		r.metrics.VariantAttempt.Observe(float64(attempts))
		r.metrics.Resolutions.WithLabelValues("matched").Inc()
		r.logger.Info("address matched",
			"address", addr.String(),
			"provider", a.Provider.Name(),
			"variant", a.Variant.Street,
			"attempts", attempts,
		)
		return r.buildRecord(ctx, a.Provider, addr, a.Variant, val), nil
	}

	if err := ctx.Err(); err != nil {
		r.metrics.Resolutions.WithLabelValues("cancelled").Inc()
		return domain.NotFoundRecord(addr, r.clock.Now()), &domain.ResolutionFailure{Address: addr, Attempts: attempts, Err: err}
	}

	rec, ok, err := r.resolvePublicRecords(ctx, addr, variants)
	if ok {
		r.metrics.VariantAttempt.Observe(float64(attempts))
		return rec, nil
	}
	if err != nil {
		lastErr = err
	}
	if lastErr == nil {
		lastErr = domain.ErrNoMatch
	}

	r.metrics.VariantAttempt.Observe(float64(attempts))
	r.metrics.Resolutions.WithLabelValues("not_found").Inc()
	r.logger.Warn("address not resolved",
		"address", addr.String(),
		"attempts", attempts,
		"error", lastErr,
	)
	return domain.NotFoundRecord(addr, r.clock.Now()), &domain.ResolutionFailure{Address: addr, Attempts: attempts, Err: lastErr}
}

// buildRecord queries the facets in fixed order. A failed facet is logged and
// left empty; it never aborts the others.
func (r *Resolver) buildRecord(ctx context.Context, p domain.PropertyProvider, addr domain.NormalizedAddress, v domain.AddressVariant, val domain.ValuationResult) domain.PropertyRecord {
	q := domain.AddressQuery{Street: v.Street, CityStateZip: addr.Line2}
	valuation := val.Valuation
	matched := v

	rec := domain.PropertyRecord{
		Query:          addr,
		Found:          true,
		Source:         p.Name(),
		MatchedVariant: &matched,
		OneLine:        val.OneLine,
		Valuation:      &valuation,
	}

	if detail, err := Do(ctx, r.retry, func(ctx context.Context) (domain.DetailResult, error) {
		return p.Detail(ctx, q)
	}); r.facetOK(ctx, facetDetail, addr, err) {
		rec.Characteristics = detail.Characteristics
		rec.Owner = detail.Owner
	}

	if tax, err := Do(ctx, r.retry, func(ctx context.Context) (domain.TaxAssessment, error) {
		return p.Assessment(ctx, q)
	}); r.facetOK(ctx, facetAssessment, addr, err) {
		rec.Tax = &tax
	}

	if sales, err := Do(ctx, r.retry, func(ctx context.Context) ([]domain.Sale, error) {
		return p.SaleHistory(ctx, q)
	}); r.facetOK(ctx, facetSales, addr, err) {
		rec.Sales = sales
	}

	if flags, err := Do(ctx, r.retry, func(ctx context.Context) (domain.DistressFlags, error) {
		return p.Distress(ctx, q)
	}); r.facetOK(ctx, facetDistress, addr, err) {
		rec.Distress = &flags
	}

	rec.ResolvedAt = r.clock.Now()
	return rec
}

func (r *Resolver) facetOK(ctx context.Context, facet string, addr domain.NormalizedAddress, err error) bool {
	if err == nil {
		return true
	}
	r.metrics.FacetFailures.WithLabelValues(facet).Inc()
	level := slog.LevelWarn
	if errors.Is(err, domain.ErrNoMatch) {
		level = slog.LevelDebug
	}
	r.logger.Log(ctx, level, "facet query failed",
		"facet", facet,
		"address", addr.String(),
		"error", err,
	)
	return false
}

// resolvePublicRecords looks the address up by house number and street name
// in the jurisdiction's public records. When the parcel's situs address is a
// spelling not yet tried, the primary provider is queried once more with it.
func (r *Resolver) resolvePublicRecords(ctx context.Context, addr domain.NormalizedAddress, variants []domain.AddressVariant) (domain.PropertyRecord, bool, error) {
	if r.fallback == nil || !r.fallback.Covers(addr.Line2) {
		return domain.PropertyRecord{}, false, nil
	}
	key := domain.SplitStreet(addr.Line1)
	if key.IsZero() {
		return domain.PropertyRecord{}, false, nil
	}
	key.Locality = addr.Line2

	pr, err := Do(ctx, r.retry, func(ctx context.Context) (domain.PublicRecord, error) {
		return r.fallback.Lookup(ctx, key)
	})
	if err != nil {
		r.logger.Info("public records lookup failed",
			"provider", r.fallback.Name(),
			"number", key.Number,
			"street", key.Name,
			"error", err,
		)
		return domain.PropertyRecord{}, false, err
	}

	if rec, ok := r.requerySitus(ctx, addr, variants, pr); ok {
		return rec, true, nil
	}

	r.metrics.Resolutions.WithLabelValues("public_record").Inc()
	r.logger.Info("address matched in public records",
		"address", addr.String(),
		"provider", r.fallback.Name(),
		"parcel", pr.ParcelID,
	)
	return domain.PropertyRecord{
		Query:        addr,
		Found:        true,
		Source:       domain.SourcePublicRecords,
		Owner:        &domain.Owner{Name: pr.OwnerName, MailingAddress: pr.MailingAddress},
		PublicRecord: &pr,
		ResolvedAt:   r.clock.Now(),
	}, true, nil
}

func (r *Resolver) requerySitus(ctx context.Context, addr domain.NormalizedAddress, variants []domain.AddressVariant, pr domain.PublicRecord) (domain.PropertyRecord, bool) {
	if pr.SitusAddress == "" || len(r.providers) == 0 {
		return domain.PropertyRecord{}, false
	}
	situs := domain.StripUnit(domain.Normalize(domain.ParseRawAddress(pr.SitusAddress)).Line1)
	if situs == "" {
		return domain.PropertyRecord{}, false
	}
	for _, v := range variants {
		if v.Street == situs {
			return domain.PropertyRecord{}, false
		}
	}

	primary := r.providers[0]
	v := domain.AddressVariant{Street: situs, Transform: domain.TransformSitus}
	q := domain.AddressQuery{Street: situs, CityStateZip: addr.Line2}
	val, err := Do(ctx, r.retry, func(ctx context.Context) (domain.ValuationResult, error) {
		return primary.Valuation(ctx, q)
	})
	if err != nil {
		r.logger.Debug("situs re-query did not match", "situs", situs, "error", err)
		return domain.PropertyRecord{}, false
	}

	r.metrics.Resolutions.WithLabelValues("matched").Inc()
	rec := r.buildRecord(ctx, primary, addr, v, val)
	rec.PublicRecord = &pr
	return rec, true
}
