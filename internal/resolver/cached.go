package resolver

import (
	"context"
	"errors"
	"log/slog"

	"github.com/couchcryptid/property-distress-service/internal/domain"
	"github.com/couchcryptid/property-distress-service/internal/observability"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"
)

// Cached wraps a PropertyResolver with a ResolutionCache. The cache is read
// before any network access, and both matches and not-found outcomes are
// stored. Concurrent resolutions of the same address share one inner call.
type Cached struct {
	inner   domain.PropertyResolver
	cache   domain.ResolutionCache
	group   singleflight.Group
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewCached creates a cache decorator around a resolver.
func NewCached(inner domain.PropertyResolver, cache domain.ResolutionCache, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Cached {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Cached{
		inner:   inner,
		cache:   cache,
		clock:   clock,
		logger:  logger,
		metrics: metrics,
	}
}

type outcome struct {
	record domain.PropertyRecord
	err    error
}

// sharedAttempts bounds how often a caller with a live context re-runs a
// shared resolution that another caller's cancellation cut short.
const sharedAttempts = 3

func (c *Cached) Resolve(ctx context.Context, addr domain.NormalizedAddress, variants []domain.AddressVariant) (domain.PropertyRecord, error) {
	key := addr.CacheKey()
	if out, ok := c.lookup(ctx, key, addr); ok {
		return out.record, out.err
	}

	var out outcome
	for range sharedAttempts {
		out = c.shared(ctx, key, addr, variants)
		if !interrupted(out.err) || ctx.Err() != nil {
			break
		}
		c.logger.Debug("shared resolution was cancelled by another caller, retrying", "key", key)
	}
	return out.record, out.err
}

// shared runs one resolution per key at a time under the context of whichever
// caller started it.
func (c *Cached) shared(ctx context.Context, key string, addr domain.NormalizedAddress, variants []domain.AddressVariant) outcome {
	v, _, _ := c.group.Do(key, func() (any, error) {
		// Another caller may have stored the entry while this one waited.
		if out, ok := c.lookup(ctx, key, addr); ok {
			return out, nil
		}
		rec, err := c.inner.Resolve(ctx, addr, variants)
		c.store(ctx, key, rec, err)
		return outcome{record: rec, err: err}, nil
	})
	return v.(outcome)
}

func interrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (c *Cached) lookup(ctx context.Context, key string, addr domain.NormalizedAddress) (outcome, bool) {
	entry, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.metrics.CacheLookups.WithLabelValues("error").Inc()
		c.logger.Warn("resolution cache read failed, treating as miss", "key", key, "error", err)
		return outcome{}, false
	}
	if !ok {
		c.metrics.CacheLookups.WithLabelValues("miss").Inc()
		return outcome{}, false
	}

	c.metrics.CacheLookups.WithLabelValues("hit").Inc()
	if entry.NotFound() {
		return outcome{
			record: domain.NotFoundRecord(addr, entry.CreatedAt),
			err:    &domain.ResolutionFailure{Address: addr, Cached: true, Err: domain.ErrNoMatch},
		}, true
	}
	return outcome{record: *entry.Record}, true
}

// store memoizes the outcome unless the resolution was cut short by the caller.
func (c *Cached) store(ctx context.Context, key string, rec domain.PropertyRecord, err error) {
	if ctx.Err() != nil || interrupted(err) {
		return
	}

	entry := domain.CacheEntry{Key: key, CreatedAt: c.clock.Now()}
	if err == nil {
		entry.Record = &rec
	}
	if perr := c.cache.Put(ctx, entry); perr != nil {
		c.logger.Warn("resolution cache write failed", "key", key, "error", perr)
	}
}
