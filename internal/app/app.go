// Package app assembles the analyzer and its collaborators from configuration.
// Both the Kafka service and the CLI build through here.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/couchcryptid/property-distress-service/internal/adapter/attom"
	"github.com/couchcryptid/property-distress-service/internal/adapter/cache"
	"github.com/couchcryptid/property-distress-service/internal/adapter/datafile"
	"github.com/couchcryptid/property-distress-service/internal/adapter/publicrecords"
	"github.com/couchcryptid/property-distress-service/internal/config"
	"github.com/couchcryptid/property-distress-service/internal/domain"
	"github.com/couchcryptid/property-distress-service/internal/observability"
	"github.com/couchcryptid/property-distress-service/internal/pipeline"
	"github.com/couchcryptid/property-distress-service/internal/resolver"
	"github.com/jonboulle/clockwork"
)

// Store is a resolution cache that can be cleared by an operator.
type Store interface {
	domain.ResolutionCache
	Clear(ctx context.Context) error
}

// ReadinessChecker is implemented by components with a remote dependency.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Service holds the assembled components. Close releases their connections.
type Service struct {
	Analyzer *pipeline.Analyzer
	Cache    Store
	Scorer   domain.Scorer

	// Checks holds readiness probes for remote dependencies, keyed by name.
	Checks map[string]ReadinessChecker

	closers []io.Closer
}

// Build wires the analyzer from cfg. On error, anything already opened is
// closed.
func Build(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (svc *Service, err error) {
	svc = &Service{Checks: map[string]ReadinessChecker{}}
	defer func() {
		if err != nil {
			_ = svc.Close()
			svc = nil
		}
	}()

	svc.Scorer, err = BuildScorer(cfg)
	if err != nil {
		return svc, err
	}

	var market domain.MarketLookup
	if cfg.MarketDataFile != "" {
		t, err := datafile.LoadMarketTable(cfg.MarketDataFile)
		if err != nil {
			return svc, err
		}
		logger.Info("market data loaded", "file", cfg.MarketDataFile, "zips", t.Len())
		market = t
	}

	svc.Cache, err = svc.buildCache(cfg, logger)
	if err != nil {
		return svc, err
	}

	fallback, err := svc.buildPublicRecords(cfg, logger, metrics)
	if err != nil {
		return svc, err
	}

	var providers []domain.PropertyProvider
	if cfg.AttomAPIKey != "" {
		providers = append(providers, attom.NewClient(cfg.AttomAPIKey, cfg.AttomBaseURL, cfg.AttomDetailBaseURL, cfg.ProviderTimeout, logger, metrics))
	} else {
		logger.Warn("ATTOM_API_KEY not set, only public records will be consulted")
	}

	retry := resolver.DefaultRetryPolicy()
	retry.MaxAttempts = cfg.RetryMaxAttempts
	retry.TransientDelay = cfg.RetryTransientDelay

	inner := resolver.New(providers, fallback, retry, logger, metrics)
	cached := resolver.NewCached(inner, svc.Cache, clockwork.NewRealClock(), logger, metrics)

	svc.Analyzer = pipeline.NewAnalyzer(cached, market, svc.Scorer, logger, metrics)
	return svc, nil
}

// BuildScorer selects the weight table (file over preset), bands, and
// confidence policy.
func BuildScorer(cfg *config.Config) (domain.Scorer, error) {
	policy, ok := domain.ConfidencePolicyByName(cfg.ConfidencePolicy)
	if !ok {
		return domain.Scorer{}, fmt.Errorf("unknown confidence policy %q", cfg.ConfidencePolicy)
	}

	if cfg.WeightsFile != "" {
		s, err := datafile.LoadScoring(cfg.WeightsFile)
		if err != nil {
			return domain.Scorer{}, err
		}
		return domain.Scorer{Weights: s.Weights, Confidence: policy, Bands: s.Bands}, nil
	}

	weights, ok := domain.WeightPreset(cfg.WeightsPreset)
	if !ok {
		return domain.Scorer{}, fmt.Errorf("unknown weight preset %q", cfg.WeightsPreset)
	}
	scorer := domain.NewScorer(weights)
	scorer.Confidence = policy
	return scorer, nil
}

func (s *Service) buildCache(cfg *config.Config, logger *slog.Logger) (Store, error) {
	switch cfg.CacheBackend {
	case config.CacheFile:
		fs, err := cache.NewFileStore(cfg.CacheFile, logger)
		if err != nil {
			return nil, err
		}
		s.Checks["cache"] = fs
		return fs, nil
	case config.CacheRedis:
		rs := cache.NewRedisStore(cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB))
		s.Checks["cache"] = rs
		s.closers = append(s.closers, rs)
		return rs, nil
	default:
		return cache.NewMemoryStore(cfg.CacheMaxEntries), nil
	}
}

// buildPublicRecords returns nil when no source is configured.
func (s *Service) buildPublicRecords(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (domain.PublicRecordsProvider, error) {
	pr := cfg.PublicRecords
	var sources []domain.PublicRecordsProvider

	if pr.ShapefilePath != "" {
		src, err := publicrecords.LoadShapefile("shapefile", pr.ShapefilePath, publicrecords.DefaultShapefileFields(), pr.ShapefileJurisdictions)
		if err != nil {
			return nil, err
		}
		logger.Info("parcel shapefile loaded", "path", pr.ShapefilePath, "parcels", src.Len())
		sources = append(sources, src)
	}

	if pr.SQLDriver != "" {
		src, err := publicrecords.OpenSQLSource(publicrecords.SQLConfig{
			Driver:        pr.SQLDriver,
			DSN:           pr.SQLDSN,
			Table:         pr.SQLTable,
			Columns:       publicrecords.DefaultSQLColumns(),
			Jurisdictions: pr.SQLJurisdictions,
		}, metrics)
		if err != nil {
			return nil, err
		}
		s.Checks["public_records_sql"] = src
		s.closers = append(s.closers, src)
		sources = append(sources, src)
	}

	if pr.TaxCollectorEnabled {
		sources = append(sources, publicrecords.NewTaxCollector(pr.TaxCollectorURL, pr.TaxCollectorJurisdictions, cfg.ProviderTimeout, logger, metrics))
	}

	if len(sources) == 0 {
		return nil, nil
	}
	return publicrecords.NewRouter(sources...), nil
}

// Close releases every opened connection.
func (s *Service) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
