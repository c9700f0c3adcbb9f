package domain

import (
	"context"
	"time"
)

// AddressQuery is what a property provider is asked for: one street spelling
// plus the city/state/ZIP line.
type AddressQuery struct {
	Street       string
	CityStateZip string
}

// ValuationResult is a successful valuation lookup.
type ValuationResult struct {
	Valuation Valuation
	OneLine   string
}

// DetailResult carries the characteristics and owner facets.
type DetailResult struct {
	Characteristics *Characteristics
	Owner           *Owner
}

// PropertyProvider is a property-data service queried by exact address.
// Implementations return ErrNoMatch when the provider answered but found
// nothing, and *ProviderError for transport and HTTP failures.
type PropertyProvider interface {
	Name() string

	// Valuation is the primary lookup; its success decides whether a variant matched.
	Valuation(ctx context.Context, q AddressQuery) (ValuationResult, error)

	Detail(ctx context.Context, q AddressQuery) (DetailResult, error)
	Assessment(ctx context.Context, q AddressQuery) (TaxAssessment, error)
	SaleHistory(ctx context.Context, q AddressQuery) ([]Sale, error)
	Distress(ctx context.Context, q AddressQuery) (DistressFlags, error)
}

// PublicRecordsProvider is a jurisdiction-specific parcel source matched by
// house number and street name.
type PublicRecordsProvider interface {
	Name() string

	// Covers reports whether the provider serves the jurisdiction named in line2.
	Covers(line2 string) bool

	Lookup(ctx context.Context, key StreetKey) (PublicRecord, error)
}

// CacheEntry is a memoized resolution. A nil Record means "not found".
type CacheEntry struct {
	Key       string          `json:"key"`
	Record    *PropertyRecord `json:"record"`
	CreatedAt time.Time       `json:"created_at"`
}

// NotFound reports whether the entry memoizes a failed resolution.
func (e CacheEntry) NotFound() bool {
	return e.Record == nil
}

// ResolutionCache stores resolutions by normalized-address hash.
// Get returns ok=false on a miss; an error means the entry could not be read
// and callers treat it as a miss.
type ResolutionCache interface {
	Get(ctx context.Context, key string) (CacheEntry, bool, error)
	Put(ctx context.Context, entry CacheEntry) error
}

// PropertyResolver turns a normalized address and its variants into a record.
// The record is always usable; when nothing matched it is a NotFoundRecord and
// the error is a *ResolutionFailure.
type PropertyResolver interface {
	Resolve(ctx context.Context, addr NormalizedAddress, variants []AddressVariant) (PropertyRecord, error)
}

// MarketLookup supplies area statistics by ZIP code.
type MarketLookup interface {
	MarketStats(zip string) (MarketStats, bool)
}
