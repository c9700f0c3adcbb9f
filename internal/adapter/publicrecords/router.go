// Package publicrecords provides jurisdiction-specific parcel sources used
// when the primary property provider has no match. Sources are keyed by
// house number and street name rather than the full address string.
package publicrecords

import (
	"context"
	"errors"
	"strings"

	"github.com/couchcryptid/property-distress-service/internal/domain"
)

// Router dispatches to the first source that covers an address's
// jurisdiction.
type Router struct {
	sources []domain.PublicRecordsProvider
}

// NewRouter creates a router over sources in priority order.
func NewRouter(sources ...domain.PublicRecordsProvider) *Router {
	return &Router{sources: sources}
}

func (r *Router) Name() string { return "public-records" }

// Covers reports whether any source serves line2.
func (r *Router) Covers(line2 string) bool {
	for _, s := range r.sources {
		if s.Covers(line2) {
			return true
		}
	}
	return false
}

// Lookup queries the sources covering key.Locality in order until one
// matches. A key without a locality is tried against every source.
func (r *Router) Lookup(ctx context.Context, key domain.StreetKey) (domain.PublicRecord, error) {
	var lastErr error = domain.ErrNoMatch
	for _, s := range r.sources {
		if key.Locality != "" && !s.Covers(key.Locality) {
			continue
		}
		rec, err := s.Lookup(ctx, key)
		if err == nil {
			return rec, nil
		}
		if ctx.Err() != nil {
			return domain.PublicRecord{}, ctx.Err()
		}
		if !errors.Is(err, domain.ErrNoMatch) {
			lastErr = err
		}
	}
	return domain.PublicRecord{}, lastErr
}

func coversAny(jurisdictions []string, line2 string) bool {
	up := strings.ToUpper(line2)
	for _, j := range jurisdictions {
		if j != "" && strings.Contains(up, j) {
			return true
		}
	}
	return false
}

func upperAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func callOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrNoMatch):
		return "no_match"
	default:
		return "error"
	}
}
