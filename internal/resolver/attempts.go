package resolver

import (
	"iter"

	"github.com/couchcryptid/property-distress-service/internal/domain"
)

// Attempt is one (provider, variant) pair to try.
type Attempt struct {
	Provider domain.PropertyProvider
	Variant  domain.AddressVariant
}

// Attempts yields every variant for the first provider, then every variant
// for the next, in order. Consumers stop early by breaking out of the range.
func Attempts(providers []domain.PropertyProvider, variants []domain.AddressVariant) iter.Seq[Attempt] {
	return func(yield func(Attempt) bool) {
		for _, p := range providers {
			for _, v := range variants {
				if !yield(Attempt{Provider: p, Variant: v}) {
					return
				}
			}
		}
	}
}
