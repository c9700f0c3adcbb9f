package datafile

import (
	"fmt"
	"os"
	"regexp"

	"github.com/couchcryptid/property-distress-service/internal/domain"
	"gopkg.in/yaml.v3"
)

var zip5 = regexp.MustCompile(`^\d{5}$`)

// MarketTable serves area statistics keyed by five-digit ZIP code. A
// "default" entry, when present, answers for unknown ZIPs.
type MarketTable struct {
	byZIP    map[string]domain.MarketStats
	fallback *domain.MarketStats
}

// LoadMarketTable reads a YAML mapping of ZIP to statistics:
//
//	"33418": {crime_index: 42, median_income: 81000}
//	default: {buyer_market: true}
func LoadMarketTable(path string) (*MarketTable, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read market file: %w", err)
	}
	return ParseMarketTable(b)
}

// ParseMarketTable decodes a market document.
func ParseMarketTable(b []byte) (*MarketTable, error) {
	var raw map[string]domain.MarketStats
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("decode market file: %w", err)
	}

	t := &MarketTable{byZIP: make(map[string]domain.MarketStats, len(raw))}
	for key, stats := range raw {
		switch {
		case key == "default":
			s := stats
			t.fallback = &s
		case zip5.MatchString(key):
			t.byZIP[key] = stats
		default:
			return nil, fmt.Errorf("decode market file: key %q is not a five-digit ZIP", key)
		}
	}
	return t, nil
}

// MarketStats implements domain.MarketLookup.
func (t *MarketTable) MarketStats(zip string) (domain.MarketStats, bool) {
	if s, ok := t.byZIP[zip]; ok {
		return s, true
	}
	if t.fallback != nil {
		return *t.fallback, true
	}
	return domain.MarketStats{}, false
}

// Len returns the number of ZIP entries, excluding the default.
func (t *MarketTable) Len() int { return len(t.byZIP) }
