package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidBands is returned for band tables that do not partition 0..100.
var ErrInvalidBands = errors.New("invalid band table")

// RiskLevel is a discretized risk category.
type RiskLevel string

const (
	RiskLow        RiskLevel = "LOW"
	RiskMedium     RiskLevel = "MEDIUM"
	RiskMediumHigh RiskLevel = "MEDIUM-HIGH"
	RiskHigh       RiskLevel = "HIGH"
	RiskCritical   RiskLevel = "CRITICAL"
)

// Band covers scores from Min (inclusive) up to the next band's Min.
type Band struct {
	Level    RiskLevel `json:"risk_level" yaml:"level"`
	Min      int       `json:"min" yaml:"min"`
	Discount string    `json:"discount_potential" yaml:"discount"`
}

// BandTable is an ordered partition of 0..100.
type BandTable struct {
	bands []Band
}

// NewBandTable validates that bands start at 0, strictly increase, and
// begin at or below 100. The last band extends to 100.
func NewBandTable(bands ...Band) (BandTable, error) {
	if len(bands) == 0 {
		return BandTable{}, fmt.Errorf("%w: no bands", ErrInvalidBands)
	}
	if bands[0].Min != 0 {
		return BandTable{}, fmt.Errorf("%w: first band starts at %d, want 0", ErrInvalidBands, bands[0].Min)
	}
	for i := 1; i < len(bands); i++ {
		if bands[i].Min <= bands[i-1].Min {
			return BandTable{}, fmt.Errorf("%w: %s starts at %d, not above %s", ErrInvalidBands, bands[i].Level, bands[i].Min, bands[i-1].Level)
		}
	}
	if last := bands[len(bands)-1]; last.Min > 100 {
		return BandTable{}, fmt.Errorf("%w: %s starts above 100", ErrInvalidBands, last.Level)
	}
	cp := make([]Band, len(bands))
	copy(cp, bands)
	return BandTable{bands: cp}, nil
}

// DefaultBands returns the five-level table.
func DefaultBands() BandTable {
	t, err := NewBandTable(
		Band{Level: RiskLow, Min: 0, Discount: "0-10%"},
		Band{Level: RiskMedium, Min: 40, Discount: "5-15%"},
		Band{Level: RiskMediumHigh, Min: 55, Discount: "10-20%"},
		Band{Level: RiskHigh, Min: 70, Discount: "15-25%"},
		Band{Level: RiskCritical, Min: 85, Discount: "25-35%"},
	)
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup returns the band containing score, clamping it to 0..100 first. The
// zero BandTable looks up in DefaultBands.
func (t BandTable) Lookup(score int) Band {
	if len(t.bands) == 0 {
		t = DefaultBands()
	}
	score = clamp(score, 0, 100)
	found := t.bands[0]
	for _, b := range t.bands[1:] {
		if score < b.Min {
			break
		}
		found = b
	}
	return found
}

// Bands returns the table entries in ascending order.
func (t BandTable) Bands() []Band {
	out := make([]Band, len(t.bands))
	copy(out, t.bands)
	return out
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
