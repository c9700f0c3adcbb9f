package domain

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidWeights is returned for malformed weight tables.
var ErrInvalidWeights = errors.New("invalid weight table")

// Weight assigns a positive weight and a display label to one signal.
type Weight struct {
	Signal SignalName `json:"signal" yaml:"signal"`
	Weight float64    `json:"weight" yaml:"weight"`
	Label  string     `json:"label" yaml:"label"`
}

// WeightTable is an ordered list of weights. Order defines the order of the
// factors reported in a ScoreResult.
type WeightTable struct {
	name    string
	weights []Weight
	total   float64
}

// NewWeightTable validates and builds a table. Weights must be finite and
// positive, and each signal may appear once.
func NewWeightTable(name string, weights []Weight) (WeightTable, error) {
	if len(weights) == 0 {
		return WeightTable{}, fmt.Errorf("%w: %s: no weights", ErrInvalidWeights, name)
	}
	seen := make(map[SignalName]bool, len(weights))
	var total float64
	for _, w := range weights {
		if w.Signal == "" {
			return WeightTable{}, fmt.Errorf("%w: %s: empty signal name", ErrInvalidWeights, name)
		}
		if math.IsNaN(w.Weight) || math.IsInf(w.Weight, 0) {
			return WeightTable{}, fmt.Errorf("%w: %s: %s has non-finite weight %v", ErrInvalidWeights, name, w.Signal, w.Weight)
		}
		if w.Weight <= 0 {
			return WeightTable{}, fmt.Errorf("%w: %s: %s has non-positive weight %v", ErrInvalidWeights, name, w.Signal, w.Weight)
		}
		if seen[w.Signal] {
			return WeightTable{}, fmt.Errorf("%w: %s: duplicate signal %s", ErrInvalidWeights, name, w.Signal)
		}
		seen[w.Signal] = true
		total += w.Weight
	}
	cp := make([]Weight, len(weights))
	copy(cp, weights)
	for i := range cp {
		if cp[i].Label == "" {
			cp[i].Label = string(cp[i].Signal)
		}
	}
	return WeightTable{name: name, weights: cp, total: total}, nil
}

// MustWeightTable is NewWeightTable for tables known at compile time.
func MustWeightTable(name string, weights []Weight) WeightTable {
	t, err := NewWeightTable(name, weights)
	if err != nil {
		panic(err)
	}
	return t
}

// Name identifies the table in logs and output.
func (t WeightTable) Name() string { return t.name }

// Total is the sum of all weights, the score denominator.
func (t WeightTable) Total() float64 { return t.total }

// Weights returns a copy of the table entries in declaration order.
func (t WeightTable) Weights() []Weight {
	out := make([]Weight, len(t.weights))
	copy(out, t.weights)
	return out
}

// Signals lists the table's signals in declaration order.
func (t WeightTable) Signals() []SignalName {
	out := make([]SignalName, len(t.weights))
	for i, w := range t.weights {
		out[i] = w.Signal
	}
	return out
}

// DefaultWeights is the canonical property-distress table: sixteen property
// and market signals totalling 46.
func DefaultWeights() WeightTable {
	return MustWeightTable("distress", []Weight{
		{SignalPreForeclosure, 5, "Active pre-foreclosure filing"},
		{SignalBelowAVMSale, 4, "Last sale below automated valuation"},
		{SignalLongDaysOnMarket, 4, "More than 90 days on market"},
		{SignalFrequentPriceDrop, 4, "Frequent price reductions"},
		{SignalTaxDelinquent, 4, "Delinquent property taxes"},
		{SignalBuildingAgeRisk, 3, "Building older than 30 years"},
		{SignalHighTaxToValue, 3, "Tax burden above 3% of value"},
		{SignalLongOwnership, 3, "Owned for more than 15 years"},
		{SignalHighCrime, 3, "High crime area"},
		{SignalLowMedianIncome, 3, "Area median income below $50,000"},
		{SignalHighVacancy, 2, "Area vacancy above 10%"},
		{SignalHighUnemployment, 2, "Area unemployment above 8%"},
		{SignalHazardArea, 2, "Located in a hazard area"},
		{SignalRentBelowMortgage, 2, "Area rent below mortgage payment"},
		{SignalMissingUnitNumber, 1, "Multi-unit property without unit number"},
		{SignalAbsenteeOwner, 1, "Absentee owner"},
	})
}

// DivorceWeights scores divorce-driven sale pressure from case facts.
func DivorceWeights() WeightTable {
	return MustWeightTable("divorce", []Weight{
		{SignalActiveDivorce, 25, "Active divorce proceeding"},
		{SignalForcedSale, 20, "Court-ordered sale timeline"},
		{SignalUrgentSaleDeadline, 10, "Sale deadline within 120 days"},
		{SignalDualMortgage, 8, "Two mortgages on the property"},
		{SignalChildSupport, 8, "Child support obligations"},
		{SignalExtendedWithChildren, 8, "Case over 18 months with children"},
		{SignalLegalFeeBurden, 7, "Legal fee burden"},
		{SignalSpousalSupport, 7, "Spousal support obligations"},
		{SignalContestedDivorce, 6, "Contested divorce"},
		{SignalEquitySplit, 6, "Equity split required"},
		{SignalBuyerMarket, 6, "Buyer's market"},
		{SignalHighValueProperty, 5, "Property value above $500,000"},
		{SignalExtendedCase, 4, "Case open longer than 12 months"},
		{SignalSlowSeason, 4, "Slow selling season"},
	})
}

// WeightPreset returns a built-in table by name.
func WeightPreset(name string) (WeightTable, bool) {
	switch name {
	case "", "distress":
		return DefaultWeights(), true
	case "divorce":
		return DivorceWeights(), true
	default:
		return WeightTable{}, false
	}
}
