package domain

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signalsWith(names ...SignalName) SignalSet {
	s := NewSignalSet()
	for _, n := range names {
		s.SetBool(n, true)
	}
	return s
}

func TestDefaultWeights(t *testing.T) {
	w := DefaultWeights()
	assert.InDelta(t, 46.0, w.Total(), 1e-9)
	assert.Len(t, w.Weights(), 16)
	assert.Equal(t, "distress", w.Name())

	d := DivorceWeights()
	assert.InDelta(t, 124.0, d.Total(), 1e-9)
}

func TestScorer_AbsenteeAndOldBuilding(t *testing.T) {
	s := NewScorer(DefaultWeights())

	result := s.Score(signalsWith(SignalAbsenteeOwner, SignalBuildingAgeRisk))

	assert.Equal(t, 9, result.Score) // round(100*4/46)
	assert.Equal(t, RiskLow, result.RiskLevel)
	assert.Equal(t, "0-10%", result.Discount)
	assert.Equal(t, []string{"Building older than 30 years", "Absentee owner"}, result.Factors)
	assert.Equal(t, 76, result.Confidence)
}

func TestScorer_NothingTriggered(t *testing.T) {
	for _, table := range []WeightTable{DefaultWeights(), DivorceWeights()} {
		result := NewScorer(table).Score(NewSignalSet())

		assert.Equal(t, 0, result.Score)
		assert.Equal(t, RiskLow, result.RiskLevel)
		assert.Empty(t, result.Factors)
		assert.NotNil(t, result.Factors)
	}
}

func TestScorer_EverythingTriggered(t *testing.T) {
	for _, table := range []WeightTable{DefaultWeights(), DivorceWeights()} {
		result := NewScorer(table).Score(signalsWith(table.Signals()...))

		assert.Equal(t, 100, result.Score)
		assert.Equal(t, RiskCritical, result.RiskLevel)
		assert.Len(t, result.Factors, len(table.Signals()))
		assert.Equal(t, MaxConfidence, result.Confidence)
	}
}

func TestScorer_MissingKeysReadAsFalse(t *testing.T) {
	result := NewScorer(DefaultWeights()).Score(SignalSet{})
	assert.Equal(t, 0, result.Score)

	result = NewScorer(DefaultWeights()).Score(nil)
	assert.Equal(t, 0, result.Score)
}

func TestScorer_NumericSignalsAreTruthyWhenNonZero(t *testing.T) {
	table := MustWeightTable("numeric", []Weight{
		{Signal: SignalBuildingAge, Weight: 1.5},
		{Signal: SignalTaxToValue, Weight: 0.5},
	})
	s := NewSignalSet()
	s[SignalBuildingAge] = 42

	result := NewScorer(table).Score(s)
	assert.Equal(t, 75, result.Score)
	assert.Equal(t, []string{"building_age"}, result.Factors)
}

func TestScorer_BoundedAndMonotonic(t *testing.T) {
	table := DefaultWeights()
	signals := table.Signals()
	scorer := NewScorer(table)
	rng := rand.New(rand.NewPCG(7, 11))

	for range 500 {
		set := NewSignalSet()
		for _, name := range signals {
			set.SetBool(name, rng.IntN(2) == 1)
		}
		base := scorer.Score(set)
		require.GreaterOrEqual(t, base.Score, 0)
		require.LessOrEqual(t, base.Score, 100)
		require.LessOrEqual(t, base.Confidence, MaxConfidence)

		for _, name := range signals {
			if set.Truthy(name) {
				continue
			}
			flipped := make(SignalSet, len(set))
			for k, v := range set {
				flipped[k] = v
			}
			flipped.SetBool(name, true)

			got := scorer.Score(flipped)
			require.GreaterOrEqual(t, got.Score, base.Score, "flipping %s lowered the score", name)
			require.GreaterOrEqual(t, got.Confidence, base.Confidence)
		}
	}
}

func TestScorer_Deterministic(t *testing.T) {
	s := NewScorer(DefaultWeights())
	set := signalsWith(SignalPreForeclosure, SignalHighCrime, SignalHazardArea)
	assert.Equal(t, s.Score(set), s.Score(set))
}

func TestScorer_ZeroValueDefaults(t *testing.T) {
	s := Scorer{Weights: DefaultWeights()}

	result := s.Score(signalsWith(SignalAbsenteeOwner, SignalBuildingAgeRisk))

	assert.Equal(t, NewScorer(DefaultWeights()).Score(signalsWith(SignalAbsenteeOwner, SignalBuildingAgeRisk)), result)
	assert.Equal(t, RiskLow, BandTable{}.Lookup(0).Level)
	assert.Equal(t, RiskCritical, BandTable{}.Lookup(90).Level)
	assert.Equal(t, 0, Scorer{}.Score(NewSignalSet()).Score)
}

func TestNewWeightTable_Validation(t *testing.T) {
	tests := []struct {
		name    string
		weights []Weight
	}{
		{"empty", nil},
		{"zero weight", []Weight{{Signal: SignalHighCrime, Weight: 0}}},
		{"negative weight", []Weight{{Signal: SignalHighCrime, Weight: -1}}},
		{"duplicate", []Weight{{Signal: SignalHighCrime, Weight: 1}, {Signal: SignalHighCrime, Weight: 2}}},
		{"blank signal", []Weight{{Weight: 1}}},
		{"NaN weight", []Weight{{Signal: SignalHighCrime, Weight: math.NaN()}}},
		{"infinite weight", []Weight{{Signal: SignalHighCrime, Weight: math.Inf(1)}}},
		{"negative infinite weight", []Weight{{Signal: SignalHighCrime, Weight: math.Inf(-1)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewWeightTable("bad", tt.weights)
			require.ErrorIs(t, err, ErrInvalidWeights)
		})
	}
}

func TestNewWeightTable_DefaultsLabelAndCopies(t *testing.T) {
	in := []Weight{{Signal: SignalHazardArea, Weight: 2}}
	table, err := NewWeightTable("custom", in)
	require.NoError(t, err)

	in[0].Weight = 99
	assert.InDelta(t, 2.0, table.Total(), 1e-9)
	assert.Equal(t, "hazard_area", table.Weights()[0].Label)
}

func TestWeightPreset(t *testing.T) {
	w, ok := WeightPreset("divorce")
	require.True(t, ok)
	assert.Equal(t, "divorce", w.Name())

	w, ok = WeightPreset("")
	require.True(t, ok)
	assert.Equal(t, "distress", w.Name())

	_, ok = WeightPreset("bogus")
	assert.False(t, ok)
}

func TestBandTable_Lookup(t *testing.T) {
	bands := DefaultBands()
	tests := []struct {
		score    int
		level    RiskLevel
		discount string
	}{
		{0, RiskLow, "0-10%"},
		{39, RiskLow, "0-10%"},
		{40, RiskMedium, "5-15%"},
		{54, RiskMedium, "5-15%"},
		{55, RiskMediumHigh, "10-20%"},
		{69, RiskMediumHigh, "10-20%"},
		{70, RiskHigh, "15-25%"},
		{84, RiskHigh, "15-25%"},
		{85, RiskCritical, "25-35%"},
		{100, RiskCritical, "25-35%"},
		{-5, RiskLow, "0-10%"},
		{150, RiskCritical, "25-35%"},
	}

	for _, tt := range tests {
		b := bands.Lookup(tt.score)
		assert.Equal(t, tt.level, b.Level, "score %d", tt.score)
		assert.Equal(t, tt.discount, b.Discount, "score %d", tt.score)
	}
}

func TestBandTable_Exhaustive(t *testing.T) {
	bands := DefaultBands()
	all := bands.Bands()
	prev := 0
	for s := 0; s <= 100; s++ {
		b := bands.Lookup(s)
		idx := -1
		for i, candidate := range all {
			if candidate.Level == b.Level {
				idx = i
			}
		}
		require.GreaterOrEqual(t, idx, prev, "bands must not go backwards at %d", s)
		require.GreaterOrEqual(t, s, b.Min)
		if idx+1 < len(all) {
			require.Less(t, s, all[idx+1].Min)
		}
		prev = idx
	}
}

func TestNewBandTable_Validation(t *testing.T) {
	_, err := NewBandTable()
	require.ErrorIs(t, err, ErrInvalidBands)

	_, err = NewBandTable(Band{Level: RiskLow, Min: 10})
	require.ErrorIs(t, err, ErrInvalidBands)

	_, err = NewBandTable(Band{Level: RiskLow, Min: 0}, Band{Level: RiskHigh, Min: 0})
	require.ErrorIs(t, err, ErrInvalidBands)

	_, err = NewBandTable(Band{Level: RiskLow, Min: 0}, Band{Level: RiskHigh, Min: 101})
	require.ErrorIs(t, err, ErrInvalidBands)

	single, err := NewBandTable(Band{Level: RiskLow, Min: 0, Discount: "0%"})
	require.NoError(t, err)
	assert.Equal(t, RiskLow, single.Lookup(100).Level)
}

func TestConfidencePolicies(t *testing.T) {
	linear := LinearConfidence{Base: 70, Step: 3}
	prev := 0
	for n := 0; n <= 40; n++ {
		c := linear.Confidence(n)
		assert.GreaterOrEqual(t, c, prev)
		assert.LessOrEqual(t, c, MaxConfidence)
		prev = c
	}
	assert.Equal(t, 70, linear.Confidence(0))
	assert.Equal(t, 85, linear.Confidence(5))
	assert.Equal(t, 95, linear.Confidence(9))

	assert.Equal(t, 95, FixedConfidence{Value: 95}.Confidence(0))
	assert.Equal(t, 95, FixedConfidence{Value: 120}.Confidence(3))
	assert.Equal(t, 70, LinearConfidence{Base: 70, Step: -5}.Confidence(4))

	p, ok := ConfidencePolicyByName("fixed")
	require.True(t, ok)
	assert.Equal(t, 95, p.Confidence(0))

	_, ok = ConfidencePolicyByName("bogus")
	assert.False(t, ok)
}
