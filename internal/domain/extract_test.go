package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freezeClock(t *testing.T) {
	t.Helper()
	SetClock(clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)))
	t.Cleanup(func() { SetClock(nil) })
}

func distressedRecord() PropertyRecord {
	return PropertyRecord{
		Query:           NormalizedAddress{testPGALine1, testPGALine2},
		Found:           true,
		Valuation:       &Valuation{Value: 300000},
		Characteristics: &Characteristics{YearBuilt: 1980, PropertyType: "SFR"},
		Owner:           &Owner{Name: "DOE JANE", MailingAddress: "PO BOX 100, JUPITER, FL 33458"},
		Tax:             &TaxAssessment{AnnualTax: 12000},
		Sales:           []Sale{{Date: time.Date(2005, 1, 15, 0, 0, 0, 0, time.UTC), Price: 150000}},
		Distress:        &DistressFlags{PreForeclosure: true},
	}
}

func TestExtractSignals_DistressedProperty(t *testing.T) {
	freezeClock(t)

	market := MarketStats{CrimeIndex: 75, MedianIncome: 45000, VacancyRate: 12, UnemploymentRate: 9, HazardArea: true, MedianRent: 1500}
	facts := CaseFacts{MonthlyMortgage: 2000, DaysOnMarket: 120, PriceReductions: 3}

	s := ExtractSignals(distressedRecord(), facts, market)

	for _, name := range []SignalName{
		SignalPreForeclosure, SignalBelowAVMSale, SignalLongDaysOnMarket, SignalFrequentPriceDrop,
		SignalBuildingAgeRisk, SignalHighTaxToValue, SignalLongOwnership, SignalHighCrime,
		SignalLowMedianIncome, SignalHighVacancy, SignalHighUnemployment, SignalHazardArea,
		SignalRentBelowMortgage, SignalAbsenteeOwner,
	} {
		assert.True(t, s.Truthy(name), "%s should be triggered", name)
	}
	assert.False(t, s.Truthy(SignalTaxDelinquent))
	assert.False(t, s.Truthy(SignalMissingUnitNumber))

	assert.InDelta(t, 45.0, s.Get(SignalBuildingAge), 1e-9)
	assert.InDelta(t, 0.04, s.Get(SignalTaxToValue), 1e-9)
	assert.InDelta(t, 20.4, s.Get(SignalOwnershipYears), 0.1)
	assert.InDelta(t, 300000.0, s.Get(SignalPropertyValue), 1e-9)

	result := NewScorer(DefaultWeights()).Score(s)
	assert.Equal(t, 89, result.Score) // 41 of 46
	assert.Equal(t, RiskCritical, result.RiskLevel)
}

func TestExtractSignals_EmptyRecordIsTotal(t *testing.T) {
	freezeClock(t)

	s := ExtractSignals(PropertyRecord{}, CaseFacts{}, MarketStats{})

	for _, name := range Vocabulary {
		v, ok := s[name]
		require.True(t, ok, "%s missing from signal set", name)
		assert.Zero(t, v, "%s should default to zero", name)
	}
}

func TestExtractSignals_RatioNeedsBothSides(t *testing.T) {
	freezeClock(t)

	rec := PropertyRecord{Tax: &TaxAssessment{AnnualTax: 5000}}
	s := ExtractSignals(rec, CaseFacts{}, MarketStats{})
	assert.Zero(t, s.Get(SignalTaxToValue))
	assert.False(t, s.Truthy(SignalHighTaxToValue))

	rec.Tax.MarketValue = 100000
	s = ExtractSignals(rec, CaseFacts{}, MarketStats{})
	assert.InDelta(t, 0.05, s.Get(SignalTaxToValue), 1e-9)
	assert.True(t, s.Truthy(SignalHighTaxToValue))
}

func TestExtractSignals_FutureYearBuiltIgnored(t *testing.T) {
	freezeClock(t)

	rec := PropertyRecord{Characteristics: &Characteristics{YearBuilt: 2090}}
	s := ExtractSignals(rec, CaseFacts{}, MarketStats{})
	assert.Zero(t, s.Get(SignalBuildingAge))
}

func TestExtractSignals_MissingUnitNumber(t *testing.T) {
	freezeClock(t)

	rec := PropertyRecord{
		Query:           NormalizedAddress{Line1: "100 OCEAN DRIVE"},
		Characteristics: &Characteristics{PropertyType: "Condominium"},
	}
	assert.True(t, ExtractSignals(rec, CaseFacts{}, MarketStats{}).Truthy(SignalMissingUnitNumber))

	rec.Query.Line1 = "100 OCEAN DRIVE UNIT 5"
	assert.False(t, ExtractSignals(rec, CaseFacts{}, MarketStats{}).Truthy(SignalMissingUnitNumber))
}

func TestExtractSignals_AbsenteeOwner(t *testing.T) {
	freezeClock(t)

	rec := PropertyRecord{
		Query: NormalizedAddress{testPGALine1, testPGALine2},
		Owner: &Owner{MailingAddress: "4520 PGA Blvd, Palm Beach Gardens, FL 33418"},
	}
	assert.False(t, ExtractSignals(rec, CaseFacts{}, MarketStats{}).Truthy(SignalAbsenteeOwner))

	rec.Owner = nil
	rec.PublicRecord = &PublicRecord{MailingAddress: "9 ELM ST, BOSTON, MA 02108"}
	assert.True(t, ExtractSignals(rec, CaseFacts{}, MarketStats{}).Truthy(SignalAbsenteeOwner))
}

func TestExtractSignals_MarketDaysOnMarketFallback(t *testing.T) {
	freezeClock(t)

	s := ExtractSignals(PropertyRecord{}, CaseFacts{}, MarketStats{MedianDaysOnMarket: 95})
	assert.True(t, s.Truthy(SignalLongDaysOnMarket))

	s = ExtractSignals(PropertyRecord{}, CaseFacts{DaysOnMarket: 30}, MarketStats{MedianDaysOnMarket: 95})
	assert.False(t, s.Truthy(SignalLongDaysOnMarket))
}

func TestExtractSignals_DivorceCase(t *testing.T) {
	freezeClock(t)

	facts := CaseFacts{
		ActiveDivorce:    true,
		Contested:        true,
		CaseMonths:       20,
		ChildrenInvolved: true,
		SaleDeadlineDays: 90,
		ForcedSale:       true,
	}
	rec := PropertyRecord{Valuation: &Valuation{Value: 650000}}

	s := ExtractSignals(rec, facts, MarketStats{BuyerMarket: true})

	for _, name := range []SignalName{
		SignalActiveDivorce, SignalContestedDivorce, SignalExtendedCase, SignalExtendedWithChildren,
		SignalUrgentSaleDeadline, SignalForcedSale, SignalHighValueProperty, SignalBuyerMarket,
	} {
		assert.True(t, s.Truthy(name), "%s should be triggered", name)
	}

	// 25+6+4+8+10+20+5+6 of 124
	result := NewScorer(DivorceWeights()).Score(s)
	assert.Equal(t, 68, result.Score)
	assert.Equal(t, RiskMediumHigh, result.RiskLevel)
}

func TestSetClock(t *testing.T) {
	fixedTime := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(fixedTime))
	assert.Equal(t, fixedTime, Now())

	SetClock(nil)
	assert.WithinDuration(t, time.Now(), Now(), time.Second)
}
