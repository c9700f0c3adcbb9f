package domain

import (
	"strings"
	"time"
)

// Signal thresholds.
const (
	buildingAgeThreshold    = 30    // years
	taxToValueThreshold     = 0.03  // annual tax / value
	ownershipYearsThreshold = 15    // years since last sale
	daysOnMarketThreshold   = 90    // days
	priceDropThreshold      = 2     // reductions
	belowAVMSaleRatio       = 0.9   // last sale price / AVM
	crimeIndexThreshold     = 70    // 0-100 index
	medianIncomeThreshold   = 50000 // USD
	vacancyRateThreshold    = 10    // percent
	unemploymentThreshold   = 8     // percent
	highValueThreshold      = 500000
	extendedCaseMonths      = 12
	extendedWithChildMonths = 18
	urgentSaleDeadlineDays  = 120
	hoursPerYear            = 24 * 365.25
)

var multiUnitTypes = []string{"CONDO", "APARTMENT", "MULTI", "DUPLEX", "TRIPLEX", "QUADRUPLEX", "CO-OP", "COOPERATIVE"}

// ExtractSignals derives the full signal vocabulary from a record, the
// caller's case facts, and the market statistics for the record's ZIP.
// It never fails: absent inputs leave their signals at zero.
func ExtractSignals(rec PropertyRecord, facts CaseFacts, market MarketStats) SignalSet {
	s := NewSignalSet()
	now := clock.Now()

	extractProperty(s, rec, now)
	extractMarket(s, market, facts)
	extractCase(s, facts)

	return s
}

func extractProperty(s SignalSet, rec PropertyRecord, now time.Time) {
	if d := rec.Distress; d != nil {
		s.SetBool(SignalPreForeclosure, d.PreForeclosure)
		s.SetBool(SignalTaxDelinquent, d.TaxDelinquent)
	}

	value := propertyValue(rec)
	s[SignalPropertyValue] = value
	s.SetBool(SignalHighValueProperty, value > highValueThreshold)

	if c := rec.Characteristics; c != nil && c.YearBuilt > 0 && c.YearBuilt <= now.Year() {
		age := now.Year() - c.YearBuilt
		s[SignalBuildingAge] = float64(age)
		s.SetBool(SignalBuildingAgeRisk, age > buildingAgeThreshold)
	}

	if t := rec.Tax; t != nil && t.AnnualTax > 0 && value > 0 {
		ratio := t.AnnualTax / value
		s[SignalTaxToValue] = ratio
		s.SetBool(SignalHighTaxToValue, ratio > taxToValueThreshold)
	}

	if sale, ok := rec.LatestSale(); ok {
		if rec.Valuation != nil && rec.Valuation.Value > 0 {
			s.SetBool(SignalBelowAVMSale, sale.Price < belowAVMSaleRatio*rec.Valuation.Value)
		}
		if !sale.Date.IsZero() && sale.Date.Before(now) {
			years := now.Sub(sale.Date).Hours() / hoursPerYear
			s[SignalOwnershipYears] = years
			s.SetBool(SignalLongOwnership, years > ownershipYearsThreshold)
		}
	}

	if c := rec.Characteristics; c != nil && isMultiUnit(c.PropertyType) {
		s.SetBool(SignalMissingUnitNumber, !HasUnit(rec.Query.Line1))
	}

	s.SetBool(SignalAbsenteeOwner, isAbsentee(rec))
}

func extractMarket(s SignalSet, m MarketStats, facts CaseFacts) {
	dom := float64(facts.DaysOnMarket)
	if dom == 0 {
		dom = m.MedianDaysOnMarket
	}
	s.SetBool(SignalLongDaysOnMarket, dom > daysOnMarketThreshold)
	s.SetBool(SignalHighCrime, m.CrimeIndex > crimeIndexThreshold)
	s.SetBool(SignalLowMedianIncome, m.MedianIncome > 0 && m.MedianIncome < medianIncomeThreshold)
	s.SetBool(SignalHighVacancy, m.VacancyRate > vacancyRateThreshold)
	s.SetBool(SignalHighUnemployment, m.UnemploymentRate > unemploymentThreshold)
	s.SetBool(SignalHazardArea, m.HazardArea)
	s.SetBool(SignalRentBelowMortgage, m.MedianRent > 0 && facts.MonthlyMortgage > m.MedianRent)
	s.SetBool(SignalBuyerMarket, m.BuyerMarket)
	s.SetBool(SignalSlowSeason, m.SlowSeason)
}

func extractCase(s SignalSet, f CaseFacts) {
	s.SetBool(SignalFrequentPriceDrop, f.PriceReductions >= priceDropThreshold)
	s.SetBool(SignalActiveDivorce, f.ActiveDivorce)
	s.SetBool(SignalContestedDivorce, f.Contested)
	s.SetBool(SignalForcedSale, f.ForcedSale)
	s.SetBool(SignalDualMortgage, f.DualMortgage)
	s.SetBool(SignalLegalFeeBurden, f.LegalFeeBurden)
	s.SetBool(SignalChildSupport, f.ChildSupport)
	s.SetBool(SignalSpousalSupport, f.SpousalSupport)
	s.SetBool(SignalEquitySplit, f.EquitySplit)
	s.SetBool(SignalExtendedCase, f.CaseMonths > extendedCaseMonths)
	s.SetBool(SignalExtendedWithChildren, f.ChildrenInvolved && f.CaseMonths > extendedWithChildMonths)
	s.SetBool(SignalUrgentSaleDeadline, f.SaleDeadlineDays > 0 && f.SaleDeadlineDays < urgentSaleDeadlineDays)
}

func propertyValue(rec PropertyRecord) float64 {
	if rec.Valuation != nil && rec.Valuation.Value > 0 {
		return rec.Valuation.Value
	}
	if rec.Tax != nil && rec.Tax.MarketValue > 0 {
		return rec.Tax.MarketValue
	}
	return 0
}

func isMultiUnit(propertyType string) bool {
	t := strings.ToUpper(propertyType)
	for _, m := range multiUnitTypes {
		if strings.Contains(t, m) {
			return true
		}
	}
	return false
}

// isAbsentee compares the owner's mailing street line with the situs street
// line, both normalized and without unit designators.
func isAbsentee(rec PropertyRecord) bool {
	mailing := rec.MailingAddress()
	if mailing == "" || rec.Query.Line1 == "" {
		return false
	}
	mail := StripUnit(Normalize(ParseRawAddress(mailing)).Line1)
	situs := StripUnit(rec.Query.Line1)
	if rec.MatchedVariant != nil {
		if mail == StripUnit(Normalize(RawAddress{Line1: rec.MatchedVariant.Street}).Line1) {
			return false
		}
	}
	return mail != situs
}
