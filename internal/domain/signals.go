package domain

import "sort"

// SignalName identifies one scoring input.
type SignalName string

// Property and market signals.
const (
	SignalPreForeclosure    SignalName = "preforeclosure"
	SignalBelowAVMSale      SignalName = "below_avm_sale"
	SignalLongDaysOnMarket  SignalName = "long_days_on_market"
	SignalFrequentPriceDrop SignalName = "frequent_price_drops"
	SignalTaxDelinquent     SignalName = "tax_delinquent"
	SignalBuildingAgeRisk   SignalName = "building_age_risk"
	SignalHighTaxToValue    SignalName = "high_tax_to_value"
	SignalLongOwnership     SignalName = "long_ownership"
	SignalHighCrime         SignalName = "high_crime"
	SignalLowMedianIncome   SignalName = "low_median_income"
	SignalHighVacancy       SignalName = "high_vacancy"
	SignalHighUnemployment  SignalName = "high_unemployment"
	SignalHazardArea        SignalName = "hazard_area"
	SignalRentBelowMortgage SignalName = "rent_below_mortgage"
	SignalMissingUnitNumber SignalName = "missing_unit_number"
	SignalAbsenteeOwner     SignalName = "absentee_owner"
)

// Case-fact signals, supplied by the caller rather than a provider.
const (
	SignalActiveDivorce        SignalName = "active_divorce"
	SignalForcedSale           SignalName = "forced_sale_timeline"
	SignalDualMortgage         SignalName = "dual_mortgage"
	SignalLegalFeeBurden       SignalName = "legal_fee_burden"
	SignalChildSupport         SignalName = "child_support"
	SignalSpousalSupport       SignalName = "spousal_support"
	SignalContestedDivorce     SignalName = "contested_divorce"
	SignalExtendedCase         SignalName = "extended_case_duration"
	SignalHighValueProperty    SignalName = "high_value_property"
	SignalEquitySplit          SignalName = "equity_split"
	SignalBuyerMarket          SignalName = "buyer_market"
	SignalSlowSeason           SignalName = "slow_season"
	SignalUrgentSaleDeadline   SignalName = "urgent_sale_deadline"
	SignalExtendedWithChildren SignalName = "extended_with_children"
)

// Numeric signals.
const (
	SignalBuildingAge    SignalName = "building_age"
	SignalTaxToValue     SignalName = "tax_to_value"
	SignalOwnershipYears SignalName = "ownership_years"
	SignalPropertyValue  SignalName = "property_value"
)

// Vocabulary is every signal ExtractSignals produces.
var Vocabulary = []SignalName{
	SignalPreForeclosure, SignalBelowAVMSale, SignalLongDaysOnMarket,
	SignalFrequentPriceDrop, SignalTaxDelinquent, SignalBuildingAgeRisk,
	SignalHighTaxToValue, SignalLongOwnership, SignalHighCrime,
	SignalLowMedianIncome, SignalHighVacancy, SignalHighUnemployment,
	SignalHazardArea, SignalRentBelowMortgage, SignalMissingUnitNumber,
	SignalAbsenteeOwner,

	SignalActiveDivorce, SignalForcedSale, SignalDualMortgage,
	SignalLegalFeeBurden, SignalChildSupport, SignalSpousalSupport,
	SignalContestedDivorce, SignalExtendedCase, SignalHighValueProperty,
	SignalEquitySplit, SignalBuyerMarket, SignalSlowSeason,
	SignalUrgentSaleDeadline, SignalExtendedWithChildren,

	SignalBuildingAge, SignalTaxToValue, SignalOwnershipYears, SignalPropertyValue,
}

// SignalSet maps signal names to values. Boolean signals are 1 or 0.
// Reads of absent names return 0, so scoring never fails on a missing key.
type SignalSet map[SignalName]float64

// NewSignalSet returns a set with every vocabulary signal present and zero.
func NewSignalSet() SignalSet {
	s := make(SignalSet, len(Vocabulary))
	for _, name := range Vocabulary {
		s[name] = 0
	}
	return s
}

// Get returns the value of name, or 0.
func (s SignalSet) Get(name SignalName) float64 {
	return s[name]
}

// Truthy reports whether name is set to a non-zero value.
func (s SignalSet) Truthy(name SignalName) bool {
	return s[name] != 0
}

// SetBool stores a boolean signal.
func (s SignalSet) SetBool(name SignalName, v bool) {
	if v {
		s[name] = 1
		return
	}
	s[name] = 0
}

// Triggered lists the truthy signals in name order.
func (s SignalSet) Triggered() []SignalName {
	var out []SignalName
	for name, v := range s {
		if v != 0 {
			out = append(out, name)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// CaseFacts are caller-supplied facts a property provider cannot know.
type CaseFacts struct {
	DaysOnMarket     int     `json:"days_on_market,omitempty"`
	PriceReductions  int     `json:"price_reductions,omitempty"`
	MonthlyMortgage  float64 `json:"monthly_mortgage,omitempty"`
	ActiveDivorce    bool    `json:"active_divorce,omitempty"`
	Contested        bool    `json:"contested,omitempty"`
	CaseMonths       int     `json:"case_months,omitempty"`
	ForcedSale       bool    `json:"forced_sale,omitempty"`
	SaleDeadlineDays int     `json:"sale_deadline_days,omitempty"`
	ChildrenInvolved bool    `json:"children_involved,omitempty"`
	DualMortgage     bool    `json:"dual_mortgage,omitempty"`
	LegalFeeBurden   bool    `json:"legal_fee_burden,omitempty"`
	ChildSupport     bool    `json:"child_support,omitempty"`
	SpousalSupport   bool    `json:"spousal_support,omitempty"`
	EquitySplit      bool    `json:"equity_split,omitempty"`
}

// MarketStats are area-level statistics for a ZIP code.
type MarketStats struct {
	MedianDaysOnMarket float64 `json:"median_days_on_market" yaml:"median_days_on_market"`
	VacancyRate        float64 `json:"vacancy_rate" yaml:"vacancy_rate"`
	UnemploymentRate   float64 `json:"unemployment_rate" yaml:"unemployment_rate"`
	CrimeIndex         float64 `json:"crime_index" yaml:"crime_index"`
	MedianIncome       float64 `json:"median_income" yaml:"median_income"`
	MedianRent         float64 `json:"median_rent" yaml:"median_rent"`
	HazardArea         bool    `json:"hazard_area" yaml:"hazard_area"`
	BuyerMarket        bool    `json:"buyer_market" yaml:"buyer_market"`
	SlowSeason         bool    `json:"slow_season" yaml:"slow_season"`
}
