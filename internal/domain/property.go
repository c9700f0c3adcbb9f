package domain

import (
	"errors"
	"fmt"
	"time"
)

// Record sources.
const (
	SourceNone          = "none"
	SourcePublicRecords = "public-records"
)

// PropertyRecord is the resolved entity for one address. It is built once per
// resolution and not modified afterwards; every facet is optional.
type PropertyRecord struct {
	Query          NormalizedAddress `json:"query"`
	Found          bool              `json:"found"`
	Source         string            `json:"source"`
	MatchedVariant *AddressVariant   `json:"matched_variant,omitempty"`
	OneLine        string            `json:"one_line,omitempty"`

	Valuation       *Valuation       `json:"valuation,omitempty"`
	Characteristics *Characteristics `json:"characteristics,omitempty"`
	Owner           *Owner           `json:"owner,omitempty"`
	Tax             *TaxAssessment   `json:"tax,omitempty"`
	Sales           []Sale           `json:"sales,omitempty"` // newest first
	Distress        *DistressFlags   `json:"distress,omitempty"`
	PublicRecord    *PublicRecord    `json:"public_record,omitempty"`

	ResolvedAt time.Time `json:"resolved_at"`
}

// NotFoundRecord is the record returned when no provider matched the address.
func NotFoundRecord(q NormalizedAddress, at time.Time) PropertyRecord {
	return PropertyRecord{Query: q, Source: SourceNone, ResolvedAt: at}
}

// Valuation is an automated valuation model estimate.
type Valuation struct {
	Value           float64 `json:"value"`
	High            float64 `json:"high,omitempty"`
	Low             float64 `json:"low,omitempty"`
	ConfidenceScore float64 `json:"confidence_score,omitempty"`
}

// Characteristics describes the building.
type Characteristics struct {
	YearBuilt    int     `json:"year_built,omitempty"`
	Beds         int     `json:"beds,omitempty"`
	Baths        float64 `json:"baths,omitempty"`
	PropertyType string  `json:"property_type,omitempty"`
}

// Owner is the owner of record.
type Owner struct {
	Name           string `json:"name,omitempty"`
	MailingAddress string `json:"mailing_address,omitempty"`
}

// TaxAssessment is the most recent county assessment.
type TaxAssessment struct {
	AssessedValue float64 `json:"assessed_value,omitempty"`
	MarketValue   float64 `json:"market_value,omitempty"`
	AnnualTax     float64 `json:"annual_tax,omitempty"`
	TaxYear       int     `json:"tax_year,omitempty"`
}

// Sale is one recorded transfer.
type Sale struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// DistressFlags are provider-reported distress indicators.
type DistressFlags struct {
	PreForeclosure bool `json:"preforeclosure"`
	TaxDelinquent  bool `json:"tax_delinquent"`
}

// PublicRecord is a parcel returned by a county public-records source.
type PublicRecord struct {
	ParcelID       string `json:"parcel_id,omitempty"`
	OwnerName      string `json:"owner_name,omitempty"`
	MailingAddress string `json:"mailing_address,omitempty"`
	UseCode        string `json:"use_code,omitempty"`
	SitusAddress   string `json:"situs_address,omitempty"`
}

// LatestSale returns the most recent sale with a price, if any.
func (r PropertyRecord) LatestSale() (Sale, bool) {
	for _, s := range r.Sales {
		if s.Price > 0 {
			return s, true
		}
	}
	return Sale{}, false
}

// MailingAddress prefers the provider owner record, then public records.
func (r PropertyRecord) MailingAddress() string {
	if r.Owner != nil && r.Owner.MailingAddress != "" {
		return r.Owner.MailingAddress
	}
	if r.PublicRecord != nil {
		return r.PublicRecord.MailingAddress
	}
	return ""
}

// ErrNoMatch is returned by providers when a query produced no result.
var ErrNoMatch = errors.New("no matching property")

// ProviderError describes a failed call to an external provider.
// StatusCode is 0 when no HTTP response was received.
type ProviderError struct {
	Provider   string
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s %s: %v", e.Provider, e.Endpoint, e.Err)
	}
	return fmt.Sprintf("%s %s: status %d: %v", e.Provider, e.Endpoint, e.StatusCode, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// RateLimited reports an HTTP 429 response.
func (e *ProviderError) RateLimited() bool {
	return e.StatusCode == 429
}

// Transient reports failures worth one more try: no response, request
// timeout, or a server error.
func (e *ProviderError) Transient() bool {
	return e.StatusCode == 0 || e.StatusCode == 408 || e.StatusCode >= 500
}

// ResolutionFailure is the typed result of a resolution that produced no
// property. It is the only error a PropertyResolver returns.
type ResolutionFailure struct {
	Address  NormalizedAddress
	Attempts int
	Cached   bool
	Err      error
}

func (f *ResolutionFailure) Error() string {
	if f.Cached {
		return fmt.Sprintf("resolve %q: cached not-found", f.Address.String())
	}
	return fmt.Sprintf("resolve %q: no match after %d attempts: %v", f.Address.String(), f.Attempts, f.Err)
}

func (f *ResolutionFailure) Unwrap() error { return f.Err }
