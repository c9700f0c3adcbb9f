package attom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/couchcryptid/property-distress-service/internal/domain"
	"github.com/couchcryptid/property-distress-service/internal/observability"
)

const (
	providerName = "attom"

	// DefaultBaseURL serves both the AVM and the property endpoints.
	DefaultBaseURL = "https://api.gateway.attomdata.com/propertyapi/v1.0.0"

	noResultMsg = "SuccessWithoutResult"
)

// Endpoint paths relative to the base URLs.
const (
	endpointValuation  = "attomavm/detail"
	endpointDetail     = "property/detail"
	endpointAssessment = "assessment/detail"
	endpointSales      = "saleshistory/detail"
	endpointProfile    = "property/basicprofile"
)

// Client implements domain.PropertyProvider using the ATTOM property API.
type Client struct {
	apiKey        string
	httpClient    *http.Client
	baseURL       string
	detailBaseURL string
	logger        *slog.Logger
	metrics       *observability.Metrics
}

// NewClient creates an ATTOM client. detailBaseURL serves the detail,
// assessment, sales, and profile endpoints; it defaults to baseURL.
func NewClient(apiKey, baseURL, detailBaseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if detailBaseURL == "" {
		detailBaseURL = baseURL
	}
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:       baseURL,
		detailBaseURL: detailBaseURL,
		logger:        logger,
		metrics:       metrics,
	}
}

func (c *Client) Name() string { return providerName }

// Valuation queries the AVM endpoint. A response with a non-zero status code
// or without a property is ErrNoMatch.
func (c *Client) Valuation(ctx context.Context, q domain.AddressQuery) (domain.ValuationResult, error) {
	var resp response[avmProperty]
	if err := c.get(ctx, c.baseURL, endpointValuation, q, &resp); err != nil {
		return domain.ValuationResult{}, err
	}
	p := resp.Property[0]
	return domain.ValuationResult{
		Valuation: domain.Valuation{
			Value:           float64(p.AVM.Amount.Value),
			High:            float64(p.AVM.Amount.High),
			Low:             float64(p.AVM.Amount.Low),
			ConfidenceScore: float64(p.AVM.Amount.Score),
		},
		OneLine: p.Address.OneLine,
	}, nil
}

func (c *Client) Detail(ctx context.Context, q domain.AddressQuery) (domain.DetailResult, error) {
	var resp response[detailProperty]
	if err := c.get(ctx, c.detailBaseURL, endpointDetail, q, &resp); err != nil {
		return domain.DetailResult{}, err
	}
	p := resp.Property[0]
	out := domain.DetailResult{
		Characteristics: &domain.Characteristics{
			YearBuilt:    int(p.Summary.YearBuilt),
			PropertyType: p.Summary.PropType,
			Beds:         int(p.Building.Rooms.Beds),
			Baths:        float64(p.Building.Rooms.BathsTotal),
		},
	}
	if p.Owner.Owner1.FullName != "" || p.Owner.MailingAddress.OneLine != "" {
		out.Owner = &domain.Owner{
			Name:           p.Owner.Owner1.FullName,
			MailingAddress: p.Owner.MailingAddress.OneLine,
		}
	}
	return out, nil
}

func (c *Client) Assessment(ctx context.Context, q domain.AddressQuery) (domain.TaxAssessment, error) {
	var resp response[assessmentProperty]
	if err := c.get(ctx, c.detailBaseURL, endpointAssessment, q, &resp); err != nil {
		return domain.TaxAssessment{}, err
	}
	a := resp.Property[0].Assessment
	return domain.TaxAssessment{
		AssessedValue: float64(a.Assessed.TotalValue),
		MarketValue:   float64(a.Market.TotalValue),
		AnnualTax:     float64(a.Tax.Amount),
		TaxYear:       int(a.Tax.Year),
	}, nil
}

// SaleHistory returns recorded sales, newest first. Entries without a
// parseable date are dropped.
func (c *Client) SaleHistory(ctx context.Context, q domain.AddressQuery) ([]domain.Sale, error) {
	var resp response[salesProperty]
	if err := c.get(ctx, c.detailBaseURL, endpointSales, q, &resp); err != nil {
		return nil, err
	}
	var sales []domain.Sale
	for _, s := range resp.Property[0].SaleHistory {
		d, ok := parseDate(s.SaleTransDate)
		if !ok {
			continue
		}
		sales = append(sales, domain.Sale{Date: d, Price: float64(s.Amount.SaleAmount)})
	}
	sort.SliceStable(sales, func(i, j int) bool { return sales[i].Date.After(sales[j].Date) })
	return sales, nil
}

func (c *Client) Distress(ctx context.Context, q domain.AddressQuery) (domain.DistressFlags, error) {
	var resp response[profileProperty]
	if err := c.get(ctx, c.detailBaseURL, endpointProfile, q, &resp); err != nil {
		return domain.DistressFlags{}, err
	}
	p := resp.Property[0]
	return domain.DistressFlags{
		PreForeclosure: bool(p.PreForeclosureActive),
		TaxDelinquent:  bool(p.TaxDelinquent) || p.Assessment.Tax.DelinquentYear > 0,
	}, nil
}

// get performs one GET and decodes an ATTOM envelope into out. It returns
// ErrNoMatch for empty results and *domain.ProviderError for everything else.
func (c *Client) get(ctx context.Context, base, endpoint string, q domain.AddressQuery, out emptiable) error {
	params := url.Values{"address1": {q.Street}}
	if q.CityStateZip != "" {
		params.Set("address2", q.CityStateZip)
	}
	fullURL := fmt.Sprintf("%s/%s?%s", base, endpoint, params.Encode())

	start := time.Now()
	err := c.doRequest(ctx, fullURL, endpoint, out)
	c.metrics.ProviderTime.WithLabelValues(providerName, endpoint).Observe(time.Since(start).Seconds())

	outcome := "success"
	switch {
	case errors.Is(err, domain.ErrNoMatch):
		outcome = "no_match"
	case err != nil:
		outcome = "error"
	}
	c.metrics.ProviderCalls.WithLabelValues(providerName, endpoint, outcome).Inc()
	return err
}

func (c *Client) doRequest(ctx context.Context, fullURL, endpoint string, out emptiable) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.providerErr(endpoint, 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.providerErr(endpoint, resp.StatusCode, fmt.Errorf("read body: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		var st envelope
		if json.Unmarshal(body, &st) == nil && st.Status.Msg == noResultMsg {
			return domain.ErrNoMatch
		}
		c.logger.Debug("attom request failed", "endpoint", endpoint, "status", resp.StatusCode)
		return c.providerErr(endpoint, resp.StatusCode, fmt.Errorf("attom API error: %s", truncate(body, 200)))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return c.providerErr(endpoint, resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}
	if out.empty() {
		return domain.ErrNoMatch
	}
	return nil
}

func (c *Client) providerErr(endpoint string, status int, err error) error {
	return &domain.ProviderError{Provider: providerName, Endpoint: endpoint, StatusCode: status, Err: err}
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range []string{"2006-01-02", "2006/01/02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
