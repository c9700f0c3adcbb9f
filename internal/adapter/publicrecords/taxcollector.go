package publicrecords

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/property-distress-service/internal/domain"
	"github.com/couchcryptid/property-distress-service/internal/observability"
	"golang.org/x/net/html"
)

const (
	// DefaultTaxCollectorURL is the Palm Beach County tax collector search page.
	DefaultTaxCollectorURL = "https://pbctax.publicaccessnow.com/PropertyTax.aspx"

	// DefaultJurisdiction is matched against the city/state/ZIP line.
	DefaultJurisdiction = "PALM BEACH"

	taxCollectorName = "tax-collector"
	endpointSearch   = "search"
	maxBodyBytes     = 2 << 20
)

// Labels of the result spans, in "Label: value" form.
const (
	labelPCN     = "PCN:"
	labelSitus   = "Situs Address:"
	labelOwner   = "Owner Name:"
	labelMailing = "Mailing Address:"
	labelUseCode = "Use Code:"
)

// TaxCollector looks parcels up on a county tax-collector search page.
type TaxCollector struct {
	httpClient    *http.Client
	baseURL       string
	jurisdictions []string
	logger        *slog.Logger
	metrics       *observability.Metrics
}

// NewTaxCollector creates a tax-collector provider. jurisdictions are matched
// case-insensitively as substrings of line2.
func NewTaxCollector(baseURL string, jurisdictions []string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *TaxCollector {
	if baseURL == "" {
		baseURL = DefaultTaxCollectorURL
	}
	if len(jurisdictions) == 0 {
		jurisdictions = []string{DefaultJurisdiction}
	}
	return &TaxCollector{
		httpClient:    &http.Client{Timeout: timeout},
		baseURL:       baseURL,
		jurisdictions: upperAll(jurisdictions),
		logger:        logger,
		metrics:       metrics,
	}
}

func (t *TaxCollector) Name() string { return taxCollectorName }

func (t *TaxCollector) Covers(line2 string) bool {
	return coversAny(t.jurisdictions, line2)
}

// Lookup searches by situs street number and name. A page with no PCN is
// ErrNoMatch.
func (t *TaxCollector) Lookup(ctx context.Context, key domain.StreetKey) (domain.PublicRecord, error) {
	params := url.Values{
		"s":        {fmt.Sprintf("Situsstreetnumber:%s Situsstreetname:%s", key.Number, key.Name)},
		"pg":       {"1"},
		"g":        {"4"},
		"moduleId": {"449"},
	}

	start := time.Now()
	rec, err := t.doRequest(ctx, t.baseURL+"?"+params.Encode())
	t.metrics.ProviderTime.WithLabelValues(taxCollectorName, endpointSearch).Observe(time.Since(start).Seconds())
	t.metrics.ProviderCalls.WithLabelValues(taxCollectorName, endpointSearch, callOutcome(err)).Inc()
	return rec, err
}

func (t *TaxCollector) doRequest(ctx context.Context, fullURL string) (domain.PublicRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.PublicRecord{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return domain.PublicRecord{}, t.providerErr(0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.PublicRecord{}, t.providerErr(resp.StatusCode, fmt.Errorf("tax collector error: status %d", resp.StatusCode))
	}

	rec, err := parseTaxPage(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return domain.PublicRecord{}, t.providerErr(resp.StatusCode, err)
	}
	if rec.ParcelID == "" {
		return domain.PublicRecord{}, domain.ErrNoMatch
	}
	t.logger.Debug("tax collector match", "parcel", rec.ParcelID, "situs", rec.SitusAddress)
	return rec, nil
}

func (t *TaxCollector) providerErr(status int, err error) error {
	return &domain.ProviderError{Provider: taxCollectorName, Endpoint: endpointSearch, StatusCode: status, Err: err}
}

// parseTaxPage reads the first result's labelled spans. Each field comes from
// the first span whose text starts with its label; the value is the text after
// the label or, when the span holds only the label, the next element's text.
func parseTaxPage(r io.Reader) (domain.PublicRecord, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return domain.PublicRecord{}, fmt.Errorf("parse html: %w", err)
	}

	fields := map[string]*string{}
	var rec domain.PublicRecord
	fields[labelPCN] = &rec.ParcelID
	fields[labelSitus] = &rec.SitusAddress
	fields[labelOwner] = &rec.OwnerName
	fields[labelMailing] = &rec.MailingAddress
	fields[labelUseCode] = &rec.UseCode

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "span" {
			text := collapse(nodeText(n))
			for label, dst := range fields {
				if *dst != "" || !strings.HasPrefix(text, label) {
					continue
				}
				value := strings.TrimSpace(strings.TrimPrefix(text, label))
				if value == "" {
					value = collapse(nodeText(nextElement(n)))
				}
				*dst = value
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return rec, nil
}

func nodeText(n *html.Node) string {
	if n == nil {
		return ""
	}
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(nodeText(c))
		b.WriteByte(' ')
	}
	return b.String()
}

func nextElement(n *html.Node) *html.Node {
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode {
			return s
		}
	}
	return nil
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
