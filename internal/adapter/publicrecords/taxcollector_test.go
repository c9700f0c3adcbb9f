package publicrecords

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/property-distress-service/internal/domain"
	"github.com/couchcryptid/property-distress-service/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resultPage = `<!DOCTYPE html>
<html><body>
<div class="result">
  <span>PCN: 52-43-42-01-00-000-0010</span>
  <span>Situs Address: 4520 PGA BLVD</span>
  <div><span>Owner Name:</span> <b>DOE JANE</b></div>
  <span>Mailing Address: PO BOX 100 JUPITER FL 33458</span>
  <span>Use Code: <em>0100</em> SINGLE FAMILY</span>
</div>
<div class="result">
  <span>PCN: 99-99-99-99-99-999-9999</span>
</div>
</body></html>`

func testTaxCollector(baseURL string) *TaxCollector {
	return NewTaxCollector(baseURL, nil, 5*time.Second,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		observability.NewMetricsForTesting(),
	)
}

func TestTaxCollector_Lookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Situsstreetnumber:4520 Situsstreetname:PGA", r.URL.Query().Get("s"))
		assert.Equal(t, "449", r.URL.Query().Get("moduleId"))
		_, _ = io.WriteString(w, resultPage)
	}))
	defer srv.Close()

	got, err := testTaxCollector(srv.URL).Lookup(context.Background(), domain.StreetKey{Number: "4520", Name: "PGA", Suffix: "BOULEVARD"})
	require.NoError(t, err)

	assert.Equal(t, domain.PublicRecord{
		ParcelID:       "52-43-42-01-00-000-0010",
		SitusAddress:   "4520 PGA BLVD",
		OwnerName:      "DOE JANE",
		MailingAddress: "PO BOX 100 JUPITER FL 33458",
		UseCode:        "0100 SINGLE FAMILY",
	}, got)
}

func TestTaxCollector_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `<html><body><p>No records found</p></body></html>`)
	}))
	defer srv.Close()

	_, err := testTaxCollector(srv.URL).Lookup(context.Background(), domain.StreetKey{Number: "1", Name: "NOWHERE"})
	require.ErrorIs(t, err, domain.ErrNoMatch)
}

func TestTaxCollector_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := testTaxCollector(srv.URL).Lookup(context.Background(), domain.StreetKey{Number: "1", Name: "MAIN"})
	var perr *domain.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, http.StatusServiceUnavailable, perr.StatusCode)
	assert.True(t, perr.Transient())
}

func TestTaxCollector_Covers(t *testing.T) {
	tc := NewTaxCollector("", []string{"palm beach", " "}, time.Second, slog.Default(), observability.NewMetricsForTesting())
	assert.True(t, tc.Covers("PALM BEACH GARDENS, FL 33418"))
	assert.True(t, tc.Covers("West Palm Beach, FL"))
	assert.False(t, tc.Covers("MIAMI, FL 33101"))

	def := testTaxCollector("")
	assert.Equal(t, DefaultTaxCollectorURL, def.baseURL)
	assert.True(t, def.Covers("PALM BEACH, FL"))
}

func TestParseTaxPage_FirstMatchWins(t *testing.T) {
	rec, err := parseTaxPage(strings.NewReader(resultPage))
	require.NoError(t, err)
	assert.Equal(t, "52-43-42-01-00-000-0010", rec.ParcelID)
}
