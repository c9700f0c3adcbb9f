package publicrecords

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/couchcryptid/property-distress-service/internal/domain"
	"github.com/couchcryptid/property-distress-service/internal/observability"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/sijms/go-ora/v2"
)

// Supported database/sql driver names.
const (
	DriverPostgres = "postgres"
	DriverOracle   = "oracle"
	DriverMySQL    = "mysql"
)

const endpointParcel = "parcel"

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// SQLColumns names the parcel table's columns.
type SQLColumns struct {
	Number   string
	Street   string
	ParcelID string
	Owner    string
	Mailing  string
	UseCode  string
	Situs    string
}

// DefaultSQLColumns matches the column names of a typical county parcel export.
func DefaultSQLColumns() SQLColumns {
	return SQLColumns{
		Number:   "situs_number",
		Street:   "situs_street",
		ParcelID: "parcel_id",
		Owner:    "owner_name",
		Mailing:  "mailing_address",
		UseCode:  "use_code",
		Situs:    "situs_address",
	}
}

// SQLConfig configures a parcel-table source.
type SQLConfig struct {
	Name          string
	Driver        string
	DSN           string
	Table         string
	Columns       SQLColumns
	Jurisdictions []string
}

// SQLSource looks parcels up in a relational parcel table.
type SQLSource struct {
	name          string
	db            *sql.DB
	query         string
	jurisdictions []string
	metrics       *observability.Metrics
}

// OpenSQLSource opens the database named by cfg and prepares the lookup query.
func OpenSQLSource(cfg SQLConfig, metrics *observability.Metrics) (*SQLSource, error) {
	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	src, err := NewSQLSource(db, cfg, metrics)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return src, nil
}

// NewSQLSource wraps an open database.
func NewSQLSource(db *sql.DB, cfg SQLConfig, metrics *observability.Metrics) (*SQLSource, error) {
	if cfg.Columns == (SQLColumns{}) {
		cfg.Columns = DefaultSQLColumns()
	}
	query, err := buildQuery(cfg.Driver, cfg.Table, cfg.Columns)
	if err != nil {
		return nil, err
	}
	name := cfg.Name
	if name == "" {
		name = "sql-" + cfg.Driver
	}
	return &SQLSource{
		name:          name,
		db:            db,
		query:         query,
		jurisdictions: upperAll(cfg.Jurisdictions),
		metrics:       metrics,
	}, nil
}

func (s *SQLSource) Name() string { return s.name }

func (s *SQLSource) Covers(line2 string) bool {
	return coversAny(s.jurisdictions, line2)
}

// Lookup matches the house number exactly and the street name as a
// case-insensitive prefix, so "PGA" finds "PGA BLVD".
func (s *SQLSource) Lookup(ctx context.Context, key domain.StreetKey) (domain.PublicRecord, error) {
	start := time.Now()
	rec, err := s.lookup(ctx, key)
	s.metrics.ProviderTime.WithLabelValues(s.name, endpointParcel).Observe(time.Since(start).Seconds())
	s.metrics.ProviderCalls.WithLabelValues(s.name, endpointParcel, callOutcome(err)).Inc()
	return rec, err
}

func (s *SQLSource) lookup(ctx context.Context, key domain.StreetKey) (domain.PublicRecord, error) {
	var (
		rec                                    domain.PublicRecord
		parcel, owner, mailing, useCode, situs sql.NullString
	)
	err := s.db.QueryRowContext(ctx, s.query, key.Number, strings.ToUpper(key.Name)+"%").
		Scan(&parcel, &owner, &mailing, &useCode, &situs)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, domain.ErrNoMatch
	}
	if err != nil {
		return rec, &domain.ProviderError{Provider: s.name, Endpoint: endpointParcel, Err: err}
	}

	rec.ParcelID = parcel.String
	rec.OwnerName = owner.String
	rec.MailingAddress = mailing.String
	rec.UseCode = useCode.String
	rec.SitusAddress = situs.String
	return rec, nil
}

// CheckReadiness pings the database.
func (s *SQLSource) CheckReadiness(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLSource) Close() error {
	return s.db.Close()
}

// buildQuery renders the lookup statement with the driver's placeholder and
// row-limit syntax. Identifiers are validated, never quoted.
func buildQuery(driver, table string, c SQLColumns) (string, error) {
	idents := []string{table, c.Number, c.Street, c.ParcelID, c.Owner, c.Mailing, c.UseCode, c.Situs}
	for _, id := range idents {
		if !identPattern.MatchString(id) {
			return "", fmt.Errorf("invalid SQL identifier %q", id)
		}
	}

	var p1, p2, limit string
	switch driver {
	case DriverPostgres:
		p1, p2, limit = "$1", "$2", " LIMIT 1"
	case DriverMySQL:
		p1, p2, limit = "?", "?", " LIMIT 1"
	case DriverOracle:
		p1, p2, limit = ":1", ":2", " FETCH FIRST 1 ROWS ONLY"
	default:
		return "", fmt.Errorf("unsupported SQL driver %q", driver)
	}

	return fmt.Sprintf(
		"SELECT %s, %s, %s, %s, %s FROM %s WHERE %s = %s AND UPPER(%s) LIKE %s ORDER BY %s%s",
		c.ParcelID, c.Owner, c.Mailing, c.UseCode, c.Situs,
		table,
		c.Number, p1, c.Street, p2,
		c.ParcelID, limit,
	), nil
}
