package publicrecords

import (
	"context"
	"fmt"
	"strings"

	"github.com/couchcryptid/property-distress-service/internal/domain"
	"github.com/jonas-p/go-shp"
)

// ShapefileFields names the DBF attributes of a parcel shapefile.
type ShapefileFields struct {
	Number   string
	Street   string
	ParcelID string
	Owner    string
	Mailing  string
	UseCode  string
	Situs    string
}

// DefaultShapefileFields fits the 10-character DBF column limit.
func DefaultShapefileFields() ShapefileFields {
	return ShapefileFields{
		Number:   "SITUS_NUM",
		Street:   "SITUS_STR",
		ParcelID: "PARCEL_ID",
		Owner:    "OWNER",
		Mailing:  "MAIL_ADDR",
		UseCode:  "USE_CODE",
		Situs:    "SITUS_ADR",
	}
}

type parcel struct {
	street string
	record domain.PublicRecord
}

// ShapefileSource serves parcels from a shapefile loaded into memory and
// indexed by house number.
type ShapefileSource struct {
	name          string
	jurisdictions []string
	byNumber      map[string][]parcel
	count         int
}

// LoadShapefile reads every parcel's attributes from path. Geometry is ignored.
func LoadShapefile(name, path string, fields ShapefileFields, jurisdictions []string) (*ShapefileSource, error) {
	if fields == (ShapefileFields{}) {
		fields = DefaultShapefileFields()
	}

	r, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open shapefile %s: %w", path, err)
	}
	defer r.Close()

	index := make(map[string]int)
	for i, f := range r.Fields() {
		index[strings.ToUpper(f.String())] = i
	}
	for _, required := range []string{fields.Number, fields.Street} {
		if _, ok := index[strings.ToUpper(required)]; !ok {
			return nil, fmt.Errorf("shapefile %s: missing field %q", path, required)
		}
	}

	if name == "" {
		name = "shapefile"
	}
	src := &ShapefileSource{
		name:          name,
		jurisdictions: upperAll(jurisdictions),
		byNumber:      make(map[string][]parcel),
	}

	for r.Next() {
		row, _ := r.Shape()
		attr := func(field string) string {
			i, ok := index[strings.ToUpper(field)]
			if !ok {
				return ""
			}
			return cleanAttr(r.ReadAttribute(row, i))
		}

		number := attr(fields.Number)
		street := strings.ToUpper(attr(fields.Street))
		if number == "" || street == "" {
			continue
		}
		src.byNumber[number] = append(src.byNumber[number], parcel{
			street: street,
			record: domain.PublicRecord{
				ParcelID:       attr(fields.ParcelID),
				OwnerName:      attr(fields.Owner),
				MailingAddress: attr(fields.Mailing),
				UseCode:        attr(fields.UseCode),
				SitusAddress:   attr(fields.Situs),
			},
		})
		src.count++
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("read shapefile %s: %w", path, err)
	}
	return src, nil
}

func (s *ShapefileSource) Name() string { return s.name }

func (s *ShapefileSource) Covers(line2 string) bool {
	return coversAny(s.jurisdictions, line2)
}

// Len returns the number of indexed parcels.
func (s *ShapefileSource) Len() int { return s.count }

// Lookup returns the first parcel with the house number whose street starts
// with key.Name.
func (s *ShapefileSource) Lookup(_ context.Context, key domain.StreetKey) (domain.PublicRecord, error) {
	name := strings.ToUpper(key.Name)
	for _, p := range s.byNumber[key.Number] {
		if p.street == name || strings.HasPrefix(p.street, name+" ") {
			return p.record, nil
		}
	}
	return domain.PublicRecord{}, domain.ErrNoMatch
}

func cleanAttr(s string) string {
	return strings.TrimSpace(strings.Trim(s, "\x00"))
}
