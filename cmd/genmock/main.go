// Command genmock reads an address-point CSV export and generates request
// fixtures for the pipeline tests and the Kafka integration test. It runs
// the real normalization and variant code so the expected-variants fixture
// matches pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -csv data/address_points.csv \
//	  -requests-out internal/pipeline/testdata/requests.jsonl \
//	  -variants-out internal/pipeline/testdata/variants.json
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/couchcryptid/property-distress-service/internal/domain"
	"github.com/couchcryptid/property-distress-service/internal/pipeline"
)

// addressRow is one address point. Column names follow common county GIS
// exports.
type addressRow struct {
	Number string
	Street string
	Unit   string
	City   string
	State  string
	ZIP    string
}

// variantFixture is the expected resolution input for one request.
type variantFixture struct {
	RequestID  string                   `json:"request_id"`
	Normalized domain.NormalizedAddress `json:"normalized"`
	Variants   []domain.AddressVariant  `json:"variants"`
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	csvPath := flag.String("csv", "", "address-point CSV with Number, Street, Unit, City, State, Zip columns")
	requestsOut := flag.String("requests-out", "", "output path for AddressRequest JSONL fixture")
	variantsOut := flag.String("variants-out", "", "output path for expected variants JSON fixture")
	limit := flag.Int("limit", 0, "maximum rows to read (0 = all)")
	flag.Parse()

	if *csvPath == "" || *requestsOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -csv, -requests-out")
	}

	rows, err := readRows(*csvPath, *limit)
	if err != nil {
		return fmt.Errorf("processing %s: %w", *csvPath, err)
	}
	log.Printf("read %d address rows", len(rows))

	requests, fixtures := buildFixtures(rows)

	if err := writeJSONL(*requestsOut, requests); err != nil {
		return fmt.Errorf("writing requests fixture: %w", err)
	}
	log.Printf("wrote requests fixture: %s", *requestsOut)

	if *variantsOut != "" {
		if err := writeJSON(*variantsOut, fixtures); err != nil {
			return fmt.Errorf("writing variants fixture: %w", err)
		}
		log.Printf("wrote variants fixture: %s", *variantsOut)
	}

	printStats(fixtures)
	return nil
}

func readRows(path string, limit int) ([]addressRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("no data rows")
	}

	colIdx := map[string]int{}
	for i, h := range records[0] {
		colIdx[strings.ToLower(strings.TrimSpace(h))] = i
	}

	var rows []addressRow
	for _, rec := range records[1:] {
		if limit > 0 && len(rows) >= limit {
			break
		}
		row := addressRow{
			Number: get(rec, colIdx, "number"),
			Street: get(rec, colIdx, "street"),
			Unit:   get(rec, colIdx, "unit"),
			City:   get(rec, colIdx, "city"),
			State:  get(rec, colIdx, "state"),
			ZIP:    get(rec, colIdx, "zip"),
		}
		if row.Number == "" || row.Street == "" {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// buildFixtures alternates between one-line and two-line request forms so
// both input paths are exercised.
func buildFixtures(rows []addressRow) ([]pipeline.AddressRequest, []variantFixture) {
	requests := make([]pipeline.AddressRequest, 0, len(rows))
	fixtures := make([]variantFixture, 0, len(rows))

	for i, row := range rows {
		line1 := row.Number + " " + row.Street
		if row.Unit != "" {
			line1 += " Unit " + row.Unit
		}
		line2 := strings.TrimSpace(fmt.Sprintf("%s, %s %s", row.City, row.State, row.ZIP))

		req := pipeline.AddressRequest{ID: fmt.Sprintf("mock-%04d", i+1)}
		if i%2 == 0 {
			req.Address = line1 + ", " + line2
		} else {
			req.Line1, req.Line2 = line1, line2
		}
		requests = append(requests, req)

		raw, err := req.Raw()
		if err != nil {
			continue
		}
		addr := domain.Normalize(raw)
		fixtures = append(fixtures, variantFixture{
			RequestID:  req.ID,
			Normalized: addr,
			Variants:   domain.GenerateVariants(addr),
		})
	}
	return requests, fixtures
}

func get(row []string, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func writeJSONL(path string, requests []pipeline.AddressRequest) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var b strings.Builder
	for _, r := range requests {
		line, err := json.Marshal(r)
		if err != nil {
			return err
		}
		b.Write(line)
		b.WriteByte('\n')
	}
	return os.WriteFile(path, []byte(b.String()), 0o600)
}

type zipCount struct {
	zip   string
	count int
}

func printStats(fixtures []variantFixture) {
	byZIP := map[string]int{}
	variantCounts := map[int]int{}
	var withUnit int
	for _, f := range fixtures {
		byZIP[f.Normalized.ZIP()]++
		variantCounts[len(f.Variants)]++
		if domain.HasUnit(f.Normalized.Line1) {
			withUnit++
		}
	}

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Total: %d\n", len(fixtures))
	fmt.Printf("With unit: %d\n", withUnit)

	zc := make([]zipCount, 0, len(byZIP))
	for z, c := range byZIP {
		zc = append(zc, zipCount{z, c})
	}
	sort.Slice(zc, func(i, j int) bool { return zc[i].count > zc[j].count })
	fmt.Printf("ZIPs (%d): ", len(zc))
	for _, z := range zc[:min(10, len(zc))] {
		fmt.Printf("%s=%d ", z.zip, z.count)
	}
	fmt.Println()

	sizes := make([]int, 0, len(variantCounts))
	for n := range variantCounts {
		sizes = append(sizes, n)
	}
	sort.Ints(sizes)
	fmt.Print("Variants per address: ")
	for _, n := range sizes {
		fmt.Printf("%d=%d ", n, variantCounts[n])
	}
	fmt.Println()
}
