package main

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/property-distress-service/internal/pipeline"
	"github.com/spf13/cobra"
)

type batchFlags struct {
	input  string
	output string
	limit  int
	yes    bool
}

func createBatchCmd() *cobra.Command {
	var f batchFlags

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Analyze addresses from a CSV or JSONL file",
		Long: `Analyzes each address in the input file in order and writes one JSON line
per input row. CSV input needs a header with an "address" column or
"line1"/"line2" columns; an "id" column is optional.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBatch(cmd, f)
		},
	}
	cmd.Flags().StringVarP(&f.input, "input", "i", "", "input file (.csv or .jsonl)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output JSONL file (default stdout)")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "maximum addresses to analyze (default MAX_ADDRESSES_PER_BATCH)")
	cmd.Flags().BoolVarP(&f.yes, "yes", "y", false, "skip the confirmation prompt for large batches")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func runBatch(cmd *cobra.Command, f batchFlags) error {
	requests, err := loadRequests(f.input)
	if err != nil {
		return err
	}

	svc, cfg, err := buildService(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	limit := cfg.MaxAddressesPerBatch
	if f.limit > 0 && f.limit < limit {
		limit = f.limit
	}
	n := min(len(requests), limit)
	if n > cfg.BatchConfirmThreshold && !f.yes {
		ok, err := confirm(cmd.InOrStdin(), cmd.ErrOrStderr(), fmt.Sprintf("Analyze %d addresses?", n))
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("aborted")
		}
	}

	out := cmd.OutOrStdout()
	var file *os.File
	if f.output != "" {
		file, err = os.Create(f.output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		out = file
	}
	w := bufio.NewWriter(out)

	enc := json.NewEncoder(w)
	sink := func(a *pipeline.Analysis, invalid *pipeline.InvalidRequest) error {
		if invalid != nil {
			return enc.Encode(map[string]string{
				"request_id": invalid.Request.ID,
				"status":     "invalid",
				"error":      invalid.Err.Error(),
			})
		}
		return enc.Encode(a)
	}

	report, err := pipeline.RunBatch(cmd.Context(), svc.Analyzer, requests, sink, pipeline.BatchOptions{
		Limit:    limit,
		Throttle: cfg.ThrottleInterval,
	})
	if ferr := w.Flush(); ferr != nil {
		err = errors.Join(err, fmt.Errorf("flush output: %w", ferr))
	}
	if file != nil {
		if cerr := file.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close output: %w", cerr))
		}
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "processed=%d matched=%d public_records=%d not_found=%d invalid=%d skipped=%d\n",
		report.Processed, report.Matched, report.PublicRecords, report.NotFound, report.Invalid, report.Skipped)
	return err
}

// confirm asks a yes/no question; only "y" or "yes" is consent.
func confirm(in io.Reader, out io.Writer, question string) (bool, error) {
	fmt.Fprintf(out, "%s [y/N] ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func loadRequests(path string) ([]pipeline.AddressRequest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".jsonl") {
		return readJSONL(f)
	}
	return readCSV(f)
}

func readJSONL(r io.Reader) ([]pipeline.AddressRequest, error) {
	var reqs []pipeline.AddressRequest
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		if strings.TrimSpace(sc.Text()) == "" {
			continue
		}
		var req pipeline.AddressRequest
		if err := json.Unmarshal(sc.Bytes(), &req); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if req.ID == "" {
			req.ID = fmt.Sprintf("row-%d", line)
		}
		reqs = append(reqs, req)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return reqs, nil
}

func readCSV(r io.Reader) ([]pipeline.AddressRequest, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	_, hasAddress := col["address"]
	_, hasLine1 := col["line1"]
	if !hasAddress && !hasLine1 {
		return nil, errors.New(`input needs an "address" or "line1" column`)
	}

	get := func(rec []string, name string) string {
		if i, ok := col[name]; ok && i < len(rec) {
			return rec[i]
		}
		return ""
	}

	var reqs []pipeline.AddressRequest
	for row := 1; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", row, err)
		}
		req := pipeline.AddressRequest{
			ID:      get(rec, "id"),
			Address: get(rec, "address"),
			Line1:   get(rec, "line1"),
			Line2:   get(rec, "line2"),
		}
		if req.ID == "" {
			req.ID = fmt.Sprintf("row-%d", row)
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}
