// Package datafile loads scoring configuration and market statistics from
// YAML files.
package datafile

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/property-distress-service/internal/domain"
	"gopkg.in/yaml.v3"
)

// ScoringFile is the on-disk form of a weight table with optional bands.
//
//	name: distress
//	weights:
//	  - signal: preforeclosure
//	    weight: 5
//	    label: Pre-foreclosure
//	bands:
//	  - {level: LOW, min: 0, discount: 0-10%}
type ScoringFile struct {
	Name    string          `yaml:"name"`
	Weights []domain.Weight `yaml:"weights"`
	Bands   []domain.Band   `yaml:"bands"`
}

// Scoring is a validated ScoringFile. Bands is DefaultBands when the file
// declares none.
type Scoring struct {
	Weights domain.WeightTable
	Bands   domain.BandTable
}

// LoadScoring reads and validates a scoring file. Signals outside the
// extractor vocabulary are rejected, since they could never trigger.
func LoadScoring(path string) (Scoring, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Scoring{}, fmt.Errorf("read scoring file: %w", err)
	}
	return ParseScoring(b, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
}

// ParseScoring decodes a scoring document. defaultName is used when the
// document has no name.
func ParseScoring(b []byte, defaultName string) (Scoring, error) {
	var f ScoringFile
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return Scoring{}, fmt.Errorf("decode scoring file: %w", err)
	}
	if f.Name == "" {
		f.Name = defaultName
	}

	known := make(map[domain.SignalName]bool, len(domain.Vocabulary))
	for _, s := range domain.Vocabulary {
		known[s] = true
	}
	for _, w := range f.Weights {
		if !known[w.Signal] {
			return Scoring{}, fmt.Errorf("%w: %s: unknown signal %q", domain.ErrInvalidWeights, f.Name, w.Signal)
		}
	}

	table, err := domain.NewWeightTable(f.Name, f.Weights)
	if err != nil {
		return Scoring{}, err
	}

	bands := domain.DefaultBands()
	if len(f.Bands) > 0 {
		if bands, err = domain.NewBandTable(f.Bands...); err != nil {
			return Scoring{}, err
		}
	}
	return Scoring{Weights: table, Bands: bands}, nil
}

// DumpWeights renders a table in the file format, for seeding a custom file
// from a preset.
func DumpWeights(t domain.WeightTable, bands domain.BandTable) ([]byte, error) {
	b, err := yaml.Marshal(ScoringFile{Name: t.Name(), Weights: t.Weights(), Bands: bands.Bands()})
	if err != nil {
		return nil, fmt.Errorf("encode scoring file: %w", err)
	}
	return b, nil
}
