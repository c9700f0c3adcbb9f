package domain

import "strings"

// TokenPair maps an abbreviated token to its long form.
type TokenPair struct {
	Abbrev string
	Long   string
}

// SuffixPairs is the street-suffix table shared by normalization and variant
// generation. Order is significant: variants are emitted in this order.
var SuffixPairs = []TokenPair{
	{Abbrev: "DR", Long: "DRIVE"},
	{Abbrev: "RD", Long: "ROAD"},
	{Abbrev: "ST", Long: "STREET"},
	{Abbrev: "CT", Long: "COURT"},
	{Abbrev: "LN", Long: "LANE"},
	{Abbrev: "AVE", Long: "AVENUE"},
	{Abbrev: "BLVD", Long: "BOULEVARD"},
	{Abbrev: "PL", Long: "PLACE"},
	{Abbrev: "PKWY", Long: "PARKWAY"},
	{Abbrev: "TER", Long: "TERRACE"},
	{Abbrev: "CIR", Long: "CIRCLE"},
	{Abbrev: "HWY", Long: "HIGHWAY"},
}

// OrdinalPairs maps numbered street names to their spelled-out form.
var OrdinalPairs = []TokenPair{
	{Abbrev: "1ST", Long: "FIRST"},
	{Abbrev: "2ND", Long: "SECOND"},
	{Abbrev: "3RD", Long: "THIRD"},
	{Abbrev: "4TH", Long: "FOURTH"},
	{Abbrev: "5TH", Long: "FIFTH"},
	{Abbrev: "6TH", Long: "SIXTH"},
	{Abbrev: "7TH", Long: "SEVENTH"},
	{Abbrev: "8TH", Long: "EIGHTH"},
	{Abbrev: "9TH", Long: "NINTH"},
	{Abbrev: "10TH", Long: "TENTH"},
}

var suffixByAbbrev, suffixLongForms = indexSuffixes()

func indexSuffixes() (map[string]string, map[string]bool) {
	byAbbrev := make(map[string]string, len(SuffixPairs))
	long := make(map[string]bool, len(SuffixPairs))
	for _, p := range SuffixPairs {
		byAbbrev[p.Abbrev] = p.Long
		long[p.Long] = true
	}
	return byAbbrev, long
}

// isSuffix reports whether tok is a known street suffix in either form.
func isSuffix(tok string) bool {
	_, ok := suffixByAbbrev[tok]
	return ok || suffixLongForms[tok]
}

// swapToken replaces every whitespace-delimited token equal to from with to,
// within each ", "-separated part of s. With guardLead set, the token right
// after a leading house number is left alone when further tokens follow it
// ("123 ST JAMES ...").
func swapToken(s, from, to string, guardLead bool) string {
	if from == to || !strings.Contains(s, from) {
		return s
	}
	parts := strings.Split(s, ", ")
	changed := false
	for pi, part := range parts {
		toks := strings.Fields(part)
		partChanged := false
		for i, tok := range toks {
			if tok != from {
				continue
			}
			if guardLead && pi == 0 && isLeadPosition(toks, i) {
				continue
			}
			toks[i] = to
			partChanged = true
		}
		if partChanged {
			parts[pi] = strings.Join(toks, " ")
			changed = true
		}
	}
	if !changed {
		return s
	}
	return strings.Join(parts, ", ")
}

func isLeadPosition(toks []string, i int) bool {
	return i == 1 && len(toks) > 2 && startsWithDigit(toks[0])
}

// expandSuffixes rewrites every abbreviated suffix in a street line to its
// long form.
func expandSuffixes(street string) string {
	for _, p := range SuffixPairs {
		street = swapToken(street, p.Abbrev, p.Long, true)
	}
	return street
}

func startsWithDigit(s string) bool {
	return s != "" && s[0] >= '0' && s[0] <= '9'
}
