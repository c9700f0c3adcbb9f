package domain

import (
	"crypto/md5" //nolint:gosec // cache key, not a security boundary
	"encoding/hex"
	"errors"
	"regexp"
	"strings"
)

// ErrEmptyAddress is returned when an address has no street line.
var ErrEmptyAddress = errors.New("address line1 is empty")

// RawAddress is an address as received from a caller, before normalization.
type RawAddress struct {
	Line1 string `json:"line1"`
	Line2 string `json:"line2,omitempty"`
}

// Validate reports ErrEmptyAddress when the street line is blank.
func (r RawAddress) Validate() error {
	if strings.TrimSpace(r.Line1) == "" {
		return ErrEmptyAddress
	}
	return nil
}

// ParseRawAddress splits a single free-form address on its last two commas.
// "123 MAIN ST, APT 4, JUPITER, FL 33458" yields line1 "123 MAIN ST, APT 4"
// and line2 "JUPITER, FL 33458".
func ParseRawAddress(s string) RawAddress {
	parts := strings.Split(s, ",")
	n := len(parts)
	switch {
	case n >= 3:
		return RawAddress{
			Line1: strings.TrimSpace(strings.Join(parts[:n-2], ",")),
			Line2: strings.TrimSpace(parts[n-2]) + ", " + strings.TrimSpace(parts[n-1]),
		}
	case n == 2:
		return RawAddress{Line1: strings.TrimSpace(parts[0]), Line2: strings.TrimSpace(parts[1])}
	default:
		return RawAddress{Line1: strings.TrimSpace(s)}
	}
}

// NormalizedAddress is the canonical, comparable form of an address.
type NormalizedAddress struct {
	Line1 string `json:"line1"`
	Line2 string `json:"line2,omitempty"`
}

// String renders the address on one line.
func (n NormalizedAddress) String() string {
	if n.Line2 == "" {
		return n.Line1
	}
	return n.Line1 + ", " + n.Line2
}

// Raw converts the normalized address back into caller input form.
func (n NormalizedAddress) Raw() RawAddress {
	return RawAddress(n)
}

// CacheKey is the hex md5 of the one-line form.
func (n NormalizedAddress) CacheKey() string {
	sum := md5.Sum([]byte(n.String())) //nolint:gosec // content address only
	return hex.EncodeToString(sum[:])
}

var zipPattern = regexp.MustCompile(`\b(\d{5})(?:-\d{4})?$`)

// ZIP returns the five-digit ZIP code at the end of line2, or "".
func (n NormalizedAddress) ZIP() string {
	m := zipPattern.FindStringSubmatch(n.Line2)
	if m == nil {
		return ""
	}
	return m[1]
}

var (
	hashRunPattern      = regexp.MustCompile(`#(?:\s*#)+`)
	danglingHashPattern = regexp.MustCompile(`\s*#\s*(,|$)`)
	unitHashPattern     = regexp.MustCompile(`\b(UNIT|APT|LOT|STE|SUITE)\s*#\s*([A-Z0-9-]+)`)
	unitAttachedPattern = regexp.MustCompile(`\b(UNIT|APT|LOT|STE|SUITE)(\d[A-Z0-9-]*)\b`)
	bareHashPattern     = regexp.MustCompile(`(^|\s)#\s*([A-Z0-9-]+)`)
	suitePattern        = regexp.MustCompile(`\bSUITE\b`)
	trailingUnitPattern = regexp.MustCompile(`(,\s*|\s+)(UNIT|APT|LOT|STE|SUITE)\s+[A-Z0-9#-]+$`)
	unitTokenPattern    = regexp.MustCompile(`\b(UNIT|APT|LOT|STE)\s+[A-Z0-9-]+`)
)

// maxNormalizePasses bounds the fixed-point loop in Normalize.
const maxNormalizePasses = 8

// Normalize canonicalizes a raw address. It is pure and idempotent: the
// street line is rewritten until a pass leaves it unchanged.
func Normalize(raw RawAddress) NormalizedAddress {
	line1 := raw.Line1
	for range maxNormalizePasses {
		next := normalizeStreet(line1)
		if next == line1 {
			break
		}
		line1 = next
	}
	return NormalizedAddress{
		Line1: line1,
		Line2: cleanLine(raw.Line2),
	}
}

func normalizeStreet(s string) string {
	s = cleanLine(s)
	s = canonicalizeUnits(s)
	return expandSuffixes(s)
}

// cleanLine uppercases, collapses whitespace, strips token-trailing periods,
// and drops empty comma-separated parts.
func cleanLine(s string) string {
	s = strings.ToUpper(s)
	rawParts := strings.Split(s, ",")
	parts := make([]string, 0, len(rawParts))
	for _, p := range rawParts {
		toks := strings.Fields(p)
		kept := toks[:0]
		for _, tok := range toks {
			tok = strings.TrimRight(tok, ".")
			if tok != "" {
				kept = append(kept, tok)
			}
		}
		if len(kept) > 0 {
			parts = append(parts, strings.Join(kept, " "))
		}
	}
	return strings.Join(parts, ", ")
}

// canonicalizeUnits spaces unit designators and rewrites "#" as UNIT. A run
// of "#" collapses to one, and a "#" with no identifier after it is dropped.
func canonicalizeUnits(s string) string {
	s = hashRunPattern.ReplaceAllString(s, "#")
	s = danglingHashPattern.ReplaceAllString(s, "$1")
	s = unitHashPattern.ReplaceAllString(s, "$1 $2")
	s = unitAttachedPattern.ReplaceAllString(s, "$1 $2")
	s = bareHashPattern.ReplaceAllString(s, "${1}UNIT $2")
	return suitePattern.ReplaceAllString(s, "STE")
}

// StripUnit removes a trailing unit designator and its identifier.
func StripUnit(street string) string {
	return strings.TrimSpace(trailingUnitPattern.ReplaceAllString(street, ""))
}

// HasUnit reports whether a street line carries a unit designator.
func HasUnit(street string) bool {
	return unitTokenPattern.MatchString(street)
}

// StreetKey identifies a parcel by house number and street name, the way
// county public-records systems index situs addresses.
type StreetKey struct {
	Number string
	Name   string
	Suffix string

	// Locality is the city/state/ZIP line, used to route to a jurisdiction.
	Locality string
}

// IsZero reports whether the key lacks a house number or name.
func (k StreetKey) IsZero() bool {
	return k.Number == "" || k.Name == ""
}

// SplitStreet breaks a normalized street line into house number, name, and
// trailing suffix. Unit designators are dropped.
func SplitStreet(street string) StreetKey {
	street = StripUnit(street)
	if i := strings.Index(street, ","); i >= 0 {
		street = street[:i]
	}
	toks := strings.Fields(street)
	if len(toks) < 2 || !startsWithDigit(toks[0]) {
		return StreetKey{}
	}
	key := StreetKey{Number: toks[0]}
	rest := toks[1:]
	if len(rest) > 1 {
		if last := rest[len(rest)-1]; isSuffix(last) {
			if long, ok := suffixByAbbrev[last]; ok {
				last = long
			}
			key.Suffix = last
			rest = rest[:len(rest)-1]
		}
	}
	key.Name = strings.Join(rest, " ")
	return key
}
