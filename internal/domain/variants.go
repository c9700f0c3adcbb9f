package domain

// Variant transforms, recorded on each AddressVariant for logging and for the
// resolved record's provenance.
const (
	TransformOriginal     = "original"
	TransformUnitStripped = "unit-stripped"
	TransformSuffixAbbrev = "suffix-abbrev"
	TransformSuffixLong   = "suffix-long"
	TransformOrdinalWord  = "ordinal-word"
	TransformOrdinalNum   = "ordinal-numeric"
	TransformSitus        = "public-records-situs"
)

// AddressVariant is one candidate spelling of a street line.
type AddressVariant struct {
	Street    string `json:"street"`
	Transform string `json:"transform"`
}

// Full renders the variant with the city/state/ZIP line.
func (v AddressVariant) Full(line2 string) string {
	if line2 == "" {
		return v.Street
	}
	return v.Street + ", " + line2
}

// GenerateVariants returns the ordered, deduplicated candidate street lines
// for a normalized address. The first element is always n.Line1.
func GenerateVariants(n NormalizedAddress) []AddressVariant {
	vs := variantSet{
		seen: map[string]bool{n.Line1: true},
		list: []AddressVariant{{Street: n.Line1, Transform: TransformOriginal}},
	}

	stripped := StripUnit(n.Line1)
	if stripped != "" {
		vs.add(stripped, TransformUnitStripped)
	}

	bases := []string{n.Line1}
	if stripped != "" && stripped != n.Line1 {
		bases = append(bases, stripped)
	}

	swapAll := func(pairs []TokenPair, guard bool, toAbbrev, toLong string) {
		for _, p := range pairs {
			for _, b := range bases {
				vs.add(swapToken(b, p.Long, p.Abbrev, guard), toAbbrev)
			}
			for _, b := range bases {
				vs.add(swapToken(b, p.Abbrev, p.Long, guard), toLong)
			}
		}
	}
	swapAll(SuffixPairs, true, TransformSuffixAbbrev, TransformSuffixLong)
	swapAll(OrdinalPairs, false, TransformOrdinalNum, TransformOrdinalWord)

	return vs.list
}

type variantSet struct {
	seen map[string]bool
	list []AddressVariant
}

func (s *variantSet) add(street, transform string) {
	if street == "" || s.seen[street] {
		return
	}
	s.seen[street] = true
	s.list = append(s.list, AddressVariant{Street: street, Transform: transform})
}
