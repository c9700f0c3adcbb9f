// Package domain models US property addresses, resolved property records,
// and the weighted distress score computed from them.
//
// # Address Normalization
//
// Input addresses arrive as free-form text, either a single string
// ("4520 PGA Blvd., Palm Beach Gardens, FL 33418") or a line1/line2 pair.
// A single string is split on its last two commas: everything before them is
// the street line, the remainder is the city/state/ZIP line. See [ParseRawAddress].
//
// [Normalize] produces the comparable form used for cache keys and provider
// queries:
//
//	uppercase, single spaces, ", " between comma parts
//	trailing periods on tokens removed ("BLVD." -> "BLVD")
//	empty comma parts dropped ("A,, B," -> "A, B")
//	unit designators spaced ("APT12" -> "APT 12", "UNIT #4" -> "UNIT 4",
//	"#4" -> "UNIT 4", "SUITE 200" -> "STE 200")
//	street suffixes expanded ("BLVD" -> "BOULEVARD")
//
// Suffix expansion applies to the street line only, so city names such as
// "ST PETERSBURG" keep their abbreviation. The token immediately after the
// house number is never treated as a suffix when more tokens follow it:
// "123 ST JAMES AVE" is "SAINT JAMES", not "STREET JAMES". This is the only
// position-based guard; an inner "ST" used as "SAINT" is still expanded.
//
// Normalization is idempotent: normalizing a normalized address returns it
// unchanged.
//
// # Variants
//
// Providers match on exact spellings, and their canonical forms disagree
// with each other (one stores "PGA BLVD", another "PGA BOULEVARD").
// [GenerateVariants] derives an ordered, deduplicated list of candidate
// street lines from a normalized address:
//
//  1. the normalized street line unchanged
//  2. the street line with a trailing unit designator removed
//  3. each suffix pair swapped long->abbreviation, then abbreviation->long,
//     applied to the full and the unit-stripped forms
//  4. each ordinal pair swapped ("1ST" <-> "FIRST") the same way
//
// Both normalization and variant generation read the one suffix table in
// [SuffixPairs] through the same token substitution routine.
//
// # Scoring
//
// A [PropertyRecord] plus externally supplied [CaseFacts] and [MarketStats]
// become a [SignalSet] (see [ExtractSignals]). Every signal in the vocabulary
// is always present; missing data reads as false or zero.
//
// A [Scorer] sums the weights of the truthy signals in a [WeightTable] and
// normalizes by the table total:
//
//	score = round(100 * triggered_weight / total_weight), clamped to 0..100
//
// Factors are the labels of the triggered signals in table order. Confidence
// comes from a [ConfidencePolicy] and is capped at 95. The score is mapped to
// a risk level and discount range by a [BandTable], whose bands have
// inclusive lower bounds and together cover 0..100.
//
// The default table weighs sixteen property and market signals for a total
// of 46. A separate divorce preset weighs case facts. See [DefaultWeights]
// and [DivorceWeights].
package domain
