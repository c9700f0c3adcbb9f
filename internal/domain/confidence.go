package domain

// MaxConfidence caps every confidence value.
const MaxConfidence = 95

// ConfidencePolicy maps the number of triggered signals to a confidence value.
// Implementations must be non-decreasing in triggered.
type ConfidencePolicy interface {
	Confidence(triggered int) int
}

// FixedConfidence reports the same value regardless of input.
type FixedConfidence struct {
	Value int
}

func (f FixedConfidence) Confidence(int) int {
	return clamp(f.Value, 0, MaxConfidence)
}

// LinearConfidence grows by Step per triggered signal from Base.
type LinearConfidence struct {
	Base int
	Step int
}

func (l LinearConfidence) Confidence(triggered int) int {
	step := max(l.Step, 0)
	return clamp(l.Base+step*max(triggered, 0), 0, MaxConfidence)
}

// ConfidencePolicyByName returns "fixed" (95) or "linear" (70 + 3 per signal).
func ConfidencePolicyByName(name string) (ConfidencePolicy, bool) {
	switch name {
	case "fixed":
		return FixedConfidence{Value: MaxConfidence}, true
	case "", "linear":
		return LinearConfidence{Base: 70, Step: 3}, true
	default:
		return nil, false
	}
}
