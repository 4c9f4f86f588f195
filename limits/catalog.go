package limits

import "slices"

// Example is a worked limit shipped with the tool.
type Example struct {
	Name        string `json:"name" yaml:"name"`
	Expression  string `json:"expression" yaml:"expression"`
	Point       string `json:"point" yaml:"point"`
	Direction   string `json:"direction,omitempty" yaml:"direction,omitempty"`
	Description string `json:"description" yaml:"description"`
}

// Request returns the example as an analysis request.
func (e Example) Request() Request {
	return Request{Expression: e.Expression, Point: e.Point, Direction: e.Direction}
}

var catalog = []Example{
	{Name: "sinc", Expression: "sin(x)/x", Point: "0", Description: "The classic 0/0 form; the limit is 1."},
	{Name: "removable", Expression: "(x^2-1)/(x-1)", Point: "1", Description: "A hole at x = 1 that factoring removes."},
	{Name: "reciprocal", Expression: "1/x", Point: "0", Description: "Opposite infinities from each side."},
	{Name: "reciprocal-right", Expression: "1/x", Point: "0+", Description: "One-sided: grows without bound from the right."},
	{Name: "even-pole", Expression: "1/x^2", Point: "0", Description: "Both sides diverge to the same infinity."},
	{Name: "floor-jump", Expression: "floor(x)", Point: "1", Description: "A jump: the sides disagree."},
	{Name: "cosine-ratio", Expression: "(1-cos(x))/x^2", Point: "0", Description: "Needs two rounds of L'Hôpital."},
	{Name: "euler", Expression: "(1+1/x)^x", Point: "∞", Description: "Converges to e."},
	{Name: "rational-infinity", Expression: "(3x^2+1)/(x^2-4)", Point: "infinity", Description: "Ratio of leading coefficients."},
	{Name: "oscillation", Expression: "sin(1/x)", Point: "0", Description: "Oscillates forever; no limit."},
	{Name: "sqrt-edge", Expression: "√x", Point: "0+", Description: "Defined only from the right."},
	{Name: "exponential-decay", Expression: "e^(-x)", Point: "∞", Description: "Decays to 0."},
}

// Examples returns a copy of the built-in catalog.
func Examples() []Example { return slices.Clone(catalog) }

// FindExample returns the catalog entry called name.
func FindExample(name string) (Example, bool) {
	i := slices.IndexFunc(catalog, func(e Example) bool { return e.Name == name })
	if i < 0 {
		return Example{}, false
	}
	return catalog[i], true
}
