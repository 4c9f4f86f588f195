package limits

import (
	"context"

	"go.uber.org/zap"
)

// Step is one line of a worked solution.
type Step struct {
	Text   string `json:"text"`
	Result string `json:"result,omitempty"`
	// Emphasis marks the step that carries the final answer.
	Emphasis bool `json:"emphasis,omitempty"`
	Error    bool `json:"error,omitempty"`
}

func (s Step) String() string {
	if s.Result == "" {
		return s.Text
	}
	return s.Text + " = " + s.Result
}

// IndeterminateForm is how a failed direct substitution is described.
const IndeterminateForm = "undefined (indeterminate form)"

// Narrator computes a limit and explains how it got there.
type Narrator struct {
	engine Engine
	eval   *Evaluator
	logger *zap.Logger
}

func NewNarrator(engine Engine, eval *Evaluator, logger *zap.Logger) *Narrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Narrator{engine: engine, eval: eval, logger: logger}
}

// Approach renders "x → a" with a side superscript for one-sided limits.
func Approach(at Point, dir Direction) string {
	return Variable + " → " + pointWithSide(at, dir)
}

func pointWithSide(at Point, dir Direction) string {
	if at.IsInfinite() {
		return at.String()
	}
	return at.String() + dir.Superscript()
}

// LimitNotation renders "lim x→a f(x)".
func LimitNotation(at Point, dir Direction) string {
	return "lim " + Variable + "→" + pointWithSide(at, dir) + " f(" + Variable + ")"
}

// Narrate returns the limit of expr together with the steps that produced it.
// The value always agrees with Evaluator.Evaluate for the same inputs.
func (n *Narrator) Narrate(ctx context.Context, expr Canonical, at Point, dir Direction) (Value, []Step) {
	var steps []Step
	h, err := n.engine.Parse(ctx, expr)
	if err != nil {
		n.logger.Debug("narration parse failed", zap.Stringer("expr", expr), zap.Error(err))
		return Failed(err.Error()), []Step{{Text: "Error: could not read f(x) = " + string(expr), Error: true}}
	}
	steps = append(steps,
		Step{Text: "Function: f(x)", Result: h.String()},
		Step{Text: "Approach: " + Approach(at, dir)},
	)

	simplified, err := n.engine.Simplify(ctx, h)
	switch {
	case err != nil:
		n.logger.Debug("narration simplify failed", zap.Stringer("expr", h), zap.Error(err))
		simplified = h
	case simplified.String() != h.String():
		steps = append(steps, Step{Text: "Simplified: f(x)", Result: simplified.String()})
	}

	if at.IsInfinite() {
		steps = append(steps, Step{Text: "Direct substitution skipped: " + Approach(at, dir) + " is not a finite point"})
	} else {
		label := "Direct substitution: f(" + at.String() + ")"
		if v := n.eval.SubstituteInto(ctx, simplified, at); v.IsNumeric() {
			steps = append(steps, Step{Text: label, Result: v.Display})
		} else {
			steps = append(steps, Step{Text: label, Result: IndeterminateForm})
		}
	}

	value := n.eval.LimitOf(ctx, simplified, at, dir)
	steps = append(steps, Step{Text: "Limit: " + LimitNotation(at, dir), Result: value.Display, Emphasis: true})
	return value, steps
}
