package limits

import (
	"context"

	"go.uber.org/zap"
)

// Kind is the verdict of the continuity classifier.
type Kind string

const (
	KindContinuous Kind = "continuous"
	KindRemovable  Kind = "removable discontinuity"
	KindJump       Kind = "jump discontinuity"
	KindEssential  Kind = "essential discontinuity"
	KindAtInfinity Kind = "point at infinity"
)

// ContinuityReport describes f at a point: its value, both one-sided limits,
// the two-sided limit and the resulting classification.
type ContinuityReport struct {
	Expression    Canonical `json:"expression"`
	Point         Point     `json:"point"`
	FunctionValue Value     `json:"function_value"`
	Left          Value     `json:"left"`
	Right         Value     `json:"right"`
	TwoSided      Value     `json:"two_sided"`
	Continuous    bool      `json:"continuous"`
	Kind          Kind      `json:"kind"`
	Steps         []Step    `json:"steps,omitempty"`
}

// Classifier decides whether a function is continuous at a point.
type Classifier struct {
	engine   Engine
	eval     *Evaluator
	narrator *Narrator
	logger   *zap.Logger
}

func NewClassifier(engine Engine, eval *Evaluator, narrator *Narrator, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{engine: engine, eval: eval, narrator: narrator, logger: logger}
}

// Classify builds the continuity report for expr at at. The two-sided limit and
// the steps come from the narrator, so they match what Narrate shows.
func (c *Classifier) Classify(ctx context.Context, expr Canonical, at Point) ContinuityReport {
	rep := ContinuityReport{Expression: expr, Point: at}
	rep.TwoSided, rep.Steps = c.narrator.Narrate(ctx, expr, at, Both)

	h, err := c.engine.Parse(ctx, expr)
	if err != nil {
		failed := Failed(err.Error())
		rep.FunctionValue, rep.Left, rep.Right = failed, failed, failed
		rep.Kind = KindEssential
		if at.IsInfinite() {
			rep.Kind = KindAtInfinity
		}
		return rep
	}
	if s, err := c.engine.Simplify(ctx, h); err == nil {
		h = s
	}

	rep.Left = c.eval.LimitOf(ctx, h, at, Left)
	rep.Right = c.eval.LimitOf(ctx, h, at, Right)
	if at.IsInfinite() {
		rep.FunctionValue = Undefined("no function value at " + at.String())
		rep.Kind = KindAtInfinity
		return rep
	}
	rep.FunctionValue = c.eval.SubstituteInto(ctx, h, at)
	rep.Kind = classify(rep.FunctionValue, rep.Left, rep.Right, rep.TwoSided)
	rep.Continuous = rep.Kind == KindContinuous

	c.logger.Debug("classified",
		zap.Stringer("expr", expr), zap.Stringer("point", at), zap.String("kind", string(rep.Kind)),
		zap.Stringer("f", rep.FunctionValue), zap.Stringer("left", rep.Left), zap.Stringer("right", rep.Right))
	return rep
}

// classify applies the decision table for a finite point. Only finite values
// take part in equality: a failed computation never makes two sides agree, and
// an infinite limit is never removable.
func classify(f, left, right, two Value) Kind {
	sidesAgree := left.IsNumeric() && right.IsNumeric() && left.Equal(right)
	if !f.IsNumeric() {
		if sidesAgree {
			return KindRemovable
		}
		return KindEssential
	}
	if sidesAgree && two.IsNumeric() && two.Equal(left) && f.Equal(left) {
		return KindContinuous
	}
	if !left.IsNumeric() || !right.IsNumeric() {
		return KindEssential
	}
	if !left.Equal(right) {
		return KindJump
	}
	return KindRemovable
}
