package limits

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/njchilds90/golimits/symbolic"
)

// Evaluator computes limits and function values through an Engine and turns
// every outcome, including failures, into a Value.
type Evaluator struct {
	engine Engine
	logger *zap.Logger
}

func NewEvaluator(engine Engine, logger *zap.Logger) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{engine: engine, logger: logger}
}

// Evaluate returns lim x→at f(x) from dir. It never returns an error: engine
// failures become Failed and a limit that provably does not exist becomes
// Undefined.
func (ev *Evaluator) Evaluate(ctx context.Context, expr Canonical, at Point, dir Direction) Value {
	h, err := ev.engine.Parse(ctx, expr)
	if err != nil {
		return ev.failed("parse", expr, err)
	}
	if s, err := ev.engine.Simplify(ctx, h); err == nil {
		h = s
	}
	return ev.LimitOf(ctx, h, at, dir)
}

// LimitOf is Evaluate for an already parsed expression.
func (ev *Evaluator) LimitOf(ctx context.Context, h symbolic.Expr, at Point, dir Direction) Value {
	r, err := ev.engine.Limit(ctx, h, at, dir)
	switch {
	case errors.Is(err, symbolic.ErrLimitDoesNotExist):
		ev.logger.Debug("limit does not exist",
			zap.Stringer("expr", h), zap.Stringer("point", at), zap.Stringer("direction", dir), zap.Error(err))
		return Undefined(err.Error())
	case err != nil:
		return ev.failed("limit", Canonical(h.String()), err)
	}
	return ev.format(ctx, r)
}

// Substitute returns f(at). Anything other than a finite real result is
// Undefined; the caller decides how to describe it.
func (ev *Evaluator) Substitute(ctx context.Context, expr Canonical, at Point) Value {
	h, err := ev.engine.Parse(ctx, expr)
	if err != nil {
		return ev.failed("parse", expr, err)
	}
	return ev.SubstituteInto(ctx, h, at)
}

// SubstituteInto is Substitute for an already parsed expression.
func (ev *Evaluator) SubstituteInto(ctx context.Context, h symbolic.Expr, at Point) Value {
	r, err := ev.engine.Substitute(ctx, h, at)
	if err != nil {
		ev.logger.Debug("substitution failed", zap.Stringer("expr", h), zap.Stringer("point", at), zap.Error(err))
		return Undefined(err.Error())
	}
	v := ev.format(ctx, r)
	if v.IsNumeric() {
		return v
	}
	return Undefined("f(" + at.String() + ") = " + r.String())
}

func (ev *Evaluator) format(ctx context.Context, r symbolic.Expr) Value {
	if v, ok := exactValue(r); ok {
		return v
	}
	f, err := ev.engine.ToFloat(ctx, r)
	if err != nil {
		return ev.failed("to_float", Canonical(r.String()), err)
	}
	return FormatNumber(f)
}

func (ev *Evaluator) failed(op string, expr Canonical, err error) Value {
	ev.logger.Debug("evaluation failed", zap.String("op", op), zap.Stringer("expr", expr), zap.Error(err))
	return Failed(err.Error())
}
