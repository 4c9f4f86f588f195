package limits

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/njchilds90/golimits/symbolic"
)

// Variable is the single free variable of every expression.
const Variable = "x"

// DefaultEngineTimeout bounds a single engine call.
const DefaultEngineTimeout = 5 * time.Second

// Engine is the symbolic back end the pipeline talks to. Handles are engine
// expressions; callers never look inside them beyond String and LaTeX.
type Engine interface {
	Parse(ctx context.Context, src Canonical) (symbolic.Expr, error)
	Simplify(ctx context.Context, e symbolic.Expr) (symbolic.Expr, error)
	Substitute(ctx context.Context, e symbolic.Expr, at Point) (symbolic.Expr, error)
	Limit(ctx context.Context, e symbolic.Expr, at Point, dir Direction) (symbolic.Expr, error)
	ToFloat(ctx context.Context, e symbolic.Expr) (float64, error)
}

// Observer is told about every engine call.
type Observer func(op string, elapsed time.Duration, err error)

// KernelEngine runs the in-process symbolic kernel. Each call runs in its own
// goroutine, bounded by a timeout, with panics turned into errors.
type KernelEngine struct {
	timeout  time.Duration
	tracer   trace.Tracer
	observer Observer
	logger   *zap.Logger
}

// EngineOption configures a KernelEngine.
type EngineOption func(*KernelEngine)

func WithTimeout(d time.Duration) EngineOption {
	return func(k *KernelEngine) {
		if d > 0 {
			k.timeout = d
		}
	}
}

func WithTracer(t trace.Tracer) EngineOption { return func(k *KernelEngine) { k.tracer = t } }

func WithObserver(o Observer) EngineOption { return func(k *KernelEngine) { k.observer = o } }

func WithLogger(l *zap.Logger) EngineOption {
	return func(k *KernelEngine) {
		if l != nil {
			k.logger = l
		}
	}
}

// NewKernelEngine returns an engine with DefaultEngineTimeout, the global
// tracer provider and a no-op logger unless options say otherwise.
func NewKernelEngine(opts ...EngineOption) *KernelEngine {
	k := &KernelEngine{
		timeout: DefaultEngineTimeout,
		tracer:  otel.Tracer("github.com/njchilds90/golimits/limits"),
		logger:  zap.NewNop(),
	}
	for _, o := range opts {
		o(k)
	}
	return k
}

func (k *KernelEngine) Parse(ctx context.Context, src Canonical) (symbolic.Expr, error) {
	return run(ctx, k, "parse", func() (symbolic.Expr, error) {
		return symbolic.Parse(string(src))
	})
}

func (k *KernelEngine) Simplify(ctx context.Context, e symbolic.Expr) (symbolic.Expr, error) {
	return run(ctx, k, "simplify", func() (symbolic.Expr, error) {
		return symbolic.DeepSimplify(e), nil
	})
}

func (k *KernelEngine) Substitute(ctx context.Context, e symbolic.Expr, at Point) (symbolic.Expr, error) {
	return run(ctx, k, "substitute", func() (symbolic.Expr, error) {
		if at.IsInfinite() {
			return nil, fmt.Errorf("%w: cannot substitute %s", ErrSubstitution, at)
		}
		r := symbolic.Sub(e, Variable, at.Expr())
		if free := symbolic.FreeSymbols(r); len(free) > 0 {
			return nil, fmt.Errorf("%w: %s still has free symbols", ErrSubstitution, r)
		}
		return r, nil
	})
}

func (k *KernelEngine) Limit(ctx context.Context, e symbolic.Expr, at Point, dir Direction) (symbolic.Expr, error) {
	return run(ctx, k, "limit", func() (symbolic.Expr, error) {
		return symbolic.Limit(e, Variable, at.Expr(), dir.symbolic())
	})
}

func (k *KernelEngine) ToFloat(ctx context.Context, e symbolic.Expr) (float64, error) {
	return run(ctx, k, "to_float", func() (float64, error) {
		return symbolic.ToFloat(e)
	})
}

type result[T any] struct {
	val T
	err error
}

// run executes fn under the engine's timeout. A call that outlives the timeout
// is abandoned; its goroutine finishes into a buffered channel and exits.
func run[T any](ctx context.Context, k *KernelEngine, op string, fn func() (T, error)) (T, error) {
	ctx, span := k.tracer.Start(ctx, "engine."+op, trace.WithAttributes(attribute.String("engine.op", op)))
	defer span.End()
	ctx, cancel := context.WithTimeout(ctx, k.timeout)
	defer cancel()

	start := time.Now()
	done := make(chan result[T], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				var zero T
				done <- result[T]{zero, fmt.Errorf("%w: %s: %v", ErrEnginePanic, op, r)}
			}
		}()
		v, err := fn()
		done <- result[T]{v, err}
	}()

	var res result[T]
	select {
	case res = <-done:
	case <-ctx.Done():
		res.err = fmt.Errorf("%w: %s: %v", ErrEngineTimeout, op, ctx.Err())
	}
	elapsed := time.Since(start)
	if res.err != nil {
		span.RecordError(res.err)
		span.SetStatus(codes.Error, res.err.Error())
		k.logger.Debug("engine call failed", zap.String("op", op), zap.Duration("elapsed", elapsed), zap.Error(res.err))
	}
	if k.observer != nil {
		k.observer(op, elapsed, res.err)
	}
	return res.val, res.err
}
