package limits

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/njchilds90/golimits/symbolic"
)

// DefaultPlotSamples is the number of points in a plot series.
const DefaultPlotSamples = 200

// Request is one analysis request as a user types it.
type Request struct {
	Expression  string `json:"expression" yaml:"expression"`
	Expression2 string `json:"expression2,omitempty" yaml:"expression2,omitempty"`
	Point       string `json:"point" yaml:"point"`
	Direction   string `json:"direction,omitempty" yaml:"direction,omitempty"`
}

// PlotPoint is one sample. Y is nil where f has no finite real value.
type PlotPoint struct {
	X float64  `json:"x"`
	Y *float64 `json:"y"`
}

// ExpressionAnalysis is everything computed for one expression.
type ExpressionAnalysis struct {
	Input      string           `json:"input"`
	Canonical  Canonical        `json:"canonical"`
	Display    string           `json:"display"`
	LaTeX      string           `json:"latex"`
	Limit      Value            `json:"limit"`
	Steps      []Step           `json:"steps"`
	Continuity ContinuityReport `json:"continuity"`
	Plot       []PlotPoint      `json:"plot,omitempty"`
}

// Analysis is the result of Analyze.
type Analysis struct {
	Point     Point                `json:"point"`
	Direction Direction            `json:"direction"`
	Results   []ExpressionAnalysis `json:"results"`
	Elapsed   time.Duration        `json:"elapsed_ns"`
}

// Analyzer runs the whole pipeline: sanitize, normalize, parse the approach
// point, then narrate, classify and sample each expression.
type Analyzer struct {
	engine      Engine
	normalizer  *Normalizer
	evaluator   *Evaluator
	narrator    *Narrator
	classifier  *Classifier
	logger      *zap.Logger
	tracer      trace.Tracer
	plotSamples int
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithPlotSamples sets the plot resolution. Zero disables plotting.
func WithPlotSamples(n int) AnalyzerOption {
	return func(a *Analyzer) {
		if n >= 0 {
			a.plotSamples = n
		}
	}
}

func WithAnalyzerTracer(t trace.Tracer) AnalyzerOption {
	return func(a *Analyzer) { a.tracer = t }
}

// NewAnalyzer wires every pipeline component to engine.
func NewAnalyzer(engine Engine, logger *zap.Logger, opts ...AnalyzerOption) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	ev := NewEvaluator(engine, logger)
	nr := NewNarrator(engine, ev, logger)
	a := &Analyzer{
		engine:      engine,
		normalizer:  NewNormalizer(engine),
		evaluator:   ev,
		narrator:    nr,
		classifier:  NewClassifier(engine, ev, nr, logger),
		logger:      logger,
		tracer:      otel.Tracer("github.com/njchilds90/golimits/limits"),
		plotSamples: DefaultPlotSamples,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

func (a *Analyzer) Normalizer() *Normalizer { return a.normalizer }
func (a *Analyzer) Evaluator() *Evaluator   { return a.evaluator }
func (a *Analyzer) Narrator() *Narrator     { return a.narrator }
func (a *Analyzer) Classifier() *Classifier { return a.classifier }

// Prepare sanitizes and normalizes one raw expression.
func (a *Analyzer) Prepare(ctx context.Context, raw string) (Canonical, error) {
	clean, err := Sanitize(raw)
	if err != nil {
		return "", err
	}
	if clean == "" {
		return "", ErrEmptyInput
	}
	return a.normalizer.Normalize(ctx, clean)
}

// Analyze validates the whole request before computing anything, so a request
// either fails with a validation error or yields a complete Analysis.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*Analysis, error) {
	ctx, span := a.tracer.Start(ctx, "limits.analyze")
	defer span.End()
	start := time.Now()

	inputs := []string{req.Expression}
	if req.Expression2 != "" {
		inputs = append(inputs, req.Expression2)
	}
	canon := make([]Canonical, len(inputs))
	for i, raw := range inputs {
		c, err := a.Prepare(ctx, raw)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("expression %d: %w", i+1, err)
		}
		canon[i] = c
	}
	at, inferred, hasInferred, err := ParseApproach(req.Point)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("approach point: %w", err)
	}
	requested, err := ParseDirection(req.Direction)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	dir := ResolveDirection(requested, inferred, hasInferred)
	span.SetAttributes(
		attribute.String("limits.point", at.String()),
		attribute.String("limits.direction", dir.String()),
		attribute.Int("limits.expressions", len(canon)),
	)

	out := &Analysis{Point: at, Direction: dir}
	for i, c := range canon {
		out.Results = append(out.Results, a.analyzeOne(ctx, inputs[i], c, at, dir))
	}
	out.Elapsed = time.Since(start)
	a.logger.Info("analysis complete",
		zap.Strings("expressions", inputs),
		zap.Stringer("point", at),
		zap.Stringer("direction", dir),
		zap.Duration("elapsed", out.Elapsed))
	return out, nil
}

func (a *Analyzer) analyzeOne(ctx context.Context, input string, c Canonical, at Point, dir Direction) ExpressionAnalysis {
	res := ExpressionAnalysis{Input: input, Canonical: c, Display: string(c)}
	if h, err := a.engine.Parse(ctx, c); err == nil {
		res.Display = h.String()
		res.LaTeX = h.LaTeX()
		if a.plotSamples > 0 {
			res.Plot = PlotSeries(h, at, a.plotSamples)
		}
	}
	res.Limit, res.Steps = a.narrator.Narrate(ctx, c, at, dir)
	res.Continuity = a.classifier.Classify(ctx, c, at)
	return res
}

// PlotWindow returns the x range plotted around at.
func PlotWindow(at Point) (from, to float64) {
	switch at.Kind {
	case PosInfinity:
		return 0, 50
	case NegInfinity:
		return -50, 0
	}
	return at.Value - 5, at.Value + 5
}

// PlotSeries samples h over PlotWindow(at). Samples are never taken exactly at
// a finite approach point.
func PlotSeries(h symbolic.Expr, at Point, n int) []PlotPoint {
	from, to := PlotWindow(at)
	xs, ys := symbolic.Sample(h, Variable, from, to, n)
	out := make([]PlotPoint, len(xs))
	for i, x := range xs {
		out[i].X = x
		if !at.IsInfinite() && x == at.Value {
			continue
		}
		if y := ys[i]; !math.IsNaN(y) {
			out[i].Y = &y
		}
	}
	return out
}
