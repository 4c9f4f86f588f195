package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/njchilds90/golimits/internal/render"
	"github.com/njchilds90/golimits/internal/server"
	"github.com/njchilds90/golimits/limits"
)

var errUsage = errors.New("usage")

// batchConcurrency bounds parallel analyses in the batch command.
const batchConcurrency = 4

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return fmt.Errorf("%w: %s expects %d argument(s), got %d", errUsage, cmd.Name(), n, len(args))
		}
		return nil
	}
}

func (a *app) writeJSON(v interface{}) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) limitCmd() *cobra.Command {
	var (
		direction string
		expr2     string
		asJSON    bool
	)
	cmd := &cobra.Command{
		Use:   "limit EXPR POINT",
		Short: "Evaluate lim x→POINT EXPR with a worked solution",
		Long: `Evaluate a limit and explain it step by step.

POINT may be a number, a fraction, pi, e, inf or -inf. A trailing + or -
(as in 0+) approaches from the right or left and wins over --direction.`,
		Example: `  golimits limit "sin(x)/x" 0
  golimits limit "1/x" 0+
  golimits limit "(x^2-1)/(x-1)" 1 --expr2 "x+1"`,
		Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.analyzer.Analyze(cmd.Context(), limits.Request{
				Expression:  args[0],
				Expression2: expr2,
				Point:       args[1],
				Direction:   direction,
			})
			if err != nil {
				return err
			}
			if asJSON {
				return a.writeJSON(res)
			}
			fmt.Fprint(a.stdout, render.Analysis(a.theme, res))
			return nil
		},
	}
	cmd.Flags().StringVarP(&direction, "direction", "d", "", "Approach direction: both, left or right")
	cmd.Flags().StringVar(&expr2, "expr2", "", "Second expression to analyze at the same point")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full analysis as JSON")
	return cmd
}

func (a *app) continuityCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "continuity EXPR POINT",
		Short:   "Classify continuity of EXPR at POINT",
		Example: `  golimits continuity "floor(x)" 1`,
		Args:    exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := a.analyzer.Prepare(ctx, args[0])
			if err != nil {
				return err
			}
			at, _, _, err := limits.ParseApproach(args[1])
			if err != nil {
				return fmt.Errorf("approach point: %w", err)
			}
			rep := a.analyzer.Classifier().Classify(ctx, c, at)
			if asJSON {
				return a.writeJSON(rep)
			}
			fmt.Fprint(a.stdout, render.Continuity(a.theme, rep))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}

func (a *app) normalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "normalize EXPR",
		Short:   "Print the canonical form of EXPR",
		Example: `  golimits normalize "2x² + √x"`,
		Args:    exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.analyzer.Prepare(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, c)
			return nil
		},
	}
}

func (a *app) examplesCmd() *cobra.Command {
	var run string
	cmd := &cobra.Command{
		Use:   "examples",
		Short: "List the built-in examples, or analyze one with --run",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if run == "" {
				fmt.Fprint(a.stdout, render.Examples(a.theme, limits.Examples()))
				return nil
			}
			ex, ok := limits.FindExample(run)
			if !ok {
				return fmt.Errorf("%w: unknown example %q", errUsage, run)
			}
			res, err := a.analyzer.Analyze(cmd.Context(), ex.Request())
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, a.theme.Muted.Render(ex.Description))
			fmt.Fprint(a.stdout, render.Analysis(a.theme, res))
			return nil
		},
	}
	cmd.Flags().StringVar(&run, "run", "", "Name of the example to analyze")
	return cmd
}

// batchResult is one entry of the batch command's output.
type batchResult struct {
	Request  limits.Request   `json:"request"`
	Analysis *limits.Analysis `json:"analysis,omitempty"`
	Error    string           `json:"error,omitempty"`
	err      error
}

func (a *app) batchCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "batch FILE",
		Short: "Analyze every request in a YAML file",
		Long: `Analyze a YAML list of requests concurrently. Each entry has the keys
expression, point and optionally expression2 and direction.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read batch: %w", err)
			}
			var reqs []limits.Request
			if err := yaml.Unmarshal(data, &reqs); err != nil {
				return fmt.Errorf("%w: parse batch %s: %v", errUsage, args[0], err)
			}

			results := a.runBatch(cmd.Context(), reqs)
			if asJSON {
				if err := a.writeJSON(results); err != nil {
					return err
				}
			} else {
				for i, r := range results {
					if i > 0 {
						fmt.Fprintln(a.stdout)
					}
					if r.err != nil {
						fmt.Fprintln(a.stdout, a.theme.Error.Render(fmt.Sprintf("%s at %s: %v", r.Request.Expression, r.Request.Point, r.err)))
						continue
					}
					fmt.Fprint(a.stdout, render.Analysis(a.theme, r.Analysis))
				}
			}
			return batchError(results)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as a JSON array")
	return cmd
}

func (a *app) runBatch(ctx context.Context, reqs []limits.Request) []batchResult {
	results := make([]batchResult, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			res, err := a.analyzer.Analyze(gctx, req)
			results[i] = batchResult{Request: req, Analysis: res, err: err}
			if err != nil {
				results[i].Error = err.Error()
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func batchError(results []batchResult) error {
	var first error
	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
			if first == nil {
				first = r.err
			}
		}
	}
	if first == nil {
		return nil
	}
	return fmt.Errorf("%d of %d requests failed, first: %w", failed, len(results), first)
}

func (a *app) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the limit tools over HTTP",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg.Server
			if addr != "" {
				cfg.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a.logger.Info("starting server",
				zap.String("addr", cfg.Addr),
				zap.Float64("rate_limit", cfg.RateLimit),
				zap.Int("burst", cfg.Burst))
			srv := server.New(cfg, a.engine, a.analyzer, a.metrics, a.logger)
			return srv.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address, overrides server.addr")
	return cmd
}
