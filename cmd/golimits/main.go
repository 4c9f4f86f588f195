// Command golimits evaluates limits and classifies continuity from the
// command line, or serves the same tools over HTTP.
//
// Usage:
//
//	golimits limit "sin(x)/x" 0
//	golimits limit "1/x" 0+ --json
//	golimits continuity "floor(x)" 1
//	golimits batch requests.yaml
//	golimits serve --addr :8080
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/njchilds90/golimits/internal/config"
	"github.com/njchilds90/golimits/internal/logging"
	"github.com/njchilds90/golimits/internal/render"
	"github.com/njchilds90/golimits/internal/telemetry"
	"github.com/njchilds90/golimits/limits"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitInvalid = 2
)

// app is the state shared by every subcommand, built in PersistentPreRunE.
type app struct {
	configPath string
	verbose    bool
	noColor    bool

	cfg      config.Config
	logger   *zap.Logger
	metrics  *telemetry.Metrics
	engine   *limits.KernelEngine
	analyzer *limits.Analyzer
	shutdown func(context.Context) error
	theme    render.Theme

	stdout io.Writer
	stderr io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "golimits",
		Short:         "Evaluate limits and classify continuity of one-variable functions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to a YAML config file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "Disable colored output")

	root.AddCommand(
		a.limitCmd(),
		a.continuityCmd(),
		a.normalizeCmd(),
		a.examplesCmd(),
		a.batchCmd(),
		a.serveCmd(),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	// One-shot commands keep stderr quiet unless asked.
	if cmd.Name() != "serve" && !a.verbose && cfg.Log.Level != "error" {
		cfg.Log.Level = "warn"
	}
	a.cfg = cfg

	a.logger, err = logging.New(cfg.Log, a.verbose)
	if err != nil {
		return err
	}
	a.shutdown, err = telemetry.InitTracing(cfg.Telemetry, a.stderr)
	if err != nil {
		return err
	}

	a.metrics = telemetry.NewMetrics()
	a.engine = limits.NewKernelEngine(
		limits.WithTimeout(cfg.Engine.Timeout),
		limits.WithObserver(a.metrics.ObserveEngine),
		limits.WithLogger(a.logger),
	)
	a.analyzer = limits.NewAnalyzer(a.engine, a.logger, limits.WithPlotSamples(cfg.Engine.PlotSamples))
	a.theme = render.NewTheme(a.noColor || cfg.Render.NoColor)
	a.logger.Debug("golimits initialized",
		zap.String("config", a.configPath),
		zap.Duration("engine_timeout", cfg.Engine.Timeout))
	return nil
}

func (a *app) close() {
	if a.shutdown != nil {
		if err := a.shutdown(context.Background()); err != nil && a.logger != nil {
			a.logger.Warn("trace shutdown", zap.Error(err))
		}
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case limits.IsValidation(err), errors.Is(err, config.ErrInvalid), errors.Is(err, errUsage):
		return exitInvalid
	}
	return exitFailure
}

func main() {
	err := newRootCmd(os.Stdout, os.Stderr).Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	os.Exit(exitCode(err))
}
