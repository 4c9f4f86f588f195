// Package config loads golimits settings from YAML with GOLIMITS_* environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Server    Server    `yaml:"server" validate:"required"`
	Engine    Engine    `yaml:"engine" validate:"required"`
	Log       Log       `yaml:"log" validate:"required"`
	Telemetry Telemetry `yaml:"telemetry" validate:"required"`
	Render    Render    `yaml:"render"`
}

type Server struct {
	Addr         string        `yaml:"addr" validate:"required,hostname_port"`
	RateLimit    float64       `yaml:"rate_limit" validate:"gt=0"`
	Burst        int           `yaml:"burst" validate:"gte=1"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" validate:"gte=1024,lte=16777216"`
	ShutdownWait time.Duration `yaml:"shutdown_wait" validate:"gte=0"`
}

type Engine struct {
	Timeout     time.Duration `yaml:"timeout" validate:"gt=0"`
	PlotSamples int           `yaml:"plot_samples" validate:"gte=0,lte=5000"`
}

type Log struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json console"`
}

type Telemetry struct {
	TraceExporter string `yaml:"trace_exporter" validate:"oneof=stdout none"`
	ServiceName   string `yaml:"service_name" validate:"required"`
}

type Render struct {
	NoColor bool `yaml:"no_color"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: Server{
			Addr:         "127.0.0.1:8080",
			RateLimit:    20,
			Burst:        40,
			MaxBodyBytes: 1 << 20,
			ShutdownWait: 10 * time.Second,
		},
		Engine: Engine{
			Timeout:     5 * time.Second,
			PlotSamples: 200,
		},
		Log:       Log{Level: "info", Format: "json"},
		Telemetry: Telemetry{TraceExporter: "none", ServiceName: "golimits"},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct tags. The error names the first failing field.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			return fmt.Errorf("%w: %s fails %q (%d problems)", ErrInvalid, f.Namespace(), f.Tag(), len(verrs))
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// applyEnv overlays GOLIMITS_* variables.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	var err error
	parse := func(key string, set func(string) error) {
		if err != nil {
			return
		}
		if v, ok := lookup(key); ok {
			if perr := set(v); perr != nil {
				err = fmt.Errorf("%w: %s=%q: %v", ErrInvalid, key, v, perr)
			}
		}
	}

	str("GOLIMITS_SERVER_ADDR", &cfg.Server.Addr)
	parse("GOLIMITS_SERVER_RATE_LIMIT", func(v string) (e error) {
		cfg.Server.RateLimit, e = strconv.ParseFloat(v, 64)
		return
	})
	parse("GOLIMITS_SERVER_BURST", func(v string) (e error) {
		cfg.Server.Burst, e = strconv.Atoi(v)
		return
	})
	parse("GOLIMITS_SERVER_MAX_BODY_BYTES", func(v string) (e error) {
		cfg.Server.MaxBodyBytes, e = strconv.ParseInt(v, 10, 64)
		return
	})
	parse("GOLIMITS_ENGINE_TIMEOUT", func(v string) (e error) {
		cfg.Engine.Timeout, e = time.ParseDuration(v)
		return
	})
	parse("GOLIMITS_ENGINE_PLOT_SAMPLES", func(v string) (e error) {
		cfg.Engine.PlotSamples, e = strconv.Atoi(v)
		return
	})
	str("GOLIMITS_LOG_LEVEL", &cfg.Log.Level)
	str("GOLIMITS_LOG_FORMAT", &cfg.Log.Format)
	str("GOLIMITS_TELEMETRY_TRACE_EXPORTER", &cfg.Telemetry.TraceExporter)
	parse("GOLIMITS_RENDER_NO_COLOR", func(v string) (e error) {
		cfg.Render.NoColor, e = strconv.ParseBool(v)
		return
	})
	return err
}
