package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/subcommands"
	"github.com/rs/zerolog"

	ex "github.com/NovaInv/EfficientFrontier/data/extensions"
	av "github.com/NovaInv/EfficientFrontier/service/api/alpha_vantage"
	"github.com/NovaInv/EfficientFrontier/service/api/yahoo"
	"github.com/NovaInv/EfficientFrontier/service/config"
	"github.com/NovaInv/EfficientFrontier/service/core"
	sm "github.com/NovaInv/EfficientFrontier/service/models"
	"github.com/NovaInv/EfficientFrontier/service/render"
)

// SourceFactory builds the price source named by the source flag
type SourceFactory func(name string, cfg *config.Config, log zerolog.Logger) (core.PriceSource, error)

// env carries what every subcommand shares
type env struct {
	cfg               *config.Config
	log               zerolog.Logger
	newSource         SourceFactory
	renderDiagnostics func(*sm.Diagnostics) (string, error)
	stdout            io.Writer
	stderr            io.Writer
	now               func() time.Time
}

// Register the subcommands.
func Register(c *subcommands.Commander, cfg *config.Config, log zerolog.Logger) {
	e := &env{
		cfg:               cfg,
		log:               log,
		newSource:         NewPriceSource,
		renderDiagnostics: render.DiagnosticsMarkdown,
		stdout:            os.Stdout,
		stderr:            os.Stderr,
		now:               time.Now,
	}

	c.Register(&simulateCmd{env: e}, "frontier")
	c.Register(&pricesCmd{env: e}, "frontier")
}

// NewPriceSource builds a yahoo or alpha vantage source
func NewPriceSource(name string, cfg *config.Config, log zerolog.Logger) (core.PriceSource, error) {
	switch {
	case ex.AreEqual(name, config.SourceYahoo):
		return yahoo.NewClient(log), nil
	case ex.AreEqual(name, config.SourceAlphaVantage):
		if cfg.AlphaVantageHost == "" {
			return av.GetClient(cfg.AlphaVantageAPIKey)
		}
		return av.NewClient(cfg.AlphaVantageHost, cfg.AlphaVantageAPIKey, cfg.FetchTimeout)
	default:
		return nil, fmt.Errorf("unknown price source %q, expected %s or %s", name, config.SourceYahoo, config.SourceAlphaVantage)
	}
}

func (e *env) failf(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(e.stderr, format+"\n", args...)
	return subcommands.ExitFailure
}

func (e *env) usagef(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(e.stderr, format+"\n", args...)
	return subcommands.ExitUsageError
}

func writeJSON[T any](w io.Writer, data *T, err error) error {
	res := sm.GetServiceResponseOk(data)
	if err != nil {
		res = sm.GetServiceResponseError(data, err.Error())
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// writeFile creates path and hands it to write, the file is removed if write fails
func writeFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("error creating output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating %s: %w", path, err)
	}

	if err := write(f); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("error writing %s: %w", path, err)
	}

	return f.Close()
}

// prepare turns the shared flags into run settings and a price source
func (e *env) prepare(r *runFlags) (sm.FrontierSettings, core.PriceSource, subcommands.ExitStatus) {
	timeout, err := time.ParseDuration(r.timeout)
	if err != nil || timeout <= 0 {
		return sm.FrontierSettings{}, nil, e.usagef("Invalid timeout %q", r.timeout)
	}

	cfg := *e.cfg
	cfg.Tickers = config.ParseTickers(r.tickers)
	cfg.LookbackYears = r.lookback
	cfg.FetchTimeout = timeout

	source, err := e.newSource(r.source, &cfg, e.log)
	if err != nil {
		return sm.FrontierSettings{}, nil, e.usagef("Error creating price source: %v", err)
	}

	return cfg.Settings(e.now()), source, subcommands.ExitSuccess
}
