package cmd

import (
	"bytes"
	"context"
	"flag"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/subcommands"

	"github.com/NovaInv/EfficientFrontier/service/config"
	"github.com/NovaInv/EfficientFrontier/service/core"
	sm "github.com/NovaInv/EfficientFrontier/service/models"
	"github.com/NovaInv/EfficientFrontier/service/render"
)

const (
	frontierFile    = "frontier.png"
	allocationFile  = "allocation.png"
	correlationFile = "correlation.png"
	covarianceFile  = "covariance.png"
)

// runFlags are the settings shared by every subcommand that loads prices
type runFlags struct {
	tickers  string
	lookback float64
	source   string
	timeout  string
	jsonOut  bool
	plain    bool
}

func (r *runFlags) set(f *flag.FlagSet, cfg *config.Config) {
	f.StringVar(&r.tickers, "tickers", strings.Join(cfg.Tickers, ","), "Comma separated tickers.")
	f.Float64Var(&r.lookback, "lookback", cfg.LookbackYears, "Lookback window in years.")
	f.StringVar(&r.source, "source", cfg.PriceSource, "Price source, yahoo or alphavantage.")
	f.StringVar(&r.timeout, "timeout", cfg.FetchTimeout.String(), "Timeout for fetching every ticker.")
	f.BoolVar(&r.jsonOut, "json", false, "Print the result as json instead of a report.")
	f.BoolVar(&r.plain, "plain", false, "Print raw markdown without terminal styling.")
}

// simulateCmd holds the flags for the 'simulate' subcommand.
type simulateCmd struct {
	*env
	run         runFlags
	rf          float64
	portfolios  int
	seed        uint64
	diagnostics bool
	rows        int
	outDir      string
}

func (*simulateCmd) Name() string     { return "simulate" }
func (*simulateCmd) Synopsis() string { return "estimate the efficient frontier by monte carlo" }
func (*simulateCmd) Usage() string {
	return `frontier simulate [-tickers <list>] [-lookback <years>] [-n <portfolios>] [-seed <seed>] [-diagnostics]

  Loads daily adjusted prices, simulates random long only portfolios and reports
  the max Sharpe and min variance portfolios with the capital allocation line.
  Writes frontier.png and allocation.png to the output directory.
`
}

func (c *simulateCmd) SetFlags(f *flag.FlagSet) {
	c.run.set(f, c.cfg)
	f.Float64Var(&c.rf, "rf", c.cfg.RiskFreeRate, "Annual risk free rate as a decimal.")
	f.IntVar(&c.portfolios, "n", c.cfg.NumPortfolios, "Number of portfolios to simulate.")
	f.Uint64Var(&c.seed, "seed", c.cfg.Seed, "Seed for the weight generator.")
	f.BoolVar(&c.diagnostics, "diagnostics", c.cfg.ShowDiagnostics, "Print and plot the correlation and covariance matrices.")
	f.IntVar(&c.rows, "rows", c.cfg.SummaryRows, "Rows in the top portfolio tables.")
	f.StringVar(&c.outDir, "out", c.cfg.OutputDir, "Directory for the rendered charts.")
}

func (c *simulateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	settings, source, status := c.prepare(&c.run)
	if status != subcommands.ExitSuccess {
		return status
	}
	settings.RiskFreeRate = c.rf
	settings.NumPortfolios = c.portfolios
	settings.Seed = c.seed
	settings.ShowDiagnostics = c.diagnostics
	settings.SummaryRows = c.rows

	sc := &core.ServiceContext{
		Context:     ctx,
		Logger:      c.log,
		PriceSource: source,
	}
	if !c.run.jsonOut {
		sc.Diagnostics = c.writeDiagnostics
	}

	res, err := sc.RunFrontier(settings)
	if c.run.jsonOut {
		if werr := writeJSON(c.stdout, res, err); werr != nil {
			return c.failf("Error writing json: %v", werr)
		}
		if err != nil {
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}
	if err != nil {
		return c.failf("Error running frontier: %v", err)
	}

	if err := writeFile(filepath.Join(c.outDir, frontierFile), func(w io.Writer) error {
		return render.FrontierChart(w, res)
	}); err != nil {
		return c.failf("Error rendering frontier: %v", err)
	}

	if err := writeFile(filepath.Join(c.outDir, allocationFile), func(w io.Writer) error {
		b, err := render.AllocationChart(res)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	}); err != nil {
		return c.failf("Error rendering allocation: %v", err)
	}

	md, err := render.FrontierMarkdown(res)
	if err != nil {
		return c.failf("Error building report: %v", err)
	}

	md += c.diagnosticsSection(res.Diagnostics)

	if err := render.PrintMarkdown(c.stdout, md, c.run.plain); err != nil {
		return c.failf("Error printing report: %v", err)
	}

	return subcommands.ExitSuccess
}

// diagnosticsSection is the optional matrix report, a failure only drops the section
func (c *simulateCmd) diagnosticsSection(d *sm.Diagnostics) string {
	if d == nil {
		return ""
	}

	diag, err := c.renderDiagnostics(d)
	if err != nil {
		c.log.Warn().Err(err).Msg("diagnostics report failed, printing the frontier without it")
		return ""
	}

	return "\n" + diag
}

// writeDiagnostics renders both heatmaps next to the frontier chart
func (c *simulateCmd) writeDiagnostics(_ context.Context, d *sm.Diagnostics) error {
	var corr, cov bytes.Buffer
	if err := render.CorrelationHeatmap(&corr, d); err != nil {
		return err
	}
	if err := render.CovarianceHeatmap(&cov, d); err != nil {
		return err
	}

	if err := writeFile(filepath.Join(c.outDir, correlationFile), func(w io.Writer) error {
		_, err := corr.WriteTo(w)
		return err
	}); err != nil {
		return err
	}

	return writeFile(filepath.Join(c.outDir, covarianceFile), func(w io.Writer) error {
		_, err := cov.WriteTo(w)
		return err
	})
}
