package cmd

import (
	"context"
	"flag"

	"github.com/google/subcommands"

	"github.com/NovaInv/EfficientFrontier/service/core"
	"github.com/NovaInv/EfficientFrontier/service/render"
)

// pricesCmd holds the flags for the 'prices' subcommand.
type pricesCmd struct {
	*env
	run runFlags
}

func (*pricesCmd) Name() string     { return "prices" }
func (*pricesCmd) Synopsis() string { return "load and check the price window without simulating" }
func (*pricesCmd) Usage() string {
	return `frontier prices [-tickers <list>] [-lookback <years>] [-source <name>]

  Loads daily adjusted prices for the lookback window and shows the first and last
  date and the row count per ticker. Fails when any ticker has a gap.
`
}

func (c *pricesCmd) SetFlags(f *flag.FlagSet) {
	c.run.set(f, c.cfg)
}

func (c *pricesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	settings, source, status := c.prepare(&c.run)
	if status != subcommands.ExitSuccess {
		return status
	}

	sc := &core.ServiceContext{
		Context:     ctx,
		Logger:      c.log,
		PriceSource: source,
	}

	res, err := sc.LoadPriceWindow(settings)
	if c.run.jsonOut {
		if werr := writeJSON(c.stdout, res, err); werr != nil {
			return c.failf("Error writing json: %v", werr)
		}
		if err != nil {
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}

	// the window is still shown when validation fails so the gap can be located
	if res != nil {
		md, merr := render.PriceWindowMarkdown(res)
		if merr != nil {
			return c.failf("Error building report: %v", merr)
		}
		if perr := render.PrintMarkdown(c.stdout, md, c.run.plain); perr != nil {
			return c.failf("Error printing report: %v", perr)
		}
	}

	if err != nil {
		return c.failf("Error loading prices: %v", err)
	}

	return subcommands.ExitSuccess
}
