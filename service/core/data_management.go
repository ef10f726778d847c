package core

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/guregu/null/v6"
	"golang.org/x/sync/errgroup"

	ex "github.com/NovaInv/EfficientFrontier/data/extensions"
	dm "github.com/NovaInv/EfficientFrontier/data/models"
)

const (
	DefaultFetchTimeout = 30 * time.Second
	maxConcurrentFetch  = 4

	// ListingTolerance is how far past the window start a ticker's first bar may land, covering weekends and market holidays
	ListingTolerance = 7 * 24 * time.Hour
)

const lookbackReason = "lookback window starts before the first available price, try a shorter lookback"

// LoadPrices fetches every ticker from the price source and aligns them on trading date.
// A ticker missing a date another ticker traded on gets a null cell, ValidatePriceTable turns that into a DataGapError.
func (sc *ServiceContext) LoadPrices(tickers []string, start, end time.Time, timeout time.Duration) (*dm.PriceTable, error) {
	if sc.PriceSource == nil {
		return nil, fmt.Errorf("error loading prices, no price source configured")
	}

	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}

	ctx, cancel := context.WithTimeout(sc.Context, timeout)
	defer cancel()

	series := make([][]*dm.TimeSeriesData, len(tickers))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetch)
	for i, ticker := range tickers {
		g.Go(func() error {
			began := time.Now()
			data, err := sc.PriceSource.FetchDailyAdjusted(ctx, ticker, start, end)
			if err != nil {
				return fmt.Errorf("error fetching prices for %s from %s: %w", ticker, sc.PriceSource.Name(), err)
			}

			if len(data) == 0 {
				return &DataGapError{Ticker: ticker, Reason: fmt.Sprintf("no prices returned between %s and %s", ex.FmtShort(start), ex.FmtShort(end))}
			}

			sc.Logger.Debug().Str("ticker", ticker).Int("rows", len(data)).Dur("elapsed", time.Since(began)).Msg("fetched prices")
			series[i] = data
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return BuildPriceTable(tickers, series), nil
}

// BuildPriceTable aligns per ticker series on the union of their calendar dates
func BuildPriceTable(tickers []string, series [][]*dm.TimeSeriesData) *dm.PriceTable {
	lookup := make([]map[time.Time]null.Float, len(tickers))
	dateSet := make(map[time.Time]struct{})

	for i, data := range series {
		lookup[i] = make(map[time.Time]null.Float, len(data))
		for _, d := range data {
			key := dateKey(d.Timestamp)
			lookup[i][key] = d.Price()
			dateSet[key] = struct{}{}
		}
	}

	dates := make([]time.Time, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	slices.SortFunc(dates, func(a, b time.Time) int { return a.Compare(b) })

	prices := make([][]null.Float, len(dates))
	for r, d := range dates {
		prices[r] = make([]null.Float, len(tickers))
		for c := range tickers {
			prices[r][c] = lookup[c][d]
		}
	}

	return &dm.PriceTable{
		Tickers: slices.Clone(tickers),
		Dates:   dates,
		Prices:  prices,
	}
}

// ValidatePriceTable fails on the first missing or non positive cell, scanning ticker by ticker
func ValidatePriceTable(pt *dm.PriceTable) error {
	if pt == nil || len(pt.Tickers) == 0 {
		return &EmptyResultError{Reason: "price table has no tickers"}
	}

	if len(pt.Dates) == 0 {
		return &DataGapError{Ticker: pt.Tickers[0], Reason: "price table has no dates"}
	}

	for c, ticker := range pt.Tickers {
		seenPrice := false
		for r, row := range pt.Prices {
			cell := row[c]
			switch {
			case !cell.Valid && !seenPrice:
				return &DataGapError{Ticker: ticker, Date: pt.Dates[r], Reason: lookbackReason}
			case !cell.Valid:
				return &DataGapError{Ticker: ticker, Date: pt.Dates[r], Reason: "missing price"}
			case cell.Float64 <= 0:
				return &DataGapError{Ticker: ticker, Date: pt.Dates[r], Reason: fmt.Sprintf("non positive price %v", cell.Float64)}
			}
			seenPrice = true
		}
	}

	return nil
}

// ValidateCoverage fails when a ticker's first price lands more than ListingTolerance after the window start.
// A table where every ticker listed late is internally consistent, so ValidatePriceTable alone cannot see it.
func ValidateCoverage(pt *dm.PriceTable, start time.Time) error {
	if pt == nil {
		return &EmptyResultError{Reason: "price table has no tickers"}
	}

	limit := dateKey(start).Add(ListingTolerance)
	for c, ticker := range pt.Tickers {
		for r, row := range pt.Prices {
			if !row[c].Valid {
				continue
			}
			if pt.Dates[r].After(limit) {
				return &DataGapError{Ticker: ticker, Date: pt.Dates[r], Reason: lookbackReason}
			}
			break
		}
	}

	return nil
}

// dateKey drops the time of day so bars from sources in different time zones align
func dateKey(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
