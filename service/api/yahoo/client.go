package yahoo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/guregu/null/v6"
	"github.com/rs/zerolog"
	"github.com/wnjoon/go-yfinance/pkg/models"
	"github.com/wnjoon/go-yfinance/pkg/ticker"

	ex "github.com/NovaInv/EfficientFrontier/data/extensions"
	m "github.com/NovaInv/EfficientFrontier/data/models"
)

const SourceName = "yahoo"

type historyFunc func(symbol string, params models.HistoryParams) ([]models.Bar, error)

// Client reads daily bars from yahoo finance through go-yfinance
type Client struct {
	log     zerolog.Logger
	history historyFunc
}

func NewClient(log zerolog.Logger) *Client {
	return &Client{
		log:     log.With().Str("client", SourceName).Logger(),
		history: tickerHistory,
	}
}

func (c *Client) Name() string {
	return SourceName
}

// FetchDailyAdjusted returns the daily bars for symbol with start <= timestamp < end, oldest first.
// go-yfinance does not take a context, the call is abandoned when ctx is done.
func (c *Client) FetchDailyAdjusted(ctx context.Context, symbol string, start, end time.Time) ([]*m.TimeSeriesData, error) {
	params := models.HistoryParams{
		Start:      &start,
		End:        &end,
		Interval:   "1d",
		AutoAdjust: true,
	}

	type result struct {
		bars []models.Bar
		err  error
	}

	done := make(chan result, 1)
	go func() {
		bars, err := c.history(strings.ToUpper(symbol), params)
		done <- result{bars, err}
	}()

	var res result
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("error fetching history for %s: %w", symbol, ctx.Err())
	case res = <-done:
	}

	if res.err != nil {
		return nil, fmt.Errorf("error fetching history for %s: %w", symbol, res.err)
	}

	c.log.Debug().Str("symbol", symbol).Time("start", start).Time("end", end).Int("bars", len(res.bars)).Msg("fetched history")

	data := make([]*m.TimeSeriesData, 0, len(res.bars))
	for _, bar := range res.bars {
		data = append(data, mapBar(bar))
	}

	// yahoo may still hand back a bar on the end date
	f := func(d *m.TimeSeriesData) bool { return !d.Timestamp.Before(start) && d.Timestamp.Before(end) }
	return ex.FilterMultiplePtr(data, f), nil
}

func tickerHistory(symbol string, params models.HistoryParams) ([]models.Bar, error) {
	t, err := ticker.New(symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to create ticker: %w", err)
	}
	defer t.Close()

	return t.History(params)
}

func mapBar(bar models.Bar) *m.TimeSeriesData {
	res := &m.TimeSeriesData{
		Timestamp: bar.Date,
		Open:      positive(bar.Open),
		High:      positive(bar.High),
		Low:       positive(bar.Low),
		Close:     positive(bar.Close),
		Volume:    null.FloatFrom(float64(bar.Volume)),
	}

	// auto adjusted history already carries the adjusted price in close
	if bar.AdjClose > 0 {
		res.AdjustedClose = null.FloatFrom(bar.AdjClose)
	}

	return res
}

// yahoo reports a missing print as zero
func positive(v float64) null.Float {
	if v > 0 {
		return null.FloatFrom(v)
	}
	return null.Float{}
}
