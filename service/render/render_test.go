package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dm "github.com/NovaInv/EfficientFrontier/data/models"
	sm "github.com/NovaInv/EfficientFrontier/service/models"
)

var pngMagic = []byte("\x89PNG")

func testFrontierResponse() *sm.FrontierResponse {
	tickers := []string{"AAPL", "JNJ"}
	portfolios := []*dm.SimulatedPortfolio{
		{Weights: []float64{0.2, 0.8}, Return: 0.08, StdDev: 0.12, Sharpe: (0.08 - 0.04) / 0.12},
		{Weights: []float64{0.6, 0.4}, Return: 0.14, StdDev: 0.18, Sharpe: (0.14 - 0.04) / 0.18},
		{Weights: []float64{0.9, 0.1}, Return: 0.16, StdDev: 0.25, Sharpe: (0.16 - 0.04) / 0.25},
	}
	frontier := &dm.FrontierResult{Tickers: tickers, RiskFreeRate: 0.04, Portfolios: portfolios}
	maxSharpe := portfolios[1]
	minVariance := portfolios[0]
	slope := maxSharpe.Sharpe

	return &sm.FrontierResponse{
		Tickers:        tickers,
		Source:         "yahoo",
		Start:          time.Date(2021, time.January, 4, 0, 0, 0, 0, time.UTC),
		End:            time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC),
		Observations:   755,
		RiskFreeRate:   0.04,
		NumPortfolios:  3,
		Seed:           684531561,
		Assets:         []sm.AssetPayload{{Ticker: "AAPL", Return: 0.2, StdDev: 0.3}, {Ticker: "JNJ", Return: 0.05, StdDev: 0.15}},
		MaxSharpe:      sm.MapPortfolioToPayload(tickers, maxSharpe),
		MinVariance:    sm.MapPortfolioToPayload(tickers, minVariance),
		TopSharpe:      sm.MapPortfoliosToPayload(tickers, dm.Top(frontier.SortedBySharpe(), 2)),
		TopMinVariance: sm.MapPortfoliosToPayload(tickers, dm.Top(frontier.SortedByStdDev(), 2)),
		CAL:            sm.CALPayload{Slope: slope, Intercept: 0.04, X: []float64{-1, 1}, Y: []float64{0.04 - slope, 0.04 + slope}},
		Frontier:       frontier,
	}
}

func testDiagnostics() *sm.Diagnostics {
	return &sm.Diagnostics{
		Tickers:     []string{"AAPL", "JNJ"},
		Correlation: [][]float64{{1, 0.25}, {0.25, 1}},
		Covariance:  [][]float64{{0.0004, 0.00005}, {0.00005, 0.0001}},
	}
}

func TestFrontierAxes(t *testing.T) {
	axes, err := FrontierAxes(testFrontierResponse().Frontier.Portfolios)
	require.NoError(t, err)

	assert.Equal(t, 0.0, axes.XMin)
	assert.InDelta(t, 1.25*0.25, axes.XMax, 1e-12)
	assert.Equal(t, 0.0, axes.YMin)
	assert.InDelta(t, 1.25*0.16, axes.YMax, 1e-12)
}

func TestFrontierAxesNegativeReturns(t *testing.T) {
	axes, err := FrontierAxes([]*dm.SimulatedPortfolio{
		{Return: -0.05, StdDev: 0.1},
		{Return: -0.02, StdDev: 0.2},
	})
	require.NoError(t, err)

	assert.InDelta(t, -0.06, axes.YMin, 1e-12)
	assert.Greater(t, axes.YMax, axes.YMin)

	_, err = FrontierAxes(nil)
	assert.Error(t, err)
}

func TestCALSegmentStaysInWindow(t *testing.T) {
	axes := Axes{XMax: 0.3, YMin: 0, YMax: 0.2}

	xs, ys := calSegment(sm.CALPayload{Slope: 1, Intercept: 0.04}, axes)
	assert.Equal(t, 0.0, xs[0])
	assert.InDelta(t, 0.04, ys[0], 1e-12)
	assert.InDelta(t, 0.16, xs[1], 1e-12)
	assert.InDelta(t, 0.2, ys[1], 1e-12)

	xs, _ = calSegment(sm.CALPayload{Slope: 0.1, Intercept: 0.04}, axes)
	assert.InDelta(t, 0.3, xs[1], 1e-12)
}

func TestFrontierChartWritesPNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FrontierChart(&buf, testFrontierResponse()))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))

	assert.Error(t, FrontierChart(&buf, &sm.FrontierResponse{}))
}

func TestHeatmapsWritePNG(t *testing.T) {
	var corr, cov bytes.Buffer
	require.NoError(t, CorrelationHeatmap(&corr, testDiagnostics()))
	require.NoError(t, CovarianceHeatmap(&cov, testDiagnostics()))

	assert.True(t, bytes.HasPrefix(corr.Bytes(), pngMagic))
	assert.True(t, bytes.HasPrefix(cov.Bytes(), pngMagic))
}

func TestHeatmapRejectsRaggedMatrix(t *testing.T) {
	var buf bytes.Buffer
	err := Heatmap(&buf, "bad", []string{"A", "B"}, [][]float64{{1, 0}, {0}}, -1, 1, "%.2f")
	assert.Error(t, err)

	err = Heatmap(&buf, "flat", []string{"A"}, [][]float64{{1}}, 1, 1, "%.2f")
	assert.Error(t, err)
}

func TestAllocationChart(t *testing.T) {
	b, err := AllocationChart(testFrontierResponse())
	require.NoError(t, err)
	assert.NotEmpty(t, b)

	_, err = AllocationChart(&sm.FrontierResponse{})
	assert.Error(t, err)
}

func TestDisplayRounding(t *testing.T) {
	assert.Equal(t, "12.35%", Percent(0.123456))
	assert.Equal(t, "-4.10%", Percent(-0.041))
	assert.Equal(t, "0.3333", Number(1.0/3))
}

func TestFrontierMarkdown(t *testing.T) {
	md, err := FrontierMarkdown(testFrontierResponse())
	require.NoError(t, err)

	assert.Contains(t, md, "# Efficient Frontier")
	assert.Contains(t, md, "2021-01-04 through 2024-01-04")
	assert.Contains(t, md, "| AAPL | 60.00% |")
	assert.Contains(t, md, "Sharpe **0.5556**")
	assert.Contains(t, md, "intercept **4.00%**")
	assert.Contains(t, md, "| 1 | 14.00% | 18.00% | 0.5556 | AAPL 60.00%, JNJ 40.00% |")
	assert.Contains(t, md, "| 2 | 16.00% | 25.00% | 0.4800 |")
}

func TestPriceWindowMarkdown(t *testing.T) {
	day := time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC)
	md, err := PriceWindowMarkdown(&sm.PriceWindowResponse{
		Source: "alphavantage",
		Start:  day,
		End:    day.AddDate(0, 0, 7),
		Rows:   5,
		Tickers: []sm.TickerWindow{
			{Ticker: "AAPL", First: day, Last: day.AddDate(0, 0, 6), Rows: 5, LastPrice: 185.6404},
			{Ticker: "NEW"},
		},
	})
	require.NoError(t, err)

	assert.Contains(t, md, "| AAPL | 2024-01-02 | 2024-01-08 | 5 | 185.64 |")
	assert.Contains(t, md, "| NEW | - | - | 0 | 0.00 |")
}

func TestDiagnosticsMarkdown(t *testing.T) {
	md, err := DiagnosticsMarkdown(testDiagnostics())
	require.NoError(t, err)

	assert.Contains(t, md, "| | AAPL | JNJ |")
	assert.Contains(t, md, "| AAPL | 1.000 | 0.250 |")
	assert.Contains(t, md, "| JNJ | 5.000e-05 | 1.000e-04 |")
}

func TestPrintMarkdownPlain(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintMarkdown(&buf, "# Title\n", true))
	assert.Equal(t, "# Title\n", buf.String())

	buf.Reset()
	require.NoError(t, PrintMarkdown(&buf, "# Title\n", false))
	assert.True(t, strings.Contains(buf.String(), "Title"))
}
