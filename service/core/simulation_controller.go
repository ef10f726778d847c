package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	ex "github.com/NovaInv/EfficientFrontier/data/extensions"
	dm "github.com/NovaInv/EfficientFrontier/data/models"
	sm "github.com/NovaInv/EfficientFrontier/service/models"
)

// RunFrontier runs the whole pipeline once: load, validate, returns, covariance, simulate, select, CAL.
// Configuration and data errors end the run with no partial response.
func (sc *ServiceContext) RunFrontier(settings sm.FrontierSettings) (*sm.FrontierResponse, error) {
	start := time.Now()
	log := sc.Logger.With().Str("component", "controller").Logger()

	if err := validateSettings(settings); err != nil {
		log.Error().Err(err).Msg("invalid settings")
		return nil, err
	}

	windowStart, windowEnd := settings.Window()
	log.Info().Strs("tickers", settings.Tickers).Str("start", ex.FmtShort(windowStart)).Str("end", ex.FmtShort(windowEnd)).Msg("received request to run frontier")

	log.Info().Dur("time", time.Since(start)).Msg("loading prices")
	prices, err := sc.LoadPrices(settings.Tickers, windowStart, windowEnd, settings.FetchTimeout)
	if err != nil {
		log.Error().Err(err).Msg("error loading prices")
		return nil, err
	}

	log.Info().Dur("time", time.Since(start)).Int("rows", len(prices.Dates)).Msg("validating prices")
	if err := ValidatePriceTable(prices); err != nil {
		log.Error().Err(err).Msg("error validating prices")
		return nil, err
	}

	if err := ValidateCoverage(prices, windowStart); err != nil {
		log.Error().Err(err).Msg("error validating lookback coverage")
		return nil, err
	}

	log.Info().Dur("time", time.Since(start)).Msg("computing returns")
	returns, err := ComputeReturns(prices)
	if err != nil {
		log.Error().Err(err).Msg("error computing returns")
		return nil, err
	}

	stats := Annualize(returns)

	log.Info().Dur("time", time.Since(start)).Int("observations", returns.Observations()).Msg("computing covariance")
	covMatrix, err := ComputeCovariance(returns)
	if err != nil {
		log.Error().Err(err).Msg("error computing covariance")
		return nil, err
	}

	var diagnostics *sm.Diagnostics
	var diagnosticsDone <-chan struct{}
	if settings.ShowDiagnostics {
		diagnostics = BuildDiagnostics(returns.Tickers, covMatrix)
		diagnosticsDone = sc.runDiagnostics(diagnostics, log)
	}

	log.Info().Dur("time", time.Since(start)).Int("portfolios", settings.NumPortfolios).Msg("running monte carlo simulation")
	frontier, err := sc.simulator().Simulate(sc.Context, settings, stats, covMatrix)
	if err != nil {
		log.Error().Err(err).Msg("error running monte carlo simulation")
		return nil, err
	}

	maxSharpe, minVariance, err := SelectFrontier(frontier)
	if err != nil {
		log.Error().Err(err).Msg("error selecting frontier portfolios")
		return nil, err
	}

	cal := CalculateCAL(settings.RiskFreeRate, maxSharpe)

	if diagnosticsDone != nil {
		<-diagnosticsDone
	}

	log.Info().Dur("time", time.Since(start)).Msg("building frontier response")
	response := buildFrontierResponse(settings, sc.sourceName(), windowStart, windowEnd, returns, stats, frontier, maxSharpe, minVariance, cal)
	response.Diagnostics = diagnostics

	log.Info().Dur("time", time.Since(start)).Float64("maxSharpe", maxSharpe.Sharpe).Float64("minStdDev", minVariance.StdDev).Msg("frontier completed")
	return response, nil
}

// LoadPriceWindow loads and validates prices without simulating, used to check a lookback before a full run
func (sc *ServiceContext) LoadPriceWindow(settings sm.FrontierSettings) (*sm.PriceWindowResponse, error) {
	if err := validateTickers(settings.Tickers); err != nil {
		return nil, err
	}

	windowStart, windowEnd := settings.Window()
	prices, err := sc.LoadPrices(settings.Tickers, windowStart, windowEnd, settings.FetchTimeout)
	if err != nil {
		return nil, err
	}

	res := &sm.PriceWindowResponse{
		Source:  sc.sourceName(),
		Start:   windowStart,
		End:     windowEnd,
		Rows:    len(prices.Dates),
		Tickers: make([]sm.TickerWindow, len(prices.Tickers)),
		Table:   prices,
	}

	for i, ticker := range prices.Tickers {
		w := sm.TickerWindow{Ticker: ticker}
		for r, cell := range prices.Column(i) {
			if !cell.Valid {
				continue
			}
			if w.Rows == 0 {
				w.First = prices.Dates[r]
			}
			w.Last = prices.Dates[r]
			w.LastPrice = cell.Float64
			w.Rows++
		}
		res.Tickers[i] = w
	}

	if err := ValidatePriceTable(prices); err != nil {
		return res, err
	}

	return res, ValidateCoverage(prices, windowStart)
}

// runDiagnostics hands the matrices to the sink off the main path, failures are only logged
func (sc *ServiceContext) runDiagnostics(diagnostics *sm.Diagnostics, log zerolog.Logger) <-chan struct{} {
	done := make(chan struct{})
	if sc.Diagnostics == nil {
		close(done)
		return done
	}

	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				log.Warn().Interface("panic", r).Msg("diagnostics panicked, continuing without them")
			}
		}()

		if err := sc.Diagnostics(sc.Context, diagnostics); err != nil {
			log.Warn().Err(err).Msg("diagnostics failed, continuing without them")
		}
	}()

	return done
}

func (sc *ServiceContext) sourceName() string {
	if sc.PriceSource == nil {
		return ""
	}
	return sc.PriceSource.Name()
}

func validateSettings(settings sm.FrontierSettings) error {
	if err := validateTickers(settings.Tickers); err != nil {
		return err
	}

	if settings.NumPortfolios <= 0 {
		return &EmptyResultError{Reason: fmt.Sprintf("number of portfolios must be positive, got %d", settings.NumPortfolios)}
	}

	if !(settings.LookbackYears > 0) {
		return fmt.Errorf("lookback years must be positive, got %v", settings.LookbackYears)
	}

	if settings.SummaryRows < 0 {
		return fmt.Errorf("summary rows must not be negative, got %d", settings.SummaryRows)
	}

	return nil
}

func validateTickers(tickers []string) error {
	if len(tickers) == 0 {
		return &EmptyResultError{Reason: "no tickers requested"}
	}

	for _, t := range tickers {
		if strings.TrimSpace(t) == "" {
			return fmt.Errorf("ticker list contains an empty ticker")
		}
	}

	// make sure assets are unique
	if dup, ok := ex.FirstDuplicate(tickers); ok {
		return fmt.Errorf("duplicate ticker %s", dup)
	}

	return nil
}

func buildFrontierResponse(
	settings sm.FrontierSettings,
	source string,
	windowStart, windowEnd time.Time,
	returns *dm.ReturnsTable,
	stats dm.AnnualizedStats,
	frontier *dm.FrontierResult,
	maxSharpe, minVariance *dm.SimulatedPortfolio,
	cal dm.CapitalAllocationLine,
) *sm.FrontierResponse {
	assets := make([]sm.AssetPayload, len(stats.Tickers))
	for i, t := range stats.Tickers {
		assets[i] = sm.AssetPayload{Ticker: t, Return: stats.Returns[i], StdDev: stats.StdDevs[i]}
	}

	rows := ex.Max(settings.SummaryRows, 1)

	return &sm.FrontierResponse{
		Tickers:        frontier.Tickers,
		Source:         source,
		Start:          windowStart,
		End:            windowEnd,
		Observations:   returns.Observations(),
		RiskFreeRate:   settings.RiskFreeRate,
		NumPortfolios:  len(frontier.Portfolios),
		Seed:           settings.Seed,
		Assets:         assets,
		MaxSharpe:      sm.MapPortfolioToPayload(frontier.Tickers, maxSharpe),
		MinVariance:    sm.MapPortfolioToPayload(frontier.Tickers, minVariance),
		TopSharpe:      sm.MapPortfoliosToPayload(frontier.Tickers, dm.Top(frontier.SortedBySharpe(), rows)),
		TopMinVariance: sm.MapPortfoliosToPayload(frontier.Tickers, dm.Top(frontier.SortedByStdDev(), rows)),
		CAL: sm.CALPayload{
			Slope:     cal.Slope,
			Intercept: cal.Intercept,
			X:         cal.X,
			Y:         cal.Y,
		},
		Frontier: frontier,
	}
}
