package models

import (
	"time"

	dm "github.com/NovaInv/EfficientFrontier/data/models"
)

type TickerWeight struct {
	Ticker string  `json:"ticker"`
	Weight float64 `json:"weight"`
}

type PortfolioPayload struct {
	Weights []TickerWeight `json:"weights"`
	Return  float64        `json:"return"`
	StdDev  float64        `json:"stdDev"`
	Sharpe  float64        `json:"sharpe"`
}

type AssetPayload struct {
	Ticker string  `json:"ticker"`
	Return float64 `json:"return"`
	StdDev float64 `json:"stdDev"`
}

type CALPayload struct {
	Slope     float64   `json:"slope"`
	Intercept float64   `json:"intercept"`
	X         []float64 `json:"x"`
	Y         []float64 `json:"y"`
}

// Diagnostics holds the matrices behind the optional heatmap, indexed like Tickers
type Diagnostics struct {
	Tickers     []string    `json:"tickers"`
	Correlation [][]float64 `json:"correlation"`
	Covariance  [][]float64 `json:"covariance"`
}

type FrontierResponse struct {
	Tickers        []string           `json:"tickers"`
	Source         string             `json:"source"`
	Start          time.Time          `json:"start"`
	End            time.Time          `json:"end"`
	Observations   int                `json:"observations"`
	RiskFreeRate   float64            `json:"riskFreeRate"`
	NumPortfolios  int                `json:"numPortfolios"`
	Seed           uint64             `json:"seed"`
	Assets         []AssetPayload     `json:"assets"`
	MaxSharpe      PortfolioPayload   `json:"maxSharpe"`
	MinVariance    PortfolioPayload   `json:"minVariance"`
	TopSharpe      []PortfolioPayload `json:"topSharpe"`
	TopMinVariance []PortfolioPayload `json:"topMinVariance"`
	CAL            CALPayload         `json:"cal"`
	Diagnostics    *Diagnostics       `json:"diagnostics,omitempty"`

	// Frontier is every simulated portfolio, kept for rendering and left out of json
	Frontier *dm.FrontierResult `json:"-"`
}

func MapPortfolioToPayload(tickers []string, p *dm.SimulatedPortfolio) PortfolioPayload {
	weights := make([]TickerWeight, len(tickers))
	for i, t := range tickers {
		weights[i] = TickerWeight{Ticker: t, Weight: p.Weights[i]}
	}

	return PortfolioPayload{
		Weights: weights,
		Return:  p.Return,
		StdDev:  p.StdDev,
		Sharpe:  p.Sharpe,
	}
}

func MapPortfoliosToPayload(tickers []string, ps []*dm.SimulatedPortfolio) []PortfolioPayload {
	res := make([]PortfolioPayload, len(ps))
	for i, p := range ps {
		res[i] = MapPortfolioToPayload(tickers, p)
	}
	return res
}

// PriceWindowResponse summarizes a loaded price table without running a simulation
type PriceWindowResponse struct {
	Source  string         `json:"source"`
	Start   time.Time      `json:"start"`
	End     time.Time      `json:"end"`
	Rows    int            `json:"rows"`
	Tickers []TickerWindow `json:"tickers"`
	Table   *dm.PriceTable `json:"-"`
}

type TickerWindow struct {
	Ticker    string    `json:"ticker"`
	First     time.Time `json:"first"`
	Last      time.Time `json:"last"`
	Rows      int       `json:"rows"`
	LastPrice float64   `json:"lastPrice"`
}
