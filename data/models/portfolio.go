package models

import (
	"cmp"
	"slices"
)

// SimulatedPortfolio is one trial, never mutated after the simulator writes it
type SimulatedPortfolio struct {
	Weights []float64
	Return  float64
	StdDev  float64
	Sharpe  float64
}

// FrontierResult keeps every simulated portfolio in trial order
type FrontierResult struct {
	Tickers      []string
	RiskFreeRate float64
	Portfolios   []*SimulatedPortfolio
}

// SortedBySharpe returns a copy ordered by descending sharpe, ties keep trial order
func (fr *FrontierResult) SortedBySharpe() []*SimulatedPortfolio {
	res := slices.Clone(fr.Portfolios)
	slices.SortStableFunc(res, func(a, b *SimulatedPortfolio) int {
		return cmp.Compare(b.Sharpe, a.Sharpe)
	})
	return res
}

// SortedByStdDev returns a copy ordered by ascending standard deviation, ties keep trial order
func (fr *FrontierResult) SortedByStdDev() []*SimulatedPortfolio {
	res := slices.Clone(fr.Portfolios)
	slices.SortStableFunc(res, func(a, b *SimulatedPortfolio) int {
		return cmp.Compare(a.StdDev, b.StdDev)
	})
	return res
}

// MaxSharpe is the head of SortedBySharpe, nil when there are no portfolios
func (fr *FrontierResult) MaxSharpe() *SimulatedPortfolio {
	return top(fr.SortedBySharpe())
}

// MinVariance is the head of SortedByStdDev, nil when there are no portfolios
func (fr *FrontierResult) MinVariance() *SimulatedPortfolio {
	return top(fr.SortedByStdDev())
}

// Top returns at most n portfolios from an ordering
func Top(ordered []*SimulatedPortfolio, n int) []*SimulatedPortfolio {
	if n > len(ordered) {
		n = len(ordered)
	}
	if n < 0 {
		n = 0
	}
	return ordered[:n]
}

func top(ordered []*SimulatedPortfolio) *SimulatedPortfolio {
	if len(ordered) == 0 {
		return nil
	}
	return ordered[0]
}

// CapitalAllocationLine is the line through (0, risk free rate) and the tangency portfolio,
// X and Y hold the points evaluated for drawing
type CapitalAllocationLine struct {
	RiskFreeRate float64
	Slope        float64
	Intercept    float64
	Tangency     *SimulatedPortfolio
	X            []float64
	Y            []float64
}

func (cal CapitalAllocationLine) At(x float64) float64 {
	return cal.Intercept + cal.Slope*x
}
