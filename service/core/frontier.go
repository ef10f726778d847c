package core

import (
	dm "github.com/NovaInv/EfficientFrontier/data/models"
)

// CALDomain are the x values the capital allocation line is evaluated at for drawing
var CALDomain = []float64{-1, 1}

// SelectFrontier picks the max sharpe and min variance portfolios, first trial wins ties
func SelectFrontier(fr *dm.FrontierResult) (maxSharpe, minVariance *dm.SimulatedPortfolio, err error) {
	if fr == nil || len(fr.Portfolios) == 0 {
		return nil, nil, &EmptyResultError{Reason: "no simulated portfolios to select from"}
	}

	return fr.MaxSharpe(), fr.MinVariance(), nil
}

// CalculateCAL fits the line through (0, riskFreeRate) and (tangency std dev, tangency return)
func CalculateCAL(riskFreeRate float64, tangency *dm.SimulatedPortfolio) dm.CapitalAllocationLine {
	cal := dm.CapitalAllocationLine{
		RiskFreeRate: riskFreeRate,
		Slope:        (tangency.Return - riskFreeRate) / tangency.StdDev,
		Intercept:    riskFreeRate,
		Tangency:     tangency,
		X:            make([]float64, len(CALDomain)),
		Y:            make([]float64, len(CALDomain)),
	}

	for i, x := range CALDomain {
		cal.X[i] = x
		cal.Y[i] = cal.At(x)
	}

	return cal
}
