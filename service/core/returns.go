package core

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"

	dm "github.com/NovaInv/EfficientFrontier/data/models"
	sm "github.com/NovaInv/EfficientFrontier/service/models"
)

// ComputeReturns turns prices into daily simple returns, price[t]/price[t-1] - 1, dropping the first date.
// The table is validated first so a gap can never leak into the returns.
func ComputeReturns(prices *dm.PriceTable) (*dm.ReturnsTable, error) {
	if err := ValidatePriceTable(prices); err != nil {
		return nil, err
	}

	nRows := len(prices.Dates) - 1
	if nRows < 0 {
		nRows = 0
	}

	returns := make([][]float64, nRows)
	for t := 1; t < len(prices.Prices); t++ {
		prev, cur := prices.Prices[t-1], prices.Prices[t]
		row := make([]float64, len(prices.Tickers))
		for i := range row {
			row[i] = cur[i].Float64/prev[i].Float64 - 1
		}
		returns[t-1] = row
	}

	return &dm.ReturnsTable{
		Tickers: slices.Clone(prices.Tickers),
		Dates:   slices.Clone(prices.Dates[1:]),
		Returns: returns,
	}, nil
}

// Annualize scales each ticker's daily mean by 252 and its daily sample variance by 252 before the square root.
// Fewer than two observations leave the standard deviation NaN, ComputeCovariance rejects that history.
func Annualize(returns *dm.ReturnsTable) dm.AnnualizedStats {
	res := dm.AnnualizedStats{
		Tickers: slices.Clone(returns.Tickers),
		Returns: make([]float64, len(returns.Tickers)),
		StdDevs: make([]float64, len(returns.Tickers)),
	}

	for i := range returns.Tickers {
		col := returns.Column(i)
		res.Returns[i] = stat.Mean(col, nil) * sm.TradingDaysPerYear
		res.StdDevs[i] = math.Sqrt(stat.Variance(col, nil) * sm.TradingDaysPerYear)
	}

	return res
}
