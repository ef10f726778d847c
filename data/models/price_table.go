package models

import (
	"time"

	"github.com/guregu/null/v6"
)

// PriceTable holds adjusted closes aligned on trading date, Prices is indexed [date][ticker].
// A null cell means the ticker had no price on that date.
type PriceTable struct {
	Tickers []string
	Dates   []time.Time
	Prices  [][]null.Float
}

func (pt *PriceTable) Column(ticker int) []null.Float {
	res := make([]null.Float, len(pt.Dates))
	for i, row := range pt.Prices {
		res[i] = row[ticker]
	}
	return res
}

// ReturnsTable holds daily simple returns, indexed [date][ticker], one row shorter than its PriceTable
type ReturnsTable struct {
	Tickers []string
	Dates   []time.Time
	Returns [][]float64
}

func (rt *ReturnsTable) Column(ticker int) []float64 {
	res := make([]float64, len(rt.Returns))
	for i, row := range rt.Returns {
		res[i] = row[ticker]
	}
	return res
}

func (rt *ReturnsTable) Observations() int {
	return len(rt.Returns)
}

// AnnualizedStats are the per ticker annual mean return and standard deviation
type AnnualizedStats struct {
	Tickers []string
	Returns []float64
	StdDevs []float64
}
