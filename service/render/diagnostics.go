package render

import (
	"io"
	"math"

	sm "github.com/NovaInv/EfficientFrontier/service/models"
)

// CorrelationHeatmap draws the correlation matrix on a fixed [-1, 1] scale
func CorrelationHeatmap(w io.Writer, d *sm.Diagnostics) error {
	return Heatmap(w, "Correlation", d.Tickers, d.Correlation, -1, 1, "%.2f")
}

// CovarianceHeatmap draws the daily covariance matrix scaled to its own range
func CovarianceHeatmap(w io.Writer, d *sm.Diagnostics) error {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, row := range d.Covariance {
		for _, v := range row {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if !(hi > lo) {
		hi = lo + 1
	}

	return Heatmap(w, "Daily Covariance", d.Tickers, d.Covariance, lo, hi, "%.2e")
}
