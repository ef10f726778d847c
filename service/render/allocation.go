package render

import (
	"errors"

	"github.com/vicanso/go-charts/v2"

	sm "github.com/NovaInv/EfficientFrontier/service/models"
)

// AllocationChart renders the max Sharpe and min variance weights side by side as a PNG bar chart
func AllocationChart(res *sm.FrontierResponse) ([]byte, error) {
	if res == nil || len(res.Tickers) == 0 {
		return nil, errors.New("no allocation to plot")
	}

	values := [][]float64{
		weightsOf(res.MaxSharpe),
		weightsOf(res.MinVariance),
	}
	names := []string{"Max Sharpe", "Min Variance"}

	yMin, yMax := 0.0, 1.0
	painter, err := charts.BarRender(values,
		charts.TitleTextOptionFunc("Portfolio Allocation", res.Source),
		charts.XAxisOptionFunc(charts.XAxisOption{Data: res.Tickers}),
		charts.YAxisOptionFunc(charts.YAxisOption{Min: &yMin, Max: &yMax, DivideCount: 5}),
		charts.LegendOptionFunc(charts.LegendOption{Data: names}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, err
	}

	return painter.Bytes()
}

func weightsOf(p sm.PortfolioPayload) []float64 {
	w := make([]float64, len(p.Weights))
	for i, tw := range p.Weights {
		w[i] = tw.Weight
	}
	return w
}
