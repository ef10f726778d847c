package render

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	dm "github.com/NovaInv/EfficientFrontier/data/models"
	sm "github.com/NovaInv/EfficientFrontier/service/models"
)

var (
	colorPortfolio   = drawing.Color{R: 31, G: 119, B: 180, A: 160}
	colorMinVariance = drawing.Color{R: 214, G: 39, B: 40, A: 255}
	colorMaxSharpe   = drawing.Color{R: 44, G: 160, B: 44, A: 255}
	colorCAL         = drawing.Color{R: 255, G: 165, B: 0, A: 255}
)

// Axes is the visible window of the frontier plot
type Axes struct {
	XMin, XMax float64
	YMin, YMax float64
}

// FrontierAxes gives x in [0, 1.25 max std dev] and y in [min(min return - 0.01, 0), 1.25 max return]
func FrontierAxes(portfolios []*dm.SimulatedPortfolio) (Axes, error) {
	if len(portfolios) == 0 {
		return Axes{}, errors.New("no portfolios to plot")
	}

	maxStd, maxRet, minRet := math.Inf(-1), math.Inf(-1), math.Inf(1)
	for _, p := range portfolios {
		maxStd = math.Max(maxStd, p.StdDev)
		maxRet = math.Max(maxRet, p.Return)
		minRet = math.Min(minRet, p.Return)
	}

	axes := Axes{
		XMin: 0,
		XMax: 1.25 * maxStd,
		YMin: math.Min(minRet-0.01, 0),
		YMax: 1.25 * maxRet,
	}

	// all returns negative would put the top below the bottom
	if axes.YMax <= axes.YMin {
		axes.YMax = 0.01
	}
	if axes.XMax <= 0 {
		axes.XMax = 0.01
	}

	return axes, nil
}

// calSegment clips the capital allocation line to the plot window, starting at x = 0
func calSegment(cal sm.CALPayload, axes Axes) ([]float64, []float64) {
	at := func(x float64) float64 { return cal.Intercept + cal.Slope*x }

	xEnd := axes.XMax
	switch {
	case cal.Slope > 0:
		xEnd = math.Min(xEnd, (axes.YMax-cal.Intercept)/cal.Slope)
	case cal.Slope < 0:
		xEnd = math.Min(xEnd, (axes.YMin-cal.Intercept)/cal.Slope)
	}
	xEnd = math.Max(xEnd, 0)

	return []float64{0, xEnd}, []float64{at(0), at(xEnd)}
}

// FrontierChart writes a PNG scatter of every simulated portfolio with both selections and the CAL
func FrontierChart(w io.Writer, res *sm.FrontierResponse) error {
	if res == nil || res.Frontier == nil {
		return errors.New("no frontier to plot")
	}

	portfolios := res.Frontier.Portfolios
	axes, err := FrontierAxes(portfolios)
	if err != nil {
		return err
	}

	xs := make([]float64, len(portfolios))
	ys := make([]float64, len(portfolios))
	for i, p := range portfolios {
		xs[i] = p.StdDev
		ys[i] = p.Return
	}

	calX, calY := calSegment(res.CAL, axes)

	graph := chart.Chart{
		Title:  fmt.Sprintf("Efficient Frontier (%d portfolios)", len(portfolios)),
		Width:  1024,
		Height: 768,
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:           "Volatility",
			Range:          &chart.ContinuousRange{Min: axes.XMin, Max: axes.XMax},
			ValueFormatter: percentFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Return",
			Range:          &chart.ContinuousRange{Min: axes.YMin, Max: axes.YMax},
			ValueFormatter: percentFormatter,
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name: "Portfolios",
				Style: chart.Style{
					StrokeWidth: chart.Disabled,
					DotWidth:    1.5,
					DotColor:    colorPortfolio,
				},
				XValues: xs,
				YValues: ys,
			},
			chart.ContinuousSeries{
				Name: "Capital Allocation Line",
				Style: chart.Style{
					StrokeWidth: 2,
					StrokeColor: colorCAL,
				},
				XValues: calX,
				YValues: calY,
			},
			marker("Min Variance", res.MinVariance, colorMinVariance),
			marker("Max Sharpe", res.MaxSharpe, colorMaxSharpe),
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	return graph.Render(chart.PNG, w)
}

func marker(name string, p sm.PortfolioPayload, color drawing.Color) chart.ContinuousSeries {
	return chart.ContinuousSeries{
		Name: name,
		Style: chart.Style{
			StrokeWidth: chart.Disabled,
			DotWidth:    8,
			DotColor:    color,
		},
		XValues: []float64{p.StdDev},
		YValues: []float64{p.Return},
	}
}

func percentFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%.1f%%", f*100)
	}
	return ""
}
