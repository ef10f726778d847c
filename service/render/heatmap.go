package render

import (
	"errors"
	"fmt"
	"io"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	heatmapCell   = 80
	heatmapLeft   = 90
	heatmapTop    = 60
	heatmapMargin = 20
)

var (
	colorWhite = drawing.Color{R: 255, G: 255, B: 255, A: 255}
	colorBlack = drawing.Color{R: 0, G: 0, B: 0, A: 255}
)

// Heatmap writes a PNG grid of a square matrix, cells colored on viridis between lo and hi
// and labelled with format
func Heatmap(w io.Writer, title string, labels []string, matrix [][]float64, lo, hi float64, format string) error {
	n := len(labels)
	if n == 0 || len(matrix) != n {
		return errors.New("heatmap needs one matrix row per label")
	}
	for _, row := range matrix {
		if len(row) != n {
			return errors.New("heatmap matrix must be square")
		}
	}
	if !(hi > lo) {
		return fmt.Errorf("heatmap range [%v, %v] is empty", lo, hi)
	}

	width := heatmapLeft + n*heatmapCell + heatmapMargin
	height := heatmapTop + n*heatmapCell + heatmapMargin

	r, err := chart.PNG(width, height)
	if err != nil {
		return err
	}

	font, err := chart.GetDefaultFont()
	if err != nil {
		return err
	}
	r.SetFont(font)

	fillRect(r, 0, 0, width, height, colorWhite)

	r.SetFontColor(colorBlack)
	r.SetFontSize(14)
	r.Text(title, heatmapLeft, heatmapTop/2)

	r.SetFontSize(10)
	for i, label := range labels {
		// column headers across the top, row headers down the left
		lb := r.MeasureText(label)
		r.Text(label, heatmapLeft+i*heatmapCell+(heatmapCell-lb.Width())/2, heatmapTop-6)
		r.Text(label, heatmapMargin/2, heatmapTop+i*heatmapCell+heatmapCell/2+lb.Height()/2)
	}

	for i := range n {
		for j := range n {
			v := matrix[i][j]
			x := heatmapLeft + j*heatmapCell
			y := heatmapTop + i*heatmapCell
			fillRect(r, x, y, heatmapCell, heatmapCell, chart.Viridis(v, lo, hi))

			text := fmt.Sprintf(format, v)
			tb := r.MeasureText(text)

			// viridis is dark at the low end
			if v < lo+(hi-lo)/2 {
				r.SetFontColor(colorWhite)
			} else {
				r.SetFontColor(colorBlack)
			}
			r.Text(text, x+(heatmapCell-tb.Width())/2, y+(heatmapCell+tb.Height())/2)
		}
	}

	return r.Save(w)
}

func fillRect(r chart.Renderer, x, y, width, height int, color drawing.Color) {
	r.SetFillColor(color)
	r.SetStrokeColor(color)
	r.SetStrokeWidth(0)
	r.MoveTo(x, y)
	r.LineTo(x+width, y)
	r.LineTo(x+width, y+height)
	r.LineTo(x, y+height)
	r.Close()
	r.FillStroke()
}
