package render

import (
	"embed"
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/shopspring/decimal"

	ex "github.com/NovaInv/EfficientFrontier/data/extensions"
	sm "github.com/NovaInv/EfficientFrontier/service/models"
)

//go:embed templates/*.md
var templates embed.FS

var reportTemplates = template.Must(template.New("report").Funcs(template.FuncMap{
	"pct":     Percent,
	"num":     Number,
	"money":   func(v float64) string { return decimal.NewFromFloat(v).StringFixed(2) },
	"date":    ex.FmtShort,
	"through": func(end time.Time) string { return ex.FmtShort(end.AddDate(0, 0, -1)) },
	"inc":     func(i int) int { return i + 1 },
	"weights": weightsText,
	"matrix":  newMatrixView,
}).ParseFS(templates, "templates/*.md"))

// Percent rounds a decimal fraction for display, 0.12345 becomes 12.35%
func Percent(v float64) string {
	return decimal.NewFromFloat(v).Shift(2).StringFixed(2) + "%"
}

// Number rounds to four places for display
func Number(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(4)
}

type matrixView struct {
	Tickers []string
	Rows    [][]float64
	Format  func(float64) string
}

func newMatrixView(tickers []string, rows [][]float64, format string) matrixView {
	return matrixView{
		Tickers: tickers,
		Rows:    rows,
		Format:  func(v float64) string { return fmt.Sprintf(format, v) },
	}
}

func weightsText(weights []sm.TickerWeight) string {
	parts := make([]string, len(weights))
	for i, w := range weights {
		parts[i] = w.Ticker + " " + Percent(w.Weight)
	}
	return strings.Join(parts, ", ")
}

// FrontierMarkdown renders the run summary to a markdown string
func FrontierMarkdown(res *sm.FrontierResponse) (string, error) {
	return renderTemplate("frontier.md", res)
}

// PriceWindowMarkdown renders the loaded price window to a markdown string
func PriceWindowMarkdown(res *sm.PriceWindowResponse) (string, error) {
	return renderTemplate("prices.md", res)
}

// DiagnosticsMarkdown renders the correlation and covariance matrices as tables
func DiagnosticsMarkdown(d *sm.Diagnostics) (string, error) {
	return renderTemplate("diagnostics.md", d)
}

func renderTemplate(name string, data any) (string, error) {
	var b strings.Builder
	if err := reportTemplates.ExecuteTemplate(&b, name, data); err != nil {
		return "", fmt.Errorf("error executing template %q: %w", name, err)
	}
	return b.String(), nil
}

// PrintMarkdown styles markdown for the terminal, plain falls back to the raw text
func PrintMarkdown(w io.Writer, md string, plain bool) error {
	if plain {
		_, err := io.WriteString(w, md)
		return err
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(120),
	)
	if err != nil {
		return fmt.Errorf("error creating markdown renderer: %w", err)
	}

	out, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("error rendering markdown: %w", err)
	}

	_, err = io.WriteString(w, out)
	return err
}
