package models

import (
	"slices"
	"time"
)

// FrontierSettings is the full configuration of one run, built once and passed by value
type FrontierSettings struct {
	Tickers         []string      `json:"tickers"`
	RiskFreeRate    float64       `json:"riskFreeRate"`
	LookbackYears   float64       `json:"lookbackYears"`
	NumPortfolios   int           `json:"numPortfolios"`
	Seed            uint64        `json:"seed"`
	ShowDiagnostics bool          `json:"showDiagnostics"`
	SummaryRows     int           `json:"summaryRows"`
	FetchTimeout    time.Duration `json:"fetchTimeout"`
	Today           time.Time     `json:"today"`
}

// Window is the half open [start, end) date range to load, end is the day after Today so Today is included
func (s FrontierSettings) Window() (time.Time, time.Time) {
	today := s.Today
	if today.IsZero() {
		today = time.Now()
	}

	y, m, d := today.Date()
	end := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	start := end.AddDate(0, 0, -1-int(s.LookbackYears*CalendarDaysPerYear))
	return start, end
}

// WithTickers returns a copy so callers never share the ticker slice
func (s FrontierSettings) WithTickers(tickers []string) FrontierSettings {
	s.Tickers = slices.Clone(tickers)
	return s
}
