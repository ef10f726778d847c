package models

import (
	"time"

	"github.com/guregu/null/v6"
)

type TimeSeriesResult struct {
	Metadata   *TimeSeriesMetadata
	TimeSeries []*TimeSeriesData
}

type TimeSeriesMetadata struct {
	Information   null.String
	Symbol        string
	LastRefreshed time.Time
	OutputSize    null.String
	TimeZone      string
}

// TimeSeriesData is one daily bar, any field a source could not provide stays null
type TimeSeriesData struct {
	Timestamp      time.Time
	Open           null.Float
	High           null.Float
	Low            null.Float
	Close          null.Float
	AdjustedClose  null.Float
	Volume         null.Float
	DividendAmount null.Float
}

// Price prefers the adjusted close and falls back to the close for sources that only send one
func (d *TimeSeriesData) Price() null.Float {
	if d.AdjustedClose.Valid {
		return d.AdjustedClose
	}
	return d.Close
}
