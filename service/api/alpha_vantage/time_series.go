package alpha_vantage

type TimeSeries uint8

// TimeSeries specifies a frequency to query for stock data.
const (
	TimeSeriesDailyAdjusted TimeSeries = iota
)

func (t TimeSeries) Function() string {
	switch t {
	case TimeSeriesDailyAdjusted:
		return "TIME_SERIES_DAILY_ADJUSTED"
	default:
		return ""
	}
}

// TimeSeriesKey is the top level json key the bars are returned under
func (t TimeSeries) TimeSeriesKey() string {
	switch t {
	case TimeSeriesDailyAdjusted:
		return "Time Series (Daily)"
	default:
		return ""
	}
}
