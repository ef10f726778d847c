package core

import (
	"fmt"
	"time"

	ex "github.com/NovaInv/EfficientFrontier/data/extensions"
)

// DataGapError means a ticker is missing a usable price inside the lookback window
type DataGapError struct {
	Ticker string
	Date   time.Time
	Reason string
}

func (e *DataGapError) Error() string {
	if e.Date.IsZero() {
		return fmt.Sprintf("data gap for %s: %s", e.Ticker, e.Reason)
	}
	return fmt.Sprintf("data gap for %s on %s: %s", e.Ticker, ex.FmtShort(e.Date), e.Reason)
}

// EmptyResultError means the run was configured to produce nothing
type EmptyResultError struct {
	Reason string
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("empty result: %s", e.Reason)
}

// DegenerateCovarianceError means the return history cannot support a usable covariance matrix
type DegenerateCovarianceError struct {
	Observations int
	Tickers      int
	Reason       string
}

func (e *DegenerateCovarianceError) Error() string {
	return fmt.Sprintf("degenerate covariance (%d observations, %d tickers): %s", e.Observations, e.Tickers, e.Reason)
}
