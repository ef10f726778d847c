package core

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	dm "github.com/NovaInv/EfficientFrontier/data/models"
	sm "github.com/NovaInv/EfficientFrontier/service/models"
)

// PriceSource returns daily bars for one ticker with start <= timestamp < end, oldest first
type PriceSource interface {
	Name() string
	FetchDailyAdjusted(ctx context.Context, ticker string, start, end time.Time) ([]*dm.TimeSeriesData, error)
}

// DiagnosticsSink consumes the optional correlation and covariance artifact, its errors are only logged
type DiagnosticsSink func(ctx context.Context, diagnostics *sm.Diagnostics) error

type ServiceContext struct {
	Context     context.Context
	Logger      zerolog.Logger
	PriceSource PriceSource
	Diagnostics DiagnosticsSink
	Simulator   *Simulator
}

func (sc *ServiceContext) simulator() *Simulator {
	if sc.Simulator != nil {
		return sc.Simulator
	}
	return NewSimulator(sc.Logger)
}
