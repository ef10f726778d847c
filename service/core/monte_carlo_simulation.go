package core

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	ex "github.com/NovaInv/EfficientFrontier/data/extensions"
	dm "github.com/NovaInv/EfficientFrontier/data/models"
	sm "github.com/NovaInv/EfficientFrontier/service/models"
)

const (
	Workers   = 8
	BatchSize = 1_000
)

// WeightSource fills w with non negative draws, the simulator normalizes them to sum to one
type WeightSource interface {
	Draw(w []float64)
}

// WeightSourceFactory builds the source for one batch, stream is the batch index
type WeightSourceFactory func(seed, stream uint64) WeightSource

type uniformWeights struct {
	dist distuv.Uniform
}

func (u *uniformWeights) Draw(w []float64) {
	for i := range w {
		w[i] = u.dist.Rand()
	}
}

// UniformWeights draws each weight from U[0, 1) on its own PCG stream
func UniformWeights(seed, stream uint64) WeightSource {
	return &uniformWeights{
		dist: distuv.Uniform{Min: 0, Max: 1, Src: rand.NewPCG(seed, stream)},
	}
}

type Simulator struct {
	Workers         int
	BatchSize       int
	NewWeightSource WeightSourceFactory
	log             zerolog.Logger
}

func NewSimulator(log zerolog.Logger) *Simulator {
	return &Simulator{
		Workers:         Workers,
		BatchSize:       BatchSize,
		NewWeightSource: UniformWeights,
		log:             log.With().Str("component", "simulator").Logger(),
	}
}

type job struct {
	index int
	start int
	end   int
}

func GetNumberOfJobsAndWorkers(iterations int, batchSize int, workers int) ([]job, int) {
	// take the total number of simulations and divide it by the batch size, round up to the nearest int to get total number of batches
	nJobs := int(math.Ceil(float64(iterations) / float64(batchSize)))

	// we have a max number of workers, so we take the minimum of the number of jobs and the number of workers
	nWorkers := ex.Min(nJobs, workers)

	// jobs store the half open range of trials they own, the last job is truncated to the number of iterations
	jobs := make([]job, nJobs)
	for i := range nJobs {
		jobs[i] = job{
			index: i,
			start: i * batchSize,
			end:   ex.Min((i+1)*batchSize, iterations),
		}
	}

	return jobs, nWorkers
}

// Simulate draws settings.NumPortfolios long only portfolios and scores each against stats and the daily covariance.
// Trial i always comes from the PCG stream of its batch, so the result only depends on the seed and batch size.
func (s *Simulator) Simulate(ctx context.Context, settings sm.FrontierSettings, stats dm.AnnualizedStats, covMatrix *mat.SymDense) (*dm.FrontierResult, error) {
	nTickers := len(stats.Tickers)
	if nTickers == 0 {
		return nil, &EmptyResultError{Reason: "no tickers to simulate"}
	}

	if settings.NumPortfolios <= 0 {
		return nil, &EmptyResultError{Reason: fmt.Sprintf("number of portfolios must be positive, got %d", settings.NumPortfolios)}
	}

	if covMatrix == nil || covMatrix.SymmetricDim() != nTickers {
		return nil, fmt.Errorf("error simulating, covariance matrix does not match %d tickers", nTickers)
	}

	batchSize := s.BatchSize
	if batchSize <= 0 {
		batchSize = BatchSize
	}

	newSource := s.NewWeightSource
	if newSource == nil {
		newSource = UniformWeights
	}

	res := make([]*dm.SimulatedPortfolio, settings.NumPortfolios)
	jobs, nWorkers := GetNumberOfJobsAndWorkers(settings.NumPortfolios, batchSize, ex.Max(s.Workers, 1))

	s.log.Debug().
		Int("portfolios", settings.NumPortfolios).
		Int("batchSize", batchSize).
		Int("jobs", len(jobs)).
		Int("workers", nWorkers).
		Uint64("seed", settings.Seed).
		Msg("starting monte carlo simulation")

	// workers steal jobs from this channel as they finish other jobs
	jobsChannel := make(chan job, len(jobs))
	for _, v := range jobs {
		jobsChannel <- v
	}
	close(jobsChannel)

	// deriving from ctx means a cancelled run stops the workers, and a worker error stops its peers
	g, ctx := errgroup.WithContext(ctx)

	for range nWorkers {
		g.Go(func() error {
			for j := range jobsChannel {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}

				source := newSource(settings.Seed, uint64(j.index))
				for trial := j.start; trial < j.end; trial++ {
					weights, err := drawWeights(source, nTickers)
					if err != nil {
						return fmt.Errorf("error drawing weights for trial %d: %w", trial, err)
					}

					res[trial] = EvaluatePortfolio(weights, stats, covMatrix, settings.RiskFreeRate)
				}
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &dm.FrontierResult{
		Tickers:      stats.Tickers,
		RiskFreeRate: settings.RiskFreeRate,
		Portfolios:   res,
	}, nil
}

// maxRedraws bounds how often an all zero draw is retried before giving up
const maxRedraws = 16

func drawWeights(source WeightSource, n int) ([]float64, error) {
	w := make([]float64, n)
	for range maxRedraws {
		source.Draw(w)

		sum := 0.0
		for _, v := range w {
			if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("weight source produced %v", v)
			}
			sum += v
		}

		if sum == 0 {
			continue
		}

		for i := range w {
			w[i] /= sum
		}
		return w, nil
	}

	return nil, fmt.Errorf("weight source produced only zero weights")
}

// EvaluatePortfolio scores one weight vector: return is w·mu, std dev is sqrt(wᵀΣw * 252) with Σ at daily scale.
// The portfolio keeps its own copy of weights.
func EvaluatePortfolio(weights []float64, stats dm.AnnualizedStats, covMatrix *mat.SymDense, riskFreeRate float64) *dm.SimulatedPortfolio {
	expectedReturn, _ := ex.DotProduct(weights, stats.Returns)

	owned := slices.Clone(weights)
	w := mat.NewVecDense(len(owned), owned)
	variance := mat.Inner(w, covMatrix, w)
	stdDev := math.Sqrt(variance * sm.TradingDaysPerYear)

	return &dm.SimulatedPortfolio{
		Weights: owned,
		Return:  expectedReturn,
		StdDev:  stdDev,
		Sharpe:  (expectedReturn - riskFreeRate) / stdDev,
	}
}
