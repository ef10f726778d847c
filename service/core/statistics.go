package core

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	ex "github.com/NovaInv/EfficientFrontier/data/extensions"
	dm "github.com/NovaInv/EfficientFrontier/data/models"
	sm "github.com/NovaInv/EfficientFrontier/service/models"
)

// ComputeCovariance is the sample covariance of daily returns over the whole history, left at daily scale.
func ComputeCovariance(returns *dm.ReturnsTable) (*mat.SymDense, error) {
	nTickers := len(returns.Tickers)
	nObs := returns.Observations()

	if nTickers == 0 {
		return nil, &EmptyResultError{Reason: "no tickers to estimate a covariance for"}
	}

	if nObs < 2 {
		return nil, &DegenerateCovarianceError{Observations: nObs, Tickers: nTickers, Reason: "fewer than two return observations"}
	}

	// demeaning costs one degree of freedom, so n observations give a sample covariance of rank at most n-1
	if nObs <= nTickers {
		return nil, &DegenerateCovarianceError{Observations: nObs, Tickers: nTickers, Reason: "no more return observations than tickers"}
	}

	covMatrix := GetCovarianceMatrix(returns.Returns)

	for i, ticker := range returns.Tickers {
		if v := covMatrix.At(i, i); !(v > 0) {
			return nil, &DegenerateCovarianceError{Observations: nObs, Tickers: nTickers, Reason: fmt.Sprintf("%s has zero variance", ticker)}
		}
	}

	if _, err := GetCholeskyDecomposition(covMatrix); err != nil {
		return nil, &DegenerateCovarianceError{Observations: nObs, Tickers: nTickers, Reason: err.Error()}
	}

	return covMatrix, nil
}

// GetCovarianceMatrix takes rows of observations, one column per variable
func GetCovarianceMatrix[T ex.Number](rows [][]T) *mat.SymDense {
	returnMatrix := ArrToMatrix(rows)
	_, nCols := returnMatrix.Dims()
	covMatrix := mat.NewSymDense(nCols, nil)
	stat.CovarianceMatrix(covMatrix, returnMatrix, nil)
	return covMatrix
}

// GetCorrelationMatrix builds a correlation matrix from a covariance matrix so diagonal is 1.
// corr_ij = cov_ij / sqrt(cov_ii*cov_jj).
func GetCorrelationMatrix(covMatrix *mat.SymDense) *mat.SymDense {
	n := covMatrix.SymmetricDim()
	corrMatrix := mat.NewSymDense(n, nil)

	for i := range n {
		for j := range i + 1 {
			corr := covMatrix.At(i, j) / math.Sqrt(covMatrix.At(i, i)*covMatrix.At(j, j))
			corrMatrix.SetSym(i, j, corr)
		}
	}

	return corrMatrix
}

// maxConditionNumber bounds how close to singular a matrix may be before its factor is rejected
const maxConditionNumber = 1e12

func GetCholeskyDecomposition(covMatrix *mat.SymDense) (*mat.TriDense, error) {
	chol := new(mat.Cholesky)
	if ok := chol.Factorize(covMatrix); !ok {
		return nil, fmt.Errorf("covariance matrix is not positive definite")
	}

	if c := chol.Cond(); c > maxConditionNumber {
		return nil, fmt.Errorf("covariance matrix is ill conditioned, condition number %.3g", c)
	}

	L := new(mat.TriDense)
	chol.LTo(L)

	return L, nil
}

// ArrToMatrix copies row major observations into a dense matrix
func ArrToMatrix[T ex.Number](rows [][]T) *mat.Dense {
	nObservations := len(rows)
	nSymbols := 0
	if nObservations > 0 {
		nSymbols = len(rows[0])
	}

	res := mat.NewDense(nObservations, nSymbols, nil)
	for i, row := range rows {
		for j, v := range row {
			res.Set(i, j, float64(v))
		}
	}
	return res
}

// SymToRows copies a symmetric matrix out for printing and rendering
func SymToRows(m *mat.SymDense) [][]float64 {
	n := m.SymmetricDim()
	res := make([][]float64, n)
	for i := range n {
		res[i] = make([]float64, n)
		for j := range n {
			res[i][j] = m.At(i, j)
		}
	}
	return res
}

// BuildDiagnostics packages the covariance and its correlation for the optional heatmap
func BuildDiagnostics(tickers []string, covMatrix *mat.SymDense) *sm.Diagnostics {
	return &sm.Diagnostics{
		Tickers:     tickers,
		Correlation: SymToRows(GetCorrelationMatrix(covMatrix)),
		Covariance:  SymToRows(covMatrix),
	}
}
