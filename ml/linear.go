package ml

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// LinearRegression is an ordinary least squares model fitted elsewhere. Only
// the first output row is used for prediction.
type LinearRegression struct {
	coef      *mat.Dense
	intercept []float64
	nFeatures int
}

func NewLinearRegression(coef [][]float64, intercept []float64, nFeatures int) (*LinearRegression, error) {
	if len(coef) == 0 || len(coef[0]) == 0 {
		return nil, ErrNotFitted
	}
	cols := len(coef[0])
	data := make([]float64, 0, len(coef)*cols)
	for i, row := range coef {
		if len(row) != cols {
			return nil, fmt.Errorf("coefficient row %d has %d values, want %d", i, len(row), cols)
		}
		data = append(data, row...)
	}
	if nFeatures < 0 {
		return nil, errors.New("n_features must not be negative")
	}
	if nFeatures > 0 && nFeatures != cols {
		return nil, fmt.Errorf("%w: n_features is %d but coefficients have %d columns", ErrDimension, nFeatures, cols)
	}

	b := make([]float64, len(coef))
	copy(b, intercept)

	return &LinearRegression{
		coef:      mat.NewDense(len(coef), cols, data),
		intercept: b,
		nFeatures: nFeatures,
	}, nil
}

func (lr *LinearRegression) Predict(x mat.Matrix) ([]float64, error) {
	rows, cols := x.Dims()
	_, want := lr.coef.Dims()
	if cols != want {
		return nil, fmt.Errorf("%w: got %d inputs, model has %d coefficients", ErrDimension, cols, want)
	}

	weights := mat.NewVecDense(want, mat.Row(nil, 0, lr.coef))
	var y mat.VecDense
	y.MulVec(x, weights)

	out := make([]float64, rows)
	for i := range out {
		out[i] = y.AtVec(i) + lr.intercept[0]
	}
	return out, nil
}

func (lr *LinearRegression) Coefficients() *mat.Dense {
	return mat.DenseCopyOf(lr.coef)
}

func (lr *LinearRegression) Intercept() []float64 {
	return append([]float64(nil), lr.intercept...)
}

// NumFeatures reports n_features from the artifact, or the coefficient width
// when the artifact did not record it.
func (lr *LinearRegression) NumFeatures() int {
	if lr.nFeatures > 0 {
		return lr.nFeatures
	}
	_, cols := lr.coef.Dims()
	return cols
}
