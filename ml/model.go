package ml

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrLoadModel        = errors.New("failed to load model")
	ErrUnsupportedModel = errors.New("unsupported model type")
	ErrDimension        = errors.New("input dimension mismatch")
	ErrNotFitted        = errors.New("model has no parameters")
)

// Predictor runs a forward pass over a batch of rows and returns one value per row.
type Predictor interface {
	Predict(x mat.Matrix) ([]float64, error)
}

// CoefficientReporter is implemented by linear models. Coefficients has one
// row per output.
type CoefficientReporter interface {
	Coefficients() *mat.Dense
	Intercept() []float64
}

// InputDimensioner is implemented by models that know how many inputs they
// were trained on. Zero means unknown.
type InputDimensioner interface {
	NumFeatures() int
}
