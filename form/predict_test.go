package form

import (
	"errors"
	"testing"

	"gonum.org/v1/gonum/mat"

	"ricecast/ml"
)

type countingModel struct {
	calls int
	rows  int
	cols  int
}

func (m *countingModel) Predict(x mat.Matrix) ([]float64, error) {
	m.calls++
	m.rows, m.cols = x.Dims()
	return []float64{float64(m.cols) * 1.5}, nil
}

func mustLinear(t *testing.T, coef []float64, intercept float64) *ml.LinearRegression {
	t.Helper()
	model, err := ml.NewLinearRegression([][]float64{coef}, []float64{intercept}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return model
}

func TestPredictLinear(t *testing.T) {
	model := mustLinear(t, []float64{10, 20, 5}, 1)
	value, err := Predict(model, []float64{2.5, 1.0, 0.5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := FormatNumber(value); got != "48.50" {
		t.Fatalf("expected 48.50, got %s", got)
	}
}

func TestPredictBuildsSingleRow(t *testing.T) {
	model := &countingModel{}
	value, err := Predict(model, []float64{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if model.rows != 1 || model.cols != 4 {
		t.Fatalf("expected a 1x4 batch, got %dx%d", model.rows, model.cols)
	}
	if value != 6 {
		t.Fatalf("expected 6, got %v", value)
	}
}

func TestPredictIsIdempotent(t *testing.T) {
	model := mustLinear(t, []float64{1.25, 3, 7}, 0.5)
	inputs := []float64{4, 0, 2}
	first, err := Predict(model, inputs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := Predict(model, inputs)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if again != first {
			t.Fatalf("expected %v, got %v on call %d", first, again, i)
		}
	}
	if inputs[0] != 4 || inputs[2] != 2 {
		t.Fatalf("inputs modified: %v", inputs)
	}
}

func TestPredictErrors(t *testing.T) {
	if _, err := Predict(&countingModel{}, nil); !errors.Is(err, ErrNoInputs) {
		t.Fatalf("expected ErrNoInputs, got %v", err)
	}
	model := mustLinear(t, []float64{1, 2, 3}, 0)
	if _, err := Predict(model, []float64{1, 2}); !errors.Is(err, ml.ErrDimension) {
		t.Fatalf("expected ErrDimension, got %v", err)
	}
}

func TestFormatNumber(t *testing.T) {
	cases := map[float64]string{
		27.5:        "27.50",
		0:           "0.00",
		1234.5:      "1,234.50",
		1234567.891: "1,234,567.89",
	}
	for in, want := range cases {
		if got := FormatNumber(in); got != want {
			t.Fatalf("FormatNumber(%v) = %q, want %q", in, got, want)
		}
	}
}
