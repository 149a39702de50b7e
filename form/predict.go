package form

import (
	"fmt"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gonum.org/v1/gonum/mat"

	"ricecast/ml"
)

// Predict runs one forward pass over a single-row batch built from inputs.
func Predict(model ml.Predictor, inputs []float64) (float64, error) {
	if len(inputs) == 0 {
		return 0, ErrNoInputs
	}
	row := mat.NewDense(1, len(inputs), append([]float64(nil), inputs...))
	out, err := model.Predict(row)
	if err != nil {
		return 0, err
	}
	if len(out) == 0 {
		return 0, fmt.Errorf("model returned no prediction")
	}
	return out[0], nil
}

// NumberFormatter prints values with the locale's grouping separators and two decimals.
type NumberFormatter struct {
	printer *message.Printer
}

func NewNumberFormatter(tag language.Tag) *NumberFormatter {
	return &NumberFormatter{printer: message.NewPrinter(tag)}
}

func (f *NumberFormatter) Format(v float64) string {
	return f.printer.Sprintf("%.2f", v)
}

// FormatNumber formats v the way results are shown, e.g. 1234.5 as "1,234.50".
func FormatNumber(v float64) string {
	return NewNumberFormatter(language.English).Format(v)
}

// FormatInput renders an input value back into a form field.
func FormatInput(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
