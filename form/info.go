package form

import (
	"fmt"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"ricecast/ml"
)

const NoCoefficientsNotice = "Coefficient information is not available for this model."

type CoefficientRow struct {
	Feature     string  `json:"feature"`
	Coefficient float64 `json:"coefficient"`
}

// InfoPanel describes a linear model's weights. Available is false for models
// that do not report coefficients, in which case Notice is set instead.
type InfoPanel struct {
	Available bool             `json:"available"`
	Rows      []CoefficientRow `json:"rows,omitempty"`
	Intercept string           `json:"intercept,omitempty"`
	Notice    string           `json:"notice,omitempty"`
}

// BuildInfoPanel pairs features with the first output's coefficients. The
// table is cut to the shorter of the two lists.
func BuildInfoPanel(model ml.Predictor, features []string) InfoPanel {
	reporter, ok := model.(ml.CoefficientReporter)
	if !ok {
		return InfoPanel{Notice: NoCoefficientsNotice}
	}
	coef := reporter.Coefficients()
	if coef == nil || coef.IsEmpty() {
		return InfoPanel{Notice: NoCoefficientsNotice}
	}

	first := mat.Row(nil, 0, coef)
	n := min(len(features), len(first))

	rows := make([]CoefficientRow, n)
	for i := 0; i < n; i++ {
		rows[i] = CoefficientRow{Feature: features[i], Coefficient: first[i]}
	}
	return InfoPanel{
		Available: true,
		Rows:      rows,
		Intercept: formatIntercept(reporter.Intercept()),
	}
}

func formatIntercept(b []float64) string {
	if len(b) == 1 {
		return strconv.FormatFloat(b[0], 'g', -1, 64)
	}
	return fmt.Sprint(b)
}
