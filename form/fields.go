// Package form turns a resolved model into form fields, parses submitted
// values and formats results for display.
package form

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/multierr"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrNegativeInput = errors.New("value must be at least 0")
	ErrNoInputs      = errors.New("no inputs")
)

// MinValue is the lower bound of every input field.
const MinValue = 0.0

// Field is one numeric input of the prediction form.
type Field struct {
	Index int
	Name  string
	Input string
	Label string
	Min   float64
	Value string
	Error string
}

// Label turns a feature name such as "luas_panen" into "Luas Panen".
func Label(name string) string {
	caser := cases.Title(language.Und)
	return caser.String(strings.ReplaceAll(name, "_", " "))
}

// InputName is the HTML name of the field at index i.
func InputName(i int) string {
	return "f" + strconv.Itoa(i)
}

func Fields(names []string) []Field {
	fields := make([]Field, len(names))
	for i, name := range names {
		fields[i] = Field{
			Index: i,
			Name:  name,
			Input: InputName(i),
			Label: Label(name),
			Min:   MinValue,
			Value: FormatInput(0),
		}
	}
	return fields
}

// ParseInputs reads one value per field from the submitted form, in field
// order. Missing or blank values count as 0. The submitted text is echoed into
// fields so the form can be rendered again with the user's values.
func ParseInputs(values url.Values, fields []Field) ([]float64, error) {
	inputs := make([]float64, len(fields))
	var errs error
	for i := range fields {
		raw := strings.TrimSpace(values.Get(fields[i].Input))
		fields[i].Value = raw
		if raw == "" {
			fields[i].Value = FormatInput(0)
			continue
		}
		v, err := parseValue(raw)
		if err != nil {
			fields[i].Error = err.Error()
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", fields[i].Label, err))
			continue
		}
		inputs[i] = v
	}
	if errs != nil {
		return nil, errs
	}
	return inputs, nil
}

func parseValue(raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidInput, raw)
	}
	if v < MinValue {
		return 0, ErrNegativeInput
	}
	return v, nil
}

// VectorFromMap orders named values by names. Absent names count as 0.
func VectorFromMap(names []string, values map[string]float64) ([]float64, error) {
	known := make(map[string]bool, len(names))
	inputs := make([]float64, len(names))
	for i, name := range names {
		known[name] = true
		inputs[i] = values[name]
	}
	var errs error
	for name := range values {
		if !known[name] {
			errs = multierr.Append(errs, fmt.Errorf("%w: unknown feature %q", ErrInvalidInput, name))
		}
	}
	if errs != nil {
		return nil, errs
	}
	return inputs, ValidateInputs(names, inputs)
}

// ValidateInputs checks an already ordered vector against the field rules.
func ValidateInputs(names []string, inputs []float64) error {
	if len(inputs) != len(names) {
		return fmt.Errorf("%w: got %d values, want %d", ErrInvalidInput, len(inputs), len(names))
	}
	var errs error
	for i, v := range inputs {
		switch {
		case math.IsNaN(v) || math.IsInf(v, 0):
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", names[i], ErrInvalidInput))
		case v < MinValue:
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", names[i], ErrNegativeInput))
		}
	}
	return errs
}
