package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

// Artifact is a decoded model file. Features is nil for bare models.
type Artifact struct {
	Path     string
	Model    Predictor
	Features []string
	Bundled  bool
	LoadedAt time.Time
}

// ModelSpec is the serialized form of a model.
type ModelSpec struct {
	Type         string      `json:"type,omitempty" yaml:"type,omitempty"`
	Coefficients [][]float64 `json:"coefficients,omitempty" yaml:"coefficients,omitempty"`
	Coef         []float64   `json:"coef,omitempty" yaml:"coef,omitempty"`
	Intercept    FloatList   `json:"intercept,omitempty" yaml:"intercept,omitempty"`
	NFeatures    int         `json:"n_features,omitempty" yaml:"n_features,omitempty"`
	Nodes        []TreeNode  `json:"nodes,omitempty" yaml:"nodes,omitempty"`
}

// artifactDoc accepts both layouts: a bundle with "model" and "features"
// keys, or a bare model spec at the top level.
type artifactDoc struct {
	Model     *ModelSpec `json:"model" yaml:"model"`
	Features  []string   `json:"features" yaml:"features"`
	ModelSpec `yaml:",inline"`
}

// FloatList decodes either a single number or a list of numbers.
type FloatList []float64

func (f *FloatList) UnmarshalJSON(data []byte) error {
	var one float64
	if err := json.Unmarshal(data, &one); err == nil {
		*f = FloatList{one}
		return nil
	}
	var many []float64
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("intercept must be a number or a list of numbers: %w", err)
	}
	*f = many
	return nil
}

func (f *FloatList) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var one float64
	if err := unmarshal(&one); err == nil {
		*f = FloatList{one}
		return nil
	}
	var many []float64
	if err := unmarshal(&many); err != nil {
		return fmt.Errorf("intercept must be a number or a list of numbers: %w", err)
	}
	*f = many
	return nil
}

// LoadArtifact reads and decodes the model file at path. Every failure wraps ErrLoadModel.
func LoadArtifact(path string) (*Artifact, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadModel, err)
	}
	artifact, err := DecodeArtifact(payload, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadModel, path, err)
	}
	artifact.Path = path
	return artifact, nil
}

// DecodeArtifact decodes payload as YAML when ext is .yaml or .yml and as JSON otherwise.
func DecodeArtifact(payload []byte, ext string) (*Artifact, error) {
	var doc artifactDoc
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(payload, &doc); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(payload, &doc); err != nil {
			return nil, err
		}
	}

	artifact := &Artifact{LoadedAt: time.Now()}
	spec := doc.ModelSpec
	if doc.Model != nil {
		spec = *doc.Model
		artifact.Bundled = true
		artifact.Features = append([]string{}, doc.Features...)
	}
	if spec.Type == "" {
		return nil, errors.New("artifact has no model")
	}

	model, err := BuildModel(spec)
	if err != nil {
		return nil, err
	}
	artifact.Model = model
	return artifact, nil
}

func BuildModel(spec ModelSpec) (Predictor, error) {
	switch spec.Type {
	case "linear", "linear_regression":
		coef := spec.Coefficients
		if len(coef) == 0 && len(spec.Coef) > 0 {
			coef = [][]float64{spec.Coef}
		}
		return NewLinearRegression(coef, spec.Intercept, spec.NFeatures)
	case "tree", "decision_tree":
		return NewRegressionTree(spec.Nodes, spec.NFeatures)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedModel, spec.Type)
	}
}
