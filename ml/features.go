package ml

import "fmt"

// DefaultFeatureNames is used for bare models that carry no feature metadata.
var DefaultFeatureNames = []string{"luas_panen", "tadah_hujan", "irigasi"}

// Resolution is the model together with the ordered input names the form
// collects for it.
type Resolution struct {
	Model    Predictor
	Features []string
	Expected int
	Names    []string
	Warnings []string
}

// Resolve picks the predictor and feature names from an artifact. Names has
// exactly Expected entries; positions without a declared name get
// feature_<n> placeholders.
func Resolve(artifact *Artifact, defaults []string) Resolution {
	if len(defaults) == 0 {
		defaults = DefaultFeatureNames
	}
	res := Resolution{Model: artifact.Model}

	switch {
	case artifact.Bundled && len(artifact.Features) > 0:
		res.Features = append([]string(nil), artifact.Features...)
	case artifact.Bundled:
		res.Features = append([]string(nil), defaults...)
		res.Warnings = append(res.Warnings, "model bundle lists no features, using default feature names")
	default:
		res.Features = append([]string(nil), defaults...)
	}

	res.Expected = len(res.Features)
	if dim, ok := artifact.Model.(InputDimensioner); ok && dim.NumFeatures() > 0 {
		res.Expected = dim.NumFeatures()
	}

	if res.Expected != len(res.Features) {
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"model expects %d features but %d feature names are known", res.Expected, len(res.Features)))
	}

	res.Names = make([]string, res.Expected)
	for i := range res.Names {
		res.Names[i] = FeatureName(res.Features, i)
	}
	return res
}

func FeatureName(features []string, i int) string {
	if i < len(features) {
		return features[i]
	}
	return fmt.Sprintf("feature_%d", i+1)
}
