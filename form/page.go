package form

import "ricecast/ml"

// Page is everything the prediction page template renders. When LoadError is
// set the page shows only the error.
type Page struct {
	Title     string
	Heading   string
	Intro     string
	Caption   string
	LoadError string
	Loaded    string
	Expected  int
	Warnings  []string
	Fields    []Field
	Result    *Result
	Errors    []string
	Info      InfoPanel
}

type Result struct {
	Value     float64
	Formatted string
}

// Texts are the static strings shown on the page.
type Texts struct {
	Title   string
	Intro   string
	Caption string
}

var DefaultTexts = Texts{
	Title:   "Prediksi Produksi Padi",
	Intro:   "This app uses a model trained offline and loaded from disk.",
	Caption: "The model was trained in a notebook and is only loaded here, never retrained.",
}

// NewPage builds the page for a resolved model with default field values.
func NewPage(texts Texts, res ml.Resolution) *Page {
	return &Page{
		Title:    texts.Title,
		Heading:  texts.Title,
		Intro:    texts.Intro,
		Caption:  texts.Caption,
		Loaded:   "Model loaded",
		Expected: res.Expected,
		Warnings: res.Warnings,
		Fields:   Fields(res.Names),
		Info:     BuildInfoPanel(res.Model, res.Features),
	}
}

// ErrorPage is the terminal state shown when the model cannot be loaded.
func ErrorPage(texts Texts, err error) *Page {
	return &Page{
		Title:     texts.Title,
		Heading:   texts.Title,
		LoadError: err.Error(),
	}
}
