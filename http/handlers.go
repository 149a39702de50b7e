package http

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"ricecast/form"
	"ricecast/ml"
)

//go:embed templates/page.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/page.html"))

// App serves the prediction page and its JSON counterparts for one model file.
type App struct {
	holder    *ml.Holder
	texts     form.Texts
	defaults  []string
	formatter *form.NumberFormatter
	logger    *zap.Logger

	mu        sync.Mutex
	warnedFor *ml.Artifact
}

type AppOptions struct {
	Texts           form.Texts
	DefaultFeatures []string
	Formatter       *form.NumberFormatter
	Logger          *zap.Logger
}

func NewApp(holder *ml.Holder, opts AppOptions) *App {
	if opts.Texts.Title == "" {
		opts.Texts = form.DefaultTexts
	}
	if opts.Formatter == nil {
		opts.Formatter = form.NewNumberFormatter(language.English)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &App{
		holder:    holder,
		texts:     opts.Texts,
		defaults:  opts.DefaultFeatures,
		formatter: opts.Formatter,
		logger:    opts.Logger,
	}
}

func (a *App) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", a.handleIndex)
	mux.HandleFunc("POST /predict", a.handlePredict)
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("GET /api/model", a.handleModelInfo)
	mux.HandleFunc("POST /api/predict", a.handleAPIPredict)
	mux.HandleFunc("POST /api/model/reload", a.handleReload)
}

// resolve loads (or reuses) the artifact and resolves its features.
func (a *App) resolve() (*ml.Artifact, ml.Resolution, error) {
	artifact, err := a.holder.Get()
	if err != nil {
		a.logger.Error("model unavailable", zap.String("path", a.holder.Path()), zap.Error(err))
		return nil, ml.Resolution{}, err
	}
	res := ml.Resolve(artifact, a.defaults)
	a.warnOnce(artifact, res.Warnings)
	return artifact, res, nil
}

func (a *App) warnOnce(artifact *ml.Artifact, warnings []string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.warnedFor == artifact {
		return
	}
	a.warnedFor = artifact
	for _, w := range warnings {
		a.logger.Warn("model bundle mismatch", zap.String("path", artifact.Path), zap.String("warning", w))
	}
}

func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	_, res, err := a.resolve()
	if err != nil {
		a.renderPage(w, http.StatusServiceUnavailable, form.ErrorPage(a.texts, err))
		return
	}
	a.renderPage(w, http.StatusOK, form.NewPage(a.texts, res))
}

func (a *App) handlePredict(w http.ResponseWriter, r *http.Request) {
	_, res, err := a.resolve()
	if err != nil {
		a.renderPage(w, http.StatusServiceUnavailable, form.ErrorPage(a.texts, err))
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}

	page := form.NewPage(a.texts, res)
	inputs, err := form.ParseInputs(r.PostForm, page.Fields)
	if err != nil {
		page.Errors = errorStrings(err)
		a.renderPage(w, http.StatusUnprocessableEntity, page)
		return
	}

	value, err := form.Predict(res.Model, inputs)
	if err != nil {
		a.logger.Error("prediction failed", zap.Error(err), zap.Float64s("inputs", inputs))
		page.Errors = []string{"prediction failed: " + err.Error()}
		a.renderPage(w, http.StatusInternalServerError, page)
		return
	}
	page.Result = &form.Result{Value: value, Formatted: a.formatter.Format(value)}
	a.renderPage(w, http.StatusOK, page)
}

func (a *App) renderPage(w http.ResponseWriter, status int, page *form.Page) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, page); err != nil {
		a.logger.Error("render page", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type modelInfoResponse struct {
	Path     string         `json:"path"`
	LoadedAt time.Time      `json:"loaded_at"`
	Bundled  bool           `json:"bundled"`
	Expected int            `json:"expected_features"`
	Features []string       `json:"features"`
	Names    []string       `json:"input_names"`
	Labels   []string       `json:"labels"`
	Warnings []string       `json:"warnings,omitempty"`
	Info     form.InfoPanel `json:"info"`
}

func (a *App) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	artifact, res, err := a.resolve()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, a.modelInfo(artifact, res))
}

func (a *App) modelInfo(artifact *ml.Artifact, res ml.Resolution) modelInfoResponse {
	labels := make([]string, len(res.Names))
	for i, name := range res.Names {
		labels[i] = form.Label(name)
	}
	return modelInfoResponse{
		Path:     artifact.Path,
		LoadedAt: artifact.LoadedAt,
		Bundled:  artifact.Bundled,
		Expected: res.Expected,
		Features: res.Features,
		Names:    res.Names,
		Labels:   labels,
		Warnings: res.Warnings,
		Info:     form.BuildInfoPanel(res.Model, res.Features),
	}
}

// predictRequest carries either an ordered Inputs list or Values keyed by
// input name.
type predictRequest struct {
	Inputs []float64          `json:"inputs"`
	Values map[string]float64 `json:"values"`
}

type predictResponse struct {
	Prediction float64   `json:"prediction"`
	Formatted  string    `json:"formatted"`
	Inputs     []float64 `json:"inputs"`
}

func (a *App) handleAPIPredict(w http.ResponseWriter, r *http.Request) {
	_, res, err := a.resolve()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}

	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var inputs []float64
	switch {
	case req.Inputs != nil && req.Values != nil:
		writeError(w, http.StatusBadRequest, errors.New("send either inputs or values, not both"))
		return
	case req.Values != nil:
		inputs, err = form.VectorFromMap(res.Names, req.Values)
	default:
		inputs = req.Inputs
		err = form.ValidateInputs(res.Names, inputs)
	}
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	value, err := form.Predict(res.Model, inputs)
	if err != nil {
		a.logger.Error("prediction failed", zap.Error(err), zap.Float64s("inputs", inputs))
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, predictResponse{
		Prediction: value,
		Formatted:  a.formatter.Format(value),
		Inputs:     inputs,
	})
}

func (a *App) handleReload(w http.ResponseWriter, r *http.Request) {
	artifact, err := a.holder.Reload()
	if err != nil {
		a.logger.Error("model reload failed", zap.String("path", a.holder.Path()), zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	a.logger.Info("model reloaded", zap.String("path", artifact.Path))
	res := ml.Resolve(artifact, a.defaults)
	a.warnOnce(artifact, res.Warnings)
	writeJSON(w, http.StatusOK, a.modelInfo(artifact, res))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]interface{}{
		"error":   err.Error(),
		"details": errorStrings(err),
	})
}

func errorStrings(err error) []string {
	errs := multierr.Errors(err)
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Error()
	}
	return out
}
