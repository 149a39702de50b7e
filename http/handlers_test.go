package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"ricecast/form"
	"ricecast/ml"
)

const (
	linearBundle = `{"model": {"type": "linear", "coefficients": [[10, 20, 5]], "intercept": 1},
		"features": ["luas_panen", "tadah_hujan", "irigasi"]}`
	staleBundle = `{"model": {"type": "linear", "coefficients": [[10, 20, 5]], "intercept": 1},
		"features": ["a", "b"]}`
	wideBundle = `{"model": {"type": "linear", "coef": [1, 2, 3, 4, 5], "intercept": 0},
		"features": ["a", "b", "c"]}`
	treeModel = `{"type": "tree", "nodes": [{"feature_idx": -1, "left_child": -1, "right_child": -1, "value": 42, "is_leaf": true}]}`
)

func writeModel(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write model: %v", err)
	}
	return path
}

func newTestHandler(t *testing.T, path string) http.Handler {
	t.Helper()
	registry, err := ml.NewRegistry(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	app := NewApp(ml.NewHolder(path, registry), AppOptions{Logger: zap.NewNop()})
	return NewHandler(DefaultServerConfig(), app, zap.NewNop())
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func postForm(t *testing.T, h http.Handler, values url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthHandler(t *testing.T) {
	rr := get(t, newTestHandler(t, writeModel(t, linearBundle)), "/api/health")

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}
	expected := `{"status":"ok"}`
	if rr.Body.String() != expected+"\n" {
		t.Errorf("handler returned unexpected body: got %v want %v", rr.Body.String(), expected)
	}
}

func TestIndexRendersForm(t *testing.T) {
	w := get(t, newTestHandler(t, writeModel(t, linearBundle)), "/")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if n := strings.Count(body, `type="number"`); n != 3 {
		t.Fatalf("expected 3 inputs, got %d", n)
	}
	for _, label := range []string{"Luas Panen", "Tadah Hujan", "Irigasi", "Prediksi Produksi Padi"} {
		if !strings.Contains(body, label) {
			t.Fatalf("expected %q on the page", label)
		}
	}
	if strings.Contains(body, `id="prediction"`) {
		t.Fatal("index must not predict")
	}
	if n := strings.Count(body, "<tr><td>"); n != 3 {
		t.Fatalf("expected 3 coefficient rows, got %d", n)
	}
}

func TestIndexStaleBundleUsesPlaceholder(t *testing.T) {
	body := get(t, newTestHandler(t, writeModel(t, staleBundle)), "/").Body.String()
	if n := strings.Count(body, `type="number"`); n != 3 {
		t.Fatalf("expected 3 inputs, got %d", n)
	}
	if !strings.Contains(body, "Feature 3") {
		t.Fatal("expected placeholder label Feature 3")
	}
	if !strings.Contains(body, "model expects 3 features but 2 feature names are known") {
		t.Fatal("expected mismatch warning")
	}
	if n := strings.Count(body, "<tr><td>"); n != 2 {
		t.Fatalf("expected 2 coefficient rows, got %d", n)
	}
}

func TestIndexLoadFailure(t *testing.T) {
	h := newTestHandler(t, filepath.Join(t.TempDir(), "missing.json"))
	for i := 0; i < 2; i++ {
		w := get(t, h, "/")
		if w.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", w.Code)
		}
		body := w.Body.String()
		if strings.Contains(body, "<form") || strings.Contains(body, "Model Information") {
			t.Fatal("load failure must not render the form or info panel")
		}
		if !strings.Contains(body, "failed to load model") {
			t.Fatalf("expected load error on the page, got %s", body)
		}
	}
}

func TestInfoPanelTruncatesCoefficients(t *testing.T) {
	body := get(t, newTestHandler(t, writeModel(t, wideBundle)), "/").Body.String()
	if n := strings.Count(body, "<tr><td>"); n != 3 {
		t.Fatalf("expected 3 coefficient rows, got %d", n)
	}
	if strings.Contains(body, "<td>4</td>") || strings.Contains(body, "<td>5</td>") {
		t.Fatal("expected only the first 3 coefficients")
	}
	if n := strings.Count(body, `type="number"`); n != 5 {
		t.Fatalf("expected 5 inputs, got %d", n)
	}
}

func TestInfoPanelFallback(t *testing.T) {
	body := get(t, newTestHandler(t, writeModel(t, treeModel)), "/").Body.String()
	if !strings.Contains(body, form.NoCoefficientsNotice) {
		t.Fatal("expected fallback notice")
	}
	if strings.Contains(body, `id="coefficients"`) {
		t.Fatal("expected no coefficient table")
	}
	if !strings.Contains(body, "Luas Panen") {
		t.Fatal("expected default feature labels for a bare model")
	}
}

func TestHandlePredict(t *testing.T) {
	h := newTestHandler(t, writeModel(t, linearBundle))
	values := url.Values{"f0": {"2.5"}, "f1": {"1.0"}, "f2": {"0.5"}}

	var first string
	for i := 0; i < 3; i++ {
		w := postForm(t, h, values)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		body := w.Body.String()
		if !strings.Contains(body, "<strong>48.50</strong>") {
			t.Fatalf("expected formatted prediction, got %s", body)
		}
		if !strings.Contains(body, `value="2.5"`) {
			t.Fatal("expected submitted value echoed into the form")
		}
		start := strings.Index(body, `id="prediction"`)
		result := body[start : start+120]
		if i == 0 {
			first = result
		} else if result != first {
			t.Fatalf("prediction changed between identical submissions: %q vs %q", first, result)
		}
	}
}

func TestHandlePredictThousands(t *testing.T) {
	h := newTestHandler(t, writeModel(t, linearBundle))
	w := postForm(t, h, url.Values{"f0": {"100"}, "f1": {"10"}})
	if !strings.Contains(w.Body.String(), "<strong>1,201.00</strong>") {
		t.Fatalf("expected grouped prediction, got %s", w.Body.String())
	}
}

func TestHandlePredictRejectsNegative(t *testing.T) {
	h := newTestHandler(t, writeModel(t, linearBundle))
	w := postForm(t, h, url.Values{"f0": {"-1"}})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), `id="prediction"`) {
		t.Fatal("invalid input must not predict")
	}
	if !strings.Contains(w.Body.String(), form.ErrNegativeInput.Error()) {
		t.Fatal("expected validation message")
	}
}

func TestHandlePredictLoadFailure(t *testing.T) {
	h := newTestHandler(t, filepath.Join(t.TempDir(), "missing.json"))
	w := postForm(t, h, url.Values{"f0": {"1"}})
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "<form") {
		t.Fatal("load failure must not render the form")
	}
}

func TestAPIPredict(t *testing.T) {
	h := newTestHandler(t, writeModel(t, linearBundle))

	body := `{"values": {"luas_panen": 2.5, "tadah_hujan": 1, "irigasi": 0.5}}`
	req := httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var payload predictResponse
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if payload.Prediction != 48.5 || payload.Formatted != "48.50" {
		t.Fatalf("unexpected payload: %+v", payload)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(`{"inputs": [1, 2]}`))
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for short input, got %d", w.Code)
	}
}

func TestAPIModelReload(t *testing.T) {
	path := writeModel(t, linearBundle)
	h := newTestHandler(t, path)

	var info modelInfoResponse
	w := get(t, h, "/api/model")
	if err := json.Unmarshal(w.Body.Bytes(), &info); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if info.Expected != 3 || !info.Info.Available || info.Labels[0] != "Luas Panen" {
		t.Fatalf("unexpected model info: %+v", info)
	}

	if err := os.WriteFile(path, []byte(treeModel), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	w = get(t, h, "/api/model")
	info = modelInfoResponse{}
	json.Unmarshal(w.Body.Bytes(), &info)
	if !info.Info.Available {
		t.Fatal("expected cached model until reload")
	}

	req := httptest.NewRequest(http.MethodPost, "/api/model/reload", nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	info = modelInfoResponse{}
	json.Unmarshal(w.Body.Bytes(), &info)
	if info.Info.Available || info.Bundled {
		t.Fatalf("expected reloaded tree model, got %+v", info)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	h := RecoveryMiddleware(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}
