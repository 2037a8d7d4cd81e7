package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"go.uber.org/zap/zapcore"

	"churnpredict/churn"
	"churnpredict/ml"
	"churnpredict/predict"
)

type fakePredictor struct {
	ready   bool
	outcome churn.Outcome
	err     error
	got     []churn.Request
}

func (f *fakePredictor) Ready() bool { return f.ready }

func (f *fakePredictor) Predict(ctx context.Context, req churn.Request) (churn.Outcome, error) {
	f.got = append(f.got, req)
	if !f.ready {
		return churn.Outcome{}, predict.ErrModelUnavailable
	}
	return f.outcome, f.err
}

func mustOutcome(t *testing.T, label int, p float64) churn.Outcome {
	t.Helper()
	o, err := churn.NewOutcome(label, p)
	require.NoError(t, err)
	return o
}

func newTestServer(t *testing.T, p Predictor, modelErrors []string) *Server {
	t.Helper()
	return NewServer(DefaultServerConfig(), NewHandlers(p, modelErrors, zap.NewNop()), zap.NewNop())
}

func do(t *testing.T, srv *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	return rr
}

func postForm(values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestFormShowsDefaults(t *testing.T) {
	srv := newTestServer(t, &fakePredictor{ready: true}, nil)

	rr := do(t, srv, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
	body := rr.Body.String()
	assert.Contains(t, body, "Customer Churn Prediction")
	assert.Contains(t, body, "Predict Churn")
	assert.Contains(t, body, `<option value="Male" selected>Male</option>`)
	assert.Contains(t, body, `name="Tenure Months" value="1"`)
	assert.Contains(t, body, `name="Monthly Charges" value="50.00"`)
	assert.Contains(t, body, "0 to 72")
	assert.NotContains(t, body, `id="headline"`)
	assert.NotContains(t, body, "alert-error")
}

func TestFormRejectsUnknownPath(t *testing.T) {
	srv := newTestServer(t, &fakePredictor{ready: true}, nil)

	rr := do(t, srv, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestPredictFormChurn(t *testing.T) {
	fake := &fakePredictor{ready: true, outcome: mustOutcome(t, 1, 0.8734)}
	srv := newTestServer(t, fake, nil)

	values := url.Values{}
	values.Set(churn.ColContract, "Month-to-month")
	values.Set(churn.ColInternetService, "Fiber optic")
	values.Set(churn.ColTenureMonths, "2")
	values.Set(churn.ColMonthlyCharges, "99.5")
	rr := do(t, srv, postForm(values))

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "This customer is likely to churn!")
	assert.NotContains(t, body, "This customer is likely to stay!")
	assert.Contains(t, body, "Probability of churn: 87.34%")
	assert.Contains(t, body, "Recommendations to prevent churn:")
	assert.Contains(t, body, "Consider offering a loyalty discount")
	assert.Equal(t, 1, strings.Count(body, "<li>Consider upgrading their service</li>"))

	// Submitted values are kept in the form.
	assert.Contains(t, body, `<option value="Fiber optic" selected>Fiber optic</option>`)
	assert.Contains(t, body, `name="Monthly Charges" value="99.50"`)

	require.Len(t, fake.got, 1)
	assert.Equal(t, "Fiber optic", fake.got[0].InternetService)
	assert.Equal(t, 2, fake.got[0].TenureMonths)
	assert.Equal(t, "Male", fake.got[0].Gender)
}

func TestPredictFormStay(t *testing.T) {
	fake := &fakePredictor{ready: true, outcome: mustOutcome(t, 0, 0.1)}
	srv := newTestServer(t, fake, nil)

	rr := do(t, srv, postForm(url.Values{}))

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "This customer is likely to stay!")
	assert.NotContains(t, body, "This customer is likely to churn!")
	assert.Contains(t, body, "Customer retention is strong!")
	assert.Contains(t, body, "Probability of churn: 10.00%")
	assert.Contains(t, body, "Maintain regular communication")
}

func TestPredictFormBundledModelDefaults(t *testing.T) {
	modelsDir := filepath.Join("..", "models")
	loader := ml.NewLoader(ml.DefaultArtifactName, zap.NewNop(), modelsDir)
	model, path, err := loader.Load()
	require.NoError(t, err)
	require.Equal(t, loader.Candidates[0], path)
	require.Equal(t, filepath.Join(modelsDir, ml.DefaultArtifactName), path)

	service, err := predict.NewService(model)
	require.NoError(t, err)
	srv := newTestServer(t, service, nil)

	rr := do(t, srv, postForm(url.Values{}))

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	churns := strings.Count(body, "This customer is likely to churn!")
	stays := strings.Count(body, "This customer is likely to stay!")
	assert.Equal(t, 1, churns+stays, "exactly one headline expected")

	headline := strings.Index(body, `id="headline"`)
	probability := strings.Index(body, `id="probability"`)
	require.NotEqual(t, -1, headline)
	require.NotEqual(t, -1, probability)
	assert.Greater(t, probability, headline)
	assert.Regexp(t, `Probability of churn: \d+\.\d{2}%`, body)
}

func TestPredictFormInvalidValues(t *testing.T) {
	fake := &fakePredictor{ready: true, outcome: mustOutcome(t, 0, 0.1)}
	srv := newTestServer(t, fake, nil)

	values := url.Values{}
	values.Set(churn.ColTenureMonths, "73")
	values.Set(churn.ColGender, "Other")
	values.Set(churn.ColChurnScore, "abc")
	rr := do(t, srv, postForm(values))

	require.Equal(t, http.StatusBadRequest, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Tenure Months: must be at most 72")
	assert.Contains(t, body, "Churn Score: must be a whole number")
	assert.Contains(t, body, "Gender:")
	assert.NotContains(t, body, `id="headline"`)
	assert.Empty(t, fake.got)
}

func TestPredictFormWithoutModel(t *testing.T) {
	modelErrors := []string{
		"Model file not found. Please ensure 'churn_pipeline.json' exists in the project directory or models folder.",
	}
	srv := newTestServer(t, &fakePredictor{}, modelErrors)

	page := do(t, srv, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), "Model file not found.")

	rr := do(t, srv, postForm(url.Values{}))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Model file not found.")
	assert.Contains(t, body, "The prediction model is not loaded")
	assert.NotContains(t, body, `id="headline"`)
}

func TestPredictFormModelFailure(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	fake := &fakePredictor{ready: true, err: errors.New("encode: missing column")}
	srv := NewServer(DefaultServerConfig(), NewHandlers(fake, nil, zap.New(core)), zap.NewNop())

	rr := do(t, srv, postForm(url.Values{}))

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "Prediction failed: encode: missing column")
	assert.Equal(t, 1, logs.FilterMessage("prediction failed").Len())
}

func TestStaticAssets(t *testing.T) {
	srv := newTestServer(t, &fakePredictor{ready: true}, nil)

	rr := do(t, srv, httptest.NewRequest(http.MethodGet, "/static/style.css", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/css")
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name   string
		ready  bool
		errors []string
		want   healthResponse
	}{
		{
			name:  "loaded",
			ready: true,
			want:  healthResponse{Status: "ok", ModelLoaded: true},
		},
		{
			name:   "missing model",
			errors: []string{"Model file not found."},
			want:   healthResponse{Status: "ok", ModelErrors: []string{"Model file not found."}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &fakePredictor{ready: tt.ready}, tt.errors)

			rr := do(t, srv, httptest.NewRequest(http.MethodGet, "/api/health", nil))

			require.Equal(t, http.StatusOK, rr.Code)
			var got healthResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFieldsAPI(t *testing.T) {
	srv := newTestServer(t, &fakePredictor{ready: true}, nil)

	rr := do(t, srv, httptest.NewRequest(http.MethodGet, "/api/fields", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var got map[string][]churn.Section
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	layout := churn.Layout()
	assert.Equal(t, layout[0], got["left"])
	assert.Equal(t, layout[1], got["right"])
}

func TestPredictAPI(t *testing.T) {
	fake := &fakePredictor{ready: true, outcome: mustOutcome(t, 1, 0.65)}
	srv := newTestServer(t, fake, nil)

	body := `{"Contract": "Month-to-month", "Tenure Months": 3, "Monthly Charges": 80.25}`
	req := httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(body))
	rr := do(t, srv, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var got predictResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, 1, got.Label)
	assert.InDelta(t, 0.65, got.Probability, 1e-9)
	assert.Equal(t, "Probability of churn: 65.00%", got.ProbabilityText)
	assert.Equal(t, "This customer is likely to churn!", got.Headline)
	assert.Len(t, got.Insights, 4)

	require.Len(t, fake.got, 1)
	assert.Equal(t, 3, fake.got[0].TenureMonths)
	assert.InDelta(t, 80.25, fake.got[0].MonthlyCharges, 1e-9)
	// Keys left out keep their widget default.
	assert.Equal(t, 3000, fake.got[0].CLTV)
}

func TestPredictAPIErrors(t *testing.T) {
	tests := []struct {
		name       string
		ready      bool
		body       string
		wantStatus int
		wantError  string
		wantFields []churn.FieldError
	}{
		{
			name:       "malformed json",
			ready:      true,
			body:       `{"Contract":`,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid request body",
		},
		{
			name:       "unknown column",
			ready:      true,
			body:       `{"Favourite Colour": "blue"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid request body",
		},
		{
			name:       "out of range",
			ready:      true,
			body:       `{"Churn Score": 101}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid form values",
			wantFields: []churn.FieldError{{Column: "Churn Score", Reason: "must be at most 100"}},
		},
		{
			name:       "model missing",
			body:       `{}`,
			wantStatus: http.StatusServiceUnavailable,
			wantError:  predict.ErrModelUnavailable.Error(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &fakePredictor{ready: tt.ready}, nil)

			req := httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(tt.body))
			rr := do(t, srv, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			var got errorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
			assert.Contains(t, got.Error, tt.wantError)
			assert.Equal(t, tt.wantFields, got.Fields)
		})
	}
}

func TestPredictAPIMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, &fakePredictor{ready: true}, nil)

	rr := do(t, srv, httptest.NewRequest(http.MethodGet, "/api/predict", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
