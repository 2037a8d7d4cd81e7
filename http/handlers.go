package http

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"net/http"

	"go.uber.org/zap"

	"churnpredict/churn"
	"churnpredict/predict"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// Predictor is what the handlers need from the prediction service.
type Predictor interface {
	Ready() bool
	Predict(ctx context.Context, req churn.Request) (churn.Outcome, error)
}

var _ Predictor = (*predict.Service)(nil)

// Handlers serves the form page and the JSON API.
type Handlers struct {
	predictor   Predictor
	modelErrors []string
	logger      *zap.Logger
}

// NewHandlers builds the handlers. modelErrors are the load-failure lines
// shown on every page while the model is absent.
func NewHandlers(predictor Predictor, modelErrors []string, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{predictor: predictor, modelErrors: modelErrors, logger: logger}
}

// Register mounts every route on mux.
func (h *Handlers) Register(mux *http.ServeMux) {
	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	mux.HandleFunc("GET /{$}", h.handleForm)
	mux.HandleFunc("POST /predict", h.handlePredictForm)
	h.registerAPI(mux)
}

type pageData struct {
	Columns      [2][]churn.Section
	Values       map[string]string
	ModelErrors  []string
	FormErrors   churn.FieldErrors
	PredictError string
	Outcome      *churn.Outcome
}

func (h *Handlers) newPage(req churn.Request) *pageData {
	page := &pageData{
		Columns: churn.Layout(),
		Values:  req.Values(),
	}
	if !h.predictor.Ready() {
		page.ModelErrors = h.modelErrors
	}
	return page
}

func (h *Handlers) handleForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, h.newPage(churn.DefaultRequest()))
}

func (h *Handlers) handlePredictForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		if tooLarge(err) {
			http.Error(w, "form submission too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "malformed form submission", http.StatusBadRequest)
		return
	}

	req, err := churn.ParseForm(r.PostForm)
	page := h.newPage(req)
	if err != nil {
		var fieldErrs churn.FieldErrors
		if !errors.As(err, &fieldErrs) {
			h.logger.Error("parse form", zap.Error(err), zap.String("request_id", GetRequestID(r.Context())))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		page.FormErrors = fieldErrs
		h.render(w, r, http.StatusBadRequest, page)
		return
	}

	outcome, err := h.predictor.Predict(r.Context(), req)
	switch {
	case errors.Is(err, predict.ErrModelUnavailable):
		page.PredictError = "The prediction model is not loaded, so no prediction can be made. Check the model file and restart the service."
		h.render(w, r, http.StatusServiceUnavailable, page)
	case err != nil:
		h.logger.Error("prediction failed", zap.Error(err), zap.String("request_id", GetRequestID(r.Context())))
		page.PredictError = "Prediction failed: " + err.Error()
		h.render(w, r, http.StatusInternalServerError, page)
	default:
		page.Outcome = &outcome
		h.render(w, r, http.StatusOK, page)
	}
}

// tooLarge reports whether err came from RequestSizeMiddleware's limit.
func tooLarge(err error) bool {
	var maxBytes *http.MaxBytesError
	return errors.As(err, &maxBytes)
}

func (h *Handlers) render(w http.ResponseWriter, r *http.Request, status int, page *pageData) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, page); err != nil {
		h.logger.Error("render page", zap.Error(err), zap.String("request_id", GetRequestID(r.Context())))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
