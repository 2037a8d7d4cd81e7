package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"churnpredict/churn"
	"churnpredict/predict"
)

func (h *Handlers) registerAPI(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", h.handleHealth)
	mux.HandleFunc("GET /api/fields", h.handleFields)
	mux.HandleFunc("POST /api/predict", h.handlePredictAPI)
}

type healthResponse struct {
	Status      string   `json:"status"`
	ModelLoaded bool     `json:"model_loaded"`
	ModelErrors []string `json:"model_errors,omitempty"`
}

func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", ModelLoaded: h.predictor.Ready()}
	if !resp.ModelLoaded {
		resp.ModelErrors = h.modelErrors
	}
	h.respondJSON(w, http.StatusOK, resp)
}

func (h *Handlers) handleFields(w http.ResponseWriter, r *http.Request) {
	layout := churn.Layout()
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"left":  layout[0],
		"right": layout[1],
	})
}

type predictResponse struct {
	Label           int      `json:"label"`
	Probability     float64  `json:"probability"`
	ProbabilityText string   `json:"probability_text"`
	Headline        string   `json:"headline"`
	InsightTitle    string   `json:"insight_title"`
	Insights        []string `json:"insights"`
}

type errorResponse struct {
	Error  string             `json:"error"`
	Fields []churn.FieldError `json:"fields,omitempty"`
}

func (h *Handlers) handlePredictAPI(w http.ResponseWriter, r *http.Request) {
	// Absent keys keep their widget defaults.
	req := churn.DefaultRequest()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		if tooLarge(err) {
			h.respondJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
			return
		}
		h.respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		var fieldErrs churn.FieldErrors
		if errors.As(err, &fieldErrs) {
			h.respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid form values", Fields: fieldErrs})
			return
		}
		h.respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}

	outcome, err := h.predictor.Predict(r.Context(), req)
	if errors.Is(err, predict.ErrModelUnavailable) {
		h.respondJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		h.logger.Error("prediction failed", zap.Error(err), zap.String("request_id", GetRequestID(r.Context())))
		h.respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "prediction failed"})
		return
	}

	h.respondJSON(w, http.StatusOK, predictResponse{
		Label:           outcome.Label,
		Probability:     outcome.Probability,
		ProbabilityText: outcome.ProbabilityText(),
		Headline:        outcome.Headline,
		InsightTitle:    outcome.InsightTitle,
		Insights:        outcome.Insights,
	})
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Warn("failed to encode JSON", zap.Error(err))
	}
}
