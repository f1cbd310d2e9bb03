package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/IANDYI/lifeclock-service/internal/core/domain"
	"github.com/IANDYI/lifeclock-service/internal/core/ports"
	"github.com/google/uuid"
)

// EstimateHandler handles HTTP requests for the estimation pipeline
type EstimateHandler struct {
	service ports.EstimationService
	// onReset lets the countdown hub tear down streams for discarded estimates
	onReset func(estimateID string)
}

// NewEstimateHandler creates a new estimate handler.
// onReset may be nil when no countdown streaming is wired.
func NewEstimateHandler(service ports.EstimationService, onReset func(estimateID string)) *EstimateHandler {
	return &EstimateHandler{
		service: service,
		onReset: onReset,
	}
}

// SubmitEstimateBody is the request body for POST /estimates.
// Weight and height arrive as raw form strings; non-numeric or non-positive
// values make the BMI step a silent no-op rather than an error.
type SubmitEstimateBody struct {
	Profile    domain.UserProfile `json:"profile"`
	Biometrics *BiometricsBody    `json:"biometrics,omitempty"`
	Mode       domain.Strategy    `json:"mode"`
}

// BiometricsBody carries raw weight/height values with their units
type BiometricsBody struct {
	Weight     string `json:"weight"`
	WeightUnit string `json:"weight_unit"`
	Height     string `json:"height"`
	HeightUnit string `json:"height_unit"`
}

// EstimateResponse pairs the stored result with a countdown snapshot
type EstimateResponse struct {
	Result    *domain.EstimationResult `json:"result"`
	Remaining domain.RemainingDuration `json:"remaining"`
}

// SubmitEstimate handles POST /estimates
func (h *EstimateHandler) SubmitEstimate(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	requestID := generateRequestID()

	var body SubmitEstimateBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		log.Printf("[%s] Failed to decode request: %v", requestID, err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	req := ports.SubmitEstimateRequest{
		Profile:    body.Profile,
		Biometrics: parseBiometrics(body.Biometrics),
		Mode:       body.Mode,
	}

	result, remaining, err := h.service.Submit(r.Context(), req)
	if err != nil {
		log.Printf("[%s] Failed to compute estimate: %v", requestID, err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	EstimatesComputedTotal.WithLabelValues(string(result.StrategyUsed)).Inc()
	if body.Mode == domain.StrategyML && result.StrategyUsed != domain.StrategyML {
		PredictorFallbacksTotal.Inc()
	}

	logStructured(requestID, "POST", "/estimates", http.StatusCreated, time.Since(startTime))
	writeJSON(w, http.StatusCreated, EstimateResponse{Result: result, Remaining: remaining})
}

// parseBiometrics turns the raw form strings into a BiometricInput.
// Unparseable values produce zero fields, which the BMI calculator treats
// as "decline to update".
func parseBiometrics(b *BiometricsBody) *domain.BiometricInput {
	if b == nil {
		return nil
	}
	return &domain.BiometricInput{
		Weight:     parsePositiveFloat(b.Weight),
		WeightUnit: domain.WeightUnit(b.WeightUnit),
		Height:     parsePositiveFloat(b.Height),
		HeightUnit: domain.HeightUnit(b.HeightUnit),
	}
}

// GetEstimate handles GET /estimates/{estimate_id}
func (h *EstimateHandler) GetEstimate(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	requestID := generateRequestID()

	estimateID, ok := h.parseEstimateID(w, r, requestID)
	if !ok {
		return
	}

	result, remaining, err := h.service.Get(r.Context(), estimateID)
	if err != nil {
		h.writeServiceError(w, requestID, err)
		return
	}

	logStructured(requestID, "GET", "/estimates/"+estimateID.String(), http.StatusOK, time.Since(startTime))
	writeJSON(w, http.StatusOK, EstimateResponse{Result: result, Remaining: remaining})
}

// GetSummary handles GET /estimates/{estimate_id}/summary
func (h *EstimateHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	requestID := generateRequestID()

	estimateID, ok := h.parseEstimateID(w, r, requestID)
	if !ok {
		return
	}

	summary, err := h.service.Summary(r.Context(), estimateID)
	if err != nil {
		h.writeServiceError(w, requestID, err)
		return
	}

	logStructured(requestID, "GET", "/estimates/"+estimateID.String()+"/summary", http.StatusOK, time.Since(startTime))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"summary": summary,
		"text":    summary.Text(),
	})
}

// ResetEstimate handles DELETE /estimates/{estimate_id} (retake)
func (h *EstimateHandler) ResetEstimate(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	requestID := generateRequestID()

	estimateID, ok := h.parseEstimateID(w, r, requestID)
	if !ok {
		return
	}

	if err := h.service.Reset(r.Context(), estimateID); err != nil {
		h.writeServiceError(w, requestID, err)
		return
	}

	// Stop any countdown ticking against the discarded target
	if h.onReset != nil {
		h.onReset(estimateID.String())
	}
	EstimatesResetTotal.Inc()

	logStructured(requestID, "DELETE", "/estimates/"+estimateID.String(), http.StatusNoContent, time.Since(startTime))
	w.WriteHeader(http.StatusNoContent)
}

// parseEstimateID extracts and validates the estimate_id path value
func (h *EstimateHandler) parseEstimateID(w http.ResponseWriter, r *http.Request, requestID string) (uuid.UUID, bool) {
	idStr := r.PathValue("estimate_id")
	estimateID, err := uuid.Parse(idStr)
	if err != nil {
		log.Printf("[%s] Invalid estimate ID: %v", requestID, err)
		http.Error(w, "invalid estimate ID", http.StatusBadRequest)
		return uuid.UUID{}, false
	}
	return estimateID, true
}

// writeServiceError maps service errors to HTTP status codes
func (h *EstimateHandler) writeServiceError(w http.ResponseWriter, requestID string, err error) {
	log.Printf("[%s] %v", requestID, err)
	if errors.Is(err, ports.ErrEstimateNotFound) {
		http.Error(w, "estimate not found", http.StatusNotFound)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

// parsePositiveFloat parses a raw form value, returning 0 for anything that
// is not a strictly positive number
func parsePositiveFloat(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0
	}
	return v
}
