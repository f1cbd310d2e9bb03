package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/IANDYI/lifeclock-service/internal/core/ports"
	"github.com/sony/gobreaker"
)

// HTTPPredictor implements ports.LifespanPredictor against an external model
// server. The model load is memoized at-most-once: the first caller triggers
// it and every later caller, concurrent ones included, awaits that same
// attempt instead of starting a duplicate load. A failed load is cached too;
// the estimator falls back rather than hammering a broken model server.
// Predictions run through a circuit breaker so a flapping model degrades to
// the who strategy instead of adding latency to every estimate.
type HTTPPredictor struct {
	baseURL string
	client  *http.Client
	cb      *gobreaker.CircuitBreaker

	loadOnce sync.Once
	loadErr  error
}

// NewHTTPPredictor creates a predictor client for the given model server URL
func NewHTTPPredictor(baseURL string) *HTTPPredictor {
	settings := gobreaker.Settings{
		Name:        "predictor",
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	}

	return &HTTPPredictor{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
		cb:      gobreaker.NewCircuitBreaker(settings),
	}
}

// Load asks the model server to load the model. Idempotent and cached:
// exactly one HTTP call is ever made, whatever its outcome.
func (p *HTTPPredictor) Load(ctx context.Context) error {
	p.loadOnce.Do(func() {
		p.loadErr = p.doLoad(ctx)
		if p.loadErr != nil {
			log.Printf("Model load failed, ml estimates will fall back: %v", p.loadErr)
		} else {
			log.Println("Lifespan model loaded successfully")
		}
	})
	return p.loadErr
}

func (p *HTTPPredictor) doLoad(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/model/load", nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("model load request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("model load returned status %d", resp.StatusCode)
	}
	return nil
}

// predictRequest is the model server's inference payload
type predictRequest struct {
	Features []float64 `json:"features"`
}

// predictResponse carries the scalar prediction; a null prediction is a
// failure, not a zero lifespan
type predictResponse struct {
	Years *float64 `json:"years"`
}

// Predict runs one inference through the circuit breaker
func (p *HTTPPredictor) Predict(ctx context.Context, features [ports.FeatureCount]float64) (float64, error) {
	result, err := p.cb.Execute(func() (interface{}, error) {
		return p.doPredict(ctx, features)
	})
	if err != nil {
		return 0, err
	}
	return result.(float64), nil
}

func (p *HTTPPredictor) doPredict(ctx context.Context, features [ports.FeatureCount]float64) (float64, error) {
	body, err := json.Marshal(predictRequest{Features: features[:]})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal features: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/model/predict", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("predict request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("predict returned status %d", resp.StatusCode)
	}

	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("failed to decode prediction: %w", err)
	}
	if out.Years == nil {
		return 0, fmt.Errorf("predictor returned null prediction")
	}
	return *out.Years, nil
}

// Ensure HTTPPredictor implements the interface
var _ ports.LifespanPredictor = (*HTTPPredictor)(nil)
