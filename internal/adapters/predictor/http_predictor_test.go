package predictor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/IANDYI/lifeclock-service/internal/core/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFeatures() [ports.FeatureCount]float64 {
	return [ports.FeatureCount]float64{24, 1, 0, 22.9, 0, 1, 1, 1}
}

func TestHTTPPredictor_LoadOnce(t *testing.T) {
	var loads int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/model/load", r.URL.Path)
		atomic.AddInt32(&loads, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	p := NewHTTPPredictor(server.URL)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, p.Load(context.Background()))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&loads))
}

func TestHTTPPredictor_LoadFailureIsCached(t *testing.T) {
	var loads int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&loads, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	p := NewHTTPPredictor(server.URL)

	// A failed load is not retried either
	assert.Error(t, p.Load(context.Background()))
	assert.Error(t, p.Load(context.Background()))
	assert.Equal(t, int32(1), atomic.LoadInt32(&loads))
}

func TestHTTPPredictor_Predict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/model/predict", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req struct {
			Features []float64 `json:"features"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Features, ports.FeatureCount)
		assert.Equal(t, 24.0, req.Features[0])
		assert.Equal(t, 22.9, req.Features[3])

		json.NewEncoder(w).Encode(map[string]float64{"years": 83.4})
	}))
	defer server.Close()

	p := NewHTTPPredictor(server.URL)

	years, err := p.Predict(context.Background(), sampleFeatures())
	require.NoError(t, err)
	assert.Equal(t, 83.4, years)
}

func TestHTTPPredictor_PredictNullYears(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"years": null}`))
	}))
	defer server.Close()

	p := NewHTTPPredictor(server.URL)

	_, err := p.Predict(context.Background(), sampleFeatures())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "null prediction")
}

func TestHTTPPredictor_PredictServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	p := NewHTTPPredictor(server.URL)

	_, err := p.Predict(context.Background(), sampleFeatures())
	assert.Error(t, err)
}

func TestHTTPPredictor_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	p := NewHTTPPredictor(server.URL)

	for i := 0; i < 10; i++ {
		_, err := p.Predict(context.Background(), sampleFeatures())
		assert.Error(t, err)
	}

	// The breaker trips after 6 consecutive failures, later calls short-circuit
	assert.Equal(t, int32(6), atomic.LoadInt32(&calls))
}
