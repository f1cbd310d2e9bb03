package ports

import (
	"context"
	"errors"

	"github.com/IANDYI/lifeclock-service/internal/core/domain"
	"github.com/google/uuid"
)

// ErrEstimateNotFound is returned when an estimate ID has no stored result
// (either never submitted or already discarded by a retake)
var ErrEstimateNotFound = errors.New("estimate not found")

// EstimateRepository stores estimation results for the active sessions.
// Results are write-once per submission, read-many, and discarded on reset.
type EstimateRepository interface {
	// Save stores a freshly computed result
	Save(ctx context.Context, result *domain.EstimationResult) error

	// Get retrieves a stored result, ErrEstimateNotFound when absent
	Get(ctx context.Context, estimateID uuid.UUID) (*domain.EstimationResult, error)

	// Delete discards a result on retake, ErrEstimateNotFound when absent
	Delete(ctx context.Context, estimateID uuid.UUID) error
}

// SummaryPublisher delivers share summaries to the export collaborator
type SummaryPublisher interface {
	// PublishSummary publishes the summary values for a completed estimate
	PublishSummary(ctx context.Context, summary domain.SummaryValues) error
}

// FeatureCount is the width of the predictor feature vector:
// age, sex, smoker, bmi, alcohol, outlook, fitness, diet
const FeatureCount = 8

// LifespanPredictor is the external ML model collaborator.
// Load is idempotent and memoized: the first caller triggers the load, later
// callers (including concurrent ones) await the same in-flight attempt.
// Predict returns the expected total lifespan in years for a feature vector.
// Every failure mode (load error, timeout, open breaker, null prediction)
// surfaces as an error here and is recovered inside the estimator.
type LifespanPredictor interface {
	Load(ctx context.Context) error
	Predict(ctx context.Context, features [FeatureCount]float64) (float64, error)
}
