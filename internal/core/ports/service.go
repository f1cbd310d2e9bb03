package ports

import (
	"context"

	"github.com/IANDYI/lifeclock-service/internal/core/domain"
	"github.com/google/uuid"
)

// EstimationService defines the business logic interface for the life
// expectancy pipeline: BMI -> expectancy estimate -> calendar projection
type EstimationService interface {
	// Submit runs the full pipeline for a validated profile and stores the
	// result. The returned projection carries the initial countdown snapshot.
	Submit(ctx context.Context, req SubmitEstimateRequest) (*domain.EstimationResult, domain.RemainingDuration, error)

	// Get retrieves a stored result together with a fresh remaining-time
	// decomposition against the fixed target date
	Get(ctx context.Context, estimateID uuid.UUID) (*domain.EstimationResult, domain.RemainingDuration, error)

	// Summary builds the share/export values for a stored result
	Summary(ctx context.Context, estimateID uuid.UUID) (domain.SummaryValues, error)

	// Reset discards a stored result (retake). The caller is responsible for
	// stopping any countdown ticking against the discarded target.
	Reset(ctx context.Context, estimateID uuid.UUID) error
}

// SubmitEstimateRequest is the input for a single estimation submission
type SubmitEstimateRequest struct {
	Profile    domain.UserProfile     `json:"profile"`
	Biometrics *domain.BiometricInput `json:"biometrics,omitempty"`
	Mode       domain.Strategy        `json:"mode"`
}
