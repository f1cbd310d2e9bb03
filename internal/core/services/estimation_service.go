package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/IANDYI/lifeclock-service/internal/core/domain"
	"github.com/IANDYI/lifeclock-service/internal/core/ports"
	"github.com/google/uuid"
)

// SubmitEstimateRequest is imported from ports package
type SubmitEstimateRequest = ports.SubmitEstimateRequest

// EstimationService implements the life expectancy pipeline: BMI calculation,
// expectancy estimation, and calendar projection, with the result stored
// write-once per submission until a retake discards it.
// Share summaries are published asynchronously so submissions never block on
// the export collaborator.
type EstimationService struct {
	estimator *Estimator
	repo      ports.EstimateRepository
	publisher ports.SummaryPublisher

	// now is stubbable in tests; defaults to time.Now
	now func() time.Time
}

// NewEstimationService creates a new estimation service
func NewEstimationService(
	estimator *Estimator,
	repo ports.EstimateRepository,
	publisher ports.SummaryPublisher,
) *EstimationService {
	return &EstimationService{
		estimator: estimator,
		repo:      repo,
		publisher: publisher,
		now:       time.Now,
	}
}

// WithClock replaces the wall clock used for "now"
func (s *EstimationService) WithClock(now func() time.Time) *EstimationService {
	s.now = now
	return s
}

// Submit runs the full pipeline for one submission.
// Biometrics are optional: invalid or missing weight/height is a no-op for
// the BMI step, never an error, and the profile's own BMI (or bucket) is
// used instead.
func (s *EstimationService) Submit(ctx context.Context, req SubmitEstimateRequest) (*domain.EstimationResult, domain.RemainingDuration, error) {
	if err := req.Profile.Validate(); err != nil {
		return nil, domain.RemainingDuration{}, fmt.Errorf("invalid profile: %w", err)
	}
	if req.Mode != "" && !domain.IsValidStrategy(req.Mode) {
		return nil, domain.RemainingDuration{}, fmt.Errorf("invalid estimation mode: %q", req.Mode)
	}
	mode := req.Mode
	if mode == "" {
		mode = domain.StrategyRule
	}

	now := s.now()
	if !req.Profile.BirthDate.Time().Before(now) {
		return nil, domain.RemainingDuration{}, fmt.Errorf("birth date must be in the past")
	}

	// BMI calculator: silently declines on invalid input
	var bmi *float64
	if req.Biometrics != nil {
		if v, ok := domain.ComputeBMI(*req.Biometrics); ok {
			bmi = &v
		}
	}
	if bmi == nil {
		bmi = req.Profile.BMI
	}

	currentAge := CurrentAge(req.Profile.BirthDate, now)
	years, used := s.estimator.Estimate(ctx, &req.Profile, currentAge, bmi, mode)
	projection := Project(req.Profile.BirthDate, years, now)

	result := &domain.EstimationResult{
		ID:            uuid.New(),
		ExpectedYears: years,
		StrategyUsed:  used,
		BMI:           bmi,
		CurrentAge:    projection.CurrentAge,
		AgeAtTest:     projection.AgeAtTest,
		DeathDate:     projection.DeathDate,
		DeathDateText: projection.DeathDateText,
		Lifespan:      projection.Lifespan,
		CreatedAt:     now,
	}

	if err := s.repo.Save(ctx, result); err != nil {
		return nil, domain.RemainingDuration{}, fmt.Errorf("failed to store estimate: %w", err)
	}

	s.logResult(result, "estimate_created")

	// Publish the share summary asynchronously so the response never waits
	// on the export collaborator
	if s.publisher != nil {
		summary := result.Summary(projection.Remaining)
		go func() {
			bgCtx := context.Background()
			if err := s.publisher.PublishSummary(bgCtx, summary); err != nil {
				log.Printf("Failed to publish estimate summary: %v", err)
			} else {
				s.logResult(result, "summary_published")
			}
		}()
	}

	return result, projection.Remaining, nil
}

// Get retrieves a stored result with a fresh countdown decomposition
func (s *EstimationService) Get(ctx context.Context, estimateID uuid.UUID) (*domain.EstimationResult, domain.RemainingDuration, error) {
	result, err := s.repo.Get(ctx, estimateID)
	if err != nil {
		return nil, domain.RemainingDuration{}, err
	}
	return result, Remaining(result.DeathDate, s.now()), nil
}

// Summary builds the share/export values against the live remaining time
func (s *EstimationService) Summary(ctx context.Context, estimateID uuid.UUID) (domain.SummaryValues, error) {
	result, remaining, err := s.Get(ctx, estimateID)
	if err != nil {
		return domain.SummaryValues{}, err
	}
	return result.Summary(remaining), nil
}

// Reset discards a stored result (retake)
func (s *EstimationService) Reset(ctx context.Context, estimateID uuid.UUID) error {
	if err := s.repo.Delete(ctx, estimateID); err != nil {
		return err
	}
	log.Printf("Estimate %s discarded (retake)", estimateID)
	return nil
}

// logResult logs structured JSON for estimate lifecycle events
func (s *EstimationService) logResult(r *domain.EstimationResult, event string) {
	logEntry := map[string]interface{}{
		"event":           event,
		"estimate_id":     r.ID.String(),
		"strategy_used":   string(r.StrategyUsed),
		"expected_years":  r.ExpectedYears,
		"current_age":     r.CurrentAge,
		"death_date":      r.DeathDate.Format(time.RFC3339),
		"death_date_text": r.DeathDateText,
		"created_at":      r.CreatedAt.Format(time.RFC3339),
	}
	if r.BMI != nil {
		logEntry["bmi"] = *r.BMI
	}

	jsonBytes, err := json.Marshal(logEntry)
	if err != nil {
		log.Printf("Failed to marshal estimate log entry: %v", err)
		return
	}
	log.Printf("%s", string(jsonBytes))
}

// Ensure EstimationService implements the interface
var _ ports.EstimationService = (*EstimationService)(nil)
