package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"math/rand"
	"time"

	"github.com/IANDYI/lifeclock-service/internal/core/domain"
	"github.com/IANDYI/lifeclock-service/internal/core/ports"
)

// Adjustment constants, in years added to the baseline
const (
	ageDecayPerYear = 0.1

	smokingPenaltyMale  = -13.2
	smokingPenaltyOther = -14.5

	outlookOptimisticBonus  = 2.0
	outlookPessimisticMalus = -3.0

	jitterRangeYears = 2.0 // uniform in [-2, +2]
)

// alcoholAdjustments maps frequency to its lifespan adjustment in years
var alcoholAdjustments = map[domain.AlcoholFrequency]float64{
	domain.AlcoholNever:       0.5,
	domain.AlcoholOnceAMonth:  1.0,
	domain.AlcoholFewPerMonth: 0.5,
	domain.AlcoholTwiceAWeek:  -1.0,
	domain.AlcoholDaily:       -5.0,
	domain.AlcoholConstantly:  -15.0,
}

// fitnessAdjustments maps fitness level to its adjustment in years
var fitnessAdjustments = map[domain.FitnessLevel]float64{
	domain.FitnessIronman:          8.0,
	domain.FitnessVeryActive:       5.0,
	domain.FitnessModeratelyActive: 3.0,
	domain.FitnessCouchPotato:      -4.0,
}

// dietAdjustments maps diet rating to its adjustment in years
var dietAdjustments = map[domain.DietRating]float64{
	domain.DietExcellent: 4.0,
	domain.DietGood:      2.0,
	domain.DietOK:        0.0,
	domain.DietTerrible:  -3.0,
}

// Estimator combines a per-strategy baseline with the lifestyle adjustments
// into an expected total lifespan in fractional years.
// The ml strategy delegates to an external predictor and falls back to the
// who strategy on any failure; the fallback is reported via the returned
// strategy, never as an error.
type Estimator struct {
	baselines *domain.BaselineTable
	predictor ports.LifespanPredictor

	// jitter returns the stochastic term in [-2, +2]. Overridable in tests;
	// the default is non-reproducible on purpose (no seed contract).
	jitter func() float64
}

// NewEstimator creates an estimator over a baseline table.
// predictor may be nil, in which case the ml strategy always falls back.
func NewEstimator(baselines *domain.BaselineTable, predictor ports.LifespanPredictor) *Estimator {
	return &Estimator{
		baselines: baselines,
		predictor: predictor,
		jitter: func() float64 {
			return rand.Float64()*2*jitterRangeYears - jitterRangeYears
		},
	}
}

// WithJitter replaces the stochastic term, e.g. with a fixed value when a
// deterministic estimate is needed
func (e *Estimator) WithJitter(jitter func() float64) *Estimator {
	e.jitter = jitter
	return e
}

// Estimate produces the expected total lifespan in fractional years.
// bmi is the precomputed numeric BMI when available (preferred over the
// profile's bucket). The result is never below currentAge.
func (e *Estimator) Estimate(ctx context.Context, profile *domain.UserProfile, currentAge int, bmi *float64, mode domain.Strategy) (float64, domain.Strategy) {
	baseline, used := e.baseline(ctx, profile, currentAge, bmi, mode)

	// Adjustments are applied in a fixed order; each is additive in years.
	baseline -= float64(currentAge) * ageDecayPerYear
	baseline += e.bmiAdjustment(profile, bmi)

	if profile.Smoker {
		if profile.Sex == domain.SexMale {
			baseline += smokingPenaltyMale
		} else {
			baseline += smokingPenaltyOther
		}
	}

	baseline += alcoholAdjustments[profile.Alcohol]

	switch profile.Outlook {
	case domain.OutlookOptimistic:
		baseline += outlookOptimisticBonus
	case domain.OutlookPessimistic:
		baseline += outlookPessimisticMalus
	}

	if profile.Fitness != nil {
		baseline += fitnessAdjustments[profile.Fitness.Fitness]
		baseline += dietAdjustments[profile.Fitness.Diet]
	}

	baseline += e.jitter()

	// Never predict death in the past
	years := float64(currentAge) + math.Max(0, baseline-float64(currentAge))

	logEstimate(used, mode, years, currentAge)
	return years, used
}

// baseline selects the starting expectancy per strategy. The returned
// strategy is the one actually used: ml degrades to who on any failure.
func (e *Estimator) baseline(ctx context.Context, profile *domain.UserProfile, currentAge int, bmi *float64, mode domain.Strategy) (float64, domain.Strategy) {
	switch mode {
	case domain.StrategyML:
		if predicted, err := e.predict(ctx, profile, currentAge, bmi); err == nil {
			return predicted, domain.StrategyML
		}
		return e.whoBaseline(profile), domain.StrategyWHO
	case domain.StrategyWHO:
		return e.whoBaseline(profile), domain.StrategyWHO
	default:
		return e.ruleBaseline(profile), domain.StrategyRule
	}
}

// ruleBaseline: country table when known, else the global constant with a
// female-only bonus. The bonus applies to this fallback only (preserved
// asymmetry with the who strategy).
func (e *Estimator) ruleBaseline(profile *domain.UserProfile) float64 {
	if b, ok := e.baselines.Lookup(profile.Country); ok {
		return b.ForSex(profile.Sex)
	}
	baseline := domain.RuleFallbackYears
	if profile.Sex == domain.SexFemale {
		baseline += domain.RuleFemaleFallbackBonus
	}
	return baseline
}

// whoBaseline: country table when known, else a flat ceiling
func (e *Estimator) whoBaseline(profile *domain.UserProfile) float64 {
	if b, ok := e.baselines.Lookup(profile.Country); ok {
		return b.ForSex(profile.Sex)
	}
	return domain.WHOFallbackYears
}

// bmiAdjustment applies the threshold table against the numeric BMI when
// present, else the bucket midpoint, else skips (zero adjustment)
func (e *Estimator) bmiAdjustment(profile *domain.UserProfile, bmi *float64) float64 {
	value, ok := resolveBMI(profile, bmi)
	if !ok {
		return 0
	}

	switch {
	case value < 16:
		return -8
	case value < 18.5:
		return -3
	case value < 25:
		return 2
	case value < 30:
		return -2
	case value < 35:
		return -6
	case value < 40:
		return -10
	default:
		return -15
	}
}

// resolveBMI picks the numeric BMI, falling back to the bucket midpoint
func resolveBMI(profile *domain.UserProfile, bmi *float64) (float64, bool) {
	if bmi != nil {
		return *bmi, true
	}
	if profile.BMI != nil {
		return *profile.BMI, true
	}
	if mid, ok := profile.BMIBucket.Midpoint(); ok {
		return mid, true
	}
	return 0, false
}

// predict runs the external predictor over the normalized feature vector.
// Any failure (no predictor configured, load error, prediction error, NaN)
// is returned as an error for the caller to fall back on.
func (e *Estimator) predict(ctx context.Context, profile *domain.UserProfile, currentAge int, bmi *float64) (float64, error) {
	if e.predictor == nil {
		return 0, fmt.Errorf("no predictor configured")
	}
	if err := e.predictor.Load(ctx); err != nil {
		return 0, fmt.Errorf("model load failed: %w", err)
	}

	predicted, err := e.predictor.Predict(ctx, Features(profile, currentAge, bmi))
	if err != nil {
		return 0, fmt.Errorf("prediction failed: %w", err)
	}
	if math.IsNaN(predicted) || predicted <= 0 {
		return 0, fmt.Errorf("predictor returned invalid lifespan: %v", predicted)
	}
	return predicted, nil
}

// Features builds the normalized feature vector for the external predictor:
// age, sex (0=male, 1=other), smoker (0/1), bmi (numeric, else bucket
// midpoint, else 22), alcohol 0..5, outlook 0..2, fitness 0..3 (default
// moderate), diet 0..3 (default ok).
func Features(profile *domain.UserProfile, currentAge int, bmi *float64) [ports.FeatureCount]float64 {
	sex := 1.0
	if profile.Sex == domain.SexMale {
		sex = 0.0
	}

	smoker := 0.0
	if profile.Smoker {
		smoker = 1.0
	}

	bmiValue, ok := resolveBMI(profile, bmi)
	if !ok {
		bmiValue = 22
	}

	fitness, diet := 1.0, 1.0
	if profile.Fitness != nil {
		fitness = float64(profile.Fitness.Fitness.Ordinal())
		diet = float64(profile.Fitness.Diet.Ordinal())
	}

	return [ports.FeatureCount]float64{
		float64(currentAge),
		sex,
		smoker,
		bmiValue,
		float64(profile.Alcohol.Ordinal()),
		float64(profile.Outlook.Ordinal()),
		fitness,
		diet,
	}
}

// logEstimate logs structured JSON for a completed estimate
func logEstimate(used, requested domain.Strategy, years float64, currentAge int) {
	logEntry := map[string]interface{}{
		"event":          "estimate_computed",
		"strategy_used":  string(used),
		"strategy_mode":  string(requested),
		"expected_years": years,
		"current_age":    currentAge,
		"timestamp":      time.Now().Format(time.RFC3339),
	}
	jsonBytes, err := json.Marshal(logEntry)
	if err != nil {
		log.Printf("Failed to marshal estimate log entry: %v", err)
		return
	}
	log.Printf("%s", string(jsonBytes))
}
