package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Strategy identifies one of the interchangeable estimation strategies
type Strategy string

const (
	StrategyRule Strategy = "rule"
	StrategyWHO  Strategy = "who"
	StrategyML   Strategy = "ml"
)

// IsValidStrategy checks if a strategy value is valid
func IsValidStrategy(s Strategy) bool {
	return s == StrategyRule || s == StrategyWHO || s == StrategyML
}

// LifespanBreakdown is a human-readable whole years/months/days split of the
// expected lifespan beyond the birth date
type LifespanBreakdown struct {
	Years  int `json:"years"`
	Months int `json:"months"`
	Days   int `json:"days"`
}

// AgeAtTest describes the user's age at the moment of the estimate
type AgeAtTest struct {
	Years  int `json:"years"`
	Months int `json:"months"` // months since the last birthday anniversary
	Days   int `json:"days"`   // days since the last month anniversary

	TotalDays   int64 `json:"total_days"`
	TotalWeeks  int64 `json:"total_weeks"`
	TotalMonths int64 `json:"total_months"` // in 30.44-day average months
}

// RemainingDuration is the live countdown decomposition. All components are
// clamped to zero once the target date is reached, never negative.
type RemainingDuration struct {
	Days    int64 `json:"days"`
	Hours   int64 `json:"hours"`
	Minutes int64 `json:"minutes"`
	Seconds int64 `json:"seconds"`
	Years   int64 `json:"years"` // approximate, days / 365.25 floored
}

// IsZero reports whether the target date has been reached
func (r RemainingDuration) IsZero() bool {
	return r.Days == 0 && r.Hours == 0 && r.Minutes == 0 && r.Seconds == 0
}

// Projection is the calendar arithmetic output for one estimate
type Projection struct {
	CurrentAge    int               `json:"current_age"`
	AgeAtTest     AgeAtTest         `json:"age_at_test"`
	DeathDate     time.Time         `json:"death_date"`
	DeathDateText string            `json:"death_date_text"`
	Lifespan      LifespanBreakdown `json:"lifespan"`
	Remaining     RemainingDuration `json:"remaining"`
}

// EstimationResult is the write-once outcome of a submission. It stays
// immutable until a retake discards it.
type EstimationResult struct {
	ID            uuid.UUID         `json:"id"`
	ExpectedYears float64           `json:"expected_years"`
	StrategyUsed  Strategy          `json:"strategy_used"`
	BMI           *float64          `json:"bmi,omitempty"`
	CurrentAge    int               `json:"current_age"`
	AgeAtTest     AgeAtTest         `json:"age_at_test"`
	DeathDate     time.Time         `json:"death_date"`
	DeathDateText string            `json:"death_date_text"`
	Lifespan      LifespanBreakdown `json:"lifespan"`
	CreatedAt     time.Time         `json:"created_at"`
}

// SummaryValues are the constituent values handed to the share/export
// collaborator. Delivery (share sheet, clipboard, queue) is not our concern.
type SummaryValues struct {
	EstimateID     uuid.UUID `json:"estimate_id"`
	ExpectedYears  float64   `json:"expected_years"`
	DeathDateText  string    `json:"death_date_text"`
	RemainingYears int64     `json:"remaining_years"`
	StrategyUsed   Strategy  `json:"strategy_used"`
}

// Summary builds the share values for the result given the live remaining time
func (r *EstimationResult) Summary(remaining RemainingDuration) SummaryValues {
	return SummaryValues{
		EstimateID:     r.ID,
		ExpectedYears:  r.ExpectedYears,
		DeathDateText:  r.DeathDateText,
		RemainingYears: remaining.Years,
		StrategyUsed:   r.StrategyUsed,
	}
}

// Text renders the summary as the share string
func (s SummaryValues) Text() string {
	return fmt.Sprintf("My predicted lifespan is %.1f years. I will die on %s (%d years left). Strategy: %s.",
		s.ExpectedYears, s.DeathDateText, s.RemainingYears, s.StrategyUsed)
}
