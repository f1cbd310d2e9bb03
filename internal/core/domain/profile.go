package domain

import (
	"fmt"
	"time"
)

// Sex is the self-reported sex used for baseline selection
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
	SexOther  Sex = "other"
)

// IsValidSex checks if a sex value is valid
func IsValidSex(s Sex) bool {
	return s == SexMale || s == SexFemale || s == SexOther
}

// AlcoholFrequency represents how often the user drinks
// The declaration order is the ordinal encoding used for ML features (0..5)
type AlcoholFrequency string

const (
	AlcoholNever       AlcoholFrequency = "never"
	AlcoholOnceAMonth  AlcoholFrequency = "once_a_month"
	AlcoholFewPerMonth AlcoholFrequency = "2_4_times_a_month"
	AlcoholTwiceAWeek  AlcoholFrequency = "2_times_a_week"
	AlcoholDaily       AlcoholFrequency = "daily"
	AlcoholConstantly  AlcoholFrequency = "constantly_blotto"
)

// alcoholOrdinals maps each frequency to its ordinal position.
// Also the single source of truth for input validation.
var alcoholOrdinals = map[AlcoholFrequency]int{
	AlcoholNever:       0,
	AlcoholOnceAMonth:  1,
	AlcoholFewPerMonth: 2,
	AlcoholTwiceAWeek:  3,
	AlcoholDaily:       4,
	AlcoholConstantly:  5,
}

// Ordinal returns the 0..5 encoding of the frequency, or -1 if unknown
func (a AlcoholFrequency) Ordinal() int {
	if ord, ok := alcoholOrdinals[a]; ok {
		return ord
	}
	return -1
}

// IsValidAlcoholFrequency checks if an alcohol frequency is valid
func IsValidAlcoholFrequency(a AlcoholFrequency) bool {
	_, ok := alcoholOrdinals[a]
	return ok
}

// Outlook is the user's self-assessed disposition
type Outlook string

const (
	OutlookPessimistic Outlook = "pessimistic"
	OutlookNeutral     Outlook = "neutral"
	OutlookOptimistic  Outlook = "optimistic"
)

// Ordinal returns the 0..2 encoding (pessimistic=0, neutral=1, optimistic=2)
func (o Outlook) Ordinal() int {
	switch o {
	case OutlookPessimistic:
		return 0
	case OutlookOptimistic:
		return 2
	default:
		return 1
	}
}

// IsValidOutlook checks if an outlook value is valid
func IsValidOutlook(o Outlook) bool {
	return o == OutlookPessimistic || o == OutlookNeutral || o == OutlookOptimistic
}

// FitnessLevel represents self-reported physical activity
type FitnessLevel string

const (
	FitnessCouchPotato      FitnessLevel = "couch_potato"
	FitnessModeratelyActive FitnessLevel = "moderately_active"
	FitnessVeryActive       FitnessLevel = "very_active"
	FitnessIronman          FitnessLevel = "ironman"
)

// Ordinal returns the 0..3 encoding (couch_potato=0 .. ironman=3)
func (f FitnessLevel) Ordinal() int {
	switch f {
	case FitnessCouchPotato:
		return 0
	case FitnessVeryActive:
		return 2
	case FitnessIronman:
		return 3
	default:
		return 1
	}
}

// IsValidFitnessLevel checks if a fitness level is valid
func IsValidFitnessLevel(f FitnessLevel) bool {
	switch f {
	case FitnessCouchPotato, FitnessModeratelyActive, FitnessVeryActive, FitnessIronman:
		return true
	}
	return false
}

// DietRating represents self-reported diet quality
type DietRating string

const (
	DietTerrible  DietRating = "terrible"
	DietOK        DietRating = "ok"
	DietGood      DietRating = "good"
	DietExcellent DietRating = "excellent"
)

// Ordinal returns the 0..3 encoding (terrible=0 .. excellent=3)
func (d DietRating) Ordinal() int {
	switch d {
	case DietTerrible:
		return 0
	case DietGood:
		return 2
	case DietExcellent:
		return 3
	default:
		return 1
	}
}

// IsValidDietRating checks if a diet rating is valid
func IsValidDietRating(d DietRating) bool {
	switch d {
	case DietTerrible, DietOK, DietGood, DietExcellent:
		return true
	}
	return false
}

// FitnessHabits is the optional fitness/diet block.
// A nil *FitnessHabits on the profile means the block was omitted, so the
// invalid state "included but empty" cannot be represented.
type FitnessHabits struct {
	Fitness FitnessLevel `json:"fitness"`
	Diet    DietRating   `json:"diet"`
}

// BirthDate is a calendar date broken into its raw components.
// Month is 1-indexed. Callers must validate before handing it to the projector.
type BirthDate struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// Validate checks that the components form a legal calendar date
func (b BirthDate) Validate() error {
	if b.Year < 1 {
		return fmt.Errorf("invalid birth year: %d", b.Year)
	}
	if b.Month < 1 || b.Month > 12 {
		return fmt.Errorf("invalid birth month: %d", b.Month)
	}
	if b.Day < 1 || b.Day > 31 {
		return fmt.Errorf("invalid birth day: %d", b.Day)
	}
	// time.Date normalizes overflow (e.g. Feb 30 -> Mar 2), so an illegal
	// combination is detected by round-tripping the components.
	t := b.Time()
	if t.Year() != b.Year || int(t.Month()) != b.Month || t.Day() != b.Day {
		return fmt.Errorf("invalid calendar date: %04d-%02d-%02d", b.Year, b.Month, b.Day)
	}
	return nil
}

// Time converts the birth date to a time.Time at midnight UTC
func (b BirthDate) Time() time.Time {
	return time.Date(b.Year, time.Month(b.Month), b.Day, 0, 0, 0, 0, time.UTC)
}

// UserProfile holds the self-reported demographic and lifestyle inputs.
// It is ephemeral: consumed by a single estimation and never stored.
type UserProfile struct {
	BirthDate BirthDate        `json:"birth_date"`
	Sex       Sex              `json:"sex"`
	Smoker    bool             `json:"smoker"`
	Country   string           `json:"country,omitempty"` // empty means unknown
	Alcohol   AlcoholFrequency `json:"alcohol"`
	Outlook   Outlook          `json:"outlook"`

	// Fitness is nil when the user skipped the fitness/diet block
	Fitness *FitnessHabits `json:"fitness,omitempty"`

	// BMI is the precomputed numeric BMI, preferred over BMIBucket when set
	BMI *float64 `json:"bmi,omitempty"`
	// BMIBucket is the coarse self-selected bucket, used when BMI is absent
	BMIBucket BMIBucket `json:"bmi_bucket,omitempty"`
}

// Validate checks all enumerated fields and the birth date
func (p *UserProfile) Validate() error {
	if err := p.BirthDate.Validate(); err != nil {
		return err
	}
	if !IsValidSex(p.Sex) {
		return fmt.Errorf("invalid sex: %q", p.Sex)
	}
	if !IsValidAlcoholFrequency(p.Alcohol) {
		return fmt.Errorf("invalid alcohol frequency: %q", p.Alcohol)
	}
	if !IsValidOutlook(p.Outlook) {
		return fmt.Errorf("invalid outlook: %q", p.Outlook)
	}
	if p.Fitness != nil {
		if !IsValidFitnessLevel(p.Fitness.Fitness) {
			return fmt.Errorf("invalid fitness level: %q", p.Fitness.Fitness)
		}
		if !IsValidDietRating(p.Fitness.Diet) {
			return fmt.Errorf("invalid diet rating: %q", p.Fitness.Diet)
		}
	}
	if p.BMIBucket != "" && !IsValidBMIBucket(p.BMIBucket) {
		return fmt.Errorf("invalid bmi bucket: %q", p.BMIBucket)
	}
	return nil
}
