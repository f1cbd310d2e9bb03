package domain

import "math"

// WeightUnit is the unit of a reported body weight
type WeightUnit string

const (
	WeightKilograms WeightUnit = "kg"
	WeightPounds    WeightUnit = "lb"
)

// HeightUnit is the unit of a reported body height
type HeightUnit string

const (
	HeightCentimeters HeightUnit = "cm"
	HeightInches      HeightUnit = "inch"
)

// Unit conversion factors
const (
	PoundsToKilograms = 0.453592
	InchesToMeters    = 0.0254
)

// BiometricInput is a transient weight/height pair, consumed only to produce a BMI
type BiometricInput struct {
	Weight     float64    `json:"weight"`
	WeightUnit WeightUnit `json:"weight_unit"`
	Height     float64    `json:"height"`
	HeightUnit HeightUnit `json:"height_unit"`
}

// ComputeBMI normalizes the weight to kilograms and the height to meters and
// returns kg/m² rounded half-up at one decimal place.
// ok is false when either value is missing or not strictly positive; callers
// must treat that as a no-op and keep any previously computed BMI.
func ComputeBMI(in BiometricInput) (bmi float64, ok bool) {
	if in.Weight <= 0 || in.Height <= 0 {
		return 0, false
	}

	kg := in.Weight
	if in.WeightUnit == WeightPounds {
		kg = in.Weight * PoundsToKilograms
	}

	var meters float64
	switch in.HeightUnit {
	case HeightInches:
		meters = in.Height * InchesToMeters
	default:
		meters = in.Height / 100
	}

	return roundHalfUp1(kg / (meters * meters)), true
}

// roundHalfUp1 rounds half-up at the 0.1 granularity
func roundHalfUp1(v float64) float64 {
	return math.Floor(v*10+0.5) / 10
}

// BMIBucket is the coarse self-selected BMI range shown on the form
type BMIBucket string

const (
	BMIBucketUnder18  BMIBucket = "under_18.5"
	BMIBucketNormal   BMIBucket = "18.5_24.9"
	BMIBucketOver25   BMIBucket = "25_29.9"
	BMIBucketOver30   BMIBucket = "30_34.9"
	BMIBucketOver35   BMIBucket = "35_plus"
)

// bucketMidpoints maps each bucket to its representative BMI value
var bucketMidpoints = map[BMIBucket]float64{
	BMIBucketUnder18: 17,
	BMIBucketNormal:  22,
	BMIBucketOver25:  27,
	BMIBucketOver30:  32,
	BMIBucketOver35:  37,
}

// Midpoint returns the representative numeric BMI for the bucket
func (b BMIBucket) Midpoint() (float64, bool) {
	mid, ok := bucketMidpoints[b]
	return mid, ok
}

// IsValidBMIBucket checks if a bucket value is valid
func IsValidBMIBucket(b BMIBucket) bool {
	_, ok := bucketMidpoints[b]
	return ok
}
