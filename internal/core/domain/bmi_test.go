package domain_test

import (
	"testing"

	"github.com/IANDYI/lifeclock-service/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestComputeBMI_MetricUnits(t *testing.T) {
	bmi, ok := domain.ComputeBMI(domain.BiometricInput{
		Weight:     70,
		WeightUnit: domain.WeightKilograms,
		Height:     175,
		HeightUnit: domain.HeightCentimeters,
	})

	assert.True(t, ok)
	assert.Equal(t, 22.9, bmi)
}

func TestComputeBMI_ImperialUnits(t *testing.T) {
	// 154.3 lb ≈ 69.99 kg, 68.9 inch ≈ 1.75 m
	bmi, ok := domain.ComputeBMI(domain.BiometricInput{
		Weight:     154.3,
		WeightUnit: domain.WeightPounds,
		Height:     68.9,
		HeightUnit: domain.HeightInches,
	})

	assert.True(t, ok)
	assert.InDelta(t, 22.9, bmi, 0.2)
}

func TestComputeBMI_RoundsHalfUp(t *testing.T) {
	// 80 / 1.8^2 = 24.691… -> 24.7
	bmi, ok := domain.ComputeBMI(domain.BiometricInput{
		Weight:     80,
		WeightUnit: domain.WeightKilograms,
		Height:     180,
		HeightUnit: domain.HeightCentimeters,
	})

	assert.True(t, ok)
	assert.Equal(t, 24.7, bmi)
}

func TestComputeBMI_InvalidInputIsNoOp(t *testing.T) {
	cases := []struct {
		name  string
		input domain.BiometricInput
	}{
		{"zero weight", domain.BiometricInput{Weight: 0, WeightUnit: domain.WeightKilograms, Height: 175, HeightUnit: domain.HeightCentimeters}},
		{"negative weight", domain.BiometricInput{Weight: -70, WeightUnit: domain.WeightKilograms, Height: 175, HeightUnit: domain.HeightCentimeters}},
		{"zero height", domain.BiometricInput{Weight: 70, WeightUnit: domain.WeightKilograms, Height: 0, HeightUnit: domain.HeightCentimeters}},
		{"negative height", domain.BiometricInput{Weight: 70, WeightUnit: domain.WeightKilograms, Height: -175, HeightUnit: domain.HeightCentimeters}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := domain.ComputeBMI(tc.input)
			assert.False(t, ok)
		})
	}
}

func TestComputeBMI_Idempotent(t *testing.T) {
	input := domain.BiometricInput{
		Weight:     63.5,
		WeightUnit: domain.WeightKilograms,
		Height:     167,
		HeightUnit: domain.HeightCentimeters,
	}

	first, ok1 := domain.ComputeBMI(input)
	second, ok2 := domain.ComputeBMI(input)

	assert.True(t, ok1)
	assert.True(t, ok2)
	assert.Equal(t, first, second)
}

func TestBMIBucket_Midpoints(t *testing.T) {
	cases := map[domain.BMIBucket]float64{
		domain.BMIBucketUnder18: 17,
		domain.BMIBucketNormal:  22,
		domain.BMIBucketOver25:  27,
		domain.BMIBucketOver30:  32,
		domain.BMIBucketOver35:  37,
	}

	for bucket, want := range cases {
		mid, ok := bucket.Midpoint()
		assert.True(t, ok)
		assert.Equal(t, want, mid)
	}

	_, ok := domain.BMIBucket("nonsense").Midpoint()
	assert.False(t, ok)
}
