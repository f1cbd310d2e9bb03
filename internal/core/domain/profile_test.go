package domain_test

import (
	"testing"

	"github.com/IANDYI/lifeclock-service/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProfile() domain.UserProfile {
	return domain.UserProfile{
		BirthDate: domain.BirthDate{Year: 2000, Month: 1, Day: 1},
		Sex:       domain.SexFemale,
		Country:   "Japan",
		Alcohol:   domain.AlcoholNever,
		Outlook:   domain.OutlookNeutral,
	}
}

func TestBirthDate_Validate(t *testing.T) {
	cases := []struct {
		name  string
		date  domain.BirthDate
		valid bool
	}{
		{"normal date", domain.BirthDate{Year: 2000, Month: 1, Day: 1}, true},
		{"leap day on leap year", domain.BirthDate{Year: 2000, Month: 2, Day: 29}, true},
		{"leap day on non-leap year", domain.BirthDate{Year: 2001, Month: 2, Day: 29}, false},
		{"february 30th", domain.BirthDate{Year: 2000, Month: 2, Day: 30}, false},
		{"april 31st", domain.BirthDate{Year: 2000, Month: 4, Day: 31}, false},
		{"month zero", domain.BirthDate{Year: 2000, Month: 0, Day: 1}, false},
		{"month 13", domain.BirthDate{Year: 2000, Month: 13, Day: 1}, false},
		{"day zero", domain.BirthDate{Year: 2000, Month: 1, Day: 0}, false},
		{"day 32", domain.BirthDate{Year: 2000, Month: 1, Day: 32}, false},
		{"year zero", domain.BirthDate{Year: 0, Month: 1, Day: 1}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.date.Validate()
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestUserProfile_Validate(t *testing.T) {
	p := validProfile()
	require.NoError(t, p.Validate())

	p = validProfile()
	p.Sex = "robot"
	assert.Error(t, p.Validate())

	p = validProfile()
	p.Alcohol = "sometimes"
	assert.Error(t, p.Validate())

	p = validProfile()
	p.Outlook = "grim"
	assert.Error(t, p.Validate())

	p = validProfile()
	p.Fitness = &domain.FitnessHabits{Fitness: "superhuman", Diet: domain.DietOK}
	assert.Error(t, p.Validate())

	p = validProfile()
	p.Fitness = &domain.FitnessHabits{Fitness: domain.FitnessIronman, Diet: "raw"}
	assert.Error(t, p.Validate())

	p = validProfile()
	p.Fitness = &domain.FitnessHabits{Fitness: domain.FitnessIronman, Diet: domain.DietExcellent}
	assert.NoError(t, p.Validate())

	p = validProfile()
	p.BMIBucket = "tiny"
	assert.Error(t, p.Validate())

	p = validProfile()
	p.BMIBucket = domain.BMIBucketNormal
	assert.NoError(t, p.Validate())

	// Country is free-form; unknown values fall back at estimation time
	p = validProfile()
	p.Country = ""
	assert.NoError(t, p.Validate())
}

func TestAlcoholFrequency_Ordinal(t *testing.T) {
	assert.Equal(t, 0, domain.AlcoholNever.Ordinal())
	assert.Equal(t, 1, domain.AlcoholOnceAMonth.Ordinal())
	assert.Equal(t, 2, domain.AlcoholFewPerMonth.Ordinal())
	assert.Equal(t, 3, domain.AlcoholTwiceAWeek.Ordinal())
	assert.Equal(t, 4, domain.AlcoholDaily.Ordinal())
	assert.Equal(t, 5, domain.AlcoholConstantly.Ordinal())
	assert.Equal(t, -1, domain.AlcoholFrequency("teetotal").Ordinal())
}

func TestOrdinalEncodings(t *testing.T) {
	assert.Equal(t, 0, domain.OutlookPessimistic.Ordinal())
	assert.Equal(t, 1, domain.OutlookNeutral.Ordinal())
	assert.Equal(t, 2, domain.OutlookOptimistic.Ordinal())

	assert.Equal(t, 0, domain.FitnessCouchPotato.Ordinal())
	assert.Equal(t, 1, domain.FitnessModeratelyActive.Ordinal())
	assert.Equal(t, 2, domain.FitnessVeryActive.Ordinal())
	assert.Equal(t, 3, domain.FitnessIronman.Ordinal())

	assert.Equal(t, 0, domain.DietTerrible.Ordinal())
	assert.Equal(t, 1, domain.DietOK.Ordinal())
	assert.Equal(t, 2, domain.DietGood.Ordinal())
	assert.Equal(t, 3, domain.DietExcellent.Ordinal())
}

func TestBirthDate_Time(t *testing.T) {
	b := domain.BirthDate{Year: 2000, Month: 6, Day: 15}
	ts := b.Time()

	assert.Equal(t, 2000, ts.Year())
	assert.Equal(t, 6, int(ts.Month()))
	assert.Equal(t, 15, ts.Day())
	assert.Equal(t, 0, ts.Hour())
}
