package services

import (
	"fmt"
	"math"
	"time"

	"github.com/IANDYI/lifeclock-service/internal/core/domain"
)

// Calendar constants
const (
	millisPerDay    = int64(86_400_000)
	millisPerWeek   = 7 * millisPerDay
	avgDaysPerMonth = 30.44 // average month, accepted drift vs true calendar months
	daysPerYear     = 365.25
)

// Project converts a birth date plus an expected lifespan in fractional years
// into the target death date, the age-at-test breakdown, the lived totals,
// and the initial remaining-time decomposition against now.
// The birth date must be a pre-validated legal calendar date.
func Project(birth domain.BirthDate, expectedYears float64, now time.Time) domain.Projection {
	birthTime := birth.Time()

	currentAge := CurrentAge(birth, now)
	deathDate := DeathDate(birth, expectedYears)

	return domain.Projection{
		CurrentAge:    currentAge,
		AgeAtTest:     ageAtTest(birth, birthTime, currentAge, now),
		DeathDate:     deathDate,
		DeathDateText: FormatLongDate(deathDate),
		Lifespan:      LifespanParts(expectedYears),
		Remaining:     Remaining(deathDate, now),
	}
}

// CurrentAge is the integer number of whole years between the birth date and
// now: the year difference, minus one when (month, day) of now is
// lexicographically before the birthday (birthday not yet reached this year).
func CurrentAge(birth domain.BirthDate, now time.Time) int {
	age := now.Year() - birth.Year
	if int(now.Month()) < birth.Month ||
		(int(now.Month()) == birth.Month && now.Day() < birth.Day) {
		age--
	}
	return age
}

// ageAtTest computes months since the last birthday anniversary and days
// since the last month anniversary, plus the lived totals
func ageAtTest(birth domain.BirthDate, birthTime time.Time, currentAge int, now time.Time) domain.AgeAtTest {
	months := int(now.Month()) - birth.Month
	if months < 0 {
		months += 12
	}

	days := now.Day() - birth.Day
	if days < 0 {
		// Borrow one month: count days elapsed since the birth day-of-month
		// one calendar month before now. time.Date normalizes month 0 and
		// day overflow per the standard calendar.
		months--
		if months < 0 {
			months += 12
		}
		anchor := time.Date(now.Year(), now.Month()-1, birth.Day, 0, 0, 0, 0, now.Location())
		days = int(now.Sub(anchor).Hours() / 24)
	}

	livedMillis := now.Sub(birthTime).Milliseconds()
	totalDays := livedMillis / millisPerDay

	return domain.AgeAtTest{
		Years:       currentAge,
		Months:      months,
		Days:        days,
		TotalDays:   totalDays,
		TotalWeeks:  livedMillis / millisPerWeek,
		TotalMonths: int64(float64(totalDays) / avgDaysPerMonth),
	}
}

// LifespanParts splits a fractional lifespan into whole years, remaining
// months, and remaining days (using the average month length)
func LifespanParts(expectedYears float64) domain.LifespanBreakdown {
	if expectedYears < 0 {
		expectedYears = 0
	}
	years := int(math.Floor(expectedYears))
	fracYear := expectedYears - float64(years)
	months := int(math.Floor(fracYear * 12))
	fracMonth := fracYear*12 - float64(months)
	days := int(math.Floor(fracMonth * avgDaysPerMonth))

	return domain.LifespanBreakdown{Years: years, Months: months, Days: days}
}

// DeathDate applies the lifespan breakdown onto the birth date as a year
// offset, then a month offset, then a day offset; each application rolls
// over per standard calendar normalization.
func DeathDate(birth domain.BirthDate, expectedYears float64) time.Time {
	parts := LifespanParts(expectedYears)
	d := birth.Time().AddDate(parts.Years, 0, 0)
	d = d.AddDate(0, parts.Months, 0)
	return d.AddDate(0, 0, parts.Days)
}

// Remaining decomposes the time left until target into days, hours, minutes,
// seconds, and approximate whole years. Every component clamps to zero once
// the target is reached; nothing is ever negative.
func Remaining(target time.Time, now time.Time) domain.RemainingDuration {
	millis := target.Sub(now).Milliseconds()
	if millis < 0 {
		millis = 0
	}

	days := millis / millisPerDay
	rem := millis % millisPerDay
	hours := rem / 3_600_000
	rem %= 3_600_000
	minutes := rem / 60_000
	seconds := (rem % 60_000) / 1_000

	return domain.RemainingDuration{
		Days:    days,
		Hours:   hours,
		Minutes: minutes,
		Seconds: seconds,
		Years:   int64(float64(days) / daysPerYear),
	}
}

// FormatLongDate renders "<Weekday>, <day><ordinal> <Month> <year>",
// e.g. "Friday, 1st January 2077"
func FormatLongDate(t time.Time) string {
	return fmt.Sprintf("%s, %d%s %s %d",
		t.Weekday(), t.Day(), OrdinalSuffix(t.Day()), t.Month(), t.Year())
}

// OrdinalSuffix returns the English ordinal suffix for a day of month.
// Days strictly between 3 and 21 are always "th", which covers 11/12/13;
// otherwise the suffix follows the last digit.
func OrdinalSuffix(day int) string {
	if day > 3 && day < 21 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}
