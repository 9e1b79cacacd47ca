package adaptengine

import "math"

// ActivityMultipliers maps activity level names to their TDEE
// multiplier. This is the single source of truth for valid activity
// levels; unknown levels are rejected.
var ActivityMultipliers = map[string]float64{
	"sedentary":         1.2,
	"lightly_active":    1.375,
	"moderately_active": 1.55,
	"very_active":       1.725,
	"extremely_active":  1.9,
}

// tdeeCIFraction widens the point estimate into a ±10% confidence band.
// Mifflin-St Jeor explains roughly that much individual variance.
const tdeeCIFraction = 0.10

// ComputeTDEE computes BMR (Mifflin-St Jeor) and TDEE for a profile at a
// given activity level. The engine normally consumes TDEEResult from the
// upstream calculator; this mirror exists so solver inputs can be
// validated and tests can be self-contained.
func ComputeTDEE(p UserProfile, activityLevel string) (TDEEResult, bool) {
	if p.WeightKG <= 0 || p.HeightCM <= 0 || p.Age <= 0 || p.Age > 130 {
		return TDEEResult{}, false
	}

	mult, found := ActivityMultipliers[activityLevel]
	if !found {
		return TDEEResult{}, false
	}

	// BMR via Mifflin-St Jeor: different constant for male vs female
	bmr := 10*p.WeightKG + 6.25*p.HeightCM - 5*float64(p.Age)
	if p.Sex == SexMale {
		bmr += 5
	} else {
		bmr -= 161
	}

	tdee := bmr * mult

	return TDEEResult{
		BMR:           math.Round(bmr),
		TDEE:          math.Round(tdee),
		TDEECILower:   math.Round(tdee * (1 - tdeeCIFraction)),
		TDEECIUpper:   math.Round(tdee * (1 + tdeeCIFraction)),
		ActivityLevel: activityLevel,
	}, true
}
