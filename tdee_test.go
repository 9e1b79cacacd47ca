package adaptengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeTDEE(t *testing.T) {
	tests := []struct {
		name     string
		profile  UserProfile
		activity string
		wantBMR  float64
		wantTDEE float64
		wantOK   bool
	}{
		{
			name:     "30yo male 80kg 180cm sedentary",
			profile:  UserProfile{Age: 30, Sex: SexMale, WeightKG: 80, HeightCM: 180},
			activity: "sedentary",
			wantBMR:  1780, // 10*80 + 6.25*180 - 5*30 + 5
			wantTDEE: 2136,
			wantOK:   true,
		},
		{
			name:     "same profile escalated to moderately active",
			profile:  UserProfile{Age: 30, Sex: SexMale, WeightKG: 80, HeightCM: 180},
			activity: "moderately_active",
			wantBMR:  1780,
			wantTDEE: 2759, // 1780 * 1.55
			wantOK:   true,
		},
		{
			name:     "female constant",
			profile:  UserProfile{Age: 28, Sex: SexFemale, WeightKG: 62, HeightCM: 165},
			activity: "sedentary",
			wantBMR:  1350, // round(620 + 1031.25 - 140 - 161) = round(1350.25)
			wantTDEE: 1620, // round(1350.25 * 1.2)
			wantOK:   true,
		},
		{
			name:     "unknown activity level rejected",
			profile:  UserProfile{Age: 30, Sex: SexMale, WeightKG: 80, HeightCM: 180},
			activity: "heroic",
			wantOK:   false,
		},
		{
			name:     "implausible age rejected",
			profile:  UserProfile{Age: 140, Sex: SexMale, WeightKG: 80, HeightCM: 180},
			activity: "sedentary",
			wantOK:   false,
		},
		{
			name:     "missing weight rejected",
			profile:  UserProfile{Age: 30, Sex: SexMale, HeightCM: 180},
			activity: "sedentary",
			wantOK:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ComputeTDEE(tt.profile, tt.activity)
			if !tt.wantOK {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.wantBMR, got.BMR)
			assert.Equal(t, tt.wantTDEE, got.TDEE)
			assert.Less(t, got.TDEECILower, got.TDEE)
			assert.Greater(t, got.TDEECIUpper, got.TDEE)
		})
	}
}

func TestUserProfileBMI(t *testing.T) {
	p := UserProfile{WeightKG: 80, HeightCM: 180}
	assert.InDelta(t, 24.69, p.BMI(), 0.01)

	assert.Zero(t, UserProfile{WeightKG: 80}.BMI())
}

func TestUserProfileExperience(t *testing.T) {
	assert.Equal(t, ExperienceBeginner, UserProfile{ExperienceYears: 0.5}.Experience())
	assert.Equal(t, ExperienceIntermediate, UserProfile{ExperienceYears: 2}.Experience())
	assert.Equal(t, ExperienceAdvanced, UserProfile{ExperienceYears: 8}.Experience())
}

func TestPlanVersionDeficitPct(t *testing.T) {
	plan := PlanVersion{Calories: 2000, TDEE: 2500}
	assert.InDelta(t, 20, plan.DeficitPct(), 0.001)

	surplus := PlanVersion{Calories: 2800, TDEE: 2500}
	assert.Less(t, surplus.DeficitPct(), 0.0)

	assert.Zero(t, PlanVersion{Calories: 2000}.DeficitPct())
}
