// Package safety implements the non-bypassable rule engine that gates
// every solve and every proposed plan adjustment. The validator is a
// pure function of its inputs: no mutable state, no I/O.
package safety

import (
	"fmt"
	"log/slog"
	"strings"

	"adaptengine"
)

// Conditions and surgeries the rule table treats as critical without
// doctor clearance.
const (
	ConditionHeartDisease     = "heart_disease"
	ConditionHypertensionUnc  = "uncontrolled_hypertension"
	ConditionType1DiabetesUnc = "uncontrolled_type_1_diabetes"
	SurgeryCardiac            = "cardiac"
)

// interactionMedications flags medications whose interaction with
// aggressive training or deficits needs medical sign-off.
var interactionMedications = map[string]bool{
	"insulin":        true,
	"beta_blocker":   true,
	"blood_thinner":  true,
	"corticosteroid": true,
}

// Validator evaluates the medical/age/physiological rule table against a
// profile. Construct one per call-site; configuration is explicit.
type Validator struct {
	policy   adaptengine.PolicyConfig
	disabled bool
}

// Option configures a Validator.
type Option func(*Validator)

// WithChecksDisabled turns every validation into an automatic pass. It
// exists only for non-production test harnesses and is logged loudly on
// every construction and every call.
func WithChecksDisabled() Option {
	return func(v *Validator) {
		v.disabled = true
		slog.Error("SAFETY: validator constructed with checks DISABLED - never use in production")
	}
}

// New creates a Validator with the given policy constants.
func New(policy adaptengine.PolicyConfig, opts ...Option) *Validator {
	v := &Validator{policy: policy}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate runs the full rule table against a profile, its TDEE estimate,
// and the deficit the goal implies. Severity aggregates by max: any
// critical violation without clearance forces BLOCKED; moderate/high
// findings yield WARNING with mandatory modifications; otherwise CLEARED.
func (v *Validator) Validate(profile adaptengine.UserProfile, tdee adaptengine.TDEEResult) adaptengine.SafetyCheckResult {
	if v.disabled {
		slog.Error("SAFETY: checks disabled, auto-clearing", "user_id", profile.ID)
		return adaptengine.SafetyCheckResult{Level: adaptengine.SafetyCleared, Passed: true}
	}

	var (
		violations      []adaptengine.Violation
		recommendations []string
		modifications   = map[string]string{}
		blockedReason   string
	)

	add := func(code string, sev adaptengine.Severity, msg string) {
		violations = append(violations, adaptengine.Violation{Code: code, Severity: sev, Message: msg})
		if sev == adaptengine.SeverityCritical && blockedReason == "" {
			blockedReason = msg
		}
	}

	bmi := profile.BMI()
	switch {
	case bmi > 0 && bmi < v.policy.BMIBlockBelow:
		add("bmi_critical_underweight", adaptengine.SeverityCritical,
			fmt.Sprintf("BMI %.1f is below %.0f; any program is unsafe without medical supervision", bmi, v.policy.BMIBlockBelow))
		recommendations = append(recommendations, "Seek medical evaluation before starting any program.")
	case bmi > 0 && bmi < v.policy.BMIUnderweightBelow:
		add("bmi_underweight", adaptengine.SeverityModerate,
			fmt.Sprintf("BMI %.1f is underweight; a calorie deficit is not allowed", bmi))
		modifications["calorie_deficit"] = "not_allowed"
	case bmi > v.policy.BMIClearanceAbove && !profile.Medical.DoctorClearance:
		add("bmi_clearance_required", adaptengine.SeverityHigh,
			fmt.Sprintf("BMI %.1f exceeds %.0f; doctor clearance is required before high-intensity work", bmi, v.policy.BMIClearanceAbove))
		recommendations = append(recommendations, "Obtain doctor clearance; program limited to low-impact work until then.")
	}

	if profile.Age > 0 && profile.Age < v.policy.MinorAgeBelow {
		add("age_minor", adaptengine.SeverityHigh,
			fmt.Sprintf("age %d is under %d", profile.Age, v.policy.MinorAgeBelow))
		modifications["max_deficit_pct"] = fmt.Sprintf("%.0f", v.policy.MinorMaxDeficitPct)
		modifications["max_effort_lifts"] = "not_allowed"
	}
	if profile.Age >= v.policy.SeniorAgeFrom {
		add("age_senior", adaptengine.SeverityModerate,
			fmt.Sprintf("age %d is %d or over; balance training is mandatory", profile.Age, v.policy.SeniorAgeFrom))
		modifications["balance_training"] = "required"
	}

	// Hard safety ceiling on the planned deficit, evaluated at solve time.
	if deficit := plannedDeficitPct(profile, tdee, v.policy.KcalPerKGFat); deficit > v.policy.MaxDeficitPctSolve {
		add("deficit_exceeds_ceiling", adaptengine.SeverityCritical,
			fmt.Sprintf("planned deficit %.0f%% of TDEE exceeds the %.0f%% safety ceiling", deficit, v.policy.MaxDeficitPctSolve))
		recommendations = append(recommendations, "Reduce the target rate or extend the timeline.")
	}

	v.checkMedical(profile, add, &recommendations, modifications)
	v.checkPregnancy(profile, add, &recommendations, modifications)

	level := aggregate(violations)
	result := adaptengine.SafetyCheckResult{
		Level:           level,
		Passed:          level != adaptengine.SafetyBlocked,
		Violations:      violations,
		Recommendations: recommendations,
	}
	if len(modifications) > 0 {
		result.Modifications = modifications
	}
	if level == adaptengine.SafetyBlocked {
		result.Reason = blockedReason
	}
	return result
}

func (v *Validator) checkMedical(profile adaptengine.UserProfile, add func(string, adaptengine.Severity, string), recs *[]string, mods map[string]string) {
	cleared := profile.Medical.DoctorClearance

	for _, cond := range profile.Medical.Conditions {
		switch strings.ToLower(cond) {
		case ConditionHeartDisease, ConditionHypertensionUnc, ConditionType1DiabetesUnc:
			if cleared {
				add("condition_"+cond, adaptengine.SeverityHigh,
					fmt.Sprintf("condition %q is cleared by a doctor; intensity stays capped", cond))
				mods["max_heart_rate_pct"] = "75"
				*recs = append(*recs, fmt.Sprintf("Monitor %s symptoms; stop on any warning sign.", cond))
			} else {
				add("condition_"+cond, adaptengine.SeverityCritical,
					fmt.Sprintf("condition %q requires doctor clearance before any program", cond))
				*recs = append(*recs, "Obtain doctor clearance before proceeding.")
			}
		}
	}

	for _, surgery := range profile.Medical.RecentSurgeries {
		if strings.Contains(strings.ToLower(surgery), SurgeryCardiac) && !cleared {
			add("recent_cardiac_surgery", adaptengine.SeverityCritical,
				"recent cardiac surgery requires doctor clearance before any program")
			*recs = append(*recs, "Obtain surgical follow-up clearance before proceeding.")
		}
	}

	for _, med := range profile.Medical.Medications {
		if interactionMedications[strings.ToLower(med)] && !cleared {
			add("medication_interaction_"+med, adaptengine.SeverityHigh,
				fmt.Sprintf("medication %q can interact with training/deficit changes; doctor sign-off needed", med))
			*recs = append(*recs, fmt.Sprintf("Confirm %s dosing is compatible with the planned program.", med))
		}
	}
}

func (v *Validator) checkPregnancy(profile adaptengine.UserProfile, add func(string, adaptengine.Severity, string), recs *[]string, mods map[string]string) {
	if !profile.Medical.Pregnant {
		return
	}

	if !profile.Medical.OBClearance {
		add("pregnancy_no_clearance", adaptengine.SeverityCritical,
			"pregnancy without OB clearance blocks program generation")
		*recs = append(*recs, "Obtain OB clearance before any exercise program.")
		return
	}

	add("pregnancy_cleared", adaptengine.SeverityHigh, "pregnancy with OB clearance; mandatory modifications apply")
	mods["max_heart_rate_bpm"] = fmt.Sprintf("%d", v.policy.PregnancyMaxHeartRate)
	mods["contact_or_high_impact"] = "not_allowed"
	if profile.Medical.PregnancyWeek > v.policy.PregnancySupineCutoffW {
		mods["supine_exercises"] = "not_allowed"
	}
	if profile.Goal == adaptengine.GoalFatLoss {
		mods["calorie_deficit"] = "not_allowed"
		*recs = append(*recs, "Weight loss goals are deferred until postpartum.")
	}
}

// ValidatePlanAdjustments gates a proposed deficit change at
// reassessment time. A proposed deficit above the adjustment ceiling is
// unsafe, and low adherence must never be answered with a larger deficit.
func (v *Validator) ValidatePlanAdjustments(currentDeficitPct, proposedDeficitPct, adherencePct float64) (bool, []string) {
	if v.disabled {
		slog.Error("SAFETY: adjustment checks disabled, auto-approving")
		return true, nil
	}

	var warnings []string
	safe := true

	if proposedDeficitPct > v.policy.MaxDeficitPctAdjust {
		safe = false
		warnings = append(warnings, fmt.Sprintf(
			"proposed deficit %.1f%% exceeds the %.0f%% adjustment ceiling", proposedDeficitPct, v.policy.MaxDeficitPctAdjust))
	}

	if adherencePct < v.policy.LowAdherencePct && proposedDeficitPct > currentDeficitPct {
		safe = false
		warnings = append(warnings, fmt.Sprintf(
			"adherence %.0f%% is below %.0f%%; deepening the deficit is not allowed - address adherence first",
			adherencePct, v.policy.LowAdherencePct))
	}

	if safe && proposedDeficitPct > currentDeficitPct+10 {
		warnings = append(warnings, fmt.Sprintf(
			"deficit jump from %.1f%% to %.1f%% in one cycle is aggressive", currentDeficitPct, proposedDeficitPct))
	}

	return safe, warnings
}

// plannedDeficitPct converts the profile's target loss rate into a
// percentage of TDEE using the ~7700 kcal/kg fat equivalence. Gain and
// maintenance goals imply no deficit.
func plannedDeficitPct(profile adaptengine.UserProfile, tdee adaptengine.TDEEResult, kcalPerKG float64) float64 {
	if tdee.TDEE <= 0 || profile.Goal != adaptengine.GoalFatLoss {
		return 0
	}
	dailyDeficit := profile.TargetRateKGPerWeek * kcalPerKG / 7
	return dailyDeficit / tdee.TDEE * 100
}

func aggregate(violations []adaptengine.Violation) adaptengine.SafetyLevel {
	level := adaptengine.SafetyCleared
	for _, viol := range violations {
		switch viol.Severity {
		case adaptengine.SeverityCritical:
			return adaptengine.SafetyBlocked
		case adaptengine.SeverityHigh, adaptengine.SeverityModerate:
			level = adaptengine.SafetyWarning
		}
	}
	return level
}
