package adaptengine

import (
	"time"
)

// Goal is the user's primary program objective.
type Goal string

const (
	GoalFatLoss     Goal = "fat_loss"
	GoalMuscleGain  Goal = "muscle_gain"
	GoalMaintenance Goal = "maintenance"
	GoalRecomp      Goal = "recomp"
	GoalPerformance Goal = "performance"
)

// Sex as used by the Mifflin-St Jeor equation and calorie floors.
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

// ExperienceLevel scales training volume ceilings.
type ExperienceLevel string

const (
	ExperienceBeginner     ExperienceLevel = "beginner"
	ExperienceIntermediate ExperienceLevel = "intermediate"
	ExperienceAdvanced     ExperienceLevel = "advanced"
)

// MedicalHistory captures the fields the safety rules evaluate.
type MedicalHistory struct {
	Conditions      []string `json:"conditions,omitempty"`
	Medications     []string `json:"medications,omitempty"`
	RecentSurgeries []string `json:"recent_surgeries,omitempty"`
	Pregnant        bool     `json:"pregnant,omitempty"`
	PregnancyWeek   int      `json:"pregnancy_week,omitempty"`
	OBClearance     bool     `json:"ob_clearance,omitempty"`
	DoctorClearance bool     `json:"doctor_clearance,omitempty"`
}

// Schedule holds the user's availability bounds.
type Schedule struct {
	AvailableDays     int `json:"available_days"`
	SessionMinMinutes int `json:"session_min_minutes"`
	SessionMaxMinutes int `json:"session_max_minutes"`
}

// Preferences are soft constraints; the solver penalizes deviation but
// never fails on them.
type Preferences struct {
	SessionsPerWeekMin    int  `json:"sessions_per_week_min"`
	SessionsPerWeekMax    int  `json:"sessions_per_week_max"`
	PreferShorterSessions bool `json:"prefer_shorter_sessions"`
}

// UserProfile is an immutable snapshot produced by the consultation
// pipeline. The engine only reads it; the owning service versions it on
// material change.
type UserProfile struct {
	ID                  string         `json:"id"`
	Version             int            `json:"version"`
	Age                 int            `json:"age"`
	Sex                 Sex            `json:"sex"`
	WeightKG            float64        `json:"weight_kg"`
	HeightCM            float64        `json:"height_cm"`
	BodyFatPct          float64        `json:"body_fat_pct,omitempty"`
	Medical             MedicalHistory `json:"medical"`
	Goal                Goal           `json:"goal"`
	TargetWeightKG      float64        `json:"target_weight_kg,omitempty"`
	TargetRateKGPerWeek float64        `json:"target_rate_kg_per_week"`
	TimelineWeeks       int            `json:"timeline_weeks"`
	ExperienceYears     float64        `json:"experience_years"`
	Equipment           []string       `json:"equipment,omitempty"`
	WeeklyBudgetUSD     float64        `json:"weekly_budget_usd,omitempty"`
	Schedule            Schedule       `json:"schedule"`
	Preferences         Preferences    `json:"preferences"`
}

// BMI returns weight/height² in kg/m², or 0 when height is unset.
func (p UserProfile) BMI() float64 {
	if p.HeightCM <= 0 {
		return 0
	}
	h := p.HeightCM / 100
	return p.WeightKG / (h * h)
}

// Experience buckets training history into the levels the volume
// ceilings are keyed by: <1y beginner, 1-4y intermediate, 4y+ advanced.
func (p UserProfile) Experience() ExperienceLevel {
	switch {
	case p.ExperienceYears < 1:
		return ExperienceBeginner
	case p.ExperienceYears < 4:
		return ExperienceIntermediate
	default:
		return ExperienceAdvanced
	}
}

// TDEEResult is computed upstream and consumed as a constraint bound.
// CI bounds reflect estimation uncertainty; the engine never mutates it.
type TDEEResult struct {
	BMR           float64 `json:"bmr"`
	TDEE          float64 `json:"tdee"`
	TDEECILower   float64 `json:"tdee_ci_lower"`
	TDEECIUpper   float64 `json:"tdee_ci_upper"`
	ActivityLevel string  `json:"activity_level"`
}

// SolveStatus discriminates solver outcomes. TIMEOUT is retryable with a
// relaxed budget and must never be conflated with INFEASIBLE.
type SolveStatus string

const (
	SolveFeasible   SolveStatus = "FEASIBLE"
	SolveInfeasible SolveStatus = "INFEASIBLE"
	SolveTimeout    SolveStatus = "TIMEOUT"
	SolveError      SolveStatus = "ERROR"
)

// OptimalParams holds concrete integer values for every decision
// variable of a feasible solve. CarbsG is derived from the calorie
// algebra, never a free variable.
type OptimalParams struct {
	SessionsPerWeek       int            `json:"sessions_per_week"`
	SessionDurationMin    int            `json:"session_duration_minutes"`
	WeeklyTrainingMinutes int            `json:"weekly_training_minutes"`
	Calories              int            `json:"calories"`
	ProteinG              int            `json:"protein_g"`
	FatG                  int            `json:"fat_g"`
	CarbsG                int            `json:"carbs_g"`
	SetsPerMuscle         map[string]int `json:"sets_per_muscle"`
}

// Severity ranks a finding. Aggregation is by max: any critical finding
// without clearance blocks.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityModerate Severity = "moderate"
)

// Diagnostic explains one violated hard constraint of an infeasible
// solve in caller-facing terms.
type Diagnostic struct {
	Code       string   `json:"code"`
	Constraint string   `json:"constraint"`
	Detail     string   `json:"detail"`
	Severity   Severity `json:"severity"`
}

// TradeOffOption is a quantified alternative offered when the original
// goal is infeasible. IDs are fixed: A relaxes the goal, B relaxes
// constraints, C is the hybrid.
type TradeOffOption struct {
	ID               string             `json:"id"`
	Summary          string             `json:"summary"`
	Adjustments      map[string]float64 `json:"adjustments"`
	ExpectedOutcomes string             `json:"expected_outcomes"`
	TradeOff         string             `json:"trade_off"`
	FeasibilityScore float64            `json:"feasibility_score"`
}

// SolverResult is the single output of one solve invocation. The engine
// does not persist it; the caller decides storage.
type SolverResult struct {
	Status        SolveStatus      `json:"status"`
	Feasible      bool             `json:"feasible"`
	RuntimeMS     int64            `json:"runtime_ms"`
	OptimalParams *OptimalParams   `json:"optimal_params,omitempty"`
	Diagnostics   []Diagnostic     `json:"diagnostics,omitempty"`
	TradeOffs     []TradeOffOption `json:"trade_offs,omitempty"`
	Err           string           `json:"error,omitempty"`
}

// SafetyLevel discriminates safety outcomes.
type SafetyLevel string

const (
	SafetyCleared SafetyLevel = "CLEARED"
	SafetyWarning SafetyLevel = "WARNING"
	SafetyBlocked SafetyLevel = "BLOCKED"
)

// Violation is one triggered safety rule.
type Violation struct {
	Code     string   `json:"code"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// SafetyCheckResult is produced fresh on every validation call and never
// cached across profile changes. On WARNING the caller must apply
// Modifications downstream; on BLOCKED Reason is always set.
type SafetyCheckResult struct {
	Level           SafetyLevel       `json:"level"`
	Passed          bool              `json:"passed"`
	Violations      []Violation       `json:"violations,omitempty"`
	Recommendations []string          `json:"recommendations,omitempty"`
	Modifications   map[string]string `json:"modifications,omitempty"`
	Reason          string            `json:"reason,omitempty"`
}

// Sentiment is the rolled-up adherence mood over a reporting window.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// ProgressSnapshot is the compact reduction of a reassessment window's
// raw logs, consumed by the controllers.
type ProgressSnapshot struct {
	PeriodDays            int       `json:"period_days"`
	MealAdherence         float64   `json:"meal_adherence"`
	TrainingAdherence     float64   `json:"training_adherence"`
	ObservedRateKGPerWeek float64   `json:"observed_rate_kg_per_week"`
	StartWeightKG         float64   `json:"start_weight_kg"`
	EndWeightKG           float64   `json:"end_weight_kg"`
	LoggedMealDays        int       `json:"logged_meal_days"`
	LoggedTrainingDays    int       `json:"logged_training_days"`
	BodyMetricCount       int       `json:"body_metric_count"`
	Sentiment             Sentiment `json:"sentiment"`
	KeyBarriers           []string  `json:"key_barriers,omitempty"`
	Confidence            float64   `json:"confidence"`
}

// PIDAdjustment is the pure output of one controller evaluation.
// Rationale is mandatory for user transparency.
type PIDAdjustment struct {
	Current          float64 `json:"current"`
	Recommended      float64 `json:"recommended"`
	AdjustmentAmount float64 `json:"adjustment_amount"`
	AdjustmentPct    float64 `json:"adjustment_percentage"`
	Rationale        string  `json:"rationale"`
}

// PlanAdjustment is the outcome of one reassessment cycle.
type PlanAdjustment struct {
	UserID    string           `json:"user_id"`
	Cycle     int              `json:"cycle"`
	Committed bool             `json:"committed"`
	Calories  PIDAdjustment    `json:"calories"`
	Volume    PIDAdjustment    `json:"volume"`
	Snapshot  ProgressSnapshot `json:"snapshot"`
	Warnings  []string         `json:"warnings,omitempty"`
}

// PlanVersion is one versioned rendition of an active program. Exactly
// one version per user is active at a time.
type PlanVersion struct {
	UserID              string    `json:"user_id"`
	Version             int       `json:"version"`
	Active              bool      `json:"active"`
	CreatedAt           time.Time `json:"created_at"`
	Calories            int       `json:"calories"`
	WeeklySets          int       `json:"weekly_sets"`
	SessionsPerWeek     int       `json:"sessions_per_week"`
	TDEE                float64   `json:"tdee"`
	TargetRateKGPerWeek float64   `json:"target_rate_kg_per_week"`
	StartedAt           time.Time `json:"started_at"`
}

// DeficitPct returns the plan's calorie deficit as a percentage of TDEE.
// Surplus plans return a negative value.
func (p PlanVersion) DeficitPct() float64 {
	if p.TDEE <= 0 {
		return 0
	}
	return (p.TDEE - float64(p.Calories)) / p.TDEE * 100
}

// MealLog, ActivityLog, BodyMetric, and CoachMessage are the raw log
// shapes handed over by the persistence layer.
type MealLog struct {
	Date     time.Time `json:"date"`
	Calories int       `json:"calories"`
}

type ActivityLog struct {
	Date      time.Time `json:"date"`
	Minutes   int       `json:"minutes"`
	Completed bool      `json:"completed"`
}

type BodyMetric struct {
	Date     time.Time `json:"date"`
	WeightKG float64   `json:"weight_kg"`
}

type CoachMessage struct {
	Date time.Time `json:"date"`
	Text string    `json:"text"`
}
