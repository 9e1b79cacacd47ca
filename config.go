package adaptengine

// PolicyConfig holds the medical and nutritional policy constants. They
// are centrally configurable via environment and never overridden per
// request.
type PolicyConfig struct {
	BMIBlockBelow       float64 `env:"POLICY_BMI_BLOCK_BELOW,default=16"`
	BMIUnderweightBelow float64 `env:"POLICY_BMI_UNDERWEIGHT_BELOW,default=18.5"`
	BMIClearanceAbove   float64 `env:"POLICY_BMI_CLEARANCE_ABOVE,default=40"`

	MinorAgeBelow      int     `env:"POLICY_MINOR_AGE_BELOW,default=18"`
	SeniorAgeFrom      int     `env:"POLICY_SENIOR_AGE_FROM,default=65"`
	MinorMaxDeficitPct float64 `env:"POLICY_MINOR_MAX_DEFICIT_PCT,default=10"`

	MaxDeficitPctSolve  float64 `env:"POLICY_MAX_DEFICIT_PCT_SOLVE,default=30"`
	MaxDeficitPctAdjust float64 `env:"POLICY_MAX_DEFICIT_PCT_ADJUST,default=25"`
	LowAdherencePct     float64 `env:"POLICY_LOW_ADHERENCE_PCT,default=70"`

	PregnancyMaxHeartRate  int `env:"POLICY_PREGNANCY_MAX_HR,default=140"`
	PregnancySupineCutoffW int `env:"POLICY_PREGNANCY_SUPINE_CUTOFF_WEEK,default=12"`

	CalorieFloorMale   int `env:"POLICY_CALORIE_FLOOR_MALE,default=1500"`
	CalorieFloorFemale int `env:"POLICY_CALORIE_FLOOR_FEMALE,default=1200"`

	ProteinFloorFatLossGKG    float64 `env:"POLICY_PROTEIN_FLOOR_FAT_LOSS_GKG,default=2.0"`
	ProteinCapFatLossGKG      float64 `env:"POLICY_PROTEIN_CAP_FAT_LOSS_GKG,default=2.4"`
	ProteinFloorMuscleGainGKG float64 `env:"POLICY_PROTEIN_FLOOR_MUSCLE_GAIN_GKG,default=1.6"`
	ProteinCapMuscleGainGKG   float64 `env:"POLICY_PROTEIN_CAP_MUSCLE_GAIN_GKG,default=2.2"`
	ProteinFloorDefaultGKG    float64 `env:"POLICY_PROTEIN_FLOOR_DEFAULT_GKG,default=1.6"`
	ProteinCapDefaultGKG      float64 `env:"POLICY_PROTEIN_CAP_DEFAULT_GKG,default=2.0"`
	FatFloorGKG               float64 `env:"POLICY_FAT_FLOOR_GKG,default=0.8"`

	KcalPerKGFat        float64 `env:"POLICY_KCAL_PER_KG_FAT,default=7700"`
	BudgetPer100KcalDay float64 `env:"POLICY_BUDGET_PER_100KCAL_DAY,default=1.50"`
	MinutesPerSet       int     `env:"POLICY_MINUTES_PER_SET,default=5"`

	SetsFloorBeginner       int `env:"POLICY_SETS_FLOOR_BEGINNER,default=8"`
	SetsCeilingBeginner     int `env:"POLICY_SETS_CEILING_BEGINNER,default=12"`
	SetsFloorIntermediate   int `env:"POLICY_SETS_FLOOR_INTERMEDIATE,default=10"`
	SetsCeilingIntermediate int `env:"POLICY_SETS_CEILING_INTERMEDIATE,default=16"`
	SetsFloorAdvanced       int `env:"POLICY_SETS_FLOOR_ADVANCED,default=12"`
	SetsCeilingAdvanced     int `env:"POLICY_SETS_CEILING_ADVANCED,default=20"`
}

// SetsFloor returns the weekly per-muscle set floor for a level.
func (p PolicyConfig) SetsFloor(level ExperienceLevel) int {
	switch level {
	case ExperienceBeginner:
		return p.SetsFloorBeginner
	case ExperienceIntermediate:
		return p.SetsFloorIntermediate
	default:
		return p.SetsFloorAdvanced
	}
}

// SetsCeiling returns the weekly per-muscle set ceiling for a level.
func (p PolicyConfig) SetsCeiling(level ExperienceLevel) int {
	switch level {
	case ExperienceBeginner:
		return p.SetsCeilingBeginner
	case ExperienceIntermediate:
		return p.SetsCeilingIntermediate
	default:
		return p.SetsCeilingAdvanced
	}
}

// CalorieFloor returns the sex-specific minimum daily calorie intake.
func (p PolicyConfig) CalorieFloor(sex Sex) int {
	if sex == SexMale {
		return p.CalorieFloorMale
	}
	return p.CalorieFloorFemale
}

// ProteinBounds returns the goal-scaled protein floor and cap in g/kg.
func (p PolicyConfig) ProteinBounds(goal Goal) (floor, cap float64) {
	switch goal {
	case GoalFatLoss:
		return p.ProteinFloorFatLossGKG, p.ProteinCapFatLossGKG
	case GoalMuscleGain:
		return p.ProteinFloorMuscleGainGKG, p.ProteinCapMuscleGainGKG
	default:
		return p.ProteinFloorDefaultGKG, p.ProteinCapDefaultGKG
	}
}

// DefaultPolicy returns the policy constants with their shipped
// defaults, matching the env tags above. Env decoding overrides these in
// deployed services; tests and embedders use the defaults directly.
func DefaultPolicy() PolicyConfig {
	return PolicyConfig{
		BMIBlockBelow:       16,
		BMIUnderweightBelow: 18.5,
		BMIClearanceAbove:   40,

		MinorAgeBelow:      18,
		SeniorAgeFrom:      65,
		MinorMaxDeficitPct: 10,

		MaxDeficitPctSolve:  30,
		MaxDeficitPctAdjust: 25,
		LowAdherencePct:     70,

		PregnancyMaxHeartRate:  140,
		PregnancySupineCutoffW: 12,

		CalorieFloorMale:   1500,
		CalorieFloorFemale: 1200,

		ProteinFloorFatLossGKG:    2.0,
		ProteinCapFatLossGKG:      2.4,
		ProteinFloorMuscleGainGKG: 1.6,
		ProteinCapMuscleGainGKG:   2.2,
		ProteinFloorDefaultGKG:    1.6,
		ProteinCapDefaultGKG:      2.0,
		FatFloorGKG:               0.8,

		KcalPerKGFat:        7700,
		BudgetPer100KcalDay: 1.50,
		MinutesPerSet:       5,

		SetsFloorBeginner:       8,
		SetsCeilingBeginner:     12,
		SetsFloorIntermediate:   10,
		SetsCeilingIntermediate: 16,
		SetsFloorAdvanced:       12,
		SetsCeilingAdvanced:     20,
	}
}

// SolverConfig bounds the constraint solver's search. Time budget and
// worker cap are explicit; the solver returns TIMEOUT rather than
// blocking past the budget.
type SolverConfig struct {
	TimeBudgetMS int `env:"SOLVER_TIME_BUDGET_MS,default=2000"`
	MaxThreads   int `env:"SOLVER_MAX_THREADS,default=4"`

	CalorieStepKcal int `env:"SOLVER_CALORIE_STEP_KCAL,default=25"`
	MacroStepG      int `env:"SOLVER_MACRO_STEP_G,default=5"`
	DurationStepMin int `env:"SOLVER_DURATION_STEP_MIN,default=5"`

	// Soft-constraint penalty weights.
	PenaltyFrequency int `env:"SOLVER_PENALTY_FREQUENCY,default=5"`
	PenaltyDuration  int `env:"SOLVER_PENALTY_DURATION,default=3"`
	PenaltyImbalance int `env:"SOLVER_PENALTY_IMBALANCE,default=10"`

	// Trade-off feasibility scores for options A, B, and C.
	ScoreRelaxGoal        float64 `env:"SOLVER_SCORE_RELAX_GOAL,default=0.70"`
	ScoreRelaxConstraints float64 `env:"SOLVER_SCORE_RELAX_CONSTRAINTS,default=0.85"`
	ScoreHybrid           float64 `env:"SOLVER_SCORE_HYBRID,default=0.80"`
}

// DefaultSolverConfig mirrors the env tag defaults.
func DefaultSolverConfig() SolverConfig {
	return SolverConfig{
		TimeBudgetMS:          2000,
		MaxThreads:            4,
		CalorieStepKcal:       25,
		MacroStepG:            5,
		DurationStepMin:       5,
		PenaltyFrequency:      5,
		PenaltyDuration:       3,
		PenaltyImbalance:      10,
		ScoreRelaxGoal:        0.70,
		ScoreRelaxConstraints: 0.85,
		ScoreHybrid:           0.80,
	}
}

// ControlConfig tunes the PID controllers and reassessment cadence.
type ControlConfig struct {
	CadenceDays int `env:"CONTROL_CADENCE_DAYS,default=14"`

	CalorieKP              float64 `env:"CONTROL_CALORIE_KP,default=0.5"`
	CalorieKI              float64 `env:"CONTROL_CALORIE_KI,default=0.1"`
	MaxCaloriePctPerCycle  float64 `env:"CONTROL_MAX_CALORIE_PCT_PER_CYCLE,default=10"`
	MinConfidenceDays      int     `env:"CONTROL_MIN_CONFIDENCE_DAYS,default=10"`
	TargetAdherence        float64 `env:"CONTROL_TARGET_ADHERENCE,default=0.85"`
	DeloadIntervalWeeks    int     `env:"CONTROL_DELOAD_INTERVAL_WEEKS,default=6"`
	DeloadVolumeReduction  float64 `env:"CONTROL_DELOAD_VOLUME_REDUCTION,default=0.4"`
	VolumeStepSetsPerCycle int     `env:"CONTROL_VOLUME_STEP_SETS_PER_CYCLE,default=2"`
}

// EngineConfig wires one deployed engine instance: where state lives,
// where cycle outcomes are posted, and which sentiment classifier runs.
type EngineConfig struct {
	DataDir       string `env:"ENGINE_DATA_DIR,default=./data"`
	S3Bucket      string `env:"ENGINE_S3_BUCKET"`
	S3Prefix      string `env:"ENGINE_S3_PREFIX,default=adapt-engine"`
	WebhookURL    string `env:"ENGINE_WEBHOOK_URL"`
	NotifyChannel string `env:"ENGINE_NOTIFY_CHANNEL,default=#coaching"`
	LLMSentiment  bool   `env:"ENGINE_LLM_SENTIMENT,default=false"`
}

// DefaultControlConfig mirrors the env tag defaults.
func DefaultControlConfig() ControlConfig {
	return ControlConfig{
		CadenceDays:            14,
		CalorieKP:              0.5,
		CalorieKI:              0.1,
		MaxCaloriePctPerCycle:  10,
		MinConfidenceDays:      10,
		TargetAdherence:        0.85,
		DeloadIntervalWeeks:    6,
		DeloadVolumeReduction:  0.4,
		VolumeStepSetsPerCycle: 2,
	}
}
