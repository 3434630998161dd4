package training

// SetType can be one of:
//   - warmup
//   - working
//   - drop
//   - failure
type SetType string

const (
	SetTypeWarmup  SetType = "warmup"
	SetTypeWorking SetType = "working"
	SetTypeDrop    SetType = "drop"
	SetTypeFailure SetType = "failure"
)

func (st SetType) String() string {
	return string(st)
}

func (st SetType) IsValid() bool {
	switch st {
	case SetTypeWarmup,
		SetTypeWorking,
		SetTypeDrop,
		SetTypeFailure:
		return true
	default:
		return false
	}
}

// IsWorking reports whether the set counts towards performance tracking.
// Sets taken to failure are working sets too.
func (st SetType) IsWorking() bool {
	return st == SetTypeWorking || st == SetTypeFailure
}

// ExerciseClass drives the weight increment used by progression.
type ExerciseClass string

const (
	ExerciseClassCompound  ExerciseClass = "compound"
	ExerciseClassIsolation ExerciseClass = "isolation"
)

func (ec ExerciseClass) String() string {
	return string(ec)
}

func (ec ExerciseClass) IsValid() bool {
	return ec == ExerciseClassCompound || ec == ExerciseClassIsolation
}

// DeloadType can be one of:
//   - VOLUME_REDUCTION
//   - INTENSITY_REDUCTION
//   - ACTIVE_RECOVERY
type DeloadType string

const (
	DeloadTypeVolumeReduction    DeloadType = "VOLUME_REDUCTION"
	DeloadTypeIntensityReduction DeloadType = "INTENSITY_REDUCTION"
	DeloadTypeActiveRecovery     DeloadType = "ACTIVE_RECOVERY"
)

func (dt DeloadType) String() string {
	return string(dt)
}

func (dt DeloadType) IsValid() bool {
	switch dt {
	case DeloadTypeVolumeReduction,
		DeloadTypeIntensityReduction,
		DeloadTypeActiveRecovery:
		return true
	default:
		return false
	}
}

// PeriodizationType can be one of:
//   - LINEAR
//   - UNDULATING
//   - BLOCK
type PeriodizationType string

const (
	PeriodizationLinear     PeriodizationType = "LINEAR"
	PeriodizationUndulating PeriodizationType = "UNDULATING"
	PeriodizationBlock      PeriodizationType = "BLOCK"
)

func (pt PeriodizationType) String() string {
	return string(pt)
}

func (pt PeriodizationType) IsValid() bool {
	switch pt {
	case PeriodizationLinear,
		PeriodizationUndulating,
		PeriodizationBlock:
		return true
	default:
		return false
	}
}

type TrainingGoal string

const (
	GoalHypertrophy TrainingGoal = "hypertrophy"
	GoalStrength    TrainingGoal = "strength"
	GoalPower       TrainingGoal = "power"
	GoalEndurance   TrainingGoal = "endurance"
	GoalGeneral     TrainingGoal = "general"
)

func (g TrainingGoal) String() string {
	return string(g)
}

func (g TrainingGoal) IsValid() bool {
	switch g {
	case GoalHypertrophy,
		GoalStrength,
		GoalPower,
		GoalEndurance,
		GoalGeneral:
		return true
	default:
		return false
	}
}

// WeekType tags a mesocycle week with its role in the block.
type WeekType string

const (
	WeekTypeAccumulation    WeekType = "accumulation"
	WeekTypeIntensification WeekType = "intensification"
	WeekTypePeak            WeekType = "peak"
	WeekTypeDeload          WeekType = "deload"
	WeekTypeTaper           WeekType = "taper"
)

func (wt WeekType) String() string {
	return string(wt)
}

func (wt WeekType) IsValid() bool {
	switch wt {
	case WeekTypeAccumulation,
		WeekTypeIntensification,
		WeekTypePeak,
		WeekTypeDeload,
		WeekTypeTaper:
		return true
	default:
		return false
	}
}

// IsRecovery reports whether the week is a planned reduction week.
func (wt WeekType) IsRecovery() bool {
	return wt == WeekTypeDeload || wt == WeekTypeTaper
}

// MesocycleStatus can be one of:
//   - planned
//   - active
//   - completed
//   - cancelled
type MesocycleStatus string

const (
	MesocyclePlanned   MesocycleStatus = "planned"
	MesocycleActive    MesocycleStatus = "active"
	MesocycleCompleted MesocycleStatus = "completed"
	MesocycleCancelled MesocycleStatus = "cancelled"
)

func (ms MesocycleStatus) String() string {
	return string(ms)
}

func (ms MesocycleStatus) IsValid() bool {
	switch ms {
	case MesocyclePlanned,
		MesocycleActive,
		MesocycleCompleted,
		MesocycleCancelled:
		return true
	default:
		return false
	}
}

// IsFinal reports whether no further transition is possible.
func (ms MesocycleStatus) IsFinal() bool {
	return ms == MesocycleCompleted || ms == MesocycleCancelled
}
