package usecase

// Outcome reports which aggregate(s) a mutation changed, so the coordinator
// persists exactly those and nothing else. A USER outcome covers
// account-level edits such as vacations, outside the tree logic.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeSchedule
	OutcomePlanAndSchedule
	OutcomeUser
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNone:
		return "NONE"
	case OutcomeSchedule:
		return "SCHEDULE"
	case OutcomePlanAndSchedule:
		return "PLAN_AND_SCHEDULE"
	case OutcomeUser:
		return "USER"
	default:
		return "UNKNOWN"
	}
}
