package domain

import (
	"encoding/json"
	"fmt"
)

// DonePolicyKind tags the completion semantics of a task. The kind is chosen
// at creation and immutable afterwards.
type DonePolicyKind string

const (
	DoneByBoolean  DonePolicyKind = "BOOLEAN"
	DoneBySubTasks DonePolicyKind = "SUBTASKS"
	DoneByCounter  DonePolicyKind = "COUNTER"
	DoneByGauge    DonePolicyKind = "GAUGE"
)

// ComparisonKind selects how a counter/gauge value is judged against its limits.
type ComparisonKind string

const (
	CompareExactly ComparisonKind = "EXACTLY"
	CompareAtLeast ComparisonKind = "AT_LEAST"
	CompareAtMost  ComparisonKind = "AT_MOST"
	CompareBetween ComparisonKind = "BETWEEN"
)

func (c ComparisonKind) Valid() bool {
	switch c {
	case CompareExactly, CompareAtLeast, CompareAtMost, CompareBetween:
		return true
	}
	return false
}

// DonePolicy is the closed set of completion semantics. Each variant carries
// only the fields valid for it, so a policy/status mismatch is a type error
// rather than a runtime possibility.
type DonePolicy interface {
	Kind() DonePolicyKind
	isDonePolicy()
}

// BooleanPolicy: done once explicitly marked done.
type BooleanPolicy struct{}

// SubTasksPolicy: done once every non-archived subtask is marked done.
type SubTasksPolicy struct{}

// CounterPolicy: done once an integer value satisfies the comparison.
type CounterPolicy struct {
	Comparison ComparisonKind `json:"comparison"`
	Lower      int64          `json:"lower"`
	Upper      *int64         `json:"upper,omitempty"`
}

// GaugePolicy: like CounterPolicy, but over a directly set non-negative number.
type GaugePolicy struct {
	Comparison ComparisonKind `json:"comparison"`
	Lower      float64        `json:"lower"`
	Upper      *float64       `json:"upper,omitempty"`
}

func (BooleanPolicy) Kind() DonePolicyKind  { return DoneByBoolean }
func (SubTasksPolicy) Kind() DonePolicyKind { return DoneBySubTasks }
func (CounterPolicy) Kind() DonePolicyKind  { return DoneByCounter }
func (GaugePolicy) Kind() DonePolicyKind    { return DoneByGauge }

func (BooleanPolicy) isDonePolicy()  {}
func (SubTasksPolicy) isDonePolicy() {}
func (CounterPolicy) isDonePolicy()  {}
func (GaugePolicy) isDonePolicy()    {}

func (p CounterPolicy) Validate() error {
	if !p.Comparison.Valid() {
		return Invalid("invalid counter comparison %q", p.Comparison)
	}
	if p.Comparison == CompareBetween {
		if p.Upper == nil {
			return Invalid("BETWEEN counter policy requires an upper limit")
		}
		if *p.Upper < p.Lower {
			return Invalid("counter policy upper limit %d below lower limit %d", *p.Upper, p.Lower)
		}
	}
	return nil
}

func (p GaugePolicy) Validate() error {
	if !p.Comparison.Valid() {
		return Invalid("invalid gauge comparison %q", p.Comparison)
	}
	if p.Comparison == CompareBetween {
		if p.Upper == nil {
			return Invalid("BETWEEN gauge policy requires an upper limit")
		}
		if *p.Upper < p.Lower {
			return Invalid("gauge policy upper limit %g below lower limit %g", *p.Upper, p.Lower)
		}
	}
	return nil
}

// DoneStatus mirrors DonePolicy: one status variant per policy variant.
type DoneStatus interface {
	Kind() DonePolicyKind
	isDoneStatus()
}

type BooleanStatus struct {
	IsDone bool `json:"is_done"`
}

type SubTasksStatus struct {
	DoneSubTaskIDs []int64 `json:"done_subtask_ids"`
}

type CounterStatus struct {
	CurrentValue int64 `json:"current_value"`
}

type GaugeStatus struct {
	CurrentValue float64 `json:"current_value"`
}

func (BooleanStatus) Kind() DonePolicyKind  { return DoneByBoolean }
func (SubTasksStatus) Kind() DonePolicyKind { return DoneBySubTasks }
func (CounterStatus) Kind() DonePolicyKind  { return DoneByCounter }
func (GaugeStatus) Kind() DonePolicyKind    { return DoneByGauge }

func (BooleanStatus) isDoneStatus()  {}
func (SubTasksStatus) isDoneStatus() {}
func (CounterStatus) isDoneStatus()  {}
func (GaugeStatus) isDoneStatus()    {}

// Has reports whether the subtask id is in the done set.
func (s SubTasksStatus) Has(id int64) bool {
	for _, done := range s.DoneSubTaskIDs {
		if done == id {
			return true
		}
	}
	return false
}

// With returns the status with the subtask id added (set semantics).
func (s SubTasksStatus) With(id int64) SubTasksStatus {
	if s.Has(id) {
		return s
	}
	return SubTasksStatus{DoneSubTaskIDs: append(append([]int64{}, s.DoneSubTaskIDs...), id)}
}

// FreshStatus produces the zero-progress status for a policy. Every new
// scheduled task entry starts from it; progress is never copied forward.
func FreshStatus(policy DonePolicy) (DoneStatus, error) {
	switch policy.(type) {
	case BooleanPolicy:
		return BooleanStatus{}, nil
	case SubTasksPolicy:
		return SubTasksStatus{}, nil
	case CounterPolicy:
		return CounterStatus{}, nil
	case GaugePolicy:
		return GaugeStatus{}, nil
	default:
		return nil, Integrity("unknown done policy %T", policy)
	}
}

// RecomputeDone derives isDone from the policy and current status. It is the
// only producer of isDone: after any status write the caller re-derives the
// flag so it can never drift from its inputs. liveSubTaskIDs is the set of
// non-archived subtask ids of the owning task, consulted only by the
// SUBTASKS variant.
func RecomputeDone(policy DonePolicy, status DoneStatus, liveSubTaskIDs []int64) (bool, error) {
	if policy.Kind() != status.Kind() {
		return false, Integrity("done status %s does not match policy %s", status.Kind(), policy.Kind())
	}
	switch p := policy.(type) {
	case BooleanPolicy:
		return status.(BooleanStatus).IsDone, nil
	case SubTasksPolicy:
		s := status.(SubTasksStatus)
		for _, id := range liveSubTaskIDs {
			if !s.Has(id) {
				return false, nil
			}
		}
		return true, nil
	case CounterPolicy:
		return compareInt(p.Comparison, status.(CounterStatus).CurrentValue, p.Lower, p.Upper)
	case GaugePolicy:
		return compareFloat(p.Comparison, status.(GaugeStatus).CurrentValue, p.Lower, p.Upper)
	default:
		return false, Integrity("unknown done policy %T", policy)
	}
}

func compareInt(kind ComparisonKind, value, lower int64, upper *int64) (bool, error) {
	switch kind {
	case CompareExactly:
		return value == lower, nil
	case CompareAtLeast:
		return value >= lower, nil
	case CompareAtMost:
		return value <= lower, nil
	case CompareBetween:
		if upper == nil {
			return false, Integrity("BETWEEN counter policy without upper limit")
		}
		return value >= lower && value <= *upper, nil
	default:
		return false, Integrity("unknown comparison %q", kind)
	}
}

func compareFloat(kind ComparisonKind, value, lower float64, upper *float64) (bool, error) {
	switch kind {
	case CompareExactly:
		return value == lower, nil
	case CompareAtLeast:
		return value >= lower, nil
	case CompareAtMost:
		return value <= lower, nil
	case CompareBetween:
		if upper == nil {
			return false, Integrity("BETWEEN gauge policy without upper limit")
		}
		return value >= lower && value <= *upper, nil
	default:
		return false, Integrity("unknown comparison %q", kind)
	}
}

// DonePolicyBox carries a DonePolicy through JSON round-trips using a tagged
// envelope, keeping the in-memory representation a closed sum.
type DonePolicyBox struct {
	Policy DonePolicy
}

type donePolicyEnvelope struct {
	Kind    DonePolicyKind `json:"kind"`
	Counter *CounterPolicy `json:"counter,omitempty"`
	Gauge   *GaugePolicy   `json:"gauge,omitempty"`
}

func (b DonePolicyBox) MarshalJSON() ([]byte, error) {
	if b.Policy == nil {
		return []byte("null"), nil
	}
	env := donePolicyEnvelope{Kind: b.Policy.Kind()}
	switch p := b.Policy.(type) {
	case CounterPolicy:
		env.Counter = &p
	case GaugePolicy:
		env.Gauge = &p
	}
	return json.Marshal(env)
}

func (b *DonePolicyBox) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		b.Policy = nil
		return nil
	}
	var env donePolicyEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	switch env.Kind {
	case DoneByBoolean:
		b.Policy = BooleanPolicy{}
	case DoneBySubTasks:
		b.Policy = SubTasksPolicy{}
	case DoneByCounter:
		if env.Counter == nil {
			return fmt.Errorf("counter done policy missing body")
		}
		b.Policy = *env.Counter
	case DoneByGauge:
		if env.Gauge == nil {
			return fmt.Errorf("gauge done policy missing body")
		}
		b.Policy = *env.Gauge
	default:
		return fmt.Errorf("unknown done policy kind %q", env.Kind)
	}
	return nil
}

// DoneStatusBox is the JSON envelope for DoneStatus values.
type DoneStatusBox struct {
	Status DoneStatus
}

type doneStatusEnvelope struct {
	Kind     DonePolicyKind  `json:"kind"`
	Boolean  *BooleanStatus  `json:"boolean,omitempty"`
	SubTasks *SubTasksStatus `json:"subtasks,omitempty"`
	Counter  *CounterStatus  `json:"counter,omitempty"`
	Gauge    *GaugeStatus    `json:"gauge,omitempty"`
}

func (b DoneStatusBox) MarshalJSON() ([]byte, error) {
	if b.Status == nil {
		return []byte("null"), nil
	}
	env := doneStatusEnvelope{Kind: b.Status.Kind()}
	switch s := b.Status.(type) {
	case BooleanStatus:
		env.Boolean = &s
	case SubTasksStatus:
		env.SubTasks = &s
	case CounterStatus:
		env.Counter = &s
	case GaugeStatus:
		env.Gauge = &s
	}
	return json.Marshal(env)
}

func (b *DoneStatusBox) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		b.Status = nil
		return nil
	}
	var env doneStatusEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	switch env.Kind {
	case DoneByBoolean:
		if env.Boolean == nil {
			return fmt.Errorf("boolean done status missing body")
		}
		b.Status = *env.Boolean
	case DoneBySubTasks:
		if env.SubTasks == nil {
			return fmt.Errorf("subtasks done status missing body")
		}
		b.Status = *env.SubTasks
	case DoneByCounter:
		if env.Counter == nil {
			return fmt.Errorf("counter done status missing body")
		}
		b.Status = *env.Counter
	case DoneByGauge:
		if env.Gauge == nil {
			return fmt.Errorf("gauge done status missing body")
		}
		b.Status = *env.Gauge
	default:
		return fmt.Errorf("unknown done status kind %q", env.Kind)
	}
	return nil
}
