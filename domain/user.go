package domain

import "time"

// User represents an account known to the planner. Vacations are owned here
// and consulted (not owned) by the scheduler.
type User struct {
	ID          string      `json:"id"`
	Email       string      `json:"email,omitempty"`
	DisplayName string      `json:"display_name,omitempty"`
	Status      string      `json:"status"`
	IDSerial    int64       `json:"id_serial"`
	Vacations   []*Vacation `json:"vacations,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Vacation is a half-open absence window [Start, End).
type Vacation struct {
	ID       int64     `json:"id"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Archived bool      `json:"archived"`
}

func (u *User) IsActive() bool {
	return u != nil && u.Status == "active"
}

// AddVacation records a new absence window.
func (u *User) AddVacation(start, end time.Time) (*Vacation, error) {
	if !end.After(start) {
		return nil, Invalid("vacation end must be after its start")
	}
	u.IDSerial++
	v := &Vacation{
		ID:    u.IDSerial,
		Start: start,
		End:   end,
	}
	u.Vacations = append(u.Vacations, v)
	return v, nil
}

// ArchiveVacation removes a window from scheduling consideration.
func (u *User) ArchiveVacation(id int64) (*Vacation, error) {
	for _, v := range u.Vacations {
		if v.ID == id {
			if v.Archived {
				return nil, Invalid("vacation %d is already archived", id)
			}
			v.Archived = true
			return v, nil
		}
	}
	return nil, ErrVacationNotFound
}

// OnVacation reports whether the day falls inside any non-archived vacation
// window, judged on the UTC day grain with a half-open interval.
func (u *User) OnVacation(day Day) bool {
	if u == nil {
		return false
	}
	d := day.Time()
	for _, v := range u.Vacations {
		if v.Archived {
			continue
		}
		if !d.Before(DayOf(v.Start).Time()) && d.Before(DayOf(v.End).Time()) {
			return true
		}
	}
	return false
}
