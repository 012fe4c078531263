package buffer

import (
	"encoding/json"
	"time"
)

// Kind tags which aggregate a buffered snapshot belongs to.
type Kind string

const (
	KindPlan     Kind = "plan"
	KindSchedule Kind = "schedule"
)

// Item is one snapshot save that could not reach the primary store. Data is
// the serialized aggregate; Version is carried for logging only.
type Item struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	Kind       Kind            `json:"kind"`
	Version    string          `json:"version"`
	Data       json.RawMessage `json:"data"`
	Retries    int             `json:"retries"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}
