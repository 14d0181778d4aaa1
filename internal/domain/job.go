package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// JobStatus moves strictly forward: queued → processing → done|error.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusDone       JobStatus = "done"
	JobStatusError      JobStatus = "error"
)

// Terminal reports whether the status ends the lifecycle. A terminal job is
// immutable except for the delivery-failed flag.
func (s JobStatus) Terminal() bool {
	return s == JobStatusDone || s == JobStatusError
}

// Result is the payload a finished job carries back to the user.
type Result struct {
	FilePath string `json:"file_path,omitempty"`
	FileURL  string `json:"file_url,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Value implements driver.Valuer.
func (r Result) Value() (driver.Value, error) {
	return json.Marshal(r)
}

// Scan implements sql.Scanner.
func (r *Result) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*r = Result{}
		return nil
	case []byte:
		return json.Unmarshal(v, r)
	case string:
		return json.Unmarshal([]byte(v), r)
	}
	return fmt.Errorf("cannot scan %T into Result", src)
}

// Job is a priced, persisted unit of work.
type Job struct {
	ID             int64          `db:"id"`
	UserID         int64          `db:"user_id"`
	DraftID        *int64         `db:"draft_id"`
	Section        Section        `db:"section"`
	Status         JobStatus      `db:"status"`
	QueueRef       *string        `db:"queue_ref"`
	Price          int64          `db:"price"`
	Payload        RequestPayload `db:"payload"`
	Result         *Result        `db:"result"`
	ErrorMessage   *string        `db:"error_message"`
	IdempotencyKey *string        `db:"idempotency_key"`
	DeliveryFailed bool           `db:"delivery_failed"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}
