package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DraftParams is the typed staging area a user fills before submission.
// Each external event merges exactly one field; nothing ever removes one.
type DraftParams struct {
	Prompt         string          `json:"prompt,omitempty"`
	FileID         string          `json:"file_id,omitempty"`
	Mode           string          `json:"mode,omitempty"`
	Size           string          `json:"size,omitempty"`
	Quality        string          `json:"quality,omitempty"`
	UpscaleFactor  int             `json:"upscale,omitempty"`
	Megapixels     decimal.Decimal `json:"megapixels,omitempty"`
	DurationSec    int             `json:"duration,omitempty"`
	WithAudio      bool            `json:"with_audio,omitempty"`
	TranscribeMode string          `json:"transcribe_mode,omitempty"`
	VoiceID        int64           `json:"voice_id,omitempty"`
	AwaitingInput  bool            `json:"awaiting_input,omitempty"`
}

// Value implements driver.Valuer so params persist as JSONB.
func (p DraftParams) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements sql.Scanner.
func (p *DraftParams) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*p = DraftParams{}
		return nil
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	}
	return fmt.Errorf("cannot scan %T into DraftParams", src)
}

// Draft is the in-progress request for one (user, section) pair. At most one
// exists per pair; it is deleted when converted into a job.
type Draft struct {
	ID        int64       `db:"id"`
	UserID    int64       `db:"user_id"`
	Section   Section     `db:"section"`
	Params    DraftParams `db:"params"`
	CreatedAt time.Time   `db:"created_at"`
	UpdatedAt time.Time   `db:"updated_at"`
}

// Ready reports whether the draft holds everything its section and mode need
// for submission.
func (d *Draft) Ready() bool {
	p := d.Params
	switch d.Section {
	case SectionText:
		return p.Prompt != ""
	case SectionImage, SectionVideo:
		if p.Mode == ModeUpscale {
			return p.FileID != "" && p.UpscaleFactor > 0
		}
		return p.Prompt != ""
	case SectionAudio:
		switch p.Mode {
		case AudioModeTranscribe:
			return p.FileID != "" && p.TranscribeMode != ""
		case AudioModeTTS:
			return p.Prompt != "" && p.VoiceID != 0
		default: // music
			return p.Prompt != ""
		}
	case SectionThreeD:
		return p.FileID != "" && p.Quality != ""
	}
	// sections without a submission flow never become ready
	return false
}
