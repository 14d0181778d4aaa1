package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// RequestPayload is the validated request a job carries: a tagged union keyed
// by section, one typed variant per section. Exactly one variant matching the
// section must be set; Validate enforces this at construction time.
type RequestPayload struct {
	Section Section        `json:"section"`
	Text    *TextRequest   `json:"text,omitempty"`
	Image   *ImageRequest  `json:"image,omitempty"`
	Video   *VideoRequest  `json:"video,omitempty"`
	Audio   *AudioRequest  `json:"audio,omitempty"`
	ThreeD  *ThreeDRequest `json:"three_d,omitempty"`
}

type TextRequest struct {
	Prompt string `json:"prompt"`
}

type ImageRequest struct {
	Mode          string          `json:"mode,omitempty"`
	Prompt        string          `json:"prompt,omitempty"`
	FileID        string          `json:"file_id,omitempty"`
	Size          string          `json:"size,omitempty"`
	Quality       string          `json:"quality,omitempty"`
	UpscaleFactor int             `json:"upscale,omitempty"`
	Megapixels    decimal.Decimal `json:"megapixels,omitempty"`
}

type VideoRequest struct {
	Mode          string          `json:"mode,omitempty"`
	Prompt        string          `json:"prompt,omitempty"`
	FileID        string          `json:"file_id,omitempty"`
	Size          string          `json:"size,omitempty"`
	DurationSec   int             `json:"duration,omitempty"`
	WithAudio     bool            `json:"with_audio,omitempty"`
	UpscaleFactor int             `json:"upscale,omitempty"`
	Megapixels    decimal.Decimal `json:"megapixels,omitempty"`
}

type AudioRequest struct {
	Mode           string `json:"mode"`
	Prompt         string `json:"prompt,omitempty"`
	FileID         string `json:"file_id,omitempty"`
	TranscribeMode string `json:"transcribe_mode,omitempty"`
	VoiceID        int64  `json:"voice_id,omitempty"`
}

type ThreeDRequest struct {
	FileID  string `json:"file_id"`
	Quality string `json:"quality"`
}

// Validate checks that the variant matching the section, and only that
// variant, is populated with its required fields.
func (r *RequestPayload) Validate() error {
	variants := 0
	for _, set := range []bool{r.Text != nil, r.Image != nil, r.Video != nil, r.Audio != nil, r.ThreeD != nil} {
		if set {
			variants++
		}
	}
	if variants != 1 {
		return fmt.Errorf("request payload must carry exactly one variant, has %d", variants)
	}

	switch r.Section {
	case SectionText:
		if r.Text == nil || r.Text.Prompt == "" {
			return fmt.Errorf("text request requires a prompt")
		}
	case SectionImage:
		if r.Image == nil {
			return fmt.Errorf("image request variant missing")
		}
		if r.Image.Mode == ModeUpscale {
			if r.Image.FileID == "" || r.Image.UpscaleFactor <= 0 {
				return fmt.Errorf("image upscale requires a file and an upscale factor")
			}
		} else if r.Image.Prompt == "" {
			return fmt.Errorf("image request requires a prompt")
		}
	case SectionVideo:
		if r.Video == nil {
			return fmt.Errorf("video request variant missing")
		}
		if r.Video.Mode == ModeUpscale {
			if r.Video.FileID == "" || r.Video.UpscaleFactor <= 0 {
				return fmt.Errorf("video upscale requires a file and an upscale factor")
			}
		} else if r.Video.Prompt == "" {
			return fmt.Errorf("video request requires a prompt")
		}
	case SectionAudio:
		if r.Audio == nil {
			return fmt.Errorf("audio request variant missing")
		}
		switch r.Audio.Mode {
		case AudioModeTranscribe:
			if r.Audio.FileID == "" || r.Audio.TranscribeMode == "" {
				return fmt.Errorf("audio transcription requires a file and an output format")
			}
		case AudioModeTTS:
			if r.Audio.Prompt == "" || r.Audio.VoiceID == 0 {
				return fmt.Errorf("speech synthesis requires a prompt and a voice")
			}
		case AudioModeMusic, "":
			if r.Audio.Prompt == "" {
				return fmt.Errorf("music generation requires a prompt")
			}
		default:
			return fmt.Errorf("unknown audio mode %q", r.Audio.Mode)
		}
	case SectionThreeD:
		if r.ThreeD == nil || r.ThreeD.FileID == "" || r.ThreeD.Quality == "" {
			return fmt.Errorf("3d request requires a file and a quality tier")
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSection, r.Section)
	}
	return nil
}

// BuildRequest converts a ready draft into a validated request payload.
// Upscale megapixels default to 1 when the source material was never probed.
func BuildRequest(d *Draft) (RequestPayload, error) {
	p := d.Params
	r := RequestPayload{Section: d.Section}
	switch d.Section {
	case SectionText:
		r.Text = &TextRequest{Prompt: p.Prompt}
	case SectionImage:
		r.Image = &ImageRequest{
			Mode:          p.Mode,
			Prompt:        p.Prompt,
			FileID:        p.FileID,
			Size:          p.Size,
			Quality:       p.Quality,
			UpscaleFactor: p.UpscaleFactor,
			Megapixels:    defaultMegapixels(p),
		}
	case SectionVideo:
		r.Video = &VideoRequest{
			Mode:          p.Mode,
			Prompt:        p.Prompt,
			FileID:        p.FileID,
			Size:          p.Size,
			DurationSec:   p.DurationSec,
			WithAudio:     p.WithAudio,
			UpscaleFactor: p.UpscaleFactor,
			Megapixels:    defaultMegapixels(p),
		}
	case SectionAudio:
		mode := p.Mode
		if mode == "" {
			mode = AudioModeMusic
		}
		r.Audio = &AudioRequest{
			Mode:           mode,
			Prompt:         p.Prompt,
			FileID:         p.FileID,
			TranscribeMode: p.TranscribeMode,
			VoiceID:        p.VoiceID,
		}
	case SectionThreeD:
		r.ThreeD = &ThreeDRequest{FileID: p.FileID, Quality: p.Quality}
	default:
		return RequestPayload{}, fmt.Errorf("%w: %q", ErrUnknownSection, d.Section)
	}
	if err := r.Validate(); err != nil {
		return RequestPayload{}, err
	}
	return r, nil
}

func defaultMegapixels(p DraftParams) decimal.Decimal {
	if p.Mode == ModeUpscale && p.Megapixels.IsZero() {
		return decimal.NewFromInt(1)
	}
	return p.Megapixels
}

// Value implements driver.Valuer so the payload persists as JSONB.
func (r RequestPayload) Value() (driver.Value, error) {
	return json.Marshal(r)
}

// Scan implements sql.Scanner.
func (r *RequestPayload) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*r = RequestPayload{}
		return nil
	case []byte:
		return json.Unmarshal(v, r)
	case string:
		return json.Unmarshal([]byte(v), r)
	}
	return fmt.Errorf("cannot scan %T into RequestPayload", src)
}
