// Package draft drives the per-(user, section) staging area: external events
// merge single fields into the typed parameter set, readiness is recomputed
// from the section's predicate, and the single active draft is resolved
// fail-closed.
package draft

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/genstudio-io/genstudio-be/internal/domain"
)

// Option field names accepted by ApplyOption.
const (
	OptionMode           = "mode"
	OptionSize           = "size"
	OptionQuality        = "quality"
	OptionUpscale        = "upscale"
	OptionMegapixels     = "megapixels"
	OptionDuration       = "duration"
	OptionWithAudio      = "with_audio"
	OptionTranscribeMode = "transcribe_mode"
	OptionVoiceID        = "voice_id"
)

// ApplyPrompt merges a text event. Receiving the prompt ends the
// awaiting-input phase, matching the collection flow.
func ApplyPrompt(d *domain.Draft, prompt string) {
	d.Params.Prompt = prompt
	d.Params.AwaitingInput = false
}

// ApplyFile merges an attachment event and ends the awaiting-input phase.
func ApplyFile(d *domain.Draft, fileID string) {
	d.Params.FileID = fileID
	d.Params.AwaitingInput = false
}

// ApplyOption merges one selected option into the draft. Options never clear
// fields and keep the draft awaiting further input.
func ApplyOption(d *domain.Draft, name, value string) error {
	p := &d.Params
	switch name {
	case OptionMode:
		p.Mode = value
		// Switching into upscale (or an audio mode) reopens input collection.
		p.AwaitingInput = true
		return nil
	case OptionSize:
		p.Size = value
	case OptionQuality:
		p.Quality = value
	case OptionUpscale:
		factor, err := strconv.Atoi(value)
		if err != nil || factor <= 0 {
			return fmt.Errorf("invalid upscale factor %q", value)
		}
		p.UpscaleFactor = factor
	case OptionMegapixels:
		mp, err := decimal.NewFromString(value)
		if err != nil || mp.IsNegative() {
			return fmt.Errorf("invalid megapixels %q", value)
		}
		p.Megapixels = mp
	case OptionDuration:
		seconds, err := strconv.Atoi(value)
		if err != nil || seconds <= 0 {
			return fmt.Errorf("invalid duration %q", value)
		}
		p.DurationSec = seconds
	case OptionWithAudio:
		p.WithAudio = value == "yes" || value == "true"
	case OptionTranscribeMode:
		if value != domain.TranscribeModeText && value != domain.TranscribeModeSummary {
			return fmt.Errorf("invalid transcribe mode %q", value)
		}
		p.TranscribeMode = value
	case OptionVoiceID:
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil || id <= 0 {
			return fmt.Errorf("invalid voice id %q", value)
		}
		p.VoiceID = id
	default:
		return fmt.Errorf("unknown draft option %q", name)
	}
	return nil
}

// ResolveActive picks the user's single draft awaiting input. Zero matches
// means no section was selected; more than one is ambiguous and the state
// machine refuses to guess.
func ResolveActive(drafts []domain.Draft) (*domain.Draft, error) {
	var active *domain.Draft
	for i := range drafts {
		if !drafts[i].Params.AwaitingInput {
			continue
		}
		if active != nil {
			return nil, domain.ErrAmbiguousDraft
		}
		active = &drafts[i]
	}
	if active == nil {
		return nil, domain.ErrNoActiveDraft
	}
	return active, nil
}
