// Package pricing computes the integer price of a generation request from the
// price table. Every function is pure: same inputs, same output. All results
// are rounded to the nearest integer currency unit with ties away from zero.
// A missing or inactive price code is a hard error, never a silent zero.
package pricing

import (
	"fmt"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/genstudio-io/genstudio-be/internal/domain"
)

// Price codes.
const (
	CodeTextInput1K           = "text_input_1k"
	CodeTextOutput1K          = "text_output_1k"
	CodeImageUpscaleMP        = "image_upscale_mp"
	CodeVideoSecAudio         = "video_sec_audio"
	CodeVideoSecSilent        = "video_sec_silent"
	CodeVideoUpscaleMP        = "video_upscale_mp"
	CodeAudioMusic            = "audio_music"
	CodeAudioTTS1K            = "audio_tts_1k"
	CodeAudioTranscribeText   = "audio_transcribe_text"
	CodeAudioTranscribeSumm   = "audio_transcribe_summary"
	ThreeDCodePrefix          = "three_d_"
	ImageCodePrefix           = "image_"
	defaultImageSize          = "square"
	defaultImageQuality       = "standard"
	defaultVideoDurationSec   = 5
	defaultThreeDQualityTier  = "512"
	defaultTranscribeModeText = domain.TranscribeModeText
)

// Table is the subset of active price entries a calculation needs, keyed by
// code. Inactive entries must not be present.
type Table map[string]domain.PriceEntry

func (t Table) lookup(code string) (decimal.Decimal, error) {
	entry, ok := t[code]
	if !ok || !entry.IsActive {
		return decimal.Decimal{}, fmt.Errorf("%w: %s", domain.ErrPriceNotFound, code)
	}
	return entry.Price, nil
}

// roundUnit rounds to the nearest integer unit, ties away from zero.
func roundUnit(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}

// EstimateTokens is the coarse token estimate: one token per four characters,
// at least one for non-empty text.
func EstimateTokens(text string) int64 {
	if text == "" {
		return 0
	}
	n := int64(utf8.RuneCountInString(text)) / 4
	if n < 1 {
		return 1
	}
	return n
}

// Text prices a text generation: estimated input tokens plus the configured
// output-token ceiling, each billed per thousand.
func Text(t Table, prompt string, maxOutputTokens int) (int64, error) {
	inputPrice, err := t.lookup(CodeTextInput1K)
	if err != nil {
		return 0, err
	}
	outputPrice, err := t.lookup(CodeTextOutput1K)
	if err != nil {
		return 0, err
	}
	thousand := decimal.NewFromInt(1000)
	total := decimal.NewFromInt(EstimateTokens(prompt)).Div(thousand).Mul(inputPrice)
	total = total.Add(decimal.NewFromInt(int64(maxOutputTokens)).Div(thousand).Mul(outputPrice))
	return roundUnit(total), nil
}

// Image prices a standard-mode image generation by direct lookup.
func Image(t Table, size, quality string) (int64, error) {
	if size == "" {
		size = defaultImageSize
	}
	if quality == "" {
		quality = defaultImageQuality
	}
	p, err := t.lookup(fmt.Sprintf("%s%s_%s", ImageCodePrefix, size, quality))
	if err != nil {
		return 0, err
	}
	return roundUnit(p), nil
}

// ImageUpscale prices an image upscale per megapixel.
func ImageUpscale(t Table, megapixels decimal.Decimal) (int64, error) {
	perMP, err := t.lookup(CodeImageUpscaleMP)
	if err != nil {
		return 0, err
	}
	return roundUnit(perMP.Mul(megapixels)), nil
}

// Video prices a standard-mode video generation per second.
func Video(t Table, seconds int, withAudio bool) (int64, error) {
	code := CodeVideoSecSilent
	if withAudio {
		code = CodeVideoSecAudio
	}
	perSec, err := t.lookup(code)
	if err != nil {
		return 0, err
	}
	if seconds <= 0 {
		seconds = defaultVideoDurationSec
	}
	return roundUnit(perSec.Mul(decimal.NewFromInt(int64(seconds)))), nil
}

// VideoUpscale prices a video upscale per megapixel.
func VideoUpscale(t Table, megapixels decimal.Decimal) (int64, error) {
	perMP, err := t.lookup(CodeVideoUpscaleMP)
	if err != nil {
		return 0, err
	}
	return roundUnit(perMP.Mul(megapixels)), nil
}

// AudioMusic prices a music generation: flat lookup.
func AudioMusic(t Table) (int64, error) {
	p, err := t.lookup(CodeAudioMusic)
	if err != nil {
		return 0, err
	}
	return roundUnit(p), nil
}

// AudioTTS prices speech synthesis per thousand characters.
func AudioTTS(t Table, chars int) (int64, error) {
	per1K, err := t.lookup(CodeAudioTTS1K)
	if err != nil {
		return 0, err
	}
	total := decimal.NewFromInt(int64(chars)).Div(decimal.NewFromInt(1000)).Mul(per1K)
	return roundUnit(total), nil
}

// AudioTranscribe prices a transcription: flat lookup keyed by output format.
func AudioTranscribe(t Table, mode string) (int64, error) {
	code := CodeAudioTranscribeText
	if mode == domain.TranscribeModeSummary {
		code = CodeAudioTranscribeSumm
	}
	p, err := t.lookup(code)
	if err != nil {
		return 0, err
	}
	return roundUnit(p), nil
}

// ThreeD prices a 3D generation: flat lookup keyed by resolution tier.
func ThreeD(t Table, quality string) (int64, error) {
	if quality == "" {
		quality = defaultThreeDQualityTier
	}
	p, err := t.lookup(ThreeDCodePrefix + quality)
	if err != nil {
		return 0, err
	}
	return roundUnit(p), nil
}

// CodesForDraft lists the price codes the given draft's calculation needs, so
// the caller can load exactly that subset.
func CodesForDraft(d *domain.Draft) []string {
	p := d.Params
	switch d.Section {
	case domain.SectionText:
		return []string{CodeTextInput1K, CodeTextOutput1K}
	case domain.SectionImage:
		if p.Mode == domain.ModeUpscale {
			return []string{CodeImageUpscaleMP}
		}
		size := p.Size
		if size == "" {
			size = defaultImageSize
		}
		quality := p.Quality
		if quality == "" {
			quality = defaultImageQuality
		}
		return []string{fmt.Sprintf("%s%s_%s", ImageCodePrefix, size, quality)}
	case domain.SectionVideo:
		if p.Mode == domain.ModeUpscale {
			return []string{CodeVideoUpscaleMP}
		}
		return []string{CodeVideoSecAudio, CodeVideoSecSilent}
	case domain.SectionAudio:
		switch p.Mode {
		case domain.AudioModeTranscribe:
			return []string{CodeAudioTranscribeText, CodeAudioTranscribeSumm}
		case domain.AudioModeTTS:
			return []string{CodeAudioTTS1K}
		default:
			return []string{CodeAudioMusic}
		}
	case domain.SectionThreeD:
		quality := p.Quality
		if quality == "" {
			quality = defaultThreeDQualityTier
		}
		return []string{ThreeDCodePrefix + quality}
	}
	return nil
}

// ForDraft dispatches to the section calculation for a draft.
func ForDraft(t Table, d *domain.Draft, maxOutputTokens int) (int64, error) {
	p := d.Params
	switch d.Section {
	case domain.SectionText:
		return Text(t, p.Prompt, maxOutputTokens)
	case domain.SectionImage:
		if p.Mode == domain.ModeUpscale {
			return ImageUpscale(t, megapixelsOrOne(p))
		}
		return Image(t, p.Size, p.Quality)
	case domain.SectionVideo:
		if p.Mode == domain.ModeUpscale {
			return VideoUpscale(t, megapixelsOrOne(p))
		}
		return Video(t, p.DurationSec, p.WithAudio)
	case domain.SectionAudio:
		switch p.Mode {
		case domain.AudioModeTranscribe:
			mode := p.TranscribeMode
			if mode == "" {
				mode = defaultTranscribeModeText
			}
			return AudioTranscribe(t, mode)
		case domain.AudioModeTTS:
			return AudioTTS(t, utf8.RuneCountInString(p.Prompt))
		default:
			return AudioMusic(t)
		}
	case domain.SectionThreeD:
		return ThreeD(t, p.Quality)
	}
	return 0, fmt.Errorf("%w: %s", domain.ErrUnknownSection, d.Section)
}

func megapixelsOrOne(p domain.DraftParams) decimal.Decimal {
	if p.Megapixels.IsZero() {
		return decimal.NewFromInt(1)
	}
	return p.Megapixels
}
