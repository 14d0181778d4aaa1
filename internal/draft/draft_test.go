package draft

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genstudio-io/genstudio-be/internal/domain"
)

func TestReadiness(t *testing.T) {
	tests := []struct {
		name    string
		section domain.Section
		params  domain.DraftParams
		ready   bool
	}{
		{"text with prompt", domain.SectionText, domain.DraftParams{Prompt: "hi"}, true},
		{"text without prompt", domain.SectionText, domain.DraftParams{}, false},

		{"image normal with prompt", domain.SectionImage, domain.DraftParams{Prompt: "cat"}, true},
		{"image normal without prompt", domain.SectionImage, domain.DraftParams{Size: "square"}, false},
		{"image upscale complete", domain.SectionImage, domain.DraftParams{Mode: domain.ModeUpscale, FileID: "f1", UpscaleFactor: 2}, true},
		{"image upscale missing file", domain.SectionImage, domain.DraftParams{Mode: domain.ModeUpscale, UpscaleFactor: 2}, false},
		{"image upscale missing factor", domain.SectionImage, domain.DraftParams{Mode: domain.ModeUpscale, FileID: "f1"}, false},

		{"video normal with prompt", domain.SectionVideo, domain.DraftParams{Prompt: "dog"}, true},
		{"video upscale complete", domain.SectionVideo, domain.DraftParams{Mode: domain.ModeUpscale, FileID: "f2", UpscaleFactor: 4}, true},
		{"video upscale incomplete", domain.SectionVideo, domain.DraftParams{Mode: domain.ModeUpscale, FileID: "f2"}, false},

		{"audio transcribe complete", domain.SectionAudio, domain.DraftParams{Mode: domain.AudioModeTranscribe, FileID: "f3", TranscribeMode: "text"}, true},
		{"audio transcribe missing format", domain.SectionAudio, domain.DraftParams{Mode: domain.AudioModeTranscribe, FileID: "f3"}, false},
		{"audio tts complete", domain.SectionAudio, domain.DraftParams{Mode: domain.AudioModeTTS, Prompt: "say", VoiceID: 7}, true},
		{"audio tts missing voice", domain.SectionAudio, domain.DraftParams{Mode: domain.AudioModeTTS, Prompt: "say"}, false},
		{"audio music default mode", domain.SectionAudio, domain.DraftParams{Prompt: "jazz"}, true},
		{"audio music without prompt", domain.SectionAudio, domain.DraftParams{}, false},

		{"three_d complete", domain.SectionThreeD, domain.DraftParams{FileID: "f4", Quality: "1024"}, true},
		{"three_d missing quality", domain.SectionThreeD, domain.DraftParams{FileID: "f4"}, false},
		{"three_d missing file", domain.SectionThreeD, domain.DraftParams{Quality: "1024"}, false},

		// sections with no submission flow fail closed
		{"balance never ready", domain.SectionBalance, domain.DraftParams{Prompt: "hi"}, false},
		{"unknown section never ready", domain.Section("weather"), domain.DraftParams{Prompt: "hi"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := domain.Draft{Section: tt.section, Params: tt.params}
			assert.Equal(t, tt.ready, d.Ready())
		})
	}
}

func TestEventsMergeOnly(t *testing.T) {
	d := domain.Draft{Section: domain.SectionImage, Params: domain.DraftParams{AwaitingInput: true}}

	require.NoError(t, ApplyOption(&d, OptionSize, "vertical"))
	require.NoError(t, ApplyOption(&d, OptionQuality, "high"))
	ApplyPrompt(&d, "a red fox")

	assert.Equal(t, "vertical", d.Params.Size)
	assert.Equal(t, "high", d.Params.Quality)
	assert.Equal(t, "a red fox", d.Params.Prompt)
	assert.False(t, d.Params.AwaitingInput)

	// A later option never removes earlier fields.
	require.NoError(t, ApplyOption(&d, OptionQuality, "max"))
	assert.Equal(t, "a red fox", d.Params.Prompt)
	assert.Equal(t, "vertical", d.Params.Size)
	assert.Equal(t, "max", d.Params.Quality)
}

func TestApplyOption_Validation(t *testing.T) {
	d := domain.Draft{Section: domain.SectionAudio}

	assert.Error(t, ApplyOption(&d, OptionUpscale, "zero"))
	assert.Error(t, ApplyOption(&d, OptionUpscale, "-1"))
	assert.Error(t, ApplyOption(&d, OptionVoiceID, "abc"))
	assert.Error(t, ApplyOption(&d, OptionTranscribeMode, "verbose"))
	assert.Error(t, ApplyOption(&d, "color", "red"))

	require.NoError(t, ApplyOption(&d, OptionVoiceID, "3"))
	assert.EqualValues(t, 3, d.Params.VoiceID)
	require.NoError(t, ApplyOption(&d, OptionWithAudio, "yes"))
	assert.True(t, d.Params.WithAudio)
}

func TestResolveActive(t *testing.T) {
	active := domain.Draft{ID: 1, Section: domain.SectionText, Params: domain.DraftParams{AwaitingInput: true}}
	idle := domain.Draft{ID: 2, Section: domain.SectionImage}

	got, err := ResolveActive([]domain.Draft{idle, active})
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.ID)

	_, err = ResolveActive([]domain.Draft{idle})
	assert.ErrorIs(t, err, domain.ErrNoActiveDraft)

	_, err = ResolveActive(nil)
	assert.ErrorIs(t, err, domain.ErrNoActiveDraft)

	// Two awaiting drafts is ambiguous; resolution fails closed.
	second := domain.Draft{ID: 3, Section: domain.SectionVideo, Params: domain.DraftParams{AwaitingInput: true}}
	_, err = ResolveActive([]domain.Draft{active, second})
	assert.ErrorIs(t, err, domain.ErrAmbiguousDraft)
}
