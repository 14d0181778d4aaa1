package pricing

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genstudio-io/genstudio-be/internal/domain"
)

func table(entries map[string]string) Table {
	t := Table{}
	for code, price := range entries {
		t[code] = domain.PriceEntry{
			Code:     code,
			Price:    decimal.RequireFromString(price),
			IsActive: true,
		}
	}
	return t
}

func TestEstimateTokens(t *testing.T) {
	assert.EqualValues(t, 0, EstimateTokens(""))
	assert.EqualValues(t, 1, EstimateTokens("ab"))
	assert.EqualValues(t, 1, EstimateTokens("abcd"))
	assert.EqualValues(t, 100, EstimateTokens(strings.Repeat("x", 400)))
	// Multi-byte runes count as characters, not bytes.
	assert.EqualValues(t, 1, EstimateTokens("приве"))
}

func TestText(t *testing.T) {
	tbl := table(map[string]string{
		CodeTextInput1K:  "1.5",
		CodeTextOutput1K: "0.375",
	})

	// 400 chars -> 100 input tokens; 100/1000*1.5 + 1024/1000*0.375 = 0.534 -> 1
	price, err := Text(tbl, strings.Repeat("a", 400), 1024)
	require.NoError(t, err)
	assert.EqualValues(t, 1, price)

	// Same inputs, same output.
	again, err := Text(tbl, strings.Repeat("a", 400), 1024)
	require.NoError(t, err)
	assert.Equal(t, price, again)
}

func TestText_MissingCode(t *testing.T) {
	tbl := table(map[string]string{CodeTextInput1K: "1.5"})

	_, err := Text(tbl, "hello", 1024)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPriceNotFound)
}

func TestLookup_InactiveCode(t *testing.T) {
	tbl := Table{
		CodeAudioMusic: domain.PriceEntry{Code: CodeAudioMusic, Price: decimal.NewFromInt(30), IsActive: false},
	}

	_, err := AudioMusic(tbl)
	assert.ErrorIs(t, err, domain.ErrPriceNotFound)
}

func TestRounding_HalfAwayFromZero(t *testing.T) {
	tests := []struct {
		name       string
		perMP      string
		megapixels string
		want       int64
	}{
		{"exact half rounds up", "5", "2.5", 13},      // 12.5 -> 13
		{"below half rounds down", "5", "2.49", 12},   // 12.45 -> 12
		{"above half rounds up", "5", "2.51", 13},     // 12.55 -> 13
		{"integer result unchanged", "5", "2", 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := table(map[string]string{CodeImageUpscaleMP: tt.perMP})
			got, err := ImageUpscale(tbl, decimal.RequireFromString(tt.megapixels))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestImage(t *testing.T) {
	tbl := table(map[string]string{
		"image_square_standard": "10",
		"image_vertical_max":    "25.5",
	})

	price, err := Image(tbl, "square", "standard")
	require.NoError(t, err)
	assert.EqualValues(t, 10, price)

	price, err = Image(tbl, "vertical", "max")
	require.NoError(t, err)
	assert.EqualValues(t, 26, price)

	// Defaults apply when size/quality were never selected.
	price, err = Image(tbl, "", "")
	require.NoError(t, err)
	assert.EqualValues(t, 10, price)

	_, err = Image(tbl, "horizontal", "high")
	assert.ErrorIs(t, err, domain.ErrPriceNotFound)
}

func TestVideo(t *testing.T) {
	tbl := table(map[string]string{
		CodeVideoSecAudio:  "4.5",
		CodeVideoSecSilent: "3",
	})

	price, err := Video(tbl, 5, false)
	require.NoError(t, err)
	assert.EqualValues(t, 15, price)

	price, err = Video(tbl, 5, true)
	require.NoError(t, err)
	assert.EqualValues(t, 23, price) // 22.5 -> 23

	// Zero duration falls back to the default 5 seconds.
	price, err = Video(tbl, 0, false)
	require.NoError(t, err)
	assert.EqualValues(t, 15, price)
}

func TestAudio(t *testing.T) {
	tbl := table(map[string]string{
		CodeAudioMusic:          "30",
		CodeAudioTTS1K:          "2",
		CodeAudioTranscribeText: "12",
		CodeAudioTranscribeSumm: "18",
	})

	price, err := AudioMusic(tbl)
	require.NoError(t, err)
	assert.EqualValues(t, 30, price)

	price, err = AudioTTS(tbl, 250) // 0.25 * 2 = 0.5 -> 1
	require.NoError(t, err)
	assert.EqualValues(t, 1, price)

	price, err = AudioTranscribe(tbl, domain.TranscribeModeText)
	require.NoError(t, err)
	assert.EqualValues(t, 12, price)

	price, err = AudioTranscribe(tbl, domain.TranscribeModeSummary)
	require.NoError(t, err)
	assert.EqualValues(t, 18, price)
}

func TestThreeD(t *testing.T) {
	tbl := table(map[string]string{"three_d_1024": "45"})

	price, err := ThreeD(tbl, "1024")
	require.NoError(t, err)
	assert.EqualValues(t, 45, price)

	_, err = ThreeD(tbl, "1536")
	assert.ErrorIs(t, err, domain.ErrPriceNotFound)
}

func TestForDraft(t *testing.T) {
	tests := []struct {
		name  string
		draft domain.Draft
		table Table
		want  int64
	}{
		{
			name:  "text",
			draft: domain.Draft{Section: domain.SectionText, Params: domain.DraftParams{Prompt: strings.Repeat("a", 400)}},
			table: table(map[string]string{CodeTextInput1K: "1.5", CodeTextOutput1K: "0.375"}),
			want:  1,
		},
		{
			name:  "image upscale defaults to one megapixel",
			draft: domain.Draft{Section: domain.SectionImage, Params: domain.DraftParams{Mode: domain.ModeUpscale, FileID: "f", UpscaleFactor: 2}},
			table: table(map[string]string{CodeImageUpscaleMP: "7.5"}),
			want:  8,
		},
		{
			name:  "video with audio",
			draft: domain.Draft{Section: domain.SectionVideo, Params: domain.DraftParams{Prompt: "p", DurationSec: 10, WithAudio: true}},
			table: table(map[string]string{CodeVideoSecAudio: "4.5", CodeVideoSecSilent: "3"}),
			want:  45,
		},
		{
			name:  "audio tts by prompt length",
			draft: domain.Draft{Section: domain.SectionAudio, Params: domain.DraftParams{Mode: domain.AudioModeTTS, Prompt: strings.Repeat("x", 500), VoiceID: 1}},
			table: table(map[string]string{CodeAudioTTS1K: "2"}),
			want:  1,
		},
		{
			name:  "audio defaults to music",
			draft: domain.Draft{Section: domain.SectionAudio, Params: domain.DraftParams{Prompt: "song"}},
			table: table(map[string]string{CodeAudioMusic: "30"}),
			want:  30,
		},
		{
			name:  "three_d quality tier",
			draft: domain.Draft{Section: domain.SectionThreeD, Params: domain.DraftParams{FileID: "f", Quality: "1024"}},
			table: table(map[string]string{"three_d_1024": "45"}),
			want:  45,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ForDraft(tt.table, &tt.draft, 1024)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestForDraft_UnknownSection(t *testing.T) {
	d := &domain.Draft{Section: domain.SectionBalance, Params: domain.DraftParams{Prompt: "hi"}}
	_, err := ForDraft(Table{}, d, 1024)
	assert.ErrorIs(t, err, domain.ErrUnknownSection)
}

func TestCodesForDraft(t *testing.T) {
	d := &domain.Draft{Section: domain.SectionImage, Params: domain.DraftParams{Size: "vertical", Quality: "high"}}
	assert.Equal(t, []string{"image_vertical_high"}, CodesForDraft(d))

	d = &domain.Draft{Section: domain.SectionImage, Params: domain.DraftParams{Mode: domain.ModeUpscale}}
	assert.Equal(t, []string{CodeImageUpscaleMP}, CodesForDraft(d))

	d = &domain.Draft{Section: domain.SectionText}
	assert.Equal(t, []string{CodeTextInput1K, CodeTextOutput1K}, CodesForDraft(d))
}
