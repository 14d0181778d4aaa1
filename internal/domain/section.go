package domain

import "fmt"

// Section is the generation category a draft or job belongs to.
type Section string

const (
	SectionText    Section = "text"
	SectionImage   Section = "image"
	SectionVideo   Section = "video"
	SectionAudio   Section = "audio"
	SectionThreeD  Section = "three_d"
	SectionBalance Section = "balance"
)

// Generating reports whether the section produces a priced job. The balance
// section is a menu-only section and never reaches the dispatcher.
func (s Section) Generating() bool {
	switch s {
	case SectionText, SectionImage, SectionVideo, SectionAudio, SectionThreeD:
		return true
	}
	return false
}

func ParseSection(v string) (Section, error) {
	s := Section(v)
	switch s {
	case SectionText, SectionImage, SectionVideo, SectionAudio, SectionThreeD, SectionBalance:
		return s, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSection, v)
}

// Mode values within a section.
const (
	ModeUpscale = "upscale"

	AudioModeMusic      = "music"
	AudioModeTTS        = "tts"
	AudioModeTranscribe = "transcribe"

	TranscribeModeText    = "text"
	TranscribeModeSummary = "summary"
)
