package domain

// TextCommandPrefix marks a payload that carries typed text instead of audio.
const TextCommandPrefix = "__TEXT__:"

// Utterance is the result of one bounded capture.
// Exactly one of Audio or Text is set; Text skips transcription.
type Utterance struct {
	Audio      []byte
	SampleRate int
	// Filename hints the container format to backends that care; empty means WAV.
	Filename string
	Text     string
}

func (u *Utterance) IsText() bool {
	return u != nil && u.Text != ""
}

// UtteranceFromPayload builds an utterance from a raw payload, recognising
// the text command prefix.
func UtteranceFromPayload(data []byte, sampleRate int) *Utterance {
	if len(data) > len(TextCommandPrefix) && string(data[:len(TextCommandPrefix)]) == TextCommandPrefix {
		return &Utterance{Text: string(data[len(TextCommandPrefix):])}
	}
	return &Utterance{Audio: data, SampleRate: sampleRate}
}
