package application

import (
	"context"
	"fmt"

	"speak-sfx/internal/domain"
)

// SpeechToText turns captured audio into text. Implementations return
// domain.ErrUnintelligible when the backend heard nothing it could transcribe
// and wrap domain.ErrTranscriptionService for every other failure.
type SpeechToText interface {
	Transcribe(ctx context.Context, utt *domain.Utterance) (string, error)
}

// NoopSTT stands in when no speech backend credential is configured.
// Text utterances from the HTTP recorder still work through it.
type NoopSTT struct{}

func (n *NoopSTT) Transcribe(_ context.Context, utt *domain.Utterance) (string, error) {
	if utt.IsText() {
		return utt.Text, nil
	}
	return "", fmt.Errorf("%w: no backend configured, set google.api_key or openai.api_key", domain.ErrTranscriptionService)
}
