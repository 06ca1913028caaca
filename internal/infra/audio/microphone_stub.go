//go:build !portaudio
// +build !portaudio

package audio

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"speak-sfx/internal/domain"
)

// MicrophoneRecorder stub when portaudio is not available
type MicrophoneRecorder struct {
	logger *slog.Logger
}

func NewMicrophoneRecorder(_ ListenerConfig, logger *slog.Logger) *MicrophoneRecorder {
	return &MicrophoneRecorder{logger: logger}
}

func (m *MicrophoneRecorder) Name() string {
	return "microphone"
}

func (m *MicrophoneRecorder) Start(_ context.Context) error {
	return fmt.Errorf("microphone recorder not available: rebuild with -tags portaudio")
}

func (m *MicrophoneRecorder) Stop() error {
	return nil
}

func (m *MicrophoneRecorder) Capture(_ context.Context, _ time.Duration) (*domain.Utterance, error) {
	return nil, fmt.Errorf("microphone recorder not available")
}
