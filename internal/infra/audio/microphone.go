//go:build portaudio
// +build portaudio

package audio

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gordonklaus/portaudio"

	"speak-sfx/internal/domain"
)

const framesPerBuffer = 1024

type MicrophoneRecorder struct {
	cfg    ListenerConfig
	logger *slog.Logger
}

func NewMicrophoneRecorder(cfg ListenerConfig, logger *slog.Logger) *MicrophoneRecorder {
	return &MicrophoneRecorder{
		cfg:    cfg,
		logger: logger,
	}
}

func (m *MicrophoneRecorder) Name() string {
	return "microphone"
}

func (m *MicrophoneRecorder) Start(_ context.Context) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initializing portaudio: %w", err)
	}
	return nil
}

func (m *MicrophoneRecorder) Stop() error {
	return portaudio.Terminate()
}

// Capture opens the default input device, calibrates against ambient noise
// and records one phrase. The device is closed before Capture returns.
func (m *MicrophoneRecorder) Capture(ctx context.Context, phraseLimit time.Duration) (*domain.Utterance, error) {
	buffer := make([]int16, framesPerBuffer)

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(m.cfg.SampleRate), len(buffer), buffer)
	if err != nil {
		return nil, fmt.Errorf("opening stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, fmt.Errorf("starting stream: %w", err)
	}
	defer stream.Stop()

	reader := &streamReader{stream: stream, buffer: buffer}
	listener := NewListener(m.cfg)

	if err := listener.Calibrate(ctx, reader); err != nil {
		return nil, fmt.Errorf("calibrating: %w", err)
	}
	m.logger.Debug("calibrated microphone", "threshold", listener.Threshold())

	samples, err := listener.Listen(ctx, reader, phraseLimit)
	if err != nil {
		return nil, err
	}

	m.logger.Debug("captured phrase", "samples", len(samples), "sampleRate", m.cfg.SampleRate)
	return &domain.Utterance{
		Audio:      EncodeWAV(samples, m.cfg.SampleRate),
		SampleRate: m.cfg.SampleRate,
	}, nil
}

type streamReader struct {
	stream *portaudio.Stream
	buffer []int16
}

func (s *streamReader) ReadFrame() ([]int16, error) {
	if err := s.stream.Read(); err != nil {
		return nil, err
	}
	frame := make([]int16, len(s.buffer))
	copy(frame, s.buffer)
	return frame, nil
}
