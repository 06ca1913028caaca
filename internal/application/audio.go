package application

import (
	"context"
	"time"

	"speak-sfx/internal/domain"
)

// Recorder captures one utterance per call. Start and Stop bracket the whole
// session; the input device itself is only held inside Capture.
type Recorder interface {
	Start(ctx context.Context) error
	Stop() error
	Capture(ctx context.Context, phraseLimit time.Duration) (*domain.Utterance, error)
	Name() string
}
