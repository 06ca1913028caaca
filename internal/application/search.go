package application

import (
	"context"

	"speak-sfx/internal/domain"
)

type SoundSearcher interface {
	Search(ctx context.Context, term string, limit int) ([]domain.Sound, error)
}

// Player starts playback of a preview URL without waiting for it to finish.
type Player interface {
	Play(ctx context.Context, url string) error
}
