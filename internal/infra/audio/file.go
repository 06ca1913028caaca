package audio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"speak-sfx/internal/domain"
)

// FileRecorder replays audio files dropped into a directory, one per capture.
type FileRecorder struct {
	dir            string
	sampleRate     int
	initialTimeout time.Duration
	pollInterval   time.Duration
	processed      map[string]bool
	mu             sync.Mutex
	logger         *slog.Logger
}

func NewFileRecorder(dir string, sampleRate int, initialTimeout time.Duration, logger *slog.Logger) *FileRecorder {
	return &FileRecorder{
		dir:            dir,
		sampleRate:     sampleRate,
		initialTimeout: initialTimeout,
		pollInterval:   500 * time.Millisecond,
		processed:      make(map[string]bool),
		logger:         logger,
	}
}

func (f *FileRecorder) Name() string {
	return "file"
}

func (f *FileRecorder) Start(_ context.Context) error {
	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return fmt.Errorf("creating audio dir: %w", err)
	}
	return nil
}

func (f *FileRecorder) Stop() error {
	return nil
}

// Capture returns the next unprocessed file, or domain.ErrNoSpeech when none
// shows up within the initial timeout. The phrase limit does not apply to
// pre-recorded clips.
func (f *FileRecorder) Capture(ctx context.Context, _ time.Duration) (*domain.Utterance, error) {
	if utt, err := f.checkForNewFile(); utt != nil || err != nil {
		return utt, err
	}

	deadline := time.NewTimer(f.initialTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(f.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, domain.ErrNoSpeech
		case <-ticker.C:
			utt, err := f.checkForNewFile()
			if err != nil {
				return nil, err
			}
			if utt != nil {
				return utt, nil
			}
		}
	}
}

func (f *FileRecorder) checkForNewFile() (*domain.Utterance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("reading dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".wav" && ext != ".mp3" && ext != ".m4a" && ext != ".webm" {
			continue
		}

		path := filepath.Join(f.dir, entry.Name())
		if f.processed[path] {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading file %s: %w", path, err)
		}

		f.processed[path] = true
		if err := os.Rename(path, path+".processed"); err != nil {
			// The clip is still served, but it will be replayed after a restart.
			f.logger.Warn("marking clip processed", "file", path, "error", err)
		}

		utt := domain.UtteranceFromPayload(data, f.sampleRate)
		utt.Filename = entry.Name()
		return utt, nil
	}

	return nil, nil
}
