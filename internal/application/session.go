package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"speak-sfx/internal/domain"
)

// errRecorderFailed marks capture errors other than silence. They end Run.
var errRecorderFailed = errors.New("recorder failed")

type SessionConfig struct {
	// MinListen and MaxListen bound the random phrase limit, [MinListen, MaxListen).
	MinListen time.Duration
	MaxListen time.Duration
	PageSize  int
	// MaxIterations stops Run after that many iterations. Zero runs until
	// the context is cancelled.
	MaxIterations int
}

func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		MinListen: 4 * time.Second,
		MaxListen: 8 * time.Second,
		PageSize:  10,
	}
}

type SessionOption func(*Session)

// WithRand replaces the random source used for listen durations and result picks.
func WithRand(rng *rand.Rand) SessionOption {
	return func(s *Session) {
		s.rng = rng
	}
}

// WithPickNotifier sends a one line summary of every played sound to n.
func WithPickNotifier(n Notifier) SessionOption {
	return func(s *Session) {
		s.picks = n
	}
}

func WithSessionConfig(cfg SessionConfig) SessionOption {
	return func(s *Session) {
		s.cfg = cfg
	}
}

// Session runs the capture, transcribe, select, search and play pipeline.
type Session struct {
	recorder Recorder
	stt      SpeechToText
	searcher SoundSearcher
	player   Player
	status   Notifier
	picks    Notifier
	rng      *rand.Rand
	cfg      SessionConfig
	logger   *slog.Logger
}

func NewSession(
	recorder Recorder,
	stt SpeechToText,
	searcher SoundSearcher,
	player Player,
	status Notifier,
	logger *slog.Logger,
	opts ...SessionOption,
) *Session {
	s := &Session{
		recorder: recorder,
		stt:      stt,
		searcher: searcher,
		player:   player,
		status:   status,
		picks:    &NoopNotifier{},
		rng:      rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
		cfg:      DefaultSessionConfig(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) Run(ctx context.Context) error {
	s.logger.Info("starting recorder", "recorder", s.recorder.Name())
	if err := s.recorder.Start(ctx); err != nil {
		return fmt.Errorf("starting recorder: %w", err)
	}
	defer s.recorder.Stop()

	s.say(ctx, "--- Speech-to-Text Freesound Search Tool Started (Continuous Mode) ---")

	for i := 0; s.cfg.MaxIterations <= 0 || i < s.cfg.MaxIterations; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := s.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, errRecorderFailed) {
				return err
			}
			s.logger.Debug("iteration ended without playback", "error", err)
		}
	}

	return nil
}

// ListenDuration draws the phrase limit for the next capture.
func (s *Session) ListenDuration() time.Duration {
	span := s.cfg.MaxListen - s.cfg.MinListen
	if span <= 0 {
		return s.cfg.MinListen
	}
	return s.cfg.MinListen + time.Duration(s.rng.Float64()*float64(span))
}

// RunOnce performs a single iteration and returns the error that ended it,
// or nil when a preview was handed to the player.
func (s *Session) RunOnce(ctx context.Context) error {
	logger := s.logger.With("iteration", uuid.NewString())

	limit := s.ListenDuration()
	s.say(ctx, "\n=============================================")
	s.say(ctx, "Listening duration is randomly set to: %.2f seconds.", limit.Seconds())
	s.say(ctx, "Please speak now to begin search...")

	utt, err := s.recorder.Capture(ctx, limit)
	if err != nil {
		if errors.Is(err, domain.ErrNoSpeech) || ctx.Err() != nil {
			return s.noPhrase(ctx, logger, fmt.Errorf("capturing audio: %w", err))
		}
		// A recorder that cannot capture will fail the same way next time.
		logger.Error("capturing audio", "error", err)
		s.say(ctx, "Audio capture failed; %v", err)
		return fmt.Errorf("capturing audio: %w: %w", errRecorderFailed, err)
	}

	var text string
	if utt.IsText() {
		logger.Info("received text directly", "text", utt.Text)
		text = utt.Text
	} else {
		logger.Info("captured audio", "bytes", len(utt.Audio), "limit", limit)
		s.say(ctx, "Processing audio...")

		text, err = s.stt.Transcribe(ctx, utt)
		if err != nil {
			return s.noPhrase(ctx, logger, fmt.Errorf("transcribing: %w", err))
		}
		s.say(ctx, "Transcription successful: %q", text)
	}

	return s.handleText(ctx, logger, text)
}

// HandleText runs term selection, search and playback on text that did not
// come from the recorder.
func (s *Session) HandleText(ctx context.Context, text string) error {
	return s.handleText(ctx, s.logger.With("iteration", uuid.NewString()), text)
}

func (s *Session) handleText(ctx context.Context, logger *slog.Logger, text string) error {
	transcript := strings.ToLower(strings.TrimSpace(text))
	if transcript == "" {
		return s.noPhrase(ctx, logger, domain.ErrEmptyTranscript)
	}

	term, err := SelectTerm(transcript)
	if err != nil {
		s.say(ctx, "No valid words found in the transcription after cleaning.")
		logger.Info("no search term", "transcript", transcript)
		return err
	}

	logger.Info("selected term", "transcript", transcript, "term", term)
	s.say(ctx, "Selected the last word captured: %q", term)

	return s.lookup(ctx, logger, term)
}

func (s *Session) lookup(ctx context.Context, logger *slog.Logger, term string) error {
	s.say(ctx, "Searching Freesound for top %d sounds related to %q...", s.cfg.PageSize, term)

	sounds, err := s.searcher.Search(ctx, term, s.cfg.PageSize)
	if err != nil {
		s.reportSearchError(ctx, err)
		logger.Warn("search failed", "term", term, "error", err)
		return fmt.Errorf("searching %q: %w", term, err)
	}

	if len(sounds) == 0 {
		s.say(ctx, "Freesound search returned no results for %q.", term)
		s.say(ctx, "Try saying a more common noun!")
		return domain.ErrNoResults
	}

	idx := s.rng.IntN(len(sounds))
	pick := sounds[idx]

	logger.Info("picked sound", "term", term, "index", idx, "of", len(sounds), "name", pick.Name)
	s.say(ctx, "--- Randomly Selected Result for %q (1 of %d) ---", term, len(sounds))
	s.say(ctx, "1. Title: %s", orNA(pick.Name))
	s.say(ctx, "   Source Page: %s", orNA(pick.URL))
	s.say(ctx, "   Uploader: %s", orNA(pick.Username))
	defer s.say(ctx, "-------------------------------------------")

	preview := pick.PreviewURL()
	if preview == "" {
		s.say(ctx, "Could not find a playable preview URL for the result.")
		return domain.ErrNoPlayablePreview
	}

	s.say(ctx, "Opening sound preview with the default handler now...")
	if err := s.player.Play(ctx, preview); err != nil {
		logger.Error("playing preview", "url", preview, "error", err)
		return fmt.Errorf("%w: %w", domain.ErrPlayback, err)
	}

	msg := fmt.Sprintf("%q -> %s by %s: %s", term, orNA(pick.Name), orNA(pick.Username), preview)
	if err := s.picks.Notify(ctx, msg); err != nil {
		logger.Error("notifying pick", "error", err)
	}

	return nil
}

func (s *Session) noPhrase(ctx context.Context, logger *slog.Logger, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	switch {
	case errors.Is(err, domain.ErrNoSpeech):
		s.say(ctx, "No speech detected within the initial timeout window.")
	case errors.Is(err, domain.ErrUnintelligible):
		s.say(ctx, "Could not understand audio (speech too quiet or unclear, or phrase limit was too short).")
	case errors.Is(err, domain.ErrTranscriptionService):
		s.say(ctx, "Could not request results from the speech recognition service; %v", err)
	case errors.Is(err, domain.ErrEmptyTranscript):
	default:
		s.say(ctx, "Audio capture failed; %v", err)
	}

	logger.Info("no phrase captured", "error", err)
	s.say(ctx, "No full phrase captured. Returning to listening mode.")
	return err
}

func (s *Session) reportSearchError(ctx context.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrMissingCredential):
		s.say(ctx, "Configuration error: %v", err)
	case errors.Is(err, domain.ErrHTTPStatus):
		s.say(ctx, "HTTP error occurred: %v", err)
		s.say(ctx, "Check if your API key is valid or if the search query is too long/complex.")
	case errors.Is(err, domain.ErrMalformedResponse):
		s.say(ctx, "Failed to decode the JSON response from Freesound.")
	default:
		s.say(ctx, "An error occurred during the API request: %v", err)
	}
}

func (s *Session) say(ctx context.Context, format string, args ...any) {
	if err := s.status.Notify(ctx, fmt.Sprintf(format, args...)); err != nil {
		s.logger.Error("writing status", "error", err)
	}
}

func orNA(v string) string {
	if v == "" {
		return "N/A"
	}
	return v
}
