package main

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"

	"github.com/spf13/cobra"

	"speak-sfx/config"
	"speak-sfx/internal/application"
	"speak-sfx/internal/infra/audio"
	"speak-sfx/internal/infra/browser"
	"speak-sfx/internal/infra/console"
	"speak-sfx/internal/infra/freesound"
	"speak-sfx/internal/infra/google"
	"speak-sfx/internal/infra/openai"
	"speak-sfx/internal/infra/pushover"
)

const defaultConfigPath = "config.yaml"

var (
	configPath string
	iterations int
	seed       uint64
)

var rootCmd = &cobra.Command{
	Use:   "speaksfx",
	Short: "Say something, hear a matching sound effect",
	Long: `speaksfx listens to the microphone, transcribes each phrase, searches
Freesound for the last word spoken and plays a random matching preview.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runListen,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath, "path to config file")
	rootCmd.PersistentFlags().Uint64Var(&seed, "seed", 0, "seed for listen durations and picks (0 uses the clock)")
	rootCmd.Flags().IntVar(&iterations, "iterations", 0, "stop after this many phrases (0 runs until interrupted)")
}

func runListen(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.Log)

	session, err := buildSession(cfg, createRecorder(cfg.Audio, logger), logger)
	if err != nil {
		return err
	}

	logger.Info("starting speaksfx",
		"audio_source", cfg.Audio.Source,
		"speech_backend", cfg.Speech.Backend,
		"iterations", cfg.Loop.Iterations,
	)

	return session.Run(cmd.Context())
}

// loadConfig reads the config file, lets command line flags override it and
// validates the result. The default path may be absent; an explicit one may not.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if cmd.Flags().Changed("config") {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.LoadOrDefault(configPath)
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if f := cmd.Flags().Lookup("iterations"); f != nil && f.Changed {
		cfg.Loop.Iterations = iterations
	}
	if cmd.Flags().Changed("seed") {
		cfg.Loop.Seed = seed
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func buildSession(cfg *config.Config, recorder application.Recorder, logger *slog.Logger) (*application.Session, error) {
	stt, err := createSpeechToText(cfg)
	if err != nil {
		return nil, err
	}

	searcher := freesound.NewClient(freesound.Config{
		APIKey:  cfg.Freesound.APIKey,
		BaseURL: cfg.Freesound.BaseURL,
		Timeout: cfg.Freesound.Timeout,
	})

	player := browser.NewOpener(cfg.Playback.Command, logger)
	if !player.Available() {
		logger.Warn("no URL opener found, previews will fail to play", "command", cfg.Playback.Command)
	}

	opts := []application.SessionOption{
		application.WithSessionConfig(application.SessionConfig{
			MinListen:     cfg.Audio.MinListen,
			MaxListen:     cfg.Audio.MaxListen,
			PageSize:      cfg.Freesound.PageSize,
			MaxIterations: cfg.Loop.Iterations,
		}),
	}
	if cfg.Loop.Seed != 0 {
		opts = append(opts, application.WithRand(rand.New(rand.NewPCG(cfg.Loop.Seed, cfg.Loop.Seed))))
	}
	if cfg.Pushover.Enabled {
		opts = append(opts, application.WithPickNotifier(pushover.NewClient(cfg.Pushover.Token, cfg.Pushover.UserKey)))
	}

	return application.NewSession(
		recorder,
		stt,
		searcher,
		player,
		console.NewNotifier(os.Stdout),
		logger,
		opts...,
	), nil
}

func createSpeechToText(cfg *config.Config) (application.SpeechToText, error) {
	switch cfg.Speech.Backend {
	case "google":
		if cfg.Google.APIKey == "" {
			return nil, fmt.Errorf("speech backend google needs google.api_key or GOOGLE_SPEECH_API_KEY")
		}
		return google.NewSpeechClient(cfg.Google.APIKey, cfg.Speech.Language), nil
	case "whisper":
		if cfg.OpenAI.APIKey == "" {
			return nil, fmt.Errorf("speech backend whisper needs openai.api_key or OPENAI_API_KEY")
		}
		return openai.NewWhisperClient(cfg.OpenAI.APIKey, whisperLanguage(cfg.Speech.Language)), nil
	default:
		return &application.NoopSTT{}, nil
	}
}

// whisperLanguage maps a BCP-47 tag such as en-US to the ISO-639-1 code
// Whisper expects.
func whisperLanguage(tag string) string {
	if len(tag) > 2 && tag[2] == '-' {
		return tag[:2]
	}
	return tag
}

func createRecorder(cfg config.AudioConfig, logger *slog.Logger) application.Recorder {
	switch cfg.Source {
	case "http":
		return audio.NewHTTPRecorder(cfg.HTTPAddr, cfg.AuthToken, cfg.SampleRate, cfg.InitialTimeout, logger)
	case "file":
		return audio.NewFileRecorder(cfg.FileDir, cfg.SampleRate, cfg.InitialTimeout, logger)
	default:
		lc := audio.DefaultListenerConfig()
		lc.SampleRate = cfg.SampleRate
		lc.Calibration = cfg.Calibration
		lc.InitialTimeout = cfg.InitialTimeout
		return audio.NewMicrophoneRecorder(lc, logger)
	}
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	// stdout belongs to the console notifier.
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
