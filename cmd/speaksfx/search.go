package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"speak-sfx/internal/domain"
)

var searchCmd = &cobra.Command{
	Use:   "search <phrase...>",
	Short: "Run one lookup for a typed phrase, skipping capture and transcription",
	Example: `  speaksfx search the quick brown fox
  speaksfx search --seed 7 thunder`,
	Long: `search runs term selection, the Freesound lookup and playback once.
It exits 0 when the phrase simply had nothing to play (no usable word, no
results, no preview) and 1 when something failed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.Log)

	// The recorder is never started; the phrase comes from the arguments.
	session, err := buildSession(cfg, createRecorder(cfg.Audio, logger), logger)
	if err != nil {
		return err
	}

	return searchOutcome(session.HandleText(cmd.Context(), strings.Join(args, " ")))
}

// searchOutcome drops errors that only mean nothing was found to play; the
// session has already printed why.
func searchOutcome(err error) error {
	switch {
	case errors.Is(err, domain.ErrNoValidTokens),
		errors.Is(err, domain.ErrEmptyTranscript),
		errors.Is(err, domain.ErrNoResults),
		errors.Is(err, domain.ErrNoPlayablePreview):
		return nil
	}
	return err
}
