package domain

import "errors"

// Every error below ends one loop iteration and nothing more.
var (
	ErrNoSpeech             = errors.New("no speech detected within the initial timeout window")
	ErrUnintelligible       = errors.New("could not understand audio")
	ErrTranscriptionService = errors.New("speech recognition service error")
	ErrEmptyTranscript      = errors.New("empty transcript")
	ErrNoValidTokens        = errors.New("no valid words found in the transcription")
	ErrMissingCredential    = errors.New("freesound API key is missing or invalid")
	ErrHTTPStatus           = errors.New("unexpected HTTP status")
	ErrTransport            = errors.New("request failed")
	ErrMalformedResponse    = errors.New("malformed response")
	ErrNoResults            = errors.New("search returned no results")
	ErrNoPlayablePreview    = errors.New("no playable preview URL for the result")
	ErrPlayback             = errors.New("starting playback")
)
