package application_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"speak-sfx/internal/application"
	"speak-sfx/internal/domain"
	"speak-sfx/internal/infra/audio"
	"speak-sfx/internal/infra/console"
	"speak-sfx/internal/infra/freesound"
)

// fakeFreesound answers every text search with a single fox sound.
func fakeFreesound(t *testing.T, queries *[]string) *freesound.Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*queries = append(*queries, r.URL.Query().Get("query"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"count":1,"results":[{"name":"Fox bark","url":"https://freesound.org/s/1/",
			"username":"fieldrec","previews":{"preview-hq-mp3":"https://cdn.freesound.org/fox.mp3"}}]}`)
	}))
	t.Cleanup(server.Close)

	return freesound.NewClient(freesound.Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 2 * time.Second})
}

func pipelineSession(recorder application.Recorder, stt application.SpeechToText, searcher application.SoundSearcher, player application.Player, out io.Writer) *application.Session {
	cfg := application.DefaultSessionConfig()
	cfg.MaxIterations = 1
	return application.NewSession(
		recorder,
		stt,
		searcher,
		player,
		console.NewNotifier(out),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		application.WithSessionConfig(cfg),
		application.WithRand(rand.New(rand.NewPCG(5, 5))),
	)
}

func TestPipeline_FileRecorderToPlayer(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "clip.wav"), []byte("fox clip"), 0o644))

	var queries []string
	stt := &mockSTT{transcriptions: map[string]string{"fox clip": "The quick brown fox"}}
	player := &mockPlayer{}
	var out bytes.Buffer

	session := pipelineSession(audio.NewFileRecorder(dir, 16000, 200*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil))), stt, fakeFreesound(t, &queries), player, &out)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, session.Run(ctx))

	assert.Equal(t, 1, stt.calls)
	assert.Equal(t, []string{"fox"}, queries)
	assert.Equal(t, []string{"https://cdn.freesound.org/fox.mp3"}, player.played)
	assert.Contains(t, out.String(), `Selected the last word captured: "fox"`)
	assert.Contains(t, out.String(), "Uploader: fieldrec")

	_, err := os.Stat(filepath.Join(dir, "clip.wav.processed"))
	assert.NoError(t, err, "consumed clip is renamed")
}

func TestPipeline_TextFromHTTPRecorderSkipsTranscription(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	recorder := audio.NewHTTPRecorder("127.0.0.1:0", "", 16000, time.Second, logger)
	recorder.InjectAudio([]byte(domain.TextCommandPrefix + "distant thunder"))

	var queries []string
	stt := &mockSTT{}
	player := &mockPlayer{}

	session := pipelineSession(recorder, stt, fakeFreesound(t, &queries), player, io.Discard)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, session.Run(ctx))

	assert.Zero(t, stt.calls, "text utterances are not transcribed")
	assert.Equal(t, []string{"thunder"}, queries)
	assert.Len(t, player.played, 1)
}

func TestPipeline_SilentDirectoryNeverSearches(t *testing.T) {
	var queries []string
	player := &mockPlayer{}
	var out bytes.Buffer

	session := pipelineSession(audio.NewFileRecorder(t.TempDir(), 16000, 50*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil))), &mockSTT{}, fakeFreesound(t, &queries), player, &out)

	require.NoError(t, session.Run(context.Background()))

	assert.Empty(t, queries)
	assert.Empty(t, player.played)
	assert.Contains(t, out.String(), "Returning to listening mode")
}
