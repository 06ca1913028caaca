package freesound_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"speak-sfx/internal/domain"
	"speak-sfx/internal/infra/freesound"
)

const foxResponse = `{
  "count": 3,
  "results": [
    {"name": "Fox bark", "url": "https://freesound.org/people/a/sounds/1/", "username": "a",
     "previews": {"preview-hq-mp3": "https://x/fox.mp3", "preview-lq-mp3": "https://x/fox-lq.mp3"}},
    {"name": "Fox den", "url": "https://freesound.org/people/b/sounds/2/", "username": "b"},
    {"name": "Fox run", "url": "https://freesound.org/people/c/sounds/3/", "username": "c",
     "previews": {"preview-lq-mp3": "https://x/run-lq.mp3"}}
  ]
}`

func TestClient_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/text/" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		q := r.URL.Query()
		if q.Get("query") != "fox" || q.Get("token") != "real-key" ||
			q.Get("fields") != "name,url,username,previews" || q.Get("page_size") != "10" {
			http.Error(w, "bad query: "+r.URL.RawQuery, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, foxResponse)
	}))
	defer server.Close()

	client := freesound.NewClient(freesound.Config{APIKey: "real-key", BaseURL: server.URL})

	sounds, err := client.Search(context.Background(), "fox", 10)
	require.NoError(t, err)
	require.Len(t, sounds, 3)

	assert.Equal(t, "Fox bark", sounds[0].Name)
	assert.Equal(t, "a", sounds[0].Username)
	assert.Equal(t, "https://x/fox.mp3", sounds[0].PreviewURL())
	assert.Empty(t, sounds[1].PreviewURL())
	assert.Empty(t, sounds[2].PreviewURL())
}

func TestClient_EmptyResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"count": 0, "results": []}`)
	}))
	defer server.Close()

	client := freesound.NewClient(freesound.Config{APIKey: "real-key", BaseURL: server.URL})

	sounds, err := client.Search(context.Background(), "zzzyx", 10)
	require.NoError(t, err)
	assert.Empty(t, sounds)
}

func TestClient_PlaceholderKeyMakesNoRequest(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, foxResponse)
	}))
	defer server.Close()

	for _, key := range []string{"", "  ", "YOUR_CLIENT_ID_GOES_HERE", "YOUR_FREESOUND_API_KEY"} {
		client := freesound.NewClient(freesound.Config{APIKey: key, BaseURL: server.URL})

		_, err := client.Search(context.Background(), "fox", 10)
		assert.ErrorIs(t, err, domain.ErrMissingCredential, "key %q", key)
	}

	assert.Zero(t, hits.Load())
}

func TestClient_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail": "Invalid token"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	client := freesound.NewClient(freesound.Config{APIKey: "bad-key", BaseURL: server.URL})

	_, err := client.Search(context.Background(), "fox", 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrHTTPStatus)

	var httpErr *freesound.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)
	assert.Contains(t, httpErr.Body, "Invalid token")
}

func TestClient_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := freesound.NewClient(freesound.Config{APIKey: "real-key", BaseURL: server.URL})

	_, err := client.Search(context.Background(), "fox", 10)
	assert.ErrorIs(t, err, domain.ErrHTTPStatus)
}

func TestClient_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>maintenance</html>")
	}))
	defer server.Close()

	client := freesound.NewClient(freesound.Config{APIKey: "real-key", BaseURL: server.URL})

	_, err := client.Search(context.Background(), "fox", 10)
	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
}

func TestClient_TransportErrorRedactsKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := server.URL
	server.Close()

	client := freesound.NewClient(freesound.Config{APIKey: "secret-key-123", BaseURL: baseURL})

	_, err := client.Search(context.Background(), "fox", 10)
	require.ErrorIs(t, err, domain.ErrTransport)
	assert.NotContains(t, err.Error(), "secret-key-123")
}

func TestClient_TimeoutKeepsCause(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	client := freesound.NewClient(freesound.Config{APIKey: "secret-key-123", BaseURL: server.URL})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Search(ctx, "fox", 10)
	require.ErrorIs(t, err, domain.ErrTransport)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	var urlErr *url.Error
	assert.True(t, errors.As(err, &urlErr))
	assert.NotContains(t, err.Error(), "secret-key-123")
}

func TestClient_HTTPErrorExcerptKeepsRunesWhole(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, strings.Repeat("é", 400))
	}))
	defer server.Close()

	client := freesound.NewClient(freesound.Config{APIKey: "real-key", BaseURL: server.URL})

	_, err := client.Search(context.Background(), "fox", 10)

	var httpErr *freesound.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.True(t, utf8.ValidString(httpErr.Body))
	assert.Equal(t, strings.Repeat("é", 300)+"...", httpErr.Body)
}

func TestClient_TruncatesToLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, foxResponse)
	}))
	defer server.Close()

	client := freesound.NewClient(freesound.Config{APIKey: "real-key", BaseURL: server.URL})

	sounds, err := client.Search(context.Background(), "fox", 2)
	require.NoError(t, err)
	assert.Len(t, sounds, 2)
}
