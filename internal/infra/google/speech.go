// Package google talks to the Google Web Speech API, the keyed endpoint
// browsers use for dictation.
package google

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"speak-sfx/internal/domain"
	"speak-sfx/internal/infra/audio"
)

const DefaultBaseURL = "https://www.google.com/speech-api/v2"

type SpeechClient struct {
	apiKey     string
	language   string
	baseURL    string
	httpClient *http.Client
}

func NewSpeechClient(apiKey, language string) *SpeechClient {
	return NewSpeechClientWithURL(apiKey, language, DefaultBaseURL)
}

func NewSpeechClientWithURL(apiKey, language, baseURL string) *SpeechClient {
	if language == "" {
		language = "en-US"
	}
	return &SpeechClient{
		apiKey:     apiKey,
		language:   language,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type alternative struct {
	Transcript string   `json:"transcript"`
	Confidence *float64 `json:"confidence,omitempty"`
}

type recognizeResponse struct {
	Result []struct {
		Alternative []alternative `json:"alternative"`
		Final       bool          `json:"final"`
	} `json:"result"`
}

func (c *SpeechClient) Transcribe(ctx context.Context, utt *domain.Utterance) (string, error) {
	if utt.IsText() {
		return utt.Text, nil
	}

	pcm, rate, err := audio.PCMFromWAV(utt.Audio)
	if err != nil {
		return "", fmt.Errorf("%w: google backend needs 16-bit PCM WAV: %w", domain.ErrTranscriptionService, err)
	}

	params := url.Values{}
	params.Set("client", "chromium")
	params.Set("lang", c.language)
	params.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/recognize?"+params.Encode(), bytes.NewReader(pcm))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", fmt.Sprintf("audio/l16; rate=%d", rate))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: sending request: %w", domain.ErrTranscriptionService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("%w: speech API error %d: %s", domain.ErrTranscriptionService, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	// The body is a stream of JSON objects; the first is usually an empty result.
	dec := json.NewDecoder(resp.Body)
	for {
		var chunk recognizeResponse
		if err := dec.Decode(&chunk); err != nil {
			if errors.Is(err, io.EOF) {
				return "", domain.ErrUnintelligible
			}
			return "", fmt.Errorf("%w: decoding response: %w", domain.ErrTranscriptionService, err)
		}
		if len(chunk.Result) == 0 || len(chunk.Result[0].Alternative) == 0 {
			continue
		}

		best := bestAlternative(chunk.Result[0].Alternative)
		if text := strings.TrimSpace(best.Transcript); text != "" {
			return text, nil
		}
		return "", domain.ErrUnintelligible
	}
}

// bestAlternative prefers the highest confidence, falling back to the first.
func bestAlternative(alts []alternative) alternative {
	best := alts[0]
	for _, a := range alts {
		if a.Confidence == nil {
			continue
		}
		if best.Confidence == nil || *a.Confidence > *best.Confidence {
			best = a
		}
	}
	return best
}
