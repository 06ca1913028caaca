package freesound

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"speak-sfx/internal/domain"
)

const (
	DefaultBaseURL = "https://freesound.org/apiv2"
	searchFields   = "name,url,username,previews"
)

var placeholderKeys = []string{"YOUR_CLIENT_ID_GOES_HERE", "YOUR_FREESOUND_API_KEY"}

// IsPlaceholderKey reports whether key is empty or one of the sample values
// from the documentation.
func IsPlaceholderKey(key string) bool {
	key = strings.TrimSpace(key)
	if key == "" {
		return true
	}
	for _, p := range placeholderKeys {
		if key == p {
			return true
		}
	}
	return false
}

type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// HTTPError is returned for any non-2xx search response.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("freesound API error: %s", e.Status)
	}
	return fmt.Sprintf("freesound API error: %s: %s", e.Status, e.Body)
}

func (e *HTTPError) Unwrap() error {
	return domain.ErrHTTPStatus
}

type searchResponse struct {
	Count   int           `json:"count"`
	Results []soundResult `json:"results"`
}

type soundResult struct {
	Name     string            `json:"name"`
	URL      string            `json:"url"`
	Username string            `json:"username"`
	Previews map[string]string `json:"previews"`
}

// Search runs a text search and returns at most limit sounds.
func (c *Client) Search(ctx context.Context, term string, limit int) ([]domain.Sound, error) {
	if IsPlaceholderKey(c.apiKey) {
		return nil, domain.ErrMissingCredential
	}

	params := url.Values{}
	params.Set("query", term)
	params.Set("token", c.apiKey)
	params.Set("fields", searchFields)
	if limit > 0 {
		params.Set("page_size", strconv.Itoa(limit))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search/text/?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrTransport, redactToken(err, c.apiKey))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %w", domain.ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       excerpt(body, 300),
		}
	}

	var result searchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedResponse, err)
	}

	sounds := make([]domain.Sound, 0, len(result.Results))
	for _, r := range result.Results {
		sounds = append(sounds, domain.Sound{
			Name:     r.Name,
			URL:      r.URL,
			Username: r.Username,
			Previews: r.Previews,
		})
	}
	if limit > 0 && len(sounds) > limit {
		sounds = sounds[:limit]
	}

	return sounds, nil
}

// redactedError hides the API key in Error while keeping the cause
// reachable for errors.Is and errors.As.
type redactedError struct {
	err   error
	token string
}

func (e *redactedError) Error() string {
	return strings.ReplaceAll(e.err.Error(), e.token, "REDACTED")
}

func (e *redactedError) Unwrap() error {
	return e.err
}

// redactToken keeps the API key out of logged url.Error messages.
func redactToken(err error, token string) error {
	if token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return &redactedError{err: err, token: token}
}

func excerpt(body []byte, n int) string {
	r := []rune(strings.TrimSpace(string(body)))
	if len(r) > n {
		return string(r[:n]) + "..."
	}
	return string(r)
}
