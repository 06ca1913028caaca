package pushover

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultEndpoint = "https://api.pushover.net/1/messages.json"
	title           = "speak-sfx pick"
	// Pushover caps url_title at 100 characters.
	maxURLTitle = 100
)

// Client forwards each played sound to a phone so good finds are not lost
// once the browser tab is closed.
type Client struct {
	token      string
	userKey    string
	endpoint   string
	httpClient *http.Client
}

func NewClient(token, userKey string) *Client {
	return NewClientWithURL(token, userKey, defaultEndpoint)
}

func NewClientWithURL(token, userKey, endpoint string) *Client {
	return &Client{
		token:      token,
		userKey:    userKey,
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type apiResponse struct {
	Status int      `json:"status"`
	Errors []string `json:"errors"`
}

// Notify sends message as a push notification. A trailing http(s) link in
// the message becomes the notification's tappable URL. Missing credentials
// turn Notify into a no-op.
func (c *Client) Notify(ctx context.Context, message string) error {
	if c.token == "" || c.userKey == "" {
		return nil
	}

	form := url.Values{
		"token":   {c.token},
		"user":    {c.userKey},
		"title":   {title},
		"message": {message},
	}
	if text, link, ok := splitLink(message); ok {
		form.Set("message", text)
		form.Set("url", link)
		form.Set("url_title", truncate(text, maxURLTitle))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var apiResp apiResponse
	if json.Unmarshal(body, &apiResp) == nil && len(apiResp.Errors) > 0 {
		return fmt.Errorf("pushover error: %s: %s", resp.Status, strings.Join(apiResp.Errors, "; "))
	}
	return fmt.Errorf("pushover error: %s", resp.Status)
}

// splitLink separates a trailing URL from the rest of the message.
func splitLink(message string) (text, link string, ok bool) {
	i := strings.LastIndexAny(message, " \t\n")
	if i < 0 {
		return "", "", false
	}
	link = message[i+1:]
	if !strings.HasPrefix(link, "https://") && !strings.HasPrefix(link, "http://") {
		return "", "", false
	}
	text = strings.TrimRight(strings.TrimSpace(message[:i]), ":")
	if text == "" {
		return "", "", false
	}
	return text, link, true
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
