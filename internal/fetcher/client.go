package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"trumpwatch/internal/version"
)

const (
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 512
)

// Options are shared by every fetcher. BaseURL and APIKey fall back to the
// public endpoint and its demo key when empty.
type Options struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	UserAgent string
}

// APIError reports a non-2xx answer from an upstream source.
type APIError struct {
	Source string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s api error (%d): %s", e.Source, e.Status, e.Body)
	}
	return fmt.Sprintf("%s api error (%d)", e.Source, e.Status)
}

type client struct {
	source    string
	http      *http.Client
	baseURL   string
	userAgent string
	logger    zerolog.Logger
}

func newClient(source, defaultBaseURL string, opts Options, logger zerolog.Logger) client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	ua := strings.TrimSpace(opts.UserAgent)
	if ua == "" {
		ua = version.UserAgent()
	}

	return client{
		source:    source,
		http:      &http.Client{Timeout: timeout},
		baseURL:   baseURL,
		userAgent: ua,
		logger:    logger.With().Str("component", source+"_fetcher").Logger(),
	}
}

// get issues a GET against baseURL+path and returns the body of a 2xx answer.
func (c client) get(ctx context.Context, path string, query url.Values, accept string) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", c.source, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s read body: %w", c.source, err)
	}

	c.logger.Debug().
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("upstream request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseHTTPError(c.source, resp.StatusCode, payload)
	}
	return payload, nil
}

// getJSON decodes a 2xx JSON answer into out.
func (c client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	payload, err := c.get(ctx, path, query, "application/json")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("%s decode: %w", c.source, err)
	}
	return nil
}

type errorResponse struct {
	Error        any    `json:"error"`
	ErrorMessage string `json:"error_message"`
	Message      string `json:"message"`
}

func parseHTTPError(source string, status int, payload []byte) error {
	apiErr := &APIError{Source: source, Status: status}

	var body errorResponse
	if err := json.Unmarshal(payload, &body); err == nil {
		switch {
		case body.ErrorMessage != "":
			apiErr.Body = body.ErrorMessage
		case body.Message != "":
			apiErr.Body = body.Message
		case body.Error != nil:
			apiErr.Body = fmt.Sprint(body.Error)
		}
	}
	if apiErr.Body == "" && len(payload) > 0 {
		text := strings.TrimSpace(string(payload))
		if len(text) > maxErrorBody {
			text = text[:maxErrorBody]
		}
		apiErr.Body = text
	}
	return apiErr
}

func parseDate(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if ts, err := time.Parse(layout, v); err == nil {
			return ts
		}
	}
	return time.Time{}
}
