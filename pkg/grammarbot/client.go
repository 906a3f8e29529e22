package grammarbot

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL  = "http://api.grammarbot.io"
	DefaultLanguage = "en-US"
	DefaultTimeout  = 30 * time.Second

	checkPath    = "/v2/check"
	userAgent    = "go-grammarbot"
	maxBodyBytes = 10 << 20
	maxErrorBody = 512
)

// Client is the primary way to interact with the API. It is safe for concurrent use.
type Client struct {
	mu       sync.RWMutex
	apiKey   string
	language string
	base     *url.URL

	httpClient *http.Client
	timeout    time.Duration
	policy     *Policy
	limiter    *rate.Limiter
	recorder   Recorder
	logger     *slog.Logger
}

// New creates a new Client authenticated with apiKey.
// Sign up at https://www.grammarbot.io/signup to get one.
func New(apiKey string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(DefaultBaseURL)
	if err != nil {
		return nil, err
	}

	client := &Client{
		apiKey:     apiKey,
		language:   DefaultLanguage,
		base:       base,
		httpClient: http.DefaultClient,
		timeout:    DefaultTimeout,
		recorder:   NoopRecorder{},
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		err := opt(client)
		if err != nil {
			return nil, errors.Wrap(err, "unable to apply client option")
		}
	}

	return client, nil
}

func parseBaseURL(base string) (*url.URL, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, newError(ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, newError(ErrInvalidURL, errors.Errorf("unsupported scheme %q in %q", u.Scheme, base))
	}
	if u.Host == "" {
		return nil, newError(ErrInvalidURL, errors.Errorf("missing host in %q", base))
	}

	return u, nil
}

// SetAPIKey sets the API key for the client.
func (c *Client) SetAPIKey(apiKey string) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apiKey = apiKey

	return c
}

// SetLanguage sets the language for the client.
func (c *Client) SetLanguage(language string) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.language = language

	return c
}

// SetBaseURL sets the base URL for the client. The client is left unchanged on error.
func (c *Client) SetBaseURL(base string) (*Client, error) {
	u, err := parseBaseURL(base)
	if err != nil {
		return c, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.base = u

	return c, nil
}

// APIKey returns the key sent with every check request.
func (c *Client) APIKey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.apiKey
}

// Language returns the language code used when checking.
func (c *Client) Language() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.language
}

// BaseURL returns the API endpoint root.
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.base.String()
}

// Check checks text and returns the issues found by the API.
func (c *Client) Check(ctx context.Context, text string) (*Response, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	endpoint, err := c.checkURL(text)
	if err != nil {
		return nil, err
	}

	res, err := c.do(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	c.recorder.ObserveMatches(len(res.Matches))

	return res, nil
}

func (c *Client) checkURL(text string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.apiKey == "" {
		return "", ErrEmptyAPIKey
	}

	endpoint, err := c.base.Parse(checkPath)
	if err != nil {
		return "", newError(ErrInvalidURL, err)
	}

	query := url.Values{}
	query.Set("api_key", c.apiKey)
	query.Set("language", c.language)
	query.Set("text", text)
	endpoint.RawQuery = query.Encode()

	return endpoint.String(), nil
}

func (c *Client) do(ctx context.Context, endpoint string) (*Response, error) {
	for retry := 0; ; retry++ {
		res, err := c.attempt(ctx, endpoint)
		if err == nil {
			return res, nil
		}
		if c.policy == nil || retry >= c.policy.MaxRetries || !isTemporary(ctx, err) {
			return nil, err
		}

		delay := c.policy.Delay(retry + 1)
		c.logger.DebugContext(ctx, "Retrying grammar check", "retry", retry+1, "delay", delay, "error", err)
		c.recorder.IncRetry()

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()

			return nil, newError(ErrRequestFailed, ctx.Err())
		case <-timer.C:
		}
	}
}

func isTemporary(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}

	return errors.Is(err, ErrRequestFailed)
}

func (c *Client) attempt(ctx context.Context, endpoint string) (*Response, error) {
	if c.limiter != nil {
		err := c.limiter.Wait(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "unable to wait for rate limiter")
		}
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, newError(ErrInvalidURL, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recorder.ObserveRequest("error", time.Since(start))

		return nil, newError(ErrRequestFailed, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	c.recorder.ObserveRequest(strconv.Itoa(resp.StatusCode), time.Since(start))
	if err != nil {
		return nil, newError(ErrRequestFailed, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: truncateBody(string(body), maxErrorBody)}
	}

	res := &Response{}
	err = json.Unmarshal(body, res)
	if err != nil {
		return nil, newError(ErrInvalidJSON, err)
	}

	return res, nil
}

// truncateBody trims msg to at most limit bytes without splitting a rune.
func truncateBody(msg string, limit int) string {
	msg = strings.TrimSpace(msg)
	if len(msg) <= limit {
		return msg
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}

	return msg[:cut]
}
