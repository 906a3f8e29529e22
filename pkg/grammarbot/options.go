package grammarbot

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

// Option configures a Client.
type Option func(c *Client) error

// WithLanguage sets the language of the checked texts, such as "en-GB".
func WithLanguage(language string) Option {
	return func(c *Client) error {
		c.language = language

		return nil
	}
}

// WithBaseURL sets the URL of the API, such as "http://pro.grammarbot.io".
func WithBaseURL(base string) Option {
	return func(c *Client) error {
		u, err := parseBaseURL(base)
		if err != nil {
			return err
		}
		c.base = u

		return nil
	}
}

// WithHTTPClient replaces the HTTP client used to reach the API.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) error {
		if httpClient == nil {
			return errors.New("http client must be set")
		}
		c.httpClient = httpClient

		return nil
	}
}

// WithTimeout sets the timeout of every HTTP attempt.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) error {
		if timeout < 0 {
			return errors.Errorf("timeout must not be negative, got %s", timeout)
		}
		c.timeout = timeout

		return nil
	}
}

// WithRetryPolicy retries transport failures, 429 and 5xx answers following pol.
func WithRetryPolicy(pol Policy) Option {
	return func(c *Client) error {
		err := pol.Validate()
		if err != nil {
			return errors.Wrap(err, "invalid retry policy")
		}
		c.policy = &pol

		return nil
	}
}

// WithRateLimit allows at most perSecond attempts per second with bursts of burst attempts.
// A zero perSecond disables rate limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) error {
		if perSecond < 0 {
			return errors.Errorf("rate limit must not be negative, got %v", perSecond)
		}
		if perSecond == 0 {
			c.limiter = nil

			return nil
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)

		return nil
	}
}

// WithRecorder reports requests to rec.
func WithRecorder(rec Recorder) Option {
	return func(c *Client) error {
		if rec == nil {
			rec = NoopRecorder{}
		}
		c.recorder = rec

		return nil
	}
}

// WithLogger sets the logger used for debug messages.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		if logger != nil {
			c.logger = logger
		}

		return nil
	}
}
