// Package maps talks to the OpenStreetMap services used for address lookup
// and route drawing.
package maps

import (
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/foodorder-backend/pkg/logger"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultUserAgent = "foodorder-backend/1.0"
	defaultTimeout   = 10 * time.Second
)

// Config holds the endpoint and resilience settings of one upstream.
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	Breaker   BreakerSettings
}

// Option configures optional client behavior.
type Option func(*options)

type options struct {
	httpClient *http.Client
	baseURL    string
	observer   BreakerObserver
	logg       *logger.Logger
}

// WithHTTPClient overrides the default traced HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		if client != nil {
			o.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured base URL.
func WithBaseURL(baseURL string) Option {
	return func(o *options) {
		if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
			o.baseURL = trimmed
		}
	}
}

// WithObserver reports breaker state changes and failures.
func WithObserver(observer BreakerObserver) Option {
	return func(o *options) {
		o.observer = observer
	}
}

// WithLogger logs breaker transitions.
func WithLogger(logg *logger.Logger) Option {
	return func(o *options) {
		o.logg = logg
	}
}

func buildOptions(cfg Config, defaultBase string, opts []Option) options {
	o := options{baseURL: strings.TrimSpace(cfg.BaseURL)}
	if o.baseURL == "" {
		o.baseURL = defaultBase
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

func newRestyClient(cfg Config, o options) *resty.Client {
	httpClient := o.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return resty.NewWithClient(httpClient).
		SetBaseURL(strings.TrimRight(o.baseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json")
}
