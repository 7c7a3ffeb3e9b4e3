// Package supabase talks to the PostgREST API of a hosted Supabase project.
package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"resty.dev/v3"
)

const noRowsCode = "PGRST116"

// Config holds the project settings.
type Config struct {
	URL           string
	AnonKey       string
	RetryAttempts uint
	// RetryDelay is the first backoff delay. Zero keeps the retry-go default.
	RetryDelay time.Duration
}

// Client reads and writes the user_data and profiles tables.
type Client struct {
	httpClient       *resty.Client
	anonKey          string
	maxRetryAttempts uint
	retryDelay       time.Duration
}

// NewClient creates a Client for the project at cfg.URL.
func NewClient(cfg Config) *Client {
	client := resty.New()
	client.SetBaseURL(strings.TrimRight(cfg.URL, "/") + "/rest/v1")
	client.SetHeader("apikey", cfg.AnonKey)
	client.SetHeader("Content-Type", "application/json")

	return &Client{
		httpClient:       client,
		anonKey:          cfg.AnonKey,
		maxRetryAttempts: cfg.RetryAttempts,
		retryDelay:       cfg.RetryDelay,
	}
}

func (c *Client) Close() error {
	return c.httpClient.Close()
}

type accessTokenKey struct{}

// WithAccessToken makes requests made with ctx act as the signed-in learner,
// so row level security applies to them.
func WithAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, accessTokenKey{}, token)
}

func (c *Client) bearer(ctx context.Context) string {
	if token, ok := ctx.Value(accessTokenKey{}).(string); ok && token != "" {
		return "Bearer " + token
	}
	return "Bearer " + c.anonKey
}

// APIError is an error response of PostgREST.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("response error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("response error %d (%s): %s", e.Status, e.Code, e.Message)
}

func (e *APIError) retryable() bool {
	return e.Status >= http.StatusInternalServerError || e.Status == http.StatusTooManyRequests
}

func newAPIError(response *resty.Response) *APIError {
	apiErr := &APIError{Status: response.StatusCode()}
	if err := json.Unmarshal(response.Bytes(), apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = response.String()
	}
	return apiErr
}

func isRetryableError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.retryable()
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return strings.Contains(err.Error(), "connection refused")
}

// do runs request with retries on server errors, rate limiting and network
// failures.
func (c *Client) do(ctx context.Context, request func() (*resty.Response, error)) (*resty.Response, error) {
	opts := []retry.Option{
		retry.Context(ctx),
		retry.Attempts(c.maxRetryAttempts + 1),
		retry.LastErrorOnly(true),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			return retry.BackOffDelay(n, err, config)
		}),
	}
	if c.retryDelay > 0 {
		opts = append(opts, retry.Delay(c.retryDelay))
	}

	var result *resty.Response
	if err := retry.Do(
		func() error {
			response, err := request()
			if err == nil && response.IsError() {
				err = newAPIError(response)
			}
			if err != nil {
				if !isRetryableError(err) {
					return retry.Unrecoverable(err)
				}
				return err
			}
			result = response
			return nil
		},
		opts...,
	); err != nil {
		return nil, err
	}
	return result, nil
}
