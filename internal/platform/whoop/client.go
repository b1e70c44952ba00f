// Package whoop implements a read-only client for the wearable provider's
// paginated developer API.
package whoop

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/evermore-health/vitalsync/internal/config"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// Common client errors
var (
	// ErrInvalidConfig is returned when the client is constructed with
	// missing or malformed settings.
	ErrInvalidConfig = errors.New("invalid whoop client configuration")

	// ErrUnexpectedStatus is returned when the API responds with a
	// non-success status code.
	ErrUnexpectedStatus = errors.New("unexpected response status")
)

// PageParams carries the pagination inputs shared by every collection
// endpoint: the window start, the opaque cursor from the previous page, and
// the per-page record limit.
type PageParams struct {
	Start     time.Time
	NextToken string
	Limit     int
}

// Client is a rate-limited, circuit-broken HTTP client for the provider API.
// The upstream enforces a request budget per client; the limiter keeps us
// under it, and the breaker turns a hard upstream outage into fast per-call
// failures instead of serialized timeouts.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[[]byte]
	logger     *slog.Logger
}

// NewClient creates a new provider API client from the given configuration.
func NewClient(logger *slog.Logger, cfg config.WhoopConfig) (*Client, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: base URL cannot be empty", ErrInvalidConfig)
	}

	if cfg.RequestsPerSecond <= 0 {
		return nil, fmt.Errorf("%w: requests per second must be positive", ErrInvalidConfig)
	}

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "whoop-api",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String())
		},
	})

	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		breaker: breaker,
		logger:  logger,
	}, nil
}

// ListCycles fetches one page of cycles starting at the given window.
func (c *Client) ListCycles(ctx context.Context, accessToken string, p PageParams) (*CyclePage, error) {
	var page CyclePage
	if err := c.getCollection(ctx, "/v1/cycle", accessToken, p, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListWorkouts fetches one page of workouts.
func (c *Client) ListWorkouts(ctx context.Context, accessToken string, p PageParams) (*WorkoutPage, error) {
	var page WorkoutPage
	if err := c.getCollection(ctx, "/v1/activity/workout", accessToken, p, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListSleeps fetches one page of sleep sessions.
func (c *Client) ListSleeps(ctx context.Context, accessToken string, p PageParams) (*SleepPage, error) {
	var page SleepPage
	if err := c.getCollection(ctx, "/v1/activity/sleep", accessToken, p, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListRecoveries fetches one page of recovery assessments.
func (c *Client) ListRecoveries(ctx context.Context, accessToken string, p PageParams) (*RecoveryPage, error) {
	var page RecoveryPage
	if err := c.getCollection(ctx, "/v1/recovery", accessToken, p, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListBodyMeasurements fetches one page of body measurements.
func (c *Client) ListBodyMeasurements(ctx context.Context, accessToken string, p PageParams) (*BodyMeasurementPage, error) {
	var page BodyMeasurementPage
	if err := c.getCollection(ctx, "/v1/user/measurement/body", accessToken, p, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// getCollection performs one paginated GET against a collection endpoint and
// decodes the page envelope into out.
func (c *Client) getCollection(
	ctx context.Context,
	path string,
	accessToken string,
	p PageParams,
	out any,
) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait aborted: %w", err)
	}

	endpoint, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return fmt.Errorf("failed to build request URL: %w", err)
	}

	query := url.Values{}
	if !p.Start.IsZero() {
		query.Set("start", p.Start.UTC().Format(time.RFC3339))
	}
	if p.NextToken != "" {
		query.Set("nextToken", p.NextToken)
	}
	if p.Limit > 0 {
		query.Set("limit", strconv.Itoa(p.Limit))
	}

	requestURL := endpoint
	if encoded := query.Encode(); encoded != "" {
		requestURL += "?" + encoded
	}

	body, err := c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+accessToken)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}
		defer func() {
			_ = resp.Body.Close()
		}()

		// Cap the read so a misbehaving upstream cannot balloon memory.
		data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		if err != nil {
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%w: %s returned %d", ErrUnexpectedStatus, path, resp.StatusCode)
		}

		return data, nil
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}

	return nil
}
