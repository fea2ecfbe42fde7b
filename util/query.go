package util

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/semaphore"

	"github.com/omniquote-labs/omniquote/config"
	"github.com/omniquote-labs/omniquote/metrics"
	"github.com/omniquote-labs/omniquote/sentry_integration"
	"github.com/omniquote-labs/omniquote/types"
)

const (
	maxRetries        = 3
	baseBackoffDelay  = 500 * time.Millisecond
	maxBackoffDelay   = 10 * time.Second
	backoffMultiplier = 2.0
	jitterFactor      = 0.1
)

var (
	limiter         *semaphore.Weighted
	coolingDuration time.Duration
	jitterSeed      atomic.Uint32
)

func init() {
	jitterSeed.Store(uint32(time.Now().UnixNano()))
}

func InitLimiter(cfg *config.Config) {
	limiter = semaphore.NewWeighted(int64(cfg.GetMaxConcurrentRequests()))
	coolingDuration = cfg.GetCoolingDuration()
}

// simpleRandom generates pseudo-random numbers using a Linear Congruential
// Generator without external dependencies
func simpleRandom() float64 {
	// LCG with standard constants (used by glibc); the CAS loop keeps the
	// seed consistent when concurrent requests back off at the same time
	for {
		seed := jitterSeed.Load()
		next := seed*1103515245 + 12345
		if jitterSeed.CompareAndSwap(seed, next) {
			// Return value between 0.0 and 1.0
			return float64(next&0x7FFFFFFF) / float64(0x7FFFFFFF)
		}
	}
}

// CalculateBackoffDelay calculates exponential backoff delay with jitter
func CalculateBackoffDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return baseBackoffDelay
	}

	baseSeconds := baseBackoffDelay.Seconds()
	maxSeconds := maxBackoffDelay.Seconds()

	delaySeconds := baseSeconds * math.Pow(backoffMultiplier, float64(attempt-1))
	if delaySeconds > maxSeconds {
		delaySeconds = maxSeconds
	}

	// Add jitter to avoid thundering herd
	jitter := delaySeconds * jitterFactor * (2*simpleRandom() - 1)
	delaySeconds += jitter
	if delaySeconds < baseSeconds {
		delaySeconds = baseSeconds
	}

	durationMs := int64(delaySeconds*1000 + 0.5)
	return time.Duration(durationMs) * time.Millisecond
}

// Get performs an HTTP GET with retries, rate-limit backoff and metrics.
func Get(ctx context.Context, client *fiber.Client, timeout time.Duration, baseUrl, path string, params map[string]string, headers map[string]string) ([]byte, error) {
	return withRetries(ctx, baseUrl, path, func() ([]byte, error) {
		return getRaw(client, timeout, baseUrl, path, params, headers)
	})
}

// Post performs an HTTP POST with a JSON payload, retries and metrics.
func Post(ctx context.Context, client *fiber.Client, timeout time.Duration, baseUrl, path string, payload any, headers map[string]string) ([]byte, error) {
	return withRetries(ctx, baseUrl, path, func() ([]byte, error) {
		return postRaw(client, timeout, baseUrl, path, payload, headers)
	})
}

// PostOnce performs a single HTTP POST attempt without retries, for payloads
// that must not be replayed.
func PostOnce(ctx context.Context, client *fiber.Client, timeout time.Duration, baseUrl, path string, payload any, headers map[string]string) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	body, err := postRaw(client, timeout, baseUrl, path, payload, headers)
	if err != nil {
		recordEndpointFailure(baseUrl)
		return nil, err
	}
	recordEndpointSuccess(baseUrl)
	return body, nil
}

func withRetries(ctx context.Context, baseUrl, path string, do func() ([]byte, error)) ([]byte, error) {
	retryCount := 0
	rateLimitRetries := 0
	var lastErr error

	for retryCount < maxRetries {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		body, err := do()
		if err == nil {
			recordEndpointSuccess(baseUrl)
			return body, nil
		}
		lastErr = err

		// 4xx answers other than 429 are deterministic; retrying cannot
		// change them, and the endpoint itself is reachable and healthy
		var statusErr *HTTPStatusError
		if errors.As(err, &statusErr) && statusErr.Code >= 400 && statusErr.Code < 500 {
			recordEndpointSuccess(baseUrl)
			return nil, err
		}

		// handle 429 Too Many Requests with exponential backoff; this does
		// not count against the regular retry limit
		if errors.Is(err, fiber.ErrTooManyRequests) {
			rateLimitRetries++
			metrics.RateLimitHitsTotal().WithLabelValues(fmt.Sprintf("%s%s", baseUrl, path)).Inc()

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(CalculateBackoffDelay(rateLimitRetries)):
			}
			continue
		}

		recordEndpointFailure(baseUrl)
		retryCount++

		// plain failures cool down for a fixed interval; exponential backoff
		// is reserved for rate limiting above
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(coolingDuration):
		}
	}

	if lastErr != nil {
		sentry_integration.CaptureCurrentHubException(lastErr, sentry.LevelError)
		return nil, lastErr
	}
	return nil, fmt.Errorf("failed to fetch data after %d retries", maxRetries)
}

func getRaw(client *fiber.Client, timeout time.Duration, baseUrl, path string, params map[string]string, headers map[string]string) (body []byte, err error) {
	start := time.Now()
	endpoint := fmt.Sprintf("%s%s", baseUrl, path)

	metrics.ConcurrentRequestsActive().Inc()
	defer func() {
		metrics.ConcurrentRequestsActive().Dec()
		metrics.ExternalAPILatency().WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	if err := acquireSlot(); err != nil {
		return nil, err
	}
	defer limiter.Release(1)

	parsedUrl, err := url.Parse(endpoint)
	if err != nil {
		return nil, err
	}
	if params != nil {
		query := parsedUrl.Query()
		for key, value := range params {
			query.Set(key, value)
		}
		parsedUrl.RawQuery = query.Encode()
	}

	req := client.Get(parsedUrl.String())
	for key, value := range headers {
		req.Set(key, value)
	}

	code, body, errs := req.Timeout(timeout).Bytes()
	if err := errors.Join(errs...); err != nil {
		metrics.ExternalAPIRequestsTotal().WithLabelValues(endpoint, "error").Inc()
		return nil, err
	}
	metrics.ExternalAPIRequestsTotal().WithLabelValues(endpoint, fmt.Sprintf("%d", code)).Inc()

	return checkStatus(code, body)
}

func postRaw(client *fiber.Client, timeout time.Duration, baseUrl, path string, payload any, headers map[string]string) (body []byte, err error) {
	start := time.Now()
	endpoint := fmt.Sprintf("%s%s", baseUrl, path)

	metrics.ConcurrentRequestsActive().Inc()
	defer func() {
		metrics.ConcurrentRequestsActive().Dec()
		metrics.ExternalAPILatency().WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	if err := acquireSlot(); err != nil {
		return nil, err
	}
	defer limiter.Release(1)

	req := client.Post(endpoint).JSON(payload)
	for key, value := range headers {
		req.Set(key, value)
	}

	code, body, errs := req.Timeout(timeout).Bytes()
	if err := errors.Join(errs...); err != nil {
		metrics.ExternalAPIRequestsTotal().WithLabelValues(endpoint, "error").Inc()
		return nil, err
	}
	metrics.ExternalAPIRequestsTotal().WithLabelValues(endpoint, fmt.Sprintf("%d", code)).Inc()

	return checkStatus(code, body)
}

func acquireSlot() error {
	if limiter == nil {
		return types.NewLimiterNotInitializedError()
	}

	semaphoreStart := time.Now()
	if err := limiter.Acquire(context.Background(), 1); err != nil {
		return fmt.Errorf("failed to acquire semaphore: %w", err)
	}
	metrics.SemaphoreWaitDuration().Observe(time.Since(semaphoreStart).Seconds())
	return nil
}

func checkStatus(code int, body []byte) ([]byte, error) {
	if code == fiber.StatusOK {
		return body, nil
	}
	if code == fiber.StatusTooManyRequests {
		return nil, errors.Join(fiber.ErrTooManyRequests, fmt.Errorf("body: %s", string(body)))
	}
	return nil, &HTTPStatusError{Code: code, Body: string(body)}
}

// HTTPStatusError is a non-2xx answer from an external API.
type HTTPStatusError struct {
	Code int
	Body string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("http response: %d, body: %s", e.Code, e.Body)
}

// IsHTTPStatus reports whether err stems from the given HTTP status code.
func IsHTTPStatus(err error, code int) bool {
	var statusErr *HTTPStatusError
	return errors.As(err, &statusErr) && statusErr.Code == code
}
