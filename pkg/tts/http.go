package tts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// errorParser converts a non-200 response into an *APIError.
type errorParser func(resp *http.Response) error

// postWithRetry sends body to url, retrying transport failures, 429 and 5xx
// answers up to cfg.MaxRetries times. The caller owns the returned body.
func postWithRetry(ctx context.Context, client *http.Client, cfg *Config, logger *slog.Logger,
	url string, body []byte, headers map[string]string, parse errorParser, provider string) (*http.Response, error) {
	var lastErr error
	var wait time.Duration

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}
		wait = cfg.RetryDelay * time.Duration(attempt+1)

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, WrapError(provider, fmt.Errorf("create request: %w", err))
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = WrapError(provider, err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = parse(resp)
			resp.Body.Close()
			var apiErr *APIError
			if errors.As(lastErr, &apiErr) && apiErr.RetryAfter > wait {
				if apiErr.RetryAfter > cfg.Timeout {
					return nil, lastErr
				}
				wait = apiErr.RetryAfter
			}
			logger.Warn("retrying request",
				"attempt", attempt+1,
				"status", resp.StatusCode,
			)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			defer resp.Body.Close()
			return nil, parse(resp)
		}
		return resp, nil
	}

	return nil, lastErr
}

// readAudio drains a successful response.
func readAudio(resp *http.Response, provider string) ([]byte, error) {
	defer resp.Body.Close()
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, WrapError(provider, fmt.Errorf("read response: %w", err))
	}
	return audio, nil
}
