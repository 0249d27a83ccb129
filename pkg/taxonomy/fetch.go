package taxonomy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxSourceSize bounds a downloaded taxonomy.
var maxSourceSize int64 = 64 << 20

// ErrSourceTooLarge is returned when a download exceeds maxSourceSize.
var ErrSourceTooLarge = errors.New("taxonomy source too large")

var fetchClient = &http.Client{Timeout: 2 * time.Minute}

// fetch downloads url with retries and exponential backoff.
func fetch(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt)) * 250 * time.Millisecond
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}

		resp, err := fetchClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			lastErr = fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
			// 4xx will not change on retry.
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				break
			}
			continue
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxSourceSize+1))
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		if int64(len(data)) > maxSourceSize {
			return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrSourceTooLarge, url, maxSourceSize)
		}
		return data, nil
	}
	return nil, fmt.Errorf("download %s failed: %w", url, lastErr)
}
