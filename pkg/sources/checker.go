package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
)

// Checker periodically probes every registered taxonomy location and
// records whether it is reachable.
type Checker struct {
	sources  *DB
	logger   *slog.Logger
	interval time.Duration
	client   *http.Client
}

// NewChecker creates a Checker that will verify locations every interval.
func NewChecker(sources *DB, logger *slog.Logger, interval time.Duration) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{
		sources:  sources,
		logger:   logger,
		interval: interval,
		client: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Start runs an immediate check then repeats every interval until ctx is cancelled.
func (c *Checker) Start(ctx context.Context) {
	c.CheckAll(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.CheckAll(ctx)
		}
	}
}

// CheckAll probes every location and persists the result.
func (c *Checker) CheckAll(ctx context.Context) {
	list, err := c.sources.List()
	if err != nil {
		c.logger.Error("source check: cannot list sources", "error", err)
		return
	}
	if len(list) == 0 {
		return
	}

	var ok, failed int
	for _, src := range list {
		if ctx.Err() != nil {
			return
		}

		status, checkErr := c.checkOne(ctx, src.Location)
		errMsg := ""
		if checkErr != nil {
			errMsg = checkErr.Error()
		}

		if err := c.sources.UpdateCheck(src.Name, status, errMsg); err != nil {
			c.logger.Error("source check: update failed", "source", src.Name, "error", err)
		}

		if status >= 200 && status < 400 {
			ok++
		} else {
			failed++
			c.logger.Warn("taxonomy source unreachable",
				"source", src.Name,
				"location", src.Location,
				"status", status,
				"error", errMsg,
			)
		}
	}

	c.logger.Info("source check complete", "total", ok+failed, "ok", ok, "failed", failed)
}

// checkOne issues a HEAD for URLs and a stat for local paths. Local files
// report 200 when readable and 404 when missing; other failures report 0.
func (c *Checker) checkOne(ctx context.Context, location string) (int, error) {
	if !strings.HasPrefix(location, "http://") && !strings.HasPrefix(location, "https://") {
		fi, err := os.Stat(location)
		if err != nil {
			if os.IsNotExist(err) {
				return http.StatusNotFound, err
			}
			return 0, err
		}
		if fi.IsDir() {
			return 0, fmt.Errorf("%s is a directory", location)
		}
		return http.StatusOK, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, location, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("HEAD %s: %w", location, err)
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}
