package httpmetrics

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"performer-tag-sync/core/metrics"

	"github.com/gofiber/fiber/v2"
)

// Config holds the metrics middleware settings.
type Config struct {
	// SkipPaths lists path prefixes that are not recorded.
	SkipPaths []string
}

// DefaultConfig skips the metrics endpoint and the API docs.
func DefaultConfig() Config {
	return Config{SkipPaths: []string{"/metrics", "/swagger"}}
}

// New returns a middleware recording request counts and durations.
// Requests are labelled with the matched route pattern (e.g. /sync/reports/:id)
// to keep the label cardinality bounded.
func New(cfg Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		for _, prefix := range cfg.SkipPaths {
			if strings.HasPrefix(c.Path(), prefix) {
				return c.Next()
			}
		}

		start := time.Now()
		err := c.Next()
		duration := time.Since(start).Seconds()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}

		path := c.Route().Path
		if status == fiber.StatusNotFound && err != nil {
			path = "unmatched"
		}

		metrics.HTTPRequestsTotal.WithLabelValues(c.Method(), path, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Method(), path).Observe(duration)
		return err
	}
}
