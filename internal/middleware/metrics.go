package middleware

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/lucas-ioliveira/ordering-system/internal/apperrors"
	"github.com/lucas-ioliveira/ordering-system/internal/metrics"
)

// Metrics records request count, latency and in-flight requests. Paths are
// labelled by route pattern to keep cardinality bounded.
func Metrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		metrics.RequestInFlight.Inc()
		defer metrics.RequestInFlight.Dec()

		err := c.Next()

		status := strconv.Itoa(statusOf(c, err))
		path := c.Route().Path
		metrics.RequestDuration.WithLabelValues(c.Method(), path, status).Observe(time.Since(start).Seconds())
		metrics.RequestTotal.WithLabelValues(c.Method(), path, status).Inc()
		return err
	}
}

// statusOf predicts the status the error handler will write for err.
func statusOf(c *fiber.Ctx, err error) int {
	if err == nil {
		return c.Response().StatusCode()
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code
	}
	if appErr, ok := apperrors.As(err); ok {
		return appErr.HTTPCode()
	}
	return fiber.StatusInternalServerError
}
