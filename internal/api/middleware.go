package api

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// accessLog logs every request and records its Prometheus metrics
func (s *Server) accessLog() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			// run the error handler now so the logged status is the final one
			if herr := s.handleError(c, err); herr != nil {
				return herr
			}
		}
		elapsed := time.Since(start)

		status := c.Response().StatusCode()
		route := c.Route().Path
		method := c.Method()

		s.metrics.RequestCounter.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		s.metrics.RequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())

		entry := s.log.WithFields(logrus.Fields{
			"method":     method,
			"path":       c.Path(),
			"status":     status,
			"latency_ms": elapsed.Milliseconds(),
			"request_id": c.GetRespHeader(fiber.HeaderXRequestID),
		})
		switch {
		case status >= fiber.StatusInternalServerError:
			entry.Error("request failed")
		case status >= fiber.StatusBadRequest:
			entry.Info("request rejected")
		default:
			entry.Debug("request served")
		}
		return nil
	}
}
