package middleware

import (
	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// XRayMiddleware wraps Fiber requests with an AWS X-Ray segment. The traced
// context replaces the request's user context, so services started from
// c.UserContext() add their subsegments to it.
func XRayMiddleware(serviceName string, logger *logrus.Entry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Skip tracing for health checks to reduce noise
		if isHealthPath(c.Path()) {
			return c.Next()
		}

		ctx, seg := xray.BeginSegment(c.UserContext(), serviceName)
		defer seg.Close(nil)

		if seg.GetHTTP() != nil {
			seg.GetHTTP().GetRequest().Method = c.Method()
			seg.GetHTTP().GetRequest().URL = c.OriginalURL()
			seg.GetHTTP().GetRequest().ClientIP = c.IP()
			seg.GetHTTP().GetRequest().UserAgent = c.Get(fiber.HeaderUserAgent)
		}
		seg.AddAnnotation("route", c.Path())
		seg.AddAnnotation("method", c.Method())
		if id, ok := c.Locals("requestid").(string); ok {
			seg.AddAnnotation("request_id", id)
		}

		c.SetUserContext(ctx)

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			logger.WithError(err).Debug("traced request failed")
			seg.AddError(err)
			status = fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}
		if seg.GetHTTP() != nil {
			seg.GetHTTP().GetResponse().Status = status
		}
		switch {
		case status == fiber.StatusTooManyRequests:
			seg.Throttle = true
		case status >= 500:
			seg.Fault = true
		case status >= 400:
			seg.Error = true
		}

		return err
	}
}

func isHealthPath(path string) bool {
	return path == "/health" || path == "/api/health"
}
