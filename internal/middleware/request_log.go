package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// リクエストごとに1行ログを出す
func RequestLogger(log logrus.FieldLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			fields := logrus.Fields{
				"method":   c.Request().Method,
				"path":     c.Path(),
				"status":   c.Response().Status,
				"duration": time.Since(start).String(),
			}
			if sid, ok := c.Get(CtxSessionIDKey).(string); ok {
				fields["session_id"] = sid
			}

			entry := log.WithFields(fields)
			if c.Response().Status >= 500 {
				entry.Warn("request")
			} else {
				entry.Debug("request")
			}
			return nil
		}
	}
}
