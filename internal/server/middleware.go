package server

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
)

// contextLogger stores a logger carrying the request id in the request context, where
// zerolog.Ctx finds it.
func contextLogger(base zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			logger := base.With().
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Logger()
			req := c.Request()
			c.SetRequest(req.WithContext(logger.WithContext(req.Context())))
			return next(c)
		}
	}
}

// accessLogger logs every request with the logger stored by contextLogger.
func accessLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogMethod:   true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger := zerolog.Ctx(c.Request().Context())
			var event *zerolog.Event
			if v.Error != nil {
				event = logger.Warn().Err(v.Error)
			} else {
				event = logger.Info()
			}
			event.
				Str("type", "http").
				Str("remote_ip", v.RemoteIP).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}
