package middleware

import (
    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"
    "go.uber.org/zap"
)

// RequestLogger writes one access log line per request through zap.
// Server errors log at Error, client errors at Warn.
func RequestLogger(log *zap.Logger) echo.MiddlewareFunc {
    return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
        LogMethod:    true,
        LogURI:       true,
        LogStatus:    true,
        LogLatency:   true,
        LogRemoteIP:  true,
        LogRequestID: true,
        LogError:     true,
        HandleError:  true,
        LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
            fields := []zap.Field{
                zap.String("method", v.Method),
                zap.String("uri", v.URI),
                zap.Int("status", v.Status),
                zap.Duration("latency", v.Latency),
                zap.String("remote_ip", v.RemoteIP),
            }
            if v.RequestID != "" {
                fields = append(fields, zap.String("request_id", v.RequestID))
            }
            if id, ok := UserID(c); ok {
                fields = append(fields, zap.Uint64("user_id", id))
            }
            switch {
            case v.Status >= 500:
                log.Error("request", append(fields, zap.Error(v.Error))...)
            case v.Status >= 400:
                log.Warn("request", fields...)
            default:
                log.Info("request", fields...)
            }
            return nil
        },
    })
}
