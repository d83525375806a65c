package utils

import (
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger configures the global zerolog logger. Output is pretty
// console lines unless LOG_FORMAT=json, which emits raw JSON for log
// shippers.
func InitLogger() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs

	var out zerolog.Logger
	if os.Getenv("LOG_FORMAT") == "json" {
		out = zerolog.New(os.Stdout)
	} else {
		out = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
	log.Logger = out.With().Timestamp().Logger()
}

// GinLogger logs each HTTP request through zerolog. Severity follows
// the response status: 5xx as error, 4xx as warn, everything else info.
func GinLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		event := log.Info()
		switch {
		case status >= 500:
			event = log.Error()
		case status >= 400:
			event = log.Warn()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Str("client_ip", c.ClientIP()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

// LogError logs err with a short context message. A nil err is a no-op.
func LogError(err error, message string) {
	if err == nil {
		return
	}
	log.Error().Err(err).Msg(message)
}
