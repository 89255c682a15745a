package logger

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"
)

// sentryTransport overrides the Sentry delivery transport; nil uses the default
var sentryTransport sentry.Transport

// New builds the service logger.
// Development: text output at debug level.
// Otherwise: JSON output at info level.
// With a Sentry DSN, errors are also forwarded to Sentry.
func New(w io.Writer, isDev bool, sentryDSN string) *slog.Logger {
	var handlers []slog.Handler

	if isDev {
		handlers = append(handlers, slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	} else {
		handlers = append(handlers, slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	if sentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              sentryDSN,
			TracesSampleRate: 1.0,
			Transport:        sentryTransport,
		})
		if err == nil {
			handlers = append(handlers, slogsentry.Option{
				Level: slog.LevelError,
			}.NewSentryHandler())
		}
	}

	if len(handlers) == 1 {
		return slog.New(handlers[0])
	}
	return slog.New(slogmulti.Fanout(handlers...))
}

// Init builds the logger on stdout and installs it as the slog default
func Init(isDev bool, sentryDSN string) *slog.Logger {
	log := New(os.Stdout, isDev, sentryDSN)
	slog.SetDefault(log)
	return log
}

// Flush waits up to timeout for buffered Sentry events to be delivered.
// It reports false when events were left undelivered or Sentry is disabled.
func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}
