// Package observability builds sunbeam's structured logger: a slog
// handler configured from the [logging] section of the primary config,
// with automatic redaction of credentials that flow through the
// pipeline's backing stores (InfluxDB tokens, database DSNs, peer API
// keys) when logged under a known credential field name or as a
// credential query parameter.
package observability

import (
	"io"
	"log/slog"
	"os"
	"regexp"
	"time"

	"github.com/m-mizutani/masq"
	"github.com/sunbeam-telemetry/sunbeam/internal/config"
)

// LevelTrace sits below slog.LevelDebug for the IngressStage's
// per-cell fan-out logging, which is too chatty for ordinary debug
// output but occasionally needed to diagnose a single target/event
// query.
const LevelTrace = slog.LevelDebug - 4

// urlSensitiveParamPattern matches credential-bearing query parameters
// in URLs, such as a PeerStore fetch logged with its full request URL.
var urlSensitiveParamPattern = regexp.MustCompile(`(?i)(password|secret|token|apikey|api_key|credential)=([^&\s"']+)`)

// NewLogger builds a logger writing to stdout per cfg.
func NewLogger(cfg config.LoggingConfig) *slog.Logger {
	return NewLoggerWithWriter(cfg, os.Stdout)
}

// sensitiveFieldRedactor redacts known credential field names (the
// shapes InfluxDB tokens, ledger DSNs, and peer API keys arrive under)
// wherever they appear as a logged attribute, including nested groups.
func sensitiveFieldRedactor() func(groups []string, a slog.Attr) slog.Attr {
	return masq.New(
		masq.WithFieldName("password"),
		masq.WithFieldName("Password"),
		masq.WithFieldName("secret"),
		masq.WithFieldName("Secret"),
		masq.WithFieldName("token"),
		masq.WithFieldName("Token"),
		masq.WithFieldName("apikey"),
		masq.WithFieldName("ApiKey"),
		masq.WithFieldName("api_key"),
		masq.WithFieldName("credential"),
		masq.WithFieldName("Credential"),
		masq.WithFieldName("dsn"),
		masq.WithFieldName("DSN"),
	)
}

// redactURLParams strips credential query parameters out of a logged
// URL string, the way a PeerStore fetch or DocumentStore DSN might
// otherwise leak a token into structured logs.
func redactURLParams(s string) string {
	return urlSensitiveParamPattern.ReplaceAllString(s, "$1=[REDACTED]")
}

// NewLoggerWithWriter builds a logger writing to w per cfg. Exposed
// separately from NewLogger so tests can assert on captured output.
func NewLoggerWithWriter(cfg config.LoggingConfig, w io.Writer) *slog.Logger {
	level := parseLevel(cfg.Level)
	redactor := sensitiveFieldRedactor()

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			a = redactor(groups, a)

			if a.Value.Kind() == slog.KindString {
				if redacted := redactURLParams(a.Value.String()); redacted != a.Value.String() {
					a = slog.String(a.Key, redacted)
				}
			}

			switch {
			case a.Key == slog.TimeKey && cfg.TimeFormat != "":
				if t, ok := a.Value.Any().(time.Time); ok {
					return slog.String(slog.TimeKey, t.Format(cfg.TimeFormat))
				}
			case a.Key == slog.LevelKey:
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl <= LevelTrace {
					return slog.String(slog.LevelKey, "TRACE")
				}
			}
			return a
		},
	}

	var handler slog.Handler
	switch cfg.Format {
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler)
}

// parseLevel maps sunbeam's logging.level config string to a slog.Level.
func parseLevel(level string) slog.Level {
	switch level {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetDefault installs logger as the process-wide slog default, so code
// that never received a *slog.Logger explicitly (core.BaseStage falls
// back to slog.Default when constructed with a nil logger) still
// produces correctly formatted, redacted output.
func SetDefault(logger *slog.Logger) {
	slog.SetDefault(logger)
}
