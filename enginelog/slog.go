// Package enginelog adapts log/slog to the types.Logger contract the
// engine and its rules depend on, and wires in PII-safe log output.
package enginelog

import (
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/zamorofthat/shieldcore/internal/redaction"
	"github.com/zamorofthat/shieldcore/types"
)

// Slog implements types.Logger over a *slog.Logger. Every message is
// passed through a redaction.Redactor before being logged, so a rule
// that accidentally logs a raw header value or email address does not
// leak it into operator-visible logs.
type Slog struct {
	logger   *slog.Logger
	redactor redaction.Redactor
	span     trace.Span

	starts map[string]time.Time
}

// NewSlog builds a Slog logger. A nil redactor disables redaction.
func NewSlog(logger *slog.Logger, redactor redaction.Redactor) *Slog {
	if redactor == nil {
		redactor = &redaction.NoopRedactor{}
	}
	return &Slog{logger: logger, redactor: redactor, starts: make(map[string]time.Time)}
}

// WithSpan returns a copy of l that also records Time/TimeEnd labels
// as span events on span.
func (l *Slog) WithSpan(span trace.Span) *Slog {
	return &Slog{logger: l.logger, redactor: l.redactor, span: span, starts: make(map[string]time.Time)}
}

func (l *Slog) redacted(format string, args ...any) string {
	return l.redactor.Redact(fmt.Sprintf(format, args...))
}

// Debug logs a redacted debug-level message.
func (l *Slog) Debug(format string, args ...any) {
	l.logger.Debug(l.redacted(format, args...))
}

// Warn logs a redacted warn-level message.
func (l *Slog) Warn(format string, args ...any) {
	l.logger.Warn(l.redacted(format, args...))
}

// Error logs a redacted error-level message.
func (l *Slog) Error(format string, args ...any) {
	l.logger.Error(l.redacted(format, args...))
}

// Time marks the start of a named span of work for later TimeEnd
// duration logging, and records a span event if one is attached.
func (l *Slog) Time(label string) {
	l.starts[label] = time.Now()
	if l.span != nil {
		l.span.AddEvent(label + ".start")
	}
}

// TimeEnd logs the elapsed duration since the matching Time call. A
// TimeEnd with no matching Time is a no-op, the same tolerant
// contract net/http/httptrace callbacks follow.
func (l *Slog) TimeEnd(label string) {
	start, ok := l.starts[label]
	if !ok {
		return
	}
	delete(l.starts, label)
	elapsed := time.Since(start)
	l.logger.Debug(label+" completed", "duration", elapsed)
	if l.span != nil {
		l.span.AddEvent(label + ".end")
	}
}

var _ types.Logger = (*Slog)(nil)
