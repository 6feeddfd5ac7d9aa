// Package types holds the immutable value objects the engine builds
// for each request: RequestDetails (the normalized snapshot of the
// inbound request) and Context (the read-only view passed to every
// rule).
package types

import (
	"context"
	"fmt"

	"github.com/zamorofthat/shieldcore/headers"
)

// RequestDetails is the immutable snapshot of an inbound request the
// engine builds at the start of Protect. Rules must not mutate it.
type RequestDetails struct {
	IP       string
	Method   string
	Protocol string
	Host     string
	Path     string
	Headers  *headers.Map
	Cookies  string
	Query    string
	Email    string

	// Extra holds every property the caller supplied beyond the known
	// field set, stringified per the rules in StringifyExtra.
	Extra map[string]string
}

// KnownFields lists the top-level request keys that have a dedicated
// RequestDetails field; any other key belongs in Extra. The engine
// takes an already-built RequestDetails and does not consult this
// table or fold a raw request map into Extra itself.
var KnownFields = map[string]bool{
	"ip": true, "method": true, "protocol": true, "host": true,
	"path": true, "headers": true, "body": true, "email": true,
	"cookies": true, "query": true,
}

// StringifyExtra converts an arbitrary value supplied for an unknown
// top-level request field into the string form RequestDetails.Extra
// stores: numbers become decimal, booleans become "true"/"false", and
// anything else becomes the literal "<unsupported value>".
func StringifyExtra(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case int:
		return fmt.Sprintf("%d", val)
	case int64:
		return fmt.Sprintf("%d", val)
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	default:
		return "<unsupported value>"
	}
}

// GetBodyFunc lazily returns the request body as text. The bool
// result reports whether a body was available at all; adapters that
// cannot re-read a consumed body return (_, false, nil).
type GetBodyFunc func(ctx context.Context) (string, bool, error)

// Context is the immutable, read-only view the engine passes to every
// rule's Validate/Protect call.
type Context struct {
	Key             string
	Fingerprint     string
	Characteristics []string
	Runtime         string
	Log             Logger

	// GetBody lazily returns the request body; may be nil if the
	// adapter never supplied one.
	GetBody GetBodyFunc

	// Extra carries adapter-provided platform fields (waitUntil, cloud
	// metadata, ...) that propagate transparently into rules that know
	// to look for them.
	Extra map[string]any
}

// Logger is the minimal logging contract rules and the engine depend
// on. Time/TimeEnd are span instrumentation hooks; every implementation
// must define them, and one without instrumentation makes them no-ops.
type Logger interface {
	Debug(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
	Time(label string)
	TimeEnd(label string)
}
