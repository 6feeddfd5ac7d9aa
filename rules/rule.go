// Package rules implements the declarative rule primitives the engine
// composes: rate limiting (three algorithms, remote-only), bot
// detection, email validation, sensitive-information scanning (all
// three local), and the catch-all shield rule (remote-only).
package rules

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/zamorofthat/shieldcore/decision"
	"github.com/zamorofthat/shieldcore/types"
)

// Type identifies a rule's kind on the wire and in logs.
type Type string

const (
	TypeRateLimitTokenBucket   Type = "RATE_LIMIT/TOKEN_BUCKET"
	TypeRateLimitFixedWindow   Type = "RATE_LIMIT/FIXED_WINDOW"
	TypeRateLimitSlidingWindow Type = "RATE_LIMIT/SLIDING_WINDOW"
	TypeBot                    Type = "BOT"
	TypeEmail                  Type = "EMAIL"
	TypeSensitiveInfo          Type = "SENSITIVE_INFO"
	TypeShield                 Type = "SHIELD"
)

// Fixed priorities, lower runs first.
const (
	PrioritySensitiveInfo   = 1
	PriorityShield          = 2
	PriorityRateLimit       = 3
	PriorityBotDetection    = 4
	PriorityEmailValidation = 5
)

// Mode governs whether a rule's DENY can terminate a request.
type Mode string

const (
	ModeLive   Mode = "LIVE"
	ModeDryRun Mode = "DRY_RUN"
)

// ParseMode accepts only the exact literal "LIVE" as ModeLive; any
// other value (including the empty string) is ModeDryRun. A non-empty
// value that is neither "LIVE" nor "DRY_RUN" is logged as a likely
// typo but still treated as DRY_RUN, preserving the source behavior
// while surfacing the mistake.
func ParseMode(raw string) Mode {
	if raw == "LIVE" {
		return ModeLive
	}
	if raw != "" && raw != "DRY_RUN" {
		slog.Warn("unrecognized rule mode, defaulting to DRY_RUN", "mode", raw)
	}
	return ModeDryRun
}

// Rule is the capability every rule primitive implements: identity,
// ordering, and DENY semantics. RATE_LIMIT and SHIELD implement only
// Rule; the engine treats them as remote-only and leaves their local
// result at NOT_RUN. BOT, EMAIL, and SENSITIVE_INFO additionally
// implement LocalRule.
type Rule interface {
	ID() string
	Type() Type
	Priority() int
	Mode() Mode
}

// Outcome is what a LocalRule's Protect call decides, before the
// engine stamps it with a rule ID and RUN state.
type Outcome struct {
	Conclusion decision.Conclusion
	TTL        int
	Reason     decision.Reason
}

// LocalRule is the capability interface the engine branches on to
// decide whether a rule can be evaluated in-process, rather than
// branching on method presence the way the duck-typed source does.
type LocalRule interface {
	Rule
	Validate(ctx types.Context, details *types.RequestDetails) error
	Protect(ctx types.Context, details *types.RequestDetails) (Outcome, error)
}

// base carries the fields every rule primitive shares.
type base struct {
	id       string
	typ      Type
	priority int
	mode     Mode
}

func newBase(t Type, priority int, mode Mode) base {
	return base{id: uuid.NewString(), typ: t, priority: priority, mode: mode}
}

func (b base) ID() string     { return b.id }
func (b base) Type() Type     { return b.typ }
func (b base) Priority() int  { return b.priority }
func (b base) Mode() Mode     { return b.mode }

// ConstructionError is returned synchronously from the Bot and
// SensitiveInfo constructors when both allow and deny are set, and
// from engine.New when its Client or Log is missing. It is
// the only error kind a caller of this package ever receives thrown
// rather than folded into a Decision.
type ConstructionError struct {
	Message string
}

func (e *ConstructionError) Error() string { return e.Message }

func newConstructionError(format string, args ...any) error {
	return &ConstructionError{Message: fmt.Sprintf(format, args...)}
}
