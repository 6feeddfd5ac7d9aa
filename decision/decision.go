// Package decision holds the tagged value objects that describe a
// single rule's outcome (Reason, RuleResult) and the engine's overall
// verdict (Decision).
package decision

import "fmt"

// Conclusion is the outcome of a single rule evaluation or of the
// engine's overall verdict.
type Conclusion string

const (
	Allow     Conclusion = "ALLOW"
	Deny      Conclusion = "DENY"
	Challenge Conclusion = "CHALLENGE"
	Error     Conclusion = "ERROR"
)

// State is where a rule landed in its invocation state machine.
type State string

const (
	NotRun State = "NOT_RUN"
	Run    State = "RUN"
	Cached State = "CACHED"
)

// ReasonKind tags which concrete evidence a Reason carries.
type ReasonKind string

const (
	ReasonRateLimit     ReasonKind = "rate-limit"
	ReasonBot           ReasonKind = "bot"
	ReasonEmail         ReasonKind = "email"
	ReasonSensitiveInfo ReasonKind = "sensitive-info"
	ReasonShield        ReasonKind = "shield"
	ReasonErrorKind     ReasonKind = "error"
	ReasonGeneric       ReasonKind = "generic"
)

// Reason carries the structured evidence behind a rule's conclusion.
// Exactly one of the typed payload fields is populated, selected by
// Kind; this is a tagged sum expressed the Go way (enum + pointer
// fields) rather than an interface{} grab bag.
type Reason struct {
	Kind ReasonKind `json:"kind"`

	RateLimit     *RateLimitReason     `json:"rateLimit,omitempty"`
	Bot           *BotReason           `json:"bot,omitempty"`
	Email         *EmailReason         `json:"email,omitempty"`
	SensitiveInfo *SensitiveInfoReason `json:"sensitiveInfo,omitempty"`
	Shield        *ShieldReason        `json:"shield,omitempty"`
	Error         *ErrorReason         `json:"error,omitempty"`
	Generic       *GenericReason       `json:"generic,omitempty"`
}

// GenericReason is the zero-value reason used before any rule has run.
type GenericReason struct{}

// RateLimitReason describes why a RATE_LIMIT rule produced its conclusion.
type RateLimitReason struct {
	Max       int64 `json:"max"`
	Remaining int64 `json:"remaining"`
	ResetSecs int   `json:"resetSecs"`
	WindowEnd bool  `json:"windowEnd"`
}

// BotReason carries the signals a bot-detection rule observed.
type BotReason struct {
	Allowed []string `json:"allowed"`
	Denied  []string `json:"denied"`
}

// EmailReason carries the validity result and disqualifying kinds.
type EmailReason struct {
	Validity   string   `json:"validity"` // "valid" | "invalid"
	EmailTypes []string `json:"emailTypes"`
}

// SensitiveInfoReason carries the entity kinds the rule allowed/denied.
type SensitiveInfoReason struct {
	Allowed []string `json:"allowed"`
	Denied  []string `json:"denied"`
}

// ShieldReason is emitted by the catch-all shield rule or by the
// remote client when it denies for a non-specific reason.
type ShieldReason struct {
	Message string `json:"message"`
}

// ErrorReason wraps a recovered local-rule or remote-client failure.
type ErrorReason struct {
	Message string `json:"message"`
}

func (r ErrorReason) Error() string { return r.Message }

// NewGenericReason returns the default reason an unrun rule result
// carries.
func NewGenericReason() Reason {
	return Reason{Kind: ReasonGeneric, Generic: &GenericReason{}}
}

// NewErrorReason wraps err as an ERROR-kind Reason.
func NewErrorReason(err error) Reason {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return Reason{Kind: ReasonErrorKind, Error: &ErrorReason{Message: msg}}
}

// NewShieldReason builds a SHIELD-kind Reason with a free-text message.
func NewShieldReason(format string, args ...any) Reason {
	return Reason{Kind: ReasonShield, Shield: &ShieldReason{Message: fmt.Sprintf(format, args...)}}
}

// RuleResult is the outcome of one rule evaluation for one Protect call.
type RuleResult struct {
	RuleID     string
	TTL        int
	State      State
	Conclusion Conclusion
	Reason     Reason
}

// NewNotRunResult returns the default result every rule slot starts
// with before the engine evaluates it.
func NewNotRunResult(ruleID string) RuleResult {
	return RuleResult{
		RuleID:     ruleID,
		TTL:        0,
		State:      NotRun,
		Conclusion: Allow,
		Reason:     NewGenericReason(),
	}
}

// Decision is the engine's final verdict for one Protect call.
type Decision struct {
	ID         string
	Conclusion Conclusion
	TTL        int
	Reason     Reason
	Results    []RuleResult
}

// IsAllow is a convenience check matching the spec's fail-open policy:
// callers that implement their own allow/deny logic should treat
// ERROR the same as ALLOW unless they have a stricter policy.
func (d Decision) IsAllow() bool {
	return d.Conclusion == Allow || d.Conclusion == Error
}

// IsDeny reports whether the engine decided to deny the request.
func (d Decision) IsDeny() bool {
	return d.Conclusion == Deny
}
