// Package analyzer defines the local, side-effect-free analysis
// primitives the engine and its local rules depend on (fingerprint
// generation, bot detection, email validation, sensitive-info
// detection), and ships a default implementation good enough to run
// the engine standalone. A production deployment typically replaces
// Default with a client for a real remote bot-fingerprinting service;
// the interface is the seam that swap happens at.
package analyzer

import (
	"github.com/zamorofthat/shieldcore/types"
)

// BotConfig configures a single DetectBot call. Allow and Deny are
// mutually exclusive (enforced by the rules package at construction).
type BotConfig struct {
	Allow []string
	Deny  []string
}

// BotResult reports which well-known bot signals were allowed and
// which were denied for the current request.
type BotResult struct {
	Allowed []string
	Denied  []string
}

// EmailValidity is the coarse validity verdict IsValidEmail returns.
type EmailValidity string

const (
	EmailValid   EmailValidity = "valid"
	EmailInvalid EmailValidity = "invalid"
)

// EmailReasonKind enumerates the ways an email can be disqualified.
type EmailReasonKind string

const (
	EmailReasonInvalid      EmailReasonKind = "INVALID"
	EmailReasonDisposable   EmailReasonKind = "DISPOSABLE"
	EmailReasonNoMXRecords  EmailReasonKind = "NO_MX_RECORDS"
	EmailReasonNoGravatar   EmailReasonKind = "NO_GRAVATAR"
	EmailReasonFreeProvider EmailReasonKind = "FREE"
)

// EmailOptions configures a single IsValidEmail call.
type EmailOptions struct {
	Block                 []EmailReasonKind
	RequireTopLevelDomain bool
	AllowDomainLiteral    bool
}

// EmailResult is the outcome of an email validation.
type EmailResult struct {
	Validity EmailValidity
	Blocked  []EmailReasonKind
}

// EntityKind enumerates the sensitive-information entity types the
// default detector recognizes.
type EntityKind string

const (
	EntityEmail      EntityKind = "EMAIL"
	EntityPhone      EntityKind = "PHONE_NUMBER"
	EntityCreditCard EntityKind = "CREDIT_CARD_NUMBER"
	EntitySSN        EntityKind = "US_SOCIAL_SECURITY_NUMBER"
	EntityIP         EntityKind = "IP_ADDRESS"
	EntityAPIKey     EntityKind = "API_KEY"
	EntitySecretKey  EntityKind = "SECRET_KEY"
)

// Match is one sensitive-info hit, including its surrounding context
// window for operator review.
type Match struct {
	Entity  EntityKind
	Value   string
	Context string
}

// SensitiveInfoResult is the outcome of a sensitive-info scan.
type SensitiveInfoResult struct {
	Allowed []Match
	Denied  []Match
}

// DetectFunc is a caller-supplied custom detector that augments or
// replaces the default entity patterns for a single SensitiveInfo
// rule.
type DetectFunc func(body string) []Match

// Analyzer is the seam between the engine and whatever performs the
// actual bot/email/sensitive-info analysis. GenerateFingerprint,
// DetectBot, and DetectSensitiveInfo are expected to be pure and fast;
// IsValidEmail may perform bounded-timeout network I/O (MX lookup,
// Gravatar check) when its Block list asks for those reasons. The
// engine does not retry any of them and treats a returned error as a
// local-rule ERROR result.
type Analyzer interface {
	GenerateFingerprint(ctx types.Context, details *types.RequestDetails) (string, error)
	DetectBot(ctx types.Context, details *types.RequestDetails, cfg BotConfig) (BotResult, error)
	IsValidEmail(ctx types.Context, email string, opts EmailOptions) (EmailResult, error)
	DetectSensitiveInfo(ctx types.Context, body string, entities []EntityKind, contextWindow int, custom DetectFunc) (SensitiveInfoResult, error)
}
