// Package redaction scrubs PII and secrets out of log lines before the
// engine's logger (see enginelog.Slog) writes them, so a rule that
// formats a raw email address or API key into a Debug/Warn/Error call
// never leaks it into operator-visible output.
package redaction

import (
	"regexp"
	"sync"
)

// Redactor scrubs sensitive substrings out of content.
type Redactor interface {
	Redact(content string) string
}

// Signature is one named regex-to-replacement rule.
type Signature struct {
	Name        string
	Match       *regexp.Regexp
	Replacement string
}

// PatternRedactor implements Redactor by running content through an
// ordered list of Signatures.
type PatternRedactor struct {
	mu         sync.RWMutex
	signatures []Signature
	enabled    bool
}

// DefaultSignatures returns the built-in set of PII/secret patterns:
// email and phone addresses, SSNs, credit card numbers, bearer/sk-/AWS
// API keys, JWTs, generic secret/password fields, and IPv4 addresses.
func DefaultSignatures() []Signature {
	return []Signature{
		{
			Name:        "email",
			Match:       regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`),
			Replacement: "[REDACTED_EMAIL]",
		},
		{
			Name:        "ssn",
			Match:       regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
			Replacement: "[REDACTED_SSN]",
		},
		{
			Name:        "credit_card",
			Match:       regexp.MustCompile(`\b(?:\d[ -]*?){13,16}\b`),
			Replacement: "[REDACTED_CC]",
		},
		{
			Name:        "phone_us",
			Match:       regexp.MustCompile(`\b(?:\+?1[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`),
			Replacement: "[REDACTED_PHONE]",
		},
		{
			Name:        "api_key_bearer",
			Match:       regexp.MustCompile(`(?i)(bearer\s+)([a-zA-Z0-9_.-]{20,})`),
			Replacement: "$1[REDACTED_TOKEN]",
		},
		{
			Name:        "api_key_sk",
			Match:       regexp.MustCompile(`(?i)(sk-[a-zA-Z0-9]{20,})`),
			Replacement: "[REDACTED_API_KEY]",
		},
		{
			Name:        "api_key_generic",
			Match:       regexp.MustCompile(`(?i)(api[_-]?key|secret[_-]?key|auth[_-]?token)[:\s=]["']?([a-zA-Z0-9_.-]{16,})["']?`),
			Replacement: "$1=[REDACTED_KEY]",
		},
		{
			Name:        "password_json",
			Match:       regexp.MustCompile(`(?i)"(password|passwd|pwd)":\s*"([^"]{4,})"`),
			Replacement: `"$1": "[REDACTED_PASSWORD]"`,
		},
		{
			Name:        "password_field",
			Match:       regexp.MustCompile(`(?i)(password|passwd|pwd)[\s]*[=:][\s]*["']?([^\s"',}]{4,})["']?`),
			Replacement: "$1=[REDACTED_PASSWORD]",
		},
		{
			Name:        "ip_address",
			Match:       regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`),
			Replacement: "[REDACTED_IP]",
		},
		{
			Name:        "jwt_token",
			Match:       regexp.MustCompile(`eyJ[a-zA-Z0-9_-]*\.eyJ[a-zA-Z0-9_-]*\.[a-zA-Z0-9_-]*`),
			Replacement: "[REDACTED_JWT]",
		},
		{
			Name:        "aws_access_key",
			Match:       regexp.MustCompile(`(?i)(AKIA[0-9A-Z]{16})`),
			Replacement: "[REDACTED_AWS_KEY]",
		},
		{
			Name:        "base64_secret",
			Match:       regexp.MustCompile(`(?i)(secret|private[_-]?key)[:\s=]["']?([A-Za-z0-9+/]{40,}={0,2})["']?`),
			Replacement: "$1=[REDACTED_SECRET]",
		},
	}
}

// NewPatternRedactor builds an enabled PatternRedactor with
// DefaultSignatures.
func NewPatternRedactor() *PatternRedactor {
	return &PatternRedactor{
		signatures: DefaultSignatures(),
		enabled:    true,
	}
}

// NewPatternRedactorWithSignatures builds an enabled PatternRedactor
// from a caller-supplied signature list, bypassing the defaults.
func NewPatternRedactorWithSignatures(signatures []Signature) *PatternRedactor {
	return &PatternRedactor{
		signatures: signatures,
		enabled:    true,
	}
}

// AddSignature compiles pattern and appends it to r's signature list.
func (r *PatternRedactor) AddSignature(name, pattern, replacement string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.signatures = append(r.signatures, Signature{
		Name:        name,
		Match:       re,
		Replacement: replacement,
	})
	return nil
}

// SetEnabled toggles redaction on r.
func (r *PatternRedactor) SetEnabled(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabled = enabled
}

// IsEnabled reports whether r currently redacts.
func (r *PatternRedactor) IsEnabled() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.enabled
}

// Redact runs every signature over content in order. A disabled
// redactor returns content unchanged.
func (r *PatternRedactor) Redact(content string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.enabled {
		return content
	}

	result := content
	for _, sig := range r.signatures {
		result = sig.Match.ReplaceAllString(result, sig.Replacement)
	}
	return result
}

// Config is the YAML-facing shape for building a PatternRedactor.
type Config struct {
	Enabled        bool            `yaml:"enabled"`
	CustomPatterns []PatternConfig `yaml:"patterns"`
}

// PatternConfig is one operator-supplied signature in Config.
type PatternConfig struct {
	Name        string `yaml:"name"`
	Pattern     string `yaml:"pattern"`
	Replacement string `yaml:"replacement"`
}

// NewFromConfig builds a PatternRedactor seeded with DefaultSignatures
// plus any custom patterns cfg names, enabled per cfg.Enabled.
func NewFromConfig(cfg Config) (*PatternRedactor, error) {
	r := &PatternRedactor{
		signatures: DefaultSignatures(),
		enabled:    cfg.Enabled,
	}

	for _, pc := range cfg.CustomPatterns {
		if err := r.AddSignature(pc.Name, pc.Pattern, pc.Replacement); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// NoopRedactor implements Redactor by never redacting, for callers
// that want the Logger interface without the regex overhead.
type NoopRedactor struct{}

// Redact returns content unchanged.
func (r *NoopRedactor) Redact(content string) string {
	return content
}
