package analyzer

import "regexp"

// entityPatterns adapts internal/redaction/redactor.go's
// DefaultSignatures() regex table from a redaction tool (replace and
// mask) to a detection table (report kind, value, and context). The
// SSN and credit-card patterns are identical to the redaction table's;
// the email, phone, IP, API-key and secret-key patterns differ from it.
var entityPatterns = map[EntityKind]*regexp.Regexp{
	EntityEmail:      regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`),
	EntitySSN:        regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
	EntityCreditCard: regexp.MustCompile(`\b(?:\d[ -]*?){13,16}\b`),
	EntityPhone:      regexp.MustCompile(`\b(?:\+1[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`),
	EntityIP:         regexp.MustCompile(`\b(?:(?:25[0-5]|2[0-4]\d|1?\d?\d)\.){3}(?:25[0-5]|2[0-4]\d|1?\d?\d)\b`),
	EntityAPIKey:     regexp.MustCompile(`(?i)\b(?:sk|pk|api[_-]?key)[_-][a-zA-Z0-9]{16,}\b|Bearer\s+[a-zA-Z0-9\-_.]{20,}`),
	EntitySecretKey:  regexp.MustCompile(`(?i)\bAKIA[0-9A-Z]{16}\b|\beyJ[a-zA-Z0-9_\-]+\.[a-zA-Z0-9_\-]+\.[a-zA-Z0-9_\-]+\b`),
}
