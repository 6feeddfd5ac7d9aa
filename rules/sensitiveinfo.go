package rules

import (
	"context"

	"github.com/zamorofthat/shieldcore/analyzer"
	"github.com/zamorofthat/shieldcore/decision"
	"github.com/zamorofthat/shieldcore/types"
)

// SensitiveInfoRule scans the lazily-fetched request body for
// sensitive entities via the Analyzer. It implements LocalRule.
type SensitiveInfoRule struct {
	base
	allow             []analyzer.EntityKind
	deny              []analyzer.EntityKind
	detect            analyzer.DetectFunc
	contextWindowSize int
	analyzer          analyzer.Analyzer
}

// SensitiveInfoOption configures a single SensitiveInfo rule.
type SensitiveInfoOption func(*SensitiveInfoRule)

// WithSensitiveInfoMode sets the rule's mode; only the literal "LIVE"
// is accepted as LIVE.
func WithSensitiveInfoMode(mode string) SensitiveInfoOption {
	return func(r *SensitiveInfoRule) { r.mode = ParseMode(mode) }
}

// WithSensitiveInfoAllow sets the allow list; mutually exclusive with
// WithSensitiveInfoDeny.
func WithSensitiveInfoAllow(entities ...analyzer.EntityKind) SensitiveInfoOption {
	return func(r *SensitiveInfoRule) { r.allow = entities }
}

// WithSensitiveInfoDeny sets the deny list; mutually exclusive with
// WithSensitiveInfoAllow.
func WithSensitiveInfoDeny(entities ...analyzer.EntityKind) SensitiveInfoOption {
	return func(r *SensitiveInfoRule) { r.deny = entities }
}

// WithSensitiveInfoDetect supplies a caller-defined detector that
// augments the Analyzer's built-in entity patterns.
func WithSensitiveInfoDetect(detect analyzer.DetectFunc) SensitiveInfoOption {
	return func(r *SensitiveInfoRule) { r.detect = detect }
}

// WithSensitiveInfoContextWindow overrides the default context window
// size of 1.
func WithSensitiveInfoContextWindow(size int) SensitiveInfoOption {
	return func(r *SensitiveInfoRule) { r.contextWindowSize = size }
}

// WithSensitiveInfoAnalyzer overrides the Analyzer used to evaluate
// the rule.
func WithSensitiveInfoAnalyzer(a analyzer.Analyzer) SensitiveInfoOption {
	return func(r *SensitiveInfoRule) { r.analyzer = a }
}

// SensitiveInfo always returns exactly one SENSITIVE_INFO rule,
// defaulting to DRY_RUN with contextWindowSize=1 and no entity
// restriction. A rule with both allow and deny set is a
// ConstructionError.
func SensitiveInfo(opts ...SensitiveInfoOption) ([]Rule, error) {
	r := &SensitiveInfoRule{
		base:              newBase(TypeSensitiveInfo, PrioritySensitiveInfo, ModeDryRun),
		contextWindowSize: 1,
	}
	for _, opt := range opts {
		opt(r)
	}
	if len(r.allow) > 0 && len(r.deny) > 0 {
		return nil, newConstructionError("sensitive info rule: allow and deny are mutually exclusive")
	}
	if r.analyzer == nil {
		r.analyzer = analyzer.NewDefault()
	}
	return []Rule{r}, nil
}

// Validate is a no-op: the rule has nothing to check ahead of Protect.
func (r *SensitiveInfoRule) Validate(ctx types.Context, details *types.RequestDetails) error {
	return nil
}

// Protect fetches the request body and scans it. A rule configured
// with a deny list denies on any matching entity; one configured with
// an allow list denies on any entity outside it. No body available is
// treated as an ERROR for this rule (not DENY), matching fail-open
// policy, since the rule cannot tell sensitive content from absent
// content.
func (r *SensitiveInfoRule) Protect(ctx types.Context, details *types.RequestDetails) (Outcome, error) {
	if ctx.GetBody == nil {
		return Outcome{}, errNoBody
	}
	body, ok, err := ctx.GetBody(context.Background())
	if err != nil {
		return Outcome{}, err
	}
	if !ok {
		return Outcome{}, errNoBody
	}

	// Detect across every entity kind; allow/deny filtering happens
	// below against the raw match list, since "allow" means "deny
	// everything except this list" while the analyzer's own `entities`
	// filter means "only look for these kinds".
	result, err := r.analyzer.DetectSensitiveInfo(ctx, body, nil, r.contextWindowSize, r.detect)
	if err != nil {
		return Outcome{}, err
	}

	denyIndex := toEntitySet(r.deny)
	allowIndex := toEntitySet(r.allow)

	var denied, allowed []string
	for _, m := range result.Denied {
		switch {
		case len(denyIndex) > 0:
			if denyIndex[m.Entity] {
				denied = append(denied, string(m.Entity))
			} else {
				allowed = append(allowed, string(m.Entity))
			}
		case len(allowIndex) > 0:
			if allowIndex[m.Entity] {
				allowed = append(allowed, string(m.Entity))
			} else {
				denied = append(denied, string(m.Entity))
			}
		default:
			denied = append(denied, string(m.Entity))
		}
	}

	if len(denied) > 0 {
		return Outcome{
			Conclusion: decision.Deny,
			Reason: decision.Reason{
				Kind:          decision.ReasonSensitiveInfo,
				SensitiveInfo: &decision.SensitiveInfoReason{Allowed: allowed, Denied: denied},
			},
		}, nil
	}

	return Outcome{
		Conclusion: decision.Allow,
		Reason: decision.Reason{
			Kind:          decision.ReasonSensitiveInfo,
			SensitiveInfo: &decision.SensitiveInfoReason{Allowed: allowed, Denied: denied},
		},
	}, nil
}

var errNoBody = errNoBodyError{}

type errNoBodyError struct{}

func (errNoBodyError) Error() string { return "sensitive info rule: no request body available" }

func toEntitySet(kinds []analyzer.EntityKind) map[analyzer.EntityKind]bool {
	if len(kinds) == 0 {
		return nil
	}
	set := make(map[analyzer.EntityKind]bool, len(kinds))
	for _, k := range kinds {
		set[k] = true
	}
	return set
}
