package rules

import (
	"github.com/zamorofthat/shieldcore/analyzer"
	"github.com/zamorofthat/shieldcore/decision"
	"github.com/zamorofthat/shieldcore/types"
)

// EmailRule validates details.Email via the Analyzer. It implements
// LocalRule.
type EmailRule struct {
	base
	block                 []analyzer.EmailReasonKind
	requireTopLevelDomain bool
	allowDomainLiteral    bool
	analyzer              analyzer.Analyzer
}

// EmailOption configures a single Email rule.
type EmailOption func(*EmailRule)

// WithEmailMode sets the rule's mode; only the literal "LIVE" is
// accepted as LIVE.
func WithEmailMode(mode string) EmailOption {
	return func(r *EmailRule) { r.mode = ParseMode(mode) }
}

// WithEmailBlock sets which disqualification kinds deny the request.
// An empty or unset list means any disqualification denies.
func WithEmailBlock(kinds ...analyzer.EmailReasonKind) EmailOption {
	return func(r *EmailRule) { r.block = kinds }
}

// WithEmailRequireTopLevelDomain overrides the default (true).
func WithEmailRequireTopLevelDomain(require bool) EmailOption {
	return func(r *EmailRule) { r.requireTopLevelDomain = require }
}

// WithEmailAllowDomainLiteral overrides the default (false).
func WithEmailAllowDomainLiteral(allow bool) EmailOption {
	return func(r *EmailRule) { r.allowDomainLiteral = allow }
}

// WithEmailAnalyzer overrides the Analyzer used to evaluate the rule.
func WithEmailAnalyzer(a analyzer.Analyzer) EmailOption {
	return func(r *EmailRule) { r.analyzer = a }
}

// Email always returns exactly one EMAIL rule, defaulting to DRY_RUN,
// requireTopLevelDomain=true, allowDomainLiteral=false.
func Email(opts ...EmailOption) []Rule {
	r := &EmailRule{
		base:                  newBase(TypeEmail, PriorityEmailValidation, ModeDryRun),
		requireTopLevelDomain: true,
		allowDomainLiteral:    false,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.analyzer == nil {
		r.analyzer = analyzer.NewDefault()
	}
	return []Rule{r}
}

// Validate is a no-op: the rule has nothing to check ahead of Protect.
func (r *EmailRule) Validate(ctx types.Context, details *types.RequestDetails) error {
	return nil
}

// Protect denies the request when details.Email is invalid per the
// rule's options. A missing Email is treated as INVALID, not skipped.
func (r *EmailRule) Protect(ctx types.Context, details *types.RequestDetails) (Outcome, error) {
	result, err := r.analyzer.IsValidEmail(ctx, details.Email, analyzer.EmailOptions{
		Block:                 r.block,
		RequireTopLevelDomain: r.requireTopLevelDomain,
		AllowDomainLiteral:    r.allowDomainLiteral,
	})
	if err != nil {
		return Outcome{}, err
	}

	emailTypes := make([]string, 0, len(result.Blocked))
	for _, k := range result.Blocked {
		emailTypes = append(emailTypes, string(k))
	}

	if result.Validity == analyzer.EmailInvalid && (len(r.block) == 0 || len(result.Blocked) > 0) {
		return Outcome{
			Conclusion: decision.Deny,
			Reason: decision.Reason{
				Kind:  decision.ReasonEmail,
				Email: &decision.EmailReason{Validity: string(result.Validity), EmailTypes: emailTypes},
			},
		}, nil
	}

	return Outcome{
		Conclusion: decision.Allow,
		Reason: decision.Reason{
			Kind:  decision.ReasonEmail,
			Email: &decision.EmailReason{Validity: string(result.Validity), EmailTypes: emailTypes},
		},
	}, nil
}
