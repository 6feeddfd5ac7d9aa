package rules

import (
	"github.com/zamorofthat/shieldcore/analyzer"
	"github.com/zamorofthat/shieldcore/decision"
	"github.com/zamorofthat/shieldcore/types"
)

// BotRule denies or allows a request based on well-known bot
// signatures via the Analyzer. It implements LocalRule.
type BotRule struct {
	base
	allow    []string
	deny     []string
	analyzer analyzer.Analyzer
}

// BotOption configures a single Bot rule.
type BotOption func(*BotRule)

// WithBotMode sets the rule's mode; only the literal "LIVE" is
// accepted as LIVE.
func WithBotMode(mode string) BotOption {
	return func(r *BotRule) { r.mode = ParseMode(mode) }
}

// WithBotAllow sets the allow list; mutually exclusive with WithBotDeny.
func WithBotAllow(ids ...string) BotOption {
	return func(r *BotRule) { r.allow = ids }
}

// WithBotDeny sets the deny list; mutually exclusive with WithBotAllow.
func WithBotDeny(ids ...string) BotOption {
	return func(r *BotRule) { r.deny = ids }
}

// WithBotAnalyzer overrides the Analyzer used to evaluate the rule.
// Defaults to analyzer.NewDefault() when not supplied.
func WithBotAnalyzer(a analyzer.Analyzer) BotOption {
	return func(r *BotRule) { r.analyzer = a }
}

// Bot always returns exactly one BOT rule, defaulting to DRY_RUN with
// no allow/deny restriction. A rule with both allow and deny set is a
// ConstructionError, returned as Bot's error result rather than a
// panic, since Go constructors cannot throw.
func Bot(opts ...BotOption) ([]Rule, error) {
	r := &BotRule{base: newBase(TypeBot, PriorityBotDetection, ModeDryRun)}
	for _, opt := range opts {
		opt(r)
	}
	if len(r.allow) > 0 && len(r.deny) > 0 {
		return nil, newConstructionError("bot rule: allow and deny are mutually exclusive")
	}
	if r.analyzer == nil {
		r.analyzer = analyzer.NewDefault()
	}
	return []Rule{r}, nil
}

// Validate is a no-op: a Bot rule has nothing to check ahead of
// Protect beyond what construction already validated.
func (r *BotRule) Validate(ctx types.Context, details *types.RequestDetails) error {
	return nil
}

// Protect runs bot detection and denies the request if the matched
// signature is in the deny list, or, when an allow list is
// configured, if it is absent from it.
func (r *BotRule) Protect(ctx types.Context, details *types.RequestDetails) (Outcome, error) {
	result, err := r.analyzer.DetectBot(ctx, details, analyzer.BotConfig{Allow: r.allow, Deny: r.deny})
	if err != nil {
		return Outcome{}, err
	}

	if len(result.Denied) > 0 {
		return Outcome{
			Conclusion: decision.Deny,
			TTL:        60,
			Reason: decision.Reason{
				Kind: decision.ReasonBot,
				Bot:  &decision.BotReason{Allowed: result.Allowed, Denied: result.Denied},
			},
		}, nil
	}

	if len(r.allow) > 0 && len(result.Allowed) == 0 {
		return Outcome{
			Conclusion: decision.Deny,
			TTL:        60,
			Reason: decision.Reason{
				Kind: decision.ReasonBot,
				Bot:  &decision.BotReason{Allowed: result.Allowed, Denied: result.Denied},
			},
		}, nil
	}

	return Outcome{
		Conclusion: decision.Allow,
		Reason: decision.Reason{
			Kind: decision.ReasonBot,
			Bot:  &decision.BotReason{Allowed: result.Allowed, Denied: result.Denied},
		},
	}, nil
}
