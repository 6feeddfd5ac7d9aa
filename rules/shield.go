package rules

// ShieldRule is the catch-all rule with no configurable fields beyond
// mode. It implements only Rule: shield decisions are made entirely
// by the remote Client.
type ShieldRule struct {
	base
}

// ShieldOption configures a single Shield rule.
type ShieldOption func(*ShieldRule)

// WithShieldMode sets the rule's mode; only the literal "LIVE" is
// accepted as LIVE.
func WithShieldMode(mode string) ShieldOption {
	return func(r *ShieldRule) { r.mode = ParseMode(mode) }
}

// Shield always returns exactly one SHIELD rule, defaulting to
// DRY_RUN, regardless of how many options are supplied.
func Shield(opts ...ShieldOption) []Rule {
	r := &ShieldRule{base: newBase(TypeShield, PriorityShield, ModeDryRun)}
	for _, opt := range opts {
		opt(r)
	}
	return []Rule{r}
}
