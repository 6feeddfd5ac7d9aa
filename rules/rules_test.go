package rules

import (
	"context"
	"testing"

	"github.com/zamorofthat/shieldcore/decision"
	"github.com/zamorofthat/shieldcore/headers"
	"github.com/zamorofthat/shieldcore/types"
)

func TestParseModeLiveExact(t *testing.T) {
	if ParseMode("LIVE") != ModeLive {
		t.Error("expected exact literal LIVE to parse as ModeLive")
	}
}

func TestParseModeAnythingElseIsDryRun(t *testing.T) {
	cases := []string{"", "live", "Live", "DRY_RUN", "bogus"}
	for _, c := range cases {
		if ParseMode(c) != ModeDryRun {
			t.Errorf("ParseMode(%q) = LIVE, want DRY_RUN", c)
		}
	}
}

func TestTokenBucketNoOptionsIsEmpty(t *testing.T) {
	if r := TokenBucket(); len(r) != 0 {
		t.Errorf("expected empty slice, got %d rules", len(r))
	}
}

func TestFixedWindowNoOptionsIsEmpty(t *testing.T) {
	if r := FixedWindow(); len(r) != 0 {
		t.Errorf("expected empty slice, got %d rules", len(r))
	}
}

func TestSlidingWindowNoOptionsIsEmpty(t *testing.T) {
	if r := SlidingWindow(); len(r) != 0 {
		t.Errorf("expected empty slice, got %d rules", len(r))
	}
}

func TestSlidingWindowWithOptions(t *testing.T) {
	r := SlidingWindow(WithSlidingWindowMode("LIVE"), WithSlidingWindowMax(60), WithSlidingWindowInterval("1m"))
	if len(r) != 1 {
		t.Fatalf("expected one rule, got %d", len(r))
	}
	rl := r[0].(*RateLimitRule)
	if rl.Mode() != ModeLive || rl.Max != 60 || rl.Interval != 60 {
		t.Errorf("unexpected rule fields: %+v", rl)
	}
	if rl.Priority() != PriorityRateLimit {
		t.Errorf("expected priority %d, got %d", PriorityRateLimit, rl.Priority())
	}
}

func TestBotDefaultAlwaysOneRule(t *testing.T) {
	r, err := Bot()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r) != 1 {
		t.Fatalf("expected one default rule, got %d", len(r))
	}
	if r[0].Mode() != ModeDryRun {
		t.Errorf("expected default mode DRY_RUN, got %v", r[0].Mode())
	}
}

func TestBotAllowAndDenyMutuallyExclusive(t *testing.T) {
	_, err := Bot(WithBotAllow("GOOGLEBOT"), WithBotDeny("CURL"))
	if err == nil {
		t.Fatal("expected construction error")
	}
	if _, ok := err.(*ConstructionError); !ok {
		t.Errorf("expected *ConstructionError, got %T", err)
	}
}

func TestEmailDefaultAlwaysOneRule(t *testing.T) {
	r := Email()
	if len(r) != 1 {
		t.Fatalf("expected one default rule, got %d", len(r))
	}
}

func TestSensitiveInfoAllowAndDenyMutuallyExclusive(t *testing.T) {
	_, err := SensitiveInfo(WithSensitiveInfoAllow("EMAIL"), WithSensitiveInfoDeny("PHONE_NUMBER"))
	if err == nil {
		t.Fatal("expected construction error")
	}
}

func TestShieldAlwaysOneRuleRegardlessOfOptions(t *testing.T) {
	r := Shield()
	if len(r) != 1 {
		t.Fatalf("expected one rule, got %d", len(r))
	}
	if r[0].Type() != TypeShield {
		t.Errorf("expected SHIELD type, got %v", r[0].Type())
	}
}

func TestProtectSignupAsymmetry(t *testing.T) {
	rules, err := ProtectSignup(ProtectSignupOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("expected 2 rules (bot + email, no rate limit), got %d", len(rules))
	}
	types := map[Type]bool{}
	for _, r := range rules {
		types[r.Type()] = true
	}
	if !types[TypeBot] || !types[TypeEmail] {
		t.Errorf("expected bot and email rules, got %v", types)
	}
}

func TestProtectSignupPropagatesBotConstructionError(t *testing.T) {
	_, err := ProtectSignup(ProtectSignupOptions{
		Bot: []BotOption{WithBotAllow("GOOGLEBOT"), WithBotDeny("CURL")},
	})
	if err == nil {
		t.Fatal("expected construction error to propagate")
	}
}

func TestRateLimitRulesAreNotLocalRules(t *testing.T) {
	rules := SlidingWindow(WithSlidingWindowMax(10))
	if _, ok := rules[0].(LocalRule); ok {
		t.Error("RATE_LIMIT rule must not implement LocalRule")
	}
}

func TestShieldRuleIsNotLocalRule(t *testing.T) {
	rules := Shield()
	if _, ok := rules[0].(LocalRule); ok {
		t.Error("SHIELD rule must not implement LocalRule")
	}
}

func TestBotRuleDeniesOnDenylistedSignature(t *testing.T) {
	rules, _ := Bot(WithBotMode("LIVE"), WithBotDeny("CURL"))
	local := rules[0].(LocalRule)

	ctx := types.Context{}
	details := &types.RequestDetails{Headers: headers.New(map[string]string{"User-Agent": "curl/8.0"})}

	outcome, err := local.Protect(ctx, details)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Conclusion != decision.Deny {
		t.Errorf("expected DENY, got %v", outcome.Conclusion)
	}
}

func TestBotRuleDeniesNonAllowlistedSignature(t *testing.T) {
	rules, _ := Bot(WithBotMode("LIVE"), WithBotAllow("GOOGLEBOT"))
	local := rules[0].(LocalRule)

	ctx := types.Context{}
	details := &types.RequestDetails{Headers: headers.New(map[string]string{"User-Agent": "curl/8.0"})}

	outcome, err := local.Protect(ctx, details)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Conclusion != decision.Deny {
		t.Errorf("expected DENY for a signature absent from the allow list, got %v", outcome.Conclusion)
	}
}

func TestBotRuleAllowsAllowlistedSignature(t *testing.T) {
	rules, _ := Bot(WithBotMode("LIVE"), WithBotAllow("GOOGLEBOT"))
	local := rules[0].(LocalRule)

	ctx := types.Context{}
	details := &types.RequestDetails{Headers: headers.New(map[string]string{
		"User-Agent": "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)",
	})}

	outcome, err := local.Protect(ctx, details)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Conclusion != decision.Allow {
		t.Errorf("expected ALLOW for an allow-listed signature, got %v", outcome.Conclusion)
	}
}

func TestEmailRuleDeniesOnInvalid(t *testing.T) {
	rules := Email(WithEmailMode("LIVE"))
	local := rules[0].(LocalRule)

	ctx := types.Context{}
	details := &types.RequestDetails{Email: "not-an-email"}

	outcome, err := local.Protect(ctx, details)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Conclusion != decision.Deny {
		t.Errorf("expected DENY, got %v", outcome.Conclusion)
	}
	if outcome.Reason.Email == nil || len(outcome.Reason.Email.EmailTypes) == 0 {
		t.Errorf("expected non-empty EmailTypes, got %+v", outcome.Reason.Email)
	}
}

func TestSensitiveInfoRuleErrorsWithoutBody(t *testing.T) {
	rules, _ := SensitiveInfo(WithSensitiveInfoMode("LIVE"), WithSensitiveInfoDeny("EMAIL"))
	local := rules[0].(LocalRule)

	ctx := types.Context{} // GetBody is nil
	details := &types.RequestDetails{}

	_, err := local.Protect(ctx, details)
	if err == nil {
		t.Fatal("expected error when no body is available")
	}
}

func TestSensitiveInfoRuleDeniesOnMatch(t *testing.T) {
	rules, _ := SensitiveInfo(WithSensitiveInfoMode("LIVE"), WithSensitiveInfoDeny("EMAIL"))
	local := rules[0].(LocalRule)

	ctx := types.Context{
		GetBody: func(_ context.Context) (string, bool, error) {
			return "reach me at person@example.com", true, nil
		},
	}

	outcome, err := local.Protect(ctx, &types.RequestDetails{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Conclusion != decision.Deny {
		t.Errorf("expected DENY, got %v", outcome.Conclusion)
	}
}
