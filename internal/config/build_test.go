package config

import (
	"context"
	"testing"
	"time"

	"github.com/zamorofthat/shieldcore/rules"
)

func TestBuildRuleShield(t *testing.T) {
	built, err := buildRule(RuleConfig{Type: "shield", Mode: "LIVE"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(built) != 1 || built[0].Type() != rules.TypeShield {
		t.Fatalf("expected one shield rule, got %+v", built)
	}
}

func TestBuildRuleTokenBucket(t *testing.T) {
	built, err := buildRule(RuleConfig{
		Type:     "rate_limit/token_bucket",
		Mode:     "LIVE",
		Capacity: 10,
		Refill:   5,
		Interval: "1m",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rl, ok := built[0].(*rules.RateLimitRule)
	if !ok {
		t.Fatalf("expected *rules.RateLimitRule, got %T", built[0])
	}
	if rl.Interval != 60 {
		t.Errorf("expected interval 60s, got %d", rl.Interval)
	}
	if rl.Capacity != 10 || rl.RefillRate != 5 {
		t.Errorf("capacity/refill not wired through: %+v", rl)
	}
}

func TestBuildRuleFixedWindow(t *testing.T) {
	built, err := buildRule(RuleConfig{Type: "rate_limit/fixed_window", Mode: "LIVE", Max: 100, Interval: "30s"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rl := built[0].(*rules.RateLimitRule)
	if rl.Max != 100 || rl.Window != 30 {
		t.Errorf("max/window not wired through: %+v", rl)
	}
}

func TestBuildRuleSlidingWindow(t *testing.T) {
	built, err := buildRule(RuleConfig{Type: "rate_limit/sliding_window", Mode: "LIVE", Max: 50, Interval: "10s"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rl := built[0].(*rules.RateLimitRule)
	if rl.Max != 50 || rl.Interval != 10 {
		t.Errorf("max/interval not wired through: %+v", rl)
	}
}

func TestBuildRuleBot(t *testing.T) {
	built, err := buildRule(RuleConfig{Type: "bot", Mode: "LIVE", Deny: []string{"scraper"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(built) != 1 || built[0].Type() != rules.TypeBot {
		t.Fatalf("expected one bot rule, got %+v", built)
	}
}

func TestBuildRuleBotAllowDenyConflict(t *testing.T) {
	_, err := buildRule(RuleConfig{Type: "bot", Allow: []string{"a"}, Deny: []string{"b"}})
	if err == nil {
		t.Fatal("expected construction error for conflicting allow/deny")
	}
}

func TestBuildRuleEmail(t *testing.T) {
	built, err := buildRule(RuleConfig{Type: "email", Mode: "LIVE", Block: []string{"DISPOSABLE"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(built) != 1 || built[0].Type() != rules.TypeEmail {
		t.Fatalf("expected one email rule, got %+v", built)
	}
}

func TestBuildRuleSensitiveInfo(t *testing.T) {
	built, err := buildRule(RuleConfig{Type: "sensitive_info", Mode: "LIVE", Deny: []string{"EMAIL"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(built) != 1 || built[0].Type() != rules.TypeSensitiveInfo {
		t.Fatalf("expected one sensitive info rule, got %+v", built)
	}
}

func TestBuildRuleUnknownType(t *testing.T) {
	_, err := buildRule(RuleConfig{Type: "nonsense"})
	if err == nil {
		t.Fatal("expected error for unrecognized rule type")
	}
}

func TestBuildRuleBadInterval(t *testing.T) {
	_, err := buildRule(RuleConfig{Type: "rate_limit/token_bucket", Interval: "not-a-duration"})
	if err == nil {
		t.Fatal("expected error for unparsable interval")
	}
}

func TestBuildRulesPreservesOrderAndCount(t *testing.T) {
	built, err := buildRules([]RuleConfig{
		{Type: "shield", Mode: "LIVE"},
		{Type: "bot", Mode: "LIVE"},
		{Type: "email", Mode: "LIVE"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(built) != 3 {
		t.Fatalf("expected 3 rules, got %d", len(built))
	}
	if built[0].Type() != rules.TypeShield || built[1].Type() != rules.TypeBot || built[2].Type() != rules.TypeEmail {
		t.Errorf("expected shield, bot, email in config order, got %v, %v, %v", built[0].Type(), built[1].Type(), built[2].Type())
	}
}

func TestBuildCacheDefaultsToMemory(t *testing.T) {
	cache, err := buildCache(context.Background(), BlockCacheConfig{Backend: "memory"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cache == nil {
		t.Fatal("expected a non-nil cache")
	}
}

func TestBuildCacheRedisUnreachableFails(t *testing.T) {
	_, err := buildCache(context.Background(), BlockCacheConfig{
		Backend: "redis",
		Redis:   RedisConfig{Addr: "127.0.0.1:1"},
	})
	if err == nil {
		t.Fatal("expected error connecting to an unreachable redis address")
	}
}

func TestBuildEndToEndWithMemoryCache(t *testing.T) {
	cfg := &Config{
		Key:             "test-key",
		Characteristics: []string{"ip.src"},
		BlockCache:      BlockCacheConfig{Backend: "memory"},
		Remote:          RemoteConfig{Endpoint: "http://localhost:9999", Timeout: 100 * time.Millisecond},
		Logging:         LoggingConfig{Level: "info", Format: "json"},
		Telemetry:       TelemetryConfig{Enabled: false, Exporter: "none"},
		Rules: []RuleConfig{
			{Type: "shield", Mode: "LIVE"},
		},
	}

	eng, err := Build(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eng == nil {
		t.Fatal("expected a non-nil engine")
	}
}

func TestBuildFailsOnUnknownRuleType(t *testing.T) {
	cfg := &Config{
		BlockCache: BlockCacheConfig{Backend: "memory"},
		Remote:     RemoteConfig{Endpoint: "http://localhost:9999", Timeout: 100 * time.Millisecond},
		Logging:    LoggingConfig{Level: "info", Format: "json"},
		Telemetry:  TelemetryConfig{Enabled: false, Exporter: "none"},
		Rules:      []RuleConfig{{Type: "not-a-real-type"}},
	}

	_, err := Build(context.Background(), cfg)
	if err == nil {
		t.Fatal("expected error for unrecognized rule type")
	}
}
