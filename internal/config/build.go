package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/zamorofthat/shieldcore/analyzer"
	"github.com/zamorofthat/shieldcore/blockcache"
	"github.com/zamorofthat/shieldcore/decision"
	"github.com/zamorofthat/shieldcore/engine"
	"github.com/zamorofthat/shieldcore/enginelog"
	"github.com/zamorofthat/shieldcore/internal/redaction"
	"github.com/zamorofthat/shieldcore/internal/telemetry"
	"github.com/zamorofthat/shieldcore/remote"
	"github.com/zamorofthat/shieldcore/rules"
	"github.com/zamorofthat/shieldcore/types"
)

// BuildOption customizes engine construction beyond what the parsed
// Config alone determines, e.g. wiring an observability hook that has
// no business living in the config schema itself.
type BuildOption func(*engine.Config)

// WithOnDecision wires fn as the engine's OnDecision observability
// hook. Used by cmd/shieldcore-demo to forward every decision to a
// feed.Hub without making the feed package a dependency of config.
func WithOnDecision(fn func(decision.Decision, *types.RequestDetails)) BuildOption {
	return func(c *engine.Config) { c.OnDecision = fn }
}

// Build wires rule primitives, the cache backend, and a remote client
// from a parsed Config into a running Engine, mirroring how
// cmd/elida/main.go assembles a proxy.Proxy from *config.Config.
func Build(ctx context.Context, cfg *Config, opts ...BuildOption) (*engine.Engine, error) {
	log, err := buildLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}

	cache, err := buildCache(ctx, cfg.BlockCache)
	if err != nil {
		return nil, fmt.Errorf("building block cache: %w", err)
	}

	tp, err := telemetry.NewProvider(telemetry.Config{
		Enabled:     cfg.Telemetry.Enabled,
		Exporter:    cfg.Telemetry.Exporter,
		Endpoint:    cfg.Telemetry.Endpoint,
		ServiceName: cfg.Telemetry.ServiceName,
		Insecure:    cfg.Telemetry.Insecure,
	})
	if err != nil {
		return nil, fmt.Errorf("building telemetry provider: %w", err)
	}

	builtRules, err := buildRules(cfg.Rules)
	if err != nil {
		return nil, fmt.Errorf("building rules: %w", err)
	}

	client := remote.NewHTTPClient(cfg.Remote.Endpoint, cfg.Remote.Timeout, log)

	engCfg := engine.Config{
		Key:             cfg.Key,
		Rules:           builtRules,
		Characteristics: cfg.Characteristics,
		Client:          client,
		Log:             log,
		Cache:           cache,
		Telemetry:       tp,
	}
	for _, opt := range opts {
		opt(&engCfg)
	}

	return engine.New(engCfg)
}

func buildLogger(cfg LoggingConfig) (*enginelog.Slog, error) {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	redactor, err := redaction.NewFromConfig(redaction.Config{Enabled: true})
	if err != nil {
		return nil, err
	}

	return enginelog.NewSlog(slog.New(handler), redactor), nil
}

func buildCache(ctx context.Context, cfg BlockCacheConfig) (blockcache.Cache, error) {
	switch cfg.Backend {
	case "redis":
		return blockcache.NewRedis(ctx, blockcache.RedisOptions{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		})
	default:
		return blockcache.NewMemory(), nil
	}
}

func buildRules(configs []RuleConfig) ([]rules.Rule, error) {
	out := make([]rules.Rule, 0, len(configs))
	for i, rc := range configs {
		built, err := buildRule(rc)
		if err != nil {
			return nil, fmt.Errorf("rules[%d]: %w", i, err)
		}
		out = append(out, built...)
	}
	return out, nil
}

func buildRule(rc RuleConfig) ([]rules.Rule, error) {
	interval, err := rc.IntervalSeconds()
	if err != nil {
		return nil, fmt.Errorf("parsing interval: %w", err)
	}

	switch rc.Type {
	case "shield":
		return rules.Shield(rules.WithShieldMode(rc.Mode)), nil

	case "rate_limit/token_bucket":
		return rules.TokenBucket(
			rules.WithTokenBucketMode(rc.Mode),
			rules.WithTokenBucketCapacity(rc.Capacity),
			rules.WithTokenBucketRefillRate(rc.Refill),
			rules.WithTokenBucketInterval(interval),
		), nil

	case "rate_limit/fixed_window":
		return rules.FixedWindow(
			rules.WithFixedWindowMode(rc.Mode),
			rules.WithFixedWindowMax(rc.Max),
			rules.WithFixedWindowWindow(interval),
		), nil

	case "rate_limit/sliding_window":
		return rules.SlidingWindow(
			rules.WithSlidingWindowMode(rc.Mode),
			rules.WithSlidingWindowMax(rc.Max),
			rules.WithSlidingWindowInterval(interval),
		), nil

	case "bot":
		opts := []rules.BotOption{rules.WithBotMode(rc.Mode)}
		if len(rc.Allow) > 0 {
			opts = append(opts, rules.WithBotAllow(rc.Allow...))
		}
		if len(rc.Deny) > 0 {
			opts = append(opts, rules.WithBotDeny(rc.Deny...))
		}
		return rules.Bot(opts...)

	case "email":
		opts := []rules.EmailOption{rules.WithEmailMode(rc.Mode)}
		if len(rc.Block) > 0 {
			opts = append(opts, rules.WithEmailBlock(toEmailReasonKinds(rc.Block)...))
		}
		return rules.Email(opts...), nil

	case "sensitive_info":
		opts := []rules.SensitiveInfoOption{rules.WithSensitiveInfoMode(rc.Mode)}
		if len(rc.Allow) > 0 {
			opts = append(opts, rules.WithSensitiveInfoAllow(toEntityKinds(rc.Allow)...))
		}
		if len(rc.Deny) > 0 {
			opts = append(opts, rules.WithSensitiveInfoDeny(toEntityKinds(rc.Deny)...))
		}
		return rules.SensitiveInfo(opts...)

	default:
		return nil, fmt.Errorf("unrecognized rule type %q", rc.Type)
	}
}

func toEmailReasonKinds(in []string) []analyzer.EmailReasonKind {
	out := make([]analyzer.EmailReasonKind, len(in))
	for i, s := range in {
		out[i] = analyzer.EmailReasonKind(s)
	}
	return out
}

func toEntityKinds(in []string) []analyzer.EntityKind {
	out := make([]analyzer.EntityKind, len(in))
	for i, s := range in {
		out[i] = analyzer.EntityKind(s)
	}
	return out
}
