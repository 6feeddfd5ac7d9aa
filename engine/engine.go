// Package engine implements the protect/withRule algorithm that
// composes rule primitives, the block cache, and a remote Client into
// a single verdict per request.
package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/zamorofthat/shieldcore/analyzer"
	"github.com/zamorofthat/shieldcore/blockcache"
	"github.com/zamorofthat/shieldcore/decision"
	"github.com/zamorofthat/shieldcore/internal/telemetry"
	"github.com/zamorofthat/shieldcore/remote"
	"github.com/zamorofthat/shieldcore/rules"
	"github.com/zamorofthat/shieldcore/types"
)

const maxRules = 10

// Config builds an Engine. Client and Log are required; Cache defaults
// to a fresh in-process blockcache.Memory, Analyzer to analyzer.Default,
// and Telemetry to a no-op provider.
type Config struct {
	Key             string
	Rules           []rules.Rule
	Characteristics []string
	Client          remote.Client
	Log             types.Logger
	Cache           blockcache.Cache
	Analyzer        analyzer.Analyzer
	Telemetry       *telemetry.Provider

	// OnDecision, if set, is invoked with every final Decision after
	// Protect has already committed to returning it — purely an
	// observability hook (see the feed package) that must never affect
	// the returned Decision.
	OnDecision func(decision.Decision, *types.RequestDetails)
}

// Engine evaluates Protect calls against an immutable, priority-sorted
// rule list.
type Engine struct {
	key             string
	rules           []rules.Rule
	characteristics []string
	client          remote.Client
	log             types.Logger
	cache           blockcache.Cache
	analyzer        analyzer.Analyzer
	telemetry       *telemetry.Provider
	onDecision      func(decision.Decision, *types.RequestDetails)
}

// New builds an Engine, failing at construction if Client or Log is
// absent.
func New(cfg Config) (*Engine, error) {
	if cfg.Client == nil {
		return nil, &rules.ConstructionError{Message: "engine requires a remote Client"}
	}
	if cfg.Log == nil {
		return nil, &rules.ConstructionError{Message: "engine requires a Log"}
	}

	cache := cfg.Cache
	if cache == nil {
		cache = blockcache.NewMemory()
	}
	az := cfg.Analyzer
	if az == nil {
		az = analyzer.NewDefault()
	}
	tp := cfg.Telemetry
	if tp == nil {
		tp = telemetry.NoopProvider()
	}

	sorted := sortedRules(cfg.Rules)

	return &Engine{
		key:             cfg.Key,
		rules:           sorted,
		characteristics: cfg.Characteristics,
		client:          cfg.Client,
		log:             cfg.Log,
		cache:           cache,
		analyzer:        az,
		telemetry:       tp,
		onDecision:      cfg.OnDecision,
	}, nil
}

// WithRule returns a new engine view whose rule list is the parent's
// rules plus newRule, re-sorted by priority (stable). The receiver is
// unaffected; the returned view shares the parent's client, log, cache
// and analyzer so that blocks observed by one view are visible to the
// other.
func (e *Engine) WithRule(r rules.Rule) *Engine {
	combined := make([]rules.Rule, len(e.rules), len(e.rules)+1)
	copy(combined, e.rules)
	combined = append(combined, r)

	return &Engine{
		key:             e.key,
		rules:           sortedRules(combined),
		characteristics: e.characteristics,
		client:          e.client,
		log:             e.log,
		cache:           e.cache,
		analyzer:        e.analyzer,
		telemetry:       e.telemetry,
		onDecision:      e.onDecision,
	}
}

func sortedRules(in []rules.Rule) []rules.Rule {
	out := make([]rules.Rule, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority() < out[j].Priority() })
	return out
}

// Protect runs the full decision algorithm for one request. adapterCtx
// carries the adapter-supplied GetBody/Extra/Runtime fields; Protect
// fills in Key/Characteristics/Log/Fingerprint before passing the
// resulting context down to every rule. It always returns a Decision;
// construction-time failures are the only errors this package's
// callers ever see thrown, and those can only happen in New.
func (e *Engine) Protect(ctx context.Context, adapterCtx types.Context, details *types.RequestDetails) decision.Decision {
	if details == nil {
		details = &types.RequestDetails{}
	}

	spanCtx, span := e.telemetry.StartProtectSpan(ctx, "", details.Method, details.Path)
	defer func() { e.telemetry.EndProtectSpan(span, "", 0, nil) }()

	rctx := adapterCtx
	rctx.Key = e.key
	rctx.Characteristics = e.characteristics
	rctx.Log = e.log
	if rctx.Runtime == "" {
		rctx.Runtime = "go"
	}

	if len(e.rules) > maxRules {
		d := decision.Decision{
			Conclusion: decision.Error,
			Reason:     decision.NewErrorReason(fmt.Errorf("only %d rules may be specified", maxRules)),
			Results:    nil,
		}
		e.report(spanCtx, rctx, details, d, nil)
		e.emit(d, details)
		return d
	}

	if len(e.rules) == 0 {
		// An empty rule list warns and goes straight to the remote
		// client, bypassing the cache entirely: there is nothing local
		// to have blocked the fingerprint in the first place.
		e.log.Warn("engine configured with no rules")
		remoteDecision, err := e.client.Decide(spanCtx, rctx, details, nil)
		if err != nil {
			d := decision.Decision{Conclusion: decision.Error, Reason: decision.NewErrorReason(err)}
			e.report(spanCtx, rctx, details, d, nil)
			e.emit(d, details)
			return d
		}
		e.report(spanCtx, rctx, details, remoteDecision, nil)
		e.emit(remoteDecision, details)
		return remoteDecision
	}

	fingerprint, err := e.analyzer.GenerateFingerprint(rctx, details)
	if err != nil {
		d := decision.Decision{
			Conclusion: decision.Error,
			Reason:     decision.NewErrorReason(err),
			Results:    notRunResults(e.rules),
		}
		e.report(spanCtx, rctx, details, d, e.rules)
		e.emit(d, details)
		return d
	}
	rctx.Fingerprint = fingerprint

	results := notRunResults(e.rules)
	// Rules observed by the remote client are the configured rules with
	// per-call characteristic injection applied (§4.H step 5); built
	// fresh every call rather than mutated in place, since e.rules is
	// shared across concurrently-running Protect calls.
	effectiveRules := withInjectedCharacteristics(e.rules, e.characteristics)

	if cached, ok, err := e.cache.Get(spanCtx, fingerprint); err == nil && ok {
		ttl, _ := e.cache.TTL(spanCtx, fingerprint)
		d := decision.Decision{
			Conclusion: decision.Deny,
			TTL:        ttl,
			Reason:     cached,
			Results:    results,
		}
		e.report(spanCtx, rctx, details, d, effectiveRules)
		e.emit(d, details)
		return d
	}

	for i, r := range e.rules {
		if ctx.Err() != nil {
			d := decision.Decision{
				Conclusion: decision.Error,
				Reason:     decision.NewErrorReason(ctx.Err()),
				Results:    results,
			}
			e.report(spanCtx, rctx, details, d, effectiveRules)
			e.emit(d, details)
			return d
		}

		local, ok := r.(rules.LocalRule)
		if !ok {
			continue
		}

		result := e.evaluateLocal(spanCtx, local, rctx, details)
		results[i] = result

		if result.Conclusion != decision.Deny {
			continue
		}

		d := decision.Decision{
			Conclusion: decision.Deny,
			TTL:        result.TTL,
			Reason:     result.Reason,
			Results:    cloneResults(results),
		}

		if local.Mode() != rules.ModeDryRun {
			e.report(spanCtx, rctx, details, d, effectiveRules)
			if result.TTL > 0 {
				if err := e.cache.Set(spanCtx, fingerprint, result.Reason, time.Now().Unix()+int64(result.TTL)); err != nil {
					e.log.Warn("failed to cache block for %s: %v", fingerprint, err)
				}
			}
			e.emit(d, details)
			return d
		}

		e.log.Warn("rule %s denied in DRY_RUN mode, continuing evaluation", local.ID())
	}

	remoteDecision, err := e.client.Decide(spanCtx, rctx, details, effectiveRules)
	if err != nil {
		d := decision.Decision{
			Conclusion: decision.Error,
			Reason:     decision.NewErrorReason(err),
			Results:    results,
		}
		e.report(spanCtx, rctx, details, d, effectiveRules)
		e.emit(d, details)
		return d
	}

	if remoteDecision.Results == nil {
		remoteDecision.Results = results
	}
	if remoteDecision.Conclusion == decision.Deny && remoteDecision.TTL > 0 {
		if err := e.cache.Set(spanCtx, fingerprint, remoteDecision.Reason, time.Now().Unix()+int64(remoteDecision.TTL)); err != nil {
			e.log.Warn("failed to cache remote block for %s: %v", fingerprint, err)
		}
	}

	e.report(spanCtx, rctx, details, remoteDecision, effectiveRules)
	e.emit(remoteDecision, details)
	return remoteDecision
}

// evaluateLocal runs Validate then Protect for a single local rule,
// recovering a panic or returned error into an ERROR result so that
// one misbehaving rule never aborts the rest of the evaluation.
func (e *Engine) evaluateLocal(ctx context.Context, r rules.LocalRule, rctx types.Context, details *types.RequestDetails) (result decision.RuleResult) {
	_, span := e.telemetry.StartRuleSpan(ctx, r.ID(), r.Priority())
	defer func() {
		e.telemetry.EndRuleSpan(span, string(result.State), string(result.Conclusion), nil)
	}()

	defer func() {
		if p := recover(); p != nil {
			result = decision.RuleResult{
				RuleID:     r.ID(),
				State:      decision.Run,
				Conclusion: decision.Error,
				Reason:     decision.NewErrorReason(fmt.Errorf("rule panicked: %v", p)),
			}
		}
	}()

	if err := r.Validate(rctx, details); err != nil {
		return decision.RuleResult{
			RuleID:     r.ID(),
			State:      decision.Run,
			Conclusion: decision.Error,
			Reason:     decision.NewErrorReason(err),
		}
	}

	outcome, err := r.Protect(rctx, details)
	if err != nil {
		return decision.RuleResult{
			RuleID:     r.ID(),
			State:      decision.Run,
			Conclusion: decision.Error,
			Reason:     decision.NewErrorReason(err),
		}
	}

	return decision.RuleResult{
		RuleID:     r.ID(),
		State:      decision.Run,
		Conclusion: outcome.Conclusion,
		TTL:        outcome.TTL,
		Reason:     outcome.Reason,
	}
}

// report dispatches Client.Report asynchronously with a context
// detached from the caller's own cancellation, so a caller returning
// early (e.g. an HTTP handler) does not abort a report already in
// flight.
func (e *Engine) report(ctx context.Context, rctx types.Context, details *types.RequestDetails, d decision.Decision, allRules []rules.Rule) {
	detached := context.WithoutCancel(ctx)
	go func() {
		e.client.Report(detached, rctx, details, d, allRules)
		e.telemetry.RecordReportSent(detached, len(allRules), nil)
	}()
}

func (e *Engine) emit(d decision.Decision, details *types.RequestDetails) {
	if e.onDecision != nil {
		e.onDecision(d, details)
	}
}

func notRunResults(rs []rules.Rule) []decision.RuleResult {
	out := make([]decision.RuleResult, len(rs))
	for i, r := range rs {
		out[i] = decision.NewNotRunResult(r.ID())
	}
	return out
}

func cloneResults(in []decision.RuleResult) []decision.RuleResult {
	out := make([]decision.RuleResult, len(in))
	copy(out, in)
	return out
}

// withInjectedCharacteristics returns rs with the engine-level
// characteristics filled in for any RATE_LIMIT rule that did not
// specify its own (§4.H step 5). A fresh copy is returned for every
// affected rule rather than mutating rs in place, since rs is the
// engine's own shared rule list and Protect may run concurrently.
func withInjectedCharacteristics(rs []rules.Rule, characteristics []string) []rules.Rule {
	out := make([]rules.Rule, len(rs))
	for i, r := range rs {
		rl, ok := r.(*rules.RateLimitRule)
		if !ok || len(rl.Characteristics) > 0 {
			out[i] = r
			continue
		}
		copied := *rl
		copied.Characteristics = characteristics
		out[i] = &copied
	}
	return out
}
