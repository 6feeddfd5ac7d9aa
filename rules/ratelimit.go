package rules

import "github.com/zamorofthat/shieldcore/duration"

// RateLimitRule carries the declarative shape of one of the three
// rate-limit algorithms. It implements only Rule: rate limiting is
// evaluated exclusively by the remote Client, so the engine always
// leaves its local result at NOT_RUN.
type RateLimitRule struct {
	base
	Match           string
	Characteristics []string
	RefillRate      int64
	Interval        int
	Capacity        int64
	Max             int64
	Window          int
}

// TokenBucketOption configures a single TokenBucket rule.
type TokenBucketOption func(*RateLimitRule)

// WithTokenBucketMode sets the rule's mode; only the literal "LIVE"
// is accepted as LIVE.
func WithTokenBucketMode(mode string) TokenBucketOption {
	return func(r *RateLimitRule) { r.mode = ParseMode(mode) }
}

// WithTokenBucketMatch restricts the rule to requests whose opaque
// match expression (interpreted by the remote Client) matches.
func WithTokenBucketMatch(expr string) TokenBucketOption {
	return func(r *RateLimitRule) { r.Match = expr }
}

// WithTokenBucketCharacteristics overrides the engine-level
// characteristics used to key this rule's buckets.
func WithTokenBucketCharacteristics(characteristics ...string) TokenBucketOption {
	return func(r *RateLimitRule) { r.Characteristics = characteristics }
}

// WithTokenBucketCapacity sets the bucket's burst capacity.
func WithTokenBucketCapacity(capacity int64) TokenBucketOption {
	return func(r *RateLimitRule) { r.Capacity = capacity }
}

// WithTokenBucketRefillRate sets tokens refilled per Interval.
func WithTokenBucketRefillRate(rate int64) TokenBucketOption {
	return func(r *RateLimitRule) { r.RefillRate = rate }
}

// WithTokenBucketInterval sets the refill interval, accepting either
// an integer-seconds value or an additive duration string ("1m30s").
func WithTokenBucketInterval(interval any) TokenBucketOption {
	return func(r *RateLimitRule) {
		if secs, err := duration.Parse(interval); err == nil {
			r.Interval = secs
		}
	}
}

// TokenBucket builds zero or more RATE_LIMIT/TOKEN_BUCKET rules. With
// no options it returns an empty slice, unlike Bot/Email/SensitiveInfo/
// Shield, which always emit a default rule; this asymmetry is
// preserved from the source per spec.
func TokenBucket(opts ...TokenBucketOption) []Rule {
	if len(opts) == 0 {
		return nil
	}
	r := &RateLimitRule{base: newBase(TypeRateLimitTokenBucket, PriorityRateLimit, ModeDryRun)}
	for _, opt := range opts {
		opt(r)
	}
	return []Rule{r}
}

// FixedWindowOption configures a single FixedWindow rule.
type FixedWindowOption func(*RateLimitRule)

func WithFixedWindowMode(mode string) FixedWindowOption {
	return func(r *RateLimitRule) { r.mode = ParseMode(mode) }
}

func WithFixedWindowMatch(expr string) FixedWindowOption {
	return func(r *RateLimitRule) { r.Match = expr }
}

func WithFixedWindowCharacteristics(characteristics ...string) FixedWindowOption {
	return func(r *RateLimitRule) { r.Characteristics = characteristics }
}

func WithFixedWindowMax(max int64) FixedWindowOption {
	return func(r *RateLimitRule) { r.Max = max }
}

func WithFixedWindowWindow(window any) FixedWindowOption {
	return func(r *RateLimitRule) {
		if secs, err := duration.Parse(window); err == nil {
			r.Window = secs
		}
	}
}

// FixedWindow builds zero or more RATE_LIMIT/FIXED_WINDOW rules. See
// TokenBucket for the no-options-returns-empty asymmetry.
func FixedWindow(opts ...FixedWindowOption) []Rule {
	if len(opts) == 0 {
		return nil
	}
	r := &RateLimitRule{base: newBase(TypeRateLimitFixedWindow, PriorityRateLimit, ModeDryRun)}
	for _, opt := range opts {
		opt(r)
	}
	return []Rule{r}
}

// SlidingWindowOption configures a single SlidingWindow rule.
type SlidingWindowOption func(*RateLimitRule)

func WithSlidingWindowMode(mode string) SlidingWindowOption {
	return func(r *RateLimitRule) { r.mode = ParseMode(mode) }
}

func WithSlidingWindowMatch(expr string) SlidingWindowOption {
	return func(r *RateLimitRule) { r.Match = expr }
}

func WithSlidingWindowCharacteristics(characteristics ...string) SlidingWindowOption {
	return func(r *RateLimitRule) { r.Characteristics = characteristics }
}

func WithSlidingWindowMax(max int64) SlidingWindowOption {
	return func(r *RateLimitRule) { r.Max = max }
}

func WithSlidingWindowInterval(interval any) SlidingWindowOption {
	return func(r *RateLimitRule) {
		if secs, err := duration.Parse(interval); err == nil {
			r.Interval = secs
		}
	}
}

// SlidingWindow builds zero or more RATE_LIMIT/SLIDING_WINDOW rules.
// See TokenBucket for the no-options-returns-empty asymmetry; this is
// the algorithm protectSignup composes.
func SlidingWindow(opts ...SlidingWindowOption) []Rule {
	if len(opts) == 0 {
		return nil
	}
	r := &RateLimitRule{base: newBase(TypeRateLimitSlidingWindow, PriorityRateLimit, ModeDryRun)}
	for _, opt := range opts {
		opt(r)
	}
	return []Rule{r}
}
