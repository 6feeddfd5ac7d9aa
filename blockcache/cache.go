// Package blockcache implements the engine's fingerprint → blocked
// Reason cache, with lazy eviction and two backends: an in-process
// map for single-instance deployments and a Redis-backed store for
// multi-instance ones that must agree on recent blocks.
package blockcache

import (
	"context"

	"github.com/zamorofthat/shieldcore/decision"
)

// Cache is a process- or cluster-shared mapping from fingerprint to a
// recently-denied Reason with an absolute expiry. Get and Set must
// each be individually atomic; a compound read-modify-write is not
// required, so a last-writer-wins race between two concurrent DENY
// decisions for the same fingerprint is acceptable.
type Cache interface {
	// Get returns the Reason stored for fingerprint if its expiry is
	// strictly in the future, evicting it lazily otherwise.
	Get(ctx context.Context, fingerprint string) (decision.Reason, bool, error)

	// Set overwrites the entry for fingerprint, expiring at
	// expiresAtUnix (epoch seconds).
	Set(ctx context.Context, fingerprint string, reason decision.Reason, expiresAtUnix int64) error

	// TTL returns max(0, expiry-now) for fingerprint without evicting
	// it, or 0 if no entry exists.
	TTL(ctx context.Context, fingerprint string) (int, error)
}
