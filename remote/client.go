// Package remote defines the seam between the engine and the external
// decision/reporting service. The engine never knows how a Client is
// transported; it only calls Decide and Report.
package remote

import (
	"context"

	"github.com/zamorofthat/shieldcore/decision"
	"github.com/zamorofthat/shieldcore/rules"
	"github.com/zamorofthat/shieldcore/types"
)

// Client evaluates remote-only rules (RATE_LIMIT, SHIELD) and receives
// best-effort reports of every decision the engine makes.
type Client interface {
	// Decide returns the final verdict for a request once the engine's
	// local evaluation has not denied it. allRules is the engine's
	// priority-sorted rule list with characteristic injection applied.
	Decide(ctx context.Context, rctx types.Context, details *types.RequestDetails, allRules []rules.Rule) (decision.Decision, error)

	// Report is fire-and-forget; the engine does not wait for or
	// surface its outcome to the caller.
	Report(ctx context.Context, rctx types.Context, details *types.RequestDetails, d decision.Decision, allRules []rules.Rule)
}
