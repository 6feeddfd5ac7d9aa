package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/zamorofthat/shieldcore/decision"
	"github.com/zamorofthat/shieldcore/rules"
	"github.com/zamorofthat/shieldcore/types"
)

// HTTPClient is the reference Client implementation: it POSTs a JSON
// envelope to a configured decision endpoint. The transport is tuned
// the way the teacher tunes its per-backend http.Transport, and every
// call is bounded by a context timeout so a slow policy service fails
// open instead of hanging the caller.
type HTTPClient struct {
	endpoint string
	timeout  time.Duration
	client   *http.Client
	log      types.Logger
}

// NewHTTPClient builds an HTTPClient against endpoint, applying timeout
// to every Decide/Report call.
func NewHTTPClient(endpoint string, timeout time.Duration, log types.Logger) *HTTPClient {
	return &HTTPClient{
		endpoint: endpoint,
		timeout:  timeout,
		log:      log,
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

type wireRule struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Priority int    `json:"priority"`
	Mode     string `json:"mode"`

	// Rate-limit-specific fields, populated only for RATE_LIMIT rules;
	// SHIELD carries no payload beyond the common fields above.
	Match           string   `json:"match,omitempty"`
	Characteristics []string `json:"characteristics,omitempty"`
	RefillRate      int64    `json:"refillRate,omitempty"`
	Interval        int      `json:"interval,omitempty"`
	Capacity        int64    `json:"capacity,omitempty"`
	Max             int64    `json:"max,omitempty"`
	Window          int      `json:"window,omitempty"`
}

type wireEnvelope struct {
	Key             string               `json:"key"`
	Fingerprint     string               `json:"fingerprint"`
	Characteristics []string             `json:"characteristics"`
	Details         *types.RequestDetails `json:"details"`
	Rules           []wireRule           `json:"rules"`
	Results         []decision.RuleResult `json:"results,omitempty"`
}

type wireDecisionResponse struct {
	ID         string               `json:"id"`
	Conclusion decision.Conclusion  `json:"conclusion"`
	TTL        int                  `json:"ttl"`
	Reason     decision.Reason      `json:"reason"`
	Results    []decision.RuleResult `json:"results"`
}

type wireReport struct {
	wireEnvelope
	Decision wireDecisionResponse `json:"decision"`
}

func toWireRules(allRules []rules.Rule) []wireRule {
	out := make([]wireRule, 0, len(allRules))
	for _, r := range allRules {
		wr := wireRule{
			ID:       r.ID(),
			Type:     string(r.Type()),
			Priority: r.Priority(),
			Mode:     string(r.Mode()),
		}
		if rl, ok := r.(*rules.RateLimitRule); ok {
			wr.Match = rl.Match
			wr.Characteristics = rl.Characteristics
			wr.RefillRate = rl.RefillRate
			wr.Interval = rl.Interval
			wr.Capacity = rl.Capacity
			wr.Max = rl.Max
			wr.Window = rl.Window
		}
		out = append(out, wr)
	}
	return out
}

// Decide POSTs the request envelope to the decision endpoint and
// decodes its JSON response into a Decision. reqCtx is bounded by
// both the caller's ctx and the client's own transport timeout, so a
// slow endpoint fails open via context.DeadlineExceeded rather than
// hanging the caller.
func (c *HTTPClient) Decide(ctx context.Context, rctx types.Context, details *types.RequestDetails, allRules []rules.Rule) (decision.Decision, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	envelope := wireEnvelope{
		Key:             rctx.Key,
		Fingerprint:     rctx.Fingerprint,
		Characteristics: rctx.Characteristics,
		Details:         details,
		Rules:           toWireRules(allRules),
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		return decision.Decision{}, fmt.Errorf("encoding decide request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.endpoint+"/v1/decide", bytes.NewReader(body))
	if err != nil {
		return decision.Decision{}, fmt.Errorf("building decide request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return decision.Decision{}, fmt.Errorf("calling decision endpoint: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return decision.Decision{}, fmt.Errorf("reading decide response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return decision.Decision{}, fmt.Errorf("decision endpoint returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var wire wireDecisionResponse
	if err := json.Unmarshal(respBody, &wire); err != nil {
		return decision.Decision{}, fmt.Errorf("decoding decide response: %w", err)
	}

	return decision.Decision{
		ID:         wire.ID,
		Conclusion: wire.Conclusion,
		TTL:        wire.TTL,
		Reason:     wire.Reason,
		Results:    wire.Results,
	}, nil
}

// Report is fire-and-forget: failures are logged and never returned,
// matching how the teacher logs best-effort session lifecycle failures
// instead of propagating them.
func (c *HTTPClient) Report(ctx context.Context, rctx types.Context, details *types.RequestDetails, d decision.Decision, allRules []rules.Rule) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	envelope := wireReport{
		wireEnvelope: wireEnvelope{
			Key:             rctx.Key,
			Fingerprint:     rctx.Fingerprint,
			Characteristics: rctx.Characteristics,
			Details:         details,
			Rules:           toWireRules(allRules),
			Results:         d.Results,
		},
		Decision: wireDecisionResponse{
			ID:         d.ID,
			Conclusion: d.Conclusion,
			TTL:        d.TTL,
			Reason:     d.Reason,
			Results:    d.Results,
		},
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		c.logError("encoding report request: %v", err)
		return
	}

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.endpoint+"/v1/report", bytes.NewReader(body))
	if err != nil {
		c.logError("building report request: %v", err)
		return
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		c.logError("sending report: %v", err)
		return
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		c.logError("report endpoint returned status %d", resp.StatusCode)
	}
}

func (c *HTTPClient) logError(format string, args ...any) {
	if c.log != nil {
		c.log.Error(format, args...)
	}
}

var _ Client = (*HTTPClient)(nil)
