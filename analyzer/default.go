package analyzer

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net"
	"net/http"
	"net/mail"
	"sort"
	"strings"
	"time"

	"github.com/zamorofthat/shieldcore/types"
)

// Default is a local Analyzer implementation: deterministic fingerprint
// hashing, a static well-known-bot table, syntax/domain-shape email
// checks backed by bounded-timeout MX and Gravatar lookups, and a
// regex-based sensitive-info scanner. It is good enough to run the
// engine standalone and to exercise every rule kind in tests; a
// production deployment swaps it for a client to a real bot/email
// intelligence service.
type Default struct {
	disposableDomains map[string]bool
	freeProviders     map[string]bool
	httpClient        *http.Client
}

// NewDefault builds a Default analyzer with the built-in disposable
// and free-provider domain lists and a short-timeout HTTP client for
// the Gravatar check.
func NewDefault() *Default {
	return &Default{
		disposableDomains: stringSet(defaultDisposableDomains),
		freeProviders:     stringSet(defaultFreeProviders),
		httpClient:        &http.Client{Timeout: 2 * time.Second},
	}
}

// GenerateFingerprint hashes the site key, the sorted characteristic
// projection, and the normalized request fields, the same
// ingredients internal/session/manager.go's generateClientSessionID
// hashes (IP + backend + time window) generalized to arbitrary
// characteristics.
func (d *Default) GenerateFingerprint(ctx types.Context, details *types.RequestDetails) (string, error) {
	h := sha256.New()
	h.Write([]byte(ctx.Key))
	h.Write([]byte{0})

	chars := append([]string(nil), ctx.Characteristics...)
	sort.Strings(chars)
	for _, c := range chars {
		h.Write([]byte(c))
		h.Write([]byte{0})
		h.Write([]byte(characteristicValue(c, details)))
		h.Write([]byte{0})
	}

	if details != nil {
		h.Write([]byte(details.IP))
		h.Write([]byte{0})
		flat := details.Headers.Flatten()
		names := make([]string, 0, len(flat))
		for k := range flat {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			h.Write([]byte(k))
			h.Write([]byte("="))
			h.Write([]byte(flat[k]))
			h.Write([]byte{0})
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// characteristicValue resolves a well-known characteristic name
// against the request; any other characteristic name is looked up in
// details.Extra under that exact key, and resolves to "" when absent.
func characteristicValue(name string, details *types.RequestDetails) string {
	if details == nil {
		return ""
	}
	switch name {
	case "ip.src":
		return details.IP
	case "http.host":
		return details.Host
	case "http.method":
		return details.Method
	case "http.request.uri.path":
		return details.Path
	default:
		if v, ok := details.Extra[name]; ok {
			return v
		}
		return ""
	}
}

// DetectBot matches the User-Agent header against the static
// well-known-bot table.
func (d *Default) DetectBot(ctx types.Context, details *types.RequestDetails, cfg BotConfig) (BotResult, error) {
	var ua string
	if details != nil && details.Headers != nil {
		ua, _ = details.Headers.Get("user-agent")
	}

	var matched []string
	lowerUA := strings.ToLower(ua)
	for id, sig := range botSignatures {
		if sig.MatchString(lowerUA) {
			matched = append(matched, id)
		}
	}
	if len(matched) == 0 {
		matched = []string{string(BotUnknown)}
	}
	sort.Strings(matched)

	result := BotResult{}
	for _, id := range matched {
		switch {
		case contains(cfg.Deny, id):
			result.Denied = append(result.Denied, id)
		case len(cfg.Allow) == 0 || contains(cfg.Allow, id):
			result.Allowed = append(result.Allowed, id)
		}
	}
	return result, nil
}

// IsValidEmail performs an RFC-shape syntax check and lightweight
// domain heuristics (disposable/free-provider lists, top-level-domain
// requirement, domain-literal handling), all computed unconditionally
// since they're local and cheap. A DNS MX lookup and a Gravatar
// existence check are also available, but unlike the local checks
// they are opt-in: they only run when opts.Block explicitly names
// EmailReasonNoMXRecords / EmailReasonNoGravatar, so a rule that never
// asks for them never pays for a network round trip.
func (d *Default) IsValidEmail(ctx types.Context, email string, opts EmailOptions) (EmailResult, error) {
	var blocked []EmailReasonKind

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		blocked = append(blocked, EmailReasonInvalid)
		return EmailResult{Validity: EmailInvalid, Blocked: filterBlocked(blocked, opts.Block)}, nil
	}

	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		blocked = append(blocked, EmailReasonInvalid)
		return EmailResult{Validity: EmailInvalid, Blocked: filterBlocked(blocked, opts.Block)}, nil
	}
	domain := strings.ToLower(email[at+1:])

	isDomainLiteral := strings.HasPrefix(domain, "[") && strings.HasSuffix(domain, "]")
	if isDomainLiteral && !opts.AllowDomainLiteral {
		blocked = append(blocked, EmailReasonInvalid)
	}

	if !isDomainLiteral && opts.RequireTopLevelDomain && !strings.Contains(domain, ".") {
		blocked = append(blocked, EmailReasonInvalid)
	}

	if d.disposableDomains[domain] {
		blocked = append(blocked, EmailReasonDisposable)
	}
	if d.freeProviders[domain] {
		blocked = append(blocked, EmailReasonFreeProvider)
	}

	if !isDomainLiteral && containsReasonKind(opts.Block, EmailReasonNoMXRecords) && !hasMXRecords(domain) {
		blocked = append(blocked, EmailReasonNoMXRecords)
	}
	if containsReasonKind(opts.Block, EmailReasonNoGravatar) && !d.hasGravatar(email) {
		blocked = append(blocked, EmailReasonNoGravatar)
	}

	validity := EmailValid
	if len(blocked) > 0 {
		validity = EmailInvalid
	}

	return EmailResult{Validity: validity, Blocked: filterBlocked(blocked, opts.Block)}, nil
}

// containsReasonKind reports whether k is explicitly named in block.
// Unlike filterBlocked's "empty means everything", this is a plain
// membership test: the network-backed checks are opt-in only.
func containsReasonKind(block []EmailReasonKind, k EmailReasonKind) bool {
	for _, b := range block {
		if b == k {
			return true
		}
	}
	return false
}

// hasMXRecords reports whether domain resolves to at least one MX
// record, bounded to a 2-second lookup.
func hasMXRecords(domain string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	mxs, err := net.DefaultResolver.LookupMX(ctx, domain)
	return err == nil && len(mxs) > 0
}

// hasGravatar reports whether email has a registered Gravatar image,
// following Gravatar's documented convention of hashing the
// lowercased, trimmed address and requesting ?d=404 so a missing
// avatar returns a 404 instead of a generated placeholder.
func (d *Default) hasGravatar(email string) bool {
	normalized := strings.ToLower(strings.TrimSpace(email))
	sum := md5.Sum([]byte(normalized))
	url := fmt.Sprintf("https://www.gravatar.com/avatar/%s?d=404", hex.EncodeToString(sum[:]))

	resp, err := d.httpClient.Head(url)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// DetectSensitiveInfo scans body against the built-in entity regex
// table (adapted from internal/redaction/redactor.go's
// DefaultSignatures), optionally augmented by a caller-supplied custom
// detector, and splits hits into allowed/denied per the requested
// entity list.
func (d *Default) DetectSensitiveInfo(ctx types.Context, body string, entities []EntityKind, contextWindow int, custom DetectFunc) (SensitiveInfoResult, error) {
	if contextWindow <= 0 {
		contextWindow = 1
	}

	wanted := make(map[EntityKind]bool, len(entities))
	for _, e := range entities {
		wanted[e] = true
	}

	var matches []Match
	for entity, re := range entityPatterns {
		if len(wanted) > 0 && !wanted[entity] {
			continue
		}
		for _, loc := range re.FindAllStringIndex(body, -1) {
			matches = append(matches, Match{
				Entity:  entity,
				Value:   body[loc[0]:loc[1]],
				Context: contextWindowAround(body, loc[0], loc[1], contextWindow),
			})
		}
	}

	if custom != nil {
		matches = append(matches, custom(body)...)
	}

	result := SensitiveInfoResult{}
	for _, m := range matches {
		if len(wanted) == 0 || wanted[m.Entity] {
			result.Denied = append(result.Denied, m)
		} else {
			result.Allowed = append(result.Allowed, m)
		}
	}
	return result, nil
}

func contextWindowAround(body string, start, end, window int) string {
	lo := start - window
	if lo < 0 {
		lo = 0
	}
	hi := end + window
	if hi > len(body) {
		hi = len(body)
	}
	return body[lo:hi]
}

func filterBlocked(found, allowed []EmailReasonKind) []EmailReasonKind {
	if len(allowed) == 0 {
		return found
	}
	allow := make(map[EmailReasonKind]bool, len(allowed))
	for _, a := range allowed {
		allow[a] = true
	}
	var out []EmailReasonKind
	for _, f := range found {
		if allow[f] {
			out = append(out, f)
		}
	}
	return out
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func stringSet(vals []string) map[string]bool {
	out := make(map[string]bool, len(vals))
	for _, v := range vals {
		out[v] = true
	}
	return out
}
