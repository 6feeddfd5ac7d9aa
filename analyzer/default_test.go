package analyzer

import (
	"testing"

	"github.com/zamorofthat/shieldcore/headers"
	"github.com/zamorofthat/shieldcore/types"
)

func testContext() types.Context {
	return types.Context{
		Key:             "test-key",
		Characteristics: []string{"ip.src"},
	}
}

func TestGenerateFingerprintDeterministic(t *testing.T) {
	d := NewDefault()
	ctx := testContext()
	details := &types.RequestDetails{IP: "1.2.3.4", Headers: headers.New(nil)}

	a, err := d.GenerateFingerprint(ctx, details)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := d.GenerateFingerprint(ctx, details)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a != b {
		t.Errorf("fingerprint not deterministic: %q != %q", a, b)
	}
}

func TestGenerateFingerprintDiffersByIP(t *testing.T) {
	d := NewDefault()
	ctx := testContext()

	a, _ := d.GenerateFingerprint(ctx, &types.RequestDetails{IP: "1.2.3.4", Headers: headers.New(nil)})
	b, _ := d.GenerateFingerprint(ctx, &types.RequestDetails{IP: "5.6.7.8", Headers: headers.New(nil)})
	if a == b {
		t.Error("expected different fingerprints for different IPs")
	}
}

func TestDetectBotKnownSignature(t *testing.T) {
	d := NewDefault()
	details := &types.RequestDetails{Headers: headers.New(map[string]string{
		"User-Agent": "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)",
	})}

	result, err := d.DetectBot(testContext(), details, BotConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !contains(result.Allowed, "GOOGLEBOT") {
		t.Errorf("expected GOOGLEBOT in allowed, got %v", result.Allowed)
	}
}

func TestDetectBotDenyList(t *testing.T) {
	d := NewDefault()
	details := &types.RequestDetails{Headers: headers.New(map[string]string{
		"User-Agent": "curl/8.4.0",
	})}

	result, err := d.DetectBot(testContext(), details, BotConfig{Deny: []string{"CURL"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !contains(result.Denied, "CURL") {
		t.Errorf("expected CURL denied, got %v", result.Denied)
	}
}

func TestDetectBotAllowListDeniesNonMember(t *testing.T) {
	d := NewDefault()
	details := &types.RequestDetails{Headers: headers.New(map[string]string{
		"User-Agent": "curl/8.4.0",
	})}

	result, err := d.DetectBot(testContext(), details, BotConfig{Allow: []string{"GOOGLEBOT"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if contains(result.Allowed, "CURL") {
		t.Errorf("CURL should not be allowed when allow list is [GOOGLEBOT], got %v", result.Allowed)
	}
	if len(result.Allowed) != 0 {
		t.Errorf("expected no allowed signatures, got %v", result.Allowed)
	}
}

func TestDetectBotAllowListAllowsMember(t *testing.T) {
	d := NewDefault()
	details := &types.RequestDetails{Headers: headers.New(map[string]string{
		"User-Agent": "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)",
	})}

	result, err := d.DetectBot(testContext(), details, BotConfig{Allow: []string{"GOOGLEBOT"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !contains(result.Allowed, "GOOGLEBOT") {
		t.Errorf("expected GOOGLEBOT in allowed, got %v", result.Allowed)
	}
}

func TestDetectBotUnknown(t *testing.T) {
	d := NewDefault()
	details := &types.RequestDetails{Headers: headers.New(map[string]string{
		"User-Agent": "MyCustomClient/1.0",
	})}

	result, _ := d.DetectBot(testContext(), details, BotConfig{})
	if !contains(result.Allowed, BotUnknown) {
		t.Errorf("expected UNKNOWN in allowed, got %v", result.Allowed)
	}
}

func TestIsValidEmailValid(t *testing.T) {
	d := NewDefault()
	result, err := d.IsValidEmail(testContext(), "person@example.com", EmailOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Validity != EmailValid {
		t.Errorf("expected valid, got %v blocked=%v", result.Validity, result.Blocked)
	}
}

func TestIsValidEmailMalformed(t *testing.T) {
	d := NewDefault()
	result, err := d.IsValidEmail(testContext(), "not-an-email", EmailOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Validity != EmailInvalid {
		t.Errorf("expected invalid, got %v", result.Validity)
	}
}

func TestIsValidEmailDisposable(t *testing.T) {
	d := NewDefault()
	result, err := d.IsValidEmail(testContext(), "person@mailinator.com", EmailOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !containsReason(result.Blocked, EmailReasonDisposable) {
		t.Errorf("expected DISPOSABLE in blocked, got %v", result.Blocked)
	}
}

func TestIsValidEmailFreeProviderFilteredByBlockList(t *testing.T) {
	d := NewDefault()
	result, err := d.IsValidEmail(testContext(), "person@gmail.com", EmailOptions{
		Block: []EmailReasonKind{EmailReasonDisposable},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if containsReason(result.Blocked, EmailReasonFreeProvider) {
		t.Errorf("FREE should have been filtered out by Block list, got %v", result.Blocked)
	}
}

func TestIsValidEmailRequireTopLevelDomain(t *testing.T) {
	d := NewDefault()
	result, err := d.IsValidEmail(testContext(), "person@localhost", EmailOptions{RequireTopLevelDomain: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Validity != EmailInvalid {
		t.Errorf("expected invalid for missing TLD, got %v", result.Validity)
	}
}

func TestIsValidEmailSkipsNetworkChecksWhenNotRequested(t *testing.T) {
	d := NewDefault()
	// example.com has no MX records and no Gravatar, but neither
	// reason is named in Block, so IsValidEmail must not run those
	// checks (and therefore must not deny on their account).
	result, err := d.IsValidEmail(testContext(), "person@example.com", EmailOptions{
		Block: []EmailReasonKind{EmailReasonDisposable},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Validity != EmailValid {
		t.Errorf("expected valid since MX/Gravatar weren't requested, got %v blocked=%v", result.Validity, result.Blocked)
	}
}

func TestDetectSensitiveInfoEmail(t *testing.T) {
	d := NewDefault()
	result, err := d.DetectSensitiveInfo(testContext(), "contact me at person@example.com please", []EntityKind{EntityEmail}, 5, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Denied) != 1 || result.Denied[0].Value != "person@example.com" {
		t.Errorf("expected one denied email match, got %v", result.Denied)
	}
}

func TestDetectSensitiveInfoNoMatch(t *testing.T) {
	d := NewDefault()
	result, err := d.DetectSensitiveInfo(testContext(), "nothing sensitive here", []EntityKind{EntityEmail}, 5, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Denied) != 0 {
		t.Errorf("expected no matches, got %v", result.Denied)
	}
}

func TestDetectSensitiveInfoCustomDetector(t *testing.T) {
	d := NewDefault()
	custom := func(body string) []Match {
		return []Match{{Entity: "CUSTOM", Value: "hit", Context: body}}
	}
	result, err := d.DetectSensitiveInfo(testContext(), "body", nil, 5, custom)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := false
	for _, m := range result.Denied {
		if m.Entity == "CUSTOM" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected custom match in denied, got %v", result.Denied)
	}
}

func containsReason(list []EmailReasonKind, v EmailReasonKind) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
