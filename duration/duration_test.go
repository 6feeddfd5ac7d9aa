package duration

import "testing"

func TestParseIntSeconds(t *testing.T) {
	n, err := Parse(42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 42 {
		t.Errorf("expected 42, got %d", n)
	}
}

func TestParseNegativeInt(t *testing.T) {
	if _, err := Parse(-1); err == nil {
		t.Fatal("expected error for negative seconds")
	}
}

func TestParseStringSegments(t *testing.T) {
	cases := map[string]int{
		"1h30m":    5400,
		"90m":      5400,
		"1d":       86400,
		"1 h 30 m": 5400,
		"1H30M":    5400,
		"2sec":     2,
		"1min":     60,
		"1hour":    3600,
		"1day":     86400,
		"0s":       0,
	}
	for input, want := range cases {
		got, err := Parse(input)
		if err != nil {
			t.Errorf("Parse(%q) unexpected error: %v", input, err)
			continue
		}
		if got != want {
			t.Errorf("Parse(%q) = %d, want %d", input, got, want)
		}
	}
}

func TestParseMillisRoundsHalfUp(t *testing.T) {
	got, err := Parse("1500ms")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 2 {
		t.Errorf("expected 1500ms to round to 2s, got %d", got)
	}

	got, err = Parse("1499ms")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 1 {
		t.Errorf("expected 1499ms to round to 1s, got %d", got)
	}
}

func TestParseAdditive(t *testing.T) {
	got, err := Parse("1h1m1s")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 3661 {
		t.Errorf("expected 3661, got %d", got)
	}
}

func TestParseErrors(t *testing.T) {
	inputs := []string{"", "   ", "-5s", "5x", "abc", "5"}
	for _, in := range inputs {
		if in == "5" {
			// a bare positive integer string is valid (seconds)
			if _, err := Parse(in); err != nil {
				t.Errorf("Parse(%q) unexpected error: %v", in, err)
			}
			continue
		}
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q) expected error, got none", in)
		}
	}
}

func TestParseOverflow(t *testing.T) {
	if _, err := Parse("999999999999d"); err == nil {
		t.Fatal("expected overflow error")
	}
}

func TestRoundTripInt(t *testing.T) {
	for _, n := range []int{0, 1, 60, 3600, 86400} {
		got, err := Parse(n)
		if err != nil {
			t.Fatalf("Parse(%d) unexpected error: %v", n, err)
		}
		if got != n {
			t.Errorf("Parse(%d) = %d, want %d", n, got, n)
		}
	}
}

func TestRoundTripFormat(t *testing.T) {
	for _, n := range []int{0, 1, 60, 3600, 86400, 12345} {
		got, err := Parse(Format(n))
		if err != nil {
			t.Fatalf("Parse(Format(%d)) unexpected error: %v", n, err)
		}
		if got != n {
			t.Errorf("Parse(Format(%d)) = %d, want %d", n, got, n)
		}
	}
}
