package core

import (
	"strings"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"1,2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestParseSignedAmount(t *testing.T) {
	got, err := ParseSignedAmount("-12,5")
	if err != nil || got != -1250 {
		t.Fatalf("expected -1250, got %d (err=%v)", got, err)
	}
}

func TestFormatAmount(t *testing.T) {
	if got := FormatAmount(1234, "usd"); !strings.Contains(got, "12.34") || !strings.Contains(got, "$") {
		t.Fatalf("unexpected USD formatting: %q", got)
	}
	if got := FormatAmount(-500, "EUR"); !strings.Contains(got, "5") || !strings.Contains(got, "-") {
		t.Fatalf("unexpected EUR formatting: %q", got)
	}
	if got := FormatAmount(1234, "ZZZ"); got != "12.34 ZZZ" {
		t.Fatalf("unexpected fallback formatting: %q", got)
	}
	if got := AmountDecimal(1050).String(); got != "10.5" {
		t.Fatalf("unexpected decimal: %q", got)
	}
}
