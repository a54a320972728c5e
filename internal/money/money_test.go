package money

import (
	"errors"
	"testing"
)

func TestParseMinor(t *testing.T) {
	cases := []struct {
		input string
		want  int64
	}{
		{"15.46", 1546},
		{"5", 500},
		{"5.0", 500},
		{"0.01", 1},
		{"1000.00", 100000},
		{".5", 50},
		{"+2.50", 250},
		{"-3.25", -325},
	}
	for _, tc := range cases {
		got, err := ParseMinor(tc.input)
		if err != nil {
			t.Fatalf("ParseMinor(%q): unexpected error: %v", tc.input, err)
		}
		if got != tc.want {
			t.Fatalf("ParseMinor(%q) = %d, want %d", tc.input, got, tc.want)
		}
	}
}

func TestParseMinorRejectsGarbage(t *testing.T) {
	for _, input := range []string{"", "  ", "abc", "1,50", "1.2.3", "1e5", "--1"} {
		if _, err := ParseMinor(input); err == nil {
			t.Fatalf("ParseMinor(%q): expected error", input)
		}
	}
}

func TestParseMinorRejectsTooManyDecimals(t *testing.T) {
	_, err := ParseMinor("1.505")
	if !errors.Is(err, ErrTooManyDecimals) {
		t.Fatalf("expected ErrTooManyDecimals, got %v", err)
	}
}

func TestFormatMinor(t *testing.T) {
	cases := []struct {
		input int64
		want  string
	}{
		{1546, "15.46"},
		{500, "5.00"},
		{1, "0.01"},
		{0, "0.00"},
		{100000, "1000.00"},
		{-325, "-3.25"},
	}
	for _, tc := range cases {
		if got := FormatMinor(tc.input); got != tc.want {
			t.Fatalf("FormatMinor(%d) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	for _, value := range []int64{0, 1, 99, 100, 1546, 100000} {
		parsed, err := ParseMinor(FormatMinor(value))
		if err != nil {
			t.Fatalf("round trip %d: %v", value, err)
		}
		if parsed != value {
			t.Fatalf("round trip %d: got %d", value, parsed)
		}
	}
}
