package utils

import (
	"testing"
	"time"
)

func millisAt(hour, minute, second int) int64 {
	return time.Date(2025, 3, 10, hour, minute, second, 0, time.UTC).UnixMilli()
}

func TestInBusinessHours(t *testing.T) {
	cases := []struct {
		name   string
		millis int64
		want   bool
	}{
		{"before opening", millisAt(8, 59, 0), false},
		{"opening sharp", millisAt(9, 0, 0), true},
		{"midday", millisAt(12, 30, 0), true},
		{"closing sharp", millisAt(17, 0, 0), true},
		{"seconds past closing", millisAt(17, 0, 30), false},
		{"after closing", millisAt(17, 1, 0), false},
		{"midnight", millisAt(0, 0, 0), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := InBusinessHours(tc.millis); got != tc.want {
				t.Errorf("InBusinessHours(%d) = %v, want %v", tc.millis, got, tc.want)
			}
		})
	}
}

func TestFromEpoch(t *testing.T) {
	millis, err := FromEpoch("2025-03-10T10:00:00Z")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := FormatEpoch(millis); got != "2025-03-10T10:00:00Z" {
		t.Errorf("round trip = %q", got)
	}

	if _, err := FromEpoch("10/03/2025 10:00"); err == nil {
		t.Error("expected error for non-RFC3339 input")
	}
}

func TestSanitizeTrimsStrings(t *testing.T) {
	type payload struct {
		Comment string
		Tags    []string
		Count   int
	}

	p := &payload{Comment: "  hello  ", Tags: []string{" a ", "b"}, Count: 3}
	Sanitize(p)

	if p.Comment != "hello" {
		t.Errorf("Comment = %q", p.Comment)
	}
	if p.Tags[0] != "a" || p.Tags[1] != "b" {
		t.Errorf("Tags = %v", p.Tags)
	}
	if p.Count != 3 {
		t.Errorf("Count = %d", p.Count)
	}
}
