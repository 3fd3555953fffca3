package pagination

import (
	"testing"
	"time"
)

func TestClampPageSize(t *testing.T) {
	cfg := PageSizeConfig{Default: 20, Max: 100}
	tests := []struct {
		in   int
		want int
	}{
		{in: 0, want: 20},
		{in: -3, want: 20},
		{in: 5, want: 5},
		{in: 500, want: 100},
	}
	for _, tt := range tests {
		if got := ClampPageSize(tt.in, cfg); got != tt.want {
			t.Fatalf("ClampPageSize(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
	if got := ClampPageSize(0, PageSizeConfig{}); got != 1 {
		t.Fatalf("zero config page size = %d, want 1", got)
	}
}

func TestCursorRoundTrip(t *testing.T) {
	in := Cursor{CreatedAt: time.Date(2026, time.March, 4, 10, 30, 0, 0, time.UTC), ID: "mission-7"}
	got, err := DecodeCursor(EncodeCursor(in))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.CreatedAt.Equal(in.CreatedAt) || got.ID != in.ID {
		t.Fatalf("cursor = %+v, want %+v", got, in)
	}
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	for _, token := range []string{"", "!!!", "bm8tc2VwYXJhdG9y", "YWJjfA"} {
		if _, err := DecodeCursor(token); err == nil {
			t.Fatalf("expected error for %q", token)
		}
	}
}
