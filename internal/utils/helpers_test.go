package utils

import (
	"testing"
	"time"
)

func TestISTMillis(t *testing.T) {
	t.Parallel()

	// 2024-01-01T00:00:00Z is 05:30 IST; the stored value reads as IST
	// when interpreted as UTC.
	utc := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	got := ISTMillis(utc)
	want := utc.UnixMilli() + 19_800_000
	if got != want {
		t.Fatalf("ISTMillis = %d, want %d", got, want)
	}

	asUTC := time.UnixMilli(got).UTC()
	if asUTC.Hour() != 5 || asUTC.Minute() != 30 {
		t.Fatalf("shifted value reads as %02d:%02d, want 05:30", asUTC.Hour(), asUTC.Minute())
	}
}

func TestFromISTMillisRoundTrip(t *testing.T) {
	t.Parallel()

	orig := time.Date(2025, 6, 15, 13, 45, 12, 0, time.UTC)
	if got := FromISTMillis(ISTMillis(orig)); !got.Equal(orig) {
		t.Fatalf("round trip = %v, want %v", got, orig)
	}
}
