package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeRFC1123Z(t *testing.T) {
	got, ok := ParseTime("Thu, 10 Oct 2024 10:10:10 +0200")
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Hour() != 8 {
		t.Fatalf("unexpected hour %d", got.UTC().Hour())
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	got := ParseTimeDefault("", def)
	if !got.Equal(def) {
		t.Fatalf("expected default")
	}
	got = ParseTimeDefault("not a date", def)
	if !got.Equal(def) {
		t.Fatalf("expected default for garbage")
	}
}

func TestFromEpoch(t *testing.T) {
	if _, ok := FromEpoch(0); ok {
		t.Fatalf("zero epoch must not parse")
	}
	got, ok := FromEpoch(1700000000)
	if !ok || got.Location() != time.UTC {
		t.Fatalf("unexpected %v %v", got, ok)
	}
}

func TestAddUTCDaysCrossesMidnight(t *testing.T) {
	now := time.Date(2024, 3, 10, 23, 59, 59, 0, time.UTC)
	if got := AddUTCDays(now, 1); got != "2024-03-11" {
		t.Fatalf("tomorrow = %s", got)
	}
	if got := AddUTCDays(now, -1); got != "2024-03-09" {
		t.Fatalf("yesterday = %s", got)
	}
	// non-UTC input is normalised first
	loc := time.FixedZone("x", -5*3600)
	late := time.Date(2024, 3, 10, 22, 0, 0, 0, loc) // 03:00 UTC on the 11th
	if got := AddUTCDays(late, 0); got != "2024-03-11" {
		t.Fatalf("today = %s", got)
	}
}
