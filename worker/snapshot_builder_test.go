package worker

import (
	"testing"
	"time"
)

func TestPeriodKey(t *testing.T) {
	ts := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)

	if got := periodKey("daily", ts); got != "2026-01-02" {
		t.Errorf("daily period = %q", got)
	}
	if got := periodKey("weekly", ts); got != "2026-W01" {
		t.Errorf("weekly period = %q", got)
	}
	// unknown frequencies behave like daily
	if got := periodKey("hourly", ts); got != "2026-01-02" {
		t.Errorf("fallback period = %q", got)
	}
}

func TestPeriodKeyWeekBoundary(t *testing.T) {
	// 2026-12-31 falls in ISO week 53 of 2026
	if got := periodKey("weekly", time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)); got != "2026-W53" {
		t.Errorf("year-end week = %q", got)
	}
	// sunday closes the same ISO week its monday opened
	mon := periodKey("weekly", time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
	sun := periodKey("weekly", time.Date(2026, 3, 8, 23, 59, 0, 0, time.UTC))
	if mon != sun {
		t.Errorf("monday %q and sunday %q should share a period", mon, sun)
	}
}

func TestMarkerTTL(t *testing.T) {
	if got := markerTTL("weekly"); got != 14*24*time.Hour {
		t.Errorf("weekly ttl = %v", got)
	}
	if got := markerTTL("daily"); got != 3*24*time.Hour {
		t.Errorf("daily ttl = %v", got)
	}
}
