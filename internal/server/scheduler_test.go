package server

import (
	"testing"
	"time"
)

func TestIsDueNeverRan(t *testing.T) {
	if !isDue("@daily", nil) {
		t.Fatal("a schedule that never ran is due")
	}
	if !isDue("0 * * * *", nil) {
		t.Fatal("cron schedule that never ran is due")
	}
}

func TestIsDueDaily(t *testing.T) {
	recent := time.Now().Add(-1 * time.Hour)
	if isDue("@daily", &recent) {
		t.Fatal("daily schedule ran an hour ago, not due")
	}
	old := time.Now().Add(-25 * time.Hour)
	if !isDue("@daily", &old) {
		t.Fatal("daily schedule ran 25h ago, due")
	}
}

func TestIsDueCronExpression(t *testing.T) {
	old := time.Now().Add(-2 * time.Hour)
	if !isDue("0 * * * *", &old) {
		t.Fatal("hourly cron last ran 2h ago, due")
	}
	justNow := time.Now()
	if isDue("0 * * * *", &justNow) {
		t.Fatal("hourly cron just ran, not due")
	}
}

func TestIsDueInvalidExpressionFallsBack(t *testing.T) {
	recent := time.Now().Add(-time.Hour)
	if isDue("not a cron", &recent) {
		t.Fatal("invalid cron falls back to daily; 1h ago is not due")
	}
}
