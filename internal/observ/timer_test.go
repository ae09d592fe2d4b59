package observ

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestTimerReport(t *testing.T) {
	tm := NewTimer()
	idx := tm.Begin("open")
	tm.phases[idx].Start = time.Now().Add(-5 * time.Millisecond)
	tm.End(idx, "2 inputs")
	tm.End(42, "ignored")
	if err := tm.Track("merge", func() error { return errors.New("boom") }); err == nil {
		t.Fatalf("Track swallowed the error")
	}

	report := tm.Report()
	if len(report.Phases) != 2 {
		t.Fatalf("phases = %d", len(report.Phases))
	}
	if report.Phases[0].Note != "2 inputs" || report.Phases[1].Note != "error" {
		t.Fatalf("notes = %+v", report.Phases)
	}
	if report.Phases[0].DurationMS < 5 || report.TotalMS < report.Phases[0].DurationMS {
		t.Fatalf("durations = %+v", report)
	}
}

func TestSummaryAlignsWideNames(t *testing.T) {
	tm := NewTimer()
	tm.End(tm.Begin("open:入力"), "")
	tm.End(tm.Begin("save"), "")
	lines := strings.Split(strings.TrimSuffix(tm.Summary(), "\n"), "\n")
	if len(lines) != 4 || lines[0] != "timings:" {
		t.Fatalf("summary:\n%s", tm.Summary())
	}
	// "open:入力" is 9 columns wide, so "save" and "total" are padded to 9.
	if !strings.HasPrefix(lines[2], "  save      ") || !strings.HasPrefix(lines[3], "  total     ") {
		t.Fatalf("names not padded:\n%s", tm.Summary())
	}
}

func TestEmptyTimer(t *testing.T) {
	if r := NewTimer().Report(); r.TotalMS != 0 || len(r.Phases) != 0 {
		t.Fatalf("report = %+v", r)
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{1500*time.Millisecond + 700*time.Microsecond, "1.5s"},
		{2*time.Second + 345*time.Millisecond, "2.345s"},
		{time.Second, "1000ms"},
		{12*time.Millisecond + 900*time.Microsecond, "12ms"},
		{999 * time.Microsecond, "999us"},
		{0, "0s"},
	}
	for _, tt := range tests {
		if got := FormatElapsed(tt.d); got != tt.want {
			t.Errorf("FormatElapsed(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
