package util

import (
	"testing"
	"time"
)

func TestProgress(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p := NewProgress(4)
	p.started = start
	p.now = func() time.Time { return start.Add(2 * time.Second) }

	s := p.Done(false)
	if s.Step != "1/4" || s.Percentage != 25 {
		t.Fatalf("unexpected snapshot %+v", s)
	}
	if s.TimeRemaining != 6*time.Second {
		t.Fatalf("expected 6s remaining, got %v", s.TimeRemaining)
	}

	p.Done(true)
	p.Done(false)
	s = p.Done(false)
	if s.Step != "4/4" || s.Percentage != 100 || s.TimeRemaining != 0 {
		t.Fatalf("unexpected final snapshot %+v", s)
	}
}

func TestProgress_EmptyBatch(t *testing.T) {
	s := NewProgress(0).Snapshot()
	if s.Step != "0/0" || s.Percentage != 0 {
		t.Fatalf("unexpected snapshot %+v", s)
	}
}
