package util

import (
	"fmt"
	"sync"
	"time"
)

// Progress tracks completed, failed and total work items of a batch and
// estimates the remaining time from the average duration so far.
type Progress struct {
	mu        sync.Mutex
	total     int
	completed int
	failed    int
	started   time.Time
	now       func() time.Time
}

type ProgressSnapshot struct {
	Step          string
	Percentage    int32
	TimeRemaining time.Duration
}

func NewProgress(total int) *Progress {
	return &Progress{total: total, started: time.Now(), now: time.Now}
}

// Done records one finished item and returns the current snapshot.
func (p *Progress) Done(failed bool) ProgressSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	if failed {
		p.failed++
	} else {
		p.completed++
	}
	return p.snapshot()
}

func (p *Progress) Snapshot() ProgressSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot()
}

func (p *Progress) snapshot() ProgressSnapshot {
	done := p.completed + p.failed
	s := ProgressSnapshot{Step: fmt.Sprintf("%d/%d", done, p.total)}
	if p.total <= 0 {
		return s
	}
	s.Percentage = int32(min(done, p.total) * 100 / p.total)
	if done > 0 && done < p.total {
		avg := p.now().Sub(p.started) / time.Duration(done)
		s.TimeRemaining = avg * time.Duration(p.total-done)
	}
	return s
}
