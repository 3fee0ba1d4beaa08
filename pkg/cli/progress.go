package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// ProgressReporter shows live progress while a command does bulk work. The
// bench command drives one with the number of requests fired so far.
type ProgressReporter interface {
	// Start begins reporting. total is the expected number of items; zero
	// or negative means the total is unknown and only the count and rate
	// are shown.
	Start(total int64)

	// Update redraws the line with the current item count.
	Update(current int64)

	// Finish ends the line, leaving the final counts on screen.
	Finish()
}

// barProgress renders an in-place text bar with a live request rate.
type barProgress struct {
	mu      sync.Mutex
	total   int64
	current int64
	started time.Time
	w       io.Writer
}

// NewProgressReporter returns a reporter writing to w, or os.Stdout when w
// is nil. Safe for concurrent Update calls.
func NewProgressReporter(w io.Writer) ProgressReporter {
	if w == nil {
		w = os.Stdout
	}
	return &barProgress{w: w}
}

func (p *barProgress) Start(total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.total = total
	p.current = 0
	p.started = time.Now()
	p.render()
}

func (p *barProgress) Update(current int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = current
	p.render()
}

func (p *barProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.render()
	fmt.Fprintln(p.w)
}

const barWidth = 30

func (p *barProgress) render() {
	rate := 0.0
	if elapsed := time.Since(p.started); elapsed > 0 {
		rate = float64(p.current) / elapsed.Seconds()
	}

	if p.total <= 0 {
		fmt.Fprintf(p.w, "\r%d requests, %.1f req/s", p.current, rate)
		return
	}

	// A paced run can land a little over or under its estimated total.
	percent := float64(p.current) / float64(p.total) * 100
	if percent > 100 {
		percent = 100
	}

	filled := int(float64(barWidth) * percent / 100)
	bar := strings.Repeat("=", filled) + strings.Repeat(" ", barWidth-filled)

	fmt.Fprintf(p.w, "\r[%s] %3.0f%% (%d/%d) %.1f req/s",
		bar, percent, p.current, p.total, rate)
}
