package ui

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Progress reports completion of a fixed number of steps.
type Progress struct {
	out     io.Writer
	palette *Palette
	total   int
	done    int
	mu      sync.Mutex
}

// NewProgress creates a progress tracker for n steps. A nil palette renders
// plain text.
func NewProgress(out io.Writer, p *Palette, total int) *Progress {
	if p == nil {
		p = NewPalette(out, ColorNever)
	}
	return &Progress{out: out, palette: p, total: total}
}

// Done marks one step as finished and prints its outcome. A zero elapsed
// time is omitted.
func (p *Progress) Done(label string, err error, elapsed time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++
	mark := p.palette.OK("ok")
	if err != nil {
		mark = p.palette.Error("FAILED")
	}
	line := fmt.Sprintf("[%d/%d] %s %s", p.done, p.total, mark, label)
	if elapsed > 0 {
		line += " " + p.palette.Muted("("+elapsed.Round(time.Millisecond).String()+")")
	}
	_, _ = fmt.Fprintln(p.out, line)
}

// Log prints an informational message within the progress context.
func (p *Progress) Log(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintf(p.out, format+"\n", args...)
}
