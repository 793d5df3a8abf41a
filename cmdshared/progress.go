package cmdshared

import (
	"os"
	"sync"

	"github.com/packwiz/launchwiz/core"
	"github.com/vbauerster/mpb/v4"
	"github.com/vbauerster/mpb/v4/decor"
)

// ProgressBar renders the download progress of an installation as one bar of bytes. Totals are
// learned as files start, so the bar grows while the installation discovers more files.
type ProgressBar struct {
	mu      sync.Mutex
	p       *mpb.Progress
	bar     *mpb.Bar
	done    map[string]int64
	totals  map[string]int64
	total   int64
	current int64
}

// NewProgressBar creates a progress bar on stderr
func NewProgressBar(name string) *ProgressBar {
	p := mpb.New(mpb.WithWidth(40), mpb.WithOutput(os.Stderr))
	bar := p.AddBar(0,
		mpb.PrependDecorators(
			decor.Name(name, decor.WC{W: len(name) + 1, C: decor.DidentRight}),
			decor.CountersKibiByte("% .1f / % .1f"),
		),
		mpb.AppendDecorators(decor.Percentage()),
	)
	return &ProgressBar{
		p:      p,
		bar:    bar,
		done:   make(map[string]int64),
		totals: make(map[string]int64),
	}
}

// Update records a progress event; it can be used as core.Downloader.Progress
func (b *ProgressBar) Update(ev core.ProgressEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.totals[ev.ID]; !ok && ev.Total > 0 {
		b.totals[ev.ID] = ev.Total
		b.total += ev.Total
		b.bar.SetTotal(b.total, false)
	}
	// A retried download starts again from its resume offset, which can be lower
	b.current += ev.Done - b.done[ev.ID]
	b.done[ev.ID] = ev.Done
	b.bar.SetCurrent(b.current)
}

// Wait completes the bar and waits for it to be drawn
func (b *ProgressBar) Wait() {
	b.mu.Lock()
	b.bar.SetTotal(b.current, true)
	b.mu.Unlock()
	b.p.Wait()
}
