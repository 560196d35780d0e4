package main

import (
	"io"
	"os"

	"github.com/RyanBlaney/pitchrange/pitchrange"
	"github.com/mattn/go-isatty"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// progress draws one bar per analyzed file. It is a no-op when disabled or when
// out is not a terminal.
type progress struct {
	enabled bool
	out     io.Writer
	p       *mpb.Progress
}

func newProgress(enabled bool, out io.Writer) *progress {
	if f, ok := out.(*os.File); !ok || !isatty.IsTerminal(f.Fd()) {
		enabled = false
	}
	return &progress{enabled: enabled, out: out}
}

// AddBar starts a bar for one file
func (pr *progress) AddBar(name string) *bar {
	if !pr.enabled {
		return &bar{}
	}
	if pr.p == nil {
		pr.p = mpb.New(mpb.WithOutput(pr.out), mpb.WithWidth(48))
	}

	b := pr.p.AddBar(0,
		mpb.PrependDecorators(
			decor.Name(name+" ", decor.WCSyncSpaceR),
			decor.CountersNoUnit("%d / %d frames"),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
			decor.Elapsed(decor.ET_STYLE_GO, decor.WCSyncSpace),
		),
	)
	return &bar{b: b}
}

// Wait flushes the bars drawn so far. A later AddBar starts a new container.
func (pr *progress) Wait() {
	if pr.p != nil {
		pr.p.Wait()
		pr.p = nil
	}
}

type bar struct {
	b *mpb.Bar
}

// Update matches pitchrange.WithProgress
func (b *bar) Update(done, total int) {
	if b.b == nil {
		return
	}
	b.b.SetTotal(int64(total), false)
	b.b.SetCurrent(int64(done))
}

// Finish matches pitchrange.WithCompletion
func (b *bar) Finish(_ *pitchrange.Report, err error) {
	if b.b == nil {
		return
	}
	if err != nil {
		b.b.Abort(false)
		return
	}
	b.b.SetTotal(-1, true)
}
