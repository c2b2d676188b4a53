// Package progress renders transfer progress on a terminal. The CLI send
// command drives it from the engine's event stream.
package progress

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Reporter receives progress for one transfer at a time.
type Reporter interface {
	Start(total int64, description string)
	Update(current int64)
	Finish()
	Error(err error)
	SetDescription(desc string)
}

// Bar is a Reporter drawing a progressbar on stderr, keeping stdout clean
// for pipeable output.
type Bar struct {
	bar *progressbar.ProgressBar
}

// NewBar creates an idle bar; nothing is drawn until Start.
func NewBar() *Bar {
	return &Bar{}
}

// Start initializes the bar with the transfer's total size.
func (b *Bar) Start(total int64, description string) {
	b.bar = progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(50),
		progressbar.OptionThrottle(100),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// Update moves the bar to an absolute position.
func (b *Bar) Update(current int64) {
	if b.bar != nil {
		_ = b.bar.Set64(current)
	}
}

// Finish completes the bar.
func (b *Bar) Finish() {
	if b.bar != nil {
		_ = b.bar.Finish()
	}
}

// Error prints an error below the bar.
func (b *Bar) Error(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "\nError: %v\n", err)
	}
}

// SetDescription relabels the bar, used when the current file changes.
func (b *Bar) SetDescription(desc string) {
	if b.bar != nil {
		b.bar.Describe(desc)
	}
}

// Quiet is a Reporter that discards everything, for --quiet runs.
type Quiet struct{}

func (Quiet) Start(int64, string)  {}
func (Quiet) Update(int64)         {}
func (Quiet) Finish()              {}
func (Quiet) Error(err error)      {}
func (Quiet) SetDescription(string) {}
