package progress

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"

	"github.com/dappnode/smoothing-pool-ops/internal/cli/render"
	"github.com/dappnode/smoothing-pool-ops/internal/usecase"
)

// SpinnerProgress reports steps with a spinner on terminals and with plain
// numbered lines otherwise
type SpinnerProgress struct {
	out         io.Writer
	interactive bool
	spinner     *spinner.Spinner
	startTime   time.Time
}

// NewSpinnerProgress creates a new progress reporter
func NewSpinnerProgress(out io.Writer, interactive bool) *SpinnerProgress {
	return &SpinnerProgress{
		out:         out,
		interactive: interactive,
		startTime:   time.Now(),
	}
}

// OnProgress handles progress events
func (p *SpinnerProgress) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	switch event.Stage {
	case "completed":
		p.stop()
		fmt.Fprintln(p.out, render.FormatSuccess(fmt.Sprintf("Done in %s", time.Since(p.startTime).Round(time.Millisecond))))
		return
	case "failed":
		p.stop()
		return
	}

	if !p.interactive {
		if event.Message == "" {
			return
		}
		if event.Total > 0 {
			fmt.Fprintf(p.out, "[%d/%d] %s\n", event.Current, event.Total, event.Message)
		} else {
			fmt.Fprintln(p.out, event.Message)
		}
		return
	}

	if !event.Spinner {
		p.stop()
		return
	}

	if p.spinner == nil {
		p.spinner = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		p.spinner.Writer = p.out
		_ = p.spinner.Color("cyan", "bold")
	}
	suffix := " " + event.Message
	if event.Total > 0 {
		suffix = fmt.Sprintf(" [%d/%d] %s", event.Current, event.Total, event.Message)
	}
	p.spinner.Suffix = suffix
	if !p.spinner.Active() {
		p.spinner.Start()
	}
}

// Info prints an info message
func (p *SpinnerProgress) Info(message string) {
	p.pause(func() {
		color.New(color.FgCyan).Fprintln(p.out, message)
	})
}

// Error prints an error message
func (p *SpinnerProgress) Error(message string) {
	p.pause(func() {
		fmt.Fprintln(p.out, render.FormatError(message))
	})
}

// pause stops the spinner while fn writes and restarts it afterwards
func (p *SpinnerProgress) pause(fn func()) {
	wasActive := p.spinner != nil && p.spinner.Active()
	if wasActive {
		p.spinner.Stop()
	}
	fn()
	if wasActive {
		p.spinner.Start()
	}
}

func (p *SpinnerProgress) stop() {
	if p.spinner != nil && p.spinner.Active() {
		p.spinner.Stop()
	}
}

// Ensure SpinnerProgress implements ProgressSink
var _ usecase.ProgressSink = (*SpinnerProgress)(nil)
