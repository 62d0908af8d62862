package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/mvp-joe/cyagen/internal/generate"
)

// CLIProgressReporter implements generate.ProgressReporter with a progress bar.
type CLIProgressReporter struct {
	out     io.Writer
	quiet   bool
	fileBar *progressbar.ProgressBar
}

// NewCLIProgressReporter creates a new CLI progress reporter writing to out.
func NewCLIProgressReporter(out io.Writer, quiet bool) *CLIProgressReporter {
	return &CLIProgressReporter{
		out:   out,
		quiet: quiet,
	}
}

func (c *CLIProgressReporter) OnGenerateStart(total int) {
	if c.quiet {
		return
	}

	c.fileBar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(c.out),
		progressbar.OptionSetDescription("rendering"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(c.out)
		}),
	)
}

func (c *CLIProgressReporter) OnFileRendered(done, total int, outputPath string) {
	if c.quiet || c.fileBar == nil {
		return
	}
	c.fileBar.Describe("rendering " + filepath.Base(outputPath))
	_ = c.fileBar.Set(done)
}

func (c *CLIProgressReporter) OnGenerateComplete(stats generate.Stats, duration time.Duration) {
	if c.quiet {
		return
	}
	if c.fileBar != nil {
		_ = c.fileBar.Finish()
		c.fileBar = nil
	}

	fmt.Fprintf(c.out, "done! %d files rendered in %.1fs\n", stats.Rendered, duration.Seconds())
	if stats.Merged > 0 {
		fmt.Fprintf(c.out, "  Manual sections merged: %d\n", stats.Merged)
	}
	if stats.Skipped > 0 {
		fmt.Fprintf(c.out, "  Ignored:                %d\n", stats.Skipped)
	}
}
