// Package generate renders a tree of templates against a Fact Model into an
// output tree, preserving manual sections of previously generated files.
package generate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/mvp-joe/cyagen/internal/facts"
	"github.com/mvp-joe/cyagen/internal/render"
)

// DefaultJinjaExtensions select the Jinja backend and are removed from output
// file names.
var DefaultJinjaExtensions = []string{".tera", ".j2", ".njk"}

// ProgressReporter reports progress while a template tree is generated.
type ProgressReporter interface {
	OnGenerateStart(total int)
	OnFileRendered(done, total int, outputPath string)
	OnGenerateComplete(stats Stats, duration time.Duration)
}

// Stats summarizes one generation run.
type Stats struct {
	Rendered int // output files written
	Merged   int // of which merged with an existing output
	Skipped  int // template entries matched by an ignore rule
}

// Options configures a Generator. The zero value renders every template,
// merges manual sections and uses DefaultJinjaExtensions.
type Options struct {
	JinjaExtensions []string

	// Ignore holds glob patterns of template paths, relative to the template
	// root, that are not rendered.
	Ignore []string

	// NoMerge overwrites existing outputs instead of preserving their manual
	// sections.
	NoMerge bool

	Progress ProgressReporter
	Logger   *zap.Logger
}

// Generator renders template trees.
type Generator struct {
	renderer        *render.Renderer
	jinjaExtensions []string
	ignores         []compiledPattern
	merge           bool
	progress        ProgressReporter
	logger          *zap.Logger
}

// New creates a Generator that renders with r.
func New(r *render.Renderer, opts Options) (*Generator, error) {
	ignores, err := compilePatterns(opts.Ignore)
	if err != nil {
		return nil, fmt.Errorf("invalid ignore pattern: %w", err)
	}

	g := &Generator{
		renderer:        r,
		jinjaExtensions: opts.JinjaExtensions,
		ignores:         ignores,
		merge:           !opts.NoMerge,
		progress:        opts.Progress,
		logger:          opts.Logger,
	}
	if g.jinjaExtensions == nil {
		g.jinjaExtensions = DefaultJinjaExtensions
	}
	if g.logger == nil {
		g.logger = zap.NewNop()
	}
	return g, nil
}

// Generate renders every template below templateDir into outputDir using
// m.SourceName for the @sourcename@ placeholder. The first failure aborts the
// run; the file being rendered when it happens is not written.
func (g *Generator) Generate(ctx context.Context, m *facts.Model, templateDir, outputDir string) (Stats, error) {
	startTime := time.Now()

	info, err := os.Stat(templateDir)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to read template directory %s: %w", templateDir, err)
	}
	if !info.IsDir() {
		return Stats{}, fmt.Errorf("template path %s is not a directory", templateDir)
	}

	jobs, skipped, err := g.plan(templateDir, outputDir, m.SourceName)
	stats := Stats{Skipped: skipped}
	if err != nil {
		return stats, fmt.Errorf("failed to walk template directory %s: %w", templateDir, err)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return stats, fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}

	if g.progress != nil {
		g.progress.OnGenerateStart(len(jobs))
	}

	for i, j := range jobs {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		merged, err := g.renderFile(m, j)
		if err != nil {
			return stats, err
		}
		stats.Rendered++
		if merged {
			stats.Merged++
		}

		if g.progress != nil {
			g.progress.OnFileRendered(i+1, len(jobs), j.output)
		}
	}

	if g.progress != nil {
		g.progress.OnGenerateComplete(stats, time.Since(startTime))
	}
	return stats, nil
}

// renderFile renders one template and writes its output. It reports whether
// an existing output was merged.
func (g *Generator) renderFile(m *facts.Model, j job) (bool, error) {
	data, err := os.ReadFile(j.template)
	if err != nil {
		return false, fmt.Errorf("failed to read template %s: %w", j.template, err)
	}

	var out string
	if j.jinja {
		out, err = g.renderer.RenderJinja(j.template, string(data), m, m.SourceName)
		if err != nil {
			return false, err
		}
	} else {
		out = g.renderer.Render(string(data), m, m.SourceName)
	}

	merged := false
	if g.merge {
		previous, err := os.ReadFile(j.output)
		switch {
		case err == nil:
			out = render.Merge(out, string(previous))
			merged = true
			g.logger.Debug("Merged manual sections",
				zap.String("output", j.output),
				zap.Strings("sections", render.Sections(string(previous))))
		case !errors.Is(err, os.ErrNotExist):
			return false, fmt.Errorf("failed to read previous output %s: %w", j.output, err)
		}
	}

	if err := writeFileAtomic(j.output, []byte(out)); err != nil {
		return false, err
	}
	g.logger.Debug("Rendered template",
		zap.String("template", j.template),
		zap.String("output", j.output),
		zap.Bool("jinja", j.jinja))
	return merged, nil
}
