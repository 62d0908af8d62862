// Package render turns a facts.Model into text. Two backends share the same
// model: the tag engine (@tag@ blocks and @field@ tokens) and a Jinja-syntax
// engine for templates that need loops, conditions and filters.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/flosch/pongo2/v6"
	"github.com/maypok86/otter"
	"go.uber.org/zap"

	"github.com/mvp-joe/cyagen/internal/facts"
)

// DateLayout is the @date@ format, e.g. "Wed Mar  5 14:02:10 2025".
const DateLayout = "Mon Jan _2 15:04:05 2006"

const templateCacheSize = 256

// Renderer renders templates against a Fact Model.
type Renderer struct {
	now       func() time.Time
	localTime bool
	logger    *zap.Logger
	templates otter.Cache[string, *pongo2.Template]
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithClock sets the time source used for @date@.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) {
		r.now = now
	}
}

// WithLocalTime renders @date@ in the local time zone instead of UTC.
func WithLocalTime() Option {
	return func(r *Renderer) {
		r.localTime = true
	}
}

// WithLogger sets the logger for debug output.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Renderer) {
		r.logger = logger
	}
}

// New creates a Renderer.
func New(opts ...Option) (*Renderer, error) {
	cache, err := otter.MustBuilder[string, *pongo2.Template](templateCacheSize).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create template cache: %w", err)
	}

	r := &Renderer{
		now:       time.Now,
		logger:    zap.NewNop(),
		templates: cache,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Close releases the compiled template cache.
func (r *Renderer) Close() {
	r.templates.Close()
}

// Render expands template with the tag engine. Block tags are processed in a
// fixed order (incs, static-vars, static-global-vars, static-local-vars, fncs,
// fncs0, local-fncs, ncls, ncls-once), then @sourcename@ and @date@ are
// substituted everywhere. Unterminated block tags and unknown tokens are left
// in the output unchanged. Render never fails.
func (r *Renderer) Render(template string, m *facts.Model, sourceName string) string {
	out := template
	for _, kind := range blockKinds {
		out = expandBlocks(out, kind, m)
	}

	return strings.NewReplacer(
		"@sourcename@", sourceName,
		"@date@", r.date(),
	).Replace(out)
}

func (r *Renderer) date() string {
	t := r.now()
	if !r.localTime {
		t = t.UTC()
	}
	return t.Format(DateLayout)
}
