// Package config loads cyagen settings.
//
// Settings come from three layers, highest priority first:
//  1. Environment variables (CYAGEN_*, nested keys joined with "_")
//  2. Project file (.cyagen.yaml or .cyagen.yml in the working directory,
//     or the file passed with --config)
//  3. User file (~/.cyagen/config.yaml)
//
// and finally the built-in defaults. Command line flags override the result.
package config

import (
	"time"

	"go.uber.org/zap"

	"github.com/mvp-joe/cyagen/internal/facts"
	"github.com/mvp-joe/cyagen/internal/generate"
	"github.com/mvp-joe/cyagen/internal/parser"
)

// Call policy names accepted by parser.call_policy.
const (
	CallPolicyTextual    = "textual"
	CallPolicyIdentifier = "identifier"
	CallPolicySyntax     = "syntax"
)

// Attribution names accepted by parser.attribution.
const (
	AttributionFirstOccurrence = "first-occurrence"
	AttributionPosition        = "position"
)

// Config represents the complete cyagen configuration.
type Config struct {
	Parser    ParserConfig    `yaml:"parser" mapstructure:"parser"`
	Templates TemplatesConfig `yaml:"templates" mapstructure:"templates"`
	Output    OutputConfig    `yaml:"output" mapstructure:"output"`
	Render    RenderConfig    `yaml:"render" mapstructure:"render"`
	Watch     WatchConfig     `yaml:"watch" mapstructure:"watch"`
}

// ParserConfig configures fact extraction.
type ParserConfig struct {
	LocalStaticVarMacroName string `yaml:"local_static_var_macro_name" mapstructure:"local_static_var_macro_name"`
	CallPolicy              string `yaml:"call_policy" mapstructure:"call_policy"` // textual, identifier or syntax
	Attribution             string `yaml:"attribution" mapstructure:"attribution"` // first-occurrence or position
}

// TemplatesConfig configures template discovery.
type TemplatesConfig struct {
	JinjaExtensions []string `yaml:"jinja_extensions" mapstructure:"jinja_extensions"`
	Ignore          []string `yaml:"ignore" mapstructure:"ignore"` // glob patterns relative to the template dir
}

// OutputConfig configures how results are written.
type OutputConfig struct {
	MergeManualSections bool   `yaml:"merge_manual_sections" mapstructure:"merge_manual_sections"`
	Format              string `yaml:"format" mapstructure:"format"` // structured export: json or yaml
}

// RenderConfig configures the tag engine.
type RenderConfig struct {
	UTC bool `yaml:"utc" mapstructure:"utc"` // render @date@ in UTC
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	DebounceMS int `yaml:"debounce_ms" mapstructure:"debounce_ms"`
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Parser: ParserConfig{
			LocalStaticVarMacroName: facts.DefaultLocalStaticVarMacroName,
			CallPolicy:              CallPolicyTextual,
			Attribution:             AttributionFirstOccurrence,
		},
		Templates: TemplatesConfig{
			JinjaExtensions: append([]string(nil), generate.DefaultJinjaExtensions...),
			Ignore:          []string{},
		},
		Output: OutputConfig{
			MergeManualSections: true,
			Format:              string(facts.FormatJSON),
		},
		Render: RenderConfig{
			UTC: true,
		},
		Watch: WatchConfig{
			DebounceMS: 500,
		},
	}
}

// ParserOptions maps the parser settings onto parser.Options. The config
// must have passed Validate.
func (c *Config) ParserOptions(logger *zap.Logger) parser.Options {
	opts := parser.Options{
		MacroName: c.Parser.LocalStaticVarMacroName,
		Logger:    logger,
	}

	switch c.Parser.CallPolicy {
	case CallPolicyIdentifier:
		opts.Callable = parser.IdentifierBoundary
	case CallPolicySyntax:
		opts.Callable = parser.SyntaxAware()
	default:
		opts.Callable = parser.TextualContainment
	}

	if c.Parser.Attribution == AttributionPosition {
		opts.Attribution = parser.ByPosition
	}
	return opts
}

// GenerateOptions maps the template and output settings onto generate.Options.
func (c *Config) GenerateOptions(logger *zap.Logger, progress generate.ProgressReporter) generate.Options {
	return generate.Options{
		JinjaExtensions: c.Templates.JinjaExtensions,
		Ignore:          c.Templates.Ignore,
		NoMerge:         !c.Output.MergeManualSections,
		Progress:        progress,
		Logger:          logger,
	}
}

// Debounce returns the watch debounce period.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Watch.DebounceMS) * time.Millisecond
}
