package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/gobwas/glob"

	"github.com/mvp-joe/cyagen/internal/facts"
)

var (
	// ErrInvalidCallPolicy indicates an unsupported parser.call_policy
	ErrInvalidCallPolicy = errors.New("invalid call policy")

	// ErrInvalidAttribution indicates an unsupported parser.attribution
	ErrInvalidAttribution = errors.New("invalid attribution")

	// ErrInvalidMacroName indicates a macro name that is not a C identifier
	ErrInvalidMacroName = errors.New("invalid macro name")

	// ErrInvalidExtension indicates a Jinja extension without a leading dot
	ErrInvalidExtension = errors.New("invalid template extension")

	// ErrInvalidIgnorePattern indicates an ignore glob that does not compile
	ErrInvalidIgnorePattern = errors.New("invalid ignore pattern")

	// ErrInvalidFormat indicates an unsupported structured export format
	ErrInvalidFormat = errors.New("invalid output format")

	// ErrInvalidDebounce indicates a negative watch debounce
	ErrInvalidDebounce = errors.New("invalid debounce")
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_]\w*$`)

// Validate checks that the configuration is valid and complete. All problems
// are reported together.
func Validate(cfg *Config) error {
	var errs []error

	errs = append(errs, validateParser(&cfg.Parser)...)
	errs = append(errs, validateTemplates(&cfg.Templates)...)

	if _, err := facts.ParseFormat(cfg.Output.Format); err != nil {
		errs = append(errs, fmt.Errorf("%w: must be 'json' or 'yaml', got '%s'", ErrInvalidFormat, cfg.Output.Format))
	}

	if cfg.Watch.DebounceMS < 0 {
		errs = append(errs, fmt.Errorf("%w: debounce_ms cannot be negative, got %d", ErrInvalidDebounce, cfg.Watch.DebounceMS))
	}

	return errors.Join(errs...)
}

func validateParser(cfg *ParserConfig) []error {
	var errs []error

	if !identifierPattern.MatchString(cfg.LocalStaticVarMacroName) {
		errs = append(errs, fmt.Errorf("%w: '%s' is not an identifier", ErrInvalidMacroName, cfg.LocalStaticVarMacroName))
	}

	switch cfg.CallPolicy {
	case CallPolicyTextual, CallPolicyIdentifier, CallPolicySyntax:
	default:
		errs = append(errs, fmt.Errorf("%w: must be 'textual', 'identifier' or 'syntax', got '%s'", ErrInvalidCallPolicy, cfg.CallPolicy))
	}

	switch cfg.Attribution {
	case AttributionFirstOccurrence, AttributionPosition:
	default:
		errs = append(errs, fmt.Errorf("%w: must be 'first-occurrence' or 'position', got '%s'", ErrInvalidAttribution, cfg.Attribution))
	}

	return errs
}

func validateTemplates(cfg *TemplatesConfig) []error {
	var errs []error

	for _, ext := range cfg.JinjaExtensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			errs = append(errs, fmt.Errorf("%w: '%s' must start with '.'", ErrInvalidExtension, ext))
		}
	}

	for _, pattern := range cfg.Ignore {
		if _, err := glob.Compile(pattern, '/'); err != nil {
			errs = append(errs, fmt.Errorf("%w: '%s': %v", ErrInvalidIgnorePattern, pattern, err))
		}
	}

	return errs
}
