package render

import (
	"errors"
	"fmt"

	"github.com/flosch/pongo2/v6"
	"go.uber.org/zap"

	"github.com/mvp-joe/cyagen/internal/facts"
	"github.com/mvp-joe/cyagen/internal/ids"
)

// ErrRender matches every RenderError.
var ErrRender = errors.New("render failed")

// RenderError reports a failure of the Jinja backend. No partial output is
// produced when it is returned.
type RenderError struct {
	Template string
	Err      error
}

func (e *RenderError) Error() string {
	if e.Template == "" {
		return fmt.Sprintf("render failed: %v", e.Err)
	}
	return fmt.Sprintf("render %s failed: %v", e.Template, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Is reports whether target is ErrRender.
func (e *RenderError) Is(target error) bool { return target == ErrRender }

func init() {
	// Generated files are source code, not HTML.
	pongo2.SetAutoescape(false)
	if err := pongo2.RegisterFilter("generateUUID", filterGenerateUUID); err != nil {
		panic(err)
	}
	if err := pongo2.RegisterFilter("replace", filterReplace); err != nil {
		panic(err)
	}
}

// filterGenerateUUID maps a string to its deterministic identifier.
func filterGenerateUUID(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	if !in.IsString() {
		return nil, &pongo2.Error{
			Sender:    "filter:generateUUID",
			OrigError: errors.New("invalid value: expected a string"),
		}
	}
	return pongo2.AsValue(ids.Generate(in.String())), nil
}

// RenderJinja renders template with the Jinja-syntax backend. Loop state
// (loop.index, loop.last, ...) and filter calls with arguments are accepted
// in Jinja form. The context is the model's structured form (the same keys
// as the JSON export) with sourcename set to sourceName when it is not
// empty. name identifies the template in errors.
func (r *Renderer) RenderJinja(name, template string, m *facts.Model, sourceName string) (string, error) {
	tpl, err := r.compile(template)
	if err != nil {
		return "", &RenderError{Template: name, Err: err}
	}

	values, err := m.Values()
	if err != nil {
		return "", &RenderError{Template: name, Err: err}
	}
	ctx := pongo2.Context(values)
	ctx[filterArgsFunc] = packFilterArgs
	if sourceName != "" {
		ctx["sourcename"] = sourceName
	}

	out, err := tpl.Execute(ctx)
	if err != nil {
		return "", &RenderError{Template: name, Err: err}
	}
	return out, nil
}

// compile returns the compiled form of template, reusing earlier compilations
// of identical text.
func (r *Renderer) compile(template string) (*pongo2.Template, error) {
	if tpl, ok := r.templates.Get(template); ok {
		return tpl, nil
	}

	tpl, err := pongo2.FromString(jinjaDialect(template))
	if err != nil {
		return nil, err
	}
	r.templates.Set(template, tpl)
	r.logger.Debug("Compiled template", zap.Int("bytes", len(template)))
	return tpl, nil
}
