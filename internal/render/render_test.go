package render

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/cyagen/internal/facts"
	"github.com/mvp-joe/cyagen/internal/parser"
)

// Test Plan for the Tag Renderer:
// - Each block tag repeats its fragment over the matching collection
// - Static variable views: all / global only / local only, with @func-name@
// - Function views: fncs, fncs0 and local-fncs with @anames@
// - Nested calls: ncls once per call site, ncls-once once per callee
// - Directives: rtype.change, rtype.remove, rtype.remove0, args.remove
// - Blocks with no items render as nothing
// - Unterminated and unknown tags are left as-is
// - Several blocks of the same kind pair lazily
// - @sourcename@ and @date@ are replaced everywhere, @date@ in UTC by default

var fixedTime = time.Date(2025, time.March, 5, 14, 2, 10, 0, time.UTC)

func newTestRenderer(t *testing.T, opts ...Option) *Renderer {
	t.Helper()

	opts = append([]Option{WithClock(func() time.Time { return fixedTime })}, opts...)
	r, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(r.Close)
	return r
}

func mustParse(t *testing.T, code string) *facts.Model {
	t.Helper()

	m, err := parser.Parse(code)
	require.NoError(t, err)
	return m
}

func TestRender(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		code     string
		template string
		want     string
	}{
		{
			name:     "includes",
			code:     "#include <header1.h>\n#include <header2.h>\n",
			template: "// include\n@incs@@captured@\n@end-incs@\n",
			want:     "// include\n#include <header1.h>\n#include <header2.h>\n\n",
		},
		{
			name: "static variables",
			code: "static int a[10];\nint b;\nstatic char *c;\nvoid func1(void)\n{\n    static int local_var;\n}\n",
			template: "// static variables\n@static-vars@@dtype@ @name-expr@;\n@end-static-vars@\n" +
				"// static global variables\n@static-global-vars@@dtype@ @name@;\n@end-static-global-vars@\n" +
				"// static local variables\n@static-local-vars@@dtype@ @name@;\n@end-static-local-vars@\n",
			want: "// static variables\nint a[10];\nchar * c;\nint local_var;\n\n" +
				"// static global variables\nint a;\nchar * c;\n\n" +
				"// static local variables\nint local_var;\n\n",
		},
		{
			name:     "local static variable owner",
			code:     "void func1(void)\n{\n    static int local_var;\n}\n",
			template: "@static-local-vars@@func-name@::@name@ <- @captured@\n@end-static-local-vars@",
			want:     "func1::local_var <- static int local_var;\n",
		},
		{
			name:     "functions",
			code:     "// functions\nint func1()\n{\n    return 0;\n}\nvoid func2(int const * a)\n{\n}\n",
			template: "// functions\n@fncs@@rtype@ @name@(@args@);\n@atypes@\n@end-fncs@\n",
			want:     "// functions\nint func1();\n\nvoid func2(int const * a);\nconst int *\n\n",
		},
		{
			name:     "fncs0 alias and local functions",
			code:     "static int helper(int x, char *buf)\n{\n    return x;\n}\nint api(void)\n{\n    return helper(1, 0);\n}\n",
			template: "@fncs0@@name@;@end-fncs0@|@local-fncs@@name@(@anames@)@end-local-fncs@",
			want:     "helper;api;|helper(x, buf)",
		},
		{
			name: "nested calls with removal directives",
			code: "// functions\nvoid func1()\n{\n    return;\n}\nint func2(int a)\n{\n    return func1();\n}\n",
			template: "@ncls@- @caller.name@ -> @callee.name@\n" +
				"    - return @callee.rtype.remove(0)@;\n" +
				"    - (int dummy@callee.args.remove(, )@@callee.args@);\n@end-ncls@\n",
			want: "- func2 -> func1\n    - return ;\n    - (int dummy);\n\n",
		},
		{
			name:     "nested calls once per callee",
			code:     "int func1()\n{\n    return 0;\n}\nvoid func2(int a)\n{\n    func1();\n}\nvoid func3(int a)\n{\n    func1();\n}\n",
			template: "@ncls-once@- @callee.name@\n@end-ncls-once@\n",
			want:     "- func1\n\n",
		},
		{
			name:     "nested calls once per call site",
			code:     "int func1()\n{\n    return 0;\n}\nvoid func2(int a)\n{\n    func1();\n}\nvoid func3(int a)\n{\n    func1();\n}\n",
			template: "@ncls@- @callee.name@\n@end-ncls@",
			want:     "- func1\n- func1\n",
		},
		{
			name: "directives on a non-void callee",
			code: "int get(int id, char c)\n{\n    return id;\n}\nvoid run(void)\n{\n    get(1, 'a');\n}\n",
			template: "@ncls@return @callee.rtype.remove(0)@; @callee.rtype.remove0(x)@ " +
				"(dummy@callee.args.remove(, )@@callee.anames@) @callee.rtype.change(int=uint32_t)@ " +
				"@caller.rtype.change(int=long)@@end-ncls@",
			want: "return 0; x (dummy, id, c) uint32_t @caller.rtype.change(int=long)@",
		},
		{
			name:     "change directive keeps other return types",
			code:     "char get(void)\n{\n    return 0;\n}\nvoid run(void)\n{\n    get();\n}\n",
			template: "@ncls@@callee.rtype.change(int=uint32_t)@ @callee.atypes@|@caller.atypes@@end-ncls@",
			want:     "char |",
		},
		{
			name:     "change directive needs a replacement",
			code:     "int get(void)\n{\n    return 0;\n}\nvoid run(void)\n{\n    get();\n}\n",
			template: "@ncls@@callee.rtype.change(int=)@@end-ncls@",
			want:     "@callee.rtype.change(int=)@",
		},
		{
			name:     "empty collection",
			code:     "int x;\n",
			template: "a@incs@@captured@\n@end-incs@b",
			want:     "ab",
		},
		{
			name:     "unterminated block left verbatim",
			code:     "int f(void)\n{\n}\n",
			template: "@fncs@@name@\n@end-fncs0@",
			want:     "@fncs@@name@\n@end-fncs0@",
		},
		{
			name:     "unknown tags left verbatim",
			code:     "int f(void)\n{\n}\n",
			template: "@unknown@ @name@ @fncs@@name@ @bogus@@end-fncs@",
			want:     "@unknown@ @name@ f @bogus@",
		},
		{
			name:     "repeated blocks pair lazily",
			code:     "int f(void)\n{\n}\nint g(void)\n{\n}\n",
			template: "@fncs@@name@,@end-fncs@|@fncs@<@name@>@end-fncs@",
			want:     "f,g,|<f><g>",
		},
		{
			name:     "globals",
			code:     "int f(void)\n{\n}\n",
			template: "/* @sourcename@.h, @date@ */\n@fncs@@sourcename@_@name@\n@end-fncs@",
			want:     "/* motor.h, Wed Mar  5 14:02:10 2025 */\nmotor_f\n",
		},
	}

	r := newTestRenderer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := r.Render(tt.template, mustParse(t, tt.code), "motor")
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Render() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRender_LocalTime(t *testing.T) {
	t.Parallel()

	zone := time.FixedZone("UTC+1", 3600)
	clock := func() time.Time { return fixedTime.In(zone) }

	utc := newTestRenderer(t, WithClock(clock))
	assert.Equal(t, "Wed Mar  5 14:02:10 2025", utc.Render("@date@", &facts.Model{}, ""))

	local := newTestRenderer(t, WithClock(clock), WithLocalTime())
	assert.Equal(t, "Wed Mar  5 15:02:10 2025", local.Render("@date@", &facts.Model{}, ""))
}

func TestRender_SampleHeader(t *testing.T) {
	t.Parallel()

	code := `#include <stdint.h>

static uint8_t pinUpdated = 0U;

void controlMotor(void)
{
    pinUpdated = 1U;
}

void move(const uint8_t dir, const uint32_t duration)
{
    controlMotor();
}
`
	template := `#ifndef @sourcename@_H
#define @sourcename@_H

@incs@@captured@
@end-incs@
@fncs@@rtype@ @name@(@args@);
@end-fncs@
// mocks
@ncls-once@@callee.rtype@ mock_@callee.name@(@callee.atypes@);
@end-ncls-once@
#endif
`
	want := `#ifndef sample_H
#define sample_H

#include <stdint.h>

void controlMotor();
void move(const uint8_t dir, const uint32_t duration);

// mocks
void mock_controlMotor();

#endif
`
	r := newTestRenderer(t)
	got := r.Render(template, mustParse(t, code), "sample")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Render() mismatch (-want +got):\n%s", diff)
	}
}
