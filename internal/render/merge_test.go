package render

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/mvp-joe/cyagen/internal/ids"
)

// Test Plan for the Manual-Section Merger:
// - Edited sections survive regeneration while generated text tracks the model
// - Merging unchanged output is idempotent
// - Sections unknown to the previous output keep their fresh content
// - Ids are matched exactly, and the first duplicate in the previous output wins

func TestMerge_RoundTrip(t *testing.T) {
	t.Parallel()

	id := ids.Generate("stubs")
	template := "@fncs@@rtype@ @name@(@args@);\n@end-fncs@" +
		"// MANUAL SECTION: " + id + "\n// MANUAL SECTION END\n"

	r := newTestRenderer(t)

	first := r.Render(template, mustParse(t, "int f(void)\n{\n}\n"), "s")
	assert.Equal(t, first, Merge(first, first))

	edited := strings.Replace(first, "// MANUAL SECTION END", "int keep_me = 1;\n// MANUAL SECTION END", 1)

	second := r.Render(template, mustParse(t, "int f(void)\n{\n}\nchar g(int a)\n{\n}\n"), "s")
	merged := Merge(second, edited)

	want := "int f();\nchar g(int a);\n" +
		"// MANUAL SECTION: " + id + "\nint keep_me = 1;\n// MANUAL SECTION END\n"
	if diff := cmp.Diff(want, merged); diff != "" {
		t.Errorf("Merge() mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, merged, Merge(merged, merged))
}

func TestMerge(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		rendered string
		previous string
		want     string
	}{
		{
			name:     "no previous output",
			rendered: "MANUAL SECTION: ab\nnew\nMANUAL SECTION END",
			previous: "",
			want:     "MANUAL SECTION: ab\nnew\nMANUAL SECTION END",
		},
		{
			name:     "id missing from previous",
			rendered: "x MANUAL SECTION: ab\nnew\nMANUAL SECTION END y",
			previous: "MANUAL SECTION: cd\nold\nMANUAL SECTION END",
			want:     "x MANUAL SECTION: ab\nnew\nMANUAL SECTION END y",
		},
		{
			name:     "each section merged by its own id",
			rendered: "MANUAL SECTION: 01\na\nMANUAL SECTION END\n--\nMANUAL SECTION: 02\nb\nMANUAL SECTION END",
			previous: "MANUAL SECTION: 02\nB!\nMANUAL SECTION END\nMANUAL SECTION: 01\nA!\nMANUAL SECTION END",
			want:     "MANUAL SECTION: 01\nA!\nMANUAL SECTION END\n--\nMANUAL SECTION: 02\nB!\nMANUAL SECTION END",
		},
		{
			name:     "ids match exactly",
			rendered: "MANUAL SECTION: ab\nnew\nMANUAL SECTION END",
			previous: "MANUAL SECTION: abcd\nold\nMANUAL SECTION END",
			want:     "MANUAL SECTION: ab\nnew\nMANUAL SECTION END",
		},
		{
			name:     "first duplicate wins",
			rendered: "MANUAL SECTION: ab\nnew\nMANUAL SECTION END",
			previous: "MANUAL SECTION: ab\none\nMANUAL SECTION END\nMANUAL SECTION: ab\ntwo\nMANUAL SECTION END",
			want:     "MANUAL SECTION: ab\none\nMANUAL SECTION END",
		},
		{
			name:     "markers are case sensitive",
			rendered: "manual section: ab\nnew\nmanual section end",
			previous: "manual section: ab\nold\nmanual section end",
			want:     "manual section: ab\nnew\nmanual section end",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, Merge(tt.rendered, tt.previous))
		})
	}
}

func TestSections(t *testing.T) {
	t.Parallel()

	text := "MANUAL SECTION: 01\nMANUAL SECTION END\nMANUAL SECTION: 0a-ff\nx\nMANUAL SECTION END"
	assert.Equal(t, []string{"01", "0a-ff"}, Sections(text))
	assert.Empty(t, Sections("nothing here"))
}
