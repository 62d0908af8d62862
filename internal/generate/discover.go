package generate

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	ignore "github.com/sabhiram/go-gitignore"
)

// IgnoreFileName is the gitignore-syntax file read from the template root.
const IgnoreFileName = ".cyagenignore"

// SourceNamePlaceholder is substituted in template file and directory names.
const SourceNamePlaceholder = "@sourcename@"

// job is one template file and where its output goes.
type job struct {
	template string
	output   string
	jinja    bool
}

// compiledPattern holds both the pattern string and compiled glob
type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

func compilePatterns(patterns []string) ([]compiledPattern, error) {
	var compiled []compiledPattern
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, compiledPattern{pattern: pattern, glob: g})
	}
	return compiled, nil
}

// matcher decides which template paths are skipped.
type matcher struct {
	patterns  []compiledPattern
	gitignore *ignore.GitIgnore
}

func loadIgnoreFile(templateDir string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(templateDir, IgnoreFileName))
	if err != nil {
		return nil
	}
	return gi
}

// skip reports whether relPath (slash separated, relative to the template
// root) is ignored.
func (m matcher) skip(relPath string, isDir bool) bool {
	if relPath == IgnoreFileName {
		return true
	}
	if m.gitignore != nil {
		if m.gitignore.MatchesPath(relPath) || (isDir && m.gitignore.MatchesPath(relPath+"/")) {
			return true
		}
	}
	for _, cp := range m.patterns {
		if cp.glob.Match(relPath) {
			return true
		}
		if isDir && cp.glob.Match(relPath+"/**") {
			return true
		}
		// "**/*.bak" also covers files at the root.
		if !strings.Contains(relPath, "/") && strings.HasPrefix(cp.pattern, "**/") {
			if g, err := glob.Compile(strings.TrimPrefix(cp.pattern, "**/"), '/'); err == nil && g.Match(relPath) {
				return true
			}
		}
	}
	return false
}

// plan walks templateDir in lexical order and maps every template file to its
// output path below outputDir. Skipped entries are counted, not returned.
func (g *Generator) plan(templateDir, outputDir, sourceName string) ([]job, int, error) {
	m := matcher{patterns: g.ignores, gitignore: loadIgnoreFile(templateDir)}

	var (
		jobs    []job
		skipped int
	)
	err := filepath.WalkDir(templateDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == templateDir {
			return nil
		}

		rel, err := filepath.Rel(templateDir, path)
		if err != nil {
			return err
		}
		if m.skip(filepath.ToSlash(rel), d.IsDir()) {
			if rel != IgnoreFileName {
				skipped++
			}
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		out, jinja := g.outputPath(rel, sourceName)
		jobs = append(jobs, job{
			template: path,
			output:   filepath.Join(outputDir, out),
			jinja:    jinja,
		})
		return nil
	})
	if err != nil {
		return nil, skipped, err
	}
	return jobs, skipped, nil
}

// outputPath maps a template path relative to the template root to the
// output path relative to the output root. The placeholder is substituted in
// every component and a trailing Jinja extension is removed from the file
// name, which also selects the Jinja backend.
func (g *Generator) outputPath(rel, sourceName string) (string, bool) {
	parts := strings.Split(rel, string(os.PathSeparator))
	for i, part := range parts {
		parts[i] = strings.ReplaceAll(part, SourceNamePlaceholder, sourceName)
	}

	name := parts[len(parts)-1]
	jinja := false
	for _, ext := range g.jinjaExtensions {
		if ext != "" && strings.HasSuffix(name, ext) && len(name) > len(ext) {
			name = strings.TrimSuffix(name, ext)
			jinja = true
			break
		}
	}
	parts[len(parts)-1] = name
	return filepath.Join(parts...), jinja
}
