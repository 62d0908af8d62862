package generate

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mvp-joe/cyagen/internal/facts"
)

// ExportFile writes the structured form of m to path, with the @sourcename@
// placeholder substituted, creating parent directories. It returns the path
// actually written.
func ExportFile(m *facts.Model, path string, format facts.Format) (string, error) {
	path = strings.ReplaceAll(path, SourceNamePlaceholder, m.SourceName)

	var buf bytes.Buffer
	if err := facts.Export(&buf, m, format); err != nil {
		return "", fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := writeFileAtomic(path, buf.Bytes()); err != nil {
		return "", err
	}
	return path, nil
}

// SourceDirName returns the directory of sourcePath relative to dir, slash
// separated. Generated files placed in dir can reach the source through it.
func SourceDirName(sourcePath, dir string) (string, error) {
	src, err := filepath.Abs(sourcePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", sourcePath, err)
	}
	base, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	rel, err := filepath.Rel(base, filepath.Dir(src))
	if err != nil {
		return "", fmt.Errorf("failed to relate %s to %s: %w", sourcePath, dir, err)
	}
	return filepath.ToSlash(rel), nil
}

// SourceName returns the base name of sourcePath without its extension.
func SourceName(sourcePath string) string {
	base := filepath.Base(sourcePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
