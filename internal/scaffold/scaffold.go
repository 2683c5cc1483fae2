// Package scaffold writes the starter sources of a new project.
package scaffold

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/spf13/afero"
)

//go:embed all:files
var files embed.FS

const stylePlaceholder = "STYLE"

// Data is passed to every template
type Data struct {
	Name  string
	Style string
}

// Generate renders the starter files into projectRoot and returns the written
// paths. Existing files are left alone.
func Generate(fsys afero.Fs, projectRoot string, data Data) ([]string, error) {
	if data.Style == "" {
		data.Style = "css"
	}

	var written []string
	err := fs.WalkDir(files, "files", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".tmpl") {
			return nil
		}

		rel := strings.TrimSuffix(strings.TrimPrefix(p, "files/"), ".tmpl")
		rel = strings.ReplaceAll(rel, stylePlaceholder, data.Style)
		target := filepath.Join(projectRoot, filepath.FromSlash(rel))

		if exists, err := afero.Exists(fsys, target); err != nil {
			return fmt.Errorf("failed to check %s: %w", target, err)
		} else if exists {
			return nil
		}

		content, err := files.ReadFile(p)
		if err != nil {
			return fmt.Errorf("failed to read template %s: %w", p, err)
		}
		tmpl, err := template.New(path.Base(p)).Parse(string(content))
		if err != nil {
			return fmt.Errorf("failed to parse template %s: %w", p, err)
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return fmt.Errorf("failed to execute template %s: %w", p, err)
		}

		if err := fsys.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", filepath.Dir(target), err)
		}
		if err := afero.WriteFile(fsys, target, buf.Bytes(), 0644); err != nil {
			return fmt.Errorf("failed to create file %s: %w", target, err)
		}
		written = append(written, target)
		return nil
	})
	return written, err
}
