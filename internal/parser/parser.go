// Package parser turns raw handover files into normalized source items.
// Parsers are registered per file extension; unknown types degrade to
// plain text with a warning rather than failing the session.
package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ShayCichocki/handover/pkg/models"
)

// ParseFunc parses one file into a source item.
type ParseFunc func(path string) (models.SourceItem, error)

var registry = map[string]ParseFunc{}

func register(ext string, fn ParseFunc) {
	registry[ext] = fn
}

func init() {
	register("txt", ParseText)
	register("md", ParseMarkdown)
	register("csv", ParseCSV)
	register("sql", ParseSQL)
	register("ipynb", ParseNotebook)
}

// SupportedTypes returns the registered file extensions.
func SupportedTypes() []string {
	types := make([]string, 0, len(registry))
	for ext := range registry {
		types = append(types, ext)
	}
	return types
}

// ParseFile dispatches on the file extension. Unsupported extensions
// are parsed as plain text with a warning so one odd file never sinks
// the whole handover.
func ParseFile(path string) (models.SourceItem, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	fn, ok := registry[ext]
	if !ok {
		item, err := ParseText(path)
		if err != nil {
			return models.SourceItem{}, err
		}
		item.Warnings = append(item.Warnings,
			fmt.Sprintf("unsupported file type %q, treated as plain text", ext))
		return item, nil
	}
	return fn(path)
}

// fileRefPattern matches filename references inside free text, the
// primary cross-item linkage signal.
var fileRefPattern = regexp.MustCompile(`(?i)\b[\w.-]+\.(xlsx|xls|csv|py|sql|ipynb|pdf|pptx|docx|txt|db|md)\b`)

// extractFileReferences returns unique filename mentions in order of
// first appearance.
func extractFileReferences(text string) []string {
	seen := map[string]bool{}
	var refs []string
	for _, m := range fileRefPattern.FindAllString(text, -1) {
		key := strings.ToLower(m)
		if !seen[key] {
			seen[key] = true
			refs = append(refs, m)
		}
	}
	return refs
}

// newItem builds the common SourceItem envelope for a parsed file.
func newItem(path, fileType, content string, refs, warnings []string) models.SourceItem {
	name := filepath.Base(path)
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return models.SourceItem{
		ID:         models.MakeItemID(name),
		Name:       name,
		Type:       fileType,
		Content:    content,
		References: refs,
		Warnings:   warnings,
		RawPath:    abs,
	}
}

// readFileUTF8 reads a file and sanitizes invalid UTF-8, recording a
// warning when bytes had to be replaced.
func readFileUTF8(path string) (string, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("read %s: %w", path, err)
	}

	var warnings []string
	content := string(data)
	if !utf8.ValidString(content) {
		content = strings.ToValidUTF8(content, "�")
		warnings = append(warnings, "file contained invalid UTF-8, bytes replaced")
	}
	return content, warnings, nil
}
