package parser

import (
	"strings"

	"github.com/ShayCichocki/handover/pkg/models"
)

// ParseText parses plain text files. Header-like lines (underlined,
// ALL CAPS, or short colon-terminated lines) are promoted to markdown
// headings so downstream analysis sees the document's structure.
func ParseText(path string) (models.SourceItem, error) {
	raw, warnings, err := readFileUTF8(path)
	if err != nil {
		return models.SourceItem{}, err
	}

	lines := strings.Split(raw, "\n")
	var processed []string

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		stripped := strings.TrimRight(line, " \t\r")

		// Underlined header: next line is all = or all -.
		if i+1 < len(lines) {
			next := strings.TrimRight(lines[i+1], " \t\r")
			if stripped != "" && len(stripped) < 80 && isUnderline(next) {
				processed = append(processed, "## "+stripped)
				i++ // skip the underline
				continue
			}
		}

		if isCapsHeader(stripped) || isColonHeader(stripped) {
			processed = append(processed, "## "+stripped)
			continue
		}

		processed = append(processed, line)
	}

	content := strings.Join(processed, "\n")
	return newItem(path, "text", content, extractFileReferences(content), warnings), nil
}

func isUnderline(s string) bool {
	if len(s) < 3 {
		return false
	}
	for _, c := range s {
		if c != '=' && c != '-' {
			return false
		}
	}
	return strings.Count(s, string(s[0])) == len(s)
}

func isCapsHeader(s string) bool {
	if s == "" || len(s) >= 80 {
		return false
	}
	var letters []rune
	for _, c := range s {
		if ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') {
			letters = append(letters, c)
		}
	}
	if len(letters) < 3 {
		return false
	}
	for _, c := range letters {
		if 'a' <= c && c <= 'z' {
			return false
		}
	}
	return true
}

func isColonHeader(s string) bool {
	return s != "" && len(s) < 80 && strings.HasSuffix(s, ":") &&
		!strings.Contains(s, "http:") && !strings.Contains(s, "https:")
}
