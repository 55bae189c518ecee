package parser

import (
	"strings"

	"github.com/ShayCichocki/handover/pkg/models"
)

// ParseMarkdown parses markdown files. Content passes through as-is;
// only references are extracted.
func ParseMarkdown(path string) (models.SourceItem, error) {
	content, warnings, err := readFileUTF8(path)
	if err != nil {
		return models.SourceItem{}, err
	}

	// Strip fenced code blocks before reference extraction so code
	// samples don't register as cross-item links.
	refs := extractFileReferences(stripFences(content))

	return newItem(path, "markdown", content, refs, warnings), nil
}

func stripFences(content string) string {
	var sb strings.Builder
	inFence := false
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
			continue
		}
		if !inFence {
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
