package parser

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/ShayCichocki/handover/pkg/models"
)

// notebookFile mirrors the nbformat v4 JSON layout, limited to the
// fields this parser reads.
type notebookFile struct {
	Cells    []notebookCell `json:"cells"`
	Metadata struct {
		Kernelspec struct {
			Name string `json:"name"`
		} `json:"kernelspec"`
	} `json:"metadata"`
}

type notebookCell struct {
	CellType string           `json:"cell_type"`
	Source   multilineString  `json:"source"`
	Outputs  []notebookOutput `json:"outputs"`
}

type notebookOutput struct {
	OutputType string                     `json:"output_type"`
	Text       multilineString            `json:"text"`
	Data       map[string]json.RawMessage `json:"data"`
	Traceback  []string                   `json:"traceback"`
}

// multilineString accepts both the list-of-lines and single-string
// encodings nbformat allows.
type multilineString string

func (m *multilineString) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*m = multilineString(single)
		return nil
	}
	var lines []string
	if err := json.Unmarshal(data, &lines); err != nil {
		return err
	}
	*m = multilineString(strings.Join(lines, ""))
	return nil
}

var importPattern = regexp.MustCompile(`(?m)^\s*(?:import\s+([\w.]+)|from\s+([\w.]+)\s+import)`)

// ParseNotebook parses Jupyter notebooks: cells render to markdown with
// outputs, imports and file mentions become references.
func ParseNotebook(path string) (models.SourceItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.SourceItem{}, fmt.Errorf("read %s: %w", path, err)
	}

	var nb notebookFile
	if err := json.Unmarshal(data, &nb); err != nil {
		// A notebook that won't decode still gets an item so the
		// handover isn't blocked; the analyst sees the warning.
		item := newItem(path, "notebook", "(notebook could not be decoded)", nil,
			[]string{fmt.Sprintf("failed to decode notebook: %v", err)})
		return item, nil
	}

	var sb strings.Builder
	sb.WriteString("# Jupyter Notebook\n\n")
	if nb.Metadata.Kernelspec.Name != "" {
		fmt.Fprintf(&sb, "Kernel: %s\n\n", nb.Metadata.Kernelspec.Name)
	}
	if len(nb.Cells) == 0 {
		sb.WriteString("(empty notebook)\n")
	}

	refSeen := map[string]bool{}
	var refs []string
	addRef := func(r string) {
		key := strings.ToLower(r)
		if !refSeen[key] {
			refSeen[key] = true
			refs = append(refs, r)
		}
	}

	for idx, cell := range nb.Cells {
		source := string(cell.Source)
		fmt.Fprintf(&sb, "### Cell %d (%s)\n\n", idx+1, cell.CellType)

		switch cell.CellType {
		case "code":
			sb.WriteString("```python\n")
			sb.WriteString(strings.TrimRight(source, "\n"))
			sb.WriteString("\n```\n\n")
			for _, out := range cell.Outputs {
				if rendered := renderOutput(out); rendered != "" {
					sb.WriteString(rendered)
					sb.WriteString("\n\n")
				}
			}
			// Top-level module names from imports.
			for _, m := range importPattern.FindAllStringSubmatch(source, -1) {
				module := m[1]
				if module == "" {
					module = m[2]
				}
				addRef(strings.SplitN(module, ".", 2)[0])
			}
			for _, r := range extractFileReferences(source) {
				addRef(r)
			}
		case "markdown":
			sb.WriteString(strings.TrimRight(source, "\n"))
			sb.WriteString("\n\n")
			for _, r := range extractFileReferences(source) {
				addRef(r)
			}
		default:
			fmt.Fprintf(&sb, "```%s\n%s\n```\n\n", cell.CellType, strings.TrimRight(source, "\n"))
		}
	}

	return newItem(path, "notebook", sb.String(), refs, nil), nil
}

// renderOutput turns a cell output into a blockquote. Rich outputs are
// summarized, not embedded.
func renderOutput(out notebookOutput) string {
	switch out.OutputType {
	case "stream":
		return blockquote(string(out.Text))
	case "execute_result", "display_data":
		if raw, ok := out.Data["text/plain"]; ok {
			var text multilineString
			if err := json.Unmarshal(raw, &text); err == nil {
				return blockquote(string(text))
			}
		}
		for key := range out.Data {
			if strings.HasPrefix(key, "image/") {
				return "> [image output omitted]"
			}
		}
		if _, ok := out.Data["text/html"]; ok {
			return "> [HTML output omitted]"
		}
	case "error":
		return blockquote(strings.Join(out.Traceback, "\n"))
	}
	return ""
}

func blockquote(text string) string {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return ""
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = "> " + line
	}
	return strings.Join(lines, "\n")
}
