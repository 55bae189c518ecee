package parser

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/ShayCichocki/handover/pkg/models"
)

// sampleRows is how many data rows are rendered into the content.
const sampleRows = 10

// ParseCSV parses CSV files into a column summary plus a sample of
// rows. Ragged rows are tolerated and reported as a warning.
func ParseCSV(path string) (models.SourceItem, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.SourceItem{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return models.SourceItem{}, fmt.Errorf("parse csv %s: %w", path, err)
	}

	var warnings []string
	if len(records) == 0 {
		return newItem(path, "csv", "(empty file)", nil, []string{"file is empty"}), nil
	}

	header := records[0]
	rows := records[1:]

	width := len(header)
	ragged := 0
	for _, row := range rows {
		if len(row) != width {
			ragged++
		}
	}
	if ragged > 0 {
		warnings = append(warnings, fmt.Sprintf("%d rows have a different column count than the header", ragged))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## CSV Summary\n\n")
	fmt.Fprintf(&sb, "**Columns (%d):** %s\n\n", width, strings.Join(header, ", "))
	fmt.Fprintf(&sb, "**Rows:** %d\n\n", len(rows))

	sb.WriteString("## Sample Rows\n\n")
	sb.WriteString("| " + strings.Join(header, " | ") + " |\n")
	sb.WriteString("|" + strings.Repeat(" --- |", width) + "\n")
	for i, row := range rows {
		if i >= sampleRows {
			fmt.Fprintf(&sb, "\n(%d more rows)\n", len(rows)-sampleRows)
			break
		}
		sb.WriteString("| " + strings.Join(row, " | ") + " |\n")
	}

	return newItem(path, "csv", sb.String(), nil, warnings), nil
}
