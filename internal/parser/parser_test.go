package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestExtractFileReferences(t *testing.T) {
	text := "See model.py and data.csv. Also MODEL.PY again, plus notes.txt."
	refs := extractFileReferences(text)

	want := []string{"model.py", "data.csv", "notes.txt"}
	if len(refs) != len(want) {
		t.Fatalf("refs = %v, want %v", refs, want)
	}
	for i := range want {
		if refs[i] != want[i] {
			t.Errorf("refs[%d] = %q, want %q (first mention wins, case-insensitive dedupe)", i, refs[i], want[i])
		}
	}
}

func TestParseText(t *testing.T) {
	content := "Model Overview\n==============\nThe model is retrained monthly.\n\nKNOWN ISSUES\nRate drifts after quarter end.\n\nInputs:\nloss_data.csv from the finance share.\n"
	path := writeFile(t, "notes.txt", content)

	item, err := ParseText(path)
	if err != nil {
		t.Fatalf("ParseText: %v", err)
	}

	if item.Type != "text" {
		t.Errorf("Type = %q, want text", item.Type)
	}
	if item.Name != "notes.txt" {
		t.Errorf("Name = %q", item.Name)
	}
	if item.ID == "" {
		t.Error("ID should be derived from the filename")
	}
	for _, heading := range []string{"## Model Overview", "## KNOWN ISSUES", "## Inputs:"} {
		if !strings.Contains(item.Content, heading) {
			t.Errorf("content missing promoted heading %q", heading)
		}
	}
	if strings.Contains(item.Content, "==========") {
		t.Error("underline should be consumed by header promotion")
	}
	if len(item.References) != 1 || item.References[0] != "loss_data.csv" {
		t.Errorf("References = %v, want [loss_data.csv]", item.References)
	}
}

func TestParseMarkdown(t *testing.T) {
	content := "# Runbook\n\nRun `forecast.py` monthly.\n\n```\nignored_in_fence.sql\n```\n\nOutput lands in results.csv.\n"
	path := writeFile(t, "runbook.md", content)

	item, err := ParseMarkdown(path)
	if err != nil {
		t.Fatalf("ParseMarkdown: %v", err)
	}

	if item.Type != "markdown" {
		t.Errorf("Type = %q, want markdown", item.Type)
	}
	if item.Content != content {
		t.Error("markdown content should pass through unchanged")
	}
	for _, ref := range item.References {
		if ref == "ignored_in_fence.sql" {
			t.Error("references inside code fences should be skipped")
		}
	}
	found := false
	for _, ref := range item.References {
		if ref == "results.csv" {
			found = true
		}
	}
	if !found {
		t.Errorf("References = %v, want results.csv present", item.References)
	}
}

func TestParseCSV(t *testing.T) {
	content := "month,rate,volume\n2024-01,0.031,1200\n2024-02,0.029,1150\n2024-03,0.034\n"
	path := writeFile(t, "rates.csv", content)

	item, err := ParseCSV(path)
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}

	if item.Type != "csv" {
		t.Errorf("Type = %q, want csv", item.Type)
	}
	if !strings.Contains(item.Content, "**Columns (3):** month, rate, volume") {
		t.Errorf("content missing column summary:\n%s", item.Content)
	}
	if !strings.Contains(item.Content, "**Rows:** 3") {
		t.Errorf("content missing row count:\n%s", item.Content)
	}
	if len(item.Warnings) != 1 || !strings.Contains(item.Warnings[0], "different column count") {
		t.Errorf("Warnings = %v, want ragged-row warning", item.Warnings)
	}
}

func TestParseCSVEmpty(t *testing.T) {
	path := writeFile(t, "empty.csv", "")

	item, err := ParseCSV(path)
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(item.Warnings) == 0 {
		t.Error("empty file should warn, not fail")
	}
}

func TestParseSQL(t *testing.T) {
	content := "CREATE TABLE forecasts (id INT);\nSELECT f.rate FROM forecasts f JOIN losses l ON f.id = l.id;\n"
	path := writeFile(t, "monthly.sql", content)

	item, err := ParseSQL(path)
	if err != nil {
		t.Fatalf("ParseSQL: %v", err)
	}

	if item.Type != "sql" {
		t.Errorf("Type = %q, want sql", item.Type)
	}
	wantTables := map[string]bool{"forecasts": true, "losses": true}
	for _, ref := range item.References {
		if !wantTables[ref] {
			t.Errorf("unexpected reference %q", ref)
		}
		delete(wantTables, ref)
	}
	if len(wantTables) != 0 {
		t.Errorf("missing table references: %v (got %v)", wantTables, item.References)
	}
	if !strings.Contains(item.Content, "1 CREATE") || !strings.Contains(item.Content, "1 SELECT") {
		t.Errorf("content missing operation counts:\n%s", item.Content)
	}
	if !strings.Contains(item.Content, "```sql") {
		t.Error("content should embed the raw SQL")
	}
}

func TestParseNotebook(t *testing.T) {
	content := `{
		"cells": [
			{"cell_type": "markdown", "source": ["# Forecast\n", "Uses loss_data.csv\n"]},
			{"cell_type": "code", "source": "import pandas as pd\nfrom sklearn import linear_model\ndf = pd.read_csv('loss_data.csv')",
			 "outputs": [{"output_type": "stream", "text": "loaded 1200 rows\n"}]}
		],
		"metadata": {"kernelspec": {"name": "python3"}}
	}`
	path := writeFile(t, "forecast.ipynb", content)

	item, err := ParseNotebook(path)
	if err != nil {
		t.Fatalf("ParseNotebook: %v", err)
	}

	if item.Type != "notebook" {
		t.Errorf("Type = %q, want notebook", item.Type)
	}
	if !strings.Contains(item.Content, "### Cell 1 (markdown)") || !strings.Contains(item.Content, "### Cell 2 (code)") {
		t.Errorf("content missing cell headers:\n%s", item.Content)
	}
	if !strings.Contains(item.Content, "> loaded 1200 rows") {
		t.Errorf("stream output should render as blockquote:\n%s", item.Content)
	}

	wantRefs := map[string]bool{}
	for _, r := range item.References {
		wantRefs[r] = true
	}
	for _, want := range []string{"pandas", "sklearn", "loss_data.csv"} {
		if !wantRefs[want] {
			t.Errorf("References = %v, want %q present", item.References, want)
		}
	}
}

func TestParseNotebookBadJSON(t *testing.T) {
	path := writeFile(t, "broken.ipynb", "{not valid json")

	item, err := ParseNotebook(path)
	if err != nil {
		t.Fatalf("undecodable notebook should degrade, not fail: %v", err)
	}
	if len(item.Warnings) == 0 {
		t.Error("expected decode warning")
	}
}

func TestParseFileDispatch(t *testing.T) {
	path := writeFile(t, "schema.sql", "SELECT 1 FROM t;")
	item, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if item.Type != "sql" {
		t.Errorf("Type = %q, want sql (extension dispatch)", item.Type)
	}
}

func TestParseFileUnsupportedType(t *testing.T) {
	path := writeFile(t, "config.toml", "key = 'value'")
	item, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if item.Type != "text" {
		t.Errorf("Type = %q, want text fallback", item.Type)
	}
	if len(item.Warnings) == 0 || !strings.Contains(item.Warnings[0], "unsupported file type") {
		t.Errorf("Warnings = %v, want unsupported-type warning", item.Warnings)
	}
}
