package parser

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ShayCichocki/handover/pkg/models"
)

var (
	tablePatterns = []*regexp.Regexp{
		regexp.MustCompile("(?i)\\bFROM\\s+`?(\\w+)`?"),
		regexp.MustCompile("(?i)\\bJOIN\\s+`?(\\w+)`?"),
		regexp.MustCompile("(?i)\\bINTO\\s+`?(\\w+)`?"),
		regexp.MustCompile("(?i)\\bUPDATE\\s+`?(\\w+)`?"),
		regexp.MustCompile("(?i)\\bTABLE\\s+(?:IF\\s+(?:NOT\\s+)?EXISTS\\s+)?`?(\\w+)`?"),
	}
	statementPattern = regexp.MustCompile(`(?i)^\s*(SELECT|INSERT|UPDATE|DELETE|CREATE|DROP|ALTER|WITH)\b`)
)

// ParseSQL parses SQL files: table names become the item's references
// and a statement summary precedes the raw SQL.
func ParseSQL(path string) (models.SourceItem, error) {
	raw, warnings, err := readFileUTF8(path)
	if err != nil {
		return models.SourceItem{}, err
	}

	tables := extractTables(raw)
	statements := countStatements(raw)

	var sb strings.Builder
	sb.WriteString("## SQL Summary\n\n")
	if len(tables) > 0 {
		fmt.Fprintf(&sb, "**Tables (%d):** %s\n\n", len(tables), strings.Join(tables, ", "))
	} else {
		sb.WriteString("**Tables:** none found\n\n")
	}
	if len(statements) > 0 {
		var parts []string
		for _, kind := range sortedKeys(statements) {
			parts = append(parts, fmt.Sprintf("%d %s", statements[kind], kind))
		}
		fmt.Fprintf(&sb, "**Operations:** %s\n\n", strings.Join(parts, ", "))
	}

	sb.WriteString("## SQL Content\n\n```sql\n")
	sb.WriteString(raw)
	if !strings.HasSuffix(raw, "\n") {
		sb.WriteByte('\n')
	}
	sb.WriteString("```\n")

	// Table names are the cross-reference targets for SQL items.
	return newItem(path, "sql", sb.String(), tables, warnings), nil
}

func extractTables(sql string) []string {
	seen := map[string]bool{}
	var tables []string
	for _, pattern := range tablePatterns {
		for _, m := range pattern.FindAllStringSubmatch(sql, -1) {
			name := m[1]
			key := strings.ToLower(name)
			if !seen[key] {
				seen[key] = true
				tables = append(tables, name)
			}
		}
	}
	sort.Strings(tables)
	return tables
}

func countStatements(sql string) map[string]int {
	counts := map[string]int{}
	for _, stmt := range strings.Split(sql, ";") {
		if m := statementPattern.FindStringSubmatch(stmt); m != nil {
			counts[strings.ToUpper(m[1])]++
		}
	}
	return counts
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
