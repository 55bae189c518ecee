package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ShayCichocki/handover/internal/parser"
	"github.com/ShayCichocki/handover/internal/session"
	"github.com/ShayCichocki/handover/pkg/models"
)

// runParse reads every regular file in the session's input directory
// and parses it into a source item. A file that fails to parse degrades
// to a recorded error; the session only fails when nothing parses.
func (p *Pipeline) runParse(ctx context.Context, st *session.State) (*session.Update, error) {
	dir := st.Metadata["input_dir"]
	if dir == "" {
		return nil, fmt.Errorf("session %s has no input directory recorded", st.SessionID)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	upd := &session.Update{}
	var items []models.SourceItem
	for _, name := range names {
		item, err := parser.ParseFile(filepath.Join(dir, name))
		if err != nil {
			upd.Errors = append(upd.Errors, fmt.Sprintf("parse %s: %v", name, err))
			continue
		}
		for _, w := range item.Warnings {
			upd.Errors = append(upd.Errors, fmt.Sprintf("parse %s: %s", name, w))
		}
		items = append(items, item)
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("no parseable files in %s", dir)
	}

	upd.Items = items
	return upd, nil
}
