package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"boxwatch/internal/components/telemetry"
	"boxwatch/internal/fighters"
	"boxwatch/internal/scrapers/boxrec"
)

const report_cache_import_pages = "cache.import-pages"

func importPage(path string) (boxrec.Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return boxrec.Page{}, err
	}
	defer f.Close()
	return boxrec.ParsePage(nil, 0, f)
}

// ImportPages builds identities out of fighter profile pages saved as
// <id>.htm (or .html) in dir. Files that cannot be read or carry no fighter
// name are reported and skipped.
func ImportPages(dir string, tel telemetry.API) ([]fighters.Identity, error) {
	tel = telemetry.NewScopedAPI("cache", tel)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("cache: read pages: %w", err)
	}

	var out []fighters.Identity
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".htm" && ext != ".html" {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ext)
		path := filepath.Join(dir, entry.Name())

		page, err := importPage(path)
		if err != nil {
			tel.ReportWarning(report_cache_import_pages, err, path)
			continue
		}
		name := boxrec.FighterName(page)
		if name == "" {
			tel.ReportWarning(report_cache_import_pages, "page has no fighter name", path)
			continue
		}
		out = append(out, fighters.Identity{
			Id:          id,
			DisplayName: name,
			RecordName:  name,
		})
	}
	return out, nil
}
