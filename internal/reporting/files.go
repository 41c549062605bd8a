package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Files renders every output of r keyed by file name: report.md,
// summary.csv and one trades_<run>.csv and export_<run>.json per run.
func Files(r *Report) (map[string][]byte, error) {
	files := map[string][]byte{
		"report.md":   []byte(RenderMarkdown(r)),
		"summary.csv": []byte(RenderSummaryCSV(r.Runs)),
	}
	for i := range r.Runs {
		run := &r.Runs[i]
		export, err := RenderJSON(BuildExport(r, run))
		if err != nil {
			return nil, fmt.Errorf("render export of run %s: %w", run.RunID, err)
		}
		files[fmt.Sprintf("trades_%s.csv", run.RunID)] = []byte(RenderTradesCSV(run.Trades))
		files[fmt.Sprintf("export_%s.json", run.RunID)] = export
	}
	return files, nil
}

// WriteDir writes Files(r) into dir, creating it if needed, and returns the
// written paths in name order.
func WriteDir(dir string, r *Report) ([]string, error) {
	files, err := Files(r)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	paths := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, files[name], 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
