package reports

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileSink writes rendered reports under a base directory. Writes are best
// effort; callers log failures and carry on with the in-memory report.
type FileSink struct {
	Dir string
}

// Write stores the rendered report as <dir>/<kind>-<timestamp>.txt and
// returns the path written.
func (f *FileSink) Write(kind string, at time.Time, rendered string) (string, error) {
	if f == nil || f.Dir == "" {
		return "", nil
	}
	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return "", fmt.Errorf("reports: create dir: %w", err)
	}
	name := fmt.Sprintf("%s-%s.txt", kind, at.UTC().Format("20060102-150405"))
	path := filepath.Join(f.Dir, name)
	if err := os.WriteFile(path, []byte(rendered), 0o644); err != nil {
		return "", fmt.Errorf("reports: write %s: %w", path, err)
	}
	return path, nil
}
