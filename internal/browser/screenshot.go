package browser

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"go-nursejobs-pipeline/internal/logger"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// ScreenshotDebugger saves full-page screenshots of hard failures.
type ScreenshotDebugger struct {
	outputDir string
	log       *logger.Logger
	now       func() time.Time
}

func NewScreenshotDebugger(dir string, log *logger.Logger) *ScreenshotDebugger {
	return &ScreenshotDebugger{outputDir: dir, log: log, now: time.Now}
}

// Capture writes <dir>/<name>_<timestamp>.png and returns its path. A nil
// debugger or closed page is a no-op.
func (s *ScreenshotDebugger) Capture(page Page, name, message string) (string, error) {
	if s == nil || page == nil || page.IsClosed() {
		return "", nil
	}
	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create screenshot dir: %w", err)
	}
	filename := fmt.Sprintf("%s_%s.png", unsafeName.ReplaceAllString(name, "_"), s.now().Format("2006-01-02_15-04-05"))
	path := filepath.Join(s.outputDir, filename)

	if err := page.Screenshot(path); err != nil {
		s.log.Warn("📸 screenshot failed", "name", name, "error", err)
		return "", err
	}
	s.log.Info("📸 "+message, "path", path)
	return path, nil
}
