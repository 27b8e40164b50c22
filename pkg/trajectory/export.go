package trajectory

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// ErrNoScreenshots is returned by ExportScreenshotsPDF when none of the
// trajectory's screenshots exist on disk.
var ErrNoScreenshots = errors.New("trajectory has no screenshots on disk")

// ExistingScreenshots returns the screenshots that are present on disk,
// in trajectory order.
func ExistingScreenshots(t *Trajectory) []string {
	var existing []string
	for _, path := range t.Screenshots {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			existing = append(existing, path)
		}
	}
	return existing
}

// ExportScreenshotsPDF writes the trajectory's screenshots, one per page,
// to a new PDF at out and returns the page count. Missing screenshots are
// skipped. An existing file at out is replaced.
func ExportScreenshotsPDF(t *Trajectory, out string) (int, error) {
	images := ExistingScreenshots(t)
	if len(images) == 0 {
		return 0, ErrNoScreenshots
	}

	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return 0, fmt.Errorf("failed to create output directory: %w", err)
	}
	// ImportImagesFile appends to an existing PDF.
	if err := os.Remove(out); err != nil && !errors.Is(err, os.ErrNotExist) {
		return 0, fmt.Errorf("failed to replace %s: %w", out, err)
	}

	if err := api.ImportImagesFile(images, out, nil, nil); err != nil {
		return 0, fmt.Errorf("failed to export screenshots: %w", err)
	}

	debugLog.Infof("Exported %d screenshots of %s to %s", len(images), t.Dir, out)
	return len(images), nil
}
