package trajectory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds LoadAll when no limit is given.
const DefaultConcurrency = 8

// ListDirs returns the immediate subdirectories of root in name order.
func ListDirs(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", root, err)
	}

	var dirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, filepath.Join(root, entry.Name()))
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// LoadAll loads each directory with FromFolder, at most concurrency at a
// time. result[i] belongs to dirs[i] and is nil when that trajectory could
// not be loaded. The only error is the context's.
func LoadAll(ctx context.Context, dirs []string, opts LoadOptions, concurrency int) ([]*Trajectory, error) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	results := make([]*Trajectory, len(dirs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, dir := range dirs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = FromFolder(dir, opts)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
