package fetch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/traceops/capfetch/pkg/storage"
)

// Progress receives cumulative accounting after each completed object.
type Progress func(done, total int, doneBytes, totalBytes int64)

// DownloadAll fetches objs into dir strictly sequentially, in listing order.
// Sequential on purpose: progress stays monotonic and readable, and the
// backend never sees a request burst. The first failure aborts; partial
// files are left for the run's scratch teardown.
func DownloadAll(ctx context.Context, b storage.Backend, objs []storage.Object, dir string, progress Progress) ([]string, error) {
	var totalBytes int64
	for _, o := range objs {
		totalBytes += o.Size
	}

	var doneBytes int64
	paths := make([]string, 0, len(objs))
	for i, o := range objs {
		dest := filepath.Join(dir, fmt.Sprintf("%04d_%s", i, flattenKey(o.Key)))
		n, err := b.Fetch(ctx, o.Key, dest)
		if err != nil {
			return nil, fmt.Errorf("fetching %s%s: %w", b.Name(), o.Key, err)
		}
		doneBytes += n
		paths = append(paths, dest)
		if progress != nil {
			progress(i+1, len(objs), doneBytes, totalBytes)
		}
	}
	return paths, nil
}

func flattenKey(key string) string {
	return strings.ReplaceAll(key, "/", "_")
}
