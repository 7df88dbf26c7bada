package fetch

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traceops/capfetch/pkg/storage"
)

// fakeBackend hands out objects whose content length equals their listed
// size, and records every call.
type fakeBackend struct {
	objects   map[string][]storage.Object
	fetchErr  error
	listCalls []string
	fetched   []string
}

func (f *fakeBackend) ListDay(_ context.Context, prefix string) ([]storage.Object, error) {
	f.listCalls = append(f.listCalls, prefix)
	return f.objects[prefix], nil
}

func (f *fakeBackend) Fetch(_ context.Context, key, dest string) (int64, error) {
	if f.fetchErr != nil {
		return 0, f.fetchErr
	}
	f.fetched = append(f.fetched, key)
	var size int64
	for _, objs := range f.objects {
		for _, o := range objs {
			if o.Key == key {
				size = o.Size
			}
		}
	}
	if err := os.WriteFile(dest, make([]byte, size), 0o644); err != nil {
		return 0, err
	}
	return size, nil
}

func (f *fakeBackend) Name() string { return "fake://captures/" }

type progressRecord struct {
	done, total           int
	doneBytes, totalBytes int64
}

func TestDownloadAllProgress(t *testing.T) {
	objs := []storage.Object{
		{Key: "2020/12/20/05-30_a.pcap", Size: 100},
		{Key: "2020/12/20/06-45_b.pcap", Size: 200},
	}
	b := &fakeBackend{objects: map[string][]storage.Object{"2020/12/20/": objs}}

	var records []progressRecord
	paths, err := DownloadAll(context.Background(), b, objs, t.TempDir(), func(done, total int, doneBytes, totalBytes int64) {
		records = append(records, progressRecord{done, total, doneBytes, totalBytes})
	})
	require.NoError(t, err)
	require.Len(t, paths, 2)

	assert.Equal(t, []progressRecord{
		{1, 2, 100, 300},
		{2, 2, 300, 300},
	}, records)

	// Listing order is preserved.
	assert.Equal(t, []string{"2020/12/20/05-30_a.pcap", "2020/12/20/06-45_b.pcap"}, b.fetched)
	for _, p := range paths {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.NotZero(t, info.Size())
	}
}

func TestDownloadAllFailsFast(t *testing.T) {
	objs := []storage.Object{
		{Key: "2020/12/20/05-30_a.pcap", Size: 100},
		{Key: "2020/12/20/06-45_b.pcap", Size: 200},
	}
	b := &fakeBackend{
		objects:  map[string][]storage.Object{"2020/12/20/": objs},
		fetchErr: fmt.Errorf("%w: connection reset", storage.ErrBackendUnavailable),
	}

	var calls int
	_, err := DownloadAll(context.Background(), b, objs, t.TempDir(), func(int, int, int64, int64) { calls++ })
	assert.ErrorIs(t, err, storage.ErrBackendUnavailable)
	assert.Zero(t, calls, "no progress is reported for a failed object")
}

func TestDownloadAllEmpty(t *testing.T) {
	b := &fakeBackend{}
	paths, err := DownloadAll(context.Background(), b, nil, t.TempDir(), nil)
	require.NoError(t, err)
	assert.Empty(t, paths)
}
