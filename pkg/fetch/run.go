package fetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"

	"github.com/traceops/capfetch/internal"
	"github.com/traceops/capfetch/pkg/pcaptool"
	"github.com/traceops/capfetch/pkg/resolve"
	"github.com/traceops/capfetch/pkg/storage"
)

var logger = internal.GetLogger("capfetch")

// Run executes one fetch end to end and returns the path of the produced
// capture file.
func Run(ctx context.Context, conf *Config) (string, error) {
	return run(ctx, conf, pcaptool.New(), nil)
}

// run is the injectable core of Run. backend == nil means "construct from
// the credential set in conf".
func run(ctx context.Context, conf *Config, tools *pcaptool.Tools, backend storage.Backend) (string, error) {
	if err := conf.Validate(); err != nil {
		return "", err
	}

	// Probed before anything touches the network: a missing merge engine
	// must never cost a download.
	if !tools.MergeAvailable() {
		return "", pcaptool.ErrMergeUnavailable
	}

	addrs := internal.NewStringSet()
	for _, a := range conf.Addresses {
		addrs.Add(a)
	}
	if len(conf.ICCIDs) > 0 || len(conf.IMSIs) > 0 {
		api := resolve.New(conf.APIURL, conf.APIToken, conf.APIOrg)
		resolved, err := api.ResolveAll(ctx, conf.ICCIDs, conf.IMSIs)
		if err != nil {
			return "", err
		}
		for _, ip := range resolved {
			addrs.Add(ip)
		}
	}

	if backend == nil {
		var err error
		backend, err = newBackend(ctx, conf)
		if err != nil {
			return "", err
		}
	}

	// The scratch area is uniquely named so concurrent runs never share
	// one. It is destroyed on every exit path unless kept for diagnostics.
	scratch := filepath.Join(os.TempDir(), "capfetch-"+uuid.NewString())
	if err := os.MkdirAll(scratch, 0o700); err != nil {
		return "", fmt.Errorf("creating scratch area: %w", err)
	}
	defer func() {
		if conf.KeepTemp {
			logger.Infof("scratch area kept at %s", scratch)
			return
		}
		if err := os.RemoveAll(scratch); err != nil {
			logger.Warnf("failed to remove scratch area %s: %v", scratch, err)
		}
	}()

	objs, err := storage.ListRange(ctx, backend, conf.From, conf.To)
	if err != nil {
		return "", err
	}
	logger.Infof("found %d capture object(s) in %s between %s and %s",
		len(objs), backend.Name(), conf.From.UTC().Format("2006-01-02 15:04"), conf.To.UTC().Format("2006-01-02 15:04"))

	files, err := DownloadAll(ctx, backend, objs, scratch, func(done, total int, doneBytes, totalBytes int64) {
		logger.Infof("downloaded %d/%d (%d/%d bytes)", done, total, doneBytes, totalBytes)
	})
	if err != nil {
		return "", err
	}

	if filter := addrs.Elements(); len(filter) > 0 {
		sort.Strings(filter)
		logger.Infof("filtering %d file(s) for %d address(es)", len(files), len(filter))
		filtered := make([]string, 0, len(files))
		for i, f := range files {
			out := filepath.Join(scratch, fmt.Sprintf("filtered_%04d.pcap", i))
			if err := tools.Filter(ctx, f, out, filter); err != nil {
				return "", err
			}
			filtered = append(filtered, out)
		}
		files = filtered
	}

	merged := filepath.Join(scratch, "merged.pcap")
	if err := tools.Merge(ctx, files, merged); err != nil {
		return "", err
	}

	final := filepath.Join(conf.OutputDir, OutputName(conf.From, conf.To, conf.filterTerms()))
	if err := internal.MoveFile(merged, final); err != nil {
		return "", fmt.Errorf("moving result to %s: %w", final, err)
	}
	return final, nil
}

func newBackend(ctx context.Context, conf *Config) (storage.Backend, error) {
	if conf.S3 != nil {
		return storage.NewS3(ctx, *conf.S3)
	}
	return storage.NewAzure(*conf.Azure)
}
