package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/traceops/capfetch/pkg/pcaptool"
	"github.com/traceops/capfetch/pkg/storage"
)

type checkResult struct {
	Name   string
	OK     bool
	Detail string
}

func cmdDoctor() *cli.Command {
	return &cli.Command{
		Name:   "doctor",
		Action: doctorAction,
		Usage:  "Check the environment a fetch run depends on",
		Description: `
			Verifies the external capture tools, the scratch area and, when a
			credential set is supplied, the storage backend. Exits non-zero if
			any check fails.`,
		Flags: credentialFlags(),
	}
}

func doctorAction(c *cli.Context) error {
	setupLogging(c)
	return runDoctor(c, pcaptool.New())
}

func doctorChecks(c *cli.Context, tools *pcaptool.Tools) []checkResult {
	results := []checkResult{
		checkTool("merge engine (mergecap)", tools.MergeAvailable),
		checkTool("filter engine (tcpdump)", tools.FilterAvailable),
		checkScratch(),
	}
	return append(results, checkBackend(c))
}

func runDoctor(c *cli.Context, tools *pcaptool.Tools) error {
	results := doctorChecks(c, tools)

	failed := 0
	for _, r := range results {
		status := "OK  "
		if !r.OK {
			status = "FAIL"
			failed++
		}
		fmt.Printf("%s  %-28s %s\n", status, r.Name, r.Detail)
	}
	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	return nil
}

func checkTool(name string, available func() bool) checkResult {
	if !available() {
		return checkResult{Name: name, OK: false, Detail: "not found in PATH"}
	}
	return checkResult{Name: name, OK: true, Detail: "found"}
}

func checkScratch() checkResult {
	dir, err := os.MkdirTemp("", "capfetch-doctor-")
	if err != nil {
		return checkResult{Name: "scratch area", OK: false, Detail: err.Error()}
	}
	os.RemoveAll(dir)
	return checkResult{Name: "scratch area", OK: true, Detail: "writable (" + os.TempDir() + ")"}
}

func checkBackend(c *cli.Context) checkResult {
	name := "storage backend"

	var backend storage.Backend
	var err error
	s3, az := s3ConfigFromFlags(c), azureConfigFromFlags(c)
	switch {
	case s3 == nil && az == nil:
		return checkResult{Name: name, OK: true, Detail: "no credentials supplied, skipped"}
	case s3 != nil && az != nil:
		return checkResult{Name: name, OK: false, Detail: "both S3 and Azure credentials supplied"}
	case s3 != nil:
		backend, err = storage.NewS3(c.Context, *s3)
	default:
		backend, err = storage.NewAzure(*az)
	}
	if err != nil {
		return checkResult{Name: name, OK: false, Detail: err.Error()}
	}

	// One listing call against today's prefix proves credentials and
	// connectivity without moving data.
	if _, err := backend.ListDay(c.Context, storage.DayPrefix(time.Now())); err != nil {
		detail := err.Error()
		if errors.Is(err, storage.ErrBackendAuth) {
			detail = "credentials rejected: " + detail
		}
		return checkResult{Name: name, OK: false, Detail: detail}
	}
	return checkResult{Name: name, OK: true, Detail: backend.Name() + " reachable"}
}
