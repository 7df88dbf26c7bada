// Package pcaptool drives the external capture tooling: mergecap for
// time-ordered merging and tcpdump for address filtering. The binaries are
// mandatory collaborators; there is no in-process fallback.
package pcaptool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

var (
	ErrMergeUnavailable = errors.New("mergecap not found in PATH")
	ErrMergeFailed      = errors.New("capture merge failed")
	ErrFilterFailed     = errors.New("capture filter failed")
)

const (
	mergeBinary  = "mergecap"
	filterBinary = "tcpdump"
)

// Runner abstracts process execution so tests can stand in for the external
// tools.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
	Look(name string) (string, error)
}

type execRunner struct{}

func (execRunner) Look(name string) (string, error) { return exec.LookPath(name) }

func (execRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%v: %s", err, msg)
		}
		return err
	}
	return nil
}

// Tools invokes the merge and filter engines as scoped child processes.
type Tools struct {
	runner Runner
}

func New() *Tools { return &Tools{runner: execRunner{}} }

func NewWithRunner(r Runner) *Tools { return &Tools{runner: r} }

// MergeAvailable reports whether the merge engine can be invoked. It is
// probed before any network work so a missing binary never wastes a download.
func (t *Tools) MergeAvailable() bool {
	_, err := t.runner.Look(mergeBinary)
	return err == nil
}

// FilterAvailable reports whether the filter engine can be invoked.
func (t *Tools) FilterAvailable() bool {
	_, err := t.runner.Look(filterBinary)
	return err == nil
}

// Filter extracts the packets involving any of addrs from in into out. The
// predicate is an OR of host matches, passed as argv tokens rather than a
// shell string.
func (t *Tools) Filter(ctx context.Context, in, out string, addrs []string) error {
	args := []string{"-r", in, "-w", out}
	args = append(args, hostExpr(addrs)...)
	if err := t.runner.Run(ctx, filterBinary, args...); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrFilterFailed, in, err)
	}
	return nil
}

func hostExpr(addrs []string) []string {
	var expr []string
	for i, a := range addrs {
		if i > 0 {
			expr = append(expr, "or")
		}
		expr = append(expr, "host", a)
	}
	return expr
}

// Merge combines inputs into out ordered by capture timestamp. Zero inputs
// still produce a structurally valid empty capture, without invoking the
// engine.
func (t *Tools) Merge(ctx context.Context, inputs []string, out string) error {
	if len(inputs) == 0 {
		return WriteEmptyCapture(out)
	}
	args := append([]string{"-w", out}, inputs...)
	if err := t.runner.Run(ctx, mergeBinary, args...); err != nil {
		return fmt.Errorf("%w: %v", ErrMergeFailed, err)
	}
	return nil
}
