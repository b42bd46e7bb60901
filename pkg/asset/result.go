// SPDX-License-Identifier: MPL-2.0

package asset

import (
	"errors"
	"fmt"
)

// Result statuses.
const (
	StatusInstalled      Status = "installed"
	StatusBatchInstalled Status = "batch_installed"
	StatusAppended       Status = "appended"
	StatusMerged         Status = "merged"
	StatusWouldInstall   Status = "would_install"
	StatusWouldAppend    Status = "would_append"
	StatusWouldMerge     Status = "would_merge"
	StatusSkipped        Status = "skipped"
	StatusError          Status = "error"
	StatusCancelled      Status = "cancelled"
	StatusPartial        Status = "partial"
)

type (
	// Status is the outcome kind of an installation attempt.
	Status string

	// Result is the structured outcome of installing one descriptor, or of a
	// batch of them. Failures are reported here rather than as Go errors; Err
	// carries the classified cause (ErrNotFound, ErrTooLarge, ...) when present.
	Result struct {
		Success      bool
		Source       string
		Destination  string
		Status       Status
		Message      string
		BatchResults []Result
		Err          error
	}
)

// String returns the string representation of the Status.
func (s Status) String() string { return string(s) }

// IsDryRun reports whether the status belongs to a dry run.
func (s Status) IsDryRun() bool {
	return s == StatusWouldInstall || s == StatusWouldAppend || s == StatusWouldMerge
}

// Applied reports whether the status represents an effect that was (or in a
// dry run, would be) applied.
func (s Status) Applied() bool {
	switch s {
	case StatusInstalled, StatusBatchInstalled, StatusAppended, StatusMerged,
		StatusWouldInstall, StatusWouldAppend, StatusWouldMerge:
		return true
	default:
		return false
	}
}

// Skipped returns a successful skip result.
func Skipped(src, dst, msg string) Result {
	return Result{Success: true, Source: src, Destination: dst, Status: StatusSkipped, Message: msg}
}

// Completed returns a skip result for an operation the ledger reports as done.
func Completed(src, dst string) Result {
	r := Skipped(src, dst, "already installed")
	r.Err = ErrAlreadyCompleted
	return r
}

// Failed returns an error result for err.
func Failed(src, dst string, err error) Result {
	return Result{
		Success:     false,
		Source:      src,
		Destination: dst,
		Status:      StatusError,
		Message:     err.Error(),
		Err:         err,
	}
}

// Is reports whether the result's error matches target.
func (r Result) Is(target error) bool {
	return r.Err != nil && errors.Is(r.Err, target)
}

// Counts tallies the direct children of a batch result. A result without
// children counts itself.
func (r Result) Counts() (applied, skipped, failed int) {
	children := r.BatchResults
	if children == nil {
		children = []Result{r}
	}
	for _, c := range children {
		switch {
		case !c.Success:
			failed++
		case c.Status == StatusSkipped:
			skipped++
		default:
			applied++
		}
	}
	return applied, skipped, failed
}

// Batch aggregates children into one result. The status is batch_installed
// when nothing failed, partial when some children failed, and error when all
// did. A batch where every child was skipped is itself a skip.
func Batch(src, dst string, children []Result) Result {
	r := Result{Source: src, Destination: dst, BatchResults: children}
	applied, skipped, failed := r.Counts()
	if len(children) == 0 {
		r.Success = true
		r.Status = StatusSkipped
		r.Message = "nothing to install"
		return r
	}
	r.Message = fmt.Sprintf("%d installed, %d skipped, %d failed", applied, skipped, failed)
	switch {
	case failed == len(children):
		r.Status = StatusError
	case failed > 0:
		r.Status = StatusPartial
	case applied == 0:
		r.Success = true
		r.Status = StatusSkipped
	default:
		r.Success = true
		r.Status = StatusBatchInstalled
	}
	return r
}
