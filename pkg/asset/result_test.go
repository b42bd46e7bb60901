// SPDX-License-Identifier: MPL-2.0

package asset

import (
	"errors"
	"fmt"
	"testing"
)

func TestStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status  Status
		dryRun  bool
		applied bool
	}{
		{StatusInstalled, false, true},
		{StatusBatchInstalled, false, true},
		{StatusAppended, false, true},
		{StatusMerged, false, true},
		{StatusWouldInstall, true, true},
		{StatusWouldAppend, true, true},
		{StatusWouldMerge, true, true},
		{StatusSkipped, false, false},
		{StatusError, false, false},
		{StatusCancelled, false, false},
		{StatusPartial, false, false},
	}
	for _, tt := range tests {
		if got := tt.status.IsDryRun(); got != tt.dryRun {
			t.Errorf("%s.IsDryRun() = %v, want %v", tt.status, got, tt.dryRun)
		}
		if got := tt.status.Applied(); got != tt.applied {
			t.Errorf("%s.Applied() = %v, want %v", tt.status, got, tt.applied)
		}
	}
}

func TestResultConstructors(t *testing.T) {
	t.Parallel()

	s := Skipped("a", "b", "exists")
	if !s.Success || s.Status != StatusSkipped || s.Message != "exists" || s.Err != nil {
		t.Errorf("Skipped() = %+v", s)
	}

	c := Completed("a", "b")
	if !c.Success || c.Status != StatusSkipped || !c.Is(ErrAlreadyCompleted) {
		t.Errorf("Completed() = %+v", c)
	}

	cause := fmt.Errorf("routes.php: %w", ErrTooLarge)
	f := Failed("", "routes.php", cause)
	if f.Success || f.Status != StatusError || f.Message != cause.Error() {
		t.Errorf("Failed() = %+v", f)
	}
	if !f.Is(ErrTooLarge) || f.Is(ErrNotFound) {
		t.Error("Failed().Is should match only the wrapped sentinel")
	}
	if (Result{}).Is(ErrNotFound) {
		t.Error("a result without Err matches nothing")
	}
}

func TestBatch(t *testing.T) {
	t.Parallel()

	ok := Result{Success: true, Status: StatusInstalled}
	skip := Skipped("", "", "exists")
	bad := Failed("", "", errors.New("boom"))

	tests := []struct {
		name     string
		children []Result
		status   Status
		success  bool
		message  string
	}{
		{"empty", nil, StatusSkipped, true, "nothing to install"},
		{"all applied", []Result{ok, ok}, StatusBatchInstalled, true, "2 installed, 0 skipped, 0 failed"},
		{"applied and skipped", []Result{ok, skip}, StatusBatchInstalled, true, "1 installed, 1 skipped, 0 failed"},
		{"all skipped", []Result{skip, skip}, StatusSkipped, true, "0 installed, 2 skipped, 0 failed"},
		{"some failed", []Result{ok, bad}, StatusPartial, false, "1 installed, 0 skipped, 1 failed"},
		{"all failed", []Result{bad}, StatusError, false, "0 installed, 0 skipped, 1 failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := Batch("src", "dst", tt.children)
			if r.Status != tt.status || r.Success != tt.success || r.Message != tt.message {
				t.Errorf("Batch() = {%s %v %q}, want {%s %v %q}", r.Status, r.Success, r.Message, tt.status, tt.success, tt.message)
			}
			if r.Source != "src" || r.Destination != "dst" {
				t.Errorf("Batch() lost source/destination: %+v", r)
			}
		})
	}
}

func TestResult_CountsWithoutChildren(t *testing.T) {
	t.Parallel()

	a, s, f := Result{Success: true, Status: StatusAppended}.Counts()
	if a != 1 || s != 0 || f != 0 {
		t.Errorf("Counts() = %d/%d/%d, want 1/0/0", a, s, f)
	}
	a, s, f = Failed("", "", errors.New("x")).Counts()
	if a != 0 || s != 0 || f != 1 {
		t.Errorf("Counts() = %d/%d/%d, want 0/0/1", a, s, f)
	}
}
