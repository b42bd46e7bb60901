// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/invowk/assetctl/pkg/asset"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  *ActionableError
		want string
	}{
		{"operation only", &ActionableError{Operation: "install module"}, "failed to install module"},
		{"with resource", &ActionableError{Operation: "install module", Resource: "blog"}, "failed to install module: blog"},
		{
			"with cause",
			&ActionableError{Operation: "load manifests", Resource: "plugins", Cause: errors.New("bad yaml")},
			"failed to load manifests: plugins: bad yaml",
		},
		{"cause without resource", &ActionableError{Operation: "read ledger", Cause: errors.New("corrupt")}, "failed to read ledger: corrupt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	nested := &ActionableError{
		Operation: "install module",
		Cause:     &ActionableError{Operation: "append", Cause: errors.New("file not found")},
	}
	withHints := &ActionableError{
		Operation:   "load configuration",
		Resource:    "assetctl.toml",
		Suggestions: []string{"Run 'assetctl config init'", "Check the TOML syntax"},
	}

	tests := []struct {
		name    string
		err     *ActionableError
		verbose bool
		want    string
	}{
		{
			name: "suggestions",
			err:  withHints,
			want: "failed to load configuration: assetctl.toml\n\n  → Run 'assetctl config init'\n  → Check the TOML syntax",
		},
		{
			name: "terse hides the chain",
			err:  nested,
			want: "failed to install module: failed to append: file not found",
		},
		{
			name:    "verbose lists the chain",
			err:     nested,
			verbose: true,
			want: "failed to install module: failed to append: file not found\n\nCaused by:\n" +
				"  1. failed to append: file not found\n  2. file not found",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if diff := cmp.Diff(tt.want, tt.err.Format(tt.verbose)); diff != "" {
				t.Errorf("Format() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestActionableError_IssueId(t *testing.T) {
	t.Parallel()

	explicit := &ActionableError{Operation: "x", Issue: ConfigLoadFailedId, Cause: asset.ErrTooLarge}
	if got := explicit.IssueId(); got != ConfigLoadFailedId {
		t.Errorf("IssueId() = %d, want ConfigLoadFailedId", got)
	}
	classified := &ActionableError{Operation: "x", Cause: fmt.Errorf("routes.php: %w", asset.ErrTooLarge)}
	if got := classified.IssueId(); got != TargetTooLargeId {
		t.Errorf("IssueId() = %d, want TargetTooLargeId", got)
	}
}

func TestErrorContext(t *testing.T) {
	t.Parallel()

	if NewErrorContext().WithResource("x").Build() != nil {
		t.Error("Build() without operation should be nil")
	}
	if err := NewErrorContext().BuildError(); err != nil {
		t.Errorf("BuildError() without operation = %v, want nil", err)
	}

	cause := fmt.Errorf("app.php: %w", asset.ErrMalformedTarget)
	ctx := NewErrorContext().
		WithOperation("merge config").
		WithResource("config/app.php").
		WithSuggestion("Check the file").
		WithIssue(MalformedTargetId)
	first := ctx.Wrap(cause).Build()

	want := &ActionableError{
		Operation:   "merge config",
		Resource:    "config/app.php",
		Suggestions: []string{"Check the file"},
		Issue:       MalformedTargetId,
		Cause:       cause,
	}
	if diff := cmp.Diff(want, first, cmp.Comparer(func(a, b error) bool { return a == b })); diff != "" {
		t.Errorf("Build() mismatch (-want +got):\n%s", diff)
	}
	if !errors.Is(first, asset.ErrMalformedTarget) {
		t.Error("errors.Is should reach the wrapped sentinel")
	}

	second := ctx.WithSuggestion("Edit it by hand").Wrap(errors.New("other")).Build()
	if len(first.Suggestions) != 1 || len(second.Suggestions) != 2 {
		t.Errorf("suggestions leaked between builds: %v / %v", first.Suggestions, second.Suggestions)
	}
	if !strings.HasSuffix(second.Error(), ": other") {
		t.Errorf("reused context kept the old cause: %v", second)
	}
}
