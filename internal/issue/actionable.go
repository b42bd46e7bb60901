// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
)

// ActionableError tells the user what assetctl was doing, on which file or
// module, and what to try next. Build one with NewErrorContext:
//
//	return issue.NewErrorContext().
//		WithOperation("load manifests").
//		WithResource(dir).
//		WithSuggestion("Check the YAML syntax at the reported line").
//		WithIssue(issue.ManifestInvalidId).
//		Wrap(err).
//		BuildError()
type ActionableError struct {
	Operation   string
	Resource    string
	Suggestions []string
	// Issue links a help page. Zero means IssueId classifies Cause instead.
	Issue Id
	Cause error
}

func (e *ActionableError) Error() string {
	parts := []string{"failed to " + e.Operation}
	if e.Resource != "" {
		parts = append(parts, e.Resource)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *ActionableError) Unwrap() error { return e.Cause }

// Format renders the error for a terminal. Suggestions follow the message as
// arrows; verbose output adds every layer of the cause chain.
func (e *ActionableError) Format(verbose bool) string {
	lines := []string{e.Error()}
	if len(e.Suggestions) > 0 {
		lines = append(lines, "")
		for _, s := range e.Suggestions {
			lines = append(lines, "  → "+s)
		}
	}
	if verbose && e.Cause != nil {
		lines = append(lines, "", "Caused by:")
		n := 0
		for cause := e.Cause; cause != nil; cause = errors.Unwrap(cause) {
			n++
			lines = append(lines, fmt.Sprintf("  %d. %v", n, cause))
		}
	}
	return strings.Join(lines, "\n")
}

// IssueId returns the linked help page, or Classify(Cause) when none was set.
func (e *ActionableError) IssueId() Id {
	if e.Issue == 0 {
		return Classify(e.Cause)
	}
	return e.Issue
}

// ErrorContext accumulates the fields of an ActionableError. A context may be
// reused; each Build copies the suggestions collected so far.
type ErrorContext struct {
	draft ActionableError
}

func NewErrorContext() *ErrorContext {
	return new(ErrorContext)
}

func (c *ErrorContext) WithOperation(op string) *ErrorContext {
	c.draft.Operation = op
	return c
}

func (c *ErrorContext) WithResource(res string) *ErrorContext {
	c.draft.Resource = res
	return c
}

// WithSuggestion appends a hint; call it once per hint.
func (c *ErrorContext) WithSuggestion(hint string) *ErrorContext {
	c.draft.Suggestions = append(c.draft.Suggestions, hint)
	return c
}

func (c *ErrorContext) WithIssue(id Id) *ErrorContext {
	c.draft.Issue = id
	return c
}

func (c *ErrorContext) Wrap(cause error) *ErrorContext {
	c.draft.Cause = cause
	return c
}

// Build returns nil when no operation was given.
func (c *ErrorContext) Build() *ActionableError {
	if c.draft.Operation == "" {
		return nil
	}
	out := c.draft
	out.Suggestions = append([]string(nil), c.draft.Suggestions...)
	return &out
}

// BuildError is Build behind the error interface; it never returns a typed nil.
func (c *ErrorContext) BuildError() error {
	if ae := c.Build(); ae != nil {
		return ae
	}
	return nil
}
