// SPDX-License-Identifier: MPL-2.0

// Package session provides the interactive collaborator used by dependency
// installs: printing lines and asking yes/no or free-text questions.
//
// Console renders its prompts with huh. When the input is not a terminal
// (pipes, CI, tests) the forms run in accessible mode, which reads one plain
// line per question.
package session

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// ErrAborted is returned when the user cancels a prompt.
var ErrAborted = errors.New("prompt aborted")

type (
	// Session is the interactive collaborator. Implementations block until
	// the user answers.
	Session interface {
		// Println prints one line.
		Println(a ...any)
		// Confirm asks a yes/no question. def is used for an empty answer.
		Confirm(question string, def bool) (bool, error)
		// Ask asks a free-text question. def is used for an empty answer.
		Ask(question, def string) (string, error)
	}

	// Console is a Session over a reader and writer, normally stdin and stdout.
	Console struct {
		raw        io.Reader
		in         *bufio.Reader
		out        io.Writer
		assumeYes  bool
		accessible bool
		theme      *huh.Theme
	}

	// ConsoleOption configures a Console.
	ConsoleOption func(*Console)

	// lineReader hands out at most one line per Read, so each accessible
	// form consumes only its own answer from a shared input.
	lineReader struct {
		r *bufio.Reader
	}
)

// WithAssumeYes makes Confirm answer yes without reading input.
func WithAssumeYes(yes bool) ConsoleOption {
	return func(c *Console) { c.assumeYes = yes }
}

// WithStyles overrides the question and hint styles of the prompts.
func WithStyles(question, hint lipgloss.Style) ConsoleOption {
	return func(c *Console) {
		c.theme.Focused.Title = question
		c.theme.Focused.Description = hint
		c.theme.Blurred.Title = question
		c.theme.Blurred.Description = hint
	}
}

// WithAccessible forces accessible (line based) prompts on or off. By
// default they are used whenever the input is not a terminal.
func WithAccessible(accessible bool) ConsoleOption {
	return func(c *Console) { c.accessible = accessible }
}

// NewConsole creates a Console.
func NewConsole(in io.Reader, out io.Writer, opts ...ConsoleOption) *Console {
	c := &Console{
		raw:        in,
		in:         bufio.NewReader(in),
		out:        out,
		accessible: !isTerminal(in),
		theme:      huh.ThemeBase(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Println implements Session.
func (c *Console) Println(a ...any) {
	fmt.Fprintln(c.out, a...)
}

// Confirm implements Session. End of input selects def.
func (c *Console) Confirm(question string, def bool) (bool, error) {
	if c.assumeYes {
		hint := "[y/N]"
		if def {
			hint = "[Y/n]"
		}
		fmt.Fprintln(c.out, c.theme.Focused.Title.Render(question)+" "+hint+" yes")
		return true, nil
	}
	if c.exhausted() {
		return def, nil
	}

	answer := def
	field := huh.NewConfirm().
		Title(question).
		Affirmative("Yes").
		Negative("No").
		Value(&answer)
	if err := c.run(field); err != nil {
		return false, err
	}
	return answer, nil
}

// Ask implements Session. End of input selects def.
func (c *Console) Ask(question, def string) (string, error) {
	if c.exhausted() {
		return def, nil
	}

	var answer string
	title := question
	if def != "" {
		title += " [" + def + "]"
	}
	field := huh.NewInput().
		Title(title).
		Placeholder(def).
		Value(&answer)
	if err := c.run(field); err != nil {
		return "", err
	}
	if answer = strings.TrimSpace(answer); answer == "" {
		return def, nil
	}
	return answer, nil
}

func (c *Console) run(field huh.Field) error {
	form := huh.NewForm(huh.NewGroup(field)).
		WithTheme(c.theme).
		WithShowHelp(false).
		WithAccessible(c.accessible).
		WithOutput(c.out)
	if c.accessible {
		form = form.WithInput(lineReader{r: c.in})
	} else {
		form = form.WithInput(c.raw)
	}
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return ErrAborted
		}
		return fmt.Errorf("prompt: %w", err)
	}
	return nil
}

// exhausted reports whether accessible input has no more data. A terminal
// is never peeked, since that would block before the prompt is drawn.
func (c *Console) exhausted() bool {
	if !c.accessible {
		return false
	}
	_, err := c.in.Peek(1)
	return errors.Is(err, io.EOF)
}

func (l lineReader) Read(p []byte) (int, error) {
	for i := range p {
		b, err := l.r.ReadByte()
		if err != nil {
			if i > 0 {
				return i, nil
			}
			return 0, err
		}
		p[i] = b
		if b == '\n' {
			return i + 1, nil
		}
	}
	return len(p), nil
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
