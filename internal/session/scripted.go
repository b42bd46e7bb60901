// SPDX-License-Identifier: MPL-2.0

package session

import (
	"fmt"
	"strings"
)

// Scripted is a Session that replays prepared answers and records every
// printed line and question. When the answers run out the default is used.
type Scripted struct {
	Confirms []bool
	Answers  []string

	Lines     []string
	Questions []string
}

// NewScripted creates a Scripted session answering Confirm calls in order.
func NewScripted(confirms ...bool) *Scripted {
	return &Scripted{Confirms: confirms}
}

// Println implements Session.
func (s *Scripted) Println(a ...any) {
	s.Lines = append(s.Lines, strings.TrimSuffix(fmt.Sprintln(a...), "\n"))
}

// Confirm implements Session.
func (s *Scripted) Confirm(question string, def bool) (bool, error) {
	s.Questions = append(s.Questions, question)
	if len(s.Confirms) == 0 {
		return def, nil
	}
	answer := s.Confirms[0]
	s.Confirms = s.Confirms[1:]
	return answer, nil
}

// Ask implements Session.
func (s *Scripted) Ask(question, def string) (string, error) {
	s.Questions = append(s.Questions, question)
	if len(s.Answers) == 0 {
		return def, nil
	}
	answer := s.Answers[0]
	s.Answers = s.Answers[1:]
	return answer, nil
}
