// SPDX-License-Identifier: MPL-2.0

package confmerge

import (
	"errors"
	"fmt"
	"strings"

	"github.com/invowk/assetctl/pkg/asset"
)

const defaultIndentUnit = "    "

// ErrKeyExists is returned by Insert when the terminal key is already present.
var ErrKeyExists = errors.New("key already exists")

type splice struct {
	at   int
	text string
}

// Insert returns a copy of the document source with value added under the
// dot-path key. Every byte outside the inserted text is preserved. It fails
// with ErrKeyExists when the key is present, and with an error wrapping
// asset.ErrMalformedTarget when an intermediate segment is missing or does
// not hold a map.
func (d *Document) Insert(key string, value any) ([]byte, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: empty key", asset.ErrMalformedTarget)
	}
	segments := strings.Split(key, ".")
	parent := d.Root
	for i, seg := range segments[:len(segments)-1] {
		e := parent.Entry(seg)
		if e == nil {
			return nil, fmt.Errorf("%w: %q not found", asset.ErrMalformedTarget, strings.Join(segments[:i+1], "."))
		}
		if !e.Value.IsMap() {
			return nil, fmt.Errorf("%w: %q is not a map", asset.ErrMalformedTarget, strings.Join(segments[:i+1], "."))
		}
		parent = e.Value
	}
	name := segments[len(segments)-1]
	if parent.Entry(name) != nil {
		return nil, fmt.Errorf("%w: %s", ErrKeyExists, key)
	}

	lineStart := d.lineStart(parent.Close)
	closeIndent := leadingSpace(d.src[lineStart:])
	ownLine := strings.TrimSpace(string(d.src[lineStart:parent.Close])) == ""

	childIndent := closeIndent + defaultIndentUnit
	if len(parent.Entries) > 0 {
		if ind, ok := d.entryIndent(parent.Entries[0]); ok {
			childIndent = ind
		}
	}
	unit := defaultIndentUnit
	if u, ok := strings.CutPrefix(childIndent, closeIndent); ok && u != "" {
		unit = u
	}

	formatted, err := Format(value, childIndent, unit)
	if err != nil {
		return nil, err
	}
	entry := childIndent + quote(name) + " => " + formatted + ","

	var edits []splice
	if n := len(parent.Entries); n > 0 {
		last := parent.Entries[n-1]
		if !d.commaAfter(last.Value.End) {
			edits = append(edits, splice{at: last.Value.End, text: ","})
		}
	}
	if ownLine {
		edits = append(edits, splice{at: lineStart, text: entry + "\n"})
	} else {
		edits = append(edits, splice{at: parent.Close, text: "\n" + entry + "\n" + closeIndent})
	}
	return apply(d.src, edits), nil
}

// Merge parses src and inserts value under key. See Document.Insert.
func Merge(src []byte, key string, value any) ([]byte, error) {
	doc, err := Parse(src)
	if err != nil {
		return nil, err
	}
	return doc.Insert(key, value)
}

func (d *Document) lineStart(off int) int {
	return strings.LastIndexByte(string(d.src[:off]), '\n') + 1
}

// entryIndent returns the indentation of the line holding e, when e is the
// first thing on that line.
func (d *Document) entryIndent(e *Entry) (string, bool) {
	start := d.lineStart(e.Start)
	prefix := string(d.src[start:e.Start])
	if strings.TrimSpace(prefix) != "" {
		return "", false
	}
	return prefix, true
}

func (d *Document) commaAfter(off int) bool {
	p := &parser{src: d.src, pos: off}
	p.skipSpace()
	return p.peek() == ','
}

func leadingSpace(b []byte) string {
	i := 0
	for i < len(b) && (b[i] == ' ' || b[i] == '\t') {
		i++
	}
	return string(b[:i])
}

// apply performs edits in ascending offset order.
func apply(src []byte, edits []splice) []byte {
	var sb strings.Builder
	sb.Grow(len(src) + 64)
	prev := 0
	for _, e := range edits {
		sb.Write(src[prev:e.at])
		sb.WriteString(e.text)
		prev = e.at
	}
	sb.Write(src[prev:])
	return []byte(sb.String())
}
