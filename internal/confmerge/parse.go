// SPDX-License-Identifier: MPL-2.0

package confmerge

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/invowk/assetctl/pkg/asset"
)

// Node kinds.
const (
	KindArray NodeKind = iota
	KindString
	KindNumber
	KindBool
	KindNull
	KindExpr
)

const openTag = "<?php"

// arrowHead matches the parameter list of an arrow function, whose "=>"
// belongs to the value rather than separating a key from it.
var arrowHead = regexp.MustCompile(`(?is)^(static\s+)?fn\s*&?\s*\(.*\)(\s*:\s*\??[\w\\|]+)?$`)

type (
	// NodeKind classifies a parsed value.
	NodeKind int

	// Node is a parsed value with its source offsets.
	Node struct {
		Kind NodeKind
		// Start and End delimit the value text in the source.
		Start, End int
		// Close is the offset of the closing bracket of an array.
		Close int
		// Entries are the elements of an array, keyed or positional.
		Entries []*Entry
		// Text is the source text of a scalar or expression.
		Text string

		value any
	}

	// Entry is one element of an array literal.
	Entry struct {
		Key   string
		Keyed bool
		// Start is the offset where the entry begins (its key, or its value
		// for positional entries).
		Start int
		Value *Node
	}

	// Document is a parsed config file.
	Document struct {
		src  []byte
		Root *Node
	}

	parser struct {
		src []byte
		pos int
	}
)

// Parse parses src as a config file holding one returned nested-map literal.
// Errors wrap asset.ErrMalformedTarget.
func Parse(src []byte) (*Document, error) {
	p := &parser{src: src}
	p.skipSpace()
	if p.hasPrefix(openTag) {
		p.pos += len(openTag)
		p.skipSpace()
	}
	if !p.consumeWord("return") {
		return nil, p.errorf("expected a return statement")
	}
	p.skipSpace()
	if p.peek() != '[' {
		return nil, p.errorf("expected an array literal after return")
	}
	root, err := p.parseArray()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.peek() == ';' {
		p.pos++
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, p.errorf("unexpected content after the returned array")
	}
	for _, e := range root.Entries {
		if !e.Keyed {
			return nil, fmt.Errorf("%w: returned array is a list, not a map", asset.ErrMalformedTarget)
		}
	}
	return &Document{src: src, Root: root}, nil
}

// Source returns the document bytes.
func (d *Document) Source() []byte { return d.src }

// Lookup returns the node addressed by the dot-path key.
func (d *Document) Lookup(key string) (*Node, bool) {
	node := d.Root
	for seg := range strings.SplitSeq(key, ".") {
		if node.Kind != KindArray {
			return nil, false
		}
		e := node.Entry(seg)
		if e == nil {
			return nil, false
		}
		node = e.Value
	}
	return node, true
}

// Has reports whether the dot-path key exists.
func (d *Document) Has(key string) bool {
	_, ok := d.Lookup(key)
	return ok
}

// Entry returns the keyed entry named key, or nil.
func (n *Node) Entry(key string) *Entry {
	for _, e := range n.Entries {
		if e.Keyed && e.Key == key {
			return e
		}
	}
	return nil
}

// IsMap reports whether the node is an array literal with only keyed entries.
func (n *Node) IsMap() bool {
	if n.Kind != KindArray {
		return false
	}
	for _, e := range n.Entries {
		if !e.Keyed {
			return false
		}
	}
	return true
}

// Interface converts the node into Go values: maps become map[string]any,
// lists []any, expressions asset.Raw.
func (n *Node) Interface() any {
	if n.Kind != KindArray {
		return n.value
	}
	keyed := 0
	for _, e := range n.Entries {
		if e.Keyed {
			keyed++
		}
	}
	if keyed == 0 && len(n.Entries) > 0 {
		list := make([]any, 0, len(n.Entries))
		for _, e := range n.Entries {
			list = append(list, e.Value.Interface())
		}
		return list
	}
	m := make(map[string]any, len(n.Entries))
	for i, e := range n.Entries {
		key := e.Key
		if !e.Keyed {
			key = strconv.Itoa(i)
		}
		m[key] = e.Value.Interface()
	}
	return m
}

func (p *parser) errorf(format string, args ...any) error {
	line := 1 + strings.Count(string(p.src[:min(p.pos, len(p.src))]), "\n")
	return fmt.Errorf("%w: line %d: %s", asset.ErrMalformedTarget, line, fmt.Sprintf(format, args...))
}

func (p *parser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) hasPrefix(s string) bool {
	return strings.HasPrefix(string(p.src[p.pos:]), s)
}

func (p *parser) consumeWord(w string) bool {
	if !p.hasPrefix(w) {
		return false
	}
	next := p.pos + len(w)
	if next < len(p.src) && isIdentByte(p.src[next]) {
		return false
	}
	p.pos = next
	return true
}

// skipSpace skips whitespace and comments.
func (p *parser) skipSpace() {
	for p.pos < len(p.src) {
		if isSpace(p.src[p.pos]) {
			p.pos++
			continue
		}
		if !p.skipComment() {
			return
		}
	}
}

// skipComment consumes one comment at pos and reports whether it did.
func (p *parser) skipComment() bool {
	switch {
	case p.hasPrefix("//"), p.hasPrefix("#"):
		for p.pos < len(p.src) && p.src[p.pos] != '\n' {
			p.pos++
		}
		return true
	case p.hasPrefix("/*"):
		end := strings.Index(string(p.src[p.pos+2:]), "*/")
		if end < 0 {
			p.pos = len(p.src)
		} else {
			p.pos += 2 + end + 2
		}
		return true
	}
	return false
}

func (p *parser) parseArray() (*Node, error) {
	node := &Node{Kind: KindArray, Start: p.pos}
	p.pos++ // [
	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, p.errorf("unterminated array literal")
		}
		if p.peek() == ']' {
			node.Close = p.pos
			p.pos++
			node.End = p.pos
			return node, nil
		}

		entry := &Entry{Start: p.pos}
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.hasPrefix("=>") {
			if v.Kind == KindArray {
				return nil, p.errorf("array used as a key")
			}
			entry.Key, entry.Keyed = v.keyString(), true
			p.pos += 2
			p.skipSpace()
			if v, err = p.parseValue(); err != nil {
				return nil, err
			}
			p.skipSpace()
		}
		entry.Value = v
		node.Entries = append(node.Entries, entry)

		switch p.peek() {
		case ',':
			p.pos++
		case ']':
		default:
			return nil, p.errorf("expected ',' or ']'")
		}
	}
}

func (p *parser) parseValue() (*Node, error) {
	if p.peek() == '[' {
		return p.parseArray()
	}
	start := p.pos
	end, err := p.scanExpr()
	if err != nil {
		return nil, err
	}
	text := string(p.src[start:end])
	if text == "" {
		return nil, p.errorf("expected a value")
	}
	node := &Node{Start: start, End: end, Text: text}
	node.classify()
	return node, nil
}

// scanExpr advances to the next delimiter at nesting depth zero (',' ';' ']'
// or '=>') and returns the offset just past the last significant byte. The
// "=>" of an arrow function is part of the expression.
func (p *parser) scanExpr() (int, error) {
	depth := 0
	start := p.pos
	sigEnd := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == '\'' || c == '"':
			if err := p.skipString(c); err != nil {
				return 0, err
			}
			sigEnd = p.pos
		case isSpace(c):
			p.pos++
		case p.skipComment():
		case c == '(' || c == '[' || c == '{':
			depth++
			p.pos++
			sigEnd = p.pos
		case c == ')' || c == ']' || c == '}':
			if depth == 0 {
				if c == ']' {
					return sigEnd, nil
				}
				return 0, p.errorf("unbalanced %q", c)
			}
			depth--
			p.pos++
			sigEnd = p.pos
		case depth == 0 && (c == ',' || c == ';'):
			return sigEnd, nil
		case depth == 0 && p.hasPrefix("=>"):
			if !arrowHead.Match(p.src[start:sigEnd]) {
				return sigEnd, nil
			}
			p.pos += 2
			sigEnd = p.pos
		default:
			p.pos++
			sigEnd = p.pos
		}
	}
	return sigEnd, nil
}

func (p *parser) skipString(quote byte) error {
	p.pos++
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case '\\':
			p.pos += 2
		case quote:
			p.pos++
			return nil
		default:
			p.pos++
		}
	}
	return p.errorf("unterminated string literal")
}

func (n *Node) classify() {
	text := n.Text
	if s, ok := unquote(text); ok {
		n.Kind, n.value = KindString, s
		return
	}
	if looksNumeric(text) {
		if i, err := strconv.ParseInt(text, 10, 64); err == nil {
			n.Kind, n.value = KindNumber, i
			return
		}
		if f, err := strconv.ParseFloat(text, 64); err == nil {
			n.Kind, n.value = KindNumber, f
			return
		}
	}
	switch strings.ToLower(text) {
	case "true":
		n.Kind, n.value = KindBool, true
	case "false":
		n.Kind, n.value = KindBool, false
	case "null":
		n.Kind, n.value = KindNull, nil
	default:
		n.Kind, n.value = KindExpr, asset.Raw(text)
	}
}

func (n *Node) keyString() string {
	if n.Kind == KindString {
		return n.value.(string)
	}
	return n.Text
}

// unquote decodes text when it is exactly one quoted string literal.
func unquote(text string) (string, bool) {
	if len(text) < 2 {
		return "", false
	}
	quote := text[0]
	if quote != '\'' && quote != '"' {
		return "", false
	}
	var sb strings.Builder
	for i := 1; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '\\' && i+1 < len(text):
			i++
			sb.WriteString(unescape(quote, text[i]))
		case c == quote:
			return sb.String(), i == len(text)-1
		default:
			sb.WriteByte(c)
		}
	}
	return "", false
}

func unescape(quote, c byte) string {
	if quote == '\'' {
		if c == '\'' || c == '\\' {
			return string(c)
		}
		return "\\" + string(c)
	}
	switch c {
	case 'n':
		return "\n"
	case 't':
		return "\t"
	case '"', '\\', '$':
		return string(c)
	default:
		return "\\" + string(c)
	}
}

func looksNumeric(text string) bool {
	c := text[0]
	if c == '-' && len(text) > 1 {
		c = text[1]
	}
	return c == '.' || (c >= '0' && c <= '9')
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isIdentByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
