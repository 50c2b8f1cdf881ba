// Package partialjson reads JSON documents that may be cut off at any byte.
//
// A truncated document yields every value that is already present: objects
// and arrays keep their finished members, a string cut off mid-way is
// returned as Incomplete, and members whose value has not started (or is an
// unfinished number or literal) are left out. A partial escape sequence at
// the end of a string is dropped until it is complete, so the text of a
// string only grows as the document grows.
package partialjson

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// ErrTruncated is returned alongside the partial value when input ended early
var ErrTruncated = errors.New("partialjson: truncated input")

// Incomplete is a string value cut off by the end of input
type Incomplete string

// Parse decodes data into map[string]any, []any, string, Incomplete,
// float64, bool or nil. It returns ErrTruncated together with the partial
// value when data is a valid prefix of a JSON document, and a syntax error
// when it is not.
func Parse(data string) (any, error) {
	p := &parser{s: data}
	v, err := p.value()
	if err != nil {
		return v, err
	}
	p.skipSpace()
	if p.i < len(p.s) {
		return v, p.syntaxError("trailing data")
	}
	return v, nil
}

// String returns obj[key] when it is a string. complete is false when the
// value was cut off.
func String(obj any, key string) (s string, complete bool, ok bool) {
	m, isMap := obj.(map[string]any)
	if !isMap {
		return "", false, false
	}
	switch v := m[key].(type) {
	case string:
		return v, true, true
	case Incomplete:
		return string(v), false, true
	default:
		return "", false, false
	}
}

type parser struct {
	s string
	i int
}

func (p *parser) syntaxError(msg string) error {
	return fmt.Errorf("partialjson: %s at offset %d", msg, p.i)
}

func (p *parser) skipSpace() {
	for p.i < len(p.s) {
		switch p.s[p.i] {
		case ' ', '\t', '\n', '\r':
			p.i++
		default:
			return
		}
	}
}

// value parses any JSON value. A nil value with ErrTruncated means nothing
// usable was read.
func (p *parser) value() (any, error) {
	p.skipSpace()
	if p.i >= len(p.s) {
		return nil, ErrTruncated
	}

	switch c := p.s[p.i]; {
	case c == '{':
		return p.object()
	case c == '[':
		return p.array()
	case c == '"':
		return p.str()
	case c == 't':
		return p.literal("true", true)
	case c == 'f':
		return p.literal("false", false)
	case c == 'n':
		return p.literal("null", nil)
	case c == '-' || (c >= '0' && c <= '9'):
		return p.number()
	default:
		return nil, p.syntaxError(fmt.Sprintf("unexpected character %q", c))
	}
}

func (p *parser) object() (any, error) {
	obj := map[string]any{}
	p.i++ // {

	first := true
	for {
		p.skipSpace()
		if p.i >= len(p.s) {
			return obj, ErrTruncated
		}
		if p.s[p.i] == '}' {
			p.i++
			return obj, nil
		}
		if !first {
			if p.s[p.i] != ',' {
				return obj, p.syntaxError("expected ',' or '}'")
			}
			p.i++
			p.skipSpace()
			if p.i >= len(p.s) {
				return obj, ErrTruncated
			}
		}
		first = false

		if p.s[p.i] != '"' {
			return obj, p.syntaxError("expected object key")
		}
		key, err := p.str()
		if err != nil {
			// An unfinished key carries no usable member
			return obj, err
		}

		p.skipSpace()
		if p.i >= len(p.s) {
			return obj, ErrTruncated
		}
		if p.s[p.i] != ':' {
			return obj, p.syntaxError("expected ':'")
		}
		p.i++

		v, err := p.value()
		if err != nil {
			if errors.Is(err, ErrTruncated) && v != nil {
				obj[key.(string)] = v
			}
			return obj, err
		}
		obj[key.(string)] = v
	}
}

func (p *parser) array() (any, error) {
	arr := []any{}
	p.i++ // [

	first := true
	for {
		p.skipSpace()
		if p.i >= len(p.s) {
			return arr, ErrTruncated
		}
		if p.s[p.i] == ']' {
			p.i++
			return arr, nil
		}
		if !first {
			if p.s[p.i] != ',' {
				return arr, p.syntaxError("expected ',' or ']'")
			}
			p.i++
		}
		first = false

		v, err := p.value()
		if err != nil {
			if errors.Is(err, ErrTruncated) && v != nil {
				arr = append(arr, v)
			}
			return arr, err
		}
		arr = append(arr, v)
	}
}

// str parses a string starting at the opening quote
func (p *parser) str() (any, error) {
	p.i++ // "
	var b strings.Builder

	for {
		if p.i >= len(p.s) {
			return Incomplete(trimPartialRune(b.String())), ErrTruncated
		}

		c := p.s[p.i]
		switch {
		case c == '"':
			p.i++
			return b.String(), nil
		case c == '\\':
			if p.i+1 >= len(p.s) {
				return Incomplete(b.String()), ErrTruncated
			}
			esc := p.s[p.i+1]
			switch esc {
			case '"', '\\', '/':
				b.WriteByte(esc)
			case 'b':
				b.WriteByte('\b')
			case 'f':
				b.WriteByte('\f')
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			case 'u':
				r, size, err := p.unicodeEscape()
				if err != nil {
					if errors.Is(err, ErrTruncated) {
						return Incomplete(b.String()), err
					}
					return nil, err
				}
				b.WriteRune(r)
				p.i += size
				continue
			default:
				return nil, p.syntaxError(fmt.Sprintf("invalid escape %q", esc))
			}
			p.i += 2
		case c < 0x20:
			return nil, p.syntaxError("control character in string")
		default:
			b.WriteByte(c)
			p.i++
		}
	}
}

// unicodeEscape decodes \uXXXX at p.i, combining surrogate pairs. It returns
// the rune and the number of input bytes consumed.
func (p *parser) unicodeEscape() (rune, int, error) {
	r1, err := p.hex4(p.i + 2)
	if err != nil {
		return 0, 0, err
	}
	if !utf16.IsSurrogate(r1) {
		return r1, 6, nil
	}

	// A high surrogate needs its low half before it can be emitted
	rest := p.s[p.i+6:]
	if len(rest) < 6 {
		if strings.HasPrefix(`\u`, rest) || (len(rest) >= 2 && rest[:2] == `\u`) {
			return 0, 0, ErrTruncated
		}
		return utf8.RuneError, 6, nil
	}
	if rest[:2] != `\u` {
		return utf8.RuneError, 6, nil
	}
	r2, err := p.hex4(p.i + 8)
	if err != nil {
		return 0, 0, err
	}
	if r := utf16.DecodeRune(r1, r2); r != utf8.RuneError {
		return r, 12, nil
	}
	return utf8.RuneError, 6, nil
}

func (p *parser) hex4(at int) (rune, error) {
	if at+4 > len(p.s) {
		if isHexPrefix(p.s[min(at, len(p.s)):]) {
			return 0, ErrTruncated
		}
		return 0, p.syntaxError("invalid unicode escape")
	}
	n, err := strconv.ParseUint(p.s[at:at+4], 16, 32)
	if err != nil {
		return 0, p.syntaxError("invalid unicode escape")
	}
	return rune(n), nil
}

func isHexPrefix(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}

func (p *parser) literal(word string, v any) (any, error) {
	rest := p.s[p.i:]
	if strings.HasPrefix(rest, word) {
		p.i += len(word)
		return v, nil
	}
	if strings.HasPrefix(word, rest) {
		p.i = len(p.s)
		return nil, ErrTruncated
	}
	return nil, p.syntaxError("invalid literal")
}

// number parses a JSON number. A number touching the end of input may still
// grow, so it is reported as truncated without a value.
func (p *parser) number() (any, error) {
	start := p.i
	for p.i < len(p.s) {
		c := p.s[p.i]
		if (c >= '0' && c <= '9') || c == '-' || c == '+' || c == '.' || c == 'e' || c == 'E' {
			p.i++
			continue
		}
		break
	}
	if p.i >= len(p.s) {
		return nil, ErrTruncated
	}

	f, err := strconv.ParseFloat(p.s[start:p.i], 64)
	if err != nil {
		return nil, p.syntaxError("invalid number")
	}
	return f, nil
}

// trimPartialRune drops a UTF-8 sequence split by the end of input
func trimPartialRune(s string) string {
	for n := 1; n <= utf8.UTFMax && n <= len(s); n++ {
		if utf8.RuneStart(s[len(s)-n]) {
			if !utf8.FullRuneInString(s[len(s)-n:]) {
				return s[:len(s)-n]
			}
			return s
		}
	}
	return s
}
