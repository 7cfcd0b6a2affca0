// Package pyliteral decodes and encodes the Python-literal text format used
// by the zone summary payloads. Upstream producers serialise nested lists
// and dicts with Python's str(), so the widget needs a small, strict reader
// for that syntax: None/True/False, numbers, quoted strings, lists, tuples
// and dicts. JSON-style null/true/false are accepted as well.
//
// Decoded values use plain Go types so callers can type-switch on them:
// nil, bool, int64, float64, string, []any and map[string]any.
package pyliteral

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// DecodeError reports malformed literal text. Offset is the byte position in
// the input where decoding stopped.
type DecodeError struct {
	Offset int
	Msg    string
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("pyliteral: %s at offset %d", e.Msg, e.Offset)
}

// maxDepth caps container nesting so hostile payloads cannot blow the stack.
const maxDepth = 256

// Decode parses a single literal from text. Leading and trailing whitespace
// is ignored; anything else after the literal is an error.
func Decode(text string) (any, error) {
	d := &decoder{src: text}
	d.skipSpace()
	v, err := d.value(0)
	if err != nil {
		return nil, err
	}
	d.skipSpace()
	if d.pos < len(d.src) {
		return nil, d.errorf("unexpected trailing input %q", d.peekToken())
	}
	return v, nil
}

// decoder is a single-use recursive descent reader over src.
type decoder struct {
	src string
	pos int
}

func (d *decoder) errorf(format string, args ...any) *DecodeError {
	return &DecodeError{Offset: d.pos, Msg: fmt.Sprintf(format, args...)}
}

func (d *decoder) skipSpace() {
	for d.pos < len(d.src) {
		switch d.src[d.pos] {
		case ' ', '\t', '\n', '\r', '\f', '\v':
			d.pos++
		default:
			return
		}
	}
}

// peekToken returns a short excerpt at the cursor for error messages.
func (d *decoder) peekToken() string {
	end := d.pos + 12
	if end > len(d.src) {
		end = len(d.src)
	}
	return d.src[d.pos:end]
}

func (d *decoder) value(depth int) (any, error) {
	if depth > maxDepth {
		return nil, d.errorf("nesting deeper than %d", maxDepth)
	}
	if d.pos >= len(d.src) {
		return nil, d.errorf("unexpected end of input")
	}

	c := d.src[d.pos]
	switch {
	case c == '[':
		return d.sequence(depth, '[', ']')
	case c == '(':
		return d.sequence(depth, '(', ')')
	case c == '{':
		return d.mapping(depth)
	case c == '\'' || c == '"':
		return d.str()
	case (c == 'u' || c == 'U') && d.pos+1 < len(d.src) && (d.src[d.pos+1] == '\'' || d.src[d.pos+1] == '"'):
		d.pos++
		return d.str()
	case c == '-' || c == '+' || c == '.' || isDigit(c):
		return d.number()
	case isIdentStart(c):
		return d.keyword()
	}
	return nil, d.errorf("unexpected character %q", c)
}

// sequence reads a list or tuple. Both decode to []any; "(x)" without a
// comma is a parenthesised value, as in Python.
func (d *decoder) sequence(depth int, open, close byte) (any, error) {
	d.pos++ // open
	items := []any{}
	sawComma := false

	for {
		d.skipSpace()
		if d.pos >= len(d.src) {
			return nil, d.errorf("unterminated %q", open)
		}
		if d.src[d.pos] == close {
			d.pos++
			break
		}

		v, err := d.value(depth + 1)
		if err != nil {
			return nil, err
		}
		items = append(items, v)

		d.skipSpace()
		if d.pos >= len(d.src) {
			return nil, d.errorf("unterminated %q", open)
		}
		switch d.src[d.pos] {
		case ',':
			sawComma = true
			d.pos++
		case close:
			d.pos++
			if open == '(' && len(items) == 1 && !sawComma {
				return items[0], nil
			}
			return items, nil
		default:
			return nil, d.errorf("expected ',' or %q, got %q", close, d.src[d.pos])
		}
	}
	return items, nil
}

func (d *decoder) mapping(depth int) (any, error) {
	d.pos++ // {
	m := map[string]any{}

	for {
		d.skipSpace()
		if d.pos >= len(d.src) {
			return nil, d.errorf("unterminated '{'")
		}
		if d.src[d.pos] == '}' {
			d.pos++
			return m, nil
		}

		keyPos := d.pos
		k, err := d.value(depth + 1)
		if err != nil {
			return nil, err
		}
		key, ok := keyString(k)
		if !ok {
			return nil, &DecodeError{Offset: keyPos, Msg: "unhashable dict key"}
		}

		d.skipSpace()
		if d.pos >= len(d.src) || d.src[d.pos] != ':' {
			return nil, d.errorf("expected ':' after dict key")
		}
		d.pos++
		d.skipSpace()

		v, err := d.value(depth + 1)
		if err != nil {
			return nil, err
		}
		m[key] = v

		d.skipSpace()
		if d.pos >= len(d.src) {
			return nil, d.errorf("unterminated '{'")
		}
		switch d.src[d.pos] {
		case ',':
			d.pos++
		case '}':
			d.pos++
			return m, nil
		default:
			return nil, d.errorf("expected ',' or '}', got %q", d.src[d.pos])
		}
	}
}

// keyString maps a decoded dict key to its Go map key. Scalars are
// stringified the way Python would print them; containers are rejected.
func keyString(k any) (string, bool) {
	switch v := k.(type) {
	case string:
		return v, true
	case int64:
		return strconv.FormatInt(v, 10), true
	case float64:
		return formatFloat(v), true
	case bool:
		if v {
			return "True", true
		}
		return "False", true
	case nil:
		return "None", true
	}
	return "", false
}

func (d *decoder) keyword() (any, error) {
	start := d.pos
	for d.pos < len(d.src) && isIdentPart(d.src[d.pos]) {
		d.pos++
	}
	switch word := d.src[start:d.pos]; word {
	case "None", "null":
		return nil, nil
	case "True", "true":
		return true, nil
	case "False", "false":
		return false, nil
	default:
		d.pos = start
		return nil, d.errorf("unknown name %q", word)
	}
}

func (d *decoder) number() (any, error) {
	start := d.pos
	if c := d.src[d.pos]; c == '-' || c == '+' {
		d.pos++
	}

	isFloat := false
	digits := 0
scan:
	for d.pos < len(d.src) {
		c := d.src[d.pos]
		switch {
		case isDigit(c) || c == '_':
			if c != '_' {
				digits++
			}
			d.pos++
		case c == '.':
			isFloat = true
			d.pos++
		case c == 'e' || c == 'E':
			isFloat = true
			d.pos++
			if d.pos < len(d.src) && (d.src[d.pos] == '-' || d.src[d.pos] == '+') {
				d.pos++
			}
		default:
			break scan
		}
	}
	if digits == 0 {
		d.pos = start
		return nil, d.errorf("malformed number")
	}

	text := strings.ReplaceAll(d.src[start:d.pos], "_", "")
	if !isFloat {
		if i, err := strconv.ParseInt(text, 10, 64); err == nil {
			return i, nil
		}
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil && !isRangeErr(err) {
		d.pos = start
		return nil, d.errorf("malformed number %q", text)
	}
	return f, nil
}

func isRangeErr(err error) bool {
	ne, ok := err.(*strconv.NumError)
	return ok && ne.Err == strconv.ErrRange
}

func (d *decoder) str() (any, error) {
	quote := d.src[d.pos]
	d.pos++

	var b strings.Builder
	for {
		if d.pos >= len(d.src) {
			return nil, d.errorf("unterminated string")
		}
		c := d.src[d.pos]
		switch {
		case c == quote:
			d.pos++
			return b.String(), nil
		case c == '\n':
			return nil, d.errorf("newline in string")
		case c == '\\':
			if err := d.escape(&b); err != nil {
				return nil, err
			}
		default:
			r, size := utf8.DecodeRuneInString(d.src[d.pos:])
			b.WriteRune(r)
			d.pos += size
		}
	}
}

// escape consumes one backslash escape and writes its rune to b.
func (d *decoder) escape(b *strings.Builder) error {
	d.pos++ // backslash
	if d.pos >= len(d.src) {
		return d.errorf("unterminated escape")
	}
	c := d.src[d.pos]
	d.pos++

	switch c {
	case 'n':
		b.WriteByte('\n')
	case 't':
		b.WriteByte('\t')
	case 'r':
		b.WriteByte('\r')
	case 'b':
		b.WriteByte('\b')
	case 'f':
		b.WriteByte('\f')
	case 'v':
		b.WriteByte('\v')
	case 'a':
		b.WriteByte('\a')
	case '0':
		b.WriteByte(0)
	case '\\', '\'', '"':
		b.WriteByte(c)
	case '\n':
		// Line continuation.
	case 'x':
		return d.hexEscape(b, 2)
	case 'u':
		return d.hexEscape(b, 4)
	case 'U':
		return d.hexEscape(b, 8)
	default:
		// Python keeps unknown escapes verbatim.
		b.WriteByte('\\')
		b.WriteByte(c)
	}
	return nil
}

func (d *decoder) hexEscape(b *strings.Builder, n int) error {
	if d.pos+n > len(d.src) {
		return d.errorf("truncated \\x/\\u escape")
	}
	v, err := strconv.ParseUint(d.src[d.pos:d.pos+n], 16, 32)
	if err != nil || v > utf8.MaxRune {
		return d.errorf("invalid escape %q", d.src[d.pos:d.pos+n])
	}
	d.pos += n
	b.WriteRune(rune(v))
	return nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool { return isIdentStart(c) || isDigit(c) }

// formatFloat prints a float the way Python's repr does for common values.
func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}
	return s
}
