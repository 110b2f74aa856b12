package shcore

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/SandeepSethia/mysql-shell/internal/errs"
)

// Descr renders the canonical textual form of a value. Maps emit their keys
// lexicographically sorted with ", " separators; arrays emit elements joined
// by a bare ","; strings are double-quoted with JSON-style escapes. This is
// the format the interop tests assert against.
func (v Value) Descr() string {
	var sb strings.Builder
	v.descr(&sb)
	return sb.String()
}

func (v Value) descr(sb *strings.Builder) {
	switch v.typ {
	case Undefined:
		sb.WriteString("undefined")
	case Null:
		sb.WriteString("null")
	case Bool:
		if v.b {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case Integer:
		sb.WriteString(strconv.FormatInt(v.i, 10))
	case UInteger:
		sb.WriteString(strconv.FormatUint(v.u, 10))
	case Float:
		text := strconv.FormatFloat(v.f, 'g', -1, 64)
		sb.WriteString(text)
		// Integral floats keep a fraction so they parse back as Float.
		if !strings.ContainsAny(text, ".eEnN") {
			sb.WriteString(".0")
		}
	case String:
		quoteString(sb, v.s)
	case Object:
		sb.WriteString(v.obj.Repr())
	case Array:
		sb.WriteByte('[')
		for i, item := range v.arr.Items {
			if i > 0 {
				sb.WriteByte(',')
			}
			item.descr(sb)
		}
		sb.WriteByte(']')
	case Map:
		keys := append([]string(nil), v.m.keys...)
		sort.Strings(keys)
		sb.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			quoteString(sb, k)
			sb.WriteString(": ")
			item, _ := v.m.Get(k)
			item.descr(sb)
		}
		sb.WriteByte('}')
	case MapRef:
		v.Deref().descr(sb)
	case Function:
		sb.WriteString("<Function>")
	}
}

func quoteString(sb *strings.Builder, s string) {
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(sb, `\u%04x`, r)
			} else {
				sb.WriteRune(r)
			}
		}
	}
	sb.WriteByte('"')
}

// ParseDescr parses a canonical descr string back into a value. Only the
// data variants round-trip: scalars, strings, arrays, and maps. Object,
// Function, MapRef, and non-finite floats (NaN, ±Inf) have no parseable
// form.
func ParseDescr(text string) (Value, error) {
	p := &descrParser{src: text}
	p.skipSpace()
	v, err := p.value()
	if err != nil {
		return UndefinedValue(), err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return UndefinedValue(), p.errorf("trailing data at offset %d", p.pos)
	}
	return v, nil
}

type descrParser struct {
	src string
	pos int
}

func (p *descrParser) errorf(format string, args ...any) error {
	return errs.Newf(errs.KindInternal, "", "invalid descr: "+format, args...)
}

func (p *descrParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t' || p.src[p.pos] == '\n') {
		p.pos++
	}
}

func (p *descrParser) literal(word string) bool {
	if strings.HasPrefix(p.src[p.pos:], word) {
		p.pos += len(word)
		return true
	}
	return false
}

func (p *descrParser) value() (Value, error) {
	if p.pos >= len(p.src) {
		return UndefinedValue(), p.errorf("unexpected end of input")
	}
	switch c := p.src[p.pos]; {
	case c == 'n':
		if p.literal("null") {
			return NullValue(), nil
		}
	case c == 'u':
		if p.literal("undefined") {
			return UndefinedValue(), nil
		}
	case c == 't':
		if p.literal("true") {
			return BoolValue(true), nil
		}
	case c == 'f':
		if p.literal("false") {
			return BoolValue(false), nil
		}
	case c == '"':
		s, err := p.string()
		if err != nil {
			return UndefinedValue(), err
		}
		return StringValue(s), nil
	case c == '[':
		return p.array()
	case c == '{':
		return p.object()
	case c == '-' || (c >= '0' && c <= '9'):
		return p.number()
	}
	return UndefinedValue(), p.errorf("unexpected character %q at offset %d", p.src[p.pos], p.pos)
}

func (p *descrParser) number() (Value, error) {
	start := p.pos
	if p.src[p.pos] == '-' {
		p.pos++
	}
	isFloat := false
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c >= '0' && c <= '9' {
			p.pos++
		} else if c == '.' || c == 'e' || c == 'E' || c == '+' || c == '-' {
			isFloat = true
			p.pos++
		} else {
			break
		}
	}
	tok := p.src[start:p.pos]
	if isFloat {
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return UndefinedValue(), p.errorf("bad number %q", tok)
		}
		return FloatValue(f), nil
	}
	if i, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return IntValue(i), nil
	}
	if u, err := strconv.ParseUint(tok, 10, 64); err == nil {
		return UintValue(u), nil
	}
	return UndefinedValue(), p.errorf("bad number %q", tok)
}

func (p *descrParser) string() (string, error) {
	p.pos++ // opening quote
	var sb strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch c {
		case '"':
			p.pos++
			return sb.String(), nil
		case '\\':
			p.pos++
			if p.pos >= len(p.src) {
				return "", p.errorf("unterminated escape")
			}
			switch e := p.src[p.pos]; e {
			case '"', '\\', '/':
				sb.WriteByte(e)
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			case 'u':
				if p.pos+4 >= len(p.src) {
					return "", p.errorf("short unicode escape")
				}
				n, err := strconv.ParseUint(p.src[p.pos+1:p.pos+5], 16, 32)
				if err != nil {
					return "", p.errorf("bad unicode escape")
				}
				sb.WriteRune(utf16.Decode([]uint16{uint16(n)})[0])
				p.pos += 4
			default:
				return "", p.errorf("unknown escape \\%c", e)
			}
			p.pos++
		default:
			sb.WriteByte(c)
			p.pos++
		}
	}
	return "", p.errorf("unterminated string")
}

func (p *descrParser) array() (Value, error) {
	p.pos++ // '['
	arr := &ArrayValue{}
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == ']' {
		p.pos++
		return NewArray(arr), nil
	}
	for {
		p.skipSpace()
		v, err := p.value()
		if err != nil {
			return UndefinedValue(), err
		}
		arr.Items = append(arr.Items, v)
		p.skipSpace()
		if p.pos >= len(p.src) {
			return UndefinedValue(), p.errorf("unterminated array")
		}
		switch p.src[p.pos] {
		case ',':
			p.pos++
		case ']':
			p.pos++
			return NewArray(arr), nil
		default:
			return UndefinedValue(), p.errorf("expected ',' or ']' at offset %d", p.pos)
		}
	}
}

func (p *descrParser) object() (Value, error) {
	p.pos++ // '{'
	m := NewMapValue()
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == '}' {
		p.pos++
		return NewMap(m), nil
	}
	for {
		p.skipSpace()
		if p.pos >= len(p.src) || p.src[p.pos] != '"' {
			return UndefinedValue(), p.errorf("expected map key at offset %d", p.pos)
		}
		key, err := p.string()
		if err != nil {
			return UndefinedValue(), err
		}
		p.skipSpace()
		if p.pos >= len(p.src) || p.src[p.pos] != ':' {
			return UndefinedValue(), p.errorf("expected ':' at offset %d", p.pos)
		}
		p.pos++
		p.skipSpace()
		v, err := p.value()
		if err != nil {
			return UndefinedValue(), err
		}
		m.Set(key, v)
		p.skipSpace()
		if p.pos >= len(p.src) {
			return UndefinedValue(), p.errorf("unterminated map")
		}
		switch p.src[p.pos] {
		case ',':
			p.pos++
		case '}':
			p.pos++
			return NewMap(m), nil
		default:
			return UndefinedValue(), p.errorf("expected ',' or '}' at offset %d", p.pos)
		}
	}
}
