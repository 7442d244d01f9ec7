package lua

import (
	"strconv"
	"strings"
)

// ParseDocument locates the first "return" followed (after optional
// whitespace) by '{' and parses the table that begins there.
func ParseDocument(text string) (*Table, error) {
	from := 0
	for {
		i := strings.Index(text[from:], "return")
		if i < 0 {
			return nil, &ParseError{Kind: ErrMissingReturnTable}
		}
		start := from + i
		p := start + len("return")
		for p < len(text) && isSpace(text[p]) {
			p++
		}
		if p < len(text) && text[p] == '{' {
			ps := &parser{src: text, pos: p}
			t, err := ps.parseTable()
			if err != nil {
				return nil, err
			}
			return t, nil
		}
		from = start + 1
	}
}

// Parse decodes a single value, ignoring leading whitespace and comments.
func Parse(text string) (*Value, error) {
	ps := &parser{src: text}
	return ps.parseValue()
}

type parser struct {
	src string
	pos int
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool { return isIdentStart(c) || isDigit(c) }

// errAt builds a ParseError carrying up to 20 bytes of input as context.
func (p *parser) errAt(kind ErrKind, pos int) *ParseError {
	end := pos + 20
	if end > len(p.src) {
		end = len(p.src)
	}
	detail := ""
	if pos < len(p.src) {
		detail = p.src[pos:end]
	}
	return &ParseError{Kind: kind, Pos: pos, Detail: detail}
}

// skipSpaceAndComments advances past whitespace, line comments and long
// comments. A "--[=*[" with no matching close falls back to a line
// comment, matching Lua's loader behavior for these files.
func (p *parser) skipSpaceAndComments() {
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if isSpace(c) {
			p.pos++
			continue
		}
		if c == '-' && p.pos+1 < len(p.src) && p.src[p.pos+1] == '-' {
			if p.skipLongComment() {
				continue
			}
			for p.pos < len(p.src) && p.src[p.pos] != '\n' {
				p.pos++
			}
			continue
		}
		break
	}
}

// skipLongComment consumes a --[=*[ ... ]=*] comment when one begins at
// p.pos. Returns false (without advancing) when the opener or its close
// is absent.
func (p *parser) skipLongComment() bool {
	open := p.pos + 2
	if open >= len(p.src) || p.src[open] != '[' {
		return false
	}
	eq := 0
	for open+1+eq < len(p.src) && p.src[open+1+eq] == '=' {
		eq++
	}
	if open+1+eq >= len(p.src) || p.src[open+1+eq] != '[' {
		return false
	}
	closer := "]" + strings.Repeat("=", eq) + "]"
	body := open + 2 + eq
	end := strings.Index(p.src[body:], closer)
	if end < 0 {
		return false
	}
	p.pos = body + end + len(closer)
	return true
}

// parseValue decodes the next value. Checks long string, short string,
// table, keyword, number in that order.
func (p *parser) parseValue() (*Value, error) {
	p.skipSpaceAndComments()
	if p.pos >= len(p.src) {
		return nil, p.errAt(ErrUnexpectedToken, p.pos)
	}

	c := p.src[p.pos]

	if c == '[' && p.pos+1 < len(p.src) && (p.src[p.pos+1] == '[' || p.src[p.pos+1] == '=') {
		s, err := p.parseLongString()
		if err != nil {
			return nil, err
		}
		return Str(s), nil
	}

	if c == '"' || c == '\'' {
		s, err := p.parseShortString()
		if err != nil {
			return nil, err
		}
		return Str(s), nil
	}

	if c == '{' {
		t, err := p.parseTable()
		if err != nil {
			return nil, err
		}
		return Tab(t), nil
	}

	if p.keyword("true") {
		return Bool(true), nil
	}
	if p.keyword("false") {
		return Bool(false), nil
	}
	if p.keyword("nil") {
		return Nil(), nil
	}

	if v := p.parseNumber(); v != nil {
		return v, nil
	}

	return nil, p.errAt(ErrUnexpectedToken, p.pos)
}

// keyword consumes word when it appears at p.pos as a whole token.
func (p *parser) keyword(word string) bool {
	end := p.pos + len(word)
	if end > len(p.src) || p.src[p.pos:end] != word {
		return false
	}
	if end < len(p.src) && isIdentPart(p.src[end]) {
		return false
	}
	p.pos = end
	return true
}

// parseShortString decodes a '"' or '\'' delimited string starting at
// p.pos. A backslash before a real newline is a line continuation and
// emits '\n'; \r and \r\n after a backslash normalize to '\n'.
func (p *parser) parseShortString() (string, error) {
	start := p.pos
	quote := p.src[p.pos]
	p.pos++
	var b strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '\\' {
			p.pos++
			if p.pos >= len(p.src) {
				break
			}
			e := p.src[p.pos]
			switch e {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '\n':
				b.WriteByte('\n')
			case '\r':
				if p.pos+1 < len(p.src) && p.src[p.pos+1] == '\n' {
					p.pos++
				}
				b.WriteByte('\n')
			default:
				// \\, \", \' and anything else pass through literally.
				b.WriteByte(e)
			}
			p.pos++
			continue
		}
		if c == quote {
			p.pos++
			return b.String(), nil
		}
		b.WriteByte(c)
		p.pos++
	}
	return "", p.errAt(ErrUnterminatedString, start)
}

// parseLongString decodes [=*[ ... ]=*] starting at the opening '['. The
// '=' run length must match on both sides; one newline immediately after
// the opener is stripped.
func (p *parser) parseLongString() (string, error) {
	start := p.pos
	eq := 0
	for p.pos+1+eq < len(p.src) && p.src[p.pos+1+eq] == '=' {
		eq++
	}
	open := p.pos + 1 + eq
	if open >= len(p.src) || p.src[open] != '[' {
		return "", p.errAt(ErrInvalidLongBracket, start)
	}
	body := open + 1
	closer := "]" + strings.Repeat("=", eq) + "]"
	end := strings.Index(p.src[body:], closer)
	if end < 0 {
		return "", p.errAt(ErrUnterminatedLongString, start)
	}
	content := p.src[body : body+end]
	content = strings.TrimPrefix(content, "\n")
	p.pos = body + end + len(closer)
	return content, nil
}

// parseNumber scans an optional '-', digits, optional fraction and
// optional exponent, longest match first. Returns nil when no number
// starts at p.pos. The exponent is consumed only when digits follow it,
// so "1e" decodes as the integer 1.
func (p *parser) parseNumber() *Value {
	s := p.src
	i := p.pos
	if i < len(s) && s[i] == '-' {
		i++
	}
	digits := i
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	if i == digits {
		return nil
	}
	isFloat := false
	if i < len(s) && s[i] == '.' {
		isFloat = true
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
		}
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		expDigits := j
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		if j > expDigits {
			isFloat = true
			i = j
		}
	}
	lit := s[p.pos:i]
	p.pos = i
	if !isFloat {
		if n, err := strconv.ParseInt(lit, 10, 64); err == nil {
			return Int(n)
		}
		// Out of int64 range; keep the magnitude as a float.
	}
	f, _ := strconv.ParseFloat(lit, 64)
	return Float(f)
}

// parseTable decodes a { ... } table starting at the '{'.
func (p *parser) parseTable() (*Table, error) {
	p.pos++ // consume '{'
	t := NewTable()

	for {
		p.skipSpaceAndComments()
		if p.pos >= len(p.src) {
			return nil, p.errAt(ErrUnterminatedTable, p.pos)
		}
		if p.src[p.pos] == '}' {
			p.pos++
			return t, nil
		}
		if p.src[p.pos] == ',' {
			p.pos++
			continue
		}

		key, err := p.parseKey()
		if err != nil {
			return nil, err
		}

		p.skipSpaceAndComments()
		if p.pos >= len(p.src) || p.src[p.pos] != '=' {
			return nil, p.errAt(ErrMissingAssignment, p.pos)
		}
		p.pos++

		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		t.Set(key, v)

		p.skipSpaceAndComments()
		if p.pos < len(p.src) && p.src[p.pos] == ',' {
			p.pos++
		}
	}
}

// parseKey decodes either a bracketed key ([1], ["name"], ['name']) or a
// bare identifier key.
func (p *parser) parseKey() (Key, error) {
	if p.src[p.pos] == '[' {
		p.pos++
		p.skipSpaceAndComments()
		if p.pos >= len(p.src) {
			return Key{}, p.errAt(ErrMalformedTableKey, p.pos)
		}

		var key Key
		c := p.src[p.pos]
		if c == '"' || c == '\'' {
			s, err := p.parseShortString()
			if err != nil {
				return Key{}, err
			}
			key = StrKey(s)
		} else {
			n, ok := p.parseIntKey()
			if !ok {
				return Key{}, p.errAt(ErrMalformedTableKey, p.pos)
			}
			key = IntKey(n)
		}

		p.skipSpaceAndComments()
		if p.pos >= len(p.src) || p.src[p.pos] != ']' {
			return Key{}, p.errAt(ErrMissingCloseBrace, p.pos)
		}
		p.pos++
		return key, nil
	}

	if isIdentStart(p.src[p.pos]) {
		start := p.pos
		for p.pos < len(p.src) && isIdentPart(p.src[p.pos]) {
			p.pos++
		}
		return StrKey(p.src[start:p.pos]), nil
	}

	return Key{}, p.errAt(ErrMalformedTableKey, p.pos)
}

// parseIntKey scans an optional '-' and digits.
func (p *parser) parseIntKey() (int64, bool) {
	i := p.pos
	if i < len(p.src) && p.src[i] == '-' {
		i++
	}
	digits := i
	for i < len(p.src) && isDigit(p.src[i]) {
		i++
	}
	if i == digits {
		return 0, false
	}
	n, err := strconv.ParseInt(p.src[p.pos:i], 10, 64)
	if err != nil {
		return 0, false
	}
	p.pos = i
	return n, true
}
