package wheredoc

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// LiteralError describes why a token that looks like an array or object literal could not be parsed.
// It is used as a converted value in place of the literal, so a malformed token never aborts a conversion.
type LiteralError struct {
	Literal  string // the complete token that failed to parse
	Position int    // byte offset of the problem within Literal
	Message  string
}

func (e *LiteralError) Error() string {
	return fmt.Sprintf("%s (at position %d in %q)", e.Message, e.Position, e.Literal)
}

//
// =============== Literal Lexer ===============
//

// Represents the type of a lexical token within an array or object literal
type literalTokenType int

const (
	litEOF literalTokenType = iota
	litIllegal
	litPunct  // one of [ ] { } : , + -
	litString // quoted string, with escapes already decoded
	litNumber
	litIdent
)

type literalToken struct {
	typ   literalTokenType
	text  string // the raw source text (or decoded contents for strings)
	pos   int
	value float64 // only for numbers
}

// Describe the token the way it appeared in the source, for error messages
func (t literalToken) describe() string {
	switch t.typ {
	case litEOF:
		return "end of input"
	case litString:
		return strconv.Quote(t.text)
	default:
		return "'" + t.text + "'"
	}
}

type literalLexer struct {
	input string
	pos   int
}

func (l *literalLexer) next() literalToken {
	l.skipWhitespace()
	start := l.pos
	if l.pos >= len(l.input) {
		return literalToken{typ: litEOF, pos: start}
	}

	ch := l.input[l.pos]
	switch {
	case strings.IndexByte("[]{}:,+-", ch) >= 0:
		l.pos++
		return literalToken{typ: litPunct, text: string(ch), pos: start}

	case ch == '"' || ch == '\'':
		return l.readString(ch)

	case isLiteralDigit(ch) || ch == '.':
		return l.readNumber()

	case isIdentStart(ch):
		for l.pos < len(l.input) && isIdentPart(l.input[l.pos]) {
			l.pos++
		}
		return literalToken{typ: litIdent, text: l.input[start:l.pos], pos: start}
	}

	_, size := utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += size
	return literalToken{typ: litIllegal, text: l.input[start:l.pos], pos: start}
}

func (l *literalLexer) skipWhitespace() {
	for l.pos < len(l.input) && strings.IndexByte(" \t\r\n", l.input[l.pos]) >= 0 {
		l.pos++
	}
}

// Read a number made of digits, decimal points, exponents, and radix prefixes, then validate it as a whole
func (l *literalLexer) readNumber() literalToken {
	start := l.pos
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		isExponentSign := (ch == '+' || ch == '-') && l.pos > start && (l.input[l.pos-1] == 'e' || l.input[l.pos-1] == 'E') &&
			!strings.ContainsAny(l.input[start:l.pos], "xX")
		if !isLiteralDigit(ch) && ch != '.' && !isIdentPart(ch) && !isExponentSign {
			break
		}
		l.pos++
	}

	text := l.input[start:l.pos]
	value, ok := parseNumber(text)
	if !ok {
		return literalToken{typ: litIllegal, text: text, pos: start}
	}
	return literalToken{typ: litNumber, text: text, pos: start, value: value}
}

// Read a quoted string, decoding escape sequences as it goes
func (l *literalLexer) readString(quote byte) literalToken {
	start := l.pos
	l.pos++ // consume opening quote

	var sb strings.Builder
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		switch {
		case ch == quote:
			l.pos++
			return literalToken{typ: litString, text: sb.String(), pos: start}
		case ch == '\n':
			return literalToken{typ: litIllegal, text: l.input[start:l.pos], pos: start}
		case ch == '\\' && l.pos+1 < len(l.input):
			l.pos++
			if !l.readEscape(&sb) {
				return literalToken{typ: litIllegal, text: l.input[start:l.pos], pos: start}
			}
		default:
			sb.WriteByte(ch)
			l.pos++
		}
	}

	// Ran out of input before the closing quote
	return literalToken{typ: litIllegal, text: l.input[start:], pos: start}
}

// Decode the escape sequence starting at the current position (just after the backslash)
func (l *literalLexer) readEscape(sb *strings.Builder) bool {
	ch := l.input[l.pos]
	l.pos++
	switch ch {
	case 'n':
		sb.WriteByte('\n')
	case 't':
		sb.WriteByte('\t')
	case 'r':
		sb.WriteByte('\r')
	case 'b':
		sb.WriteByte('\b')
	case 'f':
		sb.WriteByte('\f')
	case 'v':
		sb.WriteByte('\v')
	case '0':
		sb.WriteByte(0)
	case 'x', 'u':
		digits := 2
		if ch == 'u' {
			digits = 4
		}
		if l.pos+digits > len(l.input) {
			return false
		}
		code, err := strconv.ParseUint(l.input[l.pos:l.pos+digits], 16, 32)
		if err != nil {
			return false
		}
		sb.WriteRune(rune(code))
		l.pos += digits
	default:
		// Any other escaped character stands for itself, e.g. \' \" \\ \/
		sb.WriteByte(ch)
	}
	return true
}

func isLiteralDigit(ch byte) bool { return '0' <= ch && ch <= '9' }

func isIdentStart(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_' || ch == '$'
}

func isIdentPart(ch byte) bool { return isIdentStart(ch) || isLiteralDigit(ch) }

//
// =============== Literal Parser ===============
//

// Parse an array or object literal such as `[ "one", true, 3 ]` or `{ name: 'first', tags: [] }`.
//
// The grammar is a permissive superset of JSON: strings may use single or double quotes, object keys may be bare
// identifiers or numbers, trailing commas are allowed, and `undefined`, `NaN`, `Infinity` and signed numbers are
// accepted as values. Arrays become `[]any`, objects become `map[string]any`, and numbers become float64.
// Nothing is ever evaluated: any other identifier is reported as not defined.
func ParseLiteral(literal string) (any, error) {
	p := &literalParser{lexer: literalLexer{input: literal}, literal: literal}
	p.advance()

	value, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	if p.current.typ != litEOF {
		return nil, p.unexpected()
	}
	return value, nil
}

type literalParser struct {
	lexer   literalLexer
	literal string
	current literalToken
}

func (p *literalParser) advance() {
	p.current = p.lexer.next()
}

func (p *literalParser) isPunct(text string) bool {
	return p.current.typ == litPunct && p.current.text == text
}

func (p *literalParser) parseValue() (any, error) {
	tok := p.current

	switch tok.typ {
	case litString:
		p.advance()
		return tok.text, nil

	case litNumber:
		p.advance()
		return tok.value, nil

	case litIdent:
		p.advance()
		switch tok.text {
		case "true":
			return true, nil
		case "false":
			return false, nil
		case "null":
			return nil, nil
		case "undefined":
			return Undefined, nil
		case "NaN":
			return math.NaN(), nil
		case "Infinity":
			return math.Inf(1), nil
		}
		return nil, p.errorAt(tok.pos, tok.text+" is not defined")

	case litPunct:
		switch tok.text {
		case "[":
			return p.parseArray()
		case "{":
			return p.parseObject()
		case "-", "+":
			return p.parseSigned()
		}
	}

	return nil, p.unexpected()
}

// Parse a number or Infinity preceded by a sign
func (p *literalParser) parseSigned() (any, error) {
	negative := p.current.text == "-"
	p.advance() // consume sign

	var value float64
	switch {
	case p.current.typ == litNumber:
		value = p.current.value
	case p.current.typ == litIdent && p.current.text == "Infinity":
		value = math.Inf(1)
	case p.current.typ == litIdent && p.current.text == "NaN":
		value = math.NaN()
	default:
		return nil, p.unexpected()
	}
	p.advance()

	if negative {
		value = -value
	}
	return value, nil
}

func (p *literalParser) parseArray() (any, error) {
	p.advance() // consume '['

	elements := []any{}
	for !p.isPunct("]") {
		elem, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		elements = append(elements, elem)

		if p.isPunct(",") {
			p.advance()
			continue
		}
		if !p.isPunct("]") {
			return nil, p.unexpected()
		}
	}
	p.advance() // consume ']'

	return elements, nil
}

func (p *literalParser) parseObject() (any, error) {
	p.advance() // consume '{'

	fields := map[string]any{}
	for !p.isPunct("}") {
		key := p.current
		switch key.typ {
		case litIdent, litString:
		case litNumber:
			key.text = Format(key.value)
		default:
			return nil, p.unexpected()
		}
		p.advance()

		if !p.isPunct(":") {
			// A bare identifier without a value would refer to a variable of the same name
			if key.typ == litIdent && (p.isPunct(",") || p.isPunct("}")) {
				return nil, p.errorAt(key.pos, key.text+" is not defined")
			}
			return nil, p.unexpected()
		}
		p.advance() // consume ':'

		value, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		fields[key.text] = value

		if p.isPunct(",") {
			p.advance()
			continue
		}
		if !p.isPunct("}") {
			return nil, p.unexpected()
		}
	}
	p.advance() // consume '}'

	return fields, nil
}

// Create an error describing the current token as unexpected
func (p *literalParser) unexpected() error {
	tok := p.current
	switch tok.typ {
	case litEOF:
		return p.errorAt(tok.pos, "Unexpected end of input")
	case litIllegal:
		if strings.HasPrefix(tok.text, `"`) || strings.HasPrefix(tok.text, "'") {
			// Unterminated string, or a string containing a bad escape sequence
			return p.errorAt(tok.pos, "Invalid or unexpected token")
		}
		return p.errorAt(tok.pos, "Invalid or unexpected token "+tok.describe())
	default:
		return p.errorAt(tok.pos, "Unexpected token "+tok.describe())
	}
}

func (p *literalParser) errorAt(pos int, message string) error {
	return &LiteralError{Literal: p.literal, Position: pos, Message: message}
}
