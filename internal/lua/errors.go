package lua

import "fmt"

// ErrKind classifies parse failures. All parser errors are terminal for
// the file being parsed; no partial result is returned.
type ErrKind int

const (
	// ErrUnterminatedString: a quoted string hit end of input before its
	// closing quote.
	ErrUnterminatedString ErrKind = iota
	// ErrUnterminatedLongString: a [=*[ long string has no matching close.
	ErrUnterminatedLongString
	// ErrInvalidLongBracket: '[' followed by '=' runs that never reach a
	// second '['.
	ErrInvalidLongBracket
	// ErrMalformedTableKey: a table key is neither a bracketed
	// string/integer nor an identifier.
	ErrMalformedTableKey
	// ErrMissingAssignment: no '=' after a table key.
	ErrMissingAssignment
	// ErrMissingCloseBrace: a bracketed key is not closed by ']'.
	ErrMissingCloseBrace
	// ErrUnterminatedTable: end of input before the table's '}'.
	ErrUnterminatedTable
	// ErrUnexpectedToken: input at this position starts no known value.
	ErrUnexpectedToken
	// ErrMissingReturnTable: the document contains no "return {".
	ErrMissingReturnTable
)

func (k ErrKind) String() string {
	switch k {
	case ErrUnterminatedString:
		return "unterminated string"
	case ErrUnterminatedLongString:
		return "unterminated long string"
	case ErrInvalidLongBracket:
		return "invalid long bracket"
	case ErrMalformedTableKey:
		return "malformed table key"
	case ErrMissingAssignment:
		return "expected '='"
	case ErrMissingCloseBrace:
		return "expected ']'"
	case ErrUnterminatedTable:
		return "unterminated table"
	case ErrUnexpectedToken:
		return "unexpected token"
	case ErrMissingReturnTable:
		return "no 'return {' found"
	default:
		return "parse error"
	}
}

// ParseError reports a syntax failure with its byte offset and a short
// excerpt of the input at that point.
type ParseError struct {
	Kind   ErrKind
	Pos    int
	Detail string
}

func (e *ParseError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s at byte %d: %q", e.Kind, e.Pos, e.Detail)
	}
	return fmt.Sprintf("%s at byte %d", e.Kind, e.Pos)
}
