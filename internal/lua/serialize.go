package lua

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

const indentUnit = "    "

// Serialize renders a document as "return { ... }". Top-level keys are
// sorted lexicographically by their text form and always rendered quoted;
// nested tables order integer keys (ascending) before string keys
// (ascending). Every entry gets a trailing comma, so the output is stable
// under diffing and re-parseable by ParseDocument.
func Serialize(doc *Table) string {
	var b strings.Builder
	b.WriteString("return {")

	keys := doc.Keys()
	sort.SliceStable(keys, func(i, j int) bool {
		return keyText(keys[i]) < keyText(keys[j])
	})
	for _, k := range keys {
		v, _ := doc.Get(k)
		b.WriteString("\n" + indentUnit)
		b.WriteString("[" + quoteString(keyText(k)) + "]")
		b.WriteString(" = ")
		writeValue(&b, v, 1)
		b.WriteString(",")
	}
	b.WriteString("\n}")
	return b.String()
}

// Format renders a single value at zero indent.
func Format(v *Value) string {
	var b strings.Builder
	writeValue(&b, v, 0)
	return b.String()
}

func keyText(k Key) string {
	if k.IsInt {
		return strconv.FormatInt(k.Int, 10)
	}
	return k.Str
}

func writeValue(b *strings.Builder, v *Value, indent int) {
	if v == nil {
		b.WriteString("nil")
		return
	}
	switch v.Kind() {
	case KindNil:
		b.WriteString("nil")
	case KindBool:
		if v.Bool() {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case KindInt:
		b.WriteString(strconv.FormatInt(v.Int(), 10))
	case KindFloat:
		b.WriteString(formatFloat(v.Float()))
	case KindString:
		b.WriteString(quoteString(v.Str()))
	case KindTable:
		writeTable(b, v.Table(), indent)
	}
}

func writeTable(b *strings.Builder, t *Table, indent int) {
	if t == nil || t.Len() == 0 {
		b.WriteString("{}")
		return
	}
	inner := strings.Repeat(indentUnit, indent+1)
	b.WriteString("{")
	for _, k := range t.SortedKeys() {
		v, _ := t.Get(k)
		b.WriteString("\n")
		b.WriteString(inner)
		if k.IsInt {
			b.WriteString("[" + strconv.FormatInt(k.Int, 10) + "]")
		} else {
			b.WriteString("[" + quoteString(k.Str) + "]")
		}
		b.WriteString(" = ")
		writeValue(b, v, indent+1)
		b.WriteString(",")
	}
	b.WriteString("\n")
	b.WriteString(strings.Repeat(indentUnit, indent))
	b.WriteString("}")
}

// formatFloat prints integer-valued floats as integers and everything
// else in the shortest form that round-trips. Integer-valued floats
// therefore decode as integers on re-parse.
func formatFloat(f float64) string {
	if f == math.Trunc(f) && f > math.MinInt64 && f < math.MaxInt64 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// quoteString wraps s in double quotes, escaping backslash, double quote
// and the control characters \n, \r, \t. All other bytes, including
// non-ASCII, pass through untouched.
func quoteString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}
