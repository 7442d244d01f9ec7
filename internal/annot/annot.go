// Package annot merges KOReader annotation records across sidecar files
// from different devices and assembles the merged output document.
package annot

import (
	"sort"
	"strconv"
	"strings"

	"koshelf/komerge/internal/lua"
)

// Annotations extracts a document's annotation list. The sidecar stores
// annotations as a table keyed 1..N; entries are returned in ascending
// key order, skipping anything that is not itself a table.
func Annotations(doc *lua.Table) []*lua.Table {
	v := doc.Field("annotations")
	if v == nil || v.Kind() != lua.KindTable {
		return nil
	}
	t := v.Table()

	var idx []int64
	for _, k := range t.Keys() {
		if k.IsInt {
			idx = append(idx, k.Int)
		}
	}
	sort.Slice(idx, func(i, j int) bool { return idx[i] < idx[j] })

	var out []*lua.Table
	for _, n := range idx {
		if e := t.Index(n); e != nil && e.Kind() == lua.KindTable {
			out = append(out, e.Table())
		}
	}
	return out
}

// Highlights counts records carrying position markers (pos0).
func Highlights(recs []*lua.Table) int {
	n := 0
	for _, r := range recs {
		if r.Field("pos0") != nil {
			n++
		}
	}
	return n
}

// Notes counts records carrying a non-empty note.
func Notes(recs []*lua.Table) int {
	n := 0
	for _, r := range recs {
		if noteText(r) != "" {
			n++
		}
	}
	return n
}

// identity distinguishes "the same annotation" across files. Highlights
// key on their position markers, bookmarks on page and chapter. The two
// classes never unify even when their component fields coincide.
type identity struct {
	highlight bool
	a, b      string
}

func identityOf(rec *lua.Table) identity {
	if rec.Field("pos0") != nil && rec.Field("pos1") != nil {
		return identity{
			highlight: true,
			a:         canonField(rec, "pos0"),
			b:         canonField(rec, "pos1"),
		}
	}
	return identity{
		a: canonField(rec, "page"),
		b: canonField(rec, "chapter"),
	}
}

func canonField(rec *lua.Table, name string) string {
	return canonValue(rec.Field(name))
}

// canonValue renders a value as a deterministic string usable as a map
// key component. Strings are quoted so "5" never collides with 5; tables
// (PDF-style position markers) render with sorted keys.
func canonValue(v *lua.Value) string {
	if v == nil {
		return "~"
	}
	switch v.Kind() {
	case lua.KindNil:
		return "~"
	case lua.KindBool:
		if v.Bool() {
			return "t"
		}
		return "f"
	case lua.KindInt:
		return strconv.FormatInt(v.Int(), 10)
	case lua.KindFloat:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64)
	case lua.KindString:
		return strconv.Quote(v.Str())
	case lua.KindTable:
		t := v.Table()
		var b strings.Builder
		b.WriteString("{")
		for i, k := range t.SortedKeys() {
			if i > 0 {
				b.WriteString(" ")
			}
			if k.IsInt {
				b.WriteString(strconv.FormatInt(k.Int, 10))
			} else {
				b.WriteString(strconv.Quote(k.Str))
			}
			b.WriteString("=")
			e, _ := t.Get(k)
			b.WriteString(canonValue(e))
		}
		b.WriteString("}")
		return b.String()
	}
	return "~"
}

// fieldText returns a string field's value, or "" when absent or not a
// string.
func fieldText(t *lua.Table, name string) string {
	v := t.Field(name)
	if v == nil || v.Kind() != lua.KindString {
		return ""
	}
	return v.Str()
}

func noteText(rec *lua.Table) string {
	return fieldText(rec, "note")
}

// timestamp is the record's recency marker: datetime_updated, falling
// back to datetime, falling back to empty. ISO-like timestamps compare
// correctly as text.
func timestamp(rec *lua.Table) string {
	if s := fieldText(rec, "datetime_updated"); s != "" {
		return s
	}
	return fieldText(rec, "datetime")
}

// pageNumber returns the numeric pageno, defaulting to 0.
func pageNumber(rec *lua.Table) float64 {
	if v := rec.Field("pageno"); v != nil {
		if f, ok := v.Number(); ok {
			return f
		}
	}
	return 0
}
