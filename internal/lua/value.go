// Package lua parses and serializes the Lua-table notation KOReader uses
// for its metadata sidecar files. Only the subset needed for annotation
// documents is supported: nil/boolean/number/string scalars and tables
// keyed by integers or strings.
package lua

import "sort"

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindTable
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "boolean"
	case KindInt:
		return "integer"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindTable:
		return "table"
	default:
		return "unknown"
	}
}

// Value is one node of a decoded document tree.
type Value struct {
	kind     Kind
	boolVal  bool
	intVal   int64
	floatVal float64
	strVal   string
	tabVal   *Table
}

func Nil() *Value            { return &Value{kind: KindNil} }
func Bool(b bool) *Value     { return &Value{kind: KindBool, boolVal: b} }
func Int(n int64) *Value     { return &Value{kind: KindInt, intVal: n} }
func Float(f float64) *Value { return &Value{kind: KindFloat, floatVal: f} }
func Str(s string) *Value    { return &Value{kind: KindString, strVal: s} }
func Tab(t *Table) *Value    { return &Value{kind: KindTable, tabVal: t} }

func (v *Value) Kind() Kind     { return v.kind }
func (v *Value) Bool() bool     { return v.boolVal }
func (v *Value) Int() int64     { return v.intVal }
func (v *Value) Float() float64 { return v.floatVal }
func (v *Value) Str() string    { return v.strVal }
func (v *Value) Table() *Table  { return v.tabVal }

// Number returns the value as a float64 for either numeric kind.
// Non-numeric values report 0 and false.
func (v *Value) Number() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.intVal), true
	case KindFloat:
		return v.floatVal, true
	}
	return 0, false
}

// Equal reports deep equality. Integer and float values compare by kind,
// so Int(1) and Float(1) are not equal.
func Equal(a, b *Value) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNil:
		return true
	case KindBool:
		return a.boolVal == b.boolVal
	case KindInt:
		return a.intVal == b.intVal
	case KindFloat:
		return a.floatVal == b.floatVal
	case KindString:
		return a.strVal == b.strVal
	case KindTable:
		return tablesEqual(a.tabVal, b.tabVal)
	}
	return false
}

func tablesEqual(a, b *Table) bool {
	if a.Len() != b.Len() {
		return false
	}
	for _, k := range a.keys {
		bv, ok := b.Get(k)
		if !ok || !Equal(a.vals[k], bv) {
			return false
		}
	}
	return true
}

// Key is a table key: either an integer or a string.
type Key struct {
	Str   string
	Int   int64
	IsInt bool
}

func IntKey(n int64) Key  { return Key{Int: n, IsInt: true} }
func StrKey(s string) Key { return Key{Str: s} }

// Less orders integer keys (ascending) before string keys (ascending).
func (k Key) Less(o Key) bool {
	if k.IsInt != o.IsInt {
		return k.IsInt
	}
	if k.IsInt {
		return k.Int < o.Int
	}
	return k.Str < o.Str
}

// Table is an ordered mapping from Keys to Values. Iteration order is
// insertion order; overwriting a key keeps its original position.
type Table struct {
	keys []Key
	vals map[Key]*Value
}

func NewTable() *Table {
	return &Table{vals: make(map[Key]*Value)}
}

func (t *Table) Len() int { return len(t.keys) }

func (t *Table) Set(k Key, v *Value) {
	if _, ok := t.vals[k]; !ok {
		t.keys = append(t.keys, k)
	}
	t.vals[k] = v
}

func (t *Table) Get(k Key) (*Value, bool) {
	v, ok := t.vals[k]
	return v, ok
}

// Keys returns the keys in insertion order.
func (t *Table) Keys() []Key {
	out := make([]Key, len(t.keys))
	copy(out, t.keys)
	return out
}

// SortedKeys returns the keys with integers first (ascending), then
// strings (ascending).
func (t *Table) SortedKeys() []Key {
	out := t.Keys()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Field returns the value under a string key, or nil when absent.
func (t *Table) Field(name string) *Value {
	v, ok := t.vals[StrKey(name)]
	if !ok {
		return nil
	}
	return v
}

func (t *Table) SetField(name string, v *Value) { t.Set(StrKey(name), v) }

// Index returns the value under an integer key, or nil when absent.
func (t *Table) Index(n int64) *Value {
	v, ok := t.vals[IntKey(n)]
	if !ok {
		return nil
	}
	return v
}

func (t *Table) SetIndex(n int64, v *Value) { t.Set(IntKey(n), v) }

// Copy returns a shallow copy: a fresh key order and mapping sharing the
// same Value nodes.
func (t *Table) Copy() *Table {
	out := &Table{
		keys: make([]Key, len(t.keys)),
		vals: make(map[Key]*Value, len(t.vals)),
	}
	copy(out.keys, t.keys)
	for k, v := range t.vals {
		out.vals[k] = v
	}
	return out
}
