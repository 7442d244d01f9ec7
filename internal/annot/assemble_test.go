package annot

import (
	"testing"

	"koshelf/komerge/internal/lua"
)

func docWith(fields map[string]*lua.Value) *lua.Table {
	t := lua.NewTable()
	for k, v := range fields {
		t.SetField(k, v)
	}
	return t
}

func TestAssembleRenumbersAnnotations(t *testing.T) {
	recs := []*lua.Table{
		bookmark(lua.Int(1), "A", nil),
		bookmark(lua.Int(2), "B", nil),
		bookmark(lua.Int(3), "C", nil),
	}
	out := Assemble(recs, []*lua.Table{lua.NewTable()})

	ann := out.Field("annotations")
	if ann == nil || ann.Kind() != lua.KindTable {
		t.Fatal("missing annotations table")
	}
	if ann.Table().Len() != 3 {
		t.Fatalf("annotations Len() = %d, want 3", ann.Table().Len())
	}
	for i := int64(1); i <= 3; i++ {
		e := ann.Table().Index(i)
		if e == nil || e.Kind() != lua.KindTable {
			t.Errorf("annotation [%d] missing", i)
		}
	}
}

func TestAssembleCopiesFirstDocumentMetadata(t *testing.T) {
	props := lua.NewTable()
	props.SetField("authors", lua.Str("Author A"))
	props.SetField("language", lua.Str("en"))
	props.SetField("title", lua.Str("Book"))

	first := docWith(map[string]*lua.Value{
		"doc_pages":            lua.Int(312),
		"doc_path":             lua.Str("/books/a.epub"),
		"doc_props":            lua.Tab(props),
		"partial_md5_checksum": lua.Str("abc123"),
	})
	second := docWith(map[string]*lua.Value{
		"doc_pages": lua.Int(999),
		"doc_path":  lua.Str("/elsewhere/a.epub"),
	})

	out := Assemble(nil, []*lua.Table{first, second})

	if got := out.Field("doc_pages"); got == nil || got.Int() != 312 {
		t.Errorf("doc_pages = %v, want 312", got)
	}
	if got := out.Field("doc_path"); got == nil || got.Str() != "/books/a.epub" {
		t.Errorf("doc_path = %v", got)
	}
	if got := out.Field("partial_md5_checksum"); got == nil || got.Str() != "abc123" {
		t.Errorf("partial_md5_checksum = %v", got)
	}
}

func TestAssembleOmitsAbsentMetadata(t *testing.T) {
	out := Assemble(nil, []*lua.Table{lua.NewTable()})
	for _, name := range []string{"doc_pages", "doc_path", "doc_props", "partial_md5_checksum", "summary"} {
		if out.Field(name) != nil {
			t.Errorf("field %q present, want omitted", name)
		}
	}
}

func TestAssembleStats(t *testing.T) {
	props := lua.NewTable()
	props.SetField("authors", lua.Str("Author A"))
	props.SetField("language", lua.Str("en"))
	props.SetField("title", lua.Str("Book"))
	first := docWith(map[string]*lua.Value{
		"doc_pages": lua.Int(312),
		"doc_props": lua.Tab(props),
	})

	recs := []*lua.Table{
		highlight("p.0", "p.5", map[string]*lua.Value{"note": lua.Str("important")}),
		highlight("p.6", "p.9", nil),
		bookmark(lua.Int(4), "Two", map[string]*lua.Value{"note": lua.Str("")}),
	}

	out := Assemble(recs, []*lua.Table{first})
	sv := out.Field("stats")
	if sv == nil || sv.Kind() != lua.KindTable {
		t.Fatal("missing stats table")
	}
	stats := sv.Table()

	checks := []struct {
		field string
		want  *lua.Value
	}{
		{"authors", lua.Str("Author A")},
		{"highlights", lua.Int(2)},
		{"language", lua.Str("en")},
		{"notes", lua.Int(1)},
		{"pages", lua.Int(312)},
		{"series", lua.Str("N/A")},
		{"title", lua.Str("Book")},
	}
	for _, c := range checks {
		if got := stats.Field(c.field); got == nil || !lua.Equal(got, c.want) {
			t.Errorf("stats.%s = %v, want %s", c.field, got, lua.Format(c.want))
		}
	}
	if perf := stats.Field("performance_in_pages"); perf == nil || perf.Kind() != lua.KindTable || perf.Table().Len() != 0 {
		t.Errorf("stats.performance_in_pages = %v, want empty table", perf)
	}
}

func TestAssembleStatsDefaults(t *testing.T) {
	out := Assemble(nil, []*lua.Table{lua.NewTable()})
	stats := out.Field("stats").Table()
	if got := stats.Field("authors"); got.Str() != "" {
		t.Errorf("authors = %q, want empty", got.Str())
	}
	if got := stats.Field("pages"); got.Kind() != lua.KindInt || got.Int() != 0 {
		t.Errorf("pages = %v, want 0", got)
	}
	if got := stats.Field("highlights"); got.Int() != 0 {
		t.Errorf("highlights = %v, want 0", got)
	}
}

func TestAssemblePicksMostRecentSummary(t *testing.T) {
	mkSummary := func(modified, status string) *lua.Value {
		s := lua.NewTable()
		s.SetField("modified", lua.Str(modified))
		s.SetField("status", lua.Str(status))
		return lua.Tab(s)
	}

	a := docWith(map[string]*lua.Value{"summary": mkSummary("2024-01-01", "reading")})
	b := docWith(map[string]*lua.Value{"summary": mkSummary("2024-05-01", "complete")})
	c := docWith(map[string]*lua.Value{"summary": mkSummary("2024-03-01", "abandoned")})

	out := Assemble(nil, []*lua.Table{a, b, c})
	sv := out.Field("summary")
	if sv == nil || sv.Kind() != lua.KindTable {
		t.Fatal("missing summary")
	}
	if got := fieldText(sv.Table(), "status"); got != "complete" {
		t.Errorf("summary.status = %q, want %q", got, "complete")
	}
}

func TestAssembleSummaryTieKeepsFirst(t *testing.T) {
	mkSummary := func(status string) *lua.Value {
		s := lua.NewTable()
		s.SetField("modified", lua.Str("2024-05-01"))
		s.SetField("status", lua.Str(status))
		return lua.Tab(s)
	}
	a := docWith(map[string]*lua.Value{"summary": mkSummary("first")})
	b := docWith(map[string]*lua.Value{"summary": mkSummary("second")})

	out := Assemble(nil, []*lua.Table{a, b})
	if got := fieldText(out.Field("summary").Table(), "status"); got != "first" {
		t.Errorf("summary.status = %q, want %q", got, "first")
	}
}

func TestAssembleSkipsEmptySummaries(t *testing.T) {
	a := docWith(map[string]*lua.Value{"summary": lua.Tab(lua.NewTable())})
	out := Assemble(nil, []*lua.Table{a})
	if out.Field("summary") != nil {
		t.Error("empty summary table should be omitted")
	}
}

// The full pipeline on two sidecars sharing one bookmark identity: the
// more recent record survives alone and stats reflect zero highlights.
func TestMergeAssembleEndToEnd(t *testing.T) {
	srcA := `return {
    ["annotations"] = {
        [1] = {
            ["chapter"] = nil,
            ["datetime"] = "2024-01-01T00:00:00",
            ["page"] = 5,
        },
    },
    ["doc_pages"] = 100,
    ["doc_path"] = "/books/b.epub",
}`
	srcB := `return {
    ["annotations"] = {
        [1] = {
            ["chapter"] = nil,
            ["datetime"] = "2024-02-01T00:00:00",
            ["page"] = 5,
        },
    },
    ["doc_pages"] = 100,
}`

	docA, err := lua.ParseDocument(srcA)
	if err != nil {
		t.Fatal(err)
	}
	docB, err := lua.ParseDocument(srcB)
	if err != nil {
		t.Fatal(err)
	}

	merged := Merge([][]*lua.Table{Annotations(docA), Annotations(docB)})
	if len(merged) != 1 {
		t.Fatalf("merged %d records, want 1", len(merged))
	}

	out := Assemble(merged, []*lua.Table{docA, docB})

	ann := out.Field("annotations").Table()
	if ann.Len() != 1 {
		t.Fatalf("output has %d annotations, want 1", ann.Len())
	}
	kept := ann.Index(1)
	if kept == nil || kept.Kind() != lua.KindTable {
		t.Fatal("missing annotation [1]")
	}
	if got := fieldText(kept.Table(), "datetime"); got != "2024-02-01T00:00:00" {
		t.Errorf("kept datetime = %q, want the more recent record", got)
	}

	stats := out.Field("stats").Table()
	if got := stats.Field("highlights"); got.Int() != 0 {
		t.Errorf("stats.highlights = %d, want 0", got.Int())
	}
	if got := out.Field("doc_path"); got == nil || got.Str() != "/books/b.epub" {
		t.Errorf("doc_path = %v", got)
	}

	// The serialized result must re-parse to the same document.
	text := lua.Serialize(out)
	back, err := lua.ParseDocument(text)
	if err != nil {
		t.Fatalf("output does not re-parse: %v\n%s", err, text)
	}
	if !lua.Equal(lua.Tab(out), lua.Tab(back)) {
		t.Errorf("output changed across round trip:\n%s", text)
	}
}
