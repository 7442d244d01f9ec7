package annot

import "koshelf/komerge/internal/lua"

// metadata fields copied from the first input document when present.
var carriedFields = []string{"doc_pages", "doc_path", "doc_props", "partial_md5_checksum"}

// Assemble builds the output document: merged records renumbered 1..N,
// document metadata from the first input, freshly computed stats, and
// the most recently modified summary among the inputs (if any).
func Assemble(merged []*lua.Table, docs []*lua.Table) *lua.Table {
	out := lua.NewTable()

	ann := lua.NewTable()
	for i, rec := range merged {
		ann.SetIndex(int64(i+1), lua.Tab(rec))
	}
	out.SetField("annotations", lua.Tab(ann))

	first := lua.NewTable()
	if len(docs) > 0 {
		first = docs[0]
	}
	for _, name := range carriedFields {
		if v := first.Field(name); v != nil {
			out.SetField(name, v)
		}
	}

	out.SetField("stats", lua.Tab(buildStats(merged, first)))

	if summary := pickSummary(docs); summary != nil {
		out.SetField("summary", lua.Tab(summary))
	}

	return out
}

func buildStats(merged []*lua.Table, first *lua.Table) *lua.Table {
	props := lua.NewTable()
	if v := first.Field("doc_props"); v != nil && v.Kind() == lua.KindTable {
		props = v.Table()
	}

	pages := first.Field("doc_pages")
	if pages == nil {
		pages = lua.Int(0)
	}

	stats := lua.NewTable()
	stats.SetField("authors", lua.Str(fieldText(props, "authors")))
	stats.SetField("highlights", lua.Int(int64(Highlights(merged))))
	stats.SetField("language", lua.Str(fieldText(props, "language")))
	stats.SetField("notes", lua.Int(int64(Notes(merged))))
	stats.SetField("pages", pages)
	stats.SetField("performance_in_pages", lua.Tab(lua.NewTable()))
	stats.SetField("series", lua.Str("N/A"))
	stats.SetField("title", lua.Str(fieldText(props, "title")))
	return stats
}

// pickSummary selects the summary table with the greatest "modified"
// timestamp; the first occurrence wins ties. Documents without a
// non-empty summary table are skipped.
func pickSummary(docs []*lua.Table) *lua.Table {
	var best *lua.Table
	bestMod := ""
	for _, doc := range docs {
		v := doc.Field("summary")
		if v == nil || v.Kind() != lua.KindTable || v.Table().Len() == 0 {
			continue
		}
		mod := fieldText(v.Table(), "modified")
		if best == nil || mod > bestMod {
			best = v.Table()
			bestMod = mod
		}
	}
	return best
}
