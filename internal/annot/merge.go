package annot

import (
	"sort"

	"koshelf/komerge/internal/lua"
)

// Merge deduplicates annotation lists from multiple devices into one
// sorted list. Records sharing an identity key collapse to a single
// entry: the one with the greater timestamp wins, and on an exact
// timestamp tie a record with a note beats one without. Survivors are
// returned sorted by (pageno, pos0, datetime) with missing fields
// treated as 0 / empty text.
func Merge(lists [][]*lua.Table) []*lua.Table {
	kept := make(map[identity]*lua.Table)
	var order []identity

	for _, list := range lists {
		for _, rec := range list {
			key := identityOf(rec)
			cur, ok := kept[key]
			if !ok {
				kept[key] = rec.Copy()
				order = append(order, key)
				continue
			}
			curTS, newTS := timestamp(cur), timestamp(rec)
			switch {
			case newTS > curTS:
				kept[key] = rec.Copy()
			case newTS == curTS && noteText(rec) != "" && noteText(cur) == "":
				kept[key] = rec.Copy()
			}
		}
	}

	out := make([]*lua.Table, 0, len(order))
	for _, key := range order {
		out = append(out, kept[key])
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if pa, pb := pageNumber(a), pageNumber(b); pa != pb {
			return pa < pb
		}
		if sa, sb := fieldText(a, "pos0"), fieldText(b, "pos0"); sa != sb {
			return sa < sb
		}
		return fieldText(a, "datetime") < fieldText(b, "datetime")
	})
	return out
}
