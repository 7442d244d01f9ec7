package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"koshelf/komerge/internal/annot"
	"koshelf/komerge/internal/lua"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect FILE",
	Short: "Show document metadata and annotation counts for one sidecar",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := parseFile(args[0])
		if err != nil {
			return err
		}

		printDocField(doc, "doc_path", "Path")
		printDocField(doc, "partial_md5_checksum", "Checksum")
		if v := doc.Field("doc_pages"); v != nil {
			fmt.Printf("  Pages: %s\n", lua.Format(v))
		}
		if v := doc.Field("doc_props"); v != nil && v.Kind() == lua.KindTable {
			props := v.Table()
			printDocField(props, "title", "Title")
			printDocField(props, "authors", "Authors")
			printDocField(props, "language", "Language")
		}

		anns := annot.Annotations(doc)
		highlights := annot.Highlights(anns)
		fmt.Printf("\n  Annotations: %d\n", len(anns))
		fmt.Printf("  Highlights: %d\n", highlights)
		fmt.Printf("  Bookmarks: %d\n", len(anns)-highlights)
		fmt.Printf("  Notes: %d\n", annot.Notes(anns))

		if verbose {
			fmt.Println()
			for i, a := range anns {
				line := fmt.Sprintf("  [%d]", i+1)
				if v := a.Field("pageno"); v != nil {
					line += " p." + lua.Format(v)
				}
				if s := stringField(a, "datetime"); s != "" {
					line += " " + s
				}
				if s := stringField(a, "note"); s != "" {
					line += " note=" + truncNote(s, 40)
				}
				fmt.Println(line)
			}
		}
		return nil
	},
}

func init() {
	inspectCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "List each annotation")
	rootCmd.AddCommand(inspectCmd)
}

func printDocField(t *lua.Table, name, label string) {
	if s := stringField(t, name); s != "" {
		fmt.Printf("  %s: %s\n", label, s)
	}
}

func stringField(t *lua.Table, name string) string {
	v := t.Field(name)
	if v == nil || v.Kind() != lua.KindString {
		return ""
	}
	return v.Str()
}

func truncNote(s string, max int) string {
	if len(s) <= max {
		return s
	}
	truncated := s[:max]
	// Back off to a UTF-8 boundary.
	for len(truncated) > 0 && truncated[len(truncated)-1]>>6 == 2 {
		truncated = truncated[:len(truncated)-1]
	}
	return truncated + "..."
}
