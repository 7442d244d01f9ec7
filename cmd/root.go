package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"koshelf/komerge/internal/annot"
	"koshelf/komerge/internal/lua"
)

var (
	outputPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "komerge FILE...",
	Short: "Merge KOReader annotation sidecars from multiple devices",
	Long: `komerge reads one or more KOReader metadata sidecar files (.lua),
deduplicates their annotations (most recent edit wins) and writes a
single merged sidecar.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMerge,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output .lua file path")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed information about merged annotations")
	rootCmd.MarkFlagRequired("output")
}

func runMerge(cmd *cobra.Command, args []string) error {
	// Parse everything before writing anything: a merge needs all inputs.
	docs := make([]*lua.Table, 0, len(args))
	lists := make([][]*lua.Table, 0, len(args))
	for _, path := range args {
		fmt.Printf("Parsing: %s\n", path)
		doc, err := parseFile(path)
		if err != nil {
			return err
		}
		docs = append(docs, doc)

		anns := annot.Annotations(doc)
		lists = append(lists, anns)
		if verbose {
			fmt.Printf("  Found %d annotations\n", len(anns))
		}
	}

	merged := annot.Merge(lists)
	highlights := annot.Highlights(merged)
	notes := annot.Notes(merged)

	fmt.Printf("\nMerged results:\n")
	fmt.Printf("  Total annotations: %d\n", len(merged))
	fmt.Printf("  Highlights: %d\n", highlights)
	fmt.Printf("  Bookmarks: %d\n", len(merged)-highlights)
	fmt.Printf("  Notes: %d\n", notes)

	out := annot.Assemble(merged, docs)
	if err := os.WriteFile(outputPath, []byte(lua.Serialize(out)), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outputPath, err)
	}
	fmt.Printf("\nOutput written to: %s\n", outputPath)
	return nil
}

// parseFile reads and decodes one sidecar file.
func parseFile(path string) (*lua.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	doc, err := lua.ParseDocument(string(data))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return doc, nil
}
