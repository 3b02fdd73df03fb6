package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/legisgraph/legisgraph/internal/parser"
)

var (
	sectionsFile string
	sectionsNPB  int
)

var sectionsCmd = &cobra.Command{
	Use:   "sections",
	Short: "Load thematic section headings from a source document",
	Long: `Scans a legal HTML document for section headings (oddelek, pododdelek,
odsek) and layers them over the already imported act as a nested section
tree. Articles following a heading are attached to the innermost open
section. Run after import.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSections()
	},
}

func init() {
	sectionsCmd.Flags().StringVar(&sectionsFile, "file", "", "source document (required)")
	sectionsCmd.Flags().IntVar(&sectionsNPB, "npb", 0, "consolidated revision number the sections belong to (0 for unversioned)")
	_ = sectionsCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(sectionsCmd)
}

func runSections() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	f, err := os.Open(sectionsFile)
	if err != nil {
		return fmt.Errorf("opening %s: %w", sectionsFile, err)
	}
	defer f.Close()

	marks, err := parser.ParseSectionMarks(f)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", sectionsFile, err)
	}

	var npb *int
	if sectionsNPB > 0 {
		npb = &sectionsNPB
	}

	l := newLoaderFor(a)
	stats, err := l.LoadSections(ctx, npb, marks)
	if err != nil {
		return fmt.Errorf("loading sections: %w", err)
	}

	a.logger.Info("sections finished",
		"file", sectionsFile,
		"sections", stats.Sections,
		"attached", stats.Attached,
		"skipped", stats.Skipped)
	return nil
}
