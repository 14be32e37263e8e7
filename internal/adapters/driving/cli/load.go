package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/marc-importer/internal/core/domain"
	"github.com/custodia-labs/marc-importer/internal/core/ports/driving"
)

var loadCmd = &cobra.Command{
	Use:   "load <file>...",
	Short: "Load MARC files",
	Long: `Loads one or more ISO 2709 MARC files.

Each file is processed to completion and a summary is printed. Records
already stored with the same or a newer 005 timestamp are skipped.
With --dry-run, records are loaded into a throwaway in-memory store.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLoad,
}

var (
	loadInstitution string
	loadDryRun      bool
)

func init() {
	loadCmd.Flags().StringVarP(&loadInstitution, "institution", "i", "", "Institution code (default import.institution_code)")
	loadCmd.Flags().BoolVar(&loadDryRun, "dry-run", false, "Load into memory without touching the database")
	rootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, args []string) error {
	a, err := requireApp()
	if err != nil {
		return err
	}
	loader, err := a.Loader(cmd.Context(), loadDryRun)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}

	out := cmd.OutOrStdout()
	var failed int
	for _, path := range args {
		report, err := loader.LoadFile(cmd.Context(), driving.LoadRequest{
			Path:            path,
			InstitutionCode: loadInstitution,
		})
		if err != nil {
			fmt.Fprintf(out, "%s %s: %v\n", styled(out, errStyle, "FAILED"), path, err)
			failed++
			continue
		}
		printReport(out, report, loadDryRun)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files could not be loaded", failed, len(args))
	}
	return nil
}

// printReport writes the counters of one load.
func printReport(w io.Writer, r *domain.LoadReport, dryRun bool) {
	title := r.Path
	if dryRun {
		title += " (dry run)"
	}
	fmt.Fprintln(w, styled(w, titleStyle, title))

	row := func(name string, value any) {
		fmt.Fprintf(w, "  %s %v\n", label(w, name), value)
	}
	row("Institution", r.InstitutionCode)
	row("Run", r.RunID)
	row("Records", r.Records)
	row("Inserted", styled(w, okStyle, fmt.Sprint(r.Inserted)))
	row("Updated", styled(w, okStyle, fmt.Sprint(r.Updated)))
	row("Skipped", r.Skipped)
	row("Holdings", fmt.Sprintf("%d stored, %d skipped, %d failed", r.HoldingsStored, r.HoldingsSkipped, r.HoldingsFailed))
	row("Rows", fmt.Sprintf("%d fields, %d subfields", r.FieldRows, r.SubfieldRows))

	problems := r.MissingKey + r.Failed + r.FailedRows
	if problems > 0 {
		row("Problems", styled(w, warnStyle,
			fmt.Sprintf("%d without key, %d failed records, %d failed rows", r.MissingKey, r.Failed, r.FailedRows)))
	}
	row("Duration", r.Duration().Round(time.Millisecond))
}
