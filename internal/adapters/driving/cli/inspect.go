package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/marc-importer/internal/core/domain"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Show how the records of a file would be loaded",
	Long: `Decodes and classifies every record of a MARC file without storing
anything. For each record the control number, record type, 005 timestamp
and the holding locations that would spawn holding records are shown.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

var inspectInstitution string

func init() {
	inspectCmd.Flags().StringVarP(&inspectInstitution, "institution", "i", "", "Institution code (default import.institution_code)")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	a, err := requireApp()
	if err != nil {
		return err
	}

	summaries, err := a.Inspector().InspectFile(cmd.Context(), args[0], inspectInstitution)
	if err != nil {
		return fmt.Errorf("failed to inspect %s: %w", args[0], err)
	}

	out := cmd.OutOrStdout()
	counts := make(map[domain.RecordType]int)
	var problems, holdings int

	for _, s := range summaries {
		if s.Err != nil {
			problems++
			fmt.Fprintf(out, "%5d  %s %v\n", s.Position, styled(out, errStyle, "error"), s.Err)
			continue
		}
		c := s.Classified
		counts[c.Type]++
		holdings += len(s.Markers)

		line := fmt.Sprintf("%5d  %-12s %-14s %s", s.Position, c.NaturalKey, c.Type, modDate(c))
		if len(s.Markers) > 0 {
			values := make([]string, len(s.Markers))
			for i, m := range s.Markers {
				values[i] = m.Value
			}
			line += "  holdings: " + strings.Join(values, ", ")
		}
		fmt.Fprintln(out, line)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "%d records: %d bibliographic, %d holding, %d unmatched, %d with errors; %d holding records\n",
		len(summaries),
		counts[domain.RecordTypeBibliographic],
		counts[domain.RecordTypeHolding],
		counts[domain.RecordTypeUnmatched],
		problems, holdings)
	return nil
}

func modDate(c domain.ClassifiedRecord) string {
	if c.LastChangeRaw == "" {
		return "-"
	}
	return c.LastChangeRaw
}
