package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change importer settings.

Settings are stored in config.toml in the configuration directory.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Long: `Change a single setting. An empty value resets directory and
connection settings to their defaults.

Keys:
  import.institution_code    Institution code used when a load names none
  import.holdings_institution  Institution whose records spawn holding records
  import.holding_strategy    subfield, field or both
  storage.driver             sqlite or postgres
  storage.data_dir           Directory of the sqlite database
  storage.dsn                Postgres connection string
  storage.max_conns          Postgres pool size
  watch.listen_dir           Directory watched by 'marcimport watch'
  watch.archive_dir          Directory loaded files are moved to
  watch.debounce_seconds     Quiet period before a new file is loaded
  watch.files_per_minute     Maximum files picked up per minute
  logging.level              error, warn, info or debug
  logging.file               Append log output to this file`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	a, err := requireApp()
	if err != nil {
		return err
	}
	settings, err := a.Settings().Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	out := cmd.OutOrStdout()
	section := func(name string) {
		fmt.Fprintln(out, styled(out, titleStyle, "["+name+"]"))
	}
	row := func(name string, value any) {
		fmt.Fprintf(out, "  %s %v\n", label(out, name), value)
	}

	section("Import")
	row("Institution", settings.Import.InstitutionCode)
	row("Holdings from", settings.Import.HoldingsInstitution)
	row("Holding strategy", settings.Import.HoldingStrategy.Description())
	fmt.Fprintln(out)

	section("Storage")
	row("Driver", settings.Storage.Driver)
	row("Data dir", settings.Storage.DataDir)
	row("DSN", maskDSN(settings.Storage.DSN))
	row("Max conns", settings.Storage.MaxConns)
	fmt.Fprintln(out)

	section("Watch")
	row("Listen dir", settings.Watch.ListenDir)
	row("Archive dir", settings.Watch.ArchiveDir)
	row("Debounce", settings.Watch.Debounce)
	row("Files/minute", settings.Watch.FilesPerMinute)
	fmt.Fprintln(out)

	section("Logging")
	row("Level", settings.Logging.Level)
	logFile := settings.Logging.File
	if logFile == "" {
		logFile = "(stderr)"
	}
	row("File", logFile)

	if err := settings.Validate(); err != nil {
		fmt.Fprintln(out)
		fmt.Fprintln(out, styled(out, warnStyle, "Warning: "+strings.ReplaceAll(err.Error(), "\n", "; ")))
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	a, err := requireApp()
	if err != nil {
		return err
	}
	if err := a.Settings().Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}
	cmd.Printf("%s set to %q\n", args[0], args[1])
	return nil
}

// maskDSN hides the password of a connection string.
func maskDSN(dsn string) string {
	if dsn == "" {
		return "(not set)"
	}
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return "****"
	}
	userinfo, host, ok := strings.Cut(rest, "@")
	if !ok {
		return dsn
	}
	user, _, hasPassword := strings.Cut(userinfo, ":")
	if !hasPassword {
		return dsn
	}
	return scheme + "://" + user + ":****@" + host
}
