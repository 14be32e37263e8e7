package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Load files dropped into the listen directory",
	Long: `Watches watch.listen_dir and loads every MARC file placed there, one
file at a time, using import.institution_code. Loaded files are moved to
watch.archive_dir. Files that cannot be opened are left in place.

Runs until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	a, err := requireApp()
	if err != nil {
		return err
	}
	settings, err := a.Settings().Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	listener, err := a.Listener(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to start listener: %w", err)
	}

	cmd.Printf("Watching %s (archive: %s). Press Ctrl+C to stop.\n",
		settings.Watch.ListenDir, settings.Watch.ArchiveDir)

	err = listener.Run(cmd.Context())
	if errors.Is(err, context.Canceled) {
		cmd.Println("Stopped.")
		return nil
	}
	return err
}
