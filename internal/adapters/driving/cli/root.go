package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/marc-importer/internal/core/ports/driving"
	"github.com/custodia-labs/marc-importer/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// App gives commands access to the core services. Storage is opened
// on first use so that commands which do not need it stay cheap.
type App interface {
	// Settings returns the settings service.
	Settings() driving.SettingsService

	// Loader returns a loader backed by the configured store, or by an
	// in-memory store when dryRun is set.
	Loader(ctx context.Context, dryRun bool) (driving.MarcLoader, error)

	// Inspector returns a loader-free record inspector.
	Inspector() driving.RecordInspector

	// Listener returns the listen-directory daemon.
	Listener(ctx context.Context) (driving.Listener, error)

	// Close releases storage and watchers.
	Close() error
}

// AppFactory builds an App from the configuration directory.
// An empty directory selects the default location.
type AppFactory func(configDir string) (App, error)

var (
	newApp AppFactory
	app    App

	verbose   bool
	configDir string
)

var rootCmd = &cobra.Command{
	Use:   "marcimport",
	Short: "Load MARC 21 records into a relational store",
	Long: `marcimport loads ISO 2709 MARC files into a relational database.

Records are classified by their control fields, checked against earlier
loads, decomposed into field and subfield rows, and holding records are
derived from their 852 locations.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setupApp,
	PersistentPostRunE: closeApp,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Write per-row debug messages")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Configuration directory (default ~/.marcimport)")
}

// Execute runs the command line with the given factory.
func Execute(ctx context.Context, factory AppFactory) error {
	newApp = factory
	err := rootCmd.ExecuteContext(ctx)
	// Post-run hooks are skipped when a command fails.
	if closeErr := closeApp(nil, nil); err == nil {
		err = closeErr
	}
	return err
}

func setupApp(_ *cobra.Command, _ []string) error {
	if verbose {
		logger.SetVerbose(true)
	}
	return nil
}

func closeApp(_ *cobra.Command, _ []string) error {
	if app == nil {
		return nil
	}
	err := app.Close()
	app = nil
	return err
}

// requireApp builds the app on first use.
func requireApp() (App, error) {
	if app != nil {
		return app, nil
	}
	if newApp == nil {
		return nil, errors.New("application not configured")
	}
	a, err := newApp(configDir)
	if err != nil {
		return nil, err
	}
	app = a

	// --verbose wins over the configured level.
	if verbose {
		logger.SetVerbose(true)
	}
	return app, nil
}
