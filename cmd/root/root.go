// Package root contains the root command for the application
package root

import (
	"fmt"
	"os"
	"sync"

	"fjacquet/bank-recon/internal/config"
	"fjacquet/bank-recon/internal/container"
	"fjacquet/bank-recon/internal/logging"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// CommonFlags represents the flags that are common to multiple commands
type CommonFlags struct {
	Output string
	Format string
	Actor  string
}

var (
	// Log is the shared logger instance for commands
	Log = logrus.New()

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "bank-recon",
		Short: "Import bank statements and reconcile them against the books.",
		Long: `bank-recon imports bank statement files through configurable parsers,
matches their lines against book transactions and reports what is left to explain.

Configuration is read from config.yaml (., .bank-recon, $HOME/.bank-recon) and
RECON_* environment variables, e.g. RECON_DATABASE_DRIVER=mysql.`,
		Run: func(cmd *cobra.Command, args []string) {
			Log.Info("Welcome to bank-recon!")
			Log.Info("Use --help to see available commands")
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if appContainer != nil {
				return nil
			}
			config.LoadEnv()
			cfg, err := config.InitializeConfig()
			if err != nil {
				return err
			}
			Log = config.ConfigureLoggingFromConfig(cfg)
			appContainer, err = container.NewContainerWithLogger(cfg, logging.NewLogrusAdapterFromLogger(Log))
			if err != nil {
				return fmt.Errorf("failed to initialize: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if appContainer == nil {
				return
			}
			if err := appContainer.Close(); err != nil {
				Log.Warnf("Failed to close resources: %v", err)
			}
		},
	}

	// SharedFlags are accessible to all commands
	SharedFlags = CommonFlags{}

	appContainer *container.Container
	initOnce     sync.Once
)

// Init initializes the root command and all flags
func Init() {
	initOnce.Do(func() {
		Cmd.PersistentFlags().StringVarP(&SharedFlags.Output, "output", "o", "", "Output file (stdout when empty)")
		Cmd.PersistentFlags().StringVarP(&SharedFlags.Format, "format", "f", "json", "Output format: json, csv or xlsx")
		Cmd.PersistentFlags().StringVar(&SharedFlags.Actor, "actor", defaultActor(), "User recorded on every change")
	})
}

func defaultActor() string {
	if actor := config.GetEnv("RECON_ACTOR", ""); actor != "" {
		return actor
	}
	return os.Getenv("USER")
}

// GetContainer returns the container built before the command ran.
func GetContainer() *container.Container {
	return appContainer
}

// GetLogrusAdapter returns the shared logger behind the logging interface.
func GetLogrusAdapter() logging.Logger {
	if appContainer != nil {
		return appContainer.GetLogger()
	}
	return logging.NewLogrusAdapterFromLogger(Log)
}

// SetContainer sets the container commands run against. A preset container
// is used as is instead of one built from configuration.
func SetContainer(c *container.Container) {
	appContainer = c
}
