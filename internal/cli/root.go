// Package cli implements the steuer commands. It does not import SDL: the
// joystick layer is handed in by the binary.
package cli

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/thornpw/steuer/internal/acquire"
	"github.com/thornpw/steuer/internal/config"
	"github.com/thornpw/steuer/internal/event"
	"github.com/thornpw/steuer/internal/logger"
	"github.com/thornpw/steuer/internal/mapping"
)

// Joysticks is the device layer the run command reads from. All methods
// are called from the goroutine that called Open.
type Joysticks interface {
	acquire.Source
	Open() error
	Close()
	// Names returns the model name of every joystick, ordered by index.
	Names() []string
	Run(ctx context.Context, handle func(event.Event)) error
}

// OpenJoysticks creates the device layer. A nil OpenJoysticks makes run
// fail with ErrNoJoysticks.
type OpenJoysticks func(log *logger.Logger) Joysticks

// app carries what every command needs once flags are parsed.
type app struct {
	conf      *config.Config
	log       *logger.Logger
	joysticks OpenJoysticks

	// viewer of the last run, kept for inspection
	viewer *viewer
}

// NewRootCmd builds the steuer command tree. Without a subcommand it runs.
func NewRootCmd(version string, joysticks OpenJoysticks) *cobra.Command {
	a := &app{joysticks: joysticks}
	root := &cobra.Command{
		Use:           "steuer",
		Short:         "Map game controller input to named actions",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context())
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v, err := config.New(cmd.Flags())
			if err != nil {
				return err
			}
			path, _ := cmd.Flags().GetString("config")
			conf, err := config.Load(v, path)
			if err != nil {
				return err
			}
			a.conf = conf
			a.log = logger.NewConsole(conf.Debug, "steuer", false)
			return nil
		},
	}
	config.AddFlags(root.PersistentFlags())

	root.AddCommand(newRunCmd(a), newMappingsCmd(a))
	return root
}

// openStore opens the configured mapping database.
func (a *app) openStore() (*mapping.Store, error) {
	return mapping.NewStore(a.conf.Database.Alias, mapping.NewFile(a.conf.DatabasePath()), a.log)
}

// reloader reloads store and logs a failure.
func reloader(store *mapping.Store, log *logger.Logger) func() {
	return func() {
		if err := store.Reload(); err != nil {
			log.Error().Err(err).Str("db", store.Alias()).Msg("reload failed")
		}
	}
}
