package cli

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/thornpw/steuer/internal/action"
	"github.com/thornpw/steuer/internal/console"
	"github.com/thornpw/steuer/internal/event"
	"github.com/thornpw/steuer/internal/session"
	"github.com/thornpw/steuer/internal/tray"
)

// Cross-platform signal handling: os.Interrupt is Ctrl+C everywhere, SIGTERM
// is ignored on Windows.
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// ErrNoJoysticks is returned by run in builds without a joystick layer.
var ErrNoJoysticks = errors.New("steuer was built without joystick support")

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Detect controllers, configure unknown ones and resolve their input",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context())
		},
	}
}

func (a *app) run(parent context.Context) error {
	if a.joysticks == nil {
		return ErrNoJoysticks
	}
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, shutdownSignals...)
	defer cancel()
	reregister := console.SetupConsoleHandler(cancel)
	interactive := console.IsRunningFromConsole()

	store, err := a.openStore()
	if err != nil {
		return err
	}
	if a.conf.Database.Watch {
		go func() {
			if err := store.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.log.Error().Err(err).Msg("mapping database watch stopped")
			}
		}()
	}

	registry := action.NewRegistry()
	v := newViewer(a.conf.Listen, registry, store, a.log)
	a.viewer = v
	if err := action.RegisterStandard(registry, v.actionHandlers(a.log), v.directionHandlers(a.log)); err != nil {
		return err
	}

	sess := session.New(registry,
		session.WithStore(a.conf.Database.Alias, store),
		session.WithHooks(v.lifecycleHooks(a.log)),
		session.WithEvents(a.conf.Events),
		session.WithLogger(a.log),
		session.WithAcquireTiming(a.conf.Acquire.Idle, a.conf.Acquire.Settle),
	)

	serverErr := v.start(ctx)

	if a.conf.Tray {
		t := tray.New(tray.Options{
			URL:      v.url(),
			OnReload: reloader(store, a.log),
			OnExit:   cancel,
		}, a.log)
		go t.Run()
		defer t.Quit()
	} else if interactive {
		a.log.Info().Msg("press Ctrl+C to exit")
	}

	// SDL must stay on this thread from Open to Close.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	reader := a.joysticks(a.log)
	if err := reader.Open(); err != nil {
		return err
	}
	defer reader.Close()
	// SDL replaced the console handler during init
	reregister()

	for _, name := range reader.Names() {
		sess.AddDevice(name)
	}
	sess.Init()
	if err := sess.Detect(a.conf.Database.Alias); err != nil {
		return err
	}

	if len(sess.Undetected()) > 0 {
		hooks := v.acquireHooks(a.log, newPrompter(os.Stdout, interactive))
		if err := sess.ConfigureUndetected(ctx, a.conf.Database.Alias, reader, hooks); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
	}

	for _, d := range sess.Devices().All() {
		v.publish(d)
	}

	res := sess.Resolver(a.conf.ResolverMode())
	a.log.Info().Str("mode", res.Mode().String()).Int("devices", sess.Devices().Len()).Msg("resolving input")

	runErr := make(chan error, 1)
	go func() {
		select {
		case err := <-serverErr:
			runErr <- err
			cancel()
		case <-ctx.Done():
		}
	}()

	err = reader.Run(ctx, func(ev event.Event) {
		v.metrics.Event(ev.Kind.String())
		name := res.Resolve(ev)
		if d, ok := sess.Devices().Get(ev.Device); ok {
			if name != "" {
				v.resolved(d, name)
				a.log.Debug().Str("device", d.String()).Str("action", name).Int("bits", d.Bits()).Msg("resolved")
			}
			v.publish(d)
		}
	})

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	v.shutdown(shutdownCtx)

	select {
	case err := <-runErr:
		return err
	default:
	}
	if errors.Is(err, context.Canceled) {
		a.log.Info().Msg("steuer stopped")
		return nil
	}
	return err
}
