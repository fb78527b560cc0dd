package cli

import (
	"context"
	"net"
	"net/http"

	"github.com/pkg/errors"
	"github.com/thornpw/steuer/internal/acquire"
	"github.com/thornpw/steuer/internal/action"
	"github.com/thornpw/steuer/internal/device"
	"github.com/thornpw/steuer/internal/gamepad"
	"github.com/thornpw/steuer/internal/hub"
	"github.com/thornpw/steuer/internal/logger"
	"github.com/thornpw/steuer/internal/mapping"
	"github.com/thornpw/steuer/internal/server"
	"github.com/thornpw/steuer/internal/session"
)

// viewer connects the resolver loop with the websocket hub, the HTTP server
// and the metrics. With an empty listen address only metrics are kept.
type viewer struct {
	listen   string
	registry *action.Registry
	store    *mapping.Store
	metrics  *server.Metrics
	log      *logger.Logger

	hub         *hub.Hub
	broadcaster *hub.Broadcaster
	server      *server.Server
	changes     chan gamepad.DeviceState
	notices     chan hub.Notice
	last        map[int]gamepad.DeviceState
}

func newViewer(listen string, registry *action.Registry, store *mapping.Store, log *logger.Logger) *viewer {
	return &viewer{
		listen:   listen,
		registry: registry,
		store:    store,
		metrics:  server.NewMetrics(),
		log:      logger.OrNop(log),
		last:     make(map[int]gamepad.DeviceState),
	}
}

// start runs the hub, the broadcaster and the HTTP server. Server failures
// are reported on the returned channel.
func (v *viewer) start(ctx context.Context) <-chan error {
	errCh := make(chan error, 1)
	if v.listen == "" {
		return errCh
	}
	v.changes = make(chan gamepad.DeviceState, 64)
	v.notices = make(chan hub.Notice, 16)
	v.hub = hub.NewHub(v.log)
	go v.hub.Run(ctx)
	v.broadcaster = hub.NewBroadcaster(v.hub, v.changes, v.notices)
	go v.broadcaster.Run(ctx)

	v.server = server.New(v.hub, v.broadcaster, v.store, v.metrics, v.listen, v.log)
	go func() {
		if err := v.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- errors.Wrap(err, "viewer")
		}
	}()
	v.log.Info().Str("url", v.url()).Msg("viewer started")
	return errCh
}

func (v *viewer) shutdown(ctx context.Context) {
	if v.server == nil {
		return
	}
	if err := v.server.Shutdown(ctx); err != nil {
		v.log.Warn().Err(err).Msg("HTTP server shutdown")
	}
}

func (v *viewer) url() string {
	if v.listen == "" {
		return ""
	}
	host, port, err := net.SplitHostPort(v.listen)
	if err != nil {
		return "http://" + v.listen
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}

// publish sends the state of d when it changed. It never blocks the SDL
// thread.
func (v *viewer) publish(d *device.Device) {
	if v.changes == nil {
		return
	}
	s := gamepad.Snapshot(d, v.registry)
	if last, ok := v.last[d.Index]; ok && gamepad.ComputeDelta(last, s).IsEmpty() {
		return
	}
	v.last[d.Index] = s
	select {
	case v.changes <- s:
	default:
		// Drop if channel is full to avoid blocking the SDL thread
	}
}

// resolved counts name when the resolver reported it as a press, which
// leaves its bit set on d. Releases clear the bit and are not counted.
func (v *viewer) resolved(d *device.Device, name string) {
	a, ok := v.registry.Action(name)
	if !ok || d.Bits()&a.Value == 0 {
		return
	}
	v.metrics.Action(name)
}

func (v *viewer) notify(name string, d *device.Device) {
	if v.notices == nil {
		return
	}
	select {
	case v.notices <- hub.Notice{Event: name, State: gamepad.Snapshot(d, v.registry)}:
	default:
	}
}

func (v *viewer) actionHandlers(log *logger.Logger) action.HandlerFunc {
	return func(s action.Spec) (on, off action.Handler) {
		on = func(d *device.Device) {
			log.Debug().Str("device", d.String()).Str("action", s.Name).Msg("pressed")
		}
		off = func(d *device.Device) {
			log.Debug().Str("device", d.String()).Str("action", s.Name).Msg("released")
		}
		return on, off
	}
}

func (v *viewer) directionHandlers(log *logger.Logger) action.HandlerFunc {
	return func(s action.Spec) (on, off action.Handler) {
		on = func(d *device.Device) {
			log.Debug().Str("device", d.String()).Str("direction", s.Name).Msg("heading")
		}
		off = func(d *device.Device) {
			log.Debug().Str("device", d.String()).Str("direction", s.Name).Msg("unheading")
		}
		return on, off
	}
}

func (v *viewer) lifecycleHooks(log *logger.Logger) session.Hooks {
	return session.Hooks{
		OnInitialized: func() { log.Debug().Msg("actions registered") },
		OnControllerMapped: func(d *device.Device) {
			v.notify("controller_mapped", d)
		},
		OnMappingNotFound: func(d *device.Device) {
			v.notify("mapping_not_found", d)
		},
		OnDetectionFinished:     func() { log.Debug().Msg("detection finished") },
		OnStartConfiguration:    func() { log.Info().Msg("configuring new controllers") },
		OnConfigurationFinished: func() { log.Info().Msg("all controllers configured") },
	}
}

func (v *viewer) acquireHooks(log *logger.Logger, p *prompter) acquire.Hooks {
	return acquire.Hooks{
		OnConfigurationInit: func(d *device.Device) {
			v.notify("configuration_started", d)
			p.start(d)
		},
		OnRequestAction: func(d *device.Device, a *action.Action) {
			p.request(d, a)
		},
		OnEventMapped: func(d *device.Device, a *action.Action) {
			v.metrics.Acquisition("mapped")
			p.mapped(d, a)
		},
		OnEventAlreadyMapped: func(d *device.Device, a *action.Action) {
			v.metrics.Acquisition("duplicate")
			p.duplicate(d, a)
		},
		OnWait: func(d *device.Device) { p.wait(d) },
		OnConfigurationFinished: func(d *device.Device) {
			v.notify("controller_configured", d)
			p.finished(d)
		},
	}
}
