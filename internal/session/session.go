// Package session ties the registries, the connected devices and the
// mapping stores together and runs the detect / configure lifecycle.
package session

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/thornpw/steuer/internal/acquire"
	"github.com/thornpw/steuer/internal/action"
	"github.com/thornpw/steuer/internal/device"
	"github.com/thornpw/steuer/internal/logger"
	"github.com/thornpw/steuer/internal/mapping"
	"github.com/thornpw/steuer/internal/resolver"
)

var ErrUnknownStore = errors.New("session: unknown mapping store")

// Hooks are the lifecycle notifications of a session. Every field may be
// nil. None of them fire when events are disabled.
type Hooks struct {
	OnInitialized           func()
	OnControllerMapped      func(d *device.Device)
	OnMappingNotFound       func(d *device.Device)
	OnDetectionFinished     func()
	OnStartConfiguration    func()
	OnConfigurationFinished func()
}

type Session struct {
	registry *action.Registry
	devices  *device.List
	stores   map[string]*mapping.Store
	hooks    Hooks
	events   bool
	log      *logger.Logger

	idle, settle time.Duration

	undetected []*device.Device
}

type Option func(*Session)

// WithStore registers a mapping store under alias.
func WithStore(alias string, s *mapping.Store) Option {
	return func(ss *Session) { ss.stores[alias] = s }
}

func WithHooks(h Hooks) Option { return func(s *Session) { s.hooks = h } }

// WithEvents enables or disables the lifecycle hooks and the acquisition
// hooks given to ConfigureUndetected. Enabled by default.
func WithEvents(on bool) Option { return func(s *Session) { s.events = on } }

func WithLogger(l *logger.Logger) Option { return func(s *Session) { s.log = logger.OrNop(l) } }

// WithAcquireTiming overrides the idle and settle intervals of the
// acquisition driver. Zero keeps the driver default.
func WithAcquireTiming(idle, settle time.Duration) Option {
	return func(s *Session) { s.idle, s.settle = idle, settle }
}

// New creates a session. Without a store for mapping.DefaultAlias a
// memory-only one is added.
func New(registry *action.Registry, opts ...Option) *Session {
	s := &Session{
		registry: registry,
		devices:  device.NewList(),
		stores:   make(map[string]*mapping.Store),
		events:   true,
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if _, ok := s.stores[mapping.DefaultAlias]; !ok {
		mem, _ := mapping.NewStore(mapping.DefaultAlias, nil, s.log)
		s.stores[mapping.DefaultAlias] = mem
	}
	return s
}

func (s *Session) Registry() *action.Registry { return s.registry }

func (s *Session) Devices() *device.List { return s.devices }

func (s *Session) Store(alias string) (*mapping.Store, error) {
	st, ok := s.stores[alias]
	if !ok {
		return nil, errors.Wrap(ErrUnknownStore, alias)
	}
	return st, nil
}

// Init announces that registration is complete.
func (s *Session) Init() {
	s.log.Info().Int("actions", s.registry.Len()).Int("stores", len(s.stores)).Msg("session initialized")
	if s.events && s.hooks.OnInitialized != nil {
		s.hooks.OnInitialized()
	}
}

// AddDevice adds a device discovered at startup.
func (s *Session) AddDevice(name string) *device.Device {
	d := s.devices.Add(name)
	s.log.Debug().Str("device", d.String()).Msg("device added")
	return d
}

// Detect looks every unmapped device up in the store registered under alias.
// Devices whose model is unknown are remembered for ConfigureUndetected.
func (s *Session) Detect(alias string) error {
	st, err := s.Store(alias)
	if err != nil {
		return err
	}
	s.undetected = s.undetected[:0]
	for _, d := range s.devices.All() {
		if d.Mapped {
			continue
		}
		if m, ok := st.Lookup(d.Name); ok {
			d.SetMapping(m)
			s.log.Info().Str("device", d.String()).Str("db", alias).Msg("controller mapped")
			if s.events && s.hooks.OnControllerMapped != nil {
				s.hooks.OnControllerMapped(d)
			}
			continue
		}
		s.undetected = append(s.undetected, d)
		s.log.Warn().Str("device", d.String()).Str("db", alias).Msg("mapping not found")
		if s.events && s.hooks.OnMappingNotFound != nil {
			s.hooks.OnMappingNotFound(d)
		}
	}
	if s.events && s.hooks.OnDetectionFinished != nil {
		s.hooks.OnDetectionFinished()
	}
	return nil
}

// Undetected returns the devices the last Detect could not map.
func (s *Session) Undetected() []*device.Device {
	out := make([]*device.Device, len(s.undetected))
	copy(out, s.undetected)
	return out
}

// ConfigureUndetected runs the acquisition for every undetected device,
// reading raw events from src, and stores the results under alias. hooks
// are dropped when events are disabled.
func (s *Session) ConfigureUndetected(ctx context.Context, alias string, src acquire.Source, hooks acquire.Hooks) error {
	st, err := s.Store(alias)
	if err != nil {
		return err
	}
	if len(s.undetected) == 0 {
		return nil
	}
	if s.events && s.hooks.OnStartConfiguration != nil {
		s.hooks.OnStartConfiguration()
	}

	if !s.events {
		hooks = acquire.Hooks{}
	}
	opts := []acquire.Option{acquire.WithHooks(hooks), acquire.WithLogger(s.log)}
	if s.idle > 0 {
		opts = append(opts, acquire.WithIdle(s.idle))
	}
	if s.settle > 0 {
		opts = append(opts, acquire.WithSettle(s.settle))
	}
	dr := acquire.NewDriver(s.registry, st, src, opts...)
	if err := dr.ConfigureAll(ctx, s.undetected); err != nil {
		return err
	}
	s.undetected = s.undetected[:0]

	if s.events && s.hooks.OnConfigurationFinished != nil {
		s.hooks.OnConfigurationFinished()
	}
	return nil
}

// Resolver returns a resolver over the session's devices.
func (s *Session) Resolver(mode resolver.Mode) *resolver.Resolver {
	return resolver.New(s.registry, s.devices, mode, s.log)
}
