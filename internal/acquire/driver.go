package acquire

import (
	"context"
	"time"

	"github.com/thornpw/steuer/internal/action"
	"github.com/thornpw/steuer/internal/device"
	"github.com/thornpw/steuer/internal/event"
	"github.com/thornpw/steuer/internal/logger"
	"github.com/thornpw/steuer/internal/mapping"
)

// Source is the device layer the driver reads raw events from.
type Source interface {
	// Poll returns the next queued event, ok is false when none is queued.
	Poll() (ev event.Event, ok bool)
	// Clear drops every queued event.
	Clear()
}

// Hooks are notifications for the user interface guiding the acquisition.
// Every field may be nil.
type Hooks struct {
	OnConfigurationInit     func(d *device.Device)
	OnRequestAction         func(d *device.Device, a *action.Action)
	OnEventMapped           func(d *device.Device, a *action.Action)
	OnEventAlreadyMapped    func(d *device.Device, a *action.Action)
	OnWait                  func(d *device.Device)
	OnConfigurationFinished func(d *device.Device)
}

const (
	defaultIdle   = 10 * time.Millisecond
	defaultSettle = 100 * time.Millisecond
)

// Driver runs acquisitions for devices one after the other.
type Driver struct {
	registry *action.Registry
	store    *mapping.Store
	source   Source
	hooks    Hooks
	log      *logger.Logger

	idle   time.Duration
	settle time.Duration
}

type Option func(*Driver)

func WithHooks(h Hooks) Option { return func(d *Driver) { d.hooks = h } }

func WithLogger(l *logger.Logger) Option { return func(d *Driver) { d.log = logger.OrNop(l) } }

// WithIdle sets how long to sleep when the source has nothing queued.
func WithIdle(t time.Duration) Option { return func(d *Driver) { d.idle = t } }

// WithSettle sets how long each debounce iteration lasts.
func WithSettle(t time.Duration) Option { return func(d *Driver) { d.settle = t } }

func NewDriver(registry *action.Registry, store *mapping.Store, source Source, opts ...Option) *Driver {
	d := &Driver{
		registry: registry,
		store:    store,
		source:   source,
		log:      logger.Nop(),
		idle:     defaultIdle,
		settle:   defaultSettle,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ConfigureAll configures every device without a mapping, sequentially. A
// model that got configured while an earlier device was acquired is taken
// from the store instead of being asked for again.
func (dr *Driver) ConfigureAll(ctx context.Context, devices []*device.Device) error {
	for _, d := range devices {
		if d.Mapped {
			continue
		}
		if m, ok := dr.store.Lookup(d.Name); ok {
			dr.log.Info().Str("device", d.String()).Msg("model already configured")
			d.SetMapping(m)
			continue
		}
		if err := dr.Configure(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

// Configure asks for every registered action on d, then stores the new
// mapping and assigns it to d. A persistence error is returned after the
// mapping was assigned.
func (dr *Driver) Configure(ctx context.Context, d *device.Device) error {
	dr.log.Info().Str("device", d.String()).Int("actions", dr.registry.Len()).Msg("configuration started")
	if dr.hooks.OnConfigurationInit != nil {
		dr.hooks.OnConfigurationInit(d)
	}

	m := mapping.New()
	for _, a := range dr.registry.Actions() {
		if err := dr.acquire(ctx, d, a, m); err != nil {
			return err
		}
	}

	d.Reset()
	d.SetMapping(m)
	err := dr.store.Upsert(d.Name, m)
	if dr.hooks.OnConfigurationFinished != nil {
		dr.hooks.OnConfigurationFinished(d)
	}
	dr.log.Info().Str("device", d.String()).Msg("configuration finished")
	return err
}

func (dr *Driver) acquire(ctx context.Context, d *device.Device, a *action.Action, m *mapping.Mapping) error {
	acq := New(a, d)
	if dr.hooks.OnRequestAction != nil {
		dr.hooks.OnRequestAction(d, a)
	}

	for acq.Status() != Configured {
		if err := ctx.Err(); err != nil {
			return err
		}
		switch acq.Status() {
		case TestingForDuplicate:
			table, key := acq.Key()
			if acq.Test(m) {
				dr.log.Debug().Str("device", d.String()).Str("action", a.Name).
					Str("table", table.String()).Str("key", key).Msg("action mapped")
				if dr.hooks.OnEventMapped != nil {
					dr.hooks.OnEventMapped(d, a)
				}
			} else {
				dr.log.Warn().Str("device", d.String()).Str("action", a.Name).
					Str("table", table.String()).Str("key", key).Msg("event already mapped")
				if dr.hooks.OnEventAlreadyMapped != nil {
					dr.hooks.OnEventAlreadyMapped(d, a)
				}
			}
		case Delayed:
			dr.source.Clear()
			if dr.hooks.OnWait != nil {
				dr.hooks.OnWait(d)
			}
			acq.Settle()
			if err := sleep(ctx, dr.settle); err != nil {
				return err
			}
		default:
			ev, ok := dr.source.Poll()
			if !ok {
				if err := sleep(ctx, dr.idle); err != nil {
					return err
				}
				continue
			}
			acq.Feed(ev)
		}
	}
	return nil
}

func sleep(ctx context.Context, t time.Duration) error {
	if t <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(t)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
