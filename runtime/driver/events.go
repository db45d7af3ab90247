package driver

import (
	"context"
	"fmt"

	"github.com/satishbabariya/dbal/internal/debug"
)

type EventName string

const (
	EventConnected    EventName = "connected"
	EventDisconnected EventName = "disconnected"
)

// Event describes a change in a Driver's connection.
type Event struct {
	Name    EventName
	Adapter string
	Driver  *Driver
}

// Dispatcher receives connection events.
type Dispatcher interface {
	Dispatch(ctx context.Context, e Event) error
}

type DispatcherFunc func(ctx context.Context, e Event) error

func (f DispatcherFunc) Dispatch(ctx context.Context, e Event) error { return f(ctx, e) }

// dispatch notifies the dispatcher. Its errors and panics are logged and
// never reach the caller.
func (d *Driver) dispatch(ctx context.Context, name EventName) {
	if d.opts.Dispatcher == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			debug.Warn("event dispatcher panicked", "event", name, "panic", fmt.Sprint(r))
		}
	}()
	if err := d.opts.Dispatcher.Dispatch(ctx, Event{Name: name, Adapter: d.adapter.Name, Driver: d}); err != nil {
		debug.Warn("event dispatcher failed", "event", name, "error", err)
	}
}
