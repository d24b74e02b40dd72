package activity

import (
	"context"
	"errors"
	"strings"
)

// DefaultChannel is applied to events emitted without a channel.
const DefaultChannel = "config"

// Config holds the emission defaults a configuration builder applies.
// Identity fills the actor fields of events that carry none.
type Config struct {
	Enabled  bool
	Channel  string
	Identity Identity
}

// Emitter stamps defaults onto events and hands them to hooks.
type Emitter struct {
	hooks    Hooks
	channel  string
	identity Identity
}

// NewEmitter drops nil hooks from hooks. The returned emitter is disabled
// when cfg.Enabled is false or no hook is left.
func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	e := &Emitter{
		channel:  strings.TrimSpace(cfg.Channel),
		identity: cfg.Identity,
	}
	if e.channel == "" {
		e.channel = DefaultChannel
	}
	if !cfg.Enabled {
		return e
	}
	for _, hook := range hooks {
		if hook != nil {
			e.hooks = append(e.hooks, hook)
		}
	}
	return e
}

// Enabled reports whether Emit reaches any hook.
func (e *Emitter) Enabled() bool {
	return e != nil && len(e.hooks) > 0
}

// Emit applies the channel and identity defaults and notifies every hook.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if !e.Enabled() {
		return nil
	}
	if strings.TrimSpace(event.Channel) == "" {
		event.Channel = e.channel
	}
	if event.ActorID == "" && event.UserID == "" && event.TenantID == "" {
		event.ActorID = e.identity.ActorID
		event.UserID = e.identity.UserID
		event.TenantID = e.identity.TenantID
	}
	return e.hooks.Notify(ctx, event)
}

// EmitAll emits events in order. A failing event does not stop the rest; the
// failures are joined.
func (e *Emitter) EmitAll(ctx context.Context, events ...Event) error {
	if !e.Enabled() {
		return nil
	}
	var errs []error
	for _, event := range events {
		if err := e.Emit(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
