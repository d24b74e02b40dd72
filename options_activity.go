package tagconfig

import "github.com/goliatone/go-tagconfig/pkg/activity"

// WithActivityHooks attaches activity hooks notified when a session is built.
// Hooks are cloned and nil entries dropped to preserve immutability.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := cloneActivityHooks(hooks)
	return func(cfg *settings) {
		cfg.activityHooks = normalized
	}
}

// WithActivityConfig overrides the emitter defaults: whether events are
// emitted, the channel and the identity stamped on them.
func WithActivityConfig(config activity.Config) Option {
	return func(cfg *settings) {
		cfg.activityConfig = config
	}
}

// ActivityHooks returns a cloned slice of the hooks configured on the
// builder. The returned slice can be safely mutated by the caller.
func (b *Builder) ActivityHooks() activity.Hooks {
	if b == nil {
		return nil
	}
	return cloneActivityHooks(b.cfg.activityHooks)
}

func cloneActivityHooks(hooks activity.Hooks) activity.Hooks {
	if len(hooks) == 0 {
		return nil
	}
	normalized := make([]activity.ActivityHook, 0, len(hooks))
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		normalized = append(normalized, hook)
	}
	if len(normalized) == 0 {
		return nil
	}
	return activity.Hooks(normalized)
}
