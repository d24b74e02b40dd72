package tagconfig

import (
	"sort"
	"time"
)

// ConfigSnapshot is the resolved and interpolated key space of a session, as
// handed to rule evaluators. Keys keep their configuration spelling; engines
// bind them through RuleIdentifier.
type ConfigSnapshot map[string]string

// reservedRuleNames are bound by every engine. Configuration keys mapping to
// one of them are reachable only through config["key"].
var reservedRuleNames = map[string]struct{}{
	"now":         {},
	"args":        {},
	"metadata":    {},
	"tags":        {},
	"call":        {},
	RuleConfigKey: {},
}

// ruleEnv is the set of bindings one engine exposes for a single evaluation.
type ruleEnv struct {
	now      time.Time
	args     map[string]any
	metadata map[string]any
	tags     []string
	vars     map[string]any
}

// newRuleEnv maps ctx.Snapshot onto engine identifiers. keywords holds the
// names the engine's grammar claims for itself. A key whose identifier is
// reserved, a keyword, a registered function or already taken by an earlier
// key in sorted order is not bound.
func newRuleEnv(ctx RuleContext, registry *FunctionRegistry, keywords map[string]struct{}) ruleEnv {
	ctx = ctx.withDefaults()
	env := ruleEnv{
		now:      ctx.timestamp(),
		args:     ctx.Args,
		metadata: ctx.Metadata,
		tags:     append([]string{}, ctx.Tags...),
		vars:     map[string]any{},
	}
	claimed := func(ident string) bool {
		if ident == "" {
			return true
		}
		if _, ok := reservedRuleNames[ident]; ok {
			return true
		}
		if _, ok := keywords[ident]; ok {
			return true
		}
		if registry.Has(ident) {
			return true
		}
		_, ok := env.vars[ident]
		return ok
	}

	switch snapshot := ctx.Snapshot.(type) {
	case ConfigSnapshot:
		env.bindConfig(snapshot, claimed)
	case map[string]string:
		env.bindConfig(snapshot, claimed)
	case map[string]any:
		for _, key := range sortedKeys(snapshot) {
			ident := RuleIdentifier(key)
			if ident == RuleConfigKey {
				if _, taken := env.vars[ident]; !taken {
					env.vars[ident] = snapshot[key]
					continue
				}
			}
			if !claimed(ident) {
				env.vars[ident] = snapshot[key]
			}
		}
	}
	return env
}

func (env *ruleEnv) bindConfig(values map[string]string, claimed func(string) bool) {
	raw := make(map[string]any, len(values))
	for _, key := range sortedKeys(values) {
		raw[key] = values[key]
		ident := RuleIdentifier(key)
		if !claimed(ident) {
			env.vars[ident] = values[key]
		}
	}
	env.vars[RuleConfigKey] = raw
}

// names returns the bound key identifiers, sorted.
func (env ruleEnv) names() []string {
	return sortedKeys(env.vars)
}

// bindings flattens the environment into a single variable map. tags is
// passed in the shape the engine wants for list membership.
func (env ruleEnv) bindings(tags any) map[string]any {
	out := make(map[string]any, len(env.vars)+4)
	for name, value := range env.vars {
		out[name] = value
	}
	out["now"] = env.now
	out["args"] = env.args
	out["metadata"] = env.metadata
	out["tags"] = tags
	return out
}

func (env ruleEnv) tagList() []any {
	out := make([]any, len(env.tags))
	for i, tag := range env.tags {
		out[i] = tag
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func keywordSet(words ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(words))
	for _, word := range words {
		out[word] = struct{}{}
	}
	return out
}
