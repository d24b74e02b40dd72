package activity

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNormalizeEventTrimsClonesAndDefaults(t *testing.T) {
	meta := map[string]any{"k": "v"}
	recipients := []string{" a ", "b "}
	evt := Event{
		Verb:           " create ",
		ActorID:        " actor ",
		UserID:         " user ",
		TenantID:       " tenant ",
		ObjectType:     " config.store ",
		ObjectID:       " 42 ",
		Channel:        " config ",
		DefinitionCode: " def ",
		Recipients:     recipients,
		Metadata:       meta,
	}

	got := NormalizeEvent(evt)

	if got.Verb != "create" || got.ObjectType != "config.store" || got.ObjectID != "42" {
		t.Fatalf("unexpected normalized fields: %+v", got)
	}
	if got.ActorID != "actor" || got.UserID != "user" || got.TenantID != "tenant" || got.Channel != "config" || got.DefinitionCode != "def" {
		t.Fatalf("unexpected trimming: %+v", got)
	}
	if got.OccurredAt.IsZero() {
		t.Fatalf("expected OccurredAt to be set")
	}
	if got.Metadata["k"] != "v" {
		t.Fatalf("expected metadata value preserved: %+v", got.Metadata)
	}
	got.Metadata["k"] = "changed"
	if evt.Metadata["k"] != "v" {
		t.Fatalf("expected original metadata untouched: %+v", evt.Metadata)
	}
	got.Recipients[0] = "changed"
	if recipients[0] != " a " {
		t.Fatalf("expected original recipients untouched: %+v", recipients)
	}
}

func TestHooksNotifyShortCircuitsMissingRequired(t *testing.T) {
	hooks := Hooks{&CaptureHook{}}
	err := hooks.Notify(context.Background(), Event{})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	capture := hooks[0].(*CaptureHook)
	if len(capture.Events) != 0 {
		t.Fatalf("expected no events captured, got %d", len(capture.Events))
	}
}

var (
	errBoom1 = errors.New("boom1")
	errBoom2 = errors.New("boom2")
)

func TestHooksNotifyFanOutAndJoinErrors(t *testing.T) {
	capture := &CaptureHook{}
	var ctxSeen bool
	hooks := Hooks{
		HookFunc(func(ctx context.Context, event Event) error {
			if ctx != nil {
				ctxSeen = true
			}
			return nil
		}),
		capture,
		HookFunc(func(_ context.Context, _ Event) error { return errBoom1 }),
		nil,
		HookFunc(func(_ context.Context, _ Event) error { return errBoom2 }),
	}

	err := hooks.Notify(nil, Event{Verb: VerbSessionBuilt, ObjectType: "config.session", ObjectID: "1"})
	if err == nil || !errors.Is(err, errBoom1) || !errors.Is(err, errBoom2) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if !ctxSeen {
		t.Fatalf("expected context fallback to be non-nil")
	}
	if len(capture.Events) != 1 {
		t.Fatalf("expected event to be captured once, got %d", len(capture.Events))
	}
}

func TestEmitterDisabledAndEnabled(t *testing.T) {
	capture := &CaptureHook{}

	disabled := NewEmitter(Hooks{capture}, Config{Enabled: false})
	if disabled.Enabled() {
		t.Fatalf("expected emitter to be disabled")
	}
	if err := disabled.Emit(context.Background(), Event{Verb: VerbStoreLoaded, ObjectType: "config.store", ObjectID: "1"}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(capture.Events) != 0 {
		t.Fatalf("expected no events captured when disabled")
	}

	enabled := NewEmitter(Hooks{capture}, Config{Enabled: true, Channel: ""})
	if !enabled.Enabled() {
		t.Fatalf("expected emitter to be enabled")
	}
	if err := enabled.Emit(context.Background(), Event{Verb: VerbStoreLoaded, ObjectType: "config.store", ObjectID: "1"}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if len(capture.Events) != 1 {
		t.Fatalf("expected one event captured, got %d", len(capture.Events))
	}
	if capture.Events[0].Channel != DefaultChannel {
		t.Fatalf("expected default channel applied, got %q", capture.Events[0].Channel)
	}
}

func TestEmitterPreservesExplicitChannel(t *testing.T) {
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{capture}, Config{Enabled: true, Channel: "default"})

	err := emitter.Emit(context.Background(), Event{
		Verb:       VerbStoreLoaded,
		ObjectType: "config.store",
		ObjectID:   "1",
		Channel:    "custom",
		OccurredAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if capture.Events[0].Channel != "custom" {
		t.Fatalf("expected explicit channel preserved, got %q", capture.Events[0].Channel)
	}
	if capture.Events[0].OccurredAt != (time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected occurred_at preserved, got %v", capture.Events[0].OccurredAt)
	}
}

func TestNormalizeEventCopiesStringSliceMetadata(t *testing.T) {
	stores := []string{"properties", "system-properties"}
	got := NormalizeEvent(Event{Metadata: map[string]any{"stores": stores}})
	copied := got.Metadata["stores"].([]string)
	copied[0] = "changed"
	if stores[0] != "properties" {
		t.Fatalf("expected metadata slice to be copied, original is %v", stores)
	}
}

func TestCaptureHookHelpers(t *testing.T) {
	capture := &CaptureHook{}
	hooks := Hooks{capture}
	ctx := context.Background()
	_ = hooks.Notify(ctx, Event{Verb: VerbStoreLoaded, ObjectType: "config.store", ObjectID: "s/a"})
	_ = hooks.Notify(ctx, Event{Verb: VerbStoreLoaded, ObjectType: "config.store", ObjectID: "s/b"})
	_ = hooks.Notify(ctx, Event{Verb: VerbSessionBuilt, ObjectType: "config.session", ObjectID: "s"})

	verbs := capture.Verbs()
	if len(verbs) != 3 || verbs[2] != VerbSessionBuilt {
		t.Fatalf("unexpected verbs %v", verbs)
	}
	if loaded := capture.ByVerb(VerbStoreLoaded); len(loaded) != 2 || loaded[1].ObjectID != "s/b" {
		t.Fatalf("unexpected store events %+v", loaded)
	}
	capture.Reset()
	if len(capture.Verbs()) != 0 {
		t.Fatalf("expected reset to drop events")
	}
}

func TestEmitterStampsIdentityOnAnonymousEvents(t *testing.T) {
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{capture}, Config{
		Enabled:  true,
		Identity: Identity{ActorID: "svc", TenantID: "acme"},
	})
	ctx := context.Background()

	if err := emitter.Emit(ctx, Event{Verb: VerbSessionBuilt, ObjectType: "config.session", ObjectID: "s1"}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if err := emitter.Emit(ctx, Event{Verb: VerbSessionBuilt, ObjectType: "config.session", ObjectID: "s2", UserID: "alice"}); err != nil {
		t.Fatalf("emit: %v", err)
	}

	if got := capture.Events[0]; got.ActorID != "svc" || got.TenantID != "acme" {
		t.Fatalf("expected identity defaults, got actor=%q tenant=%q", got.ActorID, got.TenantID)
	}
	if got := capture.Events[1]; got.ActorID != "" || got.UserID != "alice" {
		t.Fatalf("explicit identity should be kept, got actor=%q user=%q", got.ActorID, got.UserID)
	}
}

func TestEmitterEmitAllJoinsFailures(t *testing.T) {
	capture := &CaptureHook{}
	failing := HookFunc(func(_ context.Context, event Event) error {
		if event.ObjectID == "bad" {
			return errors.New("sink rejected " + event.ObjectID)
		}
		return nil
	})
	emitter := NewEmitter(Hooks{failing, capture}, Config{Enabled: true})

	err := emitter.EmitAll(context.Background(),
		Event{Verb: VerbStoreLoaded, ObjectType: "config.store", ObjectID: "bad"},
		Event{Verb: VerbStoreLoaded, ObjectType: "config.store", ObjectID: "good"},
	)
	if err == nil || err.Error() != "sink rejected bad" {
		t.Fatalf("expected joined failure, got %v", err)
	}
	if len(capture.Events) != 2 {
		t.Fatalf("expected every event delivered, got %d", len(capture.Events))
	}

	if err := NewEmitter(Hooks{failing}, Config{}).EmitAll(context.Background(), Event{ObjectID: "bad"}); err != nil {
		t.Fatalf("disabled emitter should not emit, got %v", err)
	}
}
