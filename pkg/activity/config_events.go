package activity

import (
	"strings"
	"time"
)

const (
	// VerbStoreLoaded is emitted once per store when a session is built.
	VerbStoreLoaded = "config.store.loaded"
	// VerbSessionBuilt is emitted after every store of a session is loaded.
	VerbSessionBuilt = "config.session.built"

	objectTypeStore   = "config.store"
	objectTypeSession = "config.session"
)

// Identity carries the optional actor fields shared by config events.
type Identity struct {
	ActorID  string
	UserID   string
	TenantID string
}

// StoreEventInput describes a store that joined a session chain.
type StoreEventInput struct {
	Identity
	SessionID  string
	Store      string
	Position   int
	Sources    []string
	Entries    int
	Tags       []string
	Channel    string
	Metadata   map[string]any
	OccurredAt time.Time
}

// SessionEventInput describes a finished configuration session.
type SessionEventInput struct {
	Identity
	SessionID  string
	Stores     []string
	Tags       []string
	Channel    string
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildStoreLoadedEvent constructs the event for one loaded store. The object
// id is "<session>/<store>" so sinks can group stores per session.
func BuildStoreLoadedEvent(input StoreEventInput) Event {
	metadata := ensureMetadata(cloneMap(input.Metadata))
	metadata["store"] = strings.TrimSpace(input.Store)
	metadata["position"] = input.Position
	metadata["entries"] = input.Entries
	if len(input.Sources) > 0 {
		metadata["sources"] = append([]string{}, input.Sources...)
	}
	addTags(metadata, input.Tags)

	objectID := strings.TrimSpace(input.Store)
	if session := strings.TrimSpace(input.SessionID); session != "" {
		metadata["session_id"] = session
		objectID = session + "/" + objectID
	}
	return buildEvent(VerbStoreLoaded, objectTypeStore, objectID, input.Identity, input.Channel, metadata, input.OccurredAt)
}

// BuildSessionBuiltEvent constructs the event for a finished session.
func BuildSessionBuiltEvent(input SessionEventInput) Event {
	metadata := ensureMetadata(cloneMap(input.Metadata))
	metadata["stores"] = append([]string{}, input.Stores...)
	addTags(metadata, input.Tags)
	return buildEvent(VerbSessionBuilt, objectTypeSession, strings.TrimSpace(input.SessionID), input.Identity, input.Channel, metadata, input.OccurredAt)
}

func buildEvent(verb, objectType, objectID string, identity Identity, channel string, metadata map[string]any, at time.Time) Event {
	if objectID == "" {
		objectID = objectType
	}
	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(identity.ActorID),
		UserID:     strings.TrimSpace(identity.UserID),
		TenantID:   strings.TrimSpace(identity.TenantID),
		ObjectType: objectType,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(channel),
		Metadata:   metadata,
		OccurredAt: at,
	}
}

func addTags(metadata map[string]any, tags []string) {
	if len(tags) == 0 {
		metadata["tags"] = []string{}
		return
	}
	metadata["tags"] = append([]string{}, tags...)
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
