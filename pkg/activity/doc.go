// Package activity fans configuration lifecycle events out to audit hooks.
//
// The builder emits one config.store.loaded event per store in chain order
// followed by a single config.session.built event. Events carry the session
// id, store names, source names and current tags in Metadata. Hooks never
// see entry values.
//
// The usersink subpackage forwards events to a go-users ActivitySink.
package activity
