package service

import "github.com/curatorapp/curator-server/internal/sse"

// EventEmitter receives change events after they have been committed.
// *sse.Manager implements it.
type EventEmitter interface {
	Emit(event sse.Event)
}

// NoopEmitter discards events. Used by the CLI, which has no listeners.
type NoopEmitter struct{}

// Emit implements EventEmitter.
func (NoopEmitter) Emit(sse.Event) {}
