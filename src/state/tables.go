// Package state holds the process-lifetime tables shared between the session
// loop and the tool handlers, keyed by session ID. Access is effectively
// confined to one sequential loop per session, but the maps are mutex-guarded
// so loops for different sessions may run concurrently.
package state

import (
	"context"
	"sync"
)

type sessionIDKey struct{}

// WithSessionID returns a context carrying the session identifier for tool
// execution.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey{}, sessionID)
}

// SessionIDFrom extracts the session identifier set by WithSessionID.
func SessionIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDKey{}).(string)
	return id
}

// ReadTracker records which absolute file paths each session has read. It is
// the safety gate consulted by the write and edit tools: overwriting or
// editing a file the session never read is rejected. Not persisted; reset on
// process restart.
type ReadTracker struct {
	mu   sync.Mutex
	read map[string]map[string]struct{} // sessionID -> path set
}

// NewReadTracker creates an empty tracker.
func NewReadTracker() *ReadTracker {
	return &ReadTracker{read: make(map[string]map[string]struct{})}
}

// MarkRead records that the session has read the given absolute path.
func (t *ReadTracker) MarkRead(sessionID, path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	paths, ok := t.read[sessionID]
	if !ok {
		paths = make(map[string]struct{})
		t.read[sessionID] = paths
	}
	paths[path] = struct{}{}
}

// WasRead reports whether the session has read the given absolute path.
func (t *ReadTracker) WasRead(sessionID, path string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.read[sessionID][path]
	return ok
}

// WorkDirTable tracks the last-known shell working directory per session,
// giving bash calls working-directory continuity across a conversation.
type WorkDirTable struct {
	mu   sync.Mutex
	dirs map[string]string
}

// NewWorkDirTable creates an empty table.
func NewWorkDirTable() *WorkDirTable {
	return &WorkDirTable{dirs: make(map[string]string)}
}

// Get returns the session's working directory, or "" if none is recorded.
func (t *WorkDirTable) Get(sessionID string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dirs[sessionID]
}

// Set records the session's working directory.
func (t *WorkDirTable) Set(sessionID, dir string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dirs[sessionID] = dir
}

// CancelRegistry holds one cancellable context per running session loop. The
// presence of an entry is the loop's sole liveness signal: interruption
// cancels the context and removes the entry, and the loop stops at its next
// checkpoint when it finds the entry gone.
type CancelRegistry struct {
	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

// NewCancelRegistry creates an empty registry.
func NewCancelRegistry() *CancelRegistry {
	return &CancelRegistry{cancels: make(map[string]context.CancelFunc)}
}

// Register derives a cancellable context for the session and records its
// cancel handle, replacing any previous entry.
func (r *CancelRegistry) Register(ctx context.Context, sessionID string) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.cancels[sessionID]; ok {
		prev()
	}
	r.cancels[sessionID] = cancel
	return ctx
}

// Active reports whether the session still holds a registered handle.
func (r *CancelRegistry) Active(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.cancels[sessionID]
	return ok
}

// Interrupt cancels the session's context and removes its handle. It reports
// whether a handle was present.
func (r *CancelRegistry) Interrupt(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	cancel, ok := r.cancels[sessionID]
	if ok {
		cancel()
		delete(r.cancels, sessionID)
	}
	return ok
}

// Release removes the session's handle without treating it as an
// interruption. Called when a loop exits for any reason.
func (r *CancelRegistry) Release(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cancel, ok := r.cancels[sessionID]; ok {
		cancel()
		delete(r.cancels, sessionID)
	}
}
