// Package room holds the relay's shared mutable state: the session registry of
// live display names and the in-memory room log. Neither type locks; the hub's
// event loop is the single writer and serializes all access.
package room

import "github.com/samber/lo"

// Registry indexes the display names of currently open participants. Names are
// kept in bind order so user-list broadcasts are deterministic.
type Registry struct {
	names []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// IsNameTaken reports whether a participant with that exact display name
// currently has an open connection.
func (r *Registry) IsNameTaken(name string) bool {
	return lo.Contains(r.names, name)
}

// Bind records a display name as live. Callers check IsNameTaken first; Bind
// never rejects.
func (r *Registry) Bind(name string) {
	r.names = append(r.names, name)
}

// Release removes a display name when its connection closes.
func (r *Registry) Release(name string) {
	r.names = lo.Without(r.names, name)
}

// Names returns a snapshot of live display names in bind order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len reports the number of live participants.
func (r *Registry) Len() int {
	return len(r.names)
}
