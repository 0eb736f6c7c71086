// Package presence tracks which identity label, if any, each live
// connection has claimed. The registry is the authoritative source for
// the online-label set; entries are added and removed synchronously
// with session lifecycle events, so it never holds stale connections.
package presence

import (
	"sort"
	"sync"

	"github.com/samber/lo"
)

// Registry maps connection IDs to claimed identity labels under a
// read-write mutex. A connection with no entry is unclaimed. Several
// connections may claim the same label (multiple devices); duplicates
// are kept, not collapsed.
type Registry struct {
	mu     sync.RWMutex
	labels map[string]string
}

func NewRegistry() *Registry {
	return &Registry{labels: make(map[string]string)}
}

// Claim binds label to connID, replacing any previous binding for that
// connection. It returns the previous label and whether one existed.
func (r *Registry) Claim(connID, label string) (prev string, replaced bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, replaced = r.labels[connID]
	r.labels[connID] = label
	return prev, replaced
}

// Release removes the binding for connID. It returns the label that
// was bound and whether the connection had claimed one.
func (r *Registry) Release(connID string) (label string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	label, ok = r.labels[connID]
	delete(r.labels, connID)
	return label, ok
}

// Label returns the claimed label for connID.
func (r *Registry) Label(connID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	label, ok := r.labels[connID]
	return label, ok
}

// LiveCount reports how many live connections currently claim label.
func (r *Registry) LiveCount(label string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, l := range r.labels {
		if l == label {
			n++
		}
	}
	return n
}

// OnlineLabels returns every claimed label, duplicates included,
// sorted so repeated broadcasts of the same state are identical.
func (r *Registry) OnlineLabels() []string {
	r.mu.RLock()
	labels := lo.Values(r.labels)
	r.mu.RUnlock()

	sort.Strings(labels)
	return labels
}

// Len reports the number of claimed connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.labels)
}
