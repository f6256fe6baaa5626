package lifecycle

import (
	"fmt"

	"github.com/vesper-lang/vesper/internal/types"
)

// regKey keys the registry by nominal type identity and operation
// kind, so every spelling of the same logical type hits one slot.
type regKey struct {
	typ types.TypeID
	op  OpKind
}

// Registry holds at most one bound operation entry per (nominal type,
// operation kind). The binder populates it during declaration
// processing; after Freeze it is read-only, which is what makes
// resolver memoization and cross-unit parallelism sound.
type Registry struct {
	entries map[regKey]*BoundOperationEntry
	frozen  bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[regKey]*BoundOperationEntry)}
}

// Lookup returns the bound entry for (t, op), if any.
func (r *Registry) Lookup(t *types.Type, op OpKind) (*BoundOperationEntry, bool) {
	e, ok := r.entries[regKey{typ: t.ID, op: op}]
	return e, ok
}

// Bind inserts an entry. It is the binder's job to have validated the
// declaration and reported duplicates; Bind refuses them defensively.
func (r *Registry) Bind(e *BoundOperationEntry) error {
	if r.frozen {
		return fmt.Errorf("registry is frozen; cannot bind %s for %s", e.Op, e.Receiver)
	}
	key := regKey{typ: e.Receiver.ID, op: e.Op}
	if _, exists := r.entries[key]; exists {
		return fmt.Errorf("entry already bound for (%s, %s)", e.Receiver, e.Op)
	}
	r.entries[key] = e
	return nil
}

// Freeze marks the end of the binder phase. Resolver queries against
// types of this unit are only valid afterwards.
func (r *Registry) Freeze() { r.frozen = true }

// Frozen reports whether the binder phase has completed.
func (r *Registry) Frozen() bool { return r.frozen }

// Len returns the number of bound entries.
func (r *Registry) Len() int { return len(r.entries) }
