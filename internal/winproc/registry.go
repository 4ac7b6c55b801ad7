// internal/winproc/registry.go
package winproc

import (
	"errors"
	"sync"

	"github.com/OsbornePro/WinCore/internal/wm"
)

// Registered handles carry a tag in the high word so they can never be
// mistaken for a raw callback reference.
const (
	procHandleTag  = 0xFFFF0000
	maxProcEntries = 8192
)

// ErrRegistryFull is the fatal registration failure: there is no fallback
// identity to hand back once the table is exhausted.
var ErrRegistryFull = errors.New("window procedure table full")

// Entry is one registered procedure: a narrow variant, a wide variant, or
// both. Legacy entries wrap a 16-bit-era procedure and are always narrow.
type Entry struct {
	ProcA  wm.WndProc
	ProcW  wm.WndProc
	Legacy bool
}

// Registry allocates opaque handles for window procedures. Growth is
// append-only; entries live for the process lifetime, so a small number of
// distinct procedures never makes the table large.
type Registry struct {
	mu      sync.RWMutex
	limit   int
	entries []*Entry
}

func NewRegistry() *Registry {
	return NewRegistrySized(maxProcEntries)
}

// NewRegistrySized caps the table at limit entries. A non-positive limit
// falls back to the default size.
func NewRegistrySized(limit int) *Registry {
	if limit <= 0 {
		limit = maxProcEntries
	}
	return &Registry{limit: limit}
}

func (r *Registry) alloc(e *Entry) (wm.ProcID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) >= r.limit {
		return 0, ErrRegistryFull
	}
	r.entries = append(r.entries, e)
	return wm.ProcID(procHandleTag | len(r.entries)), nil
}

// Alloc registers a procedure and returns its handle. Function values have no
// stable identity in Go, so every registration gets a fresh entry; equivalent
// behavior for the same function is all the callers rely on.
func (r *Registry) Alloc(fn wm.WndProc, unicode bool) (wm.ProcRef, error) {
	e := &Entry{}
	if unicode {
		e.ProcW = fn
	} else {
		e.ProcA = fn
	}
	id, err := r.alloc(e)
	if err != nil {
		return wm.ProcRef{}, err
	}
	return wm.ProcRef{ID: id, Fn: fn}, nil
}

// AllocPair registers a procedure reachable through both encodings.
func (r *Registry) AllocPair(procA, procW wm.WndProc) (wm.ProcRef, error) {
	id, err := r.alloc(&Entry{ProcA: procA, ProcW: procW})
	if err != nil {
		return wm.ProcRef{}, err
	}
	return wm.ProcRef{ID: id}, nil
}

// AllocLegacy registers a 16-bit-era wrapper procedure. It is always treated
// as narrow and dispatched through the runtime's legacy handler.
func (r *Registry) AllocLegacy(fn wm.WndProc) (wm.ProcRef, error) {
	id, err := r.alloc(&Entry{ProcA: fn, Legacy: true})
	if err != nil {
		return wm.ProcRef{}, err
	}
	return wm.ProcRef{ID: id, Fn: fn}, nil
}

// Resolve returns the entry for a ref, or nil when the ref was never
// allocated here. A nil result is not an error: the caller falls back to
// invoking the raw callable.
func (r *Registry) Resolve(ref wm.ProcRef) *Entry {
	if ref.ID&procHandleTag != procHandleTag {
		return nil
	}
	idx := int(ref.ID &^ procHandleTag)
	r.mu.RLock()
	defer r.mu.RUnlock()
	if idx < 1 || idx > len(r.entries) {
		return nil
	}
	return r.entries[idx-1]
}

// IsWide reports whether the registered procedure is the wide variant. An
// unregistered ref, or an entry carrying both variants, resolves to def.
func (r *Registry) IsWide(ref wm.ProcRef, def bool) bool {
	e := r.Resolve(ref)
	if e == nil {
		return def
	}
	if e.Legacy {
		return false
	}
	if e.ProcA != nil && e.ProcW != nil {
		return def
	}
	return e.ProcW != nil
}

// GetProc returns a ref whose callable is the requested variant of a
// registered procedure, suitable for handing back to application code. An
// unresolvable ref, or an entry missing the requested variant, is returned
// unchanged.
func (r *Registry) GetProc(ref wm.ProcRef, unicode bool) wm.ProcRef {
	e := r.Resolve(ref)
	if e == nil || e.Legacy {
		return ref
	}
	if unicode {
		if e.ProcW != nil {
			return wm.ProcRef{ID: ref.ID, Fn: e.ProcW}
		}
	} else {
		if e.ProcA != nil {
			return wm.ProcRef{ID: ref.ID, Fn: e.ProcA}
		}
	}
	return ref
}

// Count returns the number of allocated entries.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
