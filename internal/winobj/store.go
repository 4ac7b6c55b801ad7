// internal/winobj/store.go
package winobj

import (
	"sync"
	"sync/atomic"

	"github.com/OsbornePro/WinCore/internal/wm"
)

// Store owns every window object in the process, keyed by handle. Handles are
// never reused within a process lifetime.
type Store struct {
	mu       sync.RWMutex
	windows  map[wm.HWND]*Window
	nextHwnd uint32
	nextTID  uint32
}

func NewStore() *Store {
	return &Store{
		windows:  make(map[wm.HWND]*Window),
		nextHwnd: 0x00010000,
	}
}

// NewThread creates the execution state for one dispatch loop.
func (s *Store) NewThread() *Thread {
	return &Thread{
		id:    atomic.AddUint32(&s.nextTID, 1),
		store: s,
		dpi:   DpiUnaware,
	}
}

// WindowConfig describes a window at creation time.
type WindowConfig struct {
	Unicode bool
	Dialog  bool
	Style   uint32
	ExStyle uint32
	Proc    wm.ProcRef
	Dpi     DpiAwareness
}

// CreateWindow registers a new window owned by th.
func (s *Store) CreateWindow(th *Thread, cfg WindowConfig) *Window {
	dpi := cfg.Dpi
	if dpi == 0 {
		dpi = DpiUnaware
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextHwnd += 4
	w := &Window{
		hwnd:    wm.HWND(s.nextHwnd),
		tid:     th.ID(),
		unicode: cfg.Unicode,
		dialog:  cfg.Dialog,
		dpi:     dpi,
		style:   cfg.Style,
		exStyle: cfg.ExStyle,
		proc:    cfg.Proc,
	}
	s.windows[w.hwnd] = w
	return w
}

// Get resolves a handle to a live window, or nil.
func (s *Store) Get(hwnd wm.HWND) *Window {
	s.mu.RLock()
	w := s.windows[hwnd]
	s.mu.RUnlock()
	if w == nil || !w.IsAlive() {
		return nil
	}
	return w
}

// Destroy removes a window from the store. Returns false for an unknown or
// already-destroyed handle.
func (s *Store) Destroy(hwnd wm.HWND) bool {
	s.mu.Lock()
	w := s.windows[hwnd]
	delete(s.windows, hwnd)
	s.mu.Unlock()
	if w == nil || !w.IsAlive() {
		return false
	}
	w.markDestroyed()
	return true
}

// Count returns the number of live windows.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.windows)
}
