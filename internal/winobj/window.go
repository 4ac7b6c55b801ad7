// internal/winobj/window.go
package winobj

import (
	"sync"

	"github.com/OsbornePro/WinCore/internal/wm"
)

// Window is one live window object. Identity fields (handle, owning thread,
// native encoding, dialog flag) are fixed at creation; the mutable fields are
// guarded because the store may be read while another thread registers
// windows of its own.
type Window struct {
	hwnd    wm.HWND
	tid     uint32
	unicode bool
	dialog  bool
	dpi     DpiAwareness

	mu        sync.Mutex
	style     uint32
	exStyle   uint32
	proc      wm.ProcRef
	msgResult wm.LResult
	destroyed bool
}

func (w *Window) Handle() wm.HWND { return w.hwnd }

// ThreadID is the id of the thread that created the window.
func (w *Window) ThreadID() uint32 { return w.tid }

// IsUnicode reports the window's native encoding, recorded at creation.
func (w *Window) IsUnicode() bool { return w.unicode }

// IsDialog reports whether the window delivers results through the
// side-channel slot.
func (w *Window) IsDialog() bool { return w.dialog }

// DpiContext is the awareness context active during the window's callbacks.
func (w *Window) DpiContext() DpiAwareness { return w.dpi }

func (w *Window) Style() uint32 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.style
}

// SetStyle applies set and clear masks and returns the previous style.
func (w *Window) SetStyle(set, clear uint32) uint32 {
	w.mu.Lock()
	defer w.mu.Unlock()
	old := w.style
	w.style = (w.style | set) &^ clear
	return old
}

func (w *Window) ExStyle() uint32 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.exStyle
}

func (w *Window) Proc() wm.ProcRef {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.proc
}

// SetProc replaces the window procedure (subclassing) and returns the old ref.
func (w *Window) SetProc(p wm.ProcRef) wm.ProcRef {
	w.mu.Lock()
	defer w.mu.Unlock()
	old := w.proc
	w.proc = p
	return old
}

// MsgResult reads the dialog side-channel result slot.
func (w *Window) MsgResult() wm.LResult {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.msgResult
}

// SetMsgResult stores into the dialog side-channel result slot.
func (w *Window) SetMsgResult(r wm.LResult) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgResult = r
}

func (w *Window) markDestroyed() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.destroyed = true
}

// IsAlive reports whether the window has not been destroyed.
func (w *Window) IsAlive() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.destroyed
}
