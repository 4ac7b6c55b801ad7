// internal/winproc/internal_msg.go
package winproc

import (
	"github.com/OsbornePro/WinCore/internal/debug"
	"github.com/OsbornePro/WinCore/internal/winobj"
	"github.com/OsbornePro/WinCore/internal/wm"
)

// handleInternalMessage services the private message range without touching
// the window procedure. Identifiers in the driver sub-range go to the
// registered driver callback; anything else unknown is logged and ignored.
func (r *Runtime) handleInternalMessage(th *winobj.Thread, hwnd wm.HWND, msg uint32, wp wm.WParam, lp wm.LParam) wm.LResult {
	switch msg {
	case wm.SysDestroyWindow:
		if r.Store.Destroy(hwnd) {
			return 1
		}
		th.SetLastError(wm.ErrorInvalidWindowHandle)
		return 0

	case wm.SysSetStyle:
		win := r.Store.Get(hwnd)
		if win == nil {
			th.SetLastError(wm.ErrorInvalidWindowHandle)
			return 0
		}
		return wm.LResult(win.SetStyle(uint32(wp), uint32(lp.Val)))

	case wm.SysSetWindowLong:
		// Only the window-procedure slot is kept here; the rest of the
		// window words live with the object store's owner.
		win := r.Store.Get(hwnd)
		if win == nil {
			th.SetLastError(wm.ErrorInvalidWindowHandle)
			return 0
		}
		if ref, ok := lp.Obj.(wm.ProcRef); ok {
			old := win.SetProc(ref)
			return wm.LResult(old.ID)
		}
		th.SetLastError(wm.ErrorInvalidParameter)
		return 0

	case wm.SysUpdateWindowState:
		// State recomputation belongs to the excluded windowing layer; the
		// message is accepted so senders do not see an error.
		return 0

	default:
		if msg >= wm.SysFirstDriverMsg && msg <= wm.SysLastDriverMsg {
			if r.DriverProc != nil {
				return r.DriverProc(hwnd, msg, wp, lp)
			}
			return 0
		}
		debug.Fixmef(debug.ChanMsg, "unknown internal message %x", msg)
		return 0
	}
}
