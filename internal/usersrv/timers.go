// internal/usersrv/timers.go
//
// Client-side timer and input-state operations on top of the bridge. Timer
// callbacks never cross the wire: the callback is registered in the local
// proc table and only its handle ID travels as the timer payload.
package usersrv

import (
	"github.com/OsbornePro/WinCore/internal/winobj"
	"github.com/OsbornePro/WinCore/internal/winproc"
	"github.com/OsbornePro/WinCore/internal/wm"
)

// ThreadInfo is the decoded result of a thread input query.
type ThreadInfo struct {
	Flags uint32
	Input ThreadInput
}

// SetTimer registers or resets a periodic timer. Returns the timer ID, or 0
// on failure with the thread's last error set. For windowless timers the
// coordinator assigns the ID.
func SetTimer(c *Client, procs *winproc.Registry, th *winobj.Thread, hwnd wm.HWND, id uint64, timeout uint32, fn wm.WndProc) uint64 {
	return setTimer(c, procs, th, hwnd, id, timeout, fn, wm.WMTimer, TimerMinimum)
}

// SetSystemTimer is the caret-blink variant. It allows a lower rate floor and
// delivers WMSysTimer instead of WMTimer.
func SetSystemTimer(c *Client, procs *winproc.Registry, th *winobj.Thread, hwnd wm.HWND, id uint64, timeout uint32, fn wm.WndProc) uint64 {
	return setTimer(c, procs, th, hwnd, id, timeout, fn, wm.WMSysTimer, SysTimerMinimum)
}

func setTimer(c *Client, procs *winproc.Registry, th *winobj.Thread, hwnd wm.HWND, id uint64, timeout uint32, fn wm.WndProc, msg uint32, floor uint32) uint64 {
	if timeout < floor {
		timeout = floor
	} else if timeout > TimerMaximum {
		timeout = TimerMaximum
	}

	var payload uint64
	if fn != nil {
		ref, err := procs.Alloc(fn, true)
		if err != nil {
			th.SetLastError(wm.ErrorNotEnoughMemory)
			return 0
		}
		payload = uint64(ref.ID)
	}

	req := SetTimerReq{Win: hwnd, Msg: msg, ID: id, Rate: timeout, LParam: payload}
	var reply SetTimerReply
	status, err := c.Call(OpSetTimer, &req, &reply)
	if err != nil {
		th.SetLastError(wm.ErrorAccessDenied)
		return 0
	}
	if status != 0 {
		th.SetLastError(status)
		return 0
	}
	th.SetLastError(wm.ErrorSuccess)
	if reply.ID == 0 {
		// Window timers keep the caller's ID; report plain success.
		return 1
	}
	return reply.ID
}

// KillTimer cancels a WMTimer registration.
func KillTimer(c *Client, th *winobj.Thread, hwnd wm.HWND, id uint64) bool {
	return killTimer(c, th, hwnd, id, wm.WMTimer)
}

// KillSystemTimer cancels a WMSysTimer registration.
func KillSystemTimer(c *Client, th *winobj.Thread, hwnd wm.HWND, id uint64) bool {
	return killTimer(c, th, hwnd, id, wm.WMSysTimer)
}

func killTimer(c *Client, th *winobj.Thread, hwnd wm.HWND, id uint64, msg uint32) bool {
	req := KillTimerReq{Win: hwnd, Msg: msg, ID: id}
	status, err := c.Call(OpKillTimer, &req, nil)
	if err != nil {
		th.SetLastError(wm.ErrorAccessDenied)
		return false
	}
	if status != 0 {
		th.SetLastError(status)
		return false
	}
	return true
}

// GetGUIThreadInfo queries the input state of tid. The state flags are
// derived from which windows are set rather than stored by the coordinator.
func GetGUIThreadInfo(c *Client, th *winobj.Thread, tid uint32) (*ThreadInfo, bool) {
	req := GetThreadInputReq{TID: tid}
	var reply ThreadInput
	status, err := c.Call(OpGetThreadInput, &req, &reply)
	if err != nil {
		th.SetLastError(wm.ErrorAccessDenied)
		return nil, false
	}
	if status != 0 {
		th.SetLastError(status)
		return nil, false
	}

	info := &ThreadInfo{Input: reply}
	if reply.MenuOwner != 0 {
		info.Flags |= GUIInMenuMode
	}
	if reply.MoveSize != 0 {
		info.Flags |= GUIInMoveSize
	}
	if reply.Caret != 0 {
		info.Flags |= GUICaretBlinking
	}
	return info, true
}

// PublishThreadInput uploads th's current input state to the coordinator.
func PublishThreadInput(c *Client, th *winobj.Thread, input ThreadInput) bool {
	req := SetThreadInputReq{TID: th.ID(), Input: input}
	status, err := c.Call(OpSetThreadInput, &req, nil)
	return err == nil && status == 0
}
