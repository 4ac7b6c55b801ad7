package winproc

import (
	"errors"
	"testing"

	"github.com/OsbornePro/WinCore/internal/codepage"
	"github.com/OsbornePro/WinCore/internal/config"
	"github.com/OsbornePro/WinCore/internal/winobj"
	"github.com/OsbornePro/WinCore/internal/wm"
)

func TestNewFromSettings(t *testing.T) {
	s := config.Default()
	s.Locale.AnsiCodePage = uint32(codepage.ShiftJIS)
	s.Locale.InputCodePage = uint32(codepage.GBK)
	s.Limits.MaxProcEntries = 4

	r, err := NewFromSettings(winobj.NewStore(), s)
	if err != nil {
		t.Fatalf("NewFromSettings failed: %v", err)
	}
	if r.AnsiCP() != codepage.ShiftJIS {
		t.Fatalf("ansi code page = %d, want %d", r.AnsiCP(), codepage.ShiftJIS)
	}
	if r.InputCP() != codepage.GBK {
		t.Fatalf("input code page = %d, want %d", r.InputCP(), codepage.GBK)
	}

	// the configured table limit is enforced
	for i := 0; i < 4; i++ {
		if _, err := r.Procs.Alloc(nopProc, true); err != nil {
			t.Fatalf("Alloc %d failed early: %v", i, err)
		}
	}
	if _, err := r.Procs.Alloc(nopProc, true); !errors.Is(err, ErrRegistryFull) {
		t.Fatalf("expected ErrRegistryFull, got %v", err)
	}

	s.Locale.AnsiCodePage = 9999
	if _, err := NewFromSettings(winobj.NewStore(), s); err == nil {
		t.Fatal("unknown code page was accepted")
	}
}

func TestDispatchRecursionBound(t *testing.T) {
	r, th := newTestEnv(t)

	calls := 0
	var win *winobj.Window
	ref, err := r.Procs.Alloc(func(hwnd wm.HWND, msg uint32, wp wm.WParam, lp wm.LParam) wm.LResult {
		calls++
		r.CallWindow(th, win.Handle(), msg, wp, lp, true, MapSendMessage)
		return 0
	}, true)
	if err != nil {
		t.Fatalf("Alloc failed: %v", err)
	}
	win = r.Store.CreateWindow(th, winobj.WindowConfig{Unicode: true, Proc: ref})

	if _, ok := r.CallWindow(th, win.Handle(), wm.WMNull, 0, wm.LParamVal(0), true, MapSendMessage); !ok {
		t.Fatal("outermost dispatch rejected")
	}
	if calls != MaxDispatchRecursion {
		t.Fatalf("procedure ran %d times, want %d", calls, MaxDispatchRecursion)
	}
	if th.DispatchDepth() != 0 {
		t.Fatalf("depth = %d after unwinding", th.DispatchDepth())
	}
}

func TestDispatchThreadAffinity(t *testing.T) {
	r, th := newTestEnv(t)
	other := r.Store.NewThread()

	called := false
	win := makeWindow(t, r, th, winobj.WindowConfig{}, true,
		func(hwnd wm.HWND, msg uint32, wp wm.WParam, lp wm.LParam) wm.LResult {
			called = true
			return 0
		})

	if _, ok := r.CallWindow(other, win.Handle(), wm.WMNull, 0, wm.LParamVal(0), true, MapSendMessage); ok {
		t.Fatal("cross-thread dispatch was accepted")
	}
	if called {
		t.Fatal("procedure ran on the wrong thread")
	}
	if other.LastError() != wm.ErrorInvalidThreadID {
		t.Fatalf("last error = %d, want %d", other.LastError(), wm.ErrorInvalidThreadID)
	}
}

func TestDispatchDeadHandle(t *testing.T) {
	r, th := newTestEnv(t)

	win := makeWindow(t, r, th, winobj.WindowConfig{}, true, nopProc)
	hwnd := win.Handle()
	if !r.Store.Destroy(hwnd) {
		t.Fatal("Destroy failed")
	}

	if _, ok := r.CallWindow(th, hwnd, wm.WMNull, 0, wm.LParamVal(0), true, MapSendMessage); ok {
		t.Fatal("dispatch to a destroyed window was accepted")
	}
	if th.LastError() != wm.ErrorInvalidWindowHandle {
		t.Fatalf("last error = %d, want %d", th.LastError(), wm.ErrorInvalidWindowHandle)
	}
}

func TestDispatchUnsetProcedure(t *testing.T) {
	r, th := newTestEnv(t)

	// a window created without a procedure is dispatchable but never handled
	win := r.Store.CreateWindow(th, winobj.WindowConfig{Unicode: true})
	ret, ok := r.CallWindow(th, win.Handle(), wm.WMNull, 0, wm.LParamVal(0), true, MapSendMessage)
	if ok || ret != 0 {
		t.Fatalf("CallWindow = (%d, %v), want rejected", ret, ok)
	}
	if th.LastError() != wm.ErrorInvalidFunction {
		t.Fatalf("last error = %d, want %d", th.LastError(), wm.ErrorInvalidFunction)
	}
}

func TestCallProcUnresolvableRef(t *testing.T) {
	r, th := newTestEnv(t)

	// nonzero handle that was never allocated, no raw callable to fall back to
	ref := wm.ProcRef{ID: wm.ProcID(procHandleTag | 7)}
	if ret := r.CallWindowProcA(th, ref, 0, wm.WMNull, 0, wm.LParam{}); ret != 0 {
		t.Fatalf("CallWindowProcA = %d, want 0", ret)
	}
	if th.LastError() != wm.ErrorInvalidFunction {
		t.Fatalf("last error = %d, want %d", th.LastError(), wm.ErrorInvalidFunction)
	}

	th.SetLastError(wm.ErrorSuccess)
	if ret := r.CallWindowProcW(th, ref, 0, wm.WMNull, 0, wm.LParam{}); ret != 0 {
		t.Fatalf("CallWindowProcW = %d, want 0", ret)
	}
	if th.LastError() != wm.ErrorInvalidFunction {
		t.Fatalf("last error = %d, want %d", th.LastError(), wm.ErrorInvalidFunction)
	}

	th.SetLastError(wm.ErrorSuccess)
	if ret := r.CallDlgProcW(th, ref, 0, wm.WMNull, 0, wm.LParamVal(0)); ret != 0 {
		t.Fatalf("CallDlgProcW = %d, want 0", ret)
	}
	if th.LastError() != wm.ErrorInvalidFunction {
		t.Fatalf("last error = %d, want %d", th.LastError(), wm.ErrorInvalidFunction)
	}
}

func TestDispatchDpiContextRestored(t *testing.T) {
	r, th := newTestEnv(t)

	var seen winobj.DpiAwareness
	win := makeWindow(t, r, th, winobj.WindowConfig{Dpi: winobj.DpiPerMonitorAware}, true,
		func(hwnd wm.HWND, msg uint32, wp wm.WParam, lp wm.LParam) wm.LResult {
			seen = th.DpiContext()
			return 0
		})

	th.SetDpiContext(winobj.DpiSystemAware)
	if _, ok := r.CallWindow(th, win.Handle(), wm.WMNull, 0, wm.LParamVal(0), true, MapSendMessage); !ok {
		t.Fatal("CallWindow rejected")
	}
	if seen != winobj.DpiPerMonitorAware {
		t.Fatalf("procedure ran under context %d, want %d", seen, winobj.DpiPerMonitorAware)
	}
	if th.DpiContext() != winobj.DpiSystemAware {
		t.Fatalf("caller context = %d, not restored", th.DpiContext())
	}
}

func TestCallWindowProcVariants(t *testing.T) {
	r, th := newTestEnv(t)

	var got any
	ref, err := r.Procs.Alloc(func(hwnd wm.HWND, msg uint32, wp wm.WParam, lp wm.LParam) wm.LResult {
		got = lp.Obj
		return 3
	}, true)
	if err != nil {
		t.Fatalf("Alloc failed: %v", err)
	}

	// narrow caller into a wide-only registration converts
	ret := r.CallWindowProcA(th, ref, 0, wm.WMSetText, 0, wm.LParamObj(wm.AnsiString("abc")))
	if ret != 3 {
		t.Fatalf("CallWindowProcA = %d", ret)
	}
	if _, ok := got.(wm.WideString); !ok {
		t.Fatalf("expected WideString, got %T", got)
	}

	// wide caller matches the registration, no conversion
	ret = r.CallWindowProcW(th, ref, 0, wm.WMSetText, 0, wm.LParamObj(wm.WideString{'a'}))
	if ret != 3 {
		t.Fatalf("CallWindowProcW = %d", ret)
	}
	if _, ok := got.(wm.WideString); !ok {
		t.Fatalf("expected WideString, got %T", got)
	}

	if r.CallWindowProcA(th, wm.ProcRef{}, 0, wm.WMNull, 0, wm.LParam{}) != 0 {
		t.Fatal("zero ref must return 0")
	}
	if r.CallWindowProcW(th, wm.ProcRef{}, 0, wm.WMNull, 0, wm.LParam{}) != 0 {
		t.Fatal("zero ref must return 0")
	}
}

func TestCallWindowProcBareCallable(t *testing.T) {
	r, th := newTestEnv(t)

	called := false
	ref := wm.FromFunc(func(hwnd wm.HWND, msg uint32, wp wm.WParam, lp wm.LParam) wm.LResult {
		called = true
		return 9
	})
	if ret := r.CallWindowProcW(th, ref, 0, wm.WMNull, 0, wm.LParam{}); ret != 9 || !called {
		t.Fatalf("bare callable dispatch = %d (called=%v)", ret, called)
	}
}

func TestDialogResultSideChannel(t *testing.T) {
	r, th := newTestEnv(t)

	var win *winobj.Window
	ref, err := r.Procs.Alloc(func(hwnd wm.HWND, msg uint32, wp wm.WParam, lp wm.LParam) wm.LResult {
		win.SetMsgResult(42)
		return 1 // processed
	}, true)
	if err != nil {
		t.Fatalf("Alloc failed: %v", err)
	}
	win = r.Store.CreateWindow(th, winobj.WindowConfig{Unicode: true, Dialog: true, Proc: ref})

	ret := r.CallDlgProcW(th, ref, win.Handle(), wm.WMNull, 0, wm.LParamVal(0))
	if ret != 1 {
		t.Fatalf("processed flag = %d, want 1", ret)
	}
	if win.MsgResult() != 42 {
		t.Fatalf("message result = %d, want 42", win.MsgResult())
	}
}

func TestDialogDispatchConverts(t *testing.T) {
	r, th := newTestEnv(t)

	var got any
	ref, err := r.Procs.Alloc(func(hwnd wm.HWND, msg uint32, wp wm.WParam, lp wm.LParam) wm.LResult {
		got = lp.Obj
		return 1
	}, true)
	if err != nil {
		t.Fatalf("Alloc failed: %v", err)
	}
	win := r.Store.CreateWindow(th, winobj.WindowConfig{Unicode: true, Dialog: true, Proc: ref})

	// narrow caller, wide dialog: parameters convert on the way in
	if _, ok := r.CallWindow(th, win.Handle(), wm.WMSetText, 0,
		wm.LParamObj(wm.AnsiString("dlg")), false, MapSendMessage); !ok {
		t.Fatal("CallWindow rejected")
	}
	if _, isWide := got.(wm.WideString); !isWide {
		t.Fatalf("dialog saw %T, want WideString", got)
	}
}

func TestLegacyEntryRoutesThroughHandler(t *testing.T) {
	r, th := newTestEnv(t)

	handled := false
	r.Legacy.CallWindowProc = func(fn wm.WndProc, hwnd wm.HWND, msg uint32, wp wm.WParam, lp wm.LParam, result *wm.LResult) wm.LResult {
		handled = true
		ret := fn(hwnd, msg, wp, lp)
		*result = ret
		return ret
	}

	ref, err := r.Procs.AllocLegacy(func(hwnd wm.HWND, msg uint32, wp wm.WParam, lp wm.LParam) wm.LResult {
		if _, ok := lp.Obj.(wm.AnsiString); !ok {
			t.Fatalf("legacy procedure got %T, want AnsiString", lp.Obj)
		}
		return 5
	})
	if err != nil {
		t.Fatalf("AllocLegacy failed: %v", err)
	}

	// wide parameters are narrowed before a legacy entry runs
	ret := r.CallWindowProcW(th, ref, 0, wm.WMSetText, 0, wm.LParamObj(wm.WideString{'z'}))
	if ret != 5 || !handled {
		t.Fatalf("legacy dispatch = %d (handled=%v)", ret, handled)
	}
}

func TestMessageCallInternalRange(t *testing.T) {
	r, th := newTestEnv(t)

	called := false
	win := makeWindow(t, r, th, winobj.WindowConfig{Style: 0x10}, true,
		func(hwnd wm.HWND, msg uint32, wp wm.WParam, lp wm.LParam) wm.LResult {
			called = true
			return 0
		})
	hwnd := win.Handle()

	// style update bypasses the window procedure
	ret, ok := r.MessageCall(th, hwnd, wm.SysSetStyle, 0x01, wm.LParamVal(0x10), true)
	if !ok || called {
		t.Fatalf("SysSetStyle: ok=%v called=%v", ok, called)
	}
	if ret != 0x10 {
		t.Fatalf("old style = %#x, want 0x10", ret)
	}
	if win.Style() != 0x01 {
		t.Fatalf("style = %#x, want 0x01", win.Style())
	}

	// procedure swap returns the previous handle
	newRef, err := r.Procs.Alloc(nopProc, false)
	if err != nil {
		t.Fatalf("Alloc failed: %v", err)
	}
	ret, ok = r.MessageCall(th, hwnd, wm.SysSetWindowLong, 0, wm.LParamObj(newRef), true)
	if !ok {
		t.Fatal("SysSetWindowLong rejected")
	}
	if wm.ProcID(ret) == 0 || wm.ProcID(ret) == newRef.ID {
		t.Fatalf("old proc handle = %#x", ret)
	}
	if win.Proc().ID != newRef.ID {
		t.Fatal("procedure was not swapped")
	}

	// destroy drops the window from the store
	if ret, ok = r.MessageCall(th, hwnd, wm.SysDestroyWindow, 0, wm.LParamVal(0), true); !ok || ret != 1 {
		t.Fatalf("SysDestroyWindow = (%d, %v)", ret, ok)
	}
	if r.Store.Get(hwnd) != nil {
		t.Fatal("window survived SysDestroyWindow")
	}
	if ret, _ = r.MessageCall(th, hwnd, wm.SysDestroyWindow, 0, wm.LParamVal(0), true); ret != 0 {
		t.Fatal("double destroy reported success")
	}
}

func TestMessageCallDriverRange(t *testing.T) {
	r, th := newTestEnv(t)

	var gotMsg uint32
	r.DriverProc = func(hwnd wm.HWND, msg uint32, wp wm.WParam, lp wm.LParam) wm.LResult {
		gotMsg = msg
		return 11
	}
	win := makeWindow(t, r, th, winobj.WindowConfig{}, true, nopProc)

	ret, ok := r.MessageCall(th, win.Handle(), wm.SysFirstDriverMsg+7, 0, wm.LParamVal(0), true)
	if !ok || ret != 11 {
		t.Fatalf("driver dispatch = (%d, %v)", ret, ok)
	}
	if gotMsg != wm.SysFirstDriverMsg+7 {
		t.Fatalf("driver saw msg %#x", gotMsg)
	}

	// without a driver callback the range is swallowed
	r.DriverProc = nil
	if ret, ok = r.MessageCall(th, win.Handle(), wm.SysLastDriverMsg, 0, wm.LParamVal(0), true); !ok || ret != 0 {
		t.Fatalf("driverless dispatch = (%d, %v)", ret, ok)
	}
}
