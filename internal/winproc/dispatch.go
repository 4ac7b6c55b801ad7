// internal/winproc/dispatch.go
//
// The invocation engine. Resolves which entry point a message goes to given
// the caller's encoding, the callee's registered variants and the window's
// native encoding, routes through the parameter marshaller when the two
// sides disagree, and captures the result through the channel the target
// expects.
package winproc

import (
	"sync"
	"sync/atomic"

	"github.com/OsbornePro/WinCore/internal/codepage"
	"github.com/OsbornePro/WinCore/internal/config"
	"github.com/OsbornePro/WinCore/internal/debug"
	"github.com/OsbornePro/WinCore/internal/winobj"
	"github.com/OsbornePro/WinCore/internal/wm"
)

// MaxDispatchRecursion bounds re-entrant dispatch depth per thread. The
// dispatch at this depth is rejected; the one before it still runs.
const MaxDispatchRecursion = 64

// callFn invokes one resolved entry point. result always receives the value
// the marshal rules operate on; the return is the raw callback return.
type callFn func(hwnd wm.HWND, msg uint32, wp wm.WParam, lp wm.LParam, result *wm.LResult) wm.LResult

// LegacyHandlers dispatches entries allocated through AllocLegacy. The
// defaults call the wrapped procedure directly.
type LegacyHandlers struct {
	CallWindowProc func(fn wm.WndProc, hwnd wm.HWND, msg uint32, wp wm.WParam, lp wm.LParam, result *wm.LResult) wm.LResult
	CallDialogProc func(fn wm.WndProc, hwnd wm.HWND, msg uint32, wp wm.WParam, lp wm.LParam, result *wm.LResult) wm.LResult
}

// Runtime ties the procedure registry, the window store and the marshaller
// together. One Runtime serves the whole process; threads are created from
// its store.
type Runtime struct {
	Store *winobj.Store
	Procs *Registry

	// Legacy is consulted for 16-bit wrapper entries.
	Legacy LegacyHandlers
	// DriverProc receives identifiers in the driver message range.
	DriverProc wm.WndProc

	inputCP   atomic.Uint32
	ansiCP    atomic.Uint32
	failAlloc atomic.Bool

	unportedMu sync.Mutex
	unported   map[uint32]int
}

func New(store *winobj.Store) *Runtime {
	r := &Runtime{
		Store:    store,
		Procs:    NewRegistry(),
		unported: make(map[uint32]int),
	}
	r.inputCP.Store(uint32(codepage.Latin1))
	r.ansiCP.Store(uint32(codepage.Latin1))
	return r
}

// NewFromSettings builds a runtime with the locale and limit settings from
// config.yaml applied.
func NewFromSettings(store *winobj.Store, s *config.Settings) (*Runtime, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	r := New(store)
	r.Procs = NewRegistrySized(s.Limits.MaxProcEntries)
	if err := r.SetAnsiCP(codepage.ID(s.Locale.AnsiCodePage)); err != nil {
		return nil, err
	}
	if err := r.SetInputCP(codepage.ID(s.Locale.InputCodePage)); err != nil {
		return nil, err
	}
	return r, nil
}

// InputCP returns the code page used for character message conversion.
func (r *Runtime) InputCP() codepage.ID {
	return codepage.ID(r.inputCP.Load())
}

// SetInputCP switches the input code page. Unknown pages are rejected.
func (r *Runtime) SetInputCP(cp codepage.ID) error {
	if !codepage.Known(cp) {
		return codepage.ErrUnknownCodePage
	}
	r.inputCP.Store(uint32(cp))
	return nil
}

func (r *Runtime) noteUnported(msg uint32) {
	r.unportedMu.Lock()
	r.unported[msg]++
	r.unportedMu.Unlock()
	debug.Fixmef(debug.ChanMsg, "message 0x%x needs translation", msg)
}

// UnportedCount reports how often a message without a conversion rule was
// seen by the marshaller.
func (r *Runtime) UnportedCount(msg uint32) int {
	r.unportedMu.Lock()
	defer r.unportedMu.Unlock()
	return r.unported[msg]
}

// windowCall is the plain leaf: invoke and mirror the return into result.
func (r *Runtime) windowCall(fn wm.WndProc) callFn {
	return func(hwnd wm.HWND, msg uint32, wp wm.WParam, lp wm.LParam, result *wm.LResult) wm.LResult {
		if debug.Enabled(debug.ChanRelay) {
			debug.Tracef(debug.ChanRelay, "call window proc (hwnd=%x,msg=%x,wp=%x,lp=%x)", hwnd, msg, uint64(wp), lp.Val)
		}
		ret := fn(hwnd, msg, wp, lp)
		*result = ret
		if debug.Enabled(debug.ChanRelay) {
			debug.Tracef(debug.ChanRelay, "ret  window proc (hwnd=%x,msg=%x) retval=%x", hwnd, msg, ret)
		}
		return ret
	}
}

// legacyCall routes through the registered 16-bit wrapper handler.
func (r *Runtime) legacyCall(fn wm.WndProc) callFn {
	return func(hwnd wm.HWND, msg uint32, wp wm.WParam, lp wm.LParam, result *wm.LResult) wm.LResult {
		if h := r.Legacy.CallWindowProc; h != nil {
			return h(fn, hwnd, msg, wp, lp, result)
		}
		return r.windowCall(fn)(hwnd, msg, wp, lp, result)
	}
}

func (r *Runtime) legacyDialogCall(fn wm.WndProc) callFn {
	return func(hwnd wm.HWND, msg uint32, wp wm.WParam, lp wm.LParam, result *wm.LResult) wm.LResult {
		if h := r.Legacy.CallDialogProc; h != nil {
			return h(fn, hwnd, msg, wp, lp, result)
		}
		return r.windowCall(fn)(hwnd, msg, wp, lp, result)
	}
}

// dispatchParams is one dispatch request, resolved and ready to invoke.
type dispatchParams struct {
	hwnd     wm.HWND
	msg      uint32
	wp       wm.WParam
	lp       wm.LParam
	result   *wm.LResult
	ansi     bool // caller supplies narrow parameters
	ansiDst  bool // window's native encoding is narrow
	isDialog bool
	mapping  CharMapping
	dpi      winobj.DpiAwareness

	fn     wm.WndProc // raw stored callable (fallback)
	procA  wm.WndProc
	procW  wm.WndProc
	legacy bool
}

// fillProc resolves the registered variants for a ref.
func (r *Runtime) fillProc(p *dispatchParams, ref wm.ProcRef) {
	p.fn = ref.Fn
	e := r.Procs.Resolve(ref)
	switch {
	case e == nil:
	case e.Legacy:
		p.legacy = true
		if p.fn == nil {
			p.fn = e.ProcA
		}
	default:
		p.procA = e.ProcA
		p.procW = e.ProcW
	}
}

// resolved reports whether any callable survived ref resolution. A window
// can carry a zero ref, and a handle can outlive its table; neither must
// reach an invocation.
func (p *dispatchParams) resolved() bool {
	return p.fn != nil || p.procA != nil || p.procW != nil
}

func pick(fn, fallback wm.WndProc) wm.WndProc {
	if fn != nil {
		return fn
	}
	return fallback
}

// dispatch runs the encoding-resolution matrix and performs the call. The
// thread's DPI-awareness context is switched to the window's for the duration
// and restored on every path.
func (r *Runtime) dispatch(th *winobj.Thread, p *dispatchParams) {
	old := th.SetDpiContext(p.dpi)
	defer th.SetDpiContext(old)

	if !p.ansi {
		switch {
		case p.legacy:
			// 16-bit wrappers only understand narrow parameters.
			r.callProcWtoA(th, r.legacyCall(p.fn), p.hwnd, p.msg, p.wp, p.lp, p.result)
		case p.isDialog:
			// Dialogs are invoked in the window's native encoding. An entry
			// carrying only the other variant is called through conversion.
			switch {
			case !p.ansiDst && pick(p.procW, p.fn) != nil:
				r.windowCall(pick(p.procW, p.fn))(p.hwnd, p.msg, p.wp, p.lp, p.result)
			case p.ansiDst && pick(p.procA, p.fn) != nil:
				r.callProcWtoA(th, r.windowCall(pick(p.procA, p.fn)), p.hwnd, p.msg, p.wp, p.lp, p.result)
			case p.procW != nil:
				r.windowCall(p.procW)(p.hwnd, p.msg, p.wp, p.lp, p.result)
			default:
				r.callProcWtoA(th, r.windowCall(p.procA), p.hwnd, p.msg, p.wp, p.lp, p.result)
			}
		case p.procW != nil:
			r.windowCall(p.procW)(p.hwnd, p.msg, p.wp, p.lp, p.result)
		case p.procA != nil:
			r.callProcWtoA(th, r.windowCall(p.procA), p.hwnd, p.msg, p.wp, p.lp, p.result)
		case !p.ansiDst:
			r.windowCall(p.fn)(p.hwnd, p.msg, p.wp, p.lp, p.result)
		default:
			r.callProcWtoA(th, r.windowCall(p.fn), p.hwnd, p.msg, p.wp, p.lp, p.result)
		}
		return
	}

	switch {
	case p.legacy:
		r.legacyCall(p.fn)(p.hwnd, p.msg, p.wp, p.lp, p.result)
	case p.isDialog:
		switch {
		case !p.ansiDst && pick(p.procW, p.fn) != nil:
			r.callProcAtoW(th, r.windowCall(pick(p.procW, p.fn)), p.hwnd, p.msg, p.wp, p.lp, p.result, p.mapping)
		case p.ansiDst && pick(p.procA, p.fn) != nil:
			r.windowCall(pick(p.procA, p.fn))(p.hwnd, p.msg, p.wp, p.lp, p.result)
		case p.procA != nil:
			r.windowCall(p.procA)(p.hwnd, p.msg, p.wp, p.lp, p.result)
		default:
			r.callProcAtoW(th, r.windowCall(p.procW), p.hwnd, p.msg, p.wp, p.lp, p.result, p.mapping)
		}
	case p.procA != nil:
		r.windowCall(p.procA)(p.hwnd, p.msg, p.wp, p.lp, p.result)
	case p.procW != nil:
		r.callProcAtoW(th, r.windowCall(p.procW), p.hwnd, p.msg, p.wp, p.lp, p.result, p.mapping)
	case !p.ansiDst:
		r.callProcAtoW(th, r.windowCall(p.fn), p.hwnd, p.msg, p.wp, p.lp, p.result, p.mapping)
	default:
		r.windowCall(p.fn)(p.hwnd, p.msg, p.wp, p.lp, p.result)
	}
}

// CallWindow dispatches a message to the window's registered procedure. It
// enforces thread affinity and the recursion bound; a rejected dispatch
// reports handled == false without invoking the target.
func (r *Runtime) CallWindow(th *winobj.Thread, hwnd wm.HWND, msg uint32, wp wm.WParam, lp wm.LParam, unicode bool, mapping CharMapping) (wm.LResult, bool) {
	win := r.Store.Get(hwnd)
	if win == nil {
		th.SetLastError(wm.ErrorInvalidWindowHandle)
		return 0, false
	}
	if win.ThreadID() != th.ID() {
		th.SetLastError(wm.ErrorInvalidThreadID)
		return 0, false
	}
	if !th.EnterDispatch(MaxDispatchRecursion) {
		return 0, false
	}
	defer th.LeaveDispatch()

	var result wm.LResult
	p := dispatchParams{
		hwnd:     hwnd,
		msg:      msg,
		wp:       wp,
		lp:       lp,
		result:   &result,
		ansi:     !unicode,
		ansiDst:  !win.IsUnicode(),
		isDialog: win.IsDialog(),
		mapping:  mapping,
		dpi:      win.DpiContext(),
	}
	r.fillProc(&p, win.Proc())
	if !p.resolved() {
		th.SetLastError(wm.ErrorInvalidFunction)
		return 0, false
	}
	r.dispatch(th, &p)
	return result, true
}

// initCallParams prepares a subclassing-style call: no affinity or recursion
// checks, caller and callee default to the caller's encoding.
func (r *Runtime) initCallParams(th *winobj.Thread, p *dispatchParams, ref wm.ProcRef, hwnd wm.HWND, msg uint32, wp wm.WParam, lp wm.LParam, result *wm.LResult, ansi bool) {
	p.hwnd = hwnd
	p.msg = msg
	p.wp = wp
	p.lp = lp
	p.result = result
	p.ansi = ansi
	p.ansiDst = ansi
	p.mapping = MapCallWindowProc
	p.dpi = th.DpiContext()
	if win := r.Store.Get(hwnd); win != nil {
		p.dpi = win.DpiContext()
	}
	r.fillProc(p, ref)
}

// CallWindowProcA invokes ref with narrow parameters, converting if the
// registered procedure only has a wide entry point. A zero ref returns 0.
func (r *Runtime) CallWindowProcA(th *winobj.Thread, ref wm.ProcRef, hwnd wm.HWND, msg uint32, wp wm.WParam, lp wm.LParam) wm.LResult {
	if ref.IsZero() {
		return 0
	}
	var result wm.LResult
	var p dispatchParams
	r.initCallParams(th, &p, ref, hwnd, msg, wp, lp, &result, true)
	if !p.resolved() {
		th.SetLastError(wm.ErrorInvalidFunction)
		return 0
	}
	r.dispatch(th, &p)
	return result
}

// CallWindowProcW is the wide-parameter counterpart of CallWindowProcA.
func (r *Runtime) CallWindowProcW(th *winobj.Thread, ref wm.ProcRef, hwnd wm.HWND, msg uint32, wp wm.WParam, lp wm.LParam) wm.LResult {
	if ref.IsZero() {
		return 0
	}
	var result wm.LResult
	var p dispatchParams
	r.initCallParams(th, &p, ref, hwnd, msg, wp, lp, &result, false)
	if !p.resolved() {
		th.SetLastError(wm.ErrorInvalidFunction)
		return 0
	}
	r.dispatch(th, &p)
	return result
}

// callDialogProc invokes a dialog procedure: the raw return only reports
// whether the message was processed, the application result is read from the
// window's side-channel slot.
func (r *Runtime) callDialogProc(th *winobj.Thread, hwnd wm.HWND, msg uint32, wp wm.WParam, lp wm.LParam, result *wm.LResult, fn wm.WndProc) wm.LResult {
	if fn == nil {
		th.SetLastError(wm.ErrorInvalidFunction)
		return 0
	}
	win := r.Store.Get(hwnd)
	dpi := th.DpiContext()
	if win != nil {
		dpi = win.DpiContext()
	}
	old := th.SetDpiContext(dpi)
	defer th.SetDpiContext(old)

	if debug.Enabled(debug.ChanRelay) {
		debug.Tracef(debug.ChanRelay, "call dialog proc (hwnd=%x,msg=%x,wp=%x)", hwnd, msg, uint64(wp))
	}
	ret := fn(hwnd, msg, wp, lp)
	if win != nil {
		*result = win.MsgResult()
	}
	return ret
}

// CallDlgProcA invokes a dialog procedure with narrow parameters.
func (r *Runtime) CallDlgProcA(th *winobj.Thread, ref wm.ProcRef, hwnd wm.HWND, msg uint32, wp wm.WParam, lp wm.LParam) wm.LResult {
	if ref.IsZero() {
		return 0
	}
	var result wm.LResult
	e := r.Procs.Resolve(ref)
	switch {
	case e == nil:
		return r.callDialogProc(th, hwnd, msg, wp, lp, &result, ref.Fn)
	case e.Legacy:
		fn := pick(ref.Fn, e.ProcA)
		if fn == nil {
			th.SetLastError(wm.ErrorInvalidFunction)
			return 0
		}
		ret := r.legacyDialogCall(fn)(hwnd, msg, wp, lp, &result)
		if win := r.Store.Get(hwnd); win != nil {
			win.SetMsgResult(result)
		}
		return ret
	default:
		return r.callDialogProc(th, hwnd, msg, wp, lp, &result, pick(e.ProcW, e.ProcA))
	}
}

// CallDlgProcW invokes a dialog procedure with wide parameters.
func (r *Runtime) CallDlgProcW(th *winobj.Thread, ref wm.ProcRef, hwnd wm.HWND, msg uint32, wp wm.WParam, lp wm.LParam) wm.LResult {
	if ref.IsZero() {
		return 0
	}
	var result wm.LResult
	e := r.Procs.Resolve(ref)
	switch {
	case e == nil:
		return r.callDialogProc(th, hwnd, msg, wp, lp, &result, ref.Fn)
	case e.Legacy:
		fn := pick(ref.Fn, e.ProcA)
		if fn == nil {
			th.SetLastError(wm.ErrorInvalidFunction)
			return 0
		}
		ret := r.callProcWtoA(th, r.legacyDialogCall(fn), hwnd, msg, wp, lp, &result)
		if win := r.Store.Get(hwnd); win != nil {
			win.SetMsgResult(result)
		}
		return ret
	default:
		return r.callDialogProc(th, hwnd, msg, wp, lp, &result, pick(e.ProcW, e.ProcA))
	}
}

// MessageCall is the generic entry point: private-range identifiers are
// handled internally, everything else goes to the window procedure.
func (r *Runtime) MessageCall(th *winobj.Thread, hwnd wm.HWND, msg uint32, wp wm.WParam, lp wm.LParam, unicode bool) (wm.LResult, bool) {
	if wm.IsInternal(msg) {
		return r.handleInternalMessage(th, hwnd, msg, wp, lp), true
	}
	return r.CallWindow(th, hwnd, msg, wp, lp, unicode, MapDispatchMessage)
}

// style returns a window's style bits, 0 for an unknown handle. The marshal
// rules use this for the has-strings and MDI-child tests.
func (r *Runtime) style(hwnd wm.HWND) uint32 {
	if win := r.Store.Get(hwnd); win != nil {
		return win.Style()
	}
	return 0
}

func (r *Runtime) exStyle(hwnd wm.HWND) uint32 {
	if win := r.Store.Get(hwnd); win != nil {
		return win.ExStyle()
	}
	return 0
}
