// internal/winobj/thread.go
package winobj

// DpiAwareness is the scaling-mode token active while a window procedure
// runs. Values match the Win32 context handles.
type DpiAwareness int32

const (
	DpiUnaware          DpiAwareness = -1
	DpiSystemAware      DpiAwareness = -2
	DpiPerMonitorAware  DpiAwareness = -3
	DpiPerMonitorAware2 DpiAwareness = -4
	DpiUnawareGdiScaled DpiAwareness = -5
)

// Thread is the execution state of one dispatch loop. Every window records
// the thread that created it; dispatch to a window from any other thread is
// rejected. A Thread is confined to the goroutine that runs its loop, so none
// of this state is locked.
type Thread struct {
	id        uint32
	store     *Store
	recursion int
	dpi       DpiAwareness
	lastError uint32

	// Pending DBCS lead bytes, one slot per char-mapping context.
	leadByte [8]byte
}

func (t *Thread) ID() uint32 { return t.id }

func (t *Thread) Store() *Store { return t.store }

// LastError returns the code set by the most recent failed call.
func (t *Thread) LastError() uint32 { return t.lastError }

func (t *Thread) SetLastError(code uint32) { t.lastError = code }

// DpiContext returns the thread's current DPI-awareness context.
func (t *Thread) DpiContext() DpiAwareness { return t.dpi }

// SetDpiContext switches the context and returns the previous one so the
// caller can restore it.
func (t *Thread) SetDpiContext(ctx DpiAwareness) DpiAwareness {
	old := t.dpi
	t.dpi = ctx
	return old
}

// DispatchDepth is the current re-entrant dispatch depth.
func (t *Thread) DispatchDepth() int { return t.recursion }

// EnterDispatch increments the depth unless the limit is already reached.
// Every successful call must be paired with LeaveDispatch.
func (t *Thread) EnterDispatch(max int) bool {
	if t.recursion >= max {
		return false
	}
	t.recursion++
	return true
}

func (t *Thread) LeaveDispatch() {
	if t.recursion > 0 {
		t.recursion--
	}
}

// LeadByte returns the parked DBCS lead byte for a mapping context, 0 if none.
func (t *Thread) LeadByte(ctx int) byte {
	if ctx < 0 || ctx >= len(t.leadByte) {
		return 0
	}
	return t.leadByte[ctx]
}

func (t *Thread) SetLeadByte(ctx int, b byte) {
	if ctx >= 0 && ctx < len(t.leadByte) {
		t.leadByte[ctx] = b
	}
}
