// internal/winproc/buffer.go
package winproc

// Transient conversion buffers. Requests up to fastBufUnits mirror the
// fixed-size fast path; anything larger counts as a heap acquisition, which
// can be forced to fail so the degradation paths stay testable. A failed
// acquisition aborts only the conversion in progress, never the dispatch
// loop.
const fastBufUnits = 512

func (r *Runtime) allocOK(units int) bool {
	if units <= fastBufUnits {
		return true
	}
	return !r.failAlloc.Load()
}

// getWide acquires a wide conversion buffer of n code units, nil on failure.
func (r *Runtime) getWide(n int) []uint16 {
	if n < 0 || !r.allocOK(n) {
		return nil
	}
	return make([]uint16, n)
}

// getAnsi acquires a narrow conversion buffer of n bytes, nil on failure.
func (r *Runtime) getAnsi(n int) []byte {
	if n < 0 || !r.allocOK(n) {
		return nil
	}
	return make([]byte, n)
}

// FailAllocations forces transient buffer acquisition beyond the fast path to
// fail. Test hook for the memory-pressure degradation behavior.
func (r *Runtime) FailAllocations(fail bool) {
	r.failAlloc.Store(fail)
}
