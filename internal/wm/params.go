// internal/wm/params.go
package wm

// HWND identifies a window object in the local object store.
type HWND uint32

// WParam is the first message parameter, always a plain machine word.
type WParam uint64

// LResult is a window procedure's return value.
type LResult int64

// LParam is the second message parameter: a machine word that for some
// messages carries a pointer payload instead of a scalar. Exactly one of the
// two fields is meaningful; a scalar LParam has Obj == nil.
type LParam struct {
	Val uint64
	Obj any
}

// LParamVal wraps a scalar second parameter.
func LParamVal(v uint64) LParam { return LParam{Val: v} }

// LParamObj wraps a pointer payload.
func LParamObj(o any) LParam { return LParam{Obj: o} }

// IsNull reports whether the parameter is a null scalar, the "no payload"
// convention used by the string messages.
func (lp LParam) IsNull() bool { return lp.Obj == nil && lp.Val == 0 }

func LoWord(v uint64) uint16 { return uint16(v) }
func HiWord(v uint64) uint16 { return uint16(v >> 16) }

func MakeWParam(lo, hi uint16) WParam {
	return WParam(uint64(lo) | uint64(hi)<<16)
}

// WndProc is an application window procedure.
type WndProc func(hwnd HWND, msg uint32, wp WParam, lp LParam) LResult

// ProcID is an opaque handle to a registered window procedure. The zero value
// means "not registered".
type ProcID uint32

// ProcRef refers to a window procedure: a registry handle, a raw callable, or
// both (a handle remembers the callable it was allocated for). A ref whose
// handle does not resolve is invoked through Fn directly.
type ProcRef struct {
	ID ProcID
	Fn WndProc
}

// IsZero reports whether the ref names no procedure at all.
func (p ProcRef) IsZero() bool { return p.ID == 0 && p.Fn == nil }

// FromFunc wraps a bare callable that was never run through the registry.
func FromFunc(fn WndProc) ProcRef { return ProcRef{Fn: fn} }
