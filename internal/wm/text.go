// internal/wm/text.go
package wm

// TextRef is a class-name or window-name style field: either literal text in
// one encoding or a small integer resource id. Integer resources pass through
// conversion untouched.
type TextRef struct {
	Atom   uint16
	IsAtom bool
	Ansi   []byte   // literal text, narrow encoding
	Wide   []uint16 // literal text, wide encoding
}

// AnsiText returns a narrow literal text reference.
func AnsiText(b []byte) TextRef { return TextRef{Ansi: b} }

// WideText returns a wide literal text reference.
func WideText(u []uint16) TextRef { return TextRef{Wide: u} }

// IntResource returns an integer resource id reference.
func IntResource(id uint16) TextRef { return TextRef{Atom: id, IsAtom: true} }

// IsWide reports whether the literal text is carried in the wide encoding.
func (t TextRef) IsWide() bool { return t.Wide != nil }

// AnsiBuffer is a caller-supplied narrow output buffer. Its capacity is
// len(Data); the callee writes text plus a terminating zero byte within it.
type AnsiBuffer struct {
	Data []byte
}

// WideBuffer is a caller-supplied wide output buffer, capacity in code units.
type WideBuffer struct {
	Data []uint16
}

// AnsiString is a narrow input string parameter (no terminator).
type AnsiString []byte

// WideString is a wide input string parameter (no terminator).
type WideString []uint16
