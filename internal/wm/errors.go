// internal/wm/errors.go
package wm

// Last-error codes surfaced on the dispatch surface. Values match the Win32
// codes applications test against.
const (
	ErrorSuccess             uint32 = 0
	ErrorInvalidFunction     uint32 = 1
	ErrorAccessDenied        uint32 = 5
	ErrorNotEnoughMemory     uint32 = 8
	ErrorInvalidParameter    uint32 = 87
	ErrorInvalidWindowHandle uint32 = 1400
	ErrorInvalidThreadID     uint32 = 1444
)
