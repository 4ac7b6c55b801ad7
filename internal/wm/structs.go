// internal/wm/structs.go
package wm

// CreateStruct is the creation descriptor carried by WMCreate/WMNCCreate.
// For MDI children CreateParams holds a *MDICreateStruct whose Title/Class
// alias Name/Class of the outer descriptor.
type CreateStruct struct {
	CreateParams LParam
	Instance     uint64
	Menu         uint64
	Parent       HWND
	Cy, Cx       int32
	Y, X         int32
	Style        int32
	Name         TextRef
	Class        TextRef
	ExStyle      uint32
}

// MDICreateStruct is the creation descriptor carried by WMMDICreate.
type MDICreateStruct struct {
	Class  TextRef
	Title  TextRef
	Owner  uint64
	X, Y   int32
	Cx, Cy int32
	Style  int32
	LParam LParam
}

// Msg is an embedded message, as forwarded through WMGetDlgCode.
type Msg struct {
	Hwnd    HWND
	Message uint32
	WParam  WParam
	LParam  LParam
	Time    uint32
	PtX     int32
	PtY     int32
}
