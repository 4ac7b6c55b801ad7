// internal/wm/messages.go
//
// Message identifiers understood by the dispatch core. The values match the
// wire values used by Win32 applications; the marshaller keys its conversion
// rules on them.
package wm

// Window messages.
const (
	WMNull            = 0x0000
	WMCreate          = 0x0001
	WMDestroy         = 0x0002
	WMSetText         = 0x000C
	WMGetText         = 0x000D
	WMGetTextLength   = 0x000E
	WMWinIniChange    = 0x001A
	WMDevModeChange   = 0x001B
	WMCharToItem      = 0x002F
	WMNCCreate        = 0x0081
	WMGetDlgCode      = 0x0087
	WMChar            = 0x0102
	WMDeadChar        = 0x0103
	WMSysChar         = 0x0106
	WMSysDeadChar     = 0x0107
	WMTimer           = 0x0113
	WMSysTimer        = 0x0118 // undocumented caret-blink timer
	WMMenuChar        = 0x0120
	WMMDICreate       = 0x0220
	WMIMEChar         = 0x0286
	WMPaintClipboard  = 0x0309
	WMSizeClipboard   = 0x030B
	WMAskCBFormatName = 0x030C
)

// Edit control messages.
const (
	EMReplaceSel      = 0x00C2
	EMGetLine         = 0x00C4
	EMSetPasswordChar = 0x00CC
)

// Combo box messages. The combo range sits below the listbox range; the
// has-strings test relies on that ordering.
const (
	CBAddString       = 0x0143
	CBDir             = 0x0145
	CBGetLBText       = 0x0148
	CBGetLBTextLen    = 0x0149
	CBInsertString    = 0x014A
	CBFindString      = 0x014C
	CBSelectString    = 0x014D
	CBFindStringExact = 0x0158
	CBMsgMax          = 0x0165
)

// List box messages.
const (
	LBAddString       = 0x0180
	LBInsertString    = 0x0181
	LBGetText         = 0x0189
	LBGetTextLen      = 0x018A
	LBSelectString    = 0x018C
	LBDir             = 0x018D
	LBFindString      = 0x018F
	LBAddFile         = 0x0196
	LBFindStringExact = 0x01A2
)

// Private range routed around the window procedure. Identifiers inside the
// driver sub-range are handed to the registered driver callback.
const (
	SysDestroyWindow = 0x80000000 + iota
	SysSetWindowPos
	SysShowWindow
	SysSetParent
	SysSetWindowLong
	SysSetStyle
	SysSetActiveWindow
	SysUpdateWindowState
)

const (
	SysFirstDriverMsg = 0x80001000
	SysLastDriverMsg  = 0x80001FFF
)

// IsInternal reports whether msg belongs to the private range that is never
// delivered to an application window procedure.
func IsInternal(msg uint32) bool {
	return msg >= SysDestroyWindow && msg <= SysLastDriverMsg
}
