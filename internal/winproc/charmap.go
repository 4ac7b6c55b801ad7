// internal/winproc/charmap.go
package winproc

import (
	"github.com/OsbornePro/WinCore/internal/codepage"
	"github.com/OsbornePro/WinCore/internal/winobj"
	"github.com/OsbornePro/WinCore/internal/wm"
)

// CharMapping names the context a character message travels through. A DBCS
// character split across two narrow char messages is paired per context, so
// interleaved posted and sent characters cannot steal each other's lead byte.
type CharMapping int

const (
	MapPostMessage CharMapping = iota
	MapSendMessage
	MapSendMessageTimeout
	MapRecvMessage
	MapDispatchMessage
	MapCallWindowProc
	charMappingCount
	// MapNone disables lead-byte pairing; the char converts as-is.
	MapNone = charMappingCount
)

// mapWParamAtoW converts the character payload of wp from the input code page
// to a wide unit, preserving the high word. For WMChar under a real mapping
// context a lone DBCS lead byte is parked on the thread and false is
// returned: the message must not be delivered until its trail byte arrives.
func (r *Runtime) mapWParamAtoW(th *winobj.Thread, msg uint32, wp *wm.WParam, mapping CharMapping) bool {
	cp := r.InputCP()
	v := uint64(*wp)

	switch msg {
	case wm.WMChar:
		if mapping != MapNone && th != nil {
			low := byte(wm.LoWord(v))
			if lead := th.LeadByte(int(mapping)); lead != 0 {
				th.SetLeadByte(int(mapping), 0)
				wch := codepage.DecodeChar(cp, []byte{lead, low})
				*wp = wm.MakeWParam(wch, wm.HiWord(v))
				return true
			}
			if !codepage.IsLeadByte(cp, low) {
				wch := codepage.DecodeChar(cp, []byte{low})
				*wp = wm.MakeWParam(wch, wm.HiWord(v))
				return true
			}
			th.SetLeadByte(int(mapping), low)
			return false
		}
		fallthrough

	case wm.WMCharToItem, wm.EMSetPasswordChar, wm.WMDeadChar, wm.WMSysChar,
		wm.WMSysDeadChar, wm.WMMenuChar:
		lo := wm.LoWord(v)
		b := []byte{byte(lo)}
		if hi := byte(lo >> 8); hi != 0 {
			b = append(b, hi)
		}
		wch := codepage.DecodeChar(cp, b)
		*wp = wm.MakeWParam(wch, wm.HiWord(v))
		return true

	case wm.WMIMEChar:
		// The IME char packs lead byte in the high byte of the low word.
		lo := wm.LoWord(v)
		var b []byte
		if lead := byte(lo >> 8); lead != 0 {
			b = []byte{lead, byte(lo)}
		} else {
			b = []byte{byte(lo)}
		}
		wch := codepage.DecodeChar(cp, b)
		*wp = wm.MakeWParam(wch, wm.HiWord(v))
		return true
	}
	return true
}

// mapWParamCharWtoA converts a wide character payload to at most max narrow
// bytes. A two-byte result is packed lead-first into the low word.
func (r *Runtime) mapWParamCharWtoA(wp wm.WParam, max int) wm.WParam {
	cp := r.InputCP()
	v := uint64(wp)
	b := codepage.EncodeChar(cp, wm.LoWord(v))
	if len(b) > max {
		b = b[:max]
	}
	if len(b) == 2 {
		return wm.MakeWParam(uint16(b[0])<<8|uint16(b[1]), wm.HiWord(v))
	}
	return wm.MakeWParam(uint16(b[0]), wm.HiWord(v))
}
