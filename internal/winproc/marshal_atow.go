// internal/winproc/marshal_atow.go
//
// Narrow-to-wide parameter marshalling: a narrow-encoded caller invoking a
// wide entry point. Each covered message has its own buffer and length
// arithmetic; anything uncovered passes through untouched.
package winproc

import (
	"encoding/binary"

	"github.com/OsbornePro/WinCore/internal/codepage"
	"github.com/OsbornePro/WinCore/internal/debug"
	"github.com/OsbornePro/WinCore/internal/winobj"
	"github.com/OsbornePro/WinCore/internal/wm"
)

// AnsiCP returns the code page used for text parameter conversion (as
// opposed to InputCP, which covers character-code messages).
func (r *Runtime) AnsiCP() codepage.ID {
	if v := r.ansiCP.Load(); v != 0 {
		return codepage.ID(v)
	}
	return codepage.Latin1
}

// SetAnsiCP switches the text conversion code page.
func (r *Runtime) SetAnsiCP(cp codepage.ID) error {
	if !codepage.Known(cp) {
		return codepage.ErrUnknownCodePage
	}
	r.ansiCP.Store(uint32(cp))
	return nil
}

// testLBForStr reports whether a listbox/combobox message carries a real
// string: owner-draw controls without the has-strings style pass item data
// instead.
func (r *Runtime) testLBForStr(hwnd wm.HWND, msg uint32) bool {
	style := r.style(hwnd)
	if msg <= wm.CBMsgMax {
		return style&(wm.CBSOwnerDrawFixed|wm.CBSOwnerDrawVariable) == 0 || style&wm.CBSHasStrings != 0
	}
	return style&(wm.LBSOwnerDrawFixed|wm.LBSOwnerDrawVariable) == 0 || style&wm.LBSHasStrings != 0
}

func wideZLen(u []uint16) int {
	for i, c := range u {
		if c == 0 {
			return i
		}
	}
	return len(u)
}

func ansiZLen(b []byte) int {
	for i, c := range b {
		if c == 0 {
			return i
		}
	}
	return len(b)
}

// textRefAtoW converts a literal narrow text field into buf, returning the
// converted ref and the remaining buffer. Integer resources pass through.
func textRefAtoW(cp codepage.ID, t wm.TextRef, buf []uint16) (wm.TextRef, []uint16) {
	if t.IsAtom || t.Ansi == nil {
		return t, buf
	}
	u, err := codepage.ToWide(cp, t.Ansi)
	if err != nil {
		return t, buf
	}
	n := copy(buf, u)
	return wm.WideText(buf[:n]), buf[n:]
}

func isStringListMsg(msg uint32) bool {
	switch msg {
	case wm.LBAddString, wm.LBInsertString, wm.LBFindString, wm.LBFindStringExact,
		wm.LBSelectString, wm.CBAddString, wm.CBInsertString, wm.CBFindString,
		wm.CBFindStringExact, wm.CBSelectString:
		return true
	}
	return false
}

// callProcAtoW calls cb with parameters translated from narrow to wide.
func (r *Runtime) callProcAtoW(th *winobj.Thread, cb callFn, hwnd wm.HWND, msg uint32, wp wm.WParam, lp wm.LParam, result *wm.LResult, mapping CharMapping) wm.LResult {
	var ret wm.LResult
	acp := r.AnsiCP()

	switch msg {
	case wm.WMNCCreate, wm.WMCreate:
		csA, ok := lp.Obj.(*wm.CreateStruct)
		if !ok {
			return cb(hwnd, msg, wp, lp, result)
		}
		csW := *csA
		classLen, nameLen := 0, 0
		if !csA.Class.IsAtom && csA.Class.Ansi != nil {
			classLen = codepage.WideLen(acp, csA.Class.Ansi)
		}
		if !csA.Name.IsAtom && csA.Name.Ansi != nil {
			nameLen = codepage.WideLen(acp, csA.Name.Ansi)
		}
		buf := r.getWide(classLen + nameLen)
		if buf == nil {
			break
		}
		csW.Class, buf = textRefAtoW(acp, csA.Class, buf)
		csW.Name, _ = textRefAtoW(acp, csA.Name, buf)

		if r.exStyle(hwnd)&wm.WSExMDIChild != 0 {
			if mdiA, ok := csA.CreateParams.Obj.(*wm.MDICreateStruct); ok {
				mdi := *mdiA
				mdi.Title = csW.Name
				mdi.Class = csW.Class
				csW.CreateParams = wm.LParamObj(&mdi)
			}
		}
		ret = cb(hwnd, msg, wp, wm.LParamObj(&csW), result)

	case wm.WMMDICreate:
		csA, ok := lp.Obj.(*wm.MDICreateStruct)
		if !ok {
			return cb(hwnd, msg, wp, lp, result)
		}
		csW := *csA
		titleLen, classLen := 0, 0
		if !csA.Title.IsAtom && csA.Title.Ansi != nil {
			titleLen = codepage.WideLen(acp, csA.Title.Ansi)
		}
		if !csA.Class.IsAtom && csA.Class.Ansi != nil {
			classLen = codepage.WideLen(acp, csA.Class.Ansi)
		}
		buf := r.getWide(titleLen + classLen)
		if buf == nil {
			break
		}
		csW.Title, buf = textRefAtoW(acp, csA.Title, buf)
		csW.Class, _ = textRefAtoW(acp, csA.Class, buf)
		ret = cb(hwnd, msg, wp, wm.LParamObj(&csW), result)

	case wm.WMGetText, wm.WMAskCBFormatName:
		str, ok := lp.Obj.(*wm.AnsiBuffer)
		if !ok {
			return cb(hwnd, msg, wp, lp, result)
		}
		buf := r.getWide(int(wp))
		if buf == nil {
			break
		}
		ret = cb(hwnd, msg, wp, wm.LParamObj(&wm.WideBuffer{Data: buf}), result)
		if wp != 0 {
			n := 0
			if *result != 0 {
				got := int(ret)
				if got < 0 {
					got = 0
				}
				if got > len(buf) {
					got = len(buf)
				}
				b, err := codepage.FromWide(acp, buf[:got])
				if err == nil {
					if len(b) > int(wp)-1 {
						b = b[:int(wp)-1]
					}
					n = copy(str.Data, b)
				}
			}
			if n < len(str.Data) {
				str.Data[n] = 0
			}
			*result = wm.LResult(n)
		}

	case wm.LBAddString, wm.LBInsertString, wm.LBFindString, wm.LBFindStringExact,
		wm.LBSelectString, wm.CBAddString, wm.CBInsertString, wm.CBFindString,
		wm.CBFindStringExact, wm.CBSelectString,
		wm.WMSetText, wm.WMWinIniChange, wm.WMDevModeChange,
		wm.CBDir, wm.LBDir, wm.LBAddFile, wm.EMReplaceSel:
		if isStringListMsg(msg) && (lp.IsNull() || !r.testLBForStr(hwnd, msg)) {
			ret = cb(hwnd, msg, wp, lp, result)
			break
		}
		if lp.IsNull() {
			ret = cb(hwnd, msg, wp, lp, result)
			break
		}
		strA, ok := lp.Obj.(wm.AnsiString)
		if !ok {
			return cb(hwnd, msg, wp, lp, result)
		}
		lenW := codepage.WideLen(acp, []byte(strA))
		buf := r.getWide(lenW)
		if buf == nil {
			break
		}
		u, err := codepage.ToWide(acp, []byte(strA))
		if err != nil {
			break
		}
		copy(buf, u)
		ret = cb(hwnd, msg, wp, wm.LParamObj(wm.WideString(buf)), result)

	case wm.LBGetText, wm.CBGetLBText:
		str, ok := lp.Obj.(*wm.AnsiBuffer)
		if !ok || !r.testLBForStr(hwnd, msg) {
			return cb(hwnd, msg, wp, lp, result)
		}
		buf := make([]uint16, fastBufUnits)
		ret = cb(hwnd, msg, wp, wm.LParamObj(&wm.WideBuffer{Data: buf}), result)
		if *result >= 0 {
			b, err := codepage.FromWide(acp, buf[:wideZLen(buf)])
			n := 0
			if err == nil {
				if max := len(str.Data) - 1; len(b) > max {
					b = b[:max]
				}
				n = copy(str.Data, b)
			}
			if n < len(str.Data) {
				str.Data[n] = 0
			}
			*result = wm.LResult(n)
		}

	case wm.EMGetLine:
		str, ok := lp.Obj.(*wm.AnsiBuffer)
		if !ok || len(str.Data) < 2 {
			return cb(hwnd, msg, wp, lp, result)
		}
		max := int(binary.LittleEndian.Uint16(str.Data))
		buf := r.getWide(max)
		if buf == nil {
			break
		}
		if max > 0 {
			buf[0] = uint16(max) // capacity rides in the first unit
		}
		ret = cb(hwnd, msg, wp, wm.LParamObj(&wm.WideBuffer{Data: buf}), result)
		if *result != 0 {
			got := int(*result)
			if got > len(buf) {
				got = len(buf)
			}
			b, err := codepage.FromWide(acp, buf[:got])
			n := 0
			if err == nil {
				if len(b) > max {
					b = b[:max]
				}
				n = copy(str.Data, b)
			}
			if n < max && n < len(str.Data) {
				str.Data[n] = 0
			}
			*result = wm.LResult(n)
		}

	case wm.WMGetDlgCode:
		msgObj, ok := lp.Obj.(*wm.Msg)
		if !ok {
			return cb(hwnd, msg, wp, lp, result)
		}
		newmsg := *msgObj
		if r.mapWParamAtoW(th, newmsg.Message, &newmsg.WParam, MapNone) {
			ret = cb(hwnd, msg, wp, wm.LParamObj(&newmsg), result)
		}

	case wm.WMCharToItem, wm.WMMenuChar, wm.WMChar, wm.WMDeadChar, wm.WMSysChar,
		wm.WMSysDeadChar, wm.EMSetPasswordChar, wm.WMIMEChar:
		if r.mapWParamAtoW(th, msg, &wp, mapping) {
			ret = cb(hwnd, msg, wp, lp, result)
		}

	case wm.WMGetTextLength, wm.CBGetLBTextLen, wm.LBGetTextLen:
		ret = cb(hwnd, msg, wp, lp, result)
		if *result >= 0 {
			need := int(*result) + 1
			getMsg := uint32(wm.WMGetText)
			getWP := wm.WParam(need)
			switch msg {
			case wm.CBGetLBTextLen:
				getMsg, getWP = wm.CBGetLBText, wp
			case wm.LBGetTextLen:
				getMsg, getWP = wm.LBGetText, wp
			}
			buf := r.getWide(need)
			if buf == nil {
				break
			}
			var tmp wm.LResult
			got := cb(hwnd, getMsg, getWP, wm.LParamObj(&wm.WideBuffer{Data: buf}), &tmp)
			if got < 0 {
				got = 0
			}
			if int(got) > len(buf) {
				got = wm.LResult(len(buf))
			}
			// Report the length the narrow caller would see: the byte count
			// of the converted text.
			*result = wm.LResult(codepage.AnsiLen(acp, buf[:got]))
		}

	case wm.WMPaintClipboard, wm.WMSizeClipboard:
		r.noteUnported(msg)

	default:
		ret = cb(hwnd, msg, wp, lp, result)
	}

	if debug.Enabled(debug.ChanMsg) {
		debug.Tracef(debug.ChanMsg, "AtoW hwnd=%x msg=%x wp=%x ret=%x", hwnd, msg, uint64(wp), ret)
	}
	return ret
}
