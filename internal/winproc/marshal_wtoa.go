// internal/winproc/marshal_wtoa.go
//
// Wide-to-narrow parameter marshalling, the inverse of marshal_atow.go. The
// notable asymmetry is the char family: one wide character can need two
// narrow code units, in which case the callback is invoked twice in order
// with the original lParam held constant.
package winproc

import (
	"encoding/binary"

	"github.com/OsbornePro/WinCore/internal/codepage"
	"github.com/OsbornePro/WinCore/internal/debug"
	"github.com/OsbornePro/WinCore/internal/winobj"
	"github.com/OsbornePro/WinCore/internal/wm"
)

// textRefWtoA converts a literal wide text field into buf, returning the
// converted ref and the remaining buffer.
func textRefWtoA(cp codepage.ID, t wm.TextRef, buf []byte) (wm.TextRef, []byte) {
	if t.IsAtom || t.Wide == nil {
		return t, buf
	}
	b, err := codepage.FromWide(cp, t.Wide)
	if err != nil {
		return t, buf
	}
	n := copy(buf, b)
	return wm.AnsiText(buf[:n]), buf[n:]
}

// callProcWtoA calls cb with parameters translated from wide to narrow.
func (r *Runtime) callProcWtoA(_ *winobj.Thread, cb callFn, hwnd wm.HWND, msg uint32, wp wm.WParam, lp wm.LParam, result *wm.LResult) wm.LResult {
	var ret wm.LResult
	acp := r.AnsiCP()

	switch msg {
	case wm.WMNCCreate, wm.WMCreate:
		csW, ok := lp.Obj.(*wm.CreateStruct)
		if !ok {
			return cb(hwnd, msg, wp, lp, result)
		}
		csA := *csW
		classLen, nameLen := 0, 0
		if !csW.Class.IsAtom && csW.Class.Wide != nil {
			classLen = codepage.AnsiLen(acp, csW.Class.Wide)
		}
		if !csW.Name.IsAtom && csW.Name.Wide != nil {
			nameLen = codepage.AnsiLen(acp, csW.Name.Wide)
		}
		buf := r.getAnsi(classLen + nameLen)
		if buf == nil {
			break
		}
		csA.Class, buf = textRefWtoA(acp, csW.Class, buf)
		csA.Name, _ = textRefWtoA(acp, csW.Name, buf)

		if r.exStyle(hwnd)&wm.WSExMDIChild != 0 {
			if mdiW, ok := csW.CreateParams.Obj.(*wm.MDICreateStruct); ok {
				mdi := *mdiW
				mdi.Title = csA.Name
				mdi.Class = csA.Class
				csA.CreateParams = wm.LParamObj(&mdi)
			}
		}
		ret = cb(hwnd, msg, wp, wm.LParamObj(&csA), result)

	case wm.WMGetText, wm.WMAskCBFormatName:
		str, ok := lp.Obj.(*wm.WideBuffer)
		if !ok {
			return cb(hwnd, msg, wp, lp, result)
		}
		buf := r.getAnsi(int(wp) * 2)
		if buf == nil {
			break
		}
		ret = cb(hwnd, msg, wp, wm.LParamObj(&wm.AnsiBuffer{Data: buf}), result)
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
				u, err := codepage.ToWide(acp, buf[:got])
				if err == nil {
					if len(u) > int(wp)-1 {
						u = u[:int(wp)-1]
					}
					n = copy(str.Data, u)
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
		strW, ok := lp.Obj.(wm.WideString)
		if !ok {
			return cb(hwnd, msg, wp, lp, result)
		}
		lenA := codepage.AnsiLen(acp, []uint16(strW))
		buf := r.getAnsi(lenA)
		if buf == nil {
			break
		}
		b, err := codepage.FromWide(acp, []uint16(strW))
		if err != nil {
			break
		}
		copy(buf, b)
		ret = cb(hwnd, msg, wp, wm.LParamObj(wm.AnsiString(buf)), result)

	case wm.WMMDICreate:
		csW, ok := lp.Obj.(*wm.MDICreateStruct)
		if !ok {
			return cb(hwnd, msg, wp, lp, result)
		}
		csA := *csW
		titleLen, classLen := 0, 0
		if !csW.Title.IsAtom && csW.Title.Wide != nil {
			titleLen = codepage.AnsiLen(acp, csW.Title.Wide)
		}
		if !csW.Class.IsAtom && csW.Class.Wide != nil {
			classLen = codepage.AnsiLen(acp, csW.Class.Wide)
		}
		buf := r.getAnsi(titleLen + classLen)
		if buf == nil {
			break
		}
		csA.Title, buf = textRefWtoA(acp, csW.Title, buf)
		csA.Class, _ = textRefWtoA(acp, csW.Class, buf)
		ret = cb(hwnd, msg, wp, wm.LParamObj(&csA), result)

	case wm.LBGetText, wm.CBGetLBText:
		str, ok := lp.Obj.(*wm.WideBuffer)
		if !ok || !r.testLBForStr(hwnd, msg) {
			return cb(hwnd, msg, wp, lp, result)
		}
		buf := make([]byte, fastBufUnits)
		ret = cb(hwnd, msg, wp, wm.LParamObj(&wm.AnsiBuffer{Data: buf}), result)
		if *result >= 0 {
			u, err := codepage.ToWide(acp, buf[:ansiZLen(buf)])
			n := 0
			if err == nil {
				if max := len(str.Data) - 1; len(u) > max {
					u = u[:max]
				}
				n = copy(str.Data, u)
			}
			if n < len(str.Data) {
				str.Data[n] = 0
			}
			*result = wm.LResult(n)
		}

	case wm.EMGetLine:
		str, ok := lp.Obj.(*wm.WideBuffer)
		if !ok || len(str.Data) < 1 {
			return cb(hwnd, msg, wp, lp, result)
		}
		max := int(str.Data[0])
		buf := r.getAnsi(max * 2)
		if buf == nil {
			break
		}
		if len(buf) >= 2 {
			binary.LittleEndian.PutUint16(buf, uint16(max*2))
		}
		ret = cb(hwnd, msg, wp, wm.LParamObj(&wm.AnsiBuffer{Data: buf}), result)
		if *result != 0 {
			got := int(*result)
			if got > len(buf) {
				got = len(buf)
			}
			u, err := codepage.ToWide(acp, buf[:got])
			n := 0
			if err == nil {
				if len(u) > max {
					u = u[:max]
				}
				n = copy(str.Data, u)
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
		switch newmsg.Message {
		case wm.WMChar, wm.WMDeadChar, wm.WMSysChar, wm.WMSysDeadChar:
			newmsg.WParam = r.mapWParamCharWtoA(newmsg.WParam, 1)
		case wm.WMIMEChar:
			newmsg.WParam = r.mapWParamCharWtoA(newmsg.WParam, 2)
		}
		ret = cb(hwnd, msg, wp, wm.LParamObj(&newmsg), result)

	case wm.WMChar:
		// A wide char needing two narrow units is delivered as two calls, in
		// order, with lParam unchanged.
		b := codepage.EncodeChar(r.InputCP(), wm.LoWord(uint64(wp)))
		ret = cb(hwnd, msg, wm.WParam(b[0]), lp, result)
		if len(b) == 2 {
			ret = cb(hwnd, msg, wm.WParam(b[1]), lp, result)
		}

	case wm.WMCharToItem, wm.WMMenuChar, wm.WMDeadChar, wm.WMSysChar,
		wm.WMSysDeadChar, wm.EMSetPasswordChar:
		ret = cb(hwnd, msg, r.mapWParamCharWtoA(wp, 1), lp, result)

	case wm.WMIMEChar:
		ret = cb(hwnd, msg, r.mapWParamCharWtoA(wp, 2), lp, result)

	case wm.WMPaintClipboard, wm.WMSizeClipboard:
		r.noteUnported(msg)

	default:
		ret = cb(hwnd, msg, wp, lp, result)
	}

	if debug.Enabled(debug.ChanMsg) {
		debug.Tracef(debug.ChanMsg, "WtoA hwnd=%x msg=%x wp=%x ret=%x", hwnd, msg, uint64(wp), ret)
	}
	return ret
}
