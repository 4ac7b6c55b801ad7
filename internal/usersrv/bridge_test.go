package usersrv

import (
	"net"
	"testing"

	"github.com/OsbornePro/WinCore/internal/winobj"
	"github.com/OsbornePro/WinCore/internal/winproc"
	"github.com/OsbornePro/WinCore/internal/wm"
)

func newBridge(t *testing.T, sealed bool) (*Server, *Client) {
	t.Helper()
	var sealer *Sealer
	if sealed {
		var err error
		sealer, err = NewSealer([]byte("test-token"))
		if err != nil {
			t.Fatalf("NewSealer failed: %v", err)
		}
	}
	srv := NewServer(sealer)
	sc, cc := net.Pipe()
	go srv.handleConn(sc)
	cl := NewClient(cc, sealer)
	t.Cleanup(func() { cl.Close(); sc.Close() })
	return srv, cl
}

func TestWindowlessTimerAssignsID(t *testing.T) {
	_, c := newBridge(t, false)

	var reply SetTimerReply
	status, err := c.Call(OpSetTimer, &SetTimerReq{Msg: wm.WMTimer, Rate: 100}, &reply)
	if err != nil || status != 0 {
		t.Fatalf("Call = (%d, %v)", status, err)
	}
	if reply.ID == 0 {
		t.Fatal("no timer ID assigned")
	}

	var second SetTimerReply
	if _, err := c.Call(OpSetTimer, &SetTimerReq{Msg: wm.WMTimer, Rate: 100}, &second); err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if second.ID == reply.ID {
		t.Fatalf("timer ID %d reused", reply.ID)
	}
}

func TestWindowTimerKeepsCallerID(t *testing.T) {
	srv, c := newBridge(t, false)

	var reply SetTimerReply
	status, err := c.Call(OpSetTimer, &SetTimerReq{Win: 0x10004, Msg: wm.WMTimer, ID: 7, Rate: 50}, &reply)
	if err != nil || status != 0 {
		t.Fatalf("Call = (%d, %v)", status, err)
	}
	if reply.ID != 7 {
		t.Fatalf("reply ID = %d, want 7", reply.ID)
	}
	if srv.TimerCount() != 1 {
		t.Fatalf("TimerCount = %d, want 1", srv.TimerCount())
	}

	// resetting the same timer replaces, not duplicates
	if _, err := c.Call(OpSetTimer, &SetTimerReq{Win: 0x10004, Msg: wm.WMTimer, ID: 7, Rate: 200}, &reply); err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if srv.TimerCount() != 1 {
		t.Fatalf("TimerCount = %d after reset, want 1", srv.TimerCount())
	}
}

func TestKillTimer(t *testing.T) {
	srv, c := newBridge(t, false)

	var reply SetTimerReply
	if _, err := c.Call(OpSetTimer, &SetTimerReq{Win: 0x10004, Msg: wm.WMTimer, ID: 3, Rate: 50}, &reply); err != nil {
		t.Fatalf("Call failed: %v", err)
	}

	status, err := c.Call(OpKillTimer, &KillTimerReq{Win: 0x10004, Msg: wm.WMTimer, ID: 3}, nil)
	if err != nil || status != 0 {
		t.Fatalf("kill = (%d, %v)", status, err)
	}
	if srv.TimerCount() != 0 {
		t.Fatalf("TimerCount = %d after kill", srv.TimerCount())
	}

	status, err = c.Call(OpKillTimer, &KillTimerReq{Win: 0x10004, Msg: wm.WMTimer, ID: 3}, nil)
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if status != wm.ErrorInvalidParameter {
		t.Fatalf("double kill status = %d, want %d", status, wm.ErrorInvalidParameter)
	}
}

func TestTimerRateClamping(t *testing.T) {
	srv, c := newBridge(t, false)
	procs := winproc.NewRegistry()
	th := winobj.NewStore().NewThread()

	tests := []struct {
		name   string
		system bool
		rate   uint32
		want   uint32
	}{
		{"floor", false, 1, TimerMinimum},
		{"cap", false, 0xFFFFFFFF, TimerMaximum},
		{"in range", false, 250, 250},
		{"system floor", true, 1, SysTimerMinimum},
	}
	for i, tt := range tests {
		hwnd := wm.HWND(0x20000 + uint32(i)*4)
		var id uint64
		if tt.system {
			id = SetSystemTimer(c, procs, th, hwnd, 1, tt.rate, nil)
		} else {
			id = SetTimer(c, procs, th, hwnd, 1, tt.rate, nil)
		}
		if id == 0 {
			t.Fatalf("%s: SetTimer failed, last error %d", tt.name, th.LastError())
		}

		msg := uint32(wm.WMTimer)
		if tt.system {
			msg = wm.WMSysTimer
		}
		srv.mu.Lock()
		entry := srv.timers[timerKey{hwnd, msg, 1}]
		srv.mu.Unlock()
		if entry == nil {
			t.Fatalf("%s: timer not stored", tt.name)
		}
		if entry.rate != tt.want {
			t.Errorf("%s: stored rate = %d, want %d", tt.name, entry.rate, tt.want)
		}
	}
}

func TestTimerCallbackStaysLocal(t *testing.T) {
	srv, c := newBridge(t, false)
	procs := winproc.NewRegistry()
	th := winobj.NewStore().NewThread()

	fn := func(hwnd wm.HWND, msg uint32, wp wm.WParam, lp wm.LParam) wm.LResult { return 0 }
	id := SetTimer(c, procs, th, 0, 0, 100, fn)
	if id == 0 {
		t.Fatalf("SetTimer failed, last error %d", th.LastError())
	}
	if procs.Count() != 1 {
		t.Fatalf("proc table entries = %d, want 1", procs.Count())
	}

	srv.mu.Lock()
	entry := srv.timers[timerKey{0, wm.WMTimer, id}]
	srv.mu.Unlock()
	if entry == nil {
		t.Fatal("timer not stored")
	}
	// the payload is the proc handle, resolvable back to the callback
	ref := wm.ProcRef{ID: wm.ProcID(entry.lparam)}
	if procs.Resolve(ref) == nil {
		t.Fatalf("payload %#x does not resolve in the proc table", entry.lparam)
	}
}

func TestThreadInputRoundTrip(t *testing.T) {
	_, c := newBridge(t, false)
	th := winobj.NewStore().NewThread()

	// unknown thread is an error, not empty state
	if _, ok := GetGUIThreadInfo(c, th, 999); ok {
		t.Fatal("query for unknown thread succeeded")
	}
	if th.LastError() != wm.ErrorInvalidThreadID {
		t.Fatalf("last error = %d, want %d", th.LastError(), wm.ErrorInvalidThreadID)
	}

	in := ThreadInput{
		Active:    0x10004,
		Focus:     0x10008,
		MenuOwner: 0x1000C,
		Caret:     0x10010,
		CaretRect: Rect{Left: 1, Top: 2, Right: 30, Bottom: 18},
	}
	if !PublishThreadInput(c, th, in) {
		t.Fatal("PublishThreadInput failed")
	}

	info, ok := GetGUIThreadInfo(c, th, th.ID())
	if !ok {
		t.Fatalf("GetGUIThreadInfo failed, last error %d", th.LastError())
	}
	if info.Input != in {
		t.Fatalf("state = %+v, want %+v", info.Input, in)
	}
	wantFlags := uint32(GUIInMenuMode | GUICaretBlinking)
	if info.Flags != wantFlags {
		t.Fatalf("flags = %#x, want %#x", info.Flags, wantFlags)
	}
}

func TestSealedBridge(t *testing.T) {
	srv, c := newBridge(t, true)

	var reply SetTimerReply
	status, err := c.Call(OpSetTimer, &SetTimerReq{Msg: wm.WMTimer, Rate: 100}, &reply)
	if err != nil || status != 0 {
		t.Fatalf("sealed call = (%d, %v)", status, err)
	}
	if reply.ID == 0 {
		t.Fatal("no timer ID assigned over sealed transport")
	}
	if srv.TimerCount() != 1 {
		t.Fatalf("TimerCount = %d", srv.TimerCount())
	}
}

func TestSealerRejectsTampering(t *testing.T) {
	s, err := NewSealer([]byte("token-a"))
	if err != nil {
		t.Fatalf("NewSealer failed: %v", err)
	}

	sealed, err := s.Seal([]byte("payload"), []byte{1, 2})
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	plain, err := s.Open(sealed, []byte{1, 2})
	if err != nil || string(plain) != "payload" {
		t.Fatalf("Open = (%q, %v)", plain, err)
	}

	// wrong associated data
	if _, err := s.Open(sealed, []byte{9, 9}); err == nil {
		t.Fatal("Open accepted mismatched associated data")
	}

	// flipped ciphertext byte
	sealed[len(sealed)-1] ^= 0x01
	if _, err := s.Open(sealed, []byte{1, 2}); err == nil {
		t.Fatal("Open accepted a tampered payload")
	}

	// different token
	other, err := NewSealer([]byte("token-b"))
	if err != nil {
		t.Fatalf("NewSealer failed: %v", err)
	}
	sealed[len(sealed)-1] ^= 0x01 // restore
	if _, err := other.Open(sealed, []byte{1, 2}); err == nil {
		t.Fatal("Open accepted a payload sealed under another token")
	}
}
