// internal/usersrv/proto.go
//
// Wire protocol between the runtime and the coordinator process. Every
// exchange is one request frame and one reply frame:
//
//	request:  [0]   = version (uint8) = 1
//	          [1]   = opcode  (uint8)
//	          [2:6] = bodyLen (uint32, big endian)
//	          [..]  = JSON body
//	reply:    [0]   = version (uint8) = 1
//	          [1:5] = status  (uint32, big endian; 0 = ok, else error code)
//	          [5:9] = bodyLen (uint32, big endian)
//	          [..]  = JSON body (empty unless status == 0)
//
// With a sealed transport the body bytes are encrypted and the fixed header
// is bound as associated data.
package usersrv

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/OsbornePro/WinCore/internal/wm"
)

const (
	protoVersion = 1
	maxFrameBody = 64 * 1024
)

type Op uint8

const (
	OpSetTimer Op = iota + 1
	OpKillTimer
	OpGetThreadInput
	OpSetThreadInput
)

// Timer rate bounds, in milliseconds.
const (
	TimerMinimum    = 10
	TimerMaximum    = 0x7FFFFFFF
	SysTimerMinimum = 5
)

// GUI thread info flags.
const (
	GUICaretBlinking = 0x01
	GUIInMoveSize    = 0x02
	GUIInMenuMode    = 0x04
)

type Rect struct {
	Left   int32 `json:"l"`
	Top    int32 `json:"t"`
	Right  int32 `json:"r"`
	Bottom int32 `json:"b"`
}

type SetTimerReq struct {
	Win    wm.HWND `json:"win"`
	Msg    uint32  `json:"msg"`
	ID     uint64  `json:"id"`
	Rate   uint32  `json:"rate"`
	LParam uint64  `json:"lparam"`
}

type SetTimerReply struct {
	ID uint64 `json:"id"`
}

type KillTimerReq struct {
	Win wm.HWND `json:"win"`
	Msg uint32  `json:"msg"`
	ID  uint64  `json:"id"`
}

type GetThreadInputReq struct {
	TID uint32 `json:"tid"`
}

// ThreadInput is the per-thread input/focus state the coordinator tracks.
type ThreadInput struct {
	Active    wm.HWND `json:"active"`
	Focus     wm.HWND `json:"focus"`
	Capture   wm.HWND `json:"capture"`
	MenuOwner wm.HWND `json:"menu_owner"`
	MoveSize  wm.HWND `json:"move_size"`
	Caret     wm.HWND `json:"caret"`
	CaretRect Rect    `json:"caret_rect"`
}

type SetThreadInputReq struct {
	TID   uint32      `json:"tid"`
	Input ThreadInput `json:"input"`
}

func writeFrame(w io.Writer, op Op, body any, sealer *Sealer) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %d: %w", op, err)
	}
	hdr := []byte{protoVersion, byte(op), 0, 0, 0, 0}
	if sealer != nil {
		if b, err = sealer.Seal(b, hdr[:2]); err != nil {
			return err
		}
	}
	if len(b) > maxFrameBody {
		return fmt.Errorf("frame body too large (%d)", len(b))
	}
	binary.BigEndian.PutUint32(hdr[2:], uint32(len(b)))
	if _, err := w.Write(hdr); err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// rawFrame reads a frame body without decoding, for dispatch by opcode.
func rawFrame(r io.Reader, sealer *Sealer) (Op, []byte, error) {
	var hdr [6]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return 0, nil, err
	}
	if hdr[0] != protoVersion {
		return 0, nil, fmt.Errorf("unsupported frame version=%d", hdr[0])
	}
	op := Op(hdr[1])
	n := binary.BigEndian.Uint32(hdr[2:])
	if n > maxFrameBody {
		return 0, nil, fmt.Errorf("frame body too large (%d)", n)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return 0, nil, err
	}
	if sealer != nil {
		var err error
		if b, err = sealer.Open(b, []byte{hdr[0], hdr[1]}); err != nil {
			return 0, nil, err
		}
	}
	return op, b, nil
}

func decodeBody(b []byte, v any) error {
	return json.Unmarshal(b, v)
}

func writeReply(w io.Writer, status uint32, body any, sealer *Sealer) error {
	var b []byte
	if status == 0 && body != nil {
		var err error
		if b, err = json.Marshal(body); err != nil {
			return fmt.Errorf("encode reply: %w", err)
		}
	}
	hdr := make([]byte, 9)
	hdr[0] = protoVersion
	binary.BigEndian.PutUint32(hdr[1:], status)
	if sealer != nil && len(b) > 0 {
		var err error
		if b, err = sealer.Seal(b, hdr[:5]); err != nil {
			return err
		}
	}
	binary.BigEndian.PutUint32(hdr[5:], uint32(len(b)))
	if _, err := w.Write(hdr); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

func readReply(r io.Reader, body any, sealer *Sealer) (uint32, error) {
	hdr := make([]byte, 9)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return 0, err
	}
	if hdr[0] != protoVersion {
		return 0, fmt.Errorf("unsupported reply version=%d", hdr[0])
	}
	status := binary.BigEndian.Uint32(hdr[1:])
	n := binary.BigEndian.Uint32(hdr[5:])
	if n > maxFrameBody {
		return 0, fmt.Errorf("reply body too large (%d)", n)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return 0, err
	}
	if status == 0 && body != nil && len(b) > 0 {
		if sealer != nil {
			var err error
			if b, err = sealer.Open(b, hdr[:5]); err != nil {
				return 0, err
			}
		}
		if err := json.Unmarshal(b, body); err != nil {
			return 0, fmt.Errorf("decode reply: %w", err)
		}
	}
	return status, nil
}
