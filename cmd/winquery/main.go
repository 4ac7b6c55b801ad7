// cmd/winquery/main.go
// Small diagnostic client for the coordinator bridge: registers and kills
// timers and inspects per-thread input state without a running window host.

package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"

	"github.com/zalando/go-keyring"

	"github.com/OsbornePro/WinCore/internal/usersrv"
	"github.com/OsbornePro/WinCore/internal/wm"
)

const (
	keyringService = "WinCore"
	keyringToken   = "bridgeAccessToken"
)

func die(msg string, err error) {
	fmt.Fprintln(os.Stderr, msg, err)
	os.Exit(1)
}

func main() {
	var (
		network = flag.String("network", "unix", "bridge network (unix or tcp)")
		addr    = flag.String("addr", "/run/wincored/bridge.sock", "bridge address")
		plain   = flag.String("plaintext", "", "set to 'yes' to skip frame sealing")
		win     = flag.Uint("win", 0, "window handle")
		id      = flag.Uint64("id", 0, "timer id")
		rate    = flag.Uint("rate", 1000, "timer rate in ms")
		tid     = flag.Uint("tid", 0, "thread id to query")
	)
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Println("Usage: winquery [flags] set-timer|kill-timer|thread-input")
		os.Exit(1)
	}

	var sealer *usersrv.Sealer
	if *plain != "yes" {
		s, err := keyring.Get(keyringService, keyringToken)
		if err != nil {
			die("No bridge token in keyring:", err)
		}
		tok, err := hex.DecodeString(s)
		if err != nil {
			die("Malformed bridge token:", err)
		}
		if sealer, err = usersrv.NewSealer(tok); err != nil {
			die("Transport init failed:", err)
		}
	}

	c, err := usersrv.Dial(*network, *addr, sealer)
	if err != nil {
		die("Bridge dial failed:", err)
	}
	defer c.Close()

	switch flag.Arg(0) {
	case "set-timer":
		req := usersrv.SetTimerReq{
			Win:  wm.HWND(*win),
			Msg:  wm.WMTimer,
			ID:   *id,
			Rate: uint32(*rate),
		}
		var reply usersrv.SetTimerReply
		status, err := c.Call(usersrv.OpSetTimer, &req, &reply)
		if err != nil {
			die("Call failed:", err)
		}
		if status != 0 {
			fmt.Printf("set-timer rejected: error %d\n", status)
			os.Exit(1)
		}
		fmt.Printf("timer registered: id=%d\n", reply.ID)

	case "kill-timer":
		req := usersrv.KillTimerReq{Win: wm.HWND(*win), Msg: wm.WMTimer, ID: *id}
		status, err := c.Call(usersrv.OpKillTimer, &req, nil)
		if err != nil {
			die("Call failed:", err)
		}
		if status != 0 {
			fmt.Printf("kill-timer rejected: error %d\n", status)
			os.Exit(1)
		}
		fmt.Println("timer killed")

	case "thread-input":
		req := usersrv.GetThreadInputReq{TID: uint32(*tid)}
		var reply usersrv.ThreadInput
		status, err := c.Call(usersrv.OpGetThreadInput, &req, &reply)
		if err != nil {
			die("Call failed:", err)
		}
		if status != 0 {
			fmt.Printf("thread-input rejected: error %d\n", status)
			os.Exit(1)
		}
		fmt.Printf("active=%#x focus=%#x capture=%#x menu=%#x movesize=%#x caret=%#x\n",
			reply.Active, reply.Focus, reply.Capture, reply.MenuOwner, reply.MoveSize, reply.Caret)

	default:
		fmt.Println("unknown command:", flag.Arg(0))
		os.Exit(1)
	}
}
