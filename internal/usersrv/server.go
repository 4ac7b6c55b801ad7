// internal/usersrv/server.go
package usersrv

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/OsbornePro/WinCore/internal/debug"
	"github.com/OsbornePro/WinCore/internal/wm"
)

type timerKey struct {
	win wm.HWND
	msg uint32
	id  uint64
}

type timerEntry struct {
	rate   uint32
	lparam uint64
}

// Server is the coordinator side of the bridge. It owns the timer table and
// the per-thread input state that every client process shares.
type Server struct {
	log    *logrus.Entry
	sealer *Sealer

	mu          sync.Mutex
	timers      map[timerKey]*timerEntry
	input       map[uint32]*ThreadInput
	nextTimerID uint64
}

func NewServer(sealer *Sealer) *Server {
	return &Server{
		log:    logrus.WithField("component", "usersrv"),
		sealer: sealer,
		timers: make(map[timerKey]*timerEntry),
		input:  make(map[uint32]*ThreadInput),
	}
}

// Serve accepts connections on ln until ctx is done. Each connection is a
// stream of request frames answered in order.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-ctx.Done()
		return ln.Close()
	})
	g.Go(func() error {
		for {
			conn, err := ln.Accept()
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			g.Go(func() error {
				defer conn.Close()
				s.handleConn(conn)
				return nil
			})
		}
	})
	err := g.Wait()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

func (s *Server) handleConn(conn net.Conn) {
	r := bufio.NewReader(conn)
	for {
		op, body, err := rawFrame(r, s.sealer)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.log.WithError(err).Debug("connection dropped")
			}
			return
		}
		if err := s.handleRequest(conn, op, body); err != nil {
			s.log.WithError(err).Debug("reply failed")
			return
		}
	}
}

func (s *Server) handleRequest(w io.Writer, op Op, body []byte) error {
	switch op {
	case OpSetTimer:
		var req SetTimerReq
		if err := decodeBody(body, &req); err != nil {
			return writeReply(w, wm.ErrorInvalidParameter, nil, s.sealer)
		}
		reply := s.setTimer(&req)
		return writeReply(w, 0, reply, s.sealer)

	case OpKillTimer:
		var req KillTimerReq
		if err := decodeBody(body, &req); err != nil {
			return writeReply(w, wm.ErrorInvalidParameter, nil, s.sealer)
		}
		return writeReply(w, s.killTimer(&req), nil, s.sealer)

	case OpGetThreadInput:
		var req GetThreadInputReq
		if err := decodeBody(body, &req); err != nil {
			return writeReply(w, wm.ErrorInvalidParameter, nil, s.sealer)
		}
		reply, status := s.getThreadInput(req.TID)
		if status != 0 {
			return writeReply(w, status, nil, s.sealer)
		}
		return writeReply(w, 0, reply, s.sealer)

	case OpSetThreadInput:
		var req SetThreadInputReq
		if err := decodeBody(body, &req); err != nil {
			return writeReply(w, wm.ErrorInvalidParameter, nil, s.sealer)
		}
		s.setThreadInput(&req)
		return writeReply(w, 0, nil, s.sealer)
	}
	s.log.WithField("op", uint8(op)).Warn("unknown opcode")
	return writeReply(w, wm.ErrorInvalidParameter, nil, s.sealer)
}

func (s *Server) setTimer(req *SetTimerReq) *SetTimerReply {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := req.ID
	if req.Win == 0 && id == 0 {
		s.nextTimerID++
		id = s.nextTimerID
	}
	s.timers[timerKey{req.Win, req.Msg, id}] = &timerEntry{
		rate:   req.Rate,
		lparam: req.LParam,
	}
	debug.Tracef(debug.ChanTimer, "set timer win=%x msg=%x id=%d rate=%d", req.Win, req.Msg, id, req.Rate)
	return &SetTimerReply{ID: id}
}

func (s *Server) killTimer(req *KillTimerReq) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := timerKey{req.Win, req.Msg, req.ID}
	if _, ok := s.timers[k]; !ok {
		return wm.ErrorInvalidParameter
	}
	delete(s.timers, k)
	debug.Tracef(debug.ChanTimer, "kill timer win=%x msg=%x id=%d", req.Win, req.Msg, req.ID)
	return 0
}

func (s *Server) getThreadInput(tid uint32) (*ThreadInput, uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	in, ok := s.input[tid]
	if !ok {
		return nil, wm.ErrorInvalidThreadID
	}
	cp := *in
	return &cp, 0
}

func (s *Server) setThreadInput(req *SetThreadInputReq) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := req.Input
	s.input[req.TID] = &cp
}

// TimerCount reports live timers, for status reporting.
func (s *Server) TimerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}
