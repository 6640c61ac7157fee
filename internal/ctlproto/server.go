package ctlproto

import (
	"context"
	"encoding/gob"
	"log/slog"
	"net"
	"os"

	"github.com/jackbeau/stagehand/internal/logging"
	"github.com/jackbeau/stagehand/internal/supervisor"
)

// Controller is the subset of *supervisor.Supervisor the control-plane
// server needs; declared as an interface so server tests can substitute a
// fake supervisor.
type Controller interface {
	Start(ctx context.Context, kind supervisor.Kind) bool
	Stop(kind supervisor.Kind) bool
	Status() map[supervisor.Kind]supervisor.Status
}

// Server accepts control-plane connections on a Unix socket and dispatches
// each request to a Controller.
type Server struct {
	socketPath string
	ctrl       Controller
	log        *slog.Logger
}

// NewServer builds a control-plane server bound to socketPath.
func NewServer(socketPath string, ctrl Controller) *Server {
	return &Server{socketPath: socketPath, ctrl: ctrl, log: logging.ForService("ctlproto")}
}

// Serve listens on the configured socket until ctx is cancelled. A stale
// socket file from an unclean previous shutdown is removed first.
func (s *Server) Serve(ctx context.Context) error {
	_ = os.Remove(s.socketPath)

	ln, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return err
	}
	defer ln.Close()
	defer os.Remove(s.socketPath)

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		go s.handle(ctx, conn)
	}
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	dec := gob.NewDecoder(conn)
	enc := gob.NewEncoder(conn)

	var req Request
	if err := dec.Decode(&req); err != nil {
		return
	}

	resp := s.dispatch(ctx, req)
	if err := enc.Encode(resp); err != nil {
		s.log.Warn("failed to encode control-plane response", "error", err)
	}
}

func (s *Server) dispatch(ctx context.Context, req Request) Response {
	switch req.Verb {
	case VerbStartScriptPointer:
		return Response{Success: s.ctrl.Start(ctx, supervisor.ScriptPointer)}
	case VerbStopScriptPointer:
		return Response{Success: s.ctrl.Stop(supervisor.ScriptPointer)}
	case VerbStartPerformer:
		return Response{Success: s.ctrl.Start(ctx, supervisor.PerformerTracker)}
	case VerbStopPerformer:
		return Response{Success: s.ctrl.Stop(supervisor.PerformerTracker)}
	case VerbGetStatuses:
		statuses := s.ctrl.Status()
		return Response{
			Success:             true,
			ScriptPointerStatus: string(statuses[supervisor.ScriptPointer]),
			PerformerStatus:     string(statuses[supervisor.PerformerTracker]),
		}
	case VerbAddMargin, VerbPerformOCR:
		// Shape-only stubs (§6): echo the file path back without doing any
		// real PDF work.
		return Response{Success: true, FilePath: req.FilePath}
	default:
		return Response{Success: false, Error: "unknown verb"}
	}
}
