// Package supervisor implements the Process Supervisor (C10): it starts
// and stops each worker class as an isolated OS process and tracks each
// one's last reported lifecycle status, grounded on the ffmpeg subprocess
// manager's start/stop/status-channel shape generalized from managing a
// single external binary to managing this binary's own worker subcommands.
package supervisor

import (
	"context"
	"log/slog"
	"os/exec"
	"sync"
	"time"

	"github.com/jackbeau/stagehand/internal/logging"
)

// Kind identifies a worker class.
type Kind string

const (
	ScriptPointer    Kind = "script-pointer"
	PerformerTracker Kind = "performer-tracker"
)

// startAckTimeout bounds how long Start waits for a worker's first
// Started/Failed acknowledgement before treating the start as failed.
const startAckTimeout = 30 * time.Second

// Spawner builds the *exec.Cmd for one worker invocation. Production
// wiring self-execs the running binary with a hidden worker subcommand;
// tests substitute a trivial command.
type Spawner func(ctx context.Context, kind Kind) *exec.Cmd

// Supervisor owns the lifecycle of each worker kind.
type Supervisor struct {
	mu      sync.Mutex
	workers map[Kind]*worker
	spawn   Spawner
	log     *slog.Logger
}

// New constructs a supervisor that spawns workers via spawn.
func New(spawn Spawner) *Supervisor {
	return &Supervisor{
		workers: make(map[Kind]*worker),
		spawn:   spawn,
		log:     logging.ForService("supervisor"),
	}
}

// Start spawns kind if not already alive and awaits its first
// Started/Failed acknowledgement (§4.10).
func (s *Supervisor) Start(ctx context.Context, kind Kind) (success bool) {
	s.mu.Lock()
	if existing, ok := s.workers[kind]; ok {
		status, _ := existing.currentStatus()
		if status == StatusStarting || status == StatusRunning {
			s.mu.Unlock()
			return false
		}
	}
	s.mu.Unlock()

	w, err := startWorker(ctx, kind, func(wctx context.Context) *exec.Cmd {
		return s.spawn(wctx, kind)
	})
	if err != nil {
		s.log.Error("failed to spawn worker", "kind", kind, "error", err)
		return false
	}

	s.mu.Lock()
	s.workers[kind] = w
	s.mu.Unlock()

	status, reason, _ := w.awaitStatus(startAckTimeout)
	if status != StatusRunning {
		s.log.Error("worker failed to start", "kind", kind, "reason", reason)
		return false
	}
	return true
}

// Stop signals kind's worker to shut down and waits for its exit.
func (s *Supervisor) Stop(kind Kind) (success bool) {
	s.mu.Lock()
	w, ok := s.workers[kind]
	s.mu.Unlock()
	if !ok {
		return false
	}

	w.stop()
	return true
}

// Status snapshots the last known state of every worker kind (§6
// GetStatuses; "stp" and "pt" never fail, they report "Stopped" for a
// kind that was never started).
func (s *Supervisor) Status() map[Kind]Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := map[Kind]Status{
		ScriptPointer:    StatusStopped,
		PerformerTracker: StatusStopped,
	}
	for kind, w := range s.workers {
		status, _ := w.currentStatus()
		out[kind] = status
	}
	return out
}
