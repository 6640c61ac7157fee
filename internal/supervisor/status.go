package supervisor

import (
	"encoding/json"
	"fmt"
	"io"
)

// Status is a worker's last known lifecycle state (§4.10).
type Status string

const (
	StatusStarting Status = "Starting"
	StatusRunning  Status = "Started"
	StatusStopped  Status = "Stopped"
	StatusFailed   Status = "Failed"
)

// statusLine is the JSON-lines shape a worker process writes to its stdout
// to report lifecycle transitions to the supervisor.
type statusLine struct {
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// WriteStatus is the worker-side counterpart of readStatusLines: it
// encodes one status line and flushes it with a trailing newline so the
// supervisor's bufio.Scanner sees it immediately.
func WriteStatus(w io.Writer, status Status, reason string) error {
	raw, err := json.Marshal(statusLine{Status: status, Reason: reason})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(raw))
	return err
}
