// Package ctlproto implements the control-plane RPC (§6) that lets the
// "stagehand" CLI start, stop, and query the two worker pipelines managed
// by the supervisor, over a local Unix domain socket framed with
// encoding/gob (no generic RPC compiler fits a four-verb control API, see
// DESIGN.md).
package ctlproto

import (
	"encoding/gob"
	"net"
)

// Verb names one control-plane operation (§6's RPC table).
type Verb string

const (
	VerbStartScriptPointer Verb = "StartSpeechToScriptPointer"
	VerbStopScriptPointer  Verb = "StopSpeechToScriptPointer"
	VerbStartPerformer     Verb = "StartPerformerTracker"
	VerbStopPerformer      Verb = "StopPerformerTracker"
	VerbGetStatuses        Verb = "GetStatuses"
	VerbAddMargin          Verb = "AddMargin"
	VerbPerformOCR         Verb = "PerformOCR"
)

// Request is the single gob-encoded envelope sent for every verb; unused
// fields are left zero.
type Request struct {
	Verb Verb

	// AddMargin/PerformOCR shape-only arguments (§6: "only their shapes").
	FilePath string
	Margin   float64
}

// Response is the single gob-encoded envelope returned for every verb.
type Response struct {
	Success bool
	Error   string

	// GetStatuses
	ScriptPointerStatus string
	PerformerStatus     string

	// AddMargin/PerformOCR
	FilePath string
}

// Dial connects to the supervisor's control socket.
func Dial(socketPath string) (*Conn, error) {
	c, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, err
	}
	return &Conn{conn: c, enc: gob.NewEncoder(c), dec: gob.NewDecoder(c)}, nil
}

// Conn is one gob-framed request/response round trip over a Unix socket.
type Conn struct {
	conn net.Conn
	enc  *gob.Encoder
	dec  *gob.Decoder
}

// Call sends req and blocks for the matching response.
func (c *Conn) Call(req Request) (Response, error) {
	if err := c.enc.Encode(req); err != nil {
		return Response{}, err
	}
	var resp Response
	if err := c.dec.Decode(&resp); err != nil {
		return Response{}, err
	}
	return resp, nil
}

// Close releases the underlying socket.
func (c *Conn) Close() error {
	return c.conn.Close()
}
