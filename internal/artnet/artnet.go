// Package artnet implements the Art-Net Emitter (C13): a named-channel DMX
// universe and its standard Art-Net/UDP wire encoding. No Art-Net/DMX
// library is carried by any example repo in the retrieval pack, so this is
// the one component built directly over the standard library's net and
// encoding/binary packages.
package artnet

import (
	"encoding/binary"
	"net"
	"sync"
	"time"

	"github.com/jackbeau/stagehand/internal/errors"
	"github.com/jackbeau/stagehand/internal/logging"
)

const (
	universeSize = 512
	opOutput     = 0x5000
	protoVerHi   = 0
	protoVerLo   = 14
)

var artNetID = [8]byte{'A', 'r', 't', '-', 'N', 'e', 't', 0}

// Channel is a named offset/width pair within a universe (pan, tilt,
// shutter, dimmer, ...).
type Channel struct {
	Name  string
	Start int
	Width int
}

// Universe holds the 512-byte DMX frame for one universe id and the named
// channel map addressing into it.
type Universe struct {
	mu       sync.Mutex
	id       uint16
	data     [universeSize]byte
	channels map[string]Channel
	dirty    bool
}

// NewUniverse constructs an empty universe with the given channel map.
func NewUniverse(id uint16, channels []Channel) *Universe {
	m := make(map[string]Channel, len(channels))
	for _, c := range channels {
		m[c.Name] = c
	}
	return &Universe{id: id, channels: m}
}

// Set writes values into the named channel's slice [start, start+width).
// Values shorter than width zero-pad the remainder; longer values are
// truncated to width.
func (u *Universe) Set(name string, values ...byte) {
	u.mu.Lock()
	defer u.mu.Unlock()
	ch, ok := u.channels[name]
	if !ok {
		return
	}
	for i := 0; i < ch.Width; i++ {
		if i < len(values) {
			u.data[ch.Start+i] = values[i]
		} else {
			u.data[ch.Start+i] = 0
		}
	}
	u.dirty = true
}

// snapshot returns a copy of the current frame and clears the dirty flag.
func (u *Universe) snapshot() ([universeSize]byte, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	d := u.dirty
	u.dirty = false
	return u.data, d
}

// Peek returns the current frame without clearing the dirty flag, for
// inspection by callers that don't own the send loop (status reporting,
// tests).
func (u *Universe) Peek() [universeSize]byte {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.data
}

// Emitter sends ArtDMX packets over UDP to a single configured node,
// either on every change or on a fixed timer, whichever the caller
// selects (§4.13).
type Emitter struct {
	conn *net.UDPConn
	log  interface {
		Warn(string, ...any)
		Error(string, ...any)
	}
}

// NewEmitter dials a UDP socket to host:port.
func NewEmitter(addr string) (*Emitter, error) {
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, errors.New(err).Component("artnet").Category(errors.CategoryNetwork).Build()
	}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, errors.New(err).Component("artnet").Category(errors.CategoryNetwork).Build()
	}
	return &Emitter{conn: conn, log: logging.ForService("artnet")}, nil
}

// Close releases the UDP socket.
func (e *Emitter) Close() error {
	return e.conn.Close()
}

// SendOnChange emits the universe's frame only if it has changed since the
// last send.
func (e *Emitter) SendOnChange(u *Universe) {
	data, dirty := u.snapshot()
	if !dirty {
		return
	}
	e.send(u.id, data)
}

// SendAlways emits the universe's current frame unconditionally, for
// timer-driven cadence.
func (e *Emitter) SendAlways(u *Universe) {
	data, _ := u.snapshot()
	e.send(u.id, data)
}

// RunTimer emits the universe's frame every tick until stop is closed.
func (e *Emitter) RunTimer(u *Universe, tick time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			e.SendAlways(u)
		}
	}
}

func (e *Emitter) send(universeID uint16, data [universeSize]byte) {
	packet := encode(universeID, data)
	if _, err := e.conn.Write(packet); err != nil {
		e.log.Warn("artnet send failed", "error", err)
	}
}

// encode builds a standard ArtDMX packet: 8-byte "Art-Net\0" id, opcode
// 0x5000 (little-endian on the wire), protocol version (big-endian),
// sequence/physical bytes (unused, zero), universe (little-endian),
// length (big-endian), then the 512-byte DMX payload.
func encode(universe uint16, data [universeSize]byte) []byte {
	buf := make([]byte, 18+universeSize)
	copy(buf[0:8], artNetID[:])
	binary.LittleEndian.PutUint16(buf[8:10], opOutput)
	buf[10] = protoVerHi
	buf[11] = protoVerLo
	buf[12] = 0 // sequence: disabled
	buf[13] = 0 // physical
	binary.LittleEndian.PutUint16(buf[14:16], universe)
	binary.BigEndian.PutUint16(buf[16:18], universeSize)
	copy(buf[18:], data[:])
	return buf
}
