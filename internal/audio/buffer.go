// Package audio implements the Ring Audio Buffer (C1): a fixed-width
// rolling PCM window fed by a dedicated capture callback, with
// non-destructive snapshotting of the newest N blocks in playback order.
package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gen2brain/malgo"
	"github.com/smallnest/ringbuffer"

	"github.com/jackbeau/stagehand/internal/conf"
	"github.com/jackbeau/stagehand/internal/errors"
	"github.com/jackbeau/stagehand/internal/logging"
)

const blockBytes = conf.AudioBlockSize * 2 // 16-bit samples

// warmBlocks is the number of blocks that make up the "best recent 10 s"
// window once the ring is warm (§3 AudioFrame).
func warmBlocks() int {
	return (conf.AudioSampleRate * conf.AudioWindowSecs) / conf.AudioBlockSize
}

// Buffer is the bounded FIFO of audio blocks backing C1. It is safe for
// concurrent Snapshot calls while the capture callback appends.
type Buffer struct {
	mu      sync.Mutex
	rb      *ringbuffer.RingBuffer
	log     *slog.Logger
	ctx     *malgo.AllocatedContext
	dev     *malgo.Device
	running atomic.Bool
	fatal   chan error

	deviceIndex  int
	debugDump    bool
	debugDumpDir string
}

// New constructs a Buffer sized to hold warmBlocks() blocks, for the input
// device at deviceIndex.
func New(deviceIndex int) *Buffer {
	capacity := warmBlocks() * blockBytes
	return &Buffer{
		rb:          ringbuffer.New(capacity),
		log:         logging.ForService("audio"),
		fatal:       make(chan error, 1),
		deviceIndex: deviceIndex,
	}
}

// Fatal reports unrecoverable device failures: a failed reconnection
// attempt after a hard close (§4.1).
func (b *Buffer) Fatal() <-chan error { return b.fatal }

// Start opens the capture device and begins appending blocks. A
// device-open failure is fatal and returned directly.
func (b *Buffer) Start(ctx context.Context) error {
	malgoCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return errors.New(err).
			Component("audio").
			Category(errors.CategoryDeviceUnavailable).
			Context("backend", runtime.GOOS).
			Build()
	}
	b.ctx = malgoCtx

	dev, err := b.openDevice(malgoCtx)
	if err != nil {
		_ = malgoCtx.Uninit()
		return err
	}
	b.dev = dev

	if err := dev.Start(); err != nil {
		dev.Uninit()
		_ = malgoCtx.Uninit()
		return errors.New(err).
			Component("audio").
			Category(errors.CategoryDeviceUnavailable).
			Build()
	}

	b.running.Store(true)
	go b.monitor(ctx)
	return nil
}

func (b *Buffer) openDevice(malgoCtx *malgo.AllocatedContext) (*malgo.Device, error) {
	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = conf.AudioSampleRate
	deviceConfig.PeriodSizeInFrames = conf.AudioBlockSize

	callbacks := malgo.DeviceCallbacks{
		Data: b.onData,
		Stop: b.onStop,
	}

	dev, err := malgo.InitDevice(malgoCtx.Context, deviceConfig, callbacks)
	if err != nil {
		return nil, errors.New(err).
			Component("audio").
			Category(errors.CategoryDeviceUnavailable).
			Context("device_index", b.deviceIndex).
			Build()
	}
	return dev, nil
}

// onData is malgo's capture callback; it forwards the block to Push.
func (b *Buffer) onData(_, input []byte, _ uint32) {
	b.Push(input)
}

// Push appends a block of raw little-endian S16 PCM to the ring, dropping
// the oldest block on overrun. Exposed alongside the live-capture path so
// recorded or synthetic PCM can be fed through the same ring (offline
// replay, tests).
func (b *Buffer) Push(input []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.rb.Free() < len(input) {
		discard := make([]byte, len(input)-b.rb.Free())
		if _, err := b.rb.Read(discard); err != nil {
			b.log.Warn("audio ring overrun, drop failed", "error", err)
		} else {
			b.log.Warn("audio ring overrun, dropped oldest block")
		}
	}
	if _, err := b.rb.Write(input); err != nil {
		b.log.Warn("audio ring write failed", "error", err)
	}
}

// onStop is called by malgo when the device stops unexpectedly (hard
// close). It attempts exactly one reconnection after a 500ms back-off,
// then reports fatal (§4.1, §7 DeviceUnavailable).
func (b *Buffer) onStop() {
	if !b.running.Load() {
		return
	}
	go func() {
		time.Sleep(500 * time.Millisecond)
		if !b.running.Load() || b.dev == nil {
			return
		}
		if err := b.dev.Start(); err != nil {
			b.reportFatal(errors.New(err).
				Component("audio").
				Category(errors.CategoryDeviceUnavailable).
				Context("operation", "reconnect").
				Build())
		}
	}()
}

func (b *Buffer) reportFatal(err error) {
	select {
	case b.fatal <- err:
	default:
	}
}

func (b *Buffer) monitor(ctx context.Context) {
	<-ctx.Done()
	_ = b.Stop()
}

// Stop halts capture and releases the device.
func (b *Buffer) Stop() error {
	if !b.running.CompareAndSwap(true, false) {
		return nil
	}
	if b.dev != nil {
		_ = b.dev.Stop()
		b.dev.Uninit()
		b.dev = nil
	}
	if b.ctx != nil {
		_ = b.ctx.Uninit()
		b.ctx = nil
	}
	return nil
}

// Snapshot returns a contiguous copy of the currently buffered samples, in
// playback (oldest-to-newest) order.
func (b *Buffer) Snapshot() []int16 {
	b.mu.Lock()
	raw := append([]byte(nil), b.rb.Bytes()...)
	b.mu.Unlock()

	samples := make([]int16, len(raw)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(raw[i*2:]))
	}
	b.maybeDumpDebugWAV(samples)
	return samples
}

// Len returns the number of buffered samples.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rb.Length() / 2
}

// Duration formats the buffered span as "MM:SS.mmm", matching the original
// capture tool's progress readout.
func (b *Buffer) Duration() string {
	samples := b.Len()
	seconds := float64(samples) / float64(conf.AudioSampleRate)
	minutes := int(seconds) / 60
	secs := seconds - float64(minutes*60)
	return fmt.Sprintf("%02d:%06.3f", minutes, secs)
}
