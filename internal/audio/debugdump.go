package audio

import (
	"os"
	"path/filepath"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/jackbeau/stagehand/internal/conf"
)

// WithDebugDump enables writing every Snapshot's PCM to a timestamped WAV
// file under dir, for offline inspection of what the ASR engine actually
// saw (§4.1's debug hook).
func (b *Buffer) WithDebugDump(enabled bool, dir string) *Buffer {
	b.debugDump = enabled
	b.debugDumpDir = dir
	return b
}

func (b *Buffer) maybeDumpDebugWAV(samples []int16) {
	if !b.debugDump || len(samples) == 0 {
		return
	}
	if err := b.dumpWAV(samples); err != nil {
		b.log.Warn("debug WAV dump failed", "error", err)
	}
}

func (b *Buffer) dumpWAV(samples []int16) error {
	if err := os.MkdirAll(b.debugDumpDir, 0o755); err != nil {
		return err
	}

	path := filepath.Join(b.debugDumpDir, time.Now().Format("snapshot-20060102-150405.000")+".wav")
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := wav.NewEncoder(f, conf.AudioSampleRate, 16, 1, 1)
	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}
	buf := &audio.IntBuffer{
		Data:   data,
		Format: &audio.Format{SampleRate: conf.AudioSampleRate, NumChannels: 1},
	}
	if err := enc.Write(buf); err != nil {
		return err
	}
	return enc.Close()
}
