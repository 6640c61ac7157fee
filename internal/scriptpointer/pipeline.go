// Package scriptpointer implements the Script-Pointer Pipeline (C4): it
// ties the ring audio buffer, an ASR engine, the windowed matcher, and the
// publish/subscribe client into one per-snapshot iteration.
package scriptpointer

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/jackbeau/stagehand/internal/asr"
	"github.com/jackbeau/stagehand/internal/audio"
	"github.com/jackbeau/stagehand/internal/logging"
	"github.com/jackbeau/stagehand/internal/matcher"
	"github.com/jackbeau/stagehand/internal/metrics"
	"github.com/jackbeau/stagehand/internal/mqtt"
)

const positionTopic = "local_server/tracker/position"

// position is the wire payload published to positionTopic (§6).
type position struct {
	PageNumber      int     `json:"page_number"`
	YCoordinate     float64 `json:"y_coordinate"`
	ChunkIndex      uint64  `json:"chunk_index"`
	ChunkText       string  `json:"chunk_text"`
	InputLine       string  `json:"input_line"`
	SimilarityScore int     `json:"similarity_score"`
}

// Pipeline runs the snapshot -> transcribe -> match -> publish loop.
type Pipeline struct {
	buffer  *audio.Buffer
	engine  asr.Engine
	window  *matcher.Window
	client  mqtt.Client
	period  time.Duration
	log     *slog.Logger
	running bool
	metrics *metrics.ScriptPointer
}

// New constructs a pipeline over an already-started buffer and connected
// client.
func New(buffer *audio.Buffer, engine asr.Engine, window *matcher.Window, client mqtt.Client, period time.Duration) *Pipeline {
	return &Pipeline{
		buffer: buffer,
		engine: engine,
		window: window,
		client: client,
		period: period,
		log:    logging.ForService("scriptpointer"),
	}
}

// WithMetrics attaches a metric set; nil leaves metrics disabled.
func (p *Pipeline) WithMetrics(m *metrics.ScriptPointer) *Pipeline {
	p.metrics = m
	return p
}

// Run iterates at the configured period until stop is closed. Each
// iteration runs synchronously on the ticker goroutine: if a transcription
// takes longer than period, the next tick is simply skipped rather than
// queued, per §4.4's no-internal-buffering rule.
func (p *Pipeline) Run(ctx context.Context, stop <-chan struct{}) {
	ticker := time.NewTicker(p.period)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.iterate(ctx)
		}
	}
}

func (p *Pipeline) iterate(ctx context.Context) {
	start := time.Now()
	if p.metrics != nil {
		defer func() { p.metrics.TickDuration.Observe(time.Since(start).Seconds()) }()
	}

	samples := p.buffer.Snapshot()
	if len(samples) == 0 {
		return
	}

	segments, err := p.engine.Transcribe(samples)
	if err != nil {
		p.log.Warn("transcription failed", "error", err)
		if p.metrics != nil {
			p.metrics.TranscribeErrors.Inc()
		}
		return
	}

	text := joinSegments(segments)
	if text == "" {
		return
	}

	ptr := p.window.Search(text)
	if ptr == nil {
		return
	}

	if p.metrics != nil {
		p.metrics.MatchScore.Observe(float64(ptr.Score))
	}
	p.publish(ctx, ptr)
}

func (p *Pipeline) publish(ctx context.Context, ptr *matcher.Pointer) {
	payload, err := json.Marshal(position{
		PageNumber:      ptr.Page,
		YCoordinate:     ptr.Y,
		ChunkIndex:      ptr.ChunkID,
		ChunkText:       ptr.ChunkText,
		InputLine:       ptr.InputLine,
		SimilarityScore: ptr.Score,
	})
	if err != nil {
		p.log.Error("marshal pointer failed", "error", err)
		return
	}

	if err := p.client.Publish(ctx, positionTopic, payload, true); err != nil {
		p.log.Warn("publish pointer failed", "error", err)
		return
	}
	if p.metrics != nil {
		p.metrics.PointersPublished.Inc()
	}
}

func joinSegments(segments []asr.Segment) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if s.Text != "" {
			parts = append(parts, s.Text)
		}
	}
	return strings.Join(parts, " ")
}
