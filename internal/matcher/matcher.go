// Package matcher implements the Windowed Matcher (C3): given a transcribed
// fragment, it locates the best-matching script chunk inside a sliding
// window and falls back to a global rescan on repeated failure.
package matcher

import (
	"strings"
	"sync"
	"sync/atomic"

	"github.com/jackbeau/stagehand/internal/conf"
	"github.com/jackbeau/stagehand/internal/logging"
	"github.com/jackbeau/stagehand/internal/script"
)

// Pointer is the most recent script position estimate (§3).
type Pointer struct {
	Page      int
	Y         float64
	ChunkID   uint64
	ChunkText string
	InputLine string
	Score     int
}

// Window is the matcher's mutable view into the chunk sequence, plus the
// failure-tracking state that drives the global rescan fallback.
type Window struct {
	mu    sync.Mutex
	idx   *script.Index
	audit *auditLog
	log   interface {
		Warn(string, ...any)
		Error(string, ...any)
	}

	start, end            int
	failedAttempts        int
	failedTranscriptions  []string
	lastInput             string
	globalInflight        atomic.Bool
}

// NewWindow builds a matcher over idx, starting at chunk 0, with its audit
// trail written to auditPath. auditPath may be empty to disable auditing.
func NewWindow(idx *script.Index, auditPath string) (*Window, error) {
	w := &Window{
		idx: idx,
		log: logging.ForService("matcher"),
	}
	w.end = min(conf.MatcherWindowSize, idx.Len())

	if auditPath != "" {
		a, err := newAuditLog(auditPath)
		if err != nil {
			return nil, err
		}
		w.audit = a
	}
	return w, nil
}

// Close releases the audit log file, if any.
func (w *Window) Close() error {
	if w.audit != nil {
		return w.audit.Close()
	}
	return nil
}

// Search implements §4.3's search(target). It never returns an error: the
// absence of a match is represented by a nil Pointer.
func (w *Window) Search(target string) *Pointer {
	w.mu.Lock()
	defer w.mu.Unlock()

	if target == "" || target == w.lastInput {
		return nil
	}
	w.lastInput = target

	if w.idx.Len() == 0 {
		return nil
	}

	normalized := script.Normalize(target)
	tokens := strings.Fields(normalized)

	bestID, bestScore, ok := w.bestInWindow(tokens)
	if !ok {
		return nil
	}

	best := w.idx.Chunk(bestID)
	w.logAudit("local", bestScore, target, best.Text(), best.LastPage)

	pointer := &Pointer{
		Page:      best.LastPage,
		Y:         best.LastY,
		ChunkID:   best.ID,
		ChunkText: best.Text(),
		InputLine: target,
		Score:     bestScore,
	}

	if bestScore > conf.MatcherLowerThreshold {
		w.adjustWindow(int(best.ID))
		if bestScore >= conf.MatcherUpperThreshold {
			w.failedAttempts = 0
			w.failedTranscriptions = nil
		}
		return pointer
	}

	w.failedAttempts++
	w.failedTranscriptions = append(w.failedTranscriptions, target)
	if w.failedAttempts >= conf.MatcherMaxFailedAttempts && w.globalInflight.CompareAndSwap(false, true) {
		failed := append([]string(nil), w.failedTranscriptions...)
		go w.runGlobalSearch(failed)
	}
	return pointer
}

// bestInWindow scores every chunk in [start, end) against tokens and
// returns the highest-scoring chunk id.
func (w *Window) bestInWindow(tokens []string) (id uint64, score int, ok bool) {
	tPrime := tokens
	if len(tokens) > conf.ChunkSize {
		tPrime = tokens[:conf.ChunkSize]
	}
	candidate := strings.Join(tPrime, " ")

	best := -1
	var bestChunk script.Chunk
	for i := w.start; i < w.end; i++ {
		c := w.idx.Chunk(i)
		s := tokenSetRatio(c.Text(), candidate)
		if s > best {
			best = s
			bestChunk = c
		}
	}
	if best < 0 {
		return 0, 0, false
	}
	return bestChunk.ID, best, true
}

// adjustWindow recentres the window on the best match, per §4.3 step 5.
func (w *Window) adjustWindow(bestID int) {
	w.start = max(0, bestID-conf.MatcherWindowSize)
	w.end = min(w.idx.Len(), bestID+conf.MatcherWindowSize)
}

func (w *Window) logAudit(searchType string, score int, target, chunkText string, page int) {
	if w.audit == nil {
		return
	}
	if err := w.audit.write(searchType, score, target, chunkText, page); err != nil {
		w.log.Warn("matcher audit write failed", "error", err)
	}
}
