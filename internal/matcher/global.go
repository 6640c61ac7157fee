package matcher

import (
	"strings"

	"github.com/jackbeau/stagehand/internal/conf"
)

// runGlobalSearch implements §4.3.1: it scans the whole chunk sequence in
// overlapping windows, scores every failed transcription against each
// window by its best partial-token-sort ratio, and replaces the matcher
// window with the highest-scoring window that has at least
// conf.GlobalRescanMinMatches transcriptions at or above the upper
// threshold. It is launched single-flight from Search and always clears
// globalInflight on return.
func (w *Window) runGlobalSearch(failed []string) {
	defer w.globalInflight.Store(false)

	chunks := w.idx.Chunks()
	n := len(chunks)
	if n == 0 || len(failed) == 0 {
		return
	}

	const windowSize = 2 * conf.MatcherWindowSize
	stride := windowSize / 2
	if stride < 1 {
		stride = 1
	}

	bestSum := -1
	bestStart, bestEnd := -1, -1

	for start := 0; start < n; start += stride {
		end := min(n, start+windowSize)
		span := chunks[start:end]

		sum := 0
		count := 0
		for _, ft := range failed {
			best := 0
			for _, c := range span {
				if s := partialTokenSortRatio(c.Text(), ft); s > best {
					best = s
				}
			}
			sum += best
			if best >= conf.MatcherUpperThreshold {
				count++
			}
		}

		if count >= conf.GlobalRescanMinMatches && sum > bestSum {
			bestSum = sum
			bestStart, bestEnd = start, end
		}
		if end == n {
			break
		}
	}

	if bestStart < 0 {
		return
	}

	w.mu.Lock()
	w.start, w.end = bestStart, bestEnd
	w.failedAttempts = 0
	w.failedTranscriptions = nil
	w.mu.Unlock()

	w.logAudit("global", bestSum, strings.Join(failed, "|"), "", 0)
}
