package matcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackbeau/stagehand/internal/script"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testScript(t *testing.T) *script.Index {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "script.json")
	content := `{
		"pages": [
			{"page_number": 1, "fragments": [
				{"text": "filler padding text one two three four five six seven", "bounds": {"bottom": 10, "height": 2}},
				{"text": "to be or not to be that is the question", "bounds": {"bottom": 20, "height": 2}},
				{"text": "eight nine ten eleven twelve thirteen fourteen fifteen sixteen seventeen", "bounds": {"bottom": 30, "height": 2}},
				{"text": "eighteen nineteen twenty twentyone twentytwo twentythree twentyfour twentyfive twentysix twentyseven", "bounds": {"bottom": 40, "height": 2}}
			]}
		]
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	idx, err := script.Load(path)
	require.NoError(t, err)
	require.Greater(t, idx.Len(), 0)
	return idx
}

func TestSearchReturnsNilForEmptyInput(t *testing.T) {
	idx := testScript(t)
	w, err := NewWindow(idx, "")
	require.NoError(t, err)
	assert.Nil(t, w.Search(""))
}

func TestSearchSuppressesDuplicateInput(t *testing.T) {
	idx := testScript(t)
	w, err := NewWindow(idx, "")
	require.NoError(t, err)

	first := w.Search("same input line")
	assert.NotNil(t, first)
	failedBefore := w.failedAttempts

	second := w.Search("same input line")
	assert.Nil(t, second)
	assert.Equal(t, failedBefore, w.failedAttempts)
}

func TestSearchFindsMatchingChunk(t *testing.T) {
	idx := testScript(t)
	w, err := NewWindow(idx, "")
	require.NoError(t, err)

	p := w.Search("to be or not to be that is the question")
	require.NotNil(t, p)
	assert.Contains(t, p.ChunkText, "to be or not to be")
	assert.GreaterOrEqual(t, p.Score, 60)
}

func TestWindowAdjustmentStaysInBounds(t *testing.T) {
	idx := testScript(t)
	w, err := NewWindow(idx, "")
	require.NoError(t, err)

	p := w.Search("to be or not to be that is the question")
	require.NotNil(t, p)
	assert.GreaterOrEqual(t, w.start, 0)
	assert.LessOrEqual(t, w.end, idx.Len())
	assert.True(t, int(p.ChunkID) >= w.start && int(p.ChunkID) < w.end)
}

func TestGlobalRescanTriggersAfterFiveFailures(t *testing.T) {
	idx := testScript(t)
	w, err := NewWindow(idx, "")
	require.NoError(t, err)

	// Pin the window away from the matching text so repeated weak inputs fail.
	w.start, w.end = 0, 1

	for i := 0; i < 5; i++ {
		input := "completely unrelated gibberish input number " + string(rune('a'+i))
		w.Search(input)
	}

	assert.Eventually(t, func() bool {
		return !w.globalInflight.Load()
	}, time.Second, 10*time.Millisecond)
}
