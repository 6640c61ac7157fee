package scriptpointer

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jackbeau/stagehand/internal/asr"
	"github.com/jackbeau/stagehand/internal/audio"
	"github.com/jackbeau/stagehand/internal/conf"
	"github.com/jackbeau/stagehand/internal/matcher"
	"github.com/jackbeau/stagehand/internal/mqtt"
	"github.com/jackbeau/stagehand/internal/script"
)

type fakeEngine struct {
	text string
	err  error
}

func (f *fakeEngine) Transcribe(pcm []int16) ([]asr.Segment, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []asr.Segment{{Text: f.text}}, nil
}

type fakePublisher struct {
	published []struct {
		topic   string
		payload []byte
		retain  bool
	}
}

func (f *fakePublisher) Connect(ctx context.Context) error { return nil }
func (f *fakePublisher) Publish(ctx context.Context, topic string, payload []byte, retain bool) error {
	f.published = append(f.published, struct {
		topic   string
		payload []byte
		retain  bool
	}{topic, payload, retain})
	return nil
}
func (f *fakePublisher) Subscribe(topic string, handler mqtt.Handler) error { return nil }
func (f *fakePublisher) IsConnected() bool                                 { return true }
func (f *fakePublisher) Disconnect()                                       {}

func testIndex(t *testing.T) *script.Index {
	t.Helper()

	raw := `{"pages":[{"page_number":1,"fragments":[` +
		fragmentJSON("lorem lorem lorem lorem lorem lorem lorem lorem lorem lorem") + `,` +
		fragmentJSON("to be or not to be that is the question") + `,` +
		fragmentJSON("lorem lorem lorem lorem lorem lorem lorem lorem lorem lorem") + `,` +
		fragmentJSON("lorem lorem lorem lorem lorem lorem lorem lorem lorem lorem") +
		`]}]}`

	path := t.TempDir() + "/script.json"
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))
	idx, err := script.Load(path)
	require.NoError(t, err)
	return idx
}

func fragmentJSON(text string) string {
	b, _ := json.Marshal(map[string]any{
		"text":   text,
		"bounds": map[string]float64{"bottom": 100, "height": 20},
	})
	return string(b)
}

func TestPipelinePublishesOnMatch(t *testing.T) {
	idx := testIndex(t)
	window, err := matcher.NewWindow(idx, "")
	require.NoError(t, err)

	buf := audio.New(0)
	block := make([]byte, conf.AudioBlockSize*2)
	for i := 0; i < conf.AudioBlockSize; i++ {
		binary.LittleEndian.PutUint16(block[i*2:], 0)
	}
	buf.Push(block)

	engine := &fakeEngine{text: "to be or not to be that is the question"}
	pub := &fakePublisher{}

	p := New(buf, engine, window, pub, 10*time.Millisecond)
	p.iterate(context.Background())

	require.Len(t, pub.published, 1)
	assert.Equal(t, "local_server/tracker/position", pub.published[0].topic)
	assert.True(t, pub.published[0].retain)

	var decoded position
	require.NoError(t, json.Unmarshal(pub.published[0].payload, &decoded))
	assert.Equal(t, 1, decoded.PageNumber)
	assert.Contains(t, decoded.ChunkText, "to be or not to be")
}

func TestPipelineSkipsWhenTranscriptEmpty(t *testing.T) {
	idx := testIndex(t)
	window, err := matcher.NewWindow(idx, "")
	require.NoError(t, err)

	buf := audio.New(0)
	buf.Push(make([]byte, conf.AudioBlockSize*2))

	engine := &fakeEngine{text: ""}
	pub := &fakePublisher{}

	p := New(buf, engine, window, pub, 10*time.Millisecond)
	p.iterate(context.Background())

	assert.Empty(t, pub.published)
}

func TestPipelineSkipsOnTranscriptionError(t *testing.T) {
	idx := testIndex(t)
	window, err := matcher.NewWindow(idx, "")
	require.NoError(t, err)

	buf := audio.New(0)
	buf.Push(make([]byte, conf.AudioBlockSize*2))

	engine := &fakeEngine{err: assert.AnError}
	pub := &fakePublisher{}

	p := New(buf, engine, window, pub, 10*time.Millisecond)
	p.iterate(context.Background())

	assert.Empty(t, pub.published)
}
