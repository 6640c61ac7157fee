package tracking

import (
	"image"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/jackbeau/stagehand/internal/realworld"
	"github.com/jackbeau/stagehand/internal/reid"
	"github.com/jackbeau/stagehand/internal/stage"
	"github.com/jackbeau/stagehand/internal/vision"
)

type emptyCapture struct{ reads int }

func (c *emptyCapture) Read(m *gocv.Mat) bool {
	c.reads++
	return false
}

type fakeDetector struct {
	tracks []vision.Track
}

func (f *fakeDetector) Track(frame gocv.Mat) ([]vision.Track, error) {
	return f.tracks, nil
}

type fakeEncoder struct {
	vec vision.FeatureVector
}

func (f *fakeEncoder) Encode(crop gocv.Mat) (vision.FeatureVector, error) {
	return f.vec, nil
}

func testPlane(t *testing.T) *stage.Plane {
	t.Helper()
	plane, err := stage.NewPlane([4]stage.Point{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100}}, 10, 10)
	require.NoError(t, err)
	return plane
}

func TestRunStopsAfterFiveEmptyReads(t *testing.T) {
	cap := &emptyCapture{}
	certain := reid.New(t.TempDir(), &fakeEncoder{})
	uncertain := reid.New(t.TempDir(), &fakeEncoder{})

	p := New(Config{SaveInterval: 1, TrackedUserID: "alice"}, cap, &fakeDetector{}, &fakeEncoder{}, certain, uncertain, testPlane(t), &realworld.Cell{})

	err := p.Run(make(chan struct{}))
	assert.ErrorIs(t, err, ErrEmptyFeed)
	assert.Equal(t, 5, cap.reads)
}

type onceCapture struct{ served bool }

func (c *onceCapture) Read(m *gocv.Mat) bool {
	if c.served {
		return false
	}
	c.served = true
	frame := gocv.NewMatWithSize(100, 100, gocv.MatTypeCV8UC3)
	frame.CopyTo(m)
	frame.Close()
	return true
}

func TestProcessTrackWritesStagePointOnConsensusMatch(t *testing.T) {
	dir := t.TempDir()
	certain := reid.New(dir+"/certain", &fakeEncoder{})
	uncertain := reid.New(dir+"/uncertain", &fakeEncoder{})
	require.NoError(t, os.MkdirAll(dir+"/certain/alice", 0o755))
	require.NoError(t, certain.Load())
	require.NoError(t, uncertain.Load())

	vec := vision.FeatureVector{1, 2, 3}
	require.NoError(t, certain.Append("alice", gocv.NewMatWithSize(10, 10, gocv.MatTypeCV8UC3), vec))

	cell := &realworld.Cell{}
	p := New(Config{SaveInterval: 1, TrackedUserID: "alice"}, &onceCapture{}, &fakeDetector{
		tracks: []vision.Track{{ID: 1, Mask: vision.Mask{Points: rectPoints(10, 10, 50, 50)}}},
	}, &fakeEncoder{vec: vec}, certain, uncertain, testPlane(t), cell)

	frame := gocv.NewMatWithSize(100, 100, gocv.MatTypeCV8UC3)
	defer frame.Close()
	require.NoError(t, p.processFrame(frame))

	sample, ok := cell.Load()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now(), sample.At, time.Second)
}

func rectPoints(x1, y1, x2, y2 int) []image.Point {
	return []image.Point{{X: x1, Y: y1}, {X: x2, Y: y1}, {X: x2, Y: y2}, {X: x1, Y: y2}}
}
