package lamp

import (
	"math"
	"testing"
	"time"

	"github.com/jackbeau/stagehand/internal/artnet"
	"github.com/jackbeau/stagehand/internal/realworld"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAngleToDMXRangeIsClamped(t *testing.T) {
	assert.Equal(t, byte(0), AngleToDMX(-1000, 540))
	assert.Equal(t, byte(255), AngleToDMX(1000, 540))
}

func TestAngleToDMXBoundaryMapsToFullRange(t *testing.T) {
	assert.Equal(t, byte(0), AngleToDMX(-270, 540))
	assert.Equal(t, byte(255), AngleToDMX(270, 540))
}

func TestCalculatePanTiltMatchesScenarioS6(t *testing.T) {
	origin := Origin{X0: 0, Y0: 0, Z0: 5}
	target := realworld.Point{X: 1, Y: -3, Z: 0}

	pan, tilt := CalculatePanTilt(origin, target)

	wantPan := math.Atan2(-3, 1) * 180 / math.Pi
	wantTilt := math.Asin(-5/math.Sqrt(35)) * 180 / math.Pi

	assert.InDelta(t, wantPan, pan, 1e-9)
	assert.InDelta(t, wantTilt, tilt, 1e-9)

	panDMX := AngleToDMX(pan, 540)
	tiltDMX := AngleToDMX(tilt+90, 270)

	assert.Equal(t, byte(math.Round((wantPan+270)/540*255)), panDMX)
	assert.Equal(t, byte(math.Round((wantTilt+90+135)/270*255)), tiltDMX)
}

func TestStepHoldsOutputWhenStale(t *testing.T) {
	cell := &realworld.Cell{}
	cell.Store(realworld.Point{X: 1, Y: 1, Z: 0}, time.Now().Add(-time.Hour))

	universe := artnet.NewUniverse(0, []artnet.Channel{{Name: "pan", Start: 18, Width: 1}})
	emitter, err := artnet.NewEmitter("127.0.0.1:6454")
	require.NoError(t, err)
	defer emitter.Close()

	loop := New(Config{Freshness: time.Second, Tick: 100 * time.Millisecond}, cell, universe, emitter)
	loop.Step(time.Now())

	assert.Equal(t, byte(0), universe.Peek()[18])
}

func TestStepEmitsWhenFresh(t *testing.T) {
	cell := &realworld.Cell{}
	cell.Store(realworld.Point{X: 1, Y: 1, Z: 0}, time.Now())

	universe := artnet.NewUniverse(0, []artnet.Channel{
		{Name: "pan", Start: 18, Width: 1},
		{Name: "tilt", Start: 20, Width: 1},
		{Name: "shutter", Start: 1, Width: 1},
		{Name: "dimmer", Start: 2, Width: 1},
	})
	emitter, err := artnet.NewEmitter("127.0.0.1:6454")
	require.NoError(t, err)
	defer emitter.Close()

	loop := New(Config{
		Origin:      Origin{X0: 0, Y0: 0, Z0: 5},
		MaxPan:      540,
		MaxTilt:     270,
		StageHeight: 6,
		Freshness:   time.Second,
		Tick:        100 * time.Millisecond,
	}, cell, universe, emitter)
	loop.Step(time.Now())

	assert.Equal(t, byte(255), universe.Peek()[2]) // dimmer
	assert.Equal(t, byte(25), universe.Peek()[1])  // shutter
}
