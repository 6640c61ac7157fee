// Package lamp implements the Lamp Control Loop (C9): on a fixed tick, it
// reads the latest stage-plane point, solves the pan/tilt angles, and
// drives an Art-Net universe. Arithmetic is grounded on the original
// light-control module's calculate_pan_tilt/angle_to_dmx functions.
package lamp

import (
	"math"
	"time"

	"github.com/jackbeau/stagehand/internal/artnet"
	"github.com/jackbeau/stagehand/internal/metrics"
	"github.com/jackbeau/stagehand/internal/realworld"
)

// Origin is the moving-head lamp's fixed position in stage metres.
type Origin struct {
	X0, Y0, Z0 float64
}

// Config carries the fixed parameters of one lamp loop instance.
type Config struct {
	Origin      Origin
	MaxPan      float64
	MaxTilt     float64
	StageHeight float64 // H_m, used to flip the image-plane y coordinate
	Freshness   time.Duration
	Tick        time.Duration
}

// Loop ties a RealWorldPoint cell to an Art-Net universe.
type Loop struct {
	cfg      Config
	cell     *realworld.Cell
	universe *artnet.Universe
	emitter  *artnet.Emitter
	metrics  *metrics.PerformerTracker
}

// New constructs a lamp loop reading from cell and writing to universe via
// emitter.
func New(cfg Config, cell *realworld.Cell, universe *artnet.Universe, emitter *artnet.Emitter) *Loop {
	return &Loop{cfg: cfg, cell: cell, universe: universe, emitter: emitter}
}

// WithMetrics attaches a metric set; nil leaves metrics disabled.
func (l *Loop) WithMetrics(m *metrics.PerformerTracker) *Loop {
	l.metrics = m
	return l
}

// Run ticks at cfg.Tick until stop is closed, applying one control step
// per tick.
func (l *Loop) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(l.cfg.Tick)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			l.Step(now)
		}
	}
}

// Step performs one control iteration: read, compute, emit. No
// interpolation is applied — the output is a pure function of the latest
// point (§4.9).
func (l *Loop) Step(now time.Time) {
	if l.metrics != nil {
		l.metrics.LampTicks.Inc()
	}

	sample, ok := l.cell.Load()
	if !ok || now.Sub(sample.At) > l.cfg.Freshness {
		return
	}

	target := realworld.Point{
		X: sample.Point.X,
		Y: l.cfg.StageHeight - sample.Point.Y,
		Z: 0,
	}

	pan, tilt := CalculatePanTilt(l.cfg.Origin, target)
	panDMX := AngleToDMX(pan, l.cfg.MaxPan)
	tiltDMX := AngleToDMX(tilt+90, l.cfg.MaxTilt)

	l.universe.Set("pan", panDMX)
	l.universe.Set("tilt", tiltDMX)
	l.universe.Set("shutter", 25)
	l.universe.Set("dimmer", 255)

	l.emitter.SendAlways(l.universe)
}

// CalculatePanTilt solves the pan/tilt angle pair (degrees) pointing from
// origin at target.
func CalculatePanTilt(origin Origin, target realworld.Point) (panDeg, tiltDeg float64) {
	dx := target.X - origin.X0
	dy := target.Y - origin.Y0
	dz := target.Z - origin.Z0
	d := math.Sqrt(dx*dx + dy*dy + dz*dz)

	panDeg = math.Atan2(dy, dx) * 180 / math.Pi
	if d == 0 {
		return panDeg, 0
	}
	tiltDeg = math.Asin(dz/d) * 180 / math.Pi
	return panDeg, tiltDeg
}

// AngleToDMX maps an angle in [-max/2, max/2] to a DMX byte value in
// [0, 255], clamping out-of-range inputs.
func AngleToDMX(angle, max float64) byte {
	v := math.Round((angle + max/2) / max * 255)
	if v < 0 {
		v = 0
	} else if v > 255 {
		v = 255
	}
	return byte(v)
}
