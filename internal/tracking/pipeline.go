// Package tracking implements the Performer-Tracking Pipeline (C8): frame
// ingest and adjustment, detection/Re-ID, track-history consensus, and the
// homography write into the shared stage-plane cell.
package tracking

import (
	"errors"
	"image"
	"log/slog"
	"time"

	"gocv.io/x/gocv"

	"github.com/jackbeau/stagehand/internal/conf"
	"github.com/jackbeau/stagehand/internal/logging"
	"github.com/jackbeau/stagehand/internal/metrics"
	"github.com/jackbeau/stagehand/internal/realworld"
	"github.com/jackbeau/stagehand/internal/reid"
	"github.com/jackbeau/stagehand/internal/stage"
	"github.com/jackbeau/stagehand/internal/track"
	"github.com/jackbeau/stagehand/internal/vision"
)

const (
	certainThreshold   = 15.0
	uncertainThreshold = 20.0
	maxEmptyReads       = 5
)

// ErrEmptyFeed is returned by Run when the camera produced 5 consecutive
// empty reads, per §4.8's retry policy; the supervisor reports this as a
// self-stop, not a crash.
var ErrEmptyFeed = errors.New("tracking: camera feed empty after 5 consecutive retries")

// Config carries the fixed parameters of one tracking pipeline instance.
type Config struct {
	Adjust        AdjustConfig
	SaveInterval  int
	TrackedUserID string

	// EnableHomography gates the C7 image→stage transform. Disabled, the
	// pipeline writes the raw pixel centre as the RealWorldPoint instead,
	// for calibrating src_points against a live feed without a stage plane.
	EnableHomography bool

	// EnableCrop and CropZone restrict tracking to a sub-region of the
	// image distinct from the homography's src_points: a track whose
	// centre falls outside CropZone is pulled to the nearest edge rather
	// than producing a stage point outside the performance area.
	EnableCrop bool
	CropZone   [4]stage.Point

	// ShowWindow opens a live debug preview of the adjusted frame.
	ShowWindow bool
}

// Capture is the subset of gocv.VideoCapture the pipeline depends on,
// narrowed for testability.
type Capture interface {
	Read(m *gocv.Mat) bool
}

// Pipeline runs the camera ingest loop and writes tracked-performer
// stage-plane points to cell.
type Pipeline struct {
	cfg       Config
	cap       Capture
	detector  vision.Detector
	encoder   vision.ReIdEncoder
	certain   *reid.Store
	uncertain *reid.Store
	tracks    *track.Store
	plane     *stage.Plane
	cell      *realworld.Cell

	frameCount int
	emptyReads int
	log        *slog.Logger
	metrics    *metrics.PerformerTracker
	window     *gocv.Window
}

// WithMetrics attaches a metric set; nil leaves metrics disabled.
func (p *Pipeline) WithMetrics(m *metrics.PerformerTracker) *Pipeline {
	p.metrics = m
	return p
}

// New constructs a tracking pipeline.
func New(cfg Config, cap Capture, detector vision.Detector, encoder vision.ReIdEncoder, certain, uncertain *reid.Store, plane *stage.Plane, cell *realworld.Cell) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		cap:       cap,
		detector:  detector,
		encoder:   encoder,
		certain:   certain,
		uncertain: uncertain,
		tracks:    track.NewStore(),
		plane:     plane,
		cell:      cell,
		log:       logging.ForService("tracking"),
	}
}

// NewFromSettings opens the configured camera device and builds a
// pipeline wired from the Settings Carrier (§4.12).
func NewFromSettings(settings *conf.Settings, detector vision.Detector, encoder vision.ReIdEncoder, cell *realworld.Cell) (*Pipeline, error) {
	capture, err := gocv.OpenVideoCapture(settings.Camera.VideoDevicePos)
	if err != nil {
		return nil, err
	}

	certain := reid.New(settings.PerformerTracker.UserFolder, encoder)
	uncertain := reid.New(settings.PerformerTracker.UncertainFolder, encoder)
	if err := certain.Load(); err != nil {
		return nil, err
	}
	if err := uncertain.Load(); err != nil {
		return nil, err
	}

	src := [4]stage.Point{}
	for i, p := range settings.StageZone.SrcPoints {
		src[i] = stage.Point{X: p[0], Y: p[1]}
	}
	plane, err := stage.NewPlane(src, settings.StageZone.HomographyWidth, settings.StageZone.HomographyHeight)
	if err != nil {
		return nil, err
	}

	cropZone := [4]stage.Point{}
	for i, p := range settings.StageZone.CropPoints {
		cropZone[i] = stage.Point{X: p[0], Y: p[1]}
	}

	cfg := Config{
		Adjust:           fromCameraSettings(*settings),
		SaveInterval:     settings.PerformerTracker.SaveInterval,
		TrackedUserID:    settings.PerformerTracker.TrackedUserID,
		EnableHomography: settings.StageZone.EnableHomography,
		EnableCrop:       settings.StageZone.EnableCrop,
		CropZone:         cropZone,
		ShowWindow:       settings.PerformerTracker.ShowWindow,
	}
	p := New(cfg, capture, detector, encoder, certain, uncertain, plane, cell)
	if cfg.ShowWindow {
		p.window = gocv.NewWindow("stagehand performer tracker")
	}
	return p, nil
}

// Run reads frames until stop is closed, or the feed goes empty for 5
// consecutive reads (ErrEmptyFeed).
func (p *Pipeline) Run(stop <-chan struct{}) error {
	frame := gocv.NewMat()
	defer frame.Close()
	if p.window != nil {
		defer p.window.Close()
	}

	for {
		select {
		case <-stop:
			return nil
		default:
		}

		if !p.cap.Read(&frame) || frame.Empty() {
			p.emptyReads++
			p.log.Error("camera feed empty, retrying", "attempt", p.emptyReads)
			if p.metrics != nil {
				p.metrics.EmptyReads.Inc()
			}
			if p.emptyReads >= maxEmptyReads {
				return ErrEmptyFeed
			}
			continue
		}
		p.emptyReads = 0

		start := time.Now()
		if err := p.processFrame(frame); err != nil {
			p.log.Warn("frame processing failed", "error", err)
		}
		if p.metrics != nil {
			p.metrics.FrameDuration.Observe(time.Since(start).Seconds())
			p.metrics.FramesProcessed.Inc()
		}
		p.frameCount++
	}
}

func (p *Pipeline) processFrame(raw gocv.Mat) error {
	adjusted := adjustFrame(raw, p.cfg.Adjust)
	defer adjusted.Close()

	if p.window != nil {
		p.window.IMShow(adjusted)
		p.window.WaitKey(1)
	}

	tracks, err := p.detector.Track(adjusted)
	if err != nil {
		return err
	}

	bounds := image.Rect(0, 0, adjusted.Cols(), adjusted.Rows())
	for _, t := range tracks {
		p.processTrack(t, adjusted, bounds)
	}
	return nil
}

func (p *Pipeline) processTrack(t vision.Track, frame gocv.Mat, bounds image.Rectangle) {
	bbox := t.Mask.BoundingBox()
	if !bounds.Eq(bounds.Union(bbox)) {
		return // bbox extends outside the frame
	}
	if bbox.Dx() <= 0 || bbox.Dy() <= 0 {
		return
	}

	crop := frame.Region(bbox)
	defer crop.Close()

	vec, err := p.encoder.Encode(crop)
	if err != nil {
		p.log.Warn("re-id encode failed", "track_id", t.ID, "error", err)
		return
	}

	identity, score := p.identify(vec, crop)
	p.tracks.Push(t.ID, identity, score)
	if p.metrics != nil {
		p.metrics.IdentifiedTracks.Inc()
	}

	consensusID, _, _, ok := p.tracks.Consensus(t.ID)
	if !ok || consensusID != p.cfg.TrackedUserID {
		return
	}
	p.updateStagePoint(bbox)
	if p.metrics != nil {
		p.metrics.ConsensusWrites.Inc()
	}
}

// identify resolves one detection to an identity: certain DB, then
// uncertain DB, then mint a new uncertain identity (§4.8).
func (p *Pipeline) identify(vec vision.FeatureVector, crop gocv.Mat) (identity string, score float64) {
	if id, dist, found := p.certain.Match(vec, certainThreshold); found {
		if p.cfg.SaveInterval <= 0 || p.frameCount%p.cfg.SaveInterval == 0 {
			if err := p.certain.Append(id, crop, vec); err != nil {
				p.log.Warn("certain append failed", "identity", id, "error", err)
			}
		}
		return id, dist
	}

	if id, dist, found := p.uncertain.Match(vec, uncertainThreshold); found {
		if err := p.uncertain.Append(id, crop, vec); err != nil {
			p.log.Warn("uncertain append failed", "identity", id, "error", err)
		}
		return id, dist
	}

	newID := p.uncertain.NextUncertainID()
	if err := p.uncertain.Append(newID, crop, vec); err != nil {
		p.log.Warn("new uncertain append failed", "identity", newID, "error", err)
	}
	return newID, 0
}

func (p *Pipeline) updateStagePoint(bbox image.Rectangle) {
	center := stage.Point{
		X: float64(bbox.Min.X+bbox.Max.X) / 2,
		Y: float64(bbox.Min.Y+bbox.Max.Y) / 2,
	}

	if p.cfg.EnableCrop && !stage.PointInQuad(p.cfg.CropZone, center) {
		center = stage.ClampToQuadEdge(p.cfg.CropZone, center)
	}

	world := center
	if p.cfg.EnableHomography {
		world = p.plane.Transform(center)
	}

	p.cell.Store(realworld.Point{
		X: roundToUnit(world.X),
		Y: roundToUnit(world.Y),
		Z: 0,
	}, time.Now())
}

func roundToUnit(v float64) float64 {
	if v >= 0 {
		return float64(int(v + 0.5))
	}
	return float64(int(v - 0.5))
}
