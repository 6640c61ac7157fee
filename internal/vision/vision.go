// Package vision declares the capability interfaces the tracking pipeline
// drives (§9): detection/segmentation and re-identification encoding.
// Concrete model implementations live outside the core; this package only
// describes the shapes the pipeline depends on.
package vision

import (
	"image"
	"math"

	"gocv.io/x/gocv"
)

// FeatureVector is the opaque dense embedding a Re-ID model produces for a
// cropped performer image. Its only defined metric is L2 distance.
type FeatureVector []float32

// Distance returns the L2 distance between two feature vectors. Vectors of
// different length are treated as maximally distant.
func (v FeatureVector) Distance(other FeatureVector) float64 {
	if len(v) != len(other) {
		return math.Inf(1)
	}
	var sum float64
	for i := range v {
		d := float64(v[i]) - float64(other[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Mask is the minimal shape the core needs from a detector's segmentation
// output: enough to derive a bounding box and a ground-contact point.
type Mask struct {
	Points []image.Point
}

// BoundingBox returns the axis-aligned box enclosing the mask's points.
func (m Mask) BoundingBox() image.Rectangle {
	if len(m.Points) == 0 {
		return image.Rectangle{}
	}
	r := image.Rectangle{Min: m.Points[0], Max: m.Points[0]}
	for _, p := range m.Points[1:] {
		if p.X < r.Min.X {
			r.Min.X = p.X
		}
		if p.Y < r.Min.Y {
			r.Min.Y = p.Y
		}
		if p.X > r.Max.X {
			r.Max.X = p.X
		}
		if p.Y > r.Max.Y {
			r.Max.Y = p.Y
		}
	}
	return r
}

// Track is one (track id, mask) observation returned by a Detector for a
// single frame.
type Track struct {
	ID   int
	Mask Mask
}

// Detector is the segmentation/tracking capability (§9): it consumes a
// frame and returns the set of currently tracked performers.
type Detector interface {
	Track(frame gocv.Mat) ([]Track, error)
}

// ReIdEncoder is the re-identification capability (§9): it turns a cropped
// performer image into a FeatureVector.
type ReIdEncoder interface {
	Encode(crop gocv.Mat) (FeatureVector, error)
}
