// Package stage implements the Stage Mapper (C7): the homography from
// camera-plane pixels to stage-plane metres, plus the clockwise-sort and
// polygon helpers it depends on.
package stage

import (
	"math"

	"github.com/jackbeau/stagehand/internal/errors"
)

// Point is a double-precision 2D point, used on both the image and stage
// planes.
type Point struct {
	X, Y float64
}

// Matrix3x3 is a 3x3 projective matrix in row-major order.
type Matrix3x3 [3][3]float64

// Apply transforms p by the homography in homogeneous coordinates.
func (m Matrix3x3) Apply(p Point) Point {
	x := m[0][0]*p.X + m[0][1]*p.Y + m[0][2]
	y := m[1][0]*p.X + m[1][1]*p.Y + m[1][2]
	w := m[2][0]*p.X + m[2][1]*p.Y + m[2][2]
	if w == 0 {
		return Point{}
	}
	return Point{X: x / w, Y: y / w}
}

// Plane is the camera-to-stage homography and the quad it was computed
// from. H is computed once, by NewPlane; assigning SrcQuad, WidthM or
// HeightM afterwards does not recompute it.
type Plane struct {
	SrcQuad     [4]Point
	WidthM      float64
	HeightM     float64
	H           Matrix3x3
}

// NewPlane sorts src clockwise, builds the destination rectangle
// (0,0),(W,0),(W,H),(0,H), and solves for H via the standard DLT.
func NewPlane(src [4]Point, widthM, heightM float64) (*Plane, error) {
	if widthM <= 0 || heightM <= 0 {
		return nil, errors.Newf("stage dimensions must be positive, got %.2fx%.2f", widthM, heightM).
			Component("stage").Category(errors.CategoryConfigInvalid).Build()
	}

	sorted := SortClockwise(src)
	dst := [4]Point{
		{X: 0, Y: 0},
		{X: widthM, Y: 0},
		{X: widthM, Y: heightM},
		{X: 0, Y: heightM},
	}

	h, err := solveDLT(sorted, dst)
	if err != nil {
		return nil, err
	}

	return &Plane{SrcQuad: sorted, WidthM: widthM, HeightM: heightM, H: h}, nil
}

// Transform maps an image-plane point to the stage plane.
func (p *Plane) Transform(img Point) Point {
	return p.H.Apply(img)
}

// SortClockwise orders points around their centroid by ascending angle,
// producing a clockwise sequence in image coordinates (y grows downward) —
// matching NewPlane's destination quad, which walks (0,0)→(W,0)→(W,H)→(0,H)
// in that same ascending-atan2 order.
// Idempotent: SortClockwise(SortClockwise(p)) == SortClockwise(p).
func SortClockwise(pts [4]Point) [4]Point {
	var cx, cy float64
	for _, p := range pts {
		cx += p.X
		cy += p.Y
	}
	cx /= 4
	cy /= 4

	sorted := pts
	// Insertion sort on four elements by ascending atan2, which is
	// clockwise when the image y axis points down.
	angle := func(p Point) float64 { return math.Atan2(p.Y-cy, p.X-cx) }
	for i := 1; i < len(sorted); i++ {
		j := i
		for j > 0 && angle(sorted[j-1]) > angle(sorted[j]) {
			sorted[j-1], sorted[j] = sorted[j], sorted[j-1]
			j--
		}
	}
	return sorted
}

// PointInQuad reports whether p lies inside the (clockwise or
// counter-clockwise) quad, via the standard ray-casting test.
func PointInQuad(quad [4]Point, p Point) bool {
	inside := false
	for i, j := 0, 3; i < 4; j, i = i, i+1 {
		a, b := quad[i], quad[j]
		if (a.Y > p.Y) != (b.Y > p.Y) &&
			p.X < (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y)+a.X {
			inside = !inside
		}
	}
	return inside
}

// ClampToQuadEdge returns p unchanged if inside quad, otherwise the
// closest point on the quad's boundary.
func ClampToQuadEdge(quad [4]Point, p Point) Point {
	if PointInQuad(quad, p) {
		return p
	}
	best := quad[0]
	bestDist := math.Inf(1)
	for i := 0; i < 4; i++ {
		a, b := quad[i], quad[(i+1)%4]
		c := closestOnSegment(a, b, p)
		if d := dist2(c, p); d < bestDist {
			bestDist = d
			best = c
		}
	}
	return best
}

func closestOnSegment(a, b, p Point) Point {
	abx, aby := b.X-a.X, b.Y-a.Y
	apx, apy := p.X-a.X, p.Y-a.Y
	lenSq := abx*abx + aby*aby
	if lenSq == 0 {
		return a
	}
	t := (apx*abx + apy*aby) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return Point{X: a.X + t*abx, Y: a.Y + t*aby}
}

func dist2(a, b Point) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	return dx*dx + dy*dy
}
