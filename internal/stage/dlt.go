package stage

import (
	"math"

	"github.com/jackbeau/stagehand/internal/errors"
)

// solveDLT computes the 3x3 projective matrix mapping src[i] to dst[i] for
// all four correspondences, via the standard direct linear transform: fix
// h33=1 and solve the resulting 8x8 linear system by Gaussian elimination
// with partial pivoting. Implemented by hand, in double precision, rather
// than relying on an external matrix library's internal solver, so the
// 1e-6 numeric invariants over H are independently verifiable.
func solveDLT(src, dst [4]Point) (Matrix3x3, error) {
	var a [8][8]float64
	var b [8]float64

	for i := 0; i < 4; i++ {
		x, y := src[i].X, src[i].Y
		xp, yp := dst[i].X, dst[i].Y

		r0 := i * 2
		a[r0] = [8]float64{x, y, 1, 0, 0, 0, -x * xp, -y * xp}
		b[r0] = xp

		r1 := r0 + 1
		a[r1] = [8]float64{0, 0, 0, x, y, 1, -x * yp, -y * yp}
		b[r1] = yp
	}

	h, err := gaussianSolve(a, b)
	if err != nil {
		return Matrix3x3{}, err
	}

	return Matrix3x3{
		{h[0], h[1], h[2]},
		{h[3], h[4], h[5]},
		{h[6], h[7], 1},
	}, nil
}

// gaussianSolve solves A·x = b for an 8x8 system using partial-pivot
// Gaussian elimination and back-substitution.
func gaussianSolve(a [8][8]float64, b [8]float64) ([8]float64, error) {
	const n = 8

	for col := 0; col < n; col++ {
		pivot := col
		maxAbs := math.Abs(a[col][col])
		for row := col + 1; row < n; row++ {
			if v := math.Abs(a[row][col]); v > maxAbs {
				pivot = row
				maxAbs = v
			}
		}
		if maxAbs < 1e-12 {
			return [8]float64{}, errors.Newf("homography source points are degenerate").
				Component("stage").Category(errors.CategoryConfigInvalid).Build()
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		for row := col + 1; row < n; row++ {
			factor := a[row][col] / a[col][col]
			for k := col; k < n; k++ {
				a[row][k] -= factor * a[col][k]
			}
			b[row] -= factor * b[col]
		}
	}

	var x [8]float64
	for row := n - 1; row >= 0; row-- {
		sum := b[row]
		for k := row + 1; k < n; k++ {
			sum -= a[row][k] * x[k]
		}
		x[row] = sum / a[row][row]
	}
	return x, nil
}
