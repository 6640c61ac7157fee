package tracking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func solidFrame(t *testing.T, w, h int, b, g, r uint8) gocv.Mat {
	t.Helper()
	m := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { m.Close() })
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.SetUCharAt(y, x*3+0, b)
			m.SetUCharAt(y, x*3+1, g)
			m.SetUCharAt(y, x*3+2, r)
		}
	}
	return m
}

func TestAdjustFrameResizesToConfiguredResolution(t *testing.T) {
	frame := solidFrame(t, 100, 50, 10, 20, 30)
	cfg := AdjustConfig{Resolution: [2]int{40, 20}, Brightness: 50, Exposure: 50, Contrast: 50, Saturation: 50}

	out := adjustFrame(frame, cfg)
	defer out.Close()

	assert.Equal(t, 40, out.Cols())
	assert.Equal(t, 20, out.Rows())
}

func TestAdjustFrameNeutralSettingsLeavePixelsUnchanged(t *testing.T) {
	frame := solidFrame(t, 4, 4, 100, 110, 120)
	cfg := AdjustConfig{Brightness: 50, Exposure: 50, Contrast: 50, Saturation: 50}

	out := adjustFrame(frame, cfg)
	defer out.Close()

	require.False(t, out.Empty())
	assert.Equal(t, uint8(100), out.GetUCharAt(0, 0))
	assert.Equal(t, uint8(110), out.GetUCharAt(0, 1))
	assert.Equal(t, uint8(120), out.GetUCharAt(0, 2))
}

func TestAdjustFrameMirrorFlipsHorizontally(t *testing.T) {
	w, h := 4, 2
	m := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3)
	defer m.Close()
	for x := 0; x < w; x++ {
		m.SetUCharAt(0, x*3, uint8(x*10))
	}
	cfg := AdjustConfig{MirrorX: true, Brightness: 50, Exposure: 50, Contrast: 50, Saturation: 50}

	out := adjustFrame(m, cfg)
	defer out.Close()

	assert.Equal(t, uint8(0), out.GetUCharAt(0, (w-1)*3))
	assert.Equal(t, uint8(30), out.GetUCharAt(0, 0))
}

func TestClaheClipLimitMatchesOriginalRescale(t *testing.T) {
	assert.InDelta(t, 50.0, claheClipLimit(40), 1e-9)
	assert.InDelta(t, 1.0, claheClipLimit(0), 1e-9)
	assert.InDelta(t, 100.0, claheClipLimit(100), 1e-9)
}

func TestRotateQuarterTurnsSwapDimensions(t *testing.T) {
	frame := solidFrame(t, 10, 4, 1, 2, 3)
	cfg := AdjustConfig{Rotation: 1, Brightness: 50, Exposure: 50, Contrast: 50, Saturation: 50}

	out := adjustFrame(frame, cfg)
	defer out.Close()

	assert.Equal(t, 4, out.Cols())
	assert.Equal(t, 10, out.Rows())
}
