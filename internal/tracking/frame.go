package tracking

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/jackbeau/stagehand/internal/conf"
)

// AdjustConfig carries the per-frame image adjustments of §4.8, taken
// directly from the Settings Carrier's camera section. All the 0-100
// fields are neutral at 50.
type AdjustConfig struct {
	Brightness     int
	Exposure       int
	Contrast       int
	Saturation     int
	MirrorX        bool
	MirrorY        bool
	Rotation       int // 0-3 quarter turns clockwise
	Clahe          bool
	ClaheClipLimit int
	Resolution     [2]int // width, height; zero value skips resizing
}

func fromCameraSettings(c conf.Settings) AdjustConfig {
	return AdjustConfig{
		Brightness:     c.Camera.Brightness,
		Exposure:       c.Camera.Exposure,
		Contrast:       c.Camera.Contrast,
		Saturation:     c.Camera.Saturation,
		MirrorX:        c.Camera.MirrorX,
		MirrorY:        c.Camera.MirrorY,
		Rotation:       c.Camera.Rotation,
		Clahe:          c.Camera.Clahe,
		ClaheClipLimit: c.Camera.ClaheClipLimit,
		Resolution:     c.Camera.Resolution,
	}
}

// adjustFrame applies the §4.8 adjustment chain in order: mirror, resize,
// rotate, CLAHE, brightness/exposure, contrast, saturation. It returns a
// new Mat; the caller owns frame and the returned Mat independently.
func adjustFrame(frame gocv.Mat, cfg AdjustConfig) gocv.Mat {
	out := gocv.NewMat()
	frame.CopyTo(&out)

	mirror(&out, cfg)
	resize(&out, cfg)
	rotate(&out, cfg)
	if cfg.Clahe {
		applyCLAHE(&out, cfg.ClaheClipLimit)
	}
	applyBrightnessExposure(&out, cfg)
	applyContrast(&out, cfg)
	applySaturation(&out, cfg)

	return out
}

func mirror(m *gocv.Mat, cfg AdjustConfig) {
	if !cfg.MirrorX && !cfg.MirrorY {
		return
	}
	flipCode := 1
	switch {
	case cfg.MirrorX && cfg.MirrorY:
		flipCode = -1
	case cfg.MirrorY:
		flipCode = 0
	}
	flipped := gocv.NewMat()
	gocv.Flip(*m, &flipped, flipCode)
	flipped.CopyTo(m)
	flipped.Close()
}

func resize(m *gocv.Mat, cfg AdjustConfig) {
	if cfg.Resolution[0] <= 0 || cfg.Resolution[1] <= 0 {
		return
	}
	resized := gocv.NewMat()
	gocv.Resize(*m, &resized, image.Pt(cfg.Resolution[0], cfg.Resolution[1]), 0, 0, gocv.InterpolationArea)
	resized.CopyTo(m)
	resized.Close()
}

func rotate(m *gocv.Mat, cfg AdjustConfig) {
	var code gocv.RotateFlag
	switch cfg.Rotation {
	case 1:
		code = gocv.Rotate90Clockwise
	case 2:
		code = gocv.Rotate180Clockwise
	case 3:
		code = gocv.Rotate90CounterClockwise
	default:
		return
	}
	rotated := gocv.NewMat()
	gocv.Rotate(*m, &rotated, code)
	rotated.CopyTo(m)
	rotated.Close()
}

// claheClipLimit reproduces the original tool's rescaling of the 0-100
// UI slider onto OpenCV's clip-limit domain.
func claheClipLimit(setting int) float64 {
	v := float64(setting) / 40 * 50
	return clampF(v, 1, 100)
}

func applyCLAHE(m *gocv.Mat, claheSetting int) {
	lab := gocv.NewMat()
	gocv.CvtColor(*m, &lab, gocv.ColorBGRToLab)

	channels := gocv.Split(lab)
	defer func() {
		for _, c := range channels {
			c.Close()
		}
	}()

	clahe := gocv.NewCLAHEWithParams(claheClipLimit(claheSetting), image.Pt(8, 8))
	defer clahe.Close()

	equalized := gocv.NewMat()
	defer equalized.Close()
	clahe.Apply(channels[0], &equalized)
	equalized.CopyTo(&channels[0])

	merged := gocv.NewMat()
	gocv.Merge(channels, &merged)

	out := gocv.NewMat()
	gocv.CvtColor(merged, &out, gocv.ColorLabToBGR)
	merged.Close()
	lab.Close()

	out.CopyTo(m)
	out.Close()
}

func applyBrightnessExposure(m *gocv.Mat, cfg AdjustConfig) {
	if cfg.Brightness == 50 && cfg.Exposure == 50 {
		return
	}
	alpha := clampF(float64(cfg.Exposure)/50, 0, 2)
	beta := clampF((float64(cfg.Brightness)/50-1)*127.5, -127, 127.5)

	out := gocv.NewMat()
	gocv.ConvertScaleAbs(*m, &out, alpha, beta)
	out.CopyTo(m)
	out.Close()
}

func applyContrast(m *gocv.Mat, cfg AdjustConfig) {
	if cfg.Contrast == 50 {
		return
	}
	factor := clampF(float64(cfg.Contrast)/50, 0, 2)
	mean := meanIntensity(*m)

	out := gocv.NewMat()
	gocv.ConvertScaleAbs(*m, &out, factor, mean*(1-factor))
	out.CopyTo(m)
	out.Close()
}

func meanIntensity(m gocv.Mat) float64 {
	s := m.Mean()
	return (s.Val1 + s.Val2 + s.Val3) / 3
}

func applySaturation(m *gocv.Mat, cfg AdjustConfig) {
	if cfg.Saturation == 50 {
		return
	}
	factor := clampF(float64(cfg.Saturation)/50, 0, 2)

	hsv := gocv.NewMat()
	gocv.CvtColor(*m, &hsv, gocv.ColorBGRToHSV)

	channels := gocv.Split(hsv)
	defer func() {
		for _, c := range channels {
			c.Close()
		}
	}()

	scaled := gocv.NewMat()
	defer scaled.Close()
	gocv.ConvertScaleAbs(channels[1], &scaled, factor, 0)
	scaled.CopyTo(&channels[1])

	merged := gocv.NewMat()
	gocv.Merge(channels, &merged)

	out := gocv.NewMat()
	gocv.CvtColor(merged, &out, gocv.ColorHSVToBGR)
	merged.Close()
	hsv.Close()

	out.CopyTo(m)
	out.Close()
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
