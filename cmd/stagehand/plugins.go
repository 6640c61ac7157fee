package main

import (
	"github.com/jackbeau/stagehand/internal/asr"
	"github.com/jackbeau/stagehand/internal/conf"
	"github.com/jackbeau/stagehand/internal/vision"
)

// NewASREngine and NewDetector/NewEncoder are the integration points for
// the concrete speech and vision models. The capability interfaces
// (asr.Engine, vision.Detector, vision.ReIdEncoder) are the full extent of
// this tree's responsibility toward them: model training and inference
// code are out of scope. They are nil here; a deployment links a build
// that sets them from an init function before main() dispatches into a
// worker.
var (
	NewASREngine func(*conf.Settings) (asr.Engine, error)
	NewDetector  func(*conf.Settings) (vision.Detector, error)
	NewEncoder   func(*conf.Settings) (vision.ReIdEncoder, error)
)
