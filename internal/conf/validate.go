package conf

import (
	"github.com/jackbeau/stagehand/internal/errors"
)

// Validate checks the invariants a worker needs to start safely. A failure
// here is the ConfigInvalid error kind of §7: fatal at worker init, and
// must be surfaced to the supervisor as a Failed status rather than a
// panic.
func Validate(s *Settings) error {
	if s.StageZone.EnableHomography {
		if s.StageZone.HomographyWidth <= 0 || s.StageZone.HomographyHeight <= 0 {
			return errors.Newf("homography width/height must be positive, got %.2f x %.2f",
				s.StageZone.HomographyWidth, s.StageZone.HomographyHeight).
				Component("conf").
				Category(errors.CategoryConfigInvalid).
				Build()
		}
	}

	if s.PerformerTracker.MaxPan <= 0 || s.PerformerTracker.MaxTilt <= 0 {
		return errors.Newf("max_pan and max_tilt must be positive").
			Component("conf").
			Category(errors.CategoryConfigInvalid).
			Context("max_pan", s.PerformerTracker.MaxPan).
			Context("max_tilt", s.PerformerTracker.MaxTilt).
			Build()
	}

	return nil
}
