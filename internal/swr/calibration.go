package swr

import (
	"errors"
	"fmt"
)

// DefaultLoadDb is the attenuation conventionally attributed to a good 50 Ω
// matched load by the reference procedure. The value is a convention, not a
// derivation; rigs with other detector families should override it.
const DefaultLoadDb = -6.0

// ErrCalibration is returned when reference measurements cannot produce
// usable constants. Calibration never silently succeeds with a degenerate
// scale.
var ErrCalibration = errors.New("invalid calibration")

// Calibrate derives conversion constants from two reference measurements:
// the detector voltage against a short circuit (total reflection, the 0 dB
// anchor) and against a known load of loadDb attenuation (negative,
// conventionally DefaultLoadDb).
func Calibrate(shortCircuitVolts, knownLoadVolts, knownLoadDb float64) (Constants, error) {
	if knownLoadDb == 0 {
		return Constants{}, fmt.Errorf("%w: known load attenuation must be non-zero", ErrCalibration)
	}
	if knownLoadVolts == shortCircuitVolts {
		return Constants{}, fmt.Errorf("%w: short and load references are equal (%.3f V)", ErrCalibration, shortCircuitVolts)
	}

	scale := (knownLoadVolts - shortCircuitVolts) / knownLoadDb
	if scale <= 0 {
		return Constants{}, fmt.Errorf("%w: non-positive scale %.4f V/dB", ErrCalibration, scale)
	}

	return Constants{
		OffsetVolts:     shortCircuitVolts,
		ScaleVoltsPerDb: scale,
	}, nil
}
