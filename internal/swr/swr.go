// Package swr converts calibrated detector voltages into standing-wave
// ratios. The detector (an AD8302 on the reference rig) reports log
// amplitude: a linear voltage slope per dB of reflected power, anchored by
// the calibration constants.
package swr

import "math"

// Infinite is the saturated SWR sentinel reported when the reflection
// coefficient reaches or exceeds 1.0 (total reflection). Downstream rating
// thresholds depend on this exact value.
const Infinite = 999.0

// Constants anchors the detector's voltage-to-dB transfer. Derived once per
// session by Calibrate and immutable thereafter.
type Constants struct {
	// OffsetVolts is the detector output at total reflection (the 0 dB
	// reference, measured against a short circuit).
	OffsetVolts float64

	// ScaleVoltsPerDb is the detector slope. Always positive for a valid
	// calibration.
	ScaleVoltsPerDb float64
}

// Compute maps a magnitude voltage to SWR. Deterministic and side-effect
// free: dB below the reference becomes a reflection coefficient
// Γ = 10^(dB/20), and SWR = (1+Γ)/(1−Γ), saturating at Infinite for Γ ≥ 1.
// Never returns NaN or a value below 1 for finite input and valid constants.
func Compute(magnitudeVolts float64, c Constants) float64 {
	db := (magnitudeVolts - c.OffsetVolts) / c.ScaleVoltsPerDb
	gamma := math.Pow(10, db/20)

	if gamma >= 1 || math.IsNaN(gamma) {
		return Infinite
	}
	return (1 + gamma) / (1 - gamma)
}
