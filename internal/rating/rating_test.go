package rating

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/roman-kulish/antenna-analyzer/internal/sweep"
)

// result builds a completed sweep with one point per SWR value, spaced
// 1 MHz apart from 10 MHz.
func result(swrs ...float64) *sweep.Result {
	points := make([]sweep.Point, len(swrs))
	for i, s := range swrs {
		points[i] = sweep.Point{
			FrequencyHz: 10e6 + float64(i)*1e6,
			SWR:         s,
		}
	}
	return &sweep.Result{
		StartHz:    10e6,
		StopHz:     10e6 + float64(len(swrs)-1)*1e6,
		PointCount: len(swrs),
		Status:     sweep.StatusCompleted,
		FaultIndex: -1,
		Points:     points,
	}
}

func TestRater_Metrics(t *testing.T) {
	res := result(3.0, 1.8, 1.2, 1.9, 2.5, 3.5, 4.0)

	rated, err := New().Rate(res)
	if err != nil {
		t.Fatalf("Failed to rate: %v", err)
	}

	if rated.MinSWR != 1.2 {
		t.Errorf("Expected min SWR 1.2, got %.3f", rated.MinSWR)
	}
	if want := (3.0 + 1.8 + 1.2 + 1.9 + 2.5 + 3.5 + 4.0) / 7; math.Abs(rated.AvgSWR-want) > 1e-12 {
		t.Errorf("Expected avg SWR %.6f, got %.6f", want, rated.AvgSWR)
	}
	if rated.ResonantFrequencyHz != 12e6 {
		t.Errorf("Expected resonance at 12 MHz, got %.0f Hz", rated.ResonantFrequencyHz)
	}
	// Usable points are indices 1-3, so the contiguous region spans 11-13 MHz.
	if rated.UsableBandwidthHz != 2e6 {
		t.Errorf("Expected 2 MHz usable bandwidth, got %.0f Hz", rated.UsableBandwidthHz)
	}
	if want := 3.0 / 7; math.Abs(rated.CoverageRatio-want) > 1e-12 {
		t.Errorf("Expected coverage %.6f, got %.6f", want, rated.CoverageRatio)
	}
}

func TestRater_BandwidthIsContiguous(t *testing.T) {
	// The isolated low point at index 5 is separated from the resonance
	// region by an SWR 4.0 point and must not extend the bandwidth.
	res := result(3.0, 1.8, 1.5, 1.9, 4.0, 1.9, 3.0)

	rated, err := New().Rate(res)
	if err != nil {
		t.Fatalf("Failed to rate: %v", err)
	}

	if rated.ResonantFrequencyHz != 12e6 {
		t.Errorf("Expected resonance at 12 MHz, got %.0f Hz", rated.ResonantFrequencyHz)
	}
	if rated.UsableBandwidthHz != 2e6 {
		t.Errorf("Expected 2 MHz usable bandwidth, got %.0f Hz", rated.UsableBandwidthHz)
	}
	// The isolated point still counts toward coverage.
	if want := 4.0 / 7; math.Abs(rated.CoverageRatio-want) > 1e-12 {
		t.Errorf("Expected coverage %.6f, got %.6f", want, rated.CoverageRatio)
	}
}

func TestRater_NoUsableBandwidth(t *testing.T) {
	res := result(5.0, 4.0, 3.0, 4.0, 5.0)

	rated, err := New().Rate(res)
	if err != nil {
		t.Fatalf("Failed to rate: %v", err)
	}
	if rated.UsableBandwidthHz != 0 {
		t.Errorf("Expected zero bandwidth when min SWR exceeds %.1f, got %.0f Hz", UsableSWR, rated.UsableBandwidthHz)
	}
	if rated.CoverageRatio != 0 {
		t.Errorf("Expected zero coverage, got %.3f", rated.CoverageRatio)
	}
}

func TestRater_FirstMinimumWinsTies(t *testing.T) {
	res := result(2.0, 1.5, 3.0, 1.5, 2.0)

	rated, err := New().Rate(res)
	if err != nil {
		t.Fatalf("Failed to rate: %v", err)
	}
	if rated.ResonantFrequencyHz != 11e6 {
		t.Errorf("Expected the first of the tied minima (11 MHz), got %.0f Hz", rated.ResonantFrequencyHz)
	}
}

func TestRater_Deterministic(t *testing.T) {
	res := result(3.0, 1.8, 1.2, 1.9, 2.5)

	first, err := New().Rate(res)
	if err != nil {
		t.Fatalf("Failed to rate: %v", err)
	}
	second, err := New().Rate(res)
	if err != nil {
		t.Fatalf("Failed to rate again: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Expected identical ratings, got %+v and %+v", first, second)
	}
}

func TestRater_PartialSweepCoverage(t *testing.T) {
	// A cancelled sweep with 4 of 10 requested points: coverage is
	// measured against the requested count, so missing points count
	// against the antenna rather than inflating the ratio.
	res := result(1.5, 1.5, 1.5, 1.5)
	res.PointCount = 10
	res.Status = sweep.StatusCancelled

	rated, err := New().Rate(res)
	if err != nil {
		t.Fatalf("Failed to rate: %v", err)
	}
	if want := 4.0 / 10; math.Abs(rated.CoverageRatio-want) > 1e-12 {
		t.Errorf("Expected coverage %.2f, got %.6f", want, rated.CoverageRatio)
	}
}

func TestRater_EmptySweep(t *testing.T) {
	if _, err := New().Rate(nil); !errors.Is(err, ErrEmptySweep) {
		t.Errorf("Expected ErrEmptySweep for nil result, got %v", err)
	}
	if _, err := New().Rate(&sweep.Result{}); !errors.Is(err, ErrEmptySweep) {
		t.Errorf("Expected ErrEmptySweep for zero points, got %v", err)
	}
}

func TestRater_Score(t *testing.T) {
	t.Run("perfect curve scores 100", func(t *testing.T) {
		res := result(1.0, 1.0, 1.0, 1.0, 1.0)

		rated, err := New().Rate(res)
		if err != nil {
			t.Fatalf("Failed to rate: %v", err)
		}
		if rated.Score != 100 {
			t.Errorf("Expected score 100, got %d", rated.Score)
		}
		if rated.Grade != GradeAPlus {
			t.Errorf("Expected grade A+, got %s", rated.Grade)
		}
	})

	t.Run("saturated curve scores 0", func(t *testing.T) {
		res := result(999, 999, 999)

		rated, err := New().Rate(res)
		if err != nil {
			t.Fatalf("Failed to rate: %v", err)
		}
		if rated.Score != 0 {
			t.Errorf("Expected score 0, got %d", rated.Score)
		}
		if rated.Grade != GradeF {
			t.Errorf("Expected grade F, got %s", rated.Grade)
		}
	})

	t.Run("weights shift the score", func(t *testing.T) {
		res := result(1.0, 1.0, 3.0, 5.0, 5.0)

		balanced, err := New().Rate(res)
		if err != nil {
			t.Fatalf("Failed to rate: %v", err)
		}

		minOnly, err := New(WithWeights(Weights{MinSWR: 1})).Rate(res)
		if err != nil {
			t.Fatalf("Failed to rate with custom weights: %v", err)
		}

		// Min SWR is perfect, everything else is mediocre: scoring on
		// the minimum alone must come out higher.
		if minOnly.Score != 100 {
			t.Errorf("Expected min-only score 100, got %d", minOnly.Score)
		}
		if balanced.Score >= minOnly.Score {
			t.Errorf("Expected balanced score below %d, got %d", minOnly.Score, balanced.Score)
		}
	})
}

func TestRater_GradeLadder(t *testing.T) {
	r := New()

	testCases := []struct {
		score int
		want  Grade
	}{
		{100, GradeAPlus},
		{90, GradeAPlus},
		{89, GradeA},
		{85, GradeA},
		{80, GradeAMinus},
		{75, GradeBPlus},
		{70, GradeB},
		{65, GradeBMinus},
		{60, GradeCPlus},
		{55, GradeC},
		{50, GradeCMinus},
		{49, GradeD},
		{40, GradeD},
		{39, GradeF},
		{0, GradeF},
	}

	for _, tc := range testCases {
		if got := r.grade(tc.score); got != tc.want {
			t.Errorf("Score %d: expected grade %s, got %s", tc.score, tc.want, got)
		}
	}
}

func TestRater_Notes(t *testing.T) {
	res := result(1.2, 1.3, 1.4, 1.5, 1.6)

	rated, err := New().Rate(res)
	if err != nil {
		t.Fatalf("Failed to rate: %v", err)
	}
	if len(rated.Notes) == 0 {
		t.Fatal("Expected recommendation notes")
	}
	if want := "excellent resonance achieved (min SWR 1.20)"; rated.Notes[0] != want {
		t.Errorf("Expected note %q, got %q", want, rated.Notes[0])
	}
}
