package app

import (
	"image"
	"testing"

	"github.com/roman-kulish/antenna-analyzer/internal/rating"
	"github.com/roman-kulish/antenna-analyzer/internal/sweep"
)

func testSweepResult() *sweep.Result {
	swrs := []float64{8.2, 4.1, 2.3, 1.3, 1.1, 1.4, 2.6, 4.8, 7.9, 9.5, 11.2}
	points := make([]sweep.Point, len(swrs))
	for i, s := range swrs {
		points[i] = sweep.Point{
			FrequencyHz: 10e6 + float64(i)*1e6,
			SWR:         s,
		}
	}
	return &sweep.Result{
		StartHz:    10e6,
		StopHz:     20e6,
		PointCount: len(swrs),
		Status:     sweep.StatusCompleted,
		FaultIndex: -1,
		Points:     points,
	}
}

func TestChartRenderer_Render(t *testing.T) {
	renderer, err := NewChartRenderer(10)
	if err != nil {
		t.Fatalf("Failed to create renderer: %v", err)
	}
	defer renderer.Close()

	res := testSweepResult()
	rated := &rating.Rating{
		Score:               74,
		Grade:               rating.GradeB,
		MinSWR:              1.1,
		AvgSWR:              4.9,
		ResonantFrequencyHz: 14e6,
		UsableBandwidthHz:   3e6,
		CoverageRatio:       4.0 / 11,
	}

	img, err := renderer.Render(res, rated)
	if err != nil {
		t.Fatalf("Failed to render: %v", err)
	}

	wantW := plotWidth + defaultLeftBorder + defaultRightBorder
	wantH := plotHeight + defaultTopBorder + defaultBottomBorder
	if img.Bounds() != image.Rect(0, 0, wantW, wantH) {
		t.Errorf("Expected %dx%d image, got %v", wantW, wantH, img.Bounds())
	}

	// The curve must appear inside the plot area.
	found := false
	for y := defaultTopBorder; y < defaultTopBorder+plotHeight && !found; y++ {
		for x := defaultLeftBorder; x < defaultLeftBorder+plotWidth; x++ {
			if img.RGBAAt(x, y) == curveColor {
				found = true
				break
			}
		}
	}
	if !found {
		t.Error("Expected curve pixels inside the plot area")
	}
}

func TestChartRenderer_RenderWithoutRating(t *testing.T) {
	renderer, err := NewChartRenderer(10)
	if err != nil {
		t.Fatalf("Failed to create renderer: %v", err)
	}
	defer renderer.Close()

	if _, err := renderer.Render(testSweepResult(), nil); err != nil {
		t.Fatalf("Failed to render without rating: %v", err)
	}
}

func TestChartCeiling(t *testing.T) {
	renderer, err := NewChartRenderer(10)
	if err != nil {
		t.Fatalf("Failed to create renderer: %v", err)
	}
	defer renderer.Close()

	testCases := []struct {
		name string
		swrs []float64
		want float64
	}{
		{"headroom above the worst point", []float64{1.2, 2.0, 5.0}, 5.5},
		{"capped at the configured ceiling", []float64{1.2, 999, 999}, 10},
		{"floor of 2 for flat good curves", []float64{1.05, 1.1, 1.08}, 2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			points := make([]sweep.Point, len(tc.swrs))
			for i, s := range tc.swrs {
				points[i] = sweep.Point{SWR: s}
			}
			got := renderer.chartCeiling(&sweep.Result{Points: points})
			if diff := got - tc.want; diff < -1e-9 || diff > 1e-9 {
				t.Errorf("Expected ceiling %.2f, got %.2f", tc.want, got)
			}
		})
	}
}

func TestAxisMapping(t *testing.T) {
	area := image.Rect(100, 50, 900, 530)
	res := testSweepResult()

	if x := xAt(area, res, res.StartHz); x != area.Min.X {
		t.Errorf("Expected start frequency at the left edge %d, got %d", area.Min.X, x)
	}
	if x := xAt(area, res, res.StopHz); x != area.Max.X {
		t.Errorf("Expected stop frequency at the right edge %d, got %d", area.Max.X, x)
	}

	if y := yAt(area, 1, 10); y != area.Max.Y {
		t.Errorf("Expected SWR 1 at the bottom edge %d, got %d", area.Max.Y, y)
	}
	if y := yAt(area, 10, 10); y != area.Min.Y {
		t.Errorf("Expected ceiling SWR at the top edge %d, got %d", area.Min.Y, y)
	}
	// Values beyond the ceiling clamp to the top rather than escaping the
	// plot area.
	if y := yAt(area, 999, 10); y != area.Min.Y {
		t.Errorf("Expected saturated SWR clamped to the top edge %d, got %d", area.Min.Y, y)
	}
}

func TestNiceSteps(t *testing.T) {
	if step := niceFrequencyStep(10e6, plotWidth); step != 5e6 {
		t.Errorf("Expected 5 MHz step over a 10 MHz span, got %.0f Hz", step)
	}
	if step := niceFrequencyStep(2e6, plotWidth); step != 500e3 {
		t.Errorf("Expected 500 kHz step over a 2 MHz span, got %.0f Hz", step)
	}

	if step := niceSWRStep(2.5); step != 0.5 {
		t.Errorf("Expected 0.5 step for a short SWR axis, got %.1f", step)
	}
	if step := niceSWRStep(8); step != 1.0 {
		t.Errorf("Expected 1.0 step for a medium SWR axis, got %.1f", step)
	}
	if step := niceSWRStep(20); step != 2.0 {
		t.Errorf("Expected 2.0 step for a tall SWR axis, got %.1f", step)
	}
}
