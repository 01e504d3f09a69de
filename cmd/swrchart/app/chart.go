package app

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/dustin/go-humanize"
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"gonum.org/v1/gonum/floats"

	"github.com/roman-kulish/antenna-analyzer/internal/rating"
	"github.com/roman-kulish/antenna-analyzer/internal/sweep"
)

const (
	dpi      = 96.0
	fontSize = 12.0

	plotWidth  = 800
	plotHeight = 480

	tickMarkLength = 5
	pixelsPerLabel = 130.0
	dashLength     = 4

	// Default border sizes in pixels
	defaultTopBorder    = 40
	defaultLeftBorder   = 70
	defaultBottomBorder = 60
	defaultRightBorder  = 30
)

var (
	curveColor  = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	markerColor = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
	gridColor   = color.RGBA{R: 0xc8, G: 0xc8, B: 0xc8, A: 0xff}

	// SWR reference levels, matching the rating thresholds.
	referenceLevels = []struct {
		swr   float64
		color color.RGBA
	}{
		{rating.ExcellentSWR, color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff}},
		{rating.UsableSWR, color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff}},
		{rating.AcceptableSWR, color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}},
	}
)

// ChartRenderer draws an SWR-vs-frequency curve with axis scales, reference
// levels and the resonance marker.
type ChartRenderer struct {
	maxSWR float64

	context  *freetype.Context
	fontFace font.Face
}

// NewChartRenderer creates a renderer with the given SWR axis ceiling.
func NewChartRenderer(maxSWR float64) (*ChartRenderer, error) {
	parsedFont, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	ctx := freetype.NewContext()
	ctx.SetDPI(dpi)
	ctx.SetFont(parsedFont)
	ctx.SetFontSize(fontSize)
	ctx.SetHinting(font.HintingNone)
	ctx.SetSrc(image.Black)

	return &ChartRenderer{
		maxSWR:  maxSWR,
		context: ctx,
		fontFace: truetype.NewFace(parsedFont, &truetype.Options{
			Size:    fontSize,
			DPI:     dpi,
			Hinting: font.HintingNone,
		}),
	}, nil
}

func (r *ChartRenderer) Close() error {
	if r.fontFace != nil {
		return r.fontFace.Close()
	}
	return nil
}

// Render draws the sweep curve. rated may be nil; the info bar then omits
// the grade.
func (r *ChartRenderer) Render(res *sweep.Result, rated *rating.Rating) (*image.RGBA, error) {
	fullWidth := plotWidth + defaultLeftBorder + defaultRightBorder
	fullHeight := plotHeight + defaultTopBorder + defaultBottomBorder
	img := image.NewRGBA(image.Rect(0, 0, fullWidth, fullHeight))

	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	area := image.Rect(
		defaultLeftBorder,
		defaultTopBorder,
		defaultLeftBorder+plotWidth,
		defaultTopBorder+plotHeight,
	)

	r.context.SetClip(img.Bounds())
	r.context.SetDst(img)

	yMax := r.chartCeiling(res)

	if err := r.drawFrequencyScale(img, area, res); err != nil {
		return nil, fmt.Errorf("drawing frequency scale: %w", err)
	}
	if err := r.drawSWRScale(img, area, yMax); err != nil {
		return nil, fmt.Errorf("drawing SWR scale: %w", err)
	}
	if err := r.drawInfoBar(img, res, rated); err != nil {
		return nil, fmt.Errorf("drawing info bar: %w", err)
	}

	r.drawReferenceLevels(img, area, yMax)
	r.drawCurve(img, area, res, yMax)
	if rated != nil {
		r.drawResonanceMarker(img, area, res, rated, yMax)
	}

	return img, nil
}

// chartCeiling picks the Y axis top: slightly above the worst measured SWR,
// capped by the configured ceiling. Saturated (sentinel) points pin the
// chart to the ceiling.
func (r *ChartRenderer) chartCeiling(res *sweep.Result) float64 {
	swrs := make([]float64, len(res.Points))
	for i, p := range res.Points {
		swrs[i] = p.SWR
	}

	top := floats.Max(swrs) * 1.1
	if top > r.maxSWR {
		top = r.maxSWR
	}
	if top < 2 {
		top = 2
	}
	return top
}

func xAt(area image.Rectangle, res *sweep.Result, freqHz float64) int {
	xRatio := (freqHz - res.StartHz) / (res.StopHz - res.StartHz)
	return clampInt(area.Min.X+int(xRatio*float64(area.Dx())), area.Min.X, area.Max.X)
}

func yAt(area image.Rectangle, swr, yMax float64) int {
	if swr > yMax {
		swr = yMax
	}
	if swr < 1 {
		swr = 1
	}
	yRatio := (swr - 1) / (yMax - 1)
	return clampInt(area.Max.Y-int(yRatio*float64(area.Dy())), area.Min.Y, area.Max.Y)
}

func (r *ChartRenderer) drawCurve(img *image.RGBA, area image.Rectangle, res *sweep.Result, yMax float64) {
	var prevX, prevY int
	for i, p := range res.Points {
		x, y := xAt(area, res, p.FrequencyHz), yAt(area, p.SWR, yMax)
		if i > 0 {
			drawLine(img, prevX, prevY, x, y, curveColor)
		}
		prevX, prevY = x, y
	}
}

func (r *ChartRenderer) drawReferenceLevels(img *image.RGBA, area image.Rectangle, yMax float64) {
	for _, level := range referenceLevels {
		if level.swr >= yMax {
			continue
		}

		y := yAt(area, level.swr, yMax)
		for x := area.Min.X; x < area.Max.X; x += 2 * dashLength {
			for dx := 0; dx < dashLength && x+dx < area.Max.X; dx++ {
				img.Set(x+dx, y, level.color)
			}
		}
	}
}

func (r *ChartRenderer) drawResonanceMarker(img *image.RGBA, area image.Rectangle, res *sweep.Result, rated *rating.Rating, yMax float64) {
	x, y := xAt(area, res, rated.ResonantFrequencyHz), yAt(area, rated.MinSWR, yMax)

	for dy := -3; dy <= 3; dy++ {
		for dx := -3; dx <= 3; dx++ {
			if dx*dx+dy*dy <= 9 {
				img.Set(x+dx, y+dy, markerColor)
			}
		}
	}
}

func (r *ChartRenderer) drawFrequencyScale(img *image.RGBA, area image.Rectangle, res *sweep.Result) error {
	freqStep := niceFrequencyStep(res.StopHz-res.StartHz, area.Dx())
	startFreq := math.Ceil(res.StartHz/freqStep) * freqStep

	metrics := r.fontFace.Metrics()
	fontHeight := (metrics.Ascent + metrics.Descent).Round()
	textY := area.Max.Y + tickMarkLength + fontHeight

	for freq := startFreq; freq <= res.StopHz; freq += freqStep {
		xRatio := (freq - res.StartHz) / (res.StopHz - res.StartHz)
		x := area.Min.X + int(xRatio*float64(area.Dx()))

		for y := area.Max.Y; y < area.Max.Y+tickMarkLength; y++ {
			img.Set(x, y, color.Black)
		}
		for y := area.Min.Y; y < area.Max.Y; y++ {
			img.Set(x, y, gridColor)
		}

		label := formatFrequency(freq)
		width := font.MeasureString(r.fontFace, label)
		pt := freetype.Pt(x-(width.Round()/2), textY)
		if _, err := r.context.DrawString(label, pt); err != nil {
			return fmt.Errorf("drawing frequency label: %w", err)
		}
	}
	return nil
}

func (r *ChartRenderer) drawSWRScale(img *image.RGBA, area image.Rectangle, yMax float64) error {
	step := niceSWRStep(yMax - 1)

	metrics := r.fontFace.Metrics()
	fontHeight := (metrics.Ascent + metrics.Descent).Round()

	for swr := 1.0; swr <= yMax; swr += step {
		y := yAt(area, swr, yMax)

		for x := area.Min.X - tickMarkLength; x < area.Min.X; x++ {
			img.Set(x, y, color.Black)
		}

		label := humanize.Ftoa(swr)
		width := font.MeasureString(r.fontFace, label)
		pt := freetype.Pt(area.Min.X-tickMarkLength-width.Round()-4, y+fontHeight/2-metrics.Descent.Round())
		if _, err := r.context.DrawString(label, pt); err != nil {
			return fmt.Errorf("drawing SWR label: %w", err)
		}
	}
	return nil
}

func (r *ChartRenderer) drawInfoBar(img *image.RGBA, res *sweep.Result, rated *rating.Rating) error {
	info := fmt.Sprintf("SWR %s - %s; %d points; %s",
		formatFrequency(res.StartHz), formatFrequency(res.StopHz), len(res.Points), res.Status)
	if rated != nil {
		info = fmt.Sprintf("%s; rating %s (%d/100), resonance %s",
			info, rated.Grade, rated.Score, formatFrequency(rated.ResonantFrequencyHz))
	}

	metrics := r.fontFace.Metrics()
	fontHeight := (metrics.Ascent + metrics.Descent).Round()
	textY := defaultTopBorder - fontHeight/2

	pt := freetype.Pt(defaultLeftBorder, textY)
	if _, err := r.context.DrawString(info, pt); err != nil {
		return fmt.Errorf("drawing info text: %w", err)
	}
	return nil
}

// Helper functions

func drawLine(img *image.RGBA, x0, y0, x1, y1 int, c color.Color) {
	dx := absInt(x1 - x0)
	dy := -absInt(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}

	err := dx + dy
	for {
		img.Set(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		if e2 := 2 * err; e2 >= dy {
			err += dy
			x0 += sx
		} else {
			err += dx
			y0 += sy
		}
	}
}

func niceFrequencyStep(span float64, width int) float64 {
	// Standard step sizes in Hz
	steps := []float64{
		1_000,         // 1 kHz
		10_000,        // 10 kHz
		100_000,       // 100 kHz
		500_000,       // 500 kHz
		1_000_000,     // 1 MHz
		5_000_000,     // 5 MHz
		10_000_000,    // 10 MHz
		100_000_000,   // 100 MHz
	}

	desiredSteps := float64(width) / pixelsPerLabel
	targetStep := span / desiredSteps

	for _, step := range steps {
		if step >= targetStep {
			if span/step >= 2 {
				return step
			}
			break
		}
	}
	return span / 2
}

func niceSWRStep(span float64) float64 {
	switch {
	case span <= 3:
		return 0.5
	case span <= 9:
		return 1
	default:
		return 2
	}
}

func formatFrequency(hz float64) string {
	value, prefix := humanize.ComputeSI(hz)
	return fmt.Sprintf("%s %sHz", humanize.Ftoa(value), prefix)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
