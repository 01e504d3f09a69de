// Package rating reduces a sweep's measurement series to summary statistics
// and a letter grade with qualitative recommendations. Scoring is pure
// policy: the weight table and grade ladder are configuration, not physics,
// so grading can be recalibrated without touching the measurement pipeline.
package rating

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/roman-kulish/antenna-analyzer/internal/sweep"
)

// SWR thresholds shared by the metrics and the recommendation notes.
const (
	ExcellentSWR  = 1.5
	UsableSWR     = 2.0 // bandwidth and coverage threshold
	AcceptableSWR = 3.0

	// avgCeiling is where the average-SWR component bottoms out. Averages
	// beyond it (e.g. mostly saturated points) score zero.
	avgCeiling = 5.0
)

// ErrEmptySweep is returned when rating is requested on zero points.
var ErrEmptySweep = errors.New("empty sweep")

// Grade is an 11-tier letter grade, A+ down to F.
type Grade string

const (
	GradeAPlus  Grade = "A+"
	GradeA      Grade = "A"
	GradeAMinus Grade = "A-"
	GradeBPlus  Grade = "B+"
	GradeB      Grade = "B"
	GradeBMinus Grade = "B-"
	GradeCPlus  Grade = "C+"
	GradeC      Grade = "C"
	GradeCMinus Grade = "C-"
	GradeD      Grade = "D"
	GradeF      Grade = "F"
)

// Band maps a score floor to a grade.
type Band struct {
	Grade    Grade
	MinScore int
}

// DefaultBands is the reference grade ladder.
func DefaultBands() []Band {
	return []Band{
		{GradeAPlus, 90},
		{GradeA, 85},
		{GradeAMinus, 80},
		{GradeBPlus, 75},
		{GradeB, 70},
		{GradeBMinus, 65},
		{GradeCPlus, 60},
		{GradeC, 55},
		{GradeCMinus, 50},
		{GradeD, 40},
		{GradeF, 0},
	}
}

// Weights combines the four curve metrics into a score. Values are relative;
// they are normalized by their sum.
type Weights struct {
	MinSWR    float64 `yaml:"minSwr"`
	AvgSWR    float64 `yaml:"avgSwr"`
	Bandwidth float64 `yaml:"bandwidth"`
	Coverage  float64 `yaml:"coverage"`
}

// DefaultWeights favors a deep match and broad coverage over averages.
func DefaultWeights() Weights {
	return Weights{
		MinSWR:    0.30,
		AvgSWR:    0.20,
		Bandwidth: 0.20,
		Coverage:  0.30,
	}
}

// Rating is the derived, stateless summary of one sweep. Recomputable at any
// time from the same Result with bit-identical output.
type Rating struct {
	Score int   // 0..100
	Grade Grade

	MinSWR              float64
	AvgSWR              float64
	ResonantFrequencyHz float64 // frequency of the first minimum-SWR point
	UsableBandwidthHz   float64 // contiguous SWR ≤ 2.0 span around resonance
	CoverageRatio       float64 // share of points with SWR ≤ 2.0

	Notes []string
}

// WithWeights overrides the scoring weight table.
func WithWeights(w Weights) func(*Rater) {
	return func(r *Rater) {
		r.weights = w
	}
}

// WithBands overrides the grade ladder. Bands must be ordered by descending
// MinScore and end with a zero floor.
func WithBands(bands []Band) func(*Rater) {
	return func(r *Rater) {
		r.bands = bands
	}
}

// Rater scores sweep results.
type Rater struct {
	weights Weights
	bands   []Band
}

// New creates a Rater with the default weights and grade ladder.
func New(options ...func(*Rater)) *Rater {
	r := Rater{
		weights: DefaultWeights(),
		bands:   DefaultBands(),
	}

	for _, option := range options {
		option(&r)
	}

	return &r
}

// Rate computes the curve metrics and score for a sweep result. Pure: the
// result is never mutated.
func (r *Rater) Rate(res *sweep.Result) (*Rating, error) {
	if res == nil || len(res.Points) == 0 {
		return nil, ErrEmptySweep
	}

	swrs := make([]float64, len(res.Points))
	for i, p := range res.Points {
		swrs[i] = p.SWR
	}

	resonantIdx := floats.MinIdx(swrs)
	total := res.PointCount
	if total < len(res.Points) || total == 0 {
		total = len(res.Points)
	}

	usable := 0
	for _, s := range swrs {
		if s <= UsableSWR {
			usable++
		}
	}

	rating := Rating{
		MinSWR:              swrs[resonantIdx],
		AvgSWR:              stat.Mean(swrs, nil),
		ResonantFrequencyHz: res.Points[resonantIdx].FrequencyHz,
		UsableBandwidthHz:   usableBandwidth(res.Points, swrs, resonantIdx),
		CoverageRatio:       float64(usable) / float64(total),
	}

	rating.Score = r.score(&rating, res.StopHz-res.StartHz)
	rating.Grade = r.grade(rating.Score)
	rating.Notes = notes(&rating)

	return &rating, nil
}

// usableBandwidth measures the contiguous SWR ≤ 2.0 region containing the
// resonance; isolated low-SWR points outside the main dip do not count.
func usableBandwidth(points []sweep.Point, swrs []float64, resonantIdx int) float64 {
	if swrs[resonantIdx] > UsableSWR {
		return 0
	}

	lo := resonantIdx
	for lo > 0 && swrs[lo-1] <= UsableSWR {
		lo--
	}
	hi := resonantIdx
	for hi < len(swrs)-1 && swrs[hi+1] <= UsableSWR {
		hi++
	}

	return points[hi].FrequencyHz - points[lo].FrequencyHz
}

func (r *Rater) score(rating *Rating, spanHz float64) int {
	minScore := unitRange(rating.MinSWR, 1, AcceptableSWR)
	avgScore := unitRange(rating.AvgSWR, 1, avgCeiling)

	var bwScore float64
	if spanHz > 0 {
		bwScore = rating.UsableBandwidthHz / spanHz
	}

	w := r.weights
	sum := w.MinSWR + w.AvgSWR + w.Bandwidth + w.Coverage
	if sum <= 0 {
		return 0
	}

	weighted := w.MinSWR*minScore + w.AvgSWR*avgScore + w.Bandwidth*bwScore + w.Coverage*rating.CoverageRatio
	score := int(math.Round(100 * weighted / sum))

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// unitRange maps v linearly onto [0,1]: 1 at best, 0 at worst or beyond.
func unitRange(v, best, worst float64) float64 {
	s := (worst - v) / (worst - best)
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

func (r *Rater) grade(score int) Grade {
	for _, band := range r.bands {
		if score >= band.MinScore {
			return band.Grade
		}
	}
	return GradeF
}

func notes(rating *Rating) []string {
	var out []string

	switch {
	case rating.MinSWR <= ExcellentSWR:
		out = append(out, fmt.Sprintf("excellent resonance achieved (min SWR %.2f)", rating.MinSWR))
	case rating.MinSWR <= UsableSWR:
		out = append(out, fmt.Sprintf("good resonance achieved (min SWR %.2f)", rating.MinSWR))
	default:
		out = append(out, "poor resonance: check antenna length or tuning")
	}

	switch {
	case rating.CoverageRatio >= 0.7:
		out = append(out, "good bandwidth coverage")
	case rating.CoverageRatio >= 0.5:
		out = append(out, "moderate bandwidth coverage")
	default:
		out = append(out, "poor bandwidth coverage: consider a matching network")
	}

	if rating.AvgSWR > AcceptableSWR {
		out = append(out, "high average SWR: check connections and grounding")
	}

	return out
}
