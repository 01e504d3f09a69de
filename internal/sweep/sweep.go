// Package sweep orchestrates a full frequency sweep: for each point, set the
// synthesizer frequency, wait for the detector to settle, sample, convert to
// SWR. Execution is strictly sequential because the synthesizer and sampler
// share one physical bus and a frequency change must settle before sampling.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/roman-kulish/antenna-analyzer/internal/adc"
	"github.com/roman-kulish/antenna-analyzer/internal/swr"
)

// DefaultSettleDelay is the wait between a frequency change and sampling,
// sized for the detector's filtered output to reach steady state.
const DefaultSettleDelay = 10 * time.Millisecond

var (
	// ErrNotCalibrated is returned when a sweep is attempted without
	// calibration constants. Computing SWR against a default-zero
	// calibration would be nonsense, so the sweep fails fast instead.
	ErrNotCalibrated = errors.New("not calibrated")

	// ErrInvalidSpan is returned when the requested frequency span or
	// point count cannot form a sweep.
	ErrInvalidSpan = errors.New("invalid sweep span")

	// ErrSweepInProgress is returned when Run is called while another
	// sweep owns the hardware channel.
	ErrSweepInProgress = errors.New("sweep already in progress")
)

// Tuner is the frequency synthesizer contract consumed by the controller.
type Tuner interface {
	Reset() error
	SetFrequency(freqHz float64) error
	Range() (minHz, maxHz float64)
}

// VoltageReader is the analog sampler contract consumed by the controller.
type VoltageReader interface {
	ReadChannel(channel int) (float64, error)
}

// Status distinguishes how a sweep ended. A faulted or cancelled sweep is
// never coerced into the shape of a completed one.
type Status int

const (
	StatusCompleted Status = iota
	StatusCancelled
	StatusFaulted
)

func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusCancelled:
		return "cancelled"
	case StatusFaulted:
		return "faulted"
	default:
		return "unknown"
	}
}

// Point is one measurement of the sweep, append-only and ordered by
// ascending frequency.
type Point struct {
	FrequencyHz    float64
	MagnitudeVolts float64
	PhaseVolts     *float64 // nil when phase capture is disabled
	SWR            float64
}

// Result is the outcome of one sweep invocation. Immutable once the sweep
// ends; a cancelled or faulted sweep carries the strictly shorter, still
// ordered prefix of points collected before it stopped.
type Result struct {
	StartHz    float64
	StopHz     float64
	PointCount int // requested number of points
	StartedAt  time.Time

	Status     Status
	Points     []Point
	FaultIndex int // step index of the fault, -1 otherwise
}

// Config is the per-sweep request. Calibration is explicit: an absent value
// means "not yet calibrated" rather than a zero sentinel that could pass for
// real constants.
type Config struct {
	StartHz     float64
	StopHz      float64
	Points      int
	Calibration *swr.Constants
}

// ProgressFunc is invoked once per completed measurement point.
type ProgressFunc func(index, total int, point Point)

// WithLogger sets the logger for the controller.
func WithLogger(logger *slog.Logger) func(*Controller) {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithSettleDelay overrides the post-tune settle delay. Zero disables the
// wait, which only makes sense against the simulator.
func WithSettleDelay(d time.Duration) func(*Controller) {
	return func(c *Controller) {
		c.settle = d
	}
}

// WithProgress registers a per-point progress callback.
func WithProgress(fn ProgressFunc) func(*Controller) {
	return func(c *Controller) {
		c.progress = fn
	}
}

// WithoutPhase disables sampling of the detector's phase output.
func WithoutPhase() func(*Controller) {
	return func(c *Controller) {
		c.readPhase = false
	}
}

// Controller owns the hardware channel for the duration of a sweep and
// produces its ordered measurement series. Cancellation is cooperative,
// polled between steps only; an in-flight tuning transfer is never
// interrupted, so a partial tuning word is never latched.
type Controller struct {
	tuner   Tuner
	sampler VoltageReader

	settle    time.Duration
	readPhase bool

	progress ProgressFunc
	logger   *slog.Logger

	running atomic.Bool
}

// New creates a Controller with a discard logger, the default settle delay
// and phase capture enabled.
func New(tuner Tuner, sampler VoltageReader, options ...func(*Controller)) *Controller {
	c := Controller{
		tuner:     tuner,
		sampler:   sampler,
		settle:    DefaultSettleDelay,
		readPhase: true,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&c)
	}

	return &c
}

// IsRunning reports whether a sweep is in progress. Callers must not
// re-calibrate or issue raw hardware calls while it returns true.
func (c *Controller) IsRunning() bool {
	return c.running.Load()
}

// Run performs a sweep. On success the result holds exactly cfg.Points
// measurements with point[0] at StartHz and the last point at StopHz. On
// cancellation the partial result is returned together with the context
// error; on a fault the partial result is returned with the wrapped cause
// and the step index recorded. Initialization failures return a nil result.
func (c *Controller) Run(ctx context.Context, cfg Config) (*Result, error) {
	if !c.running.CompareAndSwap(false, true) {
		return nil, ErrSweepInProgress
	}
	defer c.running.Store(false)

	// Initializing: validate the request, then bring the synthesizer to a
	// known phase accumulator state.
	if err := c.validate(cfg); err != nil {
		return nil, err
	}
	if err := c.tuner.Reset(); err != nil {
		return nil, fmt.Errorf("resetting synthesizer: %w", err)
	}

	res := Result{
		StartHz:    cfg.StartHz,
		StopHz:     cfg.StopHz,
		PointCount: cfg.Points,
		StartedAt:  time.Now(),
		FaultIndex: -1,
		Points:     make([]Point, 0, cfg.Points),
	}

	c.logger.Info("sweep started",
		slog.Float64("startHz", cfg.StartHz),
		slog.Float64("stopHz", cfg.StopHz),
		slog.Int("points", cfg.Points))

	for i := 0; i < cfg.Points; i++ {
		select {
		case <-ctx.Done():
			res.Status = StatusCancelled
			c.logger.Info("sweep cancelled", slog.Int("collected", len(res.Points)))
			return &res, ctx.Err()
		default:
		}

		freq := cfg.StartHz + (cfg.StopHz-cfg.StartHz)*float64(i)/float64(cfg.Points-1)
		if i == cfg.Points-1 {
			freq = cfg.StopHz // pin the endpoint against rounding drift
		}

		point, err := c.measure(freq, *cfg.Calibration)
		if err != nil {
			res.Status = StatusFaulted
			res.FaultIndex = i
			c.logger.Error("sweep faulted", slog.Int("index", i), slog.Float64("frequencyHz", freq))

			// No automatic retry: blind re-reads could mask a wiring
			// fault. Retry policy belongs to the caller.
			return &res, fmt.Errorf("measuring point %d (%.0f Hz): %w", i, freq, err)
		}

		res.Points = append(res.Points, point)
		if c.progress != nil {
			c.progress(i, cfg.Points, point)
		}
	}

	res.Status = StatusCompleted
	c.logger.Info("sweep completed", slog.Int("points", len(res.Points)))
	return &res, nil
}

func (c *Controller) validate(cfg Config) error {
	if cfg.Calibration == nil {
		return ErrNotCalibrated
	}
	if cfg.Points < 2 {
		return fmt.Errorf("%w: need at least 2 points to interpolate a range, got %d", ErrInvalidSpan, cfg.Points)
	}
	if cfg.StartHz >= cfg.StopHz {
		return fmt.Errorf("%w: start %.0f Hz must be below stop %.0f Hz", ErrInvalidSpan, cfg.StartHz, cfg.StopHz)
	}

	minHz, maxHz := c.tuner.Range()
	if cfg.StartHz < minHz || cfg.StopHz > maxHz {
		return fmt.Errorf("%w: [%.0f, %.0f] Hz outside synthesizer range [%.0f, %.0f]", ErrInvalidSpan, cfg.StartHz, cfg.StopHz, minHz, maxHz)
	}
	return nil
}

func (c *Controller) measure(freqHz float64, cal swr.Constants) (Point, error) {
	if err := c.tuner.SetFrequency(freqHz); err != nil {
		return Point{}, err
	}
	if c.settle > 0 {
		time.Sleep(c.settle)
	}

	mag, err := c.sampler.ReadChannel(adc.ChannelMagnitude)
	if err != nil {
		return Point{}, err
	}

	point := Point{
		FrequencyHz:    freqHz,
		MagnitudeVolts: mag,
		SWR:            swr.Compute(mag, cal),
	}

	if c.readPhase {
		phase, err := c.sampler.ReadChannel(adc.ChannelPhase)
		if err != nil {
			return Point{}, err
		}
		point.PhaseVolts = &phase
	}

	return point, nil
}
