// Package dds drives an AD9850 direct digital synthesis module through the
// rig's digital control lines. The device is programmed serially: a 32-bit
// tuning word plus an 8-bit control byte, clocked in LSB first on W_CLK and
// latched atomically by a pulse on FQ_UD.
package dds

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/roman-kulish/antenna-analyzer/internal/rig"
)

const (
	// DefaultClockHz is the nominal reference oscillator frequency. The
	// true frequency varies per unit and is established once out of band;
	// override it with WithClock.
	DefaultClockHz = 125e6

	// DefaultMaxFrequencyHz is the usable output ceiling. The AD9850 can
	// nominally reach clock/2, but output above ~40 MHz is too degraded
	// for measurement use.
	DefaultMaxFrequencyHz = 40e6

	// MinFrequencyHz is the lowest programmable output.
	MinFrequencyHz = 1.0

	// resetHold is how long the RESET line is held at each level during
	// the reset sequence. The datasheet minimum is a handful of clock
	// cycles; 1 ms is comfortably above it.
	resetHold = time.Millisecond

	wordBits    = 32
	controlBits = 8
)

// ErrFrequencyOutOfRange is returned when a requested frequency is outside
// the synthesizer's usable band. Out-of-band requests are rejected, never
// clamped: a tuning word above Nyquist aliases silently.
var ErrFrequencyOutOfRange = errors.New("frequency out of range")

// WithClock sets the measured reference clock frequency in Hz.
func WithClock(clockHz float64) func(*Synthesizer) {
	return func(s *Synthesizer) {
		s.clockHz = clockHz
	}
}

// WithMaxFrequency sets the usable output ceiling in Hz. Values above
// clock/2 are capped at clock/2.
func WithMaxFrequency(maxHz float64) func(*Synthesizer) {
	return func(s *Synthesizer) {
		s.maxHz = maxHz
	}
}

// WithLines overrides the default control line assignment.
func WithLines(wordClock, data, freqLatch, reset rig.Line) func(*Synthesizer) {
	return func(s *Synthesizer) {
		s.wclk = wordClock
		s.data = data
		s.fqud = freqLatch
		s.reset = reset
	}
}

// Synthesizer encodes target frequencies into AD9850 tuning words and issues
// them through a rig.Channel.
type Synthesizer struct {
	ch rig.Channel

	clockHz float64
	maxHz   float64

	wclk  rig.Line
	data  rig.Line
	fqud  rig.Line
	reset rig.Line
}

// New creates a Synthesizer on the given channel with the default clock,
// ceiling and line assignment.
func New(ch rig.Channel, options ...func(*Synthesizer)) *Synthesizer {
	s := Synthesizer{
		ch:      ch,
		clockHz: DefaultClockHz,
		maxHz:   DefaultMaxFrequencyHz,
		wclk:    rig.LineWordClock,
		data:    rig.LineData,
		fqud:    rig.LineFreqLatch,
		reset:   rig.LineReset,
	}

	for _, option := range options {
		option(&s)
	}

	if nyquist := s.clockHz / 2; s.maxHz >= nyquist {
		s.maxHz = math.Nextafter(nyquist, 0)
	}

	return &s
}

// Range returns the usable frequency band in Hz.
func (s *Synthesizer) Range() (minHz, maxHz float64) {
	return MinFrequencyHz, s.maxHz
}

// TuningWord computes the 32-bit phase accumulator increment for the given
// output frequency and reference clock.
func TuningWord(freqHz, clockHz float64) uint32 {
	return uint32(math.Round(freqHz * (1 << wordBits) / clockHz))
}

// Reset drives the RESET sequence (high, low, high with ≥1 ms holds),
// returning the synthesizer to a known phase accumulator state. Issued once
// at startup and on fault recovery.
func (s *Synthesizer) Reset() error {
	for _, level := range []rig.Level{rig.High, rig.Low, rig.High} {
		if err := s.ch.SetDigitalLine(s.reset, level); err != nil {
			return fmt.Errorf("driving reset line: %w", err)
		}
		time.Sleep(resetHold)
	}
	return nil
}

// SetFrequency programs the synthesizer output. The new frequency takes
// effect atomically on the final FQ_UD pulse; an interrupted transfer is
// never latched.
func (s *Synthesizer) SetFrequency(freqHz float64) error {
	if math.IsNaN(freqHz) || freqHz < MinFrequencyHz || freqHz > s.maxHz {
		return fmt.Errorf("%w: %.0f Hz not in [%.0f, %.0f]", ErrFrequencyOutOfRange, freqHz, MinFrequencyHz, s.maxHz)
	}

	word := TuningWord(freqHz, s.clockHz)

	// Tuning word first, LSB-first within and across bytes, then the
	// all-zero control byte: 40 bits total.
	for i := 0; i < wordBits; i++ {
		if err := s.shiftBit(word>>uint(i)&1 == 1); err != nil {
			return err
		}
	}
	for i := 0; i < controlBits; i++ {
		if err := s.shiftBit(false); err != nil {
			return err
		}
	}

	if err := s.ch.PulseDigitalLine(s.fqud); err != nil {
		return fmt.Errorf("latching frequency: %w", err)
	}
	return nil
}

func (s *Synthesizer) shiftBit(bit bool) error {
	if err := s.ch.SetDigitalLine(s.data, rig.Level(bit)); err != nil {
		return fmt.Errorf("setting data line: %w", err)
	}
	if err := s.ch.PulseDigitalLine(s.wclk); err != nil {
		return fmt.Errorf("clocking bit: %w", err)
	}
	return nil
}
