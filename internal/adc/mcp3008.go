// Package adc reads calibrated detector voltages through an MCP3008
// analog-to-digital converter on the rig's SPI path.
package adc

import (
	"errors"
	"fmt"
	"sort"

	"github.com/roman-kulish/antenna-analyzer/internal/rig"
)

const (
	// DefaultVref is the ADC reference voltage on the reference rig.
	DefaultVref = 3.3

	// Resolution is the MCP3008 full-scale count.
	Resolution = 1024

	// ChannelMagnitude and ChannelPhase are the detector outputs on the
	// reference rig (AD8302 magnitude and phase).
	ChannelMagnitude = 0
	ChannelPhase     = 1
)

// ErrSamplingFailure is returned when the analog path fails. Reads are never
// retried internally: an intermittent connection should surface, not be
// averaged away.
var ErrSamplingFailure = errors.New("analog sampling failed")

// WithVref sets the measured ADC reference voltage.
func WithVref(vref float64) func(*Sampler) {
	return func(s *Sampler) {
		s.vref = vref
	}
}

// WithOversampling makes ReadChannel take count conversions and return their
// median. Detector noise varies by rig, so the policy is a knob rather than
// hardwired; count < 2 disables it.
func WithOversampling(count int) func(*Sampler) {
	return func(s *Sampler) {
		s.oversample = count
	}
}

// Sampler converts MCP3008 channels to volts.
type Sampler struct {
	ch         rig.Channel
	vref       float64
	oversample int
}

// New creates a Sampler on the given channel.
func New(ch rig.Channel, options ...func(*Sampler)) *Sampler {
	s := Sampler{
		ch:   ch,
		vref: DefaultVref,
	}

	for _, option := range options {
		option(&s)
	}

	return &s
}

// ReadChannel returns the voltage on a single-ended ADC channel, applying
// the configured oversampling policy.
func (s *Sampler) ReadChannel(channel int) (float64, error) {
	if channel < 0 || channel > 7 {
		return 0, fmt.Errorf("%w: channel %d out of range", ErrSamplingFailure, channel)
	}

	count := s.oversample
	if count < 2 {
		sample, err := s.convert(channel)
		if err != nil {
			return 0, err
		}
		return s.toVolts(sample), nil
	}

	samples := make([]uint16, count)
	for i := range samples {
		sample, err := s.convert(channel)
		if err != nil {
			return 0, err
		}
		samples[i] = sample
	}

	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })

	mid := count / 2
	if count%2 == 1 {
		return s.toVolts(samples[mid]), nil
	}
	return (s.toVolts(samples[mid-1]) + s.toVolts(samples[mid])) / 2, nil
}

// convert issues one conversion frame: start bit, single-ended channel
// select nibble, one don't-care byte. The 10-bit result is the low two bits
// of the second response byte followed by the third.
func (s *Sampler) convert(channel int) (uint16, error) {
	response, err := s.ch.TransferFrame([]byte{0x01, byte(8+channel) << 4, 0x00})
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSamplingFailure, err)
	}
	if len(response) != 3 {
		return 0, fmt.Errorf("%w: expected 3 response bytes, got %d", ErrSamplingFailure, len(response))
	}

	return uint16(response[1]&0x03)<<8 | uint16(response[2]), nil
}

func (s *Sampler) toVolts(sample uint16) float64 {
	return float64(sample) * s.vref / Resolution
}
