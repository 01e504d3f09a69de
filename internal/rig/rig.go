// Package rig abstracts the analyzer's hardware: the digital control lines
// driving the DDS synthesizer and the SPI path to the detector ADC. The
// physical Raspberry Pi implementation and the deterministic Simulator
// satisfy the same Channel contract, so the measurement pipeline is wired to
// one or the other at construction time.
package rig

import "errors"

// Level is the state of a digital output line.
type Level bool

const (
	Low  Level = false
	High Level = true
)

// Line identifies a digital control line by its BCM pin number.
type Line int

// Default pin assignment for the AD9850 module, matching the reference rig.
const (
	LineWordClock Line = 18 // W_CLK
	LineData      Line = 23 // DATA
	LineFreqLatch Line = 24 // FQ_UD
	LineReset     Line = 25 // RESET
)

var (
	// ErrTransfer is returned when a full-duplex frame exchange with the
	// ADC fails or yields a malformed response.
	ErrTransfer = errors.New("frame transfer failed")

	// ErrUnknownLine is returned when a digital line is not mapped on the
	// channel.
	ErrUnknownLine = errors.New("unknown digital line")

	// ErrChannelClosed is returned by operations on a closed channel.
	ErrChannelClosed = errors.New("hardware channel closed")
)

// Channel is the capability interface consumed by the synthesizer driver and
// the analog sampler. Implementations must preserve causal ordering of calls:
// a line set before a pulse is observed before it, and frames transferred
// after a frequency latch see the latched frequency.
type Channel interface {
	// SetDigitalLine drives a digital output line to the given level.
	SetDigitalLine(line Line, level Level) error

	// PulseDigitalLine drives a line high then low. The high phase is the
	// commitment point for edge-triggered inputs such as W_CLK and FQ_UD.
	PulseDigitalLine(line Line) error

	// TransferFrame performs a full-duplex exchange and returns a response
	// of the same length as the request.
	TransferFrame(frame []byte) ([]byte, error)

	// ReadAnalog returns one raw 10-bit sample from an ADC channel,
	// bypassing any conversion or averaging policy. Used by diagnostics.
	ReadAnalog(channel int) (uint16, error)

	// Close releases the underlying hardware resources.
	Close() error
}
