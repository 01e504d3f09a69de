package rig

import (
	"math"
	"math/rand"
	"sync"
)

const (
	simWordBits = 32
	simLoadBits = 40 // 32-bit tuning word + 8-bit control byte
)

// DetectorFunc models the detector voltage seen on an ADC channel while the
// synthesizer outputs the given frequency. Channel 0 is magnitude, channel 1
// is phase.
type DetectorFunc func(channel int, freqHz float64) float64

// FlatDetector returns a detector producing constant voltages regardless of
// frequency: magVolts on channel 0, phaseVolts on channel 1, mid-scale
// elsewhere.
func FlatDetector(magVolts, phaseVolts float64) DetectorFunc {
	return func(channel int, _ float64) float64 {
		switch channel {
		case 0:
			return magVolts
		case 1:
			return phaseVolts
		default:
			return 1.65
		}
	}
}

// DipoleDetector models a resonant antenna as a Gaussian dip in the
// magnitude voltage: floorVolts away from resonance, floorVolts-depthVolts
// at resonantHz, with the given half-width. Phase is a fixed mid-scale level.
func DipoleDetector(resonantHz, widthHz, floorVolts, depthVolts float64) DetectorFunc {
	return func(channel int, freqHz float64) float64 {
		if channel != 0 {
			return 1.5
		}
		x := (freqHz - resonantHz) / widthHz
		return floorVolts - depthVolts*math.Exp(-x*x)
	}
}

// WithDetector sets the simulated detector response.
func WithDetector(fn DetectorFunc) func(*Simulator) {
	return func(s *Simulator) {
		s.detector = fn
	}
}

// WithClock sets the simulated DDS reference clock in Hz.
func WithClock(clockHz float64) func(*Simulator) {
	return func(s *Simulator) {
		s.clockHz = clockHz
	}
}

// WithVref sets the simulated ADC reference voltage.
func WithVref(vref float64) func(*Simulator) {
	return func(s *Simulator) {
		s.vref = vref
	}
}

// WithNoise adds zero-mean Gaussian noise with the given standard deviation
// in volts to every conversion, from a seeded source so runs stay
// reproducible.
func WithNoise(stddev float64, seed int64) func(*Simulator) {
	return func(s *Simulator) {
		s.noise = stddev
		s.rng = rand.New(rand.NewSource(seed))
	}
}

// Simulator is a deterministic in-memory Channel. It decodes the AD9850
// serial load protocol from the digital-line traffic it receives, so the
// frequency it reports is the frequency the driver actually clocked out, and
// it answers MCP3008 request frames from a pluggable detector model. The
// zero noise default keeps tests bit-exact.
type Simulator struct {
	mu sync.Mutex

	lines map[Line]Level

	shift    uint64 // bits received since the last latch, LSB first
	bitCount int
	word     uint32 // latched tuning word
	loads    int    // completed latches since reset

	clockHz  float64
	vref     float64
	detector DetectorFunc

	noise float64
	rng   *rand.Rand

	transferErr error
	closed      bool
}

// NewSimulator creates a Simulator with a 125 MHz clock, 3.3 V reference and
// a flat detector.
func NewSimulator(options ...func(*Simulator)) *Simulator {
	s := Simulator{
		lines:    make(map[Line]Level),
		clockHz:  125e6,
		vref:     3.3,
		detector: FlatDetector(0.9, 1.5),
	}

	for _, option := range options {
		option(&s)
	}

	return &s
}

func (s *Simulator) SetDigitalLine(line Line, level Level) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrChannelClosed
	}

	if line == LineReset && level == High && s.lines[LineReset] == Low {
		// Rising edge on RESET returns the phase accumulator and the
		// serial load state to zero.
		s.shift = 0
		s.bitCount = 0
		s.word = 0
	}

	s.lines[line] = level
	return nil
}

func (s *Simulator) PulseDigitalLine(line Line) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrChannelClosed
	}

	switch line {
	case LineWordClock:
		if s.bitCount < simLoadBits {
			if s.lines[LineData] == High {
				s.shift |= 1 << uint(s.bitCount)
			}
			s.bitCount++
		}

	case LineFreqLatch:
		// The update pulse is the sole commitment point: a partial load
		// is discarded, never latched.
		if s.bitCount == simLoadBits {
			s.word = uint32(s.shift & ((1 << simWordBits) - 1))
			s.loads++
		}
		s.shift = 0
		s.bitCount = 0
	}

	return nil
}

func (s *Simulator) TransferFrame(frame []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrChannelClosed
	}
	if s.transferErr != nil {
		return nil, s.transferErr
	}
	if len(frame) != 3 || frame[0] != 0x01 || frame[1]&0x80 == 0 {
		return nil, ErrTransfer
	}

	channel := int(frame[1]>>4) - 8
	sample := s.convert(channel)

	return []byte{0x01, byte(sample>>8) & 0x03, byte(sample)}, nil
}

func (s *Simulator) ReadAnalog(channel int) (uint16, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrChannelClosed
	}
	if s.transferErr != nil {
		return 0, s.transferErr
	}
	if channel < 0 || channel > 7 {
		return 0, ErrTransfer
	}

	return s.convert(channel), nil
}

func (s *Simulator) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// FailTransfers makes subsequent conversions fail with err. Passing nil
// restores normal operation.
func (s *Simulator) FailTransfers(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transferErr = err
}

// Frequency returns the currently latched output frequency in Hz.
func (s *Simulator) Frequency() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return float64(s.word) * s.clockHz / (1 << simWordBits)
}

// TuningWord returns the currently latched tuning word.
func (s *Simulator) TuningWord() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.word
}

// Loads returns how many complete tuning words have been latched since the
// last reset.
func (s *Simulator) Loads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads
}

// convert runs the detector model for the latched frequency and quantizes
// the result to a 10-bit sample. Callers must hold s.mu.
func (s *Simulator) convert(channel int) uint16 {
	freq := float64(s.word) * s.clockHz / (1 << simWordBits)

	volts := s.detector(channel, freq)
	if s.noise > 0 && s.rng != nil {
		volts += s.rng.NormFloat64() * s.noise
	}

	sample := math.Round(volts * 1024 / s.vref)
	if sample < 0 {
		sample = 0
	}
	if sample > 1023 {
		sample = 1023
	}
	return uint16(sample)
}
