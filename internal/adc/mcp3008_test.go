package adc

import (
	"errors"
	"math"
	"testing"

	"github.com/roman-kulish/antenna-analyzer/internal/rig"
)

// scriptedChannel answers conversion frames with a fixed sequence of samples,
// recording each request for protocol assertions.
type scriptedChannel struct {
	samples []uint16
	frames  [][]byte
	next    int
}

func (c *scriptedChannel) SetDigitalLine(rig.Line, rig.Level) error { return nil }
func (c *scriptedChannel) PulseDigitalLine(rig.Line) error          { return nil }
func (c *scriptedChannel) ReadAnalog(int) (uint16, error)           { return 0, nil }
func (c *scriptedChannel) Close() error                             { return nil }

func (c *scriptedChannel) TransferFrame(frame []byte) ([]byte, error) {
	c.frames = append(c.frames, append([]byte(nil), frame...))
	if c.next >= len(c.samples) {
		return nil, errors.New("script exhausted")
	}
	sample := c.samples[c.next]
	c.next++
	return []byte{0x01, byte(sample>>8) & 0x03, byte(sample)}, nil
}

func TestSampler_ReadChannel(t *testing.T) {
	ch := &scriptedChannel{samples: []uint16{512}}
	sampler := New(ch)

	volts, err := sampler.ReadChannel(3)
	if err != nil {
		t.Fatalf("Failed to read channel: %v", err)
	}

	if want := 512 * 3.3 / 1024; volts != want {
		t.Errorf("Expected %.6f V, got %.6f V", want, volts)
	}

	// One conversion frame: start bit, single-ended channel 3, don't-care.
	if len(ch.frames) != 1 {
		t.Fatalf("Expected 1 frame, got %d", len(ch.frames))
	}
	want := []byte{0x01, byte(8+3) << 4, 0x00}
	for i, b := range want {
		if ch.frames[0][i] != b {
			t.Errorf("Frame byte %d: expected 0x%02x, got 0x%02x", i, b, ch.frames[0][i])
		}
	}
}

func TestSampler_CustomVref(t *testing.T) {
	ch := &scriptedChannel{samples: []uint16{1023}}
	sampler := New(ch, WithVref(5.0))

	volts, err := sampler.ReadChannel(0)
	if err != nil {
		t.Fatalf("Failed to read channel: %v", err)
	}
	if want := 1023 * 5.0 / 1024; math.Abs(volts-want) > 1e-12 {
		t.Errorf("Expected %.6f V, got %.6f V", want, volts)
	}
}

func TestSampler_OversamplingMedian(t *testing.T) {
	t.Run("odd count takes the middle sample", func(t *testing.T) {
		ch := &scriptedChannel{samples: []uint16{300, 100, 900}}
		sampler := New(ch, WithOversampling(3))

		volts, err := sampler.ReadChannel(0)
		if err != nil {
			t.Fatalf("Failed to read channel: %v", err)
		}
		if want := 300 * 3.3 / 1024; math.Abs(volts-want) > 1e-12 {
			t.Errorf("Expected median %.6f V, got %.6f V", want, volts)
		}
	})

	t.Run("even count averages the middle pair", func(t *testing.T) {
		ch := &scriptedChannel{samples: []uint16{100, 400, 200, 900}}
		sampler := New(ch, WithOversampling(4))

		volts, err := sampler.ReadChannel(0)
		if err != nil {
			t.Fatalf("Failed to read channel: %v", err)
		}
		want := (200*3.3/1024 + 400*3.3/1024) / 2
		if math.Abs(volts-want) > 1e-12 {
			t.Errorf("Expected median %.6f V, got %.6f V", want, volts)
		}
	})

	t.Run("count below 2 disables oversampling", func(t *testing.T) {
		ch := &scriptedChannel{samples: []uint16{700}}
		sampler := New(ch, WithOversampling(1))

		if _, err := sampler.ReadChannel(0); err != nil {
			t.Fatalf("Failed to read channel: %v", err)
		}
		if len(ch.frames) != 1 {
			t.Errorf("Expected 1 conversion, got %d", len(ch.frames))
		}
	})
}

func TestSampler_ChannelBounds(t *testing.T) {
	sampler := New(&scriptedChannel{})

	for _, channel := range []int{-1, 8, 100} {
		if _, err := sampler.ReadChannel(channel); !errors.Is(err, ErrSamplingFailure) {
			t.Errorf("Channel %d: expected ErrSamplingFailure, got %v", channel, err)
		}
	}
}

func TestSampler_TransferFailure(t *testing.T) {
	sim := rig.NewSimulator()
	cause := errors.New("bus contention")
	sim.FailTransfers(cause)

	sampler := New(sim)
	_, err := sampler.ReadChannel(0)
	if !errors.Is(err, ErrSamplingFailure) {
		t.Errorf("Expected ErrSamplingFailure, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("Expected wrapped cause to survive, got %v", err)
	}
}

func TestSampler_AgainstSimulator(t *testing.T) {
	// A flat 0.9 V detector quantizes to round(0.9*1024/3.3) = 279 counts.
	sim := rig.NewSimulator(rig.WithDetector(rig.FlatDetector(0.9, 1.5)))
	sampler := New(sim)

	volts, err := sampler.ReadChannel(ChannelMagnitude)
	if err != nil {
		t.Fatalf("Failed to read magnitude: %v", err)
	}
	if want := 279 * 3.3 / 1024; math.Abs(volts-want) > 1e-12 {
		t.Errorf("Expected %.6f V, got %.6f V", want, volts)
	}
	if math.Abs(volts-0.9) > 3.3/1024 {
		t.Errorf("Quantized voltage %.6f V more than one LSB from 0.9 V", volts)
	}
}
