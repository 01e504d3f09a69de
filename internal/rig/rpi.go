//go:build linux

package rig

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// PiConfig selects the GPIO lines and SPI port of a physical rig.
type PiConfig struct {
	Lines    []Line // digital output lines to claim
	SPIPort  string // e.g. "/dev/spidev0.0"; empty selects the first port
	SPISpeed int64  // bus speed in Hz; 0 defaults to 1 MHz
}

// PiChannel drives the analyzer hardware through the Raspberry Pi GPIO
// header and SPI bus. Not safe for concurrent use; the sweep controller owns
// the channel exclusively while a sweep is in progress.
type PiChannel struct {
	pins map[Line]gpio.PinIO
	port spi.PortCloser
	conn spi.Conn

	closed bool
}

// OpenPi initializes the periph host and claims the configured lines and SPI
// port.
func OpenPi(config PiConfig) (*PiChannel, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("initializing periph host: %w", err)
	}

	lines := config.Lines
	if len(lines) == 0 {
		lines = []Line{LineWordClock, LineData, LineFreqLatch, LineReset}
	}

	pins := make(map[Line]gpio.PinIO, len(lines))
	for _, line := range lines {
		pin := gpioreg.ByName(fmt.Sprintf("GPIO%d", int(line)))
		if pin == nil {
			return nil, fmt.Errorf("%w: GPIO%d", ErrUnknownLine, int(line))
		}
		if err := pin.Out(gpio.Low); err != nil {
			return nil, fmt.Errorf("claiming GPIO%d: %w", int(line), err)
		}
		pins[line] = pin
	}

	port, err := spireg.Open(config.SPIPort)
	if err != nil {
		return nil, fmt.Errorf("opening SPI port: %w", err)
	}

	speed := physic.Frequency(config.SPISpeed) * physic.Hertz
	if speed == 0 {
		speed = physic.MegaHertz
	}

	conn, err := port.Connect(speed, spi.Mode0, 8)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("configuring SPI port: %w", err)
	}

	return &PiChannel{pins: pins, port: port, conn: conn}, nil
}

func (c *PiChannel) SetDigitalLine(line Line, level Level) error {
	if c.closed {
		return ErrChannelClosed
	}

	pin, ok := c.pins[line]
	if !ok {
		return fmt.Errorf("%w: GPIO%d", ErrUnknownLine, int(line))
	}
	if err := pin.Out(gpio.Level(level)); err != nil {
		return fmt.Errorf("setting GPIO%d: %w", int(line), err)
	}
	return nil
}

func (c *PiChannel) PulseDigitalLine(line Line) error {
	if err := c.SetDigitalLine(line, High); err != nil {
		return err
	}
	return c.SetDigitalLine(line, Low)
}

func (c *PiChannel) TransferFrame(frame []byte) ([]byte, error) {
	if c.closed {
		return nil, ErrChannelClosed
	}

	response := make([]byte, len(frame))
	if err := c.conn.Tx(frame, response); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransfer, err)
	}
	return response, nil
}

// ReadAnalog issues a single-ended MCP3008 conversion and returns the raw
// 10-bit sample.
func (c *PiChannel) ReadAnalog(channel int) (uint16, error) {
	if channel < 0 || channel > 7 {
		return 0, fmt.Errorf("%w: channel %d out of range", ErrTransfer, channel)
	}

	response, err := c.TransferFrame([]byte{0x01, byte(8+channel) << 4, 0x00})
	if err != nil {
		return 0, err
	}
	if len(response) != 3 {
		return 0, fmt.Errorf("%w: short response", ErrTransfer)
	}

	return uint16(response[1]&0x03)<<8 | uint16(response[2]), nil
}

func (c *PiChannel) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	var err error
	for line, pin := range c.pins {
		if hErr := pin.Halt(); hErr != nil && err == nil {
			err = fmt.Errorf("releasing GPIO%d: %w", int(line), hErr)
		}
	}
	if cErr := c.port.Close(); cErr != nil && err == nil {
		err = fmt.Errorf("closing SPI port: %w", cErr)
	}
	return err
}
