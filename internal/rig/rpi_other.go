//go:build !linux

package rig

import "errors"

// PiConfig selects the GPIO lines and SPI port of a physical rig.
type PiConfig struct {
	Lines    []Line
	SPIPort  string
	SPISpeed int64
}

// OpenPi is only available on Linux, where the GPIO header and spidev
// exist. Other platforms run against the Simulator.
func OpenPi(config PiConfig) (Channel, error) {
	return nil, errors.New("physical rig access requires linux")
}
