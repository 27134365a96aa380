//go:build !linux

package main

import (
	"errors"
	"runtime"
)

// SPIController is only available on Linux.
type SPIController struct{}

func NewController(device string, ledCount int) (*SPIController, error) {
	return nil, errors.New("spidev output is not supported on " + runtime.GOOS)
}

func (c *SPIController) SendColors(colors []byte) error { return errors.ErrUnsupported }

func (c *SPIController) Close() error { return nil }
