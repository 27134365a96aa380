//go:build linux

package main

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// spidev ioctl requests, from linux/spi/spidev.h.
const (
	spiIOCWrMode        = 0x40016b01
	spiIOCWrBitsPerWord = 0x40016b03
	spiIOCWrMaxSpeedHz  = 0x40046b04
	spiIOCMessage1      = 0x40206b00
)

// spiTransfer mirrors struct spi_ioc_transfer.
type spiTransfer struct {
	txBuf       uint64
	rxBuf       uint64
	length      uint32
	speedHz     uint32
	delayUsecs  uint16
	bitsPerWord uint8
	csChange    uint8
	txNbits     uint8
	rxNbits     uint8
	wordDelay   uint8
	pad         uint8
}

// SPIController drives a WS2812B strip from the MOSI pin of a spidev device.
type SPIController struct {
	fd       int
	ledCount int
	tx       []byte
}

func NewController(device string, ledCount int) (*SPIController, error) {
	fd, err := unix.Open(device, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", device, err)
	}
	setup := []struct {
		name  string
		req   uint
		value int
	}{
		{"mode", spiIOCWrMode, 0},
		{"bits per word", spiIOCWrBitsPerWord, 8},
		{"speed", spiIOCWrMaxSpeedHz, spiSpeedHz},
	}
	for _, s := range setup {
		if err := unix.IoctlSetPointerInt(fd, s.req, s.value); err != nil {
			unix.Close(fd)
			return nil, fmt.Errorf("%s: set %s: %w", device, s.name, err)
		}
	}
	return &SPIController{fd: fd, ledCount: ledCount, tx: make([]byte, spiFrameLen(ledCount))}, nil
}

// SendColors pushes one frame of RGB triples to the strip.
func (c *SPIController) SendColors(colors []byte) error {
	if len(colors) != c.ledCount*3 {
		return fmt.Errorf("color buffer length %d, want %d", len(colors), c.ledCount*3)
	}
	if err := encodeSPI(c.tx, colors); err != nil {
		return err
	}

	tr := spiTransfer{
		txBuf:       uint64(uintptr(unsafe.Pointer(&c.tx[0]))),
		length:      uint32(len(c.tx)),
		speedHz:     spiSpeedHz,
		bitsPerWord: 8,
	}
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(c.fd), spiIOCMessage1, uintptr(unsafe.Pointer(&tr)))
	if errno != 0 {
		return fmt.Errorf("spi transfer of %d bytes: %w", len(c.tx), errno)
	}
	return nil
}

func (c *SPIController) Close() error {
	return unix.Close(c.fd)
}
