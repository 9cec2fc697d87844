// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package hwio drives a DRV8305 from a Linux host: the SPI bus through
// periph.io and the EN_GATE, WAKE and nFAULT lines through the periph.io GPIO
// registry or, by kernel GPIO number, through sysfs.
package hwio

import (
	"errors"
	"fmt"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/Thermoquad/gatewatch/pkg/drv8305"
)

// GPIO backends
const (
	BackendPeriph = "periph"
	BackendSysfs  = "sysfs"
)

// DefaultSPIHz is well under the 10 MHz limit of the part.
const DefaultSPIHz = 1_000_000

// Config names the bus and lines the device is wired to.
type Config struct {
	SPIPort string // spireg name, e.g. "/dev/spidev0.0" or "SPI0.0"; empty selects the first port
	SPIHz   int64
	ENGate  string
	Wake    string
	NFault  string // optional
	Backend string // BackendPeriph (default) or BackendSysfs
}

// OutputLine drives one digital output.
type OutputLine interface {
	Set(high bool) error
}

// InputLine samples one digital input.
type InputLine interface {
	Get() (bool, error)
}

type txer interface {
	Tx(w, r []byte) error
}

// Device is a DRV8305 wired directly to the host. It implements
// drv8305.Hardware and drv8305.FaultPin.
type Device struct {
	conn   txer
	enGate OutputLine
	wake   OutputLine
	nFault InputLine

	closers []func() error
}

// Open initializes the host drivers and claims the bus and lines.
func Open(cfg Config) (*Device, error) {
	if cfg.ENGate == "" || cfg.Wake == "" {
		return nil, errors.New("hwio: EN_GATE and WAKE lines are required")
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("hwio: host init: %w", err)
	}

	port, err := spireg.Open(cfg.SPIPort)
	if err != nil {
		return nil, fmt.Errorf("hwio: open SPI %q: %w", cfg.SPIPort, err)
	}
	hz := cfg.SPIHz
	if hz <= 0 {
		hz = DefaultSPIHz
	}
	// CPOL=0, CPHA=1; data is latched on the falling edge of SCLK
	conn, err := port.Connect(physic.Frequency(hz)*physic.Hertz, spi.Mode1, 8)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("hwio: connect SPI: %w", err)
	}

	d := &Device{conn: conn, closers: []func() error{port.Close}}
	lookup := periphPin
	if cfg.Backend == BackendSysfs {
		lookup = sysfsPin
	}
	if err := claimLines(d, cfg, lookup); err != nil {
		d.Close()
		return nil, err
	}

	glog.Infof("hwio: %v at %d Hz, EN_GATE=%s WAKE=%s nFAULT=%q (%s)",
		port, hz, cfg.ENGate, cfg.Wake, cfg.NFault, backendName(cfg.Backend))
	return d, nil
}

func backendName(b string) string {
	if b == "" {
		return BackendPeriph
	}
	return b
}

// Transfer clocks one 16-bit frame out MSB first and returns the word clocked in.
func (d *Device) Transfer(frame uint16) (uint16, error) {
	w := []byte{byte(frame >> 8), byte(frame)}
	r := make([]byte, 2)
	if err := d.conn.Tx(w, r); err != nil {
		return 0, err
	}
	return uint16(r[0])<<8 | uint16(r[1]), nil
}

// Enable drives EN_GATE high.
func (d *Device) Enable() error { return d.enGate.Set(true) }

// Disable drives EN_GATE low.
func (d *Device) Disable() error { return d.enGate.Set(false) }

// Wake drives WAKE high.
func (d *Device) Wake() error { return d.wake.Set(true) }

// Sleep drives WAKE low.
func (d *Device) Sleep() error { return d.wake.Set(false) }

// FaultAsserted reports whether nFAULT is pulled low.
func (d *Device) FaultAsserted() (bool, error) {
	if d.nFault == nil {
		return false, drv8305.ErrNoFaultPin
	}
	high, err := d.nFault.Get()
	if err != nil {
		return false, err
	}
	return !high, nil
}

// Close releases the bus and lines.
func (d *Device) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}
