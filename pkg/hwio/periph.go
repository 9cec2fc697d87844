// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package hwio

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

type periphOut struct {
	pin gpio.PinOut
}

func (p periphOut) Set(high bool) error {
	return p.pin.Out(gpio.Level(high))
}

type periphIn struct {
	pin gpio.PinIn
}

func (p periphIn) Get() (bool, error) {
	return bool(p.pin.Read()), nil
}

func periphPin(name string) (gpio.PinIO, error) {
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("hwio: unknown GPIO %q", name)
	}
	return pin, nil
}

// claimLines configures the lines found by lookup.
// Outputs start low: gate driver off, device asleep.
func claimLines(d *Device, cfg Config, lookup func(string) (gpio.PinIO, error)) error {
	en, err := lookup(cfg.ENGate)
	if err != nil {
		return err
	}
	if err := en.Out(gpio.Low); err != nil {
		return fmt.Errorf("hwio: EN_GATE: %w", err)
	}
	wake, err := lookup(cfg.Wake)
	if err != nil {
		return err
	}
	if err := wake.Out(gpio.Low); err != nil {
		return fmt.Errorf("hwio: WAKE: %w", err)
	}
	d.enGate = periphOut{en}
	d.wake = periphOut{wake}
	d.closers = append(d.closers, en.Halt, wake.Halt)

	if cfg.NFault == "" {
		return nil
	}
	nf, err := lookup(cfg.NFault)
	if err != nil {
		return err
	}
	// nFAULT is open drain
	if err := nf.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return fmt.Errorf("hwio: nFAULT: %w", err)
	}
	d.nFault = periphIn{nf}
	return nil
}
