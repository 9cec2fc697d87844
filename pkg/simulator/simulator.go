// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package simulator provides an in-memory DRV8305 that answers SPI frames the
// way the real part does. It implements drv8305.Hardware and drv8305.FaultPin.
package simulator

import (
	"errors"
	"fmt"
	"sync"

	"github.com/golang/glog"

	"github.com/Thermoquad/gatewatch/pkg/drv8305"
)

// ErrInjected is returned by Transfer while injected failures are pending.
var ErrInjected = errors.New("simulator: injected transfer failure")

const clrFltsBit = 1 << 1

// State is a snapshot of the simulated device.
type State struct {
	Enabled   bool
	Awake     bool
	Transfers uint64
	Registers [16]uint16
}

// Device is a simulated DRV8305. It is safe for concurrent use.
type Device struct {
	mu sync.Mutex

	regs      [16]uint16
	stuck     [16]uint16
	enabled   bool
	awake     bool
	failures  int
	transfers uint64
}

// New returns a device holding the datasheet reset values, asleep and disabled.
func New() *Device {
	d := &Device{}
	cfg := drv8305.DefaultConfiguration()
	cfg.ICOperation.ClearFaults = false
	for _, r := range drv8305.ControlRegisters {
		word, _ := cfg.Encode(r)
		d.regs[r] = word
	}
	return d
}

// Transfer answers one SPI frame. While asleep the device does not drive SDO
// and the frame reads back as zero.
func (d *Device) Transfer(frame uint16) (uint16, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.transfers++
	if d.failures > 0 {
		d.failures--
		return 0, ErrInjected
	}
	if !d.awake {
		return 0, nil
	}

	addr := drv8305.CommandAddress(frame)
	if !drv8305.IsRead(frame) && addr.IsControl() {
		data := drv8305.UnpackResponse(frame)
		if addr == drv8305.RegICOperation && data&clrFltsBit != 0 {
			d.clearFaultsLocked()
			data &^= clrFltsBit
		}
		d.regs[addr] = data | d.stuck[addr]
		glog.V(3).Infof("sim: %s <- 0x%03X", addr, data)
	}

	resp := drv8305.Response{
		Fault:   d.faultedLocked(),
		Address: addr,
		Data:    d.regs[addr] | d.stuck[addr],
	}
	return resp.Frame(), nil
}

func (d *Device) faultedLocked() bool {
	return d.regs[drv8305.RegWarning]&drv8305.WarnFault != 0
}

func (d *Device) clearFaultsLocked() {
	for _, r := range drv8305.StatusRegisters {
		d.regs[r] = 0
	}
}

// Enable drives EN_GATE high.
func (d *Device) Enable() error {
	d.mu.Lock()
	d.enabled = true
	d.mu.Unlock()
	return nil
}

// Disable drives EN_GATE low.
func (d *Device) Disable() error {
	d.mu.Lock()
	d.enabled = false
	d.mu.Unlock()
	return nil
}

// Wake drives WAKE high.
func (d *Device) Wake() error {
	d.mu.Lock()
	d.awake = true
	d.mu.Unlock()
	return nil
}

// Sleep drives WAKE low.
func (d *Device) Sleep() error {
	d.mu.Lock()
	d.awake = false
	d.mu.Unlock()
	return nil
}

// FaultAsserted reports the nFAULT line, asserted while any fault is latched.
func (d *Device) FaultAsserted() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.faultedLocked(), nil
}

// InjectFault latches bits in a status register. Any bit outside the warning
// register also latches the global FAULT flag.
func (d *Device) InjectFault(r drv8305.Register, bits uint16) error {
	if !r.IsStatus() {
		return fmt.Errorf("simulator: %s is not a status register", r)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.regs[r] |= bits & drv8305.FrameDataMask
	if r != drv8305.RegWarning && bits != 0 {
		d.regs[drv8305.RegWarning] |= drv8305.WarnFault
	}
	glog.V(1).Infof("sim: injected %s 0x%03X", r, bits)
	return nil
}

// ClearFaults clears every latched status bit, as a clr_flts write does.
func (d *Device) ClearFaults() {
	d.mu.Lock()
	d.clearFaultsLocked()
	d.mu.Unlock()
}

// SetStuck forces bits high in every response from register r.
func (d *Device) SetStuck(r drv8305.Register, bits uint16) {
	d.mu.Lock()
	d.stuck[r&drv8305.FrameAddrMask] = bits & drv8305.FrameDataMask
	d.mu.Unlock()
}

// FailTransfers makes the next n transfers return ErrInjected.
func (d *Device) FailTransfers(n int) {
	d.mu.Lock()
	d.failures = n
	d.mu.Unlock()
}

// Register returns the stored payload of one register.
func (d *Device) Register(r drv8305.Register) uint16 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.regs[r&drv8305.FrameAddrMask]
}

// Snapshot returns the device state.
func (d *Device) Snapshot() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return State{
		Enabled:   d.enabled,
		Awake:     d.awake,
		Transfers: d.transfers,
		Registers: d.regs,
	}
}
