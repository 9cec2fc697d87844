// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package drv8305

import "errors"

var (
	// ErrNilHardware is returned by New when no hardware is supplied.
	ErrNilHardware = errors.New("drv8305: hardware is nil")

	// ErrNoFaultPin is returned by FaultAsserted when the hardware has no nFAULT input.
	ErrNoFaultPin = errors.New("drv8305: hardware has no fault pin")
)

// Transport exchanges one 16-bit frame with the device. The response is the
// frame clocked out by the device during the same chip-select window.
type Transport interface {
	Transfer(frame uint16) (uint16, error)
}

// PowerControl drives the EN_GATE and WAKE lines.
type PowerControl interface {
	Enable() error  // EN_GATE high
	Disable() error // EN_GATE low
	Wake() error    // WAKE high
	Sleep() error   // WAKE low
}

// Hardware is everything the driver needs from the platform.
type Hardware interface {
	Transport
	PowerControl
}

// FaultPin is implemented by hardware that can read the nFAULT line.
type FaultPin interface {
	FaultAsserted() (bool, error)
}

// RegisterHandler receives the 11-bit payload read from, or echoed by, a register.
type RegisterHandler func(d *Driver, data uint16)

// Handlers are invoked after each register access. Nil handlers are skipped.
type Handlers struct {
	Warning   RegisterHandler
	OvVDS     RegisterHandler
	ICFaults  RegisterHandler
	VGSFaults RegisterHandler

	HSGateDrive      RegisterHandler
	LSGateDrive      RegisterHandler
	GateDrive        RegisterHandler
	ICOperation      RegisterHandler
	ShuntAmplifier   RegisterHandler
	VoltageRegulator RegisterHandler
	VDSSense         RegisterHandler
}

func (h *Handlers) lookup(r Register) RegisterHandler {
	switch r {
	case RegWarning:
		return h.Warning
	case RegOvVDS:
		return h.OvVDS
	case RegICFaults:
		return h.ICFaults
	case RegVGSFaults:
		return h.VGSFaults
	case RegHSGateDrive:
		return h.HSGateDrive
	case RegLSGateDrive:
		return h.LSGateDrive
	case RegGateDrive:
		return h.GateDrive
	case RegICOperation:
		return h.ICOperation
	case RegShuntAmplifier:
		return h.ShuntAmplifier
	case RegVoltageRegulator:
		return h.VoltageRegulator
	case RegVDSSense:
		return h.VDSSense
	}
	return nil
}

// Option configures a Driver.
type Option func(*Driver) error

// WithHandlers installs the per-register callbacks.
func WithHandlers(h Handlers) Option {
	return func(d *Driver) error {
		d.handlers = h
		return nil
	}
}

// WithConfiguration replaces the default configuration.
func WithConfiguration(cfg Configuration) Option {
	return func(d *Driver) error {
		return d.store.Set(cfg)
	}
}

// WithConfigStore shares an existing store with the driver.
func WithConfigStore(s *ConfigStore) Option {
	return func(d *Driver) error {
		if s == nil {
			return errors.New("drv8305: config store is nil")
		}
		d.store = s
		return nil
	}
}
