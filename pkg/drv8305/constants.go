// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package drv8305 drives a DRV8305 three-phase gate driver over its 16-bit SPI link.
//
// The driver is a cooperative, tick-driven state machine. One goroutine (or a bare
// control loop) calls Tick at a fixed cadence and Poll as often as it likes; every
// Poll performs at most one step and never blocks on a delay. The driver reads the
// four status registers on a fixed interval and programs the seven control
// registers at boot and whenever Confirm is called, checking each echoed value
// against the active Configuration.
package drv8305

// SPI frame layout
const (
	FrameReadBit   = 1 << 15
	FrameAddrShift = 11
	FrameAddrMask  = 0x0F
	FrameDataMask  = 0x7FF
)

// Timing, in ticks. The reference cadence is one tick per millisecond.
const (
	// RegisterSwitchDelay separates control register writes and main transitions.
	RegisterSwitchDelay uint32 = 50
	// StatusStepDelay separates status register reads.
	StatusStepDelay uint32 = 500
	// StatusPollInterval is the minimum idle time before the next status pass.
	StatusPollInterval uint32 = 250
)

// NumRegisters is the number of registers tracked by the driver (4 status + 7 control).
const NumRegisters = 11

// Register is a 4-bit DRV8305 register address.
type Register uint8

// Status registers (read-only)
const (
	RegWarning   Register = 0x01
	RegOvVDS     Register = 0x02
	RegICFaults  Register = 0x03
	RegVGSFaults Register = 0x04
)

// Control registers (read/write)
const (
	RegHSGateDrive      Register = 0x05
	RegLSGateDrive      Register = 0x06
	RegGateDrive        Register = 0x07
	RegICOperation      Register = 0x09
	RegShuntAmplifier   Register = 0x0A
	RegVoltageRegulator Register = 0x0B
	RegVDSSense         Register = 0x0C
)

// Registers lists every tracked register in slot order.
var Registers = [NumRegisters]Register{
	RegWarning,
	RegOvVDS,
	RegICFaults,
	RegVGSFaults,
	RegHSGateDrive,
	RegLSGateDrive,
	RegGateDrive,
	RegICOperation,
	RegShuntAmplifier,
	RegVoltageRegulator,
	RegVDSSense,
}

// StatusRegisters is the status pass order.
var StatusRegisters = [4]Register{RegWarning, RegOvVDS, RegICFaults, RegVGSFaults}

// ControlRegisters is the control pass order.
var ControlRegisters = [7]Register{
	RegHSGateDrive,
	RegLSGateDrive,
	RegGateDrive,
	RegICOperation,
	RegShuntAmplifier,
	RegVoltageRegulator,
	RegVDSSense,
}

// Index returns the register's slot index, or -1 for an address the driver does not track.
func (r Register) Index() int {
	for i, reg := range Registers {
		if reg == r {
			return i
		}
	}
	return -1
}

// controlIndex returns the register's position in ControlRegisters, or -1.
func (r Register) controlIndex() int {
	for i, reg := range ControlRegisters {
		if reg == r {
			return i
		}
	}
	return -1
}

// IsStatus reports whether r is one of the read-only status registers.
func (r Register) IsStatus() bool {
	return r >= RegWarning && r <= RegVGSFaults
}

// IsControl reports whether r is one of the seven read/write control registers.
func (r Register) IsControl() bool {
	return r.controlIndex() >= 0
}

func (r Register) String() string {
	switch r {
	case RegWarning:
		return "WARNING"
	case RegOvVDS:
		return "OV_VDS"
	case RegICFaults:
		return "IC_FAULTS"
	case RegVGSFaults:
		return "VGS_FAULTS"
	case RegHSGateDrive:
		return "HS_GATE_DRIVE"
	case RegLSGateDrive:
		return "LS_GATE_DRIVE"
	case RegGateDrive:
		return "GATE_DRIVE"
	case RegICOperation:
		return "IC_OPERATION"
	case RegShuntAmplifier:
		return "SHUNT_AMPLIFIER"
	case RegVoltageRegulator:
		return "VOLTAGE_REGULATOR"
	case RegVDSSense:
		return "VDS_SENSE"
	default:
		return "UNKNOWN"
	}
}
