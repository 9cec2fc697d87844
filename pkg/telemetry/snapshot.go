// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package telemetry publishes periodic DRV8305 driver snapshots to a message
// broker. Snapshots are CBOR encoded, the same encoding the bridge uses on the
// wire.
package telemetry

import (
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/Thermoquad/gatewatch/pkg/drv8305"
)

// ContentType labels published snapshot bodies.
const ContentType = "application/cbor"

// RegisterSample is one register slot as published.
type RegisterSample struct {
	Address uint8    `cbor:"1,keyasint"`
	Name    string   `cbor:"2,keyasint"`
	Data    uint16   `cbor:"3,keyasint"`
	Valid   bool     `cbor:"4,keyasint"`
	Fault   bool     `cbor:"5,keyasint"`
	Active  []string `cbor:"6,keyasint,omitempty"`
}

// Snapshot is the published view of one driver.
type Snapshot struct {
	Source    string           `cbor:"1,keyasint"`
	Device    string           `cbor:"2,keyasint"`
	Timestamp int64            `cbor:"3,keyasint"` // unix milliseconds
	State     string           `cbor:"4,keyasint"`
	Confirmed bool             `cbor:"5,keyasint"`
	Flags     []bool           `cbor:"6,keyasint"`
	Registers []RegisterSample `cbor:"7,keyasint"`
	Stats     drv8305.Stats    `cbor:"8,keyasint"`
	LastError string           `cbor:"9,keyasint,omitempty"`
}

// Take captures the driver's current state.
func Take(d *drv8305.Driver, source string, now time.Time) Snapshot {
	s := Snapshot{
		Source:    source,
		Device:    d.Name(),
		Timestamp: now.UnixMilli(),
		State:     d.State().String(),
		Confirmed: d.IsConfigurationConfirmed(),
		Stats:     d.Stats(),
	}
	flags := d.ConfirmationFlags()
	for _, r := range drv8305.ControlRegisters {
		s.Flags = append(s.Flags, flags.Get(r))
	}
	for _, slot := range d.Registers() {
		rs := RegisterSample{
			Address: uint8(slot.Address),
			Name:    slot.Address.String(),
			Data:    slot.Data,
			Valid:   slot.Valid,
			Fault:   slot.Fault(),
		}
		if slot.Valid && slot.Address.IsStatus() {
			for _, b := range drv8305.ActiveFaults(slot.Address, slot.Data) {
				rs.Active = append(rs.Active, b.Name)
			}
		}
		s.Registers = append(s.Registers, rs)
	}
	if err := d.LastError(); err != nil {
		s.LastError = err.Error()
	}
	return s
}

// Marshal encodes the snapshot.
func (s Snapshot) Marshal() ([]byte, error) {
	return cbor.Marshal(s)
}

// Unmarshal decodes a published snapshot.
func Unmarshal(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("telemetry: decode snapshot: %w", err)
	}
	return s, nil
}

// Faulted reports whether any status register shows an active bit.
func (s Snapshot) Faulted() bool {
	for _, r := range s.Registers {
		if len(r.Active) > 0 {
			return true
		}
	}
	return false
}
