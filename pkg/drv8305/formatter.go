// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package drv8305

import (
	"fmt"
	"strings"
)

// FormatRegister formats a register slot into a human-readable line.
func FormatRegister(s RegisterSlot) string {
	if !s.Valid {
		return fmt.Sprintf("%-17s (0x%02X) --\n", s.Address, uint8(s.Address))
	}

	result := fmt.Sprintf("%-17s (0x%02X) data=0x%03X raw=0x%04X", s.Address, uint8(s.Address), s.Data, s.Raw)
	if s.Fault() {
		result += " [FAULT]"
	}
	result += "\n"

	if s.Address.IsStatus() {
		return result + FormatStatus(s.Address, s.Data)
	}
	return result + FormatFields(s.Address, s.Data)
}

// FormatStatus lists the active bits of a status register value.
func FormatStatus(r Register, data uint16) string {
	active := ActiveFaults(r, data)
	if len(active) == 0 {
		return "  (clear)\n"
	}
	names := make([]string, len(active))
	for i, b := range active {
		names[i] = b.Name
	}
	return "  Active: " + strings.Join(names, ", ") + "\n"
}

// FormatFields decodes a control register payload field by field.
func FormatFields(r Register, data uint16) string {
	layout := Layout(r)
	if layout == nil {
		return "  (unknown register)\n"
	}
	parts := make([]string, len(layout))
	for i, f := range layout {
		parts[i] = fmt.Sprintf("%s=%d", f.Name, f.Get(data))
	}
	return "  " + strings.Join(parts, " ") + "\n"
}

// FormatConfiguration dumps every control register of a configuration.
func FormatConfiguration(cfg Configuration) string {
	var b strings.Builder
	for _, r := range ControlRegisters {
		word, err := cfg.Encode(r)
		if err != nil {
			fmt.Fprintf(&b, "%-17s error: %v\n", r, err)
			continue
		}
		fmt.Fprintf(&b, "%-17s (0x%02X) 0x%03X\n", r, uint8(r), word)
		b.WriteString(FormatFields(r, word))
	}
	fmt.Fprintf(&b, "VDS trip level: %.3f V\n", cfg.VDSSense.Level.Volts())
	return b.String()
}

// FormatState formats the scheduler state and confirmation summary.
func FormatState(d *Driver) string {
	flags := d.ConfirmationFlags()
	confirmed := 0
	for _, ok := range flags {
		if ok {
			confirmed++
		}
	}
	return fmt.Sprintf("state=%s confirmed=%d/%d", d.State(), confirmed, len(flags))
}
