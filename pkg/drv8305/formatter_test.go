// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package drv8305

import (
	"strings"
	"testing"
)

func TestFormatRegister_Status(t *testing.T) {
	slot := RegisterSlot{
		Address: RegICFaults,
		Data:    ICOTSD | ICWDFault,
		Raw:     Response{Fault: true, Address: RegICFaults, Data: ICOTSD | ICWDFault}.Frame(),
		Valid:   true,
	}
	out := FormatRegister(slot)
	for _, want := range []string{"IC_FAULTS", "[FAULT]", "OTSD", "WD_FAULT"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatRegister_Invalid(t *testing.T) {
	out := FormatRegister(RegisterSlot{Address: RegWarning})
	if !strings.Contains(out, "--") {
		t.Errorf("unread slot should be marked, got %q", out)
	}
}

func TestFormatRegister_Control(t *testing.T) {
	slot := RegisterSlot{Address: RegHSGateDrive, Data: 0x344, Raw: PackWrite(RegHSGateDrive, 0x344), Valid: true}
	out := FormatRegister(slot)
	if !strings.Contains(out, "tdrive=3 isink=4 isource=4") {
		t.Errorf("unexpected field dump:\n%s", out)
	}
}

func TestFormatConfiguration(t *testing.T) {
	out := FormatConfiguration(DefaultConfiguration())
	for _, r := range ControlRegisters {
		if !strings.Contains(out, r.String()) {
			t.Errorf("missing %s", r)
		}
	}
	if !strings.Contains(out, "1.175 V") {
		t.Errorf("missing VDS trip level:\n%s", out)
	}
}

func TestStatusBits_ReservedOmitted(t *testing.T) {
	for _, r := range StatusRegisters {
		for _, b := range StatusBits(r) {
			if b.Name == "" || b.Mask == 0 || b.Mask > FrameDataMask {
				t.Errorf("%s: bad bit %+v", r, b)
			}
		}
	}
	if got := ActiveFaults(RegVGSFaults, 0x1F); len(got) != 0 {
		t.Errorf("reserved VGS bits reported as faults: %v", got)
	}
	if StatusBits(RegHSGateDrive) != nil {
		t.Error("control register has no status bits")
	}
}
