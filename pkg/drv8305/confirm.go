// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package drv8305

// ConfirmationFlags holds one flag per control register, in ControlRegisters order.
type ConfirmationFlags [len(ControlRegisters)]bool

// Get returns the flag of control register r, false for any other address.
func (f ConfirmationFlags) Get(r Register) bool {
	i := r.controlIndex()
	if i < 0 {
		return false
	}
	return f[i]
}

// All reports whether every control register is confirmed.
func (f ConfirmationFlags) All() bool {
	for _, ok := range f {
		if !ok {
			return false
		}
	}
	return true
}

func (f *ConfirmationFlags) set(r Register, ok bool) {
	if i := r.controlIndex(); i >= 0 {
		f[i] = ok
	}
}

// Matches reports whether an echoed payload carries exactly the configured
// fields of control register r. Self-clearing fields are ignored.
func Matches(r Register, echo uint16, cfg Configuration) bool {
	layout := Layout(r)
	if layout == nil {
		return false
	}
	want := cfg.values(r)
	got := unpack(layout, echo)
	for i, f := range layout {
		if f.SelfClearing {
			continue
		}
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

// Mismatches lists the fields of r whose echoed value differs from the configuration.
func Mismatches(r Register, echo uint16, cfg Configuration) []Field {
	layout := Layout(r)
	want := cfg.values(r)
	got := unpack(layout, echo)
	var out []Field
	for i, f := range layout {
		if !f.SelfClearing && got[i] != want[i] {
			out = append(out, f)
		}
	}
	return out
}
