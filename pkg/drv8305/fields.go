// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package drv8305

// Field describes one bitfield inside an 11-bit register payload.
type Field struct {
	Name   string
	Offset uint8
	Width  uint8

	// SelfClearing fields are reset by the device after being written and
	// never take part in echo comparison.
	SelfClearing bool
}

// Mask returns the field mask in payload position.
func (f Field) Mask() uint16 {
	return f.max() << f.Offset
}

func (f Field) max() uint16 {
	return uint16(1)<<f.Width - 1
}

// Get extracts the field value from a payload.
func (f Field) Get(word uint16) uint16 {
	return word >> f.Offset & f.max()
}

// Put returns word with the field replaced by v. Bits of v outside the field width are dropped.
func (f Field) Put(word, v uint16) uint16 {
	return word&^f.Mask() | (v&f.max())<<f.Offset
}

// Fits reports whether v can be stored in the field without truncation.
func (f Field) Fits(v uint16) bool {
	return v <= f.max()
}

// Control register layouts, MSB first. The order matches the field order of the
// corresponding record's values() method.
var (
	layoutGateDriveCurrent = []Field{
		{Name: "tdrive", Offset: 8, Width: 2},
		{Name: "isink", Offset: 4, Width: 4},
		{Name: "isource", Offset: 0, Width: 4},
	}

	layoutGateDriveControl = []Field{
		{Name: "vcph_freq", Offset: 10, Width: 1},
		{Name: "comm", Offset: 9, Width: 1},
		{Name: "pwm_mode", Offset: 7, Width: 2},
		{Name: "dead_time", Offset: 4, Width: 3},
		{Name: "tblank", Offset: 2, Width: 2},
		{Name: "tvds", Offset: 0, Width: 2},
	}

	layoutICOperation = []Field{
		{Name: "flip_otsd", Offset: 10, Width: 1},
		{Name: "dis_pvdd_uvlo2", Offset: 9, Width: 1},
		{Name: "dis_gdrv_fault", Offset: 8, Width: 1},
		{Name: "en_sns_clamp", Offset: 7, Width: 1},
		{Name: "wd_dly", Offset: 5, Width: 2},
		{Name: "dis_sns_ocp", Offset: 4, Width: 1},
		{Name: "wd_en", Offset: 3, Width: 1},
		{Name: "sleep", Offset: 2, Width: 1},
		{Name: "clr_flts", Offset: 1, Width: 1, SelfClearing: true},
		{Name: "set_vcph_uv", Offset: 0, Width: 1},
	}

	layoutShuntAmplifier = []Field{
		{Name: "dc_cal_ch3", Offset: 10, Width: 1},
		{Name: "dc_cal_ch2", Offset: 9, Width: 1},
		{Name: "dc_cal_ch1", Offset: 8, Width: 1},
		{Name: "cs_blank", Offset: 6, Width: 2},
		{Name: "gain_cs3", Offset: 4, Width: 2},
		{Name: "gain_cs2", Offset: 2, Width: 2},
		{Name: "gain_cs1", Offset: 0, Width: 2},
	}

	layoutVoltageRegulator = []Field{
		{Name: "vref_scale", Offset: 8, Width: 2},
		{Name: "sleep_dly", Offset: 3, Width: 2},
		{Name: "dis_vreg_pwrgd", Offset: 2, Width: 1},
		{Name: "vreg_uv_level", Offset: 0, Width: 2},
	}

	layoutVDSSense = []Field{
		{Name: "vds_level", Offset: 3, Width: 5},
		{Name: "vds_mode", Offset: 0, Width: 3},
	}
)

// Layout returns the bitfield layout of a control register, or nil for any other address.
// The returned slice must not be modified.
func Layout(r Register) []Field {
	switch r {
	case RegHSGateDrive, RegLSGateDrive:
		return layoutGateDriveCurrent
	case RegGateDrive:
		return layoutGateDriveControl
	case RegICOperation:
		return layoutICOperation
	case RegShuntAmplifier:
		return layoutShuntAmplifier
	case RegVoltageRegulator:
		return layoutVoltageRegulator
	case RegVDSSense:
		return layoutVDSSense
	default:
		return nil
	}
}

// FieldByName looks up a field of a control register layout.
func FieldByName(r Register, name string) (Field, bool) {
	for _, f := range Layout(r) {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// pack combines field values, given in layout order, into a payload.
func pack(layout []Field, values []uint16) uint16 {
	var word uint16
	for i, f := range layout {
		word = f.Put(word, values[i])
	}
	return word
}

// unpack splits a payload into field values in layout order.
func unpack(layout []Field, word uint16) []uint16 {
	values := make([]uint16, len(layout))
	for i, f := range layout {
		values[i] = f.Get(word)
	}
	return values
}

func b2u(b bool) uint16 {
	if b {
		return 1
	}
	return 0
}
