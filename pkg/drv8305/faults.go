// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package drv8305

// Bit names one flag of a status register.
type Bit struct {
	Mask        uint16
	Name        string
	Description string
}

// Warning and watchdog register (0x01)
const (
	WarnOTW       uint16 = 1 << 0
	WarnTempFlag3 uint16 = 1 << 1
	WarnTempFlag2 uint16 = 1 << 2
	WarnTempFlag1 uint16 = 1 << 3
	WarnVCPHUVFL  uint16 = 1 << 4
	WarnVDSStatus uint16 = 1 << 5
	WarnPVDDOVFL  uint16 = 1 << 6
	WarnPVDDUVFL  uint16 = 1 << 7
	WarnTempFlag4 uint16 = 1 << 8
	WarnFault     uint16 = 1 << 10
)

// OV/VDS fault register (0x02)
const (
	VDSSnsAOCP uint16 = 1 << 0
	VDSSnsBOCP uint16 = 1 << 1
	VDSSnsCOCP uint16 = 1 << 2
	VDSLC      uint16 = 1 << 5
	VDSHC      uint16 = 1 << 6
	VDSLB      uint16 = 1 << 7
	VDSHB      uint16 = 1 << 8
	VDSLA      uint16 = 1 << 9
	VDSHA      uint16 = 1 << 10
)

// IC fault register (0x03)
const (
	ICVCPHOVLOAbs uint16 = 1 << 0
	ICVCPHOVLO    uint16 = 1 << 1
	ICVCPHUVLO2   uint16 = 1 << 2
	ICVCPLSDUVLO2 uint16 = 1 << 4
	ICAVDDUVLO    uint16 = 1 << 5
	ICVREGUV      uint16 = 1 << 6
	ICOTSD        uint16 = 1 << 8
	ICWDFault     uint16 = 1 << 9
	ICPVDDUVLO2   uint16 = 1 << 10
)

// VGS fault register (0x04)
const (
	VGSLC uint16 = 1 << 5
	VGSHC uint16 = 1 << 6
	VGSLB uint16 = 1 << 7
	VGSHB uint16 = 1 << 8
	VGSLA uint16 = 1 << 9
	VGSHA uint16 = 1 << 10
)

var statusBits = map[Register][]Bit{
	RegWarning: {
		{WarnOTW, "OTW", "overtemperature warning"},
		{WarnTempFlag3, "TEMP_FLAG3", "temperature above 135C"},
		{WarnTempFlag2, "TEMP_FLAG2", "temperature above 125C"},
		{WarnTempFlag1, "TEMP_FLAG1", "temperature above 105C"},
		{WarnVCPHUVFL, "VCPH_UVFL", "charge pump undervoltage warning"},
		{WarnVDSStatus, "VDS_STATUS", "VDS overcurrent monitor"},
		{WarnPVDDOVFL, "PVDD_OVFL", "PVDD overvoltage warning"},
		{WarnPVDDUVFL, "PVDD_UVFL", "PVDD undervoltage warning"},
		{WarnTempFlag4, "TEMP_FLAG4", "temperature above 175C"},
		{WarnFault, "FAULT", "fault latched"},
	},
	RegOvVDS: {
		{VDSSnsAOCP, "SNS_A_OCP", "sense A overcurrent"},
		{VDSSnsBOCP, "SNS_B_OCP", "sense B overcurrent"},
		{VDSSnsCOCP, "SNS_C_OCP", "sense C overcurrent"},
		{VDSLC, "VDS_LC", "VDS overcurrent, low-side C"},
		{VDSHC, "VDS_HC", "VDS overcurrent, high-side C"},
		{VDSLB, "VDS_LB", "VDS overcurrent, low-side B"},
		{VDSHB, "VDS_HB", "VDS overcurrent, high-side B"},
		{VDSLA, "VDS_LA", "VDS overcurrent, low-side A"},
		{VDSHA, "VDS_HA", "VDS overcurrent, high-side A"},
	},
	RegICFaults: {
		{ICVCPHOVLOAbs, "VCPH_OVLO_ABS", "charge pump absolute overvoltage"},
		{ICVCPHOVLO, "VCPH_OVLO", "charge pump overvoltage"},
		{ICVCPHUVLO2, "VCPH_UVLO2", "charge pump undervoltage"},
		{ICVCPLSDUVLO2, "VCP_LSD_UVLO2", "low-side gate supply undervoltage"},
		{ICAVDDUVLO, "AVDD_UVLO", "AVDD undervoltage"},
		{ICVREGUV, "VREG_UV", "VREG undervoltage"},
		{ICOTSD, "OTSD", "overtemperature shutdown"},
		{ICWDFault, "WD_FAULT", "watchdog fault"},
		{ICPVDDUVLO2, "PVDD_UVLO2", "PVDD undervoltage"},
	},
	RegVGSFaults: {
		{VGSLC, "VGS_LC", "gate drive fault, low-side C"},
		{VGSHC, "VGS_HC", "gate drive fault, high-side C"},
		{VGSLB, "VGS_LB", "gate drive fault, low-side B"},
		{VGSHB, "VGS_HB", "gate drive fault, high-side B"},
		{VGSLA, "VGS_LA", "gate drive fault, low-side A"},
		{VGSHA, "VGS_HA", "gate drive fault, high-side A"},
	},
}

// StatusBits lists the defined bits of a status register, lowest first.
// Reserved bits are omitted. It returns nil for a control register.
func StatusBits(r Register) []Bit {
	return statusBits[r]
}

// ActiveFaults returns the defined bits of r that are set in data.
func ActiveFaults(r Register, data uint16) []Bit {
	var out []Bit
	for _, b := range statusBits[r] {
		if data&b.Mask != 0 {
			out = append(out, b)
		}
	}
	return out
}
