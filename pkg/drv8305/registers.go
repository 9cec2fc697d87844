// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package drv8305

// TDrive is the peak current drive time (registers 0x05/0x06, bits 9:8).
type TDrive uint8

const (
	TDrive220ns  TDrive = 0x0
	TDrive440ns  TDrive = 0x1
	TDrive880ns  TDrive = 0x2
	TDrive1780ns TDrive = 0x3
)

// ISink is the peak sink current (registers 0x05/0x06, bits 7:4).
// Codes 0xC-0xF select the 60 mA default.
type ISink uint8

const (
	ISink20mA   ISink = 0x0
	ISink30mA   ISink = 0x1
	ISink40mA   ISink = 0x2
	ISink50mA   ISink = 0x3
	ISink60mA   ISink = 0x4
	ISink70mA   ISink = 0x5
	ISink80mA   ISink = 0x6
	ISink250mA  ISink = 0x7
	ISink500mA  ISink = 0x8
	ISink750mA  ISink = 0x9
	ISink1000mA ISink = 0xA
	ISink1250mA ISink = 0xB
)

// ISource is the peak source current (registers 0x05/0x06, bits 3:0).
// Codes 0xC-0xF select the 50 mA default.
type ISource uint8

const (
	ISource10mA   ISource = 0x0
	ISource20mA   ISource = 0x1
	ISource30mA   ISource = 0x2
	ISource40mA   ISource = 0x3
	ISource50mA   ISource = 0x4
	ISource60mA   ISource = 0x5
	ISource70mA   ISource = 0x6
	ISource125mA  ISource = 0x7
	ISource250mA  ISource = 0x8
	ISource500mA  ISource = 0x9
	ISource750mA  ISource = 0xA
	ISource1000mA ISource = 0xB
)

// VCPHFreq is the charge pump frequency (register 0x07, bit 10).
type VCPHFreq uint8

const (
	VCPHFreq518kHz VCPHFreq = 0x0
	VCPHFreq452kHz VCPHFreq = 0x1
)

// CommOption selects the rectification scheme (register 0x07, bit 9).
type CommOption uint8

const (
	CommDiodeFreewheel  CommOption = 0x0
	CommActiveFreewheel CommOption = 0x1
)

// PWMMode selects the PWM input scheme (register 0x07, bits 8:7). Code 3 is reserved.
type PWMMode uint8

const (
	PWM6Inputs PWMMode = 0x0
	PWM3Inputs PWMMode = 0x1
	PWM1Input  PWMMode = 0x2
)

// DeadTime is the dead time between high and low side switching (register 0x07, bits 6:4).
type DeadTime uint8

const (
	DeadTime35ns   DeadTime = 0x0
	DeadTime52ns   DeadTime = 0x1
	DeadTime88ns   DeadTime = 0x2
	DeadTime440ns  DeadTime = 0x3
	DeadTime880ns  DeadTime = 0x4
	DeadTime1760ns DeadTime = 0x5
	DeadTime3520ns DeadTime = 0x6
	DeadTime5280ns DeadTime = 0x7
)

// TBlank is the VDS sense blanking time (register 0x07, bits 3:2).
type TBlank uint8

const (
	TBlank0us    TBlank = 0x0
	TBlank1_75us TBlank = 0x1
	TBlank3_5us  TBlank = 0x2
	TBlank7us    TBlank = 0x3
)

// TVDS is the VDS sense deglitch time (register 0x07, bits 1:0).
type TVDS uint8

const (
	TVDS0us    TVDS = 0x0
	TVDS1_75us TVDS = 0x1
	TVDS3_5us  TVDS = 0x2
	TVDS7us    TVDS = 0x3
)

// WatchdogDelay is the watchdog timeout (register 0x09, bits 6:5).
type WatchdogDelay uint8

const (
	WatchdogDelay10ms  WatchdogDelay = 0x0
	WatchdogDelay20ms  WatchdogDelay = 0x1
	WatchdogDelay50ms  WatchdogDelay = 0x2
	WatchdogDelay100ms WatchdogDelay = 0x3
)

// CSBlank is the current shunt amplifier blanking time (register 0x0A, bits 7:6).
type CSBlank uint8

const (
	CSBlank0ns   CSBlank = 0x0
	CSBlank500ns CSBlank = 0x1
	CSBlank2_5us CSBlank = 0x2
	CSBlank10us  CSBlank = 0x3
)

// Gain is a current shunt amplifier gain (register 0x0A).
type Gain uint8

const (
	Gain10VV Gain = 0x0
	Gain20VV Gain = 0x1
	Gain40VV Gain = 0x2
	Gain80VV Gain = 0x3
)

// VRefScale is the VREF scaling factor (register 0x0B, bits 9:8). Code 0 is reserved.
type VRefScale uint8

const (
	VRefScaleReserved VRefScale = 0x0
	VRefScaleDiv2     VRefScale = 0x1
	VRefScaleDiv4     VRefScale = 0x2
	VRefScaleDiv8     VRefScale = 0x3
)

// SleepDelay is the delay before sleep after WAKE falls (register 0x0B, bits 4:3).
type SleepDelay uint8

const (
	SleepDelay0us  SleepDelay = 0x0
	SleepDelay10us SleepDelay = 0x1
	SleepDelay50us SleepDelay = 0x2
	SleepDelay1ms  SleepDelay = 0x3
)

// VREGUVLevel is the VREG undervoltage threshold (register 0x0B, bits 1:0).
type VREGUVLevel uint8

const (
	VREGUV90Pct VREGUVLevel = 0x0
	VREGUV80Pct VREGUVLevel = 0x1
	VREGUV70Pct VREGUVLevel = 0x2
)

// VDSLevel is the VDS comparator threshold code (register 0x0C, bits 7:3),
// 0x00 = 0.060 V up to 0x1E = 2.131 V.
type VDSLevel uint8

const (
	VDSLevel0_060V VDSLevel = 0x00
	VDSLevel0_155V VDSLevel = 0x08
	VDSLevel0_250V VDSLevel = 0x0C
	VDSLevel0_511V VDSLevel = 0x12
	VDSLevel1_043V VDSLevel = 0x18
	VDSLevel1_175V VDSLevel = 0x19
	VDSLevel2_131V VDSLevel = 0x1E
)

var vdsLevelVolts = [32]float64{
	0.060, 0.068, 0.076, 0.086, 0.097, 0.109, 0.123, 0.138,
	0.155, 0.175, 0.197, 0.222, 0.250, 0.282, 0.317, 0.358,
	0.403, 0.454, 0.511, 0.576, 0.648, 0.730, 0.822, 0.926,
	1.043, 1.175, 1.324, 1.491, 1.679, 1.892, 2.131, 2.131,
}

// Volts returns the threshold voltage selected by the code.
func (l VDSLevel) Volts() float64 {
	return vdsLevelVolts[l&0x1F]
}

// VDSMode is the VDS overcurrent response (register 0x0C, bits 2:0). Codes 3-7 are reserved.
type VDSMode uint8

const (
	VDSModeLatchShutdown VDSMode = 0x0
	VDSModeReportOnly    VDSMode = 0x1
	VDSModeDisabled      VDSMode = 0x2
)

// GateDriveCurrent is the HS (0x05) or LS (0x06) gate drive control register.
type GateDriveCurrent struct {
	TDrive  TDrive  `json:"tdrive"`
	ISink   ISink   `json:"isink"`
	ISource ISource `json:"isource"`
}

func (g GateDriveCurrent) values() []uint16 {
	return []uint16{uint16(g.TDrive), uint16(g.ISink), uint16(g.ISource)}
}

// Encode packs the record into its 11-bit payload.
func (g GateDriveCurrent) Encode() uint16 {
	return pack(layoutGateDriveCurrent, g.values())
}

// DecodeGateDriveCurrent unpacks a 0x05/0x06 payload.
func DecodeGateDriveCurrent(word uint16) GateDriveCurrent {
	v := unpack(layoutGateDriveCurrent, word)
	return GateDriveCurrent{TDrive: TDrive(v[0]), ISink: ISink(v[1]), ISource: ISource(v[2])}
}

// GateDriveControl is register 0x07.
type GateDriveControl struct {
	VCPHFreq   VCPHFreq   `json:"vcph_freq"`
	CommOption CommOption `json:"comm"`
	PWMMode    PWMMode    `json:"pwm_mode"`
	DeadTime   DeadTime   `json:"dead_time"`
	TBlank     TBlank     `json:"tblank"`
	TVDS       TVDS       `json:"tvds"`
}

func (g GateDriveControl) values() []uint16 {
	return []uint16{
		uint16(g.VCPHFreq), uint16(g.CommOption), uint16(g.PWMMode),
		uint16(g.DeadTime), uint16(g.TBlank), uint16(g.TVDS),
	}
}

// Encode packs the record into its 11-bit payload.
func (g GateDriveControl) Encode() uint16 {
	return pack(layoutGateDriveControl, g.values())
}

// DecodeGateDriveControl unpacks a 0x07 payload.
func DecodeGateDriveControl(word uint16) GateDriveControl {
	v := unpack(layoutGateDriveControl, word)
	return GateDriveControl{
		VCPHFreq:   VCPHFreq(v[0]),
		CommOption: CommOption(v[1]),
		PWMMode:    PWMMode(v[2]),
		DeadTime:   DeadTime(v[3]),
		TBlank:     TBlank(v[4]),
		TVDS:       TVDS(v[5]),
	}
}

// ICOperation is register 0x09.
type ICOperation struct {
	FlipOTSD      bool          `json:"flip_otsd"`
	DisPVDDUVLO2  bool          `json:"dis_pvdd_uvlo2"`
	DisGDrvFault  bool          `json:"dis_gdrv_fault"`
	EnSnsClamp    bool          `json:"en_sns_clamp"`
	WatchdogDelay WatchdogDelay `json:"wd_dly"`
	DisSnsOCP     bool          `json:"dis_sns_ocp"`
	WatchdogEn    bool          `json:"wd_en"`
	Sleep         bool          `json:"sleep"`
	ClearFaults   bool          `json:"clr_flts"`
	SetVCPHUV     bool          `json:"set_vcph_uv"`
}

func (o ICOperation) values() []uint16 {
	return []uint16{
		b2u(o.FlipOTSD), b2u(o.DisPVDDUVLO2), b2u(o.DisGDrvFault), b2u(o.EnSnsClamp),
		uint16(o.WatchdogDelay), b2u(o.DisSnsOCP), b2u(o.WatchdogEn), b2u(o.Sleep),
		b2u(o.ClearFaults), b2u(o.SetVCPHUV),
	}
}

// Encode packs the record into its 11-bit payload.
func (o ICOperation) Encode() uint16 {
	return pack(layoutICOperation, o.values())
}

// DecodeICOperation unpacks a 0x09 payload.
func DecodeICOperation(word uint16) ICOperation {
	v := unpack(layoutICOperation, word)
	return ICOperation{
		FlipOTSD:      v[0] != 0,
		DisPVDDUVLO2:  v[1] != 0,
		DisGDrvFault:  v[2] != 0,
		EnSnsClamp:    v[3] != 0,
		WatchdogDelay: WatchdogDelay(v[4]),
		DisSnsOCP:     v[5] != 0,
		WatchdogEn:    v[6] != 0,
		Sleep:         v[7] != 0,
		ClearFaults:   v[8] != 0,
		SetVCPHUV:     v[9] != 0,
	}
}

// ShuntAmplifier is register 0x0A.
type ShuntAmplifier struct {
	DCCalCh3 bool    `json:"dc_cal_ch3"`
	DCCalCh2 bool    `json:"dc_cal_ch2"`
	DCCalCh1 bool    `json:"dc_cal_ch1"`
	CSBlank  CSBlank `json:"cs_blank"`
	GainCS3  Gain    `json:"gain_cs3"`
	GainCS2  Gain    `json:"gain_cs2"`
	GainCS1  Gain    `json:"gain_cs1"`
}

func (s ShuntAmplifier) values() []uint16 {
	return []uint16{
		b2u(s.DCCalCh3), b2u(s.DCCalCh2), b2u(s.DCCalCh1), uint16(s.CSBlank),
		uint16(s.GainCS3), uint16(s.GainCS2), uint16(s.GainCS1),
	}
}

// Encode packs the record into its 11-bit payload.
func (s ShuntAmplifier) Encode() uint16 {
	return pack(layoutShuntAmplifier, s.values())
}

// DecodeShuntAmplifier unpacks a 0x0A payload.
func DecodeShuntAmplifier(word uint16) ShuntAmplifier {
	v := unpack(layoutShuntAmplifier, word)
	return ShuntAmplifier{
		DCCalCh3: v[0] != 0,
		DCCalCh2: v[1] != 0,
		DCCalCh1: v[2] != 0,
		CSBlank:  CSBlank(v[3]),
		GainCS3:  Gain(v[4]),
		GainCS2:  Gain(v[5]),
		GainCS1:  Gain(v[6]),
	}
}

// VoltageRegulator is register 0x0B.
type VoltageRegulator struct {
	VRefScale    VRefScale   `json:"vref_scale"`
	SleepDelay   SleepDelay  `json:"sleep_dly"`
	DisVREGPwrGd bool        `json:"dis_vreg_pwrgd"`
	VREGUVLevel  VREGUVLevel `json:"vreg_uv_level"`
}

func (v VoltageRegulator) values() []uint16 {
	return []uint16{uint16(v.VRefScale), uint16(v.SleepDelay), b2u(v.DisVREGPwrGd), uint16(v.VREGUVLevel)}
}

// Encode packs the record into its 11-bit payload.
func (v VoltageRegulator) Encode() uint16 {
	return pack(layoutVoltageRegulator, v.values())
}

// DecodeVoltageRegulator unpacks a 0x0B payload.
func DecodeVoltageRegulator(word uint16) VoltageRegulator {
	v := unpack(layoutVoltageRegulator, word)
	return VoltageRegulator{
		VRefScale:    VRefScale(v[0]),
		SleepDelay:   SleepDelay(v[1]),
		DisVREGPwrGd: v[2] != 0,
		VREGUVLevel:  VREGUVLevel(v[3]),
	}
}

// VDSSense is register 0x0C.
type VDSSense struct {
	Level VDSLevel `json:"vds_level"`
	Mode  VDSMode  `json:"vds_mode"`
}

func (v VDSSense) values() []uint16 {
	return []uint16{uint16(v.Level), uint16(v.Mode)}
}

// Encode packs the record into its 11-bit payload.
func (v VDSSense) Encode() uint16 {
	return pack(layoutVDSSense, v.values())
}

// DecodeVDSSense unpacks a 0x0C payload.
func DecodeVDSSense(word uint16) VDSSense {
	v := unpack(layoutVDSSense, word)
	return VDSSense{Level: VDSLevel(v[0]), Mode: VDSMode(v[1])}
}
