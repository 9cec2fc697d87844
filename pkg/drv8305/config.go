// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package drv8305

import (
	"errors"
	"fmt"
	"sync"
)

// ErrInvalidField is wrapped by every FieldError.
var ErrInvalidField = errors.New("invalid register field")

// FieldError reports a configuration value that does not fit its bitfield.
type FieldError struct {
	Register Register
	Field    string
	Value    uint16
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s.%s: value %d does not fit the field", e.Register, e.Field, e.Value)
}

func (e *FieldError) Unwrap() error {
	return ErrInvalidField
}

// Configuration holds the intended contents of all seven control registers.
type Configuration struct {
	HSGateDrive      GateDriveCurrent `json:"hs_gate_drive"`
	LSGateDrive      GateDriveCurrent `json:"ls_gate_drive"`
	GateDrive        GateDriveControl `json:"gate_drive"`
	ICOperation      ICOperation      `json:"ic_operation"`
	ShuntAmplifier   ShuntAmplifier   `json:"shunt_amplifier"`
	VoltageRegulator VoltageRegulator `json:"voltage_regulator"`
	VDSSense         VDSSense         `json:"vds_sense"`
}

// DefaultConfiguration returns the datasheet reset values, except that
// clr_flts is set so the first control pass clears latched faults.
func DefaultConfiguration() Configuration {
	return Configuration{
		HSGateDrive: GateDriveCurrent{
			TDrive:  TDrive1780ns,
			ISink:   ISink60mA,
			ISource: ISource50mA,
		},
		LSGateDrive: GateDriveCurrent{
			TDrive:  TDrive1780ns,
			ISink:   ISink60mA,
			ISource: ISource50mA,
		},
		GateDrive: GateDriveControl{
			VCPHFreq:   VCPHFreq518kHz,
			CommOption: CommActiveFreewheel,
			PWMMode:    PWM6Inputs,
			DeadTime:   DeadTime52ns,
			TBlank:     TBlank1_75us,
			TVDS:       TVDS3_5us,
		},
		ICOperation: ICOperation{
			WatchdogDelay: WatchdogDelay20ms,
			ClearFaults:   true,
		},
		ShuntAmplifier: ShuntAmplifier{
			CSBlank: CSBlank0ns,
			GainCS3: Gain10VV,
			GainCS2: Gain10VV,
			GainCS1: Gain10VV,
		},
		VoltageRegulator: VoltageRegulator{
			VRefScale:   VRefScaleDiv2,
			SleepDelay:  SleepDelay10us,
			VREGUVLevel: VREGUV70Pct,
		},
		VDSSense: VDSSense{
			Level: VDSLevel1_175V,
			Mode:  VDSModeLatchShutdown,
		},
	}
}

// values returns the field values of a control register record in layout order.
func (c *Configuration) values(r Register) []uint16 {
	switch r {
	case RegHSGateDrive:
		return c.HSGateDrive.values()
	case RegLSGateDrive:
		return c.LSGateDrive.values()
	case RegGateDrive:
		return c.GateDrive.values()
	case RegICOperation:
		return c.ICOperation.values()
	case RegShuntAmplifier:
		return c.ShuntAmplifier.values()
	case RegVoltageRegulator:
		return c.VoltageRegulator.values()
	case RegVDSSense:
		return c.VDSSense.values()
	default:
		return nil
	}
}

// Encode packs the record for control register r.
func (c *Configuration) Encode(r Register) (uint16, error) {
	layout := Layout(r)
	if layout == nil {
		return 0, fmt.Errorf("register 0x%02X is not a control register", uint8(r))
	}
	return pack(layout, c.values(r)), nil
}

// Validate checks that every field value fits its bitfield.
func (c *Configuration) Validate() error {
	for _, r := range ControlRegisters {
		values := c.values(r)
		for i, f := range Layout(r) {
			if !f.Fits(values[i]) {
				return &FieldError{Register: r, Field: f.Name, Value: values[i]}
			}
		}
	}
	return nil
}

// SetField replaces one named field of a control register record.
func (c *Configuration) SetField(r Register, name string, v uint16) error {
	f, ok := FieldByName(r, name)
	if !ok {
		return fmt.Errorf("%s has no field %q", r, name)
	}
	if !f.Fits(v) {
		return &FieldError{Register: r, Field: name, Value: v}
	}
	word, err := c.Encode(r)
	if err != nil {
		return err
	}
	word = f.Put(word, v)
	switch r {
	case RegHSGateDrive:
		c.HSGateDrive = DecodeGateDriveCurrent(word)
	case RegLSGateDrive:
		c.LSGateDrive = DecodeGateDriveCurrent(word)
	case RegGateDrive:
		c.GateDrive = DecodeGateDriveControl(word)
	case RegICOperation:
		c.ICOperation = DecodeICOperation(word)
	case RegShuntAmplifier:
		c.ShuntAmplifier = DecodeShuntAmplifier(word)
	case RegVoltageRegulator:
		c.VoltageRegulator = DecodeVoltageRegulator(word)
	case RegVDSSense:
		c.VDSSense = DecodeVDSSense(word)
	}
	return nil
}

// ConfigStore owns the active configuration of one driver.
type ConfigStore struct {
	mu  sync.RWMutex
	cfg Configuration
}

// NewConfigStore creates a store holding the default configuration.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{cfg: DefaultConfiguration()}
}

// Get returns a consistent copy of the active configuration.
func (s *ConfigStore) Get() Configuration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Set replaces the whole configuration. Nothing is written to the device until
// the next control pass. An invalid record leaves the store unchanged.
func (s *ConfigStore) Set(cfg Configuration) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	return nil
}
