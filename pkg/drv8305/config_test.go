// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package drv8305

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfiguration_HSGateDrive(t *testing.T) {
	cfg := DefaultConfiguration()
	word, err := cfg.Encode(RegHSGateDrive)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x344), word)
	assert.Equal(t, uint16(0x344), cfg.HSGateDrive.Encode())
}

func TestDefaultConfiguration_Valid(t *testing.T) {
	cfg := DefaultConfiguration()
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.ICOperation.ClearFaults)
	assert.InDelta(t, 1.175, cfg.VDSSense.Level.Volts(), 1e-9)
}

func TestConfiguration_EncodeNonControl(t *testing.T) {
	cfg := DefaultConfiguration()
	_, err := cfg.Encode(RegWarning)
	assert.Error(t, err)
}

func TestRecords_DecodeEncode(t *testing.T) {
	cfg := DefaultConfiguration()
	cfg.GateDrive.DeadTime = DeadTime(5)
	cfg.ICOperation.WatchdogEn = true
	cfg.ShuntAmplifier.GainCS2 = Gain(2)
	cfg.VoltageRegulator.DisVREGPwrGd = true
	cfg.VDSSense.Mode = VDSModeReportOnly

	assert.Equal(t, cfg.HSGateDrive, DecodeGateDriveCurrent(cfg.HSGateDrive.Encode()))
	assert.Equal(t, cfg.GateDrive, DecodeGateDriveControl(cfg.GateDrive.Encode()))
	assert.Equal(t, cfg.ICOperation, DecodeICOperation(cfg.ICOperation.Encode()))
	assert.Equal(t, cfg.ShuntAmplifier, DecodeShuntAmplifier(cfg.ShuntAmplifier.Encode()))
	assert.Equal(t, cfg.VoltageRegulator, DecodeVoltageRegulator(cfg.VoltageRegulator.Encode()))
	assert.Equal(t, cfg.VDSSense, DecodeVDSSense(cfg.VDSSense.Encode()))
}

func TestConfiguration_ValidateRejectsWideValue(t *testing.T) {
	cfg := DefaultConfiguration()
	cfg.HSGateDrive.TDrive = TDrive(4)

	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidField))

	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, RegHSGateDrive, fe.Register)
	assert.Equal(t, "tdrive", fe.Field)
	assert.Equal(t, uint16(4), fe.Value)
}

func TestConfiguration_SetField(t *testing.T) {
	cfg := DefaultConfiguration()
	require.NoError(t, cfg.SetField(RegVDSSense, "vds_level", uint16(VDSLevel0_511V)))
	assert.Equal(t, VDSLevel0_511V, cfg.VDSSense.Level)
	assert.Equal(t, VDSModeLatchShutdown, cfg.VDSSense.Mode)

	require.NoError(t, cfg.SetField(RegICOperation, "wd_en", 1))
	assert.True(t, cfg.ICOperation.WatchdogEn)

	assert.ErrorIs(t, cfg.SetField(RegGateDrive, "dead_time", 8), ErrInvalidField)
	assert.Error(t, cfg.SetField(RegGateDrive, "nope", 0))
}

func TestConfigStore_SetAllOrNothing(t *testing.T) {
	s := NewConfigStore()
	before := s.Get()

	bad := DefaultConfiguration()
	bad.LSGateDrive.ISink = ISink(0x10)
	require.Error(t, s.Set(bad))
	assert.Equal(t, before, s.Get())

	good := DefaultConfiguration()
	good.LSGateDrive.ISink = ISink1000mA
	require.NoError(t, s.Set(good))
	assert.Equal(t, good, s.Get())
}

func TestConfigStore_GetReturnsCopy(t *testing.T) {
	s := NewConfigStore()
	cfg := s.Get()
	cfg.VDSSense.Level = VDSLevel2_131V
	assert.Equal(t, VDSLevel1_175V, s.Get().VDSSense.Level)
}
