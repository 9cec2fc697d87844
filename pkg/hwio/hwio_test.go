// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package hwio

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/gatewatch/pkg/drv8305"
)

type fakeBus struct {
	sent  [][]byte
	reply []byte
	err   error
}

func (b *fakeBus) Tx(w, r []byte) error {
	b.sent = append(b.sent, append([]byte(nil), w...))
	if b.err != nil {
		return b.err
	}
	copy(r, b.reply)
	return nil
}

type fakeLine struct {
	level bool
	err   error
}

func (l *fakeLine) Set(high bool) error {
	if l.err != nil {
		return l.err
	}
	l.level = high
	return nil
}

func (l *fakeLine) Get() (bool, error) { return l.level, l.err }

func newFakeDevice() (*Device, *fakeBus, *fakeLine, *fakeLine, *fakeLine) {
	bus := &fakeBus{}
	en, wake, nf := &fakeLine{}, &fakeLine{}, &fakeLine{level: true}
	return &Device{conn: bus, enGate: en, wake: wake, nFault: nf}, bus, en, wake, nf
}

func TestTransferByteOrder(t *testing.T) {
	d, bus, _, _, _ := newFakeDevice()
	bus.reply = []byte{0x2B, 0x44}

	got, err := d.Transfer(drv8305.PackRead(drv8305.RegHSGateDrive))
	require.NoError(t, err)
	assert.Equal(t, uint16(0x2B44), got)
	require.Len(t, bus.sent, 1)
	assert.Equal(t, []byte{0xA8, 0x00}, bus.sent[0])
}

func TestTransferError(t *testing.T) {
	d, bus, _, _, _ := newFakeDevice()
	bus.err = errors.New("bus fault")

	_, err := d.Transfer(0)
	assert.EqualError(t, err, "bus fault")
}

func TestPowerLines(t *testing.T) {
	d, _, en, wake, _ := newFakeDevice()

	require.NoError(t, d.Enable())
	require.NoError(t, d.Wake())
	assert.True(t, en.level)
	assert.True(t, wake.level)

	require.NoError(t, d.Disable())
	require.NoError(t, d.Sleep())
	assert.False(t, en.level)
	assert.False(t, wake.level)
}

func TestFaultPinActiveLow(t *testing.T) {
	d, _, _, _, nf := newFakeDevice()

	asserted, err := d.FaultAsserted()
	require.NoError(t, err)
	assert.False(t, asserted)

	nf.level = false
	asserted, err = d.FaultAsserted()
	require.NoError(t, err)
	assert.True(t, asserted)
}

func TestFaultPinMissing(t *testing.T) {
	d, _, _, _, _ := newFakeDevice()
	d.nFault = nil

	_, err := d.FaultAsserted()
	assert.ErrorIs(t, err, drv8305.ErrNoFaultPin)
}

func TestCloseRunsInReverse(t *testing.T) {
	var order []int
	d := &Device{closers: []func() error{
		func() error { order = append(order, 1); return nil },
		func() error { order = append(order, 2); return errors.New("stuck") },
	}}

	err := d.Close()
	assert.EqualError(t, err, "stuck")
	assert.Equal(t, []int{2, 1}, order)
	assert.NoError(t, d.Close())
}

func TestParseGPIONumber(t *testing.T) {
	n, err := parseGPIONumber("60")
	require.NoError(t, err)
	assert.Equal(t, 60, n)

	n, err = parseGPIONumber("gpio48")
	require.NoError(t, err)
	assert.Equal(t, 48, n)

	for _, bad := range []string{"P9_12", "gpio", "-3"} {
		_, err = parseGPIONumber(bad)
		assert.Error(t, err, bad)
	}
}

func TestSysfsPinNotExported(t *testing.T) {
	_, err := sysfsPin("9999")
	assert.ErrorContains(t, err, "not exported")
}

func TestOpenRequiresLines(t *testing.T) {
	_, err := Open(Config{ENGate: "GPIO17"})
	assert.Error(t, err)
}

func TestDeviceSatisfiesDriver(t *testing.T) {
	var _ drv8305.Hardware = (*Device)(nil)
	var _ drv8305.FaultPin = (*Device)(nil)
}
