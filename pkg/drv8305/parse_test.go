// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package drv8305

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRegister(t *testing.T) {
	tests := []struct {
		in   string
		want Register
	}{
		{"hs", RegHSGateDrive},
		{"LS", RegLSGateDrive},
		{"vds_sense", RegVDSSense},
		{"IC_OPERATION", RegICOperation},
		{"0x01", RegWarning},
		{"10", RegShuntAmplifier},
	}
	for _, tt := range tests {
		r, err := ParseRegister(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, r, tt.in)
	}

	for _, bad := range []string{"", "0x0D", "0x00", "gates"} {
		_, err := ParseRegister(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseAssignment(t *testing.T) {
	a, err := ParseAssignment("hs.isink=5")
	require.NoError(t, err)
	assert.Equal(t, Assignment{Register: RegHSGateDrive, Field: "isink", Value: 5}, a)

	cfg := DefaultConfiguration()
	require.NoError(t, a.Apply(&cfg))
	assert.Equal(t, ISink(5), cfg.HSGateDrive.ISink)

	a, err = ParseAssignment("VDS_SENSE.VDS_LEVEL = 0x1F")
	require.NoError(t, err)
	require.NoError(t, a.Apply(&cfg))
	assert.Equal(t, VDSLevel(0x1F), cfg.VDSSense.Level)
}

func TestParseAssignmentErrors(t *testing.T) {
	for _, bad := range []string{"hs.isink", "isink=5", "vds.nope=1", "hs.isink=x", "warning.otw=1"} {
		_, err := ParseAssignment(bad)
		assert.Error(t, err, bad)
	}

	a, err := ParseAssignment("hs.isink=99")
	require.NoError(t, err)
	cfg := DefaultConfiguration()
	var fe *FieldError
	assert.True(t, errors.As(a.Apply(&cfg), &fe))
}
