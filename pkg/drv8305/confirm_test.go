// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package drv8305

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatches_ExactEcho(t *testing.T) {
	cfg := DefaultConfiguration()
	for _, r := range ControlRegisters {
		word, err := cfg.Encode(r)
		assert.NoError(t, err)
		assert.True(t, Matches(r, word, cfg), r.String())
	}
}

func TestMatches_AnySingleFieldDiffers(t *testing.T) {
	cfg := DefaultConfiguration()
	for _, r := range ControlRegisters {
		word, _ := cfg.Encode(r)
		for _, f := range Layout(r) {
			if f.SelfClearing {
				continue
			}
			// flip the lowest bit of the field
			echo := word ^ (1 << f.Offset)
			assert.False(t, Matches(r, echo, cfg), "%s.%s", r, f.Name)

			mm := Mismatches(r, echo, cfg)
			if assert.Len(t, mm, 1) {
				assert.Equal(t, f.Name, mm[0].Name)
			}
		}
	}
}

func TestMatches_ClearFaultsIgnored(t *testing.T) {
	clrFlts, ok := FieldByName(RegICOperation, "clr_flts")
	assert.True(t, ok)
	assert.True(t, clrFlts.SelfClearing)

	for _, set := range []bool{true, false} {
		cfg := DefaultConfiguration()
		cfg.ICOperation.ClearFaults = set
		word, _ := cfg.Encode(RegICOperation)

		assert.True(t, Matches(RegICOperation, word&^clrFlts.Mask(), cfg))
		assert.True(t, Matches(RegICOperation, word|clrFlts.Mask(), cfg))
		assert.Empty(t, Mismatches(RegICOperation, word^clrFlts.Mask(), cfg))
	}
}

func TestMatches_NonControlRegister(t *testing.T) {
	assert.False(t, Matches(RegWarning, 0, DefaultConfiguration()))
}

func TestConfirmationFlags(t *testing.T) {
	var f ConfirmationFlags
	assert.False(t, f.All())
	for _, r := range ControlRegisters {
		f.set(r, true)
	}
	assert.True(t, f.All())
	f.set(RegGateDrive, false)
	assert.False(t, f.All())
	assert.False(t, f.Get(RegGateDrive))
	assert.True(t, f.Get(RegVDSSense))
	assert.False(t, f.Get(RegWarning))
}
