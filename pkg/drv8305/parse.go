// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package drv8305

import (
	"fmt"
	"strconv"
	"strings"
)

var registerAliases = map[string]Register{
	"hs":    RegHSGateDrive,
	"ls":    RegLSGateDrive,
	"gate":  RegGateDrive,
	"ic":    RegICOperation,
	"shunt": RegShuntAmplifier,
	"vreg":  RegVoltageRegulator,
	"vds":   RegVDSSense,
}

// ParseRegister accepts a register name ("HS_GATE_DRIVE", case-insensitive),
// a short alias ("hs", "ls", "gate", "ic", "shunt", "vreg", "vds") or an
// address ("0x05", "5").
func ParseRegister(s string) (Register, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if r, ok := registerAliases[key]; ok {
		return r, nil
	}
	for _, r := range Registers {
		if strings.ToLower(r.String()) == key {
			return r, nil
		}
	}
	if n, err := strconv.ParseUint(key, 0, 8); err == nil {
		r := Register(n)
		if r.Index() >= 0 {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown register %q", s)
}

// Assignment sets one field of a control register.
type Assignment struct {
	Register Register
	Field    string
	Value    uint16
}

// ParseAssignment parses "reg.field=value", e.g. "hs.isink=5" or
// "VDS_SENSE.vds_level=0x1F". The field must exist; its width is checked when
// the assignment is applied.
func ParseAssignment(s string) (Assignment, error) {
	lhs, rhs, ok := strings.Cut(s, "=")
	if !ok {
		return Assignment{}, fmt.Errorf("%q: expected reg.field=value", s)
	}
	reg, field, ok := strings.Cut(strings.TrimSpace(lhs), ".")
	if !ok {
		return Assignment{}, fmt.Errorf("%q: expected reg.field=value", s)
	}
	r, err := ParseRegister(reg)
	if err != nil {
		return Assignment{}, err
	}
	field = strings.ToLower(field)
	if _, ok := FieldByName(r, field); !ok {
		return Assignment{}, fmt.Errorf("%s has no field %q", r, field)
	}
	v, err := strconv.ParseUint(strings.TrimSpace(rhs), 0, 16)
	if err != nil {
		return Assignment{}, fmt.Errorf("%q: bad value: %w", s, err)
	}
	return Assignment{Register: r, Field: field, Value: uint16(v)}, nil
}

// Apply sets the field in cfg.
func (a Assignment) Apply(cfg *Configuration) error {
	return cfg.SetField(a.Register, a.Field, a.Value)
}
