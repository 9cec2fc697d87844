// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package drv8305

import "github.com/golang/glog"

// stepStatus reads one status register. The last step hands control back to IDLE.
func (d *Driver) stepStatus(step int) error {
	r := StatusRegisters[step]
	data, err := d.transfer(r, PackRead(r))
	if err == nil {
		d.notify(r, data)
	}

	if step+1 < len(StatusRegisters) {
		d.schedule(levelStatus, activity{kind: actStatus, step: step + 1}, StatusStepDelay)
		return err
	}
	d.stats.StatusPasses++
	d.schedule(levelMain, activity{kind: actIdle}, StatusStepDelay)
	return err
}

// stepControl writes one control register from the active configuration and
// checks its echo.
func (d *Driver) stepControl(step int) error {
	r := ControlRegisters[step]
	cfg := d.store.Get()

	word, err := cfg.Encode(r)
	if err == nil {
		var echo uint16
		echo, err = d.transfer(r, PackWrite(r, word))
		if err == nil {
			d.notify(r, echo)
			ok := Matches(r, echo, cfg)
			d.flags.set(r, ok)
			if !ok {
				glog.V(1).Infof("%s: %s echoed 0x%03X, want 0x%03X", d.name, r, echo, word)
			}
		}
	}
	if err != nil {
		d.flags.set(r, false)
	}

	if step+1 < len(ControlRegisters) {
		d.schedule(levelControl, activity{kind: actControl, step: step + 1}, RegisterSwitchDelay)
		return err
	}
	d.stats.ControlPasses++
	d.schedule(levelMain, activity{kind: actIdle}, RegisterSwitchDelay)
	return err
}
