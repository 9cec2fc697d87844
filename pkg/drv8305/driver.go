// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package drv8305

import (
	"errors"
	"fmt"

	"github.com/golang/glog"
)

// RegisterSlot is the last value the driver saw for one register.
type RegisterSlot struct {
	Address Register
	Data    uint16 // 11-bit payload
	Raw     uint16 // full response frame
	Valid   bool   // false until the first successful transfer
}

// Fault reports whether the response frame carried the fault flag.
func (s RegisterSlot) Fault() bool {
	return s.Valid && DecodeResponse(s.Raw).Fault
}

// Stats counts wire activity since New or the last Reset.
type Stats struct {
	Transfers       uint64
	TransportErrors uint64
	PowerErrors     uint64
	FaultFrames     uint64 // responses with bit 15 set
	EchoMismatches  uint64 // responses whose address echo differs from the request
	StatusPasses    uint64
	ControlPasses   uint64
}

// Driver runs the DRV8305 scheduler for one device.
//
// A Driver is not safe for concurrent use, except for Tick which may be
// called from a timer goroutine while another goroutine calls Poll.
type Driver struct {
	hw       Hardware
	handlers Handlers
	store    *ConfigStore
	name     string

	timer CycleTimer
	cur   activity
	wait  *wait
	queue []request

	slots   [NumRegisters]RegisterSlot
	flags   ConfirmationFlags
	stats   Stats
	lastErr error
}

// WithName labels the driver's log lines, for hosts running more than one device.
func WithName(name string) Option {
	return func(d *Driver) error {
		d.name = name
		return nil
	}
}

// New initializes a driver. The device is woken and its gate driver disabled;
// the first Poll enables it and starts a full control pass.
func New(hw Hardware, opts ...Option) (*Driver, error) {
	if hw == nil {
		return nil, ErrNilHardware
	}

	d := &Driver{
		hw:    hw,
		store: NewConfigStore(),
		name:  "drv8305",
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	d.clearSlots()

	if err := hw.Wake(); err != nil {
		return nil, fmt.Errorf("wake: %w", err)
	}
	if err := hw.Disable(); err != nil {
		return nil, fmt.Errorf("disable: %w", err)
	}

	glog.V(1).Infof("%s: initialized", d.name)
	return d, nil
}

func (d *Driver) clearSlots() {
	for i, r := range Registers {
		d.slots[i] = RegisterSlot{Address: r}
	}
	d.flags = ConfirmationFlags{}
}

// Tick advances the shared cycle counter by one.
func (d *Driver) Tick() {
	d.timer.Tick()
}

// Elapsed returns the ticks counted since the last transition was scheduled.
func (d *Driver) Elapsed() uint32 {
	return d.timer.Elapsed()
}

// Poll executes at most one scheduler step and returns immediately.
//
// The returned error is advisory: it reports a transport or power-line failure
// that happened during this step. The scheduler has already moved on.
func (d *Driver) Poll() error {
	if w := d.wait; w != nil {
		if d.timer.Elapsed() < w.target {
			return nil
		}
		d.wait = nil
		d.cur = w.to
		glog.V(2).Infof("%s: %s delay released into %s", d.name, w.level, w.to)
		return nil
	}

	switch d.cur.kind {
	case actInit:
		return d.runInit()
	case actIdle:
		d.runIdle()
		return nil
	case actWake:
		err := d.power("wake", d.hw.Wake)
		d.schedule(levelMain, activity{kind: actIdle}, RegisterSwitchDelay)
		return err
	case actSleep:
		err := d.power("sleep", d.hw.Sleep)
		d.schedule(levelMain, activity{kind: actIdle}, RegisterSwitchDelay)
		return err
	case actStatus:
		return d.stepStatus(d.cur.step)
	case actControl:
		return d.stepControl(d.cur.step)
	}
	return nil
}

func (d *Driver) runInit() error {
	err := errors.Join(
		d.power("enable", d.hw.Enable),
		d.power("wake", d.hw.Wake),
	)
	d.schedule(levelMain, activity{kind: actControl}, RegisterSwitchDelay)
	return err
}

func (d *Driver) runIdle() {
	if len(d.queue) > 0 {
		req := d.queue[0]
		d.queue = d.queue[1:]
		d.dispatch(req)
		return
	}
	if d.timer.Elapsed() >= StatusPollInterval {
		d.schedule(levelMain, activity{kind: actStatus}, RegisterSwitchDelay)
	}
}

// schedule arms a DELAY at the given level. The cycle counter restarts at zero.
func (d *Driver) schedule(l level, to activity, delay uint32) {
	d.timer.Reset()
	d.wait = &wait{to: to, level: l, target: delay}
	glog.V(2).Infof("%s: %s -> %s after %d ticks", d.name, d.cur, to, delay)
}

func (d *Driver) power(name string, fn func() error) error {
	if err := fn(); err != nil {
		d.stats.PowerErrors++
		d.lastErr = fmt.Errorf("%s: %w", name, err)
		glog.Warningf("%s: %v", d.name, d.lastErr)
		return d.lastErr
	}
	return nil
}

// transfer exchanges one frame and stores the response in the register's slot.
// On error the slot keeps its previous value.
func (d *Driver) transfer(r Register, frame uint16) (uint16, error) {
	d.stats.Transfers++
	raw, err := d.hw.Transfer(frame)
	if err != nil {
		d.stats.TransportErrors++
		d.lastErr = fmt.Errorf("%s: transfer: %w", r, err)
		glog.Warningf("%s: %v", d.name, d.lastErr)
		return 0, d.lastErr
	}
	glog.V(3).Infof("%s: tx=0x%04X rx=0x%04X", d.name, frame, raw)

	resp := DecodeResponse(raw)
	if resp.Fault {
		d.stats.FaultFrames++
	}
	if resp.Address != r {
		d.stats.EchoMismatches++
		glog.V(1).Infof("%s: %s answered with address 0x%X", d.name, r, uint8(resp.Address))
	}

	d.slots[r.Index()] = RegisterSlot{Address: r, Data: resp.Data, Raw: raw, Valid: true}
	return resp.Data, nil
}

func (d *Driver) notify(r Register, data uint16) {
	if h := d.handlers.lookup(r); h != nil {
		h(d, data)
	}
}

// busy reports whether a pass is running, or INIT has yet to start one.
func (d *Driver) busy() bool {
	switch d.cur.kind {
	case actInit, actStatus, actControl:
		return true
	}
	return false
}

func (d *Driver) request(req request) {
	if !d.busy() {
		d.dispatch(req)
		return
	}
	if n := len(d.queue); n > 0 && d.queue[n-1] == req {
		return
	}
	d.queue = append(d.queue, req)
	glog.V(2).Infof("%s: %s queued during %s", d.name, req, d.cur)
}

func (d *Driver) dispatch(req request) {
	switch req {
	case requestConfirm:
		d.schedule(levelMain, activity{kind: actControl}, RegisterSwitchDelay)
	case requestSleep:
		d.schedule(levelMain, activity{kind: actSleep}, RegisterSwitchDelay)
	case requestWake:
		d.schedule(levelMain, activity{kind: actWake}, RegisterSwitchDelay)
	}
}

// Confirm starts a control pass that writes the active configuration.
// A request made while a pass is running starts once the scheduler is idle again.
func (d *Driver) Confirm() {
	d.request(requestConfirm)
}

// RequestSleep drives WAKE low through the scheduler.
func (d *Driver) RequestSleep() {
	d.request(requestSleep)
}

// RequestWake drives WAKE high through the scheduler.
func (d *Driver) RequestWake() {
	d.request(requestWake)
}

// Enable drives EN_GATE high immediately.
func (d *Driver) Enable() error {
	return d.power("enable", d.hw.Enable)
}

// Disable drives EN_GATE low immediately.
func (d *Driver) Disable() error {
	return d.power("disable", d.hw.Disable)
}

// FaultAsserted reads the nFAULT line. It returns ErrNoFaultPin when the
// hardware does not implement FaultPin.
func (d *Driver) FaultAsserted() (bool, error) {
	fp, ok := d.hw.(FaultPin)
	if !ok {
		return false, ErrNoFaultPin
	}
	return fp.FaultAsserted()
}

// Reset disables and sleeps the device, forgets every register value and
// restarts the scheduler at INIT. The active configuration is kept.
func (d *Driver) Reset() error {
	err := errors.Join(
		d.power("disable", d.hw.Disable),
		d.power("sleep", d.hw.Sleep),
	)
	d.clearSlots()
	d.queue = nil
	d.wait = nil
	d.cur = activity{kind: actInit}
	d.stats = Stats{}
	d.timer.Reset()
	glog.V(1).Infof("%s: reset", d.name)
	return err
}

// Configuration returns a copy of the active configuration.
func (d *Driver) Configuration() Configuration {
	return d.store.Get()
}

// SetConfiguration replaces the active configuration. The device is not
// written until the next Confirm.
func (d *Driver) SetConfiguration(cfg Configuration) error {
	return d.store.Set(cfg)
}

// Registers returns a copy of every register slot, in Registers order.
func (d *Driver) Registers() [NumRegisters]RegisterSlot {
	return d.slots
}

// Register returns the slot of one register.
func (d *Driver) Register(r Register) (RegisterSlot, bool) {
	i := r.Index()
	if i < 0 {
		return RegisterSlot{}, false
	}
	return d.slots[i], true
}

// ConfirmationFlags returns the per-register result of the last control pass.
func (d *Driver) ConfirmationFlags() ConfirmationFlags {
	return d.flags
}

// IsConfigurationConfirmed reports whether every control register echoed the
// active configuration.
func (d *Driver) IsConfigurationConfirmed() bool {
	return d.flags.All()
}

// State reports the scheduler position.
func (d *Driver) State() State {
	s := State{Queued: len(d.queue)}
	if d.wait != nil && d.wait.level == levelMain {
		s.Main = MainDelay
		s.Next = d.wait.to.kind.main()
		return s
	}
	s.Main = d.cur.kind.main()
	switch {
	case d.wait != nil:
		s.Register = d.wait.to.register()
		s.StepDelay = true
	case d.cur.kind == actStatus || d.cur.kind == actControl:
		s.Register = d.cur.register()
	}
	return s
}

// Stats returns the wire counters.
func (d *Driver) Stats() Stats {
	return d.stats
}

// LastError returns the most recent transport or power-line error, or nil.
func (d *Driver) LastError() error {
	return d.lastErr
}

// Name returns the label used in log lines.
func (d *Driver) Name() string {
	return d.name
}
