// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package session owns a running DRV8305 driver: it ticks and polls the
// scheduler on one goroutine, serializes access from user interfaces, and
// reports pass completions and errors as events.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	"github.com/Thermoquad/gatewatch/pkg/drv8305"
	"github.com/Thermoquad/gatewatch/pkg/telemetry"
)

// DefaultTick matches the driver's reference cadence of one tick per millisecond.
const DefaultTick = time.Millisecond

// DefaultFaultPinInterval is how often nFAULT is sampled. On a bridge every
// sample is a round trip, so it must stay well above the tick.
const DefaultFaultPinInterval = 100 * time.Millisecond

// ErrStopped is returned by Do once Run has returned.
var ErrStopped = errors.New("session stopped")

// EventKind classifies an Event.
type EventKind int

const (
	EventStatusPass EventKind = iota
	EventControlPass
	EventError
	EventFaultPin
)

func (k EventKind) String() string {
	switch k {
	case EventStatusPass:
		return "status"
	case EventControlPass:
		return "control"
	case EventError:
		return "error"
	case EventFaultPin:
		return "nfault"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is something the operator should see.
type Event struct {
	Time time.Time
	Kind EventKind
	Text string
}

// Session runs one driver.
type Session struct {
	d         *drv8305.Driver
	tick      time.Duration
	faultPoll time.Duration

	cmds    chan func(*drv8305.Driver)
	events  chan Event
	stopped chan struct{}

	last       drv8305.Stats
	faultPin   bool
	noFaultPin bool
	ticks      uint64
	faultEvery uint64 // ticks between nFAULT samples
	dropped    atomic.Uint64
}

// Option configures a Session.
type Option func(*Session)

// WithTick sets the wall-clock period of one driver tick.
func WithTick(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.tick = d
		}
	}
}

// WithFaultPinInterval sets how often nFAULT is sampled. It is rounded to
// whole ticks.
func WithFaultPinInterval(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.faultPoll = d
		}
	}
}

// New creates the driver for hw. Driver options are passed through.
func New(hw drv8305.Hardware, opts []Option, driverOpts ...drv8305.Option) (*Session, error) {
	d, err := drv8305.New(hw, driverOpts...)
	if err != nil {
		return nil, err
	}
	s := &Session{
		d:       d,
		tick:      DefaultTick,
		faultPoll: DefaultFaultPinInterval,
		cmds:    make(chan func(*drv8305.Driver)),
		events:  make(chan Event, 64),
		stopped: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.faultEvery = uint64(s.faultPoll / s.tick)
	if s.faultEvery == 0 {
		s.faultEvery = 1
	}
	return s, nil
}

// Events delivers pass completions and errors. Events are dropped when the
// channel is full.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Dropped counts events discarded because nobody was reading Events.
func (s *Session) Dropped() uint64 {
	return s.dropped.Load()
}

// Run drives the scheduler until ctx is done.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.stopped)

	t := time.NewTicker(s.tick)
	defer t.Stop()
	glog.V(1).Infof("session: %s running at %v per tick", s.d.Name(), s.tick)
	for {
		select {
		case <-ctx.Done():
			return nil
		case fn := <-s.cmds:
			fn(s.d)
		case <-t.C:
			s.step()
		}
	}
}

func (s *Session) step() {
	_ = s.d.Poll()
	s.d.Tick()
	s.ticks++

	now := time.Now()
	st := s.d.Stats()
	if st.ControlPasses > s.last.ControlPasses {
		flags := s.d.ConfirmationFlags()
		text := "configuration confirmed"
		if !flags.All() {
			text = "configuration NOT confirmed: " + s.unconfirmed(flags)
		}
		s.emit(Event{Time: now, Kind: EventControlPass, Text: text})
	}
	if st.StatusPasses > s.last.StatusPasses {
		s.emit(Event{Time: now, Kind: EventStatusPass, Text: s.faultSummary()})
	}
	if err := s.d.LastError(); err != nil && st.TransportErrors+st.PowerErrors > s.last.TransportErrors+s.last.PowerErrors {
		s.emit(Event{Time: now, Kind: EventError, Text: err.Error()})
	}
	s.last = st

	if !s.noFaultPin && s.ticks%s.faultEvery == 0 {
		s.sampleFaultPin(now)
	}
}

func (s *Session) sampleFaultPin(now time.Time) {
	asserted, err := s.d.FaultAsserted()
	switch {
	case errors.Is(err, drv8305.ErrNoFaultPin):
		s.noFaultPin = true
		return
	case err != nil:
		glog.V(2).Infof("session: %s: nFAULT: %v", s.d.Name(), err)
		return
	case asserted == s.faultPin:
		return
	}
	s.faultPin = asserted
	text := "nFAULT released"
	if asserted {
		text = "nFAULT asserted"
	}
	s.emit(Event{Time: now, Kind: EventFaultPin, Text: text})
}

func (s *Session) unconfirmed(flags drv8305.ConfirmationFlags) string {
	var out string
	for _, r := range drv8305.ControlRegisters {
		if !flags.Get(r) {
			if out != "" {
				out += ", "
			}
			out += r.String()
		}
	}
	return out
}

func (s *Session) faultSummary() string {
	var out string
	for _, r := range drv8305.StatusRegisters {
		slot, ok := s.d.Register(r)
		if !ok || !slot.Valid {
			continue
		}
		for _, b := range drv8305.ActiveFaults(r, slot.Data) {
			if out != "" {
				out += " "
			}
			out += b.Name
		}
	}
	if out == "" {
		return "no faults"
	}
	return out
}

func (s *Session) emit(e Event) {
	select {
	case s.events <- e:
	default:
		s.dropped.Add(1)
	}
}

// Do runs fn on the session goroutine and returns its error.
func (s *Session) Do(ctx context.Context, fn func(d *drv8305.Driver) error) error {
	errc := make(chan error, 1)
	wrapped := func(d *drv8305.Driver) { errc <- fn(d) }
	select {
	case s.cmds <- wrapped:
	case <-s.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot captures the driver state on the session goroutine.
func (s *Session) Snapshot(ctx context.Context, source string) (telemetry.Snapshot, error) {
	var snap telemetry.Snapshot
	err := s.Do(ctx, func(d *drv8305.Driver) error {
		snap = telemetry.Take(d, source, time.Now())
		return nil
	})
	return snap, err
}

// WaitControlPass requests confirmation and blocks until the resulting
// control pass completes, returning the confirmation flags it left.
//
// A control pass already writing registers may have programmed some of them
// from an older configuration, so its result is skipped.
func (s *Session) WaitControlPass(ctx context.Context) (drv8305.ConfirmationFlags, error) {
	var want uint64
	err := s.Do(ctx, func(d *drv8305.Driver) error {
		want = d.Stats().ControlPasses + 1
		if d.State().Main == drv8305.MainControl {
			want++
		}
		d.Confirm()
		return nil
	})
	if err != nil {
		return drv8305.ConfirmationFlags{}, err
	}

	poll := time.NewTicker(10 * s.tick)
	defer poll.Stop()
	for {
		var flags drv8305.ConfirmationFlags
		done := false
		err := s.Do(ctx, func(d *drv8305.Driver) error {
			if d.Stats().ControlPasses >= want {
				flags, done = d.ConfirmationFlags(), true
			}
			return nil
		})
		if err != nil || done {
			return flags, err
		}
		select {
		case <-poll.C:
		case <-ctx.Done():
			return drv8305.ConfirmationFlags{}, ctx.Err()
		}
	}
}
