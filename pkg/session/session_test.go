// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package session

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/gatewatch/pkg/drv8305"
	"github.com/Thermoquad/gatewatch/pkg/simulator"
)

func start(t *testing.T, hw drv8305.Hardware) (*Session, context.CancelFunc) {
	t.Helper()
	s, err := New(hw, []Option{WithTick(20 * time.Microsecond)}, drv8305.WithName("test"))
	require.NoError(t, err)
	return s, run(t, s)
}

// run starts s on its own goroutine until the test ends.
func run(t *testing.T, s *Session) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return cancel
}

func waitEvent(t *testing.T, s *Session, kind EventKind) Event {
	t.Helper()
	timeout := time.After(10 * time.Second)
	for {
		select {
		case e := <-s.Events():
			if e.Kind == kind {
				return e
			}
		case <-timeout:
			t.Fatalf("no %s event", kind)
		}
	}
}

func TestNewRejectsNilHardware(t *testing.T) {
	_, err := New(nil, nil)
	assert.ErrorIs(t, err, drv8305.ErrNilHardware)
}

func TestControlPassEvent(t *testing.T) {
	s, _ := start(t, simulator.New())

	e := waitEvent(t, s, EventControlPass)
	assert.Equal(t, "configuration confirmed", e.Text)
}

func TestStatusPassReportsFaults(t *testing.T) {
	sim := simulator.New()
	s, _ := start(t, sim)
	waitEvent(t, s, EventControlPass)

	require.NoError(t, sim.InjectFault(drv8305.RegVGSFaults, drv8305.VGSHA))
	// a pass already under way may have read the registers before the injection
	var e Event
	for i := 0; i < 3; i++ {
		e = waitEvent(t, s, EventStatusPass)
		if strings.Contains(e.Text, "FAULT") {
			break
		}
	}
	assert.Contains(t, e.Text, "VGS_HA")
	assert.Contains(t, e.Text, "FAULT")
}

func TestFaultPinEvent(t *testing.T) {
	sim := simulator.New()
	s, _ := start(t, sim)
	waitEvent(t, s, EventControlPass)

	require.NoError(t, sim.InjectFault(drv8305.RegICFaults, drv8305.ICPVDDUVLO2))
	e := waitEvent(t, s, EventFaultPin)
	assert.Equal(t, "nFAULT asserted", e.Text)
}

func TestWaitControlPassReportsStuckBit(t *testing.T) {
	sim := simulator.New()
	s, _ := start(t, sim)
	waitEvent(t, s, EventControlPass)

	sim.SetStuck(drv8305.RegShuntAmplifier, 1<<10)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	flags, err := s.WaitControlPass(ctx)
	require.NoError(t, err)
	assert.False(t, flags.Get(drv8305.RegShuntAmplifier))
	assert.True(t, flags.Get(drv8305.RegHSGateDrive))
	assert.False(t, flags.All())
}

func TestSnapshot(t *testing.T) {
	s, _ := start(t, simulator.New())
	waitEvent(t, s, EventControlPass)

	snap, err := s.Snapshot(context.Background(), "bench")
	require.NoError(t, err)
	assert.Equal(t, "bench", snap.Source)
	assert.Equal(t, "test", snap.Device)
	assert.True(t, snap.Confirmed)
}

func TestDoAfterStop(t *testing.T) {
	s, cancel := start(t, simulator.New())
	cancel()

	require.Eventually(t, func() bool {
		return s.Do(context.Background(), func(*drv8305.Driver) error { return nil }) == ErrStopped
	}, time.Second, time.Millisecond)
}

func TestWaitControlPassSkipsPassInProgress(t *testing.T) {
	sim := simulator.New()
	s, err := New(sim, []Option{WithTick(20 * time.Microsecond)}, drv8305.WithName("test"))
	require.NoError(t, err)

	// boot pass has written HS_GATE_DRIVE and waits before LS_GATE_DRIVE
	for i := 0; i < 10000; i++ {
		st := s.d.State()
		if st.Main == drv8305.MainControl && st.Register == drv8305.RegLSGateDrive {
			break
		}
		s.step()
	}
	require.Equal(t, drv8305.MainControl, s.d.State().Main)

	cfg := s.d.Configuration()
	require.NotEqual(t, drv8305.ISink1000mA, cfg.HSGateDrive.ISink)
	cfg.HSGateDrive.ISink = drv8305.ISink1000mA
	require.NoError(t, s.d.SetConfiguration(cfg))

	run(t, s)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	flags, err := s.WaitControlPass(ctx)
	require.NoError(t, err)
	assert.True(t, flags.All())
	assert.Equal(t, cfg.HSGateDrive.Encode(), sim.Register(drv8305.RegHSGateDrive))
}

type countingPin struct {
	*simulator.Device
	calls int
}

func (c *countingPin) FaultAsserted() (bool, error) {
	c.calls++
	return c.Device.FaultAsserted()
}

func TestFaultPinSampledAtInterval(t *testing.T) {
	hw := &countingPin{Device: simulator.New()}
	s, err := New(hw, []Option{WithTick(time.Millisecond), WithFaultPinInterval(50 * time.Millisecond)})
	require.NoError(t, err)

	for i := 0; i < 500; i++ {
		s.step()
	}
	assert.Equal(t, 10, hw.calls)
}

// noPin hides the simulator's FaultAsserted.
type noPin struct {
	drv8305.Hardware
}

func TestFaultPinSamplingStopsWithoutPin(t *testing.T) {
	s, err := New(noPin{simulator.New()}, []Option{WithTick(time.Millisecond), WithFaultPinInterval(time.Millisecond)})
	require.NoError(t, err)

	s.step()
	assert.True(t, s.noFaultPin)
}

func TestDroppedEvents(t *testing.T) {
	s, err := New(simulator.New(), nil)
	require.NoError(t, err)

	for i := 0; i < cap(s.events)+5; i++ {
		s.emit(Event{Kind: EventError, Text: "x"})
	}
	assert.Equal(t, uint64(5), s.Dropped())
}
