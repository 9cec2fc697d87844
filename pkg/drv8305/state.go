// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package drv8305

import "fmt"

// MainState is the state of the master scheduler.
type MainState uint8

const (
	MainInit MainState = iota
	MainIdle
	MainWake
	MainSleep
	MainStatus
	MainControl
	MainDelay
)

func (s MainState) String() string {
	switch s {
	case MainInit:
		return "INIT"
	case MainIdle:
		return "IDLE"
	case MainWake:
		return "WAKE"
	case MainSleep:
		return "SLEEP"
	case MainStatus:
		return "STATUS"
	case MainControl:
		return "CONTROL"
	case MainDelay:
		return "DELAY"
	default:
		return fmt.Sprintf("MainState(%d)", uint8(s))
	}
}

// State is a snapshot of the three scheduler levels.
type State struct {
	Main MainState
	// Next is the state a main-level DELAY releases into.
	Next MainState
	// Register is the register the running sequencer is at, or will move
	// to once StepDelay releases. Zero outside STATUS and CONTROL.
	Register  Register
	StepDelay bool
	// Queued counts requests waiting for the scheduler to reach IDLE.
	Queued int
}

func (s State) String() string {
	switch {
	case s.Main == MainDelay:
		return fmt.Sprintf("DELAY->%s", s.Next)
	case s.Register == 0:
		return s.Main.String()
	case s.StepDelay:
		return fmt.Sprintf("%s:DELAY->%s", s.Main, s.Register)
	default:
		return fmt.Sprintf("%s:%s", s.Main, s.Register)
	}
}

type activityKind uint8

const (
	actInit activityKind = iota
	actIdle
	actWake
	actSleep
	actStatus
	actControl
)

func (k activityKind) main() MainState {
	switch k {
	case actInit:
		return MainInit
	case actIdle:
		return MainIdle
	case actWake:
		return MainWake
	case actSleep:
		return MainSleep
	case actStatus:
		return MainStatus
	default:
		return MainControl
	}
}

// activity is what the next Poll executes. step indexes StatusRegisters or
// ControlRegisters for the two sequencers.
type activity struct {
	kind activityKind
	step int
}

func (a activity) register() Register {
	switch a.kind {
	case actStatus:
		return StatusRegisters[a.step]
	case actControl:
		return ControlRegisters[a.step]
	}
	return 0
}

func (a activity) String() string {
	if r := a.register(); r != 0 {
		return fmt.Sprintf("%s:%s", a.kind.main(), r)
	}
	return a.kind.main().String()
}

type level uint8

const (
	levelMain level = iota
	levelStatus
	levelControl
)

func (l level) String() string {
	switch l {
	case levelStatus:
		return "status"
	case levelControl:
		return "control"
	default:
		return "main"
	}
}

// wait is a pending DELAY: it releases into to once the cycle timer reaches target.
type wait struct {
	to     activity
	level  level
	target uint32
}

type request uint8

const (
	requestConfirm request = iota
	requestSleep
	requestWake
)

func (r request) String() string {
	switch r {
	case requestConfirm:
		return "confirm"
	case requestSleep:
		return "sleep"
	default:
		return "wake"
	}
}
