// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package drv8305

import "sync/atomic"

// CycleTimer counts ticks since the last state transition.
// Tick may be called from a different goroutine than the one polling the driver.
type CycleTimer struct {
	elapsed atomic.Uint32
}

// Tick advances the counter by one.
func (t *CycleTimer) Tick() {
	t.elapsed.Add(1)
}

// Elapsed returns the ticks counted since the last Reset.
func (t *CycleTimer) Elapsed() uint32 {
	return t.elapsed.Load()
}

// Reset restarts the count from zero.
func (t *CycleTimer) Reset() {
	t.elapsed.Store(0)
}
