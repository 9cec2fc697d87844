// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// Gatewatch - DRV8305 gate driver configuration and monitoring tool
//
// Drives a DRV8305 over local SPI, a serial or WebSocket bridge, or a
// built-in simulator, keeping its configuration confirmed and its fault
// status visible.

package main

import (
	"fmt"
	"os"

	"github.com/Thermoquad/gatewatch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
