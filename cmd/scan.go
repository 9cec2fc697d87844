// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/gatewatch/pkg/bridge"
	"github.com/Thermoquad/gatewatch/pkg/drv8305"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Read every register of every device on a bridge",
	Long: `Ask the bridge how many devices it serves, then wake each one in turn
and read all eleven registers. EN_GATE is left untouched; each device is put
back to sleep afterwards.

A channel whose reads all come back as zero is reported as not responding:
an asleep or absent DRV8305 does not drive SDO.

Exit codes:
  0 - At least one device responded
  1 - No device responded
  2 - Connection error`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}

	probe := bridge.NewClient(conn, bridge.WithTimeout(bridgeTimeout))
	defer probe.Close()

	fmt.Printf("Gatewatch - Bridge Scan\n")
	fmt.Printf("Connection: %s\n", connInfo)

	uptime, channels, err := probe.Ping()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Bridge did not answer: %v\n", err)
		os.Exit(2)
	}
	fmt.Printf("Bridge uptime %s, %d channel(s)\n\n", formatUptime(uint64(uptime.Milliseconds())), channels)

	found := 0
	for ch := 0; ch < channels; ch++ {
		fmt.Printf("Channel %d:\n", ch)
		ok, err := scanChannel(probe, uint8(ch))
		if err != nil {
			fmt.Printf("  error: %v\n\n", err)
			continue
		}
		if !ok {
			fmt.Printf("  not responding\n\n")
			continue
		}
		found++
		fmt.Println()
	}

	fmt.Printf("%d of %d channel(s) responded\n", found, channels)
	if found == 0 {
		os.Exit(1)
	}
	return nil
}

// scanChannel reads every register through the probe's link on one channel.
// It reports whether any read returned a non-zero frame.
func scanChannel(probe *bridge.Client, ch uint8) (bool, error) {
	c := probe.OnChannel(ch)
	if err := c.Wake(); err != nil {
		return false, err
	}
	defer c.Sleep()
	// t_WAKE
	time.Sleep(time.Millisecond)

	responding := false
	var lines []string
	for _, r := range drv8305.Registers {
		raw, err := c.Transfer(drv8305.PackRead(r))
		if err != nil {
			return false, fmt.Errorf("%s: %w", r, err)
		}
		if raw != 0 {
			responding = true
		}
		resp := drv8305.DecodeResponse(raw)
		lines = append(lines, drv8305.FormatRegister(drv8305.RegisterSlot{
			Address: r,
			Data:    resp.Data,
			Raw:     raw,
			Valid:   true,
		}))
	}
	if responding {
		for _, l := range lines {
			fmt.Print("  " + l)
		}
	}
	return responding, nil
}
