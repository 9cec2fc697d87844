// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/gatewatch/pkg/drv8305"
)

var (
	applyTimeout time.Duration
	applyKeep    bool
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Write a register configuration and confirm it",
	Long: `Write the configuration given with --config (or the defaults) to the
DRV8305, read every control register back and report which ones match.

The gate driver is disabled on exit unless --keep is given.

Exit codes:
  0 - All seven control registers confirmed
  1 - One or more registers did not read back as written
  2 - Connection or configuration error`,
	RunE: runApply,
}

func init() {
	rootCmd.AddCommand(applyCmd)
	applyCmd.Flags().DurationVar(&applyTimeout, "timeout", 10*time.Second, "Time allowed for the control pass")
	applyCmd.Flags().BoolVar(&applyKeep, "keep", false, "Leave the gate driver enabled on exit")
}

func runApply(cmd *cobra.Command, args []string) error {
	rd, err := startDriver(drv8305.Handlers{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	rd.keepEnabled = applyKeep

	fmt.Printf("Gatewatch - Apply Configuration\n")
	fmt.Printf("Connection: %s\n\n", rd.connInfo)

	ctx, cancel := context.WithTimeout(context.Background(), applyTimeout)
	defer cancel()
	flags, err := rd.sess.WaitControlPass(ctx)
	if err != nil {
		rd.stop()
		fmt.Fprintf(os.Stderr, "Control pass did not complete: %v\n", err)
		os.Exit(2)
	}

	var stats drv8305.Stats
	var slots [drv8305.NumRegisters]drv8305.RegisterSlot
	_ = rd.sess.Do(ctx, func(d *drv8305.Driver) error {
		stats, slots = d.Stats(), d.Registers()
		return nil
	})
	rd.stop()

	for _, r := range drv8305.ControlRegisters {
		mark := "\033[1;32mOK\033[0m"
		if !flags.Get(r) {
			mark = "\033[1;31mMISMATCH\033[0m"
		}
		slot := slots[r.Index()]
		fmt.Printf("  %-17s %s", r, mark)
		if slot.Valid {
			fmt.Printf("  read 0x%03X", slot.Data)
		}
		fmt.Printf("\n")
	}
	fmt.Printf("\nTransfers: %d, transport errors: %d\n", stats.Transfers, stats.TransportErrors)

	if !flags.All() {
		fmt.Printf("Result: FAILED (configuration not confirmed)\n")
		os.Exit(1)
	}
	fmt.Printf("Result: PASSED\n")
	return nil
}
