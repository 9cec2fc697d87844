// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/gatewatch/pkg/drv8305"
)

var defaultsJSON bool

var defaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Print the register configuration and its SPI frames",
	Long: `Print the configuration that would be written: the defaults, or the file
given with --config. Each control register is shown with its packed payload,
its field values and the write and read frames the driver sends.

With --json the configuration is printed as a JSON document suitable as a
starting point for --config.`,
	RunE: runDefaults,
}

func init() {
	rootCmd.AddCommand(defaultsCmd)
	defaultsCmd.Flags().BoolVar(&defaultsJSON, "json", false, "Print as JSON")
}

func runDefaults(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfiguration(configFile)
	if err != nil {
		return err
	}

	if defaultsJSON {
		out, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	fmt.Print(drv8305.FormatConfiguration(cfg))
	fmt.Printf("\nFrames:\n")
	for _, r := range drv8305.ControlRegisters {
		word, _ := cfg.Encode(r)
		fmt.Printf("  %-17s write 0x%04X  read 0x%04X\n", r, drv8305.PackWrite(r, word), drv8305.PackRead(r))
	}
	for _, r := range drv8305.StatusRegisters {
		fmt.Printf("  %-17s             read 0x%04X\n", r, drv8305.PackRead(r))
	}
	return nil
}
