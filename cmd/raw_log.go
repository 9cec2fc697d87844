// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/gatewatch/pkg/bridge"
)

var rawLogValidate bool

var rawLogCmd = &cobra.Command{
	Use:   "raw_log",
	Short: "Display bridge frames in human-readable format",
	Long: `Continuously decode and display bridge protocol frames as they arrive.

Attach to a tap of the bridge link (for example the TX line of its UART) to
watch SPI transfers and pin commands, with each SPI word decoded against the
DRV8305 register map. Nothing is sent on the link.

Use --validate to also report frames with missing or out-of-range fields.`,
	RunE: runRawLog,
}

func init() {
	rootCmd.AddCommand(rawLogCmd)
	rawLogCmd.Flags().BoolVar(&rawLogValidate, "validate", false, "Report field validation errors")
}

func runRawLog(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("Gatewatch - Raw Frame Log\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	decoder := bridge.NewDecoder()
	buf := make([]byte, 128)

	for {
		n, err := conn.Read(buf)
		for i := 0; i < n; i++ {
			packet, err := decoder.DecodeByte(buf[i])
			if err != nil {
				fmt.Printf("[ERROR] %v\n", err)
				continue
			}
			if packet == nil {
				continue
			}
			fmt.Print(bridge.FormatPacket(packet))
			if rawLogValidate {
				for _, verr := range bridge.ValidatePacket(packet) {
					fmt.Printf("  \033[1;33mINVALID:\033[0m %s\n", verr.Message)
				}
			}
		}
		if err != nil {
			if errors.Is(err, bridge.ErrConnectionClosed) || errors.Is(err, io.EOF) {
				log.Printf("Connection closed")
				return nil
			}
			log.Printf("Read error: %v", err)
		}
	}
}
