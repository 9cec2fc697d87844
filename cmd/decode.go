// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/gatewatch/pkg/drv8305"
)

var decodeCommand bool

var decodeCmd = &cobra.Command{
	Use:   "decode <word>...",
	Short: "Decode raw 16-bit SPI words",
	Long: `Decode DRV8305 SPI words given in hex (0x2B44) or decimal.

By default each word is treated as a response from SDO: the fault flag,
the echoed address and the 11-bit data are shown along with the named bits
or fields of the register. With --command the words are decoded as frames
sent on SDI.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDecode,
}

func init() {
	rootCmd.AddCommand(decodeCmd)
	decodeCmd.Flags().BoolVar(&decodeCommand, "command", false, "Decode as command frames instead of responses")
}

func runDecode(cmd *cobra.Command, args []string) error {
	for _, arg := range args {
		v, err := strconv.ParseUint(arg, 0, 16)
		if err != nil {
			return fmt.Errorf("invalid word %q: %w", arg, err)
		}
		fmt.Print(decodeWord(uint16(v), decodeCommand))
	}
	return nil
}

func decodeWord(word uint16, command bool) string {
	if command {
		addr := drv8305.CommandAddress(word)
		data := drv8305.UnpackResponse(word)
		if drv8305.IsRead(word) {
			return fmt.Sprintf("0x%04X: READ %s (0x%02X)\n", word, addr, uint8(addr))
		}
		out := fmt.Sprintf("0x%04X: WRITE %s (0x%02X) data=0x%03X\n", word, addr, uint8(addr), data)
		if addr.IsControl() {
			out += drv8305.FormatFields(addr, data)
		}
		return out
	}

	resp := drv8305.DecodeResponse(word)
	out := fmt.Sprintf("0x%04X: ", word)
	if resp.Address.Index() < 0 {
		return out + fmt.Sprintf("address 0x%X is not a DRV8305 register, data=0x%03X\n", uint8(resp.Address), resp.Data)
	}
	return out + drv8305.FormatRegister(drv8305.RegisterSlot{
		Address: resp.Address,
		Data:    resp.Data,
		Raw:     word,
		Valid:   true,
	})
}
