// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	pingCount    int
	pingInterval time.Duration
)

var bridgeTestCmd = &cobra.Command{
	Use:   "bridge_test",
	Short: "Test the bridge link by sending PING requests",
	Long: `Send PING requests to the bridge and wait for PONG replies.

This verifies that the serial port or WebSocket link is up, that HTTP Basic
authentication works, and that the bridge is decoding frames. The reply
carries the bridge uptime and the number of devices it serves.

Exit codes:
  0 - All pings successful
  1 - One or more pings failed/timed out
  2 - Connection error`,
	RunE: runBridgeTest,
}

func init() {
	rootCmd.AddCommand(bridgeTestCmd)
	bridgeTestCmd.Flags().IntVar(&pingCount, "count", 3, "Number of pings to send")
	bridgeTestCmd.Flags().DurationVar(&pingInterval, "interval", 100*time.Millisecond, "Delay between pings")
}

func runBridgeTest(cmd *cobra.Command, args []string) error {
	client, connInfo, err := OpenBridgeClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer client.Close()

	fmt.Printf("Gatewatch - Bridge Ping Test\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %v per ping\n", bridgeTimeout)
	fmt.Printf("Count: %d pings\n\n", pingCount)

	successCount := 0
	var totalRTT time.Duration
	for i := 1; i <= pingCount; i++ {
		fmt.Printf("Ping %d/%d: ", i, pingCount)

		start := time.Now()
		uptime, channels, err := client.Ping()
		if err != nil {
			fmt.Printf("FAILED: %v\n", err)
		} else {
			rtt := time.Since(start)
			totalRTT += rtt
			successCount++
			fmt.Printf("PONG, uptime=%s, devices=%d, rtt=%v\n",
				formatUptime(uint64(uptime.Milliseconds())), channels, rtt.Round(time.Microsecond))
		}

		if i < pingCount {
			time.Sleep(pingInterval)
		}
	}

	fmt.Printf("\n--- Ping statistics ---\n")
	loss := float64(pingCount-successCount) * 100 / float64(pingCount)
	fmt.Printf("%d pings sent, %d replies received, %.0f%% loss\n", pingCount, successCount, loss)
	if successCount > 0 {
		fmt.Printf("average rtt %v\n", (totalRTT / time.Duration(successCount)).Round(time.Microsecond))
	}

	if successCount != pingCount {
		os.Exit(1)
	}
	return nil
}
