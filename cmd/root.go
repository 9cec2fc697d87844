// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"flag"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/gatewatch/pkg/bridge"
	"github.com/Thermoquad/gatewatch/pkg/hwio"
	"github.com/Thermoquad/gatewatch/pkg/session"
)

var (
	// Serial bridge flags
	portName string
	baudRate int

	// WebSocket bridge flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Bridge channel (chip select) and request timeout
	bridgeChannel uint8
	bridgeTimeout time.Duration

	// Direct hardware flags
	hwConfig hwio.Config

	// Simulated device
	useSim bool

	// Driver flags
	configFile string
	tickPeriod time.Duration
	faultPoll  time.Duration
	deviceName string
)

var rootCmd = &cobra.Command{
	Use:   "gatewatch",
	Short: "DRV8305 gate driver supervisor",
	Long: `Gatewatch - configure and monitor a TI DRV8305 three-phase gate driver.

Gatewatch runs the register scheduler for one DRV8305: it writes the register
configuration, reads every control register back to confirm it, and polls the
four status registers for faults.

Connection modes:
  Serial bridge:    --port /dev/ttyACM0 [--baud 115200] [--channel 0]
  WebSocket bridge: --url ws://host/path [--username user]
  Direct SPI/GPIO:  --spi /dev/spidev0.0 --en-gate GPIO17 --wake GPIO27 [--nfault GPIO22]
  Simulator:        --sim

For WebSocket authentication, the password is read from the GATEWATCH_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.

Logging uses glog; pass -v=2 --logtostderr to trace scheduler transitions.`,
	Version: "1.0.0",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// glog reads its flags from flag.CommandLine; cobra has already set them
		return flag.CommandLine.Parse(nil)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()

	pf.StringVarP(&portName, "port", "p", "", "Serial port of the bridge")
	pf.IntVarP(&baudRate, "baud", "b", 115200, "Baud rate (serial only)")

	pf.StringVarP(&wsURL, "url", "u", "", "WebSocket bridge URL (ws:// or wss://)")
	pf.StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	pf.BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	pf.Uint8Var(&bridgeChannel, "channel", 0, "Bridge channel (chip select) of the device")
	pf.DurationVar(&bridgeTimeout, "bridge-timeout", bridge.DefaultTimeout, "Bridge request timeout")

	pf.StringVar(&hwConfig.SPIPort, "spi", "", "SPI port for direct access (e.g. /dev/spidev0.0)")
	pf.Int64Var(&hwConfig.SPIHz, "spi-hz", hwio.DefaultSPIHz, "SPI clock in Hz")
	pf.StringVar(&hwConfig.ENGate, "en-gate", "", "EN_GATE output line")
	pf.StringVar(&hwConfig.Wake, "wake", "", "WAKE output line")
	pf.StringVar(&hwConfig.NFault, "nfault", "", "nFAULT input line (optional)")
	pf.StringVar(&hwConfig.Backend, "gpio", hwio.BackendPeriph, "GPIO backend: periph (line names) or sysfs (kernel GPIO numbers)")

	pf.BoolVar(&useSim, "sim", false, "Use a simulated DRV8305")

	pf.StringVarP(&configFile, "config", "c", "", "JSON register configuration file")
	pf.DurationVar(&tickPeriod, "tick", session.DefaultTick, "Wall-clock period of one scheduler tick")
	pf.DurationVar(&faultPoll, "fault-interval", session.DefaultFaultPinInterval, "How often the nFAULT line is sampled")
	pf.StringVar(&deviceName, "name", "drv8305", "Device name used in logs and telemetry")

	pf.AddGoFlagSet(flag.CommandLine)
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
