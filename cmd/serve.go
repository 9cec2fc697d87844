// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/gatewatch/pkg/bridge"
	"github.com/Thermoquad/gatewatch/pkg/drv8305"
	"github.com/Thermoquad/gatewatch/pkg/hwio"
	"github.com/Thermoquad/gatewatch/pkg/simulator"
)

var (
	serveListen   string
	servePath     string
	serveSerial   string
	serveChannels int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose DRV8305 devices as a bridge",
	Long: `Serve the bridge protocol so other gatewatch instances can reach a DRV8305
remotely.

The served device is direct hardware when --spi/--en-gate/--wake are given,
otherwise --channels simulated devices (useful for testing clients).

Links:
  WebSocket: --listen :8080 [--path /bridge] [--username user]
  Serial:    --serve-serial /dev/ttyGS0 [--baud 115200]

With --username, clients must authenticate with HTTP Basic auth; the password
is read from GATEWATCH_PASSWORD or prompted.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveListen, "listen", ":8080", "HTTP listen address")
	serveCmd.Flags().StringVar(&servePath, "path", "/bridge", "WebSocket endpoint path")
	serveCmd.Flags().StringVar(&serveSerial, "serve-serial", "", "Serve on a serial port instead of WebSocket")
	serveCmd.Flags().IntVar(&serveChannels, "channels", 1, "Number of simulated devices")
}

func serveDevices() ([]drv8305.Hardware, func(), error) {
	if hwConfig.ENGate != "" || hwConfig.SPIPort != "" {
		dev, err := hwio.Open(hwConfig)
		if err != nil {
			return nil, nil, err
		}
		return []drv8305.Hardware{dev}, func() { dev.Close() }, nil
	}
	if serveChannels < 1 || serveChannels > 16 {
		return nil, nil, fmt.Errorf("--channels must be 1..16")
	}
	devices := make([]drv8305.Hardware, serveChannels)
	for i := range devices {
		devices[i] = simulator.New()
	}
	return devices, func() {}, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	devices, closeDevices, err := serveDevices()
	if err != nil {
		return err
	}
	defer closeDevices()
	server := bridge.NewServer(devices...)

	fmt.Printf("Gatewatch - Bridge Server\n")
	fmt.Printf("Devices: %d\n", len(devices))

	if serveSerial != "" {
		conn, err := OpenSerialConnection(serveSerial, baudRate)
		if err != nil {
			return err
		}
		fmt.Printf("Serial: %s @ %d baud\n", serveSerial, baudRate)
		fmt.Printf("Press Ctrl+C to exit\n\n")
		err = server.Serve(ctx, conn)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	password := ""
	if wsUsername != "" {
		password, err = GetPassword()
		if err != nil {
			return err
		}
	}

	mux := http.NewServeMux()
	mux.Handle(servePath, bridge.Handler(server, wsUsername, password))
	srv := &http.Server{
		Addr:              serveListen,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	fmt.Printf("WebSocket: ws://%s%s\n", serveListen, servePath)
	fmt.Printf("Press Ctrl+C to exit\n\n")
	glog.Infof("serve: listening on %s", serveListen)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
