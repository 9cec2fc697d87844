// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"
	"time"

	"go.bug.st/serial"
	"golang.org/x/term"

	"github.com/Thermoquad/gatewatch/pkg/bridge"
	"github.com/Thermoquad/gatewatch/pkg/drv8305"
	"github.com/Thermoquad/gatewatch/pkg/hwio"
	"github.com/Thermoquad/gatewatch/pkg/simulator"
)

// Connection is a byte link to a bridge
type Connection interface {
	io.Reader
	io.Writer
	io.Closer
}

// Device is a DRV8305 the driver can run against
type Device interface {
	drv8305.Hardware
	io.Closer
}

// OpenSerialConnection opens a bridge on a serial port, 8N1
func OpenSerialConnection(name string, baud int) (Connection, error) {
	port, err := serial.Open(name, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", name, err)
	}
	// Bounded reads let the bridge client notice Close.
	if err := port.SetReadTimeout(100 * time.Millisecond); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to configure serial port %s: %w", name, err)
	}
	return port, nil
}

// GetPassword returns $GATEWATCH_PASSWORD, or asks for it on stderr
func GetPassword() (string, error) {
	if pw, ok := os.LookupEnv("GATEWATCH_PASSWORD"); ok && pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")
	defer fmt.Fprintln(os.Stderr)

	fd := int(syscall.Stdin)
	if term.IsTerminal(fd) {
		pw, err := term.ReadPassword(fd)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(pw), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// OpenConnection opens a serial or WebSocket link to a bridge based on flags
func OpenConnection() (Connection, string, error) {
	if wsURL != "" {
		password := ""
		if wsUsername != "" {
			var err error
			password, err = GetPassword()
			if err != nil {
				return nil, "", err
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		conn, err := bridge.DialWebSocket(ctx, wsURL, wsUsername, password, wsNoSSLVerify)
		if err != nil {
			return nil, "", err
		}

		return conn, fmt.Sprintf("WebSocket: %s", wsURL), nil
	}

	if portName != "" {
		conn, err := OpenSerialConnection(portName, baudRate)
		if err != nil {
			return nil, "", err
		}

		return conn, fmt.Sprintf("Serial: %s @ %d baud", portName, baudRate), nil
	}

	return nil, "", fmt.Errorf("either --port or --url must be specified")
}

// OpenBridgeClient opens a bridge link and returns a client for one channel
func OpenBridgeClient() (*bridge.Client, string, error) {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return nil, "", err
	}
	client := bridge.NewClient(conn, bridge.WithChannel(bridgeChannel), bridge.WithTimeout(bridgeTimeout))
	return client, fmt.Sprintf("%s, channel %d", connInfo, bridgeChannel), nil
}

// simDevice is the simulator behind --sim, for commands that inject faults
var simDevice *simulator.Device

type simCloser struct {
	*simulator.Device
}

func (simCloser) Close() error { return nil }

// OpenDevice opens the DRV8305 selected by the connection flags
func OpenDevice() (Device, string, error) {
	switch {
	case useSim:
		simDevice = simulator.New()
		return simCloser{simDevice}, "Simulator", nil

	case hwConfig.ENGate != "" || hwConfig.SPIPort != "":
		dev, err := hwio.Open(hwConfig)
		if err != nil {
			return nil, "", err
		}
		return dev, fmt.Sprintf("SPI: %s @ %d Hz", spiName(hwConfig.SPIPort), hwConfig.SPIHz), nil

	default:
		client, connInfo, err := OpenBridgeClient()
		if err != nil {
			return nil, "", err
		}
		return client, connInfo, nil
	}
}

func spiName(port string) string {
	if port == "" {
		return "(first port)"
	}
	return port
}
