// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package hwio

import (
	"fmt"
	"strconv"
	"strings"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/host/v3/sysfs"
)

// parseGPIONumber accepts a kernel GPIO number such as "60" or "gpio60",
// the form BeagleBone pinout tables use.
func parseGPIONumber(name string) (int, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(name, "gpio"))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("hwio: bad kernel GPIO number %q", name)
	}
	return n, nil
}

// sysfsPin looks a line up by kernel number in /sys/class/gpio. The table is
// filled by host.Init.
func sysfsPin(name string) (gpio.PinIO, error) {
	n, err := parseGPIONumber(name)
	if err != nil {
		return nil, err
	}
	pin, ok := sysfs.Pins[n]
	if !ok {
		return nil, fmt.Errorf("hwio: GPIO %d not exported by the kernel", n)
	}
	return pin, nil
}
