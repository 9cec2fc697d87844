// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/golang/glog"

	"github.com/Thermoquad/gatewatch/pkg/drv8305"
	"github.com/Thermoquad/gatewatch/pkg/session"
)

// loadConfiguration reads a JSON register configuration. Fields missing from
// the file keep their default values.
func loadConfiguration(path string) (drv8305.Configuration, error) {
	cfg := drv8305.DefaultConfiguration()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// runningDriver is an open device with its session goroutine started
type runningDriver struct {
	dev      Device
	connInfo string
	sess     *session.Session
	cancel   context.CancelFunc
	done     chan error

	keepEnabled bool
}

// startDriver opens the device from the connection flags and starts the
// scheduler on it. The scheduler runs until stop, so the gate driver can still
// be disabled after the command's context is cancelled.
func startDriver(handlers drv8305.Handlers) (*runningDriver, error) {
	cfg, err := loadConfiguration(configFile)
	if err != nil {
		return nil, err
	}
	dev, connInfo, err := OpenDevice()
	if err != nil {
		return nil, err
	}
	sess, err := session.New(dev,
		[]session.Option{session.WithTick(tickPeriod), session.WithFaultPinInterval(faultPoll)},
		drv8305.WithName(deviceName),
		drv8305.WithConfiguration(cfg),
		drv8305.WithHandlers(handlers),
	)
	if err != nil {
		dev.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	rd := &runningDriver{dev: dev, connInfo: connInfo, sess: sess, cancel: cancel, done: make(chan error, 1)}
	go func() {
		rd.done <- sess.Run(ctx)
	}()
	glog.Infof("%s: started on %s", deviceName, connInfo)
	return rd, nil
}

// stop halts the scheduler, disables the gate driver and closes the device
func (rd *runningDriver) stop() {
	if rd.keepEnabled {
		rd.cancel()
		<-rd.done
		rd.dev.Close()
		return
	}
	_ = rd.sess.Do(context.Background(), func(d *drv8305.Driver) error {
		if err := d.Disable(); err != nil {
			glog.Warningf("%s: disable on exit: %v", deviceName, err)
		}
		return nil
	})
	rd.cancel()
	<-rd.done
	if err := rd.dev.Close(); err != nil {
		glog.Warningf("%s: close: %v", deviceName, err)
	}
}
