// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package telemetry

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// Publisher delivers snapshots somewhere.
type Publisher interface {
	Publish(ctx context.Context, s Snapshot) error
	Close() error
}

// Multi publishes to every publisher in turn.
type Multi []Publisher

// Publish implements Publisher. A failing publisher does not stop the others.
func (m Multi) Publish(ctx context.Context, s Snapshot) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close implements Publisher.
func (m Multi) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Run publishes take() every interval until ctx is done. Publish failures are
// logged and do not stop the loop.
func Run(ctx context.Context, p Publisher, interval time.Duration, take func() Snapshot) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			s := take()
			if err := p.Publish(ctx, s); err != nil {
				glog.Warningf("telemetry: publish %s: %v", s.Device, err)
			}
		}
	}
}

const appID = "gatewatch"

// SourceID identifies this host in published snapshots. It is derived from
// the machine id without exposing it, and falls back to the hostname.
func SourceID() string {
	id, err := machineid.ProtectedID(appID)
	if err == nil && len(id) >= 12 {
		return id[:12]
	}
	glog.V(1).Infof("telemetry: machine id unavailable: %v", err)
	if h, err := os.Hostname(); err == nil && h != "" {
		return h
	}
	return "unknown"
}
