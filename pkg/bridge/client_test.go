// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package bridge

import (
	"context"
	"io"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/gatewatch/pkg/drv8305"
	"github.com/Thermoquad/gatewatch/pkg/simulator"
)

// pipeClient connects a client to a server over an in-memory pipe.
func pipeClient(t *testing.T, srv *Server, opts ...ClientOption) *Client {
	t.Helper()
	host, dev := net.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	go srv.Serve(ctx, dev)

	c := NewClient(host, opts...)
	t.Cleanup(func() {
		c.Close()
		cancel()
	})
	return c
}

func TestClient_TransferThroughServer(t *testing.T) {
	sim := simulator.New()
	c := pipeClient(t, NewServer(sim))

	require.NoError(t, c.Wake())
	raw, err := c.Transfer(drv8305.PackWrite(drv8305.RegVDSSense, 0xC8))
	require.NoError(t, err)
	resp := drv8305.DecodeResponse(raw)
	assert.Equal(t, drv8305.RegVDSSense, resp.Address)
	assert.Equal(t, uint16(0xC8), resp.Data)
	assert.Equal(t, uint16(0xC8), sim.Register(drv8305.RegVDSSense))
}

func TestClient_Pins(t *testing.T) {
	sim := simulator.New()
	c := pipeClient(t, NewServer(sim))

	require.NoError(t, c.Enable())
	require.NoError(t, c.Wake())
	snap := sim.Snapshot()
	assert.True(t, snap.Enabled)
	assert.True(t, snap.Awake)

	require.NoError(t, c.Disable())
	require.NoError(t, c.Sleep())
	snap = sim.Snapshot()
	assert.False(t, snap.Enabled)
	assert.False(t, snap.Awake)
}

func TestClient_FaultPin(t *testing.T) {
	sim := simulator.New()
	c := pipeClient(t, NewServer(sim))

	asserted, err := c.FaultAsserted()
	require.NoError(t, err)
	assert.False(t, asserted)

	require.NoError(t, sim.InjectFault(drv8305.RegICFaults, drv8305.ICOTSD))
	asserted, err = c.FaultAsserted()
	require.NoError(t, err)
	assert.True(t, asserted)
}

type noPinHardware struct{ drv8305.Hardware }

func TestClient_RemoteErrors(t *testing.T) {
	sim := simulator.New()
	c := pipeClient(t, NewServer(noPinHardware{sim}))

	_, err := c.FaultAsserted()
	var re *RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, ErrCodeNoFaultPin, re.Code)

	sim.FailTransfers(1)
	_, err = c.Transfer(drv8305.PackRead(drv8305.RegWarning))
	require.ErrorAs(t, err, &re)
	assert.Equal(t, ErrCodeTransport, re.Code)
	assert.Contains(t, re.Message, "injected")
}

func TestClient_UnknownChannel(t *testing.T) {
	c := pipeClient(t, NewServer(simulator.New()), WithChannel(4))
	_, err := c.Transfer(0)
	var re *RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, ErrCodeNoChannel, re.Code)
}

func TestClient_Ping(t *testing.T) {
	c := pipeClient(t, NewServer(simulator.New(), simulator.New()))
	_, channels, err := c.Ping()
	require.NoError(t, err)
	assert.Equal(t, 2, channels)
}

func TestClient_SecondChannel(t *testing.T) {
	a, b := simulator.New(), simulator.New()
	c := pipeClient(t, NewServer(a, b), WithChannel(1))
	require.NoError(t, c.Wake())
	assert.False(t, a.Snapshot().Awake)
	assert.True(t, b.Snapshot().Awake)
}

func TestClient_OnChannelSharesLink(t *testing.T) {
	a, b := simulator.New(), simulator.New()
	c := pipeClient(t, NewServer(a, b))
	other := c.OnChannel(1)

	require.NoError(t, other.Wake())
	require.NoError(t, c.Enable())
	assert.True(t, b.Snapshot().Awake)
	assert.False(t, b.Snapshot().Enabled)
	assert.True(t, a.Snapshot().Enabled)
	assert.False(t, a.Snapshot().Awake)

	raw, err := other.Transfer(drv8305.PackRead(drv8305.RegGateDrive))
	require.NoError(t, err)
	assert.Equal(t, drv8305.RegGateDrive, drv8305.DecodeResponse(raw).Address)
}

func TestClient_Timeout(t *testing.T) {
	host, dev := net.Pipe()
	go io.Copy(io.Discard, dev)
	c := NewClient(host, WithTimeout(20*time.Millisecond))
	defer c.Close()

	_, err := c.Transfer(0x8800)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestClient_LinkClosed(t *testing.T) {
	host, dev := net.Pipe()
	c := NewClient(host)
	dev.Close()

	_, err := c.Transfer(0x8800)
	assert.Error(t, err)

	require.NoError(t, c.Close())
	_, err = c.Transfer(0x8800)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestDriver_OverBridge(t *testing.T) {
	sim := simulator.New()
	c := pipeClient(t, NewServer(sim))

	d, err := drv8305.New(c)
	require.NoError(t, err)
	for i := 0; i < 2000 && d.Stats().ControlPasses == 0; i++ {
		_ = d.Poll()
		d.Tick()
	}
	assert.True(t, d.IsConfigurationConfirmed())
	assert.Zero(t, d.Stats().TransportErrors)
}

func TestWebSocket_EndToEnd(t *testing.T) {
	sim := simulator.New()
	ts := httptest.NewServer(Handler(NewServer(sim), "admin", "secret"))
	defer ts.Close()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := DialWebSocket(ctx, wsURL, "admin", "wrong", false)
	require.Error(t, err)

	link, err := DialWebSocket(ctx, wsURL, "admin", "secret", false)
	require.NoError(t, err)
	c := NewClient(link, WithTimeout(2*time.Second))
	defer c.Close()

	require.NoError(t, c.Wake())
	raw, err := c.Transfer(drv8305.PackRead(drv8305.RegHSGateDrive))
	require.NoError(t, err)
	assert.Equal(t, uint16(0x344), drv8305.UnpackResponse(raw))
}

func TestDialWebSocket_BadScheme(t *testing.T) {
	_, err := DialWebSocket(context.Background(), "http://localhost", "", "", false)
	assert.Error(t, err)
}
