// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package bridge

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"
)

var (
	// ErrTimeout is returned when the bridge does not answer in time.
	ErrTimeout = errors.New("bridge: request timed out")
	// ErrClosed is returned by requests on a closed client.
	ErrClosed = errors.New("bridge: client closed")
	// ErrUnexpectedReply is returned when the reply type does not match the request.
	ErrUnexpectedReply = errors.New("bridge: unexpected reply")
)

// DefaultTimeout bounds every request.
const DefaultTimeout = 500 * time.Millisecond

// RemoteError is an ERROR reply sent by the bridge.
type RemoteError struct {
	Code    ErrorCode
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("bridge error %s", e.Code)
	}
	return fmt.Sprintf("bridge error %s: %s", e.Code, e.Message)
}

// Client talks to a bridge over a byte link. It implements drv8305.Hardware
// and drv8305.FaultPin for one chip select.
type Client struct {
	*link
	channel uint8
}

// link is the byte stream shared by the clients of every channel.
type link struct {
	rw      io.ReadWriter
	timeout time.Duration

	mu  sync.Mutex // one request in flight
	seq uint8

	replies   chan *Packet
	done      chan struct{}
	readDone  chan struct{}
	readErr   error
	closeOnce sync.Once
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithChannel selects the chip select on the bridge.
func WithChannel(ch uint8) ClientOption {
	return func(c *Client) {
		c.channel = ch
	}
}

// WithTimeout replaces DefaultTimeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// NewClient starts reading replies from rw.
func NewClient(rw io.ReadWriter, opts ...ClientOption) *Client {
	c := &Client{link: &link{
		rw:       rw,
		timeout:  DefaultTimeout,
		replies:  make(chan *Packet, 8),
		done:     make(chan struct{}),
		readDone: make(chan struct{}),
	}}
	for _, opt := range opts {
		opt(c)
	}
	go c.readLoop()
	return c
}

// OnChannel returns a client for another chip select on the same link.
// Closing any of them closes the link.
func (c *Client) OnChannel(ch uint8) *Client {
	return &Client{link: c.link, channel: ch}
}

func (c *link) readLoop() {
	defer close(c.readDone)

	dec := NewDecoder()
	buf := make([]byte, 256)
	for {
		n, err := c.rw.Read(buf)
		for _, b := range buf[:n] {
			p, derr := dec.DecodeByte(b)
			if derr != nil {
				glog.V(1).Infof("bridge: dropped frame: %v", derr)
				continue
			}
			if p == nil || !p.IsReply() {
				continue
			}
			select {
			case c.replies <- p:
			case <-c.done:
				return
			}
		}
		if err != nil {
			c.readErr = err
			return
		}
	}
}

// request sends p and waits for the reply carrying its sequence number.
func (c *link) request(p *Packet, want uint8) (*Packet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.done:
		return nil, ErrClosed
	default:
	}

	c.seq++
	frame, err := Encode(p.WithSequence(c.seq))
	if err != nil {
		return nil, err
	}
	glog.V(3).Infof("bridge: -> %s seq=%d", FormatMessageType(p.Type()), c.seq)
	if _, err := c.rw.Write(frame); err != nil {
		return nil, fmt.Errorf("bridge: write: %w", err)
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()
	for {
		select {
		case r := <-c.replies:
			if r.Sequence() != c.seq || r.Channel() != p.Channel() {
				glog.V(1).Infof("bridge: stale %s seq=%d", FormatMessageType(r.Type()), r.Sequence())
				continue
			}
			if errs := ValidatePacket(r); len(errs) > 0 {
				return nil, &errs[0]
			}
			if r.Type() == MsgError {
				code, _ := GetMapInt(r.PayloadMap(), 0)
				msg, _ := GetMapString(r.PayloadMap(), 1)
				return nil, &RemoteError{Code: ErrorCode(code), Message: msg}
			}
			if r.Type() != want {
				return nil, fmt.Errorf("%w: %s", ErrUnexpectedReply, FormatMessageType(r.Type()))
			}
			return r, nil
		case <-c.readDone:
			return nil, fmt.Errorf("bridge: link closed: %w", c.readErr)
		case <-c.done:
			return nil, ErrClosed
		case <-timer.C:
			return nil, ErrTimeout
		}
	}
}

// Transfer sends one SPI frame and returns the response frame.
func (c *Client) Transfer(frame uint16) (uint16, error) {
	r, err := c.request(NewTransfer(c.channel, frame), MsgTransferReply)
	if err != nil {
		return 0, err
	}
	v, _ := GetMapUint(r.PayloadMap(), 0)
	return uint16(v), nil
}

func (c *Client) setPin(pin Pin, level bool) error {
	_, err := c.request(NewSetPin(c.channel, pin, level), MsgPinAck)
	return err
}

// Enable drives EN_GATE high.
func (c *Client) Enable() error { return c.setPin(PinENGate, true) }

// Disable drives EN_GATE low.
func (c *Client) Disable() error { return c.setPin(PinENGate, false) }

// Wake drives WAKE high.
func (c *Client) Wake() error { return c.setPin(PinWake, true) }

// Sleep drives WAKE low.
func (c *Client) Sleep() error { return c.setPin(PinWake, false) }

// FaultAsserted reads nFAULT through the bridge.
func (c *Client) FaultAsserted() (bool, error) {
	r, err := c.request(NewGetFaultPin(c.channel), MsgFaultPinState)
	if err != nil {
		return false, err
	}
	asserted, _ := GetMapBool(r.PayloadMap(), 0)
	return asserted, nil
}

// Ping returns the bridge uptime and the number of chip selects it serves.
func (c *Client) Ping() (time.Duration, int, error) {
	r, err := c.request(NewPing(c.channel), MsgPong)
	if err != nil {
		return 0, 0, err
	}
	uptime, _ := GetMapUint(r.PayloadMap(), 0)
	channels, _ := GetMapUint(r.PayloadMap(), 1)
	return time.Duration(uptime) * time.Millisecond, int(channels), nil
}

// Close stops the client and closes the link when it is an io.Closer.
func (c *link) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		if closer, ok := c.rw.(io.Closer); ok {
			err = closer.Close()
		}
	})
	return err
}
