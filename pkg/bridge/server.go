// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package bridge

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/Thermoquad/gatewatch/pkg/drv8305"
)

// Server answers bridge requests with local hardware, one device per channel.
// A single Server may serve several links at once.
type Server struct {
	mu      sync.Mutex
	devices []drv8305.Hardware
	start   time.Time
}

// NewServer serves devices on channels 0, 1, ... in argument order.
func NewServer(devices ...drv8305.Hardware) *Server {
	return &Server{devices: devices, start: time.Now()}
}

// Serve answers requests read from rw until the link fails or ctx is done.
// When rw is an io.Closer it is closed on cancellation to unblock the read.
func (s *Server) Serve(ctx context.Context, rw io.ReadWriter) error {
	stop := make(chan struct{})
	defer close(stop)
	if closer, ok := rw.(io.Closer); ok {
		go func() {
			select {
			case <-ctx.Done():
				closer.Close()
			case <-stop:
			}
		}()
	}

	dec := NewDecoder()
	buf := make([]byte, 256)
	for {
		n, err := rw.Read(buf)
		for _, b := range buf[:n] {
			p, derr := dec.DecodeByte(b)
			if derr != nil {
				glog.V(1).Infof("bridge: dropped frame: %v", derr)
				continue
			}
			if p == nil {
				continue
			}
			reply := s.Handle(p)
			if reply == nil {
				continue
			}
			frame, eerr := Encode(reply)
			if eerr != nil {
				glog.Errorf("bridge: encode reply: %v", eerr)
				continue
			}
			if _, werr := rw.Write(frame); werr != nil {
				return werr
			}
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

// Handle answers one request. Replies and unknown messages yield nil.
func (s *Server) Handle(p *Packet) *Packet {
	if p.IsReply() {
		return nil
	}
	reply := s.handle(p)
	if reply != nil {
		reply.WithSequence(p.Sequence())
		glog.V(3).Infof("bridge: %s -> %s", FormatMessageType(p.Type()), FormatMessageType(reply.Type()))
	}
	return reply
}

func (s *Server) handle(p *Packet) *Packet {
	ch := p.Channel()
	if errs := ValidatePacket(p); len(errs) > 0 {
		return NewError(ch, ErrCodeInvalid, errs[0].Message)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if p.Type() == MsgPing {
		return NewPong(ch, uint64(time.Since(s.start).Milliseconds()), uint8(len(s.devices)))
	}
	if int(ch) >= len(s.devices) {
		return NewError(ch, ErrCodeNoChannel, "")
	}
	hw := s.devices[ch]

	m := p.PayloadMap()
	switch p.Type() {
	case MsgTransfer:
		frame, _ := GetMapUint(m, 0)
		resp, err := hw.Transfer(uint16(frame))
		if err != nil {
			return NewError(ch, ErrCodeTransport, err.Error())
		}
		return NewTransferReply(ch, resp)

	case MsgSetPin:
		pin, _ := GetMapUint(m, 0)
		level, _ := GetMapBool(m, 1)
		if err := setPin(hw, Pin(pin), level); err != nil {
			return NewError(ch, ErrCodePower, err.Error())
		}
		return NewPinAck(ch, Pin(pin), level)

	case MsgGetFaultPin:
		fp, ok := hw.(drv8305.FaultPin)
		if !ok {
			return NewError(ch, ErrCodeNoFaultPin, "")
		}
		asserted, err := fp.FaultAsserted()
		if err != nil {
			return NewError(ch, ErrCodeTransport, err.Error())
		}
		return NewFaultPinState(ch, asserted)
	}
	return nil
}

func setPin(hw drv8305.PowerControl, pin Pin, level bool) error {
	switch {
	case pin == PinENGate && level:
		return hw.Enable()
	case pin == PinENGate:
		return hw.Disable()
	case level:
		return hw.Wake()
	default:
		return hw.Sleep()
	}
}
