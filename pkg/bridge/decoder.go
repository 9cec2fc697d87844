// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package bridge

import (
	"errors"
	"fmt"
	"time"
)

// ErrCRCMismatch is returned by the decoder when a frame fails its checksum.
var ErrCRCMismatch = errors.New("bridge: CRC mismatch")

// Decoder reassembles frames from a byte stream.
type Decoder struct {
	state  int
	body   []byte
	length int
	escape bool
	raw    []byte
}

// NewDecoder creates a decoder waiting for a START byte.
func NewDecoder() *Decoder {
	return &Decoder{
		body: make([]byte, 0, MaxFrameSize),
		raw:  make([]byte, 0, 2*MaxFrameSize+2),
	}
}

// Reset drops any partial frame.
func (d *Decoder) Reset() {
	d.state = stateIdle
	d.body = d.body[:0]
	d.length = 0
	d.escape = false
	d.raw = d.raw[:0]
}

// RawBytes returns the wire bytes of the frame in progress.
func (d *Decoder) RawBytes() []byte {
	return d.raw
}

// DecodeByte feeds one byte. It returns a packet when a frame completes, or an
// error when one is rejected. Both are nil while a frame is in progress.
func (d *Decoder) DecodeByte(b byte) (*Packet, error) {
	d.raw = append(d.raw, b)

	// framing bytes are never escaped on the wire
	switch {
	case b == StartByte:
		d.Reset()
		d.raw = append(d.raw, b)
		d.state = stateLength
		return nil, nil
	case b == EndByte:
		return d.finish()
	case d.state == stateIdle:
		d.raw = d.raw[:0]
		return nil, nil
	case b == EscByte && !d.escape:
		d.escape = true
		return nil, nil
	case d.escape:
		b ^= EscXor
		d.escape = false
	}

	if d.state == stateEnd {
		d.Reset()
		return nil, fmt.Errorf("missing END byte after CRC")
	}
	if len(d.body) >= MaxFrameSize {
		d.Reset()
		return nil, fmt.Errorf("buffer overflow: frame exceeds %d bytes", MaxFrameSize)
	}
	d.body = append(d.body, b)

	switch d.state {
	case stateLength:
		if int(b) > MaxPayloadSize {
			d.Reset()
			return nil, fmt.Errorf("invalid length: %d (max %d)", b, MaxPayloadSize)
		}
		d.length = int(b)
		d.state = stateChannel
	case stateChannel:
		d.state = stateSequence
	case stateSequence:
		if d.length == 0 {
			d.state = stateCRC1
		} else {
			d.state = statePayload
		}
	case statePayload:
		if len(d.body) == HeaderSize+d.length {
			d.state = stateCRC1
		}
	case stateCRC1:
		d.state = stateCRC2
	case stateCRC2:
		d.state = stateEnd
	}
	return nil, nil
}

func (d *Decoder) finish() (*Packet, error) {
	if d.state != stateEnd || d.escape {
		state := d.state
		d.Reset()
		return nil, fmt.Errorf("unexpected END byte in state %d", state)
	}

	n := len(d.body) - 2
	want := CalculateCRC(d.body[:n])
	got := uint16(d.body[n])<<8 | uint16(d.body[n+1])
	if got != want {
		d.Reset()
		return nil, fmt.Errorf("%w: expected 0x%04X, got 0x%04X", ErrCRCMismatch, want, got)
	}

	payload := make([]byte, d.length)
	copy(payload, d.body[HeaderSize:n])
	p := NewPacket(d.body[1], d.body[2], payload, got)
	p.timestamp = time.Now()
	d.Reset()
	return p, nil
}
