// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package bridge

import "time"

// Packet is one decoded or to-be-encoded bridge message.
type Packet struct {
	channel     uint8
	sequence    uint8
	cborPayload []byte // [msg_type, payload_map]
	crc         uint16
	timestamp   time.Time

	// parsed lazily from cborPayload
	msgType    uint8
	payloadMap map[int]interface{}
	parsed     bool
	parseErr   error
}

// NewPacket wraps a received CBOR message.
func NewPacket(channel, sequence uint8, cborPayload []byte, crc uint16) *Packet {
	return &Packet{
		channel:     channel,
		sequence:    sequence,
		cborPayload: cborPayload,
		crc:         crc,
		timestamp:   time.Now(),
	}
}

// NewPacketWithPayload builds an outgoing packet. CBOR and CRC are computed on encode.
func NewPacketWithPayload(channel uint8, msgType uint8, payload map[int]interface{}) *Packet {
	return &Packet{
		channel:    channel,
		msgType:    msgType,
		payloadMap: payload,
		parsed:     true,
		timestamp:  time.Now(),
	}
}

func (p *Packet) ensureParsed() {
	if p.parsed {
		return
	}
	p.parsed = true
	if len(p.cborPayload) == 0 {
		return
	}
	p.msgType, p.payloadMap, p.parseErr = ParseCBORMessage(p.cborPayload)
}

// Channel returns the chip select the packet addresses.
func (p *Packet) Channel() uint8 {
	return p.channel
}

// Sequence returns the request sequence number. Replies carry the number of the request.
func (p *Packet) Sequence() uint8 {
	return p.sequence
}

// WithSequence sets the sequence number and returns p.
func (p *Packet) WithSequence(seq uint8) *Packet {
	p.sequence = seq
	return p
}

// Type returns the message type.
func (p *Packet) Type() uint8 {
	p.ensureParsed()
	return p.msgType
}

// Payload returns the raw CBOR bytes of a received packet.
func (p *Packet) Payload() []byte {
	return p.cborPayload
}

// PayloadMap returns the decoded payload map, nil for empty payloads.
func (p *Packet) PayloadMap() map[int]interface{} {
	p.ensureParsed()
	return p.payloadMap
}

// ParseError returns the CBOR parse error, if any.
func (p *Packet) ParseError() error {
	p.ensureParsed()
	return p.parseErr
}

// CRC returns the received CRC.
func (p *Packet) CRC() uint16 {
	return p.crc
}

// Timestamp returns when the packet was decoded or built.
func (p *Packet) Timestamp() time.Time {
	return p.timestamp
}

// IsReply reports whether the packet travels bridge -> host.
func (p *Packet) IsReply() bool {
	t := p.Type()
	return t >= MsgTransferReply && t <= MsgPong || t == MsgError
}
