// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package bridge implements the link protocol spoken between gatewatch and a
// USB or network SPI bridge.
//
// A frame is START, the byte-stuffed body, END. The body is a length byte, a
// channel byte selecting the chip select on the bridge, a sequence byte, the
// CBOR message [msg_type, payload_map] and a big-endian CRC-16-CCITT over
// everything before it.
package bridge

// Framing bytes
const (
	StartByte = 0x7E
	EndByte   = 0x7F
	EscByte   = 0x7D
	EscXor    = 0x20
)

// Frame size limits
const (
	HeaderSize     = 3 // length, channel, sequence
	MaxPayloadSize = 64
	MaxFrameSize   = HeaderSize + MaxPayloadSize + 2
)

// CRC-16-CCITT configuration
const (
	crcPolynomial = 0x1021
	crcInitial    = 0xFFFF
)

// Requests (host -> bridge) 0x10-0x2F
const (
	MsgTransfer    = 0x10
	MsgSetPin      = 0x11
	MsgGetFaultPin = 0x12
	MsgPing        = 0x2F
)

// Replies (bridge -> host) 0x30-0x3F
const (
	MsgTransferReply = 0x30
	MsgFaultPinState = 0x31
	MsgPinAck        = 0x32
	MsgPong          = 0x3F
)

// MsgError is sent by the bridge when a request cannot be served.
const MsgError = 0xE0

// Pin identifies a bridge output line.
type Pin uint8

// Output lines
const (
	PinENGate Pin = 0x00
	PinWake   Pin = 0x01
)

func (p Pin) String() string {
	switch p {
	case PinENGate:
		return "EN_GATE"
	case PinWake:
		return "WAKE"
	default:
		return "UNKNOWN"
	}
}

// ErrorCode is carried by MsgError.
type ErrorCode int

// Error code values
const (
	ErrCodeTransport  ErrorCode = 0x01
	ErrCodePower      ErrorCode = 0x02
	ErrCodeNoFaultPin ErrorCode = 0x03
	ErrCodeInvalid    ErrorCode = 0x04
	ErrCodeNoChannel  ErrorCode = 0x05
)

func (c ErrorCode) String() string {
	switch c {
	case ErrCodeTransport:
		return "TRANSPORT"
	case ErrCodePower:
		return "POWER"
	case ErrCodeNoFaultPin:
		return "NO_FAULT_PIN"
	case ErrCodeInvalid:
		return "INVALID_REQUEST"
	case ErrCodeNoChannel:
		return "NO_CHANNEL"
	default:
		return "UNKNOWN"
	}
}

// Decoder states
const (
	stateIdle = iota
	stateLength
	stateChannel
	stateSequence
	statePayload
	stateCRC1
	stateCRC2
	stateEnd
)
