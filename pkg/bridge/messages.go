// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package bridge

// Message builders. Payload keys:
//
//	TRANSFER, TRANSFER_REPLY  0 => frame
//	SET_PIN, PIN_ACK          0 => pin, 1 => level
//	FAULT_PIN_STATE           0 => asserted
//	PONG                      0 => uptime-ms, 1 => channel-count
//	ERROR                     0 => code, 1 => message (opt)

// NewTransfer creates a TRANSFER request carrying one 16-bit SPI frame.
func NewTransfer(channel uint8, frame uint16) *Packet {
	return NewPacketWithPayload(channel, MsgTransfer, map[int]interface{}{
		0: uint64(frame),
	})
}

// NewTransferReply creates the reply to a TRANSFER with the frame clocked back in.
func NewTransferReply(channel uint8, frame uint16) *Packet {
	return NewPacketWithPayload(channel, MsgTransferReply, map[int]interface{}{
		0: uint64(frame),
	})
}

// NewSetPin creates a SET_PIN request.
func NewSetPin(channel uint8, pin Pin, level bool) *Packet {
	return NewPacketWithPayload(channel, MsgSetPin, map[int]interface{}{
		0: uint64(pin),
		1: level,
	})
}

// NewPinAck acknowledges a SET_PIN.
func NewPinAck(channel uint8, pin Pin, level bool) *Packet {
	return NewPacketWithPayload(channel, MsgPinAck, map[int]interface{}{
		0: uint64(pin),
		1: level,
	})
}

// NewGetFaultPin creates a GET_FAULT_PIN request.
func NewGetFaultPin(channel uint8) *Packet {
	return NewPacketWithPayload(channel, MsgGetFaultPin, nil)
}

// NewFaultPinState reports the nFAULT line. asserted is true while nFAULT is low.
func NewFaultPinState(channel uint8, asserted bool) *Packet {
	return NewPacketWithPayload(channel, MsgFaultPinState, map[int]interface{}{
		0: asserted,
	})
}

// NewPing creates a PING request.
func NewPing(channel uint8) *Packet {
	return NewPacketWithPayload(channel, MsgPing, nil)
}

// NewPong answers a PING.
func NewPong(channel uint8, uptimeMs uint64, channels uint8) *Packet {
	return NewPacketWithPayload(channel, MsgPong, map[int]interface{}{
		0: uptimeMs,
		1: uint64(channels),
	})
}

// NewError creates an ERROR reply. An empty message is omitted.
func NewError(channel uint8, code ErrorCode, message string) *Packet {
	payload := map[int]interface{}{
		0: int64(code),
	}
	if message != "" {
		// keep the frame under MaxPayloadSize
		if len(message) > 40 {
			message = message[:40]
		}
		payload[1] = message
	}
	return NewPacketWithPayload(channel, MsgError, payload)
}
