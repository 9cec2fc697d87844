// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package bridge

import (
	"errors"
	"fmt"
)

// ErrPayloadTooLarge is returned when the CBOR message does not fit a frame.
var ErrPayloadTooLarge = errors.New("bridge: payload too large")

// Encode builds the wire frame of a packet.
func Encode(p *Packet) ([]byte, error) {
	return EncodeFrame(p.Channel(), p.Sequence(), p.Type(), p.PayloadMap())
}

// EncodeFrame builds a complete, byte-stuffed frame.
func EncodeFrame(channel, sequence, msgType uint8, payload map[int]interface{}) ([]byte, error) {
	cborPayload, err := encodeCBORPayload(msgType, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode CBOR payload: %w", err)
	}
	if len(cborPayload) > MaxPayloadSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrPayloadTooLarge, len(cborPayload), MaxPayloadSize)
	}

	body := make([]byte, 0, HeaderSize+len(cborPayload)+2)
	body = append(body, uint8(len(cborPayload)), channel, sequence)
	body = append(body, cborPayload...)
	crc := CalculateCRC(body)
	body = append(body, byte(crc>>8), byte(crc))

	frame := make([]byte, 0, 2*len(body)+2)
	frame = append(frame, StartByte)
	frame = appendStuffed(frame, body)
	return append(frame, EndByte), nil
}

// MustEncode is Encode for packets known to be valid. It panics on error.
func MustEncode(p *Packet) []byte {
	frame, err := Encode(p)
	if err != nil {
		panic(fmt.Sprintf("bridge: encode error: %v", err))
	}
	return frame
}

// appendStuffed escapes START, END and ESC bytes as ESC, b^EscXor.
func appendStuffed(dst, data []byte) []byte {
	for _, b := range data {
		switch b {
		case StartByte, EndByte, EscByte:
			dst = append(dst, EscByte, b^EscXor)
		default:
			dst = append(dst, b)
		}
	}
	return dst
}

// UnstuffBytes removes byte stuffing.
func UnstuffBytes(data []byte) ([]byte, error) {
	out := make([]byte, 0, len(data))
	escaped := false
	for _, b := range data {
		switch {
		case escaped:
			out = append(out, b^EscXor)
			escaped = false
		case b == EscByte:
			escaped = true
		default:
			out = append(out, b)
		}
	}
	if escaped {
		return nil, fmt.Errorf("incomplete escape sequence at end of data")
	}
	return out, nil
}
