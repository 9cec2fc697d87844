// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package bridge

import "fmt"

// AnomalyType classifies a malformed packet.
type AnomalyType int

const (
	AnomalyDecodeError AnomalyType = iota
	AnomalyMissingField
	AnomalyInvalidValue
	AnomalyUnknownType
)

// ValidationError describes one problem found in a packet.
type ValidationError struct {
	Type    AnomalyType
	Message string
}

func (v *ValidationError) Error() string {
	return v.Message
}

// ValidatePacket checks that a packet carries the fields its type requires.
// The result is empty for a well-formed packet.
func ValidatePacket(p *Packet) []ValidationError {
	if err := p.ParseError(); err != nil {
		return []ValidationError{{Type: AnomalyDecodeError, Message: err.Error()}}
	}

	m := p.PayloadMap()
	switch p.Type() {
	case MsgTransfer, MsgTransferReply:
		return validateFrame(p.Type(), m)
	case MsgSetPin, MsgPinAck:
		return validatePin(p.Type(), m)
	case MsgFaultPinState:
		if _, ok := GetMapBool(m, 0); !ok {
			return []ValidationError{missing(p.Type(), "asserted")}
		}
	case MsgPong:
		if _, ok := GetMapUint(m, 0); !ok {
			return []ValidationError{missing(p.Type(), "uptime")}
		}
	case MsgError:
		if _, ok := GetMapInt(m, 0); !ok {
			return []ValidationError{missing(p.Type(), "code")}
		}
	case MsgGetFaultPin, MsgPing:
	default:
		return []ValidationError{{
			Type:    AnomalyUnknownType,
			Message: fmt.Sprintf("unknown message type 0x%02X", p.Type()),
		}}
	}
	return nil
}

func validateFrame(msgType uint8, m map[int]interface{}) []ValidationError {
	frame, ok := GetMapUint(m, 0)
	if !ok {
		return []ValidationError{missing(msgType, "frame")}
	}
	if frame > 0xFFFF {
		return []ValidationError{{
			Type:    AnomalyInvalidValue,
			Message: fmt.Sprintf("%s: frame 0x%X exceeds 16 bits", FormatMessageType(msgType), frame),
		}}
	}
	return nil
}

func validatePin(msgType uint8, m map[int]interface{}) []ValidationError {
	var errs []ValidationError
	pin, ok := GetMapUint(m, 0)
	if !ok {
		errs = append(errs, missing(msgType, "pin"))
	} else if pin > 0xFF || Pin(pin) != PinENGate && Pin(pin) != PinWake {
		errs = append(errs, ValidationError{
			Type:    AnomalyInvalidValue,
			Message: fmt.Sprintf("%s: unknown pin %d", FormatMessageType(msgType), pin),
		})
	}
	if _, ok := GetMapBool(m, 1); !ok {
		errs = append(errs, missing(msgType, "level"))
	}
	return errs
}

func missing(msgType uint8, field string) ValidationError {
	return ValidationError{
		Type:    AnomalyMissingField,
		Message: fmt.Sprintf("%s: missing %s", FormatMessageType(msgType), field),
	}
}
