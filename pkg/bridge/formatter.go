// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package bridge

import (
	"fmt"
	"time"

	"github.com/Thermoquad/gatewatch/pkg/drv8305"
)

// FormatPacket formats a packet into a human-readable string.
func FormatPacket(p *Packet) string {
	timestamp := p.Timestamp().Format("15:04:05.000")
	result := fmt.Sprintf("[%s] %s (0x%02X) ch=%d seq=%d\n",
		timestamp, FormatMessageType(p.Type()), p.Type(), p.Channel(), p.Sequence())
	return result + FormatPayloadMap(p.Type(), p.PayloadMap())
}

// FormatMessageType returns the name of a message type.
func FormatMessageType(msgType uint8) string {
	switch msgType {
	case MsgTransfer:
		return "TRANSFER"
	case MsgSetPin:
		return "SET_PIN"
	case MsgGetFaultPin:
		return "GET_FAULT_PIN"
	case MsgPing:
		return "PING"
	case MsgTransferReply:
		return "TRANSFER_REPLY"
	case MsgFaultPinState:
		return "FAULT_PIN_STATE"
	case MsgPinAck:
		return "PIN_ACK"
	case MsgPong:
		return "PONG"
	case MsgError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// FormatPayloadMap formats the payload of a message.
func FormatPayloadMap(msgType uint8, m map[int]interface{}) string {
	switch msgType {
	case MsgGetFaultPin, MsgPing:
		return "  (no payload)\n"

	case MsgTransfer:
		frame, _ := GetMapUint(m, 0)
		f := uint16(frame)
		op := "WRITE"
		if drv8305.IsRead(f) {
			op = "READ"
		}
		return fmt.Sprintf("  %s %s data=0x%03X (0x%04X)\n",
			op, drv8305.CommandAddress(f), drv8305.UnpackResponse(f), f)

	case MsgTransferReply:
		frame, _ := GetMapUint(m, 0)
		resp := drv8305.DecodeResponse(uint16(frame))
		fault := "No"
		if resp.Fault {
			fault = "Yes"
		}
		return fmt.Sprintf("  Addr: %s, Data: 0x%03X, Fault: %s (0x%04X)\n", resp.Address, resp.Data, fault, frame)

	case MsgSetPin, MsgPinAck:
		pin, _ := GetMapUint(m, 0)
		level, _ := GetMapBool(m, 1)
		levelStr := "LOW"
		if level {
			levelStr = "HIGH"
		}
		return fmt.Sprintf("  Pin: %s, Level: %s\n", Pin(pin), levelStr)

	case MsgFaultPinState:
		asserted, _ := GetMapBool(m, 0)
		if asserted {
			return "  nFAULT: asserted\n"
		}
		return "  nFAULT: clear\n"

	case MsgPong:
		uptime, _ := GetMapUint(m, 0)
		channels, _ := GetMapUint(m, 1)
		return fmt.Sprintf("  Uptime: %s, Channels: %d\n", time.Duration(uptime)*time.Millisecond, channels)

	case MsgError:
		code, _ := GetMapInt(m, 0)
		msg, _ := GetMapString(m, 1)
		if msg != "" {
			return fmt.Sprintf("  Error: %s (%d) %s\n", ErrorCode(code), code, msg)
		}
		return fmt.Sprintf("  Error: %s (%d)\n", ErrorCode(code), code)
	}

	if m == nil {
		return "  (nil payload)\n"
	}
	result := "  Payload: {"
	for k, v := range m {
		result += fmt.Sprintf("%d: %v, ", k, v)
	}
	return result + "}\n"
}
