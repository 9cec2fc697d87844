// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package drv8305

// PackWrite builds a write command frame: R/W=0, 4-bit address, 11-bit data.
func PackWrite(addr Register, data uint16) uint16 {
	return uint16(addr&FrameAddrMask)<<FrameAddrShift | data&FrameDataMask
}

// PackRead builds a read command frame. The data field is reserved and left zero.
func PackRead(addr Register) uint16 {
	return FrameReadBit | uint16(addr&FrameAddrMask)<<FrameAddrShift
}

// UnpackResponse returns the 11 data bits of a response frame.
func UnpackResponse(raw uint16) uint16 {
	return raw & FrameDataMask
}

// Response is a fully decoded response frame.
type Response struct {
	Fault   bool     // bit 15, set while any fault is latched
	Address Register // bits 14:11, address echo
	Data    uint16   // bits 10:0
}

// DecodeResponse splits a response frame into its three fields.
func DecodeResponse(raw uint16) Response {
	return Response{
		Fault:   raw&FrameReadBit != 0,
		Address: Register(raw >> FrameAddrShift & FrameAddrMask),
		Data:    UnpackResponse(raw),
	}
}

// Frame re-encodes the response into its 16-bit wire form.
func (r Response) Frame() uint16 {
	frame := uint16(r.Address&FrameAddrMask)<<FrameAddrShift | r.Data&FrameDataMask
	if r.Fault {
		frame |= FrameReadBit
	}
	return frame
}

// IsRead reports whether a command frame is a read request.
func IsRead(frame uint16) bool {
	return frame&FrameReadBit != 0
}

// CommandAddress extracts the register address from a command frame.
func CommandAddress(frame uint16) Register {
	return Register(frame >> FrameAddrShift & FrameAddrMask)
}
