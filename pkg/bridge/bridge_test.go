// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package bridge

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

// decodeAll feeds data through a fresh decoder and returns every packet.
func decodeAll(t *testing.T, data []byte) []*Packet {
	t.Helper()
	dec := NewDecoder()
	var out []*Packet
	for _, b := range data {
		p, err := dec.DecodeByte(b)
		if err != nil {
			t.Fatalf("decode error: %v", err)
		}
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

// ============================================================
// CRC Tests
// ============================================================

func TestCalculateCRC_Empty(t *testing.T) {
	if crc := CalculateCRC(nil); crc != crcInitial {
		t.Errorf("CRC of empty data should be initial value, got 0x%04X", crc)
	}
}

func TestCalculateCRC_CheckValue(t *testing.T) {
	// standard CRC-16/CCITT-FALSE check value
	if crc := CalculateCRC([]byte("123456789")); crc != 0x29B1 {
		t.Errorf("expected 0x29B1, got 0x%04X", crc)
	}
}

// ============================================================
// Stuffing Tests
// ============================================================

func TestAppendStuffed(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want []byte
	}{
		{"plain", []byte{0x01, 0x02}, []byte{0x01, 0x02}},
		{"start", []byte{StartByte}, []byte{EscByte, StartByte ^ EscXor}},
		{"end", []byte{EndByte}, []byte{EscByte, EndByte ^ EscXor}},
		{"esc", []byte{EscByte}, []byte{EscByte, EscByte ^ EscXor}},
		{"consecutive", []byte{StartByte, EndByte, EscByte}, []byte{
			EscByte, StartByte ^ EscXor, EscByte, EndByte ^ EscXor, EscByte, EscByte ^ EscXor,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := appendStuffed(nil, tt.in)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("stuffed % X, want % X", got, tt.want)
			}
			back, err := UnstuffBytes(got)
			if err != nil {
				t.Fatalf("unstuff: %v", err)
			}
			if !bytes.Equal(back, tt.in) {
				t.Errorf("unstuffed % X, want % X", back, tt.in)
			}
		})
	}
}

func TestUnstuffBytes_IncompleteEscape(t *testing.T) {
	if _, err := UnstuffBytes([]byte{0x01, EscByte}); err == nil {
		t.Error("expected error for trailing escape")
	}
}

// ============================================================
// Encode / Decode Tests
// ============================================================

func TestEncodeDecode_Messages(t *testing.T) {
	packets := []*Packet{
		NewTransfer(0, 0x8800),
		NewTransfer(3, 0x7E7F), // framing bytes inside the CBOR body
		NewTransferReply(1, 0xFFFF),
		NewSetPin(0, PinWake, true),
		NewPinAck(0, PinENGate, false),
		NewGetFaultPin(2),
		NewFaultPinState(0, true),
		NewPing(0),
		NewPong(0, 123456, 2),
		NewError(0, ErrCodeTransport, "spi: timeout"),
	}

	for i, p := range packets {
		p.WithSequence(uint8(i * 37))
		frame, err := Encode(p)
		if err != nil {
			t.Fatalf("%s: encode: %v", FormatMessageType(p.Type()), err)
		}
		if frame[0] != StartByte || frame[len(frame)-1] != EndByte {
			t.Fatalf("%s: missing framing bytes", FormatMessageType(p.Type()))
		}
		if bytes.IndexByte(frame[1:len(frame)-1], StartByte) >= 0 || bytes.IndexByte(frame[1:len(frame)-1], EndByte) >= 0 {
			t.Errorf("%s: unescaped framing byte in body", FormatMessageType(p.Type()))
		}

		got := decodeAll(t, frame)
		if len(got) != 1 {
			t.Fatalf("%s: decoded %d packets", FormatMessageType(p.Type()), len(got))
		}
		d := got[0]
		if d.Type() != p.Type() || d.Channel() != p.Channel() || d.Sequence() != p.Sequence() {
			t.Errorf("header mismatch: got %s ch=%d seq=%d", FormatMessageType(d.Type()), d.Channel(), d.Sequence())
		}
		if errs := ValidatePacket(d); len(errs) != 0 {
			t.Errorf("%s: %v", FormatMessageType(d.Type()), errs)
		}
	}
}

func TestEncodeDecode_TransferFrame(t *testing.T) {
	frame := MustEncode(NewTransfer(0, 0x2B44))
	p := decodeAll(t, frame)[0]
	v, ok := GetMapUint(p.PayloadMap(), 0)
	if !ok || v != 0x2B44 {
		t.Errorf("frame = 0x%X (ok=%v), want 0x2B44", v, ok)
	}
}

func TestDecoder_CRCMismatch(t *testing.T) {
	cborPayload, err := encodeCBORPayload(MsgPing, nil)
	if err != nil {
		t.Fatal(err)
	}
	body := append([]byte{byte(len(cborPayload)), 0, 0}, cborPayload...)
	crc := ^CalculateCRC(body)
	body = append(body, byte(crc>>8), byte(crc))
	frame := append([]byte{StartByte}, appendStuffed(nil, body)...)
	frame = append(frame, EndByte)

	dec := NewDecoder()
	var gotErr error
	for _, b := range frame {
		if p, err := dec.DecodeByte(b); err != nil {
			gotErr = err
		} else if p != nil {
			t.Fatal("corrupted frame was accepted")
		}
	}
	if !errors.Is(gotErr, ErrCRCMismatch) {
		t.Errorf("expected ErrCRCMismatch, got %v", gotErr)
	}
}

func TestDecoder_ResyncOnStart(t *testing.T) {
	good := MustEncode(NewPing(1))
	stream := append([]byte{0x00, StartByte, 0x05, 0x01}, good...)
	got := decodeAll(t, stream)
	if len(got) != 1 || got[0].Type() != MsgPing || got[0].Channel() != 1 {
		t.Fatalf("expected one PING after resync, got %d", len(got))
	}
}

func TestDecoder_UnexpectedEnd(t *testing.T) {
	dec := NewDecoder()
	dec.DecodeByte(StartByte)
	dec.DecodeByte(0x02)
	if _, err := dec.DecodeByte(EndByte); err == nil {
		t.Error("expected error for truncated frame")
	}
}

func TestDecoder_LengthTooLarge(t *testing.T) {
	dec := NewDecoder()
	dec.DecodeByte(StartByte)
	if _, err := dec.DecodeByte(MaxPayloadSize + 1); err == nil {
		t.Error("expected error for oversized length")
	}
}

func TestDecoder_RawBytes(t *testing.T) {
	dec := NewDecoder()
	dec.DecodeByte(0x11) // noise before START is not kept
	dec.DecodeByte(StartByte)
	dec.DecodeByte(0x00)
	if raw := dec.RawBytes(); !bytes.Equal(raw, []byte{StartByte, 0x00}) {
		t.Errorf("raw bytes % X", raw)
	}
}

func TestEncode_PayloadTooLarge(t *testing.T) {
	p := NewPacketWithPayload(0, MsgError, map[int]interface{}{1: strings.Repeat("x", 100)})
	if _, err := Encode(p); !errors.Is(err, ErrPayloadTooLarge) {
		t.Errorf("expected ErrPayloadTooLarge, got %v", err)
	}
}

func TestNewError_TruncatesMessage(t *testing.T) {
	p := NewError(0, ErrCodeTransport, strings.Repeat("y", 200))
	if _, err := Encode(p); err != nil {
		t.Errorf("long error message should still encode: %v", err)
	}
}

func TestMustEncode_Panic(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	MustEncode(NewPacketWithPayload(0, MsgError, map[int]interface{}{1: strings.Repeat("z", 100)}))
}

// ============================================================
// Validation Tests
// ============================================================

func TestValidatePacket(t *testing.T) {
	tests := []struct {
		name string
		p    *Packet
		want AnomalyType
	}{
		{"missing frame", NewPacketWithPayload(0, MsgTransfer, nil), AnomalyMissingField},
		{"wide frame", NewPacketWithPayload(0, MsgTransfer, map[int]interface{}{0: uint64(0x10000)}), AnomalyInvalidValue},
		{"bad pin", NewPacketWithPayload(0, MsgSetPin, map[int]interface{}{0: uint64(9), 1: true}), AnomalyInvalidValue},
		{"missing level", NewPacketWithPayload(0, MsgSetPin, map[int]interface{}{0: uint64(0)}), AnomalyMissingField},
		{"unknown type", NewPacketWithPayload(0, 0x55, nil), AnomalyUnknownType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidatePacket(tt.p)
			if len(errs) == 0 {
				t.Fatal("expected validation error")
			}
			if errs[0].Type != tt.want {
				t.Errorf("anomaly %d, want %d (%s)", errs[0].Type, tt.want, errs[0].Message)
			}
		})
	}
}

// ============================================================
// Formatter Tests
// ============================================================

func TestFormatPacket(t *testing.T) {
	tests := []struct {
		p    *Packet
		want []string
	}{
		{NewTransfer(0, 0x8800), []string{"TRANSFER", "READ WARNING"}},
		{NewTransfer(0, 0x2B44), []string{"WRITE HS_GATE_DRIVE", "0x344"}},
		{NewTransferReply(0, 0x8C01), []string{"TRANSFER_REPLY", "Fault: Yes"}},
		{NewSetPin(0, PinENGate, true), []string{"EN_GATE", "HIGH"}},
		{NewPong(0, 1500, 1), []string{"1.5s", "Channels: 1"}},
		{NewError(0, ErrCodeNoFaultPin, ""), []string{"NO_FAULT_PIN"}},
	}
	for _, tt := range tests {
		out := FormatPacket(tt.p)
		for _, w := range tt.want {
			if !strings.Contains(out, w) {
				t.Errorf("%q missing %q", out, w)
			}
		}
	}
}
