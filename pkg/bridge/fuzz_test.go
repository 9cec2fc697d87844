// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package bridge

import (
	"math/rand"
	"os"
	"strconv"
	"testing"
	"time"
)

// getFuzzRounds returns the number of fuzz rounds from FUZZ_ROUNDS, default 1000
func getFuzzRounds() int {
	if env := os.Getenv("FUZZ_ROUNDS"); env != "" {
		if rounds, err := strconv.Atoi(env); err == nil && rounds > 0 {
			return rounds
		}
	}
	return 1000
}

// newFuzzRng seeds from FUZZ_SEED or the clock and logs the seed for reproduction
func newFuzzRng(t *testing.T) *rand.Rand {
	seed := time.Now().UnixNano()
	if env := os.Getenv("FUZZ_SEED"); env != "" {
		if s, err := strconv.ParseInt(env, 10, 64); err == nil {
			seed = s
		}
	}
	t.Logf("Seed: %d (reproduce with FUZZ_SEED=%d)", seed, seed)
	return rand.New(rand.NewSource(seed))
}

func randomPacket(rng *rand.Rand) *Packet {
	ch := uint8(rng.Intn(4))
	var p *Packet
	switch rng.Intn(7) {
	case 0:
		p = NewTransfer(ch, uint16(rng.Intn(0x10000)))
	case 1:
		p = NewTransferReply(ch, uint16(rng.Intn(0x10000)))
	case 2:
		p = NewSetPin(ch, Pin(rng.Intn(2)), rng.Intn(2) == 1)
	case 3:
		p = NewFaultPinState(ch, rng.Intn(2) == 1)
	case 4:
		p = NewPong(ch, rng.Uint64()>>rng.Intn(64), uint8(rng.Intn(8)))
	case 5:
		p = NewError(ch, ErrorCode(rng.Intn(6)), "")
	default:
		p = NewPing(ch)
	}
	return p.WithSequence(uint8(rng.Intn(256)))
}

// ============================================================
// Decoder Fuzz Tests
// ============================================================

func TestFuzz_RandomBytesNeverPanic(t *testing.T) {
	rng := newFuzzRng(t)
	dec := NewDecoder()
	for i := 0; i < getFuzzRounds(); i++ {
		buf := make([]byte, rng.Intn(200))
		rng.Read(buf)
		for _, b := range buf {
			p, _ := dec.DecodeByte(b)
			if p != nil {
				// whatever survived the CRC must still be safe to inspect
				_ = ValidatePacket(p)
				_ = FormatPacket(p)
			}
		}
	}
}

func TestFuzz_EncodeDecodeRoundTrip(t *testing.T) {
	rng := newFuzzRng(t)
	for i := 0; i < getFuzzRounds(); i++ {
		p := randomPacket(rng)
		frame, err := Encode(p)
		if err != nil {
			t.Fatalf("round %d: encode %s: %v", i, FormatMessageType(p.Type()), err)
		}
		got := decodeAll(t, frame)
		if len(got) != 1 {
			t.Fatalf("round %d: decoded %d packets", i, len(got))
		}
		if got[0].Type() != p.Type() || got[0].Sequence() != p.Sequence() || got[0].Channel() != p.Channel() {
			t.Fatalf("round %d: header mismatch", i)
		}
		if errs := ValidatePacket(got[0]); len(errs) != 0 {
			t.Fatalf("round %d: %v", i, errs)
		}
	}
}

func TestFuzz_NoiseBetweenFrames(t *testing.T) {
	rng := newFuzzRng(t)
	for i := 0; i < getFuzzRounds(); i++ {
		var stream []byte
		want := rng.Intn(5) + 1
		for j := 0; j < want; j++ {
			// noise without START bytes, then a valid frame
			noise := make([]byte, rng.Intn(10))
			for k := range noise {
				noise[k] = byte(rng.Intn(StartByte))
			}
			stream = append(stream, noise...)
			stream = append(stream, MustEncode(randomPacket(rng))...)
		}

		dec := NewDecoder()
		count := 0
		for _, b := range stream {
			if p, _ := dec.DecodeByte(b); p != nil {
				count++
			}
		}
		if count != want {
			t.Fatalf("round %d: decoded %d of %d frames", i, count, want)
		}
	}
}
