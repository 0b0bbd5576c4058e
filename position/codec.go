// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package position

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
)

// Calldata and report bodies are sequences of 32-byte big-endian words, one
// scalar per word. Narrow types occupy the low bytes of their word and must
// be validly zero- or sign-extended through the high bytes.

const wordSize = 32

// wordAt returns the i-th word of data. Callers check length first.
func wordAt(data []byte, i int) []byte {
	return data[i*wordSize : (i+1)*wordSize]
}

func wordUint256(w []byte) *uint256.Int {
	return new(uint256.Int).SetBytes(w)
}

func wordAddress(w []byte) (common.Address, error) {
	for _, b := range w[:12] {
		if b != 0 {
			return common.Address{}, fmt.Errorf("dirty address word")
		}
	}
	return common.BytesToAddress(w[12:32]), nil
}

func wordBool(w []byte) (bool, error) {
	for _, b := range w[:31] {
		if b != 0 {
			return false, fmt.Errorf("dirty bool word")
		}
	}
	switch w[31] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("bool word out of range: %d", w[31])
	}
}

func wordUint24(w []byte) (uint24, error) {
	for _, b := range w[:29] {
		if b != 0 {
			return 0, fmt.Errorf("dirty uint24 word")
		}
	}
	return uint24(w[29])<<16 | uint24(w[30])<<8 | uint24(w[31]), nil
}

func wordInt24(w []byte) (int24, error) {
	var ext byte
	if w[29]&0x80 != 0 {
		ext = 0xff
	}
	for _, b := range w[:29] {
		if b != ext {
			return 0, fmt.Errorf("dirty int24 word")
		}
	}
	raw := uint32(w[29])<<16 | uint32(w[30])<<8 | uint32(w[31])
	return int32(raw<<8) >> 8, nil
}

// putWord appends a 32-byte word holding the value's big-endian bytes.

func putUint256Word(dst []byte, v *uint256.Int) []byte {
	b := v.Bytes32()
	return append(dst, b[:]...)
}

func putAddressWord(dst []byte, addr common.Address) []byte {
	var w [wordSize]byte
	copy(w[12:], addr.Bytes())
	return append(dst, w[:]...)
}

func putBoolWord(dst []byte, v bool) []byte {
	var w [wordSize]byte
	if v {
		w[31] = 1
	}
	return append(dst, w[:]...)
}

func putUint24Word(dst []byte, v uint24) []byte {
	var w [wordSize]byte
	w[29] = byte(v >> 16)
	w[30] = byte(v >> 8)
	w[31] = byte(v)
	return append(dst, w[:]...)
}

func putInt24Word(dst []byte, v int24) []byte {
	var w [wordSize]byte
	var ext byte
	if v < 0 {
		ext = 0xff
	}
	for i := 0; i < 29; i++ {
		w[i] = ext
	}
	w[29] = byte(uint32(v) >> 16)
	w[30] = byte(uint32(v) >> 8)
	w[31] = byte(uint32(v))
	return append(dst, w[:]...)
}

func putUint64Word(dst []byte, v uint64) []byte {
	var w [wordSize]byte
	w[24] = byte(v >> 56)
	w[25] = byte(v >> 48)
	w[26] = byte(v >> 40)
	w[27] = byte(v >> 32)
	w[28] = byte(v >> 24)
	w[29] = byte(v >> 16)
	w[30] = byte(v >> 8)
	w[31] = byte(v)
	return append(dst, w[:]...)
}
