// Package rom loads a flat, little-endian ROM image into the 16-bit word
// vector the VM and disassembler operate on.
package rom

import (
	"encoding/binary"
	"os"
)

// Load reads path as a sequence of 2-byte little-endian words. A trailing
// odd byte, if present, is ignored. The address of the first word is 0.
func Load(path string) ([]uint16, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data), nil
}

// Decode converts raw ROM bytes into a word vector, dropping a trailing
// odd byte.
func Decode(data []byte) []uint16 {
	n := len(data) / 2
	words := make([]uint16, n)
	for i := 0; i < n; i++ {
		words[i] = binary.LittleEndian.Uint16(data[2*i : 2*i+2])
	}
	return words
}
