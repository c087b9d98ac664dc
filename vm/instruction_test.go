package vm

import (
	"reflect"
	"testing"
)

func TestDecodeEncodeRoundTrip(t *testing.T) {
	cases := []struct {
		name  string
		words []uint16
	}{
		{"halt", []uint16{0}},
		{"set literal", []uint16{1, regWord(0), 17}},
		{"set register", []uint16{1, regWord(0), regWord(3)}},
		{"push", []uint16{2, 9}},
		{"pop", []uint16{3, regWord(1)}},
		{"eq", []uint16{4, regWord(0), 1, 2}},
		{"gt", []uint16{5, regWord(0), 3, 1}},
		{"jmp", []uint16{6, 100}},
		{"jt", []uint16{7, regWord(2), 50}},
		{"jf", []uint16{8, regWord(2), 60}},
		{"add", []uint16{9, regWord(0), 1, 2}},
		{"mult", []uint16{10, regWord(0), 3, 4}},
		{"mod", []uint16{11, regWord(0), 9, 4}},
		{"and", []uint16{12, regWord(0), 6, 3}},
		{"or", []uint16{13, regWord(0), 6, 3}},
		{"not", []uint16{14, regWord(0), 0}},
		{"rmem", []uint16{15, regWord(0), regWord(1)}},
		{"wmem", []uint16{16, regWord(0), 5}},
		{"call", []uint16{17, 200}},
		{"ret", []uint16{18}},
		{"out literal", []uint16{19, 65}},
		{"out register", []uint16{19, regWord(0)}},
		{"in", []uint16{20, regWord(0)}},
		{"noop", []uint16{21}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			instr, err := Decode(c.words, 0)
			assert(t, err == nil, "decode failed: %v", err)
			assert(t, instr.Arity() == len(c.words)-1, "arity %d does not match word count %d", instr.Arity(), len(c.words)-1)

			got := Encode(instr)
			assert(t, reflect.DeepEqual(got, c.words), "round trip mismatch: got %v, want %v", got, c.words)
		})
	}
}

func TestDecodeUnknownOpcode(t *testing.T) {
	_, err := Decode([]uint16{22}, 5)
	de, ok := err.(*DecodeError)
	assert(t, ok, "expected *DecodeError, got %T", err)
	assert(t, de.Kind == UnknownOpcode, "expected UnknownOpcode, got %v", de.Kind)
	assert(t, de.PC == 5, "expected PC 5, got %d", de.PC)
}

func TestDecodeRegisterOutOfRange(t *testing.T) {
	_, err := Decode([]uint16{1, 32776, 0}, 0)
	de, ok := err.(*DecodeError)
	assert(t, ok, "expected *DecodeError, got %T", err)
	assert(t, de.Kind == RegisterOutOfRange, "expected RegisterOutOfRange, got %v", de.Kind)
}

func TestDecodeValueOutOfRange(t *testing.T) {
	_, err := Decode([]uint16{19, 40000}, 0)
	de, ok := err.(*DecodeError)
	assert(t, ok, "expected *DecodeError, got %T", err)
	assert(t, de.Kind == ValueOutOfRange, "expected ValueOutOfRange, got %v", de.Kind)
}

func TestDecodeTruncatedInstruction(t *testing.T) {
	_, err := Decode([]uint16{9, regWord(0)}, 3)
	assert(t, err != nil, "expected error decoding truncated add instruction")
}

func TestOutStringAnnotatesCharLiteral(t *testing.T) {
	instr, err := Decode([]uint16{19, 65}, 0)
	assert(t, err == nil, "decode failed: %v", err)
	s := instr.String()
	assert(t, s == "out  0x0041\t; 'A'", "unexpected out rendering: %q", s)
}
