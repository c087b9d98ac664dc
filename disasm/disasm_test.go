package disasm

import (
	"fmt"
	"strings"
	"testing"

	"vm15/annotate"
)

func assert(t *testing.T, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Fatalf(fmt.Sprintf("%v %s", cond, format), args...)
	}
}

func TestDisassembleDecodesKnownInstructions(t *testing.T) {
	mem := []uint16{
		19, 65, // out 'A'
		0, // halt
	}
	out := Disassemble(mem, nil)
	assert(t, strings.Contains(out, "/* 0x0000 */ out  0x0041"), "missing out line: %q", out)
	assert(t, strings.Contains(out, "/* 0x0002 */ halt"), "missing halt line: %q", out)
}

func TestDisassembleEmitsDataOmittedOnce(t *testing.T) {
	// 22 is not a valid opcode, nor is 40000; both fall into the same
	// data region and should only print one marker.
	mem := []uint16{22, 40000, 0}
	out := Disassemble(mem, nil)
	assert(t, strings.Count(out, "; binary data omitted") == 1, "expected exactly one marker, got:\n%s", out)
	assert(t, strings.Contains(out, "/* 0x0002 */ halt"), "expected halt after data region: %q", out)
}

func TestDisassembleOverlaysLabelsAndComments(t *testing.T) {
	ann, err := annotate.Load(strings.NewReader(
		"[labels]\n0x0000 = \"start\"\n[comments]\n0x0000 = \"entry point\"\n",
	))
	assert(t, err == nil, "annotation load failed: %v", err)

	mem := []uint16{21, 0} // noop, halt
	out := Disassemble(mem, ann)
	assert(t, strings.Contains(out, "start:\n"), "missing label line: %q", out)
	assert(t, strings.Contains(out, "; entry point"), "missing comment: %q", out)
}

func TestDisassembleNilAnnotations(t *testing.T) {
	mem := []uint16{0}
	out := Disassemble(mem, nil)
	assert(t, strings.Contains(out, "halt"), "expected halt in output: %q", out)
}
