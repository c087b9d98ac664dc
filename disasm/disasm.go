// Package disasm statically linearizes a memory image into either decoded
// instructions or raw data, overlaying label and comment annotations. It
// never interprets jmp/call targets: the walk is a straight linear scan
// from address 0, exactly as spec'd.
package disasm

import (
	"fmt"
	"strings"

	"vm15/annotate"
	"vm15/vm"
)

const dataOmittedMarker = "; binary data omitted"

// Disassemble walks mem from address 0, printing one line per decoded
// instruction (annotated with any matching label/comment) and a single
// marker line at the start of each run of undecodable words; a blank line
// separates such a run from the code that follows it. ann may be nil,
// equivalent to an empty annotation set.
func Disassemble(mem []uint16, ann *annotate.Annotations) string {
	var out strings.Builder
	inData := false

	for addr := 0; addr < len(mem); {
		instr, err := vm.Decode(mem[addr:], uint16(addr))
		if err != nil {
			if !inData {
				out.WriteString(dataOmittedMarker)
				out.WriteByte('\n')
				inData = true
			}
			addr++
			continue
		}

		if inData {
			out.WriteByte('\n')
			inData = false
		}

		for _, label := range ann.At(uint16(addr)) {
			if label.Kind == annotate.Label {
				fmt.Fprintf(&out, "%s:\n", label.Text)
			}
		}

		line := fmt.Sprintf("/* 0x%04x */ %s", addr, instr)
		if comment := firstComment(ann, uint16(addr)); comment != "" {
			line = padComment(line, comment)
		}
		out.WriteString(line)
		out.WriteByte('\n')

		addr += 1 + instr.Arity()
	}

	return out.String()
}

func firstComment(ann *annotate.Annotations, addr uint16) string {
	for _, e := range ann.At(addr) {
		if e.Kind == annotate.Comment {
			return e.Text
		}
	}
	return ""
}

// commentColumn is the column comments are right-padded to, matching the
// fixed tab-stop layout the original image's own disassembly listings use.
const commentColumn = 40

func padComment(line, comment string) string {
	if len(line) < commentColumn {
		line += strings.Repeat(" ", commentColumn-len(line))
	} else {
		line += " "
	}
	return line + "; " + comment
}
