package vm

import "fmt"

// teleporterPhrase is the exact byte sequence whose appearance at the tail
// of the interactive input stream triggers the register-7 override.
const teleporterPhrase = "use teleporter\n"

// Script is an immutable pre-programmed input stream with a read cursor,
// consumed by the in instruction before it falls back to interactive input.
// Comment lines (those starting with "//") are dropped whole, including
// their trailing newline; every other line is preserved verbatim.
type Script struct {
	data   []byte
	cursor int
}

// NewScript builds a Script from raw, already-comment-filtered bytes.
func NewScript(data []byte) *Script {
	return &Script{data: data}
}

// NewScriptFromLines flattens lines (as produced by splitting a script
// file on newlines, without the trailing newline) into a Script, dropping
// any line whose first two bytes are "//" and restoring a trailing newline
// on every kept line.
func NewScriptFromLines(lines []string) *Script {
	var data []byte
	for _, line := range lines {
		if len(line) >= 2 && line[0] == '/' && line[1] == '/' {
			continue
		}
		data = append(data, line...)
		data = append(data, '\n')
	}
	return NewScript(data)
}

// next returns the next script byte and true, or 0 and false if the script
// is exhausted.
func (s *Script) next() (byte, bool) {
	if s == nil || s.cursor >= len(s.data) {
		return 0, false
	}
	b := s.data[s.cursor]
	s.cursor++
	return b, true
}

// in implements the in dst instruction: drain the script first, then block
// on interactive input, checking for the teleporter phrase on every
// interactive byte.
func (m *Machine) in(dst Reg) error {
	if b, ok := m.script.next(); ok {
		m.setReg(dst, uint16(b))
		fmt.Fprintf(m.stdout, "%c", b)
		return nil
	}

	b, err := m.stdin.ReadByte()
	if err != nil {
		return fmt.Errorf("reading interactive input: %w", err)
	}

	m.inputLog = append(m.inputLog, b)
	if tail := lastBytes(m.inputLog, len(teleporterPhrase)); string(tail) == teleporterPhrase {
		if m.teleporterValue != nil {
			m.setReg(7, *m.teleporterValue)
		}
		m.traceLine(";; USING TELEPORTER")
		if m.onTeleporter != nil {
			m.onTeleporter()
		}
	}

	m.setReg(dst, uint16(b))
	return nil
}

func lastBytes(b []byte, n int) []byte {
	if len(b) < n {
		return nil
	}
	return b[len(b)-n:]
}
