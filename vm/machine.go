package vm

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// Modulus is M, the modulus all arithmetic instructions reduce into.
const Modulus = 1 << 15

// Mask is K, the 15-bit mask used by not.
const Mask = Modulus - 1

// Machine holds the full state of one VM instance: registers, stack,
// memory, program counter, the input pipeline, and the optional
// trace/watch ambient facilities described in the spec's machine-core
// section. Construct with NewMachine; zero-value Machine is not usable.
type Machine struct {
	registers [NumRegisters]uint16
	stack     []uint16
	mem       []uint16
	pc        uint16

	script *Script

	stdout io.Writer
	stdin  io.ByteReader

	trace     *bufio.Writer
	traceFile *os.File

	watches map[uint16]string

	inputLog        []byte
	teleporterValue *uint16
	onTeleporter    func()
}

// Option configures a Machine at construction time.
type Option func(*Machine)

// WithScript pre-loads a script the in instruction drains before falling
// back to interactive input.
func WithScript(script *Script) Option {
	return func(m *Machine) { m.script = script }
}

// WithStdout overrides the console output sink (default os.Stdout).
func WithStdout(w io.Writer) Option {
	return func(m *Machine) { m.stdout = w }
}

// WithStdin overrides the interactive input source (default os.Stdin).
func WithStdin(r io.ByteReader) Option {
	return func(m *Machine) { m.stdin = r }
}

// WithTraceFile opens path for truncate-write and buffers a trace sink on
// it. Every decoded instruction is written as one line before it runs.
func WithTraceFile(path string) (Option, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	return func(m *Machine) {
		m.traceFile = f
		m.trace = bufio.NewWriter(f)
	}, nil
}

// WithWatch registers a named watch on addr: rmem/wmem against it print a
// DEBUG line.
func WithWatch(addr uint16, name string) Option {
	return func(m *Machine) {
		if m.watches == nil {
			m.watches = make(map[uint16]string)
		}
		m.watches[addr] = name
	}
}

// WithTeleporterValue sets the register-7 value installed when the
// teleporter phrase is detected in interactive input (see In).
func WithTeleporterValue(v uint16) Option {
	return func(m *Machine) { m.teleporterValue = &v }
}

// WithOnTeleporter registers a callback invoked (after register 7 is set)
// when the teleporter phrase is detected, e.g. to log it to a trace.
func WithOnTeleporter(fn func()) Option {
	return func(m *Machine) { m.onTeleporter = fn }
}

// NewMachine builds a Machine over the given initial memory image. mem is
// copied; writes to the returned Machine never alias the caller's slice.
func NewMachine(mem []uint16, opts ...Option) *Machine {
	m := &Machine{
		mem:    append([]uint16(nil), mem...),
		stdout: os.Stdout,
		stdin:  bufio.NewReader(os.Stdin),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Close flushes and closes the trace sink, if any. Safe to call on a
// Machine with no trace configured.
func (m *Machine) Close() error {
	if m.trace == nil {
		return nil
	}
	if err := m.trace.Flush(); err != nil {
		return err
	}
	return m.traceFile.Close()
}

// PC returns the current program counter.
func (m *Machine) PC() uint16 { return m.pc }

// Registers returns a copy of the register file.
func (m *Machine) Registers() [NumRegisters]uint16 { return m.registers }

// SetRegister writes reg directly, bypassing instruction execution. Used
// by drivers to pre-seed register 7 in "hack" mode.
func (m *Machine) SetRegister(reg Reg, v uint16) { m.registers[reg] = v }

// Mem returns the live memory slice. Mutating it mutates the machine.
func (m *Machine) Mem() []uint16 { return m.mem }

// Poke overwrites words starting at addr, growing memory if needed. It is
// the generic primitive a driver's "hack" mode uses to patch a verification
// routine once the disassembler and annotations have located it; the core
// has no opinion about which address that is.
func (m *Machine) Poke(addr uint16, words ...uint16) {
	end := int(addr) + len(words)
	if end > len(m.mem) {
		grown := make([]uint16, end)
		copy(grown, m.mem)
		m.mem = grown
	}
	copy(m.mem[addr:], words)
}

func (m *Machine) read(addr uint16) uint16 {
	if int(addr) >= len(m.mem) {
		return 0
	}
	return m.mem[addr]
}

func (m *Machine) write(addr uint16, v uint16) {
	if int(addr) >= len(m.mem) {
		// Grow to addr+1 so a write to a fresh address is correct in the
		// general case (the original image grows to addr-1, which only
		// works because its own writes never outrun the loaded image).
		grown := make([]uint16, int(addr)+1)
		copy(grown, m.mem)
		m.mem = grown
	}
	m.mem[addr] = v
}

func (m *Machine) val(v Value) uint16 { return v.Read(&m.registers) }

func (m *Machine) traceLine(format string, args ...interface{}) {
	if m.trace == nil {
		return
	}
	fmt.Fprintf(m.trace, format, args...)
	m.trace.WriteByte('\n')
}

func (m *Machine) setReg(reg Reg, v uint16) {
	m.traceLine("; set r%d = %d", reg, v)
	m.registers[reg] = v
}

func (m *Machine) watchRead(addr uint16, v uint16) {
	if name, ok := m.watches[addr]; ok {
		fmt.Fprintf(m.stdout, "DEBUG: read %s addr %d = %d\n", name, addr, v)
	}
}

func (m *Machine) watchWrite(addr uint16, v uint16) {
	if name, ok := m.watches[addr]; ok {
		fmt.Fprintf(m.stdout, "DEBUG: write %s addr %d = %d\n", name, addr, v)
	}
}

// Step decodes and executes exactly one instruction. It returns ErrHalted
// when the instruction was halt or a ret against an empty stack; any other
// non-nil error is fatal and the caller should stop.
func (m *Machine) Step() error {
	instr, err := Decode(m.mem[m.pc:], m.pc)
	if err != nil {
		return err
	}
	nextPC := m.pc + 1 + uint16(instr.Arity())

	m.traceLine("%s", instr)

	jumped, err := m.apply(instr)
	if err != nil {
		return err
	}
	if !jumped {
		m.pc = nextPC
	}
	return nil
}

// Run drives Step until a fatal error or ErrHalted, flushing the trace sink
// before returning. ErrHalted is not reported as an error: it is the
// program's normal exit.
func (m *Machine) Run() error {
	defer m.Close()
	for {
		if err := m.Step(); err != nil {
			if err == ErrHalted {
				return nil
			}
			return err
		}
	}
}

// apply executes instr, returning whether it set the program counter
// itself (true) or left advancing it to the caller (false).
func (m *Machine) apply(instr Instruction) (jumped bool, err error) {
	switch i := instr.(type) {
	case Halt:
		return false, ErrHalted

	case Set:
		m.setReg(i.Dst, m.val(i.Src))
		return false, nil

	case Push:
		m.stack = append(m.stack, m.val(i.Src))
		return false, nil

	case Pop:
		if len(m.stack) == 0 {
			return false, ErrEmptyStackPop
		}
		top := m.stack[len(m.stack)-1]
		m.stack = m.stack[:len(m.stack)-1]
		m.setReg(i.Dst, top)
		return false, nil

	case Eq:
		m.setReg(i.Dst, boolWord(m.val(i.B) == m.val(i.C)))
		return false, nil

	case Gt:
		m.setReg(i.Dst, boolWord(m.val(i.B) > m.val(i.C)))
		return false, nil

	case Jmp:
		m.pc = m.val(i.Target)
		return true, nil

	case Jt:
		if m.val(i.Cond) != 0 {
			m.pc = m.val(i.Target)
			return true, nil
		}
		return false, nil

	case Jf:
		if m.val(i.Cond) == 0 {
			m.pc = m.val(i.Target)
			return true, nil
		}
		return false, nil

	case Add:
		m.setReg(i.Dst, uint16((uint32(m.val(i.B))+uint32(m.val(i.C)))%Modulus))
		return false, nil

	case Mult:
		m.setReg(i.Dst, uint16((uint32(m.val(i.B))*uint32(m.val(i.C)))%Modulus))
		return false, nil

	case Mod:
		divisor := m.val(i.C)
		if divisor == 0 {
			return false, ErrDivideByZero
		}
		m.setReg(i.Dst, m.val(i.B)%divisor)
		return false, nil

	case And:
		m.setReg(i.Dst, m.val(i.B)&m.val(i.C))
		return false, nil

	case Or:
		m.setReg(i.Dst, m.val(i.B)|m.val(i.C))
		return false, nil

	case Not:
		m.setReg(i.Dst, Mask^m.val(i.Src))
		return false, nil

	case Rmem:
		addr := m.val(i.Addr)
		v := m.read(addr)
		m.setReg(i.Dst, v)
		m.watchRead(addr, v)
		return false, nil

	case Wmem:
		addr := m.val(i.Addr)
		v := m.val(i.Src)
		m.write(addr, v)
		m.watchWrite(addr, v)
		return false, nil

	case Call:
		ret := m.pc + 2
		m.stack = append(m.stack, ret)
		target := m.val(i.Target)
		if i.Target.IsReg() {
			m.traceLine("; register %s = 0x%04x", i.Target, target)
		}
		m.pc = target
		return true, nil

	case Ret:
		if len(m.stack) == 0 {
			return false, ErrHalted
		}
		top := m.stack[len(m.stack)-1]
		m.stack = m.stack[:len(m.stack)-1]
		m.pc = top
		return true, nil

	case Out:
		fmt.Fprintf(m.stdout, "%c", byte(m.val(i.Src)))
		return false, nil

	case In:
		return false, m.in(i.Dst)

	case Noop:
		return false, nil

	default:
		return false, fmt.Errorf("apply: unhandled instruction type %T", instr)
	}
}

func boolWord(b bool) uint16 {
	if b {
		return 1
	}
	return 0
}
