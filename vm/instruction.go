package vm

import "fmt"

// Op identifies an instruction's opcode, independent of its operands.
type Op uint8

// The 22 opcodes, numbered exactly as the opcode table in the spec.
const (
	OpHalt Op = iota
	OpSet
	OpPush
	OpPop
	OpEq
	OpGt
	OpJmp
	OpJt
	OpJf
	OpAdd
	OpMult
	OpMod
	OpAnd
	OpOr
	OpNot
	OpRmem
	OpWmem
	OpCall
	OpRet
	OpOut
	OpIn
	OpNoop
)

// Instruction is a tagged instruction variant. Each concrete type fixes its
// own arity and operand typing; the executor switches on concrete type
// rather than inspecting a generic opcode+operand-array shape. The switch is
// not checked for exhaustiveness at compile time: a type with no case falls
// through to the executor's default arm and fails at run time.
type Instruction interface {
	Op() Op
	Arity() int
	String() string
}

type Halt struct{}

func (Halt) Op() Op       { return OpHalt }
func (Halt) Arity() int   { return 0 }
func (Halt) String() string { return "halt" }

type Set struct {
	Dst Reg
	Src Value
}

func (Set) Op() Op     { return OpSet }
func (Set) Arity() int { return 2 }
func (i Set) String() string { return fmt.Sprintf("set  %s, %s", i.Dst, i.Src) }

type Push struct{ Src Value }

func (Push) Op() Op     { return OpPush }
func (Push) Arity() int { return 1 }
func (i Push) String() string { return fmt.Sprintf("push %s", i.Src) }

type Pop struct{ Dst Reg }

func (Pop) Op() Op     { return OpPop }
func (Pop) Arity() int { return 1 }
func (i Pop) String() string { return fmt.Sprintf("pop  %s", i.Dst) }

type Eq struct {
	Dst  Reg
	B, C Value
}

func (Eq) Op() Op     { return OpEq }
func (Eq) Arity() int { return 3 }
func (i Eq) String() string { return fmt.Sprintf("eq   %s, %s, %s", i.Dst, i.B, i.C) }

type Gt struct {
	Dst  Reg
	B, C Value
}

func (Gt) Op() Op     { return OpGt }
func (Gt) Arity() int { return 3 }
func (i Gt) String() string { return fmt.Sprintf("gt   %s, %s, %s", i.Dst, i.B, i.C) }

type Jmp struct{ Target Value }

func (Jmp) Op() Op     { return OpJmp }
func (Jmp) Arity() int { return 1 }
func (i Jmp) String() string { return fmt.Sprintf("jmp  %s", i.Target) }

type Jt struct{ Cond, Target Value }

func (Jt) Op() Op     { return OpJt }
func (Jt) Arity() int { return 2 }
func (i Jt) String() string { return fmt.Sprintf("jt   %s, %s", i.Cond, i.Target) }

type Jf struct{ Cond, Target Value }

func (Jf) Op() Op     { return OpJf }
func (Jf) Arity() int { return 2 }
func (i Jf) String() string { return fmt.Sprintf("jf   %s, %s", i.Cond, i.Target) }

type Add struct {
	Dst  Reg
	B, C Value
}

func (Add) Op() Op     { return OpAdd }
func (Add) Arity() int { return 3 }
func (i Add) String() string { return fmt.Sprintf("add  %s, %s, %s", i.Dst, i.B, i.C) }

type Mult struct {
	Dst  Reg
	B, C Value
}

func (Mult) Op() Op     { return OpMult }
func (Mult) Arity() int { return 3 }
func (i Mult) String() string { return fmt.Sprintf("mult %s, %s, %s", i.Dst, i.B, i.C) }

type Mod struct {
	Dst  Reg
	B, C Value
}

func (Mod) Op() Op     { return OpMod }
func (Mod) Arity() int { return 3 }
func (i Mod) String() string { return fmt.Sprintf("mod  %s, %s, %s", i.Dst, i.B, i.C) }

type And struct {
	Dst  Reg
	B, C Value
}

func (And) Op() Op     { return OpAnd }
func (And) Arity() int { return 3 }
func (i And) String() string { return fmt.Sprintf("and  %s, %s, %s", i.Dst, i.B, i.C) }

type Or struct {
	Dst  Reg
	B, C Value
}

func (Or) Op() Op     { return OpOr }
func (Or) Arity() int { return 3 }
func (i Or) String() string { return fmt.Sprintf("or   %s, %s, %s", i.Dst, i.B, i.C) }

type Not struct {
	Dst Reg
	Src Value
}

func (Not) Op() Op     { return OpNot }
func (Not) Arity() int { return 2 }
func (i Not) String() string { return fmt.Sprintf("not  %s, %s", i.Dst, i.Src) }

type Rmem struct {
	Dst  Reg
	Addr Value
}

func (Rmem) Op() Op     { return OpRmem }
func (Rmem) Arity() int { return 2 }
func (i Rmem) String() string { return fmt.Sprintf("rmem %s, %s", i.Dst, i.Addr) }

type Wmem struct{ Addr, Src Value }

func (Wmem) Op() Op     { return OpWmem }
func (Wmem) Arity() int { return 2 }
func (i Wmem) String() string { return fmt.Sprintf("wmem %s, %s", i.Addr, i.Src) }

type Call struct{ Target Value }

func (Call) Op() Op     { return OpCall }
func (Call) Arity() int { return 1 }
func (i Call) String() string { return fmt.Sprintf("call %s", i.Target) }

type Ret struct{}

func (Ret) Op() Op       { return OpRet }
func (Ret) Arity() int   { return 0 }
func (Ret) String() string { return "ret" }

type Out struct{ Src Value }

func (Out) Op() Op     { return OpOut }
func (Out) Arity() int { return 1 }

// String renders the byte-literal comment policy from the spec: a literal
// operand additionally shows the character it represents.
func (i Out) String() string {
	if !i.Src.IsReg() {
		return fmt.Sprintf("out  %s\t; %s", i.Src, charComment(byte(i.Src.Literal())))
	}
	return fmt.Sprintf("out  %s", i.Src)
}

type In struct{ Dst Reg }

func (In) Op() Op     { return OpIn }
func (In) Arity() int { return 1 }
func (i In) String() string { return fmt.Sprintf("in   %s", i.Dst) }

type Noop struct{}

func (Noop) Op() Op       { return OpNoop }
func (Noop) Arity() int   { return 0 }
func (Noop) String() string { return "noop" }

// charComment formats the character-literal comment the disassembler
// attaches to out with a literal operand: printable bytes render as a
// quoted rune, others as a Go-escaped one (%q handles both).
func charComment(b byte) string {
	return fmt.Sprintf("%q", rune(b))
}

// Decode reads one instruction starting at words[0], consuming 1+Arity()
// words. pc is the address of words[0], used to annotate decode errors.
func Decode(words []uint16, pc uint16) (Instruction, error) {
	if len(words) == 0 {
		return nil, &DecodeError{Kind: UnknownOpcode, PC: pc, Word: 0}
	}
	opWord := words[0]
	need := func(n int) bool { return len(words) > n }

	reg := func(idx int) (Reg, error) {
		if !need(idx) {
			return 0, &DecodeError{Kind: RegisterOutOfRange, PC: pc, Word: 0}
		}
		return DecodeReg(words[idx], pc)
	}
	val := func(idx int) (Value, error) {
		if !need(idx) {
			return Value{}, &DecodeError{Kind: ValueOutOfRange, PC: pc, Word: 0}
		}
		return DecodeValue(words[idx], pc)
	}

	switch opWord {
	case 0:
		return Halt{}, nil
	case 1:
		a, err := reg(1)
		if err != nil {
			return nil, err
		}
		b, err := val(2)
		if err != nil {
			return nil, err
		}
		return Set{Dst: a, Src: b}, nil
	case 2:
		a, err := val(1)
		if err != nil {
			return nil, err
		}
		return Push{Src: a}, nil
	case 3:
		a, err := reg(1)
		if err != nil {
			return nil, err
		}
		return Pop{Dst: a}, nil
	case 4:
		a, err := reg(1)
		if err != nil {
			return nil, err
		}
		b, err := val(2)
		if err != nil {
			return nil, err
		}
		c, err := val(3)
		if err != nil {
			return nil, err
		}
		return Eq{Dst: a, B: b, C: c}, nil
	case 5:
		a, err := reg(1)
		if err != nil {
			return nil, err
		}
		b, err := val(2)
		if err != nil {
			return nil, err
		}
		c, err := val(3)
		if err != nil {
			return nil, err
		}
		return Gt{Dst: a, B: b, C: c}, nil
	case 6:
		a, err := val(1)
		if err != nil {
			return nil, err
		}
		return Jmp{Target: a}, nil
	case 7:
		a, err := val(1)
		if err != nil {
			return nil, err
		}
		b, err := val(2)
		if err != nil {
			return nil, err
		}
		return Jt{Cond: a, Target: b}, nil
	case 8:
		a, err := val(1)
		if err != nil {
			return nil, err
		}
		b, err := val(2)
		if err != nil {
			return nil, err
		}
		return Jf{Cond: a, Target: b}, nil
	case 9:
		a, err := reg(1)
		if err != nil {
			return nil, err
		}
		b, err := val(2)
		if err != nil {
			return nil, err
		}
		c, err := val(3)
		if err != nil {
			return nil, err
		}
		return Add{Dst: a, B: b, C: c}, nil
	case 10:
		a, err := reg(1)
		if err != nil {
			return nil, err
		}
		b, err := val(2)
		if err != nil {
			return nil, err
		}
		c, err := val(3)
		if err != nil {
			return nil, err
		}
		return Mult{Dst: a, B: b, C: c}, nil
	case 11:
		a, err := reg(1)
		if err != nil {
			return nil, err
		}
		b, err := val(2)
		if err != nil {
			return nil, err
		}
		c, err := val(3)
		if err != nil {
			return nil, err
		}
		return Mod{Dst: a, B: b, C: c}, nil
	case 12:
		a, err := reg(1)
		if err != nil {
			return nil, err
		}
		b, err := val(2)
		if err != nil {
			return nil, err
		}
		c, err := val(3)
		if err != nil {
			return nil, err
		}
		return And{Dst: a, B: b, C: c}, nil
	case 13:
		a, err := reg(1)
		if err != nil {
			return nil, err
		}
		b, err := val(2)
		if err != nil {
			return nil, err
		}
		c, err := val(3)
		if err != nil {
			return nil, err
		}
		return Or{Dst: a, B: b, C: c}, nil
	case 14:
		a, err := reg(1)
		if err != nil {
			return nil, err
		}
		b, err := val(2)
		if err != nil {
			return nil, err
		}
		return Not{Dst: a, Src: b}, nil
	case 15:
		a, err := reg(1)
		if err != nil {
			return nil, err
		}
		b, err := val(2)
		if err != nil {
			return nil, err
		}
		return Rmem{Dst: a, Addr: b}, nil
	case 16:
		a, err := val(1)
		if err != nil {
			return nil, err
		}
		b, err := val(2)
		if err != nil {
			return nil, err
		}
		return Wmem{Addr: a, Src: b}, nil
	case 17:
		a, err := val(1)
		if err != nil {
			return nil, err
		}
		return Call{Target: a}, nil
	case 18:
		return Ret{}, nil
	case 19:
		a, err := val(1)
		if err != nil {
			return nil, err
		}
		return Out{Src: a}, nil
	case 20:
		a, err := reg(1)
		if err != nil {
			return nil, err
		}
		return In{Dst: a}, nil
	case 21:
		return Noop{}, nil
	default:
		return nil, &DecodeError{Kind: UnknownOpcode, PC: pc, Word: opWord}
	}
}

// Encode serializes an instruction back to its raw word form: opcode word
// followed by each operand word, in decode order. Used by round-trip
// tests; the disassembler never needs it.
func Encode(instr Instruction) []uint16 {
	reg := func(r Reg) uint16 { return 32768 + uint16(r) }
	val := func(v Value) uint16 {
		if v.IsReg() {
			return 32768 + uint16(v.Reg())
		}
		return v.Literal()
	}

	switch i := instr.(type) {
	case Halt:
		return []uint16{0}
	case Set:
		return []uint16{1, reg(i.Dst), val(i.Src)}
	case Push:
		return []uint16{2, val(i.Src)}
	case Pop:
		return []uint16{3, reg(i.Dst)}
	case Eq:
		return []uint16{4, reg(i.Dst), val(i.B), val(i.C)}
	case Gt:
		return []uint16{5, reg(i.Dst), val(i.B), val(i.C)}
	case Jmp:
		return []uint16{6, val(i.Target)}
	case Jt:
		return []uint16{7, val(i.Cond), val(i.Target)}
	case Jf:
		return []uint16{8, val(i.Cond), val(i.Target)}
	case Add:
		return []uint16{9, reg(i.Dst), val(i.B), val(i.C)}
	case Mult:
		return []uint16{10, reg(i.Dst), val(i.B), val(i.C)}
	case Mod:
		return []uint16{11, reg(i.Dst), val(i.B), val(i.C)}
	case And:
		return []uint16{12, reg(i.Dst), val(i.B), val(i.C)}
	case Or:
		return []uint16{13, reg(i.Dst), val(i.B), val(i.C)}
	case Not:
		return []uint16{14, reg(i.Dst), val(i.Src)}
	case Rmem:
		return []uint16{15, reg(i.Dst), val(i.Addr)}
	case Wmem:
		return []uint16{16, val(i.Addr), val(i.Src)}
	case Call:
		return []uint16{17, val(i.Target)}
	case Ret:
		return []uint16{18}
	case Out:
		return []uint16{19, val(i.Src)}
	case In:
		return []uint16{20, reg(i.Dst)}
	case Noop:
		return []uint16{21}
	default:
		panic(fmt.Sprintf("encode: unhandled instruction type %T", instr))
	}
}
