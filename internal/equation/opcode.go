package equation

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
)

// Opcode identifies a bytecode instruction.
type Opcode uint8

const (
	OpEnd Opcode = iota
	OpLoad
	OpLoadX
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpPow
	OpNeg

	// functions
	OpSin
	OpCos
	OpTan
	OpAsin
	OpAcos
	OpAtan
	OpSinh
	OpCosh
	OpTanh
	OpSqrt
	OpExp
	OpLn
	OpLog
	OpAbs

	OpStore
	numOpcodes
)

var opNames = [numOpcodes]string{
	OpEnd:   "END",
	OpLoad:  "LOAD",
	OpLoadX: "LOADX",
	OpAdd:   "ADD",
	OpSub:   "SUB",
	OpMul:   "MUL",
	OpDiv:   "DIV",
	OpPow:   "POW",
	OpNeg:   "NEG",
	OpSin:   "SIN",
	OpCos:   "COS",
	OpTan:   "TAN",
	OpAsin:  "ASIN",
	OpAcos:  "ACOS",
	OpAtan:  "ATAN",
	OpSinh:  "SINH",
	OpCosh:  "COSH",
	OpTanh:  "TANH",
	OpSqrt:  "SQRT",
	OpExp:   "EXP",
	OpLn:    "LN",
	OpLog:   "LOG",
	OpAbs:   "ABS",
	OpStore: "STORE",
}

func (op Opcode) String() string {
	if op < numOpcodes {
		return opNames[op]
	}
	return fmt.Sprintf("OP(%d)", uint8(op))
}

// Instruction is a single bytecode instruction. Arg is only meaningful for OpLoad.
type Instruction struct {
	Op  Opcode
	Arg float32
}

// Program is compiled bytecode. It always ends with OpStore, OpEnd.
type Program []Instruction

var errTruncated = errors.New("equation: truncated bytecode")

// MarshalBinary encodes the program as (opcode [float32 LE payload])* END.
func (p Program) MarshalBinary() ([]byte, error) {
	out := make([]byte, 0, len(p)*2)
	for _, in := range p {
		out = append(out, byte(in.Op))
		if in.Op == OpLoad {
			out = binary.LittleEndian.AppendUint32(out, math.Float32bits(in.Arg))
		}
		if in.Op == OpEnd {
			return out, nil
		}
	}
	return append(out, byte(OpEnd)), nil
}

// UnmarshalBinary decodes bytecode produced by MarshalBinary.
func (p *Program) UnmarshalBinary(data []byte) error {
	prog := make(Program, 0, len(data))
	for i := 0; i < len(data); {
		op := Opcode(data[i])
		i++
		in := Instruction{Op: op}
		if op == OpLoad {
			if i+4 > len(data) {
				return errTruncated
			}
			in.Arg = math.Float32frombits(binary.LittleEndian.Uint32(data[i:]))
			i += 4
		}
		prog = append(prog, in)
		if op == OpEnd {
			*p = prog
			return nil
		}
	}
	return errTruncated
}

// Disassemble returns a human-readable listing of the program.
func Disassemble(p Program) string {
	var sb strings.Builder
	for i, in := range p {
		if in.Op == OpLoad {
			fmt.Fprintf(&sb, "%04d  %-6s %g\n", i, in.Op, in.Arg)
			continue
		}
		fmt.Fprintf(&sb, "%04d  %s\n", i, in.Op)
	}
	return sb.String()
}

func (p Program) String() string { return Disassemble(p) }
