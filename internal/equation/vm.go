package equation

import (
	"errors"
	"math"
)

// StackSize is the evaluation stack capacity.
const StackSize = 256

var (
	ErrStackUnderflow = errors.New("equation: stack underflow")
	ErrStackOverflow  = errors.New("equation: stack overflow")
	ErrUnknownOpcode  = errors.New("equation: unknown opcode")
	ErrNoResult       = errors.New("equation: program ended without a result")
)

// Execute evaluates p for the free variable x.
// The stack is local to the call, so Execute is safe for concurrent use.
func Execute(p Program, x float64) (float64, error) {
	var stack [StackSize]float64
	sp := 0
	result, stored := 0.0, false

	for _, in := range p {
		switch op := in.Op; {
		case op == OpEnd:
			if !stored {
				return 0, ErrNoResult
			}
			return result, nil

		case op == OpLoad || op == OpLoadX:
			if sp == StackSize {
				return 0, ErrStackOverflow
			}
			if op == OpLoad {
				stack[sp] = float64(in.Arg)
			} else {
				stack[sp] = x
			}
			sp++

		case op >= OpAdd && op <= OpPow:
			if sp < 2 {
				return 0, ErrStackUnderflow
			}
			a, b := stack[sp-2], stack[sp-1]
			sp--
			stack[sp-1] = applyBinary(op, a, b)

		case op >= OpNeg && op <= OpAbs:
			if sp < 1 {
				return 0, ErrStackUnderflow
			}
			stack[sp-1] = applyUnary(op, stack[sp-1])

		case op == OpStore:
			if sp < 1 {
				return 0, ErrStackUnderflow
			}
			sp--
			result, stored = stack[sp], true

		default:
			return 0, ErrUnknownOpcode
		}
	}
	// Missing END: treat the slice end as the terminator.
	if !stored {
		return 0, ErrNoResult
	}
	return result, nil
}

// applyBinary computes a <op> b where b was on top of the stack.
func applyBinary(op Opcode, a, b float64) float64 {
	switch op {
	case OpAdd:
		return a + b
	case OpSub:
		return a - b
	case OpMul:
		return a * b
	case OpDiv:
		return a / b
	default:
		return math.Pow(a, b)
	}
}

func applyUnary(op Opcode, v float64) float64 {
	switch op {
	case OpNeg:
		return -v
	case OpSin:
		return math.Sin(v)
	case OpCos:
		return math.Cos(v)
	case OpTan:
		return math.Tan(v)
	case OpAsin:
		return math.Asin(v)
	case OpAcos:
		return math.Acos(v)
	case OpAtan:
		return math.Atan(v)
	case OpSinh:
		return math.Sinh(v)
	case OpCosh:
		return math.Cosh(v)
	case OpTanh:
		return math.Tanh(v)
	case OpSqrt:
		return math.Sqrt(v)
	case OpExp:
		return math.Exp(v)
	case OpLn:
		return math.Log(v)
	case OpLog:
		return math.Log10(v)
	default:
		return math.Abs(v)
	}
}
