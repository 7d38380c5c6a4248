// Package equation compiles textual curve equations over the free variable x
// into a small stack bytecode and evaluates it.
package equation

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrEmpty             = errors.New("empty expression")
	ErrUnmatchedParen    = errors.New("unmatched parenthesis")
	ErrOperandExpected   = errors.New("operand expected")
	ErrOperatorExpected  = errors.New("operator expected")
	ErrUnknownToken      = errors.New("unknown token")
	ErrMissingTerminator = errors.New("missing ';' terminator")
)

// SyntaxError reports where compilation stopped.
type SyntaxError struct {
	Offset int
	Err    error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("equation: %v at offset %d", e.Err, e.Offset)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

var functions = map[string]Opcode{
	"sin":  OpSin,
	"cos":  OpCos,
	"tan":  OpTan,
	"asin": OpAsin,
	"acos": OpAcos,
	"atan": OpAtan,
	"sinh": OpSinh,
	"cosh": OpCosh,
	"tanh": OpTanh,
	"sqrt": OpSqrt,
	"exp":  OpExp,
	"ln":   OpLn,
	"log":  OpLog,
	"abs":  OpAbs,
}

type entryKind uint8

const (
	kindBinary entryKind = iota
	kindOpen
	kindFunc
)

// stackEntry is an operator-stack element. neg marks a folded leading sign
// to be emitted as OpNeg once the group or call is complete.
type stackEntry struct {
	kind entryKind
	op   Opcode
	prec int
	neg  bool
}

func precedence(c byte) (Opcode, int) {
	switch c {
	case '+':
		return OpAdd, 1
	case '-':
		return OpSub, 1
	case '*':
		return OpMul, 2
	case '/':
		return OpDiv, 2
	default:
		return OpPow, 3
	}
}

type compiler struct {
	src  string
	pos  int
	out  Program
	ops  []stackEntry
	neg  bool
	want bool // operand expected
}

// Compile turns an infix expression terminated by ';' into bytecode.
// Operators of equal precedence associate left to right, including '^'.
func Compile(expr string) (Program, error) {
	c := &compiler{src: expr, want: true}
	for {
		c.skipSpace()
		if c.pos >= len(c.src) {
			if len(c.out) == 0 && len(c.ops) == 0 {
				return nil, c.fail(ErrEmpty)
			}
			return nil, c.fail(ErrMissingTerminator)
		}
		ch := c.src[c.pos]
		if ch == ';' {
			return c.finish()
		}
		var err error
		if c.want {
			err = c.operand(ch)
		} else {
			err = c.operator(ch)
		}
		if err != nil {
			return nil, err
		}
	}
}

// MustCompile is like Compile but panics on error.
func MustCompile(expr string) Program {
	p, err := Compile(expr)
	if err != nil {
		panic(err)
	}
	return p
}

func (c *compiler) fail(err error) error {
	return &SyntaxError{Offset: c.pos, Err: err}
}

func (c *compiler) skipSpace() {
	for c.pos < len(c.src) {
		switch c.src[c.pos] {
		case ' ', '\t', '\n', '\r':
			c.pos++
		default:
			return
		}
	}
}

func (c *compiler) emit(op Opcode) { c.out = append(c.out, Instruction{Op: op}) }

func (c *compiler) emitNeg(neg bool) {
	if neg {
		c.emit(OpNeg)
	}
}

func (c *compiler) operand(ch byte) error {
	switch {
	case ch == '+' || ch == '-':
		if ch == '-' {
			c.neg = !c.neg
		}
		c.pos++
	case isDigit(ch) || ch == '.':
		v, err := c.number()
		if err != nil {
			return err
		}
		if c.neg {
			v = -v
		}
		c.out = append(c.out, Instruction{Op: OpLoad, Arg: float32(v)})
		c.neg, c.want = false, false
	case isLetter(ch):
		start := c.pos
		for c.pos < len(c.src) && isLetter(c.src[c.pos]) {
			c.pos++
		}
		name := c.src[start:c.pos]
		if name == "x" {
			c.emit(OpLoadX)
			c.emitNeg(c.neg)
			c.neg, c.want = false, false
			return nil
		}
		op, ok := functions[name]
		if !ok {
			c.pos = start
			return c.fail(ErrUnknownToken)
		}
		c.skipSpace()
		if c.pos >= len(c.src) || c.src[c.pos] != '(' {
			return c.fail(ErrUnknownToken)
		}
		c.pos++
		c.ops = append(c.ops, stackEntry{kind: kindFunc, op: op, neg: c.neg}, stackEntry{kind: kindOpen})
		c.neg = false
	case ch == '(':
		c.pos++
		c.ops = append(c.ops, stackEntry{kind: kindOpen, neg: c.neg})
		c.neg = false
	case ch == '*' || ch == '/' || ch == '^' || ch == ')':
		return c.fail(ErrOperandExpected)
	default:
		return c.fail(ErrUnknownToken)
	}
	return nil
}

func (c *compiler) operator(ch byte) error {
	switch {
	case ch == '+' || ch == '-' || ch == '*' || ch == '/' || ch == '^':
		op, prec := precedence(ch)
		for n := len(c.ops); n > 0; n = len(c.ops) {
			top := c.ops[n-1]
			if top.kind != kindBinary || top.prec < prec {
				break
			}
			c.emit(top.op)
			c.ops = c.ops[:n-1]
		}
		c.ops = append(c.ops, stackEntry{kind: kindBinary, op: op, prec: prec})
		c.pos++
		c.want = true
	case ch == ')':
		if err := c.closeParen(); err != nil {
			return err
		}
		c.pos++
	case isDigit(ch) || ch == '.' || isLetter(ch) || ch == '(':
		return c.fail(ErrOperatorExpected)
	default:
		return c.fail(ErrUnknownToken)
	}
	return nil
}

func (c *compiler) closeParen() error {
	for n := len(c.ops); n > 0; n = len(c.ops) {
		top := c.ops[n-1]
		c.ops = c.ops[:n-1]
		if top.kind == kindBinary {
			c.emit(top.op)
			continue
		}
		c.emitNeg(top.neg)
		if n := len(c.ops); n > 0 && c.ops[n-1].kind == kindFunc {
			fn := c.ops[n-1]
			c.ops = c.ops[:n-1]
			c.emit(fn.op)
			c.emitNeg(fn.neg)
		}
		return nil
	}
	return c.fail(ErrUnmatchedParen)
}

func (c *compiler) finish() (Program, error) {
	if c.want {
		if len(c.out) == 0 && len(c.ops) == 0 {
			return nil, c.fail(ErrEmpty)
		}
		return nil, c.fail(ErrOperandExpected)
	}
	for n := len(c.ops); n > 0; n = len(c.ops) {
		top := c.ops[n-1]
		if top.kind != kindBinary {
			return nil, c.fail(ErrUnmatchedParen)
		}
		c.emit(top.op)
		c.ops = c.ops[:n-1]
	}
	c.emit(OpStore)
	c.emit(OpEnd)
	return c.out, nil
}

func (c *compiler) number() (float64, error) {
	start := c.pos
	for c.pos < len(c.src) && (isDigit(c.src[c.pos]) || c.src[c.pos] == '.') {
		c.pos++
	}
	if c.pos < len(c.src) && (c.src[c.pos] == 'e' || c.src[c.pos] == 'E') {
		p := c.pos + 1
		if p < len(c.src) && (c.src[p] == '+' || c.src[p] == '-') {
			p++
		}
		if p < len(c.src) && isDigit(c.src[p]) {
			for p < len(c.src) && isDigit(c.src[p]) {
				p++
			}
			c.pos = p
		}
	}
	v, err := strconv.ParseFloat(c.src[start:c.pos], 64)
	if err != nil {
		c.pos = start
		return 0, c.fail(ErrUnknownToken)
	}
	return v, nil
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' }
