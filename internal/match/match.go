// Package match selects encoding rules for an operation by its signature: element type, lane count and
// the kind of each requested operand.
//
// Encoders express the forms of an opcode as an ordered list of rules. First tries them top to bottom
// and commits to the first whose signature applies, so an earlier rule wins when two could match.
package match

import (
	"errors"
	"fmt"
	"strings"

	"github.com/qream/qream/ir"
)

// ErrNotMatched is returned when a rule does not apply to an operation. It is recovered by trying
// the next rule and never meant to reach the caller of an encoder.
var ErrNotMatched = errors.New("not matched")

// Signature is what an encoding rule requires of an operation.
type Signature struct {
	Type  ir.ElementType
	Lanes ir.LaneCount
	// Kinds is the required kind of each leading operand. Operands past len(Kinds) are ignored.
	Kinds []ir.Kind
}

// Matches returns true if op has the element type and lane count of the signature, has at least
// len(Kinds) operands, and each of those operands currently holds the requested kind.
func (s *Signature) Matches(op *ir.Operation) bool {
	if op.Type != s.Type || op.LaneCount() != s.Lanes {
		return false
	}
	if op.OperandCount < len(s.Kinds) || len(s.Kinds) > ir.MaxOperands {
		return false
	}
	for i, k := range s.Kinds {
		a := op.Operands[i]
		if a == nil || a.Kind() != k {
			return false
		}
	}
	return true
}

// String implements fmt.Stringer.
func (s *Signature) String() string {
	kinds := make([]string, len(s.Kinds))
	for i, k := range s.Kinds {
		kinds[i] = k.String()
	}
	return fmt.Sprintf("%sx%d(%s)", s.Type, s.Lanes, strings.Join(kinds, ","))
}

// Operand is the set of concrete operand types a rule can extract.
type Operand interface {
	ir.Register | ir.MemoryAddressing | ir.Immediate | ir.Standard
	Kind() ir.Kind
}

// Rule pairs a Signature with a handler writing to a sink of type S.
type Rule[S any] struct {
	Signature Signature
	handle    func(op *ir.Operation, sink S) error
}

// Apply invokes the handler if the signature matches op, otherwise returns ErrNotMatched.
//
// The handler may itself return ErrNotMatched to decline an operand shape it cannot encode; any
// other error is the result of the match.
func (r *Rule[S]) Apply(op *ir.Operation, sink S) error {
	if !r.Signature.Matches(op) {
		return ErrNotMatched
	}
	return r.handle(op, sink)
}

// First applies rules in order and returns the result of the first one that does not return
// ErrNotMatched. ErrNotMatched is returned when none applies.
func First[S any](op *ir.Operation, sink S, rules []Rule[S]) error {
	for i := range rules {
		if err := rules[i].Apply(op, sink); !errors.Is(err, ErrNotMatched) {
			return err
		}
	}
	return ErrNotMatched
}

// Rule0 returns a rule for operations without operand requirements.
func Rule0[S any](typ ir.ElementType, lanes ir.LaneCount, h func(sink S) error) Rule[S] {
	return Rule[S]{
		Signature: Signature{Type: typ, Lanes: lanes},
		handle: func(_ *ir.Operation, sink S) error {
			return h(sink)
		},
	}
}

// Rule1 returns a rule for operations whose first operand is an A.
func Rule1[S any, A Operand](typ ir.ElementType, lanes ir.LaneCount, h func(sink S, a A) error) Rule[S] {
	return Rule[S]{
		Signature: Signature{Type: typ, Lanes: lanes, Kinds: []ir.Kind{kindOf[A]()}},
		handle: func(op *ir.Operation, sink S) error {
			a, ok := op.Operands[0].(A)
			if !ok {
				return ErrNotMatched
			}
			return h(sink, a)
		},
	}
}

// Rule2 returns a rule for operations whose first two operands are an A and a B.
func Rule2[S any, A, B Operand](typ ir.ElementType, lanes ir.LaneCount, h func(sink S, a A, b B) error) Rule[S] {
	return Rule[S]{
		Signature: Signature{Type: typ, Lanes: lanes, Kinds: []ir.Kind{kindOf[A](), kindOf[B]()}},
		handle: func(op *ir.Operation, sink S) error {
			a, okA := op.Operands[0].(A)
			b, okB := op.Operands[1].(B)
			if !okA || !okB {
				return ErrNotMatched
			}
			return h(sink, a, b)
		},
	}
}

// Rule3 returns a rule for operations whose three operands are an A, a B and a C.
func Rule3[S any, A, B, C Operand](typ ir.ElementType, lanes ir.LaneCount, h func(sink S, a A, b B, c C) error) Rule[S] {
	return Rule[S]{
		Signature: Signature{Type: typ, Lanes: lanes, Kinds: []ir.Kind{kindOf[A](), kindOf[B](), kindOf[C]()}},
		handle: func(op *ir.Operation, sink S) error {
			a, okA := op.Operands[0].(A)
			b, okB := op.Operands[1].(B)
			c, okC := op.Operands[2].(C)
			if !okA || !okB || !okC {
				return ErrNotMatched
			}
			return h(sink, a, b, c)
		},
	}
}

func kindOf[A Operand]() ir.Kind {
	var a A
	return a.Kind()
}
