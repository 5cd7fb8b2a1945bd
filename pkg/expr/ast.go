package expr

import (
	"errors"

	"github.com/aretw0/tapestry/pkg/domain"
)

var (
	// ErrSyntax is returned for spans that cannot be tokenized or parsed.
	ErrSyntax = errors.New("syntax error")

	// ErrUnsupported is returned for well-formed expressions outside the five supported shapes.
	ErrUnsupported = domain.ErrUnsupportedExpression

	// ErrUnknownIdentifier is returned when an identifier names no Variable.
	ErrUnknownIdentifier = errors.New("unknown identifier")

	// ErrUnknownMethod is returned for member calls outside the builtin table.
	ErrUnknownMethod = errors.New("unknown method")

	// ErrTypeMismatch is returned when a comparison mixes incompatible operand types.
	ErrTypeMismatch = errors.New("type mismatch")
)

// Node is a parsed top-level span: *Ident, *MemberCall or *Conditional.
type Node interface {
	node()
}

// Test is the condition of a Conditional: *Ident, *Not or *Compare.
type Test interface {
	test()
}

// Operand is a comparison side or a conditional branch: *Ident or *Literal.
type Operand interface {
	operand()
}

// Ident references a Variable by title.
type Ident struct {
	Name string
}

// MemberCall applies a builtin to a Variable: ident.method().
type MemberCall struct {
	Target *Ident
	Method string
}

// Conditional selects Then or Else: test ? then : else.
type Conditional struct {
	Test Test
	Then Operand
	Else Operand
}

// Not negates the truthiness of a Variable: !ident.
type Not struct {
	X *Ident
}

// Compare is a binary comparison: left OP right.
type Compare struct {
	Left  Operand
	Op    domain.CompareOperator
	Right Operand
}

// LiteralKind is the type of a literal operand.
type LiteralKind int

const (
	LiteralString LiteralKind = iota
	LiteralNumber
	LiteralBool
)

// Literal is a quoted string, number or boolean.
type Literal struct {
	Kind  LiteralKind
	Value string
}

func (*Ident) node()       {}
func (*MemberCall) node()  {}
func (*Conditional) node() {}

func (*Ident) test()   {}
func (*Not) test()     {}
func (*Compare) test() {}

func (*Ident) operand()   {}
func (*Literal) operand() {}
