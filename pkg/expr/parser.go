package expr

import (
	"fmt"

	"github.com/aretw0/tapestry/pkg/domain"
)

// Parse turns the inner text of a {...} span into one of the supported node shapes.
// Arithmetic, logical operators, grouping, call arguments and bare literals are rejected
// with ErrUnsupported; malformed input is rejected with ErrSyntax.
func Parse(src string) (Node, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	return p.parseSpan()
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

// expect consumes a token of kind or reports why the input does not fit the grammar.
func (p *parser) expect(kind tokenKind) (token, error) {
	t := p.next()
	if t.kind != kind {
		return t, p.unexpected(t, kind.String())
	}
	return t, nil
}

func (p *parser) unexpected(t token, want string) error {
	switch t.kind {
	case tokArith:
		return fmt.Errorf("%w: arithmetic %q", ErrUnsupported, t.text)
	case tokLogic:
		return fmt.Errorf("%w: logical operator %q", ErrUnsupported, t.text)
	case tokLParen:
		return fmt.Errorf("%w: grouping", ErrUnsupported)
	}
	return fmt.Errorf("%w: expected %s, found %s at %d", ErrSyntax, want, t.kind, t.pos)
}

func (p *parser) parseSpan() (Node, error) {
	if p.peek().kind == tokEOF {
		return nil, fmt.Errorf("%w: empty expression", ErrSyntax)
	}

	term, err := p.parseTerm()
	if err != nil {
		return nil, err
	}

	if p.peek().kind == tokCompare {
		term, err = p.parseCompare(term)
		if err != nil {
			return nil, err
		}
	}

	if p.peek().kind == tokQuestion {
		p.next()
		return p.parseConditional(term)
	}

	if t := p.peek(); t.kind != tokEOF {
		return nil, p.unexpected(t, "end of expression")
	}

	switch n := term.(type) {
	case *Ident:
		return n, nil
	case *MemberCall:
		return n, nil
	case *Literal:
		return nil, fmt.Errorf("%w: bare literal", ErrUnsupported)
	case *Not:
		return nil, fmt.Errorf("%w: negation outside a conditional", ErrUnsupported)
	case *Compare:
		return nil, fmt.Errorf("%w: comparison outside a conditional", ErrUnsupported)
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupported, term)
}

func (p *parser) parseCompare(left any) (any, error) {
	opTok := p.next()
	l, ok := left.(Operand)
	if !ok {
		return nil, fmt.Errorf("%w: %T as comparison operand", ErrUnsupported, left)
	}

	rightTerm, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	r, ok := rightTerm.(Operand)
	if !ok {
		return nil, fmt.Errorf("%w: %T as comparison operand", ErrUnsupported, rightTerm)
	}

	op, err := compareOperator(opTok.text)
	if err != nil {
		return nil, err
	}
	return &Compare{Left: l, Op: op, Right: r}, nil
}

func (p *parser) parseConditional(term any) (Node, error) {
	test, ok := term.(Test)
	if !ok {
		return nil, fmt.Errorf("%w: %T as conditional test", ErrUnsupported, term)
	}

	then, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokColon); err != nil {
		return nil, err
	}
	els, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokEOF); err != nil {
		return nil, err
	}
	return &Conditional{Test: test, Then: then, Else: els}, nil
}

func (p *parser) parseOperand() (Operand, error) {
	term, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	op, ok := term.(Operand)
	if !ok {
		return nil, fmt.Errorf("%w: %T as conditional branch", ErrUnsupported, term)
	}
	return op, nil
}

// parseTerm reads one of: ident, ident.method(), !ident, literal.
func (p *parser) parseTerm() (any, error) {
	t := p.next()
	switch t.kind {
	case tokIdent:
		ident := &Ident{Name: t.text}
		if p.peek().kind != tokDot {
			return ident, nil
		}
		return p.parseMemberCall(ident)

	case tokBang:
		x := p.next()
		if x.kind != tokIdent {
			return nil, fmt.Errorf("%w: negation of %s", ErrUnsupported, x.kind)
		}
		if p.peek().kind == tokDot {
			return nil, fmt.Errorf("%w: negated member call", ErrUnsupported)
		}
		return &Not{X: &Ident{Name: x.text}}, nil

	case tokNumber:
		return &Literal{Kind: LiteralNumber, Value: t.text}, nil
	case tokString:
		return &Literal{Kind: LiteralString, Value: t.text}, nil
	case tokBool:
		return &Literal{Kind: LiteralBool, Value: t.text}, nil
	}
	return nil, p.unexpected(t, "identifier or literal")
}

func (p *parser) parseMemberCall(target *Ident) (any, error) {
	p.next() // '.'
	method, err := p.expect(tokIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokLParen); err != nil {
		return nil, err
	}
	if p.peek().kind != tokRParen {
		return nil, fmt.Errorf("%w: arguments to %s()", ErrUnsupported, method.text)
	}
	p.next()
	if p.peek().kind == tokDot {
		return nil, fmt.Errorf("%w: chained member call", ErrUnsupported)
	}
	return &MemberCall{Target: target, Method: method.text}, nil
}

func compareOperator(text string) (domain.CompareOperator, error) {
	switch text {
	case "==":
		return domain.CompareEqual, nil
	case "!=":
		return domain.CompareNotEqual, nil
	case ">":
		return domain.CompareGreater, nil
	case ">=":
		return domain.CompareGreaterOrEqual, nil
	case "<":
		return domain.CompareLess, nil
	case "<=":
		return domain.CompareLessOrEqual, nil
	}
	return "", fmt.Errorf("%w: operator %q", ErrSyntax, text)
}
