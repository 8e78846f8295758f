package formula

import (
	"fmt"
)

// Limits bound the size of a formula
type Limits struct {
	MaxLength int
	MaxDepth  int
}

// DefaultLimits returns the limits used by Compile
func DefaultLimits() Limits {
	return Limits{MaxLength: 512, MaxDepth: 32}
}

// parser is a recursive-descent parser for
//
//	expr    := term (('+' | '-') term)*
//	term    := unary (('*' | '/') unary)*
//	unary   := ('-' | '+') unary | primary
//	primary := number | identifier | '(' expr ')'
type parser struct {
	tokens   []token
	pos      int
	depth    int
	maxDepth int
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) enter(pos int) error {
	p.depth++
	if p.depth > p.maxDepth {
		return fmt.Errorf("expression nested deeper than %d at %d", p.maxDepth, pos)
	}
	return nil
}

func (p *parser) leave() {
	p.depth--
}

func (p *parser) parse() (node, error) {
	n, err := p.expr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, fmt.Errorf("unexpected %s %q at %d", t.kind, t.text, t.pos)
	}
	return n, nil
}

func (p *parser) expr() (node, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind != tokPlus && t.kind != tokMinus {
			return left, nil
		}
		p.next()
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: t.kind, left: left, right: right, pos: t.pos}
	}
}

func (p *parser) term() (node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind != tokStar && t.kind != tokSlash {
			return left, nil
		}
		p.next()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: t.kind, left: left, right: right, pos: t.pos}
	}
}

func (p *parser) unary() (node, error) {
	t := p.peek()
	if t.kind != tokMinus && t.kind != tokPlus {
		return p.primary()
	}
	p.next()
	if err := p.enter(t.pos); err != nil {
		return nil, err
	}
	defer p.leave()

	operand, err := p.unary()
	if err != nil {
		return nil, err
	}
	if t.kind == tokMinus {
		return negateNode{operand: operand}, nil
	}
	return operand, nil
}

func (p *parser) primary() (node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return numberNode{value: t.num}, nil
	case tokIdent:
		v, ok := lookupVariable(t.text)
		if !ok {
			return nil, fmt.Errorf("unknown identifier %q at %d", t.text, t.pos)
		}
		return variableNode{name: v}, nil
	case tokLParen:
		if err := p.enter(t.pos); err != nil {
			return nil, err
		}
		defer p.leave()

		inner, err := p.expr()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return nil, fmt.Errorf("expected ')' at %d, found %s", closing.pos, closing.kind)
		}
		return inner, nil
	}
	return nil, fmt.Errorf("unexpected %s at %d", t.kind, t.pos)
}
