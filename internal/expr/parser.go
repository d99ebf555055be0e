package expr

import (
	"fmt"
	"strconv"
)

// node is a parsed expression tree.
type node interface{}

type (
	litNode struct {
		value any
	}
	identNode struct {
		name string
	}
	selectNode struct {
		base node
		name string
	}
	indexNode struct {
		base  node
		index node
	}
	lenNode struct {
		arg node
	}
	unaryNode struct {
		op  kind
		arg node
	}
	binaryNode struct {
		op    kind
		left  node
		right node
	}
)

type parser struct {
	lex lexer
	cur token
}

// Parse compiles an expression source into a tree.
func Parse(src string) (node, error) {
	p := &parser{lex: lexer{src: src}}
	if err := p.advance(); err != nil {
		return nil, err
	}
	n, err := p.parseBinary(0)
	if err != nil {
		return nil, err
	}
	if p.cur.kind != tokEOF {
		return nil, fmt.Errorf("unexpected %s at offset %d", p.cur.kind, p.cur.off)
	}
	return n, nil
}

func (p *parser) advance() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.cur = t
	return nil
}

func (p *parser) expect(k kind) error {
	if p.cur.kind != k {
		return fmt.Errorf("expected %s, found %s at offset %d", k, p.cur.kind, p.cur.off)
	}
	return p.advance()
}

// precedence per binary operator; 0 means not a binary operator.
func precedence(k kind) int {
	switch k {
	case tokOr:
		return 1
	case tokAnd:
		return 2
	case tokEq, tokNeq:
		return 3
	case tokLt, tokLeq, tokGt, tokGeq:
		return 4
	case tokPlus, tokMinus:
		return 5
	case tokStar, tokSlash, tokPercent:
		return 6
	default:
		return 0
	}
}

func (p *parser) parseBinary(minPrec int) (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op := p.cur.kind
		prec := precedence(op)
		if prec == 0 || prec <= minPrec {
			return left, nil
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseBinary(prec)
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op, left: left, right: right}
	}
}

func (p *parser) parseUnary() (node, error) {
	switch p.cur.kind {
	case tokNot, tokMinus:
		op := p.cur.kind
		if err := p.advance(); err != nil {
			return nil, err
		}
		arg, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return unaryNode{op: op, arg: arg}, nil
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() (node, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.cur.kind {
		case tokDot:
			if err := p.advance(); err != nil {
				return nil, err
			}
			if p.cur.kind != tokIdent {
				return nil, fmt.Errorf("expected field name after '.' at offset %d", p.cur.off)
			}
			base = selectNode{base: base, name: p.cur.text}
			if err := p.advance(); err != nil {
				return nil, err
			}
		case tokLBracket:
			if err := p.advance(); err != nil {
				return nil, err
			}
			idx, err := p.parseBinary(0)
			if err != nil {
				return nil, err
			}
			if err := p.expect(tokRBracket); err != nil {
				return nil, err
			}
			base = indexNode{base: base, index: idx}
		default:
			return base, nil
		}
	}
}

func (p *parser) parsePrimary() (node, error) {
	t := p.cur
	switch t.kind {
	case tokInt:
		v, err := strconv.ParseInt(t.text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad integer literal %q: %w", t.text, err)
		}
		return litNode{value: v}, p.advance()
	case tokFloat:
		v, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, fmt.Errorf("bad float literal %q: %w", t.text, err)
		}
		return litNode{value: v}, p.advance()
	case tokString:
		return litNode{value: t.text}, p.advance()
	case tokIdent:
		switch t.text {
		case "true":
			return litNode{value: true}, p.advance()
		case "false":
			return litNode{value: false}, p.advance()
		case "nil":
			return litNode{value: nil}, p.advance()
		case "len":
			if err := p.advance(); err != nil {
				return nil, err
			}
			if err := p.expect(tokLParen); err != nil {
				return nil, err
			}
			arg, err := p.parseBinary(0)
			if err != nil {
				return nil, err
			}
			if err := p.expect(tokRParen); err != nil {
				return nil, err
			}
			return lenNode{arg: arg}, nil
		}
		return identNode{name: t.text}, p.advance()
	case tokLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		n, err := p.parseBinary(0)
		if err != nil {
			return nil, err
		}
		return n, p.expect(tokRParen)
	default:
		return nil, fmt.Errorf("unexpected %s at offset %d", t.kind, t.off)
	}
}
