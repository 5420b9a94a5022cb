// Package parse implements the operator-priority term parser: recursive
// descent over the token stream with single-token lookahead (plus one
// token of pushback for the prefix-operator/functor disambiguation),
// disambiguating atom, functor application, prefix-operator application,
// and bare operator-as-argument by priority.
//
// Grounded on cbarrick-ripl's lang/parse.Parser (the buffered-lookahead
// shape: a scanner wrapped by a single pending token, advanced by a
// private next method) and on original_source/src/pq_parser.c's
// pq_parser_operand_or_arg_list, which is the authority for the
// comma-lookahead disambiguation between a prefix operator applied to a
// parenthesized operand and a functor call's first argument.
package parse

import (
	"github.com/cbarrick/poqer/oper"
	"github.com/cbarrick/poqer/scan"
	"github.com/cbarrick/poqer/term"
	"github.com/cbarrick/poqer/token"
	"github.com/cbarrick/poqer/tree"
)

// Parser reads terms from a buffer, one clause at a time, against an
// operator table.
type Parser struct {
	sc    *scan.Scanner
	ops   *oper.Table
	tok   token.Token
	ahead *token.Token
	tr    *tree.Tree
}

// NewParser constructs a Parser against ops. A nil ops uses the built-in
// operator table returned by oper.Default.
func NewParser(ops *oper.Table) *Parser {
	if ops == nil {
		ops = oper.Default()
	}
	return &Parser{sc: scan.New(), ops: ops, tr: tree.New()}
}

// SetBuffer resets the parser onto src, discarding any partially read
// clause and lookahead.
func (p *Parser) SetBuffer(src []byte) error {
	p.sc.SetBuffer(src)
	p.ahead = nil
	return p.advance()
}

// Tree returns the tree accumulated by prior ReadTerm calls.
func (p *Parser) Tree() *tree.Tree { return p.tr }

// AtEOF reports whether the next token is the end of input.
func (p *Parser) AtEOF() bool { return p.tok.Type == token.EOF }

func (p *Parser) advance() error {
	if p.ahead != nil {
		p.tok = *p.ahead
		p.ahead = nil
		return nil
	}
	tok, err := p.sc.NextToken()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *Parser) peek() (token.Token, error) {
	if p.ahead == nil {
		tok, err := p.sc.NextToken()
		if err != nil {
			return token.Token{}, err
		}
		p.ahead = &tok
	}
	return *p.ahead, nil
}

// ReadTerm parses one clause: term(1200) followed by END. The parsed term
// is attached as a new rightmost root of Tree.
func (p *Parser) ReadTerm() (term.Term, error) {
	t, err := p.term(term.MaxPriority)
	if err != nil {
		return term.Term{}, err
	}
	if p.tok.Type != token.END {
		return term.Term{}, p.expected("the end of a clause")
	}
	if err := p.advance(); err != nil {
		return term.Term{}, err
	}
	p.tr.AddRightChild(t)
	return t, nil
}

// ParseAll reads clauses until end of input, stopping at the first error.
func (p *Parser) ParseAll() (*tree.Tree, error) {
	for !p.AtEOF() {
		if _, err := p.ReadTerm(); err != nil {
			return nil, err
		}
	}
	return p.tr, nil
}

// term parses a term whose priority may not exceed maxPriority.
func (p *Parser) term(maxPriority int) (term.Term, error) {
	if p.tok.Type == token.NAME && p.ops.IsPrefixOperator(p.tok.Text) {
		return p.prefixOrFunctorOrAtom(maxPriority)
	}
	left, err := p.primary()
	if err != nil {
		return term.Term{}, err
	}
	return p.infixPostfixTail(left, maxPriority)
}

// prefixOrFunctorOrAtom handles a lookahead NAME known to be a prefix
// operator. It disambiguates among three readings: a functor call (name
// directly followed by '(' and two or more comma-separated arguments),
// the operator applied to a right operand (a single parenthesized term
// counts as the operand), or the name standing alone as a bare operator
// atom. An empty "()" after the name is a syntax error.
func (p *Parser) prefixOrFunctorOrAtom(maxPriority int) (term.Term, error) {
	name := p.tok.Text
	op, _ := prefixOpOf(p.ops, name)

	next, err := p.peek()
	if err != nil {
		return term.Term{}, err
	}

	switch {
	case next.Type == token.LPAR:
		if err := p.advance(); err != nil { // consume NAME, lookahead becomes LPAR
			return term.Term{}, err
		}
		if err := p.advance(); err != nil { // consume LPAR
			return term.Term{}, err
		}
		// The first term is read as an argument (priority 999) so that a
		// following comma separates arguments instead of being read as the
		// ','/2 operator.
		first, err := p.arg()
		if err != nil {
			return term.Term{}, err
		}
		if p.tok.Type == token.COMMA {
			args, err := p.restOfArgList(first)
			if err != nil {
				return term.Term{}, err
			}
			if p.tok.Type != token.RPAR {
				return term.Term{}, p.expected("a closing parenthesis")
			}
			if err := p.advance(); err != nil {
				return term.Term{}, err
			}
			fn := term.Functor(name, 0, args...)
			return p.infixPostfixTail(fn, maxPriority)
		}
		first, err = p.infixPostfixTail(first, term.ArgPriority)
		if err != nil {
			return term.Term{}, err
		}
		if p.tok.Type != token.RPAR {
			return term.Term{}, p.expected("a closing parenthesis")
		}
		if err := p.advance(); err != nil {
			return term.Term{}, err
		}
		result := foldOrWrap(name, op, term.Reset(first))
		if result.Priority() > maxPriority {
			return term.Term{}, p.priorityErr(name)
		}
		return p.infixPostfixTail(result, maxPriority)

	case isTermStarter(next.Type) && op.Prec <= maxPriority:
		if err := p.advance(); err != nil { // consume NAME
			return term.Term{}, err
		}
		bound := op.Prec
		if op.Spec == term.FX {
			bound--
		}
		operand, err := p.term(bound)
		if err != nil {
			return term.Term{}, err
		}
		result := foldOrWrap(name, op, operand)
		return p.infixPostfixTail(result, maxPriority)

	default:
		if err := p.advance(); err != nil { // consume NAME
			return term.Term{}, err
		}
		atom := term.OperatorAtom(name, op.Spec)
		return p.infixPostfixTail(atom, maxPriority)
	}
}

// foldOrWrap builds the term for a prefix operator applied to operand,
// folding "-" applied directly to a numeric literal into a negative
// literal rather than a compound term.
func foldOrWrap(name string, op oper.Op, operand term.Term) term.Term {
	if name == "-" {
		switch operand.Kind {
		case term.IntegerKind:
			return term.Integer(-operand.Int)
		case term.FloatKind:
			return term.Float(-operand.Float)
		}
	}
	return term.Functor(name, op.Prec, operand)
}

// infixPostfixTail repeatedly extends left with infix and postfix
// operators whose priority fits within maxPriority and whose associativity
// accepts left's priority, until no such operator is found.
func (p *Parser) infixPostfixTail(left term.Term, maxPriority int) (term.Term, error) {
	for {
		// The scanner emits ',' as a COMMA token; it is still looked up
		// as the ','/2 operator.
		if p.tok.Type != token.NAME && p.tok.Type != token.COMMA {
			return left, nil
		}
		name := p.tok.Text

		var applied bool
		for _, op := range p.ops.Get(name) {
			if op.Prec > maxPriority {
				continue
			}
			switch {
			case op.Spec.Infix():
				leftBound, rightBound := op.Prec-1, op.Prec-1
				if op.Spec == term.YFX {
					leftBound = op.Prec
				}
				if op.Spec == term.XFY {
					rightBound = op.Prec
				}
				if left.Priority() > leftBound {
					continue
				}
				if err := p.advance(); err != nil {
					return term.Term{}, err
				}
				right, err := p.term(rightBound)
				if err != nil {
					return term.Term{}, err
				}
				left = term.Functor(name, op.Prec, left, right)
				applied = true

			case op.Spec.Postfix():
				leftBound := op.Prec - 1
				if op.Spec == term.YF {
					leftBound = op.Prec
				}
				if left.Priority() > leftBound {
					continue
				}
				if err := p.advance(); err != nil {
					return term.Term{}, err
				}
				left = term.Functor(name, op.Prec, left)
				applied = true
			}
			if applied {
				break
			}
		}
		if !applied {
			return left, nil
		}
	}
}

// primary parses a term that does not begin with a prefix-operator NAME:
// a literal, variable, parenthesized term, list, curly term, or an atom
// (bare or as a functor's name).
func (p *Parser) primary() (term.Term, error) {
	switch p.tok.Type {
	case token.LPAR:
		if err := p.advance(); err != nil {
			return term.Term{}, err
		}
		inner, err := p.term(term.ArgPriority)
		if err != nil {
			return term.Term{}, err
		}
		if p.tok.Type != token.RPAR {
			return term.Term{}, p.expected("a closing parenthesis")
		}
		if err := p.advance(); err != nil {
			return term.Term{}, err
		}
		return term.Reset(inner), nil

	case token.INTEGER:
		v := term.Integer(p.tok.Int)
		if err := p.advance(); err != nil {
			return term.Term{}, err
		}
		return v, nil

	case token.FLOAT:
		v := term.Float(p.tok.Float)
		if err := p.advance(); err != nil {
			return term.Term{}, err
		}
		return v, nil

	case token.VARIABLE:
		v := term.Variable(p.tok.Text)
		if err := p.advance(); err != nil {
			return term.Term{}, err
		}
		return v, nil

	case token.LBRACK:
		return p.list()

	case token.LBRACE:
		return p.curly()

	case token.NAME:
		name := p.tok.Text
		next, err := p.peek()
		if err != nil {
			return term.Term{}, err
		}
		if next.Type == token.LPAR {
			if err := p.advance(); err != nil { // consume NAME
				return term.Term{}, err
			}
			if err := p.advance(); err != nil { // consume LPAR
				return term.Term{}, err
			}
			args, err := p.argList()
			if err != nil {
				return term.Term{}, err
			}
			if p.tok.Type != token.RPAR {
				return term.Term{}, p.expected("a closing parenthesis")
			}
			if err := p.advance(); err != nil {
				return term.Term{}, err
			}
			return term.Functor(name, 0, args...), nil
		}
		if err := p.advance(); err != nil {
			return term.Term{}, err
		}
		if p.ops.IsAnyOperator(name) {
			return term.OperatorAtom(name, anySpec(p.ops, name)), nil
		}
		return term.Atom(name), nil

	default:
		return term.Term{}, p.expected("a term")
	}
}

// argList parses a comma-separated list of arguments; the opening LPAR
// has already been consumed and the lookahead is the first argument.
func (p *Parser) argList() ([]term.Term, error) {
	first, err := p.arg()
	if err != nil {
		return nil, err
	}
	return p.restOfArgList(first)
}

func (p *Parser) restOfArgList(first term.Term) ([]term.Term, error) {
	args := []term.Term{first}
	for p.tok.Type == token.COMMA {
		if err := p.advance(); err != nil {
			return nil, err
		}
		a, err := p.arg()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
	}
	return args, nil
}

// arg parses a single argument or list element: a bare operator atom
// (priority ArgPriority) when the lookahead NAME is an operator and is
// immediately followed by the argument separator or terminator, otherwise
// a term bounded to priority 999.
func (p *Parser) arg() (term.Term, error) {
	if p.tok.Type == token.NAME && p.ops.IsAnyOperator(p.tok.Text) {
		next, err := p.peek()
		if err != nil {
			return term.Term{}, err
		}
		if next.Type == token.COMMA || next.Type == token.RPAR || next.Type == token.RBRACK || next.Type == token.BAR {
			name := p.tok.Text
			spec := anySpec(p.ops, name)
			if err := p.advance(); err != nil {
				return term.Term{}, err
			}
			return term.OperatorAtom(name, spec), nil
		}
	}
	return p.term(999)
}

// list parses a '[' ... ']' list term; the lookahead is still LBRACK on
// entry.
func (p *Parser) list() (term.Term, error) {
	if err := p.advance(); err != nil { // consume LBRACK
		return term.Term{}, err
	}
	if p.tok.Type == token.RBRACK {
		if err := p.advance(); err != nil {
			return term.Term{}, err
		}
		return term.Atom("[]"), nil
	}

	first, err := p.arg()
	if err != nil {
		return term.Term{}, err
	}
	items := []term.Term{first}
	for p.tok.Type == token.COMMA {
		if err := p.advance(); err != nil {
			return term.Term{}, err
		}
		a, err := p.arg()
		if err != nil {
			return term.Term{}, err
		}
		items = append(items, a)
	}

	var tail *term.Term
	if p.tok.Type == token.BAR {
		if err := p.advance(); err != nil {
			return term.Term{}, err
		}
		t, err := p.arg()
		if err != nil {
			return term.Term{}, err
		}
		tail = &t
	}

	if p.tok.Type != token.RBRACK {
		return term.Term{}, p.expected("a closing bracket")
	}
	if err := p.advance(); err != nil {
		return term.Term{}, err
	}
	return term.List(items, tail), nil
}

// curly parses a '{' ... '}' term; the lookahead is still LBRACE on
// entry. '{}' with nothing inside is the atom "{}"; otherwise the
// contents are wrapped as the single argument of a "{}"/1 functor.
func (p *Parser) curly() (term.Term, error) {
	if err := p.advance(); err != nil { // consume LBRACE
		return term.Term{}, err
	}
	if p.tok.Type == token.RBRACE {
		if err := p.advance(); err != nil {
			return term.Term{}, err
		}
		return term.Atom("{}"), nil
	}
	inner, err := p.term(term.ArgPriority)
	if err != nil {
		return term.Term{}, err
	}
	if p.tok.Type != token.RBRACE {
		return term.Term{}, p.expected("a closing brace")
	}
	if err := p.advance(); err != nil {
		return term.Term{}, err
	}
	return term.Functor("{}", 0, inner), nil
}

func (p *Parser) expected(what string) *SyntaxError {
	return newSyntaxError(ExpectedToken, p.tok.Line, p.tok.Col, "syntax error: expected %s, found %s", what, p.tok)
}

func (p *Parser) priorityErr(name string) *SyntaxError {
	return newSyntaxError(PriorityViolation, p.tok.Line, p.tok.Col, "syntax error: operator %q used at a disallowed priority", name)
}

func isTermStarter(t token.Type) bool {
	switch t {
	case token.NAME, token.INTEGER, token.FLOAT, token.VARIABLE, token.LBRACK, token.LBRACE:
		return true
	default:
		return false
	}
}

// prefixOpOf returns the first prefix Op registered under name.
func prefixOpOf(ops *oper.Table, name string) (oper.Op, bool) {
	for _, op := range ops.Get(name) {
		if op.Spec.Prefix() {
			return op, true
		}
	}
	return oper.Op{}, false
}

// anySpec returns the specifier of the first Op registered under name,
// used to tag a bare operator atom with some representative fixity.
func anySpec(ops *oper.Table, name string) term.Specifier {
	cands := ops.Get(name)
	if len(cands) == 0 {
		return 0
	}
	return cands[0].Spec
}
