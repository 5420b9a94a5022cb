// Package scan implements the lexical analyzer: a Unicode-aware,
// multi-state finite automaton with backtracking that turns a UTF-8
// buffer into a stream of token.Token values.
//
// Grounded on cbarrick-ripl's lang/parse/lexer.go for the overall
// state-machine shape (a dedicated state per lexeme class, same state
// names for comments/quoted atoms/radix integers), generalized from its
// channel-driven stateFn style to the explicit forward/rewind/skip
// position contract this grammar's backtracking (rewind distances of 1,
// 2, and 3 code points) requires. Input is normalized with
// golang.org/x/text/unicode/norm, the same dependency the teacher uses
// for this purpose (NFC here rather than the teacher's NFD; see
// DESIGN.md).
package scan

import (
	"strconv"

	pqrune "github.com/cbarrick/poqer/internal/rune"
	"github.com/cbarrick/poqer/internal/strbuf"
	"github.com/cbarrick/poqer/token"
	"golang.org/x/text/unicode/norm"
)

// eof is the sentinel code point value representing end of buffer. It is
// distinct from pqrune.Invalid so a malformed UTF-8 sequence is never
// confused with end of input.
const eof rune = -2

type state int

const (
	stateBegin state = iota
	stateMaybeEnd
	stateSingleComment
	stateMaybeMCommentOpen
	stateMComment
	stateMaybeMCommentClose
	stateAlphaName
	stateGraphicName
	stateVariable
	stateQuotedOpen
	stateMaybeQuotedClose
	stateQuotedEsc
	stateQuotedOctEsc
	stateQuotedHexEsc
	stateMaybeRadixInt
	stateMaybeBinInt
	stateMaybeOctInt
	stateMaybeHexInt
	stateBinInt
	stateOctInt
	stateHexInt
	stateMaybeDecInt
	stateMaybeFloatFrac
	stateFloatFrac
	stateMaybeFloatExp
	stateMaybeFloatExpInt
	stateFloatExpInt
)

// position is a snapshot of everything forward/rewind can change, kept on
// a small stack so rewind can be its exact inverse regardless of how many
// newlines were crossed.
type position struct {
	line, col int
	beg, end  int
	cp        rune
	cpSize    int
}

// Scanner turns a UTF-8 buffer into a sequence of tokens. The zero value
// is not ready for use; construct one with New.
type Scanner struct {
	buf []byte

	line, col int
	beg, end  int
	cp        rune
	cpSize    int

	history []position

	quote      rune
	lex        strbuf.Builder // quoted-atom content, unescaped
	escapeDigs strbuf.Builder // pending octal/hex escape digits
}

// New returns a Scanner with no buffer set. Call SetBuffer before the
// first NextToken.
func New() *Scanner {
	return &Scanner{}
}

// SetBuffer resets the scanner to read src from the beginning. src is
// normalized to Unicode NFC first.
func (s *Scanner) SetBuffer(src []byte) {
	s.buf = norm.NFC.Bytes(src)
	s.line = 1
	s.col = 1
	s.beg = 0
	s.end = 0
	s.history = s.history[:0]
	s.decodeCurrent()
}

func (s *Scanner) decodeCurrent() {
	if s.end >= len(s.buf) {
		s.cp = eof
		s.cpSize = 0
		return
	}
	cp, size := pqrune.Decode(s.buf, s.end)
	if size == 0 {
		s.cp = pqrune.Invalid
		s.cpSize = 0
		return
	}
	s.cp = cp
	s.cpSize = size
}

func (s *Scanner) snapshot() position {
	return position{s.line, s.col, s.beg, s.end, s.cp, s.cpSize}
}

func (s *Scanner) restore(p position) {
	s.line, s.col, s.beg, s.end, s.cp, s.cpSize = p.line, p.col, p.beg, p.end, p.cp, p.cpSize
}

// forward consumes the current code point n times, pushing the prior
// state onto history so rewind can undo it exactly.
func (s *Scanner) forward(n int) {
	for i := 0; i < n; i++ {
		s.history = append(s.history, s.snapshot())
		if s.cp == eof {
			continue
		}
		if pqrune.Newline(s.cp) {
			s.line++
			s.col = 1
		} else {
			s.col++
		}
		s.end += s.cpSize
		s.decodeCurrent()
	}
}

// rewind undoes the last n calls to forward.
func (s *Scanner) rewind(n int) {
	for i := 0; i < n && len(s.history) > 0; i++ {
		last := s.history[len(s.history)-1]
		s.history = s.history[:len(s.history)-1]
		s.restore(last)
	}
}

// skip advances past n code points of content that will never be part of
// a lexeme (layout, comments), keeping beg caught up to end.
func (s *Scanner) skip(n int) {
	s.forward(n)
	s.beg = s.end
	s.history = s.history[:0]
}

// nextLexeme commits the current token: beg moves past the last consumed
// code point, ready for the next lexeme.
func (s *Scanner) nextLexeme() {
	if s.end < len(s.buf) {
		if pqrune.Newline(s.cp) {
			s.line++
			s.col = 1
		} else {
			s.col++
		}
		s.end += s.cpSize
		s.beg = s.end
		s.decodeCurrent()
	} else if s.beg != s.end {
		s.beg = s.end
	}
	s.history = s.history[:0]
}

// currentLexeme returns the raw source slice [beg, end+cpSize).
func (s *Scanner) currentLexeme() string {
	stop := s.end
	if s.end < len(s.buf) {
		stop = s.end + s.cpSize
	}
	if stop > len(s.buf) {
		stop = len(s.buf)
	}
	if s.beg >= stop {
		return ""
	}
	return string(s.buf[s.beg:stop])
}

func (s *Scanner) errorf(kind Kind, format string, args ...any) *Error {
	return newError(kind, s.line, s.col, format, args...)
}

// NextToken advances past layout and comments and returns the next
// token. At end of input it returns an EOF token forever after. On
// error, the scanner's position is rolled back to its value at entry, so
// a caller that retries after fixing the input starts from the same
// place (in practice poqer's parser does not retry).
func (s *Scanner) NextToken() (token.Token, error) {
	entry := s.snapshot()
	tok, err := s.scan()
	if err != nil {
		s.restore(entry)
		s.history = s.history[:0]
		return token.Token{}, err
	}
	return tok, nil
}

func (s *Scanner) scan() (tok token.Token, err error) {
	st := stateBegin

	// A token reports the line and column of its first code point. The
	// emit helpers run after backtracking onto its last code point, so the
	// start recorded in stateBegin replaces their Line and Col.
	var line, col int
	defer func() {
		if err == nil {
			tok.Line, tok.Col = line, col
		}
	}()

	for {
		switch st {

		case stateBegin:
			line, col = s.line, s.col
			switch {
			case s.cp == eof:
				return token.EOFToken(s.line, s.col, s.beg, s.end), nil

			case s.cp == '%':
				s.skip(1)
				st = stateSingleComment

			case s.cp == '/':
				s.forward(1)
				st = stateMaybeMCommentOpen

			case s.cp == '(':
				return s.emitPunct(token.LPAR)
			case s.cp == ')':
				return s.emitPunct(token.RPAR)
			case s.cp == '[':
				return s.emitPunct(token.LBRACK)
			case s.cp == ']':
				return s.emitPunct(token.RBRACK)
			case s.cp == '{':
				return s.emitPunct(token.LBRACE)
			case s.cp == '}':
				return s.emitPunct(token.RBRACE)
			case s.cp == '|':
				return s.emitPunct(token.BAR)
			case s.cp == ',':
				return s.emitPunct(token.COMMA)

			case s.cp == ';' || s.cp == '!':
				return s.emitName()

			case s.cp == '\'' || s.cp == '"' || s.cp == '`':
				s.quote = s.cp
				s.lex.Clear()
				s.forward(1)
				st = stateQuotedOpen

			case s.cp == '.':
				s.forward(1)
				st = stateMaybeEnd

			case s.cp == '0':
				s.forward(1)
				st = stateMaybeRadixInt

			case pqrune.Dec(s.cp):
				st = stateMaybeDecInt

			case pqrune.Lower(s.cp):
				st = stateAlphaName

			case pqrune.GraphicToken(s.cp):
				st = stateGraphicName

			case pqrune.Alnum(s.cp):
				st = stateVariable

			case pqrune.Layout(s.cp):
				s.skip(1)

			case pqrune.Invalid == s.cp:
				return token.Token{}, s.errorf(InvalidUTF8, "invalid utf-8 sequence")

			default:
				return token.Token{}, s.errorf(UnrecognizedCharacter, "unrecognized character %q", s.cp)
			}

		case stateMaybeEnd:
			switch {
			case s.cp == '%':
				s.rewind(1)
				return s.emitEnd()
			case pqrune.Layout(s.cp) || s.cp == eof:
				s.rewind(1)
				return s.emitEnd()
			case pqrune.GraphicToken(s.cp):
				st = stateGraphicName
			default:
				s.rewind(1)
				return s.emitName()
			}

		case stateSingleComment:
			switch {
			case pqrune.Newline(s.cp) || s.cp == eof:
				st = stateBegin
			default:
				s.skip(1)
			}

		case stateMaybeMCommentOpen:
			if s.cp == '*' {
				s.skip(1)
				st = stateMComment
			} else {
				s.rewind(1)
				st = stateGraphicName
			}

		case stateMComment:
			switch {
			case s.cp == '*':
				s.skip(1)
				st = stateMaybeMCommentClose
			case s.cp == eof:
				return token.Token{}, s.errorf(UnterminatedMComment, "expected end of multi-line comment")
			default:
				s.skip(1)
			}

		case stateMaybeMCommentClose:
			switch {
			case s.cp == '/':
				s.skip(1)
				st = stateBegin
			case s.cp == '*':
				s.skip(1)
			case s.cp == eof:
				return token.Token{}, s.errorf(UnterminatedMComment, "expected end of multi-line comment")
			default:
				s.skip(1)
				st = stateMComment
			}

		case stateAlphaName:
			if pqrune.Alnum(s.cp) {
				s.forward(1)
			} else {
				s.rewind(1)
				return s.emitName()
			}

		case stateGraphicName:
			if pqrune.GraphicToken(s.cp) {
				s.forward(1)
			} else {
				s.rewind(1)
				return s.emitName()
			}

		case stateVariable:
			if pqrune.Alnum(s.cp) {
				s.forward(1)
			} else {
				s.rewind(1)
				return s.emitVariable()
			}

		case stateQuotedOpen:
			switch {
			case s.cp == s.quote:
				s.forward(1)
				st = stateMaybeQuotedClose
			case s.cp == '\\':
				s.forward(1)
				st = stateQuotedEsc
			case s.cp == eof:
				return token.Token{}, s.errorf(UnterminatedQuote, "expected closing quotation")
			case pqrune.SingleQuotedChar(s.cp):
				s.lex.AppendRune(s.cp)
				s.forward(1)
			default:
				return token.Token{}, s.errorf(UnrecognizedCharacter, "unrecognized character %q in quoted atom", s.cp)
			}

		case stateMaybeQuotedClose:
			if s.cp == s.quote {
				s.lex.AppendRune(s.quote)
				s.forward(1)
				st = stateQuotedOpen
			} else {
				s.rewind(1)
				return s.emitQuoted()
			}

		case stateQuotedEsc:
			switch {
			case pqrune.ControlEscape(s.cp):
				s.lex.AppendByte(controlEscapeByte(s.cp))
				s.forward(1)
				st = stateQuotedOpen
			case pqrune.MetaEscape(s.cp):
				s.lex.AppendRune(s.cp)
				s.forward(1)
				st = stateQuotedOpen
			case s.cp == 'x':
				s.forward(1)
				s.escapeDigs.Clear()
				st = stateQuotedHexEsc
			case pqrune.Oct(s.cp):
				s.escapeDigs.Clear()
				s.escapeDigs.AppendRune(s.cp)
				s.forward(1)
				st = stateQuotedOctEsc
			default:
				return token.Token{}, s.errorf(IllegalEscape, "illegal escape sequence %q", s.cp)
			}

		case stateQuotedOctEsc:
			switch {
			case pqrune.Oct(s.cp):
				if s.escapeDigs.Len() >= 7 {
					return token.Token{}, s.errorf(IllegalEscape, "octal escape sequence too long")
				}
				s.escapeDigs.AppendRune(s.cp)
				s.forward(1)
			case s.cp == '\\':
				s.forward(1)
				if err := s.finishEscape(8); err != nil {
					return token.Token{}, err
				}
				st = stateQuotedOpen
			case pqrune.Layout(s.cp) || s.cp == s.quote:
				if err := s.finishEscape(8); err != nil {
					return token.Token{}, err
				}
				st = stateQuotedOpen
			default:
				return token.Token{}, s.errorf(IllegalEscape, "illegal octal escape terminator %q", s.cp)
			}

		case stateQuotedHexEsc:
			switch {
			case pqrune.Hex(s.cp):
				if s.escapeDigs.Len() >= 6 {
					return token.Token{}, s.errorf(IllegalEscape, "hex escape sequence too long")
				}
				s.escapeDigs.AppendRune(s.cp)
				s.forward(1)
			case s.cp == '\\':
				s.forward(1)
				if err := s.finishEscape(16); err != nil {
					return token.Token{}, err
				}
				st = stateQuotedOpen
			case pqrune.Layout(s.cp) || s.cp == s.quote:
				if err := s.finishEscape(16); err != nil {
					return token.Token{}, err
				}
				st = stateQuotedOpen
			default:
				return token.Token{}, s.errorf(IllegalEscape, "illegal hex escape terminator %q", s.cp)
			}

		case stateMaybeRadixInt:
			switch {
			case s.cp == 'b':
				s.forward(1)
				st = stateMaybeBinInt
			case s.cp == 'o':
				s.forward(1)
				st = stateMaybeOctInt
			case s.cp == 'x':
				s.forward(1)
				st = stateMaybeHexInt
			case s.cp == '.':
				s.forward(1)
				st = stateMaybeFloatFrac
			case pqrune.Dec(s.cp):
				st = stateMaybeDecInt
			default:
				s.rewind(1)
				return s.emitInteger(0)
			}

		case stateMaybeBinInt:
			if pqrune.Bin(s.cp) {
				s.forward(1)
				st = stateBinInt
			} else {
				s.rewind(2)
				return s.emitInteger(0)
			}

		case stateMaybeOctInt:
			if pqrune.Oct(s.cp) {
				s.forward(1)
				st = stateOctInt
			} else {
				s.rewind(2)
				return s.emitInteger(0)
			}

		case stateMaybeHexInt:
			if pqrune.Hex(s.cp) {
				s.forward(1)
				st = stateHexInt
			} else {
				s.rewind(2)
				return s.emitInteger(0)
			}

		case stateBinInt:
			if pqrune.Bin(s.cp) {
				s.forward(1)
			} else {
				s.rewind(1)
				return s.emitRadixInteger(2, 2)
			}

		case stateOctInt:
			if pqrune.Oct(s.cp) {
				s.forward(1)
			} else {
				s.rewind(1)
				return s.emitRadixInteger(8, 2)
			}

		case stateHexInt:
			if pqrune.Hex(s.cp) {
				s.forward(1)
			} else {
				s.rewind(1)
				return s.emitRadixInteger(16, 2)
			}

		case stateMaybeDecInt:
			switch {
			case s.cp == '.':
				s.forward(1)
				st = stateMaybeFloatFrac
			case pqrune.Dec(s.cp):
				s.forward(1)
			default:
				s.rewind(1)
				return s.emitDecimalInteger()
			}

		case stateMaybeFloatFrac:
			if pqrune.Dec(s.cp) {
				s.forward(1)
				st = stateFloatFrac
			} else {
				s.rewind(2)
				return s.emitDecimalInteger()
			}

		case stateFloatFrac:
			switch {
			case s.cp == 'e' || s.cp == 'E':
				s.forward(1)
				st = stateMaybeFloatExp
			case pqrune.Dec(s.cp):
				s.forward(1)
			default:
				s.rewind(1)
				return s.emitFloat()
			}

		case stateMaybeFloatExp:
			switch {
			case s.cp == '+' || s.cp == '-':
				s.forward(1)
				st = stateMaybeFloatExpInt
			case pqrune.Dec(s.cp):
				s.forward(1)
				st = stateFloatExpInt
			default:
				s.rewind(2)
				return s.emitFloat()
			}

		case stateMaybeFloatExpInt:
			if pqrune.Dec(s.cp) {
				s.forward(1)
				st = stateFloatExpInt
			} else {
				s.rewind(3)
				return s.emitFloat()
			}

		case stateFloatExpInt:
			if pqrune.Dec(s.cp) {
				s.forward(1)
			} else {
				s.rewind(1)
				return s.emitFloat()
			}
		}
	}
}

func (s *Scanner) finishEscape(base int) error {
	digits := s.escapeDigs.String()
	s.escapeDigs.Clear()
	if digits == "" {
		return s.errorf(IllegalEscape, "empty escape sequence")
	}
	cp, err := strconv.ParseInt(digits, base, 64)
	if err != nil || cp > pqrune.MaxCodePoint {
		return s.errorf(IllegalEscape, "escape sequence %q out of range", digits)
	}
	s.lex.AppendRune(rune(cp))
	return nil
}

func controlEscapeByte(cp rune) byte {
	switch cp {
	case 'a':
		return '\a'
	case 'b':
		return '\b'
	case 'f':
		return '\f'
	case 'n':
		return '\n'
	case 'r':
		return '\r'
	case 't':
		return '\t'
	case 'v':
		return '\v'
	default:
		return byte(cp)
	}
}

func (s *Scanner) emitPunct(typ token.Type) (token.Token, error) {
	text := s.currentLexeme()
	line, col, beg, end := s.line, s.col, s.beg, s.end+s.cpSize
	s.nextLexeme()
	return token.Punct(typ, text, line, col, beg, end), nil
}

func (s *Scanner) emitName() (token.Token, error) {
	text := s.currentLexeme()
	line, col, beg, end := s.line, s.col, s.beg, s.end+s.cpSize
	s.nextLexeme()
	return token.Name(text, line, col, beg, end), nil
}

func (s *Scanner) emitQuoted() (token.Token, error) {
	text := s.lex.String()
	line, col, beg, end := s.line, s.col, s.beg, s.end+s.cpSize
	s.nextLexeme()
	return token.Name(text, line, col, beg, end), nil
}

func (s *Scanner) emitVariable() (token.Token, error) {
	text := s.currentLexeme()
	line, col, beg, end := s.line, s.col, s.beg, s.end+s.cpSize
	s.nextLexeme()
	return token.Variable(text, line, col, beg, end), nil
}

func (s *Scanner) emitEnd() (token.Token, error) {
	line, col, beg, end := s.line, s.col, s.beg, s.end+s.cpSize
	s.nextLexeme()
	return token.Punct(token.END, ".", line, col, beg, end), nil
}

func (s *Scanner) emitInteger(v int64) (token.Token, error) {
	text := s.currentLexeme()
	line, col, beg, end := s.line, s.col, s.beg, s.end+s.cpSize
	s.nextLexeme()
	return token.Integer(text, v, line, col, beg, end), nil
}

func (s *Scanner) emitDecimalInteger() (token.Token, error) {
	text := s.currentLexeme()
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return token.Token{}, s.errorf(UnrecognizedCharacter, "malformed integer literal %q", text)
	}
	line, col, beg, end := s.line, s.col, s.beg, s.end+s.cpSize
	s.nextLexeme()
	return token.Integer(text, v, line, col, beg, end), nil
}

func (s *Scanner) emitRadixInteger(base, prefixLen int) (token.Token, error) {
	text := s.currentLexeme()
	if len(text) <= prefixLen {
		return token.Token{}, s.errorf(UnrecognizedCharacter, "malformed integer literal %q", text)
	}
	v, err := strconv.ParseInt(text[prefixLen:], base, 64)
	if err != nil {
		return token.Token{}, s.errorf(UnrecognizedCharacter, "malformed integer literal %q", text)
	}
	line, col, beg, end := s.line, s.col, s.beg, s.end+s.cpSize
	s.nextLexeme()
	return token.Integer(text, v, line, col, beg, end), nil
}

func (s *Scanner) emitFloat() (token.Token, error) {
	text := s.currentLexeme()
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return token.Token{}, s.errorf(UnrecognizedCharacter, "malformed float literal %q", text)
	}
	line, col, beg, end := s.line, s.col, s.beg, s.end+s.cpSize
	s.nextLexeme()
	return token.Float(text, v, line, col, beg, end), nil
}
