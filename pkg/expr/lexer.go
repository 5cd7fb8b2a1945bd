package expr

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokBool
	tokCompare  // == != > >= < <=
	tokArith    // + - * / %
	tokLogic    // && ||
	tokQuestion // ?
	tokColon    // :
	tokBang     // !
	tokDot      // .
	tokLParen   // (
	tokRParen   // )
	tokComma    // ,
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of expression"
	case tokIdent:
		return "identifier"
	case tokNumber:
		return "number"
	case tokString:
		return "string"
	case tokBool:
		return "boolean"
	case tokCompare:
		return "comparison"
	case tokArith:
		return "arithmetic operator"
	case tokLogic:
		return "logical operator"
	case tokQuestion:
		return "'?'"
	case tokColon:
		return "':'"
	case tokBang:
		return "'!'"
	case tokDot:
		return "'.'"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	case tokComma:
		return "','"
	default:
		return "token"
	}
}

type token struct {
	kind tokenKind
	text string
	pos  int
}

// lex splits an expression into tokens. Quoted strings are returned unquoted.
func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		r, size := utf8.DecodeRuneInString(src[i:])
		switch {
		case unicode.IsSpace(r):
			i += size

		case isIdentStart(r):
			start := i
			for i < len(src) {
				r, size = utf8.DecodeRuneInString(src[i:])
				if !isIdentPart(r) {
					break
				}
				i += size
			}
			word := src[start:i]
			kind := tokIdent
			if word == "true" || word == "false" {
				kind = tokBool
			}
			toks = append(toks, token{kind: kind, text: word, pos: start})

		case isDigit(r) || (r == '-' && startsOperand(toks) && i+1 < len(src) && isDigit(rune(src[i+1]))):
			start := i
			i++
			dot := false
			for i < len(src) {
				c := src[i]
				if c == '.' && !dot && i+1 < len(src) && isDigit(rune(src[i+1])) {
					dot = true
					i++
					continue
				}
				if !isDigit(rune(c)) {
					break
				}
				i++
			}
			toks = append(toks, token{kind: tokNumber, text: src[start:i], pos: start})

		case r == '"' || r == '\'' || r == '`':
			start := i
			quote := r
			i += size
			var b strings.Builder
			closed := false
			for i < len(src) {
				c, n := utf8.DecodeRuneInString(src[i:])
				i += n
				if c == '\\' && i < len(src) {
					esc, m := utf8.DecodeRuneInString(src[i:])
					i += m
					b.WriteRune(esc)
					continue
				}
				if c == quote {
					closed = true
					break
				}
				b.WriteRune(c)
			}
			if !closed {
				return nil, fmt.Errorf("%w: unterminated string at %d", ErrSyntax, start)
			}
			toks = append(toks, token{kind: tokString, text: b.String(), pos: start})

		default:
			tok, n, err := lexOperator(src, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, tok)
			i += n
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(src)})
	return toks, nil
}

func lexOperator(src string, i int) (token, int, error) {
	// === and !== are accepted as == and !=.
	if i+2 < len(src) && (src[i:i+3] == "===" || src[i:i+3] == "!==") {
		return token{kind: tokCompare, text: src[i : i+2], pos: i}, 3, nil
	}

	two := ""
	if i+1 < len(src) {
		two = src[i : i+2]
	}
	switch two {
	case "==", "!=", ">=", "<=":
		return token{kind: tokCompare, text: two, pos: i}, 2, nil
	case "&&", "||":
		return token{kind: tokLogic, text: two, pos: i}, 2, nil
	}

	c := src[i]
	switch c {
	case '>', '<':
		return token{kind: tokCompare, text: string(c), pos: i}, 1, nil
	case '+', '-', '*', '/', '%':
		return token{kind: tokArith, text: string(c), pos: i}, 1, nil
	case '?':
		return token{kind: tokQuestion, text: "?", pos: i}, 1, nil
	case ':':
		return token{kind: tokColon, text: ":", pos: i}, 1, nil
	case '!':
		return token{kind: tokBang, text: "!", pos: i}, 1, nil
	case '.':
		return token{kind: tokDot, text: ".", pos: i}, 1, nil
	case '(':
		return token{kind: tokLParen, text: "(", pos: i}, 1, nil
	case ')':
		return token{kind: tokRParen, text: ")", pos: i}, 1, nil
	case ',':
		return token{kind: tokComma, text: ",", pos: i}, 1, nil
	}
	return token{}, 0, fmt.Errorf("%w: unexpected character %q at %d", ErrSyntax, c, i)
}

// startsOperand reports whether a '-' at this point begins a negative literal.
func startsOperand(prev []token) bool {
	if len(prev) == 0 {
		return true
	}
	switch prev[len(prev)-1].kind {
	case tokIdent, tokNumber, tokString, tokBool, tokRParen:
		return false
	}
	return true
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
