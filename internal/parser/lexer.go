package parser

import (
	"strconv"
	"strings"
	"text/scanner"
	"unicode"

	"martianoff/lscheme/schemeerr"
)

type tokenKind int

const (
	tokLParen tokenKind = iota
	tokRParen
	tokQuote
	tokString
	tokAtom
)

type token struct {
	kind tokenKind
	text string
	pos  scanner.Position
}

// tokenize splits source text into parentheses, quotes, string literals and atoms.
// Comments run from ';' to the end of the line.
func tokenize(src string) ([]token, error) {
	var (
		scn    scanner.Scanner
		scnErr error
		tokens []token
	)
	scn.Init(strings.NewReader(src))
	scn.Mode = scanner.ScanIdents | scanner.ScanStrings
	scn.IsIdentRune = func(ch rune, i int) bool {
		return unicode.IsPrint(ch) && !unicode.IsSpace(ch) &&
			ch != ';' && ch != '(' && ch != ')' && ch != '\'' && ch != '"'
	}
	scn.Error = func(s *scanner.Scanner, msg string) {
		if scnErr == nil {
			p := s.Pos()
			scnErr = schemeerr.NewSyntaxError(p.Line, p.Column, msg)
		}
	}
	scn.Whitespace ^= 1 << '\n'
	scn.Whitespace |= 1 << '\f'

	for tok := scn.Scan(); tok != scanner.EOF; tok = scn.Scan() {
		pos := scn.Position
		switch tok {
		case ';':
			for tok != scanner.EOF && tok != '\n' {
				tok = scn.Next()
			}
		case '\n':
		case '(':
			tokens = append(tokens, token{kind: tokLParen, text: "(", pos: pos})
		case ')':
			tokens = append(tokens, token{kind: tokRParen, text: ")", pos: pos})
		case '\'':
			tokens = append(tokens, token{kind: tokQuote, text: "'", pos: pos})
		case scanner.String:
			text, err := strconv.Unquote(scn.TokenText())
			if err != nil {
				raw := scn.TokenText()
				text = raw[1 : len(raw)-1]
			}
			tokens = append(tokens, token{kind: tokString, text: text, pos: pos})
		case scanner.Ident:
			tokens = append(tokens, token{kind: tokAtom, text: scn.TokenText(), pos: pos})
		default:
			return nil, schemeerr.NewSyntaxError(pos.Line, pos.Column, "illegal character "+scanner.TokenString(tok))
		}
		if scnErr != nil {
			return nil, scnErr
		}
	}
	return tokens, scnErr
}
