package parser

import (
	"strings"
	"text/scanner"

	"github.com/samber/lo"

	"martianoff/lscheme/schemeerr"
)

// sexp is a datum read from source text: an atom, a string literal or a list.
type sexp struct {
	pos    scanner.Position
	text   string
	str    bool
	list   []*sexp
	isList bool
}

func (s *sexp) isAtom(text string) bool {
	return !s.isList && !s.str && s.text == text
}

func (s *sexp) head() string {
	if !s.isList || len(s.list) == 0 || s.list[0].isList || s.list[0].str {
		return ""
	}
	return s.list[0].text
}

func (s *sexp) String() string {
	switch {
	case s.isList:
		return "(" + strings.Join(lo.Map(s.list, func(x *sexp, _ int) string { return x.String() }), " ") + ")"
	case s.str:
		return `"` + s.text + `"`
	}
	return s.text
}

type reader struct {
	tokens []token
	pos    int
}

// readAll reads every datum in src.
func readAll(src string) ([]*sexp, error) {
	tokens, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	r := &reader{tokens: tokens}
	var forms []*sexp
	for r.pos < len(r.tokens) {
		form, err := r.read()
		if err != nil {
			return nil, err
		}
		forms = append(forms, form)
	}
	return forms, nil
}

func (r *reader) read() (*sexp, error) {
	if r.pos >= len(r.tokens) {
		return nil, schemeerr.NewParseError("unexpected end of input")
	}
	tok := r.tokens[r.pos]
	r.pos++
	switch tok.kind {
	case tokLParen:
		res := &sexp{pos: tok.pos, isList: true}
		for {
			if r.pos >= len(r.tokens) {
				return nil, schemeerr.NewSyntaxError(tok.pos.Line, tok.pos.Column, "unbalanced parentheses: missing )")
			}
			if r.tokens[r.pos].kind == tokRParen {
				r.pos++
				return res, nil
			}
			item, err := r.read()
			if err != nil {
				return nil, err
			}
			res.list = append(res.list, item)
		}
	case tokRParen:
		return nil, schemeerr.NewSyntaxError(tok.pos.Line, tok.pos.Column, "unexpected )")
	case tokQuote:
		quoted, err := r.read()
		if err != nil {
			return nil, err
		}
		// 'e reads as (quote e)
		return &sexp{pos: tok.pos, isList: true, list: []*sexp{{pos: tok.pos, text: "quote"}, quoted}}, nil
	case tokString:
		return &sexp{pos: tok.pos, text: tok.text, str: true}, nil
	}
	return &sexp{pos: tok.pos, text: tok.text}, nil
}
