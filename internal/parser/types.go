package parser

import (
	"strings"

	"github.com/samber/lo"

	"martianoff/lscheme/internal/texp"
	"martianoff/lscheme/schemeerr"
)

// ParseTypeExpression parses a type expression such as number,
// (number * T1 -> boolean) or (Empty -> void).
func ParseTypeExpression(src string) (texp.TExp, error) {
	forms, err := readAll(src)
	if err != nil {
		return nil, err
	}
	if len(forms) != 1 {
		return nil, schemeerr.NewParseError("expected one type expression, got %d forms", len(forms))
	}
	return parseTExp(forms[0])
}

func parseTExp(s *sexp) (texp.TExp, error) {
	if s.str {
		return nil, shapeError(s, "bad type expression %s", s)
	}
	if !s.isList {
		switch {
		case texp.IsAtomicName(s.text):
			return &texp.AtomicTExp{Name: s.text}, nil
		case s.text == "Empty" || s.text == "*" || s.text == "->" || s.text == ":":
			return nil, shapeError(s, "bad type expression %s", s)
		case strings.HasPrefix(s.text, texp.FreshPrefix):
			return nil, shapeError(s, "type variable %s uses the reserved prefix %s", s, texp.FreshPrefix)
		}
		return texp.MakeTVar(s.text), nil
	}
	arrow := lo.IndexOf(lo.Map(s.list, func(x *sexp, _ int) bool { return x.isAtom("->") }), true)
	if arrow < 0 || arrow != len(s.list)-2 {
		return nil, shapeError(s, "procedure type should be (<texp> * ... -> <texp>) - %s", s)
	}
	params, err := parseParamTypes(s, s.list[:arrow])
	if err != nil {
		return nil, err
	}
	ret, err := parseTExp(s.list[arrow+1])
	if err != nil {
		return nil, err
	}
	return texp.MakeProcTExp(params, ret), nil
}

// parseParamTypes parses "Empty" or "t1 * t2 * ...".
func parseParamTypes(owner *sexp, forms []*sexp) ([]texp.TExp, error) {
	if len(forms) == 1 && forms[0].isAtom("Empty") {
		return []texp.TExp{}, nil
	}
	if len(forms) == 0 {
		return nil, shapeError(owner, "missing parameter types, use Empty for none - %s", owner)
	}
	var params []texp.TExp
	for i, f := range forms {
		if i%2 == 1 {
			if !f.isAtom("*") {
				return nil, shapeError(f, "expected * between parameter types - %s", owner)
			}
			continue
		}
		te, err := parseTExp(f)
		if err != nil {
			return nil, err
		}
		params = append(params, te)
	}
	if len(forms)%2 == 0 {
		return nil, shapeError(owner, "dangling * in parameter types - %s", owner)
	}
	return params, nil
}
