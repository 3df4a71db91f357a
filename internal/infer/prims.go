package infer

import (
	"martianoff/lscheme/internal/texp"
	"martianoff/lscheme/schemeerr"
)

// TypeofPrim returns the signature of a primitive. Polymorphic signatures get
// fresh type variables on every call.
func TypeofPrim(op string) (texp.TExp, error) {
	num, boolean := texp.MakeNumTExp(), texp.MakeBoolTExp()
	switch op {
	case "+", "-", "*", "/":
		return texp.MakeProcTExp([]texp.TExp{num, num}, num), nil
	case "=", "<", ">":
		return texp.MakeProcTExp([]texp.TExp{num, num}, boolean), nil
	case "not":
		return texp.MakeProcTExp([]texp.TExp{boolean}, boolean), nil
	case "eq?":
		return texp.MakeProcTExp([]texp.TExp{texp.MakeFreshTVar(), texp.MakeFreshTVar()}, boolean), nil
	case "string=?":
		str := texp.MakeStrTExp()
		return texp.MakeProcTExp([]texp.TExp{str, str}, boolean), nil
	case "number?", "boolean?", "symbol?", "string?", "list?":
		return texp.MakeProcTExp([]texp.TExp{texp.MakeFreshTVar()}, boolean), nil
	case "display":
		return texp.MakeProcTExp([]texp.TExp{texp.MakeFreshTVar()}, texp.MakeVoidTExp()), nil
	case "newline":
		return texp.MakeProcTExp(nil, texp.MakeVoidTExp()), nil
	}
	return nil, schemeerr.NewTypeError("primitive %s has no type", op)
}
