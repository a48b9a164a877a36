package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка
	UnknownCode Code = 0

	// Ошибки входа (загрузка дерева)
	InputInfo        Code = 1000
	InputLoadError   Code = 1001
	InputBadTree     Code = 1002
	InputUnknownNode Code = 1003

	// Семантические
	SemaInfo                  Code = 3000
	SemaError                 Code = 3001
	SemaDuplicateDecl         Code = 3002
	SemaTopLevelNonConst      Code = 3003
	SemaMissingEntry          Code = 3004
	SemaConstNotConstant      Code = 3005
	SemaUndeclaredType        Code = 3010
	SemaTypeRecursion         Code = 3011
	SemaGenericArity          Code = 3012
	SemaGenericNeedsArgs      Code = 3013
	SemaNotGeneric            Code = 3014
	SemaUndeclaredName        Code = 3020
	SemaUndeclaredFunc        Code = 3021
	SemaUndeclaredField       Code = 3022
	SemaUndeclaredVariant     Code = 3023
	SemaImmutableUninit       Code = 3030
	SemaTypeNotationNeeded    Code = 3031
	SemaImmutableAssign       Code = 3032
	SemaConstAssign           Code = 3033
	SemaInvalidAssignTarget   Code = 3034
	SemaBreakOutsideLoop      Code = 3040
	SemaContinueOutsideLoop   Code = 3041
	SemaElseNotLast           Code = 3042
	SemaArgCount              Code = 3050
	SemaNotCallable           Code = 3051
	SemaFieldOnNonStruct      Code = 3052
	SemaVoidValue             Code = 3053
	SemaReturnValueMismatch   Code = 3054
	SemaArgType               Code = 3055
	SemaOperandType           Code = 3056
	SemaAssignType            Code = 3057
	SemaUnsupportedExpression Code = 3060

	// Observability
	ObsInfo    Code = 6000
	ObsTimings Code = 6001

	// Бэкенды
	BackendInfo         Code = 9000
	BackendVerifyFailed Code = 9001
)

var codeDescription = map[Code]string{
	UnknownCode:               "Unknown error",
	InputInfo:                 "Input information",
	InputLoadError:            "Cannot load syntax tree",
	InputBadTree:              "Malformed syntax tree",
	InputUnknownNode:          "Unknown node kind",
	SemaInfo:                  "Semantic information",
	SemaError:                 "Semantic error",
	SemaDuplicateDecl:         "Duplicate declaration",
	SemaTopLevelNonConst:      "Non-const declaration at top level",
	SemaMissingEntry:          "Missing entry point",
	SemaConstNotConstant:      "Constant initializer is not a constant",
	SemaUndeclaredType:        "Undeclared type",
	SemaTypeRecursion:         "Type recursion",
	SemaGenericArity:          "Wrong number of generic arguments",
	SemaGenericNeedsArgs:      "Generic type used without arguments",
	SemaNotGeneric:            "Type is not generic",
	SemaUndeclaredName:        "Undeclared identifier",
	SemaUndeclaredFunc:        "Undeclared function",
	SemaUndeclaredField:       "Undeclared field",
	SemaUndeclaredVariant:     "Undeclared enum variant",
	SemaImmutableUninit:       "Immutable variable needs to be initialized",
	SemaTypeNotationNeeded:    "Type notation needed",
	SemaImmutableAssign:       "Cannot assign to immutable variable",
	SemaConstAssign:           "Cannot assign to constant",
	SemaInvalidAssignTarget:   "Invalid assignment target",
	SemaBreakOutsideLoop:      "break outside of loop",
	SemaContinueOutsideLoop:   "continue outside of loop",
	SemaElseNotLast:           "Catch-all arm must be last",
	SemaArgCount:              "Wrong number of arguments",
	SemaNotCallable:           "Value is not callable",
	SemaFieldOnNonStruct:      "Field access on non-struct value",
	SemaVoidValue:             "Void value used as expression",
	SemaReturnValueMismatch:   "Return value does not match function result",
	SemaArgType:               "Argument type mismatch",
	SemaOperandType:           "Operand type mismatch",
	SemaAssignType:            "Assigned value has the wrong type",
	SemaUnsupportedExpression: "Unsupported expression",
	ObsInfo:                   "Observability information",
	ObsTimings:                "Pipeline timings",
	BackendInfo:               "Backend information",
	BackendVerifyFailed:       "Backend module verification failed",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("INP%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	case ic >= 9000 && ic < 10000:
		return fmt.Sprintf("BCK%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
