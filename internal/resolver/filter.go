package resolver

// Built-in/stdlib identifier tables the filter step consults to drop
// references that can never resolve to a node in this repository's graph.
// These are literal, non-exhaustive lists per spec.md §9's open question on
// how exhaustive the filter needs to be — covering the common case is the
// goal, not an authoritative grammar of every runtime.

var jsGlobals = stringSet(
	"console", "window", "document", "globalThis", "process", "module", "exports",
	"require", "Promise", "Array", "Object", "String", "Number", "Boolean", "Math",
	"JSON", "Map", "Set", "WeakMap", "WeakSet", "Symbol", "Proxy", "Reflect",
	"Error", "TypeError", "RangeError", "Date", "RegExp", "Function", "Infinity",
	"NaN", "undefined", "parseInt", "parseFloat", "isNaN", "isFinite", "fetch",
	"setTimeout", "setInterval", "clearTimeout", "clearInterval", "Buffer", "self",
)

var reactHooks = stringSet(
	"useState", "useEffect", "useContext", "useReducer", "useCallback", "useMemo",
	"useRef", "useLayoutEffect", "useImperativeHandle", "useDebugValue", "useId",
	"useTransition", "useDeferredValue", "useSyncExternalStore",
)

var pythonBuiltins = stringSet(
	"print", "len", "range", "str", "int", "float", "bool", "list", "dict", "set",
	"tuple", "type", "isinstance", "issubclass", "super", "object", "Exception",
	"ValueError", "TypeError", "KeyError", "IndexError", "StopIteration",
	"open", "input", "enumerate", "zip", "map", "filter", "sorted", "reversed",
	"sum", "min", "max", "abs", "round", "all", "any", "iter", "next", "repr",
	"getattr", "setattr", "hasattr", "delattr", "property", "staticmethod",
	"classmethod", "None", "True", "False", "self", "cls",
)

var goBuiltins = stringSet(
	"len", "cap", "make", "new", "append", "copy", "delete", "panic", "recover",
	"print", "println", "close", "complex", "real", "imag", "error", "nil", "true", "false", "iota",
	"int", "int8", "int16", "int32", "int64", "uint", "uint8", "uint16", "uint32", "uint64",
	"float32", "float64", "string", "bool", "byte", "rune", "any", "uintptr", "complex64", "complex128",
)

// pascalRTLUnits are common Pascal/Delphi runtime library unit names,
// included per spec.md §9. No Pascal grammar is registered in this codebase
// and the generic adapter emits no references, so no extracted reference
// carries one of these names today.
var pascalRTLUnits = stringSet(
	"System", "SysUtils", "Classes", "Windows", "Variants", "Math", "StrUtils", "DateUtils",
)

func stringSet(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, i := range items {
		m[i] = true
	}
	return m
}

// isBuiltin reports whether name is a well-known built-in/stdlib identifier
// for lang, per the filter step of the resolve pipeline.
func isBuiltin(lang, name string) bool {
	switch lang {
	case "javascript", "typescript", "tsx":
		return jsGlobals[name] || reactHooks[name]
	case "python":
		return pythonBuiltins[name]
	case "go":
		return goBuiltins[name]
	default:
		return pascalRTLUnits[name]
	}
}
