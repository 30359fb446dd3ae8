package compiler

import (
	"fmt"
	"runtime/debug"

	"github.com/mna/saffron/lang/token"
)

// ErrorKind identifies one of the user-visible compilation error
// subkinds.
type ErrorKind int

const (
	ErrSyntax ErrorKind = iota
	ErrMalformedString
	ErrConstReassignment
	ErrTBCDuplication
	ErrUnknownAttribute
	ErrBreakOutsideLoop
	ErrLabelDuplicate
	ErrLabelNotVisible
	ErrJumpIntoLocalScope
	ErrVarargsInNonVariadic
)

var errorKindNames = [...]string{
	ErrSyntax:               "syntax",
	ErrMalformedString:      "malformed-string",
	ErrConstReassignment:    "const-reassignment",
	ErrTBCDuplication:       "tbc-duplication",
	ErrUnknownAttribute:     "unknown-attribute",
	ErrBreakOutsideLoop:     "break-outside-loop",
	ErrLabelDuplicate:       "label-duplicate",
	ErrLabelNotVisible:      "label-not-visible",
	ErrJumpIntoLocalScope:   "jump-into-local-scope",
	ErrVarargsInNonVariadic: "varargs-in-non-variadic",
}

func (k ErrorKind) String() string {
	if int(k) < len(errorKindNames) {
		return errorKindNames[k]
	}
	return "unknown"
}

// Error is a user-visible, recoverable-at-the-caller-boundary compilation
// error: a bad program, not a bug in the compiler.
type Error struct {
	Kind ErrorKind
	Msg  string
	Pos  token.Pos // may be token.NoPos
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func newError(kind ErrorKind, pos token.Pos, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// fail aborts the current compilation with a user-visible error. Like
// internal(), it unwinds via panic; CompileChunk is the only recovery
// point, and distinguishes the two by type.
func fail(e *Error) {
	panic(e)
}

// InternalError signals a bug in the compiler itself — an invariant
// violated by the lowering code, not by the input program (e.g. an
// unpatched jump reservation surviving to finish, or an AST node kind
// lowering does not recognize). It is never caught anywhere in this
// package; CompileChunk recovers it exactly once at its own boundary and
// returns it as an ordinary error, with a captured stack trace for the
// driver to print.
type InternalError struct {
	Msg   string
	Stack []byte
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal compiler error: %s", e.Msg)
}

// Format implements fmt.Formatter so that "%+v" includes the captured
// stack trace, mirroring how a recovered goroutine panic is usually
// rendered.
func (e *InternalError) Format(f fmt.State, c rune) {
	fmt.Fprint(f, e.Error())
	if c == 'v' && f.Flag('+') && len(e.Stack) > 0 {
		fmt.Fprintf(f, "\n%s", e.Stack)
	}
}

// internal panics with an *InternalError; it is always called from a
// lowering function that just detected an invariant violation, never
// recovered from anywhere but CompileChunk.
func internal(format string, args ...interface{}) {
	panic(&InternalError{Msg: fmt.Sprintf(format, args...)})
}

// recoverInternal turns a recovered panic into an error: an *InternalError
// panic is returned as-is (with its stack trace filled in if missing); a
// *Error panic (raised by fail(), a bad input program) is also returned
// as-is; any other panic (a genuine bug surfacing as a runtime panic,
// e.g. an index out of range) is wrapped as an *InternalError, since it
// is just as much a compiler bug as an explicit internal() call.
func recoverInternal(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	switch e := r.(type) {
	case *InternalError:
		if e.Stack == nil {
			e.Stack = debug.Stack()
		}
		*errp = e
	case *Error:
		*errp = e
	default:
		*errp = &InternalError{Msg: fmt.Sprint(r), Stack: debug.Stack()}
	}
}
