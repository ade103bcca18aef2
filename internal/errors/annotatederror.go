// Package errors is a drop-in for the standard library errors package that records where an error was created
// and lets callers attach [slog.Attr] annotations which show up when the error is logged with [SlogError].
package errors

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"
	"strings"
)

var (
	Is     = stderrors.Is
	As     = stderrors.As
	Unwrap = stderrors.Unwrap
	Join   = stderrors.Join
)

type annotatedError struct {
	msg    string
	cause  error
	attrs  []slog.Attr
	pc     uintptr
	// source overrides pc when the location was resolved eagerly.
	source string
}

func (e *annotatedError) Error() string {
	if e.cause == nil {
		return e.msg
	}
	return e.msg + ": " + e.cause.Error()
}

func (e *annotatedError) Unwrap() error {
	return e.cause
}

// NewSentinel creates a plain error without a call site, intended for package level sentinel values.
func NewSentinel(msg string) error {
	return stderrors.New(msg) //nolint:err113 // this is the sentinel constructor
}

// New creates an error annotated with the call site and the given attributes.
func New(msg string, attrs ...slog.Attr) error {
	return &annotatedError{msg: msg, attrs: attrs, pc: callerPC(3)} //nolint:mnd // skip runtime.Callers, callerPC, New
}

// Wrap adds context and annotations to err. Wrapping a nil error returns nil.
func Wrap(err error, msg string, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}
	return &annotatedError{msg: msg, cause: err, attrs: attrs, pc: callerPC(3)} //nolint:mnd // see New
}

// DecoratePanic turns a recovered panic value into an error pointing at the code that panicked.
func DecoratePanic(recovered any) error {
	if recovered == nil {
		return nil
	}
	var cause error
	if err, ok := recovered.(error); ok {
		cause = err
	} else {
		cause = stderrors.New(fmt.Sprint(recovered)) //nolint:err113 // dynamic panic value
	}
	return &annotatedError{msg: "panic", cause: cause, source: panicSource()}
}

// SlogError renders err as an "error" group containing the message, the collected annotations and the source
// location of the innermost annotated error.
func SlogError(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	var (
		attrs  []slog.Attr
		source string
	)
	walk(err, func(ae *annotatedError) {
		attrs = append(attrs, ae.attrs...)
		if s := ae.location(); s != "" {
			source = s
		}
	})
	group := []any{slog.String("message", err.Error())}
	if len(attrs) > 0 {
		group = append(group, slog.Attr{Key: "annotations", Value: slog.GroupValue(attrs...)})
	}
	if source != "" {
		group = append(group, slog.String("source", source))
	}
	return slog.Group("error", group...)
}

// walk visits annotated errors in the tree outermost first.
func walk(err error, visit func(*annotatedError)) {
	if err == nil {
		return
	}
	if ae, ok := err.(*annotatedError); ok { //nolint:errorlint // walking the tree by hand
		visit(ae)
	}
	switch u := err.(type) { //nolint:errorlint // same as above
	case interface{ Unwrap() []error }:
		for _, e := range u.Unwrap() {
			walk(e, visit)
		}
	case interface{ Unwrap() error }:
		walk(u.Unwrap(), visit)
	}
}

func callerPC(skip int) uintptr {
	var pcs [1]uintptr
	if runtime.Callers(skip, pcs[:]) < 1 {
		return 0
	}
	return pcs[0]
}

// panicSource finds the first frame outside this package and the runtime, which is the deferred function that
// recovered the panic.
func panicSource() string {
	const depth = 32
	pcs := make([]uintptr, depth)
	n := runtime.Callers(2, pcs) //nolint:mnd // skip runtime.Callers and panicSource
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if !strings.HasPrefix(frame.Function, "runtime.") && !strings.Contains(frame.Function, "/internal/errors.") {
			return frame.File + ":" + strconv.Itoa(frame.Line)
		}
		if !more {
			return ""
		}
	}
}

func (e *annotatedError) location() string {
	if e.source != "" || e.pc == 0 {
		return e.source
	}
	frame, _ := runtime.CallersFrames([]uintptr{e.pc}).Next()
	if frame.File == "" {
		return ""
	}
	return frame.File + ":" + strconv.Itoa(frame.Line)
}
