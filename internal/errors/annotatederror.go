// Package errors wraps the standard library errors package with annotated errors that remember where they were
// created and carry [slog.Attr] annotations for structured logging.
package errors

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"
)

// Re-exports so that callers only need to import this package.
var (
	Is     = stderrors.Is
	As     = stderrors.As
	Unwrap = stderrors.Unwrap
	Join   = stderrors.Join
)

type sentinelError struct {
	msg string
}

func (e *sentinelError) Error() string {
	return e.msg
}

// NewSentinel creates an error meant to be declared as a package level variable and compared with [Is].
//
// Sentinels don't capture the call site since they are created during package initialisation.
func NewSentinel(msg string) error {
	return &sentinelError{msg: msg}
}

type annotatedError struct {
	err   error
	msg   string
	attrs []slog.Attr
	pc    uintptr
	stack string
}

func (e *annotatedError) Error() string {
	if e.err == nil {
		return e.msg
	}
	return e.msg + ": " + e.err.Error()
}

func (e *annotatedError) Unwrap() error {
	return e.err
}

// New creates an error that remembers the call site.
func New(msg string, attrs ...slog.Attr) error {
	return &annotatedError{
		err:   nil,
		msg:   msg,
		attrs: attrs,
		pc:    callerPC(),
		stack: "",
	}
}

// Wrap annotates err with a message and optional attributes. Returns nil if err is nil.
func Wrap(err error, msg string, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}
	return &annotatedError{
		err:   err,
		msg:   msg,
		attrs: attrs,
		pc:    callerPC(),
		stack: "",
	}
}

// DecoratePanic converts a recovered panic value into an error. Call it in the deferred function that recovers.
//
// The source location points to the panicking line instead of the deferred function.
func DecoratePanic(excp any) error {
	if excp == nil {
		return nil
	}
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(1, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var (
		pc         uintptr
		afterPanic bool
		stack      string
	)
	for {
		frame, more := frames.Next()
		if afterPanic && pc == 0 {
			// Frame PCs are already adjusted to the call instruction, formatPC expects a return address.
			pc = frame.PC + 1
		}
		if frame.Function == "runtime.gopanic" {
			afterPanic = true
		}
		if afterPanic {
			stack += frame.Function + "\n\t" + frame.File + ":" + strconv.Itoa(frame.Line) + "\n"
		}
		if !more {
			break
		}
	}
	if pc == 0 {
		pc = callerPC()
	}

	return &annotatedError{
		err:   nil,
		msg:   fmt.Sprintf("panic: %v", excp),
		attrs: nil,
		pc:    pc,
		stack: stack,
	}
}

// SlogError turns err into a [slog.Attr] group named "error" with the message, the annotations collected from
// the whole error chain, and the source of the innermost annotated error.
func SlogError(err error) slog.Attr {
	if err == nil {
		return slog.Attr{} //nolint:exhaustruct // empty attrs are ignored by slog handlers.
	}

	var (
		annotations []any
		origin      *annotatedError
	)
	walk(err, func(ae *annotatedError) {
		for _, a := range ae.attrs {
			annotations = append(annotations, a)
		}
		origin = ae
	})

	attrs := []any{slog.String("message", err.Error())}
	if len(annotations) > 0 {
		attrs = append(attrs, slog.Group("annotations", annotations...))
	}
	if origin != nil {
		if source := formatPC(origin.pc); source != "" {
			attrs = append(attrs, slog.String("source", source))
		}
		if origin.stack != "" {
			attrs = append(attrs, slog.String("stack", origin.stack))
		}
	}
	return slog.Group("error", attrs...)
}

// walk visits every annotated error in the chain, outermost first. Joined errors are visited depth first.
func walk(err error, visit func(*annotatedError)) {
	for err != nil {
		if ae, ok := err.(*annotatedError); ok { //nolint:errorlint // we walk the chain manually.
			visit(ae)
		}
		switch x := err.(type) { //nolint:errorlint // we walk the chain manually.
		case interface{ Unwrap() []error }:
			for _, e := range x.Unwrap() {
				walk(e, visit)
			}
			return
		case interface{ Unwrap() error }:
			err = x.Unwrap()
		default:
			return
		}
	}
}

func callerPC() uintptr {
	var pcs [1]uintptr
	// Skip runtime.Callers, callerPC, and the exported constructor.
	if runtime.Callers(3, pcs[:]) == 0 { //nolint:mnd // see above.
		return 0
	}
	return pcs[0]
}

func formatPC(pc uintptr) string {
	if pc == 0 {
		return ""
	}
	frames := runtime.CallersFrames([]uintptr{pc})
	frame, _ := frames.Next()
	if frame.File == "" {
		return ""
	}
	return frame.File + ":" + strconv.Itoa(frame.Line)
}
