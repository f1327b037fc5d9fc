// Package oops wraps errors with a message and the call stack at the
// point of wrapping, so zerolog can print where a command failed.
package oops

import (
	"errors"
	"fmt"

	"github.com/go-stack/stack"
)

type Error struct {
	Message string
	Wrapped error
	Stack   []Frame
}

func (e *Error) Error() string {
	if e.Wrapped == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Wrapped)
}

func (e *Error) Unwrap() error {
	return e.Wrapped
}

// Frame is one call site. zerolog renders a stack as a JSON array of
// frames.
type Frame struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Function string `json:"function"`
}

// ZerologStackMarshaler is installed as zerolog.ErrorStackMarshaler. It
// reports the stack of the outermost *Error in the chain.
func ZerologStackMarshaler(err error) interface{} {
	var e *Error
	if errors.As(err, &e) {
		return e.Stack
	}
	return nil
}

// New wraps err (which may be nil) with a formatted message and the
// caller's stack.
func New(wrapped error, format string, args ...interface{}) error {
	return &Error{
		Message: fmt.Sprintf(format, args...),
		Wrapped: wrapped,
		Stack:   trace(1),
	}
}

// Trace returns the stack of its caller.
func Trace() []Frame {
	return trace(1)
}

func trace(skip int) []Frame {
	calls := stack.Trace().TrimBelow(stack.Caller(skip + 1)).TrimRuntime()
	frames := make([]Frame, len(calls))
	for i, c := range calls {
		f := c.Frame()
		frames[i] = Frame{File: f.File, Line: f.Line, Function: f.Function}
	}
	return frames
}
