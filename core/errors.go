/* Copyright 2018-2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package core

// These errors are user errors, not internal errors, with the
// exception of InternalKind, which always indicates a bug.

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind says which stage of processing produced an Error.
type Kind int

const (
	UnknownKind    Kind = iota
	ParseKind           // Malformed source text.
	MacroKind           // Bad definitions or expansion failures.
	ValidationKind      // Pre-evaluation semantic checks.
	EvalKind            // Runtime failures.
	InternalKind        // Engine invariant violations.  Bugs.
)

var kindNames = []string{"unknown", "parse", "macro", "validation", "eval", "internal"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k]
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(bs []byte) error {
	s := strings.ToLower(string(bs))
	for i, name := range kindNames {
		if name == s {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown error kind %q", bs)
}

// Code says what went wrong.
type Code int

const (
	Unspecified       Code = iota
	InvalidSyntax          // The reader couldn't make sense of the text.
	UnexpectedEOF          // The text ended in the middle of a form.
	Arity                  // Wrong number of arguments.
	TypeMismatch           // An argument or condition had the wrong type.
	DivisionByZero         // Division or modulo by zero.
	RecursionLimit         // Expansion or evaluation went too deep.
	UnknownAtom            // A call named something that isn't an atom.
	NotAnAtom              // A call's first element isn't a symbol.
	BareSymbol             // A symbol appeared outside call position.
	DuplicateName          // A name was defined twice.
	InvalidDefinition      // A malformed define form.
	InvalidForm            // A malformed special form or macro call.
	Unquotable             // Something with no runtime representation was quoted.
	UserError              // Raised by the error atom.
	ScriptError            // An ECMAScript atom failed.
)

var codeNames = []string{
	"unspecified",
	"invalid-syntax",
	"unexpected-eof",
	"arity",
	"type-mismatch",
	"division-by-zero",
	"recursion-limit",
	"unknown-atom",
	"not-an-atom",
	"bare-symbol",
	"duplicate-name",
	"invalid-definition",
	"invalid-form",
	"unquotable",
	"user-error",
	"script-error",
}

func (c Code) String() string {
	if c < 0 || int(c) >= len(codeNames) {
		return "Code(" + strconv.Itoa(int(c)) + ")"
	}
	return codeNames[c]
}

func (c Code) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Code) UnmarshalText(bs []byte) error {
	s := strings.ToLower(string(bs))
	for i, name := range codeNames {
		if name == s {
			*c = Code(i)
			return nil
		}
	}
	return fmt.Errorf("unknown error code %q", bs)
}

// Related is a secondary location that helps explain an Error.  For
// example, "first defined here" for a duplicate name.
type Related struct {
	Span Span   `json:"span"`
	Msg  string `json:"msg"`
}

// Error is the structured error produced by every stage of the
// engine.
//
// The presentation layer (see package diag) decides how to render
// these things.  This package just carries the data.
type Error struct {
	Kind Kind   `json:"kind"`
	Code Code   `json:"code"`
	Msg  string `json:"msg"`

	// Span optionally locates the problem in the source text that
	// was given to the failing stage.  For evaluation errors,
	// that's the expanded code.
	Span *Span `json:"span,omitempty"`

	// Related spans, if any.
	Related []Related `json:"related,omitempty"`

	// Callee is the name of the macro or atom involved (if any).
	Callee string `json:"callee,omitempty"`

	// Expected and Actual describe a mismatch (arity or type).
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`

	// Suggestion is an optional hint about how to fix the problem.
	Suggestion string `json:"suggestion,omitempty"`

	// Node is an optional rendering of the offending node.
	Node string `json:"node,omitempty"`

	// Origin names the source (usually a filename).  Written by
	// package pipeline.
	Origin string `json:"origin,omitempty"`

	// Snippet is the original, pre-expansion source of the
	// top-level form that failed.  Written by package pipeline.
	Snippet string `json:"snippet,omitempty"`
}

// NewError makes an Error with a formatted message.  The span is
// optional.
func NewError(kind Kind, code Code, span *Span, format string, args ...interface{}) *Error {
	msg := format
	if 0 < len(args) {
		msg = fmt.Sprintf(format, args...)
	}
	return &Error{
		Kind: kind,
		Code: code,
		Msg:  msg,
		Span: span,
	}
}

// NewArityError reports that callee wanted the expected number of
// arguments but got actual.  Expected is a phrase like "exactly 2" or
// "at least 1".
func NewArityError(kind Kind, callee string, expected string, actual int, span *Span) *Error {
	e := NewError(kind, Arity, span, "%s expects %s argument%s, got %d",
		callee, expected, plural(expected), actual)
	e.Callee = callee
	e.Expected = expected
	e.Actual = strconv.Itoa(actual)
	return e
}

func plural(expected string) string {
	if strings.HasSuffix(expected, " 1") {
		return ""
	}
	return "s"
}

// NewTypeError reports that an argument had the wrong type.
//
// The position is 1-based, and zero means "not an argument" (for
// example, an if condition).
func NewTypeError(callee string, position int, expected, actual string, span *Span) *Error {
	var msg string
	if 0 < position {
		msg = fmt.Sprintf("%s: argument %d must be %s, got %s", callee, position, expected, actual)
	} else {
		msg = fmt.Sprintf("%s: expected %s, got %s", callee, expected, actual)
	}
	e := NewError(EvalKind, TypeMismatch, span, msg)
	e.Callee = callee
	e.Expected = expected
	e.Actual = actual
	return e
}

// WithRelated adds a related span and returns the receiver.
func (e *Error) WithRelated(span Span, msg string) *Error {
	e.Related = append(e.Related, Related{Span: span, Msg: msg})
	return e
}

// WithSuggestion sets the suggestion and returns the receiver.
func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

// WithCallee sets the callee and returns the receiver.
func (e *Error) WithCallee(name string) *Error {
	e.Callee = name
	return e
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	b.WriteString(" error")
	if e.Origin != "" {
		b.WriteString(" in ")
		b.WriteString(e.Origin)
	}
	if e.Span != nil {
		b.WriteString(" at ")
		b.WriteString(e.Span.String())
	}
	b.WriteString(": ")
	b.WriteString(e.Msg)
	return b.String()
}

// Is supports errors.Is.  A target *Error matches if its Code is the
// same and its Kind is either the same or UnknownKind.
func (e *Error) Is(target error) bool {
	t, is := target.(*Error)
	if !is {
		return false
	}
	if t.Kind != UnknownKind && t.Kind != e.Kind {
		return false
	}
	return t.Code == e.Code
}

// AsError returns the *Error in err's chain, if any.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Internal makes an InternalKind Error.  These should never happen.
func Internal(format string, args ...interface{}) *Error {
	return NewError(InternalKind, Unspecified, nil, format, args...)
}

var (
	// ErrDivisionByZero matches any division-by-zero Error via
	// errors.Is.
	ErrDivisionByZero = &Error{Code: DivisionByZero}

	// ErrRecursionLimit matches any recursion-limit Error.
	ErrRecursionLimit = &Error{Code: RecursionLimit}

	// ErrArity matches any arity Error.
	ErrArity = &Error{Code: Arity}

	// ErrTypeMismatch matches any type Error.
	ErrTypeMismatch = &Error{Code: TypeMismatch}
)
