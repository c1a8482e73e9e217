package common

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies failures so the CLI can report them and pick an exit code.
type Kind int

const (
	KindIO Kind = iota + 1
	KindConfiguration
	KindInterpolation
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "IOError"
	case KindConfiguration:
		return "ConfigurationError"
	case KindInterpolation:
		return "InterpolationError"
	}
	return "Error"
}

// Sentinels for errors.Is.
var (
	ErrIO            = &Error{Kind: KindIO}
	ErrConfiguration = &Error{Kind: KindConfiguration}
	ErrInterpolation = &Error{Kind: KindInterpolation}
)

// Error is the typed failure returned by every stage of the pipeline.
type Error struct {
	Kind  Kind
	Op    string
	Path  string
	Field string
	Err   error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())

	if e.Op != "" {
		b.WriteString(": ")
		b.WriteString(e.Op)
	}
	if e.Path != "" {
		b.WriteString(" ")
		b.WriteString(e.Path)
	}
	if e.Field != "" {
		b.WriteString(fmt.Sprintf(" [%s]", e.Field))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}

	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrIO) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func IOError(op, path string, err error) error {
	return &Error{Kind: KindIO, Op: op, Path: path, Err: err}
}

func InterpolationError(op string, err error) error {
	return &Error{Kind: KindInterpolation, Op: op, Err: err}
}

func MissingKeyword(key string) error {
	return &Error{Kind: KindConfiguration, Op: "missing keyword", Field: key}
}

func InvalidKeyword(key, reason string) error {
	return &Error{Kind: KindConfiguration, Op: "invalid keyword", Field: key, Err: errors.New(reason)}
}

func ConfigurationError(op string, err error) error {
	return &Error{Kind: KindConfiguration, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
