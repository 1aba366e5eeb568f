package seed

import (
	"errors"
	"fmt"
)

// Decode failure kinds. Match with errors.Is.
var (
	ErrMalformedSeed          = errors.New("malformed seed")
	ErrIncompatibleClassCount = errors.New("incompatible class count")
	ErrOutOfRangeParameter    = errors.New("parameter out of range")
)

// DecodeError carries the kind of failure and what was wrong
type DecodeError struct {
	Kind   error
	Detail string
}

func (e *DecodeError) Error() string {
	if e.Detail == "" {
		return "decode seed: " + e.Kind.Error()
	}
	return fmt.Sprintf("decode seed: %s: %s", e.Kind, e.Detail)
}

func (e *DecodeError) Unwrap() error {
	return e.Kind
}

func decodeErr(kind error, format string, args ...any) error {
	return &DecodeError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}
