package model

import (
	"errors"
	"fmt"
)

var (
	ErrAccessDenied            = errors.New("access denied")
	ErrQueueNotFound           = errors.New("queue not found on any farm")
	ErrMalformedResponse       = errors.New("malformed response")
	ErrGroupNotFound           = errors.New("notification group not found")
	ErrGroupNoProject          = errors.New("notification group has no project")
	ErrInsufficientCredentials = errors.New("insufficient credentials")
)

// ErrorKind classifies failures so callers can decide whether to skip,
// degrade or propagate.
type ErrorKind int

const (
	KindUnexpected ErrorKind = iota
	// KindTransient covers external call failures: access denied, network, pagination.
	KindTransient
	// KindLocalState covers unreadable or malformed local files.
	KindLocalState
	// KindDataShape covers API responses missing expected fields.
	KindDataShape
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindLocalState:
		return "local_state"
	case KindDataShape:
		return "data_shape"
	default:
		return "unexpected"
	}
}

// Error attaches a kind and the failing operation to an underlying error.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError wraps err with kind and op. A nil err yields nil.
func NewError(kind ErrorKind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the outermost *Error in err's chain.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	switch {
	case errors.Is(err, ErrMalformedResponse):
		return KindDataShape
	case errors.Is(err, ErrAccessDenied):
		return KindTransient
	}
	return KindUnexpected
}
