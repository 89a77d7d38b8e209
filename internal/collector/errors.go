package collector

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a single request failed. Every kind is terminal
// for that request.
type ErrorKind string

const (
	KindInvalidURL ErrorKind = "INVALID_URL"
	KindTransport  ErrorKind = "TRANSPORT"
	KindNoData     ErrorKind = "NO_DATA"
	KindDecoding   ErrorKind = "DECODING"
)

var (
	ErrInvalidURL = errors.New("invalid request url")
	ErrTransport  = errors.New("transport failure")
	ErrNoData     = errors.New("no data returned")
	ErrDecoding   = errors.New("decoding failure")
)

func (k ErrorKind) sentinel() error {
	switch k {
	case KindInvalidURL:
		return ErrInvalidURL
	case KindTransport:
		return ErrTransport
	case KindNoData:
		return ErrNoData
	default:
		return ErrDecoding
	}
}

// FetchError is the tagged failure returned by every Fetcher call.
// It matches both its kind sentinel and the underlying cause with errors.Is.
type FetchError struct {
	Op     string
	Symbol string
	Kind   ErrorKind
	Err    error
}

func (e *FetchError) Error() string {
	target := e.Op
	if e.Symbol != "" {
		target = fmt.Sprintf("%s %s", e.Op, e.Symbol)
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", target, e.Kind.sentinel())
	}
	return fmt.Sprintf("%s: %s: %v", target, e.Kind.sentinel(), e.Err)
}

func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind.sentinel()}
	}
	return []error{e.Kind.sentinel(), e.Err}
}

// KindOf extracts the ErrorKind from err, or "" if err is not a FetchError.
func KindOf(err error) ErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

func newFetchError(op, symbol string, kind ErrorKind, err error) *FetchError {
	return &FetchError{Op: op, Symbol: symbol, Kind: kind, Err: err}
}
