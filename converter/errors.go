package converter

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyInput         = errors.New("no images supplied")
	ErrDecode             = errors.New("decode failure")
	ErrEncode             = errors.New("encode failure")
	ErrUnsupportedInput   = errors.New("unsupported input")
	ErrBackendUnavailable = errors.New("backend unavailable")
)

// ImageError identifies the input that stopped a conversion. Kind is one of
// the sentinel errors above.
type ImageError struct {
	Index int
	Name  string
	Kind  error
	Err   error
}

func (e *ImageError) Error() string {
	return fmt.Sprintf("image %d (%s): %v: %v", e.Index, e.Name, e.Kind, e.Err)
}

func (e *ImageError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}
