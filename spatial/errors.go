package spatial

import "errors"

var (
	ErrUnsupported       = errors.New("unsupported configuration")
	ErrAlreadyIntegrated = errors.New("weight function already integrated")
	ErrIndexOutOfBounds  = errors.New("index out of bounds")
)
