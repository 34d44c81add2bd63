package room

import "errors"

var ErrTaskPanic = errors.New("task panicked")
