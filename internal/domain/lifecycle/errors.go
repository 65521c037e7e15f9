package lifecycle

import "errors"

var (
	ErrActionNotPermitted = errors.New("action not permitted in current stage")
	ErrTerminal           = errors.New("review is completed")
)
