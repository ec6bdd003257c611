package windtunnel

import "errors"

var (
	// ErrInvalidArgument is wrapped by every construction error.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotBracketed is returned when the objective has the same sign on both ends of a bracket.
	ErrNotBracketed = errors.New("root is not bracketed")
	// ErrNotConverged is returned when a search hits its iteration limit.
	ErrNotConverged = errors.New("search did not converge")
	// ErrClosed is the panic value of any evaluation of a closed FloatCurve2.
	ErrClosed = errors.New("use of closed FloatCurve2")
)
