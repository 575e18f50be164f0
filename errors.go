package mdp5

import "github.com/go-errors/errors"

var (
	// ErrTooManyLayers rejects a proposed frame with more planes than the
	// mixer has stages.
	ErrTooManyLayers = errors.New("mdp5: too many planes")
	// ErrNotBound is returned when an output has no control path.
	ErrNotBound = errors.New("mdp5: no control path bound")
	// ErrInvalidCursorSize rejects cursors larger than 64x64.
	ErrInvalidCursorSize = errors.New("mdp5: bad cursor size")
	// ErrNoSuchBuffer is returned when a cursor handle cannot be resolved.
	ErrNoSuchBuffer = errors.New("mdp5: no such buffer")
	// ErrScaling wraps a failure of the scaler.
	ErrScaling = errors.New("mdp5: scaling computation failed")
	// ErrHardwareTimeout marks a completion wait that ran out of time.
	ErrHardwareTimeout = errors.New("mdp5: hardware timeout")
)
