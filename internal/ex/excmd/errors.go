package excmd

import (
	"errors"
	"fmt"
)

// Stable command errors. ErrUnsupported marks syntax the local engine
// recognizes but does not implement; the engine retries such commands
// through the backend when delegation is enabled.
var (
	// ErrUnsupported indicates syntax outside the local implementation.
	ErrUnsupported = errors.New("unsupported command syntax")

	// ErrNoPreviousPattern indicates an empty pattern with no prior search.
	ErrNoPreviousPattern = errors.New("no previous search pattern")

	// ErrInvalidRange indicates a range with no usable lines.
	ErrInvalidRange = errors.New("invalid range")
)

// UnknownCommandError indicates text that matched no registered command.
type UnknownCommandError struct {
	// Name is the text that failed to match.
	Name string
}

// Error implements the error interface.
func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("not an editor command: %s", e.Name)
}
