package editor

import "errors"

// Context validation errors.
var (
	// ErrMissingBuffer indicates the buffer is required but not set.
	ErrMissingBuffer = errors.New("editor context: buffer is required")

	// ErrMissingCursors indicates the cursor manager is required but not set.
	ErrMissingCursors = errors.New("editor context: cursors are required")

	// ErrMissingSession indicates the session is required but not set.
	ErrMissingSession = errors.New("editor context: session is required")
)
