// Package column describes the fixed three-field row layout the engine
// persists: id, username, email. The schema is compiled into constants
// rather than user-defined — generalizing to arbitrary schemas is out of
// scope for this engine.
package column

// Field sizes, in bytes, of the fixed row layout.
const (
	IDSize       = 4
	UsernameSize = 32
	EmailSize    = 255

	// RowSize is the total on-disk size of one serialized row.
	RowSize = IDSize + UsernameSize + EmailSize
)

// Field offsets within a serialized row.
const (
	IDOffset       = 0
	UsernameOffset = IDOffset + IDSize
	EmailOffset    = UsernameOffset + UsernameSize
)
