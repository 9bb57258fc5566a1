// Package terminal owns the host terminal: raw mode, the alternate screen,
// cursor visibility and placement, and batched output.
//
// Every drawing call only queues an operation. Nothing reaches the screen
// until Execute replays the queue and flushes it with a single Show, so a
// frame is never half drawn.
package terminal

import (
	"errors"
	"fmt"
	"math"
)

// Size is the visible grid in character cells.
type Size struct {
	Height int
	Width  int
}

// Empty reports whether either dimension is zero.
func (s Size) Empty() bool {
	return s.Height <= 0 || s.Width <= 0
}

// Position is a zero-based cell coordinate.
type Position struct {
	Row int
	Col int
}

// Origin is the top-left cell.
func Origin() Position {
	return Position{}
}

// maxCoord is the largest coordinate the cursor-addressing protocol can carry.
const maxCoord = math.MaxUint16

func clampCoord(v int) int {
	if v < 0 {
		return 0
	}
	if v > maxCoord {
		return maxCoord
	}
	return v
}

// ErrNotInitialized is returned by queue and flush operations used outside an
// Initialize/Terminate pair.
var ErrNotInitialized = errors.New("terminal: not initialized")

// SetupError reports that the terminal could not be put into raw mode.
type SetupError struct {
	Err error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("terminal setup: %v", e.Err)
}

func (e *SetupError) Unwrap() error {
	return e.Err
}
