package nimsforestpdfviewer

import (
	"context"
	"image"
)

// Frame is a committed render handed to targets.
type Frame struct {
	State  ViewState
	Total  int
	Source string
	Image  image.Image // nil if the surface cannot be read back
}

// Target represents an output that mirrors committed frames.
type Target interface {
	// Update sends a new frame to the target.
	Update(ctx context.Context, frame *Frame) error

	// Close cleans up the target.
	Close() error

	// Name returns a descriptive name for logging.
	Name() string
}
