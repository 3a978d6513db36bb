package loading

import (
	"image"

	"github.com/chaoticbyte/loadsplit/libresplit"
)

// State is the detector's single mutable flag.
type State int

const (
	StateNotLoading State = iota
	StateLoading
)

func (s State) String() string {
	switch s {
	case StateNotLoading:
		return "not loading"
	case StateLoading:
		return "loading"
	default:
		return "unknown"
	}
}

// Grabber supplies one region frame per tick.
type Grabber interface {
	Grab() (*image.RGBA, error)
}

// CommandSink dispatches a timer command on a state edge.
type CommandSink interface {
	Send(libresplit.Command) error
}

// TransitionListener is called after each state edge, on the loop goroutine.
type TransitionListener func(prev, next State)
