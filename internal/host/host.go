package host

// host.go defines the contracts of the local container runtime and of the
// presentation side effects. Implementations are chosen once at startup;
// NopHost stands in when no runtime is reachable.

import (
	"context"
	"errors"
)

// Commands understood by every Host implementation
const (
	CommandPull   = "pull"
	CommandRemove = "rmi"
)

var (
	// ErrUnavailable is returned by hosts that cannot execute anything
	ErrUnavailable = errors.New("container runtime not available")
	// ErrUnknownCommand is returned for commands other than pull and rmi
	ErrUnknownCommand = errors.New("unknown command")
)

// StreamHandlers receives the output of a streamed command.
// OnClose is called exactly once after a successful start, even when
// OnError was called before it.
type StreamHandlers struct {
	OnOutput func(line string)
	OnError  func(err error)
	OnClose  func(exitCode int)
}

// Host executes image operations on the local container runtime
type Host interface {
	// Available reports whether commands can be executed at all
	Available() bool

	// ExecStreamed starts command and returns once it is running.
	// Output is delivered to h from another goroutine. A non-nil error
	// means nothing was started and no handler will be called.
	ExecStreamed(ctx context.Context, command string, args []string, h StreamHandlers) error

	// ListLocalImages returns the "name:tag" refs present locally
	ListLocalImages(ctx context.Context) ([]string, error)
}

// NopHost is the Host used when the runtime is unreachable
type NopHost struct{}

func (NopHost) Available() bool { return false }

func (NopHost) ExecStreamed(context.Context, string, []string, StreamHandlers) error {
	return ErrUnavailable
}

func (NopHost) ListLocalImages(context.Context) ([]string, error) {
	return nil, nil
}

// Emit helpers tolerate nil handler funcs

func (h StreamHandlers) Output(line string) {
	if h.OnOutput != nil {
		h.OnOutput(line)
	}
}

func (h StreamHandlers) Error(err error) {
	if h.OnError != nil {
		h.OnError(err)
	}
}

func (h StreamHandlers) Close(exitCode int) {
	if h.OnClose != nil {
		h.OnClose(exitCode)
	}
}
