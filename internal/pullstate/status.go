package pullstate

import (
	"errors"
	"strconv"
	"strings"
)

// Status is the state of one image:tag, encoded the way the panel shows it:
// "idle", "nope", "pull", "pull:<percent>" or "rm".
type Status string

const (
	StatusNope   Status = "nope" // not present locally; also the zero state
	StatusIdle   Status = "idle" // present locally
	StatusPull   Status = "pull" // pull running, progress unknown
	StatusRemove Status = "rm"   // delete running
)

// Event advances a Status
type Event int

const (
	EventRequestPull Event = iota
	EventRequestDelete
	EventProgress
	EventClose
)

func (e Event) String() string {
	switch e {
	case EventRequestPull:
		return "request-pull"
	case EventRequestDelete:
		return "request-delete"
	case EventProgress:
		return "progress"
	case EventClose:
		return "close"
	}
	return "unknown"
}

var (
	// ErrInvalidTransition is returned for an event the current status does not accept
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrBusy is returned when an operation is already running for the key
	ErrBusy = errors.New("operation already in progress")
)

// Pulling returns the status of a pull at percent completion
func Pulling(percent int) Status {
	return StatusPull + Status(":"+strconv.Itoa(percent))
}

// Phase strips the progress suffix: "pull:42" -> "pull".
// The empty status is reported as StatusNope.
func (s Status) Phase() Status {
	if s == "" {
		return StatusNope
	}
	phase, _, _ := strings.Cut(string(s), ":")
	return Status(phase)
}

// Percent returns the progress of a pull, if known
func (s Status) Percent() (int, bool) {
	_, value, ok := strings.Cut(string(s), ":")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Busy reports whether an operation is running
func (s Status) Busy() bool {
	phase := s.Phase()
	return phase == StatusPull || phase == StatusRemove
}

// Next applies ev to from. percent is only used by EventProgress.
//
//	nope  --request-pull-->   pull
//	pull  --progress-->       pull:<percent>
//	pull  --close-->          idle
//	idle  --request-delete--> rm
//	rm    --close-->          nope
func Next(from Status, ev Event, percent int) (Status, error) {
	phase := from.Phase()
	switch {
	case ev == EventRequestPull && phase == StatusNope:
		return StatusPull, nil
	case ev == EventRequestDelete && phase == StatusIdle:
		return StatusRemove, nil
	case ev == EventProgress && phase == StatusPull:
		return Pulling(percent), nil
	case ev == EventClose && phase == StatusPull:
		return StatusIdle, nil
	case ev == EventClose && phase == StatusRemove:
		return StatusNope, nil
	case (ev == EventRequestPull || ev == EventRequestDelete) && from.Busy():
		return from, ErrBusy
	}
	return from, ErrInvalidTransition
}
