package pullstate

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/oklog/ulid/v2"
	"github.com/thesavant42/icr-browser/internal/host"
)

// Key returns the state key of an image tag
func Key(fullName, tag string) string {
	return fullName + ":" + tag
}

// operation describes one of the two user intents
type operation struct {
	name     string
	command  string
	request  Event
	level    host.Level
	doneText string
}

var (
	opPull = operation{
		name:     "pull",
		command:  host.CommandPull,
		request:  EventRequestPull,
		level:    host.LevelSuccess,
		doneText: "Docker image %s pulled",
	}
	opDelete = operation{
		name:     "delete",
		command:  host.CommandRemove,
		request:  EventRequestDelete,
		level:    host.LevelWarning,
		doneText: "Docker image %s removed",
	}
)

// Tracker holds the pull/delete status of every image:tag seen this session.
// Keys are independent; operations on different keys may interleave freely.
type Tracker struct {
	host     host.Host
	notifier host.Notifier
	logger   *log.Logger

	mu       sync.Mutex
	states   map[string]Status
	onChange func(key string, status Status)

	running sync.WaitGroup
}

// NewTracker creates a tracker executing operations on h
func NewTracker(h host.Host, notifier host.Notifier, logger *log.Logger) *Tracker {
	if logger == nil {
		logger = log.Default()
	}
	if h == nil {
		h = host.NopHost{}
	}
	if notifier == nil {
		notifier = host.LogNotifier{Logger: logger}
	}
	return &Tracker{
		host:     h,
		notifier: notifier,
		logger:   logger.WithPrefix("pullstate"),
		states:   make(map[string]Status),
	}
}

// OnChange registers fn to be called after every status change.
// fn runs on the goroutine that caused the change.
func (t *Tracker) OnChange(fn func(key string, status Status)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onChange = fn
}

// CanExecute reports whether pull and delete can do anything
func (t *Tracker) CanExecute() bool {
	return t.host.Available()
}

// Seed marks refs as present locally. Keys with a running operation are left alone.
func (t *Tracker) Seed(refs []string) {
	for _, ref := range refs {
		t.mu.Lock()
		if t.states[ref].Busy() || t.states[ref] == StatusIdle {
			t.mu.Unlock()
			continue
		}
		t.states[ref] = StatusIdle
		t.mu.Unlock()
		t.changed(ref, StatusIdle)
	}
}

// Status returns the status of fullName:tag; unknown keys are StatusNope
func (t *Tracker) Status(fullName, tag string) Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.states[Key(fullName, tag)]; ok {
		return s
	}
	return StatusNope
}

// Snapshot returns a copy of all known statuses
func (t *Tracker) Snapshot() map[string]Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return maps.Clone(t.states)
}

// Wait blocks until every started operation has closed
func (t *Tracker) Wait() {
	t.running.Wait()
}

// RequestPull pulls fullName:tag. It fails with host.ErrUnavailable when
// there is no runtime and with ErrBusy while another operation runs on the key.
func (t *Tracker) RequestPull(ctx context.Context, fullName, tag string) error {
	return t.start(ctx, opPull, fullName, tag)
}

// RequestDelete removes fullName:tag from the local runtime
func (t *Tracker) RequestDelete(ctx context.Context, fullName, tag string) error {
	return t.start(ctx, opDelete, fullName, tag)
}

func (t *Tracker) start(ctx context.Context, op operation, fullName, tag string) error {
	key := Key(fullName, tag)
	logger := t.logger.With("op", ulid.Make().String(), "ref", key, "action", op.name)

	if !t.host.Available() {
		logger.Debug("No container runtime")
		return fmt.Errorf("failed to %s %s: %w", op.name, key, host.ErrUnavailable)
	}

	prev, err := t.apply(key, op.request, 0)
	if err != nil {
		logger.Warn("Request rejected", "status", prev, "err", err)
		return fmt.Errorf("failed to %s %s: %w", op.name, key, err)
	}

	progress := NewProgress()
	handlers := host.StreamHandlers{
		OnOutput: func(line string) {
			logger.Debug("Output", "line", line)
			if op.request != EventRequestPull {
				return
			}
			if percent, ok := progress.Observe(line); ok {
				_, _ = t.apply(key, EventProgress, percent)
			}
		},
		OnError: func(err error) {
			logger.Error("Stream error", "err", err)
		},
		OnClose: func(exitCode int) {
			defer t.running.Done()
			t.finish(logger, op, key, prev, exitCode)
		},
	}

	t.running.Add(1)
	if err := t.host.ExecStreamed(ctx, op.command, []string{key}, handlers); err != nil {
		t.running.Done()
		t.restore(key, prev)
		logger.Warn("Failed to start", "err", err)
		return fmt.Errorf("failed to %s %s: %w", op.name, key, err)
	}

	logger.Info("Started")
	return nil
}

func (t *Tracker) finish(logger *log.Logger, op operation, key string, prev Status, exitCode int) {
	if exitCode != 0 {
		t.restore(key, prev)
		logger.Error("Finished with error", "exit_code", exitCode)
		t.notifier.Notify(host.LevelError, fmt.Sprintf("Failed to %s %s (exit code %d)", op.name, key, exitCode))
		return
	}

	if _, err := t.apply(key, EventClose, 0); err != nil {
		logger.Warn("Unexpected close", "err", err)
		return
	}
	logger.Info("Finished")
	t.notifier.Notify(op.level, fmt.Sprintf(op.doneText, key))
}

// apply moves key through ev and returns the status it had before
func (t *Tracker) apply(key string, ev Event, percent int) (Status, error) {
	t.mu.Lock()
	prev := t.states[key]
	next, err := Next(prev, ev, percent)
	if err != nil {
		t.mu.Unlock()
		return prev, err
	}
	t.states[key] = next
	t.mu.Unlock()

	t.changed(key, next)
	return prev, nil
}

// restore puts key back to the status it had before a failed operation
func (t *Tracker) restore(key string, prev Status) {
	status := prev.Phase()
	t.mu.Lock()
	t.states[key] = status
	t.mu.Unlock()
	t.changed(key, status)
}

func (t *Tracker) changed(key string, status Status) {
	t.mu.Lock()
	fn := t.onChange
	t.mu.Unlock()
	if fn != nil {
		fn(key, status)
	}
}
