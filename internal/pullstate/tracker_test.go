package pullstate

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"
	"github.com/thesavant42/icr-browser/internal/host"
)

const testImage = "containers.intersystems.com/intersystems/iris-community"

// manualHost captures handlers so tests can drive the stream step by step
type manualHost struct {
	mu       sync.Mutex
	handlers map[string]host.StreamHandlers
	commands []string
}

func newManualHost() *manualHost {
	return &manualHost{handlers: make(map[string]host.StreamHandlers)}
}

func (h *manualHost) Available() bool { return true }

func (h *manualHost) ExecStreamed(_ context.Context, command string, args []string, hd host.StreamHandlers) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[args[0]] = hd
	h.commands = append(h.commands, command+" "+args[0])
	return nil
}

func (h *manualHost) ListLocalImages(context.Context) ([]string, error) { return nil, nil }

func (h *manualHost) stream(ref string) host.StreamHandlers {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.handlers[ref]
}

type note struct {
	level   host.Level
	message string
}

type recordingNotifier struct {
	mu    sync.Mutex
	notes []note
}

func (n *recordingNotifier) Notify(level host.Level, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, note{level, message})
}

func (n *recordingNotifier) all() []note {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]note(nil), n.notes...)
}

func newTestTracker(h host.Host) (*Tracker, *recordingNotifier, *[]Status) {
	notifier := &recordingNotifier{}
	tracker := NewTracker(h, notifier, log.New(io.Discard))

	var mu sync.Mutex
	history := &[]Status{}
	tracker.OnChange(func(_ string, s Status) {
		mu.Lock()
		defer mu.Unlock()
		*history = append(*history, s)
	})
	return tracker, notifier, history
}

func TestTrackerPull(t *testing.T) {
	h := newManualHost()
	tracker, notifier, history := newTestTracker(h)
	ref := Key(testImage, "2023.1.0")

	require.NoError(t, tracker.RequestPull(context.Background(), testImage, "2023.1.0"))
	require.Equal(t, StatusPull, tracker.Status(testImage, "2023.1.0"))
	require.Equal(t, []string{"pull " + ref}, h.commands)

	stream := h.stream(ref)
	stream.Output("aaaaaaaaaaaa: Pulling fs layer")
	require.Equal(t, Pulling(20), tracker.Status(testImage, "2023.1.0"))
	stream.Output("aaaaaaaaaaaa: Download complete")
	stream.Output("aaaaaaaaaaaa: Pull complete")
	require.Equal(t, Pulling(100), tracker.Status(testImage, "2023.1.0"))

	stream.Close(0)
	tracker.Wait()

	require.Equal(t, StatusIdle, tracker.Status(testImage, "2023.1.0"))
	require.Equal(t, []Status{StatusPull, Pulling(20), Pulling(80), Pulling(100), StatusIdle}, *history)
	require.NotContains(t, *history, StatusNope)
	require.Equal(t, []note{{host.LevelSuccess, "Docker image " + ref + " pulled"}}, notifier.all())
}

func TestTrackerDelete(t *testing.T) {
	h := newManualHost()
	tracker, notifier, history := newTestTracker(h)
	ref := Key(testImage, "2023.1.0")
	tracker.Seed([]string{ref})

	require.NoError(t, tracker.RequestDelete(context.Background(), testImage, "2023.1.0"))
	require.Equal(t, StatusRemove, tracker.Status(testImage, "2023.1.0"))

	stream := h.stream(ref)
	stream.Output("Untagged: " + ref)
	stream.Output("aaaaaaaaaaaa: Pull complete")
	require.Equal(t, StatusRemove, tracker.Status(testImage, "2023.1.0"))

	stream.Close(0)
	tracker.Wait()

	require.Equal(t, StatusNope, tracker.Status(testImage, "2023.1.0"))
	require.Equal(t, []Status{StatusIdle, StatusRemove, StatusNope}, *history)
	require.Equal(t, []string{"rmi " + ref}, h.commands)
	require.Equal(t, []note{{host.LevelWarning, "Docker image " + ref + " removed"}}, notifier.all())
}

func TestTrackerRejectsSecondRequest(t *testing.T) {
	h := newManualHost()
	tracker, _, _ := newTestTracker(h)
	ctx := context.Background()

	require.NoError(t, tracker.RequestPull(ctx, testImage, "latest"))
	h.stream(Key(testImage, "latest")).Output("aaaaaaaaaaaa: Waiting")

	err := tracker.RequestPull(ctx, testImage, "latest")
	require.ErrorIs(t, err, ErrBusy)
	err = tracker.RequestDelete(ctx, testImage, "latest")
	require.ErrorIs(t, err, ErrBusy)
	require.Equal(t, Pulling(40), tracker.Status(testImage, "latest"))
	require.Len(t, h.commands, 1)

	h.stream(Key(testImage, "latest")).Close(0)
	tracker.Wait()
	require.Equal(t, StatusIdle, tracker.Status(testImage, "latest"))
}

func TestTrackerWithoutRuntime(t *testing.T) {
	tracker, notifier, history := newTestTracker(host.NopHost{})
	local := Key(testImage, "2022.1.0")
	tracker.Seed([]string{local})
	*history = nil

	require.False(t, tracker.CanExecute())
	err := tracker.RequestPull(context.Background(), testImage, "latest")
	require.ErrorIs(t, err, host.ErrUnavailable)
	err = tracker.RequestDelete(context.Background(), testImage, "2022.1.0")
	require.ErrorIs(t, err, host.ErrUnavailable)

	require.Equal(t, StatusNope, tracker.Status(testImage, "latest"))
	require.Equal(t, StatusIdle, tracker.Status(testImage, "2022.1.0"))
	require.Equal(t, map[string]Status{local: StatusIdle}, tracker.Snapshot())
	require.Empty(t, *history)
	require.Empty(t, notifier.all())
}

func TestTrackerFailedOperationReverts(t *testing.T) {
	h := newManualHost()
	tracker, notifier, _ := newTestTracker(h)
	ctx := context.Background()
	local := Key(testImage, "2022.1.0")
	tracker.Seed([]string{local})

	require.NoError(t, tracker.RequestPull(ctx, testImage, "2023.1.0"))
	require.NoError(t, tracker.RequestDelete(ctx, testImage, "2022.1.0"))

	pull := h.stream(Key(testImage, "2023.1.0"))
	pull.Output("aaaaaaaaaaaa: Waiting")
	pull.Close(1)

	rm := h.stream(local)
	rm.Close(1)
	tracker.Wait()

	require.Equal(t, StatusNope, tracker.Status(testImage, "2023.1.0"))
	require.Equal(t, StatusIdle, tracker.Status(testImage, "2022.1.0"))

	notes := notifier.all()
	require.Len(t, notes, 2)
	for _, n := range notes {
		require.Equal(t, host.LevelError, n.level)
	}
}

func TestTrackerStreamErrorWaitsForClose(t *testing.T) {
	h := newManualHost()
	tracker, _, _ := newTestTracker(h)

	require.NoError(t, tracker.RequestPull(context.Background(), testImage, "latest"))
	stream := h.stream(Key(testImage, "latest"))
	stream.Output("aaaaaaaaaaaa: Pulling fs layer")
	stream.Error(errors.New("broken pipe"))
	require.Equal(t, Pulling(20), tracker.Status(testImage, "latest"))

	stream.Close(0)
	tracker.Wait()
	require.Equal(t, StatusIdle, tracker.Status(testImage, "latest"))
}

func TestTrackerIndependentKeys(t *testing.T) {
	h := newManualHost()
	tracker, _, _ := newTestTracker(h)
	ctx := context.Background()
	tags := []string{"2021.1.0", "2022.1.0", "2023.1.0"}

	for _, tag := range tags {
		require.NoError(t, tracker.RequestPull(ctx, testImage, tag))
	}

	var wg sync.WaitGroup
	for i, tag := range tags {
		wg.Add(1)
		go func(i int, tag string) {
			defer wg.Done()
			stream := h.stream(Key(testImage, tag))
			for range i + 1 {
				stream.Output("aaaaaaaaaaaa: Waiting")
			}
			if i != 1 {
				stream.Close(0)
			}
		}(i, tag)
	}
	wg.Wait()

	require.Equal(t, StatusIdle, tracker.Status(testImage, "2021.1.0"))
	require.Equal(t, Pulling(40), tracker.Status(testImage, "2022.1.0"))
	require.Equal(t, StatusIdle, tracker.Status(testImage, "2023.1.0"))

	h.stream(Key(testImage, "2022.1.0")).Close(0)
	tracker.Wait()
	require.Equal(t, StatusIdle, tracker.Status(testImage, "2022.1.0"))
}

func TestTrackerSeedAndSnapshot(t *testing.T) {
	h := newManualHost()
	tracker, _, _ := newTestTracker(h)
	busy := Key(testImage, "latest")

	require.NoError(t, tracker.RequestPull(context.Background(), testImage, "latest"))
	tracker.Seed([]string{Key(testImage, "2023.1.0"), busy})

	snapshot := tracker.Snapshot()
	require.Equal(t, map[string]Status{
		Key(testImage, "2023.1.0"): StatusIdle,
		busy:                       StatusPull,
	}, snapshot)

	// the snapshot is a copy
	snapshot[busy] = StatusNope
	require.Equal(t, StatusPull, tracker.Status(testImage, "latest"))

	h.stream(busy).Close(0)
	tracker.Wait()
}
