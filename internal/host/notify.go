package host

import (
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/log"
)

// Level is the severity of a user notification
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notifier shows transient messages to the user
type Notifier interface {
	Notify(level Level, message string)
}

// Clipboard copies text for the user
type Clipboard interface {
	Copy(text string) error
}

// Opener opens a URL in the user's browser
type Opener interface {
	Open(url string) error
}

// LogNotifier writes notifications to a logger; used when there is no UI
type LogNotifier struct {
	Logger *log.Logger
}

func (n LogNotifier) Notify(level Level, message string) {
	switch level {
	case LevelError:
		n.Logger.Error(message)
	case LevelWarning:
		n.Logger.Warn(message)
	default:
		n.Logger.Info(message, "level", string(level))
	}
}

// SystemClipboard uses the OS clipboard
type SystemClipboard struct{}

func (SystemClipboard) Copy(text string) error {
	return clipboard.WriteAll(text)
}
