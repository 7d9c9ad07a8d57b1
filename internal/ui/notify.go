package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/thesavant42/icr-browser/internal/host"
)

// NotifyMsg carries a user notification into the program
type NotifyMsg struct {
	Level   host.Level
	Message string
}

// ProgramNotifier logs notifications and forwards them to a running program.
// It can be handed out before the program exists; see Attach.
type ProgramNotifier struct {
	logger *log.Logger

	mu      sync.Mutex
	program *tea.Program
}

func NewProgramNotifier(logger *log.Logger) *ProgramNotifier {
	if logger == nil {
		logger = log.Default()
	}
	return &ProgramNotifier{logger: logger.WithPrefix("notify")}
}

// Attach starts forwarding to p
func (n *ProgramNotifier) Attach(p *tea.Program) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.program = p
}

// Notify must not be called from inside the program's Update
func (n *ProgramNotifier) Notify(level host.Level, message string) {
	host.LogNotifier{Logger: n.logger}.Notify(level, message)

	n.mu.Lock()
	p := n.program
	n.mu.Unlock()
	if p != nil {
		p.Send(NotifyMsg{Level: level, Message: message})
	}
}
