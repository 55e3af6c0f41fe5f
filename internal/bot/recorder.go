package bot

import (
	"fmt"
	"sync"
)

// Recorder is a Router that only records registrations. It backs dry runs
// that load modules without connecting to Discord.
type Recorder struct {
	mu              sync.Mutex
	messageHandlers []string
	commands        []Command
}

var _ Router = (*Recorder)(nil)

// HandleMessage implements Router
func (r *Recorder) HandleMessage(name string, h MessageHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messageHandlers = append(r.messageHandlers, name)
}

// HandleCommand implements Router
func (r *Recorder) HandleCommand(cmd Command) error {
	if cmd.Definition == nil || cmd.Handler == nil {
		return fmt.Errorf("incomplete command registration")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.commands {
		if existing.Definition.Name == cmd.Definition.Name {
			return fmt.Errorf("command %s is already registered", cmd.Definition.Name)
		}
	}
	r.commands = append(r.commands, cmd)
	return nil
}

// MessageHandlers returns the recorded message handler names in registration order
func (r *Recorder) MessageHandlers() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messageHandlers...)
}

// Commands returns the recorded commands in registration order
func (r *Recorder) Commands() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Command(nil), r.commands...)
}

// CommandNames returns the recorded command names in registration order
func (r *Recorder) CommandNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.commands))
	for _, c := range r.commands {
		names = append(names, c.Definition.Name)
	}
	return names
}
