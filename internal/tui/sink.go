package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fakeyudi/oximon/internal/monitor"
)

type updateMsg monitor.Update

type alertMsg monitor.Alert

// Sink forwards loop output into the Bubble Tea event loop. It implements
// monitor.Sink.
type Sink struct {
	ch   chan tea.Msg
	done chan struct{}
	once sync.Once
}

// NewSink returns a Sink that buffers up to buf messages before the loop
// blocks on a slow UI.
func NewSink(buf int) *Sink {
	return &Sink{
		ch:   make(chan tea.Msg, buf),
		done: make(chan struct{}),
	}
}

func (s *Sink) Publish(u monitor.Update) { s.send(updateMsg(u)) }
func (s *Sink) Alert(a monitor.Alert)    { s.send(alertMsg(a)) }

// Close releases a loop blocked on a UI that has gone away. Later sends are
// dropped.
func (s *Sink) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *Sink) send(msg tea.Msg) {
	select {
	case <-s.done:
		return
	default:
	}
	select {
	case s.ch <- msg:
	case <-s.done:
	}
}

// wait blocks until the next message arrives. Re-issue it after every
// message it yields.
func (s *Sink) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-s.ch:
			return msg
		case <-s.done:
			return nil
		}
	}
}
