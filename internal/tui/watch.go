package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/felixgeelhaar/roster/internal/session"
)

// sessionWatch bridges session subscriber callbacks into tea messages.
type sessionWatch struct {
	events      chan session.Event
	done        chan struct{}
	once        sync.Once
	unsubscribe func()
}

// watchSession subscribes to sess. Events are dropped when the buffer is
// full; receivers re-read the session on every message, so only the wakeup
// matters.
func watchSession(sess *session.Session) *sessionWatch {
	w := &sessionWatch{
		events: make(chan session.Event, 16),
		done:   make(chan struct{}),
	}
	w.unsubscribe = sess.Subscribe(func(ev session.Event) {
		select {
		case w.events <- ev:
		default:
		}
	})
	return w
}

// wait returns a command that blocks until the next session event or stop.
func (w *sessionWatch) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case ev := <-w.events:
			return SessionChangedMsg{Event: ev}
		case <-w.done:
			return nil
		}
	}
}

func (w *sessionWatch) stop() {
	w.once.Do(func() {
		w.unsubscribe()
		close(w.done)
	})
}
