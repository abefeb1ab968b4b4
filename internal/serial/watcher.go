package serial

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// PollInterval is the fixed cadence for port polling. No backoff: a short,
// constant interval catches hot-plug events promptly.
const PollInterval = time.Second

// PortsChangedMsg is delivered when the set of connected ports differs
// from the previous poll.
type PortsChangedMsg struct {
	Ports []Port
}

// Watcher polls the OS for connected serial ports on a fixed interval and
// publishes a fresh snapshot whenever the set changes. The previous
// snapshot is owned exclusively by the polling goroutine; consumers only
// ever see immutable snapshots on the change channel.
type Watcher struct {
	interval time.Duration
	list     func() ([]Port, error)
	changes  chan []Port
	done     chan struct{}
	stopOnce sync.Once
}

// NewWatcher creates a watcher using the OS port enumeration.
func NewWatcher() *Watcher {
	return newWatcher(PollInterval, ListPorts)
}

func newWatcher(interval time.Duration, list func() ([]Port, error)) *Watcher {
	return &Watcher{
		interval: interval,
		list:     list,
		changes:  make(chan []Port, 4),
		done:     make(chan struct{}),
	}
}

// Start launches the polling loop.
func (w *Watcher) Start() {
	go w.loop()
}

// Changes returns the channel snapshots are published on.
func (w *Watcher) Changes() <-chan []Port {
	return w.changes
}

// Stop terminates the polling loop. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.done) })
}

func (w *Watcher) loop() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	var previous []Port
	first := true

	for {
		if !first {
			select {
			case <-w.done:
				return
			case <-ticker.C:
			}
		}
		first = false

		ports, err := w.list()
		if err != nil {
			// Transient enumeration failure; the last snapshot stands
			// and the next tick retries naturally.
			continue
		}

		if SamePorts(ports, previous) {
			continue
		}
		previous = ports

		select {
		case w.changes <- ports:
		default:
			// Consumer is behind; it will catch up on the next change.
		}
	}
}

// WaitForChange returns a command that blocks until the next snapshot.
// Pages re-issue it after every PortsChangedMsg to stay subscribed.
func WaitForChange(ch <-chan []Port) tea.Cmd {
	return func() tea.Msg {
		ports, ok := <-ch
		if !ok {
			return nil
		}
		return PortsChangedMsg{Ports: ports}
	}
}
