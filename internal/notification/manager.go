// Package notification keeps a queue of short-lived user messages that
// close themselves after a timeout.
package notification

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vedsharma/adminkit/internal/logging"
)

// DefaultTimeout is used when neither the notification nor the manager
// sets one.
const DefaultTimeout = 3000 * time.Millisecond

const (
	TypeInfo    = "info"
	TypeSuccess = "success"
	TypeError   = "error"
)

// Notification is a single message.
type Notification struct {
	ID      string
	Type    string
	Title   string
	Body    string
	Timeout time.Duration

	timer *time.Timer
}

// Listener is called after a notification is pushed.
type Listener func(Notification)

// Manager holds open notifications.
type Manager struct {
	mu             sync.Mutex
	defaultTimeout time.Duration
	items          []*Notification
	listeners      map[int]Listener
	nextListener   int
}

// NewManager creates a manager. A non-positive timeout means DefaultTimeout.
func NewManager(defaultTimeout time.Duration) *Manager {
	if defaultTimeout <= 0 {
		defaultTimeout = DefaultTimeout
	}
	return &Manager{
		defaultTimeout: defaultTimeout,
		listeners:      make(map[int]Listener),
	}
}

// Push queues n, assigns an id when missing and starts its close timer.
// It returns the id.
func (m *Manager) Push(n Notification) string {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	item := &n

	m.mu.Lock()
	m.items = append(m.items, item)
	m.startTimeout(item)
	listeners := make([]Listener, 0, len(m.listeners))
	for _, l := range m.listeners {
		listeners = append(listeners, l)
	}
	m.mu.Unlock()

	logging.Debug().Str("id", n.ID).Str("type", n.Type).Msg("Notification pushed")

	for _, l := range listeners {
		l(n)
	}
	return n.ID
}

// Close removes the notification with id and stops its timer. It reports
// whether the notification was open.
func (m *Manager) Close(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, item := range m.items {
		if item.ID != id {
			continue
		}
		if item.timer != nil {
			item.timer.Stop()
			item.timer = nil
		}
		m.items = append(m.items[:i], m.items[i+1:]...)
		return true
	}
	return false
}

// Items returns a copy of the open notifications in push order.
func (m *Manager) Items() []Notification {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Notification, len(m.items))
	for i, item := range m.items {
		out[i] = *item
		out[i].timer = nil
	}
	return out
}

func (m *Manager) DefaultTimeout() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.defaultTimeout
}

func (m *Manager) SetDefaultTimeout(d time.Duration) {
	m.mu.Lock()
	m.defaultTimeout = d
	m.mu.Unlock()
}

// Subscribe registers l for future pushes. The returned func removes it.
func (m *Manager) Subscribe(l Listener) func() {
	m.mu.Lock()
	id := m.nextListener
	m.nextListener++
	m.listeners[id] = l
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

// startTimeout must be called with m.mu held.
func (m *Manager) startTimeout(item *Notification) {
	if item.timer != nil {
		item.timer.Stop()
	}
	timeout := item.Timeout
	if timeout <= 0 {
		timeout = m.defaultTimeout
	}
	id := item.ID
	item.timer = time.AfterFunc(timeout, func() {
		m.Close(id)
	})
}
