// Package notify is the user-facing notification sink: ephemeral, auto-expiring messages.
package notify

import (
	"slices"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
)

// Type is the visual severity of a notification.
type Type string

const (
	Success Type = "success"
	Error   Type = "error"
	Info    Type = "info"
	Warning Type = "warning"
)

// DefaultDuration is how long a notification stays visible unless told otherwise.
const DefaultDuration = 4200 * time.Millisecond

// Sticky keeps a notification until it is dismissed.
const Sticky time.Duration = -1

// Options tune one notification. Zero Duration means the center default; negative means sticky.
type Options struct {
	Type     Type
	Title    string
	Duration time.Duration
}

// Notification is one visible message.
type Notification struct {
	ID        string
	Message   string
	Title     string
	Type      Type
	CreatedAt time.Time
}

// EventKind tells subscribers what happened.
type EventKind int

const (
	Added EventKind = iota
	Dismissed
)

// Event is delivered to subscribers.
type Event struct {
	Kind         EventKind
	Notification Notification
}

// Notifier is what business logic publishes to.
type Notifier interface {
	Notify(message string, opts Options) string
}

// Center keeps the active notifications and expires them on timers.
type Center struct {
	mu     sync.Mutex
	items  []Notification
	timers map[string]*time.Timer
	subs   []func(Event)
	def    time.Duration
	closed bool
	log    *zap.Logger
}

var _ Notifier = (*Center)(nil)

// NewCenter builds a Center. Zero def selects DefaultDuration; negative def makes
// notifications sticky unless they set their own Duration.
func NewCenter(def time.Duration, log *zap.Logger) *Center {
	if log == nil {
		log = zap.NewNop()
	}
	if def == 0 {
		def = DefaultDuration
	}
	return &Center{timers: map[string]*time.Timer{}, def: def, log: log}
}

// Subscribe registers fn for every add/dismiss. fn runs outside the center lock.
func (c *Center) Subscribe(fn func(Event)) {
	c.mu.Lock()
	c.subs = append(c.subs, fn)
	c.mu.Unlock()
}

// Notify publishes message and returns its id. After Close it only logs.
func (c *Center) Notify(message string, opts Options) string {
	if opts.Type == "" {
		opts.Type = Info
	}
	dur := opts.Duration
	if dur == 0 {
		dur = c.def
	}
	n := Notification{
		ID:        uuid.Must(uuid.NewV4()).String(),
		Message:   message,
		Title:     opts.Title,
		Type:      opts.Type,
		CreatedAt: time.Now(),
	}
	c.log.Debug("notify", zap.String("type", string(n.Type)), zap.String("message", message))

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return n.ID
	}
	c.items = append(c.items, n)
	if dur > 0 {
		id := n.ID
		c.timers[id] = time.AfterFunc(dur, func() { c.Dismiss(id) })
	}
	subs := slices.Clone(c.subs)
	c.mu.Unlock()

	for _, fn := range subs {
		fn(Event{Kind: Added, Notification: n})
	}
	return n.ID
}

// Dismiss removes id; false if it was not active.
func (c *Center) Dismiss(id string) bool {
	c.mu.Lock()
	idx := -1
	for i, n := range c.items {
		if n.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.mu.Unlock()
		return false
	}
	n := c.items[idx]
	c.items = append(c.items[:idx:idx], c.items[idx+1:]...)
	if t, ok := c.timers[id]; ok {
		t.Stop()
		delete(c.timers, id)
	}
	subs := slices.Clone(c.subs)
	c.mu.Unlock()

	for _, fn := range subs {
		fn(Event{Kind: Dismissed, Notification: n})
	}
	return true
}

// Active returns the visible notifications, oldest first.
func (c *Center) Active() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Notification(nil), c.items...)
}

// Close cancels pending timers and stops accepting notifications.
func (c *Center) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for id, t := range c.timers {
		t.Stop()
		delete(c.timers, id)
	}
}
