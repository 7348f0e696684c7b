// Package notify collects non-fatal, user-facing notifications.
//
// A failed fetch never aborts a comparison. Instead the failing component
// publishes a [Notification] ("Failed to fetch size data for lodash") and
// carries on. The [Center] keeps a bounded history of recent notifications,
// logs each one and fans it out to subscribers such as the TUI status line
// or the websocket event stream.
package notify

import (
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	pkgerrors "github.com/matzehuels/pkgcompare/pkg/errors"
	"github.com/matzehuels/pkgcompare/pkg/record"
)

// DefaultLimit is the number of notifications a Center keeps.
const DefaultLimit = 50

// Level is the severity of a notification.
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Notification is a single user-facing message.
type Notification struct {
	ID        string           `json:"id"`
	Level     Level            `json:"level"`
	Package   string           `json:"package,omitempty"`
	Dimension record.Dimension `json:"dimension,omitempty"`
	Message   string           `json:"message"`
	Detail    string           `json:"detail,omitempty"`
	At        time.Time        `json:"at"`
}

// Notifier receives notifications.
type Notifier interface {
	Notify(Notification)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(Notification)

// Notify calls f(n).
func (f NotifierFunc) Notify(n Notification) { f(n) }

// Discard drops every notification.
var Discard Notifier = NotifierFunc(func(Notification) {})

// FromError builds an error-level notification. A *PackageFetchError
// anywhere in the chain supplies the package, the dimension and the
// short message; any other error uses its text as the message.
func FromError(err error) Notification {
	n := Notification{Level: LevelError}
	var pe *pkgerrors.PackageFetchError
	if errors.As(err, &pe) {
		n.Package = pe.Package
		n.Dimension = record.Dimension(pe.Dimension)
		n.Message = pe.Notice()
		if pe.Err != nil {
			n.Detail = pe.Err.Error()
		}
		return n
	}
	n.Message = pkgerrors.UserMessage(err)
	return n
}

// Center stores recent notifications and fans them out to subscribers.
// It is safe for concurrent use.
type Center struct {
	mu     sync.Mutex
	limit  int
	items  []Notification
	subs   map[int]func(Notification)
	nextID int
	logger *log.Logger
	now    func() time.Time
}

// NewCenter creates a Center keeping at most limit notifications.
// A limit below 1 uses [DefaultLimit]; a nil logger uses log.Default().
func NewCenter(limit int, logger *log.Logger) *Center {
	if limit < 1 {
		limit = DefaultLimit
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Center{
		limit:  limit,
		subs:   make(map[int]func(Notification)),
		logger: logger,
		now:    time.Now,
	}
}

// Notify records n, logs it and delivers it to every subscriber.
// Missing IDs and timestamps are filled in.
func (c *Center) Notify(n Notification) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Level == "" {
		n.Level = LevelInfo
	}

	c.mu.Lock()
	if n.At.IsZero() {
		n.At = c.now()
	}
	c.items = append(c.items, n)
	if over := len(c.items) - c.limit; over > 0 {
		c.items = append(c.items[:0:0], c.items[over:]...)
	}
	subs := make([]func(Notification), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	c.log(n)
	for _, fn := range subs {
		fn(n)
	}
}

// Error publishes err as an error-level notification and returns it.
func (c *Center) Error(err error) Notification {
	n := FromError(err)
	n.ID = uuid.NewString()
	c.Notify(n)
	return n
}

func (c *Center) log(n Notification) {
	kv := []any{}
	if n.Package != "" {
		kv = append(kv, "package", n.Package)
	}
	if n.Dimension != "" {
		kv = append(kv, "dimension", n.Dimension)
	}
	if n.Detail != "" {
		kv = append(kv, "err", n.Detail)
	}
	switch n.Level {
	case LevelError:
		c.logger.Error(n.Message, kv...)
	case LevelWarn:
		c.logger.Warn(n.Message, kv...)
	default:
		c.logger.Info(n.Message, kv...)
	}
}

// Recent returns the stored notifications, oldest first.
func (c *Center) Recent() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notification, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of stored notifications.
func (c *Center) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Subscribe registers fn for every future notification. Delivery is
// synchronous on the publishing goroutine, so fn must not block.
// The returned function removes the subscription.
func (c *Center) Subscribe(fn func(Notification)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
		})
	}
}
