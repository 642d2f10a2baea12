// Package notify holds transient in-process notifications.
//
// The Center is both the notification list shown by interactive surfaces and
// the toast sink injected into the API client and the stores. It never
// touches the network and nothing in it survives process exit.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Notification types.
const (
	TypeSuccess = "success"
	TypeError   = "error"
	TypeInfo    = "info"
)

// Notifier is the transient-message primitive consumed by the API client and
// the stores. Implementations must be safe for concurrent use.
type Notifier interface {
	Success(title, message string)
	Error(title, message string)
	Info(title, message string)
}

// Notification is a single transient message.
type Notification struct {
	ID        string
	Type      string
	Title     string
	Message   string
	CreatedAt time.Time
	Read      bool
	Data      map[string]any
}

// Center is an in-memory notification list with an unread counter.
type Center struct {
	mu            sync.Mutex
	notifications []Notification
	unread        int
	now           func() time.Time
}

// NewCenter creates an empty notification center.
func NewCenter() *Center {
	return &Center{now: time.Now}
}

// Add assigns a local identity and creation time, marks the notification
// unread and prepends it to the list. The stored copy is returned.
func (c *Center) Add(n Notification) Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	n.ID = uuid.New().String()
	n.CreatedAt = c.now()
	n.Read = false

	c.notifications = append([]Notification{n}, c.notifications...)
	c.unread++
	return n
}

// Success implements Notifier.
func (c *Center) Success(title, message string) {
	c.Add(Notification{Type: TypeSuccess, Title: title, Message: message})
}

// Error implements Notifier.
func (c *Center) Error(title, message string) {
	c.Add(Notification{Type: TypeError, Title: title, Message: message})
}

// Info implements Notifier.
func (c *Center) Info(title, message string) {
	c.Add(Notification{Type: TypeInfo, Title: title, Message: message})
}

// MarkRead flips a single notification to read. Unknown IDs are ignored.
func (c *Center) MarkRead(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.notifications {
		if c.notifications[i].ID == id {
			if !c.notifications[i].Read {
				c.notifications[i].Read = true
				c.unread--
			}
			return
		}
	}
}

// MarkAllRead flips every notification to read and zeroes the counter.
func (c *Center) MarkAllRead() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.notifications {
		c.notifications[i].Read = true
	}
	c.unread = 0
}

// Delete removes a notification by identity, decrementing the unread count
// only when the removed item was unread.
func (c *Center) Delete(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.notifications {
		if c.notifications[i].ID == id {
			if !c.notifications[i].Read {
				c.unread--
			}
			c.notifications = append(c.notifications[:i], c.notifications[i+1:]...)
			return
		}
	}
}

// Clear empties the list and zeroes the unread count.
func (c *Center) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notifications = nil
	c.unread = 0
}

// All returns a copy of the list, newest first.
func (c *Center) All() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notification, len(c.notifications))
	copy(out, c.notifications)
	return out
}

// Unread returns the number of unread notifications.
func (c *Center) Unread() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unread
}

// Discard is a Notifier that drops everything. Used by quiet commands.
type Discard struct{}

func (Discard) Success(string, string) {}
func (Discard) Error(string, string)   {}
func (Discard) Info(string, string)    {}
