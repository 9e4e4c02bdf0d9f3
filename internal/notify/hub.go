// Package notify is the in-process toast queue shown to the shopper.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/gearstore/pkg/enums"
)

// DefaultTTL is how long a toast stays active before it is dismissed.
const DefaultTTL = 3 * time.Second

// Toast is a short-lived message for the shopper.
type Toast struct {
	ID          string             `json:"id"`
	Title       string             `json:"title,omitempty"`
	Description string             `json:"description,omitempty"`
	Variant     enums.ToastVariant `json:"variant"`
	CreatedAt   time.Time          `json:"created_at"`
}

// Listener receives the full active queue after every change.
type Listener func([]Toast)

// Hub owns the active toasts and the listeners for the lifetime of the process.
type Hub struct {
	ttl time.Duration
	now func() time.Time

	mu        sync.Mutex
	active    []Toast
	timers    map[string]*time.Timer
	listeners map[uint64]Listener
	nextID    uint64
	closed    bool
}

// NewHub builds a hub that dismisses toasts after ttl. A non-positive ttl uses DefaultTTL.
func NewHub(ttl time.Duration) *Hub {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Hub{
		ttl:       ttl,
		now:       time.Now,
		timers:    map[string]*time.Timer{},
		listeners: map[uint64]Listener{},
	}
}

// Publish queues a toast and returns its id. Publishing on a closed hub returns "".
func (h *Hub) Publish(toast Toast) string {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ""
	}
	toast.ID = uuid.NewString()
	if !toast.Variant.IsValid() {
		toast.Variant = enums.ToastVariantDefault
	}
	toast.CreatedAt = h.now().UTC()
	h.active = append(h.active, toast)

	id := toast.ID
	h.timers[id] = time.AfterFunc(h.ttl, func() { h.Dismiss(id) })
	snapshot, listeners := h.snapshotLocked()
	h.mu.Unlock()

	notify(listeners, snapshot)
	return id
}

// Info publishes a default toast.
func (h *Hub) Info(title, description string) string {
	return h.Publish(Toast{Title: title, Description: description, Variant: enums.ToastVariantDefault})
}

// Alert publishes a destructive toast.
func (h *Hub) Alert(title, description string) string {
	return h.Publish(Toast{Title: title, Description: description, Variant: enums.ToastVariantDestructive})
}

// Dismiss removes a toast before its ttl and reports whether it was active.
func (h *Hub) Dismiss(id string) bool {
	h.mu.Lock()
	idx := -1
	for i, toast := range h.active {
		if toast.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		h.mu.Unlock()
		return false
	}
	h.active = append(h.active[:idx:idx], h.active[idx+1:]...)
	if timer, ok := h.timers[id]; ok {
		timer.Stop()
		delete(h.timers, id)
	}
	snapshot, listeners := h.snapshotLocked()
	h.mu.Unlock()

	notify(listeners, snapshot)
	return true
}

// Subscribe registers fn and returns a function that removes it. Calling the
// returned function more than once is safe.
func (h *Hub) Subscribe(fn Listener) func() {
	if fn == nil {
		return func() {}
	}
	h.mu.Lock()
	h.nextID++
	key := h.nextID
	h.listeners[key] = fn
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.listeners, key)
			h.mu.Unlock()
		})
	}
}

// Active returns a copy of the toasts currently shown.
func (h *Hub) Active() []Toast {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Toast, len(h.active))
	copy(out, h.active)
	return out
}

// Close stops pending dismissals and drops every listener.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, timer := range h.timers {
		timer.Stop()
		delete(h.timers, id)
	}
	h.listeners = map[uint64]Listener{}
	h.active = nil
	h.closed = true
}

func (h *Hub) snapshotLocked() ([]Toast, []Listener) {
	snapshot := make([]Toast, len(h.active))
	copy(snapshot, h.active)
	listeners := make([]Listener, 0, len(h.listeners))
	for _, fn := range h.listeners {
		listeners = append(listeners, fn)
	}
	return snapshot, listeners
}

func notify(listeners []Listener, snapshot []Toast) {
	for _, fn := range listeners {
		fn(snapshot)
	}
}
