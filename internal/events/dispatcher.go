package events

import (
	"context"
	"sync"
	"time"

	"forrest/pkg/logging"
)

// Dispatcher is the in-process Emitter.
type Dispatcher struct {
	mu        sync.RWMutex
	listeners map[Name][]Listener
	all       []Listener
	templates *MessageTemplateEngine
	now       func() time.Time
}

var _ Emitter = (*Dispatcher)(nil)

// NewDispatcher creates a dispatcher with the default message templates.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		listeners: make(map[Name][]Listener),
		templates: NewMessageTemplateEngine(),
		now:       time.Now,
	}
}

// Listen registers l for events named name.
func (d *Dispatcher) Listen(name Name, l Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[name] = append(d.listeners[name], l)
}

// ListenAll registers l for every event.
func (d *Dispatcher) ListenAll(l Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.all = append(d.all, l)
}

// Templates exposes the message engine so hosts can override messages.
func (d *Dispatcher) Templates() *MessageTemplateEngine {
	return d.templates
}

// Fire renders the event message and calls the listeners in registration
// order: first those registered for name, then those registered for all.
func (d *Dispatcher) Fire(ctx context.Context, name Name, data Data) {
	event := Event{
		Name:    name,
		Type:    typeOf(name, data),
		Message: d.templates.Render(name, data),
		Data:    data,
		Time:    d.now(),
	}

	if event.Type == TypeWarning {
		logging.Warn("Events", "%s: %s", name, event.Message)
	} else {
		logging.Debug("Events", "%s: %s", name, event.Message)
	}

	d.mu.RLock()
	listeners := make([]Listener, 0, len(d.listeners[name])+len(d.all))
	listeners = append(listeners, d.listeners[name]...)
	listeners = append(listeners, d.all...)
	d.mu.RUnlock()

	for _, l := range listeners {
		l(ctx, event)
	}
}
