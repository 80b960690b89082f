package resolver

import "sync"

// Events emitted while resolving.
const (
	EventResolving = "resolving"
	EventResolved  = "resolved"
	EventError     = "VAST-error"
)

// Event is handed to listeners. URL is set for EventResolving and EventResolved;
// Data is set for EventError and holds ERRORCODE, ERRORMESSAGE, extensions and system.
type Event struct {
	Name         string
	ResolutionID string
	URL          string
	Data         map[string]interface{}
}

// Listener receives events. Branches of a resolution run concurrently, so a listener
// may be called from several goroutines at once.
type Listener func(Event)

// ListenerID identifies a registration for Off.
type ListenerID uint64

type registration struct {
	id       ListenerID
	listener Listener
	once     bool
}

type emitter struct {
	mu        sync.Mutex
	lastID    ListenerID
	listeners map[string][]registration
}

func newEmitter() *emitter {
	return &emitter{listeners: make(map[string][]registration)}
}

func (e *emitter) add(name string, listener Listener, once bool) ListenerID {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastID++
	e.listeners[name] = append(e.listeners[name], registration{id: e.lastID, listener: listener, once: once})
	return e.lastID
}

func (e *emitter) remove(name string, id ListenerID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	registrations := e.listeners[name]
	for i, reg := range registrations {
		if reg.id == id {
			e.listeners[name] = append(registrations[:i:i], registrations[i+1:]...)
			return true
		}
	}
	return false
}

func (e *emitter) emit(event Event) {
	e.mu.Lock()
	registrations := e.listeners[event.Name]
	if len(registrations) == 0 {
		e.mu.Unlock()
		return
	}
	toCall := make([]Listener, 0, len(registrations))
	kept := registrations[:0:0]
	for _, reg := range registrations {
		toCall = append(toCall, reg.listener)
		if !reg.once {
			kept = append(kept, reg)
		}
	}
	e.listeners[event.Name] = kept
	e.mu.Unlock()

	for _, listener := range toCall {
		listener(event)
	}
}
