package core

import "sync"

// System internal event codes. Application should use codes beyond 255.
type EventCode uint16

const (
	// Shuts the application down on the next frame.
	EVENT_CODE_APPLICATION_QUIT EventCode = 0x01
	// Keyboard key pressed. Data: *KeyEvent
	EVENT_CODE_KEY_PRESSED EventCode = 0x02
	// Keyboard key released. Data: *KeyEvent
	EVENT_CODE_KEY_RELEASED EventCode = 0x03
	// Mouse button pressed. Data: *MouseEvent
	EVENT_CODE_BUTTON_PRESSED EventCode = 0x04
	// Mouse button released. Data: *MouseEvent
	EVENT_CODE_BUTTON_RELEASED EventCode = 0x05
	// Mouse moved. Data: *MouseEvent
	EVENT_CODE_MOUSE_MOVED EventCode = 0x06
	// Mouse wheel. Data: *MouseEvent
	EVENT_CODE_MOUSE_WHEEL EventCode = 0x07
	// Resized/resolution changed from the OS. Data: *SystemEvent
	EVENT_CODE_RESIZED EventCode = 0x08

	MAX_EVENT_CODE EventCode = 0xFF
)

type KeyEvent struct {
	KeyCode KeyCode
}

type MouseEvent struct {
	Button Button
	PosX   uint16
	PosY   uint16
	Scroll int8
}

type SystemEvent struct {
	WindowWidth  uint32
	WindowHeight uint32
}

type EventContext struct {
	Type EventCode
	Data interface{}
}

// Should return true if handled.
type FnOnEvent func(context EventContext) bool

type registeredEvent struct {
	id       uint64
	callback FnOnEvent
}

// EventSystem dispatches events synchronously to the listeners registered for a code.
type EventSystem struct {
	mu         sync.RWMutex
	nextID     uint64
	registered map[EventCode][]registeredEvent
}

func NewEventSystem() *EventSystem {
	return &EventSystem{
		registered: make(map[EventCode][]registeredEvent),
	}
}

// Register listens for events sent with the provided code. The returned id is
// used to unregister.
func (es *EventSystem) Register(code EventCode, onEvent FnOnEvent) uint64 {
	es.mu.Lock()
	defer es.mu.Unlock()

	es.nextID++
	es.registered[code] = append(es.registered[code], registeredEvent{
		id:       es.nextID,
		callback: onEvent,
	})
	return es.nextID
}

// Unregister removes the listener with the given id. Returns false if nothing matched.
func (es *EventSystem) Unregister(code EventCode, id uint64) bool {
	es.mu.Lock()
	defer es.mu.Unlock()

	events := es.registered[code]
	for i, e := range events {
		if e.id == id {
			es.registered[code] = append(events[:i:i], events[i+1:]...)
			return true
		}
	}
	return false
}

// Fire sends an event to the listeners of its code in registration order. If a
// handler returns true, the event is considered handled and is not passed on.
func (es *EventSystem) Fire(context EventContext) bool {
	es.mu.RLock()
	events := append([]registeredEvent(nil), es.registered[context.Type]...)
	es.mu.RUnlock()

	for _, e := range events {
		if e.callback(context) {
			return true
		}
	}
	return false
}

// Shutdown drops every registration.
func (es *EventSystem) Shutdown() {
	es.mu.Lock()
	defer es.mu.Unlock()
	es.registered = make(map[EventCode][]registeredEvent)
}
