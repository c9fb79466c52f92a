package events

import (
	"time"
)

// Event is one immutable fact recorded during a planning run
type Event interface {
	Type() string
	StreamID() string
	Data() interface{}
	Timestamp() time.Time
	Version() int
}

// EventHandler receives events for the types it subscribed to
type EventHandler interface {
	Handle(event Event) error
	CanHandle(eventType string) bool
}

// EventStore is an append-only log of run events grouped into streams.
// A stream is one planning run, keyed by run ID.
type EventStore interface {
	AppendEvent(streamID string, event Event) error
	ReadEvents(streamID string, fromVersion int) ([]Event, error)
	Subscribe(eventTypes []string, handler EventHandler) error
	Unsubscribe(handler EventHandler) error
}

// Publisher is the write side of an EventStore used by the processor
type Publisher interface {
	AppendEvent(streamID string, event Event) error
}

// Reader is the read side of an EventStore used to replay one run
type Reader interface {
	ReadEvents(streamID string, fromVersion int) ([]Event, error)
}

type BaseEvent struct {
	EventType    string      `json:"type"`
	Stream       string      `json:"stream_id"`
	EventData    interface{} `json:"data"`
	EventTime    time.Time   `json:"timestamp"`
	EventVersion int         `json:"version"`
}

func (e BaseEvent) Type() string {
	return e.EventType
}

func (e BaseEvent) StreamID() string {
	return e.Stream
}

func (e BaseEvent) Data() interface{} {
	return e.EventData
}

func (e BaseEvent) Timestamp() time.Time {
	return e.EventTime
}

func (e BaseEvent) Version() int {
	return e.EventVersion
}

// NewEvent creates an event stamped with at. The store assigns the version.
func NewEvent(eventType, streamID string, data interface{}, at time.Time) Event {
	return BaseEvent{
		EventType:    eventType,
		Stream:       streamID,
		EventData:    data,
		EventTime:    at,
		EventVersion: 1,
	}
}

// FuncHandler adapts a function to EventHandler. An empty type list
// accepts every event type.
type FuncHandler struct {
	fn    func(Event) error
	types map[string]bool
}

// NewFuncHandler wraps fn as a handler for the given event types
func NewFuncHandler(fn func(Event) error, eventTypes ...string) *FuncHandler {
	types := make(map[string]bool, len(eventTypes))
	for _, t := range eventTypes {
		types[t] = true
	}
	return &FuncHandler{fn: fn, types: types}
}

func (h *FuncHandler) Handle(event Event) error {
	return h.fn(event)
}

func (h *FuncHandler) CanHandle(eventType string) bool {
	return len(h.types) == 0 || h.types[eventType]
}
