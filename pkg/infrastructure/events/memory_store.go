package events

import (
	"sync"

	"go.uber.org/zap"
)

// InMemoryEventStore keeps run streams in process memory. Subscribers are
// notified synchronously after the append, outside the store lock.
type InMemoryEventStore struct {
	streams     map[string][]Event
	order       []string // stream IDs, oldest first
	maxStreams  int
	subscribers map[string][]EventHandler
	mutex       sync.RWMutex
	logger      *zap.Logger
}

// NewInMemoryEventStore creates a store that keeps every stream
func NewInMemoryEventStore(logger *zap.Logger) *InMemoryEventStore {
	return NewBoundedEventStore(logger, 0)
}

// NewBoundedEventStore creates a store that keeps the maxStreams most
// recently started streams. Zero or less keeps every stream.
func NewBoundedEventStore(logger *zap.Logger, maxStreams int) *InMemoryEventStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryEventStore{
		streams:     make(map[string][]Event),
		maxStreams:  maxStreams,
		subscribers: make(map[string][]EventHandler),
		logger:      logger,
	}
}

func (s *InMemoryEventStore) AppendEvent(streamID string, event Event) error {
	s.mutex.Lock()
	stream, exists := s.streams[streamID]
	if !exists {
		s.order = append(s.order, streamID)
		s.evictLocked()
	}
	versioned := BaseEvent{
		EventType:    event.Type(),
		Stream:       streamID,
		EventData:    event.Data(),
		EventTime:    event.Timestamp(),
		EventVersion: len(stream) + 1,
	}
	s.streams[streamID] = append(stream, versioned)
	handlers := append([]EventHandler(nil), s.subscribers[versioned.EventType]...)
	s.mutex.Unlock()

	for _, h := range handlers {
		if !h.CanHandle(versioned.EventType) {
			continue
		}
		if err := h.Handle(versioned); err != nil {
			s.logger.Warn("event handler failed",
				zap.String("event_type", versioned.EventType),
				zap.String("stream_id", streamID),
				zap.Error(err))
		}
	}
	return nil
}

// evictLocked drops the oldest streams beyond maxStreams
func (s *InMemoryEventStore) evictLocked() {
	if s.maxStreams <= 0 {
		return
	}
	for len(s.order) > s.maxStreams {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.streams, oldest)
		s.logger.Debug("event stream evicted", zap.String("stream_id", oldest))
	}
}

// ReadEvents returns a stream from fromVersion on. An unknown or evicted
// stream reads as empty.
func (s *InMemoryEventStore) ReadEvents(streamID string, fromVersion int) ([]Event, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	events := s.streams[streamID]
	if fromVersion < 1 {
		fromVersion = 1
	}
	if fromVersion > len(events) {
		return []Event{}, nil
	}
	return append([]Event(nil), events[fromVersion-1:]...), nil
}

// StreamCount returns the number of retained streams
func (s *InMemoryEventStore) StreamCount() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.streams)
}

func (s *InMemoryEventStore) Subscribe(eventTypes []string, handler EventHandler) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, eventType := range eventTypes {
		s.subscribers[eventType] = append(s.subscribers[eventType], handler)
	}
	return nil
}

// Unsubscribe removes a handler from every type it was subscribed to.
// Handlers are compared by identity, so they must be comparable values.
func (s *InMemoryEventStore) Unsubscribe(handler EventHandler) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for eventType, handlers := range s.subscribers {
		kept := handlers[:0:0]
		for _, h := range handlers {
			if h != handler {
				kept = append(kept, h)
			}
		}
		s.subscribers[eventType] = kept
	}
	return nil
}
