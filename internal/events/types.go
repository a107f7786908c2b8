// Package events provides the in-process event bus used to fan out catalog
// changes to live views.
package events

import (
	"context"
	"time"
)

// EventType represents the type of event
type EventType string

const (
	EventItemCreated    EventType = "catalog.item.created"
	EventItemUpdated    EventType = "catalog.item.updated"
	EventItemDeleted    EventType = "catalog.item.deleted"
	EventCommentCreated EventType = "catalog.comment.created"
	EventCommentDeleted EventType = "catalog.comment.deleted"

	EventSystemStarted EventType = "system.started"
	EventSystemStopped EventType = "system.stopped"
	EventConfigChanged EventType = "system.config.changed"
)

// ItemEventTypes lists every event that changes the item collection.
var ItemEventTypes = []EventType{EventItemCreated, EventItemUpdated, EventItemDeleted}

// EventPriority represents the priority level of an event
type EventPriority int

const (
	PriorityLow      EventPriority = 1
	PriorityNormal   EventPriority = 5
	PriorityHigh     EventPriority = 10
	PriorityCritical EventPriority = 20
)

// Event represents a system event
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Source    string                 `json:"source"`
	Target    string                 `json:"target"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data"`
	Priority  EventPriority          `json:"priority"`
	Timestamp time.Time              `json:"timestamp"`
}

// EventHandler represents a function that handles events
type EventHandler func(event Event) error

// EventFilter represents filters for event subscriptions
type EventFilter struct {
	Types   []EventType `json:"types,omitempty"`
	Sources []string    `json:"sources,omitempty"`
	Target  string      `json:"target,omitempty"`
}

// Subscription represents an event subscription
type Subscription struct {
	ID            string       `json:"id"`
	Filter        EventFilter  `json:"filter"`
	Handler       EventHandler `json:"-"`
	Subscriber    string       `json:"subscriber"`
	Created       time.Time    `json:"created"`
	LastTriggered *time.Time   `json:"last_triggered,omitempty"`
	TriggerCount  int64        `json:"trigger_count"`
}

// EventStats represents statistics about events
type EventStats struct {
	TotalEvents         int64            `json:"total_events"`
	DroppedEvents       int64            `json:"dropped_events"`
	EventsByType        map[string]int64 `json:"events_by_type"`
	ActiveSubscriptions int              `json:"active_subscriptions"`
}

// EventBusConfig represents configuration for the event bus
type EventBusConfig struct {
	BufferSize int `json:"buffer_size"`
}

// DefaultEventBusConfig returns default configuration
func DefaultEventBusConfig() EventBusConfig {
	return EventBusConfig{BufferSize: 256}
}

// EventBus defines the interface for the event bus system
type EventBus interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(ctx context.Context, subscriber string, filter EventFilter, handler EventHandler) (*Subscription, error)
	Unsubscribe(subscriptionID string) error
	GetSubscriptions() []*Subscription
	GetStats() EventStats
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Health() error
}

// EventLogger defines the logging interface for events
type EventLogger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// NewEvent creates a new event with default values
func NewEvent(eventType EventType, source string, target string) Event {
	return Event{
		Type:      eventType,
		Source:    source,
		Target:    target,
		Data:      make(map[string]interface{}),
		Priority:  PriorityNormal,
		Timestamp: time.Now(),
	}
}

// MatchesFilter checks if an event matches the given filter
func MatchesFilter(event Event, filter EventFilter) bool {
	if len(filter.Types) > 0 {
		found := false
		for _, t := range filter.Types {
			if event.Type == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if len(filter.Sources) > 0 {
		found := false
		for _, s := range filter.Sources {
			if event.Source == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if filter.Target != "" && event.Target != filter.Target {
		return false
	}

	return true
}
