// Package pubsub distributes session output to any number of connected
// viewers. Publishing never blocks the session: slow subscribers drop
// events and catch up from the next publish.
package pubsub

import (
	"context"
	"encoding/json"
)

// Topics published by the session.
const (
	// TopicFrames carries render frames: node positions, radii, search
	// and selection annotations. New subscribers replay the latest
	// frame so a fresh viewer paints immediately.
	TopicFrames = "frames"
	// TopicStatus carries analysis and watch lifecycle events.
	TopicStatus = "status"
)

// Event is one published message on a topic.
type Event struct {
	Topic   string          `json:"topic"`
	Type    string          `json:"type"`
	Data    json.RawMessage `json:"data"`
	Version int             `json:"version"` // per-topic ordering counter
}

// Subscription is one client's view of a topic.
type Subscription interface {
	// Topic returns the subscription topic.
	Topic() string

	// Events returns the channel events arrive on.
	Events() <-chan Event

	// Close detaches the subscription from the publisher.
	Close() error
}

// Publisher manages subscriptions and event fan-out.
type Publisher interface {
	// Subscribe creates a subscription to a topic. Cancelling ctx
	// closes the subscription.
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	// Publish sends an event to every subscriber of a topic.
	Publish(topic string, eventType string, data interface{}) error

	// Close shuts down the publisher and all subscriptions.
	Close() error
}

// Status describes the analysis/watch state shown in the viewer's
// status line.
type Status struct {
	State   string `json:"state"` // analyzing, ready, watching, analysis_failed
	Message string `json:"message"`
	Nodes   int    `json:"nodes"`
	Edges   int    `json:"edges"`
}
