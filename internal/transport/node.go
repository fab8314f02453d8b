// Package transport is an in-process topic bus carrying scalar commands.
package transport

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
)

var (
	ErrInvalidTopic = errors.New("transport: invalid topic")
	ErrNilHandler   = errors.New("transport: nil handler")
)

// Handler receives one published value.
type Handler func(value float64)

// Node routes published values to the handlers subscribed to a topic.
// Delivery happens on the publisher's goroutine.
type Node struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

func NewNode() *Node {
	return &Node{handlers: make(map[string][]Handler)}
}

// Subscribe registers h on topic after making the topic valid.
func (n *Node) Subscribe(topic string, h func(float64)) error {
	if h == nil {
		return ErrNilHandler
	}
	valid := AsValidTopic(topic)
	if valid == "" {
		return fmt.Errorf("%w: %q", ErrInvalidTopic, topic)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers[valid] = append(n.handlers[valid], h)
	return nil
}

// Publish delivers value to every handler on topic and reports how many
// received it.
func (n *Node) Publish(topic string, value float64) (int, error) {
	valid := AsValidTopic(topic)
	if valid == "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTopic, topic)
	}

	n.mu.RLock()
	handlers := n.handlers[valid]
	n.mu.RUnlock()

	for _, h := range handlers {
		h(value)
	}
	return len(handlers), nil
}

// HasSubscribers reports whether anything listens on topic.
func (n *Node) HasSubscribers(topic string) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.handlers[AsValidTopic(topic)]) > 0
}

// Topics lists subscribed topics in order.
func (n *Node) Topics() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()

	topics := make([]string, 0, len(n.handlers))
	for t := range n.handlers {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	return topics
}

var repeatedSlash = regexp.MustCompile(`/{2,}`)

// AsValidTopic turns s into a valid topic name, or returns "" when that is
// not possible. Spaces become underscores, runs of '/' collapse, and '@',
// ':=' and '"' are rejected.
func AsValidTopic(s string) string {
	t := strings.TrimSpace(s)
	t = strings.ReplaceAll(t, " ", "_")
	t = repeatedSlash.ReplaceAllString(t, "/")

	if strings.Contains(t, "@") || strings.Contains(t, ":=") || strings.Contains(t, `"`) {
		return ""
	}
	if strings.Trim(t, "/") == "" {
		return ""
	}
	if len(t) > 1 {
		t = strings.TrimSuffix(t, "/")
	}
	return t
}
