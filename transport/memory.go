package transport

import (
	"strings"
	"sync"

	"groupchat/contract"
)

// MemoryBus is an in-process Transport with broker-style wildcard matching
// ("*" for one token, ">" for the rest). It backs the integration tests and
// broker-less local runs; delivery is synchronous and best effort, matching
// the guarantees the real broker offers.
type MemoryBus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]*memorySub
}

type memorySub struct {
	bus     *MemoryBus
	id      int
	pattern string
	handler func(topic string, payload []byte)
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[int]*memorySub)}
}

func (b *MemoryBus) Publish(topic string, payload []byte) error {
	b.mu.RLock()
	var matched []*memorySub
	for _, s := range b.subs {
		if topicMatches(s.pattern, topic) {
			matched = append(matched, s)
		}
	}
	b.mu.RUnlock()

	for _, s := range matched {
		s.handler(topic, payload)
	}
	return nil
}

func (b *MemoryBus) Subscribe(pattern string, handler func(topic string, payload []byte)) (contract.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	s := &memorySub{bus: b, id: b.nextID, pattern: pattern, handler: handler}
	b.subs[s.id] = s
	return s, nil
}

func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = make(map[int]*memorySub)
	return nil
}

// SubscriptionCount reports live subscriptions; tests use it to check that
// shutdown leaves nothing behind.
func (b *MemoryBus) SubscriptionCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (s *memorySub) Unsubscribe() error {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	delete(s.bus.subs, s.id)
	return nil
}

// topicMatches implements broker subject matching: "*" matches exactly one
// token, ">" matches one or more trailing tokens.
func topicMatches(pattern, topic string) bool {
	pp := strings.Split(pattern, ".")
	tp := strings.Split(topic, ".")
	for i, p := range pp {
		if p == ">" {
			return i < len(tp)
		}
		if i >= len(tp) {
			return false
		}
		if p != "*" && p != tp[i] {
			return false
		}
	}
	return len(pp) == len(tp)
}
