package mocks

import (
	"context"
	"sync"

	"github.com/mcoot/rpgdash/internal/model"
)

// PublishedEvent is one captured PublishPlayer call
type PublishedEvent struct {
	Player *model.PlayerRecord
	Source string
}

// MockPublisher records published player updates
type MockPublisher struct {
	mu     sync.Mutex
	events []PublishedEvent
}

// Ensure MockPublisher implements PlayerPublisher
var _ model.PlayerPublisher = (*MockPublisher)(nil)

// NewMockPublisher creates a new MockPublisher
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (p *MockPublisher) PublishPlayer(_ context.Context, player *model.PlayerRecord, source string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, PublishedEvent{Player: player.Clone(), Source: source})
}

// Events returns the captured events in publish order
func (p *MockPublisher) Events() []PublishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]PublishedEvent(nil), p.events...)
}
