// Package sse streams committed votes to browsers as server-sent events.
package sse

import (
	"context"
	"sync"

	"lunch-voting/internal/models"
)

const clientBuffer = 16

// Broker fans committed votes out to subscribers of the menu date they were
// cast for.
type Broker struct {
	mu      sync.RWMutex
	clients map[string][]chan models.VoteCastEvent
}

func NewBroker() *Broker {
	return &Broker{clients: make(map[string][]chan models.VoteCastEvent)}
}

// Subscribe registers a client for votes on date (YYYY-MM-DD). The channel is
// closed once ctx is done.
func (b *Broker) Subscribe(ctx context.Context, date string) <-chan models.VoteCastEvent {
	ch := make(chan models.VoteCastEvent, clientBuffer)

	b.mu.Lock()
	b.clients[date] = append(b.clients[date], ch)
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.remove(date, ch)
	}()
	return ch
}

// PublishVoteCast never blocks: a client whose buffer is full misses the event.
func (b *Broker) PublishVoteCast(_ context.Context, ev models.VoteCastEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.clients[ev.MenuDate] {
		select {
		case ch <- ev:
		default:
		}
	}
	return nil
}

func (b *Broker) remove(date string, ch chan models.VoteCastEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	clients := b.clients[date]
	for i, c := range clients {
		if c == ch {
			b.clients[date] = append(clients[:i], clients[i+1:]...)
			close(ch)
			break
		}
	}
	if len(b.clients[date]) == 0 {
		delete(b.clients, date)
	}
}

func (b *Broker) ClientCount(date string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients[date])
}
