package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/recordings/internal/tree"
)

// subscriberBufferSize is the channel buffer for each subscriber.
const subscriberBufferSize = 64

// Event is what subscribers receive.
type Event struct {
	Change  tree.Change
	Payload map[string]any
}

// Broadcaster is a tree.Notifier that fans changes out to subscribers.
// Subscribers register for a folder id and receive the changes whose
// affected container is that folder; uuid.Nil subscribes to every change.
//
// Delivery never blocks the Store: events are dropped for subscribers
// whose channel is full.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[uuid.UUID]map[string]chan Event // folder -> subID -> ch
	logger      *slog.Logger
}

// NewBroadcaster creates a broadcaster. Pass nil logger for default.
func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		subscribers: make(map[uuid.UUID]map[string]chan Event),
		logger:      logger.With("component", "broadcaster"),
	}
}

// Subscribe registers for changes affecting folder. The subscription is
// removed and its channel closed when ctx is cancelled.
func (b *Broadcaster) Subscribe(ctx context.Context, folder uuid.UUID) (<-chan Event, string) {
	return b.SubscribeBuffered(ctx, folder, subscriberBufferSize)
}

// SubscribeBuffered is Subscribe with a channel of the given capacity. A
// subscriber that expects at most size events never misses one.
func (b *Broadcaster) SubscribeBuffered(ctx context.Context, folder uuid.UUID, size int) (<-chan Event, string) {
	if size < 1 {
		size = subscriberBufferSize
	}
	subID := uuid.New().String()
	ch := make(chan Event, size)

	b.mu.Lock()
	if _, ok := b.subscribers[folder]; !ok {
		b.subscribers[folder] = make(map[string]chan Event)
	}
	b.subscribers[folder][subID] = ch
	b.mu.Unlock()

	b.logger.Debug("subscriber added", "folder", folder, "sub_id", subID)

	go func() {
		<-ctx.Done()
		b.Unsubscribe(folder, subID)
	}()

	return ch, subID
}

// Notify implements tree.Notifier. Sends happen under the read lock so a
// concurrent Unsubscribe cannot close a channel mid-send.
func (b *Broadcaster) Notify(_ tree.Item, c tree.Change) {
	keys := []uuid.UUID{uuid.Nil}
	if c.Container != uuid.Nil {
		keys = append(keys, c.Container)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	var ev *Event
	for _, key := range keys {
		for _, ch := range b.subscribers[key] {
			if ev == nil {
				ev = &Event{Change: c, Payload: c.Payload()}
			}
			select {
			case ch <- *ev:
			default:
				b.logger.Debug("dropped event for slow subscriber", "seq", c.Seq, "folder", key)
			}
		}
	}
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Broadcaster) Unsubscribe(folder uuid.UUID, subID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.subscribers[folder]
	if !ok {
		return
	}
	ch, ok := subs[subID]
	if !ok {
		return
	}
	delete(subs, subID)
	close(ch)
	if len(subs) == 0 {
		delete(b.subscribers, folder)
	}

	b.logger.Debug("subscriber removed", "folder", folder, "sub_id", subID)
}

// Close closes every subscriber channel.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for folder, subs := range b.subscribers {
		for subID, ch := range subs {
			close(ch)
			delete(subs, subID)
		}
		delete(b.subscribers, folder)
	}
}
