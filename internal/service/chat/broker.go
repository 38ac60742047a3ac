package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dsim/backend/internal/logger"
	"github.com/dsim/backend/internal/models"
)

// Broker fans chat messages out to stream subscribers. Fan-out only: no
// replay and no ordering guarantee across publishers, the database is the
// record of truth.
type Broker interface {
	Publish(ctx context.Context, roomID uuid.UUID, msg models.ChatMessage) error

	// Subscribe returns a channel of room messages and a stop function that
	// releases the subscription. The channel is closed after stop.
	Subscribe(ctx context.Context, roomID uuid.UUID) (<-chan models.ChatMessage, func(), error)
}

const subscriberBufferSize = 16

// LocalBroker fans out within one process. Good enough for a single
// instance deployment and for tests.
type LocalBroker struct {
	mu    sync.Mutex
	rooms map[uuid.UUID]map[chan models.ChatMessage]struct{}
}

func NewLocalBroker() *LocalBroker {
	return &LocalBroker{rooms: make(map[uuid.UUID]map[chan models.ChatMessage]struct{})}
}

func (b *LocalBroker) Publish(_ context.Context, roomID uuid.UUID, msg models.ChatMessage) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.rooms[roomID] {
		select {
		case ch <- msg:
		default:
			// Slow subscriber, drop instead of blocking the sender
		}
	}
	return nil
}

func (b *LocalBroker) Subscribe(_ context.Context, roomID uuid.UUID) (<-chan models.ChatMessage, func(), error) {
	ch := make(chan models.ChatMessage, subscriberBufferSize)

	b.mu.Lock()
	subs, ok := b.rooms[roomID]
	if !ok {
		subs = make(map[chan models.ChatMessage]struct{})
		b.rooms[roomID] = subs
	}
	subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.rooms[roomID], ch)
			if len(b.rooms[roomID]) == 0 {
				delete(b.rooms, roomID)
			}
			b.mu.Unlock()
			close(ch)
		})
	}

	return ch, stop, nil
}

// RedisBroker fans out through redis pub/sub channels keyed by room id, so
// streams keep working when the service runs as several instances
type RedisBroker struct {
	client *redis.Client
	logger logger.Logger
}

func NewRedisBroker(client *redis.Client, l logger.Logger) *RedisBroker {
	if l == nil {
		l = logger.NewNoOpLogger()
	}
	return &RedisBroker{client: client, logger: l}
}

func roomChannel(roomID uuid.UUID) string {
	return "chat:room:" + roomID.String()
}

func (b *RedisBroker) Publish(ctx context.Context, roomID uuid.UUID, msg models.ChatMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("error while encoding chat message. Err: %w", err)
	}

	if err := b.client.Publish(ctx, roomChannel(roomID), payload).Err(); err != nil {
		return fmt.Errorf("error while publishing chat message. Err: %w", err)
	}
	return nil
}

func (b *RedisBroker) Subscribe(ctx context.Context, roomID uuid.UUID) (<-chan models.ChatMessage, func(), error) {
	pubsub := b.client.Subscribe(ctx, roomChannel(roomID))

	// Make sure the subscription is live before the caller relies on it
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("error while subscribing to room channel. Err: %w", err)
	}

	out := make(chan models.ChatMessage, subscriberBufferSize)
	go func() {
		defer close(out)
		for redisMsg := range pubsub.Channel() {
			var msg models.ChatMessage
			if err := json.Unmarshal([]byte(redisMsg.Payload), &msg); err != nil {
				b.logger.Warn("dropping undecodable chat message", "room_id", roomID, "error", err.Error())
				continue
			}
			out <- msg
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() { _ = pubsub.Close() })
	}

	return out, stop, nil
}
