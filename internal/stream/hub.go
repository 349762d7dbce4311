package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/RENEILPH10/Step-Counter/internal/shared/logx"

	"github.com/redis/go-redis/v9"
)

const (
	TopicSnapshot = "snapshot"
	TopicRecords  = "records"
)

const (
	channelPrefix = "stepmeter:"
	channelSuffix = ":events"
	clientBuffer  = 64
)

var subscribeTimeout = 2 * time.Second

// Hub fans out payloads to websocket clients by topic. With Redis configured,
// payloads travel through Redis pub/sub so every replica sees them once.
type Hub struct {
	redis   *redis.Client
	pubsub  *redis.PubSub
	cancel  context.CancelFunc
	log     *slog.Logger
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
}

type Client struct {
	Topic string
	Send  chan []byte
}

func NewHub(redisClient *redis.Client, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = logx.Nop()
	}
	h := &Hub{
		log:     logger,
		clients: map[string]map[*Client]struct{}{},
	}

	if redisClient != nil {
		h.subscribeRedis(redisClient)
	}
	return h
}

func (h *Hub) Register(topic string) *Client {
	client := &Client{
		Topic: topic,
		Send:  make(chan []byte, clientBuffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[topic] == nil {
		h.clients[topic] = map[*Client]struct{}{}
	}
	h.clients[topic][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	topicClients, ok := h.clients[client.Topic]
	if !ok {
		return
	}
	if _, ok := topicClients[client]; !ok {
		return
	}
	delete(topicClients, client)
	if len(topicClients) == 0 {
		delete(h.clients, client.Topic)
	}
	close(client.Send)
}

func (h *Hub) Broadcast(topic string, payload []byte) {
	if h.redis != nil {
		err := h.redis.Publish(context.Background(), redisChannel(topic), payload).Err()
		if err == nil {
			return
		}
		h.log.Warn("redis publish failed, delivering locally", "action", "broadcast", "topic", topic, "error", err)
	}
	h.deliver(topic, payload)
}

func (h *Hub) BroadcastJSON(topic string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		h.log.Error("marshal broadcast payload", "action", "broadcast", "topic", topic, "error", err)
		return
	}
	h.Broadcast(topic, payload)
}

// Clients reports how many subscribers a topic has.
func (h *Hub) Clients(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[topic])
}

func (h *Hub) Close() {
	if h.cancel != nil {
		h.cancel()
	}
	if h.pubsub != nil {
		_ = h.pubsub.Close()
	}
}

// deliver drops the payload for clients whose buffer is full.
func (h *Hub) deliver(topic string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[topic] {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) subscribeRedis(client *redis.Client) {
	ctx, cancel := context.WithCancel(context.Background())
	pubsub := client.PSubscribe(ctx, channelPrefix+"*"+channelSuffix)

	confirmCtx, confirmCancel := context.WithTimeout(ctx, subscribeTimeout)
	defer confirmCancel()
	if _, err := pubsub.Receive(confirmCtx); err != nil {
		h.log.Warn("redis subscribe failed, using in-process fan-out", "action", "subscribe", "error", err)
		_ = pubsub.Close()
		cancel()
		return
	}

	h.redis = client
	h.pubsub = pubsub
	h.cancel = cancel
	go h.forward(ctx, pubsub.Channel())
}

func (h *Hub) forward(ctx context.Context, messages <-chan *redis.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			topic := topicFromChannel(msg.Channel)
			if topic == "" {
				continue
			}
			h.deliver(topic, []byte(msg.Payload))
		}
	}
}

func redisChannel(topic string) string {
	return channelPrefix + topic + channelSuffix
}

func topicFromChannel(ch string) string {
	// stepmeter:{topic}:events
	if len(ch) <= len(channelPrefix)+len(channelSuffix) {
		return ""
	}
	if !strings.HasPrefix(ch, channelPrefix) || !strings.HasSuffix(ch, channelSuffix) {
		return ""
	}
	return ch[len(channelPrefix) : len(ch)-len(channelSuffix)]
}
