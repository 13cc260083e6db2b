package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"aegis/backend/internal/model"
	"aegis/backend/pkg/logger"
	"aegis/backend/pkg/redis"

	"github.com/gorilla/websocket"
)

const (
	feedWriteWait  = 10 * time.Second
	feedPongWait   = 60 * time.Second
	feedPingPeriod = 54 * time.Second
	feedSendBuffer = 64
)

// FeedClient is one WebSocket subscriber. An empty Bot receives every event.
type FeedClient struct {
	feed     *PositionFeed
	conn     *websocket.Conn
	username string
	bot      string
	send     chan []byte
}

type feedMessage struct {
	bot  string
	data []byte
}

// PositionFeed relays position events from Redis pub/sub to connected
// WebSocket clients
type PositionFeed struct {
	clients    map[*FeedClient]struct{}
	register   chan *FeedClient
	unregister chan *FeedClient
	broadcast  chan feedMessage
	done       chan struct{}
	mu         sync.RWMutex

	redis *redis.Client
	log   *logger.Logger
}

func NewPositionFeed(redisClient *redis.Client, log *logger.Logger) *PositionFeed {
	return &PositionFeed{
		clients:    make(map[*FeedClient]struct{}),
		register:   make(chan *FeedClient),
		unregister: make(chan *FeedClient),
		broadcast:  make(chan feedMessage, feedSendBuffer),
		done:       make(chan struct{}),
		redis:      redisClient,
		log:        log,
	}
}

// Run owns the client set until ctx is cancelled, then disconnects everyone
func (f *PositionFeed) Run(ctx context.Context) {
	defer close(f.done)

	for {
		select {
		case <-ctx.Done():
			f.mu.Lock()
			for client := range f.clients {
				delete(f.clients, client)
				close(client.send)
			}
			f.mu.Unlock()
			return

		case client := <-f.register:
			f.mu.Lock()
			f.clients[client] = struct{}{}
			f.mu.Unlock()
			f.log.Debugf("Feed client connected: %s (bot=%q)", client.username, client.bot)

		case client := <-f.unregister:
			f.mu.Lock()
			if _, ok := f.clients[client]; ok {
				delete(f.clients, client)
				close(client.send)
			}
			f.mu.Unlock()
			f.log.Debugf("Feed client disconnected: %s", client.username)

		case msg := <-f.broadcast:
			f.mu.Lock()
			for client := range f.clients {
				if client.bot != "" && client.bot != msg.bot {
					continue
				}
				select {
				case client.send <- msg.data:
				default:
					// slow consumer
					delete(f.clients, client)
					close(client.send)
				}
			}
			f.mu.Unlock()
		}
	}
}

// Listen subscribes to the position channel and forwards each event until
// ctx is cancelled
func (f *PositionFeed) Listen(ctx context.Context) error {
	pubsub := f.redis.Subscribe(ctx, redis.ChannelPositionUpdate)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var event model.PositionEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				f.log.Warnf("Dropping malformed position event: %v", err)
				continue
			}
			select {
			case f.broadcast <- feedMessage{bot: event.BotName, data: []byte(msg.Payload)}:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// Clients returns the number of connected subscribers
func (f *PositionFeed) Clients() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.clients)
}

// Attach registers an upgraded connection and starts its pumps. bot limits
// the client to one bot's events when non-empty.
func (f *PositionFeed) Attach(conn *websocket.Conn, username, bot string) {
	client := &FeedClient{
		feed:     f,
		conn:     conn,
		username: username,
		bot:      bot,
		send:     make(chan []byte, feedSendBuffer),
	}
	select {
	case f.register <- client:
	case <-f.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump only services control frames; clients do not send data
func (c *FeedClient) readPump() {
	defer func() {
		select {
		case c.feed.unregister <- c:
		case <-c.feed.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(feedPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(feedPongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.feed.log.Warnf("Feed read error for %s: %v", c.username, err)
			}
			return
		}
	}
}

func (c *FeedClient) writePump() {
	ticker := time.NewTicker(feedPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
