package ws

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"transfer-status-backend/internal/utils"
)

const (
	writeWait       = 10 * time.Second
	pongWait        = 60 * time.Second
	pingPeriod      = 54 * time.Second
	maxMessageSize  = 1024
	maxMessageQueue = 32

	slowClientThreshold  = 10
	slowClientTimeWindow = 60 * time.Second
)

var (
	ErrClientBufferFull = errors.New("client buffer is full")
	ErrClientClosed     = errors.New("client is closed")
)

// Client is one websocket connection watching one transfer.
type Client struct {
	ID   string
	conn *websocket.Conn
	send chan []byte

	metrics utils.BackpressureMetrics

	mu          sync.Mutex
	recentFulls []time.Time
	markedSlow  bool

	closeMu sync.Mutex
	closed  bool
	cleanup func(*Client)
}

// NewClient wraps conn. cleanup runs once when the client closes.
func NewClient(id string, conn *websocket.Conn, cleanup func(*Client)) *Client {
	return &Client{
		ID:      id,
		conn:    conn,
		send:    make(chan []byte, maxMessageQueue),
		cleanup: cleanup,
	}
}

// WritePump writes queued messages and keeps the connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				utils.WSLogger.Debug("client %s write failed: %v", c.ID, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadPump hands every inbound message to handler until the connection ends.
func (c *Client) ReadPump(handler func(*Client, []byte)) {
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure,
				websocket.CloseNoStatusReceived) {
				utils.WSLogger.Warn("client %s closed unexpectedly: %v", c.ID, err)
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		handler(c, message)
	}
}

// Close closes the connection and runs the cleanup callback.
func (c *Client) Close() {
	c.close()
}

func (c *Client) close() {
	c.closeMu.Lock()
	if c.closed {
		c.closeMu.Unlock()
		return
	}
	c.closed = true
	c.conn.Close()
	close(c.send)
	c.closeMu.Unlock()

	if c.cleanup != nil {
		c.cleanup(c)
	}
}

// IsClosed reports whether the client has been closed.
func (c *Client) IsClosed() bool {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	return c.closed
}

// Send encodes message and queues it without blocking.
func (c *Client) Send(message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if c.closed {
		return ErrClientClosed
	}

	if !utils.TrySend(c.send, data, &c.metrics) {
		c.trackBufferFull()
		return ErrClientBufferFull
	}
	return nil
}

// DroppedMessages counts messages refused because the queue was full.
func (c *Client) DroppedMessages() int64 {
	_, dropped := c.metrics.Stats()
	return dropped
}

// trackBufferFull marks a client slow after repeated overflows and drops it.
func (c *Client) trackBufferFull() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-slowClientTimeWindow)
	recent := c.recentFulls[:0]
	for _, ts := range c.recentFulls {
		if ts.After(cutoff) {
			recent = append(recent, ts)
		}
	}
	c.recentFulls = append(recent, now)

	if len(c.recentFulls) >= slowClientThreshold && !c.markedSlow {
		c.markedSlow = true
		utils.WSLogger.Warn("client %s is slow (%d overflows in %v), disconnecting",
			c.ID, len(c.recentFulls), slowClientTimeWindow)
		go c.close()
	}
}

// IsSlowClient reports whether the client was dropped for falling behind.
func (c *Client) IsSlowClient() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.markedSlow
}

// QueueUtilization returns how full the send queue is, from 0 to 1.
func (c *Client) QueueUtilization() float64 {
	return float64(len(c.send)) / float64(cap(c.send))
}
