// Package ws streams a transfer's status to a page over a websocket. Each
// connection is one page mount: it owns a polling controller for its reference
// and tears it down on disconnect.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"transfer-status-backend/internal/models"
	"transfer-status-backend/internal/poller"
	"transfer-status-backend/internal/resolver"
	"transfer-status-backend/internal/utils"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:    1024,
	WriteBufferSize:   1024,
	EnableCompression: true,
}

// ControllerFactory creates a polling controller for one connection.
type ControllerFactory func() *poller.Controller

// WatcherObserver is told when controllers are mounted and unmounted.
type WatcherObserver interface {
	WatcherMounted()
	WatcherUnmounted()
}

// Hub accepts websocket connections and tracks the live ones.
type Hub struct {
	resolver      *resolver.Resolver
	newController ControllerFactory
	observer      WatcherObserver
	refreshWait   time.Duration
	logger        *utils.Logger

	mu       sync.RWMutex
	sessions map[string]*session
}

// session ties a client to its controller.
type session struct {
	client *Client
	ctrl   *poller.Controller
	req    resolver.Request
	ctx    context.Context
	cancel context.CancelFunc

	refreshing atomic.Bool
}

// NewHub creates a hub. observer may be nil.
func NewHub(res *resolver.Resolver, factory ControllerFactory, observer WatcherObserver) *Hub {
	return &Hub{
		resolver:      res,
		newController: factory,
		observer:      observer,
		refreshWait:   10 * time.Second,
		logger:        utils.WSLogger,
		sessions:      make(map[string]*session),
	}
}

// ServeHTTP upgrades the request and streams the transfer named by ?ref=.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade failed: %v", err)
		return
	}

	req := resolver.RequestFromHTTP(r, "")
	ctx, cancel := context.WithCancel(context.Background())
	s := &session{req: req, ctx: ctx, cancel: cancel}
	s.client = NewClient(uuid.NewString(), conn, h.remove)

	h.mu.Lock()
	h.sessions[s.client.ID] = s
	h.mu.Unlock()

	go s.client.WritePump()
	s.client.Send(connectedMessage(s.client.ID))

	h.mount(s)
	go s.client.ReadPump(func(c *Client, msg []byte) { h.handleMessage(s, msg) })
}

// mount starts polling a queryable reference, or sends the fallback view.
func (h *Hub) mount(s *session) {
	ref := models.AuthoritativeRef(s.req.Reference())
	if !ref.Queryable() || h.newController == nil {
		s.client.Send(summaryMessage(h.resolver.Load(s.ctx, s.req)))
		return
	}

	ctrl := h.newController()
	h.mu.Lock()
	if s.client.IsClosed() {
		h.mu.Unlock()
		return
	}
	s.ctrl = ctrl
	h.mu.Unlock()
	if h.observer != nil {
		h.observer.WatcherMounted()
	}

	go h.forward(s, ctrl)

	if _, err := ctrl.Mount(s.ctx, ref); err != nil {
		h.logger.Info("initial fetch of %s failed for %s: %v", ref, s.client.ID, err)
		s.client.Send(summaryMessage(h.resolver.Fallback(s.ctx, s.req, resolver.NoticeFor(err))))
	}
}

// forward relays controller events until Unmount closes the channel.
func (h *Hub) forward(s *session, ctrl *poller.Controller) {
	for ev := range ctrl.Updates() {
		var err error
		switch ev.Type {
		case poller.EventSummary:
			err = s.client.Send(summaryMessage(h.resolver.Live(ev.Summary, "")))
		case poller.EventNotice:
			err = s.client.Send(noticeMessage(ev.Notice, ev.Unreachable))
		}
		if err != nil && err != ErrClientClosed {
			h.logger.Debug("dropping %s event for %s: %v", ev.Type, s.client.ID, err)
		}
	}
}

func (h *Hub) handleMessage(s *session, raw []byte) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		s.client.Send(errorMessage(ErrorCodeEmptyMessage, "empty message"))
		return
	}
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		s.client.Send(errorMessage(ErrorCodeInvalidJSON, "message is not valid JSON"))
		return
	}

	switch msg.Type {
	case TypePing:
		s.client.Send(pongMessage())
	case TypeRefresh:
		// off the read loop so pings are answered while the backend is slow;
		// a refresh already in flight absorbs new requests
		if s.refreshing.CompareAndSwap(false, true) {
			go func() {
				defer s.refreshing.Store(false)
				h.refresh(s)
			}()
		}
	default:
		s.client.Send(errorMessage(ErrorCodeUnknownType, "unknown message type: "+msg.Type))
	}
}

// refresh polls on demand. A changed summary reaches the client through the
// controller's updates; an unchanged one is re-sent directly.
func (h *Hub) refresh(s *session) {
	h.mu.RLock()
	ctrl := s.ctrl
	h.mu.RUnlock()

	ctx, cancel := context.WithTimeout(s.ctx, h.refreshWait)
	defer cancel()

	if ctrl == nil {
		s.client.Send(summaryMessage(h.resolver.Load(ctx, s.req)))
		return
	}
	summary, changed, err := ctrl.Refresh(ctx)
	if err != nil {
		h.logger.Debug("refresh for %s failed: %v", s.client.ID, err)
		return
	}
	if !changed && summary != nil {
		s.client.Send(summaryMessage(h.resolver.Live(summary, "")))
	}
}

// remove is the client cleanup callback.
func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	s, ok := h.sessions[c.ID]
	delete(h.sessions, c.ID)
	var ctrl *poller.Controller
	if ok {
		ctrl = s.ctrl
	}
	h.mu.Unlock()
	if !ok {
		return
	}

	s.cancel()
	if ctrl != nil {
		ctrl.Unmount()
		if h.observer != nil {
			h.observer.WatcherUnmounted()
		}
	}
	if dropped := c.DroppedMessages(); dropped > 0 {
		h.logger.Warn("client %s disconnected after %d dropped messages", c.ID, dropped)
		return
	}
	h.logger.Debug("client %s disconnected", c.ID)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.sessions))
	for _, s := range h.sessions {
		clients = append(clients, s.client)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Close()
	}
}
