package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/log"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/gorilla/websocket"

	"github.com/LeJamon/goEscrow/internal/core/chain"
	"github.com/LeJamon/goEscrow/internal/core/types"
	"github.com/LeJamon/goEscrow/internal/rpc/rpc_handlers"
	"github.com/LeJamon/goEscrow/internal/rpc/rpc_types"
)

const (
	wsReadLimit    = 512 * 1024
	wsPongWait     = 60 * time.Second
	wsPingInterval = 54 * time.Second
	wsWriteWait    = 10 * time.Second
	wsSendBuffer   = 256
)

var errConnectionClosed = errors.New("connection closed")

// WebSocketServer handles WebSocket connections for real-time subscriptions
type WebSocketServer struct {
	upgrader         websocket.Upgrader
	server           *Server
	connections      map[string]*WebSocketConnection
	connectionsMutex sync.RWMutex
	log              log.Logger
}

// WebSocketConnection represents a single WebSocket connection. It is the
// Notifier handed to eth_subscribe.
type WebSocketConnection struct {
	ID            string
	conn          *websocket.Conn
	ws            *WebSocketServer
	role          rpc_types.Role
	clientIP      string
	sendChannel   chan []byte
	ctx           context.Context
	cancel        context.CancelFunc
	mutex         sync.Mutex
	subscriptions map[string]*wsSubscription
}

type wsSubscription struct {
	kind string
	sub  event.Subscription
}

// NewWebSocketServer creates a new WebSocket server
func NewWebSocketServer(server *Server) *WebSocketServer {
	return &WebSocketServer{
		upgrader: websocket.Upgrader{
			// Devnet: browsers on any origin may connect.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		server:      server,
		connections: make(map[string]*WebSocketConnection),
		log:         log.New("module", "ws"),
	}
}

// ServeHTTP handles WebSocket upgrade requests
func (ws *WebSocketServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		ws.log.Debug("WebSocket upgrade failed", "err", err)
		return
	}

	// The request context ends with the handler; connections outlive it.
	ctx, cancel := context.WithCancel(context.Background())
	wsConn := &WebSocketConnection{
		ID:            string(gethrpc.NewID()),
		conn:          conn,
		ws:            ws,
		role:          ws.server.roleFor(remoteHost(r)),
		clientIP:      getClientIP(r),
		sendChannel:   make(chan []byte, wsSendBuffer),
		ctx:           ctx,
		cancel:        cancel,
		subscriptions: make(map[string]*wsSubscription),
	}

	ws.connectionsMutex.Lock()
	ws.connections[wsConn.ID] = wsConn
	ws.connectionsMutex.Unlock()
	ws.server.metrics.connections.Inc()

	go ws.handleConnection(wsConn)
	go ws.handleSend(wsConn)
}

// handleConnection processes messages from a WebSocket connection
func (ws *WebSocketServer) handleConnection(wsConn *WebSocketConnection) {
	defer ws.closeConnection(wsConn)

	wsConn.conn.SetReadLimit(wsReadLimit)
	wsConn.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	wsConn.conn.SetPongHandler(func(string) error {
		wsConn.conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		_, message, err := wsConn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				ws.log.Debug("WebSocket read failed", "conn", wsConn.ID, "err", err)
			}
			return
		}
		ws.handleMessage(wsConn, message)
	}
}

// handleSend writes queued messages and keeps the connection alive with
// pings.
func (ws *WebSocketServer) handleSend(wsConn *WebSocketConnection) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-wsConn.ctx.Done():
			wsConn.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			wsConn.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			wsConn.conn.Close()
			return
		case <-ticker.C:
			wsConn.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := wsConn.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				ws.log.Debug("WebSocket ping failed", "conn", wsConn.ID, "err", err)
				wsConn.cancel()
			}
		case message := <-wsConn.sendChannel:
			wsConn.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := wsConn.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				ws.log.Debug("WebSocket send failed", "conn", wsConn.ID, "err", err)
				wsConn.cancel()
			}
		}
	}
}

// handleMessage processes a single message from WebSocket
func (ws *WebSocketServer) handleMessage(wsConn *WebSocketConnection, message []byte) {
	base := &rpc_types.RpcContext{
		Context:  wsConn.ctx,
		Role:     wsConn.role,
		ClientIP: wsConn.clientIP,
		Services: ws.server.services,
		Notifier: wsConn,
	}
	resp, ok := ws.server.handleMessage(base, message)
	if !ok {
		return
	}
	if err := wsConn.sendJSON(resp); err != nil {
		ws.log.Debug("Dropping response", "conn", wsConn.ID, "err", err)
	}
}

// closeConnection cleans up a WebSocket connection
func (ws *WebSocketServer) closeConnection(wsConn *WebSocketConnection) {
	wsConn.cancel()

	wsConn.mutex.Lock()
	for id, s := range wsConn.subscriptions {
		s.sub.Unsubscribe()
		ws.server.metrics.subscribers.WithLabelValues(s.kind).Dec()
		delete(wsConn.subscriptions, id)
	}
	wsConn.mutex.Unlock()

	ws.connectionsMutex.Lock()
	if _, ok := ws.connections[wsConn.ID]; ok {
		delete(ws.connections, wsConn.ID)
		ws.server.metrics.connections.Dec()
	}
	ws.connectionsMutex.Unlock()
}

// Close terminates every connection.
func (ws *WebSocketServer) Close() {
	ws.connectionsMutex.RLock()
	conns := make([]*WebSocketConnection, 0, len(ws.connections))
	for _, c := range ws.connections {
		conns = append(conns, c)
	}
	ws.connectionsMutex.RUnlock()

	for _, c := range conns {
		ws.closeConnection(c)
	}
}

// ConnectionCount returns the number of open connections.
func (ws *WebSocketServer) ConnectionCount() int {
	ws.connectionsMutex.RLock()
	defer ws.connectionsMutex.RUnlock()
	return len(ws.connections)
}

func (c *WebSocketConnection) sendJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	select {
	case c.sendChannel <- data:
		return nil
	case <-c.ctx.Done():
		return errConnectionClosed
	}
}

// Subscribe starts a newHeads or logs subscription on the connection.
func (c *WebSocketConnection) Subscribe(kind string, filter *rpc_types.FilterArgs) (string, error) {
	svc := c.ws.server.services.Chain
	id := string(gethrpc.NewID())

	var sub event.Subscription
	switch kind {
	case rpc_handlers.SubscriptionNewHeads:
		heads := make(chan *types.Block, 16)
		sub = svc.SubscribeNewHeads(heads)
		go c.forwardHeads(id, sub, heads)
	case rpc_handlers.SubscriptionLogs:
		logs := make(chan []*gethtypes.Log, 16)
		sub = svc.SubscribeLogs(logs)
		go c.forwardLogs(id, sub, logs, filter)
	default:
		return "", errors.New("unsupported subscription " + kind)
	}

	c.mutex.Lock()
	c.subscriptions[id] = &wsSubscription{kind: kind, sub: sub}
	c.mutex.Unlock()
	c.ws.server.metrics.subscribers.WithLabelValues(kind).Inc()
	return id, nil
}

// Unsubscribe cancels a subscription made on this connection.
func (c *WebSocketConnection) Unsubscribe(id string) bool {
	c.mutex.Lock()
	s, ok := c.subscriptions[id]
	delete(c.subscriptions, id)
	c.mutex.Unlock()
	if !ok {
		return false
	}
	s.sub.Unsubscribe()
	c.ws.server.metrics.subscribers.WithLabelValues(s.kind).Dec()
	return true
}

// forwardHeads relays new heads until the subscription ends.
func (c *WebSocketConnection) forwardHeads(id string, sub event.Subscription, heads <-chan *types.Block) {
	for {
		select {
		case head := <-heads:
			c.notify(id, head.RPCMarshal(nil))
		case <-sub.Err():
			return
		case <-c.ctx.Done():
			return
		}
	}
}

// forwardLogs relays logs matching filter, one notification per log.
func (c *WebSocketConnection) forwardLogs(id string, sub event.Subscription, logs <-chan []*gethtypes.Log, filter *rpc_types.FilterArgs) {
	for {
		select {
		case batch := <-logs:
			for _, l := range chain.MatchLogs(batch, filter.Addresses, filter.Topics) {
				c.notify(id, l)
			}
		case <-sub.Err():
			return
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *WebSocketConnection) notify(id string, result interface{}) {
	err := c.sendJSON(JsonRpcNotification{
		JsonRpc: jsonrpcVersion,
		Method:  "eth_subscription",
		Params:  SubscriptionResult{Subscription: id, Result: result},
	})
	if err != nil {
		c.ws.log.Trace("Dropping notification", "conn", c.ID, "sub", id, "err", err)
	}
}
