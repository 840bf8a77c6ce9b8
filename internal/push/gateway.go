package push

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"option-trader/internal/infrastructure"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Gateway fans bot events out to WebSocket clients. Every connected client
// receives all trade and status events; slow clients drop messages instead of
// blocking the bus.
type Gateway struct {
	logger  *zap.Logger
	js      nats.JetStreamContext
	mu      sync.RWMutex
	clients map[*client]bool
	subs    []*nats.Subscription
}

func NewGateway(js nats.JetStreamContext, logger *zap.Logger) *Gateway {
	return &Gateway{
		logger:  logger,
		js:      js,
		clients: make(map[*client]bool),
	}
}

// Run subscribes to the bot subjects once for the gateway's lifetime.
func (g *Gateway) Run() error {
	for _, subject := range []string{infrastructure.SubjectTradePrefix + "*", infrastructure.SubjectStatus} {
		sub, err := g.js.Subscribe(subject, func(msg *nats.Msg) {
			g.broadcast(msg.Data)
			msg.Ack()
		}, nats.ManualAck())
		if err != nil {
			return err
		}
		g.subs = append(g.subs, sub)
	}
	g.logger.Info("push gateway subscribed to bot subjects")
	return nil
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Error("failed to upgrade websocket", zap.Error(err))
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, 256),
	}

	g.mu.Lock()
	g.clients[c] = true
	g.mu.Unlock()
	infrastructure.WSConnections.Inc()

	go g.writePump(c)
	g.readPump(c)
}

func (g *Gateway) broadcast(data []byte) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for c := range g.clients {
		select {
		case c.send <- data:
		default:
			// Do not block, just drop if channel is full
		}
	}
}

// readPump drains the connection until the client goes away.
func (g *Gateway) readPump(c *client) {
	defer func() {
		g.mu.Lock()
		delete(g.clients, c)
		g.mu.Unlock()
		infrastructure.WSConnections.Dec()
		close(c.send)
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (g *Gateway) writePump(c *client) {
	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
