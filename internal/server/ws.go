package server

// Websocket transport for subscriptions. Two sub-protocols are spoken:
//   graphql-transport-ws: subscribe / next / error / complete, ping / pong
//   graphql-ws (legacy):  start / data / error / complete / stop, "ka" keep-alives
// Queries and mutations are accepted on both and answered with one result.

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/hanpama/gqlengine/internal/eventbus"
	"github.com/hanpama/gqlengine/internal/events"
	"github.com/hanpama/gqlengine/internal/executor"
	"github.com/hanpama/gqlengine/internal/language"
	"github.com/hanpama/gqlengine/internal/reqid"
)

const (
	protocolTransportWS = "graphql-transport-ws"
	protocolLegacyWS    = "graphql-ws"

	closeInvalidMessage      = 4400
	closeUnauthorized        = 4401
	closeInitTimeout         = 4408
	closeSubscriberExists    = 4409
	closeTooManyInitRequests = 4429
)

var upgrader = websocket.Upgrader{
	CheckOrigin:  func(r *http.Request) bool { return true },
	Subprotocols: []string{protocolTransportWS, protocolLegacyWS},
}

type wsMessage struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type wsConnection struct {
	conn   *websocket.Conn
	h      *Handler
	log    *zap.Logger
	legacy bool

	writeMu sync.Mutex

	mu      sync.Mutex
	ops     map[string]context.CancelFunc
	wg      sync.WaitGroup
	started atomic.Int64
}

// serveWS upgrades the request and serves operations until the client goes
// away or breaks the protocol.
func (h *Handler) serveWS(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.opt.Logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	c := &wsConnection{
		conn:   conn,
		h:      h,
		log:    h.opt.Logger.With(zap.String("protocol", conn.Subprotocol())),
		legacy: conn.Subprotocol() != protocolTransportWS,
		ops:    make(map[string]context.CancelFunc),
	}
	opened := time.Now()
	eventbus.Publish(h.opt.Events, ctx, events.WebSocketOpen{Protocol: conn.Subprotocol()})
	defer func() {
		cancel()
		c.wg.Wait()
		_ = conn.Close()
		eventbus.Publish(h.opt.Events, context.WithoutCancel(ctx), events.WebSocketClose{
			Protocol:   conn.Subprotocol(),
			Operations: int(c.started.Load()),
			Duration:   time.Since(opened),
		})
	}()

	if !c.init() {
		return
	}
	if c.legacy && h.opt.KeepAlive > 0 {
		c.wg.Add(1)
		go c.keepAlive(ctx, h.opt.KeepAlive)
	}

	for {
		msg, err := c.read()
		if err != nil {
			var closed *websocket.CloseError
			if !errors.As(err, &closed) {
				c.close(closeInvalidMessage, "invalid message")
			}
			return
		}
		switch msg.Type {
		case "subscribe", "start":
			if !c.start(ctx, msg) {
				return
			}
		case "complete", "stop":
			c.stop(msg.ID)
		case "ping":
			c.write(wsMessage{Type: "pong"})
		case "pong":
		case "connection_init":
			c.close(closeTooManyInitRequests, "too many initialisation requests")
			return
		case "connection_terminate":
			c.close(websocket.CloseNormalClosure, "")
			return
		default:
			c.log.Debug("unexpected websocket message", zap.String("type", msg.Type))
			c.close(closeInvalidMessage, "unexpected message type "+msg.Type)
			return
		}
	}
}

// init waits for connection_init and acknowledges it.
func (c *wsConnection) init() bool {
	if d := c.h.opt.InitTimeout; d > 0 {
		_ = c.conn.SetReadDeadline(time.Now().Add(d))
	}
	msg, err := c.read()
	_ = c.conn.SetReadDeadline(time.Time{})
	switch {
	case err != nil:
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			c.close(closeInitTimeout, "connection initialisation timeout")
		} else {
			c.close(closeInvalidMessage, "invalid message")
		}
		return false
	case msg.Type == "connection_terminate":
		c.close(websocket.CloseNormalClosure, "")
		return false
	case msg.Type != "connection_init":
		if c.legacy {
			c.write(wsMessage{Type: "connection_error"})
		}
		c.close(closeUnauthorized, "unauthorized")
		return false
	}
	c.write(wsMessage{Type: "connection_ack"})
	if c.legacy {
		c.write(wsMessage{Type: "ka"})
	}
	return true
}

// start runs one operation. It returns false when the connection must be
// closed.
func (c *wsConnection) start(ctx context.Context, msg *wsMessage) bool {
	if msg.ID == "" {
		c.close(closeInvalidMessage, "missing id")
		return false
	}
	var req GraphQLRequest
	if err := decodeJSON(msg.Payload, &req); err != nil {
		c.close(closeInvalidMessage, "invalid payload")
		return false
	}

	c.mu.Lock()
	if _, ok := c.ops[msg.ID]; ok {
		c.mu.Unlock()
		c.close(closeSubscriberExists, "Subscriber for "+msg.ID+" already exists")
		return false
	}
	ctx, cancel := context.WithCancel(ctx)
	c.ops[msg.ID] = cancel
	c.mu.Unlock()
	c.started.Add(1)
	// Operations on one connection run concurrently; each gets its own ID.
	rid, _ := reqid.FromContext(ctx)
	ctx, _ = reqid.WithID(ctx, rid+"/"+msg.ID)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer c.finish(msg.ID)
		c.run(ctx, msg.ID, req)
	}()
	return true
}

func (c *wsConnection) run(ctx context.Context, id string, req GraphQLRequest) {
	params := c.h.params(req)
	if !isSubscription(params.Document, req.OperationName) {
		res := c.h.exec.Execute(ctx, params)
		if !res.HasData() {
			c.sendErrors(id, res.Errors)
			return
		}
		c.send(id, res)
		c.sendComplete(ctx, id)
		return
	}

	ch, err := c.h.exec.Subscribe(ctx, params)
	if err != nil {
		var errs executor.Errors
		if !errors.As(err, &errs) {
			errs = executor.Errors{{Message: err.Error()}}
		}
		c.sendErrors(id, errs)
		return
	}
	c.log.Debug("subscription started", zap.String("id", id))
	for res := range ch {
		c.send(id, res)
	}
	c.log.Debug("subscription finished", zap.String("id", id))
	c.sendComplete(ctx, id)
}

func isSubscription(doc *language.QueryDocument, operationName string) bool {
	if doc == nil {
		return false
	}
	op := doc.Operations.ForName(operationName)
	if operationName == "" && len(doc.Operations) == 1 {
		op = doc.Operations[0]
	}
	return op != nil && op.Operation == language.Subscription
}

func (c *wsConnection) send(id string, res *executor.ExecutionResult) {
	typ := "next"
	if c.legacy {
		typ = "data"
	}
	payload, err := json.Marshal(res)
	if err != nil {
		c.log.Error("encode result", zap.Error(err))
		return
	}
	c.write(wsMessage{Type: typ, ID: id, Payload: payload})
}

func (c *wsConnection) sendErrors(id string, errs executor.Errors) {
	var payload []byte
	if c.legacy {
		payload, _ = json.Marshal(errorBody{Errors: errs})
	} else {
		payload, _ = json.Marshal(errs)
	}
	c.write(wsMessage{Type: "error", ID: id, Payload: payload})
}

// sendComplete tells the client the operation is over. A graphql-transport-ws
// client that completed the operation itself is not answered.
func (c *wsConnection) sendComplete(ctx context.Context, id string) {
	if !c.legacy && ctx.Err() != nil {
		return
	}
	c.write(wsMessage{Type: "complete", ID: id})
}

func (c *wsConnection) stop(id string) {
	c.mu.Lock()
	cancel := c.ops[id]
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (c *wsConnection) finish(id string) {
	c.mu.Lock()
	if cancel := c.ops[id]; cancel != nil {
		cancel()
	}
	delete(c.ops, id)
	c.mu.Unlock()
}

func (c *wsConnection) keepAlive(ctx context.Context, every time.Duration) {
	defer c.wg.Done()
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.write(wsMessage{Type: "ka"})
		}
	}
}

func (c *wsConnection) read() (*wsMessage, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	var msg wsMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *wsConnection) write(msg wsMessage) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteJSON(msg); err != nil {
		c.log.Debug("websocket write failed", zap.Error(err))
	}
}

func (c *wsConnection) close(code int, text string) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, text), time.Now().Add(time.Second))
}
