package xrl

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/golang/glog"

	"github.com/oklog/ulid/v2"
)

type WsTransportSettings struct {
	WsHandshakeTimeout time.Duration
	ReconnectTimeout   time.Duration
	PingTimeout        time.Duration
	WriteTimeout       time.Duration
	ReadTimeout        time.Duration
}

func DefaultWsTransportSettings() *WsTransportSettings {
	return &WsTransportSettings{
		WsHandshakeTimeout: 2 * time.Second,
		ReconnectTimeout:   5 * time.Second,
		PingTimeout:        1 * time.Second,
		WriteTimeout:       5 * time.Second,
		ReadTimeout:        15 * time.Second,
	}
}

// WsTransport reaches a core behind a websocket bridge. Each websocket
// text message carries one wire message. The connection is long-lived and
// reconnects with backoff; a drop fails every in-flight request, and calls
// issued while disconnected fail immediately rather than queue.
type WsTransport struct {
	ctx    context.Context
	cancel context.CancelFunc

	url      string
	handler  FrontendHandler
	settings *WsTransportSettings

	tag     string
	pending *pendingCalls

	stateMutex sync.Mutex
	conn       *websocket.Conn

	writeMutex sync.Mutex
}

func NewWsTransportWithDefaults(ctx context.Context, handler FrontendHandler, url string) *WsTransport {
	return NewWsTransport(ctx, handler, url, DefaultWsTransportSettings())
}

func NewWsTransport(
	ctx context.Context,
	handler FrontendHandler,
	url string,
	settings *WsTransportSettings,
) *WsTransport {
	if handler == nil {
		handler = noopFrontend
	}
	cancelCtx, cancel := context.WithCancel(ctx)
	transport := &WsTransport{
		ctx:      cancelCtx,
		cancel:   cancel,
		url:      url,
		handler:  handler,
		settings: settings,
		tag:      fmt.Sprintf("xiw %s", ulid.Make()),
		pending:  newPendingCalls(),
	}
	go transport.run()
	return transport
}

func (self *WsTransport) Notify(method string, params []byte) error {
	return self.write(notificationMessage(method, params))
}

func (self *WsTransport) Request(method string, params []byte) *Pending {
	pending := newPending()
	id, err := self.pending.add(pending)
	if err != nil {
		return failedPending(err)
	}
	if err := self.write(requestMessage(id, method, params)); err != nil {
		self.pending.remove(id)
		pending.resolve(Reply{Err: err})
	}
	return pending
}

func (self *WsTransport) Close() error {
	self.cancel()
	self.pending.close(fmt.Errorf("transport closed"))
	self.stateMutex.Lock()
	conn := self.conn
	self.conn = nil
	self.stateMutex.Unlock()
	if conn != nil {
		conn.Close()
	}
	return nil
}

func (self *WsTransport) currentConn() *websocket.Conn {
	self.stateMutex.Lock()
	defer self.stateMutex.Unlock()
	return self.conn
}

func (self *WsTransport) setConn(conn *websocket.Conn) {
	self.stateMutex.Lock()
	defer self.stateMutex.Unlock()
	self.conn = conn
}

func (self *WsTransport) write(message *wireMessage) error {
	conn := self.currentConn()
	if conn == nil {
		return fmt.Errorf("not connected")
	}
	messageBytes, err := json.Marshal(message)
	if err != nil {
		return err
	}
	self.writeMutex.Lock()
	defer self.writeMutex.Unlock()
	conn.SetWriteDeadline(time.Now().Add(self.settings.WriteTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, messageBytes); err != nil {
		return err
	}
	glog.V(2).Infof("[%s]-> %s\n", self.tag, traceValue(messageBytes))
	return nil
}

func (self *WsTransport) run() {
	defer self.cancel()

	dialer := &websocket.Dialer{
		HandshakeTimeout: self.settings.WsHandshakeTimeout,
	}

	for {
		conn, _, err := dialer.DialContext(self.ctx, self.url, nil)
		if err != nil {
			glog.Infof("[%s]connect error = %s\n", self.tag, err)
			select {
			case <-self.ctx.Done():
				return
			case <-time.After(self.settings.ReconnectTimeout):
				continue
			}
		}
		glog.Infof("[%s]connected %s\n", self.tag, self.url)

		self.handleConn(conn)

		// anything still in flight never completed its round trip
		self.pending.failAll(fmt.Errorf("connection lost"))

		select {
		case <-self.ctx.Done():
			return
		case <-time.After(self.settings.ReconnectTimeout):
		}
	}
}

func (self *WsTransport) handleConn(conn *websocket.Conn) {
	defer conn.Close()

	handleCtx, handleCancel := context.WithCancel(self.ctx)
	defer handleCancel()

	self.setConn(conn)
	defer self.setConn(nil)

	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(self.settings.ReadTimeout))
		return nil
	})

	go func() {
		defer handleCancel()

		for {
			select {
			case <-handleCtx.Done():
				return
			case <-time.After(self.settings.PingTimeout):
				deadline := time.Now().Add(self.settings.WriteTimeout)
				if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
					return
				}
			}
		}
	}()

	for {
		select {
		case <-handleCtx.Done():
			return
		default:
		}

		conn.SetReadDeadline(time.Now().Add(self.settings.ReadTimeout))
		messageType, messageBytes, err := conn.ReadMessage()
		if err != nil {
			glog.Infof("[%s]<- error = %s\n", self.tag, err)
			return
		}

		switch messageType {
		case websocket.TextMessage:
			glog.V(2).Infof("[%s]<- %s\n", self.tag, traceValue(messageBytes))
			message := &wireMessage{}
			if err := json.Unmarshal(messageBytes, message); err != nil {
				glog.Infof("[%s]<- malformed = %s\n", self.tag, err)
				continue
			}
			routeInbound(self.tag, message, self.pending, self.handler, self.write)
		default:
			glog.V(2).Infof("[%s]<- other=%d\n", self.tag, messageType)
		}
	}
}
