package xrl

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"github.com/gorilla/websocket"
)

// bridge core: echoes request params as the result, rejects "fail", never
// answers "hang", drops the connection on "drop"
func fakeBridge(t *testing.T) *httptest.Server {
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			_, messageBytes, err := conn.ReadMessage()
			if err != nil {
				return
			}
			message := &wireMessage{}
			if err := json.Unmarshal(messageBytes, message); err != nil {
				continue
			}
			if message.Id == nil {
				continue
			}
			response := &wireMessage{Id: message.Id}
			switch message.Method {
			case "hang":
				continue
			case "drop":
				return
			case "fail":
				response.Error = json.RawMessage(`"nope"`)
			default:
				response.Result = message.Params
			}
			responseBytes, _ := json.Marshal(response)
			if err := conn.WriteMessage(websocket.TextMessage, responseBytes); err != nil {
				return
			}
		}
	}))
}

func wsUrl(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func testWsSettings() *WsTransportSettings {
	settings := DefaultWsTransportSettings()
	settings.ReconnectTimeout = 100 * time.Millisecond
	return settings
}

func awaitConnected(t *testing.T, transport *WsTransport) {
	deadline := time.Now().Add(5 * time.Second)
	for transport.currentConn() == nil {
		if !time.Now().Before(deadline) {
			t.Fatal("transport never connected")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWsTransportRequest(t *testing.T) {
	server := fakeBridge(t)
	defer server.Close()

	transport := NewWsTransport(context.Background(), nil, wsUrl(server), testWsSettings())
	defer transport.Close()
	awaitConnected(t, transport)

	reply := transport.Request("echo", []byte(`{"x":1}`)).Reply()
	assert.Equal(t, reply.Err, nil)
	assert.Equal(t, string(reply.Result), `{"x":1}`)

	reply = transport.Request("fail", []byte(`[]`)).Reply()
	assert.Equal(t, reply.Err, nil)
	assert.Equal(t, string(reply.Error), `"nope"`)
}

func TestWsTransportDisconnectFailsPending(t *testing.T) {
	server := fakeBridge(t)
	defer server.Close()

	transport := NewWsTransport(context.Background(), nil, wsUrl(server), testWsSettings())
	defer transport.Close()
	awaitConnected(t, transport)

	hanging := transport.Request("hang", []byte(`[]`))
	dropped := transport.Request("drop", []byte(`[]`))

	// both were in flight when the bridge dropped the connection; neither
	// completed a round trip
	assert.Equal(t, hanging.Reply().Err != nil, true)
	assert.Equal(t, dropped.Reply().Err != nil, true)
}

func TestWsTransportReconnects(t *testing.T) {
	server := fakeBridge(t)
	defer server.Close()

	transport := NewWsTransport(context.Background(), nil, wsUrl(server), testWsSettings())
	defer transport.Close()
	awaitConnected(t, transport)

	transport.Request("drop", []byte(`[]`)).Reply()

	// a fresh connection serves new requests
	deadline := time.Now().Add(5 * time.Second)
	for {
		reply := transport.Request("echo", []byte(`{"y":2}`)).Reply()
		if reply.Err == nil {
			assert.Equal(t, string(reply.Result), `{"y":2}`)
			return
		}
		if !time.Now().Before(deadline) {
			t.Fatal("transport never reconnected")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWsTransportDisconnectedFailsImmediately(t *testing.T) {
	// nothing is listening; requests fail instead of queueing
	transport := NewWsTransport(context.Background(), nil, "ws://127.0.0.1:1/", testWsSettings())
	defer transport.Close()

	reply := transport.Request("echo", []byte(`[]`)).Reply()
	assert.Equal(t, reply.Err != nil, true)
	assert.Equal(t, transport.Notify("undo", []byte(`[]`)) != nil, true)
}

func TestWsTransportNotification(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		notification, _ := json.Marshal(notificationMessage("theme_changed", []byte(`{"name":"x"}`)))
		conn.WriteMessage(websocket.TextMessage, notification)
		// keep the connection up until the client goes away
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	notifications := make(chan fakeMessage, 8)
	handler := &FrontendFuncs{
		OnNotification: func(method string, params json.RawMessage) {
			notifications <- fakeMessage{method: method, params: params}
		},
	}
	transport := NewWsTransport(context.Background(), handler, wsUrl(server), testWsSettings())
	defer transport.Close()

	select {
	case notification := <-notifications:
		assert.Equal(t, notification.method, "theme_changed")
		assert.Equal(t, string(notification.params), `{"name":"x"}`)
	case <-time.After(5 * time.Second):
		t.Fatal("notification never reached the handler")
	}
}
