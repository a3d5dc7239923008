package xrl

import (
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
)

// wires a streamCodec pair together: what the client writes the core
// reads, and vice versa
func codecPair() (clientCodec *streamCodec, coreCodec *streamCodec, coreWriter *io.PipeWriter) {
	clientReader, coreSide := io.Pipe()
	coreReader, clientSide := io.Pipe()
	clientCodec = newStreamCodec(clientReader, clientSide)
	coreCodec = newStreamCodec(coreReader, coreSide)
	return clientCodec, coreCodec, coreSide
}

// scripted core: echoes request params as the result, rejects "fail",
// never answers "hang"
func runFakeCore(codec *streamCodec) {
	for {
		message, err := codec.read()
		if err != nil {
			return
		}
		if message.Id == nil {
			continue
		}
		response := &wireMessage{Id: message.Id}
		switch message.Method {
		case "hang":
			continue
		case "fail":
			response.Error = json.RawMessage(`"nope"`)
		default:
			response.Result = message.Params
		}
		codec.write(response)
	}
}

func runReadLoop(codec *streamCodec, pending *pendingCalls, handler FrontendHandler) {
	for {
		message, err := codec.read()
		if err != nil {
			pending.close(err)
			return
		}
		routeInbound("test", message, pending, handler, codec.write)
	}
}

func TestCodecRequestReply(t *testing.T) {
	clientCodec, coreCodec, _ := codecPair()
	go runFakeCore(coreCodec)

	pending := newPendingCalls()
	go runReadLoop(clientCodec, pending, noopFrontend)

	call := newPending()
	id, err := pending.add(call)
	assert.Equal(t, err, nil)
	assert.Equal(t, clientCodec.write(requestMessage(id, "echo", []byte(`{"x":1}`))), nil)

	reply := call.Reply()
	assert.Equal(t, reply.Err, nil)
	assert.Equal(t, len(reply.Error), 0)
	assert.Equal(t, string(reply.Result), `{"x":1}`)

	call = newPending()
	id, err = pending.add(call)
	assert.Equal(t, err, nil)
	assert.Equal(t, clientCodec.write(requestMessage(id, "fail", []byte(`[]`))), nil)

	reply = call.Reply()
	assert.Equal(t, reply.Err, nil)
	assert.Equal(t, string(reply.Error), `"nope"`)
}

func TestCodecNotificationRoutesToHandler(t *testing.T) {
	clientCodec, coreCodec, _ := codecPair()

	notifications := make(chan fakeMessage, 8)
	handler := &FrontendFuncs{
		OnNotification: func(method string, params json.RawMessage) {
			notifications <- fakeMessage{method: method, params: params}
		},
	}
	pending := newPendingCalls()
	go runReadLoop(clientCodec, pending, handler)

	assert.Equal(t, coreCodec.write(notificationMessage("update", []byte(`{"rev":1}`))), nil)

	select {
	case notification := <-notifications:
		assert.Equal(t, notification.method, "update")
		assert.Equal(t, string(notification.params), `{"rev":1}`)
	case <-time.After(5 * time.Second):
		t.Fatal("notification never reached the handler")
	}
}

func TestCodecCoreRequestIsAnswered(t *testing.T) {
	clientCodec, coreCodec, _ := codecPair()

	handler := &FrontendFuncs{
		OnRequest: func(method string, params json.RawMessage) (json.RawMessage, error) {
			assert.Equal(t, method, "measure_width")
			return json.RawMessage(`[[90.0]]`), nil
		},
	}
	pending := newPendingCalls()
	go runReadLoop(clientCodec, pending, handler)

	assert.Equal(t, coreCodec.write(requestMessage(7, "measure_width", []byte(`[{"id":1}]`))), nil)

	response, err := coreCodec.read()
	assert.Equal(t, err, nil)
	assert.Equal(t, *response.Id, uint64(7))
	assert.Equal(t, string(response.Result), `[[90.0]]`)
}

func TestCodecEofFailsPending(t *testing.T) {
	clientCodec, coreCodec, coreWriter := codecPair()
	go runFakeCore(coreCodec)

	pending := newPendingCalls()
	go runReadLoop(clientCodec, pending, noopFrontend)

	call := newPending()
	id, err := pending.add(call)
	assert.Equal(t, err, nil)
	assert.Equal(t, clientCodec.write(requestMessage(id, "hang", []byte(`[]`))), nil)

	// the core goes away mid request
	coreWriter.Close()

	reply := call.Reply()
	assert.Equal(t, reply.Err != nil, true)

	// and the table rejects everything that follows
	_, err = pending.add(newPending())
	assert.Equal(t, err != nil, true)
}

func TestPendingCalls(t *testing.T) {
	pending := newPendingCalls()

	first := newPending()
	second := newPending()
	firstId, err := pending.add(first)
	assert.Equal(t, err, nil)
	secondId, err := pending.add(second)
	assert.Equal(t, err, nil)
	assert.Equal(t, firstId == secondId, false)

	// resolving one must not affect the other
	assert.Equal(t, pending.resolve(secondId, Reply{Result: []byte(`2`)}), true)
	select {
	case <-first.Done():
		t.Fatal("first resolved early")
	default:
	}
	assert.Equal(t, string(second.Reply().Result), `2`)

	// unknown ids are reported, not delivered
	assert.Equal(t, pending.resolve(uint64(999), Reply{}), false)

	failErr := errors.New("gone")
	pending.failAll(failErr)
	assert.Equal(t, errors.Is(first.Reply().Err, failErr), true)

	// failAll keeps the table usable, close does not
	_, err = pending.add(newPending())
	assert.Equal(t, err, nil)
	pending.close(failErr)
	_, err = pending.add(newPending())
	assert.Equal(t, errors.Is(err, failErr), true)
}
