package xrl

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/golang/glog"
)

// wireMessage is the one envelope shape on the wire, framed as a single
// JSON object per line (proc transport) or per message (ws transport):
//
//	{"method":"edit","params":{...}}        outbound notification
//	{"id":5,"method":"edit","params":{...}} outbound request
//	{"id":5,"result":{...}}                 inbound reply
//	{"id":5,"error":{...}}                  inbound error reply
//
// Inbound messages carrying a method are core-initiated notifications, or
// requests when an id is present.
type wireMessage struct {
	Id     *uint64         `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  json.RawMessage `json:"error,omitempty"`
}

func notificationMessage(method string, params []byte) *wireMessage {
	return &wireMessage{
		Method: method,
		Params: json.RawMessage(params),
	}
}

func requestMessage(id uint64, method string, params []byte) *wireMessage {
	return &wireMessage{
		Id:     &id,
		Method: method,
		Params: json.RawMessage(params),
	}
}

// streamCodec frames wire messages over a byte stream, one LF-terminated
// JSON object per message. Writes are serialized; reads are single-reader
// (the transport's read loop).
type streamCodec struct {
	writeMutex sync.Mutex
	enc        *json.Encoder
	dec        *json.Decoder
}

func newStreamCodec(reader io.Reader, writer io.Writer) *streamCodec {
	return &streamCodec{
		enc: json.NewEncoder(writer),
		dec: json.NewDecoder(reader),
	}
}

func (self *streamCodec) write(message *wireMessage) error {
	self.writeMutex.Lock()
	defer self.writeMutex.Unlock()
	// Encode appends the LF frame delimiter
	return self.enc.Encode(message)
}

func (self *streamCodec) read() (*wireMessage, error) {
	message := &wireMessage{}
	if err := self.dec.Decode(message); err != nil {
		return nil, err
	}
	return message, nil
}

// routeInbound hands one decoded message to its destination: replies to the
// pending table, core-initiated traffic to the frontend handler. write is
// used to answer core-initiated requests.
func routeInbound(
	tag string,
	message *wireMessage,
	pending *pendingCalls,
	handler FrontendHandler,
	write func(*wireMessage) error,
) {
	switch {
	case message.Method == "" && message.Id != nil:
		reply := Reply{}
		if message.Error != nil {
			reply.Error = message.Error
		} else {
			reply.Result = message.Result
		}
		if !pending.resolve(*message.Id, reply) {
			// resolved out from under us (failAll on a reconnect) or
			// a reply the core made up
			glog.Infof("[%s]drop reply id=%d\n", tag, *message.Id)
		}
	case message.Method != "" && message.Id == nil:
		glog.V(2).Infof("[%s]<<< notification: method=%s params=%s\n", tag, message.Method, traceValue(message.Params))
		safeHandleNotification(handler, message.Method, message.Params)
	case message.Method != "" && message.Id != nil:
		glog.V(2).Infof("[%s]<<< request: id=%d method=%s\n", tag, *message.Id, message.Method)
		result, err := safeHandleRequest(handler, message.Method, message.Params)
		response := &wireMessage{Id: message.Id}
		if err != nil {
			errorValue, _ := json.Marshal(err.Error())
			response.Error = errorValue
		} else {
			response.Result = result
		}
		if err := write(response); err != nil {
			glog.Infof("[%s]reply write error = %s\n", tag, err)
		}
	default:
		glog.Infof("[%s]drop malformed message\n", tag)
	}
}
