package xrl

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/golang/glog"
)

// Client is the typed boundary between editor commands and the untyped
// transport. It holds no state across calls: each call is one value
// transformation plus a delegation, and two concurrently issued calls are
// independent, with no ordering guarantee between them.
type Client struct {
	ctx    context.Context
	cancel context.CancelFunc

	transport Transport
}

func NewClient(ctx context.Context, transport Transport) *Client {
	cancelCtx, cancel := context.WithCancel(ctx)
	return &Client{
		ctx:       cancelCtx,
		cancel:    cancel,
		transport: transport,
	}
}

func (self *Client) Ctx() context.Context {
	return self.ctx
}

// Notify sends a fire-and-forget message to the core. Success means the
// message was handed to the transport, not that the core processed it.
// Most commands the core understands have a typed entry point already, so
// calling this directly should rarely be necessary.
func (self *Client) Notify(method string, params any) error {
	paramsValue, err := marshalParams(method, params)
	if err != nil {
		return err
	}
	glog.V(1).Infof("[xrl]>>> notification: method=%s params=%s\n", method, traceValue(paramsValue))
	if err := self.transport.Notify(method, paramsValue); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrNotifyFailed, method, err)
	}
	return nil
}

// Request sends a message the core must reply to and returns the call
// future. The caller is never blocked; resolution follows the transport:
//   - remote success resolves with the raw payload
//   - a remote application error resolves with *CoreError carrying the
//     raw error payload
//   - a transport failure resolves with an error wrapping ErrRequestFailed
//
// Distinguishing the last two is the contract callers rely on: *CoreError
// means the core rejected this call, ErrRequestFailed means the call never
// completed a round trip.
func (self *Client) Request(method string, params any) *Call {
	paramsValue, err := marshalParams(method, params)
	if err != nil {
		return resolvedCall(nil, err)
	}
	glog.V(1).Infof("[xrl]>>> request: method=%s params=%s\n", method, traceValue(paramsValue))
	pending := self.transport.Request(method, paramsValue)
	call := newCall()
	go func() {
		select {
		case <-pending.Done():
		case <-self.ctx.Done():
			call.resolve(nil, fmt.Errorf("%w: %s: %w", ErrRequestFailed, method, self.ctx.Err()))
			return
		}
		reply := pending.Reply()
		switch {
		case reply.Err != nil:
			call.resolve(nil, fmt.Errorf("%w: %s: %w", ErrRequestFailed, method, reply.Err))
		case reply.Error != nil:
			call.resolve(nil, &CoreError{Value: json.RawMessage(reply.Error)})
		default:
			call.resolve(json.RawMessage(reply.Result), nil)
		}
	}()
	return call
}

// Close abandons unresolved calls and closes the underlying transport.
func (self *Client) Close() error {
	self.cancel()
	return self.transport.Close()
}

func marshalParams(method string, params any) ([]byte, error) {
	if params == nil {
		return []byte("{}"), nil
	}
	paramsValue, err := json.Marshal(params)
	if err != nil {
		return nil, &MarshalError{Method: method, cause: err}
	}
	return paramsValue, nil
}
