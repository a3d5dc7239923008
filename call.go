package xrl

import (
	"context"
	"encoding/json"
	"sync"
)

// Call is the result of one request: a single-resolution future backed by
// a channel. A Call that is dropped before resolution simply abandons
// interest in the result; the core is not told to abort.
type Call struct {
	once sync.Once
	done chan struct{}

	value json.RawMessage
	err   error
}

func newCall() *Call {
	return &Call{
		done: make(chan struct{}),
	}
}

// for composition failures that must not reach the transport
func resolvedCall(value json.RawMessage, err error) *Call {
	call := newCall()
	call.resolve(value, err)
	return call
}

func (self *Call) resolve(value json.RawMessage, err error) {
	self.once.Do(func() {
		self.value = value
		self.err = err
		close(self.done)
	})
}

// Done is closed when the call is resolved.
func (self *Call) Done() <-chan struct{} {
	return self.done
}

// Await blocks until the call resolves or ctx is done.
func (self *Call) Await(ctx context.Context) (json.RawMessage, error) {
	select {
	case <-self.done:
		return self.value, self.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// AwaitInto awaits the call and decodes the result payload into R.
// A payload that does not decode surfaces as a *MarshalError.
func AwaitInto[R any](ctx context.Context, call *Call) (R, error) {
	var result R
	value, err := call.Await(ctx)
	if err != nil {
		return result, err
	}
	if err := json.Unmarshal(value, &result); err != nil {
		var empty R
		return empty, &MarshalError{cause: err}
	}
	return result, nil
}
