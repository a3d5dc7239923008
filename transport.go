package xrl

import (
	"sync"

	"golang.org/x/exp/maps"
)

// Transport frames and sends messages to the core and correlates replies
// by message id. It reports raw outcomes; classifying them into the error
// taxonomy is the Client's job.
type Transport interface {
	// fire and forget. an error means the hand-off failed, not that the
	// core rejected anything.
	Notify(method string, params []byte) error
	// send a correlated request. the returned Pending resolves exactly
	// once, to a remote payload, a remote error payload, or a transport
	// failure.
	Request(method string, params []byte) *Pending
	Close() error
}

// Reply is the raw three-way outcome of a request as the transport saw it.
// Exactly one of the three fields is meaningful: Err for a transport-level
// failure, Error for a remote application error, Result otherwise.
type Reply struct {
	Result []byte
	Error  []byte
	Err    error
}

// Pending is the transport-level future for one in-flight request.
type Pending struct {
	once sync.Once
	done chan struct{}

	reply Reply
}

func newPending() *Pending {
	return &Pending{
		done: make(chan struct{}),
	}
}

func failedPending(err error) *Pending {
	pending := newPending()
	pending.resolve(Reply{Err: err})
	return pending
}

func (self *Pending) resolve(reply Reply) {
	self.once.Do(func() {
		self.reply = reply
		close(self.done)
	})
}

func (self *Pending) Done() <-chan struct{} {
	return self.done
}

// Reply blocks until the request resolves.
func (self *Pending) Reply() Reply {
	<-self.done
	return self.reply
}

// pendingCalls is the id -> in-flight request table shared by the concrete
// transports. Resolving one entry never touches the others.
type pendingCalls struct {
	mutex  sync.Mutex
	nextId uint64
	calls  map[uint64]*Pending
	closed error
}

func newPendingCalls() *pendingCalls {
	return &pendingCalls{
		calls: map[uint64]*Pending{},
	}
}

// add registers a new in-flight request and returns its wire id.
func (self *pendingCalls) add(pending *Pending) (uint64, error) {
	self.mutex.Lock()
	defer self.mutex.Unlock()
	if self.closed != nil {
		return 0, self.closed
	}
	self.nextId += 1
	id := self.nextId
	self.calls[id] = pending
	return id, nil
}

func (self *pendingCalls) remove(id uint64) {
	self.mutex.Lock()
	defer self.mutex.Unlock()
	delete(self.calls, id)
}

// resolve completes the request with the given wire id, if it is still
// pending.
func (self *pendingCalls) resolve(id uint64, reply Reply) bool {
	self.mutex.Lock()
	pending, ok := self.calls[id]
	delete(self.calls, id)
	self.mutex.Unlock()
	if !ok {
		return false
	}
	pending.resolve(reply)
	return true
}

// failAll resolves every in-flight request with a transport failure.
// The table keeps accepting new requests afterwards (reconnect case).
func (self *pendingCalls) failAll(err error) {
	self.mutex.Lock()
	calls := self.calls
	self.calls = map[uint64]*Pending{}
	self.mutex.Unlock()
	for _, id := range maps.Keys(calls) {
		calls[id].resolve(Reply{Err: err})
	}
}

// close fails every in-flight request and rejects all future ones.
func (self *pendingCalls) close(err error) {
	self.mutex.Lock()
	if self.closed == nil {
		self.closed = err
	}
	self.mutex.Unlock()
	self.failAll(err)
}
