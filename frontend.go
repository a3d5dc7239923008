package xrl

import (
	"encoding/json"
	"fmt"

	"github.com/golang/glog"
)

// FrontendHandler receives the traffic the core initiates: update and
// scroll_to pushes, style and theme changes, plugin lifecycle events, and
// the occasional request (measure_width) that expects an answer.
//
// Handlers run on the transport's read loop; a slow handler delays reply
// correlation. Hand heavy work to another goroutine.
type FrontendHandler interface {
	HandleNotification(method string, params json.RawMessage)
	HandleRequest(method string, params json.RawMessage) (json.RawMessage, error)
}

// FrontendFuncs adapts plain functions to FrontendHandler. Nil fields fall
// back to the defaults: notifications are logged and dropped, requests are
// refused.
type FrontendFuncs struct {
	OnNotification func(method string, params json.RawMessage)
	OnRequest      func(method string, params json.RawMessage) (json.RawMessage, error)
}

func (self *FrontendFuncs) HandleNotification(method string, params json.RawMessage) {
	if self.OnNotification == nil {
		glog.Infof("[xrl]<<< unhandled notification: method=%s\n", method)
		return
	}
	self.OnNotification(method, params)
}

func (self *FrontendFuncs) HandleRequest(method string, params json.RawMessage) (json.RawMessage, error) {
	if self.OnRequest == nil {
		return nil, fmt.Errorf("unhandled request: %s", method)
	}
	return self.OnRequest(method, params)
}

// handler used when the caller passes nil
var noopFrontend FrontendHandler = &FrontendFuncs{}

// note all handler calls are wrapped to recover from panics, so a broken
// frontend cannot take down the read loop
func safeHandleNotification(handler FrontendHandler, method string, params json.RawMessage) {
	defer func() {
		if r := recover(); r != nil {
			glog.Warningf("[xrl]frontend notification handler panic: method=%s err=%s\n", method, r)
		}
	}()
	handler.HandleNotification(method, params)
}

func safeHandleRequest(handler FrontendHandler, method string, params json.RawMessage) (result json.RawMessage, err error) {
	defer func() {
		if r := recover(); r != nil {
			glog.Warningf("[xrl]frontend request handler panic: method=%s err=%s\n", method, r)
			result = nil
			err = fmt.Errorf("handler panic: %s", method)
		}
	}()
	return handler.HandleRequest(method, params)
}
