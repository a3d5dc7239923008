package xrl

import (
	"encoding/json"
	"errors"
	"fmt"
)

// do not retry on these. retry policy belongs to the caller.
var (
	// the transport could not hand off a notification
	ErrNotifyFailed = errors.New("notify failed")
	// a request never reached the core or never returned from it
	// (disconnect, malformed reply, timeout)
	ErrRequestFailed = errors.New("request failed")
)

// MarshalError means a typed parameter could not be converted to or from
// its wire value. It is raised before any network effect.
type MarshalError struct {
	Method string
	cause  error
}

func (self *MarshalError) Error() string {
	if self.Method == "" {
		return fmt.Sprintf("marshal: %s", self.cause)
	}
	return fmt.Sprintf("marshal %s: %s", self.Method, self.cause)
}

func (self *MarshalError) Unwrap() error {
	return self.cause
}

// CoreError means the core explicitly replied with an application error
// payload. The payload is preserved raw for the caller to interpret.
type CoreError struct {
	Value json.RawMessage
}

func (self *CoreError) Error() string {
	return fmt.Sprintf("core returned error: %s", string(self.Value))
}
