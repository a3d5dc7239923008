package xrl

import (
	"encoding/json"
)

// every per-view command rides inside the same outer "edit" call, so the
// nested envelope is built in exactly one place and the command catalog
// cannot drift in shape
type editEnvelope struct {
	Method string          `json:"method"`
	ViewId ViewId          `json:"view_id"`
	Params json.RawMessage `json:"params"`
}

// the core requires "params" to be present on every edit call. a command
// without parameters sends an empty list, never null.
var emptyParams = json.RawMessage("[]")

func editParams(view ViewId, method string, params any) (*editEnvelope, error) {
	paramsValue := emptyParams
	if params != nil {
		var err error
		paramsValue, err = json.Marshal(params)
		if err != nil {
			return nil, &MarshalError{Method: method, cause: err}
		}
	}
	return &editEnvelope{
		Method: method,
		ViewId: view,
		Params: paramsValue,
	}, nil
}

// EditRequest sends an "edit" request scoped to one view. On a composition
// failure the returned call already carries the error and the transport is
// never touched.
func (self *Client) EditRequest(view ViewId, method string, params any) *Call {
	envelope, err := editParams(view, method, params)
	if err != nil {
		return resolvedCall(nil, err)
	}
	return self.Request("edit", envelope)
}

// EditNotify sends an "edit" notification scoped to one view.
func (self *Client) EditNotify(view ViewId, method string, params any) error {
	envelope, err := editParams(view, method, params)
	if err != nil {
		return err
	}
	return self.Notify("edit", envelope)
}
