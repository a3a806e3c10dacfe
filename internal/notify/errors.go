// Package notify relays storage failures to whoever wants to observe them.
// It is a debugging aid: nothing published here is ever retried.
package notify

import (
	"encoding/json"
	"fmt"
)

// Operation is the kind of storage call that was rejected.
type Operation string

const (
	OpGet    Operation = "get"
	OpList   Operation = "list"
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
	OpWrite  Operation = "write"
)

// PermissionError describes a rejected storage operation.
type PermissionError struct {
	Operation   Operation `json:"operation"`
	Path        string    `json:"path"`
	RequestData any       `json:"requestData,omitempty"`
	Err         error     `json:"-"`
}

type deniedRequest struct {
	Method   string `json:"method"`
	Path     string `json:"path"`
	Resource any    `json:"resource,omitempty"`
}

func (e *PermissionError) Error() string {
	req := deniedRequest{Method: string(e.Operation), Path: e.Path}
	if e.RequestData != nil {
		req.Resource = map[string]any{"data": e.RequestData}
	}
	body, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		body = []byte(fmt.Sprintf("{%q: %q, %q: %q}", "method", e.Operation, "path", e.Path))
	}
	msg := "missing or insufficient permissions: the following request was denied:\n" + string(body)
	if e.Err != nil {
		msg += "\ncause: " + e.Err.Error()
	}
	return msg
}

func (e *PermissionError) Unwrap() error { return e.Err }
