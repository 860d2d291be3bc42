// Package ipc implements the newline-delimited JSON unix-socket protocol
// between the murmur CLI and a running session owner.
package ipc

// Request is a single command sent by a client.
type Request struct {
	Command string `json:"command"`
}

// Response carries the command outcome. Warning surfaces non-fatal
// conditions such as a model selection that fell back to the default.
type Response struct {
	OK      bool   `json:"ok"`
	State   string `json:"state,omitempty"`
	Message string `json:"message,omitempty"`
	Warning string `json:"warning,omitempty"`
	Error   string `json:"error,omitempty"`
}
