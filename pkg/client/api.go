package client

import (
	"encoding/json"
	"fmt"
)

// Identity reference types accepted by the runs API.
const (
	IdentityUserReference    = "userReference"
	IdentitySessionReference = "sessionReference"
)

// InputText is the only input item type the platform currently defines.
const InputText = "text"

// Stream modes for the execute endpoint.
const (
	StreamTokens   = "tokens"
	StreamMessages = "messages"
	StreamCustom   = "custom"
)

// Debug modes for the execute endpoint. All three are constructible
// client-side; the deployed service has been observed to accept only
// DebugThoughts and reject the others with HTTP 400.
const (
	DebugAll          = "all"
	DebugFunctionCall = "function-call"
	DebugThoughts     = "thoughts"
)

// Run status values reported by the status endpoint.
const (
	StatusPending = "pending"
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// IdentityRef is one element of the sessionIdentity array.
type IdentityRef struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// InputItem is one element of the input array.
type InputItem struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// StreamConfig is the stream section of an execute request body.
type StreamConfig struct {
	Enable bool   `json:"enable"`
	Mode   string `json:"mode,omitempty"`
}

// DebugConfig is the debug section of an execute request body.
type DebugConfig struct {
	Enable    bool   `json:"enable"`
	DebugMode string `json:"debugMode,omitempty"`
}

// Attachment references a file to include with an execute request.
type Attachment struct {
	FileURL  string `json:"fileUrl"`
	FileName string `json:"fileName,omitempty"`
}

// executeBody is the wire format of the execute endpoint request.
type executeBody struct {
	SessionIdentity []IdentityRef     `json:"sessionIdentity"`
	Input           []InputItem       `json:"input"`
	Stream          *StreamConfig     `json:"stream,omitempty"`
	Debug           *DebugConfig      `json:"debug,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	Files           []Attachment      `json:"files,omitempty"`
	Async           bool              `json:"async,omitempty"`
}

// ExecuteResponse is the materialized body of a non-streaming execute call.
// For asynchronous requests only RunID and Status are populated.
type ExecuteResponse struct {
	RunID    string          `json:"runId,omitempty"`
	Status   string          `json:"status,omitempty"`
	Output   []InputItem     `json:"output,omitempty"`
	Response string          `json:"response,omitempty"`
	Debug    json.RawMessage `json:"debug,omitempty"`
	Message  string          `json:"message,omitempty"`
}

// Text returns the concatenated text content of the output array, falling
// back to the flat response field for older payloads.
func (r *ExecuteResponse) Text() string {
	if len(r.Output) == 0 {
		return r.Response
	}
	var out string
	for _, item := range r.Output {
		if item.Type == InputText {
			out += item.Content
		}
	}
	return out
}

// RunError is the error detail attached to a failed run.
type RunError struct {
	Msg  string `json:"msg"`
	Code int    `json:"code"`
}

// RunStatus is the body of a status lookup.
type RunStatus struct {
	RunID  string          `json:"runId"`
	Status string          `json:"status"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *RunError       `json:"error,omitempty"`
}

// Terminal reports whether the run has reached a state it cannot leave.
func (s *RunStatus) Terminal() bool {
	return s.Status == StatusSuccess || s.Status == StatusFailed
}

// known reports whether the status value belongs to the fixed set. Anything
// else is an unexpected response, not a new state.
func (s *RunStatus) known() bool {
	switch s.Status {
	case StatusPending, StatusRunning, StatusSuccess, StatusFailed:
		return true
	}
	return false
}

// errorBody is the wire format of an error response from any endpoint.
type errorBody struct {
	Errors []struct {
		Msg  string `json:"msg"`
		Code int    `json:"code"`
	} `json:"errors"`
	Timestamp string `json:"timestamp"`
	Path      string `json:"path"`
}

func executeURL(baseURL, appID, envName string) string {
	return fmt.Sprintf("%s/apps/%s/environments/%s/runs/execute", baseURL, appID, envName)
}

func statusURL(baseURL, appID, envName, runID string) string {
	return fmt.Sprintf("%s/apps/%s/environments/%s/runs/%s/status", baseURL, appID, envName, runID)
}

func headers(apiKey string) map[string]string {
	return map[string]string{
		"x-api-key":    apiKey,
		"Content-Type": "application/json",
	}
}
