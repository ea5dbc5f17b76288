package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// metadataSchema constrains metadata to a flat string-keyed string map.
var metadataSchema = gojsonschema.NewStringLoader(`{
	"type": "object",
	"additionalProperties": {"type": "string"}
}`)

// ExecuteRequest holds the domain-level parameters of one run execution.
type ExecuteRequest struct {
	Query      string
	UserRef    string
	SessionRef string
	Async      bool
	Stream     StreamConfig
	Debug      DebugConfig
	Metadata   map[string]string
	Files      []Attachment
}

// ParseMetadata decodes raw JSON into the metadata map, rejecting anything
// that is not a flat string-keyed string object.
func ParseMetadata(raw string) (map[string]string, error) {
	result, err := gojsonschema.Validate(metadataSchema, gojsonschema.NewStringLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: metadata is not valid JSON: %v", ErrValidation, err)
	}
	if !result.Valid() {
		return nil, fmt.Errorf("%w: metadata must be a flat string map: %s", ErrValidation, result.Errors()[0])
	}

	var meta map[string]string
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, fmt.Errorf("%w: metadata must be a JSON object: %v", ErrValidation, err)
	}
	return meta, nil
}

// validate checks each field independently and reports the first violation.
// Nothing here touches the network.
func (r *ExecuteRequest) validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return fmt.Errorf("%w: query cannot be empty", ErrValidation)
	}
	if strings.TrimSpace(r.UserRef) == "" {
		return fmt.Errorf("%w: user reference cannot be empty", ErrValidation)
	}
	if strings.TrimSpace(r.SessionRef) == "" {
		return fmt.Errorf("%w: session reference cannot be empty", ErrValidation)
	}

	if r.Stream.Mode != "" {
		if !r.Stream.Enable {
			return fmt.Errorf("%w: stream mode %q set while streaming is disabled", ErrValidation, r.Stream.Mode)
		}
		switch r.Stream.Mode {
		case StreamTokens, StreamMessages, StreamCustom:
		default:
			return fmt.Errorf("%w: invalid stream mode %q (must be tokens, messages, or custom)", ErrValidation, r.Stream.Mode)
		}
	}

	if r.Debug.DebugMode != "" {
		if !r.Debug.Enable {
			return fmt.Errorf("%w: debug mode %q set while debug is disabled", ErrValidation, r.Debug.DebugMode)
		}
		switch r.Debug.DebugMode {
		case DebugAll, DebugFunctionCall, DebugThoughts:
		default:
			return fmt.Errorf("%w: invalid debug mode %q (must be all, function-call, or thoughts)", ErrValidation, r.Debug.DebugMode)
		}
	}

	return nil
}

// body builds the wire-format request body. Assumes validate has passed.
func (r *ExecuteRequest) body() *executeBody {
	b := &executeBody{
		SessionIdentity: []IdentityRef{
			{Type: IdentityUserReference, Value: r.UserRef},
			{Type: IdentitySessionReference, Value: r.SessionRef},
		},
		Input: []InputItem{
			{Type: InputText, Content: r.Query},
		},
		Metadata: r.Metadata,
		Files:    r.Files,
		Async:    r.Async,
	}

	if r.Stream.Enable {
		stream := r.Stream
		b.Stream = &stream
	}
	if r.Debug.Enable {
		debug := r.Debug
		b.Debug = &debug
	}

	return b
}
