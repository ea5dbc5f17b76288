package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMetadata(t *testing.T) {
	t.Run("flat string map", func(t *testing.T) {
		meta, err := ParseMetadata(`{"source": "cli", "tenant": "acme"}`)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"source": "cli", "tenant": "acme"}, meta)
	})

	t.Run("empty object", func(t *testing.T) {
		meta, err := ParseMetadata(`{}`)
		require.NoError(t, err)
		assert.Empty(t, meta)
	})

	t.Run("rejects non-string values", func(t *testing.T) {
		_, err := ParseMetadata(`{"count": 3}`)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("rejects nested objects", func(t *testing.T) {
		_, err := ParseMetadata(`{"inner": {"a": "b"}}`)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("rejects arrays", func(t *testing.T) {
		_, err := ParseMetadata(`["a", "b"]`)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		_, err := ParseMetadata(`{"source": `)
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestExecuteRequestBody(t *testing.T) {
	req := ExecuteRequest{
		Query:      "what is the weather",
		UserRef:    "user-42",
		SessionRef: "session-42",
		Async:      true,
		Stream:     StreamConfig{Enable: true, Mode: StreamMessages},
		Debug:      DebugConfig{Enable: true, DebugMode: DebugThoughts},
		Metadata:   map[string]string{"channel": "web"},
		Files: []Attachment{
			{FileURL: "https://example.com/doc.pdf", FileName: "doc.pdf"},
		},
	}
	require.NoError(t, req.validate())

	body := req.body()

	assert.Equal(t, []IdentityRef{
		{Type: IdentityUserReference, Value: "user-42"},
		{Type: IdentitySessionReference, Value: "session-42"},
	}, body.SessionIdentity)
	assert.Equal(t, []InputItem{{Type: InputText, Content: "what is the weather"}}, body.Input)
	assert.True(t, body.Async)

	require.NotNil(t, body.Stream)
	assert.Equal(t, StreamMessages, body.Stream.Mode)
	require.NotNil(t, body.Debug)
	assert.Equal(t, DebugThoughts, body.Debug.DebugMode)

	assert.Equal(t, map[string]string{"channel": "web"}, body.Metadata)
	require.Len(t, body.Files, 1)
	assert.Equal(t, "doc.pdf", body.Files[0].FileName)
}

func TestExecuteRequestBodyOmitsDisabledSections(t *testing.T) {
	req := ExecuteRequest{Query: "hi", UserRef: "u", SessionRef: "s"}
	require.NoError(t, req.validate())

	body := req.body()
	assert.Nil(t, body.Stream)
	assert.Nil(t, body.Debug)
	assert.Nil(t, body.Metadata)
	assert.Nil(t, body.Files)
}

func TestValidateAcceptsEveryKnownMode(t *testing.T) {
	for _, mode := range []string{StreamTokens, StreamMessages, StreamCustom} {
		req := ExecuteRequest{Query: "q", UserRef: "u", SessionRef: "s",
			Stream: StreamConfig{Enable: true, Mode: mode}}
		assert.NoError(t, req.validate(), "stream mode %s", mode)
	}

	for _, mode := range []string{DebugAll, DebugFunctionCall, DebugThoughts} {
		req := ExecuteRequest{Query: "q", UserRef: "u", SessionRef: "s",
			Debug: DebugConfig{Enable: true, DebugMode: mode}}
		assert.NoError(t, req.validate(), "debug mode %s", mode)
	}
}

func TestValidateEnableWithoutMode(t *testing.T) {
	// Enabling streaming or debug without naming a mode is valid; the
	// remote applies its default.
	req := ExecuteRequest{Query: "q", UserRef: "u", SessionRef: "s",
		Stream: StreamConfig{Enable: true},
		Debug:  DebugConfig{Enable: true}}
	assert.NoError(t, req.validate())
}
