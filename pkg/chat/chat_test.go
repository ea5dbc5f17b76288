package chat

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harun/agentic/internal/config"
	"github.com/harun/agentic/pkg/client"
)

// fakeRunner scripts responses for forwarded queries and records every
// request it receives.
type fakeRunner struct {
	requests []client.ExecuteRequest
	reply    func(req client.ExecuteRequest) (*client.ExecuteResponse, error)
	stream   func(ctx context.Context, req client.ExecuteRequest) (*client.Stream, error)
}

func (f *fakeRunner) Execute(_ context.Context, req client.ExecuteRequest) (*client.ExecuteResponse, error) {
	f.requests = append(f.requests, req)
	if f.reply != nil {
		return f.reply(req)
	}
	return &client.ExecuteResponse{
		Status: client.StatusSuccess,
		Output: []client.InputItem{{Type: client.InputText, Content: "echo: " + req.Query}},
	}, nil
}

func (f *fakeRunner) ExecuteStream(ctx context.Context, req client.ExecuteRequest) (*client.Stream, error) {
	f.requests = append(f.requests, req)
	if f.stream != nil {
		return f.stream(ctx, req)
	}
	return nil, errors.New("streaming not scripted")
}

func runScript(t *testing.T, runner *fakeRunner, state State, input string) string {
	t.Helper()
	var out bytes.Buffer
	s := New(runner, strings.NewReader(input), &out, WithState(state))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Run(ctx))
	return out.String()
}

func TestSessionGeneratesIdentity(t *testing.T) {
	s := New(&fakeRunner{}, strings.NewReader(""), &bytes.Buffer{})

	state := s.State()
	assert.True(t, strings.HasPrefix(state.SessionRef, "chat-"))
	assert.True(t, strings.HasPrefix(state.UserRef, "user-"))
}

func TestSessionKeepsProvidedIdentity(t *testing.T) {
	s := New(&fakeRunner{}, strings.NewReader(""), &bytes.Buffer{},
		WithState(State{UserRef: "user-fixed", SessionRef: "session-fixed"}))

	state := s.State()
	assert.Equal(t, "user-fixed", state.UserRef)
	assert.Equal(t, "session-fixed", state.SessionRef)
}

func TestRunForwardsQueries(t *testing.T) {
	runner := &fakeRunner{}
	out := runScript(t, runner, State{UserRef: "u-1", SessionRef: "s-1"},
		"hello there\nexit\n")

	require.Len(t, runner.requests, 1)
	req := runner.requests[0]
	assert.Equal(t, "hello there", req.Query)
	assert.Equal(t, "u-1", req.UserRef)
	assert.Equal(t, "s-1", req.SessionRef)
	assert.False(t, req.Stream.Enable)

	assert.Contains(t, out, "Agent: echo: hello there")
	assert.Contains(t, out, "Goodbye! Session ended.")
}

func TestRunExitTokens(t *testing.T) {
	for _, token := range []string{"exit", "quit", "q", "EXIT", "Quit"} {
		t.Run(token, func(t *testing.T) {
			runner := &fakeRunner{}
			out := runScript(t, runner, State{}, token+"\n")

			assert.Empty(t, runner.requests, "exit tokens must not reach the runner")
			assert.Contains(t, out, "Goodbye! Session ended.")
		})
	}
}

func TestRunIgnoresBlankLines(t *testing.T) {
	runner := &fakeRunner{}
	runScript(t, runner, State{}, "\n   \n\t\nexit\n")
	assert.Empty(t, runner.requests)
}

func TestRunContinuesAfterQueryError(t *testing.T) {
	runner := &fakeRunner{
		reply: func(req client.ExecuteRequest) (*client.ExecuteResponse, error) {
			if req.Query == "bad" {
				return nil, fmt.Errorf("%w: nope", client.ErrAuthentication)
			}
			return &client.ExecuteResponse{
				Output: []client.InputItem{{Type: client.InputText, Content: "fine"}},
			}, nil
		},
	}

	out := runScript(t, runner, State{}, "bad\ngood\nexit\n")

	require.Len(t, runner.requests, 2)
	assert.Contains(t, out, "Error: ")
	assert.Contains(t, out, "Agent: fine")
}

func TestRunEndOfInput(t *testing.T) {
	runner := &fakeRunner{}
	out := runScript(t, runner, State{}, "")
	assert.Contains(t, out, "Goodbye! Session ended.")
}

func TestCommandNew(t *testing.T) {
	runner := &fakeRunner{}
	var out bytes.Buffer
	s := New(runner, strings.NewReader("#new\nafter\nexit\n"), &out,
		WithState(State{UserRef: "u-1", SessionRef: "s-old", Debug: true, DebugMode: client.DebugThoughts}))

	require.NoError(t, s.Run(context.Background()))

	state := s.State()
	assert.NotEqual(t, "s-old", state.SessionRef)
	assert.Equal(t, "u-1", state.UserRef, "user identity survives a session reset")
	assert.True(t, state.Debug, "execution settings survive a session reset")
	assert.Equal(t, client.DebugThoughts, state.DebugMode)

	require.Len(t, runner.requests, 1)
	assert.Equal(t, state.SessionRef, runner.requests[0].SessionRef,
		"queries after #new carry the fresh session")
	assert.Contains(t, out.String(), "Previous Session: s-old")
}

func TestCommandNewAlias(t *testing.T) {
	var out bytes.Buffer
	s := New(&fakeRunner{}, strings.NewReader("#newsession\nexit\n"), &out,
		WithState(State{SessionRef: "s-old"}))
	require.NoError(t, s.Run(context.Background()))
	assert.NotEqual(t, "s-old", s.State().SessionRef)
}

func TestCommandInfo(t *testing.T) {
	runner := &fakeRunner{}
	out := runScript(t, runner,
		State{UserRef: "u-1", SessionRef: "s-1", EnvName: "staging", Stream: true, StreamMode: client.StreamTokens},
		"#info\nexit\n")

	assert.Contains(t, out, "Session ID: s-1")
	assert.Contains(t, out, "User ID: u-1")
	assert.Contains(t, out, "Environment: staging")
	assert.Contains(t, out, "Streaming: tokens")
	assert.Contains(t, out, "Debug: disabled")
	assert.Empty(t, runner.requests)
}

func TestCommandInfoAlias(t *testing.T) {
	out := runScript(t, &fakeRunner{}, State{UserRef: "u-1", SessionRef: "s-1"},
		"#session\nexit\n")
	assert.Contains(t, out, "Session Information:")
	assert.Contains(t, out, "Session ID: s-1")
}

func TestCommandClear(t *testing.T) {
	var out bytes.Buffer
	s := New(&fakeRunner{}, strings.NewReader("#clear\nexit\n"), &out,
		WithState(State{SessionRef: "s-1", EnvName: "staging"}))
	require.NoError(t, s.Run(context.Background()))

	assert.Contains(t, out.String(), "\033[2J\033[H")
	// The banner is reprinted, so the session line appears twice.
	assert.Equal(t, 2, strings.Count(out.String(), "Session ID: s-1"))
	assert.Equal(t, "s-1", s.State().SessionRef, "clearing the screen must not touch state")
}

func TestCommandDebug(t *testing.T) {
	t.Run("on and off", func(t *testing.T) {
		var out bytes.Buffer
		s := New(&fakeRunner{}, strings.NewReader("#debug on\n#debug off\nexit\n"), &out, WithState(State{}))
		require.NoError(t, s.Run(context.Background()))
		assert.False(t, s.State().Debug)
		assert.Contains(t, out.String(), "Debug mode enabled")
		assert.Contains(t, out.String(), "Debug mode disabled")
	})

	t.Run("on resets a stale mode", func(t *testing.T) {
		s := New(&fakeRunner{}, strings.NewReader("#debug on\nexit\n"), &bytes.Buffer{},
			WithState(State{DebugMode: client.DebugAll}))
		require.NoError(t, s.Run(context.Background()))
		assert.True(t, s.State().Debug)
		assert.Empty(t, s.State().DebugMode)
	})

	t.Run("no argument reports state", func(t *testing.T) {
		out := runScript(t, &fakeRunner{}, State{Debug: true}, "#debug\nexit\n")
		assert.Contains(t, out, "currently enabled")
	})

	t.Run("bad argument", func(t *testing.T) {
		s := New(&fakeRunner{}, strings.NewReader("#debug loud\nexit\n"), &bytes.Buffer{}, WithState(State{}))
		require.NoError(t, s.Run(context.Background()))
		assert.False(t, s.State().Debug, "invalid arguments leave state untouched")
	})
}

func TestCommandStream(t *testing.T) {
	t.Run("on defaults to tokens", func(t *testing.T) {
		s := New(&fakeRunner{}, strings.NewReader("#stream on\nexit\n"), &bytes.Buffer{}, WithState(State{}))
		require.NoError(t, s.Run(context.Background()))
		assert.True(t, s.State().Stream)
		assert.Equal(t, client.StreamTokens, s.State().StreamMode)
	})

	t.Run("named mode", func(t *testing.T) {
		s := New(&fakeRunner{}, strings.NewReader("#stream messages\nexit\n"), &bytes.Buffer{}, WithState(State{}))
		require.NoError(t, s.Run(context.Background()))
		assert.True(t, s.State().Stream)
		assert.Equal(t, client.StreamMessages, s.State().StreamMode)
	})

	t.Run("off clears the mode", func(t *testing.T) {
		s := New(&fakeRunner{}, strings.NewReader("#stream off\nexit\n"), &bytes.Buffer{},
			WithState(State{Stream: true, StreamMode: client.StreamCustom}))
		require.NoError(t, s.Run(context.Background()))
		assert.False(t, s.State().Stream)
		assert.Empty(t, s.State().StreamMode)
	})

	t.Run("bad argument", func(t *testing.T) {
		s := New(&fakeRunner{}, strings.NewReader("#stream firehose\nexit\n"), &bytes.Buffer{}, WithState(State{}))
		require.NoError(t, s.Run(context.Background()))
		assert.False(t, s.State().Stream)
	})
}

func TestCommandUnknown(t *testing.T) {
	runner := &fakeRunner{}
	out := runScript(t, runner, State{}, "#bogus\nexit\n")

	assert.Contains(t, out, "Unknown command: #bogus")
	assert.Empty(t, runner.requests, "command lines never reach the runner")
}

func TestCommandHelp(t *testing.T) {
	out := runScript(t, &fakeRunner{}, State{}, "#help\nexit\n")
	assert.Contains(t, out, "Available Commands:")
	assert.Contains(t, out, "#stream on|off|tokens|messages|custom")
}

func TestCommandHistory(t *testing.T) {
	out := runScript(t, &fakeRunner{}, State{}, "#history\nexit\n")
	assert.Contains(t, out, "not yet implemented")
}

func TestCommandCaseInsensitive(t *testing.T) {
	s := New(&fakeRunner{}, strings.NewReader("#DEBUG ON\nexit\n"), &bytes.Buffer{}, WithState(State{}))
	require.NoError(t, s.Run(context.Background()))
	assert.True(t, s.State().Debug)
}

func TestQueryCarriesMetadataAndDebug(t *testing.T) {
	runner := &fakeRunner{}
	var out bytes.Buffer
	s := New(runner, strings.NewReader("#debug on\nquestion\nexit\n"), &out,
		WithState(State{UserRef: "u-1", SessionRef: "s-1"}),
		WithMetadata(map[string]string{"channel": "chat"}))

	require.NoError(t, s.Run(context.Background()))

	require.Len(t, runner.requests, 1)
	req := runner.requests[0]
	assert.True(t, req.Debug.Enable)
	assert.Equal(t, map[string]string{"channel": "chat"}, req.Metadata)
}

func TestStreamingQuery(t *testing.T) {
	// The stream consumer is concrete, so the scripted runner serves real
	// SSE from a local server.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"eventIndex\":0,\"output\":[{\"type\":\"text\",\"content\":\"hel\"}]}\n\n")
		fmt.Fprint(w, "data: {\"eventIndex\":1,\"output\":[{\"type\":\"text\",\"content\":\"lo\"}],\"isLastEvent\":true}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	real := client.New(&config.Config{
		APIKey:  "kg-test",
		AppID:   "app-1",
		EnvName: "production",
		BaseURL: srv.URL,
		Timeout: 5 * time.Second,
	})

	runner := &fakeRunner{
		stream: func(ctx context.Context, req client.ExecuteRequest) (*client.Stream, error) {
			return real.ExecuteStream(ctx, req)
		},
	}

	out := runScript(t, runner,
		State{UserRef: "u-1", SessionRef: "s-1", Stream: true, StreamMode: client.StreamTokens},
		"say hello\nexit\n")

	require.Len(t, runner.requests, 1)
	assert.True(t, runner.requests[0].Stream.Enable)
	assert.Contains(t, out, "Agent: hello")
}

func TestRunContextCancellation(t *testing.T) {
	// The reader never produces a line, so the loop can only leave through
	// the cancelled context.
	blocked, w := io.Pipe()
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	var out bytes.Buffer
	s := New(&fakeRunner{}, blocked, &out, WithState(State{}))

	err := s.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, out.String(), "Session ended.")
}
