// Package chat implements the interactive session loop: it classifies each
// input line as a control command or a query, tracks session identity and
// execution preferences, and forwards queries to the execution client.
// Conversational continuity lives entirely on the remote side, keyed by the
// session identity; no transcript is kept here.
package chat

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"github.com/harun/agentic/pkg/client"
)

// Runner is the execution capability the session drives. *client.Client
// implements it; tests script their own.
type Runner interface {
	Execute(ctx context.Context, req client.ExecuteRequest) (*client.ExecuteResponse, error)
	ExecuteStream(ctx context.Context, req client.ExecuteRequest) (*client.Stream, error)
}

// State holds the mutable session settings. Only control commands change it.
type State struct {
	UserRef    string
	SessionRef string
	Debug      bool
	DebugMode  string
	Stream     bool
	StreamMode string
	EnvName    string // read-only, inherited from the resolved config
}

// Session is the interactive chat loop over a Runner.
type Session struct {
	runner   Runner
	state    State
	in       io.Reader
	out      io.Writer
	logger   zerolog.Logger
	metadata map[string]string
	verbose  bool
}

// Option configures a Session.
type Option func(*Session)

// WithState seeds the initial session state. Empty identity fields are
// generated.
func WithState(state State) Option {
	return func(s *Session) {
		s.state = state
	}
}

// WithMetadata attaches metadata to every forwarded query.
func WithMetadata(meta map[string]string) Option {
	return func(s *Session) {
		s.metadata = meta
	}
}

// WithLogger sets the session logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) {
		s.logger = logger.With().Str("module", "chat").Logger()
	}
}

// WithVerbose enables verbose response output.
func WithVerbose(verbose bool) Option {
	return func(s *Session) {
		s.verbose = verbose
	}
}

// New creates a chat session reading from in and writing to out.
func New(runner Runner, in io.Reader, out io.Writer, opts ...Option) *Session {
	s := &Session{
		runner: runner,
		in:     in,
		out:    out,
		logger: zerolog.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.state.UserRef == "" {
		s.state.UserRef = NewUserRef()
	}
	if s.state.SessionRef == "" {
		s.state.SessionRef = NewSessionID()
	}
	return s
}

// State returns a snapshot of the current session state.
func (s *Session) State() State {
	return s.state
}

// NewSessionID generates a fresh session reference.
func NewSessionID() string {
	return "chat-" + uuid.NewString()
}

// NewUserRef generates a short user reference for sessions started without
// an explicit user identity.
func NewUserRef() string {
	id, err := gonanoid.New()
	if err != nil {
		// nanoid only fails when the system entropy source does
		return "user-" + uuid.NewString()
	}
	return "user-" + id
}

// Run processes input lines until an exit token, end of input, or ctx
// cancellation. Request failures are displayed and the loop continues.
func (s *Session) Run(ctx context.Context) error {
	s.banner()
	s.logger.Info().Str("session", s.state.SessionRef).Msg("Chat session started")

	lines := s.readLines(ctx)
	for {
		fmt.Fprint(s.out, "\nYou: ")

		var line string
		var ok bool
		select {
		case <-ctx.Done():
			fmt.Fprintln(s.out, "\nSession ended.")
			return ctx.Err()
		case line, ok = <-lines:
			if !ok {
				fmt.Fprintln(s.out, "\nGoodbye! Session ended.")
				return nil
			}
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, commandMarker) {
			if exit := s.dispatch(line); exit {
				return nil
			}
			continue
		}

		switch strings.ToLower(line) {
		case "exit", "quit", "q":
			fmt.Fprintln(s.out, "\nGoodbye! Session ended.")
			s.logger.Info().Msg("Chat session ended by user")
			return nil
		}

		if err := s.query(ctx, line); err != nil {
			if errors.Is(err, context.Canceled) {
				fmt.Fprintln(s.out, "\nSession ended.")
				return err
			}
			fmt.Fprintf(s.out, "\nError: %v\n", err)
			s.logger.Error().Err(err).Msg("Query failed")
		}
	}
}

// readLines pumps input lines into a channel so the loop can observe ctx
// while blocked on the terminal.
func (s *Session) readLines(ctx context.Context) <-chan string {
	lines := make(chan string)
	scanner := bufio.NewScanner(s.in)
	go func() {
		defer close(lines)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

// query forwards plain text to the runner using the current state.
func (s *Session) query(ctx context.Context, text string) error {
	req := client.ExecuteRequest{
		Query:      text,
		UserRef:    s.state.UserRef,
		SessionRef: s.state.SessionRef,
		Metadata:   s.metadata,
		Debug: client.DebugConfig{
			Enable:    s.state.Debug,
			DebugMode: s.state.DebugMode,
		},
		Stream: client.StreamConfig{
			Enable: s.state.Stream,
			Mode:   s.state.StreamMode,
		},
	}

	s.logger.Debug().Str("session", s.state.SessionRef).Msg("Forwarding query")

	if s.state.Stream {
		return s.streamQuery(ctx, req)
	}

	resp, err := s.runner.Execute(ctx, req)
	if err != nil {
		return err
	}
	s.printResponse(resp)
	return nil
}

// streamQuery prints events as they arrive. The stream is closed on every
// path out.
func (s *Session) streamQuery(ctx context.Context, req client.ExecuteRequest) error {
	stream, err := s.runner.ExecuteStream(ctx, req)
	if err != nil {
		return err
	}
	defer stream.Close()

	fmt.Fprint(s.out, "\nAgent: ")
	for {
		event, err := stream.Next(ctx)
		if err == io.EOF {
			fmt.Fprintln(s.out)
			return nil
		}
		if err != nil {
			fmt.Fprintln(s.out)
			return err
		}
		fmt.Fprint(s.out, event.Content)
	}
}

func (s *Session) printResponse(resp *client.ExecuteResponse) {
	fmt.Fprintf(s.out, "\nAgent: %s\n", resp.Text())
	if s.verbose && len(resp.Debug) > 0 {
		fmt.Fprintf(s.out, "\n[Debug] %s\n", resp.Debug)
	}
}

func (s *Session) banner() {
	fmt.Fprintln(s.out, "Agentic chat session started")
	fmt.Fprintf(s.out, "Session ID: %s\n", s.state.SessionRef)
	fmt.Fprintf(s.out, "Environment: %s\n", s.state.EnvName)
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, "Type your message or 'exit' to quit. Type '#help' for commands.")
}
