package client

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// SessionInfo identifies the run and session a stream event belongs to.
type SessionInfo struct {
	RunID            string `json:"runId,omitempty"`
	SessionReference string `json:"sessionReference,omitempty"`
	Status           string `json:"status,omitempty"`
}

// StreamEvent is one element of a streaming response. Type reflects the
// negotiated stream mode: token fragments, complete messages, or custom
// named events.
type StreamEvent struct {
	Type        string
	Index       int
	Content     string
	SessionInfo *SessionInfo
	Last        bool
	Raw         json.RawMessage
}

// streamPayload is the wire shape of one SSE data frame.
type streamPayload struct {
	EventIndex  int          `json:"eventIndex"`
	MessageID   string       `json:"messageId,omitempty"`
	Output      []InputItem  `json:"output,omitempty"`
	SessionInfo *SessionInfo `json:"sessionInfo,omitempty"`
	IsLastEvent bool         `json:"isLastEvent,omitempty"`
	Error       *RunError    `json:"error,omitempty"`
}

// Stream is a lazy, forward-only consumer over a live streaming response.
// It is not restartable: a new stream requires a new ExecuteStream call.
// Whoever receives a Stream must drain it or call Close, otherwise the
// underlying connection leaks.
type Stream struct {
	body      io.ReadCloser
	scanner   *bufio.Scanner
	mode      string
	logger    zerolog.Logger
	eventName string
	done      bool
	closeOnce sync.Once
	closeErr  error
}

func newStream(body io.ReadCloser, mode string, logger zerolog.Logger) *Stream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	return &Stream{
		body:    body,
		scanner: scanner,
		mode:    mode,
		logger:  logger.With().Str("module", "stream").Logger(),
	}
}

// Next blocks until the next event is available. It returns io.EOF when the
// sequence ends, whether by a completion event, a [DONE] marker, or remote
// closure. A remote error event is converted into a returned error here, at
// the point of consumption.
func (s *Stream) Next(ctx context.Context) (*StreamEvent, error) {
	if s.done {
		s.Close()
		return nil, io.EOF
	}

	for s.scanner.Scan() {
		if err := ctx.Err(); err != nil {
			s.Close()
			return nil, err
		}

		line := strings.TrimRight(s.scanner.Text(), "\r")
		if line == "" {
			continue
		}

		if name, ok := strings.CutPrefix(line, "event: "); ok {
			s.eventName = strings.TrimSpace(name)
			continue
		}

		data, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			s.logger.Debug().Str("line", line).Msg("Skipping non-data stream line")
			continue
		}

		if strings.TrimSpace(data) == "[DONE]" {
			s.finish()
			return nil, io.EOF
		}

		event, err := s.decode([]byte(data))
		if err != nil {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return nil, err
			}
			s.logger.Warn().Err(err).Msg("Dropping malformed stream event")
			continue
		}
		if event == nil {
			continue
		}
		if event.Last {
			s.done = true
		}
		return event, nil
	}

	if err := s.scanner.Err(); err != nil {
		s.Close()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("stream read failed: %w", err)
	}

	// Remote side closed the stream.
	s.finish()
	return nil, io.EOF
}

// decode turns one data frame into a StreamEvent. Error frames become
// errors; frames without content still surface so callers see session info
// and the last-event flag.
func (s *Stream) decode(data []byte) (*StreamEvent, error) {
	var payload streamPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("invalid stream payload: %w", err)
	}

	if payload.Error != nil {
		s.Close()
		return nil, &APIError{Msg: payload.Error.Msg, Code: payload.Error.Code}
	}

	event := &StreamEvent{
		Type:        s.eventType(),
		Index:       payload.EventIndex,
		SessionInfo: payload.SessionInfo,
		Last:        payload.IsLastEvent,
		Raw:         json.RawMessage(data),
	}
	for _, item := range payload.Output {
		if item.Type == InputText {
			event.Content += item.Content
		}
	}
	return event, nil
}

// eventType names the event after the negotiated mode, keeping any custom
// event name announced on the wire.
func (s *Stream) eventType() string {
	if s.mode == StreamCustom && s.eventName != "" {
		return s.eventName
	}
	switch s.mode {
	case StreamTokens:
		return "token"
	case StreamMessages:
		return "message"
	}
	return "event"
}

// Collect drains the stream into a materialized response, closing it on the
// way out. The run identifier is taken from the last session info observed.
func (s *Stream) Collect(ctx context.Context) (*ExecuteResponse, error) {
	defer s.Close()

	var content strings.Builder
	var info *SessionInfo

	for {
		event, err := s.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		content.WriteString(event.Content)
		if event.SessionInfo != nil {
			info = event.SessionInfo
		}
	}

	resp := &ExecuteResponse{}
	if content.Len() > 0 {
		resp.Output = []InputItem{{Type: InputText, Content: content.String()}}
	}
	if info != nil {
		resp.RunID = info.RunID
		resp.Status = info.Status
	}
	return resp, nil
}

// Close releases the underlying connection. Safe to call more than once.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		s.done = true
		s.closeErr = s.body.Close()
	})
	return s.closeErr
}

// finish marks normal end of stream and releases the connection.
func (s *Stream) finish() {
	s.done = true
	s.Close()
}
