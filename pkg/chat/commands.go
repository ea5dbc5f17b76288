package chat

import (
	"fmt"
	"strings"

	"github.com/harun/agentic/pkg/client"
)

// commandMarker prefixes control commands; everything else is query text.
const commandMarker = "#"

// commandHandler mutates session state or emits output in response to a
// control command. Handlers never terminate the loop.
type commandHandler func(args string)

// dispatch routes a control command line. Command names are matched on the
// first token, case-insensitively. Returns true when the loop should exit;
// no current command does, but the table keeps that option open.
func (s *Session) dispatch(line string) bool {
	parts := strings.SplitN(line, " ", 2)
	command := strings.ToLower(parts[0])
	args := ""
	if len(parts) > 1 {
		args = strings.TrimSpace(parts[1])
	}

	handlers := map[string]commandHandler{
		"#help":       s.cmdHelp,
		"#new":        s.cmdNew,
		"#newsession": s.cmdNew, // alias
		"#info":       s.cmdInfo,
		"#session":    s.cmdInfo, // alias
		"#clear":      s.cmdClear,
		"#debug":      s.cmdDebug,
		"#stream":     s.cmdStream,
		"#history":    s.cmdHistory,
	}

	handler, ok := handlers[command]
	if !ok {
		fmt.Fprintf(s.out, "Unknown command: %s. Type #help for available commands.\n", command)
		s.logger.Warn().Str("command", command).Msg("Unknown chat command")
		return false
	}

	s.logger.Debug().Str("command", command).Msg("Handling chat command")
	handler(args)
	return false
}

func (s *Session) cmdHelp(string) {
	fmt.Fprintln(s.out, "\nAvailable Commands:")
	fmt.Fprintln(s.out, "  #help              - Show this help message")
	fmt.Fprintln(s.out, "  #new               - Start a new session")
	fmt.Fprintln(s.out, "  #info              - Show current session information")
	fmt.Fprintln(s.out, "  #clear             - Clear the terminal screen")
	fmt.Fprintln(s.out, "  #debug on|off      - Toggle debug mode")
	fmt.Fprintln(s.out, "  #stream on|off|tokens|messages|custom - Toggle streaming")
	fmt.Fprintln(s.out, "\nTo exit chat, type: exit, quit, or q")
}

// cmdNew replaces the session identity with a fresh one. Debug and stream
// settings are untouched.
func (s *Session) cmdNew(string) {
	previous := s.state.SessionRef
	s.state.SessionRef = NewSessionID()

	fmt.Fprintln(s.out, "\nNew session started")
	fmt.Fprintf(s.out, "Previous Session: %s\n", previous)
	fmt.Fprintf(s.out, "New Session: %s\n", s.state.SessionRef)

	s.logger.Info().
		Str("previous", previous).
		Str("session", s.state.SessionRef).
		Msg("New chat session")
}

func (s *Session) cmdInfo(string) {
	fmt.Fprintln(s.out, "\nSession Information:")
	fmt.Fprintf(s.out, "  Session ID: %s\n", s.state.SessionRef)
	fmt.Fprintf(s.out, "  User ID: %s\n", s.state.UserRef)
	fmt.Fprintf(s.out, "  Environment: %s\n", s.state.EnvName)

	if s.state.Debug {
		if s.state.DebugMode != "" {
			fmt.Fprintf(s.out, "  Debug: enabled (%s)\n", s.state.DebugMode)
		} else {
			fmt.Fprintln(s.out, "  Debug: enabled")
		}
	} else {
		fmt.Fprintln(s.out, "  Debug: disabled")
	}

	if s.state.Stream {
		fmt.Fprintf(s.out, "  Streaming: %s\n", s.state.StreamMode)
	} else {
		fmt.Fprintln(s.out, "  Streaming: disabled")
	}
}

// cmdClear clears the terminal and reprints the banner. Pure side effect,
// no state change.
func (s *Session) cmdClear(string) {
	fmt.Fprint(s.out, "\033[2J\033[H")
	s.banner()
}

func (s *Session) cmdDebug(args string) {
	switch strings.ToLower(args) {
	case "":
		state := "disabled"
		if s.state.Debug {
			state = "enabled"
		}
		fmt.Fprintf(s.out, "Debug mode is currently %s\n", state)
	case "on":
		s.state.Debug = true
		s.state.DebugMode = ""
		fmt.Fprintln(s.out, "Debug mode enabled")
	case "off":
		s.state.Debug = false
		s.state.DebugMode = ""
		fmt.Fprintln(s.out, "Debug mode disabled")
	default:
		fmt.Fprintf(s.out, "Invalid argument: %q. Use '#debug on' or '#debug off'\n", args)
	}
}

func (s *Session) cmdStream(args string) {
	switch mode := strings.ToLower(args); mode {
	case "":
		if s.state.Stream {
			fmt.Fprintf(s.out, "Streaming is enabled: %s\n", s.state.StreamMode)
		} else {
			fmt.Fprintln(s.out, "Streaming is disabled")
		}
	case "off":
		s.state.Stream = false
		s.state.StreamMode = ""
		fmt.Fprintln(s.out, "Streaming disabled")
	case "on":
		s.state.Stream = true
		s.state.StreamMode = client.StreamTokens
		fmt.Fprintf(s.out, "Streaming enabled (mode: %s)\n", s.state.StreamMode)
	case client.StreamTokens, client.StreamMessages, client.StreamCustom:
		s.state.Stream = true
		s.state.StreamMode = mode
		fmt.Fprintf(s.out, "Streaming enabled (mode: %s)\n", mode)
	default:
		fmt.Fprintf(s.out, "Invalid argument: %q\n", args)
		fmt.Fprintln(s.out, "Use: #stream on|off|tokens|messages|custom")
	}
}

func (s *Session) cmdHistory(string) {
	// TODO: render the remote transcript once the platform exposes a
	// conversation history endpoint.
	fmt.Fprintln(s.out, "History feature not yet implemented.")
}
