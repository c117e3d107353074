// Package termchat is an interactive stdin/stdout chat front-end, grounded
// on original_source/modes/ssh_chat.py's read loop: slash commands are
// dispatched through the shared command registry, everything else goes to
// the Brain.
package termchat

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/inkling-labs/inkling-core/internal/controller"
)

// ANSI color codes, mirroring ssh_chat.py's Colors class.
const (
	colorReset = "\033[0m"
	colorBold  = "\033[1m"
	colorDim   = "\033[2m"
	colorFace  = "\033[1;97m"
	colorInfo  = "\033[90m"
	colorError = "\033[91m"
)

// Session drives one terminal chat conversation against a Controller.
type Session struct {
	ctrl *controller.Controller
	in   *bufio.Scanner
	out  io.Writer
}

// New returns a Session reading from in and writing to out.
func New(ctrl *controller.Controller, in io.Reader, out io.Writer) *Session {
	return &Session{ctrl: ctrl, in: bufio.NewScanner(in), out: out}
}

// Run is the main chat loop: print a welcome banner, then read lines until
// EOF, /quit, /exit, or /q.
func (s *Session) Run(ctx context.Context) error {
	s.welcome()
	fmt.Fprintln(s.out, "\nType your message (or /help for commands):")
	fmt.Fprintln(s.out, strings.Repeat("-", 40))

	for s.in.Scan() {
		line := strings.TrimSpace(s.in.Text())
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		if lower == "/quit" || lower == "/exit" || lower == "/q" {
			break
		}

		reply, err := s.ctrl.HandleInput(ctx, line)
		if err != nil {
			fmt.Fprintf(s.out, "%sError: %v%s\n", colorError, err, colorReset)
			continue
		}
		if reply != "" {
			fmt.Fprintln(s.out, reply)
		}
	}
	s.goodbye()
	return s.in.Err()
}

func (s *Session) welcome() {
	p := s.ctrl.Personality
	energy := p.Energy()
	filled := int(energy * 5)
	bar := strings.Repeat("#", filled) + strings.Repeat("-", 5-filled)

	fmt.Fprintf(s.out, "%s┌%s┐%s\n", colorBold, strings.Repeat("─", 45), colorReset)
	fmt.Fprintf(s.out, "%s│%s  %s%s%s  %s ready%s\n", colorBold, colorReset, colorFace, p.Face(), colorReset, p.Name, colorReset)
	fmt.Fprintf(s.out, "%s│%s  %sMood: %s  Energy: [%s]%s\n", colorBold, colorReset, colorDim, p.CurrentMood(), bar, colorReset)
	fmt.Fprintf(s.out, "%s└%s┘%s\n", colorBold, strings.Repeat("─", 45), colorReset)
}

func (s *Session) goodbye() {
	fmt.Fprintf(s.out, "\n%sSession ended.%s\n", colorDim, colorReset)
}
