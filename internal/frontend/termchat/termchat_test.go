package termchat

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/inkling-labs/inkling-core/internal/config"
	"github.com/inkling-labs/inkling-core/internal/controller"
)

func newTestController(t *testing.T) *controller.Controller {
	t.Helper()
	for _, v := range []string{"ANTHROPIC_API_KEY", "OPENAI_API_KEY", "GROQ_API_KEY", "OLLAMA_API_KEY", "GOOGLE_API_KEY", "GEMINI_API_KEY"} {
		t.Setenv(v, "")
	}
	cfg := &config.Config{DataDir: t.TempDir()}
	cfg.AI.Budget = cfg.AI.Budget.WithDefaults()
	cfg.Heartbeat = cfg.Heartbeat.WithDefaults()
	cfg.MCP = cfg.MCP.WithDefaults()

	c, err := controller.New(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() {
		c.Tasks.Close()
		c.Memory.Close()
	})
	return c
}

func TestSessionRunPrintsWelcomeAndHandlesCommand(t *testing.T) {
	ctrl := newTestController(t)
	in := strings.NewReader("/mood\n/quit\n")
	var out bytes.Buffer

	s := New(ctrl, in, &out)
	err := s.Run(context.Background())
	require.NoError(t, err)

	output := out.String()
	require.Contains(t, output, "ready")
	require.Contains(t, output, "Session ended.")
}

func TestSessionRunExitsOnEOFWithoutQuit(t *testing.T) {
	ctrl := newTestController(t)
	in := strings.NewReader("/help\n")
	var out bytes.Buffer

	s := New(ctrl, in, &out)
	err := s.Run(context.Background())
	require.NoError(t, err)
	require.Contains(t, out.String(), "Session ended.")
}

func TestSessionRunSkipsBlankLines(t *testing.T) {
	ctrl := newTestController(t)
	in := strings.NewReader("\n\n/mood\n/exit\n")
	var out bytes.Buffer

	s := New(ctrl, in, &out)
	err := s.Run(context.Background())
	require.NoError(t, err)
}

func TestSessionRunPrintsErrorOnHandlerFailure(t *testing.T) {
	ctrl := newTestController(t)
	in := strings.NewReader("plain chat message with no provider configured\n/q\n")
	var out bytes.Buffer

	s := New(ctrl, in, &out)
	err := s.Run(context.Background())
	require.NoError(t, err)
	require.Contains(t, out.String(), "Error:")
}
