package commandregistry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetStripsLeadingSlashAndLowercases(t *testing.T) {
	r := New()
	r.Register(Command{Name: "mood", Description: "d", Category: "personality"})

	cmd, ok := r.Get("/MOOD")
	require.True(t, ok)
	require.Equal(t, "mood", cmd.Name)

	_, ok = r.Get("nonexistent")
	require.False(t, ok)
}

func TestByCategoryGroupsInRegistrationOrder(t *testing.T) {
	r := New()
	r.Register(Command{Name: "help", Category: "info"})
	r.Register(Command{Name: "mood", Category: "personality"})
	r.Register(Command{Name: "level", Category: "info"})

	grouped := r.ByCategory()
	names := make([]string, 0, 2)
	for _, cmd := range grouped["info"] {
		names = append(names, cmd.Name)
	}
	require.Equal(t, []string{"help", "level"}, names)
}

func TestDispatchUnknownCommand(t *testing.T) {
	r := New()
	_, gate, err := r.Dispatch(context.Background(), "/bogus", Capabilities{})
	require.NoError(t, err)
	require.Equal(t, GateUnknown, gate)
}

func TestDispatchGatesOnRequiresBrain(t *testing.T) {
	r := New()
	r.Register(Command{Name: "stats", Category: "info", RequiresBrain: true,
		Handler: func(ctx context.Context, args string) (string, error) { return "ok", nil }})

	_, gate, err := r.Dispatch(context.Background(), "/stats", Capabilities{BrainAvailable: false})
	require.NoError(t, err)
	require.Equal(t, GateNoBrain, gate)

	result, gate, err := r.Dispatch(context.Background(), "/stats", Capabilities{BrainAvailable: true})
	require.NoError(t, err)
	require.Equal(t, GateOK, gate)
	require.Equal(t, "ok", result)
}

func TestDispatchPassesArgsAfterCommandName(t *testing.T) {
	r := New()
	var received string
	r.Register(Command{Name: "task", Category: "tasks",
		Handler: func(ctx context.Context, args string) (string, error) {
			received = args
			return "", nil
		}})

	_, gate, err := r.Dispatch(context.Background(), "/task buy milk", Capabilities{})
	require.NoError(t, err)
	require.Equal(t, GateOK, gate)
	require.Equal(t, "buy milk", received)
}

func TestDispatchWithoutLeadingSlash(t *testing.T) {
	r := New()
	r.Register(Command{Name: "mood", Category: "personality",
		Handler: func(ctx context.Context, args string) (string, error) { return "happy", nil }})

	result, gate, err := r.Dispatch(context.Background(), "mood", Capabilities{})
	require.NoError(t, err)
	require.Equal(t, GateOK, gate)
	require.Equal(t, "happy", result)
}

func TestDispatchHandlerErrorIsWrapped(t *testing.T) {
	r := New()
	r.Register(Command{Name: "boom", Category: "info",
		Handler: func(ctx context.Context, args string) (string, error) { return "", errors.New("kaboom") }})

	_, gate, err := r.Dispatch(context.Background(), "/boom", Capabilities{})
	require.Equal(t, GateOK, gate)
	require.Error(t, err)
	require.Contains(t, err.Error(), "boom")
	require.Contains(t, err.Error(), "kaboom")
}

func TestDispatchMissingHandlerReturnsGate(t *testing.T) {
	r := New()
	r.Register(Command{Name: "unwired", Category: "info"})

	_, gate, err := r.Dispatch(context.Background(), "/unwired", Capabilities{})
	require.NoError(t, err)
	require.Equal(t, GateNoHandler, gate)
}

func TestRegisterReplacesWithoutDuplicatingOrder(t *testing.T) {
	r := New()
	r.Register(Command{Name: "mood", Category: "personality", Description: "v1"})
	r.Register(Command{Name: "mood", Category: "personality", Description: "v2"})

	require.Len(t, r.Commands(), 1)
	cmd, _ := r.Get("mood")
	require.Equal(t, "v2", cmd.Description)
}

func TestNewWithDefaultsRegistersAllDescriptors(t *testing.T) {
	r := NewWithDefaults()
	require.Equal(t, len(DefaultDescriptors()), len(r.Commands()))
	_, ok := r.Get("help")
	require.True(t, ok)
}
