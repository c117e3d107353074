package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/inkling-labs/inkling-core/internal/domain"
)

// requestTimeout bounds how long a call() waits for a matching response,
// over either transport.
const requestTimeout = 30 * time.Second

// stdioTransport speaks newline-delimited JSON-RPC over a child process's
// stdin/stdout. One process, one reader goroutine, one writer goroutine;
// writes are serialized through a channel so concurrent callers never
// interleave partial lines on the wire.
type stdioTransport struct {
	name string
	cmd  *exec.Cmd
	log  zerolog.Logger

	writeCh chan []byte
	nextID  atomic.Int64
	pending sync.Map // int64 -> chan response

	closed   atomic.Bool
	failOnce sync.Once
}

func startStdio(ctx context.Context, name string, cfg domain.MCPServerConfig, log zerolog.Logger) (*stdioTransport, error) {
	cmd := exec.CommandContext(ctx, cfg.Command, cfg.Args...)
	env := os.Environ()
	for k, v := range cfg.Env {
		env = append(env, k+"="+v)
	}
	cmd.Env = env

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderr, _ := cmd.StderrPipe()

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting mcp server %s: %w", name, err)
	}

	t := &stdioTransport{
		name:    name,
		cmd:     cmd,
		log:     log.With().Str("mcp_server", name).Logger(),
		writeCh: make(chan []byte, 64),
	}

	go t.writeLoop(stdin)
	go t.readLoop(stdout)
	if stderr != nil {
		go t.drainStderr(stderr)
	}
	go func() {
		_ = cmd.Wait()
		t.failAllPending()
	}()

	return t, nil
}

func (t *stdioTransport) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	id := t.nextID.Add(1)
	ch := make(chan response, 1)
	t.pending.Store(id, ch)
	defer t.pending.Delete(id)

	data, err := json.Marshal(request{JSONRPC: "2.0", ID: id, Method: method, Params: params})
	if err != nil {
		return nil, err
	}
	if err := t.write(ctx, data); err != nil {
		return nil, err
	}

	select {
	case resp := <-ch:
		if resp.Error != nil {
			return nil, fmt.Errorf("mcp %s: %s", method, resp.Error.Message)
		}
		return resp.Result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(requestTimeout):
		return nil, fmt.Errorf("timeout waiting for response from %s", t.name)
	}
}

func (t *stdioTransport) notify(ctx context.Context, method string, params any) error {
	data, err := json.Marshal(notification{JSONRPC: "2.0", Method: method, Params: params})
	if err != nil {
		return err
	}
	return t.write(ctx, data)
}

func (t *stdioTransport) write(ctx context.Context, data []byte) error {
	if t.closed.Load() {
		return fmt.Errorf("mcp transport closed: %s", t.name)
	}
	data = append(data, '\n')
	select {
	case t.writeCh <- data:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *stdioTransport) writeLoop(stdin io.WriteCloser) {
	for data := range t.writeCh {
		if _, err := stdin.Write(data); err != nil {
			t.log.Error().Err(err).Msg("mcp stdio write failed")
			return
		}
	}
}

func (t *stdioTransport) readLoop(stdout io.ReadCloser) {
	// 10 MiB buffer: some servers (tool aggregators) emit very large
	// tools/list responses.
	sc := bufio.NewScanner(stdout)
	sc.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var resp response
		if err := json.Unmarshal(line, &resp); err != nil {
			t.log.Warn().Err(err).Msg("mcp stdio: malformed JSON line")
			continue
		}
		if len(resp.ID) == 0 {
			continue
		}
		var id int64
		if err := json.Unmarshal(resp.ID, &id); err != nil {
			continue
		}
		if chAny, ok := t.pending.Load(id); ok {
			ch := chAny.(chan response)
			select {
			case ch <- resp:
			default:
			}
			t.pending.Delete(id)
		}
	}
	t.failAllPending()
}

func (t *stdioTransport) drainStderr(stderr io.ReadCloser) {
	sc := bufio.NewScanner(stderr)
	for sc.Scan() {
		t.log.Debug().Str("stderr", sc.Text()).Msg("mcp server stderr")
	}
}

func (t *stdioTransport) failAllPending() {
	t.failOnce.Do(func() {
		t.pending.Range(func(key, value any) bool {
			ch := value.(chan response)
			select {
			case ch <- response{Error: &rpcError{Code: -32000, Message: "mcp transport closed"}}:
			default:
			}
			t.pending.Delete(key)
			return true
		})
	})
}

// close sends SIGTERM, gives the process 5s to exit, then SIGKILL.
func (t *stdioTransport) close() error {
	if t.closed.Swap(true) {
		return nil
	}
	close(t.writeCh)
	t.failAllPending()
	if t.cmd.Process == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- t.cmd.Wait() }()

	_ = t.cmd.Process.Signal(syscall.SIGTERM)
	select {
	case <-done:
		return nil
	case <-time.After(5 * time.Second):
		_ = t.cmd.Process.Kill()
		<-done
		return nil
	}
}
