package brain

import (
	"github.com/rs/zerolog"

	"github.com/inkling-labs/inkling-core/internal/domain"
	"github.com/inkling-labs/inkling-core/internal/storex"
)

const (
	defaultHistoryWindow = 10
	transcriptMaxOnDisk  = 100
)

type transcript struct {
	log  zerolog.Logger
	path string
}

func newTranscript(log zerolog.Logger, path string) *transcript {
	return &transcript{log: log.With().Str("component", "transcript").Logger(), path: path}
}

// load replaces the in-memory history with whatever was last saved. A
// missing or corrupt file yields an empty history.
func (t *transcript) load() []domain.Message {
	var messages []domain.Message
	storex.LoadJSON(t.log, t.path, &messages)
	return messages
}

// save persists messages bounded to the last 100, swallowing failures.
func (t *transcript) save(messages []domain.Message) {
	if len(messages) > transcriptMaxOnDisk {
		messages = messages[len(messages)-transcriptMaxOnDisk:]
	}
	storex.SaveJSON(t.log, t.path, messages)
}

// trimWindow returns the last n messages (n <= 0 means defaultHistoryWindow).
func trimWindow(messages []domain.Message, n int) []domain.Message {
	if n <= 0 {
		n = defaultHistoryWindow
	}
	if len(messages) <= n {
		return messages
	}
	return messages[len(messages)-n:]
}
