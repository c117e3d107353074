package brain

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/inkling-labs/inkling-core/internal/storex"
)

const budgetResetSeconds = 86400

// tokenBudget persists {tokens_used_today, last_reset} to disk and resets
// the counter once a day boundary has passed, independently of the
// operation rate limiter and the XP limiter (three separate accountants,
// by design).
type tokenBudget struct {
	mu            sync.Mutex
	dailyLimit    int
	perRequestMax int

	TokensUsedToday int       `json:"tokens_used_today"`
	LastReset       time.Time `json:"last_reset"`

	log  zerolog.Logger
	path string
	now  func() time.Time
}

func newTokenBudget(log zerolog.Logger, path string, dailyLimit, perRequestMax int) *tokenBudget {
	b := &tokenBudget{
		dailyLimit:    dailyLimit,
		perRequestMax: perRequestMax,
		log:           log.With().Str("component", "token_budget").Logger(),
		path:          path,
		now:           time.Now,
	}
	if !storex.LoadJSON(b.log, path, b) {
		b.LastReset = b.now()
	}
	return b
}

func (b *tokenBudget) maybeReset() {
	if b.now().Sub(b.LastReset) > budgetResetSeconds*time.Second {
		b.TokensUsedToday = 0
		b.LastReset = b.now()
	}
}

// checkBudget reports whether n more tokens fit within the per-request max
// and the remaining daily budget.
func (b *tokenBudget) checkBudget(n int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeReset()
	if b.perRequestMax > 0 && n > b.perRequestMax {
		return false
	}
	return b.dailyLimit <= 0 || b.TokensUsedToday+n <= b.dailyLimit
}

// record accounts n tokens against today's usage and persists the result.
func (b *tokenBudget) record(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeReset()
	b.TokensUsedToday += n
	storex.SaveJSON(b.log, b.path, b)
}
