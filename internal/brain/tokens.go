package brain

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/inkling-labs/inkling-core/internal/domain"
)

var (
	tokenizerCache   = make(map[string]*tiktoken.Tiktoken)
	tokenizerCacheMu sync.RWMutex
)

// getTokenizer returns a cached tiktoken encoder for model, falling back to
// cl100k_base for models tiktoken-go doesn't recognize (local/Ollama models
// named after non-OpenAI families).
func getTokenizer(model string) (*tiktoken.Tiktoken, error) {
	tokenizerCacheMu.RLock()
	if tkm, ok := tokenizerCache[model]; ok {
		tokenizerCacheMu.RUnlock()
		return tkm, nil
	}
	tokenizerCacheMu.RUnlock()

	tokenizerCacheMu.Lock()
	defer tokenizerCacheMu.Unlock()
	if tkm, ok := tokenizerCache[model]; ok {
		return tkm, nil
	}

	tkm, err := tiktoken.EncodingForModel(model)
	if err != nil {
		tkm, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, err
		}
	}
	tokenizerCache[model] = tkm
	return tkm, nil
}

// tokensPerMessage is OpenAI's per-message overhead, consistent across the
// GPT-3.5/4 chat-completions family.
const tokensPerMessage = 3

// estimateTokens counts the prompt this turn will send: the system prompt,
// the conversation window, and the pending user message, using model's
// tokenizer (or the cl100k_base fallback). Used to gate a request against
// the per-request budget before it's sent, not to reproduce provider
// billing exactly.
func estimateTokens(model, systemPrompt string, history []domain.Message) int {
	tkm, err := getTokenizer(model)
	if err != nil {
		return estimateTokensByLength(systemPrompt, history)
	}

	n := tokensPerMessage + len(tkm.Encode(systemPrompt, nil, nil))
	for _, m := range history {
		n += tokensPerMessage + len(tkm.Encode(m.Content, nil, nil)) + len(tkm.Encode(string(m.Role), nil, nil))
	}
	n += 3 // every reply is primed with <|start|>assistant<|message|>
	return n
}

// estimateTokensByLength is a crude chars/4 fallback for when even
// cl100k_base can't be loaded (e.g. offline with no cached BPE file).
func estimateTokensByLength(systemPrompt string, history []domain.Message) int {
	total := len(systemPrompt)
	for _, m := range history {
		total += len(m.Content)
	}
	return total/4 + 1
}
