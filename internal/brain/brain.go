package brain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/inkling-labs/inkling-core/internal/aierr"
	"github.com/inkling-labs/inkling-core/internal/config"
	"github.com/inkling-labs/inkling-core/internal/domain"
)

const (
	defaultMaxRetries   = 3
	defaultMaxToolRounds = 5
	fallbackApology     = "I'm having trouble putting that into words right now. Could you try again?"
	toolResultPrefix    = "[Tool results]\n"
	toolResultMaxChars  = 500
)

// Brain is the multi-provider LLM dispatcher: it owns conversation history,
// the token budget, memory-augmented prompt assembly, rule-based memory
// capture, and the tool-call loop against a wired toolProvider.
type Brain struct {
	providers     []Provider
	tools         toolProvider
	memory        domain.MemoryStore
	budget        *tokenBudget
	history       *transcript
	estimateModel string

	memCfg config.MemoryConfig
	log    zerolog.Logger

	messages []domain.Message
}

// New builds a Brain from already-constructed providers (see BuildProviders)
// and wires it to a memory store and MCP tool manager. Either may be nil.
func New(providers []Provider, tools toolProvider, memory domain.MemoryStore, dataDir string, ai config.AIConfig, mem config.MemoryConfig, log zerolog.Logger) *Brain {
	b := &Brain{
		providers:     providers,
		tools:         tools,
		memory:        memory,
		budget:        newTokenBudget(log, dataDir+"/token_budget.json", ai.Budget.DailyTokens, ai.Budget.PerRequestMax),
		history:       newTranscript(log, dataDir+"/conversation.json"),
		estimateModel: primaryModel(ai),
		memCfg:        mem,
		log:           log.With().Str("component", "brain").Logger(),
	}
	b.messages = b.history.load()
	return b
}

// primaryModel picks the model name of whichever provider ai.Primary names,
// used only to choose a tiktoken encoding for pre-flight budget estimates —
// never passed to a provider, each of which already carries its own model.
func primaryModel(ai config.AIConfig) string {
	switch ai.Primary {
	case "anthropic":
		if ai.Anthropic != nil {
			return ai.Anthropic.Model
		}
	case "openai":
		if ai.OpenAI != nil {
			return ai.OpenAI.Model
		}
	case "gemini":
		if ai.Gemini != nil {
			return ai.Gemini.Model
		}
	case "ollama":
		if ai.Ollama != nil {
			return ai.Ollama.Model
		}
	}
	return ""
}

// LoadMessages replaces the in-memory history from disk.
func (b *Brain) LoadMessages() { b.messages = b.history.load() }

// SaveMessages persists the current history, bounded to the last 100.
func (b *Brain) SaveMessages() { b.history.save(b.messages) }

// ClearHistory empties the in-memory history and persists the empty state.
func (b *Brain) ClearHistory() {
	b.messages = nil
	b.history.save(b.messages)
}

// Stats is a snapshot of Brain bookkeeping, surfaced to front-ends.
type Stats struct {
	TokensUsedToday int
	MessageCount    int
	Providers       []string
}

func (b *Brain) GetStats() Stats {
	names := make([]string, len(b.providers))
	for i, p := range b.providers {
		names[i] = p.Name()
	}
	return Stats{
		TokensUsedToday: b.budget.TokensUsedToday,
		MessageCount:    len(b.messages),
		Providers:       names,
	}
}

// Think is the Brain's single entry point: it appends the user message,
// assembles a memory-augmented system prompt, fails over across providers
// with retry/backoff, loops through tool calls, persists the turn, and
// extracts rule-based memories from the raw user text.
func (b *Brain) Think(ctx context.Context, userMessage, systemPrompt string, opts ...ThinkOption) (domain.ThinkResult, error) {
	cfg := thinkConfig{
		maxRetries:    defaultMaxRetries,
		useTools:      true,
		maxToolRounds: defaultMaxToolRounds,
		maxNewPerTurn: b.memCfg.Capture.MaxNewPerTurn,
	}
	for _, o := range opts {
		o(&cfg)
	}

	pending := append(append([]domain.Message{}, b.messages...), domain.Message{Role: domain.RoleUser, Content: userMessage, Timestamp: time.Now()})
	if estimated := estimateTokens(b.estimateModel, systemPrompt, trimWindow(pending, defaultHistoryWindow)); !b.budget.checkBudget(estimated) {
		return domain.ThinkResult{}, aierr.ErrBudgetExceeded
	}

	b.messages = append(b.messages, domain.Message{Role: domain.RoleUser, Content: userMessage, Timestamp: time.Now()})
	b.messages = trimWindow(b.messages, defaultHistoryWindow)

	effectivePrompt := systemPrompt
	if b.memCfg.PromptContext.Enabled {
		if ctxBlock := buildMemoryContext(b.memory, userMessage, b.memCfg.PromptContext.MaxItems, b.memCfg.PromptContext.MaxChars); ctxBlock != "" {
			effectivePrompt = systemPrompt + "\n\n" + ctxBlock
		}
	}

	var tools []ToolDefinition
	if cfg.useTools && b.tools != nil && b.tools.HasTools() {
		tools = toolsFromMCP(b.tools.GetToolsForQuery(userMessage))
	}

	result, err := b.runProviders(ctx, effectivePrompt, tools, cfg)
	if err != nil {
		b.messages = b.messages[:len(b.messages)-1]
		return domain.ThinkResult{}, err
	}

	if cfg.useTools {
		result, err = b.runToolRounds(ctx, effectivePrompt, tools, result, cfg)
		if err != nil {
			b.messages = b.messages[:len(b.messages)-1]
			return domain.ThinkResult{}, err
		}
	}

	quality := b.analyzeChatQuality(userMessage)

	if strings.TrimSpace(result.Content) == "" {
		result.Content = fallbackApology
	}

	b.budget.record(result.TokensUsed)
	b.messages = append(b.messages, domain.Message{Role: domain.RoleAssistant, Content: result.Content, Timestamp: time.Now()})
	b.messages = trimWindow(b.messages, defaultHistoryWindow)
	b.history.save(b.messages)

	if b.memCfg.Capture.RuleBased {
		b.captureMemories(userMessage, cfg.maxNewMemories())
	}

	return domain.ThinkResult{
		Content:     result.Content,
		TokensUsed:  result.TokensUsed,
		Provider:    result.providerName,
		Model:       result.Model,
		ToolCalls:   result.ToolCalls,
		IsToolUse:   result.IsToolUse,
		ChatQuality: &quality,
	}, nil
}

// namedResult threads which provider ultimately produced a generateResult,
// needed because the retry loop below moves between providers.
type namedResult struct {
	generateResult
	providerName string
}

func (b *Brain) runProviders(ctx context.Context, systemPrompt string, tools []ToolDefinition, cfg thinkConfig) (namedResult, error) {
	if len(b.providers) == 0 {
		return namedResult{}, aierr.ErrAllProvidersExhausted
	}

	for _, provider := range b.providers {
		for attempt := 0; attempt < cfg.maxRetries; attempt++ {
			res, err := provider.Generate(ctx, GenerateParams{
				SystemPrompt: systemPrompt,
				Messages:     b.messages,
				Tools:        tools,
			})
			if err == nil {
				return namedResult{generateResult: res, providerName: provider.Name()}, nil
			}

			classified := aierr.Classify(provider.Name(), err)
			switch {
			case classified.IsQuotaExceeded():
				b.log.Warn().Str("provider", provider.Name()).Msg("quota exceeded, trying next provider")
				attempt = cfg.maxRetries // break inner loop, fall to next provider
			case classified.IsRateLimit():
				delay := time.Duration(float64(time.Second) * (pow2(attempt) + 0.1*float64(attempt)))
				b.log.Warn().Str("provider", provider.Name()).Dur("delay", delay).Msg("rate limited, retrying")
				sleep(ctx, delay)
			default:
				b.log.Warn().Str("provider", provider.Name()).Err(classified).Msg("provider error, retrying")
				sleep(ctx, 500*time.Millisecond)
			}
		}
	}
	return namedResult{}, aierr.ErrAllProvidersExhausted
}

func pow2(attempt int) float64 {
	v := 1.0
	for i := 0; i < attempt; i++ {
		v *= 2
	}
	return v
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// runToolRounds executes ToolCall results against the wired tool provider
// and re-invokes the provider list through runProviders (starting again at
// the first provider, with the same retry and failover rules) until the
// model stops asking for tools or maxToolRounds is reached.
func (b *Brain) runToolRounds(ctx context.Context, systemPrompt string, tools []ToolDefinition, result namedResult, cfg thinkConfig) (namedResult, error) {
	rounds := 0
	for result.IsToolUse && rounds < cfg.maxToolRounds {
		rounds++
		b.callStatus(cfg, "thinking", "running tools", "working")

		var lines strings.Builder
		lines.WriteString(toolResultPrefix)
		for _, call := range result.ToolCalls {
			content, err := b.callTool(ctx, call)
			if err != nil {
				content = fmt.Sprintf("error: %s", aierr.Sanitize(err.Error()))
			}
			if len(content) > toolResultMaxChars {
				content = content[:toolResultMaxChars]
			}
			lines.WriteString(fmt.Sprintf("Tool %s: %s\n", call.ID, content))
		}
		b.messages = append(b.messages, domain.Message{Role: domain.RoleUser, Content: lines.String(), Timestamp: time.Now()})

		b.callStatus(cfg, "idle", "", "done")

		next, err := b.runProviders(ctx, systemPrompt, tools, cfg)
		if err != nil {
			return namedResult{}, err
		}
		result = next
	}
	return result, nil
}

func (b *Brain) callTool(ctx context.Context, call domain.ToolCall) (string, error) {
	if b.tools == nil {
		return "", fmt.Errorf("no tool provider wired")
	}
	return b.tools.CallTool(ctx, call.Name, call.Arguments)
}

func (b *Brain) callStatus(cfg thinkConfig, face, text, status string) {
	if cfg.statusCallback == nil {
		return
	}
	defer func() { _ = recover() }()
	cfg.statusCallback(face, text, status)
}

// analyzeChatQuality mirrors the reference heuristic: message length, the
// count of user turns in the last 10 history entries, and whether the
// message contains a question mark feed a fixed (source, base_xp) table.
// No sentiment is computed; the table does not depend on it.
func (b *Brain) analyzeChatQuality(userMessage string) domain.ChatQuality {
	length := len(userMessage)
	turns := 0
	window := b.messages
	if len(window) > 10 {
		window = window[len(window)-10:]
	}
	for _, m := range window {
		if m.Role == domain.RoleUser {
			turns++
		}
	}
	isQuestion := strings.Contains(userMessage, "?")

	switch {
	case length < 20 && !isQuestion:
		return domain.ChatQuality{Source: "greeting", BaseXP: 2}
	case turns >= 3 && length > 50:
		return domain.ChatQuality{Source: "deep_chat", BaseXP: 15}
	default:
		return domain.ChatQuality{Source: "quick_chat", BaseXP: 5}
	}
}

func (b *Brain) captureMemories(userMessage string, maxNew int) {
	if b.memory == nil {
		return
	}
	for _, fact := range captureFacts(userMessage, maxNew) {
		if _, err := b.memory.Remember(fact.Key, fact.Value, fact.Category, fact.Importance); err != nil {
			b.log.Warn().Err(err).Str("key", fact.Key).Msg("memory capture failed")
		}
	}
}

// GenerateThought asks the primary provider for one brief, tool-free
// thought, used by the heartbeat's autonomous-thought cadence.
func (b *Brain) GenerateThought(ctx context.Context, systemPrompt string) (string, error) {
	if len(b.providers) == 0 {
		return "", aierr.ErrAllProvidersExhausted
	}
	res, err := b.providers[0].Generate(ctx, GenerateParams{
		SystemPrompt: systemPrompt,
		Messages:     []domain.Message{{Role: domain.RoleUser, Content: "Share one brief thought.", Timestamp: time.Now()}},
		MaxTokens:    60,
	})
	if err != nil {
		return "", aierr.Classify(b.providers[0].Name(), err)
	}
	return strings.TrimSpace(res.Content), nil
}
