package controller

import (
	"context"

	"github.com/inkling-labs/inkling-core/internal/progression"
)

// Chat runs one user turn through the Brain and feeds the outcome back into
// the personality's XP/mood event bus, mirroring ssh_chat.py's
// _handle_message: think, award XP by chat quality, nudge mood.
func (c *Controller) Chat(ctx context.Context, userMessage string) (string, error) {
	result, err := c.Brain.Think(ctx, userMessage, c.Personality.PromptContext())
	if err != nil {
		c.Personality.OnFailure(0.3)
		return "", err
	}

	if result.ChatQuality != nil {
		c.Personality.OnInteraction(true, progression.XPSource(result.ChatQuality.Source), result.ChatQuality.BaseXP, userMessage)
	}
	c.Personality.OnSuccess(0.3)
	return result.Content, nil
}
