package domain

import "context"

// DisplaySink is the abstract e-ink/UI surface the Heartbeat and front-ends
// drive. The concrete driver lives outside this repo; a no-op and a logging
// implementation are provided in internal/heartbeat for tests and headless
// operation.
type DisplaySink interface {
	Update(ctx context.Context, face, text, moodText, status string, force bool) error
	ShowMessagePaginated(ctx context.Context, text, face string, pageDelayMs int, loop bool) (int, error)
	SetMode(mode string)
	IncrementChatCount()
	ShouldActivateScreensaver() bool
	StartScreensaver()
	StopScreensaver()
}
