package heartbeat

import (
	"context"

	"github.com/rs/zerolog"
)

// NoopDisplay implements domain.DisplaySink by doing nothing. Useful for
// headless operation and tests where no physical display is attached.
type NoopDisplay struct{}

func (NoopDisplay) Update(ctx context.Context, face, text, moodText, status string, force bool) error {
	return nil
}
func (NoopDisplay) ShowMessagePaginated(ctx context.Context, text, face string, pageDelayMs int, loop bool) (int, error) {
	return 0, nil
}
func (NoopDisplay) SetMode(mode string)             {}
func (NoopDisplay) IncrementChatCount()             {}
func (NoopDisplay) ShouldActivateScreensaver() bool { return false }
func (NoopDisplay) StartScreensaver()               {}
func (NoopDisplay) StopScreensaver()                {}

// LoggingDisplay implements domain.DisplaySink by logging every call,
// useful for terminal front-ends and development without the real e-ink
// driver.
type LoggingDisplay struct {
	log zerolog.Logger
}

// NewLoggingDisplay wraps log for display-sink calls.
func NewLoggingDisplay(log zerolog.Logger) *LoggingDisplay {
	return &LoggingDisplay{log: log.With().Str("component", "display").Logger()}
}

func (d *LoggingDisplay) Update(ctx context.Context, face, text, moodText, status string, force bool) error {
	d.log.Info().Str("face", face).Str("text", text).Str("mood", moodText).Str("status", status).Bool("force", force).Msg("display update")
	return nil
}

func (d *LoggingDisplay) ShowMessagePaginated(ctx context.Context, text, face string, pageDelayMs int, loop bool) (int, error) {
	d.log.Info().Str("face", face).Str("text", text).Msg("display message")
	return 1, nil
}

func (d *LoggingDisplay) SetMode(mode string) {
	d.log.Info().Str("mode", mode).Msg("display mode")
}

func (d *LoggingDisplay) IncrementChatCount() {}

func (d *LoggingDisplay) ShouldActivateScreensaver() bool { return false }

func (d *LoggingDisplay) StartScreensaver() {
	d.log.Info().Msg("screensaver start")
}

func (d *LoggingDisplay) StopScreensaver() {
	d.log.Info().Msg("screensaver stop")
}
