package controller

import "github.com/inkling-labs/inkling-core/internal/heartbeat"

// MainsPowerReader is the default BatteryReader for a desk-bound deployment
// with no battery sensor wired: always full and always charging, so
// battery-driven mood swings and low/critical behaviors never fire.
type MainsPowerReader struct{}

func (MainsPowerReader) Read() (heartbeat.BatteryStatus, error) {
	return heartbeat.BatteryStatus{Percentage: 100, Charging: true}, nil
}
