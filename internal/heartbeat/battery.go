package heartbeat

import (
	"context"
	"fmt"
)

// BatteryStatus is one sample of system power state.
type BatteryStatus struct {
	Percentage int
	Charging   bool
}

// BatteryReader is the abstract power-status source. No concrete battery
// driver lives in this module; a front-end wires in whatever the host SBC
// exposes (sysfs, a system_profiler shim, a desk-bound stub that always
// reports mains power).
type BatteryReader interface {
	Read() (BatteryStatus, error)
}

// WithBattery wires a BatteryReader. Without one, battery-driven mood and
// behaviors never fire.
func WithBattery(r BatteryReader) Option {
	return func(h *Heartbeat) { h.battery = r }
}

// updateBatteryBasedMood samples the battery reader and, on a change in
// percentage or charging state, reports it to the personality so mood can
// react. Read failures mark battery state unknown for this tick, which
// suppresses all battery behaviors.
func (h *Heartbeat) updateBatteryBasedMood() {
	if h.battery == nil {
		return
	}
	status, err := h.battery.Read()
	if err != nil {
		h.mu.Lock()
		h.batteryKnown = false
		h.mu.Unlock()
		h.log.Debug().Err(err).Msg("battery read failed")
		return
	}

	h.mu.Lock()
	shouldNotify := !h.batteryKnown || status.Percentage != h.lastBatteryPct || status.Charging != h.lastCharging
	h.lastBatteryPct = status.Percentage
	h.lastCharging = status.Charging
	h.batteryKnown = true
	h.mu.Unlock()

	if shouldNotify {
		h.personality.OnBatteryStatusChange(status.Percentage, status.Charging)
	}
}

func batteryLowWarning(ctx context.Context, h *Heartbeat) (string, error) {
	h.mu.Lock()
	known, charging, pct := h.batteryKnown, h.lastCharging, h.lastBatteryPct
	h.mu.Unlock()
	if !known || charging {
		return "", nil
	}
	if pct > h.cfg.BatteryCriticalThreshold && pct <= h.cfg.BatteryLowThreshold {
		return fmt.Sprintf("My battery is at %d%%. Feeling a bit low on energy.", pct), nil
	}
	return "", nil
}

func batteryCriticalWarning(ctx context.Context, h *Heartbeat) (string, error) {
	h.mu.Lock()
	known, charging, pct := h.batteryKnown, h.lastCharging, h.lastBatteryPct
	h.mu.Unlock()
	if !known || charging {
		return "", nil
	}
	if pct <= h.cfg.BatteryCriticalThreshold {
		return fmt.Sprintf("Critical battery! Only %d%% left. I need power NOW!", pct), nil
	}
	return "", nil
}

func batteryChargingStart(ctx context.Context, h *Heartbeat) (string, error) {
	h.mu.Lock()
	known, charging, wasCharging := h.batteryKnown, h.lastCharging, h.prevCharging
	h.mu.Unlock()
	if known && charging && !wasCharging {
		return "Ah, power! Thanks for plugging me in. Feeling better already!", nil
	}
	return "", nil
}

func batteryChargingStop(ctx context.Context, h *Heartbeat) (string, error) {
	h.mu.Lock()
	known, charging, wasCharging, pct := h.batteryKnown, h.lastCharging, h.prevCharging, h.lastBatteryPct
	h.mu.Unlock()
	if known && !charging && wasCharging && pct < h.cfg.BatteryFullThreshold {
		return "Charging stopped. Still have some to go!", nil
	}
	return "", nil
}

func batteryFull(ctx context.Context, h *Heartbeat) (string, error) {
	h.mu.Lock()
	known, charging, pct, wasFull := h.batteryKnown, h.lastCharging, h.lastBatteryPct, h.prevBatteryFull
	h.mu.Unlock()
	if known && charging && pct >= h.cfg.BatteryFullThreshold && !wasFull {
		return "Battery full! Ready for anything!", nil
	}
	return "", nil
}
