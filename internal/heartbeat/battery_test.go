package heartbeat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeBattery struct {
	status BatteryStatus
	err    error
}

func (f *fakeBattery) Read() (BatteryStatus, error) { return f.status, f.err }

func TestBatteryChargingStartFiresOnlyOnTransition(t *testing.T) {
	battery := &fakeBattery{status: BatteryStatus{Percentage: 50, Charging: false}}
	h := newTestHeartbeat(t, WithBattery(battery))

	h.updateBatteryBasedMood()
	msg, err := batteryChargingStart(context.Background(), h)
	require.NoError(t, err)
	require.Empty(t, msg)

	battery.status = BatteryStatus{Percentage: 55, Charging: true}
	h.updateBatteryBasedMood()
	msg, err = batteryChargingStart(context.Background(), h)
	require.NoError(t, err)
	require.NotEmpty(t, msg)

	h.prevCharging = h.lastCharging // simulate end-of-tick snapshot
	msg, err = batteryChargingStart(context.Background(), h)
	require.NoError(t, err)
	require.Empty(t, msg)
}

func TestBatteryFullFiresOnceUntilUnplugged(t *testing.T) {
	battery := &fakeBattery{status: BatteryStatus{Percentage: 96, Charging: true}}
	h := newTestHeartbeat(t, WithBattery(battery))
	h.updateBatteryBasedMood()

	msg, err := batteryFull(context.Background(), h)
	require.NoError(t, err)
	require.NotEmpty(t, msg)

	h.prevBatteryFull = true
	msg, err = batteryFull(context.Background(), h)
	require.NoError(t, err)
	require.Empty(t, msg)
}

func TestBatteryLowWarningOnlyWhenNotCharging(t *testing.T) {
	battery := &fakeBattery{status: BatteryStatus{Percentage: 15, Charging: false}}
	h := newTestHeartbeat(t, WithBattery(battery))
	h.updateBatteryBasedMood()

	msg, err := batteryLowWarning(context.Background(), h)
	require.NoError(t, err)
	require.NotEmpty(t, msg)

	battery.status.Charging = true
	h.updateBatteryBasedMood()
	msg, err = batteryLowWarning(context.Background(), h)
	require.NoError(t, err)
	require.Empty(t, msg)
}

func TestBatteryReadErrorMarksStatusUnknown(t *testing.T) {
	battery := &fakeBattery{err: errors.New("sysfs unavailable")}
	h := newTestHeartbeat(t, WithBattery(battery))
	h.updateBatteryBasedMood()
	require.False(t, h.batteryKnown)
}
