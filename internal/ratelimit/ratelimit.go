// Package ratelimit implements a per-operation windowed usage/cost
// accountant and throttle policy. It is one of three independent
// accountants in the system (the others are the XP limiter in
// internal/progression and the token budget in internal/brain) and must
// stay that way: their reset cadences and penalty rules differ.
package ratelimit

import (
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/inkling-labs/inkling-core/internal/storex"
)

const (
	defaultPeriodSeconds = 86400
	dailyResetSeconds    = 86400
	monthlyResetSeconds  = 2592000
	maxWaitSeconds       = 60
)

// Usage is one operation's windowed counter.
type Usage struct {
	Count         int     `json:"count"`
	PeriodStart   int64   `json:"period_start"`
	PeriodSeconds int64   `json:"period_seconds"`
	Limit         int     `json:"limit"`
}

// Costs tracks accumulated float cost for an operation across three windows.
type Costs struct {
	Daily        float64 `json:"daily"`
	Monthly      float64 `json:"monthly"`
	Total        float64 `json:"total"`
	DailyStart   int64   `json:"daily_start"`
	MonthlyStart int64   `json:"monthly_start"`
}

type persistedState struct {
	Usage map[string]*Usage `json:"usage"`
	Costs map[string]*Costs `json:"costs"`
}

// Limiter is the rate limiter + throttle controller.
type Limiter struct {
	mu    sync.Mutex
	usage map[string]*Usage
	costs map[string]*Costs

	log  zerolog.Logger
	path string
	now  func() time.Time
}

// New creates a Limiter persisting to path. now defaults to time.Now.
func New(log zerolog.Logger, path string) *Limiter {
	l := &Limiter{
		usage: make(map[string]*Usage),
		costs: make(map[string]*Costs),
		log:   log.With().Str("component", "ratelimit").Logger(),
		path:  path,
		now:   time.Now,
	}
	var state persistedState
	if storex.LoadJSON(l.log, path, &state) {
		if state.Usage != nil {
			l.usage = state.Usage
		}
		if state.Costs != nil {
			l.costs = state.Costs
		}
	}
	return l
}

func (l *Limiter) getUsage(op string) *Usage {
	u, ok := l.usage[op]
	if !ok {
		u = &Usage{PeriodSeconds: defaultPeriodSeconds}
		l.usage[op] = u
	}
	now := l.now().Unix()
	if u.PeriodSeconds <= 0 {
		u.PeriodSeconds = defaultPeriodSeconds
	}
	if u.PeriodStart == 0 {
		u.PeriodStart = now
	}
	if now-u.PeriodStart >= u.PeriodSeconds {
		u.Count = 0
		u.PeriodStart = now
	}
	return u
}

func (l *Limiter) getCosts(op string) *Costs {
	c, ok := l.costs[op]
	if !ok {
		c = &Costs{}
		l.costs[op] = c
	}
	now := l.now().Unix()
	if c.DailyStart == 0 {
		c.DailyStart = now
	}
	if c.MonthlyStart == 0 {
		c.MonthlyStart = now
	}
	if now-c.DailyStart >= dailyResetSeconds {
		c.Daily = 0
		c.DailyStart = now
	}
	if now-c.MonthlyStart >= monthlyResetSeconds {
		c.Monthly = 0
		c.MonthlyStart = now
	}
	return c
}

// SetLimit sets the cap for op. A non-positive limit means "unlimited".
func (l *Limiter) SetLimit(op string, n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.getUsage(op).Limit = n
	l.persistLocked()
}

// Check reports whether n more units of op are allowed right now, the
// remaining units in the current window, and the seconds until reset.
func (l *Limiter) Check(op string, n int) (allowed bool, remaining int, resetIn int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	u := l.getUsage(op)
	resetIn = u.PeriodSeconds - (l.now().Unix() - u.PeriodStart)
	if u.Limit <= 0 {
		return true, math.MaxInt32, resetIn
	}
	remaining = u.Limit - u.Count
	if remaining < 0 {
		remaining = 0
	}
	return u.Count+n <= u.Limit, remaining, resetIn
}

// Record accounts n more units of usage for op.
func (l *Limiter) Record(op string, n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	u := l.getUsage(op)
	u.Count += n
	l.persistLocked()
}

// RecordCost adds cost to op's daily/monthly/total accountants.
func (l *Limiter) RecordCost(op string, cost float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	c := l.getCosts(op)
	c.Daily += cost
	c.Monthly += cost
	c.Total += cost
	l.persistLocked()
}

// GetUsage returns a copy of op's current usage counter.
func (l *Limiter) GetUsage(op string) Usage {
	l.mu.Lock()
	defer l.mu.Unlock()
	return *l.getUsage(op)
}

// Reset clears the counter (and accumulated costs) for op, or for every
// operation if op is empty. Limits set with SetLimit are kept.
func (l *Limiter) Reset(op string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if op == "" {
		for name, u := range l.usage {
			l.usage[name] = &Usage{PeriodSeconds: u.PeriodSeconds, Limit: u.Limit}
		}
		l.costs = make(map[string]*Costs)
	} else {
		if u, ok := l.usage[op]; ok {
			l.usage[op] = &Usage{PeriodSeconds: u.PeriodSeconds, Limit: u.Limit}
		}
		delete(l.costs, op)
	}
	l.persistLocked()
}

func (l *Limiter) persistLocked() {
	state := persistedState{Usage: l.usage, Costs: l.costs}
	storex.SaveJSON(l.log, l.path, state)
}

// ThrottleDelay computes, from usage ratio u = 1 - remaining/limit, the
// delay a caller should wait before retrying, and whether it should abort
// instead (delay > 60s).
func (l *Limiter) ThrottleDelay(op string) (delay time.Duration, abort bool) {
	l.mu.Lock()
	u := l.getUsage(op)
	limit := u.Limit
	remaining := limit - u.Count
	if remaining < 0 {
		remaining = 0
	}
	resetIn := u.PeriodSeconds - (l.now().Unix() - u.PeriodStart)
	l.mu.Unlock()

	if limit <= 0 {
		return 0, false
	}
	ratio := 1 - float64(remaining)/float64(limit)
	var seconds float64
	switch {
	case ratio < 0.5:
		seconds = 0
	case ratio < 0.8:
		seconds = 0.5
	case ratio < 0.95:
		seconds = 2
	default:
		if remaining > 0 {
			seconds = float64(resetIn) / float64(remaining)
		} else {
			seconds = float64(resetIn)
		}
	}
	if seconds > maxWaitSeconds {
		return time.Duration(seconds * float64(time.Second)), true
	}
	return time.Duration(seconds * float64(time.Second)), false
}

// Warning returns a human-readable warning string once usage ratio crosses
// 0.75, 0.9, or 1.0, or "" below the first threshold.
func (l *Limiter) Warning(op string) string {
	l.mu.Lock()
	u := l.getUsage(op)
	limit := u.Limit
	count := u.Count
	l.mu.Unlock()
	if limit <= 0 {
		return ""
	}
	ratio := float64(count) / float64(limit)
	switch {
	case ratio >= 1.0:
		return "rate limit reached for " + op
	case ratio >= 0.9:
		return "approaching rate limit for " + op + " (90% used)"
	case ratio >= 0.75:
		return "approaching rate limit for " + op + " (75% used)"
	default:
		return ""
	}
}
