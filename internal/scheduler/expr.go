// Package scheduler implements a cron-style task runner driven off a
// restricted, regex-validated schedule expression grammar: no code
// evaluation, ever.
package scheduler

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	cronlib "github.com/robfig/cron/v3"
)

var _ cronlib.Schedule = (*Expr)(nil)

var exprPattern = regexp.MustCompile(`^every\((\d*)\)\.([A-Za-z]+)(?:\.at\('(\d{1,2}:\d{2})'\))?$`)

var validUnits = map[string]bool{
	"second": true, "seconds": true,
	"minute": true, "minutes": true,
	"hour": true, "hours": true,
	"day": true, "days": true,
	"week": true, "weeks": true,
}

var weekdays = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

// Expr is a parsed, validated schedule expression. It implements
// robfig/cron/v3's Schedule interface (Next(time.Time) time.Time), used
// purely for next-run computation — the expression grammar itself has
// nothing to do with standard crontab syntax.
type Expr struct {
	raw      string
	interval int
	unit     string // normalized singular unit, or a weekday name
	atHour   int
	atMinute int
	hasAt    bool
}

// ParseExpr validates expr against the whitelist grammar and returns the
// parsed form, or an error naming exactly what was rejected.
func ParseExpr(expr string) (*Expr, error) {
	trimmed := strings.TrimSpace(expr)
	m := exprPattern.FindStringSubmatch(trimmed)
	if m == nil {
		return nil, fmt.Errorf("schedule expression rejected by whitelist grammar: %q", expr)
	}

	intervalStr, unitOrDay, atTime := m[1], strings.ToLower(m[2]), m[3]

	interval := 1
	if intervalStr != "" {
		n, err := strconv.Atoi(intervalStr)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid interval in schedule expression: %q", expr)
		}
		interval = n
	}

	_, isWeekday := weekdays[unitOrDay]
	if !validUnits[unitOrDay] && !isWeekday {
		return nil, fmt.Errorf("unknown unit or day name: %q", unitOrDay)
	}

	e := &Expr{raw: trimmed, interval: interval, unit: normalizeUnit(unitOrDay)}

	if atTime != "" {
		parts := strings.SplitN(atTime, ":", 2)
		hour, herr := strconv.Atoi(parts[0])
		minute, merr := strconv.Atoi(parts[1])
		if herr != nil || merr != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
			return nil, fmt.Errorf("invalid time of day in schedule expression: %q", atTime)
		}
		e.atHour, e.atMinute, e.hasAt = hour, minute, true
	}

	return e, nil
}

func normalizeUnit(u string) string {
	return strings.TrimSuffix(u, "s")
}

// String returns the original expression text.
func (e *Expr) String() string { return e.raw }

// Next implements cron.Schedule: the earliest instant strictly after t
// that this expression matches.
func (e *Expr) Next(t time.Time) time.Time {
	if _, ok := weekdays[e.unit]; ok {
		return e.nextWeekday(t)
	}
	switch e.unit {
	case "second":
		return t.Add(time.Duration(e.interval) * time.Second)
	case "minute":
		return t.Add(time.Duration(e.interval) * time.Minute)
	case "hour":
		return t.Add(time.Duration(e.interval) * time.Hour)
	case "day":
		return e.nextDaily(t)
	case "week":
		return e.nextWeeklyInterval(t)
	default:
		return t.Add(time.Duration(e.interval) * time.Minute)
	}
}

func (e *Expr) nextDaily(t time.Time) time.Time {
	if !e.hasAt {
		return t.AddDate(0, 0, e.interval)
	}
	next := time.Date(t.Year(), t.Month(), t.Day(), e.atHour, e.atMinute, 0, 0, t.Location())
	if !next.After(t) {
		next = next.AddDate(0, 0, e.interval)
	}
	return next
}

func (e *Expr) nextWeeklyInterval(t time.Time) time.Time {
	days := 7 * e.interval
	if !e.hasAt {
		return t.AddDate(0, 0, days)
	}
	next := time.Date(t.Year(), t.Month(), t.Day(), e.atHour, e.atMinute, 0, 0, t.Location())
	if !next.After(t) {
		next = next.AddDate(0, 0, days)
	}
	return next
}

func (e *Expr) nextWeekday(t time.Time) time.Time {
	target := weekdays[e.unit]
	hour, minute := 0, 0
	if e.hasAt {
		hour, minute = e.atHour, e.atMinute
	}
	candidate := time.Date(t.Year(), t.Month(), t.Day(), hour, minute, 0, 0, t.Location())
	for candidate.Weekday() != target || !candidate.After(t) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate
}
