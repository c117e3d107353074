package scheduler

import "time"

// Task is one entry in the schedule: a unique name, a validated
// expression, the action it dispatches, and run bookkeeping.
type Task struct {
	Name         string    `yaml:"name" json:"name"`
	ScheduleExpr string    `yaml:"schedule" json:"schedule"`
	Action       string    `yaml:"action" json:"action"`
	Enabled      bool      `yaml:"enabled" json:"enabled"`
	LastRun      time.Time `yaml:"-" json:"last_run,omitempty"`
	RunCount     int       `yaml:"-" json:"run_count"`
	LastError    string    `yaml:"-" json:"last_error,omitempty"`
	NextRun      time.Time `yaml:"-" json:"next_run,omitempty"`

	expr *Expr
}
